package model

import (
	"time"
)

// ExamStatus enumerates the possible states of an exam.
type ExamStatus string

const (
	ExamStatusUpcoming  ExamStatus = "upcoming"
	ExamStatusActive    ExamStatus = "active"
	ExamStatusCompleted ExamStatus = "completed"
)

// Exam is a named, ordered collection of questions bound to a phase.
// StartDatetime and EndDatetime are advisory; sessions are not cut off by them.
type Exam struct {
	ID                 int64      `json:"id"`
	PhaseID            int64      `json:"phase_id"`
	PhaseTitle         string     `json:"phase_title"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	DurationMinutes    int        `json:"duration_minutes"`
	QuestionsCount     int        `json:"questions_count"`
	PassingScore       int        `json:"passing_score"`
	RandomizeQuestions bool       `json:"randomize_questions"`
	ShowCorrectAnswers bool       `json:"show_correct_answers"`
	StartDatetime      *time.Time `json:"start_datetime,omitempty"`
	EndDatetime        *time.Time `json:"end_datetime,omitempty"`
	Status             ExamStatus `json:"status"`
	SessionsCount      int        `json:"sessions_count"`
	CreatedAt          time.Time  `json:"created_at"`
}

// ExamDetail is the admin view of an exam, including questions with correctness data.
type ExamDetail struct {
	Exam
	Questions []Question `json:"questions"`
}

// CreateExamRequest is the payload for creating an exam.
type CreateExamRequest struct {
	PhaseID            int64      `json:"phase_id" binding:"required,min=1"`
	Title              string     `json:"title" binding:"required,min=3,max=200"`
	Description        string     `json:"description" binding:"omitempty,max=5000"`
	DurationMinutes    int        `json:"duration_minutes" binding:"omitempty,min=1,max=600"`
	QuestionsCount     int        `json:"questions_count" binding:"omitempty,min=1"`
	PassingScore       *int       `json:"passing_score" binding:"omitempty,min=0,max=100"`
	RandomizeQuestions *bool      `json:"randomize_questions"`
	ShowCorrectAnswers bool       `json:"show_correct_answers"`
	StartDatetime      *time.Time `json:"start_datetime"`
	EndDatetime        *time.Time `json:"end_datetime" binding:"omitempty,gtfield=StartDatetime"`
	Status             ExamStatus `json:"status" binding:"omitempty,oneof=upcoming active completed"`
}

// UpdateExamRequest patches an exam.
type UpdateExamRequest struct {
	PhaseID            *int64      `json:"phase_id" binding:"omitempty,min=1"`
	Title              *string     `json:"title" binding:"omitempty,min=3,max=200"`
	Description        *string     `json:"description" binding:"omitempty,max=5000"`
	DurationMinutes    *int        `json:"duration_minutes" binding:"omitempty,min=1,max=600"`
	QuestionsCount     *int        `json:"questions_count" binding:"omitempty,min=1"`
	PassingScore       *int        `json:"passing_score" binding:"omitempty,min=0,max=100"`
	RandomizeQuestions *bool       `json:"randomize_questions"`
	ShowCorrectAnswers *bool       `json:"show_correct_answers"`
	StartDatetime      *time.Time  `json:"start_datetime"`
	EndDatetime        *time.Time  `json:"end_datetime"`
	Status             *ExamStatus `json:"status" binding:"omitempty,oneof=upcoming active completed"`
}

// SetExamQuestionsRequest replaces the ordered question list of an exam.
type SetExamQuestionsRequest struct {
	QuestionIDs []int64 `json:"question_ids" binding:"required,dive,min=1"`
}

// ExamFilter narrows exam listings.
type ExamFilter struct {
	PhaseID *int64
	Status  *ExamStatus
}

// CandidateQuestion is a question as shown to a candidate: no correctness data.
type CandidateQuestion struct {
	ID               int64             `json:"id"`
	CategoryName     string            `json:"category_name"`
	Text             string            `json:"text"`
	Difficulty       Difficulty        `json:"difficulty"`
	Points           int               `json:"points"`
	TimeLimitSeconds int               `json:"time_limit_seconds"`
	Options          []CandidateOption `json:"options"`
}

// CandidateOption is an option without its correctness flag.
type CandidateOption struct {
	ID    int64  `json:"id"`
	Text  string `json:"text"`
	Order int    `json:"order"`
}

// ToCandidateView strips correctness data from q.
func (q Question) ToCandidateView() CandidateQuestion {
	opts := make([]CandidateOption, len(q.Options))
	for i, o := range q.Options {
		opts[i] = CandidateOption{ID: o.ID, Text: o.Text, Order: o.Order}
	}
	return CandidateQuestion{
		ID:               q.ID,
		CategoryName:     q.CategoryName,
		Text:             q.Text,
		Difficulty:       q.Difficulty,
		Points:           q.Points,
		TimeLimitSeconds: q.TimeLimitSeconds,
		Options:          opts,
	}
}
