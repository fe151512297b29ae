package model

import (
	"time"
)

// SessionStatus enumerates exam session states.
type SessionStatus string

const (
	SessionStatusNotStarted SessionStatus = "not_started"
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusEvaluated  SessionStatus = "evaluated"
)

// ExamSession is one candidate's single attempt at one exam.
//
// MaxScore and QuestionOrder are snapshots taken at start; later changes to
// the exam's question set do not touch them. Score is not capped at MaxScore.
type ExamSession struct {
	ID               int64           `json:"id"`
	CandidateID      int64           `json:"candidate_id"`
	ExamID           int64           `json:"exam_id"`
	ExamTitle        string          `json:"exam_title"`
	CandidateName    string          `json:"candidate_name,omitempty"`
	CandidateEmail   string          `json:"candidate_email,omitempty"`
	StartedAt        *time.Time      `json:"started_at"`
	CompletedAt      *time.Time      `json:"completed_at"`
	TimeSpentSeconds int             `json:"time_spent_seconds"`
	TabSwitchCount   int             `json:"tab_switch_count"`
	Status           SessionStatus   `json:"status"`
	Score            int             `json:"score"`
	MaxScore         int             `json:"max_score"`
	Percentage       float64         `json:"percentage"`
	Rank             *int            `json:"rank"`
	CategoryScores   []CategoryScore `json:"category_scores"`
	QuestionOrder    []int64         `json:"-"`
}

// CategoryScore is the subtotal of one category within a finished session.
// CategoryID is nil for uncategorized questions.
type CategoryScore struct {
	CategoryID   *int64 `json:"category_id"`
	CategoryName string `json:"category_name"`
	Score        int    `json:"score"`
	MaxScore     int    `json:"max_score"`
	Correct      int    `json:"correct"`
	Total        int    `json:"total"`
}

// ExamAnswer is the single recorded answer of a session to a question.
//
// IsCorrect is copied from the selected option when the answer is submitted
// and is never re-evaluated, even if the option's correctness is edited later.
type ExamAnswer struct {
	ID               int64     `json:"id"`
	SessionID        int64     `json:"session_id"`
	QuestionID       int64     `json:"question_id"`
	SelectedOptionID *int64    `json:"selected_option_id"`
	IsCorrect        bool      `json:"is_correct"`
	IsFlagged        bool      `json:"is_flagged"`
	AnsweredAt       time.Time `json:"answered_at"`
}

// CandidateAnswer is the answer record returned to the candidate while the exam runs.
type CandidateAnswer struct {
	ID               int64     `json:"id"`
	SessionID        int64     `json:"session_id"`
	QuestionID       int64     `json:"question_id"`
	SelectedOptionID *int64    `json:"selected_option_id"`
	IsFlagged        bool      `json:"is_flagged"`
	AnsweredAt       time.Time `json:"answered_at"`
}

// ToCandidateView hides the frozen correctness flag.
func (a ExamAnswer) ToCandidateView() CandidateAnswer {
	return CandidateAnswer{
		ID:               a.ID,
		SessionID:        a.SessionID,
		QuestionID:       a.QuestionID,
		SelectedOptionID: a.SelectedOptionID,
		IsFlagged:        a.IsFlagged,
		AnsweredAt:       a.AnsweredAt,
	}
}

// SubmitAnswerRequest is the payload for answering one question.
type SubmitAnswerRequest struct {
	QuestionID int64  `json:"question_id" binding:"required,min=1"`
	OptionID   *int64 `json:"option_id" binding:"omitempty,min=1"`
	IsFlagged  bool   `json:"is_flagged"`
}

// RegisterCandidateRequest pre-registers a candidate for an exam.
type RegisterCandidateRequest struct {
	CandidateID int64 `json:"candidate_id" binding:"required,min=1"`
}

// StartedSession is returned when a candidate starts an exam.
type StartedSession struct {
	SessionID int64               `json:"session_id"`
	Exam      Exam                `json:"exam"`
	Questions []CandidateQuestion `json:"questions"`
}

// SessionFilter narrows admin session listings.
type SessionFilter struct {
	ExamID      *int64
	CandidateID *int64
	Status      *SessionStatus
	// OrderBy is one of percentage, started_at, score, optionally prefixed with "-".
	OrderBy string
}

// ExamStatistics aggregates completed and evaluated sessions of an exam.
type ExamStatistics struct {
	ExamID        int64   `json:"exam_id"`
	TotalSessions int     `json:"total_sessions"`
	AverageScore  float64 `json:"average_score"`
	Passed        int     `json:"passed"`
	Failed        int     `json:"failed"`
}

// CandidateExam is an exam listed for a candidate with their own session overlaid.
type CandidateExam struct {
	Exam
	SessionID     *int64         `json:"session_id,omitempty"`
	SessionStatus *SessionStatus `json:"session_status,omitempty"`
}

// Candidate is the read-only profile referenced by sessions.
type Candidate struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// SessionPaper is an in-progress session as reloaded by its candidate:
// the snapshotted question order and the answers recorded so far.
// RemainingSeconds is advisory; nothing closes a session when it reaches 0.
type SessionPaper struct {
	SessionID        int64               `json:"session_id"`
	Exam             Exam                `json:"exam"`
	StartedAt        *time.Time          `json:"started_at"`
	RemainingSeconds float64             `json:"remaining_seconds"`
	Questions        []CandidateQuestion `json:"questions"`
	Answers          []CandidateAnswer   `json:"answers"`
}
