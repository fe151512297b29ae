package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/oaib/exam-backend/internal/database"
	"github.com/oaib/exam-backend/internal/model"
	"github.com/oaib/exam-backend/internal/response"
	"github.com/rs/zerolog"
)

// Exam defaults applied when a field is omitted on creation.
const (
	defaultDurationMinutes = 60
	defaultQuestionsCount  = 20
	defaultPassingScore    = 60
)

// ExamStore is the persistence of exams and their question lists.
type ExamStore interface {
	GetExam(ctx context.Context, id int64) (*model.Exam, error)
	ListExams(ctx context.Context, f model.ExamFilter, limit, offset int) ([]model.Exam, int, error)
	CreateExam(ctx context.Context, e *model.Exam) error
	UpdateExam(ctx context.Context, e *model.Exam) error
	ListExamQuestions(ctx context.Context, examID int64) ([]model.Question, error)
	SetExamQuestions(ctx context.Context, examID int64, questionIDs []int64) error
	ListCandidateExams(ctx context.Context, candidateID int64) ([]model.CandidateExam, error)
}

// ExamService handles exam definition business logic.
type ExamService struct {
	exams ExamStore
	log   zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(exams ExamStore, log zerolog.Logger) *ExamService {
	return &ExamService{
		exams: exams,
		log:   log.With().Str("component", "exam_service").Logger(),
	}
}

// MaterializeQuestionSet returns qs in persisted order, or a shuffled copy
// when randomize is set. qs itself is never reordered. A nil rng uses the
// global source.
func MaterializeQuestionSet(qs []model.Question, randomize bool, rng *rand.Rand) []model.Question {
	out := make([]model.Question, len(qs))
	copy(out, qs)
	if !randomize {
		return out
	}
	swap := func(i, j int) { out[i], out[j] = out[j], out[i] }
	if rng != nil {
		rng.Shuffle(len(out), swap)
	} else {
		rand.Shuffle(len(out), swap)
	}
	return out
}

func validateSchedule(e *model.Exam) error {
	if strings.TrimSpace(e.Title) == "" {
		return invalid("title", "must not be empty")
	}
	if e.PassingScore < 0 || e.PassingScore > 100 {
		return invalid("passing_score", "must be between 0 and 100")
	}
	if e.StartDatetime != nil && e.EndDatetime != nil && !e.EndDatetime.After(*e.StartDatetime) {
		return invalid("end_datetime", "must be after start_datetime")
	}
	return nil
}

// CreateExam creates an exam under a phase.
func (s *ExamService) CreateExam(ctx context.Context, req model.CreateExamRequest) (*model.Exam, error) {
	e := &model.Exam{
		PhaseID:            req.PhaseID,
		Title:              strings.TrimSpace(req.Title),
		Description:        req.Description,
		DurationMinutes:    req.DurationMinutes,
		QuestionsCount:     req.QuestionsCount,
		PassingScore:       defaultPassingScore,
		RandomizeQuestions: true,
		ShowCorrectAnswers: req.ShowCorrectAnswers,
		StartDatetime:      req.StartDatetime,
		EndDatetime:        req.EndDatetime,
		Status:             req.Status,
	}
	if e.DurationMinutes == 0 {
		e.DurationMinutes = defaultDurationMinutes
	}
	if e.QuestionsCount == 0 {
		e.QuestionsCount = defaultQuestionsCount
	}
	if req.PassingScore != nil {
		e.PassingScore = *req.PassingScore
	}
	if req.RandomizeQuestions != nil {
		e.RandomizeQuestions = *req.RandomizeQuestions
	}
	if e.Status == "" {
		e.Status = model.ExamStatusUpcoming
	}
	if err := validateSchedule(e); err != nil {
		return nil, err
	}

	if err := s.exams.CreateExam(ctx, e); err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, invalid("phase_id", "unknown phase %d", e.PhaseID)
		}
		return nil, storeErr("create exam", err)
	}
	s.log.Info().Int64("exam_id", e.ID).Int64("phase_id", e.PhaseID).Msg("Exam created")
	return e, nil
}

// UpdateExam patches an exam.
func (s *ExamService) UpdateExam(ctx context.Context, id int64, req model.UpdateExamRequest) (*model.Exam, error) {
	e, err := s.exams.GetExam(ctx, id)
	if err != nil {
		return nil, storeErr("get exam", err)
	}

	if req.PhaseID != nil {
		e.PhaseID = *req.PhaseID
	}
	if req.Title != nil {
		e.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.DurationMinutes != nil {
		e.DurationMinutes = *req.DurationMinutes
	}
	if req.QuestionsCount != nil {
		e.QuestionsCount = *req.QuestionsCount
	}
	if req.PassingScore != nil {
		e.PassingScore = *req.PassingScore
	}
	if req.RandomizeQuestions != nil {
		e.RandomizeQuestions = *req.RandomizeQuestions
	}
	if req.ShowCorrectAnswers != nil {
		e.ShowCorrectAnswers = *req.ShowCorrectAnswers
	}
	if req.StartDatetime != nil {
		e.StartDatetime = req.StartDatetime
	}
	if req.EndDatetime != nil {
		e.EndDatetime = req.EndDatetime
	}
	if req.Status != nil {
		e.Status = *req.Status
	}
	if err := validateSchedule(e); err != nil {
		return nil, err
	}

	if err := s.exams.UpdateExam(ctx, e); err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, invalid("phase_id", "unknown phase %d", e.PhaseID)
		}
		return nil, storeErr("update exam", err)
	}
	return e, nil
}

// GetExam returns the admin detail of an exam, questions with correctness included.
func (s *ExamService) GetExam(ctx context.Context, id int64) (*model.ExamDetail, error) {
	e, err := s.exams.GetExam(ctx, id)
	if err != nil {
		return nil, storeErr("get exam", err)
	}
	qs, err := s.exams.ListExamQuestions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list exam questions: %w", err)
	}
	if qs == nil {
		qs = []model.Question{}
	}
	return &model.ExamDetail{Exam: *e, Questions: qs}, nil
}

// GetExamSummary returns an exam without its questions, for candidates.
// Only active and upcoming exams are visible.
func (s *ExamService) GetExamSummary(ctx context.Context, id int64) (*model.Exam, error) {
	e, err := s.exams.GetExam(ctx, id)
	if err != nil {
		return nil, storeErr("get exam", err)
	}
	if e.Status == model.ExamStatusCompleted {
		return nil, fmt.Errorf("exam %d: %w", id, ErrNotFound)
	}
	return e, nil
}

// ListExams retrieves exams with pagination.
func (s *ExamService) ListExams(ctx context.Context, f model.ExamFilter, page, perPage int) ([]model.Exam, *response.Pagination, error) {
	page, perPage, offset := pageWindow(page, perPage)

	exams, total, err := s.exams.ListExams(ctx, f, perPage, offset)
	if err != nil {
		return nil, nil, fmt.Errorf("list exams: %w", err)
	}
	if exams == nil {
		exams = []model.Exam{}
	}
	return exams, response.NewPagination(page, perPage, total), nil
}

// SetExamQuestions replaces the ordered question list of an exam.
func (s *ExamService) SetExamQuestions(ctx context.Context, examID int64, questionIDs []int64) (*model.ExamDetail, error) {
	seen := make(map[int64]bool, len(questionIDs))
	for i, id := range questionIDs {
		if seen[id] {
			return nil, invalid(fmt.Sprintf("question_ids[%d]", i), "duplicate question %d", id)
		}
		seen[id] = true
	}

	if err := s.exams.SetExamQuestions(ctx, examID, questionIDs); err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, invalid("question_ids", "contains unknown questions")
		}
		return nil, storeErr("set exam questions", err)
	}
	s.log.Info().Int64("exam_id", examID).Int("questions", len(questionIDs)).Msg("Exam questions replaced")
	return s.GetExam(ctx, examID)
}

// ListCandidateExams lists active and upcoming exams with the candidate's session overlaid.
func (s *ExamService) ListCandidateExams(ctx context.Context, candidateID int64) ([]model.CandidateExam, error) {
	exams, err := s.exams.ListCandidateExams(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("list candidate exams: %w", err)
	}
	if exams == nil {
		exams = []model.CandidateExam{}
	}
	return exams, nil
}
