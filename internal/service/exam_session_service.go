package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oaib/exam-backend/internal/database"
	"github.com/oaib/exam-backend/internal/metrics"
	"github.com/oaib/exam-backend/internal/model"
	"github.com/oaib/exam-backend/internal/response"
	"github.com/oaib/exam-backend/internal/scoring"
	"github.com/rs/zerolog"
)

// SessionStore is the persistence of sessions and answers.
type SessionStore interface {
	GetByCandidateAndExam(ctx context.Context, candidateID, examID int64) (*model.ExamSession, error)
	GetOwned(ctx context.Context, id, candidateID int64) (*model.ExamSession, error)
	Create(ctx context.Context, s *model.ExamSession) error
	Begin(ctx context.Context, s *model.ExamSession) error
	Register(ctx context.Context, s *model.ExamSession) error
	UpsertAnswer(ctx context.Context, a *model.ExamAnswer) error
	ListAnswers(ctx context.Context, sessionID int64) ([]model.ExamAnswer, error)
	Complete(ctx context.Context, s *model.ExamSession) error
	ListByCandidate(ctx context.Context, candidateID int64) ([]model.ExamSession, error)
	List(ctx context.Context, f model.SessionFilter, limit, offset int) ([]model.ExamSession, int, error)
	Statistics(ctx context.Context, examID int64, passingScore int) (*model.ExamStatistics, error)
}

// CandidateStore reads candidate profiles.
type CandidateStore interface {
	GetCandidate(ctx context.Context, id int64) (*model.Candidate, error)
}

// SessionExamStore is the part of the exam store a session needs.
type SessionExamStore interface {
	GetExam(ctx context.Context, id int64) (*model.Exam, error)
	ListExamQuestions(ctx context.Context, examID int64) ([]model.Question, error)
}

// QuestionLookup resolves snapshot question ids and submitted options.
type QuestionLookup interface {
	GetQuestionsByIDs(ctx context.Context, ids []int64) (map[int64]model.Question, error)
	GetOption(ctx context.Context, id int64) (*model.QuestionOption, error)
}

// EventQueue receives the asynchronous side effects of the session lifecycle.
type EventQueue interface {
	EnqueueTabSwitch(ctx context.Context, sessionID int64) error
	EnqueueNotification(ctx context.Context, n model.Notification) error
}

// ExamSessionService governs one candidate's single attempt at one exam.
type ExamSessionService struct {
	sessions   SessionStore
	exams      SessionExamStore
	questions  QuestionLookup
	candidates CandidateStore
	queue      EventQueue
	log        zerolog.Logger

	now func() time.Time
	rng *rand.Rand
}

// NewExamSessionService creates a new ExamSessionService.
func NewExamSessionService(
	sessions SessionStore,
	exams SessionExamStore,
	questions QuestionLookup,
	candidates CandidateStore,
	queue EventQueue,
	log zerolog.Logger,
) *ExamSessionService {
	return &ExamSessionService{
		sessions:   sessions,
		exams:      exams,
		questions:  questions,
		candidates: candidates,
		queue:      queue,
		log:        log.With().Str("component", "exam_session_service").Logger(),
		now:        time.Now,
	}
}

// Start opens the candidate's session on an active exam, snapshotting the
// question order and max score. A pre-registered session is moved to
// in_progress; any other existing session is a conflict.
func (s *ExamSessionService) Start(ctx context.Context, candidateID, examID int64) (*model.StartedSession, error) {
	exam, err := s.exams.GetExam(ctx, examID)
	if err != nil {
		return nil, storeErr("get exam", err)
	}
	if exam.Status != model.ExamStatusActive {
		return nil, fmt.Errorf("exam %d is %s: %w", examID, exam.Status, ErrNotFound)
	}
	if _, err := s.candidates.GetCandidate(ctx, candidateID); err != nil {
		return nil, storeErr("get candidate", err)
	}

	existing, err := s.sessions.GetByCandidateAndExam(ctx, candidateID, examID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check existing session: %w", err)
	}
	if existing != nil && existing.Status != model.SessionStatusNotStarted {
		return nil, fmt.Errorf("session %d is %s: %w", existing.ID, existing.Status, ErrConflict)
	}

	qs, err := s.exams.ListExamQuestions(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list exam questions: %w", err)
	}
	ordered := MaterializeQuestionSet(qs, exam.RandomizeQuestions, s.rng)

	startedAt := s.now()
	sess := &model.ExamSession{
		CandidateID:   candidateID,
		ExamID:        examID,
		StartedAt:     &startedAt,
		Status:        model.SessionStatusInProgress,
		QuestionOrder: make([]int64, len(ordered)),
	}
	views := make([]model.CandidateQuestion, len(ordered))
	for i, q := range ordered {
		sess.QuestionOrder[i] = q.ID
		sess.MaxScore += q.Points
		views[i] = q.ToCandidateView()
	}

	if existing != nil {
		sess.ID = existing.ID
		err = s.sessions.Begin(ctx, sess)
	} else {
		err = s.sessions.Create(ctx, sess)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("start session: concurrent start: %w", ErrConflict)
	}
	if err != nil {
		return nil, storeErr("start session", err)
	}

	metrics.SessionEvents.WithLabelValues("started").Inc()
	s.log.Info().
		Int64("session_id", sess.ID).
		Int64("candidate_id", candidateID).
		Int64("exam_id", examID).
		Int("questions", len(ordered)).
		Int("max_score", sess.MaxScore).
		Msg("Session started")

	return &model.StartedSession{SessionID: sess.ID, Exam: *exam, Questions: views}, nil
}

// inProgress loads a session owned by candidateID and requires it to be in progress.
func (s *ExamSessionService) inProgress(ctx context.Context, candidateID, sessionID int64) (*model.ExamSession, error) {
	sess, err := s.sessions.GetOwned(ctx, sessionID, candidateID)
	if err != nil {
		return nil, storeErr("get session", err)
	}
	if sess.Status != model.SessionStatusInProgress {
		return nil, fmt.Errorf("session %d is %s: %w", sessionID, sess.Status, ErrNotFound)
	}
	return sess, nil
}

// snapshotQuestions returns the questions of the session in snapshot order.
// Questions that no longer exist are skipped.
func (s *ExamSessionService) snapshotQuestions(ctx context.Context, sess *model.ExamSession) ([]model.Question, error) {
	byID, err := s.questions.GetQuestionsByIDs(ctx, sess.QuestionOrder)
	if err != nil {
		return nil, fmt.Errorf("load snapshot questions: %w", err)
	}
	qs := make([]model.Question, 0, len(sess.QuestionOrder))
	for _, id := range sess.QuestionOrder {
		if q, ok := byID[id]; ok {
			qs = append(qs, q)
		}
	}
	return qs, nil
}

// GetPaper reloads an in-progress session in its snapshotted order, with
// the answers recorded so far.
func (s *ExamSessionService) GetPaper(ctx context.Context, candidateID, sessionID int64) (*model.SessionPaper, error) {
	sess, err := s.inProgress(ctx, candidateID, sessionID)
	if err != nil {
		return nil, err
	}
	exam, err := s.exams.GetExam(ctx, sess.ExamID)
	if err != nil {
		return nil, storeErr("get exam", err)
	}
	qs, err := s.snapshotQuestions(ctx, sess)
	if err != nil {
		return nil, err
	}
	answers, err := s.sessions.ListAnswers(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}

	paper := &model.SessionPaper{
		SessionID: sess.ID,
		Exam:      *exam,
		StartedAt: sess.StartedAt,
		Questions: make([]model.CandidateQuestion, len(qs)),
		Answers:   make([]model.CandidateAnswer, len(answers)),
	}
	for i, q := range qs {
		paper.Questions[i] = q.ToCandidateView()
	}
	for i, a := range answers {
		paper.Answers[i] = a.ToCandidateView()
	}
	if sess.StartedAt != nil {
		deadline := sess.StartedAt.Add(time.Duration(exam.DurationMinutes) * time.Minute)
		paper.RemainingSeconds = max(deadline.Sub(s.now()).Seconds(), 0)
	}
	return paper, nil
}

// SubmitAnswer records (or replaces) the answer to one question of the
// snapshot. Correctness is copied from the option now and never re-read.
func (s *ExamSessionService) SubmitAnswer(ctx context.Context, candidateID, sessionID int64, req model.SubmitAnswerRequest) (*model.CandidateAnswer, error) {
	sess, err := s.inProgress(ctx, candidateID, sessionID)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(sess.QuestionOrder, req.QuestionID) {
		return nil, fmt.Errorf("question %d is not part of session %d: %w", req.QuestionID, sessionID, ErrNotFound)
	}

	a := &model.ExamAnswer{
		SessionID:        sess.ID,
		QuestionID:       req.QuestionID,
		SelectedOptionID: req.OptionID,
		IsFlagged:        req.IsFlagged,
		AnsweredAt:       s.now(),
	}
	if req.OptionID != nil {
		opt, err := s.questions.GetOption(ctx, *req.OptionID)
		if err != nil {
			return nil, storeErr("get option", err)
		}
		if opt.QuestionID != req.QuestionID {
			return nil, fmt.Errorf("option %d does not belong to question %d: %w", opt.ID, req.QuestionID, ErrNotFound)
		}
		a.IsCorrect = opt.IsCorrect
	}

	if err := s.sessions.UpsertAnswer(ctx, a); err != nil {
		// The session left in_progress between the check and the write.
		return nil, storeErr("record answer", err)
	}
	metrics.SessionEvents.WithLabelValues("answered").Inc()
	view := a.ToCandidateView()
	return &view, nil
}

// Finish closes an in-progress session and scores it from the frozen answers.
func (s *ExamSessionService) Finish(ctx context.Context, candidateID, sessionID int64) (*model.ExamSession, error) {
	sess, err := s.inProgress(ctx, candidateID, sessionID)
	if err != nil {
		return nil, err
	}
	qs, err := s.snapshotQuestions(ctx, sess)
	if err != nil {
		return nil, err
	}
	answers, err := s.sessions.ListAnswers(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}

	items := make([]scoring.Item, len(qs))
	for i, q := range qs {
		items[i] = scoring.Item{QuestionID: q.ID, CategoryID: q.CategoryID, CategoryName: q.CategoryName, Points: q.Points}
	}
	marks := make([]scoring.Mark, len(answers))
	for i, a := range answers {
		marks[i] = scoring.Mark{QuestionID: a.QuestionID, IsCorrect: a.IsCorrect}
	}
	result := scoring.Evaluate(items, marks, sess.MaxScore)

	completedAt := s.now()
	sess.CompletedAt = &completedAt
	if sess.StartedAt != nil {
		sess.TimeSpentSeconds = max(int(completedAt.Sub(*sess.StartedAt).Seconds()), 0)
	}
	sess.Score = result.Score
	sess.Percentage = result.Percentage
	sess.CategoryScores = result.Categories

	if err := s.sessions.Complete(ctx, sess); err != nil {
		return nil, storeErr("complete session", err)
	}
	sess.Status = model.SessionStatusCompleted
	metrics.SessionEvents.WithLabelValues("finished").Inc()

	s.log.Info().
		Int64("session_id", sess.ID).
		Int("score", sess.Score).
		Int("max_score", sess.MaxScore).
		Float64("percentage", sess.Percentage).
		Int("time_spent_seconds", sess.TimeSpentSeconds).
		Msg("Session completed")

	s.notifyCompletion(ctx, sess)
	return sess, nil
}

func (s *ExamSessionService) notifyCompletion(ctx context.Context, sess *model.ExamSession) {
	n := model.Notification{
		CandidateID: sess.CandidateID,
		Title:       "Examen terminé",
		Message: fmt.Sprintf("Votre copie pour « %s » a été enregistrée : %d/%d points (%.2f %%).",
			sess.ExamTitle, sess.Score, sess.MaxScore, sess.Percentage),
		Type:      model.NotificationSuccess,
		CreatedAt: s.now(),
	}
	if err := s.queue.EnqueueNotification(ctx, n); err != nil {
		s.log.Error().Err(err).Int64("session_id", sess.ID).Msg("Failed to enqueue completion notification")
	}
}

// ListMySessions returns the candidate's sessions, newest first.
func (s *ExamSessionService) ListMySessions(ctx context.Context, candidateID int64) ([]model.ExamSession, error) {
	sessions, err := s.sessions.ListByCandidate(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	if sessions == nil {
		sessions = []model.ExamSession{}
	}
	return sessions, nil
}

// RecordTabSwitch queues a client-reported tab switch for an in-progress session.
func (s *ExamSessionService) RecordTabSwitch(ctx context.Context, candidateID, sessionID int64) error {
	if _, err := s.inProgress(ctx, candidateID, sessionID); err != nil {
		return err
	}
	if err := s.queue.EnqueueTabSwitch(ctx, sessionID); err != nil {
		return fmt.Errorf("enqueue tab switch: %w", err)
	}
	metrics.SessionEvents.WithLabelValues("tab_switch").Inc()
	return nil
}

// Register pre-creates a not_started session for a candidate.
func (s *ExamSessionService) Register(ctx context.Context, examID, candidateID int64) (*model.ExamSession, error) {
	exam, err := s.exams.GetExam(ctx, examID)
	if err != nil {
		return nil, storeErr("get exam", err)
	}
	if _, err := s.candidates.GetCandidate(ctx, candidateID); err != nil {
		return nil, storeErr("get candidate", err)
	}

	sess := &model.ExamSession{CandidateID: candidateID, ExamID: examID, ExamTitle: exam.Title}
	if err := s.sessions.Register(ctx, sess); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("candidate %d already has a session for exam %d: %w", candidateID, examID, ErrConflict)
		}
		return nil, storeErr("register session", err)
	}
	if sess.CategoryScores == nil {
		sess.CategoryScores = []model.CategoryScore{}
	}
	return sess, nil
}

// ListSessions retrieves sessions for the admin with pagination.
func (s *ExamSessionService) ListSessions(ctx context.Context, f model.SessionFilter, page, perPage int) ([]model.ExamSession, *response.Pagination, error) {
	page, perPage, offset := pageWindow(page, perPage)

	sessions, total, err := s.sessions.List(ctx, f, perPage, offset)
	if err != nil {
		return nil, nil, fmt.Errorf("list sessions: %w", err)
	}
	if sessions == nil {
		sessions = []model.ExamSession{}
	}
	return sessions, response.NewPagination(page, perPage, total), nil
}

// Statistics aggregates the finished sessions of an exam. It is recomputed on every call.
func (s *ExamSessionService) Statistics(ctx context.Context, examID int64) (*model.ExamStatistics, error) {
	exam, err := s.exams.GetExam(ctx, examID)
	if err != nil {
		return nil, storeErr("get exam", err)
	}
	st, err := s.sessions.Statistics(ctx, examID, exam.PassingScore)
	if err != nil {
		return nil, fmt.Errorf("exam statistics: %w", err)
	}
	st.AverageScore = scoring.Round2(st.AverageScore)
	return st, nil
}
