package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oaib/exam-backend/internal/model"
)

// ExamSessionRepository handles exam session and answer data access.
type ExamSessionRepository struct {
	pool *pgxpool.Pool
}

// NewExamSessionRepository creates a new ExamSessionRepository.
func NewExamSessionRepository(pool *pgxpool.Pool) *ExamSessionRepository {
	return &ExamSessionRepository{pool: pool}
}

const sessionSelect = `
	SELECT s.id, s.candidate_id, s.exam_id, e.title, s.started_at, s.completed_at,
	       s.time_spent_seconds, s.tab_switch_count, s.status, s.score, s.max_score,
	       s.percentage::float8, s.rank, s.category_scores, s.question_order
	FROM exam_sessions s
	JOIN exams e ON e.id = s.exam_id`

func sessionDest(s *model.ExamSession) []any {
	return []any{&s.ID, &s.CandidateID, &s.ExamID, &s.ExamTitle, &s.StartedAt, &s.CompletedAt,
		&s.TimeSpentSeconds, &s.TabSwitchCount, &s.Status, &s.Score, &s.MaxScore,
		&s.Percentage, &s.Rank, &s.CategoryScores, &s.QuestionOrder}
}

// GetByCandidateAndExam retrieves the session of a candidate for an exam.
func (r *ExamSessionRepository) GetByCandidateAndExam(ctx context.Context, candidateID, examID int64) (*model.ExamSession, error) {
	s := &model.ExamSession{}
	err := r.pool.QueryRow(ctx, sessionSelect+` WHERE s.candidate_id = $1 AND s.exam_id = $2`,
		candidateID, examID).Scan(sessionDest(s)...)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetOwned retrieves a session by ID, only if it belongs to candidateID.
func (r *ExamSessionRepository) GetOwned(ctx context.Context, id, candidateID int64) (*model.ExamSession, error) {
	s := &model.ExamSession{}
	err := r.pool.QueryRow(ctx, sessionSelect+` WHERE s.id = $1 AND s.candidate_id = $2`,
		id, candidateID).Scan(sessionDest(s)...)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts an in-progress session with its snapshots.
// Returns pgx.ErrNoRows when a session for the pair already exists.
func (r *ExamSessionRepository) Create(ctx context.Context, s *model.ExamSession) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_sessions (candidate_id, exam_id, started_at, status, max_score, question_order)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (candidate_id, exam_id) DO NOTHING
		 RETURNING id`,
		s.CandidateID, s.ExamID, s.StartedAt, model.SessionStatusInProgress, s.MaxScore, s.QuestionOrder,
	).Scan(&s.ID)
}

// Begin moves a pre-registered session to in_progress with its snapshots.
// Returns pgx.ErrNoRows if the session is no longer not_started.
func (r *ExamSessionRepository) Begin(ctx context.Context, s *model.ExamSession) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_sessions
		 SET status = $2, started_at = $3, max_score = $4, question_order = $5
		 WHERE id = $1 AND status = $6`,
		s.ID, model.SessionStatusInProgress, s.StartedAt, s.MaxScore, s.QuestionOrder,
		model.SessionStatusNotStarted,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Register inserts a not_started session. A unique violation surfaces when
// the pair already has a session.
func (r *ExamSessionRepository) Register(ctx context.Context, s *model.ExamSession) error {
	s.Status = model.SessionStatusNotStarted
	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_sessions (candidate_id, exam_id, status)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		s.CandidateID, s.ExamID, s.Status,
	).Scan(&s.ID)
}

// UpsertAnswer records the answer of a session to a question, replacing any
// previous one. The write only happens while the session is in progress;
// otherwise pgx.ErrNoRows is returned.
func (r *ExamSessionRepository) UpsertAnswer(ctx context.Context, a *model.ExamAnswer) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_answers (session_id, question_id, selected_option_id, is_correct, is_flagged, answered_at)
		 SELECT $1, $2, $3, $4, $5, $6
		 WHERE EXISTS (SELECT 1 FROM exam_sessions WHERE id = $1 AND status = $7)
		 ON CONFLICT (session_id, question_id) DO UPDATE
		 SET selected_option_id = EXCLUDED.selected_option_id,
		     is_correct = EXCLUDED.is_correct,
		     is_flagged = EXCLUDED.is_flagged,
		     answered_at = EXCLUDED.answered_at
		 RETURNING id`,
		a.SessionID, a.QuestionID, a.SelectedOptionID, a.IsCorrect, a.IsFlagged, a.AnsweredAt,
		model.SessionStatusInProgress,
	).Scan(&a.ID)
}

// ListAnswers returns every answer recorded for a session.
func (r *ExamSessionRepository) ListAnswers(ctx context.Context, sessionID int64) ([]model.ExamAnswer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, question_id, selected_option_id, is_correct, is_flagged, answered_at
		 FROM exam_answers WHERE session_id = $1
		 ORDER BY question_id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.ExamAnswer
	for rows.Next() {
		var a model.ExamAnswer
		if err := rows.Scan(&a.ID, &a.SessionID, &a.QuestionID, &a.SelectedOptionID,
			&a.IsCorrect, &a.IsFlagged, &a.AnsweredAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// Complete stores the final result of an in-progress session.
// Returns pgx.ErrNoRows if the session is not in progress anymore.
func (r *ExamSessionRepository) Complete(ctx context.Context, s *model.ExamSession) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_sessions
		 SET status = $2, completed_at = $3, time_spent_seconds = $4,
		     score = $5, percentage = $6, category_scores = $7
		 WHERE id = $1 AND status = $8`,
		s.ID, model.SessionStatusCompleted, s.CompletedAt, s.TimeSpentSeconds,
		s.Score, s.Percentage, s.CategoryScores, model.SessionStatusInProgress,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListByCandidate retrieves all sessions of a candidate, newest first.
func (r *ExamSessionRepository) ListByCandidate(ctx context.Context, candidateID int64) ([]model.ExamSession, error) {
	rows, err := r.pool.Query(ctx, sessionSelect+`
		WHERE s.candidate_id = $1
		ORDER BY s.started_at DESC NULLS LAST, s.id DESC`, candidateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.ExamSession
	for rows.Next() {
		var s model.ExamSession
		if err := rows.Scan(sessionDest(&s)...); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

var sessionOrderings = map[string]string{
	"percentage": "s.percentage",
	"started_at": "s.started_at",
	"score":      "s.score",
}

// List retrieves one page of sessions for the admin, candidate name and email included.
func (r *ExamSessionRepository) List(ctx context.Context, f model.SessionFilter, limit, offset int) ([]model.ExamSession, int, error) {
	where := " WHERE TRUE"
	var args []any
	if f.ExamID != nil {
		args = append(args, *f.ExamID)
		where += fmt.Sprintf(" AND s.exam_id = $%d", len(args))
	}
	if f.CandidateID != nil {
		args = append(args, *f.CandidateID)
		where += fmt.Sprintf(" AND s.candidate_id = $%d", len(args))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		where += fmt.Sprintf(" AND s.status = $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM exam_sessions s`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := orderClause(f.OrderBy, sessionOrderings, "s.started_at DESC NULLS LAST")
	args = append(args, limit, offset)
	query := `
		SELECT s.id, s.candidate_id, s.exam_id, e.title, s.started_at, s.completed_at,
		       s.time_spent_seconds, s.tab_switch_count, s.status, s.score, s.max_score,
		       s.percentage::float8, s.rank, s.category_scores, s.question_order,
		       c.full_name, c.email
		FROM exam_sessions s
		JOIN exams e ON e.id = s.exam_id
		JOIN candidates c ON c.id = s.candidate_id` + where +
		fmt.Sprintf(" ORDER BY %s, s.id DESC LIMIT $%d OFFSET $%d", order, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var sessions []model.ExamSession
	for rows.Next() {
		var s model.ExamSession
		dest := append(sessionDest(&s), &s.CandidateName, &s.CandidateEmail)
		if err := rows.Scan(dest...); err != nil {
			return nil, 0, err
		}
		sessions = append(sessions, s)
	}
	return sessions, total, rows.Err()
}

// Statistics aggregates the completed and evaluated sessions of an exam.
func (r *ExamSessionRepository) Statistics(ctx context.Context, examID int64, passingScore int) (*model.ExamStatistics, error) {
	st := &model.ExamStatistics{ExamID: examID}
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COALESCE(AVG(percentage), 0)::float8,
		        COUNT(*) FILTER (WHERE percentage >= $2)
		 FROM exam_sessions
		 WHERE exam_id = $1 AND status IN ($3, $4)`,
		examID, passingScore, model.SessionStatusCompleted, model.SessionStatusEvaluated,
	).Scan(&st.TotalSessions, &st.AverageScore, &st.Passed)
	if err != nil {
		return nil, err
	}
	st.Failed = st.TotalSessions - st.Passed
	return st, nil
}
