package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oaib/exam-backend/internal/database"
	"github.com/oaib/exam-backend/internal/model"
)

// ExamRepository handles exam data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

const examSelect = `
	SELECT e.id, e.phase_id, p.title, e.title, e.description, e.duration_minutes,
	       e.questions_count, e.passing_score, e.randomize_questions, e.show_correct_answers,
	       e.start_datetime, e.end_datetime, e.status, e.created_at,
	       (SELECT COUNT(*) FROM exam_sessions s WHERE s.exam_id = e.id)
	FROM exams e
	JOIN phases p ON p.id = e.phase_id`

func scanExam(row pgx.Row, e *model.Exam) error {
	return row.Scan(&e.ID, &e.PhaseID, &e.PhaseTitle, &e.Title, &e.Description, &e.DurationMinutes,
		&e.QuestionsCount, &e.PassingScore, &e.RandomizeQuestions, &e.ShowCorrectAnswers,
		&e.StartDatetime, &e.EndDatetime, &e.Status, &e.CreatedAt, &e.SessionsCount)
}

// GetExam retrieves an exam by ID.
func (r *ExamRepository) GetExam(ctx context.Context, id int64) (*model.Exam, error) {
	e := &model.Exam{}
	if err := scanExam(r.pool.QueryRow(ctx, examSelect+` WHERE e.id = $1`, id), e); err != nil {
		return nil, err
	}
	return e, nil
}

// ListExams retrieves one page of exams matching f, newest first, plus the total count.
func (r *ExamRepository) ListExams(ctx context.Context, f model.ExamFilter, limit, offset int) ([]model.Exam, int, error) {
	where := " WHERE TRUE"
	var args []any
	if f.PhaseID != nil {
		args = append(args, *f.PhaseID)
		where += fmt.Sprintf(" AND e.phase_id = $%d", len(args))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		where += fmt.Sprintf(" AND e.status = $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM exams e`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := examSelect + where +
		fmt.Sprintf(" ORDER BY e.created_at DESC, e.id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := scanExam(rows, &e); err != nil {
			return nil, 0, err
		}
		exams = append(exams, e)
	}
	return exams, total, rows.Err()
}

// CreateExam inserts a new exam. A foreign key violation surfaces for an unknown phase.
func (r *ExamRepository) CreateExam(ctx context.Context, e *model.Exam) error {
	return r.pool.QueryRow(ctx,
		`WITH inserted AS (
			INSERT INTO exams (phase_id, title, description, duration_minutes, questions_count,
			                   passing_score, randomize_questions, show_correct_answers,
			                   start_datetime, end_datetime, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id, phase_id, created_at
		)
		SELECT i.id, i.created_at, p.title FROM inserted i JOIN phases p ON p.id = i.phase_id`,
		e.PhaseID, e.Title, e.Description, e.DurationMinutes, e.QuestionsCount,
		e.PassingScore, e.RandomizeQuestions, e.ShowCorrectAnswers,
		e.StartDatetime, e.EndDatetime, e.Status,
	).Scan(&e.ID, &e.CreatedAt, &e.PhaseTitle)
}

// UpdateExam overwrites every editable column of e. Returns pgx.ErrNoRows if it does not exist.
func (r *ExamRepository) UpdateExam(ctx context.Context, e *model.Exam) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exams
		 SET phase_id = $2, title = $3, description = $4, duration_minutes = $5,
		     questions_count = $6, passing_score = $7, randomize_questions = $8,
		     show_correct_answers = $9, start_datetime = $10, end_datetime = $11, status = $12
		 WHERE id = $1`,
		e.ID, e.PhaseID, e.Title, e.Description, e.DurationMinutes,
		e.QuestionsCount, e.PassingScore, e.RandomizeQuestions,
		e.ShowCorrectAnswers, e.StartDatetime, e.EndDatetime, e.Status,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListExamQuestions returns the questions of an exam in display order, options included.
func (r *ExamRepository) ListExamQuestions(ctx context.Context, examID int64) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT q.id, q.category_id, COALESCE(c.name, ''), q.text, q.difficulty, q.points,
		       q.time_limit_seconds, q.usage_count, q.is_active, q.created_at, q.updated_at
		FROM exam_questions eq
		JOIN questions q ON q.id = eq.question_id
		LEFT JOIN question_categories c ON c.id = q.category_id
		WHERE eq.exam_id = $1
		ORDER BY eq.display_order, q.id`, examID)
	if err != nil {
		return nil, err
	}
	qs, err := collectQuestions(rows)
	if err != nil {
		return nil, err
	}
	if err := loadOptions(ctx, r.pool, qs); err != nil {
		return nil, err
	}
	return qs, nil
}

// SetExamQuestions replaces the ordered question list of an exam and
// recomputes usage_count for every question that entered or left it.
// Returns pgx.ErrNoRows for an unknown exam; a foreign key violation surfaces
// for unknown question ids.
func (r *ExamRepository) SetExamQuestions(ctx context.Context, examID int64, questionIDs []int64) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var locked int64
		if err := tx.QueryRow(ctx, `SELECT id FROM exams WHERE id = $1 FOR UPDATE`, examID).Scan(&locked); err != nil {
			return err
		}

		rows, err := tx.Query(ctx, `DELETE FROM exam_questions WHERE exam_id = $1 RETURNING question_id`, examID)
		if err != nil {
			return fmt.Errorf("clear exam questions: %w", err)
		}
		previous, err := pgx.CollectRows(rows, pgx.RowTo[int64])
		if err != nil {
			return fmt.Errorf("clear exam questions: %w", err)
		}

		if len(questionIDs) > 0 {
			src := make([][]any, len(questionIDs))
			for i, qid := range questionIDs {
				src[i] = []any{examID, qid, i}
			}
			if _, err := tx.CopyFrom(ctx,
				pgx.Identifier{"exam_questions"},
				[]string{"exam_id", "question_id", "display_order"},
				pgx.CopyFromRows(src),
			); err != nil {
				return err
			}
		}

		affected := append(previous, questionIDs...)
		_, err = tx.Exec(ctx,
			`UPDATE questions q
			 SET usage_count = (SELECT COUNT(*) FROM exam_questions eq WHERE eq.question_id = q.id)
			 WHERE q.id = ANY($1)`, affected)
		if err != nil {
			return fmt.Errorf("recompute usage: %w", err)
		}
		return nil
	})
}

// ListCandidateExams lists active and upcoming exams with the candidate's own
// session, if any, overlaid.
func (r *ExamRepository) ListCandidateExams(ctx context.Context, candidateID int64) ([]model.CandidateExam, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT e.id, e.phase_id, p.title, e.title, e.description, e.duration_minutes,
		       e.questions_count, e.passing_score, e.randomize_questions, e.show_correct_answers,
		       e.start_datetime, e.end_datetime, e.status, e.created_at, 0,
		       s.id, s.status
		FROM exams e
		JOIN phases p ON p.id = e.phase_id
		LEFT JOIN exam_sessions s ON s.exam_id = e.id AND s.candidate_id = $1
		WHERE e.status IN ('active', 'upcoming')
		ORDER BY e.status, e.start_datetime NULLS LAST, e.id`, candidateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.CandidateExam
	for rows.Next() {
		var ce model.CandidateExam
		e := &ce.Exam
		if err := rows.Scan(&e.ID, &e.PhaseID, &e.PhaseTitle, &e.Title, &e.Description, &e.DurationMinutes,
			&e.QuestionsCount, &e.PassingScore, &e.RandomizeQuestions, &e.ShowCorrectAnswers,
			&e.StartDatetime, &e.EndDatetime, &e.Status, &e.CreatedAt, &e.SessionsCount,
			&ce.SessionID, &ce.SessionStatus); err != nil {
			return nil, err
		}
		exams = append(exams, ce)
	}
	return exams, rows.Err()
}
