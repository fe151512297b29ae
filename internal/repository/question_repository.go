package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oaib/exam-backend/internal/database"
	"github.com/oaib/exam-backend/internal/model"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QuestionRepository handles question bank data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

const questionSelect = `
	SELECT q.id, q.category_id, COALESCE(c.name, ''), q.text, q.difficulty, q.points,
	       q.time_limit_seconds, q.usage_count, q.is_active, q.created_at, q.updated_at
	FROM questions q
	LEFT JOIN question_categories c ON c.id = q.category_id`

func scanQuestion(row pgx.Row, q *model.Question) error {
	return row.Scan(&q.ID, &q.CategoryID, &q.CategoryName, &q.Text, &q.Difficulty, &q.Points,
		&q.TimeLimitSeconds, &q.UsageCount, &q.IsActive, &q.CreatedAt, &q.UpdatedAt)
}

// CreateQuestion inserts q and its options in a single transaction.
// IDs and timestamps are written back into q.
func (r *QuestionRepository) CreateQuestion(ctx context.Context, q *model.Question) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO questions (category_id, text, difficulty, points, time_limit_seconds, is_active)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id, usage_count, created_at, updated_at`,
			q.CategoryID, q.Text, q.Difficulty, q.Points, q.TimeLimitSeconds, q.IsActive,
		).Scan(&q.ID, &q.UsageCount, &q.CreatedAt, &q.UpdatedAt)
		if err != nil {
			return err
		}
		return insertOptions(ctx, tx, q.ID, q.Options)
	})
}

func insertOptions(ctx context.Context, tx pgx.Tx, questionID int64, opts []model.QuestionOption) error {
	for i := range opts {
		opts[i].QuestionID = questionID
		err := tx.QueryRow(ctx,
			`INSERT INTO question_options (question_id, text, is_correct, display_order)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			questionID, opts[i].Text, opts[i].IsCorrect, opts[i].Order,
		).Scan(&opts[i].ID)
		if err != nil {
			return fmt.Errorf("insert option %d: %w", i, err)
		}
	}
	return nil
}

// GetQuestion retrieves a question with its options.
func (r *QuestionRepository) GetQuestion(ctx context.Context, id int64) (*model.Question, error) {
	q := &model.Question{}
	if err := scanQuestion(r.pool.QueryRow(ctx, questionSelect+` WHERE q.id = $1`, id), q); err != nil {
		return nil, err
	}
	qs := []model.Question{*q}
	if err := loadOptions(ctx, r.pool, qs); err != nil {
		return nil, err
	}
	return &qs[0], nil
}

// GetQuestionsByIDs returns the questions with the given ids, options included.
// The result is keyed by id; missing ids are simply absent.
func (r *QuestionRepository) GetQuestionsByIDs(ctx context.Context, ids []int64) (map[int64]model.Question, error) {
	out := make(map[int64]model.Question, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, questionSelect+` WHERE q.id = ANY($1)`, ids)
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
	for _, q := range qs {
		out[q.ID] = q
	}
	return out, nil
}

func collectQuestions(rows pgx.Rows) ([]model.Question, error) {
	defer rows.Close()
	var qs []model.Question
	for rows.Next() {
		var q model.Question
		if err := scanQuestion(rows, &q); err != nil {
			return nil, err
		}
		qs = append(qs, q)
	}
	return qs, rows.Err()
}

// loadOptions fills the Options of every question in qs with one query.
func loadOptions(ctx context.Context, db querier, qs []model.Question) error {
	if len(qs) == 0 {
		return nil
	}
	ids := make([]int64, len(qs))
	pos := make(map[int64]int, len(qs))
	for i := range qs {
		ids[i] = qs[i].ID
		pos[qs[i].ID] = i
		qs[i].Options = []model.QuestionOption{}
	}

	rows, err := db.Query(ctx,
		`SELECT id, question_id, text, is_correct, display_order
		 FROM question_options WHERE question_id = ANY($1)
		 ORDER BY question_id, display_order, id`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var o model.QuestionOption
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.Text, &o.IsCorrect, &o.Order); err != nil {
			return err
		}
		i := pos[o.QuestionID]
		qs[i].Options = append(qs[i].Options, o)
	}
	return rows.Err()
}

var questionOrderings = map[string]string{
	"created_at":  "q.created_at",
	"difficulty":  "CASE q.difficulty WHEN 'easy' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END",
	"usage_count": "q.usage_count",
}

// orderClause turns "field" or "-field" into an ORDER BY expression from allowed,
// falling back to def for unknown fields.
func orderClause(orderBy string, allowed map[string]string, def string) string {
	desc := strings.HasPrefix(orderBy, "-")
	col, ok := allowed[strings.TrimPrefix(orderBy, "-")]
	if !ok {
		return def
	}
	if desc {
		return col + " DESC"
	}
	return col + " ASC"
}

func questionWhere(f model.QuestionFilter) (string, []any) {
	where := " WHERE TRUE"
	var args []any

	if f.CategoryID != nil {
		args = append(args, *f.CategoryID)
		where += fmt.Sprintf(" AND q.category_id = $%d", len(args))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		where += fmt.Sprintf(" AND (c.name = $%d OR c.slug = $%d)", len(args), len(args))
	}
	if f.Difficulty != nil {
		args = append(args, *f.Difficulty)
		where += fmt.Sprintf(" AND q.difficulty = $%d", len(args))
	}
	if f.IsActive != nil {
		args = append(args, *f.IsActive)
		where += fmt.Sprintf(" AND q.is_active = $%d", len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where += fmt.Sprintf(" AND q.text ILIKE $%d", len(args))
	}
	return where, args
}

// ListQuestions returns one page of questions matching f, plus the total count.
func (r *QuestionRepository) ListQuestions(ctx context.Context, f model.QuestionFilter, limit, offset int) ([]model.Question, int, error) {
	where, args := questionWhere(f)

	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM questions q LEFT JOIN question_categories c ON c.id = q.category_id`+where,
		args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	order := orderClause(f.OrderBy, questionOrderings, "q.created_at DESC")
	args = append(args, limit, offset)
	query := questionSelect + where +
		fmt.Sprintf(" ORDER BY %s, q.id DESC LIMIT $%d OFFSET $%d", order, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	qs, err := collectQuestions(rows)
	if err != nil {
		return nil, 0, err
	}
	if err := loadOptions(ctx, r.pool, qs); err != nil {
		return nil, 0, err
	}
	return qs, total, nil
}

// UpdateQuestion writes the scalar fields of q. When replaceOptions is set,
// every existing option is deleted and q.Options inserted in the same
// transaction. Returns pgx.ErrNoRows if the question does not exist.
func (r *QuestionRepository) UpdateQuestion(ctx context.Context, q *model.Question, replaceOptions bool) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`UPDATE questions
			 SET category_id = $2, text = $3, difficulty = $4, points = $5,
			     time_limit_seconds = $6, is_active = $7, updated_at = NOW()
			 WHERE id = $1
			 RETURNING updated_at`,
			q.ID, q.CategoryID, q.Text, q.Difficulty, q.Points, q.TimeLimitSeconds, q.IsActive,
		).Scan(&q.UpdatedAt)
		if err != nil {
			return err
		}
		if !replaceOptions {
			return nil
		}
		if _, err := tx.Exec(ctx, `DELETE FROM question_options WHERE question_id = $1`, q.ID); err != nil {
			return fmt.Errorf("delete options: %w", err)
		}
		return insertOptions(ctx, tx, q.ID, q.Options)
	})
}

// DeleteQuestion removes a question. Returns pgx.ErrNoRows if it does not
// exist; a foreign key violation surfaces when an exam still references it.
func (r *QuestionRepository) DeleteQuestion(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// GetOption retrieves one option.
func (r *QuestionRepository) GetOption(ctx context.Context, id int64) (*model.QuestionOption, error) {
	o := &model.QuestionOption{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, question_id, text, is_correct, display_order FROM question_options WHERE id = $1`, id,
	).Scan(&o.ID, &o.QuestionID, &o.Text, &o.IsCorrect, &o.Order)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// StreamRecords yields every question matching f as a flat record, one row at
// a time, without buffering the bank in memory.
func (r *QuestionRepository) StreamRecords(ctx context.Context, f model.QuestionFilter) iter.Seq2[model.QuestionRecord, error] {
	return func(yield func(model.QuestionRecord, error) bool) {
		where, args := questionWhere(f)
		rows, err := r.pool.Query(ctx, `
			SELECT q.text, COALESCE(c.name, ''), q.difficulty, q.points, q.time_limit_seconds, q.is_active,
			       COALESCE((SELECT json_agg(json_build_object(
			                    'text', o.text, 'is_correct', o.is_correct, 'order', o.display_order)
			                    ORDER BY o.display_order, o.id)
			                 FROM question_options o WHERE o.question_id = q.id), '[]'::json)
			FROM questions q
			LEFT JOIN question_categories c ON c.id = q.category_id`+where+`
			ORDER BY q.id`, args...)
		if err != nil {
			yield(model.QuestionRecord{}, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var (
				rec  model.QuestionRecord
				opts []byte
			)
			if err := rows.Scan(&rec.Text, &rec.Category, &rec.Difficulty, &rec.Points,
				&rec.TimeLimitSeconds, &rec.IsActive, &opts); err != nil {
				yield(model.QuestionRecord{}, err)
				return
			}
			if err := json.Unmarshal(opts, &rec.Options); err != nil {
				yield(model.QuestionRecord{}, fmt.Errorf("decode options: %w", err))
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(model.QuestionRecord{}, err)
		}
	}
}
