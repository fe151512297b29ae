package repository

import (
	"context"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oaib/exam-backend/internal/model"
)

// CategoryRepository handles question category data access.
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// ListCategories returns every category with the number of questions in it.
func (r *CategoryRepository) ListCategories(ctx context.Context) ([]model.QuestionCategory, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.name, c.slug, COUNT(q.id)
		FROM question_categories c
		LEFT JOIN questions q ON q.category_id = c.id
		GROUP BY c.id
		ORDER BY c.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []model.QuestionCategory
	for rows.Next() {
		var c model.QuestionCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.QuestionsCount); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// GetCategory retrieves a category by ID.
func (r *CategoryRepository) GetCategory(ctx context.Context, id int64) (*model.QuestionCategory, error) {
	c := &model.QuestionCategory{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, slug FROM question_categories WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Slug)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetCategoryByName retrieves a category by its exact name.
func (r *CategoryRepository) GetCategoryByName(ctx context.Context, name string) (*model.QuestionCategory, error) {
	c := &model.QuestionCategory{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, slug FROM question_categories WHERE name = $1`, name,
	).Scan(&c.ID, &c.Name, &c.Slug)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// TakenSlugs returns the existing slugs equal to base or of the form base-N.
func (r *CategoryRepository) TakenSlugs(ctx context.Context, base string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT slug FROM question_categories WHERE slug = $1 OR slug ~ ('^' || $2 || '-[0-9]+$')`,
		base, regexp.QuoteMeta(base),
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// InsertCategory inserts c. A unique violation surfaces when the name or slug is taken.
func (r *CategoryRepository) InsertCategory(ctx context.Context, c *model.QuestionCategory) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO question_categories (name, slug) VALUES ($1, $2) RETURNING id`,
		c.Name, c.Slug,
	).Scan(&c.ID)
}

// DeleteCategory removes a category; its questions become uncategorized.
func (r *CategoryRepository) DeleteCategory(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM question_categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
