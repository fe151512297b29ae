package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oaib/exam-backend/internal/database"
	"github.com/oaib/exam-backend/internal/model"
)

// EditionRepository handles editions and phases.
type EditionRepository struct {
	pool *pgxpool.Pool
}

// NewEditionRepository creates a new EditionRepository.
func NewEditionRepository(pool *pgxpool.Pool) *EditionRepository {
	return &EditionRepository{pool: pool}
}

const editionColumns = `e.id, e.year, e.title, e.description, e.is_active, e.created_at,
	(SELECT COUNT(*) FROM phases p WHERE p.edition_id = e.id)`

func scanEdition(row pgx.Row, e *model.Edition) error {
	return row.Scan(&e.ID, &e.Year, &e.Title, &e.Description, &e.IsActive, &e.CreatedAt, &e.PhasesCount)
}

// ListEditions returns all editions, newest year first.
func (r *EditionRepository) ListEditions(ctx context.Context) ([]model.Edition, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+editionColumns+` FROM editions e ORDER BY e.year DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var editions []model.Edition
	for rows.Next() {
		var e model.Edition
		if err := scanEdition(rows, &e); err != nil {
			return nil, err
		}
		editions = append(editions, e)
	}
	return editions, rows.Err()
}

// GetEdition retrieves an edition by ID.
func (r *EditionRepository) GetEdition(ctx context.Context, id int64) (*model.Edition, error) {
	e := &model.Edition{}
	if err := scanEdition(r.pool.QueryRow(ctx, `SELECT `+editionColumns+` FROM editions e WHERE e.id = $1`, id), e); err != nil {
		return nil, err
	}
	return e, nil
}

// GetActiveEdition retrieves the edition flagged active. Returns pgx.ErrNoRows if none is.
func (r *EditionRepository) GetActiveEdition(ctx context.Context) (*model.Edition, error) {
	e := &model.Edition{}
	if err := scanEdition(r.pool.QueryRow(ctx, `SELECT `+editionColumns+` FROM editions e WHERE e.is_active`), e); err != nil {
		return nil, err
	}
	return e, nil
}

// CreateEdition inserts an edition. When activate is set, every other
// edition is deactivated in the same transaction.
func (r *EditionRepository) CreateEdition(ctx context.Context, e *model.Edition, activate bool) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if activate {
			if _, err := tx.Exec(ctx, `UPDATE editions SET is_active = FALSE WHERE is_active`); err != nil {
				return fmt.Errorf("deactivate editions: %w", err)
			}
		}
		e.IsActive = activate
		return tx.QueryRow(ctx,
			`INSERT INTO editions (year, title, description, is_active)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id, created_at`,
			e.Year, e.Title, e.Description, e.IsActive,
		).Scan(&e.ID, &e.CreatedAt)
	})
}

// ActivateEdition makes id the only active edition. Returns pgx.ErrNoRows if it does not exist.
func (r *EditionRepository) ActivateEdition(ctx context.Context, id int64) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE editions SET is_active = FALSE WHERE is_active AND id <> $1`, id); err != nil {
			return fmt.Errorf("deactivate editions: %w", err)
		}
		tag, err := tx.Exec(ctx, `UPDATE editions SET is_active = TRUE WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
}

// ListPhases lists phases ordered by edition then phase number.
func (r *EditionRepository) ListPhases(ctx context.Context, f model.PhaseFilter) ([]model.Phase, error) {
	query := `
		SELECT p.id, p.edition_id, e.title, p.phase_number, p.title, p.description,
		       p.start_date, p.end_date, p.status
		FROM phases p
		JOIN editions e ON e.id = p.edition_id
		WHERE TRUE`
	var args []any

	if f.EditionID != nil {
		args = append(args, *f.EditionID)
		query += fmt.Sprintf(" AND p.edition_id = $%d", len(args))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		query += fmt.Sprintf(" AND p.status = $%d", len(args))
	}
	query += " ORDER BY e.year DESC, p.phase_number ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var phases []model.Phase
	for rows.Next() {
		var p model.Phase
		if err := rows.Scan(&p.ID, &p.EditionID, &p.EditionTitle, &p.PhaseNumber, &p.Title,
			&p.Description, &p.StartDate, &p.EndDate, &p.Status); err != nil {
			return nil, err
		}
		phases = append(phases, p)
	}
	return phases, rows.Err()
}

// CreatePhase inserts a phase under p.EditionID.
func (r *EditionRepository) CreatePhase(ctx context.Context, p *model.Phase) error {
	return r.pool.QueryRow(ctx,
		`WITH inserted AS (
			INSERT INTO phases (edition_id, phase_number, title, description, start_date, end_date, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, edition_id
		)
		SELECT i.id, e.title FROM inserted i JOIN editions e ON e.id = i.edition_id`,
		p.EditionID, p.PhaseNumber, p.Title, p.Description, p.StartDate, p.EndDate, p.Status,
	).Scan(&p.ID, &p.EditionTitle)
}
