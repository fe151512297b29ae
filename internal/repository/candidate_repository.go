package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oaib/exam-backend/internal/model"
)

// CandidateRepository reads candidate profiles owned by the registration system.
type CandidateRepository struct {
	pool *pgxpool.Pool
}

// NewCandidateRepository creates a new CandidateRepository.
func NewCandidateRepository(pool *pgxpool.Pool) *CandidateRepository {
	return &CandidateRepository{pool: pool}
}

// GetCandidate retrieves a candidate by ID.
func (r *CandidateRepository) GetCandidate(ctx context.Context, id int64) (*model.Candidate, error) {
	c := &model.Candidate{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, full_name, email FROM candidates WHERE id = $1`, id,
	).Scan(&c.ID, &c.FullName, &c.Email)
	if err != nil {
		return nil, err
	}
	return c, nil
}
