package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/oaib/exam-backend/internal/model"
)

// DashboardStore provides the aggregate queries behind the admin overview.
type DashboardStore interface {
	GetSummaryCounts(ctx context.Context, s *model.DashboardSummary) error
	GetExamStatusCounts(ctx context.Context) (map[model.ExamStatus]int, error)
	GetDifficultyCounts(ctx context.Context) (map[model.Difficulty]int, error)
	GetRecentExamResults(ctx context.Context, limit int) ([]model.RecentExamResult, error)
}

const recentResultsLimit = 5

// DashboardService handles admin dashboard business logic.
type DashboardService struct {
	store    DashboardStore
	editions EditionStore
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(store DashboardStore, editions EditionStore) *DashboardService {
	return &DashboardService{store: store, editions: editions}
}

// Summary gathers the admin overview. A missing active edition is not an error.
func (s *DashboardService) Summary(ctx context.Context) (*model.DashboardSummary, error) {
	sum := &model.DashboardSummary{}
	if err := s.store.GetSummaryCounts(ctx, sum); err != nil {
		return nil, fmt.Errorf("summary counts: %w", err)
	}

	active, err := s.editions.GetActiveEdition(ctx)
	switch {
	case err == nil:
		sum.ActiveEdition = active
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, fmt.Errorf("active edition: %w", err)
	}

	if sum.ExamsByStatus, err = s.store.GetExamStatusCounts(ctx); err != nil {
		return nil, fmt.Errorf("exam status counts: %w", err)
	}
	if sum.QuestionsByLevel, err = s.store.GetDifficultyCounts(ctx); err != nil {
		return nil, fmt.Errorf("difficulty counts: %w", err)
	}
	if sum.RecentResults, err = s.store.GetRecentExamResults(ctx, recentResultsLimit); err != nil {
		return nil, fmt.Errorf("recent results: %w", err)
	}
	return sum, nil
}
