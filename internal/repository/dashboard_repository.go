package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oaib/exam-backend/internal/model"
)

// DashboardRepository handles admin dashboard data access.
type DashboardRepository struct {
	pool *pgxpool.Pool
}

// NewDashboardRepository creates a new DashboardRepository.
func NewDashboardRepository(pool *pgxpool.Pool) *DashboardRepository {
	return &DashboardRepository{pool: pool}
}

// GetSummaryCounts fills the headline counters of s.
func (r *DashboardRepository) GetSummaryCounts(ctx context.Context, s *model.DashboardSummary) error {
	return r.pool.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM candidates),
			(SELECT COUNT(*) FROM questions),
			(SELECT COUNT(*) FROM question_categories),
			(SELECT COUNT(*) FROM exams)`,
	).Scan(&s.TotalCandidates, &s.TotalQuestions, &s.TotalCategories, &s.TotalExams)
}

// GetExamStatusCounts retrieves the distribution of exams by status.
func (r *DashboardRepository) GetExamStatusCounts(ctx context.Context) (map[model.ExamStatus]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM exams GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.ExamStatus]int)
	for rows.Next() {
		var status model.ExamStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// GetDifficultyCounts retrieves the distribution of active questions by difficulty.
func (r *DashboardRepository) GetDifficultyCounts(ctx context.Context) (map[model.Difficulty]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT difficulty, COUNT(*) FROM questions WHERE is_active GROUP BY difficulty`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.Difficulty]int)
	for rows.Next() {
		var d model.Difficulty
		var count int
		if err := rows.Scan(&d, &count); err != nil {
			return nil, err
		}
		counts[d] = count
	}
	return counts, rows.Err()
}

// GetRecentExamResults retrieves the last N completed exams with their finished-session averages.
func (r *DashboardRepository) GetRecentExamResults(ctx context.Context, limit int) ([]model.RecentExamResult, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT e.id, e.title, e.end_datetime,
		       COUNT(s.id),
		       COALESCE(ROUND(AVG(s.percentage), 2), 0)::float8
		FROM exams e
		LEFT JOIN exam_sessions s ON s.exam_id = e.id AND s.status IN ('completed', 'evaluated')
		WHERE e.status = $1
		GROUP BY e.id
		ORDER BY e.end_datetime DESC NULLS LAST, e.id DESC
		LIMIT $2`,
		model.ExamStatusCompleted, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []model.RecentExamResult{}
	for rows.Next() {
		var res model.RecentExamResult
		if err := rows.Scan(&res.ExamID, &res.Title, &res.EndDatetime, &res.FinishedSessions, &res.AveragePercentage); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
