package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oaib/exam-backend/internal/config"
	"github.com/oaib/exam-backend/internal/model"
	"github.com/redis/go-redis/v9"
)

// MonitorRepository provides data access for live exam monitoring.
// It combines PostgreSQL (session state) and Redis (queued tab-switch events).
type MonitorRepository struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
}

// NewMonitorRepository creates a new MonitorRepository.
func NewMonitorRepository(pool *pgxpool.Pool, rdb *redis.Client) *MonitorRepository {
	return &MonitorRepository{pool: pool, rdb: rdb}
}

// ListInProgress returns every in-progress session of an exam with its answer progress.
func (r *MonitorRepository) ListInProgress(ctx context.Context, examID int64) ([]model.MonitorRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.candidate_id, c.full_name, s.started_at,
		       COUNT(a.id) FILTER (WHERE a.selected_option_id IS NOT NULL),
		       COUNT(a.id) FILTER (WHERE a.is_flagged),
		       COALESCE(array_length(s.question_order, 1), 0),
		       s.tab_switch_count
		FROM exam_sessions s
		JOIN candidates c ON c.id = s.candidate_id
		LEFT JOIN exam_answers a ON a.session_id = s.id
		WHERE s.exam_id = $1 AND s.status = $2
		GROUP BY s.id, c.full_name
		ORDER BY s.started_at`,
		examID, model.SessionStatusInProgress,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.MonitorRow{}
	for rows.Next() {
		var m model.MonitorRow
		if err := rows.Scan(&m.SessionID, &m.CandidateID, &m.CandidateName, &m.StartedAt,
			&m.Answered, &m.Flagged, &m.TotalQuestions, &m.TabSwitchCount); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// CountFinished returns the number of completed or evaluated sessions of an exam.
func (r *MonitorRepository) CountFinished(ctx context.Context, examID int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM exam_sessions WHERE exam_id = $1 AND status IN ($2, $3)`,
		examID, model.SessionStatusCompleted, model.SessionStatusEvaluated,
	).Scan(&n)
	return n, err
}

// PendingTabSwitches returns how many tab-switch events wait in the queue.
// The queue is shared by all exams, so this is a global backlog indicator.
func (r *MonitorRepository) PendingTabSwitches(ctx context.Context) (int64, error) {
	return r.rdb.LLen(ctx, config.WorkerKey.TabSwitchQueue).Result()
}
