package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oaib/exam-backend/internal/config"
	"github.com/oaib/exam-backend/internal/metrics"
	"github.com/oaib/exam-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// maxNotificationAttempts bounds how often a failing notification is retried.
const maxNotificationAttempts = 3

// NotificationWorker consumes the notifications queue and inserts each
// notification into PostgreSQL.
type NotificationWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewNotificationWorker creates a new NotificationWorker.
func NewNotificationWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *NotificationWorker {
	return &NotificationWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "notification_worker").Logger(),
	}
}

// Start begins the worker loop. Call in a goroutine.
func (w *NotificationWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			w.drain(drainCtx)
			cancel()
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *NotificationWorker) processNext(ctx context.Context) {
	result, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.NotificationsQueue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
			time.Sleep(time.Second)
		}
		return
	}
	if len(result) < 2 {
		return
	}

	if err := w.handle(ctx, result[1]); err != nil {
		// Back off while the database is unavailable.
		time.Sleep(5 * time.Second)
	}
}

// handle persists one raw payload, requeueing it on failure until it runs out of attempts.
func (w *NotificationWorker) handle(ctx context.Context, raw string) error {
	var p notificationPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil || p.CandidateID <= 0 {
		w.log.Error().Err(err).Str("data", raw).Msg("Discarding malformed notification")
		metrics.WorkerItems.WithLabelValues("notification", "discarded").Inc()
		return nil
	}

	err := w.insert(ctx, &p.Notification)
	if err == nil {
		metrics.WorkerItems.WithLabelValues("notification", "stored").Inc()
		return nil
	}

	p.Attempts++
	logEvt := w.log.Error().Err(err).Int64("candidate_id", p.CandidateID).Int("attempts", p.Attempts)
	if p.Attempts >= maxNotificationAttempts {
		logEvt.Msg("Dropping notification after repeated failures")
		metrics.WorkerItems.WithLabelValues("notification", "dropped").Inc()
		return err
	}
	logEvt.Msg("Persist error, requeueing")
	metrics.WorkerItems.WithLabelValues("notification", "requeued").Inc()

	data, _ := json.Marshal(p)
	if qerr := w.rdb.RPush(ctx, config.WorkerKey.NotificationsQueue, data).Err(); qerr != nil {
		w.log.Error().Err(qerr).Msg("Failed to requeue notification")
	}
	return err
}

func (w *NotificationWorker) insert(ctx context.Context, n *model.Notification) error {
	typ := n.Type
	if typ == "" {
		typ = model.NotificationInfo
	}
	createdAt := n.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := w.pool.Exec(ctx,
		`INSERT INTO notifications (candidate_id, title, message, notif_type, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		n.CandidateID, n.Title, n.Message, typ, createdAt,
	)
	return err
}

// drain persists whatever is left in the queue before shutdown.
func (w *NotificationWorker) drain(ctx context.Context) {
	drained := 0
	for ctx.Err() == nil {
		raw, err := w.rdb.LPop(ctx, config.WorkerKey.NotificationsQueue).Result()
		if err != nil {
			break
		}
		if err := w.handle(ctx, raw); err != nil {
			break
		}
		drained++
	}
	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining notifications")
	}
}
