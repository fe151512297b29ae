package worker

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oaib/exam-backend/internal/config"
	"github.com/oaib/exam-backend/internal/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
	PollTimeout  = 1 * time.Second // Redis rejects BLPOP timeouts below 1s
)

// TabSwitchWorker drains the tab switch queue and adds the counts to
// exam_sessions in batches.
type TabSwitchWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewTabSwitchWorker creates a new TabSwitchWorker.
func NewTabSwitchWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *TabSwitchWorker {
	return &TabSwitchWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "tab_switch_worker").Logger(),
	}
}

// Start runs the worker loop until ctx is cancelled. Call in a goroutine.
func (w *TabSwitchWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	buffer := make([]tabSwitchPayload, 0, BatchSize)
	lastFlush := time.Now()

	for {
		if len(buffer) > 0 && (len(buffer) >= BatchSize || time.Since(lastFlush) >= BatchTimeout) {
			w.flush(ctx, buffer)
			buffer = buffer[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		result, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.TabSwitchQueue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				continue
			}
			w.log.Error().Err(err).Msg("Redis error, sleeping 3s")
			time.Sleep(3 * time.Second)
			continue
		}
		if len(result) < 2 {
			continue
		}

		var p tabSwitchPayload
		if err := json.Unmarshal([]byte(result[1]), &p); err != nil || p.SessionID <= 0 {
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed tab switch")
			metrics.WorkerItems.WithLabelValues("tab_switch", "discarded").Inc()
			continue
		}
		buffer = append(buffer, p)
	}
}

// aggregate folds a batch into parallel session id and count slices, ordered by session id.
func aggregate(batch []tabSwitchPayload) ([]int64, []int32) {
	counts := make(map[int64]int32, len(batch))
	for _, p := range batch {
		counts[p.SessionID]++
	}
	ids := make([]int64, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	ns := make([]int32, len(ids))
	for i, id := range ids {
		ns[i] = counts[id]
	}
	return ids, ns
}

func (w *TabSwitchWorker) flush(ctx context.Context, batch []tabSwitchPayload) {
	ids, counts := aggregate(batch)

	_, err := w.pool.Exec(ctx,
		`UPDATE exam_sessions s
		 SET tab_switch_count = s.tab_switch_count + c.n
		 FROM UNNEST($1::bigint[], $2::int[]) AS c(id, n)
		 WHERE s.id = c.id`,
		ids, counts,
	)
	if err != nil {
		w.log.Error().Err(err).Int("sessions", len(ids)).Msg("Tab switch update failed, requeueing")
		metrics.WorkerItems.WithLabelValues("tab_switch", "requeued").Add(float64(len(batch)))
		w.requeue(ctx, batch)
		return
	}
	metrics.WorkerItems.WithLabelValues("tab_switch", "stored").Add(float64(len(batch)))
	w.log.Debug().Int("events", len(batch)).Int("sessions", len(ids)).Msg("Tab switches flushed")
}

func (w *TabSwitchWorker) requeue(ctx context.Context, items []tabSwitchPayload) {
	pipe := w.rdb.Pipeline()
	for _, p := range items {
		data, _ := json.Marshal(p)
		pipe.RPush(ctx, config.WorkerKey.TabSwitchQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Int("count", len(items)).Msg("Failed to requeue tab switches, events lost")
		return
	}
	// Back off so a database outage does not spin the loop.
	time.Sleep(2 * time.Second)
}

func (w *TabSwitchWorker) shutdown(buffer []tabSwitchPayload) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if len(buffer) > 0 {
		w.flush(ctx, buffer)
	}
	w.log.Info().Msg("Worker stopped")
}
