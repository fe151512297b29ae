package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oaib/exam-backend/internal/config"
	"github.com/oaib/exam-backend/internal/model"
	"github.com/redis/go-redis/v9"
)

// Queue pushes session side effects onto the Redis lists drained by the workers.
type Queue struct {
	rdb *redis.Client
}

// NewQueue creates a new Queue.
func NewQueue(rdb *redis.Client) *Queue {
	return &Queue{rdb: rdb}
}

type tabSwitchPayload struct {
	SessionID  int64 `json:"session_id"`
	RecordedAt int64 `json:"recorded_at"`
}

type notificationPayload struct {
	model.Notification
	Attempts int `json:"attempts"`
}

// EnqueueTabSwitch records one tab switch of a session.
func (q *Queue) EnqueueTabSwitch(ctx context.Context, sessionID int64) error {
	data, err := json.Marshal(tabSwitchPayload{SessionID: sessionID, RecordedAt: time.Now().Unix()})
	if err != nil {
		return err
	}
	if err := q.rdb.RPush(ctx, config.WorkerKey.TabSwitchQueue, data).Err(); err != nil {
		return fmt.Errorf("push tab switch: %w", err)
	}
	return nil
}

// EnqueueNotification schedules n for persistence.
func (q *Queue) EnqueueNotification(ctx context.Context, n model.Notification) error {
	data, err := json.Marshal(notificationPayload{Notification: n})
	if err != nil {
		return err
	}
	if err := q.rdb.RPush(ctx, config.WorkerKey.NotificationsQueue, data).Err(); err != nil {
		return fmt.Errorf("push notification: %w", err)
	}
	return nil
}
