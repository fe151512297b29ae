package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oaib/exam-backend/internal/model"
	"github.com/oaib/exam-backend/internal/service"
	"github.com/rs/zerolog"
)

const (
	refreshInterval   = 5 * time.Second
	keepAliveInterval = 30 * time.Second
	refreshTimeout    = 5 * time.Second // a slow query must not stall the SSE loop
)

// MonitorHandler streams the live state of an exam to proctors.
type MonitorHandler struct {
	monitorService *service.MonitorService
	log            zerolog.Logger
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(monitorService *service.MonitorService, log zerolog.Logger) *MonitorHandler {
	return &MonitorHandler{
		monitorService: monitorService,
		log:            log.With().Str("component", "monitor_handler").Logger(),
	}
}

// monitorEvent is one SSE message. Type is snapshot, refresh or ping.
type monitorEvent struct {
	Type string             `json:"type"`
	Data *model.ExamMonitor `json:"data,omitempty"`
}

// MonitorExamSSE godoc
// GET /api/v1/admin/exams/:id/monitor
// Sends a snapshot, then a refresh every few seconds and a ping on idle.
func (h *MonitorHandler) MonitorExamSSE(c *gin.Context) {
	examID, ok := paramID(c, "id")
	if !ok {
		return
	}

	reqCtx := c.Request.Context()

	// The first read doubles as the existence check, before headers go out.
	first, err := h.fetch(reqCtx, examID)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	c.SSEvent("message", monitorEvent{Type: "snapshot", Data: first})
	c.Writer.Flush()

	refreshTicker := time.NewTicker(refreshInterval)
	defer refreshTicker.Stop()
	keepAliveTicker := time.NewTicker(keepAliveInterval)
	defer keepAliveTicker.Stop()

	log := h.log.With().Int64("exam_id", examID).Logger()
	log.Info().Msg("Proctor attached to live monitor")

	for {
		select {
		case <-reqCtx.Done():
			log.Info().Msg("Proctor detached from live monitor")
			return

		case <-refreshTicker.C:
			snap, err := h.fetch(reqCtx, examID)
			if err != nil {
				log.Warn().Err(err).Msg("Monitor refresh failed")
				continue
			}
			c.SSEvent("message", monitorEvent{Type: "refresh", Data: snap})
			c.Writer.Flush()

		case <-keepAliveTicker.C:
			c.SSEvent("message", monitorEvent{Type: "ping"})
			c.Writer.Flush()
		}
	}
}

func (h *MonitorHandler) fetch(parent context.Context, examID int64) (*model.ExamMonitor, error) {
	ctx, cancel := context.WithTimeout(parent, refreshTimeout)
	defer cancel()
	return h.monitorService.ExamMonitor(ctx, examID)
}
