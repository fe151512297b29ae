package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/oaib/exam-backend/internal/model"
	"github.com/rs/zerolog"
)

// MonitorStore provides the live session state of an exam.
type MonitorStore interface {
	ListInProgress(ctx context.Context, examID int64) ([]model.MonitorRow, error)
	CountFinished(ctx context.Context, examID int64) (int, error)
	PendingTabSwitches(ctx context.Context) (int64, error)
}

// MonitorService orchestrates live exam monitoring.
type MonitorService struct {
	store MonitorStore
	exams SessionExamStore
	log   zerolog.Logger
}

// NewMonitorService creates a new MonitorService.
func NewMonitorService(store MonitorStore, exams SessionExamStore, log zerolog.Logger) *MonitorService {
	return &MonitorService{
		store: store,
		exams: exams,
		log:   log.With().Str("component", "monitor_service").Logger(),
	}
}

// ExamMonitor returns the in-progress sessions of an exam. The three reads
// run concurrently; the queue backlog is best-effort.
func (s *MonitorService) ExamMonitor(ctx context.Context, examID int64) (*model.ExamMonitor, error) {
	if _, err := s.exams.GetExam(ctx, examID); err != nil {
		return nil, storeErr("get exam", err)
	}

	var (
		rows        []model.MonitorRow
		finished    int
		pending     int64
		rowsErr     error
		finishedErr error
		pendingErr  error
		wg          sync.WaitGroup
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		rows, rowsErr = s.store.ListInProgress(ctx, examID)
	}()
	go func() {
		defer wg.Done()
		finished, finishedErr = s.store.CountFinished(ctx, examID)
	}()
	go func() {
		defer wg.Done()
		pending, pendingErr = s.store.PendingTabSwitches(ctx)
	}()
	wg.Wait()

	if rowsErr != nil {
		return nil, fmt.Errorf("list in-progress sessions: %w", rowsErr)
	}
	if finishedErr != nil {
		return nil, fmt.Errorf("count finished sessions: %w", finishedErr)
	}
	if pendingErr != nil {
		s.log.Warn().Err(pendingErr).Msg("Could not read tab-switch backlog")
		pending = 0
	}
	if rows == nil {
		rows = []model.MonitorRow{}
	}

	return &model.ExamMonitor{
		ExamID:           examID,
		InProgress:       len(rows),
		Finished:         finished,
		PendingTabSwitch: pending,
		Sessions:         rows,
	}, nil
}
