package service

import (
	"context"
	"fmt"

	"github.com/oaib/exam-backend/internal/model"
	"github.com/oaib/exam-backend/internal/response"
)

// NotificationStore is the persistence of candidate notifications.
type NotificationStore interface {
	ListByCandidate(ctx context.Context, candidateID int64, limit, offset int) ([]model.Notification, int, error)
	MarkRead(ctx context.Context, id, candidateID int64) error
}

// NotificationService exposes a candidate's in-app notifications.
type NotificationService struct {
	store NotificationStore
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(store NotificationStore) *NotificationService {
	return &NotificationService{store: store}
}

// List retrieves a candidate's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, candidateID int64, page, perPage int) ([]model.Notification, *response.Pagination, error) {
	page, perPage, offset := pageWindow(page, perPage)

	list, total, err := s.store.ListByCandidate(ctx, candidateID, perPage, offset)
	if err != nil {
		return nil, nil, fmt.Errorf("list notifications: %w", err)
	}
	if list == nil {
		list = []model.Notification{}
	}
	return list, response.NewPagination(page, perPage, total), nil
}

// MarkRead flags one of the candidate's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, candidateID, id int64) error {
	return storeErr("mark notification read", s.store.MarkRead(ctx, id, candidateID))
}
