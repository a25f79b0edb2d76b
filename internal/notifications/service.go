// internal/notifications/service.go

package notifications

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

type Service interface {
	Notify(ctx context.Context, recipientID int64, event string, data map[string]interface{}) error
	List(ctx context.Context, userID int64, opts *ListOptions) ([]*Notification, error)
	CountUnread(ctx context.Context, userID int64) (int, error)
	MarkRead(ctx context.Context, userID, notificationID int64) error
	MarkAllRead(ctx context.Context, userID int64) error
}

type service struct {
	repo Repository
	hub  *Hub
}

func NewService(repo Repository, hub *Hub) Service {
	return &service{repo: repo, hub: hub}
}

// Notify persists the notification and pushes it to the recipient's live
// connection when one exists. Persistence is the source of truth; the push
// is best effort.
func (s *service) Notify(ctx context.Context, recipientID int64, event string, data map[string]interface{}) error {
	if !validType(event) {
		return ErrUnknownType
	}

	n := &Notification{
		UserID: recipientID,
		Type:   event,
		Data:   NotificationData(data),
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}

	if s.hub != nil {
		payload, err := json.Marshal(n)
		if err != nil {
			log.Printf("Failed to marshal notification %d: %v", n.ID, err)
			return nil
		}
		s.hub.SendToUser(recipientID, WSEvent{
			Type:      "notification",
			Data:      payload,
			Timestamp: time.Now(),
		})
	}
	return nil
}

func (s *service) List(ctx context.Context, userID int64, opts *ListOptions) ([]*Notification, error) {
	if opts == nil {
		opts = &ListOptions{}
	}
	if opts.Limit <= 0 || opts.Limit > 100 {
		opts.Limit = 50
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	return s.repo.List(ctx, userID, opts)
}

func (s *service) CountUnread(ctx context.Context, userID int64) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID int64) error {
	return s.repo.MarkRead(ctx, userID, notificationID)
}

func (s *service) MarkAllRead(ctx context.Context, userID int64) error {
	return s.repo.MarkAllRead(ctx, userID)
}
