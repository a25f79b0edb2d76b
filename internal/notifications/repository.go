// internal/notifications/repository.go

package notifications

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	List(ctx context.Context, userID int64, opts *ListOptions) ([]*Notification, error)
	CountUnread(ctx context.Context, userID int64) (int, error)
	MarkRead(ctx context.Context, userID, notificationID int64) error
	MarkAllRead(ctx context.Context, userID int64) error
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, n *Notification) error {
	query := `
		INSERT INTO notifications (user_id, type, data)
		VALUES ($1, $2, $3)
		RETURNING id, is_read, created_at`

	err := r.db.QueryRowxContext(ctx, query, n.UserID, n.Type, n.Data).
		Scan(&n.ID, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *postgresRepository) List(ctx context.Context, userID int64, opts *ListOptions) ([]*Notification, error) {
	query := `
		SELECT id, user_id, type, data, is_read, created_at
		FROM notifications
		WHERE user_id = $1`
	args := []interface{}{userID}

	if opts.UnreadOnly {
		query += ` AND is_read = FALSE`
	}

	query += ` ORDER BY created_at DESC`

	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	notifications := []*Notification{}
	if err := r.db.SelectContext(ctx, &notifications, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (r *postgresRepository) CountUnread(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead only touches notifications owned by the caller.
func (r *postgresRepository) MarkRead(ctx context.Context, userID, notificationID int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`,
		notificationID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if rows == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *postgresRepository) MarkAllRead(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}
