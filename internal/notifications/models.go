// internal/notifications/models.go

package notifications

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Notification event types
const (
	TypeLike    = "like"
	TypeMatch   = "match"
	TypeVisit   = "visit"
	TypeUnlike  = "unlike"
	TypeMessage = "message"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrUnknownType          = errors.New("unknown notification type")
)

// NotificationData is the JSONB payload attached to a notification
type NotificationData map[string]interface{}

func (d NotificationData) Value() (driver.Value, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d)
}

func (d *NotificationData) Scan(src interface{}) error {
	if src == nil {
		*d = NotificationData{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into NotificationData", src)
	}
	return json.Unmarshal(b, d)
}

type Notification struct {
	ID        int64            `json:"id" db:"id"`
	UserID    int64            `json:"user_id" db:"user_id"`
	Type      string           `json:"type" db:"type"`
	Data      NotificationData `json:"data" db:"data"`
	IsRead    bool             `json:"is_read" db:"is_read"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

// ListOptions controls notification listing
type ListOptions struct {
	Limit      int
	Offset     int
	UnreadOnly bool
}

func validType(t string) bool {
	switch t {
	case TypeLike, TypeMatch, TypeVisit, TypeUnlike, TypeMessage:
		return true
	}
	return false
}
