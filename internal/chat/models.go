// internal/chat/models.go

package chat

import (
	"errors"
	"time"
)

const maxMessageLength = 1000

var (
	ErrNotMatched           = errors.New("users are not matched")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrConversationInactive = errors.New("conversation is no longer active")
	ErrNotParticipant       = errors.New("not a participant of this conversation")
	ErrEmptyMessage         = errors.New("message content is empty")
	ErrMessageTooLong       = errors.New("message content is too long")
	ErrCannotChatSelf       = errors.New("cannot start a conversation with yourself")
)

// Conversation is a chat thread between two matched users, stored with
// user1_id < user2_id.
type Conversation struct {
	ID            int64      `json:"id" db:"id"`
	User1ID       int64      `json:"-" db:"user1_id"`
	User2ID       int64      `json:"-" db:"user2_id"`
	IsActive      bool       `json:"is_active" db:"is_active"`
	LastMessageAt *time.Time `json:"last_message_at" db:"last_message_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

// ConversationSummary is one row of the conversation list
type ConversationSummary struct {
	ID             int64      `json:"id" db:"id"`
	OtherUserID    int64      `json:"other_user_id" db:"other_user_id"`
	OtherUsername  string     `json:"other_username" db:"other_username"`
	OtherFirstName *string    `json:"other_first_name" db:"other_first_name"`
	OtherLastSeen  *time.Time `json:"other_last_seen" db:"other_last_seen"`
	IsActive       bool       `json:"is_active" db:"is_active"`
	LastMessage    *string    `json:"last_message" db:"last_message"`
	LastMessageAt  *time.Time `json:"last_message_at" db:"last_message_at"`
	UnreadCount    int        `json:"unread_count" db:"unread_count"`
}

type Message struct {
	ID             int64     `json:"id" db:"id"`
	ConversationID int64     `json:"conversation_id" db:"conversation_id"`
	SenderID       int64     `json:"sender_id" db:"sender_id"`
	Content        string    `json:"content" db:"content"`
	IsRead         bool      `json:"is_read" db:"is_read"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// SendMessageRequest is the body of POST /api/chat/conversations/{id}/messages
type SendMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=1000"`
}
