// internal/chat/repository.go

package chat

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	AreMatched(ctx context.Context, userID1, userID2 int64) (bool, error)
	GetOrCreateConversation(ctx context.Context, userID1, userID2 int64) (*Conversation, error)
	GetConversation(ctx context.Context, conversationID int64) (*Conversation, error)
	ListConversations(ctx context.Context, userID int64) ([]*ConversationSummary, error)
	GetMessages(ctx context.Context, conversationID int64, limit, offset int) ([]*Message, error)
	CreateMessage(ctx context.Context, conversationID, senderID int64, content string) (*Message, error)
	MarkMessagesRead(ctx context.Context, conversationID, readerID int64) error
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func canonicalPair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}

func (r *postgresRepository) AreMatched(ctx context.Context, userID1, userID2 int64) (bool, error) {
	u1, u2 := canonicalPair(userID1, userID2)

	var matched bool
	err := r.db.GetContext(ctx, &matched,
		`SELECT EXISTS(SELECT 1 FROM matches WHERE user1_id = $1 AND user2_id = $2)`, u1, u2)
	if err != nil {
		return false, fmt.Errorf("failed to check match: %w", err)
	}
	return matched, nil
}

// GetOrCreateConversation returns the pair's conversation, creating it on
// first contact and reactivating it when the pair re-matched after an
// unmatch.
func (r *postgresRepository) GetOrCreateConversation(ctx context.Context, userID1, userID2 int64) (*Conversation, error) {
	u1, u2 := canonicalPair(userID1, userID2)

	var conv Conversation
	query := `
		INSERT INTO conversations (user1_id, user2_id)
		VALUES ($1, $2)
		ON CONFLICT ON CONSTRAINT unique_conversation_pair
		DO UPDATE SET is_active = TRUE
		RETURNING id, user1_id, user2_id, is_active, last_message_at, created_at`

	err := r.db.GetContext(ctx, &conv, query, u1, u2)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create conversation: %w", err)
	}
	return &conv, nil
}

func (r *postgresRepository) GetConversation(ctx context.Context, conversationID int64) (*Conversation, error) {
	var conv Conversation
	query := `
		SELECT id, user1_id, user2_id, is_active, last_message_at, created_at
		FROM conversations
		WHERE id = $1`

	err := r.db.GetContext(ctx, &conv, query, conversationID)
	if err == sql.ErrNoRows {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conv, nil
}

func (r *postgresRepository) ListConversations(ctx context.Context, userID int64) ([]*ConversationSummary, error) {
	query := `
		SELECT c.id,
		       CASE WHEN c.user1_id = $1 THEN c.user2_id ELSE c.user1_id END AS other_user_id,
		       u.username AS other_username,
		       u.first_name AS other_first_name,
		       u.last_seen AS other_last_seen,
		       c.is_active,
		       lm.content AS last_message,
		       c.last_message_at,
		       COALESCE(un.unread, 0) AS unread_count
		FROM conversations c
		JOIN users u
		  ON u.id = CASE WHEN c.user1_id = $1 THEN c.user2_id ELSE c.user1_id END
		LEFT JOIN LATERAL (
			SELECT content FROM messages m
			WHERE m.conversation_id = c.id
			ORDER BY m.created_at DESC
			LIMIT 1
		) lm ON TRUE
		LEFT JOIN LATERAL (
			SELECT COUNT(*) AS unread FROM messages m
			WHERE m.conversation_id = c.id
			  AND m.sender_id <> $1
			  AND m.is_read = FALSE
		) un ON TRUE
		WHERE c.user1_id = $1 OR c.user2_id = $1
		ORDER BY c.last_message_at DESC NULLS LAST, c.created_at DESC`

	conversations := []*ConversationSummary{}
	if err := r.db.SelectContext(ctx, &conversations, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return conversations, nil
}

func (r *postgresRepository) GetMessages(ctx context.Context, conversationID int64, limit, offset int) ([]*Message, error) {
	query := `
		SELECT id, conversation_id, sender_id, content, is_read, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	messages := []*Message{}
	if err := r.db.SelectContext(ctx, &messages, query, conversationID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	return messages, nil
}

// CreateMessage inserts the message and bumps the conversation's
// last_message_at in one transaction.
func (r *postgresRepository) CreateMessage(ctx context.Context, conversationID, senderID int64, content string) (*Message, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var msg Message
	query := `
		INSERT INTO messages (conversation_id, sender_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, conversation_id, sender_id, content, is_read, created_at`

	if err := tx.GetContext(ctx, &msg, query, conversationID, senderID, content); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE conversations SET last_message_at = $1 WHERE id = $2`,
		msg.CreatedAt, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to update conversation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit message: %w", err)
	}
	return &msg, nil
}

func (r *postgresRepository) MarkMessagesRead(ctx context.Context, conversationID, readerID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE messages SET is_read = TRUE
		WHERE conversation_id = $1 AND sender_id <> $2 AND is_read = FALSE`,
		conversationID, readerID)
	if err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}
	return nil
}
