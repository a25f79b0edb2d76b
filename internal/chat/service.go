// internal/chat/service.go

package chat

import (
	"context"
	"log"
	"strings"
	"unicode/utf8"
)

// Notifier delivers message notifications. Implemented by the notifications
// service.
type Notifier interface {
	Notify(ctx context.Context, recipientID int64, event string, data map[string]interface{}) error
}

type Service interface {
	StartConversation(ctx context.Context, userID, otherUserID int64) (*Conversation, error)
	ListConversations(ctx context.Context, userID int64) ([]*ConversationSummary, error)
	GetMessages(ctx context.Context, userID, conversationID int64, limit, offset int) ([]*Message, error)
	SendMessage(ctx context.Context, userID, conversationID int64, content string) (*Message, error)
	MarkRead(ctx context.Context, userID, conversationID int64) error
}

type service struct {
	repo     Repository
	notifier Notifier
}

func NewService(repo Repository, notifier Notifier) Service {
	return &service{repo: repo, notifier: notifier}
}

// StartConversation opens (or reopens) the chat thread with a matched user.
// Chat is strictly gated on a current match.
func (s *service) StartConversation(ctx context.Context, userID, otherUserID int64) (*Conversation, error) {
	if userID == otherUserID {
		return nil, ErrCannotChatSelf
	}

	matched, err := s.repo.AreMatched(ctx, userID, otherUserID)
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, ErrNotMatched
	}

	return s.repo.GetOrCreateConversation(ctx, userID, otherUserID)
}

func (s *service) ListConversations(ctx context.Context, userID int64) ([]*ConversationSummary, error) {
	return s.repo.ListConversations(ctx, userID)
}

// GetMessages returns one page of a conversation's history, newest page
// first but oldest-first within the page.
func (s *service) GetMessages(ctx context.Context, userID, conversationID int64, limit, offset int) ([]*Message, error) {
	if _, err := s.authorizeParticipant(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	messages, err := s.repo.GetMessages(ctx, conversationID, limit, offset)
	if err != nil {
		return nil, err
	}

	// Rows come back newest first; reverse so the page reads top to bottom.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (s *service) SendMessage(ctx context.Context, userID, conversationID int64, content string) (*Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(content) > maxMessageLength {
		return nil, ErrMessageTooLong
	}

	conv, err := s.authorizeParticipant(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.IsActive {
		return nil, ErrConversationInactive
	}

	msg, err := s.repo.CreateMessage(ctx, conversationID, userID, content)
	if err != nil {
		return nil, err
	}

	recipientID := conv.User1ID
	if recipientID == userID {
		recipientID = conv.User2ID
	}
	if s.notifier != nil {
		err := s.notifier.Notify(ctx, recipientID, "message", map[string]interface{}{
			"userId":         userID,
			"conversationId": conversationID,
		})
		if err != nil {
			log.Printf("Failed to send message notification to user %d: %v", recipientID, err)
		}
	}

	return msg, nil
}

func (s *service) MarkRead(ctx context.Context, userID, conversationID int64) error {
	if _, err := s.authorizeParticipant(ctx, userID, conversationID); err != nil {
		return err
	}
	return s.repo.MarkMessagesRead(ctx, conversationID, userID)
}

func (s *service) authorizeParticipant(ctx context.Context, userID, conversationID int64) (*Conversation, error) {
	conv, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.User1ID != userID && conv.User2ID != userID {
		return nil, ErrNotParticipant
	}
	return conv, nil
}
