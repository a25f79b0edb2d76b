// internal/chat/service_test.go

package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pairKey struct {
	u1, u2 int64
}

func pairOf(a, b int64) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

type fakeRepository struct {
	matches       map[pairKey]bool
	conversations map[int64]*Conversation
	messages      map[int64][]*Message
	nextConvID    int64
	nextMsgID     int64
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		matches:       make(map[pairKey]bool),
		conversations: make(map[int64]*Conversation),
		messages:      make(map[int64][]*Message),
		nextConvID:    1,
		nextMsgID:     1,
	}
}

func (f *fakeRepository) AreMatched(ctx context.Context, a, b int64) (bool, error) {
	return f.matches[pairOf(a, b)], nil
}

// dissolveMatch mirrors what an unlike or block does on the other side of
// the app: the match row disappears and the conversation is deactivated.
func (f *fakeRepository) dissolveMatch(a, b int64) {
	p := pairOf(a, b)
	delete(f.matches, p)
	for _, conv := range f.conversations {
		if conv.User1ID == p.u1 && conv.User2ID == p.u2 {
			conv.IsActive = false
		}
	}
}

func (f *fakeRepository) GetOrCreateConversation(ctx context.Context, a, b int64) (*Conversation, error) {
	u1, u2 := a, b
	if u1 > u2 {
		u1, u2 = u2, u1
	}
	for _, conv := range f.conversations {
		if conv.User1ID == u1 && conv.User2ID == u2 {
			conv.IsActive = true
			return conv, nil
		}
	}
	conv := &Conversation{
		ID:       f.nextConvID,
		User1ID:  u1,
		User2ID:  u2,
		IsActive: true,
	}
	f.nextConvID++
	f.conversations[conv.ID] = conv
	return conv, nil
}

func (f *fakeRepository) GetConversation(ctx context.Context, id int64) (*Conversation, error) {
	conv, ok := f.conversations[id]
	if !ok {
		return nil, ErrConversationNotFound
	}
	return conv, nil
}

func (f *fakeRepository) ListConversations(ctx context.Context, userID int64) ([]*ConversationSummary, error) {
	var out []*ConversationSummary
	for _, conv := range f.conversations {
		if conv.User1ID == userID || conv.User2ID == userID {
			out = append(out, &ConversationSummary{ID: conv.ID})
		}
	}
	return out, nil
}

func (f *fakeRepository) GetMessages(ctx context.Context, conversationID int64, limit, offset int) ([]*Message, error) {
	all := f.messages[conversationID]
	// newest first, like the SQL query
	var out []*Message
	for i := len(all) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (f *fakeRepository) CreateMessage(ctx context.Context, conversationID, senderID int64, content string) (*Message, error) {
	msg := &Message{
		ID:             f.nextMsgID,
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      time.Now(),
	}
	f.nextMsgID++
	f.messages[conversationID] = append(f.messages[conversationID], msg)
	now := msg.CreatedAt
	f.conversations[conversationID].LastMessageAt = &now
	return msg, nil
}

func (f *fakeRepository) MarkMessagesRead(ctx context.Context, conversationID, readerID int64) error {
	for _, msg := range f.messages[conversationID] {
		if msg.SenderID != readerID {
			msg.IsRead = true
		}
	}
	return nil
}

type fakeNotifier struct {
	events []int64
}

func (f *fakeNotifier) Notify(ctx context.Context, recipientID int64, event string, data map[string]interface{}) error {
	f.events = append(f.events, recipientID)
	return nil
}

func TestStartConversationRequiresMatch(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc := NewService(repo, &fakeNotifier{})

	_, err := svc.StartConversation(ctx, 1, 2)
	assert.ErrorIs(t, err, ErrNotMatched)

	_, err = svc.StartConversation(ctx, 1, 1)
	assert.ErrorIs(t, err, ErrCannotChatSelf)

	repo.matches[pairOf(1, 2)] = true
	conv, err := svc.StartConversation(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, conv.IsActive)

	// Starting again from the other side returns the same thread
	conv2, err := svc.StartConversation(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, conv2.ID)
}

func TestStartConversationReactivatesAfterRematch(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc := NewService(repo, &fakeNotifier{})

	repo.matches[pairOf(1, 2)] = true
	conv, err := svc.StartConversation(ctx, 1, 2)
	require.NoError(t, err)

	// Unmatch deactivates the thread; a re-match brings it back with history
	repo.dissolveMatch(1, 2)
	require.False(t, conv.IsActive)
	repo.matches[pairOf(1, 2)] = true

	reopened, err := svc.StartConversation(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, reopened.ID)
	assert.True(t, reopened.IsActive)
}

func TestSendMessageValidation(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	notifier := &fakeNotifier{}
	svc := NewService(repo, notifier)

	repo.matches[pairOf(1, 2)] = true
	conv, err := svc.StartConversation(ctx, 1, 2)
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, 1, conv.ID, "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	// 1000 characters is the limit, 1001 is rejected
	_, err = svc.SendMessage(ctx, 1, conv.ID, strings.Repeat("a", 1000))
	assert.NoError(t, err)
	_, err = svc.SendMessage(ctx, 1, conv.ID, strings.Repeat("a", 1001))
	assert.ErrorIs(t, err, ErrMessageTooLong)

	// The limit counts characters, not bytes
	_, err = svc.SendMessage(ctx, 1, conv.ID, strings.Repeat("é", 1000))
	assert.NoError(t, err)
	_, err = svc.SendMessage(ctx, 1, conv.ID, strings.Repeat("é", 1001))
	assert.ErrorIs(t, err, ErrMessageTooLong)

	// Only participants may send
	_, err = svc.SendMessage(ctx, 3, conv.ID, "hello")
	assert.ErrorIs(t, err, ErrNotParticipant)

	_, err = svc.SendMessage(ctx, 1, 999, "hello")
	assert.ErrorIs(t, err, ErrConversationNotFound)

	// Inactive conversations reject new messages
	repo.dissolveMatch(1, 2)
	_, err = svc.SendMessage(ctx, 1, conv.ID, "hello")
	assert.ErrorIs(t, err, ErrConversationInactive)
}

func TestUnmatchClosesConversationToNewMessages(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc := NewService(repo, &fakeNotifier{})

	repo.matches[pairOf(1, 2)] = true
	conv, err := svc.StartConversation(ctx, 1, 2)
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, 1, conv.ID, "still matched")
	require.NoError(t, err)

	// One side unlikes: the match dissolves and the thread goes quiet
	repo.dissolveMatch(2, 1)

	_, err = svc.SendMessage(ctx, 1, conv.ID, "hello?")
	assert.ErrorIs(t, err, ErrConversationInactive)
	_, err = svc.SendMessage(ctx, 2, conv.ID, "sorry")
	assert.ErrorIs(t, err, ErrConversationInactive)

	// Without the match the thread cannot even be reopened
	_, err = svc.StartConversation(ctx, 1, 2)
	assert.ErrorIs(t, err, ErrNotMatched)

	// History is still readable by the participants
	messages, err := svc.GetMessages(ctx, 1, conv.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "still matched", messages[0].Content)
}

func TestSendMessageNotifiesRecipient(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	notifier := &fakeNotifier{}
	svc := NewService(repo, notifier)

	repo.matches[pairOf(1, 2)] = true
	conv, err := svc.StartConversation(ctx, 1, 2)
	require.NoError(t, err)

	msg, err := svc.SendMessage(ctx, 1, conv.ID, "hey!")
	require.NoError(t, err)
	assert.Equal(t, "hey!", msg.Content)
	assert.Equal(t, []int64{2}, notifier.events)

	_, err = svc.SendMessage(ctx, 2, conv.ID, "hi")
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, notifier.events)
}

func TestGetMessagesPageReadsOldestFirst(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc := NewService(repo, &fakeNotifier{})

	repo.matches[pairOf(1, 2)] = true
	conv, err := svc.StartConversation(ctx, 1, 2)
	require.NoError(t, err)

	for _, text := range []string{"one", "two", "three", "four"} {
		_, err := svc.SendMessage(ctx, 1, conv.ID, text)
		require.NoError(t, err)
	}

	// The most recent page, oldest first within the page
	messages, err := svc.GetMessages(ctx, 1, conv.ID, 2, 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "three", messages[0].Content)
	assert.Equal(t, "four", messages[1].Content)

	// The next page back in time
	messages, err = svc.GetMessages(ctx, 1, conv.ID, 2, 2)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "one", messages[0].Content)
	assert.Equal(t, "two", messages[1].Content)

	// Outsiders cannot read
	_, err = svc.GetMessages(ctx, 3, conv.ID, 10, 0)
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestMarkReadOnlyTouchesOthersMessages(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc := NewService(repo, &fakeNotifier{})

	repo.matches[pairOf(1, 2)] = true
	conv, err := svc.StartConversation(ctx, 1, 2)
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, 1, conv.ID, "from one")
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, 2, conv.ID, "from two")
	require.NoError(t, err)

	require.NoError(t, svc.MarkRead(ctx, 1, conv.ID))

	messages, err := svc.GetMessages(ctx, 1, conv.ID, 10, 0)
	require.NoError(t, err)
	for _, msg := range messages {
		if msg.SenderID == 2 {
			assert.True(t, msg.IsRead)
		} else {
			assert.False(t, msg.IsRead)
		}
	}

	assert.ErrorIs(t, svc.MarkRead(ctx, 3, conv.ID), ErrNotParticipant)
}
