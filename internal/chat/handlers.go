// internal/chat/handlers.go

package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/matcha-app/matcha-backend/internal/auth"
	"github.com/matcha-app/matcha-backend/internal/common/utils"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// StartConversation handles GET /api/chat/conversations/{userId}/start
func (h *Handler) StartConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	otherUserID, err := strconv.ParseInt(mux.Vars(r)["userId"], 10, 64)
	if err != nil || otherUserID <= 0 {
		utils.ErrorResponse(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	conv, err := h.service.StartConversation(r.Context(), userID, otherUserID)
	if err != nil {
		switch {
		case errors.Is(err, ErrCannotChatSelf):
			utils.ErrorResponse(w, "You cannot chat with yourself", http.StatusBadRequest)
		case errors.Is(err, ErrNotMatched):
			utils.ErrorResponse(w, "You can only chat with your matches", http.StatusForbidden)
		default:
			utils.ErrorResponse(w, "Failed to start conversation", http.StatusInternalServerError)
		}
		return
	}

	utils.SuccessResponse(w, conv, http.StatusOK)
}

// ListConversations handles GET /api/chat/conversations
func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	conversations, err := h.service.ListConversations(r.Context(), userID)
	if err != nil {
		utils.ErrorResponse(w, "Failed to list conversations", http.StatusInternalServerError)
		return
	}

	utils.SuccessResponse(w, conversations, http.StatusOK)
}

// GetMessages handles GET /api/chat/conversations/{id}/messages
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	conversationID, err := parseConversationID(r)
	if err != nil {
		utils.ErrorResponse(w, "Invalid conversation ID", http.StatusBadRequest)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	messages, err := h.service.GetMessages(r.Context(), userID, conversationID, limit, (page-1)*limit)
	if err != nil {
		h.respondConversationError(w, err, "Failed to get messages")
		return
	}

	utils.SuccessResponse(w, messages, http.StatusOK)
}

// SendMessage handles POST /api/chat/conversations/{id}/messages
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	conversationID, err := parseConversationID(r)
	if err != nil {
		utils.ErrorResponse(w, "Invalid conversation ID", http.StatusBadRequest)
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	msg, err := h.service.SendMessage(r.Context(), userID, conversationID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyMessage):
			utils.ErrorResponse(w, "Message content is required", http.StatusBadRequest)
		case errors.Is(err, ErrMessageTooLong):
			utils.ErrorResponse(w, "Message content exceeds 1000 characters", http.StatusBadRequest)
		case errors.Is(err, ErrConversationInactive):
			utils.ErrorResponse(w, "This conversation is no longer active", http.StatusForbidden)
		default:
			h.respondConversationError(w, err, "Failed to send message")
		}
		return
	}

	utils.SuccessResponse(w, msg, http.StatusCreated)
}

// MarkRead handles PUT /api/chat/conversations/{id}/read
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	conversationID, err := parseConversationID(r)
	if err != nil {
		utils.ErrorResponse(w, "Invalid conversation ID", http.StatusBadRequest)
		return
	}

	if err := h.service.MarkRead(r.Context(), userID, conversationID); err != nil {
		h.respondConversationError(w, err, "Failed to mark messages read")
		return
	}

	utils.MessageResponse(w, "Messages marked as read", http.StatusOK)
}

func (h *Handler) respondConversationError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrConversationNotFound):
		utils.ErrorResponse(w, "Conversation not found", http.StatusNotFound)
	case errors.Is(err, ErrNotParticipant):
		utils.ErrorResponse(w, "You are not part of this conversation", http.StatusForbidden)
	default:
		utils.ErrorResponse(w, fallback, http.StatusInternalServerError)
	}
}

func parseConversationID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid conversation id")
	}
	return id, nil
}
