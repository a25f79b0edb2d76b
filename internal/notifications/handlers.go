// internal/notifications/handlers.go

package notifications

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/matcha-app/matcha-backend/internal/auth"
	"github.com/matcha-app/matcha-backend/internal/common/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin checks are handled by the CORS layer in front of the API.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Handler struct {
	service   Service
	hub       *Hub
	jwtSecret string
}

func NewHandler(service Service, hub *Hub, jwtSecret string) *Handler {
	return &Handler{service: service, hub: hub, jwtSecret: jwtSecret}
}

// List handles GET /api/notifications
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	opts := &ListOptions{
		UnreadOnly: r.URL.Query().Get("unreadOnly") == "true",
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		opts.Limit, _ = strconv.Atoi(raw)
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		opts.Offset, _ = strconv.Atoi(raw)
	}

	list, err := h.service.List(r.Context(), userID, opts)
	if err != nil {
		utils.ErrorResponse(w, "Failed to list notifications", http.StatusInternalServerError)
		return
	}

	utils.SuccessResponse(w, list, http.StatusOK)
}

// UnreadCount handles GET /api/notifications/unread-count
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	count, err := h.service.CountUnread(r.Context(), userID)
	if err != nil {
		utils.ErrorResponse(w, "Failed to count notifications", http.StatusInternalServerError)
		return
	}

	utils.SuccessResponse(w, map[string]int{"count": count}, http.StatusOK)
}

// MarkRead handles PUT /api/notifications/{id}/read
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	notificationID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || notificationID <= 0 {
		utils.ErrorResponse(w, "Invalid notification ID", http.StatusBadRequest)
		return
	}

	if err := h.service.MarkRead(r.Context(), userID, notificationID); err != nil {
		if errors.Is(err, ErrNotificationNotFound) {
			utils.ErrorResponse(w, "Notification not found", http.StatusNotFound)
			return
		}
		utils.ErrorResponse(w, "Failed to mark notification read", http.StatusInternalServerError)
		return
	}

	utils.MessageResponse(w, "Notification marked as read", http.StatusOK)
}

// MarkAllRead handles PUT /api/notifications/read-all
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	if err := h.service.MarkAllRead(r.Context(), userID); err != nil {
		utils.ErrorResponse(w, "Failed to mark notifications read", http.StatusInternalServerError)
		return
	}

	utils.MessageResponse(w, "All notifications marked as read", http.StatusOK)
}

// ServeWS handles GET /api/notifications/ws. Browsers cannot set an
// Authorization header on websocket dials, so the access token comes in the
// token query parameter instead.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		utils.ErrorResponse(w, "Missing token", http.StatusUnauthorized)
		return
	}

	claims, err := utils.ValidateJWT(token, h.jwtSecret)
	if err != nil || claims.Type != "access" {
		utils.ErrorResponse(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed for user %d: %v", claims.UserID, err)
		return
	}

	NewClient(h.hub, conn, claims.UserID).Start()
}
