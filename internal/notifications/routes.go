// internal/notifications/routes.go

package notifications

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/matcha-app/matcha-backend/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, middleware *auth.Middleware) {
	// The websocket endpoint authenticates via query token, not the
	// Authorization header, so it stays outside the middleware chain.
	router.HandleFunc("/api/notifications/ws", handler.ServeWS).Methods(http.MethodGet)

	protected := router.PathPrefix("/api/notifications").Subrouter()
	protected.Use(middleware.Authenticate)

	protected.HandleFunc("", handler.List).Methods(http.MethodGet)
	protected.HandleFunc("/unread-count", handler.UnreadCount).Methods(http.MethodGet)
	protected.HandleFunc("/read-all", handler.MarkAllRead).Methods(http.MethodPut)
	protected.HandleFunc("/{id:[0-9]+}/read", handler.MarkRead).Methods(http.MethodPut)
}
