// internal/chat/routes.go

package chat

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/matcha-app/matcha-backend/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, middleware *auth.Middleware) {
	protected := router.PathPrefix("/api/chat").Subrouter()
	protected.Use(middleware.Authenticate)

	protected.HandleFunc("/conversations", handler.ListConversations).Methods(http.MethodGet)
	protected.HandleFunc("/conversations/{userId:[0-9]+}/start", handler.StartConversation).Methods(http.MethodGet)
	protected.HandleFunc("/conversations/{id:[0-9]+}/messages", handler.GetMessages).Methods(http.MethodGet)
	protected.HandleFunc("/conversations/{id:[0-9]+}/messages", handler.SendMessage).Methods(http.MethodPost)
	protected.HandleFunc("/conversations/{id:[0-9]+}/read", handler.MarkRead).Methods(http.MethodPut)
}
