// internal/matching/routes.go

package matching

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/matcha-app/matcha-backend/internal/auth"
)

// RegisterRoutes mounts the matching endpoints under /api/profile.
// The profile package owns /api/profile/{userId}; that route is constrained
// to numeric IDs so these literal paths never collide with it.
func RegisterRoutes(router *mux.Router, handler *Handler, middleware *auth.Middleware) {
	protected := router.PathPrefix("/api/profile").Subrouter()
	protected.Use(middleware.Authenticate)

	protected.HandleFunc("/browse", handler.Browse).Methods(http.MethodGet)
	protected.HandleFunc("/like", handler.Like).Methods(http.MethodPost)
	protected.HandleFunc("/like/{userId:[0-9]+}", handler.Unlike).Methods(http.MethodDelete)
	protected.HandleFunc("/block", handler.Block).Methods(http.MethodPost)
	protected.HandleFunc("/report", handler.Report).Methods(http.MethodPost)
}
