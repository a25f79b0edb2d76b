// internal/profile/routes.go

package profile

import (
	"github.com/gorilla/mux"

	"github.com/matcha-app/matcha-backend/internal/auth"
)

// RegisterRoutes wires profile endpoints onto the router
func RegisterRoutes(router *mux.Router, handler *Handler, middleware *auth.Middleware) {
	api := router.PathPrefix("/api/profile").Subrouter()
	api.Use(middleware.Authenticate)

	api.HandleFunc("", handler.GetMyProfile).Methods("GET")
	api.HandleFunc("", handler.UpdateProfile).Methods("PUT")

	api.HandleFunc("/photos", handler.AddPhoto).Methods("POST")
	api.HandleFunc("/photos", handler.GetPhotos).Methods("GET")
	api.HandleFunc("/photos/{id:[0-9]+}", handler.DeletePhoto).Methods("DELETE")
	api.HandleFunc("/photos/{id:[0-9]+}/primary", handler.SetProfilePicture).Methods("PUT")

	api.HandleFunc("/visitors", handler.GetVisitors).Methods("GET")

	// Numeric constraint keeps this from shadowing /browse, /like and /block,
	// which are registered by the matching package under the same prefix.
	api.HandleFunc("/{userId:[0-9]+}", handler.GetUserProfile).Methods("GET")
}
