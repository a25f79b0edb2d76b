// internal/auth/routes.go

package auth

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes wires auth endpoints onto the router
func RegisterRoutes(router *mux.Router, handler *Handler, middleware *Middleware) {
	public := router.PathPrefix("/api/auth").Subrouter()
	public.HandleFunc("/register", handler.Register).Methods("POST")
	public.HandleFunc("/verify", handler.VerifyEmail).Methods("GET")
	public.HandleFunc("/login", handler.Login).Methods("POST")
	public.HandleFunc("/refresh", handler.Refresh).Methods("POST")
	public.HandleFunc("/logout", handler.Logout).Methods("POST")
	public.HandleFunc("/forgot-password", handler.ForgotPassword).Methods("POST")
	public.HandleFunc("/reset-password", handler.ResetPassword).Methods("POST")

	protected := router.PathPrefix("/api/auth").Subrouter()
	protected.Use(middleware.Authenticate)
	protected.HandleFunc("/me", handler.Me).Methods("GET")
}
