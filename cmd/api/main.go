// cmd/api/main.go
// Entry point: wires configuration, storage, services and routes, then runs
// the HTTP server until interrupted.

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matcha-app/matcha-backend/internal/auth"
	"github.com/matcha-app/matcha-backend/internal/chat"
	"github.com/matcha-app/matcha-backend/internal/common/database"
	"github.com/matcha-app/matcha-backend/internal/common/utils"
	"github.com/matcha-app/matcha-backend/internal/config"
	"github.com/matcha-app/matcha-backend/internal/mailer"
	"github.com/matcha-app/matcha-backend/internal/matching"
	"github.com/matcha-app/matcha-backend/internal/notifications"
	"github.com/matcha-app/matcha-backend/internal/profile"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("Starting Matcha API")

	// 1. Environment
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found (%v), using environment variables", err)
	}

	// 2. Configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("Configuration validation failed: ", err)
	}

	// 3. PostgreSQL
	db, err := database.NewPostgresDBFromURL(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL: ", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}
	log.Println("Connected to PostgreSQL, migrations applied")

	// 4. Redis (optional: login rate limiting and token revocation degrade
	// gracefully without it)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClientFromURL(cfg.RedisURL)
		if err != nil {
			log.Printf("Warning: Redis unavailable (%v), continuing without it", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
			log.Println("Connected to Redis")
		}
	}

	// 5. Email provider
	var emailProvider mailer.Provider
	switch cfg.EmailProvider {
	case "sendgrid":
		emailProvider = mailer.NewSendGridProvider(cfg.SendGridAPIKey, cfg.EmailFrom)
	case "smtp":
		emailProvider = mailer.NewSMTPProvider(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFrom)
	default:
		log.Println("Using mock email provider; emails will be logged only")
		emailProvider = mailer.NewMockProvider()
	}

	// 6. Notifications (other services depend on the notifier)
	hub := notifications.NewHub()
	go hub.Run()

	prometheus.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "matcha_ws_active_connections",
		Help: "Users currently connected to the notification stream.",
	}, func() float64 { return float64(hub.ActiveConnections()) }))

	notificationRepo := notifications.NewPostgresRepository(db)
	notificationService := notifications.NewService(notificationRepo, hub)
	notificationHandler := notifications.NewHandler(notificationService, hub, cfg.JWTSecret)

	// 7. Matching
	matchingRepo := matching.NewPostgresRepository(db)
	matchingService := matching.NewService(matchingRepo, notificationService, &matching.Config{
		BrowsePageSize: cfg.BrowsePageSize,
	})
	matchingHandler := matching.NewHandler(matchingService)

	// 8. Profiles (fame recalculation delegates to the matching service)
	profileRepo := profile.NewPostgresRepository(db)
	profileService := profile.NewService(profileRepo, notificationService, matchingService, cfg.MaxPhotos)
	profileHandler := profile.NewHandler(profileService)

	// 9. Chat
	chatRepo := chat.NewPostgresRepository(db)
	chatService := chat.NewService(chatRepo, notificationService)
	chatHandler := chat.NewHandler(chatService)

	// 10. Auth
	authRepo := auth.NewPostgresRepository(db)
	authService := auth.NewService(authRepo, redisClient, emailProvider, &auth.Config{
		JWTSecret:           cfg.JWTSecret,
		AccessTokenExpiry:   cfg.AccessTokenExpiry,
		RefreshTokenExpiry:  cfg.RefreshTokenExpiry,
		BCryptCost:          cfg.BCryptCost,
		BaseURL:             cfg.BaseURL,
		LoginAttemptsMax:    cfg.LoginAttemptsMax,
		LoginAttemptsWindow: cfg.LoginAttemptsWindow,
	})
	authHandler := auth.NewHandler(authService)
	authMiddleware := auth.NewMiddleware(authService)

	// 11. Routes
	router := mux.NewRouter()
	router.Use(loggingMiddleware)
	router.Use(corsMiddleware)

	auth.RegisterRoutes(router, authHandler, authMiddleware)
	matching.RegisterRoutes(router, matchingHandler, authMiddleware)
	profile.RegisterRoutes(router, profileHandler, authMiddleware)
	chat.RegisterRoutes(router, chatHandler, authMiddleware)
	notifications.RegisterRoutes(router, notificationHandler, authMiddleware)

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(); err != nil {
			utils.ErrorResponse(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		utils.MessageResponse(w, "ok", http.StatusOK)
	}).Methods(http.MethodGet)

	// 12. Server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed: ", err)
		}
	}()

	// 13. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Forced shutdown: ", err)
	}
	log.Println("Server stopped")
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.RequestURI, time.Since(start))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
