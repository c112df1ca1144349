package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fitcoach/backend/internal/config"
	"github.com/fitcoach/backend/internal/handler"
	appMiddleware "github.com/fitcoach/backend/internal/middleware"
	"github.com/fitcoach/backend/internal/repository"
	"github.com/fitcoach/backend/internal/service"
	"github.com/fitcoach/backend/pkg/billing"
	"github.com/fitcoach/backend/pkg/mail"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Config error: %v", err)
	}

	ctx := context.Background()

	// Initialize database
	db, err := repository.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Database error: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := repository.RunMigrations(ctx, db); err != nil {
		log.Fatalf("❌ Migration error: %v", err)
	}
	log.Println("✅ Database connected & migrated")

	// Billing provider
	provider, err := billing.NewStripeProvider(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	if err != nil {
		log.Fatalf("❌ Billing error: %v", err)
	}
	log.Println("✅ Billing provider initialized")

	mailer := mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	offerRepo := repository.NewOfferRepository(db)
	deliveryRepo := repository.NewDeliveryRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	eventRepo := repository.NewWebhookEventRepository(db)

	// Services
	authSvc := service.NewAuthService(cfg.JWTSecret, cfg.AdminEmail, cfg.AdminPassword, userRepo)

	// Seed admin user on first startup
	if err := authSvc.SeedAdmin(ctx); err != nil {
		log.Fatalf("❌ Admin seed error: %v", err)
	}

	offerSvc := service.NewOfferService(offerRepo, deliveryRepo, templateRepo, provider, mailer, cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL)
	refundSvc := service.NewRefundService(deliveryRepo, mailer)
	subSvc := service.NewSubscriptionService(subRepo, templateRepo, userRepo, provider)
	webhookSvc := service.NewWebhookService(eventRepo, offerSvc, refundSvc, subSvc)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	healthHandler := handler.NewHealthHandler(db)
	userHandler := handler.NewUserHandler(authSvc)
	plansHandler := handler.NewPlansHandler()
	offerHandler := handler.NewOfferHandler(offerSvc)
	subHandler := handler.NewSubscriptionHandler(subSvc)
	webhookHandler := handler.NewWebhookHandler(provider, webhookSvc)
	adminHandler := handler.NewAdminHandler(db, authSvc)

	// Build router
	r := chi.NewRouter()

	// Global middleware
	r.Use(appMiddleware.Recovery)
	r.Use(appMiddleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Stripe-Signature"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Global rate limiter (20 req/sec per IP, burst of 40)
	globalRL := appMiddleware.NewRateLimiter(20, 40)
	r.Use(globalRL.Middleware())

	// Health check and public routes (no auth)
	r.Get("/health", healthHandler.Check)
	r.Get("/api/plans", plansHandler.List)
	r.Post("/api/webhooks/billing", webhookHandler.HandleBilling)
	r.Post("/api/offers/{token}/checkout", offerHandler.Checkout)

	// Auth routes
	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.StrictRateLimiter())
		r.Post("/api/auth/login", authHandler.Login)
	})

	// Protected API routes
	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.Auth(authSvc))

		// Auth
		r.Get("/api/auth/me", authHandler.Me)

		// Trainer routes
		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.TrainerOnly)
			r.Post("/api/offers", offerHandler.Create)
			r.Get("/api/clients/{clientId}/subscription", subHandler.Get)
			r.Post("/api/clients/{clientId}/subscription/pause", subHandler.Pause)
			r.Post("/api/clients/{clientId}/subscription/resume", subHandler.Resume)
		})

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.AdminOnly)
			r.Get("/api/admin/stats", adminHandler.GetStats)
			r.Get("/api/admin/users", adminHandler.ListUsers)
			r.Get("/api/users", userHandler.List)
			r.Post("/api/users", userHandler.Create)
			r.Delete("/api/users/{id}", userHandler.Delete)
		})
	})

	// Start server
	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Println("🛑 Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("🚀 FitCoach Backend (Go) listening at http://%s", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("❌ Server error: %v", err)
	}
}
