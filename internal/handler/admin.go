package handler

import (
	"log"
	"net/http"

	"github.com/fitcoach/backend/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AdminHandler struct {
	db      *pgxpool.Pool
	authSvc *service.AuthService
}

func NewAdminHandler(db *pgxpool.Pool, authSvc *service.AuthService) *AdminHandler {
	return &AdminHandler{db: db, authSvc: authSvc}
}

// GetStats returns system-wide metrics.
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	// Simple count queries
	var usersCount, offersCount, deliveriesCount, subCount int

	if err := h.db.QueryRow(r.Context(), "SELECT COUNT(*) FROM users").Scan(&usersCount); err != nil {
		log.Printf("Failed to count users: %v", err)
	}
	if err := h.db.QueryRow(r.Context(), "SELECT COUNT(*) FROM offers WHERE status NOT IN ('CANCELLED', 'EXPIRED')").Scan(&offersCount); err != nil {
		log.Printf("Failed to count offers: %v", err)
	}
	if err := h.db.QueryRow(r.Context(), "SELECT COUNT(*) FROM service_deliveries WHERE status <> 'REFUNDED'").Scan(&deliveriesCount); err != nil {
		log.Printf("Failed to count deliveries: %v", err)
	}
	if err := h.db.QueryRow(r.Context(), "SELECT COUNT(*) FROM user_subscriptions WHERE status = 'ACTIVE'").Scan(&subCount); err != nil {
		log.Printf("Failed to count subscriptions: %v", err)
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"users":         usersCount,
		"openOffers":    offersCount,
		"deliveries":    deliveriesCount,
		"subscriptions": subCount,
	})
}

// ListUsers returns all users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.authSvc.ListUsers(r.Context())
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, users)
}
