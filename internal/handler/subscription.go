package handler

import (
	"net/http"

	"github.com/fitcoach/backend/internal/contextkeys"
	"github.com/fitcoach/backend/internal/service"
	"github.com/go-chi/chi/v5"
)

// SubscriptionHandler exposes the trainer-facing subscription endpoints.
type SubscriptionHandler struct {
	svc *service.SubscriptionService
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(svc *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{svc: svc}
}

func trainerFromContext(r *http.Request) (string, bool) {
	id, ok := r.Context().Value(contextkeys.UserID).(string)
	return id, ok && id != ""
}

// Get handles GET /api/clients/{clientId}/subscription.
func (h *SubscriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	trainerID, ok := trainerFromContext(r)
	if !ok {
		JSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	resp, err := h.svc.GetClientSubscription(r.Context(), trainerID, chi.URLParam(r, "clientId"))
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, resp)
}

// Pause handles POST /api/clients/{clientId}/subscription/pause.
func (h *SubscriptionHandler) Pause(w http.ResponseWriter, r *http.Request) {
	trainerID, ok := trainerFromContext(r)
	if !ok {
		JSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	resp, err := h.svc.PauseClientCoaching(r.Context(), trainerID, chi.URLParam(r, "clientId"))
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, resp)
}

// Resume handles POST /api/clients/{clientId}/subscription/resume.
func (h *SubscriptionHandler) Resume(w http.ResponseWriter, r *http.Request) {
	trainerID, ok := trainerFromContext(r)
	if !ok {
		JSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	resp, err := h.svc.ResumeClientCoaching(r.Context(), trainerID, chi.URLParam(r, "clientId"))
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, resp)
}
