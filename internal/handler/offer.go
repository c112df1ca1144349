package handler

import (
	"net/http"

	"github.com/fitcoach/backend/internal/contextkeys"
	"github.com/fitcoach/backend/internal/domain"
	"github.com/fitcoach/backend/internal/service"
	"github.com/go-chi/chi/v5"
)

// OfferHandler handles trainer purchase offers and their public checkout.
type OfferHandler struct {
	svc *service.OfferService
}

// NewOfferHandler creates a new OfferHandler.
func NewOfferHandler(svc *service.OfferService) *OfferHandler {
	return &OfferHandler{svc: svc}
}

// Create handles POST /api/offers (trainer only, gated in router).
func (h *OfferHandler) Create(w http.ResponseWriter, r *http.Request) {
	trainerID, ok := r.Context().Value(contextkeys.UserID).(string)
	if !ok || trainerID == "" {
		JSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req domain.CreateOfferRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	offer, err := h.svc.CreateOffer(r.Context(), trainerID, &req)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusCreated, offer)
}

// Checkout handles POST /api/offers/{token}/checkout. The route is public:
// the token is the credential the client received by email.
func (h *OfferHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.CreateCheckout(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"checkoutUrl": session.URL})
}
