package handler

import (
	"io"
	"log"
	"net/http"

	"github.com/fitcoach/backend/internal/service"
	"github.com/fitcoach/backend/pkg/billing"
)

// maxWebhookBody caps inbound webhook payloads. Stripe events are small;
// anything larger is hostile.
const maxWebhookBody = 1 << 16

// WebhookHandler receives billing provider webhooks.
type WebhookHandler struct {
	provider billing.Provider
	webhooks *service.WebhookService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(provider billing.Provider, webhooks *service.WebhookService) *WebhookHandler {
	return &WebhookHandler{provider: provider, webhooks: webhooks}
}

// HandleBilling handles POST /api/webhooks/billing.
//
// Verification failures return 400 so the provider retries with a valid
// signature. Processing failures return 200 anyway: the event ledger has not
// recorded the event, so the provider's scheduled redelivery will claim it,
// and a 5xx would only make the provider disable the endpoint over time.
func (h *WebhookHandler) HandleBilling(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	event, err := h.provider.VerifyWebhook(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		log.Printf("[Webhooks] Signature verification failed: %v", err)
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	if err := h.webhooks.Dispatch(r.Context(), event); err != nil {
		log.Printf("[Webhooks] Failed to process event %s (%s): %v", event.ID, event.Type, err)
	}

	w.WriteHeader(http.StatusOK)
}
