package service

import (
	"context"
	"encoding/json"
	"log"

	"github.com/fitcoach/backend/pkg/billing"
)

type eventLedger interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID, eventType string) error
}

type checkoutEventHandler interface {
	HandleCheckoutExpired(ctx context.Context, ev CheckoutSessionEvent) error
	HandleCheckoutCompleted(ctx context.Context, ev CheckoutSessionEvent) error
}

type refundEventHandler interface {
	HandleChargeRefunded(ctx context.Context, ev ChargeRefundedEvent) error
}

type subscriptionEventHandler interface {
	HandleSubscriptionCreated(ctx context.Context, ev SubscriptionEvent) error
	HandleSubscriptionUpdated(ctx context.Context, ev SubscriptionEvent) error
	HandleSubscriptionDeleted(ctx context.Context, ev SubscriptionEvent) error
	HandleInvoicePaymentSucceeded(ctx context.Context, ev InvoiceEvent) error
}

// WebhookService routes verified billing events to their handlers exactly
// once. An event is recorded as processed only after its handler returns
// without error, so a failed event stays claimable when the provider
// redelivers it.
type WebhookService struct {
	ledger        eventLedger
	checkouts     checkoutEventHandler
	refunds       refundEventHandler
	subscriptions subscriptionEventHandler
}

// NewWebhookService creates a new WebhookService.
func NewWebhookService(ledger eventLedger, checkouts checkoutEventHandler, refunds refundEventHandler, subscriptions subscriptionEventHandler) *WebhookService {
	return &WebhookService{
		ledger:        ledger,
		checkouts:     checkouts,
		refunds:       refunds,
		subscriptions: subscriptions,
	}
}

// Dispatch processes one verified event. Unknown event types are
// acknowledged without processing; duplicates are acknowledged without
// re-running the handler.
func (s *WebhookService) Dispatch(ctx context.Context, ev billing.Event) error {
	seen, err := s.ledger.Seen(ctx, ev.ID)
	if err != nil {
		log.Printf("[Webhooks] Failed to check event %s: %v", ev.ID, err)
		return err
	}
	if seen {
		log.Printf("[Webhooks] Skipping duplicate event %s (%s)", ev.ID, ev.Type)
		return nil
	}

	if err := s.route(ctx, ev); err != nil {
		return err
	}

	if err := s.ledger.MarkProcessed(ctx, ev.ID, ev.Type); err != nil {
		// The handler already ran; a redelivery will be routed again, which
		// every handler tolerates.
		log.Printf("[Webhooks] Failed to record event %s as processed: %v", ev.ID, err)
	}
	return nil
}

func (s *WebhookService) route(ctx context.Context, ev billing.Event) error {
	switch ev.Type {
	case billing.EventCheckoutExpired:
		var session CheckoutSessionEvent
		if err := json.Unmarshal(ev.Object, &session); err != nil {
			log.Printf("[Webhooks] Failed to decode %s payload of %s: %v", ev.Type, ev.ID, err)
			return nil
		}
		return s.checkouts.HandleCheckoutExpired(ctx, session)

	case billing.EventCheckoutCompleted:
		var session CheckoutSessionEvent
		if err := json.Unmarshal(ev.Object, &session); err != nil {
			log.Printf("[Webhooks] Failed to decode %s payload of %s: %v", ev.Type, ev.ID, err)
			return nil
		}
		return s.checkouts.HandleCheckoutCompleted(ctx, session)

	case billing.EventChargeRefunded:
		var charge ChargeRefundedEvent
		if err := json.Unmarshal(ev.Object, &charge); err != nil {
			log.Printf("[Webhooks] Failed to decode %s payload of %s: %v", ev.Type, ev.ID, err)
			return nil
		}
		return s.refunds.HandleChargeRefunded(ctx, charge)

	case billing.EventSubscriptionCreated, billing.EventSubscriptionUpdated, billing.EventSubscriptionDeleted:
		var sub SubscriptionEvent
		if err := json.Unmarshal(ev.Object, &sub); err != nil {
			log.Printf("[Webhooks] Failed to decode %s payload of %s: %v", ev.Type, ev.ID, err)
			return nil
		}
		switch ev.Type {
		case billing.EventSubscriptionCreated:
			return s.subscriptions.HandleSubscriptionCreated(ctx, sub)
		case billing.EventSubscriptionUpdated:
			return s.subscriptions.HandleSubscriptionUpdated(ctx, sub)
		default:
			return s.subscriptions.HandleSubscriptionDeleted(ctx, sub)
		}

	case billing.EventInvoicePaymentSucceeded:
		var invoice InvoiceEvent
		if err := json.Unmarshal(ev.Object, &invoice); err != nil {
			log.Printf("[Webhooks] Failed to decode %s payload of %s: %v", ev.Type, ev.ID, err)
			return nil
		}
		return s.subscriptions.HandleInvoicePaymentSucceeded(ctx, invoice)

	default:
		log.Printf("[Webhooks] Ignoring unhandled event type %s (%s)", ev.Type, ev.ID)
		return nil
	}
}
