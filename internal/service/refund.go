package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/fitcoach/backend/internal/domain"
	"github.com/fitcoach/backend/pkg/mail"
)

type refundDeliveryStore interface {
	FindByPaymentIntent(ctx context.Context, paymentIntentID string) ([]*domain.ServiceDelivery, error)
	MarkRefunded(ctx context.Context, id string, refundedAt time.Time, reason string) error
}

// RefundService reconciles charge.refunded events against local service
// deliveries.
type RefundService struct {
	deliveries refundDeliveryStore
	mailer     mail.Mailer
}

// NewRefundService creates a new RefundService.
func NewRefundService(deliveries refundDeliveryStore, mailer mail.Mailer) *RefundService {
	return &RefundService{deliveries: deliveries, mailer: mailer}
}

// HandleChargeRefunded marks every delivery linked to the refunded charge's
// payment intent and notifies the trainer per delivery. Each delivery is
// updated independently: one failure never blocks the others, trading
// atomicity for availability. The handler always resolves successfully.
func (s *RefundService) HandleChargeRefunded(ctx context.Context, ev ChargeRefundedEvent) error {
	paymentIntentID := extractID(ev.PaymentIntent)
	if paymentIntentID == "" {
		return nil // nothing to match against
	}

	deliveries, err := s.deliveries.FindByPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		log.Printf("[Refunds] Failed to query deliveries for %s: %v", paymentIntentID, err)
		return nil
	}
	if len(deliveries) == 0 {
		log.Printf("[Refunds] No deliveries match payment intent %s", paymentIntentID)
		return nil
	}

	reason := ev.RefundReason()
	amount := fmt.Sprintf("%.2f", float64(ev.AmountRefunded)/100)
	currency := strings.ToUpper(ev.Currency)
	now := time.Now()

	for _, d := range deliveries {
		if err := s.deliveries.MarkRefunded(ctx, d.ID, now, reason); err != nil {
			log.Printf("[Refunds] Failed to mark delivery %s refunded: %v", d.ID, err)
			continue
		}

		if d.Trainer.Email == "" {
			continue
		}
		clientName := d.ClientName
		if clientName == "" {
			clientName = "Client"
		}
		err := s.mailer.RefundNotification(d.Trainer.Email, mail.RefundEmail{
			TrainerName:  d.Trainer.DisplayName(),
			ClientName:   clientName,
			PackageName:  d.PackageName,
			RefundAmount: amount,
			Currency:     currency,
			RefundReason: humanizeReason(reason),
		})
		if err != nil {
			log.Printf("[Refunds] Failed to send refund notice for delivery %s: %v", d.ID, err)
		}
	}
	return nil
}

// humanizeReason turns a provider refund reason code into display text,
// e.g. "requested_by_customer" becomes "Requested by customer".
func humanizeReason(reason string) string {
	text := strings.ReplaceAll(reason, "_", " ")
	if text == "" {
		return text
	}
	return strings.ToUpper(text[:1]) + text[1:]
}
