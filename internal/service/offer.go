package service

import (
	"context"
	"log"
	"time"

	"github.com/fitcoach/backend/internal/domain"
	"github.com/fitcoach/backend/pkg/billing"
	"github.com/fitcoach/backend/pkg/mail"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// defaultOfferTTL is how long an offer stays purchasable when the trainer
// does not pick an expiry.
const defaultOfferTTL = 72 * time.Hour

type offerStore interface {
	Create(ctx context.Context, o *domain.Offer) error
	FindByToken(ctx context.Context, token string) (*domain.Offer, error)
	UpdateStatus(ctx context.Context, id string, status domain.OfferStatus) error
}

type deliveryWriter interface {
	Create(ctx context.Context, d *domain.ServiceDelivery) error
}

type packageResolver interface {
	FindByID(ctx context.Context, id string) (*domain.PackageTemplate, error)
}

// OfferService manages trainer purchase offers: issuing them, converting
// them to provider checkout sessions, and reconciling the checkout webhooks.
type OfferService struct {
	offers     offerStore
	deliveries deliveryWriter
	templates  packageResolver
	provider   billing.Provider
	mailer     mail.Mailer
	validate   *validator.Validate
	successURL string
	cancelURL  string
}

// NewOfferService creates a new OfferService.
func NewOfferService(offers offerStore, deliveries deliveryWriter, templates packageResolver, provider billing.Provider, mailer mail.Mailer, successURL, cancelURL string) *OfferService {
	return &OfferService{
		offers:     offers,
		deliveries: deliveries,
		templates:  templates,
		provider:   provider,
		mailer:     mailer,
		validate:   validator.New(),
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

// CreateOffer issues a new PENDING offer from a trainer to a client.
func (s *OfferService) CreateOffer(ctx context.Context, trainerID string, req *domain.CreateOfferRequest) (*domain.Offer, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	ttl := defaultOfferTTL
	if req.ExpiresInH > 0 {
		ttl = time.Duration(req.ExpiresInH) * time.Hour
	}

	now := time.Now()
	offer := &domain.Offer{
		ID:          uuid.New().String(),
		Token:       domain.NewOfferToken(),
		TrainerID:   trainerID,
		ClientEmail: req.ClientEmail,
		Status:      domain.OfferPending,
		Packages:    req.Packages,
		ExpiresAt:   now.Add(ttl),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.offers.Create(ctx, offer); err != nil {
		return nil, domain.ErrInternal("failed to create offer", err)
	}
	return offer, nil
}

// CreateCheckout creates a provider checkout session for an offer and moves
// it to PROCESSING. A PROCESSING offer may retry checkout (abandoned session);
// terminal offers are rejected.
func (s *OfferService) CreateCheckout(ctx context.Context, token string) (*billing.CheckoutSession, error) {
	offer, err := s.offers.FindByToken(ctx, token)
	if err != nil {
		return nil, domain.ErrInternal("failed to look up offer", err)
	}
	if offer == nil {
		return nil, domain.ErrNotFound("offer not found")
	}
	if offer.Status.Terminal() {
		return nil, domain.ErrConflict("offer is no longer available")
	}

	lineItems := make([]billing.CheckoutLineItem, 0, len(offer.Packages))
	for _, item := range offer.Packages {
		tmpl, err := s.templates.FindByID(ctx, item.PackageID)
		if err != nil {
			return nil, domain.ErrInternal("failed to resolve package", err)
		}
		if tmpl == nil {
			return nil, domain.ErrBadRequest("offer references an unknown package")
		}
		lineItems = append(lineItems, billing.CheckoutLineItem{
			Name:      item.Name,
			Quantity:  int64(item.Quantity),
			UnitCents: tmpl.PriceCents,
			Currency:  tmpl.Currency,
		})
	}

	session, err := s.provider.CreateCheckoutSession(ctx, billing.CheckoutParams{
		CustomerEmail: offer.ClientEmail,
		LineItems:     lineItems,
		Metadata:      map[string]string{billing.MetaOfferToken: offer.Token},
		ExpiresAt:     offer.ExpiresAt,
		SuccessURL:    s.successURL,
		CancelURL:     s.cancelURL,
	})
	if err != nil {
		return nil, domain.ErrInternal("failed to create checkout session", err)
	}

	if err := s.offers.UpdateStatus(ctx, offer.ID, domain.OfferProcessing); err != nil {
		return nil, domain.ErrInternal("failed to update offer status", err)
	}
	return session, nil
}

// HandleCheckoutExpired reconciles a checkout.session.expired event: the
// offer transitions to EXPIRED and the trainer is notified. The handler
// always resolves successfully — an expiration that cannot be recorded is
// not fixed by webhook redelivery, and duplicate or late events short-circuit
// on terminal status.
func (s *OfferService) HandleCheckoutExpired(ctx context.Context, ev CheckoutSessionEvent) error {
	token := ev.Metadata[billing.MetaOfferToken]
	if token == "" {
		return nil // foreign checkout session, nothing to reconcile
	}

	offer, err := s.offers.FindByToken(ctx, token)
	if err != nil {
		log.Printf("[Offers] Failed to look up offer for expired session %s: %v", ev.ID, err)
		return nil
	}
	if offer == nil {
		return nil // already resolved or foreign offer
	}
	if offer.Status.Terminal() {
		return nil
	}

	if err := s.offers.UpdateStatus(ctx, offer.ID, domain.OfferExpired); err != nil {
		log.Printf("[Offers] Failed to expire offer %s: %v", offer.ID, err)
		return nil
	}
	log.Printf("[Offers] Offer %s expired (session %s)", offer.ID, ev.ID)

	if offer.Trainer.Email == "" {
		return nil
	}
	err = s.mailer.OfferExpired(offer.Trainer.Email, mail.OfferExpiredEmail{
		TrainerName: offer.Trainer.DisplayName(),
		ClientEmail: offer.ClientEmail,
		Bundle:      offer.BundleDescription(),
		ExpiresAt:   offer.ExpiresAt.Format("January 2, 2006"),
	})
	if err != nil {
		log.Printf("[Offers] Failed to send expiration notice for offer %s: %v", offer.ID, err)
	}
	return nil
}

// HandleCheckoutCompleted reconciles a checkout.session.completed event:
// the offer transitions to COMPLETED and one service delivery is created per
// purchased package unit, all linked to the session's payment intent.
func (s *OfferService) HandleCheckoutCompleted(ctx context.Context, ev CheckoutSessionEvent) error {
	token := ev.Metadata[billing.MetaOfferToken]
	if token == "" {
		return nil
	}

	offer, err := s.offers.FindByToken(ctx, token)
	if err != nil {
		log.Printf("[Offers] Failed to look up offer for completed session %s: %v", ev.ID, err)
		return nil
	}
	if offer == nil || offer.Status == domain.OfferCompleted {
		return nil // unknown or already completed (duplicate delivery)
	}

	if err := s.offers.UpdateStatus(ctx, offer.ID, domain.OfferCompleted); err != nil {
		log.Printf("[Offers] Failed to complete offer %s: %v", offer.ID, err)
		return nil
	}

	paymentIntentID := extractID(ev.PaymentIntent)
	now := time.Now()
	for _, item := range offer.Packages {
		for i := 0; i < item.Quantity; i++ {
			delivery := &domain.ServiceDelivery{
				ID:              uuid.New().String(),
				TrainerID:       offer.TrainerID,
				ClientName:      offer.ClientEmail,
				PackageName:     item.Name,
				PaymentIntentID: paymentIntentID,
				Status:          domain.DeliveryPending,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if err := s.deliveries.Create(ctx, delivery); err != nil {
				log.Printf("[Offers] Failed to create delivery for offer %s (%s): %v", offer.ID, item.Name, err)
			}
		}
	}
	log.Printf("[Offers] Offer %s completed (session %s)", offer.ID, ev.ID)
	return nil
}
