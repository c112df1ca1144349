package billing

import (
	"context"
	"encoding/json"
	"time"
)

// Webhook event types consumed by the reconciliation core.
const (
	EventCheckoutExpired         = "checkout.session.expired"
	EventCheckoutCompleted       = "checkout.session.completed"
	EventChargeRefunded          = "charge.refunded"
	EventSubscriptionCreated     = "customer.subscription.created"
	EventSubscriptionUpdated     = "customer.subscription.updated"
	EventSubscriptionDeleted     = "customer.subscription.deleted"
	EventInvoicePaymentSucceeded = "invoice.payment_succeeded"
)

// Pause collection behaviors. The automatic coaching pause voids invoices
// entirely; a trainer-initiated pause keeps accruing but does not collect.
const (
	PauseBehaviorVoid              = "void"
	PauseBehaviorMarkUncollectible = "mark_uncollectible"
)

// Remote subscription metadata keys. These flags live only in the provider
// and are the source of truth for why a subscription is paused.
const (
	MetaPausedForCoaching       = "pausedForCoaching"
	MetaManuallyPausedByTrainer = "manuallyPausedByTrainer"
	MetaResumedAt               = "resumedAt"
	MetaLastCoachingPayment     = "lastCoachingPayment"
	MetaTrainerID               = "trainerId"
	MetaUserID                  = "userId"
	MetaOfferToken              = "offerToken"
)

// Event is a verified webhook event envelope. The payload object is kept raw;
// each handler decodes only the fields it needs.
type Event struct {
	ID      string
	Type    string
	Created time.Time
	Object  json.RawMessage
}

// PauseReason is the tagged interpretation of a remote subscription's pause
// state. System and trainer pauses must never be conflated: only the path
// that set a pause may clear it.
type PauseReason int

const (
	// PauseNone means collection is not paused.
	PauseNone PauseReason = iota
	// PauseSystemCoaching means the pause was applied automatically while an
	// overlapping coaching subscription is active.
	PauseSystemCoaching
	// PauseManualTrainer means a trainer paused the client's billing.
	PauseManualTrainer
	// PauseUnknown means collection is paused but neither flag is set
	// (e.g. paused directly in the provider dashboard).
	PauseUnknown
)

func (r PauseReason) String() string {
	switch r {
	case PauseNone:
		return "none"
	case PauseSystemCoaching:
		return "systemCoaching"
	case PauseManualTrainer:
		return "manualTrainer"
	}
	return "unknown"
}

// RemoteSubscription is the provider-side subscription state, read fresh on
// every pause/resume decision.
type RemoteSubscription struct {
	ID            string
	Status        string
	CustomerID    string
	PriceID       string
	LookupKey     string
	Metadata      map[string]string
	PauseBehavior string // empty when collection is not paused
	PeriodStart   time.Time
	PeriodEnd     time.Time
	TrialEnd      *time.Time
}

// Paused reports whether collection is currently paused remotely.
func (s *RemoteSubscription) Paused() bool {
	return s.PauseBehavior != ""
}

// PauseReason classifies the current pause by its metadata flags.
func (s *RemoteSubscription) PauseReason() PauseReason {
	if !s.Paused() {
		return PauseNone
	}
	if s.Metadata[MetaPausedForCoaching] == "true" {
		return PauseSystemCoaching
	}
	if s.Metadata[MetaManuallyPausedByTrainer] == "true" {
		return PauseManualTrainer
	}
	return PauseUnknown
}

// Price is a provider price resolved by lookup key.
type Price struct {
	ID        string
	LookupKey string
	Currency  string
	UnitCents int64
}

// CheckoutLineItem is one purchasable item in a checkout session.
type CheckoutLineItem struct {
	Name      string
	Quantity  int64
	UnitCents int64
	Currency  string
}

// CheckoutParams describes a checkout session to create.
type CheckoutParams struct {
	CustomerEmail string
	LineItems     []CheckoutLineItem
	Metadata      map[string]string
	ExpiresAt     time.Time
	SuccessURL    string
	CancelURL     string
}

// CheckoutSession is the created provider checkout session.
type CheckoutSession struct {
	ID  string
	URL string
}

// Provider is the billing provider boundary. Metadata maps passed to update
// calls follow provider semantics: an empty string value clears the key.
type Provider interface {
	// VerifyWebhook checks the event signature and returns the envelope.
	VerifyWebhook(payload []byte, signature string) (Event, error)

	// GetSubscription retrieves the current remote subscription state.
	GetSubscription(ctx context.Context, id string) (*RemoteSubscription, error)

	// PauseSubscription sets pause_collection with the given behavior and
	// applies the metadata in the same call.
	PauseSubscription(ctx context.Context, id, behavior string, metadata map[string]string) (*RemoteSubscription, error)

	// ResumeSubscription clears pause_collection and applies the metadata.
	ResumeSubscription(ctx context.Context, id string, metadata map[string]string) (*RemoteSubscription, error)

	// UpdateSubscriptionMetadata applies metadata without touching pause state.
	UpdateSubscriptionMetadata(ctx context.Context, id string, metadata map[string]string) error

	// FindPriceByLookupKey resolves a price by its stable lookup key.
	FindPriceByLookupKey(ctx context.Context, key string) (*Price, error)

	// UpdateCustomerMetadata applies metadata to a remote customer.
	UpdateCustomerMetadata(ctx context.Context, id string, metadata map[string]string) error

	// CreateCheckoutSession creates a hosted checkout session.
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
}
