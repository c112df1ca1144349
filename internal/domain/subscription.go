package domain

import "time"

// SubscriptionStatus is the local lifecycle state mirroring the remote
// billing subscription. Rows are retired (CANCELLED/EXPIRED), never deleted.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "ACTIVE"
	SubscriptionPending   SubscriptionStatus = "PENDING"
	SubscriptionCancelled SubscriptionStatus = "CANCELLED"
	SubscriptionExpired   SubscriptionStatus = "EXPIRED"
)

// UserSubscription is the local mirror of a remote billing subscription.
// Remote pause state is never cached here; it is read fresh from the
// provider on every pause/resume decision.
type UserSubscription struct {
	ID          string             `json:"id"`
	UserID      string             `json:"userId"`
	RemoteID    string             `json:"remoteId"`
	Status      SubscriptionStatus `json:"status"`
	PackageID   string             `json:"packageId"`
	LookupKey   string             `json:"lookupKey"`
	TrainerID   *string            `json:"trainerId,omitempty"`
	PeriodStart time.Time          `json:"periodStart"`
	PeriodEnd   time.Time          `json:"periodEnd"`
	Trial       bool               `json:"trial"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// Coaching reports whether the subscription is on a coaching-tier plan.
func (s *UserSubscription) Coaching() bool {
	return TierForLookupKey(s.LookupKey) == TierCoaching
}

// PackageTemplate is a purchasable plan definition. The lookup key is the
// provider-side stable identifier for the price tier; trainer-specific
// coaching packages carry the issuing trainer's id.
type PackageTemplate struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	LookupKey  string    `json:"lookupKey"`
	Tier       Tier      `json:"tier"`
	TrainerID  *string   `json:"trainerId,omitempty"`
	PriceCents int64     `json:"priceCents"`
	Currency   string    `json:"currency"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ClientSubscriptionResponse is the trainer-facing view of a client's
// coaching subscription, including live remote pause state.
type ClientSubscriptionResponse struct {
	Subscription *UserSubscription `json:"subscription"`
	Paused       bool              `json:"paused"`
	PauseReason  string            `json:"pauseReason,omitempty"`
}

// PauseActionResponse is returned by the manual pause/resume operations.
type PauseActionResponse struct {
	Success bool `json:"success"`
}
