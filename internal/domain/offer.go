package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OfferStatus is the lifecycle state of a purchase offer.
type OfferStatus string

const (
	OfferPending    OfferStatus = "PENDING"
	OfferProcessing OfferStatus = "PROCESSING"
	OfferCompleted  OfferStatus = "COMPLETED"
	OfferCancelled  OfferStatus = "CANCELLED"
	OfferExpired    OfferStatus = "EXPIRED"
)

// Terminal reports whether no further transitions are allowed from the status.
// PENDING and PROCESSING may still expire or complete; everything else is final.
func (s OfferStatus) Terminal() bool {
	switch s {
	case OfferCompleted, OfferCancelled, OfferExpired:
		return true
	}
	return false
}

// PackageSummaryItem is one entry of an offer's bundled package summary.
type PackageSummaryItem struct {
	PackageID string `json:"packageId"`
	Quantity  int    `json:"quantity"`
	Name      string `json:"name"`
}

// Offer is a trainer-issued purchase proposal sent to a client by email.
// The client checks out via a tokenized link; the token travels through the
// payment provider as checkout-session metadata.
type Offer struct {
	ID          string               `json:"id"`
	Token       string               `json:"token"`
	TrainerID   string               `json:"trainerId"`
	ClientEmail string               `json:"clientEmail"`
	Status      OfferStatus          `json:"status"`
	Packages    []PackageSummaryItem `json:"packages"`
	ExpiresAt   time.Time            `json:"expiresAt"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`

	// Trainer is the issuing trainer's contact info, joined on lookup.
	Trainer TrainerContact `json:"trainer"`
}

// BundleDescription renders the package summary as a human-readable list,
// e.g. "2x Personal Training, 1x Meal Plan". An empty summary falls back to
// a generic label so notifications never render an empty bundle.
func (o *Offer) BundleDescription() string {
	if len(o.Packages) == 0 {
		return "Training package"
	}
	parts := make([]string, len(o.Packages))
	for i, item := range o.Packages {
		parts[i] = fmt.Sprintf("%dx %s", item.Quantity, item.Name)
	}
	return strings.Join(parts, ", ")
}

// CreateOfferRequest is the validated input for issuing an offer.
type CreateOfferRequest struct {
	ClientEmail string               `json:"clientEmail" validate:"required,email"`
	Packages    []PackageSummaryItem `json:"packages" validate:"required,min=1,dive"`
	ExpiresInH  int                  `json:"expiresInHours" validate:"omitempty,min=1,max=720"`
}

// NewOfferToken generates the public token embedded in checkout links.
func NewOfferToken() string {
	return uuid.New().String()
}
