package domain

import "time"

// DeliveryStatus is the lifecycle state of a service delivery.
type DeliveryStatus string

const (
	DeliveryPending    DeliveryStatus = "PENDING"
	DeliveryInProgress DeliveryStatus = "IN_PROGRESS"
	DeliveryCompleted  DeliveryStatus = "COMPLETED"
	DeliveryCancelled  DeliveryStatus = "CANCELLED"
	DeliveryRefunded   DeliveryStatus = "REFUNDED"
)

// ServiceDelivery is one unit of purchased service a trainer owes a client.
// A bundle purchase produces several deliveries sharing one payment intent,
// which is how refund events find them again.
type ServiceDelivery struct {
	ID              string         `json:"id"`
	TrainerID       string         `json:"trainerId"`
	ClientName      string         `json:"clientName"`
	PackageName     string         `json:"packageName"`
	PaymentIntentID string         `json:"paymentIntentId"`
	Status          DeliveryStatus `json:"status"`
	RefundedAt      *time.Time     `json:"refundedAt,omitempty"`
	RefundReason    *string        `json:"refundReason,omitempty"`
	DueDate         *time.Time     `json:"dueDate,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`

	// Trainer contact info, joined on lookup for refund notifications.
	Trainer TrainerContact `json:"trainer"`
}
