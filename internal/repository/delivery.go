package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/fitcoach/backend/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DeliveryRepository handles database operations for service deliveries.
type DeliveryRepository struct {
	db *pgxpool.Pool
}

// NewDeliveryRepository creates a new DeliveryRepository.
func NewDeliveryRepository(db *pgxpool.Pool) *DeliveryRepository {
	return &DeliveryRepository{db: db}
}

// Create inserts a new service delivery.
func (r *DeliveryRepository) Create(ctx context.Context, d *domain.ServiceDelivery) error {
	query := `
		INSERT INTO service_deliveries
			(id, trainer_id, client_name, package_name, payment_intent_id, status, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		d.ID, d.TrainerID, d.ClientName, d.PackageName, d.PaymentIntentID,
		d.Status, d.DueDate, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create service delivery: %w", err)
	}
	return nil
}

// FindByPaymentIntent returns all deliveries linked to a payment intent,
// with trainer contact info joined for refund notifications. A bundle
// purchase yields several rows sharing one intent.
func (r *DeliveryRepository) FindByPaymentIntent(ctx context.Context, paymentIntentID string) ([]*domain.ServiceDelivery, error) {
	query := `
		SELECT d.id, d.trainer_id, d.client_name, d.package_name, d.payment_intent_id,
		       d.status, d.refunded_at, d.refund_reason, d.due_date, d.created_at, d.updated_at,
		       COALESCE(u.id, ''), COALESCE(u.email, ''), COALESCE(u.first_name, ''), COALESCE(u.full_name, '')
		FROM service_deliveries d
		LEFT JOIN users u ON u.id = d.trainer_id
		WHERE d.payment_intent_id = $1
		ORDER BY d.created_at
	`
	rows, err := r.db.Query(ctx, query, paymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query service deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []*domain.ServiceDelivery
	for rows.Next() {
		var d domain.ServiceDelivery
		if err := rows.Scan(
			&d.ID, &d.TrainerID, &d.ClientName, &d.PackageName, &d.PaymentIntentID,
			&d.Status, &d.RefundedAt, &d.RefundReason, &d.DueDate, &d.CreatedAt, &d.UpdatedAt,
			&d.Trainer.ID, &d.Trainer.Email, &d.Trainer.FirstName, &d.Trainer.FullName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan service delivery: %w", err)
		}
		deliveries = append(deliveries, &d)
	}
	return deliveries, rows.Err()
}

// MarkRefunded records the refund timestamp and reason on one delivery.
func (r *DeliveryRepository) MarkRefunded(ctx context.Context, id string, refundedAt time.Time, reason string) error {
	_, err := r.db.Exec(ctx,
		"UPDATE service_deliveries SET status = 'REFUNDED', refunded_at = $1, refund_reason = $2, updated_at = NOW() WHERE id = $3",
		refundedAt, reason, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark delivery refunded: %w", err)
	}
	return nil
}
