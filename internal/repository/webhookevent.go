package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// WebhookEventRepository is the idempotency ledger for processed webhook
// events. An event id is recorded only after its handler ran to completion,
// so a failed event stays eligible for the provider's redelivery.
type WebhookEventRepository struct {
	db *pgxpool.Pool
}

// NewWebhookEventRepository creates a new WebhookEventRepository.
func NewWebhookEventRepository(db *pgxpool.Pool) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

// Seen reports whether an event id has already been processed.
func (r *WebhookEventRepository) Seen(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM webhook_events WHERE event_id = $1)", eventID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check webhook event: %w", err)
	}
	return exists, nil
}

// MarkProcessed records an event id as fully processed. Duplicate marks are
// harmless (a concurrent redelivery may have won the race).
func (r *WebhookEventRepository) MarkProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := r.db.Exec(ctx,
		"INSERT INTO webhook_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType,
	)
	if err != nil {
		return fmt.Errorf("failed to mark webhook event processed: %w", err)
	}
	return nil
}
