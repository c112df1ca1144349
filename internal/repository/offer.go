package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fitcoach/backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OfferRepository handles database operations for purchase offers.
type OfferRepository struct {
	db *pgxpool.Pool
}

// NewOfferRepository creates a new OfferRepository.
func NewOfferRepository(db *pgxpool.Pool) *OfferRepository {
	return &OfferRepository{db: db}
}

// Create inserts a new offer.
func (r *OfferRepository) Create(ctx context.Context, o *domain.Offer) error {
	packages, err := json.Marshal(o.Packages)
	if err != nil {
		return fmt.Errorf("failed to marshal offer packages: %w", err)
	}

	query := `
		INSERT INTO offers (id, token, trainer_id, client_email, status, packages, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.db.Exec(ctx, query,
		o.ID, o.Token, o.TrainerID, o.ClientEmail, o.Status, packages,
		o.ExpiresAt, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create offer: %w", err)
	}
	return nil
}

// FindByToken returns an offer by its public token, with the issuing
// trainer's contact info joined in. Returns (nil, nil) when no offer matches.
func (r *OfferRepository) FindByToken(ctx context.Context, token string) (*domain.Offer, error) {
	query := `
		SELECT o.id, o.token, o.trainer_id, o.client_email, o.status, o.packages,
		       o.expires_at, o.created_at, o.updated_at,
		       u.id, COALESCE(u.email, ''), COALESCE(u.first_name, ''), COALESCE(u.full_name, '')
		FROM offers o
		LEFT JOIN users u ON u.id = o.trainer_id
		WHERE o.token = $1
	`
	row := r.db.QueryRow(ctx, query, token)

	var o domain.Offer
	var packages []byte
	var trainerID *string
	err := row.Scan(
		&o.ID, &o.Token, &o.TrainerID, &o.ClientEmail, &o.Status, &packages,
		&o.ExpiresAt, &o.CreatedAt, &o.UpdatedAt,
		&trainerID, &o.Trainer.Email, &o.Trainer.FirstName, &o.Trainer.FullName,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find offer: %w", err)
	}
	if trainerID != nil {
		o.Trainer.ID = *trainerID
	}
	if len(packages) > 0 {
		if err := json.Unmarshal(packages, &o.Packages); err != nil {
			return nil, fmt.Errorf("failed to unmarshal offer packages: %w", err)
		}
	}
	return &o, nil
}

// UpdateStatus transitions an offer to a new status.
func (r *OfferRepository) UpdateStatus(ctx context.Context, id string, status domain.OfferStatus) error {
	_, err := r.db.Exec(ctx,
		"UPDATE offers SET status = $1, updated_at = NOW() WHERE id = $2",
		status, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update offer status: %w", err)
	}
	return nil
}
