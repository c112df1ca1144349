package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/fitcoach/backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SubscriptionRepository handles database operations for user subscriptions.
type SubscriptionRepository struct {
	db *pgxpool.Pool
}

// NewSubscriptionRepository creates a new SubscriptionRepository.
func NewSubscriptionRepository(db *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

const subscriptionColumns = `
	s.id, s.user_id, s.remote_id, s.status, s.package_id, s.lookup_key,
	s.trainer_id, s.period_start, s.period_end, s.trial, s.created_at, s.updated_at
`

// Create inserts a new subscription mirror row.
func (r *SubscriptionRepository) Create(ctx context.Context, sub *domain.UserSubscription) error {
	query := `
		INSERT INTO user_subscriptions
			(id, user_id, remote_id, status, package_id, lookup_key, trainer_id, period_start, period_end, trial, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.Exec(ctx, query,
		sub.ID, sub.UserID, sub.RemoteID, sub.Status, sub.PackageID, sub.LookupKey,
		sub.TrainerID, sub.PeriodStart, sub.PeriodEnd, sub.Trial, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

// FindByRemoteID returns the subscription mirroring a remote subscription id.
// Returns (nil, nil) when the remote subscription has no local mirror.
func (r *SubscriptionRepository) FindByRemoteID(ctx context.Context, remoteID string) (*domain.UserSubscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM user_subscriptions s WHERE s.remote_id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, remoteID))
}

// FindActiveCoachingByUser returns the user's ACTIVE coaching-tier
// subscription, or (nil, nil).
func (r *SubscriptionRepository) FindActiveCoachingByUser(ctx context.Context, userID string) (*domain.UserSubscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM user_subscriptions s
		JOIN package_templates pt ON pt.id = s.package_id
		WHERE s.user_id = $1 AND s.status = 'ACTIVE' AND pt.tier = 'coaching'
		ORDER BY s.created_at DESC LIMIT 1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, userID))
}

// FindActiveNonCoachingByUser returns the user's ACTIVE non-coaching
// (monthly/yearly) subscriptions, newest first.
func (r *SubscriptionRepository) FindActiveNonCoachingByUser(ctx context.Context, userID string) ([]*domain.UserSubscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM user_subscriptions s
		JOIN package_templates pt ON pt.id = s.package_id
		WHERE s.user_id = $1 AND s.status = 'ACTIVE' AND pt.tier <> 'coaching'
		ORDER BY s.created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*domain.UserSubscription
	for rows.Next() {
		var s domain.UserSubscription
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.RemoteID, &s.Status, &s.PackageID, &s.LookupKey,
			&s.TrainerID, &s.PeriodStart, &s.PeriodEnd, &s.Trial, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, &s)
	}
	return subs, rows.Err()
}

func (r *SubscriptionRepository) scanOne(row pgx.Row) (*domain.UserSubscription, error) {
	var s domain.UserSubscription
	err := row.Scan(
		&s.ID, &s.UserID, &s.RemoteID, &s.Status, &s.PackageID, &s.LookupKey,
		&s.TrainerID, &s.PeriodStart, &s.PeriodEnd, &s.Trial, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find subscription: %w", err)
	}
	return &s, nil
}

// UpdatePlan repoints a subscription at a new package after a plan switch.
func (r *SubscriptionRepository) UpdatePlan(ctx context.Context, id, packageID, lookupKey string, trainerID *string) error {
	_, err := r.db.Exec(ctx,
		"UPDATE user_subscriptions SET package_id = $1, lookup_key = $2, trainer_id = $3, updated_at = NOW() WHERE id = $4",
		packageID, lookupKey, trainerID, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update subscription plan: %w", err)
	}
	return nil
}

// UpdateStatus transitions the local subscription status.
func (r *SubscriptionRepository) UpdateStatus(ctx context.Context, id string, status domain.SubscriptionStatus) error {
	_, err := r.db.Exec(ctx,
		"UPDATE user_subscriptions SET status = $1, updated_at = NOW() WHERE id = $2",
		status, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update subscription status: %w", err)
	}
	return nil
}

// UpdatePeriod refreshes the mirrored billing period.
func (r *SubscriptionRepository) UpdatePeriod(ctx context.Context, id string, start, end time.Time) error {
	_, err := r.db.Exec(ctx,
		"UPDATE user_subscriptions SET period_start = $1, period_end = $2, updated_at = NOW() WHERE id = $3",
		start, end, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update subscription period: %w", err)
	}
	return nil
}
