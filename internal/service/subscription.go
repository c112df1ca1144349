package service

import (
	"context"
	"log"
	"time"

	"github.com/fitcoach/backend/internal/domain"
	"github.com/fitcoach/backend/pkg/billing"
	"github.com/google/uuid"
)

type subscriptionStore interface {
	Create(ctx context.Context, sub *domain.UserSubscription) error
	FindByRemoteID(ctx context.Context, remoteID string) (*domain.UserSubscription, error)
	FindActiveCoachingByUser(ctx context.Context, userID string) (*domain.UserSubscription, error)
	FindActiveNonCoachingByUser(ctx context.Context, userID string) ([]*domain.UserSubscription, error)
	UpdatePlan(ctx context.Context, id, packageID, lookupKey string, trainerID *string) error
	UpdateStatus(ctx context.Context, id string, status domain.SubscriptionStatus) error
	UpdatePeriod(ctx context.Context, id string, start, end time.Time) error
}

type templateStore interface {
	FindByLookupKey(ctx context.Context, lookupKey string) (*domain.PackageTemplate, error)
}

type trainerClientStore interface {
	UpdateTrainer(ctx context.Context, userID string, trainerID *string) error
	HasClient(ctx context.Context, trainerID, clientID string) (bool, error)
}

// SubscriptionService keeps local subscription state consistent with the
// remote billing provider. It enforces the dual-subscription invariant: a
// coaching subscription may coexist with one non-coaching subscription only
// while the latter is remotely paused with the pausedForCoaching flag.
//
// The provider is the source of truth for pause state; it is re-read before
// every pause/resume decision rather than trusted from event payloads, which
// is what lets the handlers tolerate out-of-order webhook delivery.
type SubscriptionService struct {
	subs      subscriptionStore
	templates templateStore
	users     trainerClientStore
	provider  billing.Provider
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(subs subscriptionStore, templates templateStore, users trainerClientStore, provider billing.Provider) *SubscriptionService {
	return &SubscriptionService{
		subs:      subs,
		templates: templates,
		users:     users,
		provider:  provider,
	}
}

// HandleSubscriptionCreated mirrors a new remote subscription locally. For a
// coaching-tier plan it also assigns the trainer to the user and pauses any
// active non-coaching subscription remotely (pause_collection "void",
// pausedForCoaching flag).
//
// The local row is created before the remote pause call: if the sequence
// fails halfway, the coaching subscription stays discoverable and the next
// invoice.payment_succeeded event re-applies the missing pause.
func (s *SubscriptionService) HandleSubscriptionCreated(ctx context.Context, ev SubscriptionEvent) error {
	userID := ev.Metadata[billing.MetaUserID]
	if userID == "" {
		log.Printf("[Subscriptions] created event %s has no userId metadata, skipping", ev.ID)
		return nil
	}

	existing, err := s.subs.FindByRemoteID(ctx, ev.ID)
	if err != nil {
		log.Printf("[Subscriptions] Failed to look up subscription %s: %v", ev.ID, err)
		return nil
	}
	if existing != nil {
		return nil // duplicate delivery
	}

	lookupKey := ev.LookupKey()
	tmpl, err := s.templates.FindByLookupKey(ctx, lookupKey)
	if err != nil {
		log.Printf("[Subscriptions] Failed to resolve package for key %q: %v", lookupKey, err)
		return nil
	}
	if tmpl == nil {
		log.Printf("[Subscriptions] No package template for lookup key %q, skipping %s", lookupKey, ev.ID)
		return nil
	}

	trainerID := tmpl.TrainerID
	if id := ev.Metadata[billing.MetaTrainerID]; id != "" {
		trainerID = &id
	}

	status := domain.SubscriptionPending
	switch ev.Status {
	case "active", "trialing":
		status = domain.SubscriptionActive
	}

	now := time.Now()
	sub := &domain.UserSubscription{
		ID:          uuid.New().String(),
		UserID:      userID,
		RemoteID:    ev.ID,
		Status:      status,
		PackageID:   tmpl.ID,
		LookupKey:   lookupKey,
		TrainerID:   trainerID,
		PeriodStart: time.Unix(ev.CurrentPeriodStart, 0).UTC(),
		PeriodEnd:   time.Unix(ev.CurrentPeriodEnd, 0).UTC(),
		Trial:       ev.TrialEnd > 0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.subs.Create(ctx, sub); err != nil {
		log.Printf("[Subscriptions] Failed to create subscription %s: %v", ev.ID, err)
		return nil
	}
	log.Printf("[Subscriptions] Created %s subscription %s for user %s", tmpl.Tier, ev.ID, userID)

	if !tmpl.Tier.Coaching() {
		return nil
	}

	if trainerID != nil {
		if err := s.users.UpdateTrainer(ctx, userID, trainerID); err != nil {
			log.Printf("[Subscriptions] Failed to assign trainer %s to user %s: %v", *trainerID, userID, err)
		}
		if customerID := extractID(ev.Customer); customerID != "" {
			err := s.provider.UpdateCustomerMetadata(ctx, customerID, map[string]string{
				billing.MetaTrainerID: *trainerID,
			})
			if err != nil {
				log.Printf("[Subscriptions] Failed to tag customer %s with trainer: %v", customerID, err)
			}
		}
	}

	s.pauseNonCoachingFor(ctx, userID, nil)
	return nil
}

// pauseNonCoachingFor pauses every ACTIVE non-coaching subscription of the
// user remotely with the coaching flag. extraMeta is merged into the pause
// metadata. Failures are logged and left for the next payment event.
func (s *SubscriptionService) pauseNonCoachingFor(ctx context.Context, userID string, extraMeta map[string]string) {
	others, err := s.subs.FindActiveNonCoachingByUser(ctx, userID)
	if err != nil {
		log.Printf("[Subscriptions] Failed to find non-coaching subscriptions for %s: %v", userID, err)
		return
	}
	for _, other := range others {
		metadata := map[string]string{billing.MetaPausedForCoaching: "true"}
		for k, v := range extraMeta {
			metadata[k] = v
		}
		_, err := s.provider.PauseSubscription(ctx, other.RemoteID, billing.PauseBehaviorVoid, metadata)
		if err != nil {
			log.Printf("[Subscriptions] Failed to pause %s for coaching: %v", other.RemoteID, err)
			continue
		}
		log.Printf("[Subscriptions] Paused %s while coaching is active for user %s", other.RemoteID, userID)
	}
}

// HandleSubscriptionUpdated detects plan switches by diffing the event's
// price lookup key against the locally stored one — the provider fires a
// generic updated event for every modification, so the diff is the only
// reliable switch signal. On a switch the local row is repointed at the new
// package and, when the package carries a trainer, the user is reassigned.
func (s *SubscriptionService) HandleSubscriptionUpdated(ctx context.Context, ev SubscriptionEvent) error {
	local, err := s.subs.FindByRemoteID(ctx, ev.ID)
	if err != nil {
		log.Printf("[Subscriptions] Failed to look up subscription %s: %v", ev.ID, err)
		return nil
	}
	if local == nil {
		log.Printf("[Subscriptions] updated event for unknown subscription %s, skipping", ev.ID)
		return nil
	}

	if ev.CurrentPeriodStart > 0 && ev.CurrentPeriodEnd > 0 {
		err := s.subs.UpdatePeriod(ctx, local.ID,
			time.Unix(ev.CurrentPeriodStart, 0).UTC(),
			time.Unix(ev.CurrentPeriodEnd, 0).UTC(),
		)
		if err != nil {
			log.Printf("[Subscriptions] Failed to refresh period for %s: %v", ev.ID, err)
		}
	}

	newKey := ev.LookupKey()
	if newKey == "" || newKey == local.LookupKey {
		return nil
	}

	tmpl, err := s.templates.FindByLookupKey(ctx, newKey)
	if err != nil {
		log.Printf("[Subscriptions] Failed to resolve package for key %q: %v", newKey, err)
		return nil
	}
	if tmpl == nil {
		log.Printf("[Subscriptions] No package template for lookup key %q on %s", newKey, ev.ID)
		return nil
	}

	if err := s.subs.UpdatePlan(ctx, local.ID, tmpl.ID, newKey, tmpl.TrainerID); err != nil {
		log.Printf("[Subscriptions] Failed to switch %s to plan %q: %v", ev.ID, newKey, err)
		return nil
	}
	log.Printf("[Subscriptions] Subscription %s switched plan %q -> %q", ev.ID, local.LookupKey, newKey)

	if tmpl.TrainerID != nil {
		if err := s.users.UpdateTrainer(ctx, local.UserID, tmpl.TrainerID); err != nil {
			log.Printf("[Subscriptions] Failed to assign trainer for user %s: %v", local.UserID, err)
		}
	}
	return nil
}

// HandleSubscriptionDeleted retires the local mirror and, when a coaching
// subscription ended, resumes every non-coaching subscription that was
// paused for it. Only pauses flagged pausedForCoaching are cleared; a
// trainer-initiated pause is left untouched.
//
// The user's trainer assignment deliberately survives the coaching
// subscription (product decision).
func (s *SubscriptionService) HandleSubscriptionDeleted(ctx context.Context, ev SubscriptionEvent) error {
	local, err := s.subs.FindByRemoteID(ctx, ev.ID)
	if err != nil {
		log.Printf("[Subscriptions] Failed to look up subscription %s: %v", ev.ID, err)
		return nil
	}
	if local == nil {
		return nil
	}

	if err := s.subs.UpdateStatus(ctx, local.ID, domain.SubscriptionCancelled); err != nil {
		log.Printf("[Subscriptions] Failed to cancel subscription %s: %v", ev.ID, err)
	}

	if !local.Coaching() {
		return nil
	}

	others, err := s.subs.FindActiveNonCoachingByUser(ctx, local.UserID)
	if err != nil {
		log.Printf("[Subscriptions] Failed to find non-coaching subscriptions for %s: %v", local.UserID, err)
		return nil
	}
	for _, other := range others {
		remote, err := s.provider.GetSubscription(ctx, other.RemoteID)
		if err != nil {
			log.Printf("[Subscriptions] Failed to read remote state of %s: %v", other.RemoteID, err)
			continue
		}
		if remote.PauseReason() != billing.PauseSystemCoaching {
			continue
		}
		_, err = s.provider.ResumeSubscription(ctx, other.RemoteID, map[string]string{
			billing.MetaPausedForCoaching: "",
			billing.MetaResumedAt:         time.Now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			log.Printf("[Subscriptions] Failed to resume %s after coaching ended: %v", other.RemoteID, err)
			continue
		}
		log.Printf("[Subscriptions] Resumed %s after coaching ended for user %s", other.RemoteID, local.UserID)
	}
	return nil
}

// HandleInvoicePaymentSucceeded refreshes the pause justification on the
// user's paused non-coaching subscription after every successful coaching
// payment, and re-applies the pause if the created-handler's pause call
// failed earlier.
func (s *SubscriptionService) HandleInvoicePaymentSucceeded(ctx context.Context, ev InvoiceEvent) error {
	remoteSubID := extractID(ev.Subscription)
	if remoteSubID == "" {
		return nil
	}

	local, err := s.subs.FindByRemoteID(ctx, remoteSubID)
	if err != nil {
		log.Printf("[Subscriptions] Failed to look up subscription %s: %v", remoteSubID, err)
		return nil
	}
	if local == nil || !local.Coaching() {
		return nil
	}

	others, err := s.subs.FindActiveNonCoachingByUser(ctx, local.UserID)
	if err != nil {
		log.Printf("[Subscriptions] Failed to find non-coaching subscriptions for %s: %v", local.UserID, err)
		return nil
	}

	paidAt := time.Now().UTC().Format(time.RFC3339)
	for _, other := range others {
		remote, err := s.provider.GetSubscription(ctx, other.RemoteID)
		if err != nil {
			log.Printf("[Subscriptions] Failed to read remote state of %s: %v", other.RemoteID, err)
			continue
		}

		switch remote.PauseReason() {
		case billing.PauseNone:
			// The coaching pause never landed; apply it now.
			metadata := map[string]string{
				billing.MetaPausedForCoaching:   "true",
				billing.MetaLastCoachingPayment: paidAt,
			}
			if _, err := s.provider.PauseSubscription(ctx, other.RemoteID, billing.PauseBehaviorVoid, metadata); err != nil {
				log.Printf("[Subscriptions] Failed to re-apply coaching pause on %s: %v", other.RemoteID, err)
			}
		case billing.PauseSystemCoaching:
			err := s.provider.UpdateSubscriptionMetadata(ctx, other.RemoteID, map[string]string{
				billing.MetaLastCoachingPayment: paidAt,
			})
			if err != nil {
				log.Printf("[Subscriptions] Failed to refresh coaching pause on %s: %v", other.RemoteID, err)
			}
		}
		// Manual or unknown pauses stay untouched.
	}
	return nil
}

// ensureTrainerClientAccess verifies the caller trainer is assigned to the
// client. The error propagates to the caller — it gates a trainer-initiated
// mutation, unlike webhook failures which stay internal.
func (s *SubscriptionService) ensureTrainerClientAccess(ctx context.Context, trainerID, clientID string) error {
	ok, err := s.users.HasClient(ctx, trainerID, clientID)
	if err != nil {
		return domain.ErrInternal("failed to verify client access", err)
	}
	if !ok {
		return domain.ErrForbidden("client is not assigned to this trainer")
	}
	return nil
}

// PauseClientCoaching pauses a client's coaching subscription on the
// trainer's initiative. Unlike the automatic coaching pause ("void"), a
// manual pause uses "mark_uncollectible": invoices keep accruing but are not
// collected while the trainer holds the client's billing.
func (s *SubscriptionService) PauseClientCoaching(ctx context.Context, trainerID, clientID string) (*domain.PauseActionResponse, error) {
	if err := s.ensureTrainerClientAccess(ctx, trainerID, clientID); err != nil {
		return nil, err
	}

	sub, err := s.subs.FindActiveCoachingByUser(ctx, clientID)
	if err != nil {
		return nil, domain.ErrInternal("failed to look up coaching subscription", err)
	}
	if sub == nil {
		return nil, domain.ErrNotFound("client has no active coaching subscription")
	}

	remote, err := s.provider.GetSubscription(ctx, sub.RemoteID)
	if err != nil {
		return nil, domain.ErrInternal("failed to read remote subscription", err)
	}
	if remote.Paused() {
		return nil, domain.ErrConflict("subscription is already paused")
	}

	_, err = s.provider.PauseSubscription(ctx, sub.RemoteID, billing.PauseBehaviorMarkUncollectible, map[string]string{
		billing.MetaManuallyPausedByTrainer: "true",
		billing.MetaTrainerID:               trainerID,
	})
	if err != nil {
		return nil, domain.ErrInternal("failed to pause subscription", err)
	}

	log.Printf("[Subscriptions] Trainer %s paused coaching subscription %s", trainerID, sub.RemoteID)
	return &domain.PauseActionResponse{Success: true}, nil
}

// ResumeClientCoaching resumes a manually paused coaching subscription. A
// pause applied by the coaching interaction (pausedForCoaching) is owned by
// the webhook flow and is refused here.
func (s *SubscriptionService) ResumeClientCoaching(ctx context.Context, trainerID, clientID string) (*domain.PauseActionResponse, error) {
	if err := s.ensureTrainerClientAccess(ctx, trainerID, clientID); err != nil {
		return nil, err
	}

	sub, err := s.subs.FindActiveCoachingByUser(ctx, clientID)
	if err != nil {
		return nil, domain.ErrInternal("failed to look up coaching subscription", err)
	}
	if sub == nil {
		return nil, domain.ErrNotFound("client has no active coaching subscription")
	}

	remote, err := s.provider.GetSubscription(ctx, sub.RemoteID)
	if err != nil {
		return nil, domain.ErrInternal("failed to read remote subscription", err)
	}
	if !remote.Paused() {
		return nil, domain.ErrConflict("subscription is not paused")
	}
	if remote.PauseReason() == billing.PauseSystemCoaching {
		return nil, domain.ErrConflict("subscription is paused for an active coaching plan and cannot be resumed manually")
	}

	_, err = s.provider.ResumeSubscription(ctx, sub.RemoteID, map[string]string{
		billing.MetaManuallyPausedByTrainer: "",
		billing.MetaResumedAt:               time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, domain.ErrInternal("failed to resume subscription", err)
	}

	log.Printf("[Subscriptions] Trainer %s resumed coaching subscription %s", trainerID, sub.RemoteID)
	return &domain.PauseActionResponse{Success: true}, nil
}

// GetClientSubscription returns the trainer-facing view of a client's
// coaching subscription, including live remote pause state.
func (s *SubscriptionService) GetClientSubscription(ctx context.Context, trainerID, clientID string) (*domain.ClientSubscriptionResponse, error) {
	if err := s.ensureTrainerClientAccess(ctx, trainerID, clientID); err != nil {
		return nil, err
	}

	sub, err := s.subs.FindActiveCoachingByUser(ctx, clientID)
	if err != nil {
		return nil, domain.ErrInternal("failed to look up coaching subscription", err)
	}
	if sub == nil {
		return &domain.ClientSubscriptionResponse{}, nil
	}

	resp := &domain.ClientSubscriptionResponse{Subscription: sub}
	remote, err := s.provider.GetSubscription(ctx, sub.RemoteID)
	if err != nil {
		log.Printf("[Subscriptions] Failed to read remote state of %s: %v", sub.RemoteID, err)
		return resp, nil
	}
	resp.Paused = remote.Paused()
	if resp.Paused {
		resp.PauseReason = remote.PauseReason().String()
	}
	return resp, nil
}
