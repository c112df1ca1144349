package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/checkout/session"
	"github.com/stripe/stripe-go/v80/customer"
	"github.com/stripe/stripe-go/v80/price"
	"github.com/stripe/stripe-go/v80/subscription"
	"github.com/stripe/stripe-go/v80/webhook"
)

// StripeProvider implements Provider against the Stripe API.
type StripeProvider struct {
	webhookSecret string
}

// NewStripeProvider creates a Stripe-backed billing provider. The API key is
// set globally on the Stripe SDK (single-tenant deployment).
func NewStripeProvider(apiKey, webhookSecret string) (*StripeProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("stripe API key is required")
	}
	if webhookSecret == "" {
		return nil, fmt.Errorf("stripe webhook secret is required")
	}
	stripe.Key = apiKey
	return &StripeProvider{webhookSecret: webhookSecret}, nil
}

// VerifyWebhook validates the Stripe-Signature header and returns the event
// envelope with the raw data object.
func (p *StripeProvider) VerifyWebhook(payload []byte, signature string) (Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, p.webhookSecret)
	if err != nil {
		return Event{}, fmt.Errorf("webhook signature verification failed: %w", err)
	}
	return Event{
		ID:      event.ID,
		Type:    string(event.Type),
		Created: time.Unix(event.Created, 0).UTC(),
		Object:  event.Data.Raw,
	}, nil
}

func (p *StripeProvider) GetSubscription(ctx context.Context, id string) (*RemoteSubscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	sub, err := subscription.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve subscription %s: %w", id, err)
	}
	return buildRemoteSubscription(sub), nil
}

func (p *StripeProvider) PauseSubscription(ctx context.Context, id, behavior string, metadata map[string]string) (*RemoteSubscription, error) {
	params := &stripe.SubscriptionParams{
		PauseCollection: &stripe.SubscriptionPauseCollectionParams{
			Behavior: stripe.String(behavior),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	sub, err := subscription.Update(id, params)
	if err != nil {
		return nil, fmt.Errorf("failed to pause subscription %s: %w", id, err)
	}
	return buildRemoteSubscription(sub), nil
}

func (p *StripeProvider) ResumeSubscription(ctx context.Context, id string, metadata map[string]string) (*RemoteSubscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	// An empty-string field value is how the API clears pause_collection.
	params.AddExtra("pause_collection", "")
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	sub, err := subscription.Update(id, params)
	if err != nil {
		return nil, fmt.Errorf("failed to resume subscription %s: %w", id, err)
	}
	return buildRemoteSubscription(sub), nil
}

func (p *StripeProvider) UpdateSubscriptionMetadata(ctx context.Context, id string, metadata map[string]string) error {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	if _, err := subscription.Update(id, params); err != nil {
		return fmt.Errorf("failed to update subscription %s metadata: %w", id, err)
	}
	return nil
}

func (p *StripeProvider) FindPriceByLookupKey(ctx context.Context, key string) (*Price, error) {
	params := &stripe.PriceListParams{
		LookupKeys: stripe.StringSlice([]string{key}),
	}
	params.Context = ctx
	iter := price.List(params)
	for iter.Next() {
		pr := iter.Price()
		return &Price{
			ID:        pr.ID,
			LookupKey: pr.LookupKey,
			Currency:  string(pr.Currency),
			UnitCents: pr.UnitAmount,
		}, nil
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list prices for lookup key %s: %w", key, err)
	}
	return nil, nil // no matching price
}

func (p *StripeProvider) UpdateCustomerMetadata(ctx context.Context, id string, metadata map[string]string) error {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	if _, err := customer.Update(id, params); err != nil {
		return fmt.Errorf("failed to update customer %s: %w", id, err)
	}
	return nil
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, cp CheckoutParams) (*CheckoutSession, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, len(cp.LineItems))
	for i, item := range cp.LineItems {
		lineItems[i] = &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(item.Quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(strings.ToLower(item.Currency)),
				UnitAmount: stripe.Int64(item.UnitCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
		}
	}

	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:     lineItems,
		SuccessURL:    stripe.String(cp.SuccessURL),
		CancelURL:     stripe.String(cp.CancelURL),
		CustomerEmail: stripe.String(cp.CustomerEmail),
	}
	params.Context = ctx
	if !cp.ExpiresAt.IsZero() {
		params.ExpiresAt = stripe.Int64(cp.ExpiresAt.Unix())
	}
	for k, v := range cp.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func buildRemoteSubscription(sub *stripe.Subscription) *RemoteSubscription {
	remote := &RemoteSubscription{
		ID:          sub.ID,
		Status:      string(sub.Status),
		Metadata:    sub.Metadata,
		PeriodStart: time.Unix(sub.CurrentPeriodStart, 0).UTC(),
		PeriodEnd:   time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
	}
	if remote.Metadata == nil {
		remote.Metadata = map[string]string{}
	}
	if sub.Customer != nil {
		remote.CustomerID = sub.Customer.ID
	}
	if sub.PauseCollection != nil {
		remote.PauseBehavior = string(sub.PauseCollection.Behavior)
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		remote.PriceID = sub.Items.Data[0].Price.ID
		remote.LookupKey = sub.Items.Data[0].Price.LookupKey
	}
	if sub.TrialEnd > 0 {
		t := time.Unix(sub.TrialEnd, 0).UTC()
		remote.TrialEnd = &t
	}
	return remote
}
