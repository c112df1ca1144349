package service

import (
	"context"
	"testing"
	"time"

	"github.com/fitcoach/backend/internal/domain"
	"github.com/fitcoach/backend/pkg/billing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOffer(status domain.OfferStatus) *domain.Offer {
	return &domain.Offer{
		ID:          "offer-1",
		Token:       "tok-1",
		TrainerID:   "trainer-1",
		ClientEmail: "client@example.com",
		Status:      status,
		Packages: []domain.PackageSummaryItem{
			{PackageID: "pkg-1", Quantity: 2, Name: "Personal Training"},
			{PackageID: "pkg-2", Quantity: 1, Name: "Meal Plan"},
		},
		ExpiresAt: time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
		Trainer: domain.TrainerContact{
			ID:        "trainer-1",
			Email:     "coach@example.com",
			FirstName: "Dana",
		},
	}
}

func newTestOfferService(offers *fakeOfferStore, deliveries *fakeDeliveryStore, templates *fakeTemplateStore, provider *fakeProvider, mailer *fakeMailer) *OfferService {
	return NewOfferService(offers, deliveries, templates, provider, mailer,
		"https://app.test/success", "https://app.test/cancel")
}

func TestCreateOffer(t *testing.T) {
	offers := newFakeOfferStore()
	svc := newTestOfferService(offers, newFakeDeliveryStore(), newFakeTemplateStore(), newFakeProvider(), &fakeMailer{})

	offer, err := svc.CreateOffer(context.Background(), "trainer-1", &domain.CreateOfferRequest{
		ClientEmail: "client@example.com",
		Packages:    []domain.PackageSummaryItem{{PackageID: "pkg-1", Quantity: 1, Name: "Personal Training"}},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.OfferPending, offer.Status)
	assert.Equal(t, "trainer-1", offer.TrainerID)
	assert.NotEmpty(t, offer.Token)
	assert.WithinDuration(t, time.Now().Add(defaultOfferTTL), offer.ExpiresAt, time.Minute)
	require.Len(t, offers.created, 1)
}

func TestCreateOfferValidation(t *testing.T) {
	svc := newTestOfferService(newFakeOfferStore(), newFakeDeliveryStore(), newFakeTemplateStore(), newFakeProvider(), &fakeMailer{})

	_, err := svc.CreateOffer(context.Background(), "trainer-1", &domain.CreateOfferRequest{
		ClientEmail: "not-an-email",
		Packages:    []domain.PackageSummaryItem{{PackageID: "pkg-1", Quantity: 1}},
	})
	require.Error(t, err)
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 422, appErr.Code)
}

func TestCreateCheckout(t *testing.T) {
	offer := testOffer(domain.OfferPending)
	offers := newFakeOfferStore(offer)
	templates := newFakeTemplateStore(
		&domain.PackageTemplate{ID: "pkg-1", Name: "Personal Training", PriceCents: 5000, Currency: "usd"},
		&domain.PackageTemplate{ID: "pkg-2", Name: "Meal Plan", PriceCents: 2500, Currency: "usd"},
	)
	provider := newFakeProvider()
	svc := newTestOfferService(offers, newFakeDeliveryStore(), templates, provider, &fakeMailer{})

	session, err := svc.CreateCheckout(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.test/cs_test", session.URL)

	require.Len(t, provider.checkoutParams, 1)
	params := provider.checkoutParams[0]
	assert.Equal(t, "client@example.com", params.CustomerEmail)
	assert.Equal(t, "tok-1", params.Metadata[billing.MetaOfferToken])
	require.Len(t, params.LineItems, 2)
	assert.Equal(t, int64(5000), params.LineItems[0].UnitCents)

	assert.Equal(t, domain.OfferProcessing, offers.statusUpdates["offer-1"])
}

func TestCreateCheckoutTerminalOffer(t *testing.T) {
	for _, status := range []domain.OfferStatus{domain.OfferCompleted, domain.OfferCancelled, domain.OfferExpired} {
		offers := newFakeOfferStore(testOffer(status))
		svc := newTestOfferService(offers, newFakeDeliveryStore(), newFakeTemplateStore(), newFakeProvider(), &fakeMailer{})

		_, err := svc.CreateCheckout(context.Background(), "tok-1")
		require.Error(t, err, "status %s", status)
		appErr, ok := domain.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, 409, appErr.Code)
	}
}

func TestCreateCheckoutUnknownToken(t *testing.T) {
	svc := newTestOfferService(newFakeOfferStore(), newFakeDeliveryStore(), newFakeTemplateStore(), newFakeProvider(), &fakeMailer{})

	_, err := svc.CreateCheckout(context.Background(), "missing")
	require.Error(t, err)
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 404, appErr.Code)
}

func TestHandleCheckoutExpired(t *testing.T) {
	offer := testOffer(domain.OfferProcessing)
	offers := newFakeOfferStore(offer)
	mailer := &fakeMailer{}
	svc := newTestOfferService(offers, newFakeDeliveryStore(), newFakeTemplateStore(), newFakeProvider(), mailer)

	err := svc.HandleCheckoutExpired(context.Background(), CheckoutSessionEvent{
		ID:       "cs_1",
		Metadata: map[string]string{billing.MetaOfferToken: "tok-1"},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.OfferExpired, offers.statusUpdates["offer-1"])
	require.Len(t, mailer.offerExpired, 1)
	sent := mailer.offerExpired[0]
	assert.Equal(t, "coach@example.com", sent.To)
	assert.Equal(t, "Dana", sent.Data.TrainerName)
	assert.Equal(t, "client@example.com", sent.Data.ClientEmail)
	assert.Equal(t, "2x Personal Training, 1x Meal Plan", sent.Data.Bundle)
	assert.Equal(t, "March 15, 2026", sent.Data.ExpiresAt)
}

func TestHandleCheckoutExpiredForeignSession(t *testing.T) {
	offers := newFakeOfferStore()
	mailer := &fakeMailer{}
	svc := newTestOfferService(offers, newFakeDeliveryStore(), newFakeTemplateStore(), newFakeProvider(), mailer)

	// No offer token in metadata: someone else's checkout session.
	err := svc.HandleCheckoutExpired(context.Background(), CheckoutSessionEvent{ID: "cs_1"})
	require.NoError(t, err)
	assert.Empty(t, offers.statusUpdates)
	assert.Empty(t, mailer.offerExpired)

	// Token present but no matching offer.
	err = svc.HandleCheckoutExpired(context.Background(), CheckoutSessionEvent{
		ID:       "cs_2",
		Metadata: map[string]string{billing.MetaOfferToken: "missing"},
	})
	require.NoError(t, err)
	assert.Empty(t, offers.statusUpdates)
}

func TestHandleCheckoutExpiredTerminalOfferUntouched(t *testing.T) {
	offers := newFakeOfferStore(testOffer(domain.OfferCompleted))
	mailer := &fakeMailer{}
	svc := newTestOfferService(offers, newFakeDeliveryStore(), newFakeTemplateStore(), newFakeProvider(), mailer)

	err := svc.HandleCheckoutExpired(context.Background(), CheckoutSessionEvent{
		ID:       "cs_1",
		Metadata: map[string]string{billing.MetaOfferToken: "tok-1"},
	})
	require.NoError(t, err)
	assert.Empty(t, offers.statusUpdates)
	assert.Empty(t, mailer.offerExpired)
}

func TestHandleCheckoutExpiredSwallowsFailures(t *testing.T) {
	offers := newFakeOfferStore(testOffer(domain.OfferPending))
	offers.updateErr = assert.AnError
	mailer := &fakeMailer{sendErr: assert.AnError}
	svc := newTestOfferService(offers, newFakeDeliveryStore(), newFakeTemplateStore(), newFakeProvider(), mailer)

	err := svc.HandleCheckoutExpired(context.Background(), CheckoutSessionEvent{
		ID:       "cs_1",
		Metadata: map[string]string{billing.MetaOfferToken: "tok-1"},
	})
	assert.NoError(t, err)
}

func TestHandleCheckoutCompleted(t *testing.T) {
	offer := testOffer(domain.OfferProcessing)
	offers := newFakeOfferStore(offer)
	deliveries := newFakeDeliveryStore()
	svc := newTestOfferService(offers, deliveries, newFakeTemplateStore(), newFakeProvider(), &fakeMailer{})

	err := svc.HandleCheckoutCompleted(context.Background(), CheckoutSessionEvent{
		ID:            "cs_1",
		PaymentIntent: []byte(`"pi_123"`),
		Metadata:      map[string]string{billing.MetaOfferToken: "tok-1"},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.OfferCompleted, offers.statusUpdates["offer-1"])

	// One delivery per purchased unit: 2x Personal Training + 1x Meal Plan.
	require.Len(t, deliveries.created, 3)
	for _, d := range deliveries.created {
		assert.Equal(t, "pi_123", d.PaymentIntentID)
		assert.Equal(t, "trainer-1", d.TrainerID)
		assert.Equal(t, "client@example.com", d.ClientName)
		assert.Equal(t, domain.DeliveryPending, d.Status)
	}
	assert.Equal(t, "Personal Training", deliveries.created[0].PackageName)
	assert.Equal(t, "Meal Plan", deliveries.created[2].PackageName)
}

func TestHandleCheckoutCompletedDuplicate(t *testing.T) {
	offers := newFakeOfferStore(testOffer(domain.OfferCompleted))
	deliveries := newFakeDeliveryStore()
	svc := newTestOfferService(offers, deliveries, newFakeTemplateStore(), newFakeProvider(), &fakeMailer{})

	err := svc.HandleCheckoutCompleted(context.Background(), CheckoutSessionEvent{
		ID:            "cs_1",
		PaymentIntent: []byte(`"pi_123"`),
		Metadata:      map[string]string{billing.MetaOfferToken: "tok-1"},
	})
	require.NoError(t, err)
	assert.Empty(t, deliveries.created)
}
