package service

import (
	"context"
	"errors"
	"time"

	"github.com/fitcoach/backend/internal/domain"
	"github.com/fitcoach/backend/pkg/billing"
	"github.com/fitcoach/backend/pkg/mail"
)

// Hand-written recording fakes for the consumer-side interfaces. Each fake
// records calls and serves canned results keyed by id where it matters.

type fakeOfferStore struct {
	offers        map[string]*domain.Offer // by token
	created       []*domain.Offer
	statusUpdates map[string]domain.OfferStatus // offer id -> last status
	findErr       error
	updateErr     error
}

func newFakeOfferStore(offers ...*domain.Offer) *fakeOfferStore {
	s := &fakeOfferStore{
		offers:        make(map[string]*domain.Offer),
		statusUpdates: make(map[string]domain.OfferStatus),
	}
	for _, o := range offers {
		s.offers[o.Token] = o
	}
	return s
}

func (s *fakeOfferStore) Create(ctx context.Context, o *domain.Offer) error {
	s.created = append(s.created, o)
	s.offers[o.Token] = o
	return nil
}

func (s *fakeOfferStore) FindByToken(ctx context.Context, token string) (*domain.Offer, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.offers[token], nil
}

func (s *fakeOfferStore) UpdateStatus(ctx context.Context, id string, status domain.OfferStatus) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.statusUpdates[id] = status
	return nil
}

type fakeDeliveryStore struct {
	created      []*domain.ServiceDelivery
	byIntent     map[string][]*domain.ServiceDelivery
	refunded     map[string]string // delivery id -> reason
	findErr      error
	failRefundID string // MarkRefunded fails for this id only
}

func newFakeDeliveryStore() *fakeDeliveryStore {
	return &fakeDeliveryStore{
		byIntent: make(map[string][]*domain.ServiceDelivery),
		refunded: make(map[string]string),
	}
}

func (s *fakeDeliveryStore) Create(ctx context.Context, d *domain.ServiceDelivery) error {
	s.created = append(s.created, d)
	return nil
}

func (s *fakeDeliveryStore) FindByPaymentIntent(ctx context.Context, paymentIntentID string) ([]*domain.ServiceDelivery, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.byIntent[paymentIntentID], nil
}

func (s *fakeDeliveryStore) MarkRefunded(ctx context.Context, id string, refundedAt time.Time, reason string) error {
	if id == s.failRefundID {
		return errors.New("update failed")
	}
	s.refunded[id] = reason
	return nil
}

type fakeTemplateStore struct {
	byID  map[string]*domain.PackageTemplate
	byKey map[string]*domain.PackageTemplate
}

func newFakeTemplateStore(templates ...*domain.PackageTemplate) *fakeTemplateStore {
	s := &fakeTemplateStore{
		byID:  make(map[string]*domain.PackageTemplate),
		byKey: make(map[string]*domain.PackageTemplate),
	}
	for _, t := range templates {
		s.byID[t.ID] = t
		s.byKey[t.LookupKey] = t
	}
	return s
}

func (s *fakeTemplateStore) FindByID(ctx context.Context, id string) (*domain.PackageTemplate, error) {
	return s.byID[id], nil
}

func (s *fakeTemplateStore) FindByLookupKey(ctx context.Context, lookupKey string) (*domain.PackageTemplate, error) {
	return s.byKey[lookupKey], nil
}

type fakeSubscriptionStore struct {
	byRemoteID  map[string]*domain.UserSubscription
	coaching    map[string]*domain.UserSubscription   // by user id
	nonCoaching map[string][]*domain.UserSubscription // by user id
	created     []*domain.UserSubscription

	statusUpdates map[string]domain.SubscriptionStatus // local id -> status
	planUpdates   map[string]string                    // local id -> new lookup key
	periodUpdates map[string][2]time.Time              // local id -> {start, end}
}

func newFakeSubscriptionStore() *fakeSubscriptionStore {
	return &fakeSubscriptionStore{
		byRemoteID:    make(map[string]*domain.UserSubscription),
		coaching:      make(map[string]*domain.UserSubscription),
		nonCoaching:   make(map[string][]*domain.UserSubscription),
		statusUpdates: make(map[string]domain.SubscriptionStatus),
		planUpdates:   make(map[string]string),
		periodUpdates: make(map[string][2]time.Time),
	}
}

func (s *fakeSubscriptionStore) Create(ctx context.Context, sub *domain.UserSubscription) error {
	s.created = append(s.created, sub)
	s.byRemoteID[sub.RemoteID] = sub
	return nil
}

func (s *fakeSubscriptionStore) FindByRemoteID(ctx context.Context, remoteID string) (*domain.UserSubscription, error) {
	return s.byRemoteID[remoteID], nil
}

func (s *fakeSubscriptionStore) FindActiveCoachingByUser(ctx context.Context, userID string) (*domain.UserSubscription, error) {
	return s.coaching[userID], nil
}

func (s *fakeSubscriptionStore) FindActiveNonCoachingByUser(ctx context.Context, userID string) ([]*domain.UserSubscription, error) {
	return s.nonCoaching[userID], nil
}

func (s *fakeSubscriptionStore) UpdatePlan(ctx context.Context, id, packageID, lookupKey string, trainerID *string) error {
	s.planUpdates[id] = lookupKey
	return nil
}

func (s *fakeSubscriptionStore) UpdateStatus(ctx context.Context, id string, status domain.SubscriptionStatus) error {
	s.statusUpdates[id] = status
	return nil
}

func (s *fakeSubscriptionStore) UpdatePeriod(ctx context.Context, id string, start, end time.Time) error {
	s.periodUpdates[id] = [2]time.Time{start, end}
	return nil
}

type fakeUserStore struct {
	trainerAssignments map[string]*string // user id -> trainer id
	clients            map[string]string  // client id -> trainer id
	hasClientErr       error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		trainerAssignments: make(map[string]*string),
		clients:            make(map[string]string),
	}
}

func (s *fakeUserStore) UpdateTrainer(ctx context.Context, userID string, trainerID *string) error {
	s.trainerAssignments[userID] = trainerID
	return nil
}

func (s *fakeUserStore) HasClient(ctx context.Context, trainerID, clientID string) (bool, error) {
	if s.hasClientErr != nil {
		return false, s.hasClientErr
	}
	return s.clients[clientID] == trainerID, nil
}

// fakeProvider records billing calls and serves remote subscription state
// keyed by remote id.
type fakeProvider struct {
	subs map[string]*billing.RemoteSubscription

	pauseCalls  []providerPauseCall
	resumeCalls []providerResumeCall
	metaCalls   []providerMetaCall

	customerMeta map[string]map[string]string

	checkoutSession *billing.CheckoutSession
	checkoutParams  []billing.CheckoutParams
	checkoutErr     error

	getErr    error
	pauseErr  error
	resumeErr error
}

type providerPauseCall struct {
	ID       string
	Behavior string
	Metadata map[string]string
}

type providerResumeCall struct {
	ID       string
	Metadata map[string]string
}

type providerMetaCall struct {
	ID       string
	Metadata map[string]string
}

func newFakeProvider(subs ...*billing.RemoteSubscription) *fakeProvider {
	p := &fakeProvider{
		subs:         make(map[string]*billing.RemoteSubscription),
		customerMeta: make(map[string]map[string]string),
	}
	for _, s := range subs {
		p.subs[s.ID] = s
	}
	return p
}

func (p *fakeProvider) VerifyWebhook(payload []byte, signature string) (billing.Event, error) {
	return billing.Event{}, errors.New("not used in tests")
}

func (p *fakeProvider) GetSubscription(ctx context.Context, id string) (*billing.RemoteSubscription, error) {
	if p.getErr != nil {
		return nil, p.getErr
	}
	sub, ok := p.subs[id]
	if !ok {
		return nil, errors.New("no such subscription")
	}
	return sub, nil
}

func (p *fakeProvider) PauseSubscription(ctx context.Context, id, behavior string, metadata map[string]string) (*billing.RemoteSubscription, error) {
	if p.pauseErr != nil {
		return nil, p.pauseErr
	}
	p.pauseCalls = append(p.pauseCalls, providerPauseCall{ID: id, Behavior: behavior, Metadata: metadata})
	return p.subs[id], nil
}

func (p *fakeProvider) ResumeSubscription(ctx context.Context, id string, metadata map[string]string) (*billing.RemoteSubscription, error) {
	if p.resumeErr != nil {
		return nil, p.resumeErr
	}
	p.resumeCalls = append(p.resumeCalls, providerResumeCall{ID: id, Metadata: metadata})
	return p.subs[id], nil
}

func (p *fakeProvider) UpdateSubscriptionMetadata(ctx context.Context, id string, metadata map[string]string) error {
	p.metaCalls = append(p.metaCalls, providerMetaCall{ID: id, Metadata: metadata})
	return nil
}

func (p *fakeProvider) FindPriceByLookupKey(ctx context.Context, key string) (*billing.Price, error) {
	return &billing.Price{ID: "price_" + key, LookupKey: key}, nil
}

func (p *fakeProvider) UpdateCustomerMetadata(ctx context.Context, id string, metadata map[string]string) error {
	p.customerMeta[id] = metadata
	return nil
}

func (p *fakeProvider) CreateCheckoutSession(ctx context.Context, params billing.CheckoutParams) (*billing.CheckoutSession, error) {
	if p.checkoutErr != nil {
		return nil, p.checkoutErr
	}
	p.checkoutParams = append(p.checkoutParams, params)
	if p.checkoutSession != nil {
		return p.checkoutSession, nil
	}
	return &billing.CheckoutSession{ID: "cs_test", URL: "https://checkout.test/cs_test"}, nil
}

// fakeMailer records sent notifications.
type fakeMailer struct {
	offerExpired []struct {
		To   string
		Data mail.OfferExpiredEmail
	}
	refunds []struct {
		To   string
		Data mail.RefundEmail
	}
	sendErr error
}

func (m *fakeMailer) OfferExpired(to string, data mail.OfferExpiredEmail) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.offerExpired = append(m.offerExpired, struct {
		To   string
		Data mail.OfferExpiredEmail
	}{to, data})
	return nil
}

func (m *fakeMailer) RefundNotification(to string, data mail.RefundEmail) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.refunds = append(m.refunds, struct {
		To   string
		Data mail.RefundEmail
	}{to, data})
	return nil
}

// fakeLedger is an in-memory webhook event ledger.
type fakeLedger struct {
	processed map[string]string // event id -> type
	seenErr   error
	markErr   error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{processed: make(map[string]string)}
}

func (l *fakeLedger) Seen(ctx context.Context, eventID string) (bool, error) {
	if l.seenErr != nil {
		return false, l.seenErr
	}
	_, ok := l.processed[eventID]
	return ok, nil
}

func (l *fakeLedger) MarkProcessed(ctx context.Context, eventID, eventType string) error {
	if l.markErr != nil {
		return l.markErr
	}
	l.processed[eventID] = eventType
	return nil
}
