package service

import "encoding/json"

// Minimal wire representations of the provider webhook payloads. Each handler
// decodes only the fields it reads, so tests can build payloads by hand and
// the core stays decoupled from the provider SDK's event types.

// CheckoutSessionEvent carries the fields read from checkout.session.*
// event payloads.
type CheckoutSessionEvent struct {
	ID            string            `json:"id"`
	PaymentIntent json.RawMessage   `json:"payment_intent"`
	Metadata      map[string]string `json:"metadata"`
}

// ChargeRefundedEvent carries the fields read from charge.refunded payloads.
type ChargeRefundedEvent struct {
	Amount         int64           `json:"amount"`
	AmountRefunded int64           `json:"amount_refunded"`
	Currency       string          `json:"currency"`
	PaymentIntent  json.RawMessage `json:"payment_intent"`
	Refunds        struct {
		Data []struct {
			Reason string `json:"reason"`
		} `json:"data"`
	} `json:"refunds"`
}

// RefundReason returns the first refund's reason, defaulting to
// "requested_by_customer" when the list is empty or the reason is null.
func (e *ChargeRefundedEvent) RefundReason() string {
	if len(e.Refunds.Data) > 0 && e.Refunds.Data[0].Reason != "" {
		return e.Refunds.Data[0].Reason
	}
	return "requested_by_customer"
}

// SubscriptionEvent carries the fields read from customer.subscription.*
// event payloads.
type SubscriptionEvent struct {
	ID                 string            `json:"id"`
	Status             string            `json:"status"`
	Metadata           map[string]string `json:"metadata"`
	Customer           json.RawMessage   `json:"customer"`
	CurrentPeriodStart int64             `json:"current_period_start"`
	CurrentPeriodEnd   int64             `json:"current_period_end"`
	TrialEnd           int64             `json:"trial_end"`
	PauseCollection    *struct {
		Behavior string `json:"behavior"`
	} `json:"pause_collection"`
	Items struct {
		Data []struct {
			Price struct {
				ID        string `json:"id"`
				LookupKey string `json:"lookup_key"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

// LookupKey returns the first subscription item's price lookup key.
func (e *SubscriptionEvent) LookupKey() string {
	if len(e.Items.Data) > 0 {
		return e.Items.Data[0].Price.LookupKey
	}
	return ""
}

// PriceID returns the first subscription item's price id.
func (e *SubscriptionEvent) PriceID() string {
	if len(e.Items.Data) > 0 {
		return e.Items.Data[0].Price.ID
	}
	return ""
}

// InvoiceEvent carries the fields read from invoice.* event payloads.
type InvoiceEvent struct {
	Subscription        json.RawMessage   `json:"subscription"`
	Metadata            map[string]string `json:"metadata"`
	SubscriptionDetails *struct {
		Metadata map[string]string `json:"metadata"`
	} `json:"subscription_details"`
}

// extractID returns the id from a reference field that may arrive either as
// a plain string id or as an expanded object carrying an "id" key.
func extractID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.ID
	}
	return ""
}
