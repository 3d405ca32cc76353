package paystack

import (
	"bytes"
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Event names sent by Paystack.
const (
	EventChargeSuccess        = "charge.success"
	EventSubscriptionCreate   = "subscription.create"
	EventSubscriptionDisable  = "subscription.disable"
	EventInvoicePaymentFailed = "invoice.payment_failed"
)

// Event is a decoded webhook. The set of implementations is closed:
// ChargeSuccess, SubscriptionCreate, SubscriptionDisable,
// InvoicePaymentFailed and Ignored.
type Event interface {
	Name() string
	event()
}

// ChargeSuccess is a completed charge.
type ChargeSuccess struct {
	Reference        string
	Amount           int64
	Currency         string
	PaidAt           time.Time
	CustomerCode     string
	CustomerEmail    string
	PlanCode         string
	SubscriptionCode string
	Metadata         Metadata
}

// SubscriptionCreate is a new recurring subscription.
type SubscriptionCreate struct {
	SubscriptionCode string
	EmailToken       string
	CustomerCode     string
	PlanCode         string
}

// SubscriptionDisable is a cancelled subscription.
type SubscriptionDisable struct {
	SubscriptionCode string
	CustomerCode     string
}

// InvoicePaymentFailed is a failed recurring charge.
type InvoicePaymentFailed struct {
	SubscriptionCode string
	CustomerCode     string
}

// Ignored is any event name not listed above.
type Ignored struct {
	Event string
}

func (ChargeSuccess) Name() string        { return EventChargeSuccess }
func (SubscriptionCreate) Name() string   { return EventSubscriptionCreate }
func (SubscriptionDisable) Name() string  { return EventSubscriptionDisable }
func (InvoicePaymentFailed) Name() string { return EventInvoicePaymentFailed }
func (e Ignored) Name() string            { return e.Event }

func (ChargeSuccess) event()        {}
func (SubscriptionCreate) event()   {}
func (SubscriptionDisable) event()  {}
func (InvoicePaymentFailed) event() {}
func (Ignored) event()              {}

// Metadata is the checkout metadata echoed back on charge events.
type Metadata struct {
	UserID          string `json:"user_id,omitempty"`
	PlanID          string `json:"plan_id,omitempty"`
	BillingInterval string `json:"billing_interval,omitempty"`
}

// UnmarshalJSON accepts the metadata object or the same object encoded as a
// JSON string, which Paystack echoes when the checkout sent a string.
func (m *Metadata) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			return nil
		}
		b = []byte(s)
	}
	type plain Metadata
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*m = Metadata(p)
	return nil
}

type rawEvent struct {
	Event string   `json:"event"`
	Data  *rawData `json:"data"`
}

type rawData struct {
	Reference        string       `json:"reference"`
	Amount           int64        `json:"amount"`
	Currency         string       `json:"currency"`
	PaidAt           string       `json:"paid_at"`
	PaidAtAlt        string       `json:"paidAt"`
	Metadata         Metadata     `json:"metadata"`
	Customer         *rawCustomer `json:"customer"`
	Plan             *rawPlan     `json:"plan"`
	SubscriptionCode string       `json:"subscription_code"`
	EmailToken       string       `json:"email_token"`
	Subscription     *rawSubRef   `json:"subscription"`
}

type rawCustomer struct {
	CustomerCode string `json:"customer_code"`
	Email        string `json:"email"`
}

type rawPlan struct {
	PlanCode string `json:"plan_code"`
}

type rawSubRef struct {
	SubscriptionCode string `json:"subscription_code"`
}

func (d *rawData) customerCode() string {
	if d.Customer == nil {
		return ""
	}
	return d.Customer.CustomerCode
}

func (d *rawData) planCode() string {
	if d.Plan == nil {
		return ""
	}
	return d.Plan.PlanCode
}

func (d *rawData) subscriptionCode() string {
	if d.SubscriptionCode != "" {
		return d.SubscriptionCode
	}
	if d.Subscription != nil {
		return d.Subscription.SubscriptionCode
	}
	return ""
}

// ParseEvent decodes a verified webhook body into its Event variant.
// Unknown event names decode to Ignored without error.
func ParseEvent(payload []byte) (Event, error) {
	var raw rawEvent
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, errors.Join(ErrInvalidPayload, err)
	}
	if strings.TrimSpace(raw.Event) == "" {
		return nil, fmt.Errorf("%w: missing event name", ErrInvalidPayload)
	}

	data := raw.Data
	if data == nil {
		data = &rawData{}
	}

	switch raw.Event {
	case EventChargeSuccess:
		paidAt, err := parseTime(cmp.Or(data.PaidAt, data.PaidAtAlt))
		if err != nil {
			return nil, errors.Join(ErrInvalidPayload, err)
		}
		email := ""
		if data.Customer != nil {
			email = data.Customer.Email
		}
		return ChargeSuccess{
			Reference:        data.Reference,
			Amount:           data.Amount,
			Currency:         data.Currency,
			PaidAt:           paidAt,
			CustomerCode:     data.customerCode(),
			CustomerEmail:    email,
			PlanCode:         data.planCode(),
			SubscriptionCode: data.subscriptionCode(),
			Metadata:         data.Metadata,
		}, nil
	case EventSubscriptionCreate:
		return SubscriptionCreate{
			SubscriptionCode: data.subscriptionCode(),
			EmailToken:       data.EmailToken,
			CustomerCode:     data.customerCode(),
			PlanCode:         data.planCode(),
		}, nil
	case EventSubscriptionDisable:
		return SubscriptionDisable{
			SubscriptionCode: data.subscriptionCode(),
			CustomerCode:     data.customerCode(),
		}, nil
	case EventInvoicePaymentFailed:
		return InvoicePaymentFailed{
			SubscriptionCode: data.subscriptionCode(),
			CustomerCode:     data.customerCode(),
		}, nil
	default:
		return Ignored{Event: raw.Event}, nil
	}
}

// parseTime reads RFC 3339 timestamps; an empty value is the zero time.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("paid_at: %w", err)
	}
	return t.UTC(), nil
}
