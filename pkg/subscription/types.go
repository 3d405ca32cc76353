package subscription

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the persisted state of a subscription.
type Status string

const (
	StatusTrialing Status = "trialing"
	StatusActive   Status = "active"
	StatusPastDue  Status = "past_due"
	StatusCanceled Status = "canceled"
	StatusExpired  Status = "expired" // derived on read, never written by the ledger
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusTrialing, StatusActive, StatusPastDue, StatusCanceled, StatusExpired:
		return true
	}
	return false
}

// BillingInterval represents the billing frequency chosen at checkout.
type BillingInterval string

const (
	BillingIntervalNone    BillingInterval = "" // no purchase yet
	BillingIntervalMonthly BillingInterval = "monthly"
	BillingIntervalYearly  BillingInterval = "yearly"
)

// ParseBillingInterval normalizes interval names used by checkout forms and gateway metadata.
func ParseBillingInterval(s string) (BillingInterval, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "monthly", "month":
		return BillingIntervalMonthly, nil
	case "yearly", "year", "annual", "annually":
		return BillingIntervalYearly, nil
	}
	return BillingIntervalNone, fmt.Errorf("%w: %q", ErrInvalidInterval, s)
}

// PeriodEnd returns the end of a billing period starting at start.
// Calendar arithmetic is used, so a monthly period from Jan 31 ends on Mar 2/3.
func (i BillingInterval) PeriodEnd(start time.Time) (time.Time, error) {
	switch i {
	case BillingIntervalMonthly:
		return start.AddDate(0, 1, 0), nil
	case BillingIntervalYearly:
		return start.AddDate(1, 0, 0), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidInterval, string(i))
}

// Phase is the referral/conversion funnel stage, derived from days since trial start.
type Phase string

const (
	PhaseTrial      Phase = "trial"
	PhaseConversion Phase = "conversion"
	PhaseRecovery   Phase = "recovery"
)

// Event is a ledger input that may move a subscription between statuses.
type Event string

const (
	EventChargeSucceeded Event = "charge_succeeded"
	EventPaymentFailed   Event = "payment_failed"
	EventCanceled        Event = "canceled"
)
