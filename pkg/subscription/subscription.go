package subscription

import (
	"time"

	"github.com/google/uuid"
)

// Subscription is the per-account billing record. AccountID is the key:
// each account has at most one subscription row, superseded in place.
type Subscription struct {
	AccountID                uuid.UUID
	PlanID                   string // empty until the first successful charge
	Interval                 BillingInterval
	Status                   Status
	TrialStart               *time.Time // set once at provisioning
	TrialEnd                 *time.Time
	CurrentPeriodStart       *time.Time
	CurrentPeriodEnd         *time.Time
	CanceledAt               *time.Time
	ProviderCustomerCode     string
	ProviderSubscriptionCode string
	ProviderEmailToken       string
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// IsTrialing returns true if the stored status is trialing.
func (s *Subscription) IsTrialing() bool {
	return s.Status == StatusTrialing
}

// IsActive returns true if the subscription is active (paid).
func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive
}

// IsCanceled returns true if the subscription is canceled.
func (s *Subscription) IsCanceled() bool {
	return s.Status == StatusCanceled
}

// IsTrialExpiredAt reports whether a trialing subscription has passed its trial end.
func (s *Subscription) IsTrialExpiredAt(now time.Time) bool {
	if !s.IsTrialing() || s.TrialEnd == nil {
		return false
	}
	return now.After(*s.TrialEnd)
}

// TrialDaysRemainingAt returns whole days left in the trial at now, rounded up.
// Returns 0 if not trialing or the trial has ended.
func (s *Subscription) TrialDaysRemainingAt(now time.Time) int {
	if !s.IsTrialing() || s.TrialEnd == nil {
		return 0
	}
	return daysUntil(*s.TrialEnd, now)
}

// daysUntil returns whole days from now to end, rounded up. Zero once end has passed.
func daysUntil(end, now time.Time) int {
	remaining := end.Sub(now)
	if remaining <= 0 {
		return 0
	}

	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// EndsAt returns the date access ends: period end for paid subscriptions, trial end otherwise.
func (s *Subscription) EndsAt() *time.Time {
	if s.CurrentPeriodEnd != nil {
		return s.CurrentPeriodEnd
	}
	return s.TrialEnd
}
