package subscription

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot is the derived view served to the dashboard. Nothing in it is stored.
type Snapshot struct {
	AccountID          uuid.UUID       `json:"account_id"`
	PlanID             string          `json:"plan_id,omitempty"`
	Interval           BillingInterval `json:"billing_interval,omitempty"`
	Status             Status          `json:"status"`
	EffectiveStatus    Status          `json:"effective_status"`
	Phase              Phase           `json:"phase,omitempty"`
	TrialEnd           *time.Time      `json:"trial_end,omitempty"`
	TrialDaysRemaining int             `json:"trial_days_remaining"`
	CurrentPeriodEnd   *time.Time      `json:"current_period_end,omitempty"`
	CanceledAt         *time.Time      `json:"canceled_at,omitempty"`
	AccessEnd          *time.Time      `json:"access_end,omitempty"`
}

// SnapshotAt builds the read model for sub at now.
func SnapshotAt(sub *Subscription, now time.Time) Snapshot {
	s := Snapshot{
		AccountID:          sub.AccountID,
		PlanID:             sub.PlanID,
		Interval:           sub.Interval,
		Status:             sub.Status,
		EffectiveStatus:    EffectiveStatus(sub, now),
		TrialEnd:           sub.TrialEnd,
		TrialDaysRemaining: sub.TrialDaysRemainingAt(now),
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		CanceledAt:         sub.CanceledAt,
	}
	if sub.TrialStart != nil {
		s.Phase = PhaseAt(*sub.TrialStart, now)
	}
	return s
}

// WithAccessEnd folds an account-side end date, such as a referral bonus, into a trial snapshot.
// TrialEnd keeps the ledger value. An end at or before the trial end changes nothing.
func (s Snapshot) WithAccessEnd(end *time.Time, now time.Time) Snapshot {
	if end == nil || s.Status != StatusTrialing {
		return s
	}
	if s.TrialEnd != nil && !end.After(*s.TrialEnd) {
		return s
	}

	e := *end
	s.AccessEnd = &e
	if now.After(e) {
		s.EffectiveStatus = StatusExpired
		s.TrialDaysRemaining = 0
		return s
	}
	s.EffectiveStatus = s.Status
	s.TrialDaysRemaining = daysUntil(e, now)
	return s
}
