package subscription

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/duebook/pkg/logger"
	"github.com/dmitrymomot/duebook/pkg/statemachine"
)

// ChargeSuccess is the normalized payload of a successful gateway charge.
type ChargeSuccess struct {
	AccountID        uuid.UUID
	PlanID           string
	Interval         BillingInterval
	CustomerCode     string
	SubscriptionCode string
	EmailToken       string
	PaidAt           time.Time // zero means "now"
}

// Ledger owns subscription status and period bounds.
// Every transition is idempotent under webhook redelivery.
type Ledger struct {
	store  Store
	plans  map[string]Plan
	logger *slog.Logger
	now    func() time.Time
}

// NewLedger loads the plan catalog and returns a ready ledger.
// Panics if store or src is nil to fail fast during initialization.
func NewLedger(ctx context.Context, store Store, src PlansSource, opts ...LedgerOption) (*Ledger, error) {
	if store == nil {
		panic("subscription: Store is required")
	}
	if src == nil {
		panic("subscription: PlansSource is required")
	}

	plans, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	if err := validatePlans(plans); err != nil {
		return nil, err
	}

	l := &Ledger{
		store:  store,
		plans:  plans,
		logger: slog.Default(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With(logger.Component("subscription.ledger"))

	return l, nil
}

// Plan returns the catalog entry for planID.
func (l *Ledger) Plan(planID string) (Plan, error) {
	p, ok := l.plans[planID]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %s", ErrPlanNotFound, planID)
	}
	return p, nil
}

// Plans returns the public catalog ordered by monthly price.
func (l *Ledger) Plans() []Plan {
	out := make([]Plan, 0, len(l.plans))
	for _, p := range l.plans {
		if p.Public {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b Plan) int {
		if c := cmp.Compare(a.MonthlyPrice, b.MonthlyPrice); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Get returns the stored subscription for an account.
func (l *Ledger) Get(ctx context.Context, accountID uuid.UUID) (*Subscription, error) {
	if accountID == uuid.Nil {
		return nil, ErrMissingAccountID
	}
	return l.store.Get(ctx, accountID)
}

// GetByCustomerCode returns the subscription linked to a gateway customer.
func (l *Ledger) GetByCustomerCode(ctx context.Context, customerCode string) (*Subscription, error) {
	return l.byCustomerCode(ctx, customerCode)
}

// StartTrial inserts the trialing subscription for a new account.
// Trial start is written at most once: when a row already exists it is returned unchanged.
func (l *Ledger) StartTrial(ctx context.Context, accountID uuid.UUID, start time.Time, days int) (*Subscription, error) {
	if accountID == uuid.Nil {
		return nil, ErrMissingAccountID
	}
	if days <= 0 {
		return nil, ErrInvalidTrialLength
	}

	start = start.UTC()
	end := start.AddDate(0, 0, days)
	sub := &Subscription{
		AccountID:  accountID,
		Status:     StatusTrialing,
		TrialStart: &start,
		TrialEnd:   &end,
		CreatedAt:  start,
		UpdatedAt:  start,
	}

	if err := l.store.Create(ctx, sub); err != nil {
		if errors.Is(err, ErrSubscriptionAlreadyExists) {
			return l.store.Get(ctx, accountID)
		}
		return nil, fmt.Errorf("failed to start trial: %w", err)
	}

	l.logger.InfoContext(ctx, "trial started",
		logger.AccountID(accountID),
		slog.Int("trial_days", days),
		slog.Time("trial_end", end),
	)
	return sub, nil
}

// ApplyChargeSuccess activates the account's subscription.
// Period bounds are derived from the charge's paid_at and overwrite any previous
// bounds, so replaying the same event converges instead of extending twice.
// Unknown plans and intervals are rejected before any write.
func (l *Ledger) ApplyChargeSuccess(ctx context.Context, ev ChargeSuccess) (*Subscription, error) {
	if ev.AccountID == uuid.Nil {
		return nil, ErrMissingAccountID
	}
	if _, err := l.Plan(ev.PlanID); err != nil {
		return nil, err
	}

	start := ev.PaidAt.UTC()
	if ev.PaidAt.IsZero() {
		start = l.now()
	}
	end, err := ev.Interval.PeriodEnd(start)
	if err != nil {
		return nil, err
	}

	now := l.now()
	sub, err := l.store.Get(ctx, ev.AccountID)
	switch {
	case errors.Is(err, ErrSubscriptionNotFound):
		sub = &Subscription{AccountID: ev.AccountID, CreatedAt: now}
	case err != nil:
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}

	next, err := transitions.Next(ctx, sub.Status, EventChargeSucceeded, nil)
	if err != nil {
		return nil, errors.Join(ErrInvalidSubscriptionState, err)
	}

	sub.Status = next
	sub.PlanID = ev.PlanID
	sub.Interval = ev.Interval
	sub.CurrentPeriodStart = &start
	sub.CurrentPeriodEnd = &end
	sub.CanceledAt = nil
	if ev.CustomerCode != "" {
		sub.ProviderCustomerCode = ev.CustomerCode
	}
	if ev.SubscriptionCode != "" {
		sub.ProviderSubscriptionCode = ev.SubscriptionCode
	}
	if ev.EmailToken != "" {
		sub.ProviderEmailToken = ev.EmailToken
	}
	sub.UpdatedAt = now

	if err := l.store.Upsert(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to upsert subscription: %w", err)
	}

	l.logger.InfoContext(ctx, "subscription activated",
		logger.AccountID(ev.AccountID),
		slog.String("plan_id", ev.PlanID),
		slog.String("interval", string(ev.Interval)),
		slog.Time("period_end", end),
	)
	return sub, nil
}

// ApplyPaymentFailed moves an active subscription to past_due.
// Any other status is left untouched and returned without error.
func (l *Ledger) ApplyPaymentFailed(ctx context.Context, customerCode string) (*Subscription, error) {
	sub, err := l.byCustomerCode(ctx, customerCode)
	if err != nil {
		return nil, err
	}

	next, err := transitions.Next(ctx, sub.Status, EventPaymentFailed, nil)
	if err != nil {
		if errors.Is(err, statemachine.ErrNoTransition) {
			l.logger.DebugContext(ctx, "payment failure ignored",
				logger.AccountID(sub.AccountID),
				slog.String("status", string(sub.Status)),
			)
			return sub, nil
		}
		return nil, errors.Join(ErrInvalidSubscriptionState, err)
	}

	sub.Status = next
	sub.UpdatedAt = l.now()
	if err := l.store.Save(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to update subscription status: %w", err)
	}

	l.logger.InfoContext(ctx, "subscription past due", logger.AccountID(sub.AccountID))
	return sub, nil
}

// ApplyCancellation cancels the subscription matched by the gateway customer code.
// The first cancellation time is kept on replays.
func (l *Ledger) ApplyCancellation(ctx context.Context, customerCode, subscriptionCode string) (*Subscription, error) {
	sub, err := l.byCustomerCode(ctx, customerCode)
	if err != nil {
		return nil, err
	}

	next, err := transitions.Next(ctx, sub.Status, EventCanceled, nil)
	if err != nil {
		return nil, errors.Join(ErrInvalidSubscriptionState, err)
	}

	now := l.now()
	if sub.CanceledAt == nil || sub.Status != StatusCanceled {
		sub.CanceledAt = &now
	}
	sub.Status = next
	if subscriptionCode != "" {
		sub.ProviderSubscriptionCode = subscriptionCode
	}
	sub.UpdatedAt = now

	if err := l.store.Save(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to cancel subscription: %w", err)
	}

	l.logger.InfoContext(ctx, "subscription canceled", logger.AccountID(sub.AccountID))
	return sub, nil
}

// Snapshot returns the read model for an account at the ledger's current time.
func (l *Ledger) Snapshot(ctx context.Context, accountID uuid.UUID) (Snapshot, error) {
	sub, err := l.Get(ctx, accountID)
	if err != nil {
		return Snapshot{}, err
	}
	return SnapshotAt(sub, l.now()), nil
}

func (l *Ledger) byCustomerCode(ctx context.Context, customerCode string) (*Subscription, error) {
	customerCode = strings.TrimSpace(customerCode)
	if customerCode == "" {
		return nil, ErrMissingCustomerCode
	}
	return l.store.GetByCustomerCode(ctx, customerCode)
}
