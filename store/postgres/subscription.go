package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/duebook/pkg/pg"
	"github.com/dmitrymomot/duebook/pkg/subscription"
)

const subscriptionColumns = `account_id, plan_id, billing_interval, status, trial_start, trial_end,
	current_period_start, current_period_end, canceled_at, provider_customer_code,
	provider_subscription_code, provider_email_token, created_at, updated_at`

// SubscriptionStore implements subscription.Store.
type SubscriptionStore struct {
	db DB
}

// NewSubscriptionStore creates the store. Panics if db is nil.
func NewSubscriptionStore(db DB) *SubscriptionStore {
	if db == nil {
		panic("postgres: DB is required")
	}
	return &SubscriptionStore{db: db}
}

func scanSubscription(row pgx.Row) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	err := row.Scan(&sub.AccountID, &sub.PlanID, &sub.Interval, &sub.Status, &sub.TrialStart, &sub.TrialEnd,
		&sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &sub.CanceledAt, &sub.ProviderCustomerCode,
		&sub.ProviderSubscriptionCode, &sub.ProviderEmailToken, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, subscription.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("scan subscription: %w", err)
	}
	return &sub, nil
}

func (s *SubscriptionStore) Get(ctx context.Context, accountID uuid.UUID) (*subscription.Subscription, error) {
	return scanSubscription(s.db.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE account_id = $1`, accountID))
}

func (s *SubscriptionStore) GetByCustomerCode(ctx context.Context, customerCode string) (*subscription.Subscription, error) {
	return scanSubscription(s.db.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE provider_customer_code = $1
		ORDER BY updated_at DESC LIMIT 1`, customerCode))
}

func (s *SubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		sub.AccountID, sub.PlanID, sub.Interval, sub.Status, sub.TrialStart, sub.TrialEnd,
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.CanceledAt, sub.ProviderCustomerCode,
		sub.ProviderSubscriptionCode, sub.ProviderEmailToken, sub.CreatedAt, sub.UpdatedAt,
	)
	switch {
	case err == nil:
		return nil
	case pg.IsDuplicateKeyOn(err, "subscriptions_pkey"):
		return subscription.ErrSubscriptionAlreadyExists
	}
	return fmt.Errorf("insert subscription: %w", err)
}

// Upsert never overwrites trial bounds or created_at of an existing row.
func (s *SubscriptionStore) Upsert(ctx context.Context, sub *subscription.Subscription) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (account_id) DO UPDATE SET
			plan_id = EXCLUDED.plan_id,
			billing_interval = EXCLUDED.billing_interval,
			status = EXCLUDED.status,
			current_period_start = EXCLUDED.current_period_start,
			current_period_end = EXCLUDED.current_period_end,
			canceled_at = EXCLUDED.canceled_at,
			provider_customer_code = EXCLUDED.provider_customer_code,
			provider_subscription_code = EXCLUDED.provider_subscription_code,
			provider_email_token = EXCLUDED.provider_email_token,
			updated_at = EXCLUDED.updated_at`,
		sub.AccountID, sub.PlanID, sub.Interval, sub.Status, sub.TrialStart, sub.TrialEnd,
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.CanceledAt, sub.ProviderCustomerCode,
		sub.ProviderSubscriptionCode, sub.ProviderEmailToken, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

// Save updates every mutable column. trial_start is write-once and is not touched.
func (s *SubscriptionStore) Save(ctx context.Context, sub *subscription.Subscription) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE subscriptions SET
			plan_id = $2,
			billing_interval = $3,
			status = $4,
			trial_end = $5,
			current_period_start = $6,
			current_period_end = $7,
			canceled_at = $8,
			provider_customer_code = $9,
			provider_subscription_code = $10,
			provider_email_token = $11,
			updated_at = $12
		WHERE account_id = $1`,
		sub.AccountID, sub.PlanID, sub.Interval, sub.Status, sub.TrialEnd,
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.CanceledAt, sub.ProviderCustomerCode,
		sub.ProviderSubscriptionCode, sub.ProviderEmailToken, sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return subscription.ErrSubscriptionNotFound
	}
	return nil
}

var _ subscription.Store = (*SubscriptionStore)(nil)
