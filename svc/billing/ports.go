package billing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/duebook/pkg/paystack"
	"github.com/dmitrymomot/duebook/pkg/subscription"
	"github.com/dmitrymomot/duebook/svc/account"
)

// Ledger is the subset of the subscription ledger driven by gateway events.
type Ledger interface {
	Plan(planID string) (subscription.Plan, error)
	GetByCustomerCode(ctx context.Context, customerCode string) (*subscription.Subscription, error)
	ApplyChargeSuccess(ctx context.Context, ev subscription.ChargeSuccess) (*subscription.Subscription, error)
	ApplyPaymentFailed(ctx context.Context, customerCode string) (*subscription.Subscription, error)
	ApplyCancellation(ctx context.Context, customerCode, subscriptionCode string) (*subscription.Subscription, error)
}

// Accounts mirrors subscription state onto accounts.
type Accounts interface {
	Get(ctx context.Context, id uuid.UUID) (*account.Account, error)
	SyncStatus(ctx context.Context, id uuid.UUID, status subscription.Status, end *time.Time) error
}

// Gateway starts hosted checkouts.
type Gateway interface {
	InitializeTransaction(ctx context.Context, req paystack.InitializeRequest) (*paystack.Transaction, error)
	Currency() string
}

// Archive stores raw webhook payloads.
type Archive interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

var (
	_ Ledger   = (*subscription.Ledger)(nil)
	_ Accounts = (*account.Service)(nil)
	_ Gateway  = (*paystack.Client)(nil)
)
