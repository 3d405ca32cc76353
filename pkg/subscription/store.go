package subscription

import (
	"context"

	"github.com/google/uuid"
)

// Store defines the interface for subscription persistence.
// Each account has exactly one subscription, so AccountID serves as the primary key.
type Store interface {
	// Get retrieves a subscription by account ID.
	// Returns ErrSubscriptionNotFound if no subscription exists.
	Get(ctx context.Context, accountID uuid.UUID) (*Subscription, error)

	// GetByCustomerCode retrieves a subscription by the gateway customer code.
	// Returns ErrSubscriptionNotFound if nothing matches.
	GetByCustomerCode(ctx context.Context, customerCode string) (*Subscription, error)

	// Create inserts a new subscription.
	// Returns ErrSubscriptionAlreadyExists if the account already has one.
	Create(ctx context.Context, sub *Subscription) error

	// Upsert inserts or replaces the billing fields of the account's subscription.
	// Trial bounds of an existing row are never overwritten.
	Upsert(ctx context.Context, sub *Subscription) error

	// Save updates an existing subscription.
	Save(ctx context.Context, sub *Subscription) error
}
