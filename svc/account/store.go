package account

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/duebook/pkg/subscription"
)

// Store persists accounts and referrals.
type Store interface {
	// GetAccount returns ErrAccountNotFound when the id is unknown.
	GetAccount(ctx context.Context, id uuid.UUID) (*Account, error)

	// CreateAccount returns ErrAccountAlreadyExists for a duplicate id and
	// ErrReferralCodeTaken when the referral code collides.
	CreateAccount(ctx context.Context, acc *Account) error

	ReferralCodeExists(ctx context.Context, code string) (bool, error)

	// FindByReferralCode matches the code case-insensitively.
	// Returns ErrAccountNotFound when nothing matches.
	FindByReferralCode(ctx context.Context, code string) (*Account, error)

	LinkReferrer(ctx context.Context, accountID, referrerID uuid.UUID, at time.Time) error

	// CreateReferral returns ErrReferralExists when the pair is already recorded.
	CreateReferral(ctx context.Context, ref *Referral) error

	// IncrementReferralCount adds one in a single store-side statement and returns the new count.
	IncrementReferralCount(ctx context.Context, id uuid.UUID) (int, error)

	// ExtendSubscription sets the end date and status together.
	ExtendSubscription(ctx context.Context, id uuid.UUID, end time.Time, status Status, at time.Time) error

	// UpdatePlanStatus sets the status. The end date only moves later; a nil end keeps the stored one.
	UpdatePlanStatus(ctx context.Context, id uuid.UUID, status Status, end *time.Time, at time.Time) error
}

// Ledger is the part of the subscription ledger provisioning drives.
type Ledger interface {
	StartTrial(ctx context.Context, accountID uuid.UUID, start time.Time, days int) (*subscription.Subscription, error)
	Snapshot(ctx context.Context, accountID uuid.UUID) (subscription.Snapshot, error)
}

// Notifier is told about completed referrals. Implementations must not block for long.
type Notifier interface {
	ReferralRewarded(ctx context.Context, referrer, referred *Account, newEnd time.Time) error
}

// StatusFromSubscription maps a ledger status to the account status mirror.
func StatusFromSubscription(s subscription.Status) Status {
	switch s {
	case subscription.StatusActive:
		return StatusActive
	case subscription.StatusPastDue:
		return StatusPastDue
	case subscription.StatusCanceled:
		return StatusCanceled
	case subscription.StatusExpired:
		return StatusExpired
	default:
		return StatusFreeTrial
	}
}
