package invoice

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is the persistence port for invoices and customers.
// Every query is scoped to the owning account.
type Store interface {
	// ListPendingDueBefore returns Pending invoices with due date strictly before day.
	ListPendingDueBefore(ctx context.Context, accountID uuid.UUID, day time.Time) ([]Invoice, error)

	// MarkOverdue moves the listed invoices to Overdue in one batch, stamping at. Rows no
	// longer Pending are skipped. Returns the number of rows changed.
	MarkOverdue(ctx context.Context, accountID uuid.UUID, ids []uuid.UUID, at time.Time) (int, error)

	ListOverdue(ctx context.Context, accountID uuid.UUID) ([]Invoice, error)

	// SumUnpaid sums the amounts of the customer's invoices that are not Paid.
	SumUnpaid(ctx context.Context, accountID, customerID uuid.UUID) (decimal.Decimal, error)

	SetOutstanding(ctx context.Context, accountID, customerID uuid.UUID, total decimal.Decimal, at time.Time) error

	// GetInvoice returns ErrInvoiceNotFound when the invoice is missing or owned by another account.
	GetInvoice(ctx context.Context, accountID, id uuid.UUID) (*Invoice, error)

	// MarkPaid returns ErrInvoiceAlreadyPaid when the row is already Paid.
	MarkPaid(ctx context.Context, accountID, id uuid.UUID, paidAt time.Time) error

	// AccountsWithPending lists accounts owning a Pending invoice due before day.
	AccountsWithPending(ctx context.Context, day time.Time) ([]uuid.UUID, error)
}

// Locker serializes sweeps of one account across processes.
// ok is false when another holder owns the key.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}

// DigestNotifier is told which invoices became overdue in a sweep.
type DigestNotifier interface {
	OverdueDigest(ctx context.Context, report OverdueReport) error
}
