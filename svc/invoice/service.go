package invoice

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmitrymomot/duebook/pkg/logger"
	"github.com/dmitrymomot/duebook/pkg/subscription"
)

const defaultLockTTL = 2 * time.Minute

// Service ages invoices and keeps customer outstanding totals in step with invoice status.
type Service struct {
	store   Store
	locker  Locker
	lockTTL time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates the invoice service. Panics if store is nil.
func NewService(store Store, opts ...Option) *Service {
	if store == nil {
		panic("invoice: Store is required")
	}
	s := &Service{
		store:   store,
		lockTTL: defaultLockTTL,
		logger:  slog.Default(),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("invoice"))
	return s
}

// Today returns the current UTC date at midnight.
func (s *Service) Today() time.Time {
	return subscription.StartOfDayUTC(s.now())
}

// SweepOverdue marks the account's Pending invoices due before today as Overdue
// and recomputes the outstanding total of every customer touched.
// Returns the number of invoices changed; a repeated sweep returns 0.
func (s *Service) SweepOverdue(ctx context.Context, accountID uuid.UUID) (int, error) {
	if accountID == uuid.Nil {
		return 0, ErrMissingAccountID
	}

	if s.locker != nil {
		release, ok, err := s.locker.TryLock(ctx, "sweep:"+accountID.String(), s.lockTTL)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "sweep lock unavailable, continuing unlocked",
				logger.AccountID(accountID), logger.Error(err))
		case !ok:
			return 0, ErrSweepInProgress
		default:
			defer func() {
				if err := release(context.WithoutCancel(ctx)); err != nil {
					s.logger.WarnContext(ctx, "failed to release sweep lock",
						logger.AccountID(accountID), logger.Error(err))
				}
			}()
		}
	}

	now := s.now()
	today := subscription.StartOfDayUTC(now)
	pending, err := s.store.ListPendingDueBefore(ctx, accountID, today)
	if err != nil {
		return 0, errors.Join(ErrFailedToSweep, err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	ids := make([]uuid.UUID, 0, len(pending))
	customers := make([]uuid.UUID, 0, len(pending))
	for _, inv := range pending {
		ids = append(ids, inv.ID)
		customers = append(customers, inv.CustomerID)
	}
	slices.SortFunc(customers, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	customers = slices.Compact(customers)

	updated, err := s.store.MarkOverdue(ctx, accountID, ids, now)
	if err != nil {
		return 0, errors.Join(ErrFailedToSweep, err)
	}

	var errs []error
	for _, customerID := range customers {
		if _, err := s.recompute(ctx, accountID, customerID, now); err != nil {
			s.logger.ErrorContext(ctx, "failed to recompute outstanding total",
				logger.AccountID(accountID),
				slog.String("customer_id", customerID.String()),
				logger.Error(err),
			)
			errs = append(errs, err)
		}
	}

	s.logger.InfoContext(ctx, "overdue sweep finished",
		logger.AccountID(accountID),
		logger.Count(updated),
		slog.Int("customers", len(customers)),
		slog.Time("as_of", today),
	)

	if len(errs) > 0 {
		return updated, errors.Join(append([]error{ErrFailedToRecompute}, errs...)...)
	}
	return updated, nil
}

// OverdueStats reports the account's Overdue invoices as of today without changing them.
// Days overdue count UTC calendar days from the due date. Items are ordered by
// days overdue descending, then due date, then invoice number.
func (s *Service) OverdueStats(ctx context.Context, accountID uuid.UUID) (OverdueReport, error) {
	if accountID == uuid.Nil {
		return OverdueReport{}, ErrMissingAccountID
	}

	today := s.Today()
	invoices, err := s.store.ListOverdue(ctx, accountID)
	if err != nil {
		return OverdueReport{}, errors.Join(ErrFailedToBuildReport, err)
	}

	report := OverdueReport{
		AccountID: accountID,
		AsOf:      today,
		Items:     make([]OverdueItem, 0, len(invoices)),
		Total:     decimal.Zero,
	}
	for _, inv := range invoices {
		report.Items = append(report.Items, OverdueItem{
			InvoiceID:   inv.ID,
			CustomerID:  inv.CustomerID,
			Number:      inv.Number,
			DueDate:     inv.DueDate,
			Amount:      inv.Amount,
			DaysOverdue: DaysOverdue(inv.DueDate, today),
		})
		report.Total = report.Total.Add(inv.Amount)
	}

	slices.SortFunc(report.Items, func(a, b OverdueItem) int {
		if c := cmp.Compare(b.DaysOverdue, a.DaysOverdue); c != 0 {
			return c
		}
		if c := a.DueDate.Compare(b.DueDate); c != 0 {
			return c
		}
		return strings.Compare(a.Number, b.Number)
	})

	return report, nil
}

// DaysOverdue is the number of UTC calendar days from due to today.
func DaysOverdue(due, today time.Time) int {
	return subscription.DaysBetween(due, today)
}

// RecordPayment marks an invoice Paid and recomputes its customer's outstanding total.
// A Paid invoice is rejected with ErrInvoiceAlreadyPaid.
func (s *Service) RecordPayment(ctx context.Context, accountID, invoiceID uuid.UUID) (*Invoice, error) {
	if accountID == uuid.Nil {
		return nil, ErrMissingAccountID
	}
	if invoiceID == uuid.Nil {
		return nil, ErrMissingInvoiceID
	}

	inv, err := s.store.GetInvoice(ctx, accountID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Status == StatusPaid {
		return nil, ErrInvoiceAlreadyPaid
	}

	paidAt := s.now()
	if err := s.store.MarkPaid(ctx, accountID, invoiceID, paidAt); err != nil {
		if errors.Is(err, ErrInvoiceAlreadyPaid) || errors.Is(err, ErrInvoiceNotFound) {
			return nil, err
		}
		return nil, errors.Join(ErrFailedToRecordPay, err)
	}
	inv.Status = StatusPaid
	inv.PaidAt = &paidAt
	inv.UpdatedAt = paidAt

	if _, err := s.recompute(ctx, accountID, inv.CustomerID, paidAt); err != nil {
		// payment is stored; the next sweep or payment reconciles the total
		s.logger.ErrorContext(ctx, "failed to recompute outstanding total after payment",
			logger.AccountID(accountID),
			logger.InvoiceID(invoiceID),
			logger.Error(err),
		)
	}

	s.logger.InfoContext(ctx, "invoice paid",
		logger.AccountID(accountID),
		logger.InvoiceID(invoiceID),
		slog.String("amount", inv.Amount.StringFixed(2)),
	)
	return inv, nil
}

func (s *Service) recompute(ctx context.Context, accountID, customerID uuid.UUID, at time.Time) (decimal.Decimal, error) {
	total, err := s.store.SumUnpaid(ctx, accountID, customerID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum unpaid for customer %s: %w", customerID, err)
	}
	if err := s.store.SetOutstanding(ctx, accountID, customerID, total, at); err != nil {
		return decimal.Zero, fmt.Errorf("set outstanding for customer %s: %w", customerID, err)
	}
	return total, nil
}
