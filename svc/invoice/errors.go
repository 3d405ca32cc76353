package invoice

import "errors"

var (
	ErrInvoiceNotFound     = errors.New("invoice not found")
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrInvoiceAlreadyPaid  = errors.New("invoice already paid")
	ErrMissingAccountID    = errors.New("account id is required")
	ErrMissingInvoiceID    = errors.New("invoice id is required")
	ErrSweepInProgress     = errors.New("overdue sweep already running for account")
	ErrFailedToSweep       = errors.New("failed to sweep overdue invoices")
	ErrFailedToRecompute   = errors.New("failed to recompute outstanding total")
	ErrFailedToRecordPay   = errors.New("failed to record payment")
	ErrFailedToBuildReport = errors.New("failed to build overdue report")
)
