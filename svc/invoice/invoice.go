package invoice

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an invoice.
// Pending moves to Overdue by date, Pending or Overdue move to Paid by payment,
// and Paid is final.
type Status string

const (
	StatusPending Status = "Pending"
	StatusPaid    Status = "Paid"
	StatusOverdue Status = "Overdue"
)

// Unpaid reports whether the status counts toward a customer's outstanding total.
func (s Status) Unpaid() bool {
	return s != StatusPaid
}

// Invoice is a bill issued by an account to one of its customers.
type Invoice struct {
	ID         uuid.UUID       `json:"id"`
	AccountID  uuid.UUID       `json:"account_id"`
	CustomerID uuid.UUID       `json:"customer_id"`
	Number     string          `json:"number"`
	IssueDate  time.Time       `json:"issue_date"`
	DueDate    time.Time       `json:"due_date"`
	Amount     decimal.Decimal `json:"amount"`
	Status     Status          `json:"status"`
	PaidAt     *time.Time      `json:"paid_at,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Customer belongs to one account. OutstandingTotal is derived from the
// customer's unpaid invoices and is rewritten after every status change.
type Customer struct {
	ID               uuid.UUID       `json:"id"`
	AccountID        uuid.UUID       `json:"account_id"`
	Name             string          `json:"name"`
	Contact          string          `json:"contact,omitempty"`
	Address          string          `json:"address,omitempty"`
	OutstandingTotal decimal.Decimal `json:"outstanding_total"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// OverdueItem is one row of the overdue report.
type OverdueItem struct {
	InvoiceID   uuid.UUID       `json:"invoice_id"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	Number      string          `json:"number"`
	DueDate     time.Time       `json:"due_date"`
	Amount      decimal.Decimal `json:"amount"`
	DaysOverdue int             `json:"days_overdue"`
}

// OverdueReport lists overdue invoices, most overdue first.
type OverdueReport struct {
	AccountID uuid.UUID       `json:"account_id"`
	AsOf      time.Time       `json:"as_of"`
	Items     []OverdueItem   `json:"items"`
	Total     decimal.Decimal `json:"total"`
}
