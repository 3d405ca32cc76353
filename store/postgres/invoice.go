package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/dmitrymomot/duebook/pkg/pg"
	"github.com/dmitrymomot/duebook/svc/invoice"
)

// Amounts cross the wire as text so numeric precision is kept exactly.
const invoiceColumns = `id, account_id, customer_id, number, issue_date, due_date, amount::text,
	status, paid_at, created_at, updated_at`

// InvoiceStore implements invoice.Store.
type InvoiceStore struct {
	db DB
}

// NewInvoiceStore creates the store. Panics if db is nil.
func NewInvoiceStore(db DB) *InvoiceStore {
	if db == nil {
		panic("postgres: DB is required")
	}
	return &InvoiceStore{db: db}
}

func scanInvoice(row pgx.Row) (invoice.Invoice, error) {
	var (
		inv    invoice.Invoice
		amount string
	)
	err := row.Scan(&inv.ID, &inv.AccountID, &inv.CustomerID, &inv.Number, &inv.IssueDate, &inv.DueDate,
		&amount, &inv.Status, &inv.PaidAt, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return inv, err
	}
	inv.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return inv, fmt.Errorf("parse amount of invoice %s: %w", inv.ID, err)
	}
	return inv, nil
}

func (s *InvoiceStore) list(ctx context.Context, sql string, args ...any) ([]invoice.Invoice, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}
	defer rows.Close()

	var out []invoice.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoices: %w", err)
	}
	return out, nil
}

func (s *InvoiceStore) ListPendingDueBefore(ctx context.Context, accountID uuid.UUID, day time.Time) ([]invoice.Invoice, error) {
	return s.list(ctx, `
		SELECT `+invoiceColumns+` FROM invoices
		WHERE account_id = $1 AND status = 'Pending' AND due_date < $2::date
		ORDER BY due_date, id`, accountID, day)
}

func (s *InvoiceStore) MarkOverdue(ctx context.Context, accountID uuid.UUID, ids []uuid.UUID, at time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE invoices SET status = 'Overdue', updated_at = $3
		WHERE account_id = $1 AND id = ANY($2) AND status = 'Pending'`, accountID, ids, at)
	if err != nil {
		return 0, fmt.Errorf("mark invoices overdue: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *InvoiceStore) ListOverdue(ctx context.Context, accountID uuid.UUID) ([]invoice.Invoice, error) {
	return s.list(ctx, `
		SELECT `+invoiceColumns+` FROM invoices
		WHERE account_id = $1 AND status = 'Overdue'
		ORDER BY due_date, id`, accountID)
}

func (s *InvoiceStore) SumUnpaid(ctx context.Context, accountID, customerID uuid.UUID) (decimal.Decimal, error) {
	var total string
	err := s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)::text FROM invoices
		WHERE account_id = $1 AND customer_id = $2 AND status <> 'Paid'`, accountID, customerID,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum unpaid invoices: %w", err)
	}
	return decimal.NewFromString(total)
}

func (s *InvoiceStore) SetOutstanding(ctx context.Context, accountID, customerID uuid.UUID, total decimal.Decimal, at time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE customers SET outstanding_total = $3::numeric, updated_at = $4
		WHERE account_id = $1 AND id = $2`, accountID, customerID, total.String(), at)
	if err != nil {
		return fmt.Errorf("set outstanding total: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return invoice.ErrCustomerNotFound
	}
	return nil
}

func (s *InvoiceStore) GetInvoice(ctx context.Context, accountID, id uuid.UUID) (*invoice.Invoice, error) {
	inv, err := scanInvoice(s.db.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE account_id = $1 AND id = $2`, accountID, id))
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, invoice.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return &inv, nil
}

func (s *InvoiceStore) MarkPaid(ctx context.Context, accountID, id uuid.UUID, paidAt time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE invoices SET status = 'Paid', paid_at = $3, updated_at = $3
		WHERE account_id = $1 AND id = $2 AND status <> 'Paid'`, accountID, id, paidAt)
	if err != nil {
		return fmt.Errorf("mark invoice paid: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	if _, err := s.GetInvoice(ctx, accountID, id); err != nil {
		return err
	}
	return invoice.ErrInvoiceAlreadyPaid
}

func (s *InvoiceStore) AccountsWithPending(ctx context.Context, day time.Time) ([]uuid.UUID, error) {
	rows, err := s.db.Query(ctx, `
		SELECT DISTINCT account_id FROM invoices
		WHERE status = 'Pending' AND due_date < $1::date
		ORDER BY account_id`, day)
	if err != nil {
		return nil, fmt.Errorf("list accounts with pending invoices: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("scan account ids: %w", err)
	}
	return ids, nil
}

// CreateCustomer inserts a customer with a zero outstanding total.
func (s *InvoiceStore) CreateCustomer(ctx context.Context, c invoice.Customer) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO customers (id, account_id, name, contact, address)
		VALUES ($1, $2, $3, $4, $5)`, c.ID, c.AccountID, c.Name, c.Contact, c.Address)
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

// Customer returns a customer owned by accountID.
func (s *InvoiceStore) Customer(ctx context.Context, accountID, id uuid.UUID) (invoice.Customer, error) {
	var (
		c     invoice.Customer
		total string
	)
	err := s.db.QueryRow(ctx, `
		SELECT id, account_id, name, contact, address, outstanding_total::text, updated_at
		FROM customers WHERE account_id = $1 AND id = $2`, accountID, id,
	).Scan(&c.ID, &c.AccountID, &c.Name, &c.Contact, &c.Address, &total, &c.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return c, invoice.ErrCustomerNotFound
		}
		return c, fmt.Errorf("get customer: %w", err)
	}
	c.OutstandingTotal, err = decimal.NewFromString(total)
	return c, err
}

// CreateInvoice inserts an invoice as given.
func (s *InvoiceStore) CreateInvoice(ctx context.Context, inv invoice.Invoice) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO invoices (id, account_id, customer_id, number, issue_date, due_date, amount, status, paid_at)
		VALUES ($1, $2, $3, $4, $5::date, $6::date, $7::numeric, $8, $9)`,
		inv.ID, inv.AccountID, inv.CustomerID, inv.Number, inv.IssueDate, inv.DueDate,
		inv.Amount.String(), inv.Status, inv.PaidAt)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

var _ invoice.Store = (*InvoiceStore)(nil)
