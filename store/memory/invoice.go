package memory

import (
	"bytes"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmitrymomot/duebook/svc/invoice"
)

// InvoiceStore implements invoice.Store.
type InvoiceStore struct {
	mu        sync.RWMutex
	invoices  map[uuid.UUID]invoice.Invoice
	customers map[uuid.UUID]invoice.Customer
}

// NewInvoiceStore creates an empty store.
func NewInvoiceStore() *InvoiceStore {
	return &InvoiceStore{
		invoices:  make(map[uuid.UUID]invoice.Invoice),
		customers: make(map[uuid.UUID]invoice.Customer),
	}
}

// PutCustomer inserts or replaces a customer.
func (s *InvoiceStore) PutCustomer(c invoice.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[c.ID] = c
}

// PutInvoice inserts or replaces an invoice.
func (s *InvoiceStore) PutInvoice(inv invoice.Invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices[inv.ID] = cloneInvoice(inv)
}

// Customer returns a stored customer.
func (s *InvoiceStore) Customer(id uuid.UUID) (invoice.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[id]
	if !ok {
		return invoice.Customer{}, invoice.ErrCustomerNotFound
	}
	return c, nil
}

func (s *InvoiceStore) ListPendingDueBefore(_ context.Context, accountID uuid.UUID, day time.Time) ([]invoice.Invoice, error) {
	return s.filter(func(inv invoice.Invoice) bool {
		return inv.AccountID == accountID && inv.Status == invoice.StatusPending && inv.DueDate.Before(day)
	}), nil
}

func (s *InvoiceStore) MarkOverdue(_ context.Context, accountID uuid.UUID, ids []uuid.UUID, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, id := range ids {
		inv, ok := s.invoices[id]
		if !ok || inv.AccountID != accountID || inv.Status != invoice.StatusPending {
			continue
		}
		inv.Status = invoice.StatusOverdue
		inv.UpdatedAt = at
		s.invoices[id] = inv
		n++
	}
	return n, nil
}

func (s *InvoiceStore) ListOverdue(_ context.Context, accountID uuid.UUID) ([]invoice.Invoice, error) {
	return s.filter(func(inv invoice.Invoice) bool {
		return inv.AccountID == accountID && inv.Status == invoice.StatusOverdue
	}), nil
}

func (s *InvoiceStore) SumUnpaid(_ context.Context, accountID, customerID uuid.UUID) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, inv := range s.invoices {
		if inv.AccountID == accountID && inv.CustomerID == customerID && inv.Status.Unpaid() {
			total = total.Add(inv.Amount)
		}
	}
	return total, nil
}

func (s *InvoiceStore) SetOutstanding(_ context.Context, accountID, customerID uuid.UUID, total decimal.Decimal, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.customers[customerID]
	if !ok || c.AccountID != accountID {
		return invoice.ErrCustomerNotFound
	}
	c.OutstandingTotal = total
	c.UpdatedAt = at
	s.customers[customerID] = c
	return nil
}

func (s *InvoiceStore) GetInvoice(_ context.Context, accountID, id uuid.UUID) (*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invoices[id]
	if !ok || inv.AccountID != accountID {
		return nil, invoice.ErrInvoiceNotFound
	}
	inv = cloneInvoice(inv)
	return &inv, nil
}

func (s *InvoiceStore) MarkPaid(_ context.Context, accountID, id uuid.UUID, paidAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[id]
	if !ok || inv.AccountID != accountID {
		return invoice.ErrInvoiceNotFound
	}
	if inv.Status == invoice.StatusPaid {
		return invoice.ErrInvoiceAlreadyPaid
	}
	inv.Status = invoice.StatusPaid
	inv.PaidAt = &paidAt
	inv.UpdatedAt = paidAt
	s.invoices[id] = inv
	return nil
}

func (s *InvoiceStore) AccountsWithPending(_ context.Context, day time.Time) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []uuid.UUID
	for _, inv := range s.invoices {
		if inv.Status == invoice.StatusPending && inv.DueDate.Before(day) {
			out = append(out, inv.AccountID)
		}
	}
	slices.SortFunc(out, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	return slices.Compact(out), nil
}

func (s *InvoiceStore) filter(match func(invoice.Invoice) bool) []invoice.Invoice {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []invoice.Invoice
	for _, inv := range s.invoices {
		if match(inv) {
			out = append(out, cloneInvoice(inv))
		}
	}
	slices.SortFunc(out, func(a, b invoice.Invoice) int {
		if c := a.DueDate.Compare(b.DueDate); c != 0 {
			return c
		}
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	return out
}

var _ invoice.Store = (*InvoiceStore)(nil)
