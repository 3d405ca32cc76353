package postgres_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/duebook/pkg/pg"
	"github.com/dmitrymomot/duebook/pkg/subscription"
	"github.com/dmitrymomot/duebook/store/postgres"
	"github.com/dmitrymomot/duebook/svc/account"
	"github.com/dmitrymomot/duebook/svc/invoice"
)

var (
	poolOnce sync.Once
	pool     *pgxpool.Pool
	poolErr  error
)

// testPool connects once per package run and applies migrations.
// Tests are skipped unless PG_CONN_URL is set.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("PG_CONN_URL")
	if dsn == "" {
		t.Skip("PG_CONN_URL not set, skipping postgres integration test")
	}

	poolOnce.Do(func() {
		ctx := context.Background()
		cfg := pg.Config{ConnectionString: dsn, MaxOpenConns: 5, RetryAttempts: 1, MigrationsTable: "schema_migrations"}
		pool, poolErr = pg.Connect(ctx, cfg)
		if poolErr != nil {
			return
		}
		poolErr = pg.Migrate(ctx, pool, cfg, postgres.Migrations(), nil)
	})
	require.NoError(t, poolErr)
	return pool
}

func newAccount(t *testing.T, store *postgres.AccountStore, code string) *account.Account {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	acc := &account.Account{
		ID:           uuid.New(),
		Email:        "owner@example.com",
		ReferralCode: code,
		Status:       account.StatusFreeTrial,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, store.CreateAccount(context.Background(), acc))
	return acc
}

func uniqueCode() string {
	return "DB" + uuid.NewString()[:6]
}

func TestAccountStore(t *testing.T) {
	t.Parallel()
	db := testPool(t)
	store := postgres.NewAccountStore(db)
	ctx := context.Background()

	code := uniqueCode()
	referrer := newAccount(t, store, code)
	referred := newAccount(t, store, uniqueCode())

	t.Run("duplicates", func(t *testing.T) {
		dup := *referrer
		assert.ErrorIs(t, store.CreateAccount(ctx, &dup), account.ErrAccountAlreadyExists)

		clash := *referrer
		clash.ID = uuid.New()
		clash.ReferralCode = referrer.ReferralCode
		assert.ErrorIs(t, store.CreateAccount(ctx, &clash), account.ErrReferralCodeTaken)
	})

	t.Run("referral code lookup ignores case", func(t *testing.T) {
		exists, err := store.ReferralCodeExists(ctx, code)
		require.NoError(t, err)
		assert.True(t, exists)

		found, err := store.FindByReferralCode(ctx, " "+code+" ")
		require.NoError(t, err)
		assert.Equal(t, referrer.ID, found.ID)

		_, err = store.FindByReferralCode(ctx, "DBNOPE00")
		assert.ErrorIs(t, err, account.ErrAccountNotFound)
	})

	t.Run("referral bookkeeping", func(t *testing.T) {
		ref := &account.Referral{ID: uuid.New(), ReferrerID: referrer.ID, ReferredID: referred.ID, Status: account.ReferralCompleted, CreatedAt: time.Now()}
		require.NoError(t, store.CreateReferral(ctx, ref))
		ref.ID = uuid.New()
		assert.ErrorIs(t, store.CreateReferral(ctx, ref), account.ErrReferralExists)

		require.NoError(t, store.LinkReferrer(ctx, referred.ID, referrer.ID, time.Now()))

		var wg sync.WaitGroup
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.IncrementReferralCount(ctx, referrer.ID)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := store.GetAccount(ctx, referrer.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, got.ReferralCount)

		linked, err := store.GetAccount(ctx, referred.ID)
		require.NoError(t, err)
		require.NotNil(t, linked.ReferredBy)
		assert.Equal(t, referrer.ID, *linked.ReferredBy)
	})

	t.Run("status updates", func(t *testing.T) {
		end := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
		at := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
		require.NoError(t, store.ExtendSubscription(ctx, referrer.ID, end, account.StatusFreeTrial, at))
		require.NoError(t, store.UpdatePlanStatus(ctx, referrer.ID, account.StatusPastDue, nil, at))

		got, err := store.GetAccount(ctx, referrer.ID)
		require.NoError(t, err)
		assert.Equal(t, account.StatusPastDue, got.Status)
		require.NotNil(t, got.SubscriptionEndDate)
		assert.True(t, end.Equal(*got.SubscriptionEndDate), "nil end keeps the stored date")
		assert.True(t, at.Equal(got.UpdatedAt))

		earlier := end.AddDate(0, -1, 0)
		require.NoError(t, store.UpdatePlanStatus(ctx, referrer.ID, account.StatusActive, &earlier, at))
		got, err = store.GetAccount(ctx, referrer.ID)
		require.NoError(t, err)
		assert.True(t, end.Equal(*got.SubscriptionEndDate), "an earlier end never shortens access")

		later := end.AddDate(0, 1, 0)
		require.NoError(t, store.UpdatePlanStatus(ctx, referrer.ID, account.StatusActive, &later, at))
		got, err = store.GetAccount(ctx, referrer.ID)
		require.NoError(t, err)
		assert.True(t, later.Equal(*got.SubscriptionEndDate))

		assert.ErrorIs(t, store.UpdatePlanStatus(ctx, uuid.New(), account.StatusActive, nil, at), account.ErrAccountNotFound)
	})
}

func TestSubscriptionStore(t *testing.T) {
	t.Parallel()
	db := testPool(t)
	accounts := postgres.NewAccountStore(db)
	store := postgres.NewSubscriptionStore(db)
	ctx := context.Background()

	acc := newAccount(t, accounts, uniqueCode())
	now := time.Now().UTC().Truncate(time.Microsecond)
	trialEnd := now.AddDate(0, 0, 14)
	sub := &subscription.Subscription{
		AccountID: acc.ID, Status: subscription.StatusTrialing,
		TrialStart: &now, TrialEnd: &trialEnd, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, store.Create(ctx, sub))
	assert.ErrorIs(t, store.Create(ctx, sub), subscription.ErrSubscriptionAlreadyExists)

	periodEnd := now.AddDate(0, 1, 0)
	code := "CUS_" + acc.ID.String()[:8]
	require.NoError(t, store.Upsert(ctx, &subscription.Subscription{
		AccountID: acc.ID, PlanID: "PLN_basic", Interval: subscription.BillingIntervalMonthly,
		Status: subscription.StatusActive, CurrentPeriodStart: &now, CurrentPeriodEnd: &periodEnd,
		ProviderCustomerCode: code, CreatedAt: now, UpdatedAt: now,
	}))

	got, err := store.GetByCustomerCode(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusActive, got.Status)
	require.NotNil(t, got.TrialStart, "upsert keeps the trial bounds")
	assert.True(t, now.Equal(*got.TrialStart))

	got.Status = subscription.StatusCanceled
	require.NoError(t, store.Save(ctx, got))
	again, err := store.Get(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusCanceled, again.Status)

	_, err = store.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, subscription.ErrSubscriptionNotFound)
}

func TestInvoiceStore(t *testing.T) {
	t.Parallel()
	db := testPool(t)
	accounts := postgres.NewAccountStore(db)
	store := postgres.NewInvoiceStore(db)
	ctx := context.Background()

	acc := newAccount(t, accounts, uniqueCode())
	customer := invoice.Customer{ID: uuid.New(), AccountID: acc.ID, Name: "Tunde Stores"}
	require.NoError(t, store.CreateCustomer(ctx, customer))

	day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }
	add := func(number string, due time.Time, amount string) uuid.UUID {
		inv := invoice.Invoice{
			ID: uuid.New(), AccountID: acc.ID, CustomerID: customer.ID, Number: number,
			IssueDate: day(1), DueDate: due, Amount: decimal.RequireFromString(amount), Status: invoice.StatusPending,
		}
		require.NoError(t, store.CreateInvoice(ctx, inv))
		return inv.ID
	}
	late := add("INV-1", day(2), "100.50")
	add("INV-2", day(10), "20")

	pending, err := store.ListPendingDueBefore(ctx, acc.ID, day(5))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, late, pending[0].ID)
	assert.True(t, decimal.RequireFromString("100.50").Equal(pending[0].Amount))

	ids, err := store.AccountsWithPending(ctx, day(5))
	require.NoError(t, err)
	assert.Contains(t, ids, acc.ID)

	n, err := store.MarkOverdue(ctx, acc.ID, []uuid.UUID{late}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = store.MarkOverdue(ctx, acc.ID, []uuid.UUID{late}, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)

	overdue, err := store.ListOverdue(ctx, acc.ID)
	require.NoError(t, err)
	require.Len(t, overdue, 1)

	total, err := store.SumUnpaid(ctx, acc.ID, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "120.5", total.String())
	require.NoError(t, store.SetOutstanding(ctx, acc.ID, customer.ID, total, time.Now()))
	c, err := store.Customer(ctx, acc.ID, customer.ID)
	require.NoError(t, err)
	assert.True(t, total.Equal(c.OutstandingTotal))

	require.NoError(t, store.MarkPaid(ctx, acc.ID, late, time.Now()))
	assert.ErrorIs(t, store.MarkPaid(ctx, acc.ID, late, time.Now()), invoice.ErrInvoiceAlreadyPaid)
	assert.ErrorIs(t, store.MarkPaid(ctx, acc.ID, uuid.New(), time.Now()), invoice.ErrInvoiceNotFound)

	_, err = store.GetInvoice(ctx, uuid.New(), late)
	assert.ErrorIs(t, err, invoice.ErrInvoiceNotFound, "invoices are scoped to their account")
}
