package billing_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/duebook/pkg/paystack"
	"github.com/dmitrymomot/duebook/pkg/subscription"
	"github.com/dmitrymomot/duebook/store/memory"
	"github.com/dmitrymomot/duebook/svc/account"
	"github.com/dmitrymomot/duebook/svc/billing"
)

type fakeGateway struct {
	mu   sync.Mutex
	reqs []paystack.InitializeRequest
	err  error
}

func (g *fakeGateway) InitializeTransaction(_ context.Context, req paystack.InitializeRequest) (*paystack.Transaction, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reqs = append(g.reqs, req)
	if g.err != nil {
		return nil, g.err
	}
	return &paystack.Transaction{
		AuthorizationURL: "https://checkout.paystack.com/" + req.Metadata.PlanID,
		AccessCode:       "access_1",
		Reference:        "ref_1",
	}, nil
}

func (g *fakeGateway) Currency() string { return "NGN" }

func (g *fakeGateway) requests() []paystack.InitializeRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]paystack.InitializeRequest(nil), g.reqs...)
}

type recordingArchive struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (a *recordingArchive) Put(_ context.Context, key string, _ []byte, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.keys = append(a.keys, key)
	return a.err
}

type brokenLedger struct {
	*subscription.Ledger
}

func (brokenLedger) ApplyPaymentFailed(context.Context, string) (*subscription.Subscription, error) {
	return nil, errors.New("connection refused")
}

type fixture struct {
	svc      *billing.Service
	ledger   *subscription.Ledger
	accounts *account.Service
	gateway  *fakeGateway
	archive  *recordingArchive
	now      time.Time
}

func newFixture(t *testing.T, wrap ...func(*subscription.Ledger) billing.Ledger) *fixture {
	t.Helper()

	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	ledger, err := subscription.NewLedger(context.Background(), memory.NewSubscriptionStore(),
		subscription.NewMemorySource(
			subscription.Plan{ID: "PLN_basic", Name: "Basic", Currency: "NGN", MonthlyPrice: 250000, YearlyPrice: 2500000, Public: true},
			subscription.Plan{ID: "PLN_free", Name: "Free", Public: true},
		),
		subscription.WithClock(clock),
	)
	require.NoError(t, err)

	accounts := account.NewService(memory.NewAccountStore(), ledger, account.WithClock(clock))

	var l billing.Ledger = ledger
	for _, w := range wrap {
		l = w(ledger)
	}

	f := &fixture{ledger: ledger, accounts: accounts, gateway: &fakeGateway{}, archive: &recordingArchive{}, now: now}
	f.svc = billing.NewService(l, accounts, f.gateway,
		billing.WithArchive(f.archive),
		billing.WithClock(clock),
	)
	return f
}

func (f *fixture) provision(t *testing.T) uuid.UUID {
	t.Helper()
	acc, err := f.accounts.Provision(context.Background(), account.Signup{ID: uuid.New(), Email: "owner@example.com"})
	require.NoError(t, err)
	return acc.ID
}

func charge(id uuid.UUID, paidAt time.Time) paystack.ChargeSuccess {
	return paystack.ChargeSuccess{
		Reference:    "ref_" + id.String()[:8],
		Amount:       250000,
		Currency:     "NGN",
		PaidAt:       paidAt,
		CustomerCode: "CUS_" + id.String()[:8],
		Metadata:     paystack.Metadata{UserID: id.String(), PlanID: "PLN_basic", BillingInterval: "monthly"},
	}
}

func TestService_ChargeSuccess(t *testing.T) {
	t.Parallel()

	t.Run("activates and syncs the account", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		id := f.provision(t)
		paidAt := time.Date(2024, 5, 10, 11, 58, 3, 0, time.UTC)
		periodEnd := time.Date(2024, 6, 10, 11, 58, 3, 0, time.UTC)

		require.NoError(t, f.svc.HandleEvent(context.Background(), charge(id, paidAt)))

		sub, err := f.ledger.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusActive, sub.Status)
		assert.Equal(t, "PLN_basic", sub.PlanID)
		require.NotNil(t, sub.CurrentPeriodEnd)
		assert.Equal(t, periodEnd, *sub.CurrentPeriodEnd)

		acc, err := f.accounts.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, account.StatusActive, acc.Status)
		require.NotNil(t, acc.SubscriptionEndDate)
		assert.Equal(t, periodEnd, *acc.SubscriptionEndDate)
	})

	t.Run("replay converges", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		id := f.provision(t)
		ev := charge(id, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC))

		require.NoError(t, f.svc.HandleEvent(context.Background(), ev))
		first, err := f.ledger.Get(context.Background(), id)
		require.NoError(t, err)
		require.NoError(t, f.svc.HandleEvent(context.Background(), ev))
		second, err := f.ledger.Get(context.Background(), id)
		require.NoError(t, err)

		assert.Equal(t, *first.CurrentPeriodEnd, *second.CurrentPeriodEnd)
	})

	t.Run("renewal without metadata matches the customer", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		id := f.provision(t)
		first := charge(id, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC))
		require.NoError(t, f.svc.HandleEvent(context.Background(), first))

		renewal := paystack.ChargeSuccess{
			PaidAt:       time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
			CustomerCode: first.CustomerCode,
		}
		require.NoError(t, f.svc.HandleEvent(context.Background(), renewal))

		sub, err := f.ledger.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC), *sub.CurrentPeriodEnd)
		assert.Equal(t, subscription.BillingIntervalMonthly, sub.Interval)
	})

	t.Run("unmatched events are acknowledged without writes", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		id := f.provision(t)

		badUser := charge(id, f.now)
		badUser.Metadata.UserID = "not-a-uuid"
		unknownPlan := charge(id, f.now)
		unknownPlan.Metadata.PlanID = "PLN_gone"
		badInterval := charge(id, f.now)
		badInterval.Metadata.BillingInterval = "weekly"
		noMetadata := paystack.ChargeSuccess{PaidAt: f.now}
		unknownCustomer := paystack.ChargeSuccess{PaidAt: f.now, CustomerCode: "CUS_nobody"}

		for _, ev := range []paystack.ChargeSuccess{badUser, unknownPlan, badInterval, noMetadata, unknownCustomer} {
			assert.NoError(t, f.svc.HandleEvent(context.Background(), ev))
		}

		sub, err := f.ledger.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusTrialing, sub.Status)
	})
}

func TestService_PaymentFailedAndCancellation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	id := f.provision(t)
	ev := charge(id, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, f.svc.HandleEvent(context.Background(), ev))

	require.NoError(t, f.svc.HandleEvent(context.Background(), paystack.InvoicePaymentFailed{CustomerCode: ev.CustomerCode}))
	acc, err := f.accounts.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, account.StatusPastDue, acc.Status)

	require.NoError(t, f.svc.HandleEvent(context.Background(), paystack.SubscriptionDisable{
		CustomerCode: ev.CustomerCode, SubscriptionCode: "SUB_1",
	}))
	sub, err := f.ledger.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusCanceled, sub.Status)
	assert.Equal(t, "SUB_1", sub.ProviderSubscriptionCode)
	acc, err = f.accounts.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, account.StatusCanceled, acc.Status)

	assert.NoError(t, f.svc.HandleEvent(context.Background(), paystack.InvoicePaymentFailed{CustomerCode: "CUS_nobody"}))
	assert.NoError(t, f.svc.HandleEvent(context.Background(), paystack.SubscriptionCreate{CustomerCode: ev.CustomerCode}))
	assert.NoError(t, f.svc.HandleEvent(context.Background(), paystack.Ignored{Event: "transfer.success"}))
}

func TestService_WebhooksKeepReferralBonus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	id := f.provision(t)
	ev := charge(id, f.now)
	require.NoError(t, f.svc.HandleEvent(ctx, ev))

	referrer, err := f.accounts.Get(ctx, id)
	require.NoError(t, err)
	periodEnd := f.now.AddDate(0, 1, 0)
	require.Equal(t, periodEnd, *referrer.SubscriptionEndDate)

	_, err = f.accounts.Provision(ctx, account.Signup{
		ID: uuid.New(), Email: "friend@example.com", Meta: account.SignupMeta{ReferralCode: referrer.ReferralCode},
	})
	require.NoError(t, err)
	bonusEnd := subscription.ReferralExtension(periodEnd, f.now)
	require.Equal(t, time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC), bonusEnd)

	events := []paystack.Event{
		paystack.InvoicePaymentFailed{CustomerCode: ev.CustomerCode},
		ev,
		paystack.SubscriptionDisable{CustomerCode: ev.CustomerCode, SubscriptionCode: "SUB_1"},
	}
	for _, e := range events {
		require.NoError(t, f.svc.HandleEvent(ctx, e))

		acc, err := f.accounts.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, bonusEnd, *acc.SubscriptionEndDate, "%T", e)
	}
}

func TestService_StoreFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, func(l *subscription.Ledger) billing.Ledger { return brokenLedger{l} })
	err := f.svc.HandleEvent(context.Background(), paystack.InvoicePaymentFailed{CustomerCode: "CUS_1"})
	assert.ErrorIs(t, err, billing.ErrFailedToApplyEvent)
}

func TestService_Archive(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.svc.Archive(context.Background(), []byte(`{"event":"charge.success"}`))
	f.archive.err = errors.New("bucket gone")
	f.svc.Archive(context.Background(), []byte(`{}`))

	require.Len(t, f.archive.keys, 2)
	assert.True(t, strings.HasPrefix(f.archive.keys[0], "webhooks/paystack/2024/05/01/"))
	assert.True(t, strings.HasSuffix(f.archive.keys[0], ".json"))
	assert.NotEqual(t, f.archive.keys[0], f.archive.keys[1])

	noArchive := billing.NewService(f.ledger, f.accounts, nil)
	assert.NotPanics(t, func() { noArchive.Archive(context.Background(), []byte(`{}`)) })
}

func TestService_Checkout(t *testing.T) {
	t.Parallel()

	t.Run("tags the transaction with account and plan", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		id := f.provision(t)

		tx, err := f.svc.Checkout(context.Background(), id, "", billing.CheckoutRequest{
			PlanID: "PLN_basic", BillingInterval: "yearly", CallbackURL: "https://app.example.com/billing",
		})
		require.NoError(t, err)
		assert.Equal(t, "https://checkout.paystack.com/PLN_basic", tx.AuthorizationURL)

		reqs := f.gateway.requests()
		require.Len(t, reqs, 1)
		assert.Equal(t, "owner@example.com", reqs[0].Email, "falls back to the account email")
		assert.Equal(t, int64(2500000), reqs[0].Amount)
		assert.Equal(t, "NGN", reqs[0].Currency)
		assert.Equal(t, paystack.Metadata{UserID: id.String(), PlanID: "PLN_basic", BillingInterval: "yearly"}, reqs[0].Metadata)
	})

	t.Run("invalid requests never reach the gateway", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		id := f.provision(t)

		for _, req := range []billing.CheckoutRequest{
			{BillingInterval: "monthly"},
			{PlanID: "PLN_gone", BillingInterval: "monthly"},
			{PlanID: "PLN_basic", BillingInterval: "weekly"},
			{PlanID: "PLN_free", BillingInterval: "monthly"},
			{PlanID: "PLN_basic", BillingInterval: "monthly", CallbackURL: "javascript:alert(1)"},
		} {
			_, err := f.svc.Checkout(context.Background(), id, "owner@example.com", req)
			assert.ErrorIs(t, err, billing.ErrInvalidCheckout, req)
		}
		assert.Empty(t, f.gateway.requests())
	})

	t.Run("gateway failures", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		id := f.provision(t)
		req := billing.CheckoutRequest{PlanID: "PLN_basic", BillingInterval: "monthly"}

		f.gateway.err = errors.Join(paystack.ErrCircuitOpen, errors.New("circuit breaker is open"))
		_, err := f.svc.Checkout(context.Background(), id, "owner@example.com", req)
		assert.ErrorIs(t, err, billing.ErrGatewayUnavailable)

		f.gateway.err = errors.Join(paystack.ErrRequestFailed, &paystack.APIError{StatusCode: 400, Message: "Invalid key"})
		_, err = f.svc.Checkout(context.Background(), id, "owner@example.com", req)
		assert.ErrorIs(t, err, billing.ErrCheckoutFailed)
	})

	t.Run("unknown account", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, err := f.svc.Checkout(context.Background(), uuid.New(), "", billing.CheckoutRequest{PlanID: "PLN_basic", BillingInterval: "monthly"})
		assert.ErrorIs(t, err, account.ErrAccountNotFound)
	})
}
