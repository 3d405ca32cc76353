package notify_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/duebook/pkg/email"
	"github.com/dmitrymomot/duebook/svc/account"
	"github.com/dmitrymomot/duebook/svc/invoice"
	"github.com/dmitrymomot/duebook/svc/notify"
)

type recordingSender struct {
	mu   sync.Mutex
	msgs []email.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg email.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := msg.Validate(); err != nil {
		return err
	}
	s.msgs = append(s.msgs, msg)
	return s.err
}

type accountsStub map[uuid.UUID]*account.Account

func (a accountsStub) Get(_ context.Context, id uuid.UUID) (*account.Account, error) {
	if acc, ok := a[id]; ok {
		return acc, nil
	}
	return nil, account.ErrAccountNotFound
}

var testConfig = notify.Config{AppURL: "https://app.example.com/", Locale: "en-NG", Currency: "NGN"}

func newNotifier(t *testing.T, accounts accountsStub) (*notify.Notifier, *recordingSender) {
	t.Helper()
	sender := &recordingSender{}
	n, err := notify.NewNotifier(sender, accounts, testConfig)
	require.NoError(t, err)
	return n, sender
}

func TestNewNotifier_InvalidLocale(t *testing.T) {
	t.Parallel()
	cfg := testConfig
	cfg.Locale = "not a locale!"
	_, err := notify.NewNotifier(&recordingSender{}, accountsStub{}, cfg)
	assert.ErrorIs(t, err, notify.ErrInvalidConfig)
}

func TestNotifier_Money(t *testing.T) {
	t.Parallel()
	n, _ := newNotifier(t, accountsStub{})
	assert.Equal(t, "NGN 1,234.50", n.Money(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "NGN 0.00", n.Money(decimal.Zero))
}

func TestNotifier_ReferralRewarded(t *testing.T) {
	t.Parallel()

	n, sender := newNotifier(t, accountsStub{})
	referrer := &account.Account{Email: "ada@example.com", Name: "Ada", ReferralCode: "DBABC123", ReferralCount: 3}
	referred := &account.Account{Email: "grace@example.com", CompanyName: "Hopper Ltd"}

	err := n.ReferralRewarded(context.Background(), referrer, referred, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, sender.msgs, 1)
	msg := sender.msgs[0]
	assert.Equal(t, "ada@example.com", msg.To)
	assert.Equal(t, "referral-reward", msg.Tag)
	assert.Contains(t, msg.HTMLBody, "Hopper Ltd")
	assert.Contains(t, msg.HTMLBody, "2 March 2024")
	assert.Contains(t, msg.HTMLBody, "https://app.example.com/dashboard")
	assert.Contains(t, msg.TextBody, "DBABC123")
	assert.Contains(t, msg.TextBody, "3 people")

	assert.ErrorIs(t, n.ReferralRewarded(context.Background(), &account.Account{}, referred, time.Now()), notify.ErrMissingRecipient)
}

func TestNotifier_OverdueDigest(t *testing.T) {
	t.Parallel()

	owner := &account.Account{ID: uuid.New(), Email: "owner@example.com", Name: "Ngozi"}
	report := invoice.OverdueReport{
		AccountID: owner.ID,
		AsOf:      time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Items: []invoice.OverdueItem{
			{Number: "INV-7", DueDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Amount: decimal.RequireFromString("1500000"), DaysOverdue: 33},
			{Number: "INV-9", DueDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Amount: decimal.RequireFromString("250.75"), DaysOverdue: 4},
		},
		Total: decimal.RequireFromString("1500250.75"),
	}

	t.Run("sends the digest", func(t *testing.T) {
		t.Parallel()
		n, sender := newNotifier(t, accountsStub{owner.ID: owner})
		require.NoError(t, n.OverdueDigest(context.Background(), report))

		require.Len(t, sender.msgs, 1)
		msg := sender.msgs[0]
		assert.Equal(t, "owner@example.com", msg.To)
		assert.Equal(t, "2 overdue invoices need attention", msg.Subject)
		assert.Contains(t, msg.TextBody, "2 invoices are overdue")
		assert.Contains(t, msg.TextBody, "INV-7: due 1 February 2024, 33 days overdue, NGN 1,500,000.00")
		assert.Contains(t, msg.HTMLBody, "NGN 1,500,250.75")
	})

	t.Run("singular", func(t *testing.T) {
		t.Parallel()
		n, sender := newNotifier(t, accountsStub{owner.ID: owner})
		one := report
		one.Items = report.Items[1:]
		require.NoError(t, n.OverdueDigest(context.Background(), one))
		require.Len(t, sender.msgs, 1)
		assert.Equal(t, "1 overdue invoice needs attention", sender.msgs[0].Subject)
	})

	t.Run("empty report sends nothing", func(t *testing.T) {
		t.Parallel()
		n, sender := newNotifier(t, accountsStub{owner.ID: owner})
		require.NoError(t, n.OverdueDigest(context.Background(), invoice.OverdueReport{AccountID: owner.ID}))
		assert.Empty(t, sender.msgs)
	})

	t.Run("unknown account", func(t *testing.T) {
		t.Parallel()
		n, _ := newNotifier(t, accountsStub{})
		err := n.OverdueDigest(context.Background(), report)
		assert.ErrorIs(t, err, account.ErrAccountNotFound)
	})

	t.Run("sender failure", func(t *testing.T) {
		t.Parallel()
		n, sender := newNotifier(t, accountsStub{owner.ID: owner})
		sender.err = errors.New("postmark down")
		assert.ErrorIs(t, n.OverdueDigest(context.Background(), report), notify.ErrFailedToNotify)
	})
}

func TestAccountsFunc(t *testing.T) {
	t.Parallel()
	owner := &account.Account{ID: uuid.New(), Email: "owner@example.com"}
	lookup := notify.AccountsFunc(accountsStub{owner.ID: owner}.Get)

	got, err := lookup.Get(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.Same(t, owner, got)
}
