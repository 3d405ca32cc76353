package notify

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"log/slog"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/dmitrymomot/duebook/pkg/email"
	"github.com/dmitrymomot/duebook/pkg/logger"
	"github.com/dmitrymomot/duebook/svc/account"
	"github.com/dmitrymomot/duebook/svc/invoice"
)

//go:embed templates
var templates embed.FS

const (
	dateLayout = "2 January 2006"

	keyOverdueSummary = "%d invoices are overdue"
	keyDigestSubject  = "%d overdue invoices need attention"

	tagReferralReward = "referral-reward"
	tagOverdueDigest  = "overdue-digest"
)

// Accounts looks up the account that receives a digest.
type Accounts interface {
	Get(ctx context.Context, id uuid.UUID) (*account.Account, error)
}

// AccountsFunc adapts a lookup function to Accounts.
type AccountsFunc func(ctx context.Context, id uuid.UUID) (*account.Account, error)

// Get calls f.
func (f AccountsFunc) Get(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return f(ctx, id)
}

// Notifier sends the referral reward and overdue digest e-mails.
type Notifier struct {
	sender   email.Sender
	accounts Accounts
	cfg      Config
	printer  *message.Printer
	html     *htmltemplate.Template
	text     *texttemplate.Template
	logger   *slog.Logger
}

// Option configures the Notifier.
type Option func(*Notifier)

// WithLogger sets the logger. Nil is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(n *Notifier) {
		if l != nil {
			n.logger = l
		}
	}
}

// NewNotifier parses the templates and builds the locale printer.
// Panics if sender or accounts is nil.
func NewNotifier(sender email.Sender, accounts Accounts, cfg Config, opts ...Option) (*Notifier, error) {
	if sender == nil {
		panic("notify: email.Sender is required")
	}
	if accounts == nil {
		panic("notify: Accounts is required")
	}

	tag, err := language.Parse(cfg.Locale)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, fmt.Errorf("locale %q: %w", cfg.Locale, err))
	}
	cat, err := newCatalog(tag)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	html, err := htmltemplate.ParseFS(templates, "templates/*.html")
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	text, err := texttemplate.ParseFS(templates, "templates/*.txt")
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	n := &Notifier{
		sender:   sender,
		accounts: accounts,
		cfg:      cfg,
		printer:  message.NewPrinter(tag, message.Catalog(cat)),
		html:     html,
		text:     text,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.logger = n.logger.With(logger.Component("notify"))
	return n, nil
}

func newCatalog(tag language.Tag) (*catalog.Builder, error) {
	b := catalog.NewBuilder(catalog.Fallback(tag))
	if err := b.Set(tag, keyOverdueSummary, plural.Selectf(1, "%d",
		"=1", "1 invoice is overdue",
		"other", "%[1]d invoices are overdue",
	)); err != nil {
		return nil, err
	}
	if err := b.Set(tag, keyDigestSubject, plural.Selectf(1, "%d",
		"=1", "1 overdue invoice needs attention",
		"other", "%[1]d overdue invoices need attention",
	)); err != nil {
		return nil, err
	}
	return b, nil
}

type referralData struct {
	Name         string
	Referred     string
	Code         string
	EndsOn       string
	Count        int
	DashboardURL string
}

// ReferralRewarded tells the referrer their access was extended.
func (n *Notifier) ReferralRewarded(ctx context.Context, referrer, referred *account.Account, newEnd time.Time) error {
	if referrer == nil || referrer.Email == "" {
		return ErrMissingRecipient
	}

	data := referralData{
		Name:         displayName(referrer),
		Referred:     "Someone",
		Code:         referrer.ReferralCode,
		EndsOn:       newEnd.UTC().Format(dateLayout),
		Count:        referrer.ReferralCount,
		DashboardURL: n.url("/dashboard"),
	}
	if referred != nil {
		data.Referred = displayName(referred)
	}

	return n.send(ctx, "referral_reward", email.Message{
		To:      referrer.Email,
		Subject: "You earned more time on Duebook",
		Tag:     tagReferralReward,
	}, data)
}

type digestRow struct {
	Number string
	DueOn  string
	Days   int
	Amount string
}

type digestData struct {
	Name        string
	AsOf        string
	Summary     string
	Total       string
	Rows        []digestRow
	InvoicesURL string
}

// OverdueDigest sends the account owner the list of overdue invoices.
// An empty report sends nothing.
func (n *Notifier) OverdueDigest(ctx context.Context, report invoice.OverdueReport) error {
	if len(report.Items) == 0 {
		return nil
	}
	acc, err := n.accounts.Get(ctx, report.AccountID)
	if err != nil {
		return errors.Join(ErrFailedToNotify, err)
	}
	if acc.Email == "" {
		return ErrMissingRecipient
	}

	rows := make([]digestRow, 0, len(report.Items))
	for _, item := range report.Items {
		rows = append(rows, digestRow{
			Number: item.Number,
			DueOn:  item.DueDate.UTC().Format(dateLayout),
			Days:   item.DaysOverdue,
			Amount: n.Money(item.Amount),
		})
	}

	count := len(report.Items)
	return n.send(ctx, "overdue_digest", email.Message{
		To:      acc.Email,
		Subject: n.printer.Sprintf(keyDigestSubject, count),
		Tag:     tagOverdueDigest,
	}, digestData{
		Name:        displayName(acc),
		AsOf:        report.AsOf.UTC().Format(dateLayout),
		Summary:     n.printer.Sprintf(keyOverdueSummary, count),
		Total:       n.Money(report.Total),
		Rows:        rows,
		InvoicesURL: n.url("/invoices?status=overdue"),
	})
}

// Money formats an amount with the configured currency and locale grouping.
func (n *Notifier) Money(d decimal.Decimal) string {
	return n.printer.Sprintf("%s %.2f", n.cfg.Currency, d.Round(2).InexactFloat64())
}

func (n *Notifier) send(ctx context.Context, name string, msg email.Message, data any) error {
	var html, text bytes.Buffer
	if err := n.html.ExecuteTemplate(&html, name, data); err != nil {
		return errors.Join(ErrFailedToRender, err)
	}
	if err := n.text.ExecuteTemplate(&text, name, data); err != nil {
		return errors.Join(ErrFailedToRender, err)
	}
	msg.HTMLBody = html.String()
	msg.TextBody = text.String()

	if err := n.sender.Send(ctx, msg); err != nil {
		return errors.Join(ErrFailedToNotify, err)
	}
	n.logger.DebugContext(ctx, "notification sent", slog.String("tag", msg.Tag))
	return nil
}

func (n *Notifier) url(path string) string {
	return strings.TrimRight(n.cfg.AppURL, "/") + path
}

func displayName(acc *account.Account) string {
	switch {
	case acc.Name != "":
		return acc.Name
	case acc.CompanyName != "":
		return acc.CompanyName
	}
	return acc.Email
}

var (
	_ account.Notifier       = (*Notifier)(nil)
	_ invoice.DigestNotifier = (*Notifier)(nil)
)
