package billing

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/duebook/pkg/logger"
	"github.com/dmitrymomot/duebook/pkg/paystack"
	"github.com/dmitrymomot/duebook/pkg/subscription"
	"github.com/dmitrymomot/duebook/svc/account"
)

// Service applies gateway events to the ledger and starts checkouts.
type Service struct {
	ledger   Ledger
	accounts Accounts
	gateway  Gateway
	archive  Archive
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates the billing service.
// Panics if ledger or accounts is nil. A nil gateway disables Checkout.
func NewService(ledger Ledger, accounts Accounts, gateway Gateway, opts ...Option) *Service {
	if ledger == nil {
		panic("billing: Ledger is required")
	}
	if accounts == nil {
		panic("billing: Accounts is required")
	}

	s := &Service{
		ledger:   ledger,
		accounts: accounts,
		gateway:  gateway,
		logger:   slog.Default(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("billing"))
	return s
}

// HandleEvent dispatches a verified gateway event.
// Events that cannot be matched to an account, plan or subscription are logged
// and return nil. Only storage failures are returned, so the gateway redelivers.
func (s *Service) HandleEvent(ctx context.Context, ev paystack.Event) error {
	log := s.logger.With(logger.Event(ev.Name()))

	switch e := ev.(type) {
	case paystack.ChargeSuccess:
		in, err := s.chargeInput(ctx, e)
		if err != nil {
			return s.settle(ctx, log, nil, err)
		}
		sub, err := s.ledger.ApplyChargeSuccess(ctx, in)
		return s.settle(ctx, log, sub, err)

	case paystack.InvoicePaymentFailed:
		sub, err := s.ledger.ApplyPaymentFailed(ctx, e.CustomerCode)
		return s.settle(ctx, log.With(logger.CustomerCode(e.CustomerCode)), sub, err)

	case paystack.SubscriptionDisable:
		sub, err := s.ledger.ApplyCancellation(ctx, e.CustomerCode, e.SubscriptionCode)
		return s.settle(ctx, log.With(logger.CustomerCode(e.CustomerCode)), sub, err)

	case paystack.SubscriptionCreate:
		log.InfoContext(ctx, "subscription created at gateway",
			logger.CustomerCode(e.CustomerCode),
			slog.String("subscription_code", e.SubscriptionCode),
			slog.String("plan_code", e.PlanCode),
		)
		return nil

	default:
		log.DebugContext(ctx, "webhook event ignored")
		return nil
	}
}

// chargeInput maps a charge to its account. Checkout charges carry metadata;
// recurring charges are matched through the stored gateway customer.
func (s *Service) chargeInput(ctx context.Context, e paystack.ChargeSuccess) (subscription.ChargeSuccess, error) {
	in := subscription.ChargeSuccess{
		PlanID:           cmp.Or(e.Metadata.PlanID, e.PlanCode),
		CustomerCode:     e.CustomerCode,
		SubscriptionCode: e.SubscriptionCode,
		PaidAt:           e.PaidAt,
	}

	if e.Metadata.UserID != "" {
		id, err := uuid.Parse(e.Metadata.UserID)
		if err != nil {
			return in, fmt.Errorf("%w: user_id %q", ErrInvalidMetadata, e.Metadata.UserID)
		}
		interval, err := subscription.ParseBillingInterval(e.Metadata.BillingInterval)
		if err != nil {
			return in, errors.Join(ErrInvalidMetadata, err)
		}
		if _, err := s.accounts.Get(ctx, id); err != nil {
			return in, err
		}
		in.AccountID = id
		in.Interval = interval
		return in, nil
	}

	if e.CustomerCode == "" {
		return in, fmt.Errorf("%w: no user_id and no customer", ErrInvalidMetadata)
	}
	sub, err := s.ledger.GetByCustomerCode(ctx, e.CustomerCode)
	if err != nil {
		return in, err
	}
	in.AccountID = sub.AccountID
	in.PlanID = cmp.Or(in.PlanID, sub.PlanID)
	in.Interval = sub.Interval
	return in, nil
}

// settle syncs the account after a ledger change and classifies failures.
func (s *Service) settle(ctx context.Context, log *slog.Logger, sub *subscription.Subscription, err error) error {
	if err != nil {
		if skippable(err) {
			log.WarnContext(ctx, "webhook event skipped", logger.Error(err))
			return nil
		}
		return errors.Join(ErrFailedToApplyEvent, err)
	}

	log = log.With(logger.AccountID(sub.AccountID), slog.String("status", string(sub.Status)))
	if err := s.accounts.SyncStatus(ctx, sub.AccountID, sub.Status, sub.EndsAt()); err != nil {
		log.ErrorContext(ctx, "failed to sync account status", logger.Error(err))
		return nil
	}
	log.InfoContext(ctx, "webhook event applied")
	return nil
}

// skippable reports errors a redelivery cannot fix.
func skippable(err error) bool {
	for _, target := range []error{
		ErrInvalidMetadata,
		account.ErrAccountNotFound,
		subscription.ErrPlanNotFound,
		subscription.ErrInvalidInterval,
		subscription.ErrMissingAccountID,
		subscription.ErrMissingCustomerCode,
		subscription.ErrSubscriptionNotFound,
		subscription.ErrInvalidSubscriptionState,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Archive stores a verified payload. Failures are logged and never block the event.
func (s *Service) Archive(ctx context.Context, payload []byte) {
	if s.archive == nil {
		return
	}
	key := fmt.Sprintf("webhooks/paystack/%s/%s.json", s.now().Format("2006/01/02"), uuid.NewString())
	if err := s.archive.Put(ctx, key, payload, "application/json"); err != nil {
		s.logger.WarnContext(ctx, "failed to archive webhook payload",
			slog.String("key", key),
			logger.Error(err),
		)
	}
}

// CheckoutRequest selects the plan to buy.
type CheckoutRequest struct {
	PlanID          string `json:"planId"`
	BillingInterval string `json:"billingInterval"`
	CallbackURL     string `json:"callbackUrl"`
}

// Validate checks required fields and the callback URL.
func (r CheckoutRequest) Validate() error {
	if strings.TrimSpace(r.PlanID) == "" {
		return fmt.Errorf("%w: planId is required", ErrInvalidCheckout)
	}
	if r.CallbackURL != "" {
		u, err := url.Parse(r.CallbackURL)
		if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
			return fmt.Errorf("%w: callbackUrl must be an absolute http(s) URL", ErrInvalidCheckout)
		}
	}
	return nil
}

// Checkout starts a hosted checkout for accountID. The transaction metadata
// carries user_id, plan_id and billing_interval for the charge webhook.
// email falls back to the stored account email when empty.
func (s *Service) Checkout(ctx context.Context, accountID uuid.UUID, email string, req CheckoutRequest) (*paystack.Transaction, error) {
	if s.gateway == nil {
		return nil, ErrGatewayUnavailable
	}
	if accountID == uuid.Nil {
		return nil, errors.Join(ErrInvalidCheckout, subscription.ErrMissingAccountID)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	interval, err := subscription.ParseBillingInterval(req.BillingInterval)
	if err != nil {
		return nil, errors.Join(ErrInvalidCheckout, err)
	}
	plan, err := s.ledger.Plan(strings.TrimSpace(req.PlanID))
	if err != nil {
		return nil, errors.Join(ErrInvalidCheckout, err)
	}
	amount, err := plan.Price(interval)
	if err != nil {
		return nil, errors.Join(ErrInvalidCheckout, err)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: plan %s has no %s price", ErrInvalidCheckout, plan.ID, interval)
	}

	if email == "" {
		acc, err := s.accounts.Get(ctx, accountID)
		if err != nil {
			return nil, err
		}
		email = acc.Email
	}
	if email == "" {
		return nil, ErrMissingAccountEmail
	}

	tx, err := s.gateway.InitializeTransaction(ctx, paystack.InitializeRequest{
		Email:       email,
		Amount:      amount,
		Currency:    cmp.Or(plan.Currency, s.gateway.Currency()),
		CallbackURL: req.CallbackURL,
		Metadata: paystack.Metadata{
			UserID:          accountID.String(),
			PlanID:          plan.ID,
			BillingInterval: string(interval),
		},
	})
	if err != nil {
		if errors.Is(err, paystack.ErrCircuitOpen) {
			return nil, errors.Join(ErrGatewayUnavailable, err)
		}
		return nil, errors.Join(ErrCheckoutFailed, err)
	}

	s.logger.InfoContext(ctx, "checkout started",
		logger.AccountID(accountID),
		slog.String("plan_id", plan.ID),
		slog.String("interval", string(interval)),
		slog.String("reference", tx.Reference),
	)
	return tx, nil
}
