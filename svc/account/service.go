package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/duebook/pkg/logger"
	"github.com/dmitrymomot/duebook/pkg/subscription"
)

// Service provisions accounts and applies referral rewards.
type Service struct {
	store    Store
	ledger   Ledger
	notifier Notifier
	generate CodeGenerator
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates the account service.
// Panics if store or ledger is nil.
func NewService(store Store, ledger Ledger, opts ...Option) *Service {
	if store == nil {
		panic("account: Store is required")
	}
	if ledger == nil {
		panic("account: Ledger is required")
	}

	s := &Service{
		store:    store,
		ledger:   ledger,
		generate: GenerateReferralCode,
		logger:   slog.Default(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("account"))
	return s
}

// Get returns the account by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Account, error) {
	if id == uuid.Nil {
		return nil, ErrMissingAccountID
	}
	return s.store.GetAccount(ctx, id)
}

// Provision creates the account and its trial subscription for a signup.
// Redelivering the same signup reuses the stored account: the referral code and
// trial are not regenerated. The referral step never fails provisioning.
func (s *Service) Provision(ctx context.Context, in Signup) (*Account, error) {
	if err := in.Validate(); err != nil {
		return nil, errors.Join(ErrInvalidSignup, err)
	}

	code := in.referralCode()
	now := s.now()
	days := subscription.TrialDays(code != "")

	acc, err := s.store.GetAccount(ctx, in.ID)
	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "signup redelivered, reusing account", logger.AccountID(acc.ID))
	case errors.Is(err, ErrAccountNotFound):
		acc, err = s.create(ctx, in, now, days)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.Join(ErrFailedToProvision, err)
	}

	sub, err := s.ledger.StartTrial(ctx, acc.ID, now, days)
	if err != nil {
		return nil, errors.Join(ErrFailedToProvision, err)
	}
	if acc.SubscriptionEndDate == nil && sub.TrialEnd != nil {
		acc.SubscriptionEndDate = sub.TrialEnd
	}

	if code != "" {
		s.applyReferral(ctx, acc, code)
	}
	return acc, nil
}

func (s *Service) create(ctx context.Context, in Signup, now time.Time, days int) (*Account, error) {
	trialEnd := now.AddDate(0, 0, days)
	acc := &Account{
		ID:                  in.ID,
		Email:               in.Email,
		Name:                in.Meta.Name,
		CompanyName:         in.Meta.CompanyName,
		CompanyEmail:        in.Meta.CompanyEmail,
		CompanyPhone:        in.Meta.CompanyPhone,
		Status:              StatusFreeTrial,
		SubscriptionEndDate: &trialEnd,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	err := s.createWithReferralCode(ctx, acc)
	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "account provisioned",
			logger.AccountID(acc.ID),
			slog.String("referral_code", acc.ReferralCode),
			slog.Int("trial_days", days),
		)
		return acc, nil
	case errors.Is(err, ErrAccountAlreadyExists):
		// concurrent delivery of the same signup won the insert
		existing, getErr := s.store.GetAccount(ctx, in.ID)
		if getErr != nil {
			return nil, errors.Join(ErrFailedToProvision, getErr)
		}
		return existing, nil
	case errors.Is(err, ErrReferralCodeExhausted):
		s.logger.ErrorContext(ctx, "referral code space exhausted", logger.AccountID(in.ID))
		return nil, err
	case errors.Is(err, ErrFailedToProvision):
		return nil, err
	default:
		return nil, errors.Join(ErrFailedToProvision, err)
	}
}

// applyReferral rewards the owner of code for referring acc.
// Every failure is logged and swallowed.
func (s *Service) applyReferral(ctx context.Context, acc *Account, code string) {
	log := s.logger.With(logger.AccountID(acc.ID), slog.String("referral_code", code))

	referrer, err := s.store.FindByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			log.InfoContext(ctx, "referral code does not match any account")
			return
		}
		log.ErrorContext(ctx, "failed to resolve referral code", logger.Error(err))
		return
	}
	if referrer.ID == acc.ID {
		log.InfoContext(ctx, "self referral ignored")
		return
	}
	log = log.With(logger.ReferrerID(referrer.ID))

	now := s.now()
	err = s.store.CreateReferral(ctx, &Referral{
		ID:         uuid.New(),
		ReferrerID: referrer.ID,
		ReferredID: acc.ID,
		Status:     ReferralCompleted,
		CreatedAt:  now,
	})
	if err != nil {
		if errors.Is(err, ErrReferralExists) {
			log.InfoContext(ctx, "referral already rewarded")
			return
		}
		log.ErrorContext(ctx, "failed to record referral", logger.Error(err))
		return
	}

	if err := s.store.LinkReferrer(ctx, acc.ID, referrer.ID, now); err != nil {
		log.ErrorContext(ctx, "failed to link referrer", logger.Error(err))
	} else {
		acc.ReferredBy = &referrer.ID
	}

	if count, err := s.store.IncrementReferralCount(ctx, referrer.ID); err != nil {
		log.ErrorContext(ctx, "failed to increment referral count", logger.Error(err))
	} else {
		referrer.ReferralCount = count
	}

	var currentEnd time.Time
	if referrer.SubscriptionEndDate != nil {
		currentEnd = *referrer.SubscriptionEndDate
	}
	newEnd := subscription.ReferralExtension(currentEnd, now)
	status := referrer.Status
	if status == StatusExpired {
		status = StatusFreeTrial
	}

	if err := s.store.ExtendSubscription(ctx, referrer.ID, newEnd, status, now); err != nil {
		log.ErrorContext(ctx, "failed to extend referrer subscription", logger.Error(err))
		return
	}
	referrer.SubscriptionEndDate = &newEnd
	referrer.Status = status

	log.InfoContext(ctx, "referral rewarded",
		slog.Time("new_end", newEnd),
		slog.String("referrer_status", string(status)),
	)

	if s.notifier != nil {
		if err := s.notifier.ReferralRewarded(ctx, referrer, acc, newEnd); err != nil {
			log.WarnContext(ctx, "failed to notify referrer", logger.Error(err))
		}
	}
}

// SyncStatus mirrors a ledger status change onto the account.
// The stored end date never moves earlier, so referral bonuses survive webhook replays.
func (s *Service) SyncStatus(ctx context.Context, id uuid.UUID, status subscription.Status, end *time.Time) error {
	if id == uuid.Nil {
		return ErrMissingAccountID
	}
	if err := s.store.UpdatePlanStatus(ctx, id, StatusFromSubscription(status), end, s.now()); err != nil {
		return fmt.Errorf("failed to sync account status: %w", err)
	}
	return nil
}

// Overview is the dashboard view of an account.
type Overview struct {
	Account      *Account               `json:"account"`
	Subscription *subscription.Snapshot `json:"subscription,omitempty"`
}

// Overview returns the account with its derived subscription snapshot.
func (s *Service) Overview(ctx context.Context, id uuid.UUID) (Overview, error) {
	acc, err := s.Get(ctx, id)
	if err != nil {
		return Overview{}, err
	}

	out := Overview{Account: acc}
	snap, err := s.ledger.Snapshot(ctx, id)
	switch {
	case err == nil:
		snap = snap.WithAccessEnd(acc.SubscriptionEndDate, s.now())
		out.Subscription = &snap
	case errors.Is(err, subscription.ErrSubscriptionNotFound):
	default:
		return Overview{}, err
	}
	return out, nil
}
