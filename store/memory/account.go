package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/duebook/svc/account"
)

type referralPair struct {
	referrer, referred uuid.UUID
}

// AccountStore implements account.Store.
type AccountStore struct {
	mu        sync.RWMutex
	accounts  map[uuid.UUID]account.Account
	codes     map[string]uuid.UUID // upper-cased referral code
	referrals map[referralPair]account.Referral
}

// NewAccountStore creates an empty store.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts:  make(map[uuid.UUID]account.Account),
		codes:     make(map[string]uuid.UUID),
		referrals: make(map[referralPair]account.Referral),
	}
}

func (s *AccountStore) GetAccount(_ context.Context, id uuid.UUID) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[id]
	if !ok {
		return nil, account.ErrAccountNotFound
	}
	acc = cloneAccount(acc)
	return &acc, nil
}

func (s *AccountStore) CreateAccount(_ context.Context, acc *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[acc.ID]; ok {
		return account.ErrAccountAlreadyExists
	}
	code := strings.ToUpper(acc.ReferralCode)
	if _, ok := s.codes[code]; ok {
		return account.ErrReferralCodeTaken
	}
	s.accounts[acc.ID] = cloneAccount(*acc)
	s.codes[code] = acc.ID
	return nil
}

func (s *AccountStore) ReferralCodeExists(_ context.Context, code string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.codes[strings.ToUpper(code)]
	return ok, nil
}

func (s *AccountStore) FindByReferralCode(_ context.Context, code string) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.codes[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, account.ErrAccountNotFound
	}
	acc := cloneAccount(s.accounts[id])
	return &acc, nil
}

func (s *AccountStore) LinkReferrer(_ context.Context, accountID, referrerID uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[accountID]
	if !ok {
		return account.ErrAccountNotFound
	}
	acc.ReferredBy = &referrerID
	acc.UpdatedAt = at
	s.accounts[accountID] = acc
	return nil
}

func (s *AccountStore) CreateReferral(_ context.Context, ref *account.Referral) error {
	if ref.ReferrerID == ref.ReferredID {
		return account.ErrSelfReferral
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := referralPair{referrer: ref.ReferrerID, referred: ref.ReferredID}
	if _, ok := s.referrals[key]; ok {
		return account.ErrReferralExists
	}
	s.referrals[key] = *ref
	return nil
}

func (s *AccountStore) IncrementReferralCount(_ context.Context, id uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return 0, account.ErrAccountNotFound
	}
	acc.ReferralCount++
	s.accounts[id] = acc
	return acc.ReferralCount, nil
}

func (s *AccountStore) ExtendSubscription(_ context.Context, id uuid.UUID, end time.Time, status account.Status, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return account.ErrAccountNotFound
	}
	acc.SubscriptionEndDate = &end
	acc.Status = status
	acc.UpdatedAt = at
	s.accounts[id] = acc
	return nil
}

func (s *AccountStore) UpdatePlanStatus(_ context.Context, id uuid.UUID, status account.Status, end *time.Time, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return account.ErrAccountNotFound
	}
	acc.Status = status
	if end != nil && (acc.SubscriptionEndDate == nil || end.After(*acc.SubscriptionEndDate)) {
		e := *end
		acc.SubscriptionEndDate = &e
	}
	acc.UpdatedAt = at
	s.accounts[id] = acc
	return nil
}

// Referrals returns every stored referral for referrerID.
func (s *AccountStore) Referrals(referrerID uuid.UUID) []account.Referral {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []account.Referral
	for key, ref := range s.referrals {
		if key.referrer == referrerID {
			out = append(out, ref)
		}
	}
	return out
}

var _ account.Store = (*AccountStore)(nil)
