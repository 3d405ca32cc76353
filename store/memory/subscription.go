package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/duebook/pkg/subscription"
)

// SubscriptionStore implements subscription.Store.
type SubscriptionStore struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]subscription.Subscription
}

// NewSubscriptionStore creates an empty store.
func NewSubscriptionStore() *SubscriptionStore {
	return &SubscriptionStore{subs: make(map[uuid.UUID]subscription.Subscription)}
}

func (s *SubscriptionStore) Get(_ context.Context, accountID uuid.UUID) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subs[accountID]
	if !ok {
		return nil, subscription.ErrSubscriptionNotFound
	}
	sub = cloneSubscription(sub)
	return &sub, nil
}

func (s *SubscriptionStore) GetByCustomerCode(_ context.Context, customerCode string) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.subs {
		if sub.ProviderCustomerCode == customerCode {
			sub = cloneSubscription(sub)
			return &sub, nil
		}
	}
	return nil, subscription.ErrSubscriptionNotFound
}

func (s *SubscriptionStore) Create(_ context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subs[sub.AccountID]; ok {
		return subscription.ErrSubscriptionAlreadyExists
	}
	s.subs[sub.AccountID] = cloneSubscription(*sub)
	return nil
}

func (s *SubscriptionStore) Upsert(_ context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := cloneSubscription(*sub)
	if prev, ok := s.subs[sub.AccountID]; ok {
		next.TrialStart = prev.TrialStart
		next.TrialEnd = prev.TrialEnd
		next.CreatedAt = prev.CreatedAt
	}
	s.subs[sub.AccountID] = next
	return nil
}

func (s *SubscriptionStore) Save(_ context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subs[sub.AccountID]; !ok {
		return subscription.ErrSubscriptionNotFound
	}
	s.subs[sub.AccountID] = cloneSubscription(*sub)
	return nil
}

var _ subscription.Store = (*SubscriptionStore)(nil)
