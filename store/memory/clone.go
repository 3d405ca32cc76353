package memory

import (
	"github.com/dmitrymomot/duebook/pkg/subscription"
	"github.com/dmitrymomot/duebook/svc/account"
	"github.com/dmitrymomot/duebook/svc/invoice"
)

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneSubscription(s subscription.Subscription) subscription.Subscription {
	s.TrialStart = clonePtr(s.TrialStart)
	s.TrialEnd = clonePtr(s.TrialEnd)
	s.CurrentPeriodStart = clonePtr(s.CurrentPeriodStart)
	s.CurrentPeriodEnd = clonePtr(s.CurrentPeriodEnd)
	s.CanceledAt = clonePtr(s.CanceledAt)
	return s
}

func cloneAccount(a account.Account) account.Account {
	a.ReferredBy = clonePtr(a.ReferredBy)
	a.SubscriptionEndDate = clonePtr(a.SubscriptionEndDate)
	return a
}

func cloneInvoice(i invoice.Invoice) invoice.Invoice {
	i.PaidAt = clonePtr(i.PaidAt)
	return i
}
