// Package subscription is the subscription ledger: it owns per-account
// subscription status and billing period bounds and derives everything else.
//
// # Statuses
//
//	trialing --charge--> active --payment failed--> past_due
//	    any  --charge--> active
//	    any  --cancel--> canceled
//
// Only a successful charge leaves canceled. Trial expiry is never written:
// EffectiveStatus reports expired for a trialing row whose trial end has passed.
//
// # Idempotency
//
// Gateway webhooks are delivered at least once and out of order. A successful
// charge is an upsert keyed by account ID whose period bounds come from the
// charge's paid_at, so replays overwrite with identical values instead of
// extending the period. Failures and cancellations are matched by the gateway
// customer code because those events do not carry the account ID.
//
// # Derived values
//
//	subscription.TrialDays(hasReferralCode)       // 7 or 30
//	subscription.ReferralExtension(end, now)      // max(end, now) + 30 days
//	subscription.PhaseAt(trialStart, now)         // trial, conversion or recovery
//	subscription.EffectiveStatus(sub, now)
//
// Day arithmetic uses UTC calendar dates.
//
// # Usage
//
//	ledger, err := subscription.NewLedger(ctx, store,
//		subscription.NewYAMLSource("plans.yaml"),
//		subscription.WithLogger(log),
//	)
//
//	sub, err := ledger.ApplyChargeSuccess(ctx, subscription.ChargeSuccess{
//		AccountID:    accountID,
//		PlanID:       "PLN_pro",
//		Interval:     subscription.BillingIntervalMonthly,
//		CustomerCode: "CUS_abc",
//		PaidAt:       paidAt,
//	})
package subscription
