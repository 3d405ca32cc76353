// Package billing connects the subscription ledger to the Paystack gateway.
//
// Inbound, it verifies and dispatches Paystack webhooks: charge success
// activates the subscription, invoice payment failure moves it to past due and
// subscription disable cancels it. Each change is mirrored onto the account.
// Events that cannot be matched to an account or plan are logged and
// acknowledged so the gateway stops redelivering them; storage failures return
// 500 so it retries.
//
// Outbound, Checkout starts a hosted Paystack checkout for a catalog plan,
// tagging the transaction with the metadata the webhook needs to map the
// charge back to the account.
//
//	svc := billing.NewService(ledger, accounts, gateway,
//		billing.WithArchive(blobStore),
//		billing.WithLogger(log),
//	)
//	h := billing.NewHandler(svc, cfg.Paystack.SecretKey, log)
//	h.MountWebhook(r)
//	h.Mount(r, jwt.Middleware(tokens))
package billing
