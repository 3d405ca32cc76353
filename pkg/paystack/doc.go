// Package paystack is a small client for the Paystack API and its webhooks.
//
// Client.InitializeTransaction creates hosted checkouts behind a
// sony/gobreaker circuit breaker. ParseEvent turns a verified webhook body
// into one of a closed set of Event types; names the package does not know
// become Ignored. VerifySignature checks the x-paystack-signature header.
package paystack
