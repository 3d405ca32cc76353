// Package notify renders and sends the transactional e-mails of the billing
// core: the referral reward notice and the overdue invoice digest.
//
// Notifier implements account.Notifier and invoice.DigestNotifier on top of an
// email.Sender. Amounts are formatted for the configured locale with
// golang.org/x/text.
package notify
