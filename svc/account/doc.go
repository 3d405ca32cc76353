// Package account provisions tenants at signup.
//
// Provision assigns an immutable referral code, starts the trial (7 days, or 30
// when any referral code was supplied) and, when the code belongs to another
// account, rewards the referrer: a Completed referral, an atomic referral count
// increment and 30 more days counted from the later of their current end and now.
// Referral failures are logged and never fail provisioning.
package account
