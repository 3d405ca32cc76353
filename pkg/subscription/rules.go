package subscription

import (
	"time"
)

const (
	DefaultTrialDays  = 7
	ReferralTrialDays = 30
	ReferralBonusDays = 30

	conversionDay = 7
)

// TrialDays returns the trial length for a signup. Supplying any referral code
// grants the long trial, even before the code is resolved to a referrer.
func TrialDays(hasReferralCode bool) int {
	if hasReferralCode {
		return ReferralTrialDays
	}
	return DefaultTrialDays
}

// ReferralExtension returns the referrer's new end date: 30 days from the later
// of currentEnd and now. Lapsed referrers restart from now instead of compounding
// into the past. A zero currentEnd is treated as lapsed.
func ReferralExtension(currentEnd, now time.Time) time.Time {
	base := now
	if currentEnd.After(now) {
		base = currentEnd
	}
	return base.AddDate(0, 0, ReferralBonusDays)
}

// PhaseAt returns the funnel phase for a trial started at trialStart.
// Days are counted between UTC calendar dates: 0-6 trial, 7 conversion, later recovery.
func PhaseAt(trialStart, now time.Time) Phase {
	days := DaysBetween(trialStart, now)
	switch {
	case days < conversionDay:
		return PhaseTrial
	case days == conversionDay:
		return PhaseConversion
	default:
		return PhaseRecovery
	}
}

// EffectiveStatus applies trial expiry on read: a trialing subscription past its trial end is expired.
func EffectiveStatus(sub *Subscription, now time.Time) Status {
	if sub == nil {
		return ""
	}
	if sub.IsTrialExpiredAt(now) {
		return StatusExpired
	}
	return sub.Status
}

// DaysBetween counts whole days between the UTC calendar dates of from and to.
// Wall-clock time within the day is ignored.
func DaysBetween(from, to time.Time) int {
	return int(StartOfDayUTC(to).Sub(StartOfDayUTC(from)) / (24 * time.Hour))
}

// StartOfDayUTC truncates t to midnight UTC.
func StartOfDayUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
