package account

import "errors"

var (
	ErrAccountNotFound       = errors.New("account not found")
	ErrAccountAlreadyExists  = errors.New("account already exists")
	ErrReferralCodeTaken     = errors.New("referral code already taken")
	ErrReferralCodeExhausted = errors.New("could not generate a unique referral code")
	ErrReferralExists        = errors.New("referral already recorded")
	ErrSelfReferral          = errors.New("account cannot refer itself")

	ErrMissingAccountID = errors.New("account id is required")
	ErrMissingEmail     = errors.New("email is required")
	ErrInvalidSignup    = errors.New("invalid signup payload")

	ErrFailedToProvision = errors.New("failed to provision account")
)

var (
	ErrHookSecretNotConfigured = errors.New("provisioning hook secret is not configured")
	ErrInvalidHookSecret       = errors.New("invalid provisioning hook secret")
)
