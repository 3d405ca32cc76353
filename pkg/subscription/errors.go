package subscription

import "errors"

var (
	ErrPlanNotFound             = errors.New("subscription plan not found")
	ErrInvalidPlanConfiguration = errors.New("invalid subscription plan configuration")
	ErrFailedToLoadPlans        = errors.New("failed to load subscription plans")
	ErrInvalidInterval          = errors.New("invalid billing interval")

	ErrSubscriptionNotFound      = errors.New("subscription not found")
	ErrSubscriptionAlreadyExists = errors.New("subscription already exists")
	ErrInvalidSubscriptionState  = errors.New("invalid subscription state")

	ErrMissingAccountID    = errors.New("account ID is required")
	ErrMissingCustomerCode = errors.New("provider customer code is required")
	ErrInvalidTrialLength  = errors.New("trial length must be positive")
)
