package account

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the account-level plan status shown to the dashboard.
type Status string

const (
	StatusFreeTrial Status = "FreeTrial"
	StatusActive    Status = "Active"
	StatusPastDue   Status = "PastDue"
	StatusCanceled  Status = "Canceled"
	StatusExpired   Status = "Expired"
)

// Account is the tenant record created at signup.
// ReferralCode is assigned once and never changes; ReferralCount only grows.
type Account struct {
	ID                  uuid.UUID  `json:"id"`
	Email               string     `json:"email"`
	Name                string     `json:"name,omitempty"`
	CompanyName         string     `json:"company_name,omitempty"`
	CompanyEmail        string     `json:"company_email,omitempty"`
	CompanyPhone        string     `json:"company_phone,omitempty"`
	ReferralCode        string     `json:"referral_code"`
	ReferredBy          *uuid.UUID `json:"referred_by,omitempty"`
	ReferralCount       int        `json:"referral_count"`
	Status              Status     `json:"status"`
	SubscriptionEndDate *time.Time `json:"subscription_end_date,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// ReferralStatus is the state of a referral record.
type ReferralStatus string

const (
	ReferralPending   ReferralStatus = "Pending"
	ReferralCompleted ReferralStatus = "Completed"
)

// Referral links a referrer to the account that signed up with their code.
// At most one exists per (ReferrerID, ReferredID) pair.
type Referral struct {
	ID         uuid.UUID
	ReferrerID uuid.UUID
	ReferredID uuid.UUID
	Status     ReferralStatus
	CreatedAt  time.Time
}

// Signup is the payload sent by the auth provider when a user is created.
type Signup struct {
	ID    uuid.UUID  `json:"id"`
	Email string     `json:"email"`
	Meta  SignupMeta `json:"raw_user_meta_data"`
}

// SignupMeta is the optional metadata collected by the signup form.
type SignupMeta struct {
	Name         string `json:"name,omitempty"`
	ReferralCode string `json:"referral_code,omitempty"`
	CompanyName  string `json:"company_name,omitempty"`
	CompanyEmail string `json:"company_email,omitempty"`
	CompanyPhone string `json:"company_phone,omitempty"`
}

// Validate checks the fields provisioning cannot do without.
func (s Signup) Validate() error {
	if s.ID == uuid.Nil {
		return ErrMissingAccountID
	}
	if strings.TrimSpace(s.Email) == "" {
		return ErrMissingEmail
	}
	return nil
}

// referralCode returns the normalized referral code from the metadata, if any.
func (s Signup) referralCode() string {
	return NormalizeReferralCode(s.Meta.ReferralCode)
}

// NormalizeReferralCode trims and upper-cases a user-supplied code.
func NormalizeReferralCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
