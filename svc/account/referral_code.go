package account

import (
	"context"
	"crypto/rand"
	"errors"
)

const (
	ReferralCodePrefix      = "DB"
	referralCodeLength      = 6
	referralCodeAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxReferralCodeAttempts = 10
)

// CodeGenerator produces candidate referral codes.
type CodeGenerator func() (string, error)

// GenerateReferralCode returns ReferralCodePrefix followed by 6 random
// upper-case alphanumerics drawn from crypto/rand.
func GenerateReferralCode() (string, error) {
	// 252 is the largest multiple of 36 below 256; higher bytes are redrawn.
	const limit = 256 - 256%len(referralCodeAlphabet)

	out := make([]byte, 0, len(ReferralCodePrefix)+referralCodeLength)
	out = append(out, ReferralCodePrefix...)

	buf := make([]byte, referralCodeLength*2)
	for len(out) < cap(out) {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, referralCodeAlphabet[int(b)%len(referralCodeAlphabet)])
			if len(out) == cap(out) {
				break
			}
		}
	}
	return string(out), nil
}

// createWithReferralCode assigns a fresh referral code to acc and inserts it.
// A code already in the store, or one that loses an insert race, costs one attempt.
func (s *Service) createWithReferralCode(ctx context.Context, acc *Account) error {
	for range maxReferralCodeAttempts {
		code, err := s.generate()
		if err != nil {
			return errors.Join(ErrFailedToProvision, err)
		}
		exists, err := s.store.ReferralCodeExists(ctx, code)
		if err != nil {
			return errors.Join(ErrFailedToProvision, err)
		}
		if exists {
			continue
		}

		acc.ReferralCode = code
		err = s.store.CreateAccount(ctx, acc)
		if errors.Is(err, ErrReferralCodeTaken) {
			continue
		}
		return err
	}
	return ErrReferralCodeExhausted
}
