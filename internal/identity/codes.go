package identity

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"cgms.org/internal/obs"
)

var codeRange = big.NewInt(1000000)

// generateCode draws a 6-digit code from a uniform range.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeRange)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// RequestVerification issues a fresh one-time code for the account matching
// email, persists the code/expiry pair, and hands delivery to the notifier.
// Any previous pending code is replaced. Returns ErrNotFound for an unknown
// email; the HTTP layer masks that to avoid address enumeration.
func (s *Service) RequestVerification(ctx context.Context, email string) error {
	account, err := s.store.GetAccountByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return err
	}

	code, err := s.newCode()
	if err != nil {
		return err
	}
	pending := VerificationCode{
		Code:      code,
		ExpiresAt: s.now().UTC().Add(s.codeTTL),
	}
	if err := s.store.SetVerificationCode(ctx, account.ID, pending); err != nil {
		return err
	}
	obs.CountVerificationCodeIssued()

	if s.notifier != nil {
		if err := s.notifier.SendVerificationCode(ctx, account.Email, code, s.codeTTL); err != nil {
			return fmt.Errorf("deliver verification code: %w", err)
		}
	}
	return nil
}

// VerifyCode consumes a pending code. It succeeds only when the submitted
// code matches the stored one and the expiry has not passed; success marks
// the account verified and clears the pair, so replaying the same code
// fails afterwards. Wrong and expired codes share one error.
func (s *Service) VerifyCode(ctx context.Context, email, submitted string) error {
	account, err := s.store.GetAccountByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return err
	}

	pending := account.Pending
	if pending == nil {
		return ErrCodeInvalidOrExpired
	}
	submitted = strings.TrimSpace(submitted)
	if submitted == "" || pending.Code != submitted {
		return ErrCodeInvalidOrExpired
	}
	if !s.now().UTC().Before(pending.ExpiresAt) {
		return ErrCodeInvalidOrExpired
	}
	return s.store.MarkVerified(ctx, account.ID)
}
