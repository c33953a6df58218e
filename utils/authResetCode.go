package utils

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strings"
	"time"

	"PracticeManager/cache"
)

const (
	ResetCodeExpiry = 15 * time.Minute
	// MaxResetAttempts wrong guesses burn the pending code.
	MaxResetAttempts = 5
)

// GenerateResetCode generates a random 6-digit reset code.
func GenerateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// ResetCodes keeps pending password reset codes in Redis.
type ResetCodes struct {
	cache *cache.Cache
}

func NewResetCodes(c *cache.Cache) *ResetCodes {
	return &ResetCodes{cache: c}
}

func resetCodeKey(email string) string {
	return "reset_code:" + strings.ToLower(strings.TrimSpace(email))
}

func resetAttemptsKey(email string) string {
	return resetCodeKey(email) + ":attempts"
}

// Set stores the code for email for 15 minutes, replacing any earlier code
// and its miss count.
func (r *ResetCodes) Set(ctx context.Context, email, code string) error {
	if err := r.cache.Delete(ctx, resetAttemptsKey(email)); err != nil {
		return err
	}
	return r.cache.Set(ctx, resetCodeKey(email), code, ResetCodeExpiry)
}

// Matches reports whether code is the pending code for email. Every miss
// is counted and the code is dropped after MaxResetAttempts misses.
func (r *ResetCodes) Matches(ctx context.Context, email, code string) (bool, error) {
	stored, err := r.cache.Get(ctx, resetCodeKey(email))
	if err != nil {
		return false, err
	}
	if stored == "" {
		return false, nil
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) == 1 {
		return true, nil
	}

	misses, err := r.cache.Incr(ctx, resetAttemptsKey(email), ResetCodeExpiry)
	if err != nil {
		return false, err
	}
	if misses >= MaxResetAttempts {
		if err := r.Delete(ctx, email); err != nil {
			return false, err
		}
	}
	return false, nil
}

func (r *ResetCodes) Delete(ctx context.Context, email string) error {
	return r.cache.Delete(ctx, resetCodeKey(email), resetAttemptsKey(email))
}
