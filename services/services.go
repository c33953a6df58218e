// Package services holds the business rules of the practice API. Every
// operation is scoped to the organization of the caller's session.
package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"PracticeManager/apperrors"
	"PracticeManager/cache"
)

// EmailQueue hands emails to the background worker.
type EmailQueue interface {
	EnqueueResetCode(ctx context.Context, to, code string) error
	EnqueueWelcome(ctx context.Context, to, name, practice string) error
	EnqueueInvitation(ctx context.Context, to, name, practice, username string) error
}

// Locker takes distributed locks. *cache.Cache implements it.
type Locker interface {
	AcquireLock(ctx context.Context, key string) (func(context.Context) error, error)
}

// withLock runs fn while holding key. A busy lock is reported as a 409 so
// the client can resubmit.
func withLock(ctx context.Context, locker Locker, log zerolog.Logger, key string, fn func() error) error {
	release, err := locker.AcquireLock(ctx, key)
	if err != nil {
		if errors.Is(err, cache.ErrLockNotAcquired) {
			return apperrors.Conflict("another update is in progress, please try again")
		}
		return err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			log.Warn().Err(err).Str("lock", key).Msg("Failed to release lock")
		}
	}()
	return fn()
}

// validationError converts rule failures to a 400 and passes anything
// else through.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Validation(err)
}
