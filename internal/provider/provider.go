// Package provider wraps the external phone-verification capability:
// bot-check challenge setup, code delivery over SMS, and code
// confirmation. Callers hold opaque handles; all verification state
// lives inside the provider, never in the unlock gateway.
package provider

import (
	"context"
	"errors"
	"time"
)

var (
	// send-side failures
	ErrInvalidPhone         = errors.New("invalid phone number")
	ErrRateLimited          = errors.New("provider rate limit hit")
	ErrProviderUnavailable  = errors.New("provider unavailable")
	ErrChallengeSetupFailed = errors.New("challenge setup failed")

	// confirm-side failures
	ErrInvalidCode    = errors.New("invalid code")
	ErrCodeExpired    = errors.New("code expired")
	ErrSessionExpired = errors.New("verification session expired")
)

// Challenge is the bot-check artifact that must exist before the
// provider accepts a send request. Single-use: consumed by SendCode.
type Challenge struct {
	Token string
}

// Confirmation binds one sent code to its eventual confirmation call.
// Single-use and tied to exactly one SendCode.
type Confirmation struct {
	Handle string
	Phone  string
}

// Identity is the proof of phone ownership returned on a successful
// confirmation.
type Identity struct {
	Phone      string
	VerifiedAt time.Time
}

type Provider interface {
	// SetupChallenge establishes a fresh bot-check artifact. Failure is
	// reported as ErrChallengeSetupFailed so the caller can retry setup
	// separately from the send itself.
	SetupChallenge(ctx context.Context) (*Challenge, error)

	// SendCode consumes the challenge, delivers a one-time code to phone
	// and returns the handle needed to confirm it.
	SendCode(ctx context.Context, phone string, ch *Challenge) (*Confirmation, error)

	// Confirm checks the submitted code against the handle. The handle is
	// invalidated on success and on terminal failure (expiry, attempt cap).
	Confirm(ctx context.Context, conf *Confirmation, code string) (*Identity, error)

	// Teardown discards any still-live artifacts. Safe to call with nil
	// or already-consumed handles; every session exit path runs it.
	Teardown(ctx context.Context, ch *Challenge, conf *Confirmation) error
}
