// Package verifier drives the client side of the unlock flow: the
// phase machine from opening the modal through code confirmation to the
// unlocked letter. One Session belongs to one goroutine; the cooperative
// event-driven caller never overlaps calls, and in-flight phases guard
// against reentrant triggers.
package verifier

import (
	"context"
	"errors"
	"regexp"

	"github.com/Gantur-Enbotics/xmas-2025/internal/models"
	"github.com/Gantur-Enbotics/xmas-2025/internal/provider"
)

type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseSending      Phase = "sending"
	PhaseAwaitingCode Phase = "awaiting_code"
	PhaseVerifying    Phase = "verifying"
	PhaseSucceeded    Phase = "succeeded"
	PhaseFailed       Phase = "failed"
)

// Reason explains why a session ended up in PhaseFailed.
type Reason string

const (
	ReasonNone                Reason = ""
	ReasonNoLetter            Reason = "no_letter"
	ReasonCooldownActive      Reason = "cooldown_active"
	ReasonInvalidPhone        Reason = "invalid_phone"
	ReasonRateLimited         Reason = "rate_limited"
	ReasonProviderUnavailable Reason = "provider_unavailable"
	ReasonChallengeSetup      Reason = "challenge_setup_failed"
	ReasonCodeExpired         Reason = "code_expired"
	ReasonSessionExpired      Reason = "session_expired"
	ReasonGateway             Reason = "gateway_error"
)

var (
	ErrCodeFormat = errors.New("code must be 6 digits")
	ErrBadPhase   = errors.New("operation not allowed in current phase")
)

var codeRe = regexp.MustCompile(`^\d{6}$`)

// Session is the verification state machine for one phone/letter pair.
type Session struct {
	phone    string
	gateway  Gateway
	provider provider.Provider

	phase        Phase
	reason       Reason
	challenge    *provider.Challenge
	confirmation *provider.Confirmation
	letter       *models.LetterView
}

func NewSession(phone string, gw Gateway, p provider.Provider) *Session {
	return &Session{
		phone:    phone,
		gateway:  gw,
		provider: p,
		phase:    PhaseIdle,
	}
}

func (s *Session) Phase() Phase               { return s.phase }
func (s *Session) Reason() Reason             { return s.reason }
func (s *Session) Letter() *models.LetterView { return s.letter }

// Open starts the first send cycle. Only valid from Idle; reopening a
// closed session starts fresh, never resumes.
func (s *Session) Open(ctx context.Context) error {
	if s.phase != PhaseIdle {
		return ErrBadPhase
	}
	return s.send(ctx)
}

// Resend tears down the previous challenge and handle and runs a fresh
// send cycle, cooldown re-checked. While a send or confirmation is
// already in flight this is an idempotent no-op, so double clicks
// neither queue nor abort anything.
func (s *Session) Resend(ctx context.Context) error {
	switch s.phase {
	case PhaseSending, PhaseVerifying:
		return nil
	case PhaseAwaitingCode, PhaseFailed:
		s.teardown(ctx)
		s.reason = ReasonNone
		return s.send(ctx)
	default:
		return ErrBadPhase
	}
}

// SubmitCode confirms the user-entered code and, on success, runs the
// gateway post-check and hands over the unlocked letter.
func (s *Session) SubmitCode(ctx context.Context, code string) (*models.LetterView, error) {
	if s.phase != PhaseAwaitingCode {
		return nil, ErrBadPhase
	}
	if !codeRe.MatchString(code) {
		// stays in AwaitingCode; the user just retypes
		return nil, ErrCodeFormat
	}

	s.phase = PhaseVerifying
	_, err := s.provider.Confirm(ctx, s.confirmation, code)
	switch {
	case err == nil:
		// handle is consumed by a successful confirm
		s.confirmation = nil
	case errors.Is(err, provider.ErrInvalidCode):
		s.phase = PhaseAwaitingCode
		return nil, err
	case errors.Is(err, provider.ErrCodeExpired):
		s.fail(ctx, ReasonCodeExpired)
		return nil, err
	case errors.Is(err, provider.ErrSessionExpired):
		s.fail(ctx, ReasonSessionExpired)
		return nil, err
	default:
		s.fail(ctx, ReasonProviderUnavailable)
		return nil, err
	}

	letter, err := s.gateway.PostCheck(ctx, s.phone)
	if err != nil {
		if errors.Is(err, ErrNoLetter) {
			s.fail(ctx, ReasonNoLetter)
		} else {
			s.fail(ctx, ReasonGateway)
		}
		return nil, err
	}

	s.letter = letter
	s.phase = PhaseSucceeded
	return letter, nil
}

// Close abandons the session from any phase. Artifacts are torn down so
// a stale confirmation can never land later.
func (s *Session) Close(ctx context.Context) {
	s.teardown(ctx)
	s.phase = PhaseIdle
	s.reason = ReasonNone
	s.letter = nil
}

// send runs one full send cycle: cooldown pre-check, challenge setup,
// code delivery.
func (s *Session) send(ctx context.Context) error {
	s.phase = PhaseSending

	pre, err := s.gateway.PreCheck(ctx, s.phone)
	if err != nil {
		if errors.Is(err, ErrNoLetter) {
			s.fail(ctx, ReasonNoLetter)
		} else {
			s.fail(ctx, ReasonGateway)
		}
		return err
	}
	if !pre.CanResend {
		s.fail(ctx, ReasonCooldownActive)
		return nil
	}

	ch, err := s.provider.SetupChallenge(ctx)
	if err != nil {
		s.fail(ctx, ReasonChallengeSetup)
		return err
	}
	s.challenge = ch

	conf, err := s.provider.SendCode(ctx, s.phone, ch)
	if err != nil {
		s.fail(ctx, sendReason(err))
		return err
	}
	s.challenge = nil // consumed by the send
	s.confirmation = conf
	s.phase = PhaseAwaitingCode
	return nil
}

func (s *Session) fail(ctx context.Context, reason Reason) {
	s.teardown(ctx)
	s.phase = PhaseFailed
	s.reason = reason
}

func (s *Session) teardown(ctx context.Context) {
	if s.challenge != nil || s.confirmation != nil {
		_ = s.provider.Teardown(ctx, s.challenge, s.confirmation)
	}
	s.challenge = nil
	s.confirmation = nil
}

func sendReason(err error) Reason {
	switch {
	case errors.Is(err, provider.ErrInvalidPhone):
		return ReasonInvalidPhone
	case errors.Is(err, provider.ErrRateLimited):
		return ReasonRateLimited
	case errors.Is(err, provider.ErrChallengeSetupFailed):
		return ReasonChallengeSetup
	default:
		return ReasonProviderUnavailable
	}
}
