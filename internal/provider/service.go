package provider

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Gantur-Enbotics/xmas-2025/internal/utils"
	"github.com/Gantur-Enbotics/xmas-2025/pkg/logger"
)

const (
	defaultCodeTTL      = 5 * time.Minute
	defaultChallengeTTL = 10 * time.Minute
	maxConfirmAttempts  = 5

	// codeRetention keeps a record past its logical expiry so Confirm can
	// report CodeExpired instead of SessionExpired for a while.
	codeRetention = 30 * time.Minute
)

// smsSender is what the provider needs from the gateway client.
type smsSender interface {
	Send(ctx context.Context, to, text string) error
}

// SMSProvider implements Provider on top of the SMS gateway and a state
// store. Codes are stored bcrypt-hashed under the confirmation handle
// with a TTL and an attempt counter.
type SMSProvider struct {
	store        stateStore
	sms          smsSender
	codeTTL      time.Duration
	challengeTTL time.Duration
	now          func() time.Time
}

// Option tweaks provider construction.
type Option func(*SMSProvider)

func WithCodeTTL(ttl time.Duration) Option {
	return func(p *SMSProvider) {
		if ttl > 0 {
			p.codeTTL = ttl
		}
	}
}

func WithChallengeTTL(ttl time.Duration) Option {
	return func(p *SMSProvider) {
		if ttl > 0 {
			p.challengeTTL = ttl
		}
	}
}

// WithClock overrides the time source, used in tests.
func WithClock(now func() time.Time) Option {
	return func(p *SMSProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// NewSMSProvider builds the production provider backed by redis.
func NewSMSProvider(client *redis.Client, sms *SMSClient, opts ...Option) *SMSProvider {
	return newSMSProvider(newRedisStore(client), sms, opts...)
}

// NewInProcessProvider keeps all state in memory. Good for tests and
// single-process dry runs; useless behind a load balancer.
func NewInProcessProvider(sms *SMSClient, opts ...Option) *SMSProvider {
	p := &SMSProvider{sms: sms, codeTTL: defaultCodeTTL, challengeTTL: defaultChallengeTTL, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	p.store = newMemoryStore(p.now)
	return p
}

func newSMSProvider(store stateStore, sms smsSender, opts ...Option) *SMSProvider {
	p := &SMSProvider{
		store:        store,
		sms:          sms,
		codeTTL:      defaultCodeTTL,
		challengeTTL: defaultChallengeTTL,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *SMSProvider) SetupChallenge(ctx context.Context) (*Challenge, error) {
	token := uuid.NewString()
	if err := p.store.PutChallenge(ctx, token, p.challengeTTL); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChallengeSetupFailed, err)
	}
	return &Challenge{Token: token}, nil
}

// SendCode consumes the challenge and issues a fresh code. A stale or
// already-consumed challenge is rejected; the caller must set up a new
// one, matching the external widget's behavior.
func (p *SMSProvider) SendCode(ctx context.Context, phone string, ch *Challenge) (*Confirmation, error) {
	if !utils.ValidPhone(phone) {
		return nil, ErrInvalidPhone
	}
	if ch == nil || ch.Token == "" {
		return nil, ErrChallengeSetupFailed
	}
	ok, err := p.store.HasChallenge(ctx, ch.Token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if !ok {
		return nil, ErrChallengeSetupFailed
	}

	code, err := generateCode()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	handle := uuid.NewString()
	rec := &codeRecord{
		Phone:     phone,
		CodeHash:  string(hash),
		ExpiresAt: p.now().Add(p.codeTTL),
	}
	if err := p.store.PutCode(ctx, handle, rec, p.codeTTL+codeRetention); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	if err := p.sms.Send(ctx, phone, fmt.Sprintf("Your verification code: %s", code)); err != nil {
		_ = p.store.DeleteCode(ctx, handle)
		if errors.Is(err, errGatewayThrottled) {
			return nil, ErrRateLimited
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	// challenge is single-use: consumed by this send
	_ = p.store.DeleteChallenge(ctx, ch.Token)

	logger.Info("verification code sent", zap.String("phone", phone), zap.String("handle", handle))
	return &Confirmation{Handle: handle, Phone: phone}, nil
}

func (p *SMSProvider) Confirm(ctx context.Context, conf *Confirmation, code string) (*Identity, error) {
	if conf == nil || conf.Handle == "" {
		return nil, ErrSessionExpired
	}
	rec, err := p.store.GetCode(ctx, conf.Handle)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if rec == nil {
		return nil, ErrSessionExpired
	}
	if p.now().After(rec.ExpiresAt) {
		_ = p.store.DeleteCode(ctx, conf.Handle)
		return nil, ErrCodeExpired
	}

	if bcrypt.CompareHashAndPassword([]byte(rec.CodeHash), []byte(code)) != nil {
		attempts, incErr := p.store.IncAttempts(ctx, conf.Handle)
		if incErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, incErr)
		}
		if attempts >= maxConfirmAttempts {
			// attempt cap burns the code; the caller must resend
			_ = p.store.DeleteCode(ctx, conf.Handle)
			return nil, ErrCodeExpired
		}
		return nil, ErrInvalidCode
	}

	// success consumes the handle
	if err := p.store.DeleteCode(ctx, conf.Handle); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	logger.Info("verification confirmed", zap.String("phone", rec.Phone))
	return &Identity{Phone: rec.Phone, VerifiedAt: p.now()}, nil
}

func (p *SMSProvider) Teardown(ctx context.Context, ch *Challenge, conf *Confirmation) error {
	var first error
	if ch != nil && ch.Token != "" {
		if err := p.store.DeleteChallenge(ctx, ch.Token); err != nil && first == nil {
			first = err
		}
	}
	if conf != nil && conf.Handle != "" {
		if err := p.store.DeleteCode(ctx, conf.Handle); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
