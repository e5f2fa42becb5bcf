package provider

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codeFromText = regexp.MustCompile(`\d{6}`)

// captureSender records the last code delivered instead of sending SMS.
type captureSender struct {
	lastCode string
	sendErr  error
	sent     int
}

func (s *captureSender) Send(_ context.Context, _, text string) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent++
	s.lastCode = codeFromText.FindString(text)
	return nil
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestProvider(sender *captureSender, clock *testClock) *SMSProvider {
	return newSMSProvider(newMemoryStore(clock.Now), sender, WithClock(clock.Now))
}

const testPhone = "+976 99112233"

func sendTestCode(t *testing.T, p *SMSProvider) *Confirmation {
	t.Helper()
	ctx := context.Background()
	ch, err := p.SetupChallenge(ctx)
	require.NoError(t, err)
	conf, err := p.SendCode(ctx, testPhone, ch)
	require.NoError(t, err)
	return conf
}

func TestSendAndConfirm(t *testing.T) {
	sender := &captureSender{}
	clock := &testClock{now: time.Date(2025, 12, 24, 12, 0, 0, 0, time.UTC)}
	p := newTestProvider(sender, clock)

	conf := sendTestCode(t, p)
	require.Len(t, sender.lastCode, 6)

	id, err := p.Confirm(context.Background(), conf, sender.lastCode)
	require.NoError(t, err)
	assert.Equal(t, testPhone, id.Phone)
	assert.Equal(t, clock.now, id.VerifiedAt)
}

func TestSendCodeInvalidPhone(t *testing.T) {
	sender := &captureSender{}
	clock := &testClock{now: time.Now()}
	p := newTestProvider(sender, clock)
	ctx := context.Background()

	ch, err := p.SetupChallenge(ctx)
	require.NoError(t, err)

	_, err = p.SendCode(ctx, "99112233", ch)
	assert.ErrorIs(t, err, ErrInvalidPhone)
	assert.Zero(t, sender.sent)
}

func TestSendCodeRequiresLiveChallenge(t *testing.T) {
	sender := &captureSender{}
	clock := &testClock{now: time.Now()}
	p := newTestProvider(sender, clock)
	ctx := context.Background()

	_, err := p.SendCode(ctx, testPhone, nil)
	assert.ErrorIs(t, err, ErrChallengeSetupFailed)

	_, err = p.SendCode(ctx, testPhone, &Challenge{Token: "stale"})
	assert.ErrorIs(t, err, ErrChallengeSetupFailed)
}

func TestChallengeIsSingleUse(t *testing.T) {
	sender := &captureSender{}
	clock := &testClock{now: time.Now()}
	p := newTestProvider(sender, clock)
	ctx := context.Background()

	ch, err := p.SetupChallenge(ctx)
	require.NoError(t, err)
	_, err = p.SendCode(ctx, testPhone, ch)
	require.NoError(t, err)

	_, err = p.SendCode(ctx, testPhone, ch)
	assert.ErrorIs(t, err, ErrChallengeSetupFailed)
}

func TestSendCodeGatewayErrors(t *testing.T) {
	tests := []struct {
		name    string
		sendErr error
		want    error
	}{
		{name: "throttled", sendErr: errGatewayThrottled, want: ErrRateLimited},
		{name: "outage", sendErr: errors.New("connection refused"), want: ErrProviderUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &captureSender{sendErr: tt.sendErr}
			clock := &testClock{now: time.Now()}
			p := newTestProvider(sender, clock)
			ctx := context.Background()

			ch, err := p.SetupChallenge(ctx)
			require.NoError(t, err)
			_, err = p.SendCode(ctx, testPhone, ch)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestConfirmWrongCode(t *testing.T) {
	sender := &captureSender{}
	clock := &testClock{now: time.Now()}
	p := newTestProvider(sender, clock)
	conf := sendTestCode(t, p)
	ctx := context.Background()

	wrong := "000000"
	if wrong == sender.lastCode {
		wrong = "000001"
	}

	// a few wrong guesses leave the code usable
	for i := 0; i < maxConfirmAttempts-2; i++ {
		_, err := p.Confirm(ctx, conf, wrong)
		assert.ErrorIs(t, err, ErrInvalidCode)
	}

	id, err := p.Confirm(ctx, conf, sender.lastCode)
	require.NoError(t, err)
	assert.Equal(t, testPhone, id.Phone)
}

func TestConfirmAttemptCapBurnsCode(t *testing.T) {
	sender := &captureSender{}
	clock := &testClock{now: time.Now()}
	p := newTestProvider(sender, clock)
	conf := sendTestCode(t, p)
	ctx := context.Background()

	wrong := "000000"
	if wrong == sender.lastCode {
		wrong = "000001"
	}

	var lastErr error
	for i := 0; i < maxConfirmAttempts; i++ {
		_, lastErr = p.Confirm(ctx, conf, wrong)
	}
	assert.ErrorIs(t, lastErr, ErrCodeExpired)

	// even the right code is dead now
	_, err := p.Confirm(ctx, conf, sender.lastCode)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestConfirmExpiredCode(t *testing.T) {
	sender := &captureSender{}
	clock := &testClock{now: time.Now()}
	p := newTestProvider(sender, clock)
	conf := sendTestCode(t, p)

	clock.Advance(defaultCodeTTL + time.Second)

	_, err := p.Confirm(context.Background(), conf, sender.lastCode)
	assert.ErrorIs(t, err, ErrCodeExpired)
}

func TestConfirmAfterTeardown(t *testing.T) {
	sender := &captureSender{}
	clock := &testClock{now: time.Now()}
	p := newTestProvider(sender, clock)
	conf := sendTestCode(t, p)
	ctx := context.Background()

	require.NoError(t, p.Teardown(ctx, nil, conf))

	_, err := p.Confirm(ctx, conf, sender.lastCode)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestConfirmIsSingleUse(t *testing.T) {
	sender := &captureSender{}
	clock := &testClock{now: time.Now()}
	p := newTestProvider(sender, clock)
	conf := sendTestCode(t, p)
	ctx := context.Background()

	_, err := p.Confirm(ctx, conf, sender.lastCode)
	require.NoError(t, err)

	_, err = p.Confirm(ctx, conf, sender.lastCode)
	assert.ErrorIs(t, err, ErrSessionExpired)
}
