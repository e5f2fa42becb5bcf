package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gantur-Enbotics/xmas-2025/internal/models"
)

type fakeLetterStore struct {
	byPhone map[string]*models.Letter
}

func newFakeLetterStore(letters ...*models.Letter) *fakeLetterStore {
	s := &fakeLetterStore{byPhone: make(map[string]*models.Letter)}
	for _, l := range letters {
		s.byPhone[l.Phone] = l
	}
	return s
}

func (s *fakeLetterStore) FindActiveByPhone(phone string) (*models.Letter, error) {
	l, ok := s.byPhone[phone]
	if !ok || l.Deleted {
		return nil, nil
	}
	copied := *l
	return &copied, nil
}

func (s *fakeLetterStore) StampVerified(phone string, at time.Time) (*models.Letter, error) {
	l, ok := s.byPhone[phone]
	if !ok || l.Deleted {
		return nil, nil
	}
	stamped := at
	l.LoggedAt = &stamped
	copied := *l
	return &copied, nil
}

type recordingNotifier struct {
	unlocked []string
}

func (n *recordingNotifier) LetterUnlocked(l *models.Letter) {
	n.unlocked = append(n.unlocked, l.ID)
}

func testLetter(phone string, loggedAt *time.Time) *models.Letter {
	return &models.Letter{
		ID:        "letter-1",
		Phone:     phone,
		Title:     "Dear you",
		Context:   "A very long letter",
		LoggedAt:  loggedAt,
		CreatedAt: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestPreCheckNoRecord(t *testing.T) {
	svc := NewUnlockService(newFakeLetterStore(), nil)

	_, err := svc.PreCheck("+976 99001122")
	assert.ErrorIs(t, err, ErrLetterNotFound)
}

func TestPreCheckCooldown(t *testing.T) {
	now := time.Date(2025, 12, 24, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		loggedAt      *time.Time
		wantCanResend bool
	}{
		{name: "never verified", loggedAt: nil, wantCanResend: true},
		{name: "verified one hour ago", loggedAt: timePtr(now.Add(-time.Hour)), wantCanResend: false},
		{name: "verified three days ago", loggedAt: timePtr(now.Add(-72 * time.Hour)), wantCanResend: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewUnlockService(newFakeLetterStore(testLetter("+976 99112233", tt.loggedAt)), nil)
			svc.Now = func() time.Time { return now }

			res, err := svc.PreCheck("+976 99112233")
			require.NoError(t, err)
			assert.Equal(t, tt.wantCanResend, res.CanResend)
			assert.Equal(t, tt.loggedAt, res.LastSentAt)
		})
	}
}

func TestPostCheckStampsAndReturnsRecord(t *testing.T) {
	now := time.Date(2025, 12, 24, 12, 0, 0, 0, time.UTC)
	notifier := &recordingNotifier{}
	svc := NewUnlockService(newFakeLetterStore(testLetter("+976 99112233", nil)), notifier)
	svc.Now = func() time.Time { return now }

	l, err := svc.PostCheck("+976 99112233")
	require.NoError(t, err)
	require.NotNil(t, l.LoggedAt)
	assert.Equal(t, now, *l.LoggedAt)
	assert.Equal(t, "Dear you", l.Title)
	assert.Equal(t, []string{"letter-1"}, notifier.unlocked)
}

func TestPostCheckIsIdempotentAndMonotonic(t *testing.T) {
	now := time.Date(2025, 12, 24, 12, 0, 0, 0, time.UTC)
	svc := NewUnlockService(newFakeLetterStore(testLetter("+976 99112233", nil)), nil)
	svc.Now = func() time.Time { return now }

	first, err := svc.PostCheck("+976 99112233")
	require.NoError(t, err)

	now = now.Add(time.Minute)
	second, err := svc.PostCheck("+976 99112233")
	require.NoError(t, err)

	assert.False(t, second.LoggedAt.Before(*first.LoggedAt))
	assert.Equal(t, first.Title, second.Title)
	assert.Equal(t, first.Context, second.Context)
	assert.Equal(t, first.ID, second.ID)
}

func TestPostCheckNoRecord(t *testing.T) {
	svc := NewUnlockService(newFakeLetterStore(), nil)

	_, err := svc.PostCheck("+976 99001122")
	assert.ErrorIs(t, err, ErrLetterNotFound)
}

func timePtr(t time.Time) *time.Time { return &t }
