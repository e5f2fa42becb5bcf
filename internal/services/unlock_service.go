package services

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Gantur-Enbotics/xmas-2025/internal/models"
	"github.com/Gantur-Enbotics/xmas-2025/pkg/logger"
)

var (
	ErrLetterNotFound = errors.New("no active letter for phone")
	ErrPhoneRequired  = errors.New("phone number is required")
)

// LetterStore is the persistence surface the unlock flow needs. The
// repository implements it; tests substitute a fake.
type LetterStore interface {
	FindActiveByPhone(phone string) (*models.Letter, error)
	StampVerified(phone string, at time.Time) (*models.Letter, error)
}

// Notifier receives best-effort unlock notifications.
type Notifier interface {
	LetterUnlocked(l *models.Letter)
}

type PreCheckResult struct {
	CanResend  bool
	LastSentAt *time.Time
}

// UnlockService owns the two gateway operations: the cooldown pre-check
// before a code send and the post-check that stamps the verification and
// reveals the record.
type UnlockService struct {
	Store    LetterStore
	Notifier Notifier
	Now      func() time.Time
}

func NewUnlockService(store LetterStore, notifier Notifier) *UnlockService {
	return &UnlockService{
		Store:    store,
		Notifier: notifier,
		Now:      time.Now,
	}
}

// PreCheck applies the resend cooldown against the letter's last
// verification stamp. Read-only: nothing is mutated here.
func (s *UnlockService) PreCheck(phone string) (*PreCheckResult, error) {
	l, err := s.Store.FindActiveByPhone(phone)
	if err != nil {
		return nil, fmt.Errorf("precheck lookup: %w", err)
	}
	if l == nil {
		return nil, ErrLetterNotFound
	}
	return &PreCheckResult{
		CanResend:  CanSend(l.LoggedAt, s.Now()),
		LastSentAt: l.LoggedAt,
	}, nil
}

// PostCheck stamps loggedAt unconditionally and returns the full record.
// By the time this runs the caller has already proven code possession
// through the verification provider, so no cooldown check happens here.
func (s *UnlockService) PostCheck(phone string) (*models.Letter, error) {
	l, err := s.Store.StampVerified(phone, s.Now())
	if err != nil {
		return nil, fmt.Errorf("postcheck stamp: %w", err)
	}
	if l == nil {
		return nil, ErrLetterNotFound
	}
	logger.Info("letter unlocked", zap.String("letter_id", l.ID), zap.String("phone", l.Phone))
	if s.Notifier != nil {
		s.Notifier.LetterUnlocked(l)
	}
	return l, nil
}
