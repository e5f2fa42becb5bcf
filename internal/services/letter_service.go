package services

import (
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Gantur-Enbotics/xmas-2025/internal/models"
	"github.com/Gantur-Enbotics/xmas-2025/internal/repositories"
	"github.com/Gantur-Enbotics/xmas-2025/internal/utils"
	"github.com/Gantur-Enbotics/xmas-2025/pkg/logger"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrPhoneExists  = errors.New("a letter already exists for this phone number")
)

// maxEmbeddedBytes is the decoded size ceiling for embedded attachments.
const maxEmbeddedBytes = 5 << 20 // 5 MiB

// AdminLetterStore is the persistence surface of the admin CRUD.
type AdminLetterStore interface {
	Create(l *models.Letter) error
	GetByID(id string) (*models.Letter, error)
	FindActiveByPhone(phone string) (*models.Letter, error)
	ListActive() ([]*models.Letter, error)
	Update(l *models.Letter) error
	SoftDelete(id string) error
}

// LetterService owns letter management. The unlock core only reads what
// this produces; loggedAt is never touched here.
type LetterService struct {
	Store AdminLetterStore
	Now   func() time.Time
}

func NewLetterService(store AdminLetterStore) *LetterService {
	return &LetterService{Store: store, Now: time.Now}
}

func (s *LetterService) ListPublicPreviews() ([]models.LetterPreview, error) {
	letters, err := s.Store.ListActive()
	if err != nil {
		return nil, fmt.Errorf("public previews: %w", err)
	}
	previews := make([]models.LetterPreview, 0, len(letters))
	for _, l := range letters {
		previews = append(previews, l.Preview())
	}
	return previews, nil
}

func (s *LetterService) ListAll() ([]*models.Letter, error) {
	return s.Store.ListActive()
}

func (s *LetterService) GetByID(id string) (*models.Letter, error) {
	l, err := s.Store.GetByID(id)
	if err != nil {
		return nil, err
	}
	if l == nil || l.Deleted {
		return nil, ErrLetterNotFound
	}
	return l, nil
}

func (s *LetterService) Create(in *models.LetterInput) (*models.Letter, error) {
	phone := utils.NormalizePhone(in.Phone)
	if phone == "" || in.Title == "" || in.Context == "" {
		return nil, fmt.Errorf("%w: phone, title, and context are required", ErrInvalidInput)
	}
	if !utils.ValidPhone(phone) {
		return nil, fmt.Errorf("%w: phone must be in format +<code> <number>", ErrInvalidInput)
	}
	attachments, err := normalizeAttachments(in.Attachments)
	if err != nil {
		return nil, err
	}

	existing, err := s.Store.FindActiveByPhone(phone)
	if err != nil {
		return nil, fmt.Errorf("letter create lookup: %w", err)
	}
	if existing != nil {
		return nil, ErrPhoneExists
	}

	l := &models.Letter{
		ID:          uuid.NewString(),
		Phone:       phone,
		Title:       in.Title,
		Context:     in.Context,
		ExtraNote:   in.ExtraNote,
		Attachments: attachments,
		CreatedAt:   s.Now(),
	}
	if err := s.Store.Create(l); err != nil {
		// The partial unique index still guards against a racing create.
		if errors.Is(err, repositories.ErrPhoneConflict) {
			return nil, ErrPhoneExists
		}
		return nil, err
	}
	logger.Info("letter created", zap.String("letter_id", l.ID), zap.String("phone", l.Phone))
	return l, nil
}

// Update patches only the fields present in the input, keeping the
// original's partial-update behavior. LoggedAt is deliberately left alone.
func (s *LetterService) Update(in *models.LetterInput) (*models.Letter, error) {
	if in.ID == "" {
		return nil, fmt.Errorf("%w: letter id is required", ErrInvalidInput)
	}
	l, err := s.Store.GetByID(in.ID)
	if err != nil {
		return nil, err
	}
	if l == nil || l.Deleted {
		return nil, ErrLetterNotFound
	}

	if in.Phone != "" {
		phone := utils.NormalizePhone(in.Phone)
		if !utils.ValidPhone(phone) {
			return nil, fmt.Errorf("%w: phone must be in format +<code> <number>", ErrInvalidInput)
		}
		if phone != l.Phone {
			other, err := s.Store.FindActiveByPhone(phone)
			if err != nil {
				return nil, fmt.Errorf("letter update lookup: %w", err)
			}
			if other != nil && other.ID != l.ID {
				return nil, ErrPhoneExists
			}
		}
		l.Phone = phone
	}
	if in.Title != "" {
		l.Title = in.Title
	}
	if in.Context != "" {
		l.Context = in.Context
	}
	l.ExtraNote = in.ExtraNote
	if in.Attachments != nil {
		attachments, err := normalizeAttachments(in.Attachments)
		if err != nil {
			return nil, err
		}
		l.Attachments = attachments
	}

	if err := s.Store.Update(l); err != nil {
		if errors.Is(err, repositories.ErrPhoneConflict) {
			return nil, ErrPhoneExists
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLetterNotFound
		}
		return nil, err
	}
	return l, nil
}

func (s *LetterService) Delete(id string) error {
	if id == "" {
		return fmt.Errorf("%w: letter id is required", ErrInvalidInput)
	}
	if err := s.Store.SoftDelete(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrLetterNotFound
		}
		return err
	}
	logger.Info("letter deleted", zap.String("letter_id", id))
	return nil
}

// normalizeAttachments validates the tagged attachment variants once at
// the store boundary.
func normalizeAttachments(attachments []models.Attachment) ([]models.Attachment, error) {
	out := make([]models.Attachment, 0, len(attachments))
	for i, a := range attachments {
		switch a.Kind {
		case models.AttachmentURL:
			u, err := url.Parse(a.Data)
			if err != nil || !u.IsAbs() || u.Host == "" {
				return nil, fmt.Errorf("%w: attachment %d: malformed url", ErrInvalidInput, i)
			}
		case models.AttachmentEmbedded:
			if err := validateEmbedded(a.Data); err != nil {
				return nil, fmt.Errorf("%w: attachment %d: %v", ErrInvalidInput, i, err)
			}
		default:
			return nil, fmt.Errorf("%w: attachment %d: unknown kind %q", ErrInvalidInput, i, a.Kind)
		}
		out = append(out, a)
	}
	return out, nil
}

// validateEmbedded requires a media-type-prefixed base64 data payload
// ("data:<mime>;base64,<payload>") with a decoded size under the ceiling.
func validateEmbedded(data string) error {
	rest, ok := strings.CutPrefix(data, "data:")
	if !ok {
		return errors.New("embedded data must be a data: payload")
	}
	mediaType, payload, ok := strings.Cut(rest, ";base64,")
	if !ok || mediaType == "" {
		return errors.New("embedded data must declare a media type and base64 payload")
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > maxEmbeddedBytes {
		return fmt.Errorf("embedded data exceeds %d bytes", maxEmbeddedBytes)
	}
	if _, err := base64.StdEncoding.DecodeString(payload); err != nil {
		return errors.New("embedded data is not valid base64")
	}
	return nil
}
