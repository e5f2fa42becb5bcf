package handlers

import (
	"github.com/Gantur-Enbotics/xmas-2025/internal/models"
	"github.com/Gantur-Enbotics/xmas-2025/internal/services"
)

// Service interfaces consumed by the handlers; the concrete services
// implement them and tests substitute fakes.

type UnlockService interface {
	PreCheck(phone string) (*services.PreCheckResult, error)
	PostCheck(phone string) (*models.Letter, error)
}

type LetterService interface {
	ListPublicPreviews() ([]models.LetterPreview, error)
	ListAll() ([]*models.Letter, error)
	GetByID(id string) (*models.Letter, error)
	Create(in *models.LetterInput) (*models.Letter, error)
	Update(in *models.LetterInput) (*models.Letter, error)
	Delete(id string) error
}

type AuthService interface {
	Login(username, password string) (string, error)
}

type PDFGenerator interface {
	GenerateLetter(l *models.Letter) ([]byte, error)
}
