package services

import (
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Gantur-Enbotics/xmas-2025/internal/middleware"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService checks the single shared admin credential and issues the
// bearer token for the dashboard. No refresh tokens, no sessions.
type AuthService struct {
	Username     string
	Password     string // plain credential, used only when PasswordHash is empty
	PasswordHash string // bcrypt hash, preferred
	JWTSecret    []byte
	TokenTTL     time.Duration
}

func NewAuthService(username, password, passwordHash, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		Username:     username,
		Password:     password,
		PasswordHash: passwordHash,
		JWTSecret:    []byte(jwtSecret),
		TokenTTL:     tokenTTL,
	}
}

func (s *AuthService) Login(username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if subtle.ConstantTimeCompare([]byte(username), []byte(s.Username)) != 1 {
		return "", ErrInvalidCredentials
	}
	if !s.passwordOK(strings.TrimSpace(password)) {
		return "", ErrInvalidCredentials
	}

	claims := &middleware.AdminClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.JWTSecret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

func (s *AuthService) passwordOK(password string) bool {
	if strings.HasPrefix(s.PasswordHash, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(s.PasswordHash), []byte(password)) == nil
	}
	return s.Password != "" &&
		subtle.ConstantTimeCompare([]byte(password), []byte(s.Password)) == 1
}
