package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gantur-Enbotics/xmas-2025/internal/models"
	"github.com/Gantur-Enbotics/xmas-2025/internal/services"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakeUnlockService struct {
	pre  func(phone string) (*services.PreCheckResult, error)
	post func(phone string) (*models.Letter, error)
}

func (s *fakeUnlockService) PreCheck(phone string) (*services.PreCheckResult, error) {
	return s.pre(phone)
}

func (s *fakeUnlockService) PostCheck(phone string) (*models.Letter, error) {
	return s.post(phone)
}

func unlockRouter(svc UnlockService) *gin.Engine {
	r := gin.New()
	h := NewUnlockHandler(svc)
	r.POST("/precheck", h.PreCheck)
	r.POST("/postcheck", h.PostCheck)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestPreCheckMissingPhone(t *testing.T) {
	r := unlockRouter(&fakeUnlockService{})

	for _, body := range []any{map[string]string{}, map[string]string{"phone": "   "}} {
		w := postJSON(t, r, "/precheck", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Phone number is required", decodeBody(t, w)["error"])
	}
}

func TestPreCheckNoLetter(t *testing.T) {
	r := unlockRouter(&fakeUnlockService{
		pre: func(string) (*services.PreCheckResult, error) {
			return nil, services.ErrLetterNotFound
		},
	})

	w := postJSON(t, r, "/precheck", map[string]string{"phone": "+976 99112233"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No letter found for this phone number", decodeBody(t, w)["error"])
}

func TestPreCheckNeverSent(t *testing.T) {
	r := unlockRouter(&fakeUnlockService{
		pre: func(string) (*services.PreCheckResult, error) {
			return &services.PreCheckResult{CanResend: true}, nil
		},
	})

	w := postJSON(t, r, "/precheck", map[string]string{"phone": "+976 99112233"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["canResend"])
	assert.Nil(t, body["lastSentAt"])
}

func TestPreCheckCooldownActive(t *testing.T) {
	sent := time.Date(2025, 12, 24, 10, 0, 0, 0, time.UTC)
	r := unlockRouter(&fakeUnlockService{
		pre: func(string) (*services.PreCheckResult, error) {
			return &services.PreCheckResult{CanResend: false, LastSentAt: &sent}, nil
		},
	})

	w := postJSON(t, r, "/precheck", map[string]string{"phone": "+976 99112233"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["canResend"])
	assert.Equal(t, "2025-12-24T10:00:00Z", body["lastSentAt"])
}

func TestPreCheckNormalizesPhone(t *testing.T) {
	var got string
	r := unlockRouter(&fakeUnlockService{
		pre: func(phone string) (*services.PreCheckResult, error) {
			got = phone
			return &services.PreCheckResult{CanResend: true}, nil
		},
	})

	w := postJSON(t, r, "/precheck", map[string]string{"phone": "  +976   99112233 "})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "+976 99112233", got)
}

func TestPostCheckUnlocks(t *testing.T) {
	logged := time.Date(2025, 12, 24, 12, 0, 0, 0, time.UTC)
	r := unlockRouter(&fakeUnlockService{
		post: func(string) (*models.Letter, error) {
			return &models.Letter{
				ID:       "letter-1",
				Phone:    "+976 99112233",
				Title:    "Dear you",
				Context:  "A very long letter",
				LoggedAt: &logged,
			}, nil
		},
	})

	w := postJSON(t, r, "/postcheck", map[string]string{"phone": "+976 99112233"})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "letter-1", user["id"])
	assert.Equal(t, "Dear you", user["title"])
	// the unlocked view never exposes the verification timestamp
	assert.NotContains(t, user, "loggedAt")
}

func TestPostCheckNoLetter(t *testing.T) {
	r := unlockRouter(&fakeUnlockService{
		post: func(string) (*models.Letter, error) {
			return nil, services.ErrLetterNotFound
		},
	})

	w := postJSON(t, r, "/postcheck", map[string]string{"phone": "+976 99112233"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostCheckStoreFailure(t *testing.T) {
	r := unlockRouter(&fakeUnlockService{
		post: func(string) (*models.Letter, error) {
			return nil, errors.New("connection reset")
		},
	})

	w := postJSON(t, r, "/postcheck", map[string]string{"phone": "+976 99112233"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", decodeBody(t, w)["error"])
}
