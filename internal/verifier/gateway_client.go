package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Gantur-Enbotics/xmas-2025/internal/models"
)

// ErrNoLetter means the gateway has no active letter for the phone.
// Distinct from a cooldown denial: the user gets "no letter found", not
// "wait before retrying".
var ErrNoLetter = errors.New("no letter found for this phone number")

type PreCheckResult struct {
	CanResend  bool       `json:"canResend"`
	LastSentAt *time.Time `json:"lastSentAt"`
}

// Gateway is the unlock gateway as seen from the client session.
type Gateway interface {
	PreCheck(ctx context.Context, phone string) (*PreCheckResult, error)
	PostCheck(ctx context.Context, phone string) (*models.LetterView, error)
}

// GatewayClient is the HTTP implementation of Gateway.
type GatewayClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewGatewayClient(baseURL string) *GatewayClient {
	return &GatewayClient{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *GatewayClient) PreCheck(ctx context.Context, phone string) (*PreCheckResult, error) {
	var result PreCheckResult
	if err := c.post(ctx, "/precheck", phone, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *GatewayClient) PostCheck(ctx context.Context, phone string) (*models.LetterView, error) {
	var result struct {
		User models.LetterView `json:"user"`
	}
	if err := c.post(ctx, "/postcheck", phone, &result); err != nil {
		return nil, err
	}
	return &result.User, nil
}

func (c *GatewayClient) post(ctx context.Context, path, phone string, out any) error {
	body, err := json.Marshal(map[string]string{"phone": phone})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("gateway response decode: %w", err)
		}
		return nil
	case http.StatusNotFound:
		return ErrNoLetter
	default:
		var apiErr struct {
			Error string `json:"error"`
		}
		b, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(b, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("gateway %s: %s", path, apiErr.Error)
		}
		return fmt.Errorf("gateway %s: unexpected status %d", path, resp.StatusCode)
	}
}
