package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Gantur-Enbotics/xmas-2025/pkg/logger"
)

const defaultGatewayURL = "https://api.mobizon.mn/service/message/sendsmsmessage"

// errGatewayThrottled marks an HTTP 429 from the gateway; the provider
// maps it to ErrRateLimited.
var errGatewayThrottled = errors.New("sms gateway throttled")

// SMSClient talks to the SMS gateway. With DryRun set (or no api key)
// it logs instead of hitting the network, same as local development
// against the CRM gateway.
type SMSClient struct {
	APIKey  string
	Sender  string
	BaseURL string
	DryRun  bool
	HTTP    *http.Client
}

type sendSMSResponse struct {
	Code int `json:"code"`
	Data struct {
		MessageID string `json:"messageId"`
	} `json:"data"`
}

func NewSMSClient(apiKey, sender, baseURL string, dryRun bool) *SMSClient {
	if baseURL == "" {
		baseURL = defaultGatewayURL
	}
	return &SMSClient{
		APIKey:  apiKey,
		Sender:  sender,
		BaseURL: baseURL,
		DryRun:  dryRun,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *SMSClient) Send(ctx context.Context, to, text string) error {
	if c.DryRun || c.APIKey == "" || c.APIKey == "dry-run" {
		logger.Info("sms dry-run", zap.String("to", to), zap.String("text", text))
		return nil
	}

	form := url.Values{
		"apiKey":    {c.APIKey},
		"recipient": {to},
		"text":      {text},
	}
	if c.Sender != "" {
		form.Set("from", c.Sender)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("send SMS request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("send SMS request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return errGatewayThrottled
	}

	body, _ := io.ReadAll(resp.Body)
	var result sendSMSResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("parse gateway response: %w", err)
	}
	if result.Code != 0 {
		return fmt.Errorf("gateway returned error code: %d", result.Code)
	}
	logger.Info("sms sent", zap.String("to", to), zap.String("message_id", result.Data.MessageID))
	return nil
}
