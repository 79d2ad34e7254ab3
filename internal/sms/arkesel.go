package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/medconnect-gh/booking-platform/pkg/logging"
)

const arkeselEndpoint = "https://sms.arkesel.com/api/v2/sms/send"

// ArkeselSender posts SMS messages through the Arkesel v2 API. Arkesel
// expects recipients in bare international form (233XXXXXXXXX).
type ArkeselSender struct {
	apiKey     string
	senderID   string
	endpoint   string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewArkeselSender builds a sender. A non-positive timeout falls back
// to 10s.
func NewArkeselSender(apiKey, senderID string, timeout time.Duration, logger *logging.Logger) *ArkeselSender {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ArkeselSender{
		apiKey:   apiKey,
		senderID: senderID,
		endpoint: arkeselEndpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

var _ Sender = (*ArkeselSender)(nil)

// Name identifies the provider in dispatch results and logs.
func (s *ArkeselSender) Name() string { return "arkesel" }

type arkeselRequest struct {
	Sender     string   `json:"sender"`
	Message    string   `json:"message"`
	Recipients []string `json:"recipients"`
}

type arkeselResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Send dispatches a single SMS.
func (s *ArkeselSender) Send(ctx context.Context, to, body string) error {
	if s.apiKey == "" {
		return errors.New("sms: arkesel api key missing")
	}
	recipient := FormatGhanaPhone(to)
	if recipient == "" {
		return errors.New("sms: recipient required")
	}
	if strings.TrimSpace(body) == "" {
		return errors.New("sms: body required")
	}

	payload, err := json.Marshal(arkeselRequest{
		Sender:     s.senderID,
		Message:    body,
		Recipients: []string{recipient},
	})
	if err != nil {
		return fmt.Errorf("sms: arkesel marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("sms: arkesel request: %w", err)
	}
	req.Header.Set("api-key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sms: arkesel send: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms: arkesel send failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed arkeselResponse
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Status != "" && !strings.EqualFold(parsed.Status, "success") {
		return fmt.Errorf("sms: arkesel rejected message: %s", parsed.Message)
	}

	s.logger.Info("arkesel sms sent", "to", recipient)
	return nil
}
