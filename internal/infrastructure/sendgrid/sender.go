// Package sendgrid adapts the SendGrid v3 mail API to the mail sender port.
// The adapter never retries on its own: a duplicate send would deliver the
// buyer's email twice, so retry decisions stay with the operator.
package sendgrid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spellworks/backend/internal/domain/fulfillment"
)

const (
	defaultAPIURL = "https://api.sendgrid.com/v3/mail/send"

	// maxErrorBodySize bounds error responses read for diagnostics (64KB).
	maxErrorBodySize = 64 * 1024
)

// Config holds the email provider settings.
type Config struct {
	APIKey         string
	FromEmail      string
	FromName       string
	APIURL         string
	TimeoutSeconds int
}

// Validate checks required fields and fills defaults.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("sendgrid: api key is required")
	}
	if c.FromEmail == "" {
		return errors.New("sendgrid: from email is required")
	}
	if c.APIURL == "" {
		c.APIURL = defaultAPIURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}

// Sender sends delivery emails through SendGrid.
type Sender struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

var _ fulfillment.MailSender = (*Sender)(nil)

// NewSender creates a sender with the given configuration.
func NewSender(config *Config, logger *zap.Logger) (*Sender, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Sender{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		logger: logger.Named("sendgrid"),
	}, nil
}

// Send submits the message. A 2xx response returns the provider message id;
// a 4xx surfaces ErrDeliveryRejected, anything else ErrDeliveryUnavailable.
func (s *Sender) Send(ctx context.Context, msg *fulfillment.MailMessage) (*fulfillment.MailResult, error) {
	payload := mailRequest{
		Personalizations: []personalization{{
			To: []address{{Email: msg.ToEmail, Name: msg.ToName}},
		}},
		From:    address{Email: s.config.FromEmail, Name: s.config.FromName},
		Subject: msg.Subject,
	}
	if msg.TextBody != "" {
		payload.Content = append(payload.Content, content{Type: "text/plain", Value: msg.TextBody})
	}
	if msg.HTMLBody != "" {
		payload.Content = append(payload.Content, content{Type: "text/html", Value: msg.HTMLBody})
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIURL, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", fulfillment.ErrDeliveryUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		messageID := resp.Header.Get("X-Message-Id")
		s.logger.Info("delivery email accepted",
			zap.String("message_id", messageID))
		return &fulfillment.MailResult{MessageID: messageID}, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, fmt.Errorf("%w: status %d: %s", fulfillment.ErrDeliveryRejected,
			resp.StatusCode, string(body))
	default:
		return nil, fmt.Errorf("%w: status %d", fulfillment.ErrDeliveryUnavailable, resp.StatusCode)
	}
}

type mailRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

type personalization struct {
	To []address `json:"to"`
}

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}
