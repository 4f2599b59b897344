// Package anthropic adapts the Anthropic Messages API to the text generation
// port. Transient failures (timeouts, rate limiting, server errors, overload)
// are retried with exponential backoff; request rejections are surfaced
// immediately.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/spellworks/backend/internal/domain/fulfillment"
)

const (
	defaultAPIURL    = "https://api.anthropic.com/v1/messages"
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 1024
	apiVersion       = "2023-06-01"

	// maxResponseSize bounds API responses (10MB).
	maxResponseSize = 10 * 1024 * 1024
)

// Config holds the generation API settings.
type Config struct {
	APIKey         string
	Model          string
	APIURL         string
	MaxTokens      int
	TimeoutSeconds int
	// MaxAttempts bounds calls per generation request, first try included.
	MaxAttempts int
	// InitialBackoff is the first retry delay.
	InitialBackoff time.Duration
	// SystemPrompt is used when a request carries no system prompt of its own.
	SystemPrompt string
}

// Validate checks required fields and fills defaults.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("anthropic: api key is required")
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.APIURL == "" {
		c.APIURL = defaultAPIURL
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = defaultMaxTokens
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 60
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = time.Second
	}
	return nil
}

// Client calls the Anthropic Messages API.
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger

	inputTokens  atomic.Int64
	outputTokens atomic.Int64
}

var _ fulfillment.TextGenerator = (*Client)(nil)

// NewClient creates a generation client with the given configuration.
func NewClient(config *Config, logger *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		logger: logger.Named("anthropic"),
	}, nil
}

// Generate produces text for the rendered prompt. Errors reaching the caller
// are terminal for this attempt: ErrGenerationRejected when the API refused
// the request, ErrGenerationUnavailable when transient failures exhausted the
// retry budget.
func (c *Client) Generate(ctx context.Context, req *fulfillment.GenerationRequest) (*fulfillment.GenerationResult, error) {
	var result *fulfillment.GenerationResult
	operation := func() error {
		r, err := c.attempt(ctx, req)
		if err != nil {
			if errors.Is(err, fulfillment.ErrGenerationUnavailable) {
				return err
			}
			return backoff.Permanent(err)
		}
		result = r
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.config.InitialBackoff
	bo.MaxElapsedTime = 0
	err := backoff.Retry(operation,
		backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.config.MaxAttempts-1)), ctx))
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Usage returns the accumulated token counts across all successful calls.
func (c *Client) Usage() (inputTokens, outputTokens int64) {
	return c.inputTokens.Load(), c.outputTokens.Load()
}

func (c *Client) attempt(ctx context.Context, req *fulfillment.GenerationRequest) (*fulfillment.GenerationResult, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.config.MaxTokens
	}
	system := req.System
	if system == "" {
		system = c.config.SystemPrompt
	}
	payload := messageRequest{
		Model:     c.config.Model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  []message{{Role: "user", Content: req.Prompt}},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.APIURL, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.config.APIKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", fulfillment.ErrGenerationUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", fulfillment.ErrGenerationUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		c.logger.Warn("generation api transient failure",
			zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: status %d", fulfillment.ErrGenerationUnavailable, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: status %d: %s", fulfillment.ErrGenerationRejected,
			resp.StatusCode, apiErrorMessage(body))
	}

	var decoded messageResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", fulfillment.ErrGenerationRejected, err)
	}
	text := decoded.text()
	if text == "" {
		return nil, fmt.Errorf("%w: response contains no text", fulfillment.ErrGenerationRejected)
	}

	c.inputTokens.Add(int64(decoded.Usage.InputTokens))
	c.outputTokens.Add(int64(decoded.Usage.OutputTokens))

	return &fulfillment.GenerationResult{
		Text:         text,
		Model:        decoded.Model,
		InputTokens:  decoded.Usage.InputTokens,
		OutputTokens: decoded.Usage.OutputTokens,
	}, nil
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (r *messageResponse) text() string {
	for _, block := range r.Content {
		if block.Type == "text" {
			return block.Text
		}
	}
	return ""
}

func apiErrorMessage(body []byte) string {
	var decoded struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil || decoded.Error.Message == "" {
		return string(body)
	}
	return decoded.Error.Type + ": " + decoded.Error.Message
}
