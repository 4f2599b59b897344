package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spellworks/backend/internal/domain/fulfillment"
)

const successBody = `{
	"model": "claude-sonnet-4-20250514",
	"content": [{"type": "text", "text": "Your spell is cast."}],
	"usage": {"input_tokens": 120, "output_tokens": 45}
}`

func newTestClient(t *testing.T, apiURL string) *Client {
	t.Helper()
	client, err := NewClient(&Config{
		APIKey:         "test-key",
		APIURL:         apiURL,
		MaxAttempts:    3,
		InitialBackoff: 5 * time.Millisecond,
	}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestClient_Generate(t *testing.T) {
	var gotRequest messageRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, apiVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))
		w.Write([]byte(successBody))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	result, err := client.Generate(context.Background(), &fulfillment.GenerationRequest{
		Prompt: "Write a prosperity spell for Ada",
		System: "You are a spell writer",
	})
	require.NoError(t, err)

	assert.Equal(t, "Your spell is cast.", result.Text)
	assert.Equal(t, "claude-sonnet-4-20250514", result.Model)
	assert.Equal(t, 120, result.InputTokens)
	assert.Equal(t, 45, result.OutputTokens)
	assert.Equal(t, "Write a prosperity spell for Ada", gotRequest.Messages[0].Content)
	assert.Equal(t, "You are a spell writer", gotRequest.System)

	in, out := client.Usage()
	assert.Equal(t, int64(120), in)
	assert.Equal(t, int64(45), out)
}

func TestClient_Generate_RetriesTransientFailures(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt64(&calls, 1) {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			w.Write([]byte(successBody))
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	result, err := client.Generate(context.Background(), &fulfillment.GenerationRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "Your spell is cast.", result.Text)
	assert.Equal(t, int64(3), atomic.LoadInt64(&calls))
}

func TestClient_Generate_ExhaustedRetriesSurfaceUnavailable(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.Generate(context.Background(), &fulfillment.GenerationRequest{Prompt: "p"})
	assert.ErrorIs(t, err, fulfillment.ErrGenerationUnavailable)
	assert.Equal(t, int64(3), atomic.LoadInt64(&calls))
}

func TestClient_Generate_RejectionIsNotRetried(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"type": "invalid_request_error", "message": "max_tokens too large"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.Generate(context.Background(), &fulfillment.GenerationRequest{Prompt: "p"})
	require.Error(t, err)
	assert.ErrorIs(t, err, fulfillment.ErrGenerationRejected)
	assert.Contains(t, err.Error(), "max_tokens too large")
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

func TestConfig_Validate(t *testing.T) {
	err := (&Config{}).Validate()
	require.Error(t, err)

	cfg := &Config{APIKey: "k"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, defaultModel, cfg.Model)
	assert.Equal(t, defaultMaxTokens, cfg.MaxTokens)
	assert.Equal(t, 3, cfg.MaxAttempts)
}
