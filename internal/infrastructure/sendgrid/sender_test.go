package sendgrid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spellworks/backend/internal/domain/fulfillment"
)

func newTestSender(t *testing.T, apiURL string) *Sender {
	t.Helper()
	sender, err := NewSender(&Config{
		APIKey:    "sg-key",
		FromEmail: "shop@example.com",
		FromName:  "The Shop",
		APIURL:    apiURL,
	}, zap.NewNop())
	require.NoError(t, err)
	return sender
}

func testMessage() *fulfillment.MailMessage {
	return &fulfillment.MailMessage{
		ToName:   "Ada",
		ToEmail:  "ada@example.com",
		Subject:  "Your personalized spell",
		HTMLBody: "<p>hello</p>",
		TextBody: "hello",
	}
}

func TestSender_Send(t *testing.T) {
	var got mailRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sg-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("X-Message-Id", "msg-123")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	result, err := newTestSender(t, server.URL).Send(context.Background(), testMessage())
	require.NoError(t, err)

	assert.Equal(t, "msg-123", result.MessageID)
	require.Len(t, got.Personalizations, 1)
	assert.Equal(t, "ada@example.com", got.Personalizations[0].To[0].Email)
	assert.Equal(t, "shop@example.com", got.From.Email)
	require.Len(t, got.Content, 2)
	assert.Equal(t, "text/plain", got.Content[0].Type)
	assert.Equal(t, "text/html", got.Content[1].Type)
}

func TestSender_Send_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errors":[{"message":"does not contain a valid address"}]}`))
	}))
	defer server.Close()

	_, err := newTestSender(t, server.URL).Send(context.Background(), testMessage())
	require.Error(t, err)
	assert.ErrorIs(t, err, fulfillment.ErrDeliveryRejected)
	assert.Contains(t, err.Error(), "valid address")
}

func TestSender_Send_Unavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestSender(t, server.URL).Send(context.Background(), testMessage())
	assert.ErrorIs(t, err, fulfillment.ErrDeliveryUnavailable)
}

func TestConfig_Validate(t *testing.T) {
	assert.Error(t, (&Config{}).Validate())
	assert.Error(t, (&Config{APIKey: "k"}).Validate())

	cfg := &Config{APIKey: "k", FromEmail: "a@b.c"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, defaultAPIURL, cfg.APIURL)
}
