package etsy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spellworks/backend/internal/domain/commerce"
	"github.com/spellworks/backend/internal/infrastructure/ratelimit"
)

const (
	// maxResponseSize bounds API responses (10MB).
	maxResponseSize = 10 * 1024 * 1024
	// maxAttempts bounds retries of transient failures per logical call.
	maxAttempts = 3
)

// Client calls the Etsy Open API. Every request passes through the token
// manager and the shared rate limiter; transient failures are retried with
// jittered exponential backoff before surfacing ErrUpstreamUnavailable.
type Client struct {
	config      *Config
	tokens      *TokenManager
	limiter     *ratelimit.Limiter
	credentials commerce.CredentialRepository
	httpClient  *http.Client
	logger      *zap.Logger
}

var _ commerce.Gateway = (*Client)(nil)

// NewClient creates an API client sharing the token manager and limiter.
func NewClient(config *Config, tokens *TokenManager, limiter *ratelimit.Limiter,
	credentials commerce.CredentialRepository, logger *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		config:      config,
		tokens:      tokens,
		limiter:     limiter,
		credentials: credentials,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		logger: logger.Named("etsy.client"),
	}, nil
}

// ListReceipts returns a page of paid receipts created at or after the watermark.
func (c *Client) ListReceipts(ctx context.Context, req *commerce.ListReceiptsRequest) (*commerce.ListReceiptsResponse, error) {
	req.Normalize()

	shopID, err := c.ShopID(ctx)
	if err != nil {
		return nil, err
	}

	query := url.Values{
		"was_paid": {"true"},
		"limit":    {strconv.Itoa(req.Limit)},
		"offset":   {strconv.Itoa(req.Offset)},
	}
	if !req.MinCreated.IsZero() {
		query.Set("min_created", strconv.FormatInt(req.MinCreated.Unix(), 10))
	}

	body, err := c.doRequest(ctx, http.MethodGet,
		fmt.Sprintf("/application/shops/%d/receipts", shopID), query)
	if err != nil {
		return nil, err
	}

	var payload receiptsPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", commerce.ErrInvalidResponse, err)
	}

	receipts := make([]commerce.Receipt, 0, len(payload.Results))
	for _, r := range payload.Results {
		receipts = append(receipts, r.toDomain())
	}

	nextOffset := req.Offset + len(receipts)
	return &commerce.ListReceiptsResponse{
		Receipts:   receipts,
		TotalCount: payload.Count,
		HasMore:    nextOffset < payload.Count,
		NextOffset: nextOffset,
	}, nil
}

// ShopID resolves the connected shop's identifier, fetching it once from the
// API and caching it on the stored credential.
func (c *Client) ShopID(ctx context.Context) (int64, error) {
	credential, err := c.credentials.Get(ctx)
	if err != nil {
		return 0, err
	}
	if credential.ShopID != nil {
		return *credential.ShopID, nil
	}

	body, err := c.doRequest(ctx, http.MethodGet, "/application/users/me", nil)
	if err != nil {
		return 0, err
	}

	var me struct {
		UserID int64 `json:"user_id"`
		ShopID int64 `json:"shop_id"`
	}
	if err := json.Unmarshal(body, &me); err != nil {
		return 0, fmt.Errorf("%w: %v", commerce.ErrInvalidResponse, err)
	}
	if me.ShopID == 0 {
		return 0, fmt.Errorf("%w: connected account has no shop", commerce.ErrInvalidResponse)
	}

	credential.AttachShop(me.ShopID, "")
	if err := c.credentials.Save(ctx, credential); err != nil {
		return 0, err
	}
	return me.ShopID, nil
}

// doRequest performs one logical API call: valid token, rate-limit slot,
// request, one forced-refresh retry on 401, bounded backoff on transient
// failures.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values) ([]byte, error) {
	var payload []byte
	operation := func() error {
		body, err := c.attempt(ctx, method, path, query)
		if err != nil {
			if errors.Is(err, commerce.ErrUpstreamUnavailable) {
				return err
			}
			return backoff.Permanent(err)
		}
		payload = body
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxElapsedTime = 0
	if err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, maxAttempts-1), ctx)); err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *Client) attempt(ctx context.Context, method, path string, query url.Values) ([]byte, error) {
	token, err := c.tokens.GetValidToken(ctx)
	if err != nil {
		return nil, err
	}

	body, status, err := c.send(ctx, method, path, query, token)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		// The token the API rejected may simply have been revoked server-side;
		// refresh once and retry before declaring the credential dead.
		c.logger.Debug("request rejected with 401, forcing token refresh")
		token, err = c.tokens.ForceRefresh(ctx)
		if err != nil {
			return nil, err
		}
		body, status, err = c.send(ctx, method, path, query, token)
		if err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized {
			return nil, commerce.ErrCredentialInvalid
		}
	}

	switch {
	case status >= 200 && status < 300:
		return body, nil
	case status == http.StatusTooManyRequests || status >= 500:
		return nil, fmt.Errorf("%w: status %d", commerce.ErrUpstreamUnavailable, status)
	default:
		return nil, fmt.Errorf("%w: status %d: %s", commerce.ErrInvalidResponse, status, truncate(body, 200))
	}
}

// send issues a single HTTP request after taking a rate-limit slot.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, token string) ([]byte, int, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, 0, err
	}

	u := c.config.APIBaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("x-api-key", c.config.ClientID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", commerce.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", commerce.ErrUpstreamUnavailable, err)
	}
	return body, resp.StatusCode, nil
}

// ---------------------------------------------------------------------------
// Wire payloads
// ---------------------------------------------------------------------------

type receiptsPayload struct {
	Count   int              `json:"count"`
	Results []receiptPayload `json:"results"`
}

type receiptPayload struct {
	ReceiptID        int64                `json:"receipt_id"`
	Name             string               `json:"name"`
	BuyerEmail       string               `json:"buyer_email"`
	IsPaid           bool                 `json:"is_paid"`
	CreatedTimestamp int64                `json:"created_timestamp"`
	MessageFromBuyer string               `json:"message_from_buyer"`
	GrandTotal       moneyPayload         `json:"grandtotal"`
	Transactions     []transactionPayload `json:"transactions"`
}

type transactionPayload struct {
	ListingID  int64              `json:"listing_id"`
	Title      string             `json:"title"`
	Quantity   int                `json:"quantity"`
	Price      moneyPayload       `json:"price"`
	Variations []variationPayload `json:"variations"`
}

type variationPayload struct {
	FormattedName  string `json:"formatted_name"`
	FormattedValue string `json:"formatted_value"`
}

type moneyPayload struct {
	Amount       int64  `json:"amount"`
	Divisor      int64  `json:"divisor"`
	CurrencyCode string `json:"currency_code"`
}

func (m moneyPayload) decimal() decimal.Decimal {
	if m.Divisor == 0 {
		return decimal.NewFromInt(m.Amount)
	}
	return decimal.NewFromInt(m.Amount).Div(decimal.NewFromInt(m.Divisor))
}

func (r receiptPayload) toDomain() commerce.Receipt {
	items := make([]commerce.ReceiptItem, 0, len(r.Transactions))
	for _, t := range r.Transactions {
		personalization := make(map[string]string, len(t.Variations))
		for _, v := range t.Variations {
			personalization[v.FormattedName] = v.FormattedValue
		}
		items = append(items, commerce.ReceiptItem{
			ListingID:       t.ListingID,
			Title:           t.Title,
			Quantity:        t.Quantity,
			Personalization: personalization,
			Price:           t.Price.decimal(),
		})
	}
	return commerce.Receipt{
		ReceiptID:        strconv.FormatInt(r.ReceiptID, 10),
		BuyerName:        r.Name,
		BuyerEmail:       r.BuyerEmail,
		TotalAmount:      r.GrandTotal.decimal(),
		Currency:         r.GrandTotal.CurrencyCode,
		IsPaid:           r.IsPaid,
		CreatedAt:        time.Unix(r.CreatedTimestamp, 0).UTC(),
		MessageFromBuyer: r.MessageFromBuyer,
		Items:            items,
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
