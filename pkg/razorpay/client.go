package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bizlinkhq/bizlink-backend/pkg/config"
	"github.com/bizlinkhq/bizlink-backend/pkg/logger"
)

const (
	defaultBaseURL             = "https://api.razorpay.com/v1"
	responseBodyReadLimit int64 = 1 << 20
)

var (
	errKeyIDRequired         = errors.New("razorpay key id is required")
	errKeySecretRequired     = errors.New("razorpay key secret is required")
	errWebhookSecretRequired = errors.New("razorpay webhook secret is required")
)

// Client wraps the Razorpay REST API plus the two signing secrets.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	keyID         string
	keySecret     string
	webhookSecret string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient initializes the gateway client with the configured secrets.
func NewClient(ctx context.Context, cfg config.RazorpayConfig, logg *logger.Logger, opts ...Option) (*Client, error) {
	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		return nil, errKeyIDRequired
	}
	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keySecret == "" {
		return nil, errKeySecretRequired
	}
	webhookSecret := strings.TrimSpace(cfg.WebhookSecret)
	if webhookSecret == "" {
		return nil, errWebhookSecretRequired
	}

	client := &Client{
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		baseURL:       defaultBaseURL,
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
	}
	if cfg.BaseURL != "" {
		client.baseURL = strings.TrimSpace(cfg.BaseURL)
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("razorpay client initialized (key %s)", maskKey(keyID)))
	}

	return client, nil
}

// KeyID returns the public key id the hosted checkout widget needs.
func (c *Client) KeyID() string {
	if c == nil {
		return ""
	}
	return c.keyID
}

// VerifyOrderSignature checks the confirmation signature the checkout widget
// hands back: HMAC-SHA256 over "orderID|paymentID" keyed with the API secret.
func (c *Client) VerifyOrderSignature(orderID, paymentID, signature string) bool {
	if c == nil || orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	return verifyHMAC([]byte(orderID+"|"+paymentID), c.keySecret, signature)
}

// VerifyWebhookSignature checks the header signature over the raw event body
// using the webhook-specific secret.
func (c *Client) VerifyWebhookSignature(payload []byte, signature string) bool {
	if c == nil || len(payload) == 0 || signature == "" {
		return false
	}
	return verifyHMAC(payload, c.webhookSecret, signature)
}

func verifyHMAC(payload []byte, secret, signature string) bool {
	if secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Payment is the gateway's payment entity.
type Payment struct {
	ID               string `json:"id"`
	OrderID          string `json:"order_id"`
	Status           string `json:"status"`
	Method           string `json:"method"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	ErrorCode        string `json:"error_code"`
	ErrorDescription string `json:"error_description"`
	CreatedAt        int64  `json:"created_at"`

	// Raw preserves the exact entity bytes for audit storage.
	Raw json.RawMessage `json:"-"`
}

// PaidAt converts the gateway's epoch-seconds timestamp.
func (p *Payment) PaidAt() time.Time {
	if p == nil || p.CreatedAt == 0 {
		return time.Time{}
	}
	return time.Unix(p.CreatedAt, 0).UTC()
}

// FetchPayment loads the authoritative payment entity from the gateway.
func (c *Client) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	if paymentID == "" {
		return nil, errors.New("payment id is required")
	}

	body, err := c.doRequest(ctx, http.MethodGet, "/payments/"+paymentID, nil)
	if err != nil {
		return nil, err
	}

	var payment Payment
	if err := json.Unmarshal(body, &payment); err != nil {
		return nil, fmt.Errorf("decoding payment entity: %w", err)
	}
	payment.Raw = body
	return &payment, nil
}

// Order is the gateway's checkout order entity.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// CreateOrderInput sizes a new checkout order. Amount is in currency subunits.
type CreateOrderInput struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// CreateOrder opens a checkout order the hosted widget can collect against.
func (c *Client) CreateOrder(ctx context.Context, input CreateOrderInput) (*Order, error) {
	if input.Amount <= 0 {
		return nil, errors.New("order amount must be positive")
	}
	if input.Currency == "" {
		return nil, errors.New("order currency is required")
	}

	payload, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("encoding order request: %w", err)
	}

	body, err := c.doRequest(ctx, http.MethodPost, "/orders", payload)
	if err != nil {
		return nil, err
	}

	var order Order
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("decoding order entity: %w", err)
	}
	return &order, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("building gateway request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return nil, fmt.Errorf("reading gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gateway returned status %d for %s %s", resp.StatusCode, method, path)
	}

	return body, nil
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:8] + "****"
}
