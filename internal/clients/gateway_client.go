package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"catalog-service/internal/models"
)

var (
	// ErrGatewayUnavailable wraps every transport, status and decoding failure.
	ErrGatewayUnavailable = errors.New("gateway unavailable")
	// ErrGatewayRejected wraps 4xx answers.
	ErrGatewayRejected = errors.New("gateway rejected request")
)

// GatewayClient consumes the catalog gateway API
type GatewayClient struct {
	baseURL    string
	httpClient *http.Client
}

// envelope is the gateway response wrapper
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *models.Error   `json:"error,omitempty"`
}

// NewGatewayClient creates a new gateway client
func NewGatewayClient(baseURL string, timeout time.Duration) *GatewayClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GatewayClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *GatewayClient) do(ctx context.Context, method, path string, body interface{}) (int, *envelope, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: failed to create request: %v", ErrGatewayUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: failed to read response: %v", ErrGatewayUnavailable, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: malformed response (status %d): %v", ErrGatewayUnavailable, resp.StatusCode, err)
	}
	return resp.StatusCode, &env, nil
}

func (c *GatewayClient) get(ctx context.Context, path string, out interface{}) error {
	status, env, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := checkStatus(status, env); err != nil {
		return err
	}
	return decodeData(env, out)
}

func checkStatus(status int, env *envelope) error {
	if status >= 200 && status < 300 && env.Success {
		return nil
	}
	msg := http.StatusText(status)
	if env.Error != nil && env.Error.Message != "" {
		msg = env.Error.Message
	}
	if status >= 400 && status < 500 {
		return fmt.Errorf("%w: status %d: %s", ErrGatewayRejected, status, msg)
	}
	return fmt.Errorf("%w: status %d: %s", ErrGatewayUnavailable, status, msg)
}

func decodeData(env *envelope, out interface{}) error {
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: malformed data: %v", ErrGatewayUnavailable, err)
	}
	return nil
}

// ListProducts returns the products of a category; "all" or "" means unfiltered.
// A null collection decodes as empty.
func (c *GatewayClient) ListProducts(ctx context.Context, category string) ([]models.Product, error) {
	path := "/products"
	if category != "" && category != models.CategoryAll {
		path += "?category=" + url.QueryEscape(category)
	}
	var products []models.Product
	if err := c.get(ctx, path, &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// GetProduct returns nil without error when the gateway does not know the id.
func (c *GatewayClient) GetProduct(ctx context.Context, id models.ProductID) (*models.Product, error) {
	status, env, err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id.String()), nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if err := checkStatus(status, env); err != nil {
		return nil, err
	}
	var product *models.Product
	if err := decodeData(env, &product); err != nil {
		return nil, err
	}
	return product, nil
}

func (c *GatewayClient) GetContacts(ctx context.Context) (*models.Contacts, error) {
	var contacts *models.Contacts
	if err := c.get(ctx, "/contacts", &contacts); err != nil {
		return nil, err
	}
	if contacts == nil {
		return nil, fmt.Errorf("%w: empty contacts", ErrGatewayUnavailable)
	}
	return contacts, nil
}

func (c *GatewayClient) GetSettings(ctx context.Context) (*models.Settings, error) {
	var settings *models.Settings
	if err := c.get(ctx, "/settings", &settings); err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, fmt.Errorf("%w: empty settings", ErrGatewayUnavailable)
	}
	return settings, nil
}

// CreateOrder submits an order. Validation rejections are returned as errors
// too; the caller decides whether to fall back.
func (c *GatewayClient) CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.OrderResult, error) {
	status, env, err := c.do(ctx, http.MethodPost, "/orders", req)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(status, env); err != nil {
		return nil, err
	}
	var result models.OrderResult
	if err := decodeData(env, &result); err != nil {
		return nil, err
	}
	result.Success = true
	return &result, nil
}
