// backend/src/catalog/client.go
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/sigortaapp/backend/src/logger"
	"github.com/username/sigortaapp/backend/src/models"
	"golang.org/x/net/publicsuffix"
)

// ErrBackend is returned when the remote catalog API answers with
// success=false. Callers treat it the same as a transport failure: stay
// where you are, log, and keep the flow alive.
var ErrBackend = errors.New("catalog backend reported failure")

// Client talks to the remote catalog/quote backend. All list lookups go
// through a short-lived cache so the brand list is fetched once per TTL
// rather than once per wizard session.
type Client struct {
	baseURL    string
	httpClient http.Client
	listCache  *cache.Cache
}

// Envelope shapes used by the remote API.
type vehicleResponse struct {
	Success bool           `json:"success"`
	Data    models.Vehicle `json:"data"`
	Message string         `json:"message"`
}

type bankAccountsResponse struct {
	Success  bool                 `json:"success"`
	Accounts []models.BankAccount `json:"accounts"`
	Message  string               `json:"message"`
}

type logoResponse struct {
	Success bool   `json:"success"`
	LogoURL string `json:"logo_url"`
	Message string `json:"message"`
}

type orderResponse struct {
	Success bool            `json:"success"`
	OrderID json.RawMessage `json:"siparis_id"`
	Message string          `json:"message"`
}

type cancelResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NewClient creates a catalog client for the given base URL (no trailing
// slash). The HTTP client gets a cookie jar and a hard timeout; expiry is a
// recoverable failure like any other backend error.
func NewClient(baseURL string, timeout, cacheTTL time.Duration) *Client {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar", "error", err)
	}

	return &Client{
		baseURL: baseURL,
		httpClient: http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		listCache: cache.New(cacheTTL, 2*cacheTTL),
	}
}

// Brands returns the ordered brand list.
func (c *Client) Brands(ctx context.Context) ([]string, error) {
	return c.cachedList(ctx, "brands", c.baseURL+"/brands")
}

// Models returns the ordered model list for a brand.
func (c *Client) Models(ctx context.Context, brand string) ([]string, error) {
	key := "models/" + brand
	endpoint := fmt.Sprintf("%s/models/%s", c.baseURL, url.PathEscape(brand))
	return c.cachedList(ctx, key, endpoint)
}

// Years returns the ordered year labels for a (brand, model) pair.
func (c *Client) Years(ctx context.Context, brand, model string) ([]string, error) {
	key := "years/" + brand + "/" + model
	endpoint := fmt.Sprintf("%s/years/%s/%s", c.baseURL, url.PathEscape(brand), url.PathEscape(model))
	return c.cachedList(ctx, key, endpoint)
}

func (c *Client) cachedList(ctx context.Context, key, endpoint string) ([]string, error) {
	if cached, found := c.listCache.Get(key); found {
		return cached.([]string), nil
	}

	var list []string
	if err := c.getJSON(ctx, endpoint, &list); err != nil {
		return nil, err
	}

	c.listCache.SetDefault(key, list)
	return list, nil
}

// Vehicle resolves a (brand, model, year) triple to its catalog record and
// quote set.
func (c *Client) Vehicle(ctx context.Context, brand, model, year string) (*models.Vehicle, error) {
	endpoint := fmt.Sprintf("%s/vehicle/%s/%s/%s",
		c.baseURL, url.PathEscape(brand), url.PathEscape(model), url.PathEscape(year))

	var resp vehicleResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("%w: vehicle lookup: %s", ErrBackend, resp.Message)
	}
	return &resp.Data, nil
}

// BankAccounts returns the payment destinations, in backend order.
func (c *Client) BankAccounts(ctx context.Context) ([]models.BankAccount, error) {
	var resp bankAccountsResponse
	if err := c.getJSON(ctx, c.baseURL+"/bank-accounts", &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("%w: bank accounts: %s", ErrBackend, resp.Message)
	}
	return resp.Accounts, nil
}

// Logo returns the URL of the logo image configured on the backend.
func (c *Client) Logo(ctx context.Context) (string, error) {
	var resp logoResponse
	if err := c.getJSON(ctx, c.baseURL+"/logo", &resp); err != nil {
		return "", err
	}
	if !resp.Success || resp.LogoURL == "" {
		return "", fmt.Errorf("%w: logo: %s", ErrBackend, resp.Message)
	}
	return resp.LogoURL, nil
}

// SaveOrder submits a captured order for persistence and returns the
// backend's order identifier.
func (c *Client) SaveOrder(ctx context.Context, order models.Order) (string, error) {
	var resp orderResponse
	if err := c.postJSON(ctx, c.baseURL+"/siparis-kaydet", order, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		return "", fmt.Errorf("%w: order save: %s", ErrBackend, resp.Message)
	}
	// The backend has returned both numeric and string ids; normalize.
	var asString string
	if err := json.Unmarshal(resp.OrderID, &asString); err == nil {
		return asString, nil
	}
	var asNumber int64
	if err := json.Unmarshal(resp.OrderID, &asNumber); err == nil {
		return fmt.Sprintf("%d", asNumber), nil
	}
	return "", nil
}

// SubmitCancelRequest forwards a policy-cancellation intake form.
func (c *Client) SubmitCancelRequest(ctx context.Context, req models.CancelRequest) error {
	var resp cancelResponse
	if err := c.postJSON(ctx, c.baseURL+"/cancel-request", req, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%w: cancel request: %s", ErrBackend, resp.Message)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call catalog API %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog API returned non-OK status %d for %s", resp.StatusCode, endpoint)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode catalog API response from %s: %w", endpoint, err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, endpoint string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body for %s: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call catalog API %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog API returned non-OK status %d for %s", resp.StatusCode, endpoint)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode catalog API response from %s: %w", endpoint, err)
	}
	return nil
}
