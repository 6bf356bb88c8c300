package mercately

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ignite/mercately-sync/internal/config"
	"github.com/ignite/mercately-sync/internal/pkg/httpretry"
)

// Client is a Mercately retailers API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient httpretry.HTTPDoer
}

// NewClient creates a new Mercately API client.
func NewClient(cfg config.MercatelyConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: httpretry.New(&http.Client{
			Timeout: cfg.Timeout(),
		}, cfg.MaxRetries),
	}
}

// GetCustomersPage fetches a single page of customers created or updated in
// the inclusive [start, end] date window. Pages are 1-based.
func (c *Client) GetCustomersPage(ctx context.Context, start, end time.Time, page int) ([]RawCustomer, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("start_date", start.Format("2006-01-02"))
	params.Set("end_date", end.Format("2006-01-02"))

	body, err := c.doRequest(ctx, http.MethodGet, "/customers", params)
	if err != nil {
		return nil, fmt.Errorf("fetching customers page %d: %w", page, err)
	}

	// Numbers decode as json.Number so large customer ids survive intact.
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var resp customersPage
	if err := dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("parsing customers page %d: %w", page, err)
	}

	return resp.Customers, nil
}

// doRequest makes an HTTP request to the Mercately API.
func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}
