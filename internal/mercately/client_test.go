package mercately

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/mercately-sync/internal/config"
)

func newTestClient(server *httptest.Server) *Client {
	return &Client{
		baseURL: server.URL,
		apiKey:  "test-api-key",
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func TestNewClient(t *testing.T) {
	cfg := config.MercatelyConfig{
		APIKey:         "test-key",
		BaseURL:        "https://app.mercately.com/retailers/api/v1",
		TimeoutSeconds: 45,
	}

	client := NewClient(cfg)

	assert.NotNil(t, client)
	assert.Equal(t, "test-key", client.apiKey)
	assert.Equal(t, "https://app.mercately.com/retailers/api/v1", client.baseURL)
}

func TestGetCustomersPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/customers", r.URL.Path)
		assert.Equal(t, "test-api-key", r.Header.Get("api-key"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "2026-08-18", r.URL.Query().Get("start_date"))
		assert.Equal(t, "2026-08-25", r.URL.Query().Get("end_date"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"customers": [
			{"id": "cus-1", "email": "a@example.com"},
			{"id": 98765432109876543, "email": "b@example.com"}
		]}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	start := time.Date(2026, 8, 18, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)

	customers, err := client.GetCustomersPage(context.Background(), start, end, 2)
	require.NoError(t, err)
	require.Len(t, customers, 2)

	assert.Equal(t, "cus-1", customers[0].ID())
	// Large numeric ids must not go through float64.
	assert.Equal(t, "98765432109876543", customers[1].ID())
}

func TestGetCustomersPage_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
	}))
	defer server.Close()

	client := newTestClient(server)
	_, err := client.GetCustomersPage(context.Background(), time.Now(), time.Now(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}

func TestGetCustomersPage_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer server.Close()

	client := newTestClient(server)
	_, err := client.GetCustomersPage(context.Background(), time.Now(), time.Now(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing customers page")
}

func TestGetCustomersPage_EmptyCustomers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"customers": []}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	customers, err := client.GetCustomersPage(context.Background(), time.Now(), time.Now(), 1)
	require.NoError(t, err)
	assert.Empty(t, customers)
}
