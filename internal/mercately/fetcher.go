package mercately

import (
	"context"
	"time"

	"github.com/ignite/mercately-sync/internal/pkg/logger"
)

// CustomersAPI is the slice of the API client the fetcher needs.
type CustomersAPI interface {
	GetCustomersPage(ctx context.Context, start, end time.Time, page int) ([]RawCustomer, error)
}

// Fetcher drains the paginated customers endpoint for a date window.
//
// A page request that still fails after the client's bounded retries ends the
// stream instead of failing the run: the sync covers whatever was fetched and
// the next run re-covers the same window. The truncation is logged so a short
// run is visible to operators.
type Fetcher struct {
	api       CustomersAPI
	pageDelay time.Duration
}

// NewFetcher creates a fetcher. pageDelay is the fixed pause between page
// requests, respecting the API's rate limits.
func NewFetcher(api CustomersAPI, pageDelay time.Duration) *Fetcher {
	return &Fetcher{api: api, pageDelay: pageDelay}
}

// FetchAll requests pages 1, 2, 3, ... for the inclusive [start, end] window
// until a page is empty or fails, and returns the concatenated records.
// The only error it returns is context cancellation.
func (f *Fetcher) FetchAll(ctx context.Context, start, end time.Time) ([]RawCustomer, error) {
	var all []RawCustomer

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return all, err
		}

		customers, err := f.api.GetCustomersPage(ctx, start, end, page)
		if err != nil {
			if ctx.Err() != nil {
				return all, ctx.Err()
			}
			logger.Warn("pagination truncated by fetch fault",
				"page", page, "fetched_so_far", len(all), "error", err)
			return all, nil
		}
		if len(customers) == 0 {
			logger.Info("end of customer pages", "pages", page-1, "fetched", len(all))
			return all, nil
		}

		all = append(all, customers...)
		logger.Debug("fetched customer page", "page", page, "records", len(customers))

		if f.pageDelay > 0 {
			timer := time.NewTimer(f.pageDelay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return all, ctx.Err()
			}
		}
	}
}
