package sync

import (
	"context"
	"fmt"
	"time"
)

// VerifierStore is the read-only slice of storage the verifier needs.
type VerifierStore interface {
	CountCustomers(ctx context.Context) (int64, error)
	CountCustomersCreatedSince(ctx context.Context, since time.Time) (int64, error)
}

// VerificationReport is the post-run sanity snapshot shown to operators.
// It is informational only and never drives control flow.
type VerificationReport struct {
	Total       int64
	InWindow    int64
	WindowStart time.Time
}

// Verifier reports the stored total and the count of rows created inside the
// trailing window.
type Verifier struct {
	store VerifierStore
}

// NewVerifier creates a verifier over the given store.
func NewVerifier(store VerifierStore) *Verifier {
	return &Verifier{store: store}
}

// Verify reads the current counts. It performs no writes.
func (v *Verifier) Verify(ctx context.Context, windowStart time.Time) (VerificationReport, error) {
	total, err := v.store.CountCustomers(ctx)
	if err != nil {
		return VerificationReport{}, fmt.Errorf("counting customers: %w", err)
	}
	inWindow, err := v.store.CountCustomersCreatedSince(ctx, windowStart)
	if err != nil {
		return VerificationReport{}, fmt.Errorf("counting recent customers: %w", err)
	}
	return VerificationReport{Total: total, InWindow: inWindow, WindowStart: windowStart}, nil
}
