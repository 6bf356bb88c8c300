package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifierStore struct {
	total    int64
	inWindow int64
	err      error
	gotSince time.Time
}

func (f *fakeVerifierStore) CountCustomers(ctx context.Context) (int64, error) {
	return f.total, f.err
}

func (f *fakeVerifierStore) CountCustomersCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	f.gotSince = since
	return f.inWindow, f.err
}

func TestVerifier_Verify(t *testing.T) {
	store := &fakeVerifierStore{total: 120000, inWindow: 340}
	windowStart := time.Date(2026, 8, 18, 0, 0, 0, 0, time.UTC)

	report, err := NewVerifier(store).Verify(context.Background(), windowStart)
	require.NoError(t, err)

	assert.Equal(t, int64(120000), report.Total)
	assert.Equal(t, int64(340), report.InWindow)
	assert.Equal(t, windowStart, store.gotSince)
}

func TestVerifier_StoreError(t *testing.T) {
	store := &fakeVerifierStore{err: errors.New("connection refused")}

	_, err := NewVerifier(store).Verify(context.Background(), time.Now())
	assert.Error(t, err)
}
