// Package sync implements the incremental reconciliation engine that merges
// fetched customer records into Postgres without losing or duplicating
// historical rows.
package sync

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ignite/mercately-sync/internal/customer"
	"github.com/ignite/mercately-sync/internal/pkg/logger"
)

// Policy selects how fetched records that match stored rows are handled.
type Policy string

const (
	// PolicyAccumulateNewOnly inserts records whose id is absent from storage
	// and discards everything else. Existing rows are never touched, so the
	// stored total is monotonic by construction.
	PolicyAccumulateNewOnly Policy = "accumulate_new_only"

	// PolicyUpsertInWindow additionally refreshes the mutable contact fields
	// of rows whose creation_date lies inside the active window. Rows outside
	// the window are never touched, even on an id match.
	PolicyUpsertInWindow Policy = "upsert_in_window"
)

// ParsePolicy validates a policy name from configuration.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyAccumulateNewOnly, PolicyUpsertInWindow:
		return Policy(s), nil
	}
	return "", fmt.Errorf("unknown reconciliation policy %q", s)
}

// Window is the inclusive date range scoping both the fetch and mutation
// eligibility.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether a stored row's creation_date makes it mutable in
// this window. End is a date, so anything before the end of that day counts.
// Null creation dates are treated as out-of-window: a row we can't date is a
// row we don't touch.
func (w Window) Contains(t sql.NullTime) bool {
	if !t.Valid {
		return false
	}
	return !t.Time.Before(w.Start) && t.Time.Before(w.End.AddDate(0, 0, 1))
}

// Result summarizes one reconciliation pass.
type Result struct {
	Inserted          int
	Updated           int
	Discarded         int
	DeletedDuplicates int
	TotalBefore       int64
	TotalAfter        int64
	// IntegrityOK is false when the stored total decreased across the run,
	// which indicates silent data loss and demands operator follow-up.
	IntegrityOK bool
}

// Store is the slice of persistent storage the engine depends on. The
// Postgres implementation lives in internal/repository/postgres; tests
// substitute fakes.
type Store interface {
	// CustomerKeys returns every stored customer id with its creation_date.
	CustomerKeys(ctx context.Context) (map[string]sql.NullTime, error)
	// CountCustomers returns the total row count outside any transaction.
	CountCustomers(ctx context.Context) (int64, error)
	Begin(ctx context.Context) (StoreTx, error)
}

// StoreTx is a single reconciliation transaction. Either every write and the
// dedupe sweep commit together, or none do.
type StoreTx interface {
	CountCustomers(ctx context.Context) (int64, error)
	InsertCustomers(ctx context.Context, recs []customer.Record) (int, error)
	// UpdateCustomerInWindow refreshes the mutable contact fields of the row
	// matching rec.ID, guarded so rows outside the window stay untouched.
	// It reports whether a row was updated.
	UpdateCustomerInWindow(ctx context.Context, rec customer.Record, w Window) (bool, error)
	// DeleteDuplicates removes all but the freshest row per id and returns
	// the number of rows deleted.
	DeleteDuplicates(ctx context.Context) (int64, error)
	Commit() error
	Rollback() error
}

// Engine classifies normalized records against the existing-key index and
// applies inserts/updates plus the dedupe sweep in one transaction.
type Engine struct {
	store  Store
	policy Policy
}

// NewEngine creates a reconciliation engine for the given policy.
func NewEngine(store Store, policy Policy) *Engine {
	return &Engine{store: store, policy: policy}
}

// Reconcile merges records into storage under the engine's policy.
//
// Classification per record:
//   - id absent from index              → insert
//   - id present, row inside window     → update (PolicyUpsertInWindow only)
//   - id present, row outside window    → discard (historical immutability)
//
// The dedupe sweep runs in the same transaction as the writes; it is the
// sole backstop against double-insertion from retried pages or a concurrent
// run racing the index snapshot. A post-commit count decrease is reported as
// a critical integrity fault in the Result, not as an error: the commit
// already happened and rolling back retroactively is impossible.
func (e *Engine) Reconcile(ctx context.Context, records []customer.Record, index *KeyIndex, w Window) (Result, error) {
	res := Result{IntegrityOK: true}

	var toInsert, toUpdate []customer.Record
	for _, rec := range records {
		if rec.ID == "" {
			res.Discarded++
			continue
		}
		created, exists := index.CreationDate(rec.ID)
		switch {
		case !exists:
			toInsert = append(toInsert, rec)
		case e.policy == PolicyUpsertInWindow && w.Contains(created):
			toUpdate = append(toUpdate, rec)
		default:
			res.Discarded++
		}
	}

	tx, err := e.store.Begin(ctx)
	if err != nil {
		return res, fmt.Errorf("begin reconciliation: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	res.TotalBefore, err = tx.CountCustomers(ctx)
	if err != nil {
		return res, fmt.Errorf("count before: %w", err)
	}

	if len(toInsert) > 0 {
		n, err := tx.InsertCustomers(ctx, toInsert)
		if err != nil {
			return res, fmt.Errorf("insert customers: %w", err)
		}
		res.Inserted = n
	}

	for _, rec := range toUpdate {
		ok, err := tx.UpdateCustomerInWindow(ctx, rec, w)
		if err != nil {
			return res, fmt.Errorf("update customer %s: %w", rec.ID, err)
		}
		if ok {
			res.Updated++
		}
	}

	deleted, err := tx.DeleteDuplicates(ctx)
	if err != nil {
		return res, fmt.Errorf("dedupe sweep: %w", err)
	}
	res.DeletedDuplicates = int(deleted)

	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("commit reconciliation: %w", err)
	}
	committed = true

	res.TotalAfter, err = e.store.CountCustomers(ctx)
	if err != nil {
		// The commit stands; without a post-count we can't check integrity.
		logger.Warn("post-commit count failed, integrity unchecked", "error", err)
		res.TotalAfter = res.TotalBefore + int64(res.Inserted) - deleted
		return res, nil
	}

	if res.TotalAfter < res.TotalBefore {
		res.IntegrityOK = false
		logger.Critical("customer total decreased after reconciliation",
			"total_before", res.TotalBefore,
			"total_after", res.TotalAfter,
			"deleted_duplicates", res.DeletedDuplicates)
	}

	return res, nil
}
