// Package postgres implements the sync storage contracts against PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ignite/mercately-sync/internal/customer"
	"github.com/ignite/mercately-sync/internal/sync"
)

// insertChunkSize bounds the number of rows per multi-value INSERT so the
// statement stays under Postgres's 65535 bind-parameter limit.
const insertChunkSize = 500

var insertColumns = []string{
	"id", "first_name", "last_name", "phone", "email", "city",
	"campaign_id", "agent",
	"creation_date", "sent_at", "delivered_at", "read_at", "last_chat_interaction",
	"tags", "custom_fields", "customer_addresses", "whatsapp_opt_in",
	"updated_at",
}

// CustomerStore implements sync.Store, sync.VerifierStore, and
// sync.RunRecorder against the mercately_customers and sync_runs tables.
type CustomerStore struct{ db *sql.DB }

// NewCustomerStore creates a Postgres-backed customer store.
func NewCustomerStore(db *sql.DB) *CustomerStore { return &CustomerStore{db: db} }

// CustomerKeys bulk-reads every stored id with its creation_date. Duplicate
// ids (possible between dedupe sweeps) collapse to one entry, keeping the
// latest creation_date.
func (s *CustomerStore) CustomerKeys(ctx context.Context) (map[string]sql.NullTime, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, creation_date FROM mercately_customers`,
	)
	if err != nil {
		return nil, fmt.Errorf("select customer keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]sql.NullTime)
	for rows.Next() {
		var id string
		var created sql.NullTime
		if err := rows.Scan(&id, &created); err != nil {
			return nil, fmt.Errorf("scan customer key: %w", err)
		}
		if prev, ok := keys[id]; ok {
			if !created.Valid || (prev.Valid && prev.Time.After(created.Time)) {
				continue
			}
		}
		keys[id] = created
	}
	return keys, rows.Err()
}

func (s *CustomerStore) CountCustomers(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM mercately_customers`,
	).Scan(&n)
	return n, err
}

func (s *CustomerStore) CountCustomersCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM mercately_customers WHERE creation_date >= $1`,
		since,
	).Scan(&n)
	return n, err
}

// Begin opens the single reconciliation transaction.
func (s *CustomerStore) Begin(ctx context.Context) (sync.StoreTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &customerTx{tx: tx}, nil
}

// RecordRun appends one audit row per sync run.
func (s *CustomerStore) RecordRun(ctx context.Context, report sync.RunReport) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_runs (
			id, policy, window_start, window_end,
			inserted, updated, deleted_duplicates,
			total_before, total_after, integrity_ok,
			started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		report.ID, string(report.Policy),
		report.Window.Start, report.Window.End,
		report.Result.Inserted, report.Result.Updated, report.Result.DeletedDuplicates,
		report.Result.TotalBefore, report.Result.TotalAfter, report.Result.IntegrityOK,
		report.StartedAt, report.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("record sync run: %w", err)
	}
	return nil
}

type customerTx struct{ tx *sql.Tx }

func (t *customerTx) CountCustomers(ctx context.Context) (int64, error) {
	var n int64
	err := t.tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM mercately_customers`,
	).Scan(&n)
	return n, err
}

// InsertCustomers bulk-inserts records with multi-value statements, chunked
// to stay under the bind-parameter limit.
func (t *customerTx) InsertCustomers(ctx context.Context, recs []customer.Record) (int, error) {
	inserted := 0
	for start := 0; start < len(recs); start += insertChunkSize {
		end := start + insertChunkSize
		if end > len(recs) {
			end = len(recs)
		}
		n, err := t.insertChunk(ctx, recs[start:end])
		if err != nil {
			return inserted, err
		}
		inserted += n
	}
	return inserted, nil
}

func (t *customerTx) insertChunk(ctx context.Context, recs []customer.Record) (int, error) {
	// One placeholder per column except updated_at, which is stamped NOW().
	perRow := len(insertColumns) - 1

	var b strings.Builder
	b.WriteString("INSERT INTO mercately_customers (")
	b.WriteString(strings.Join(insertColumns, ", "))
	b.WriteString(") VALUES ")

	args := make([]interface{}, 0, len(recs)*perRow)
	for i, rec := range recs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := 0; j < perRow; j++ {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", i*perRow+j+1)
		}
		b.WriteString(", NOW())")

		args = append(args,
			rec.ID, rec.FirstName, rec.LastName, rec.Phone, rec.Email, rec.City,
			rec.CampaignID, rec.Agent,
			rec.CreationDate, rec.SentAt, rec.DeliveredAt, rec.ReadAt, rec.LastChatInteraction,
			rec.Tags, rec.CustomFields, rec.CustomerAddresses, rec.WhatsappOptIn,
		)
	}

	res, err := t.tx.ExecContext(ctx, b.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("insert customers chunk: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// UpdateCustomerInWindow refreshes the mutable contact fields of the matching
// row. The window guard is repeated in SQL so a row that left the window
// between the index snapshot and this statement stays untouched.
func (t *customerTx) UpdateCustomerInWindow(ctx context.Context, rec customer.Record, w sync.Window) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE mercately_customers SET
			first_name = $2, last_name = $3, phone = $4, email = $5, city = $6,
			campaign_id = $7, creation_date = $8, last_chat_interaction = $9,
			updated_at = NOW()
		WHERE id = $1
		  AND creation_date >= $10
		  AND creation_date < $11
	`,
		rec.ID,
		rec.FirstName, rec.LastName, rec.Phone, rec.Email, rec.City,
		rec.CampaignID, rec.CreationDate, rec.LastChatInteraction,
		w.Start, w.End.AddDate(0, 0, 1),
	)
	if err != nil {
		return false, fmt.Errorf("update customer: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// DeleteDuplicates keeps exactly one row per id — the one with the latest
// updated_at, then latest creation_date — and removes the rest. Rows are
// ranked and deleted by ctid so the keeper survives even when every ordering
// column ties.
func (t *customerTx) DeleteDuplicates(ctx context.Context) (int64, error) {
	res, err := t.tx.ExecContext(ctx, `
		WITH ranked AS (
			SELECT ctid,
			       ROW_NUMBER() OVER (
			           PARTITION BY id
			           ORDER BY updated_at DESC NULLS LAST,
			                    creation_date DESC NULLS LAST,
			                    ctid
			       ) AS rn
			FROM mercately_customers
		)
		DELETE FROM mercately_customers
		WHERE ctid IN (SELECT ctid FROM ranked WHERE rn > 1)
	`)
	if err != nil {
		return 0, fmt.Errorf("dedupe sweep: %w", err)
	}
	return res.RowsAffected()
}

func (t *customerTx) Commit() error   { return t.tx.Commit() }
func (t *customerTx) Rollback() error { return t.tx.Rollback() }
