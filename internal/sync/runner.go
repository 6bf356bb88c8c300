package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/mercately-sync/internal/customer"
	"github.com/ignite/mercately-sync/internal/mercately"
	"github.com/ignite/mercately-sync/internal/pkg/logger"
)

// Fetcher is the slice of the Mercately fetcher the runner needs.
type Fetcher interface {
	FetchAll(ctx context.Context, start, end time.Time) ([]mercately.RawCustomer, error)
}

// RunRecorder persists a row per sync run for auditing. Recording is
// best-effort: a failure is logged and never fails the run.
type RunRecorder interface {
	RecordRun(ctx context.Context, report RunReport) error
}

// RunReport captures everything a single run did.
type RunReport struct {
	ID         uuid.UUID
	Policy     Policy
	Window     Window
	Fetched    int
	Result     Result
	StartedAt  time.Time
	FinishedAt time.Time
}

// Runner wires the fetch → normalize → reconcile → verify → checkpoint
// pipeline for one run. All collaborators are injected so tests can
// substitute fakes.
type Runner struct {
	fetcher     Fetcher
	engine      *Engine
	store       Store
	verifier    *Verifier
	checkpoints CheckpointStore
	recorder    RunRecorder

	policy       Policy
	lookbackDays int
}

// NewRunner assembles a runner. recorder may be nil when run auditing is not
// configured.
func NewRunner(fetcher Fetcher, store Store, verifier *Verifier, checkpoints CheckpointStore,
	recorder RunRecorder, policy Policy, lookbackDays int) *Runner {
	return &Runner{
		fetcher:      fetcher,
		engine:       NewEngine(store, policy),
		store:        store,
		verifier:     verifier,
		checkpoints:  checkpoints,
		recorder:     recorder,
		policy:       policy,
		lookbackDays: lookbackDays,
	}
}

// Run executes one full sync. The window is always [now − lookback, now]:
// the checkpoint records the last successful boundary for diagnostics but is
// deliberately not used to derive the window, so a missed run can never
// widen the set of mutable rows.
//
// The checkpoint advances on every successful reconciliation, including
// empty fetches. It does not advance when the transaction fails, so the next
// run re-covers the same window.
func (r *Runner) Run(ctx context.Context, now time.Time) (RunReport, error) {
	report := RunReport{
		ID:        uuid.New(),
		Policy:    r.policy,
		StartedAt: now,
	}

	end := now.Truncate(24 * time.Hour)
	report.Window = Window{Start: end.AddDate(0, 0, -r.lookbackDays), End: end}

	logger.Info("starting customer sync",
		"run_id", report.ID,
		"policy", string(r.policy),
		"window_start", report.Window.Start.Format("2006-01-02"),
		"window_end", report.Window.End.Format("2006-01-02"))

	if cp, err := r.checkpoints.Load(ctx); err != nil {
		logger.Warn("could not read previous checkpoint", "error", err)
	} else if !cp.IsZero() {
		logger.Info("previous successful run", "last_run", cp.LastRun.Format("2006-01-02"))
	}

	index, err := LoadKeyIndex(ctx, r.store)
	if err != nil {
		return report, err
	}
	logger.Info("loaded existing-key index", "ids", index.Len())

	raws, err := r.fetcher.FetchAll(ctx, report.Window.Start, report.Window.End)
	if err != nil {
		return report, fmt.Errorf("fetching customers: %w", err)
	}
	report.Fetched = len(raws)

	records := make([]customer.Record, 0, len(raws))
	for _, raw := range raws {
		records = append(records, customer.Normalize(raw))
	}

	report.Result, err = r.engine.Reconcile(ctx, records, index, report.Window)
	if err != nil {
		return report, err
	}

	logger.Info("reconciliation committed",
		"run_id", report.ID,
		"fetched", report.Fetched,
		"inserted", report.Result.Inserted,
		"updated", report.Result.Updated,
		"discarded", report.Result.Discarded,
		"deleted_duplicates", report.Result.DeletedDuplicates,
		"total_before", report.Result.TotalBefore,
		"total_after", report.Result.TotalAfter)

	if v, err := r.verifier.Verify(ctx, report.Window.Start); err != nil {
		logger.Warn("verification failed", "error", err)
	} else {
		logger.Info("verification",
			"total", v.Total,
			"in_window", v.InWindow,
			"window_start", v.WindowStart.Format("2006-01-02"))
	}

	if err := r.checkpoints.Save(ctx, Checkpoint{LastRun: report.Window.End}); err != nil {
		return report, fmt.Errorf("saving checkpoint: %w", err)
	}

	report.FinishedAt = time.Now()
	if r.recorder != nil {
		if err := r.recorder.RecordRun(ctx, report); err != nil {
			logger.Warn("could not record sync run", "run_id", report.ID, "error", err)
		}
	}

	return report, nil
}
