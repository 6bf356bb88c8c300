package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Checkpoint marks the boundary date of the last successful run. It is
// written after every successful run and read back only for diagnostics —
// the sync window is always a fixed lookback from today, never resumed from
// the checkpoint.
type Checkpoint struct {
	LastRun time.Time
}

// IsZero reports whether no run has completed yet.
func (c Checkpoint) IsZero() bool { return c.LastRun.IsZero() }

// checkpointFile is the wire format: {"last_run": "2026-08-25"}.
type checkpointFile struct {
	LastRun string `json:"last_run"`
}

// CheckpointStore persists the sync boundary.
type CheckpointStore interface {
	// Load returns the last saved checkpoint, or a zero Checkpoint when no
	// run has completed yet.
	Load(ctx context.Context) (Checkpoint, error)
	// Save overwrites the checkpoint. A partial write must never leave a
	// corrupt value readable by the next run.
	Save(ctx context.Context, cp Checkpoint) error
}

// FileCheckpointStore keeps the checkpoint in a local JSON file. Saves go
// through a temp file and rename so a crash mid-write leaves the previous
// checkpoint intact.
type FileCheckpointStore struct {
	path string
}

// NewFileCheckpointStore creates a file-backed checkpoint store.
func NewFileCheckpointStore(path string) *FileCheckpointStore {
	return &FileCheckpointStore{path: path}
}

func (s *FileCheckpointStore) Load(ctx context.Context) (Checkpoint, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Checkpoint{}, nil
		}
		return Checkpoint{}, fmt.Errorf("reading checkpoint: %w", err)
	}
	return parseCheckpoint(data)
}

func (s *FileCheckpointStore) Save(ctx context.Context, cp Checkpoint) error {
	data, err := marshalCheckpoint(cp)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".checkpoint-*")
	if err != nil {
		return fmt.Errorf("creating temp checkpoint: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing checkpoint: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing checkpoint: %w", err)
	}
	return nil
}

func marshalCheckpoint(cp Checkpoint) ([]byte, error) {
	data, err := json.Marshal(checkpointFile{LastRun: cp.LastRun.Format("2006-01-02")})
	if err != nil {
		return nil, fmt.Errorf("encoding checkpoint: %w", err)
	}
	return data, nil
}

func parseCheckpoint(data []byte) (Checkpoint, error) {
	var f checkpointFile
	if err := json.Unmarshal(data, &f); err != nil {
		return Checkpoint{}, fmt.Errorf("parsing checkpoint: %w", err)
	}
	ts, err := time.Parse("2006-01-02", f.LastRun)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("parsing checkpoint date %q: %w", f.LastRun, err)
	}
	return Checkpoint{LastRun: ts}, nil
}
