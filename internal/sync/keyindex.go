package sync

import (
	"context"
	"database/sql"
	"fmt"
)

// KeyIndex is a process-lifetime snapshot of every customer id in storage,
// with each row's creation_date so records can be classified without
// per-record round trips. It is loaded once at the start of a run; staleness
// against concurrent writers is an accepted race and the dedupe sweep is the
// backstop for it.
type KeyIndex struct {
	keys map[string]sql.NullTime
}

// LoadKeyIndex builds the index with one bulk read.
func LoadKeyIndex(ctx context.Context, store Store) (*KeyIndex, error) {
	keys, err := store.CustomerKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading existing customer keys: %w", err)
	}
	return NewKeyIndex(keys), nil
}

// NewKeyIndex wraps an id → creation_date map. Used directly by tests.
func NewKeyIndex(keys map[string]sql.NullTime) *KeyIndex {
	if keys == nil {
		keys = map[string]sql.NullTime{}
	}
	return &KeyIndex{keys: keys}
}

// Contains reports whether the id was in storage when the snapshot was taken.
func (i *KeyIndex) Contains(id string) bool {
	_, ok := i.keys[id]
	return ok
}

// CreationDate returns the stored row's creation_date for the id, and
// whether the id exists at all.
func (i *KeyIndex) CreationDate(id string) (sql.NullTime, bool) {
	t, ok := i.keys[id]
	return t, ok
}

// Len returns the number of distinct ids in the snapshot.
func (i *KeyIndex) Len() int { return len(i.keys) }
