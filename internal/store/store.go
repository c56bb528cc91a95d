// Package store holds the loaded loan portfolio and its secondary indices.
//
// A Store publishes immutable snapshots. Load builds the next snapshot completely before
// swapping it in, so searches holding the previous snapshot are never affected and a
// failed load leaves the previous snapshot in place.
package store

import (
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/loan-record-search/internal/types"
)

// Store is the loan record store
type Store struct {
	current atomic.Pointer[Snapshot]
	logger  *log.Logger
}

// New creates an empty store
func New(logger *log.Logger) *Store {
	s := &Store{logger: logger}
	s.current.Store(newSnapshot(nil))
	return s
}

// Load replaces every record and rebuilds all indices. The load is all-or-nothing: on a
// validation failure a *types.LoadError is returned and the current snapshot is kept.
func (s *Store) Load(records []types.LoanRecord) error {
	startTime := time.Now()

	for i, r := range records {
		if err := r.Validate(); err != nil {
			return &types.LoadError{Row: i, LoanID: r.LoanID, Err: err}
		}
	}

	owned := make([]types.LoanRecord, len(records))
	copy(owned, records)

	snap := newSnapshot(owned)
	s.current.Store(snap)

	s.logger.Info("Loaded loan records",
		"records", snap.Len(),
		"index_keys", len(snap.index),
		"duration", time.Since(startTime))

	return nil
}

// Snapshot returns the current snapshot. It stays valid and unchanged after later loads.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Snapshot is one immutable generation of the store
type Snapshot struct {
	records []types.LoanRecord
	states  []string
	index   map[string][]int
	byID    map[string]int
}

func newSnapshot(records []types.LoanRecord) *Snapshot {
	states := make([]string, len(records))
	byID := make(map[string]int, len(records))
	for i, r := range records {
		states[i], _ = ExtractState(r.PropertyAddress)
		// first occurrence wins for duplicated ids
		if _, exists := byID[r.LoanID]; !exists {
			byID[r.LoanID] = i
		}
	}

	return &Snapshot{
		records: records,
		states:  states,
		index:   buildIndex(records, states),
		byID:    byID,
	}
}

// Len returns the number of records
func (s *Snapshot) Len() int {
	return len(s.records)
}

// Record returns the record at position i
func (s *Snapshot) Record(i int) types.LoanRecord {
	return s.records[i]
}

// Records returns a copy of all records in load order
func (s *Snapshot) Records() []types.LoanRecord {
	out := make([]types.LoanRecord, len(s.records))
	copy(out, s.records)
	return out
}

// State returns the state code extracted from the address of record i, or "" if none
func (s *Snapshot) State(i int) string {
	return s.states[i]
}

// Indexed reports whether equality lookups on field can use the index
func (s *Snapshot) Indexed(field types.Field) bool {
	return indexedFields[field]
}

// Lookup returns the positions of records whose field equals value, ignoring case, in
// load order. It returns nil for unknown values and non-indexed fields.
func (s *Snapshot) Lookup(field types.Field, value string) []int {
	if !indexedFields[field] {
		return nil
	}
	return s.index[indexKey(field, value)]
}

// Keys returns the sorted index bucket keys
func (s *Snapshot) Keys() []string {
	keys := make([]string, 0, len(s.index))
	for k := range s.index {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ByID returns the record with the given loan id
func (s *Snapshot) ByID(loanID string) (types.LoanRecord, error) {
	i, ok := s.byID[loanID]
	if !ok {
		return types.LoanRecord{}, fmt.Errorf("loan %q: %w", loanID, types.ErrRecordNotFound)
	}
	return s.records[i], nil
}
