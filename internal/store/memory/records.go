// Package memory offers an in-memory RecordStore for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/im-caveman/yagaami/internal/jobs"
)

// RecordStore keeps job records in a map keyed by JobID.
type RecordStore struct {
	mu      sync.Mutex
	records map[string]jobs.JobRecord
}

// NewRecordStore constructs an empty in-memory record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{records: make(map[string]jobs.JobRecord)}
}

// Upsert stores the record, replacing any previous record with the same JobID.
func (s *RecordStore) Upsert(_ context.Context, record jobs.JobRecord) error {
	if record.JobID == "" {
		return fmt.Errorf("job id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.JobID] = record
	return nil
}

// Get returns the stored record for the given job id.
func (s *RecordStore) Get(jobID string) (jobs.JobRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[jobID]
	return record, ok
}

// All returns a snapshot of every stored record.
func (s *RecordStore) All() []jobs.JobRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]jobs.JobRecord, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, record)
	}
	return out
}

// Len reports how many distinct records are stored.
func (s *RecordStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
