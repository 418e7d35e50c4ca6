package snapshot

import (
	"sync"
	"time"
)

// Store keeps the most recent good snapshot. It is safe for concurrent use:
// refreshes replace the snapshot atomically while readers keep whatever
// pointer they obtained.
type Store struct {
	mu          sync.RWMutex
	current     *Snapshot
	lastErr     error
	lastAttempt time.Time
	failures    int
}

func NewStore() *Store {
	return &Store{}
}

// Set installs a fresh snapshot and clears the failure state.
func (s *Store) Set(snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = snap
	s.lastErr = nil
	s.lastAttempt = time.Now().UTC()
	s.failures = 0
}

// Fail records a refresh failure. The previous snapshot stays in place.
func (s *Store) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
	s.lastAttempt = time.Now().UTC()
	s.failures++
}

// Current returns the last good snapshot, or nil before the first successful
// refresh.
func (s *Store) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Status describes the store's health for the status endpoint.
type Status struct {
	Ready        bool      `json:"ready"`
	RunID        string    `json:"runId,omitempty"`
	GeneratedAt  time.Time `json:"generatedAt,omitempty"`
	LastAttempt  time.Time `json:"lastAttempt,omitempty"`
	Failures     int       `json:"consecutiveFailures"`
	LastError    string    `json:"lastError,omitempty"`
	ClientCount  int       `json:"clients"`
	AgentCount   int       `json:"agents"`
	RowsTotal    int       `json:"rowsTotal"`
	RowsSkipped  int       `json:"rowsSkipped"`
	StaleRefresh bool      `json:"staleRefresh"`
}

// Status reports the store state. StaleRefresh is set when the last attempt
// failed while an older snapshot is still being served.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		Ready:       s.current != nil,
		LastAttempt: s.lastAttempt,
		Failures:    s.failures,
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
		st.StaleRefresh = s.current != nil
	}
	if s.current != nil {
		st.RunID = s.current.RunID
		st.GeneratedAt = s.current.GeneratedAt
		st.ClientCount = len(s.current.Clients)
		st.AgentCount = len(s.current.Agents)
		st.RowsTotal = s.current.RowsTotal
		st.RowsSkipped = s.current.RowsSkipped
	}
	return st
}
