package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Store maps opaque session identifiers to records. It is process-local and
// makes no persistence guarantee; a restart means everyone logs in again.
type Store struct {
	mu      sync.RWMutex
	records map[string]*Record
}

func NewStore() *Store {
	return &Store{records: make(map[string]*Record)}
}

// Create inserts a record under a fresh random identifier and returns it.
// The 128-bit identifier space makes collision handling unnecessary.
func (s *Store) Create(r *Record) string {
	id := uuid.NewString()
	s.mu.Lock()
	s.records[id] = r
	s.mu.Unlock()
	return id
}

// Get returns the record for an identifier, or ok=false for an unknown one.
// A miss is a normal caller-must-relogin signal, not an error.
func (s *Store) Get(id string) (*Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	return r, ok
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Sweep removes every record idle longer than idleTTL and returns how many
// were dropped. Idleness is judged on lastAccess only; a record holding an
// expired token stays until the next use refreshes it.
func (s *Store) Sweep(now time.Time, idleTTL time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, r := range s.records {
		if now.Sub(r.LastAccess()) > idleTTL {
			delete(s.records, id)
			removed++
			log.Info().Str("sessionId", id).Msg("removed idle session")
		}
	}
	return removed
}

// RunSweeper evicts idle sessions on a fixed interval until the context is
// cancelled. One pass runs immediately so a restart does not wait a full
// interval before clearing stale state.
func (s *Store) RunSweeper(ctx context.Context, interval, idleTTL time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.Sweep(time.Now(), idleTTL)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("stopping session sweeper")
			return ctx.Err()
		case <-ticker.C:
			s.Sweep(time.Now(), idleTTL)
		}
	}
}
