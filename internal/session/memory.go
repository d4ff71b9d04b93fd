package session

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"

	apperrors "github.com/blueworldgit/epc-parts-store/pkg/errors"
	"github.com/blueworldgit/epc-parts-store/internal/domain"
)

// MemoryStore is an in-process Store for tests and local development.
type MemoryStore struct {
	mu   sync.RWMutex
	subs map[string]domain.Submission
}

// NewMemoryStore creates an empty in-memory submission store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subs: make(map[string]domain.Submission),
	}
}

// Save stores a copy of the submission under its session ID.
func (s *MemoryStore) Save(_ context.Context, sub *domain.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub.SessionID] = *sub
	return nil
}

// Load returns a copy of the stored submission.
func (s *MemoryStore) Load(_ context.Context, sessionID string) (*domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subs[sessionID]
	if !ok {
		return nil, apperrors.NotFound("submission", sessionID)
	}
	cpy := sub
	return &cpy, nil
}

// Clear removes the submission for a session, if present.
func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, sessionID)
	return nil
}

// MemorySequence is an in-process NumberSequence for tests.
type MemorySequence struct {
	counter atomic.Int64
	seed    int64
}

// NewMemorySequence creates a sequence starting just above seed.
func NewMemorySequence(seed int64) *MemorySequence {
	return &MemorySequence{seed: seed}
}

// Next reserves and returns the next order number.
func (s *MemorySequence) Next(_ context.Context) (string, error) {
	n := s.counter.Add(1)
	return strconv.FormatInt(s.seed+n, 10), nil
}
