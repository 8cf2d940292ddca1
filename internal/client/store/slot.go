package store

import (
	"context"
	"errors"
	"sync"
)

// ErrStale reports that a response was discarded because a newer request
// for the same state was started after it.
var ErrStale = errors.New("stale response discarded")

// slot serializes writers of one piece of state by generation. Only the
// latest generation may commit.
type slot struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// begin starts a fetch: the previous in-flight fetch is cancelled and the
// returned context is cancelled by the next begin.
func (s *slot) begin(ctx context.Context) (context.Context, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	ctx, s.cancel = context.WithCancel(ctx)
	return ctx, s.gen
}

// stamp starts a mutation. It supersedes in-flight fetches but the mutation
// itself is never cancelled by later ones.
func (s *slot) stamp() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	return s.gen
}

// commit runs apply if gen is still current. apply runs under the slot lock.
func (s *slot) commit(gen uint64, apply func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		return false
	}
	apply()
	return true
}

// finish releases the context of fetch gen if no newer fetch replaced it.
func (s *slot) finish(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen == s.gen && s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
