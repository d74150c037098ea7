// Package lock provides per-lead single-flight run guards: an in-process
// implementation and a Redis-backed one for multi-instance deployments.
package lock

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryGuard serializes runs within a single process.
type MemoryGuard struct {
	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{inFlight: map[uuid.UUID]struct{}{}}
}

// TryAcquire reports whether the caller got exclusive access for the lead.
func (g *MemoryGuard) TryAcquire(_ context.Context, leadID uuid.UUID) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.inFlight[leadID]; ok {
		return false, nil
	}
	g.inFlight[leadID] = struct{}{}
	return true, nil
}

// Release frees the lead's slot. Releasing a slot that was never acquired is
// a no-op.
func (g *MemoryGuard) Release(_ context.Context, leadID uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inFlight, leadID)
	return nil
}
