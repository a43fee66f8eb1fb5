package usecase

import "sync"

// ReplayGuard serializes replay against ordinary mutations. Replay reasons
// about the entire store's content, so it takes the exclusive side for its
// whole transaction; single-record mutations share the read side and may run
// concurrently with each other under the store's own row-level isolation.
type ReplayGuard struct {
	mu sync.RWMutex
}

func NewReplayGuard() *ReplayGuard {
	return &ReplayGuard{}
}

// Mutate acquires the shared side for one create/update/delete call.
func (g *ReplayGuard) Mutate() (release func()) {
	g.mu.RLock()
	return g.mu.RUnlock
}

// Exclusive acquires the whole guard for one replay or wipe.
func (g *ReplayGuard) Exclusive() (release func()) {
	g.mu.Lock()
	return g.mu.Unlock
}
