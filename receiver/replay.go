package receiver

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ReplayGuard records token ids so that a delivery cannot be accepted
// twice. Claim reports whether tokenID was seen for the first time; the
// record is kept for at least ttl.
type ReplayGuard interface {
	Claim(ctx context.Context, tokenID string, ttl time.Duration) (bool, error)
}

const defaultMaxReplayEntries = 8192

var errEmptyTokenID = errors.New("receiver: token id is required")

// MemoryReplayGuard is a process local ReplayGuard. When full, the entry
// closest to expiry is evicted.
type MemoryReplayGuard struct {
	mu         sync.Mutex
	maxEntries int
	entries    map[string]time.Time
	clock      Clock
}

// NewMemoryReplayGuard creates a MemoryReplayGuard holding at most
// maxEntries records. A non-positive value selects the default of 8192.
func NewMemoryReplayGuard(maxEntries int, clock Clock) *MemoryReplayGuard {
	if maxEntries <= 0 {
		maxEntries = defaultMaxReplayEntries
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &MemoryReplayGuard{
		maxEntries: maxEntries,
		entries:    make(map[string]time.Time),
		clock:      clock,
	}
}

func (g *MemoryReplayGuard) Claim(_ context.Context, tokenID string, ttl time.Duration) (bool, error) {
	if tokenID == "" {
		return false, errEmptyTokenID
	}
	now := g.clock.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	g.pruneLocked(now)
	if _, ok := g.entries[tokenID]; ok {
		return false, nil
	}
	for len(g.entries) >= g.maxEntries {
		g.evictLocked()
	}
	g.entries[tokenID] = now.Add(ttl)
	return true, nil
}

// Len returns the number of live records.
func (g *MemoryReplayGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pruneLocked(g.clock.Now())
	return len(g.entries)
}

func (g *MemoryReplayGuard) pruneLocked(now time.Time) {
	for id, expiresAt := range g.entries {
		if !now.Before(expiresAt) {
			delete(g.entries, id)
		}
	}
}

func (g *MemoryReplayGuard) evictLocked() {
	var oldest string
	var oldestExpiry time.Time
	for id, expiresAt := range g.entries {
		if oldest == "" || expiresAt.Before(oldestExpiry) {
			oldest = id
			oldestExpiry = expiresAt
		}
	}
	delete(g.entries, oldest)
}

var _ ReplayGuard = (*MemoryReplayGuard)(nil)
