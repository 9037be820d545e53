package lock

import (
	"context"
	"sync"
	"time"
)

type lease struct {
	owner     string
	expiresAt time.Time
}

// MemoryLock is a process-local RunLock for single-instance deployments
// and tests.
type MemoryLock struct {
	mu     sync.Mutex
	leases map[string]lease
	now    func() time.Time
}

// NewMemoryLock creates an empty in-memory lock
func NewMemoryLock() *MemoryLock {
	return &MemoryLock{leases: make(map[string]lease), now: time.Now}
}

// Acquire takes the lease when free, expired or already held by owner
func (l *MemoryLock) Acquire(_ context.Context, key, owner string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if cur, ok := l.leases[key]; ok && cur.owner != owner && now.Before(cur.expiresAt) {
		return false, nil
	}
	l.leases[key] = lease{owner: owner, expiresAt: now.Add(ttl)}
	return true, nil
}

// Release drops the lease if owner holds it
func (l *MemoryLock) Release(_ context.Context, key, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cur, ok := l.leases[key]; ok && cur.owner == owner {
		delete(l.leases, key)
	}
	return nil
}

// Close is a no-op
func (l *MemoryLock) Close() error {
	return nil
}

var _ RunLock = (*MemoryLock)(nil)
