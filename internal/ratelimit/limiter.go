// Package ratelimit implements sliding window request limits keyed by client.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

type Limiter interface {
	// Allow records a request for key and reports whether it fits in the window.
	Allow(ctx context.Context, key string) (bool, error)
}

// Memory is a per-process sliding window limiter. Every key keeps the
// timestamps of its accepted requests inside the window.
type Memory struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	keys map[string][]time.Time
}

var _ Limiter = (*Memory)(nil)

func NewMemory(limit int, window time.Duration) *Memory {
	return &Memory{
		limit:  limit,
		window: window,
		now:    time.Now,
		keys:   map[string][]time.Time{},
	}
}

func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	requests := m.prune(key, now)

	if len(requests) >= m.limit {
		m.keys[key] = requests
		return false, nil
	}

	m.keys[key] = append(requests, now)
	return true, nil
}

func (m *Memory) prune(key string, now time.Time) []time.Time {
	windowStart := now.Add(-m.window)
	requests := m.keys[key]

	valid := len(requests)
	for i, t := range requests {
		if t.After(windowStart) {
			valid = i
			break
		}
	}
	return requests[valid:]
}

// Sweep drops keys without requests in the current window.
func (m *Memory) Sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key := range m.keys {
		if len(m.prune(key, now)) == 0 {
			delete(m.keys, key)
		}
	}
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Memory) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
