package links

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/abdusco/shortly/internal"
	"github.com/stretchr/testify/require"
)

type memoryClicks struct {
	mu     sync.Mutex
	clicks []internal.Click
	fail   bool
	block  chan struct{}
}

func (m *memoryClicks) Create(_ context.Context, click internal.Click) error {
	if m.block != nil {
		<-m.block
	}
	if m.fail {
		return errors.New("disk full")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clicks = append(m.clicks, click)
	return nil
}

func (m *memoryClicks) ListForLink(_ context.Context, linkID string) ([]internal.Click, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []internal.Click
	for _, c := range m.clicks {
		if c.LinkID == linkID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memoryClicks) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clicks)
}

func TestRecorder_CloseDrainsQueue(t *testing.T) {
	store := &memoryClicks{}
	r := NewRecorder(store, 2, 64)

	for range 50 {
		r.Record(internal.Click{LinkID: "l1"})
	}
	r.Close()

	require.Equal(t, 50, store.len())
}

func TestRecorder_DropsWhenClosed(t *testing.T) {
	store := &memoryClicks{}
	r := NewRecorder(store, 1, 4)
	r.Close()
	r.Close()

	r.Record(internal.Click{LinkID: "late"})
	require.Zero(t, store.len())
}

func TestRecorder_DropsWhenQueueFull(t *testing.T) {
	store := &memoryClicks{block: make(chan struct{})}
	r := NewRecorder(store, 1, 1)

	// one click held by the blocked worker, at most one queued, the rest dropped
	for range 10 {
		r.Record(internal.Click{LinkID: "l1"})
	}
	close(store.block)
	r.Close()

	require.LessOrEqual(t, store.len(), 2)
	require.GreaterOrEqual(t, store.len(), 1)
}

func TestRecorder_StoreErrorsAreSwallowed(t *testing.T) {
	store := &memoryClicks{fail: true}
	r := NewRecorder(store, 1, 4)

	r.Record(internal.Click{LinkID: "l1"})
	r.Close()

	require.Zero(t, store.len())
}
