package links

import (
	"context"
	"sync"
	"time"

	"github.com/abdusco/shortly/internal"
	"github.com/abdusco/shortly/internal/logger"
)

const clickWriteTimeout = 5 * time.Second

// Recorder persists clicks on background workers. Record never blocks: when
// the queue is full or the recorder is closed the click is logged and dropped.
type Recorder struct {
	store ClickStore
	queue chan internal.Click
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

var _ ClickRecorder = (*Recorder)(nil)

func NewRecorder(store ClickStore, workers, queueSize int) *Recorder {
	r := &Recorder{
		store: store,
		queue: make(chan internal.Click, queueSize),
	}

	for range max(workers, 1) {
		r.wg.Add(1)
		go r.work()
	}
	return r
}

func (r *Recorder) Record(click internal.Click) {
	log := logger.With("link_id", click.LinkID)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		log.Warn().Msg("click recorder closed, dropping click")
		return
	}

	select {
	case r.queue <- click:
	default:
		log.Warn().Msg("click queue full, dropping click")
	}
}

// Close stops accepting clicks and waits until queued clicks are written.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *Recorder) work() {
	defer r.wg.Done()

	for click := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), clickWriteTimeout)
		if err := r.store.Create(ctx, click); err != nil {
			log := logger.With("link_id", click.LinkID)
			log.Error().Err(err).Msg("failed to record click")
		}
		cancel()
	}
}
