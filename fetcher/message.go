package fetcher

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// defaultClearAfter is how long transient messages stay visible.
const defaultClearAfter = 5 * time.Second

// messenger tracks the current status message and the pending auto-clear.
// Setting a new message cancels the previous message's scheduled clear.
type messenger struct {
	mu      sync.Mutex
	current uuid.UUID
	cancel  context.CancelFunc
}

// setMessage publishes a new status message and returns its handle. A
// non-zero clearAfter schedules an automatic clear.
func (f *Fetcher) setMessage(text string, level MessageLevel, clearAfter time.Duration) uuid.UUID {
	id := uuid.New()

	f.msg.mu.Lock()
	if f.msg.cancel != nil {
		f.msg.cancel()
		f.msg.cancel = nil
	}
	f.msg.current = id
	var ctx context.Context
	if clearAfter > 0 {
		ctx, f.msg.cancel = context.WithCancel(context.Background())
	}
	f.msg.mu.Unlock()

	f.emit(MessageSetEvent{ID: id, Text: text, Level: level, ClearAfter: clearAfter})

	if clearAfter > 0 {
		go f.clearAfter(ctx, id, clearAfter)
	}
	return id
}

// clearMessage retires the current message immediately.
func (f *Fetcher) clearMessage() {
	f.msg.mu.Lock()
	if f.msg.cancel != nil {
		f.msg.cancel()
		f.msg.cancel = nil
	}
	id := f.msg.current
	f.msg.mu.Unlock()

	if id != uuid.Nil {
		f.emit(MessageClearEvent{ID: id})
	}
}

func (f *Fetcher) clearAfter(ctx context.Context, id uuid.UUID, after time.Duration) {
	timer := time.NewTimer(after)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
		f.clearIfCurrent(id)
	}
}

// clearIfCurrent emits a clear only when the handle still names the current
// message; stale timers are dropped.
func (f *Fetcher) clearIfCurrent(id uuid.UUID) {
	f.msg.mu.Lock()
	current := f.msg.current == id
	if current {
		f.msg.cancel = nil
	}
	f.msg.mu.Unlock()

	if current {
		f.emit(MessageClearEvent{ID: id})
	}
}
