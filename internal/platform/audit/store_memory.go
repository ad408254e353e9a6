package audit

import (
	"context"
	"sync"
)

// MemoryRecorder keeps the trail in memory; used in tests and the memory
// storage backend.
type MemoryRecorder struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

func (r *MemoryRecorder) Record(_ context.Context, event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of the recorded trail.
func (r *MemoryRecorder) Events() []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Event{}, r.events...)
}
