package audit

import (
	"context"
	"sync"
)

const defaultMemoryCapacity = 200

// MemoryRepo keeps the most recent events in memory. Older events fall off.
type MemoryRepo struct {
	mu       sync.Mutex
	events   []Event
	capacity int
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{capacity: defaultMemoryCapacity} }

func (r *MemoryRepo) Append(ctx context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	if over := len(r.events) - r.capacity; over > 0 {
		r.events = append([]Event(nil), r.events[over:]...)
	}
	return nil
}

func (r *MemoryRepo) List(ctx context.Context) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out, nil
}
