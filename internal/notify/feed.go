package notify

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrUnknownDialog is returned when answering a dialog that is not pending.
var ErrUnknownDialog = errors.New("notify: unknown dialog")

const defaultFeedCapacity = 50

// Toast is one delivered notification.
type Toast struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// PendingDialog is a dialog waiting for an answer from the UI.
type PendingDialog struct {
	ID        string    `json:"id"`
	Dialog    Dialog    `json:"dialog"`
	CreatedAt time.Time `json:"created_at"`

	answer chan bool
}

// Snapshot is what the UI polls.
type Snapshot struct {
	Toasts  []Toast         `json:"toasts"`
	Dialogs []PendingDialog `json:"dialogs"`
}

// Feed queues notifications for a UI that polls for them. Confirm blocks the
// calling goroutine until Answer is called, ctx ends, or the timeout elapses.
type Feed struct {
	mu       sync.Mutex
	toasts   []Toast
	pending  map[string]*PendingDialog
	capacity int
	timeout  time.Duration
	clock    func() time.Time
}

func NewFeed(timeout time.Duration) *Feed {
	return &Feed{
		pending:  make(map[string]*PendingDialog),
		capacity: defaultFeedCapacity,
		timeout:  timeout,
		clock:    time.Now,
	}
}

func (f *Feed) Error(ctx context.Context, msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toasts = append(f.toasts, Toast{
		ID:        uuid.NewString(),
		Kind:      KindError,
		Message:   msg,
		CreatedAt: f.clock().UTC(),
	})
	if over := len(f.toasts) - f.capacity; over > 0 {
		f.toasts = append([]Toast(nil), f.toasts[over:]...)
	}
}

func (f *Feed) Confirm(ctx context.Context, d Dialog) (bool, error) {
	p := &PendingDialog{
		ID:        uuid.NewString(),
		Dialog:    d,
		CreatedAt: f.clock().UTC(),
		answer:    make(chan bool, 1),
	}
	f.mu.Lock()
	f.pending[p.ID] = p
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		delete(f.pending, p.ID)
		f.mu.Unlock()
	}()

	var expired <-chan time.Time
	if f.timeout > 0 {
		timer := time.NewTimer(f.timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case ok := <-p.answer:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	case <-expired:
		return false, ErrDialogExpired
	}
}

// Answer resolves a pending dialog.
func (f *Feed) Answer(id string, confirmed bool) error {
	f.mu.Lock()
	p, ok := f.pending[id]
	if ok {
		delete(f.pending, id)
	}
	f.mu.Unlock()
	if !ok {
		return ErrUnknownDialog
	}
	p.answer <- confirmed
	return nil
}

// Drain returns queued toasts (removing them) and the dialogs still pending.
func (f *Feed) Drain() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := Snapshot{Toasts: f.toasts, Dialogs: make([]PendingDialog, 0, len(f.pending))}
	if s.Toasts == nil {
		s.Toasts = []Toast{}
	}
	f.toasts = nil
	for _, p := range f.pending {
		s.Dialogs = append(s.Dialogs, *p)
	}
	sort.Slice(s.Dialogs, func(i, j int) bool { return s.Dialogs[i].CreatedAt.Before(s.Dialogs[j].CreatedAt) })
	return s
}
