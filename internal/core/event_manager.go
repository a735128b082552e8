package core

import (
	"context"
	"sync"
)

// eventManager is a named producer/consumer rendezvous scoped to one
// DependencyGroup. A child with require=[R] waits on R's name; the group
// produces R's name once R's fetch completes (success, skip, or failure).
// Each name maps to a channel that is closed, never sent on — closing a
// channel wakes every current and future waiter, which is the "clear
// releases all waiters" semantics the scheduler needs on cancellation.
type eventManager struct {
	mu   sync.Mutex
	done map[string]chan struct{}
}

func newEventManager() *eventManager {
	return &eventManager{done: make(map[string]chan struct{})}
}

// chanFor returns the channel for name, creating it if this is the first
// reference (by either a waiter registering early or a producer firing
// first).
func (m *eventManager) chanFor(name string) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.done[name]
	if !ok {
		ch = make(chan struct{})
		m.done[name] = ch
	}
	return ch
}

// produce marks name as complete, releasing every waiter registered on it.
// Safe to call more than once for the same name (idempotent).
func (m *eventManager) produce(name string) {
	m.mu.Lock()
	ch, ok := m.done[name]
	if !ok {
		ch = make(chan struct{})
		m.done[name] = ch
	}
	m.mu.Unlock()

	select {
	case <-ch:
		// already closed
	default:
		close(ch)
	}
}

// wait blocks until name is produced, the context is cancelled, or timeout
// elapses first. Returns a TimeoutError naming waiterName on timeout.
func (m *eventManager) wait(ctx context.Context, name, waiterName string, timeout <-chan struct{}) error {
	ch := m.chanFor(name)
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timeout:
		return NewTimeoutError(waiterName)
	}
}

// clear releases every registered waiter, used so siblings never deadlock
// when the group barrier is cancelled by a sibling's failure.
func (m *eventManager) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, ch := range m.done {
		select {
		case <-ch:
		default:
			close(ch)
		}
		_ = name
	}
}
