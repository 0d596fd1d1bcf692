package screens

import "sync"

// Modal is a workflow dialog. It is open exactly when it has a target.
type Modal[T any] struct {
	mu     sync.Mutex
	target *T
}

func (m *Modal[T]) Open(target T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.target = &target
}

func (m *Modal[T]) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.target = nil
}

func (m *Modal[T]) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.target != nil
}

// Target returns the bound entity.
func (m *Modal[T]) Target() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.target == nil {
		var zero T
		return zero, false
	}
	return *m.target, true
}
