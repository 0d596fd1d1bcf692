package querycache

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// MutationDef describes a write endpoint.
type MutationDef[B, T any] struct {
	Name string
	Do   func(ctx context.Context, body B) (T, error)

	// Invalidates returns the tags to invalidate after success. Optional.
	Invalidates func(body B, data T) []Tag

	// OnSuccess runs after a successful write and before invalidation.
	// Failures of side effects are the callee's to log; they do not fail
	// the mutation.
	OnSuccess func(ctx context.Context, body B, data T)
}

// Mutation is a typed write endpoint. Its tags are invalidated on the
// owning cache and on every additional target cache.
type Mutation[B, T any] struct {
	def     MutationDef[B, T]
	targets []*Cache

	mu    sync.Mutex
	state MutationState[T]
}

func NewMutation[B, T any](c *Cache, def MutationDef[B, T], also ...*Cache) *Mutation[B, T] {
	return &Mutation[B, T]{
		def:     def,
		targets: append([]*Cache{c}, also...),
	}
}

// Run performs the write. On success it runs the side effects and then
// invalidates its tags: observed entries have been refetched by the time
// Run returns. The error, if any, is returned and stored on State; nothing
// is retried. The write and the refetches are not cancelled by ctx.
func (m *Mutation[B, T]) Run(ctx context.Context, body B) (T, error) {
	ctx = context.WithoutCancel(ctx)

	m.mu.Lock()
	m.state = MutationState[T]{Status: Pending}
	m.mu.Unlock()

	data, err := m.def.Do(ctx, body)
	if err != nil {
		m.mu.Lock()
		m.state = MutationState[T]{Status: Rejected, Err: err}
		m.mu.Unlock()

		m.targets[0].logger.Debug("mutation rejected", "endpoint", m.def.Name, "error", err)
		var zero T
		return zero, err
	}

	if m.def.OnSuccess != nil {
		m.def.OnSuccess(ctx, body, data)
	}

	if m.def.Invalidates != nil {
		if tags := m.def.Invalidates(body, data); len(tags) > 0 {
			m.invalidate(ctx, tags)
		}
	}

	m.mu.Lock()
	m.state = MutationState[T]{Status: Fulfilled, Data: data}
	m.mu.Unlock()

	return data, nil
}

func (m *Mutation[B, T]) invalidate(ctx context.Context, tags []Tag) {
	var g errgroup.Group
	for _, c := range m.targets {
		g.Go(func() error {
			if err := c.Invalidate(ctx, tags...); err != nil {
				// The failure is on the refetched entry; the write itself
				// succeeded.
				c.logger.Debug("refetch after mutation failed", "endpoint", m.def.Name, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// State returns the state of the last Run.
func (m *Mutation[B, T]) State() MutationState[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Reset forgets the last result.
func (m *Mutation[B, T]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = MutationState[T]{}
}
