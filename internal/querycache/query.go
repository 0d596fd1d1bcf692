package querycache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// QueryDef describes a read endpoint.
type QueryDef[A, T any] struct {
	Name  string
	Fetch func(ctx context.Context, arg A) (T, error)

	// Provides returns the tags of a successful result. Optional.
	Provides func(arg A, data T) []Tag
}

// Query is a typed, cached read endpoint.
type Query[A, T any] struct {
	cache *Cache
	def   QueryDef[A, T]
}

func NewQuery[A, T any](c *Cache, def QueryDef[A, T]) *Query[A, T] {
	return &Query[A, T]{cache: c, def: def}
}

// Options control how a subscription loads its entry.
type Options struct {
	// Skip keeps the subscription detached: no entry, no request.
	Skip bool

	// RefetchOnMountOrArgChange forces a request when the subscription is
	// created or its argument changes, even if fresh data is cached.
	RefetchOnMountOrArgChange bool
}

// Key returns the cache key of arg.
func (q *Query[A, T]) Key(arg A) string {
	raw, err := json.Marshal(arg)
	if err != nil {
		return fmt.Sprintf("%s(%#v)", q.def.Name, arg)
	}
	return q.def.Name + "(" + string(raw) + ")"
}

func (q *Query[A, T]) fetcher(arg A) fetchFunc {
	return func(ctx context.Context) (any, []Tag, error) {
		data, err := q.def.Fetch(ctx, arg)
		if err != nil {
			return nil, nil, err
		}

		var tags []Tag
		if q.def.Provides != nil {
			tags = q.def.Provides(arg, data)
		}
		return data, tags, nil
	}
}

// Fetch loads arg without observing it, as a prefetch. Cached fresh data is
// returned as is unless force is set.
func (q *Query[A, T]) Fetch(ctx context.Context, arg A, force bool) (State[T], error) {
	e := q.cache.ensure(q.Key(arg), q.def.Name, q.fetcher(arg))
	err := q.cache.load(ctx, e, force)
	return toState[T](q.cache.snapshot(e)), err
}

// Select returns the cached state of arg without loading it.
func (q *Query[A, T]) Select(arg A) State[T] {
	e, ok := q.cache.lookup(q.Key(arg))
	if !ok {
		return State[T]{}
	}
	return toState[T](q.cache.snapshot(e))
}

// Subscribe observes the entry of arg and loads it as needed, returning
// once the load has settled. The subscription is returned even when the
// load failed; the error is on its State as well. listener, when non nil,
// is called after every state change of the entry.
func (q *Query[A, T]) Subscribe(ctx context.Context, arg A, opts Options, listener func(State[T])) (*Subscription[A, T], error) {
	s := &Subscription[A, T]{q: q, listener: listener}
	err := s.Update(ctx, arg, opts)
	return s, err
}

func toState[T any](s snapshot) State[T] {
	out := State[T]{
		Status:        s.status,
		HasData:       s.hasData,
		Err:           s.err,
		LastFetchedAt: s.fetchedAt,
		Stale:         s.stale,
	}
	if s.hasData {
		if data, ok := s.data.(T); ok {
			out.Data = data
		}
	}
	return out
}

// Subscription is one observer of a query entry, the equivalent of a
// mounted component.
type Subscription[A, T any] struct {
	q        *Query[A, T]
	listener func(State[T])

	mu       sync.Mutex
	arg      A
	opts     Options
	entry    *entry
	observer int
	attached bool
	closed   bool
}

// State returns the state of the observed entry. A skipped subscription
// reports Uninitialized.
func (s *Subscription[A, T]) State() State[T] {
	s.mu.Lock()
	e := s.entry
	s.mu.Unlock()

	if e == nil {
		return State[T]{}
	}
	return toState[T](s.q.cache.snapshot(e))
}

// Arg returns the current argument.
func (s *Subscription[A, T]) Arg() A {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.arg
}

// Refetch forces a request for the current argument.
func (s *Subscription[A, T]) Refetch(ctx context.Context) error {
	s.mu.Lock()
	e, skip := s.entry, s.opts.Skip
	s.mu.Unlock()

	if skip || e == nil {
		return ErrSkipped
	}
	return s.q.cache.load(ctx, e, true)
}

// Update changes the argument and options, moving the observer to another
// entry when the key changes. The same key is only loaded when it has no
// usable data.
func (s *Subscription[A, T]) Update(ctx context.Context, arg A, opts Options) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}

	prev, prevID, wasAttached := s.entry, s.observer, s.attached
	key := s.q.Key(arg)
	sameKey := wasAttached && prev.key == key

	s.arg = arg
	s.opts = opts

	if opts.Skip {
		s.entry, s.attached = nil, false
		s.mu.Unlock()
		if wasAttached {
			s.q.cache.unobserve(prev, prevID)
		}
		return nil
	}

	if sameKey {
		e := s.entry
		s.mu.Unlock()
		return s.q.cache.load(ctx, e, false)
	}

	e, id := s.q.cache.attach(key, s.q.def.Name, s.q.fetcher(arg), func(e *entry) {
		if s.listener != nil {
			s.listener(toState[T](s.q.cache.snapshot(e)))
		}
	})
	s.entry, s.observer, s.attached = e, id, true
	s.mu.Unlock()

	if wasAttached {
		s.q.cache.unobserve(prev, prevID)
	}

	return s.q.cache.load(ctx, e, opts.RefetchOnMountOrArgChange)
}

// Unsubscribe stops observing. Requests in flight keep running and update
// the entry for other observers.
func (s *Subscription[A, T]) Unsubscribe() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	e, id, attached := s.entry, s.observer, s.attached
	s.entry, s.attached = nil, false
	s.mu.Unlock()

	if attached {
		s.q.cache.unobserve(e, id)
	}
}
