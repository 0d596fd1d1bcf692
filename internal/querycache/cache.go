package querycache

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/aussiebroadwan/studio/pkg/slogx"
)

// DefaultRetention is how long an unobserved entry is kept.
const DefaultRetention = 60 * time.Second

type Config struct {
	// Retention is how long an entry without observers survives Collect.
	Retention time.Duration

	Logger *slog.Logger

	// Now is the clock, time.Now when nil.
	Now func() time.Time
}

// Cache holds the entries of one resource family.
type Cache struct {
	name      string
	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
	nextObs int

	flight singleflight.Group
}

type fetchFunc func(ctx context.Context) (any, []Tag, error)

type entry struct {
	key      string
	endpoint string
	fetch    fetchFunc

	status    Status
	data      any
	hasData   bool
	err       error
	fetchedAt time.Time
	tags      []Tag
	stale     bool

	// seq identifies the latest request; older settlements are dropped.
	seq int
	// epoch counts invalidations; a request started before the current
	// epoch leaves the entry stale.
	epoch    int
	inflight bool

	observers map[int]func(*entry)
	idleSince time.Time
}

type snapshot struct {
	status    Status
	data      any
	hasData   bool
	err       error
	fetchedAt time.Time
	stale     bool
}

func New(name string, cfg Config) *Cache {
	if cfg.Retention < 0 {
		cfg.Retention = 0
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Cache{
		name:      name,
		retention: cfg.Retention,
		logger:    cfg.Logger.With("cache", name),
		now:       cfg.Now,
		entries:   map[string]*entry{},
	}
}

func (c *Cache) Name() string { return c.name }

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Keys returns the entry keys in order, mostly useful in tests and debug
// output.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ensure returns the entry for key, creating it on first use.
func (c *Cache) ensure(key, endpoint string, fetch fetchFunc) *entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		e = &entry{
			key:       key,
			endpoint:  endpoint,
			fetch:     fetch,
			observers: map[int]func(*entry){},
			idleSince: c.now(),
		}
		c.entries[key] = e
	}
	return e
}

func (c *Cache) lookup(key string) (*entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e, ok
}

func (c *Cache) snapshot(e *entry) snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return snapshot{
		status:    e.status,
		data:      e.data,
		hasData:   e.hasData,
		err:       e.err,
		fetchedAt: e.fetchedAt,
		stale:     e.stale,
	}
}

// attach returns the entry for key, creating it when needed, and registers
// fn as an observer in the same critical section so that Collect cannot
// drop the entry in between.
func (c *Cache) attach(key, endpoint string, fetch fetchFunc, fn func(*entry)) (*entry, int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		e = &entry{
			key:       key,
			endpoint:  endpoint,
			fetch:     fetch,
			observers: map[int]func(*entry){},
		}
		c.entries[key] = e
	}

	id := c.nextObs
	c.nextObs++
	e.observers[id] = fn
	return e, id
}

func (c *Cache) unobserve(e *entry, id int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(e.observers, id)
	if len(e.observers) == 0 {
		e.idleSince = c.now()
	}
}

// load fetches e when it has no usable data, when force is set, or joins
// the request already in flight.
func (c *Cache) load(ctx context.Context, e *entry, force bool) error {
	c.mu.Lock()
	need := force || e.inflight || e.status == Uninitialized || e.status == Rejected || e.stale
	c.mu.Unlock()

	if !need {
		return nil
	}
	return c.run(ctx, e)
}

// run issues (or joins) the request of e and waits for it to settle or for
// ctx to end. The request itself runs on a context detached from ctx.
func (c *Cache) run(ctx context.Context, e *entry) error {
	detached := context.WithoutCancel(ctx)
	detached = slogx.WithLogger(detached, slogx.FromContext(detached, c.logger))
	detached = slogx.WithAttrs(detached, "endpoint", e.endpoint)

	ch := c.flight.DoChan(e.key, func() (any, error) {
		c.mu.Lock()
		e.seq++
		seq, epoch := e.seq, e.epoch
		e.status = Pending
		e.inflight = true
		c.mu.Unlock()

		c.logger.Debug("query fetch", "endpoint", e.endpoint, "key", e.key)
		c.notify(e)

		data, tags, err := e.fetch(detached)
		c.settle(e, seq, epoch, data, tags, err)
		return nil, err
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Cache) settle(e *entry, seq, epoch int, data any, tags []Tag, err error) {
	c.mu.Lock()
	if seq != e.seq {
		c.mu.Unlock()
		return
	}

	e.inflight = false
	if err != nil {
		e.status = Rejected
		e.err = err
	} else {
		e.status = Fulfilled
		e.data = data
		e.hasData = true
		e.err = nil
		e.tags = tags
		e.fetchedAt = c.now()
	}
	e.stale = epoch != e.epoch
	c.mu.Unlock()

	if err != nil {
		c.logger.Debug("query rejected", "endpoint", e.endpoint, "error", err)
	}
	c.notify(e)
}

func (c *Cache) notify(e *entry) {
	c.mu.Lock()
	fns := make([]func(*entry), 0, len(e.observers))
	for _, fn := range e.observers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}

// Invalidate marks every entry providing one of tags stale. Observed
// entries are refetched in parallel before Invalidate returns; the others
// refetch when next loaded. The returned error is the first refetch
// failure, which is also stored on its entry.
func (c *Cache) Invalidate(ctx context.Context, tags ...Tag) error {
	if len(tags) == 0 {
		return nil
	}

	c.mu.Lock()
	var observed []*entry
	for _, e := range c.entries {
		if !e.providesAny(tags) {
			continue
		}
		e.stale = true
		e.epoch++
		// Requests already in flight predate the write; later loads must
		// not join them.
		c.flight.Forget(e.key)
		if len(e.observers) > 0 {
			observed = append(observed, e)
		}
	}
	c.mu.Unlock()

	if len(observed) == 0 {
		return nil
	}

	c.logger.Debug("cache invalidated", "tags", tags, "refetching", len(observed))

	var g errgroup.Group
	for _, e := range observed {
		g.Go(func() error { return c.run(ctx, e) })
	}
	return g.Wait()
}

func (e *entry) providesAny(tags []Tag) bool {
	for _, t := range tags {
		for _, p := range e.tags {
			if t.Invalidates(p) {
				return true
			}
		}
	}
	return false
}

// Reset drops every cached result. Observed entries stay registered in the
// Uninitialized state; results of requests in flight are discarded.
func (c *Cache) Reset() {
	c.mu.Lock()
	var observed []*entry
	for key, e := range c.entries {
		c.flight.Forget(key)
		if len(e.observers) == 0 {
			delete(c.entries, key)
			continue
		}

		e.seq++
		e.epoch++
		e.status = Uninitialized
		e.data = nil
		e.hasData = false
		e.err = nil
		e.tags = nil
		e.stale = false
		e.inflight = false
		e.fetchedAt = time.Time{}
		observed = append(observed, e)
	}
	c.mu.Unlock()

	c.logger.Debug("cache reset")
	for _, e := range observed {
		c.notify(e)
	}
}

// Collect deletes the entries that have had no observer for at least the
// retention window and returns how many were removed.
func (c *Cache) Collect(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if len(e.observers) > 0 || e.inflight {
			continue
		}
		if now.Sub(e.idleSince) < c.retention {
			continue
		}
		delete(c.entries, key)
		removed++
	}
	return removed
}
