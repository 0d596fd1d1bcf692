// Package notify keeps the transient notifications shown to the user and
// turns backend errors into localized messages.
package notify

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aussiebroadwan/studio/internal/querycache"
	"github.com/aussiebroadwan/studio/pkg/idx"
)

// DefaultTTL is how long a notification stays visible.
const DefaultTTL = 5 * time.Second

type Level int

const (
	Success Level = iota
	Error
	Info
)

func (l Level) String() string {
	switch l {
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Notification is one auto-dismissing banner.
type Notification struct {
	ID        idx.ID
	Level     Level
	Key       string
	Text      string
	CreatedAt time.Time
	ExpiresAt time.Time
}

type Config struct {
	TTL    time.Duration
	Logger *slog.Logger
	Now    func() time.Time
}

// Center holds the active notifications.
type Center struct {
	tr     *Translator
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	items []Notification

	subMu  sync.Mutex
	subs   map[int]func(Notification)
	nextID int
}

func NewCenter(tr *Translator, cfg Config) *Center {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Center{
		tr:     tr,
		ttl:    cfg.TTL,
		logger: cfg.Logger.With("component", "notify"),
		now:    cfg.Now,
		subs:   map[int]func(Notification){},
	}
}

// Publish adds a notification with the text of key.
func (c *Center) Publish(level Level, key string, args ...any) Notification {
	now := c.now()
	n := Notification{
		ID:        idx.NewAt(now),
		Level:     level,
		Key:       key,
		Text:      c.tr.Text(key, args...),
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}

	c.mu.Lock()
	c.items = append(c.items, n)
	c.mu.Unlock()

	c.logger.Debug("notification published", "id", n.ID, "level", level.String(), "key", key)
	c.emit(n)
	return n
}

func (c *Center) Success(key string, args ...any) Notification {
	return c.Publish(Success, key, args...)
}

func (c *Center) Info(key string, args ...any) Notification {
	return c.Publish(Info, key, args...)
}

// Error publishes the translated message of err.
func (c *Center) Error(err error) Notification {
	return c.Publish(Error, c.tr.Key(err))
}

// Notify publishes err unless it is nil or marked expected, such as the
// 401 of the current user query. It reports whether a notification was
// published.
func (c *Center) Notify(err error) (Notification, bool) {
	if err == nil || querycache.IsExpected(err) {
		return Notification{}, false
	}
	return c.Error(err), true
}

// Dismiss removes a notification before it expires.
func (c *Center) Dismiss(id idx.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := slices.IndexFunc(c.items, func(n Notification) bool { return n.ID == id })
	if i < 0 {
		return false
	}
	c.items = slices.Delete(c.items, i, i+1)
	return true
}

// Active drops the expired notifications and returns the rest, oldest
// first.
func (c *Center) Active(now time.Time) []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = slices.DeleteFunc(c.items, func(n Notification) bool { return !now.Before(n.ExpiresAt) })
	out := slices.Clone(c.items)
	// Concurrent publishers may append out of order; ids sort by creation.
	slices.SortStableFunc(out, func(a, b Notification) int { return idx.Compare(a.ID, b.ID) })
	return out
}

// Subscribe registers fn for every published notification.
func (c *Center) Subscribe(fn func(Notification)) (unsubscribe func()) {
	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Center) emit(n Notification) {
	c.subMu.Lock()
	fns := make([]func(Notification), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(n)
	}
}
