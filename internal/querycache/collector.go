package querycache

import (
	"log/slog"
	"time"
)

// Collector periodically removes unobserved entries whose retention window
// has passed.
type Collector struct {
	Caches   []*Cache
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewCollector creates a collector. If interval is 0 or negative, it
// defaults to 30 seconds.
func NewCollector(logger *slog.Logger, interval time.Duration, caches ...*Cache) *Collector {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Collector{
		Caches:   caches,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the collector in the background until Stop is called.
func (c *Collector) Start() {
	go c.run()
	c.Logger.Debug("cache collector started", "interval", c.Interval)
}

// Stop shuts the collector down and waits for a running pass to finish.
func (c *Collector) Stop() {
	close(c.stopCh)
	<-c.doneCh
	c.Logger.Debug("cache collector stopped")
}

func (c *Collector) run() {
	defer close(c.doneCh)

	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			c.CollectAll(now)
		case <-c.stopCh:
			return
		}
	}
}

// CollectAll runs one pass over every cache and returns the number of
// entries removed.
func (c *Collector) CollectAll(now time.Time) int {
	total := 0
	for _, cache := range c.Caches {
		if n := cache.Collect(now); n > 0 {
			c.Logger.Debug("collected cache entries", "cache", cache.Name(), "removed", n)
			total += n
		}
	}
	return total
}
