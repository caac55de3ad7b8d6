package nscache

import (
	"context"
	"sync"
	"time"

	"github.com/tubesage/tubesage/pkg/domain/interfaces"
	"github.com/tubesage/tubesage/pkg/domain/types"
	"github.com/tubesage/tubesage/pkg/utils/logging"
)

// DefaultTTL is how long a confirmed namespace existence stays fresh before
// it must be reconfirmed against the store.
const DefaultTTL = 24 * time.Hour

// Cache remembers which namespaces are known to hold indexed chunks so
// repeated requests for the same video skip the store lookup. The store stays
// the source of truth; entries expire after the TTL.
type Cache struct {
	repo interfaces.ChunkRepository
	ttl  time.Duration

	mu      sync.Mutex
	entries map[types.Namespace]time.Time

	now func() time.Time
}

var _ interfaces.NamespaceCache = &Cache{}

type Option func(*Cache)

// WithTTL overrides the freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithClock substitutes the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

func New(repo interfaces.ChunkRepository, opts ...Option) *Cache {
	c := &Cache{
		repo:    repo,
		ttl:     DefaultTTL,
		entries: make(map[types.Namespace]time.Time),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Exists reports whether the namespace holds indexed chunks. A fresh cache
// record answers without touching the store; otherwise the store is asked and
// a positive answer refreshes the record. Store failures are swallowed and
// treated as "not indexed" so the caller re-ingests instead of failing.
func (c *Cache) Exists(ctx context.Context, ns types.Namespace) bool {
	c.mu.Lock()
	confirmedAt, cached := c.entries[ns]
	c.mu.Unlock()

	if cached && c.now().Sub(confirmedAt) < c.ttl {
		return true
	}

	count, err := c.repo.Count(ctx, ns)
	if err != nil {
		logging.From(ctx).Warn("namespace existence check failed, treating as not indexed",
			"namespace", ns,
			"error", err.Error(),
		)
		return false
	}
	if count == 0 {
		return false
	}

	c.MarkIngested(ns)
	return true
}

// MarkIngested records a confirmed existence for the namespace as of now.
func (c *Cache) MarkIngested(ns types.Namespace) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[ns] = c.now()
}
