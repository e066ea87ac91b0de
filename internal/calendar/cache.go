package calendar

import (
	"context"
	"sync"
	"time"

	"github.com/vita-ai/vita/internal/metrics"
)

// UpcomingSource is the single operation the TTL cache decorates.
// *Service and *CachedUpcoming both satisfy it, so the cache composes
// over any implementation.
type UpcomingSource interface {
	NowAndUpcoming(ctx context.Context, limitUpcoming int) (NowAndUpcoming, error)
}

// DefaultCacheTTL matches the original adapter revision's five-minute
// window.
const DefaultCacheTTL = 5 * time.Minute

// CachedUpcoming is a single-slot TTL cache over NowAndUpcoming. A
// result is served from the slot while now - capturedAt < ttl and the
// requested limit matches; otherwise it is recomputed and the slot
// overwritten. There is no eviction beyond expiry and no invalidation
// hook. Safe for concurrent use.
type CachedUpcoming struct {
	source UpcomingSource
	ttl    time.Duration
	now    func() time.Time

	mu         sync.Mutex
	cached     NowAndUpcoming
	cachedAt   time.Time
	cachedFor  int
	haveCached bool
}

// NewCachedUpcoming wraps source with a TTL cache. A non-positive ttl
// falls back to DefaultCacheTTL.
func NewCachedUpcoming(source UpcomingSource, ttl time.Duration) *CachedUpcoming {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedUpcoming{
		source: source,
		ttl:    ttl,
		now:    time.Now,
	}
}

// NowAndUpcoming serves from the slot when fresh, otherwise recomputes.
// Errors are never cached.
func (c *CachedUpcoming) NowAndUpcoming(ctx context.Context, limitUpcoming int) (NowAndUpcoming, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.haveCached && c.cachedFor == limitUpcoming && now.Sub(c.cachedAt) < c.ttl {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return c.cached, nil
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	data, err := c.source.NowAndUpcoming(ctx, limitUpcoming)
	if err != nil {
		return NowAndUpcoming{}, err
	}

	c.cached = data
	c.cachedAt = now
	c.cachedFor = limitUpcoming
	c.haveCached = true
	return data, nil
}
