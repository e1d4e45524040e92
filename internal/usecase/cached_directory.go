package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/moveledger/internal/domain"
	"github.com/iho/moveledger/internal/infrastructure/metrics"
)

// CachedDirectory is a read-through cache in front of a ClientDirectory.
// Only successful resolutions are cached, so an unknown client is always
// looked up again.
type CachedDirectory struct {
	next    ClientDirectory
	cache   Cache
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewCachedDirectory wraps next with cache.
func NewCachedDirectory(next ClientDirectory, cache Cache, ttl time.Duration) *CachedDirectory {
	return &CachedDirectory{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: zerolog.Nop(),
	}
}

// WithMetrics records hits and misses.
func (d *CachedDirectory) WithMetrics(m *metrics.Metrics) *CachedDirectory {
	d.metrics = m
	return d
}

// WithLogger sets the logger used for cache failures.
func (d *CachedDirectory) WithLogger(logger zerolog.Logger) *CachedDirectory {
	d.logger = logger
	return d
}

type cachedClient struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	AccountIDs []string `json:"account_ids"`
}

// ResolveClient returns the cached client or asks the wrapped directory.
// Cache errors degrade to a directory lookup.
func (d *CachedDirectory) ResolveClient(ctx context.Context, clientID string) (*domain.Client, error) {
	key := "client:" + clientID

	if raw, err := d.cache.Get(ctx, key); err == nil {
		var c cachedClient
		if err := json.Unmarshal([]byte(raw), &c); err == nil {
			d.observe("hit")
			return &domain.Client{ID: c.ID, Name: c.Name, AccountIDs: c.AccountIDs}, nil
		}
	}
	d.observe("miss")

	client, err := d.next.ResolveClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(cachedClient{ID: client.ID, Name: client.Name, AccountIDs: client.AccountIDs})
	if err == nil {
		if err := d.cache.Set(ctx, key, string(raw), d.ttl); err != nil {
			d.logger.Warn().Err(err).Str("client_id", clientID).Msg("failed to cache client")
		}
	}

	return client, nil
}

// Invalidate drops a cached client.
func (d *CachedDirectory) Invalidate(ctx context.Context, clientID string) error {
	return d.cache.Delete(ctx, "client:"+clientID)
}

func (d *CachedDirectory) observe(result string) {
	if d.metrics != nil {
		d.metrics.DirectoryCache.WithLabelValues(result).Inc()
	}
}
