package jwks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/castingagency/gatekeeper/pkg/observability"
)

var (
	// ErrMissingKeyID is returned when a token header carries no key id
	ErrMissingKeyID = errors.New("token header has no key id")
	// ErrKeyNotFound is returned when no published key matches the key id
	ErrKeyNotFound = errors.New("no signing key matches the key id")
	// ErrUnavailable wraps failures to load the key set from the provider
	ErrUnavailable = errors.New("key set unavailable")
)

const (
	sourceProvider = "provider"
	sourceShared   = "shared"
)

// Config holds key cache settings
type Config struct {
	// TTL bounds how long a fetched key is trusted without a refetch
	TTL time.Duration
	// MinRefreshInterval is the minimum time between provider fetches
	// triggered by unknown key ids
	MinRefreshInterval time.Duration
	// FetchTimeout bounds a single key set load
	FetchTimeout time.Duration
	// MaxKeys caps the number of cached keys
	MaxKeys int
}

// DefaultConfig returns the default cache configuration
func DefaultConfig() *Config {
	return &Config{
		TTL:                time.Hour,
		MinRefreshInterval: 10 * time.Second,
		FetchTimeout:       5 * time.Second,
		MaxKeys:            64,
	}
}

// Cache resolves key ids to signing keys, fetching the provider's key set
// on a miss. Concurrent misses for the same key id share one fetch.
type Cache struct {
	config  *Config
	fetcher Fetcher
	store   DocumentStore
	keys    *lru.LRU[string, cachedKey]
	group   singleflight.Group
	metrics *observability.Metrics
	logger  logrus.FieldLogger
	now     func() time.Time

	// mu serializes installs; lookups go straight to the LRU
	mu          sync.Mutex
	lastRefresh time.Time
	lastAttempt time.Time
	lastErr     error
}

// cachedKey carries its own deadline so keys taken from the shared tier
// expire with the shared document rather than a full TTL later
type cachedKey struct {
	key     SigningKey
	expires time.Time
}

// Option configures a Cache
type Option func(*Cache)

// WithStore adds a shared document tier consulted before the provider
func WithStore(store DocumentStore) Option {
	return func(c *Cache) {
		c.store = store
	}
}

// WithMetrics records cache and fetch metrics
func WithMetrics(metrics *observability.Metrics) Option {
	return func(c *Cache) {
		c.metrics = metrics
	}
}

// WithLogger sets the logger
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the clock used for refresh throttling and key expiry
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCache creates a key cache backed by fetcher
func NewCache(fetcher Fetcher, config *Config, opts ...Option) *Cache {
	if config == nil {
		config = DefaultConfig()
	}
	maxKeys := config.MaxKeys
	if maxKeys <= 0 {
		maxKeys = DefaultConfig().MaxKeys
	}

	c := &Cache{
		config:  config,
		fetcher: fetcher,
		keys:    lru.NewLRU[string, cachedKey](maxKeys, nil, config.TTL),
		logger:  logrus.StandardLogger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key returns the signing key for kid. A miss triggers at most one key set
// load for this call; an unknown kid is never retried beyond that.
func (c *Cache) Key(ctx context.Context, kid string) (SigningKey, error) {
	if kid == "" {
		return SigningKey{}, ErrMissingKeyID
	}

	if key, ok := c.lookup(kid); ok {
		c.metrics.RecordCacheLookup(true)
		return key, nil
	}
	c.metrics.RecordCacheLookup(false)

	if !c.refreshDue() {
		// A refresh may have landed since the lookup above
		if key, ok := c.lookup(kid); ok {
			return key, nil
		}
		return SigningKey{}, ErrKeyNotFound
	}

	_, err, _ := c.group.Do(kid, func() (interface{}, error) {
		if _, ok := c.lookup(kid); ok {
			return nil, nil
		}
		return nil, c.refresh(ctx, kid)
	})
	if err != nil {
		return SigningKey{}, err
	}

	if key, ok := c.lookup(kid); ok {
		return key, nil
	}
	return SigningKey{}, ErrKeyNotFound
}

// Warm loads the key set regardless of throttling
func (c *Cache) Warm(ctx context.Context) error {
	_, err, _ := c.group.Do("", func() (interface{}, error) {
		return nil, c.refresh(ctx, "")
	})
	return err
}

// Refresh loads the key set at most once per MinRefreshInterval. Failed
// loads count, so a down provider is not hammered by repeated callers;
// within the interval the last load's error is returned instead.
func (c *Cache) Refresh(ctx context.Context) error {
	c.mu.Lock()
	due := c.lastAttempt.IsZero() || c.now().Sub(c.lastAttempt) >= c.config.MinRefreshInterval
	lastErr := c.lastErr
	c.mu.Unlock()

	if !due {
		return lastErr
	}
	return c.Warm(ctx)
}

// Len returns the number of cached keys
func (c *Cache) Len() int {
	return c.keys.Len()
}

func (c *Cache) lookup(kid string) (SigningKey, bool) {
	entry, ok := c.keys.Get(kid)
	if !ok || !c.now().Before(entry.expires) {
		return SigningKey{}, false
	}
	return entry.key, true
}

func (c *Cache) refreshDue() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastRefresh.IsZero() {
		return true
	}
	return c.now().Sub(c.lastRefresh) >= c.config.MinRefreshInterval
}

// refresh loads the key set once. The load is detached from the caller's
// cancellation because other lookups may be waiting on it.
func (c *Cache) refresh(ctx context.Context, kid string) (err error) {
	defer func() {
		c.mu.Lock()
		c.lastAttempt, c.lastErr = c.now(), err
		c.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.config.FetchTimeout)
	defer cancel()

	if c.store != nil && c.loadShared(ctx, kid) {
		return nil
	}

	start := time.Now()
	raw, err := c.fetcher.Fetch(ctx)
	var keys []SigningKey
	if err == nil {
		keys, err = ParseKeySet(raw)
	}
	c.metrics.RecordFetch(sourceProvider, err, time.Since(start))
	if err != nil {
		c.logger.WithError(err).Warn("failed to fetch signing keys")
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	c.install(keys, c.config.TTL)
	c.logger.WithFields(logrus.Fields{
		"keys":   len(keys),
		"source": sourceProvider,
	}).Debug("signing keys refreshed")

	if c.store != nil {
		if err := c.store.Store(ctx, raw); err != nil {
			c.logger.WithError(err).Warn("failed to share signing keys")
		}
	}
	return nil
}

// loadShared installs the shared document if it can answer the lookup.
// A document without the requested kid is ignored so a rotated key still
// reaches the provider. Shared keys are trusted only for the document's
// remaining lifetime.
func (c *Cache) loadShared(ctx context.Context, kid string) bool {
	start := time.Now()
	raw, remaining, err := c.store.Load(ctx)
	if err != nil {
		c.metrics.RecordFetch(sourceShared, err, time.Since(start))
		c.logger.WithError(err).Warn("failed to load shared signing keys")
		return false
	}
	if raw == nil || remaining <= 0 {
		return false
	}

	keys, err := ParseKeySet(raw)
	c.metrics.RecordFetch(sourceShared, err, time.Since(start))
	if err != nil {
		c.logger.WithError(err).Warn("discarding malformed shared signing keys")
		return false
	}
	if kid != "" && !containsKey(keys, kid) {
		return false
	}

	if remaining > c.config.TTL {
		remaining = c.config.TTL
	}
	c.install(keys, remaining)
	return true
}

// install swaps in a new key set. New keys are added before stale ones are
// removed so concurrent lookups never observe an empty cache.
func (c *Cache) install(keys []SigningKey, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.now().Add(ttl)
	fresh := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		c.keys.Add(key.KeyID, cachedKey{key: key, expires: expires})
		fresh[key.KeyID] = struct{}{}
	}
	for _, kid := range c.keys.Keys() {
		if _, ok := fresh[kid]; !ok {
			c.keys.Remove(kid)
		}
	}

	c.lastRefresh = c.now()
	c.metrics.SetCachedKeys(c.keys.Len())
}

func containsKey(keys []SigningKey, kid string) bool {
	for _, key := range keys {
		if key.KeyID == kid {
			return true
		}
	}
	return false
}
