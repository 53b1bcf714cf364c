package secretstore

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultCacheTTL matches the refresh interval of the AWS secrets caching
// client.
const DefaultCacheTTL = time.Hour

type cachedSecret struct {
	value     string
	expiresAt time.Time
}

// CachedStore remembers successful lookups of another store for ttl.
// Failed lookups are never cached.
type CachedStore struct {
	secretStore SecretStore
	ttl         time.Duration
	now         func() time.Time

	mu          sync.Mutex
	secretCache map[string]cachedSecret

	logger *logrus.Entry
}

func (c *CachedStore) GetSecret(ctx context.Context, id string) (string, error) {
	c.mu.Lock()
	cached, ok := c.secretCache[id]
	c.mu.Unlock()

	if ok && c.now().Before(cached.expiresAt) {
		return cached.value, nil
	}

	value, err := c.secretStore.GetSecret(ctx, id)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.secretCache[id] = cachedSecret{value: value, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	c.logger.WithField("secretId", id).Debug("Cached secret")

	return value, nil
}

func CreateCachedStore(secretStore SecretStore, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	return &CachedStore{
		secretStore: secretStore,
		ttl:         ttl,
		now:         time.Now,
		secretCache: map[string]cachedSecret{},
		logger:      logrus.WithField("secret-store", "cache"),
	}
}
