package homeassistant

import (
	"context"
	"time"

	"github.com/adconfigurator/api/pkg/cache"
)

// API is the part of the client the HTTP handlers depend on
type API interface {
	ListEntities(ctx context.Context, domains []string) ([]Entity, error)
	ListNotificationServices(ctx context.Context) ([]NotifyService, error)
}

// Factory builds a client for the settings of one request
type Factory interface {
	New(baseURL, token string) API
}

// CachingFactory hands out clients that share one response cache
type CachingFactory struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewFactory creates a factory; a nil store disables caching
func NewFactory(store cache.Cache, ttl time.Duration) *CachingFactory {
	return &CachingFactory{cache: store, ttl: ttl}
}

// New returns a client for baseURL and token
func (f *CachingFactory) New(baseURL, token string) API {
	if f.cache == nil {
		return NewClient(baseURL, token)
	}
	return NewClient(baseURL, token, WithCache(f.cache, f.ttl))
}
