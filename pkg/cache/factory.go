package cache

import (
	"time"

	"go.uber.org/zap"

	"github.com/adconfigurator/api/pkg/logging"
)

// NewHomeAssistantCache creates the cache used for Home Assistant lookups.
// It returns nil when ttl is not positive, which turns caching off.
func NewHomeAssistantCache(ttl time.Duration) Cache {
	if ttl <= 0 {
		logging.Logger.Info("Home Assistant response cache disabled")
		return nil
	}

	interval := ttl * 5
	if interval < time.Minute {
		interval = time.Minute
	}
	logging.Logger.Info("Initialized in-memory Home Assistant cache",
		zap.Duration("ttl", ttl))
	return NewMemoryCache(interval)
}
