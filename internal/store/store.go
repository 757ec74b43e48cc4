package store

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/i474232898/energy-data-aggregation/internal/ledger"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Open builds the ledger store selected by backend.
func Open(backend, redisURL string, log *zap.Logger) (ledger.Store, error) {
	switch backend {
	case BackendMemory:
		log.Info("using in-memory ledger store")
		return NewMemoryStore(), nil
	case BackendRedis:
		return NewRedisStore(redisURL, log)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
