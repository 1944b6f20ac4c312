// Package cache memoizes top-level extractions so repeated renders of the
// same annotated text skip the extractor.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ppiankov/cardmark/internal/model"
)

const keyPrefix = "cardmark:v1:"

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a cache key from the exact input text. The namespace keeps
// entries from different producers apart.
func Key(namespace, text string) string {
	hash := sha256.Sum256([]byte(text))
	return keyPrefix + namespace + ":" + hex.EncodeToString(hash[:])
}

// New builds the cache described by cfg, or nil when caching is disabled
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	memory := NewMemoryCache(cfg.MemoryTTL, cfg.CleanupInterval)
	if !cfg.Disk {
		return memory
	}
	return NewLayeredCache(memory, NewDiskCache(cfg.DiskDir, cfg.DiskTTL))
}
