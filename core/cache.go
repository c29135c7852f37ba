package core

import (
	"context"
	"time"
)

// Cache stores JSON-serializable values shared between requests.
type Cache interface {
	// Get loads the value stored at key into dest. found is false on a miss.
	Get(ctx context.Context, key string, dest interface{}) (found bool, err error)
	Set(ctx context.Context, key string, val interface{}, ttl time.Duration) error
	// DeletePrefix drops every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}
