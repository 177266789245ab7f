// Package cache provides a read-side cache for plan and deposit queries.
package cache

import "time"

// Cache stores serialized query responses. Mutating operations invalidate the
// affected keys; a miss simply falls through to the ledger.
type Cache interface {
	Get(key string) (string, bool)
	Set(key string, value string, ttl time.Duration) error
	Delete(key string) error
}
