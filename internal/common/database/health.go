// internal/common/database/health.go
package database

import (
	"context"
	"fmt"
	"time"
)

// Pinger is a backing store the readiness probe can check.
type Pinger interface {
	Name() string
	Ping(ctx context.Context) error
}

// CheckAll pings every store and returns the failures keyed by store name.
func CheckAll(ctx context.Context, timeout time.Duration, stores ...Pinger) map[string]error {
	failures := make(map[string]error)
	for _, s := range stores {
		if s == nil {
			continue
		}
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		if err := s.Ping(pingCtx); err != nil {
			failures[s.Name()] = err
		}
		cancel()
	}
	return failures
}

// Summary renders failures as a single error, nil when all stores are up.
func Summary(failures map[string]error) error {
	if len(failures) == 0 {
		return nil
	}
	return fmt.Errorf("%d store(s) unavailable: %v", len(failures), failures)
}
