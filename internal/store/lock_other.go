//go:build !unix

package store

import (
	"context"
	"sync"
)

var saveMu sync.Mutex

// acquireLock serializes saves within the process. Platforms without
// flock(2) get no cross-process exclusion.
func acquireLock(ctx context.Context, path string) (func() error, error) {
	saveMu.Lock()
	return func() error {
		saveMu.Unlock()
		return nil
	}, nil
}
