//go:build unix

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestAcquireLock_Exclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.db")

	release, err := acquireLock(context.Background(), path)
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, err := acquireLock(ctx, path); err == nil {
		t.Fatal("second lock succeeded while the first is held")
	}

	if err := release(); err != nil {
		t.Fatalf("release: %v", err)
	}

	release, err = acquireLock(context.Background(), path)
	if err != nil {
		t.Fatalf("lock after release: %v", err)
	}
	release()
}
