package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// tickClock is a mutable clock for staleness tests. testutil's stub is
// not usable here without an import cycle.
type tickClock struct {
	now time.Time
}

func (c *tickClock) Now() time.Time          { return c.now }
func (c *tickClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestLock(t *testing.T) (*lockFile, *tickClock) {
	t.Helper()
	clock := &tickClock{now: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)}
	return &lockFile{
		path:   filepath.Join(t.TempDir(), LockFileName),
		ttl:    DefaultLockTTL,
		clock:  clock,
		logger: NewNopLogger(),
	}, clock
}

func TestLockFile_WithLock(t *testing.T) {
	t.Run("runs fn and releases on success", func(t *testing.T) {
		lock, _ := newTestLock(t)

		ran := false
		err := lock.withLock("add", func() error {
			ran = true
			if _, err := os.Stat(lock.path); err != nil {
				t.Errorf("lock file absent while holding lock: %v", err)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("withLock() error = %v", err)
		}
		if !ran {
			t.Error("fn was not called")
		}
		if _, err := os.Stat(lock.path); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("lock file still present after release: %v", err)
		}
	})

	t.Run("releases even when fn fails", func(t *testing.T) {
		lock, _ := newTestLock(t)

		wantErr := errors.New("boom")
		err := lock.withLock("update", func() error { return wantErr })
		if !errors.Is(err, wantErr) {
			t.Fatalf("withLock() error = %v, want %v", err, wantErr)
		}
		if _, err := os.Stat(lock.path); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("lock file still present after failed fn: %v", err)
		}
	})

	t.Run("token records operation and owner", func(t *testing.T) {
		lock, _ := newTestLock(t)

		err := lock.withLock("remove", func() error {
			data, err := os.ReadFile(lock.path)
			if err != nil {
				t.Fatalf("reading token: %v", err)
			}
			var token lockToken
			if err := json.Unmarshal(data, &token); err != nil {
				t.Fatalf("decoding token: %v", err)
			}
			if token.Operation != "remove" {
				t.Errorf("token operation = %q, want %q", token.Operation, "remove")
			}
			if token.Owner != os.Getpid() {
				t.Errorf("token owner = %d, want %d", token.Owner, os.Getpid())
			}
			return nil
		})
		if err != nil {
			t.Fatalf("withLock() error = %v", err)
		}
	})
}

func TestLockFile_Acquire(t *testing.T) {
	t.Run("fresh lock conflicts with holder details", func(t *testing.T) {
		lock, clock := newTestLock(t)

		if err := lock.acquire("add"); err != nil {
			t.Fatalf("first acquire() error = %v", err)
		}
		defer lock.release()

		held := clock.now
		clock.advance(30 * time.Second)

		err := lock.acquire("update")
		if err == nil {
			t.Fatal("second acquire() succeeded, want conflict")
		}
		var conflict *ConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("error type = %T, want *ConflictError", err)
		}
		if conflict.HeldBy != "add" {
			t.Errorf("conflict HeldBy = %q, want %q", conflict.HeldBy, "add")
		}
		if !conflict.Since.Equal(held) {
			t.Errorf("conflict Since = %v, want %v", conflict.Since, held)
		}
	})

	t.Run("stale lock is reclaimed", func(t *testing.T) {
		lock, clock := newTestLock(t)

		if err := lock.acquire("add"); err != nil {
			t.Fatalf("first acquire() error = %v", err)
		}

		clock.advance(DefaultLockTTL + time.Second)

		if err := lock.acquire("update"); err != nil {
			t.Fatalf("acquire() after staleness error = %v", err)
		}
		defer lock.release()

		data, err := os.ReadFile(lock.path)
		if err != nil {
			t.Fatalf("reading token: %v", err)
		}
		var token lockToken
		if err := json.Unmarshal(data, &token); err != nil {
			t.Fatalf("decoding token: %v", err)
		}
		if token.Operation != "update" {
			t.Errorf("token operation = %q, want %q", token.Operation, "update")
		}
	})

	t.Run("lock exactly at TTL is still fresh", func(t *testing.T) {
		lock, clock := newTestLock(t)

		if err := lock.acquire("add"); err != nil {
			t.Fatalf("first acquire() error = %v", err)
		}
		defer lock.release()

		clock.advance(DefaultLockTTL)

		err := lock.acquire("update")
		var conflict *ConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("acquire() at TTL boundary error = %v, want *ConflictError", err)
		}
	})

	t.Run("unreadable token is reclaimed", func(t *testing.T) {
		lock, _ := newTestLock(t)

		if err := os.WriteFile(lock.path, []byte("not json"), 0o600); err != nil {
			t.Fatal(err)
		}

		if err := lock.acquire("add"); err != nil {
			t.Fatalf("acquire() over corrupt token error = %v", err)
		}
		lock.release()
	})
}
