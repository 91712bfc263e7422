package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// LockFileName is the sentinel file implementing cross-process mutual
// exclusion, written inside the store root.
const LockFileName = ".provider-lock"

// DefaultLockTTL is the staleness threshold after which a lock token is
// presumed abandoned and may be reclaimed by the next acquirer.
const DefaultLockTTL = 2 * time.Minute

// lockFile coordinates mutating operations across concurrently-invoked
// processes sharing one store directory. The lock is advisory: it only
// binds callers that go through the store's own write paths.
type lockFile struct {
	path   string
	ttl    time.Duration
	clock  Clock
	logger Logger
}

// withLock runs fn while holding the lock, releasing it on every exit
// path. operation names the caller for conflict reporting.
func (l *lockFile) withLock(operation string, fn func() error) error {
	if err := l.acquire(operation); err != nil {
		return err
	}
	defer l.release()
	return fn()
}

// acquire writes a lock token, but only if no unexpired token is present.
// A token older than the TTL is treated as abandoned, deleted, and the
// acquisition retried. A fresh token fails immediately with a
// ConflictError carrying the holder and acquisition time.
func (l *lockFile) acquire(operation string) error {
	token := lockToken{
		Operation: operation,
		Owner:     os.Getpid(),
		Created:   l.clock.Now().UTC(),
	}
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encoding lock token: %w", err)
	}

	// One reclaim attempt at most; if a second O_EXCL open still fails,
	// another process won the race and the conflict stands.
	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err == nil {
			_, werr := f.Write(data)
			cerr := f.Close()
			if werr != nil || cerr != nil {
				os.Remove(l.path)
				return &IOError{Path: l.path, Err: errors.Join(werr, cerr)}
			}
			return nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return &IOError{Path: l.path, Err: err}
		}

		existing, rerr := l.readToken()
		if rerr == nil && !existing.stale(l.clock.Now(), l.ttl) {
			return &ConflictError{
				Reason: "another operation holds the store lock",
				HeldBy: existing.Operation,
				Since:  existing.Created,
			}
		}
		// Stale or unreadable token: reclaim and retry.
		if rerr != nil {
			l.logger.Warn("removing unreadable lock token", "path", l.path, "error", rerr)
		} else {
			l.logger.Warn("reclaiming stale lock token",
				"operation", existing.Operation, "age", l.clock.Now().Sub(existing.Created))
		}
		if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return &IOError{Path: l.path, Err: err}
		}
	}

	return &ConflictError{Reason: "another operation holds the store lock"}
}

// release deletes the lock token. Losing a remove race is harmless.
func (l *lockFile) release() {
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		l.logger.Error("releasing store lock", "path", l.path, "error", err)
	}
}

func (l *lockFile) readToken() (*lockToken, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, err
	}
	var token lockToken
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("decoding lock token: %w", err)
	}
	return &token, nil
}
