// Package synclock serializes access to a single (principal, device,
// collection) SyncState across concurrent requests. Every command handler
// that reads-modifies-writes a SyncState must hold this lock for exactly
// that span — never across a blocking Ping wait, which would starve every
// other command on the same collection for the duration of the long poll.
package synclock

import (
	"strconv"
	"sync"
)

// Keyed is a mutex keyed by an arbitrary string, refcounted so idle keys
// are garbage collected instead of accumulating forever.
type Keyed struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mu       sync.Mutex
	refCount int
}

// New returns a ready-to-use Keyed lock.
func New() *Keyed {
	return &Keyed{entries: make(map[string]*entry)}
}

// Key builds the canonical lock key for a (principal, device, collection)
// triple.
func Key(principalID int64, deviceID, collectionID string) string {
	return strconv.FormatInt(principalID, 10) + "/" + deviceID + "/" + collectionID
}

// Lock acquires the lock for key, blocking until it is available. The
// returned func releases it and must be called exactly once, typically via
// defer immediately after a successful Lock.
func (k *Keyed) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refCount++
	k.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			k.mu.Lock()
			e.refCount--
			if e.refCount == 0 {
				delete(k.entries, key)
			}
			k.mu.Unlock()
		})
	}
}
