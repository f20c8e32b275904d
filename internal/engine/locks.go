package engine

import "sync"

// keyedMutex serializes operations per request id. Entries are reference
// counted and removed once the last holder releases, so the map does not
// grow with the request table.
type keyedMutex struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{
		entries: make(map[string]*lockEntry),
	}
}

// Lock acquires the mutex for the given key and returns its release func
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	entry, exists := k.entries[key]
	if !exists {
		entry = &lockEntry{}
		k.entries[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.entries, key)
		}
		k.mu.Unlock()
	}
}
