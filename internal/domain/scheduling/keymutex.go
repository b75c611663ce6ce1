package scheduling

import "sync"

// keyLock is a mutex plus the number of goroutines holding or waiting on it.
type keyLock struct {
	mu   sync.Mutex
	refs int
}

// keyMutex serializes work per string key. Booking locks on doctor+date so
// two requests for the same day cannot interleave between the conflict check
// and the insert. Entries are reference counted and removed on final unlock,
// so the map stays bounded by the number of in-flight bookings rather than
// growing one entry per doctor-day ever seen.
type keyMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

func newKeyMutex() *keyMutex {
	return &keyMutex{locks: make(map[string]*keyLock)}
}

func (k *keyMutex) Lock(key string) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()
	l.mu.Lock()
}

func (k *keyMutex) Unlock(key string) {
	k.mu.Lock()
	l := k.locks[key]
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()
	l.mu.Unlock()
}
