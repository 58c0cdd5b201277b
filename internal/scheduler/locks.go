package scheduler

import (
	"sync"

	"github.com/google/uuid"
)

// userLocks hands out one mutex per owner and forgets it once nobody holds
// or waits for it.
type userLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[uuid.UUID]*userLock)}
}

// Lock blocks until the owner's mutex is held and returns its release func.
func (l *userLocks) Lock(ownerID uuid.UUID) func() {
	l.mu.Lock()
	ul, ok := l.locks[ownerID]
	if !ok {
		ul = &userLock{}
		l.locks[ownerID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.mu.Lock()
	return func() {
		ul.mu.Unlock()

		l.mu.Lock()
		ul.refs--
		if ul.refs == 0 {
			delete(l.locks, ownerID)
		}
		l.mu.Unlock()
	}
}

func (l *userLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
