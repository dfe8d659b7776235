// Package lock provides per-room mutual exclusion for booking creation,
// in process or across instances through Redis.
package lock

import (
	"context"
	"sync"
)

// Local is an in-process keyed mutex.  Entries are dropped once no
// goroutine holds or waits for them.
type Local struct {
	mu    sync.Mutex
	rooms map[uint64]*entry
}

type entry struct {
	ch   chan struct{} // buffered(1); holding the token means holding the lock
	refs int
}

// NewLocal returns an empty Local locker.
func NewLocal() *Local {
	return &Local{rooms: map[uint64]*entry{}}
}

// Lock blocks until the room is free or ctx is done.
func (l *Local) Lock(ctx context.Context, roomID uint64) (func(), error) {
	l.mu.Lock()
	e, ok := l.rooms[roomID]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.rooms[roomID] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(roomID, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(roomID, e)
		})
	}, nil
}

func (l *Local) release(roomID uint64, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.rooms, roomID)
	}
}

// held reports the number of rooms with a holder or waiter.
func (l *Local) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rooms)
}
