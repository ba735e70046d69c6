// Package session keeps the bounded conversation history of the agent, keyed by
// a caller supplied session id.
package session

import (
	"context"
	"sync"

	"github.com/MuneebDevss/conflict-resolver-agent/pkg/model"
)

// Store holds conversation sessions. Append is atomic per session id and keeps at
// most model.MaxSessionEntries contents.
type Store interface {
	// Get returns the session. Unknown ids yield an empty session.
	Get(ctx context.Context, id model.SessionID) (*model.Session, error)
	// Append records a turn and returns the truncated session.
	Append(ctx context.Context, id model.SessionID, turn *model.Turn) (*model.Session, error)
	// Clear drops the history of one session only.
	Clear(ctx context.Context, id model.SessionID) error
}

// keyLock serializes work per session id. An entry lives only while some caller
// holds or waits for it.
type keyLock struct {
	mu    sync.Mutex
	locks map[model.SessionID]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyLock) lock(id model.SessionID) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[model.SessionID]*refMutex)
	}
	l, ok := k.locks[id]
	if !ok {
		l = &refMutex{}
		k.locks[id] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}

// size reports how many ids currently have a lock entry
func (k *keyLock) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
