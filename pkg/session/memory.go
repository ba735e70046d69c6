package session

import (
	"context"
	"sync"
	"time"

	"github.com/MuneebDevss/conflict-resolver-agent/pkg/model"
	"google.golang.org/genai"
)

// Memory is a process local Store
type Memory struct {
	keys     keyLock
	mu       sync.RWMutex
	sessions map[model.SessionID]*model.Session
	now      func() time.Time
}

// NewMemory creates an empty in-memory session store
func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[model.SessionID]*model.Session),
		now:      time.Now,
	}
}

func (m *Memory) Get(ctx context.Context, id model.SessionID) (*model.Session, error) {
	return m.load(id), nil
}

// load returns a copy of the session, or an empty one for unknown ids
func (m *Memory) load(id model.SessionID) *model.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return &model.Session{ID: id}
	}
	return copySession(s)
}

func (m *Memory) Append(ctx context.Context, id model.SessionID, turn *model.Turn) (*model.Session, error) {
	unlock := m.keys.lock(id)
	defer unlock()

	current := m.load(id)
	current.Contents = append(current.Contents, turn.Contents()...)
	current.Truncate()
	current.UpdatedAt = m.now()

	m.mu.Lock()
	m.sessions[id] = current
	m.mu.Unlock()

	return copySession(current), nil
}

func (m *Memory) Clear(ctx context.Context, id model.SessionID) error {
	unlock := m.keys.lock(id)
	defer unlock()

	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

func copySession(s *model.Session) *model.Session {
	c := *s
	c.Contents = append([]*genai.Content{}, s.Contents...)
	return &c
}
