package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/url"
	"time"

	"github.com/MuneebDevss/conflict-resolver-agent/pkg/adapter"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// Storage keeps one JSON document per session in object storage so that several
// server instances share history. Appends are serialized within this process only.
type Storage struct {
	storage adapter.Storage
	prefix  string
	keys    keyLock
	now     func() time.Time
}

// NewStorage creates a store writing objects under prefix
func NewStorage(storage adapter.Storage, prefix string) *Storage {
	return &Storage{
		storage: storage,
		prefix:  prefix,
		now:     time.Now,
	}
}

func (s *Storage) key(id model.SessionID) string {
	return s.prefix + "sessions/" + url.PathEscape(string(id)) + ".json"
}

func (s *Storage) Get(ctx context.Context, id model.SessionID) (*model.Session, error) {
	reader, err := s.storage.Get(ctx, s.key(id))
	if errors.Is(err, adapter.ErrObjectNotFound) {
		return &model.Session{ID: id}, nil
	}
	if err != nil {
		return nil, goerr.Wrap(model.ErrStoreUnavailable, "failed to get session from storage",
			goerr.V("session_id", id),
			goerr.V("cause", err.Error()))
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, goerr.Wrap(model.ErrStoreUnavailable, "failed to read session data",
			goerr.V("session_id", id),
			goerr.V("cause", err.Error()))
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal session", goerr.V("session_id", id))
	}
	session.ID = id
	return &session, nil
}

func (s *Storage) Append(ctx context.Context, id model.SessionID, turn *model.Turn) (*model.Session, error) {
	unlock := s.keys.lock(id)
	defer unlock()

	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	session.Contents = append(session.Contents, turn.Contents()...)
	session.Truncate()
	session.UpdatedAt = s.now()

	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Storage) save(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal session", goerr.V("session_id", session.ID))
	}

	writer, err := s.storage.Put(ctx, s.key(session.ID))
	if err != nil {
		return goerr.Wrap(model.ErrStoreUnavailable, "failed to create storage writer",
			goerr.V("session_id", session.ID),
			goerr.V("cause", err.Error()))
	}

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return goerr.Wrap(model.ErrStoreUnavailable, "failed to write session to storage",
			goerr.V("session_id", session.ID),
			goerr.V("cause", err.Error()))
	}

	if err := writer.Close(); err != nil {
		return goerr.Wrap(model.ErrStoreUnavailable, "failed to close storage writer",
			goerr.V("session_id", session.ID),
			goerr.V("cause", err.Error()))
	}
	return nil
}

func (s *Storage) Clear(ctx context.Context, id model.SessionID) error {
	unlock := s.keys.lock(id)
	defer unlock()

	if err := s.storage.Delete(ctx, s.key(id)); err != nil {
		return goerr.Wrap(model.ErrStoreUnavailable, "failed to delete session",
			goerr.V("session_id", id),
			goerr.V("cause", err.Error()))
	}
	return nil
}
