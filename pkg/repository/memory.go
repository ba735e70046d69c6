package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/MuneebDevss/conflict-resolver-agent/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// Memory is an in-process Repository. Data is lost on restart.
type Memory struct {
	mu       sync.RWMutex
	meetings map[model.MeetingID]*model.Meeting
	order    []model.MeetingID
	records  []*model.ConflictRecord
}

// NewMemory creates an empty in-memory repository
func NewMemory() *Memory {
	return &Memory{
		meetings: make(map[model.MeetingID]*model.Meeting),
	}
}

func (r *Memory) PutMeeting(ctx context.Context, meeting *model.Meeting) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.meetings[meeting.ID]; !ok {
		r.order = append(r.order, meeting.ID)
	}
	r.meetings[meeting.ID] = meeting.Copy()
	return nil
}

func (r *Memory) GetMeeting(ctx context.Context, id model.MeetingID) (*model.Meeting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.meetings[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "meeting not found", goerr.V("meeting_id", id))
	}
	return m.Copy(), nil
}

func (r *Memory) FindMeetings(ctx context.Context, filter model.MeetingFilter) ([]*model.Meeting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*model.Meeting
	for _, id := range r.order {
		m := r.meetings[id]
		if filter.Match(m) {
			result = append(result, m.Copy())
		}
	}

	model.SortByStart(result)
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *Memory) UpdateMeeting(ctx context.Context, id model.MeetingID, fn func(*model.Meeting) (*model.Meeting, error)) (*model.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.meetings[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "meeting not found", goerr.V("meeting_id", id))
	}

	updated, err := fn(current.Copy())
	if err != nil {
		return nil, err
	}
	updated.ID = id
	r.meetings[id] = updated.Copy()
	return updated, nil
}

func (r *Memory) DeleteMeeting(ctx context.Context, id model.MeetingID) (*model.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.meetings[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "meeting not found", goerr.V("meeting_id", id))
	}

	delete(r.meetings, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return m, nil
}

func (r *Memory) CountMeetings(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.meetings), nil
}

func (r *Memory) PutConflictRecord(ctx context.Context, record *model.ConflictRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *record
	r.records = append(r.records, &copied)
	return nil
}

func (r *Memory) ListConflictRecords(ctx context.Context, limit int) ([]*model.ConflictRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.ConflictRecord, 0, len(r.records))
	for _, rec := range r.records {
		copied := *rec
		result = append(result, &copied)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *Memory) Ping(ctx context.Context) error {
	return nil
}
