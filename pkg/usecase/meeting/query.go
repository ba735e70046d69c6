package meeting

import (
	"context"
	"time"

	"github.com/MuneebDevss/conflict-resolver-agent/pkg/model"
)

func (u *UseCase) Get(ctx context.Context, id model.MeetingID) (*model.Meeting, error) {
	return u.repo.GetMeeting(ctx, id)
}

// List returns meetings sorted by start time. The limit defaults to
// DefaultListLimit and is capped at MaxListLimit.
func (u *UseCase) List(ctx context.Context, filter model.MeetingFilter) ([]*model.Meeting, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	if filter.Limit > MaxListLimit {
		filter.Limit = MaxListLimit
	}
	if filter.Status != "" {
		if err := filter.Status.Validate(); err != nil {
			return nil, err
		}
	}

	meetings, err := u.repo.FindMeetings(ctx, filter)
	if err != nil {
		return nil, err
	}
	if meetings == nil {
		meetings = []*model.Meeting{}
	}
	return meetings, nil
}

func (u *UseCase) Count(ctx context.Context) (int, error) {
	return u.repo.CountMeetings(ctx)
}

// FindConflicts returns scheduled meetings overlapping interval, sorted by start.
func (u *UseCase) FindConflicts(ctx context.Context, interval model.Interval, exclude model.MeetingID) ([]*model.Meeting, error) {
	if err := interval.Validate(); err != nil {
		return nil, err
	}
	conflicts, err := u.detect(ctx, interval, exclude)
	if err != nil {
		return nil, err
	}
	if conflicts == nil {
		conflicts = []*model.Meeting{}
	}
	model.SortByStart(conflicts)
	return conflicts, nil
}

// Availability is the answer to a free/busy query
type Availability struct {
	Start     time.Time        `json:"start"`
	End       time.Time        `json:"end"`
	Available bool             `json:"available"`
	Conflicts []*model.Meeting `json:"conflicts"`
}

// CheckAvailability reports whether [start, end) is free of scheduled meetings
func (u *UseCase) CheckAvailability(ctx context.Context, start, end time.Time, exclude model.MeetingID) (*Availability, error) {
	interval := model.Interval{Start: start.UTC(), End: end.UTC()}
	conflicts, err := u.FindConflicts(ctx, interval, exclude)
	if err != nil {
		return nil, err
	}
	return &Availability{
		Start:     interval.Start,
		End:       interval.End,
		Available: len(conflicts) == 0,
		Conflicts: conflicts,
	}, nil
}

// Ping checks that the meeting store is reachable
func (u *UseCase) Ping(ctx context.Context) error {
	return u.repo.Ping(ctx)
}
