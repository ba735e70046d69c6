package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// Interval is a half-open time span [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Validate rejects empty and inverted intervals.
func (i Interval) Validate() error {
	if i.Start.IsZero() || i.End.IsZero() {
		return goerr.Wrap(ErrValidation, "start and end time are required")
	}
	if !i.End.After(i.Start) {
		return goerr.Wrap(ErrInvalidInterval, "end time must be after start time",
			goerr.V("start", i.Start),
			goerr.V("end", i.End))
	}
	return nil
}

// Overlaps reports whether two intervals intersect. Touching endpoints do not count.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && i.End.After(other.Start)
}

// DetectInput describes a conflict query against a set of existing meetings.
type DetectInput struct {
	Candidate Interval
	// Exclude skips the meeting being updated so it does not collide with itself.
	Exclude MeetingID
	// ScheduledOnly ignores cancelled and completed meetings.
	ScheduledOnly bool
}

// DetectConflicts returns the meetings overlapping the candidate, in the order given.
func DetectConflicts(input DetectInput, meetings []*Meeting) ([]*Meeting, error) {
	if err := input.Candidate.Validate(); err != nil {
		return nil, err
	}

	var conflicts []*Meeting
	for _, m := range meetings {
		if input.Exclude != "" && m.ID == input.Exclude {
			continue
		}
		if input.ScheduledOnly && m.Status != MeetingStatusScheduled {
			continue
		}
		if input.Candidate.Overlaps(m.Interval()) {
			conflicts = append(conflicts, m)
		}
	}
	return conflicts, nil
}
