package meeting

import (
	"context"

	"github.com/MuneebDevss/conflict-resolver-agent/pkg/model"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Update applies a partial change. When start or end time changes, conflicts are
// detected again, excluding the meeting itself, and the conflict state is
// recomputed. Otherwise the stored conflict state is kept as is.
func (u *UseCase) Update(ctx context.Context, id model.MeetingID, patch *model.MeetingPatch) (*model.Meeting, error) {
	if patch == nil || patch.IsEmpty() {
		return nil, goerr.Wrap(model.ErrValidation, "no fields to update", goerr.V("meeting_id", id))
	}
	if patch.StartTime != nil && patch.EndTime != nil {
		if err := (model.Interval{Start: *patch.StartTime, End: *patch.EndTime}).Validate(); err != nil {
			return nil, err
		}
	}
	if patch.Status != nil {
		if err := patch.Status.Validate(); err != nil {
			return nil, err
		}
	}

	u.writeMu.Lock()
	defer u.writeMu.Unlock()

	current, err := u.repo.GetMeeting(ctx, id)
	if err != nil {
		return nil, err
	}

	next := u.applyPatch(patch, current)
	if err := next.Validate(); err != nil {
		return nil, err
	}
	if err := u.checkPolicy(ctx, model.AuditActionUpdate, next); err != nil {
		return nil, err
	}

	var conflicts []*model.Meeting
	if patch.ChangesTime() {
		if conflicts, err = u.detect(ctx, next.Interval(), id); err != nil {
			return nil, err
		}
	}

	updated, err := u.repo.UpdateMeeting(ctx, id, func(stored *model.Meeting) (*model.Meeting, error) {
		m := u.applyPatch(patch, stored)
		if patch.ChangesTime() {
			m.SetConflicts(conflicts)
		}
		return m, nil
	})
	if err != nil {
		return nil, err
	}

	logging.From(ctx).Info("meeting updated",
		"meeting_id", id,
		"time_changed", patch.ChangesTime(),
		"has_conflict", updated.HasConflict)
	u.record(ctx, model.AuditActionUpdate, updated)

	return updated, nil
}

func (u *UseCase) applyPatch(patch *model.MeetingPatch, current *model.Meeting) *model.Meeting {
	m := patch.Apply(current)
	m.Normalize(u.variant)
	m.UpdatedAt = u.now().UTC()
	return m
}
