package meeting

import (
	"context"

	"github.com/MuneebDevss/conflict-resolver-agent/pkg/model"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/utils/logging"
)

// CreateOptions controls how conflicts are handled on create
type CreateOptions struct {
	// RequireConfirmation stops before writing when the meeting would conflict
	RequireConfirmation bool
	// Force writes the meeting even if RequireConfirmation is set and conflicts exist
	Force bool
}

// CreateResult is either a stored meeting or a pending confirmation
type CreateResult struct {
	Meeting *model.Meeting `json:"meeting,omitempty"`

	RequiresConfirmation bool             `json:"requiresConfirmation"`
	Conflicts            []*model.Meeting `json:"conflicts,omitempty"`
	// Proposed is the meeting that would have been written
	Proposed *model.Meeting `json:"proposed,omitempty"`
}

// Create validates and stores a new meeting. Conflicting meetings are flagged on
// the new record; with RequireConfirmation and no Force nothing is written.
func (u *UseCase) Create(ctx context.Context, input *model.Meeting, opts CreateOptions) (*CreateResult, error) {
	now := u.now().UTC()

	m := input.Copy()
	m.ID = model.NewMeetingID()
	m.HasConflict = false
	m.ConflictDetails = ""
	m.CreatedAt = now
	m.UpdatedAt = now
	m.Normalize(u.variant)

	if err := m.Validate(); err != nil {
		return nil, err
	}
	if err := u.checkPolicy(ctx, model.AuditActionCreate, m); err != nil {
		return nil, err
	}

	u.writeMu.Lock()
	defer u.writeMu.Unlock()

	conflicts, err := u.detect(ctx, m.Interval(), "")
	if err != nil {
		return nil, err
	}

	if len(conflicts) > 0 && opts.RequireConfirmation && !opts.Force {
		proposed := m.Copy()
		proposed.ID = ""
		proposed.SetConflicts(conflicts)
		logging.From(ctx).Info("meeting create awaits confirmation",
			"title", m.Title,
			"conflicts", len(conflicts))
		return &CreateResult{
			RequiresConfirmation: true,
			Conflicts:            conflicts,
			Proposed:             proposed,
		}, nil
	}

	m.SetConflicts(conflicts)
	if err := u.repo.PutMeeting(ctx, m); err != nil {
		return nil, err
	}

	logging.From(ctx).Info("meeting created",
		"meeting_id", m.ID,
		"has_conflict", m.HasConflict)
	u.record(ctx, model.AuditActionCreate, m)

	return &CreateResult{Meeting: m, Conflicts: conflicts}, nil
}
