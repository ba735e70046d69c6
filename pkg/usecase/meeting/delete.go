package meeting

import (
	"context"

	"github.com/MuneebDevss/conflict-resolver-agent/pkg/model"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/utils/logging"
)

// Delete removes a meeting permanently. Flags on other meetings are not revisited.
func (u *UseCase) Delete(ctx context.Context, id model.MeetingID) (*model.Meeting, error) {
	deleted, err := u.repo.DeleteMeeting(ctx, id)
	if err != nil {
		return nil, err
	}

	logging.From(ctx).Info("meeting deleted", "meeting_id", id)
	u.record(ctx, model.AuditActionDelete, deleted)
	return deleted, nil
}
