package interfaces

import (
	"context"

	"github.com/MuneebDevss/conflict-resolver-agent/pkg/model"
)

// Auditor receives every committed meeting mutation
type Auditor interface {
	Record(ctx context.Context, event *model.AuditEvent) error
}

// Policy evaluates extra scheduling rules before a meeting is written
type Policy interface {
	// Check returns model.ErrValidation when the meeting is denied
	Check(ctx context.Context, action model.AuditAction, meeting *model.Meeting) error
}

// Metrics counts meeting operations
type Metrics interface {
	MeetingMutated(action model.AuditAction, conflicted bool)
	ConflictDetected(count int)
}
