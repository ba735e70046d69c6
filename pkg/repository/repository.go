package repository

import (
	"context"

	"github.com/MuneebDevss/conflict-resolver-agent/pkg/model"
)

// Repository defines the interface for meeting and conflict record persistence.
// Implementations return model.ErrNotFound for unknown IDs and model.ErrStoreUnavailable
// when the backend cannot be reached.
type Repository interface {
	// PutMeeting creates or overwrites a meeting
	PutMeeting(ctx context.Context, meeting *model.Meeting) error

	// GetMeeting retrieves a meeting by ID
	GetMeeting(ctx context.Context, id model.MeetingID) (*model.Meeting, error)

	// FindMeetings retrieves meetings matching the filter, sorted by start time ascending
	FindMeetings(ctx context.Context, filter model.MeetingFilter) ([]*model.Meeting, error)

	// UpdateMeeting applies fn to the stored meeting and saves the result atomically
	UpdateMeeting(ctx context.Context, id model.MeetingID, fn func(*model.Meeting) (*model.Meeting, error)) (*model.Meeting, error)

	// DeleteMeeting removes a meeting permanently and returns the removed record
	DeleteMeeting(ctx context.Context, id model.MeetingID) (*model.Meeting, error)

	// CountMeetings returns the number of stored meetings
	CountMeetings(ctx context.Context) (int, error)

	// PutConflictRecord appends a conflict record
	PutConflictRecord(ctx context.Context, record *model.ConflictRecord) error

	// ListConflictRecords retrieves conflict records, newest first
	ListConflictRecords(ctx context.Context, limit int) ([]*model.ConflictRecord, error)

	// Ping checks that the backend is reachable
	Ping(ctx context.Context) error
}
