package model

import (
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"
)

// AuditEvent records one committed meeting mutation.
type AuditEvent struct {
	ID          string      `json:"id" bigquery:"id"`
	Action      AuditAction `json:"action" bigquery:"action"`
	MeetingID   MeetingID   `json:"meetingId" bigquery:"meeting_id"`
	Title       string      `json:"title" bigquery:"title"`
	StartTime   time.Time   `json:"startTime" bigquery:"start_time"`
	EndTime     time.Time   `json:"endTime" bigquery:"end_time"`
	HasConflict bool        `json:"hasConflict" bigquery:"has_conflict"`
	Source      string      `json:"source" bigquery:"source"`
	CreatedAt   time.Time   `json:"createdAt" bigquery:"created_at"`
}

// NewAuditEvent builds an event for a meeting mutation.
func NewAuditEvent(action AuditAction, m *Meeting, source string, now time.Time) *AuditEvent {
	return &AuditEvent{
		ID:          uuid.New().String(),
		Action:      action,
		MeetingID:   m.ID,
		Title:       m.Title,
		StartTime:   m.StartTime,
		EndTime:     m.EndTime,
		HasConflict: m.HasConflict,
		Source:      source,
		CreatedAt:   now,
	}
}
