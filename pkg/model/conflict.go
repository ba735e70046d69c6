package model

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

type ConflictRecordID string

// NewConflictRecordID generates a new unique ConflictRecordID
func NewConflictRecordID() ConflictRecordID {
	return ConflictRecordID(uuid.New().String())
}

type ConflictIntent string

const (
	ConflictIntentReschedule ConflictIntent = "reschedule"
	ConflictIntentCancel     ConflictIntent = "cancel"
	ConflictIntentDelegate   ConflictIntent = "delegate"
	ConflictIntentNegotiate  ConflictIntent = "negotiate"
	ConflictIntentInform     ConflictIntent = "inform"
	ConflictIntentOther      ConflictIntent = "other"
)

// ConflictIntents lists every accepted intent
var ConflictIntents = []ConflictIntent{
	ConflictIntentReschedule,
	ConflictIntentCancel,
	ConflictIntentDelegate,
	ConflictIntentNegotiate,
	ConflictIntentInform,
	ConflictIntentOther,
}

type ConflictType string

const (
	ConflictTypeTimeOverlap ConflictType = "time_overlap"
	ConflictTypeResource    ConflictType = "resource"
	ConflictTypePriority    ConflictType = "priority"
	ConflictTypeAttendee    ConflictType = "attendee"
	ConflictTypeOther       ConflictType = "other"
)

// ConflictTypes lists every accepted conflict type
var ConflictTypes = []ConflictType{
	ConflictTypeTimeOverlap,
	ConflictTypeResource,
	ConflictTypePriority,
	ConflictTypeAttendee,
	ConflictTypeOther,
}

// ConflictRecord is an append-only log entry of a scheduling scenario and the
// resolution generated for it. It is not linked to any meeting.
type ConflictRecord struct {
	ID           ConflictRecordID `json:"id"`
	Scenario     string           `json:"scenario"`
	Resolution   string           `json:"resolution"`
	Intent       ConflictIntent   `json:"intent"`
	ConflictType ConflictType     `json:"conflictType"`
	CreatedAt    time.Time        `json:"createdAt"`
}

// Validate checks if the record can be stored
func (r *ConflictRecord) Validate() error {
	if r.Scenario == "" {
		return goerr.Wrap(ErrValidation, "scenario is required")
	}
	if r.Resolution == "" {
		return goerr.Wrap(ErrValidation, "resolution is required")
	}
	if !slices.Contains(ConflictIntents, r.Intent) {
		return goerr.Wrap(ErrValidation, "invalid intent", goerr.V("intent", r.Intent))
	}
	if !slices.Contains(ConflictTypes, r.ConflictType) {
		return goerr.Wrap(ErrValidation, "invalid conflict type", goerr.V("type", r.ConflictType))
	}
	return nil
}
