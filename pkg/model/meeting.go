package model

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

type MeetingID string

// NewMeetingID generates a new unique MeetingID
func NewMeetingID() MeetingID {
	return MeetingID(uuid.New().String())
}

type MeetingStatus string

const (
	MeetingStatusScheduled MeetingStatus = "scheduled"
	MeetingStatusCancelled MeetingStatus = "cancelled"
	MeetingStatusCompleted MeetingStatus = "completed"
)

// Validate checks if the status is valid
func (s MeetingStatus) Validate() error {
	switch s {
	case MeetingStatusScheduled, MeetingStatusCancelled, MeetingStatusCompleted:
		return nil
	default:
		return goerr.Wrap(ErrValidation, "invalid meeting status", goerr.V("status", s))
	}
}

// SchemaVariant selects which optional meeting fields are accepted.
type SchemaVariant string

const (
	// SchemaFull accepts organizer, attendees and location.
	SchemaFull SchemaVariant = "full"
	// SchemaMinimal keeps only title, description, times and status.
	SchemaMinimal SchemaVariant = "minimal"
)

// Validate checks if the schema variant is known
func (v SchemaVariant) Validate() error {
	switch v {
	case SchemaFull, SchemaMinimal:
		return nil
	default:
		return goerr.New("invalid schema variant", goerr.V("variant", v))
	}
}

type Meeting struct {
	ID          MeetingID     `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	StartTime   time.Time     `json:"startTime"`
	EndTime     time.Time     `json:"endTime"`
	Organizer   string        `json:"organizer,omitempty"`
	Attendees   []string      `json:"attendees"`
	Location    string        `json:"location,omitempty"`
	Status      MeetingStatus `json:"status"`

	// HasConflict is computed when the meeting is written and never re-checked afterwards.
	HasConflict     bool   `json:"hasConflict"`
	ConflictDetails string `json:"conflictDetails,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Interval returns the [start, end) span of the meeting.
func (m *Meeting) Interval() Interval {
	return Interval{Start: m.StartTime, End: m.EndTime}
}

// Validate checks the fields required before any write.
func (m *Meeting) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return goerr.Wrap(ErrValidation, "title is required")
	}
	if err := m.Interval().Validate(); err != nil {
		return err
	}
	if err := m.Status.Validate(); err != nil {
		return err
	}
	for _, a := range m.Attendees {
		if strings.TrimSpace(a) == "" {
			return goerr.Wrap(ErrValidation, "attendee is empty")
		}
	}
	return nil
}

// Normalize converts times to UTC, fills defaults and strips fields the variant
// does not carry.
func (m *Meeting) Normalize(variant SchemaVariant) {
	m.StartTime = m.StartTime.UTC()
	m.EndTime = m.EndTime.UTC()
	if m.Status == "" {
		m.Status = MeetingStatusScheduled
	}
	if m.Attendees == nil {
		m.Attendees = []string{}
	}
	if variant == SchemaMinimal {
		m.Organizer = ""
		m.Location = ""
		m.Attendees = []string{}
	}
}

// SetConflicts records the conflict state computed at write time.
func (m *Meeting) SetConflicts(conflicts []*Meeting) {
	m.HasConflict = len(conflicts) > 0
	m.ConflictDetails = ConflictDetails(conflicts)
}

// Copy returns a deep copy of the meeting.
func (m *Meeting) Copy() *Meeting {
	c := *m
	c.Attendees = append([]string{}, m.Attendees...)
	return &c
}

// MeetingPatch holds a partial update. Nil fields are left untouched.
type MeetingPatch struct {
	Title       *string        `json:"title,omitempty"`
	Description *string        `json:"description,omitempty"`
	StartTime   *time.Time     `json:"startTime,omitempty"`
	EndTime     *time.Time     `json:"endTime,omitempty"`
	Organizer   *string        `json:"organizer,omitempty"`
	Attendees   []string       `json:"attendees,omitempty"`
	Location    *string        `json:"location,omitempty"`
	Status      *MeetingStatus `json:"status,omitempty"`
}

// ChangesTime reports whether the patch touches start or end time.
func (p *MeetingPatch) ChangesTime() bool {
	return p.StartTime != nil || p.EndTime != nil
}

// IsEmpty reports whether the patch changes nothing.
func (p *MeetingPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && !p.ChangesTime() &&
		p.Organizer == nil && p.Attendees == nil && p.Location == nil && p.Status == nil
}

// Apply writes the patch onto a copy of m and returns it.
func (p *MeetingPatch) Apply(m *Meeting) *Meeting {
	updated := m.Copy()
	if p.Title != nil {
		updated.Title = *p.Title
	}
	if p.Description != nil {
		updated.Description = *p.Description
	}
	if p.StartTime != nil {
		updated.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		updated.EndTime = *p.EndTime
	}
	if p.Organizer != nil {
		updated.Organizer = *p.Organizer
	}
	if p.Attendees != nil {
		updated.Attendees = append([]string{}, p.Attendees...)
	}
	if p.Location != nil {
		updated.Location = *p.Location
	}
	if p.Status != nil {
		updated.Status = *p.Status
	}
	return updated
}

// MeetingFilter narrows a meeting query. Results are sorted by start time ascending.
type MeetingFilter struct {
	Organizer string
	Status    MeetingStatus
	// StartFrom and StartTo bound StartTime inclusively. Zero means unbounded.
	StartFrom time.Time
	StartTo   time.Time
	Limit     int
}

// Match reports whether m satisfies the filter, ignoring Limit.
func (f *MeetingFilter) Match(m *Meeting) bool {
	if f.Organizer != "" && m.Organizer != f.Organizer {
		return false
	}
	if f.Status != "" && m.Status != f.Status {
		return false
	}
	if !f.StartFrom.IsZero() && m.StartTime.Before(f.StartFrom) {
		return false
	}
	if !f.StartTo.IsZero() && m.StartTime.After(f.StartTo) {
		return false
	}
	return true
}

// SortByStart sorts meetings by start time, then id, in place.
func SortByStart(meetings []*Meeting) {
	sort.SliceStable(meetings, func(i, j int) bool {
		if meetings[i].StartTime.Equal(meetings[j].StartTime) {
			return meetings[i].ID < meetings[j].ID
		}
		return meetings[i].StartTime.Before(meetings[j].StartTime)
	})
}

// ConflictDetails renders a human readable summary of conflicting meetings.
// It returns an empty string when there are none.
func ConflictDetails(conflicts []*Meeting) string {
	if len(conflicts) == 0 {
		return ""
	}
	sorted := append([]*Meeting{}, conflicts...)
	SortByStart(sorted)

	parts := make([]string, 0, len(sorted))
	for _, c := range sorted {
		parts = append(parts, fmt.Sprintf("%q (%s - %s)",
			c.Title,
			c.StartTime.UTC().Format(time.RFC3339),
			c.EndTime.UTC().Format(time.RFC3339)))
	}
	return fmt.Sprintf("Conflicts with %d meeting(s): %s", len(sorted), strings.Join(parts, ", "))
}
