package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/MuneebDevss/conflict-resolver-agent/pkg/model"
	"github.com/m-mizutani/gt"
	"google.golang.org/genai"
)

func TestMeetingValidate(t *testing.T) {
	valid := func() *model.Meeting {
		return &model.Meeting{
			Title:     "Planning",
			StartTime: at(9, 0),
			EndTime:   at(10, 0),
			Status:    model.MeetingStatusScheduled,
		}
	}

	gt.NoError(t, valid().Validate())

	m := valid()
	m.Title = "  "
	gt.True(t, errors.Is(m.Validate(), model.ErrValidation))

	m = valid()
	m.EndTime = m.StartTime
	gt.True(t, errors.Is(m.Validate(), model.ErrInvalidInterval))

	m = valid()
	m.Status = "postponed"
	gt.True(t, errors.Is(m.Validate(), model.ErrValidation))

	m = valid()
	m.Attendees = []string{"alice", ""}
	gt.True(t, errors.Is(m.Validate(), model.ErrValidation))
}

func TestMeetingNormalize(t *testing.T) {
	jst := time.FixedZone("JST", 9*60*60)
	m := &model.Meeting{
		Title:     "Sync",
		StartTime: time.Date(2025, 3, 10, 18, 0, 0, 0, jst),
		EndTime:   time.Date(2025, 3, 10, 19, 0, 0, 0, jst),
		Organizer: "bob",
		Location:  "Room 1",
		Attendees: []string{"alice"},
	}

	full := m.Copy()
	full.Normalize(model.SchemaFull)
	gt.True(t, full.StartTime.Equal(at(9, 0)))
	gt.Equal(t, full.Status, model.MeetingStatusScheduled)
	gt.Equal(t, full.Organizer, "bob")
	gt.A(t, full.Attendees).Length(1)

	minimal := m.Copy()
	minimal.Normalize(model.SchemaMinimal)
	gt.Equal(t, minimal.Organizer, "")
	gt.Equal(t, minimal.Location, "")
	gt.A(t, minimal.Attendees).Length(0)
}

func TestMeetingPatch(t *testing.T) {
	original := &model.Meeting{
		ID:        "m1",
		Title:     "Planning",
		StartTime: at(9, 0),
		EndTime:   at(10, 0),
		Attendees: []string{"alice"},
		Status:    model.MeetingStatusScheduled,
	}

	title := "Replanning"
	patch := &model.MeetingPatch{Title: &title}
	gt.False(t, patch.ChangesTime())
	gt.False(t, patch.IsEmpty())

	updated := patch.Apply(original)
	gt.Equal(t, updated.Title, "Replanning")
	gt.Equal(t, original.Title, "Planning")

	start := at(11, 0)
	patch = &model.MeetingPatch{StartTime: &start}
	gt.True(t, patch.ChangesTime())
	updated = patch.Apply(original)
	gt.True(t, updated.StartTime.Equal(start))
	gt.True(t, updated.EndTime.Equal(original.EndTime))

	gt.True(t, (&model.MeetingPatch{}).IsEmpty())
}

func TestMeetingFilterMatch(t *testing.T) {
	m := &model.Meeting{Organizer: "bob", Status: model.MeetingStatusScheduled, StartTime: at(9, 0)}

	gt.True(t, (&model.MeetingFilter{}).Match(m))
	gt.True(t, (&model.MeetingFilter{Organizer: "bob"}).Match(m))
	gt.False(t, (&model.MeetingFilter{Organizer: "alice"}).Match(m))
	gt.False(t, (&model.MeetingFilter{Status: model.MeetingStatusCancelled}).Match(m))
	gt.True(t, (&model.MeetingFilter{StartFrom: at(9, 0), StartTo: at(9, 0)}).Match(m))
	gt.False(t, (&model.MeetingFilter{StartFrom: at(9, 1)}).Match(m))
	gt.False(t, (&model.MeetingFilter{StartTo: at(8, 59)}).Match(m))
}

func TestSessionTruncate(t *testing.T) {
	s := &model.Session{ID: "s1"}
	for i := 0; i < 20; i++ {
		s.Contents = append(s.Contents, genai.NewContentFromText(time.Duration(i).String(), genai.RoleUser))
		s.Truncate()
		gt.True(t, len(s.Contents) <= model.MaxSessionEntries)
	}
	gt.A(t, s.Contents).Length(model.MaxSessionEntries)
	gt.Equal(t, s.Contents[model.MaxSessionEntries-1].Parts[0].Text, time.Duration(19).String())
}

func TestTurnContents(t *testing.T) {
	plain := &model.Turn{User: "hello", Assistant: "hi"}
	contents := plain.Contents()
	gt.A(t, contents).Length(2)
	gt.Equal(t, contents[1].Parts[0].Text, "hi")

	tool := &model.Turn{
		User:       "cancel it",
		ToolCall:   &genai.FunctionCall{Name: "delete_meeting", Args: map[string]any{"id": "m1"}},
		ToolResult: &genai.FunctionResponse{Name: "delete_meeting", Response: map[string]any{"success": true}},
	}
	contents = tool.Contents()
	gt.A(t, contents).Length(3)
	gt.V(t, contents[1].Parts[0].FunctionCall).NotNil()
	gt.V(t, contents[2].Parts[0].FunctionResponse).NotNil()
}

func TestConflictRecordValidate(t *testing.T) {
	r := &model.ConflictRecord{
		Scenario:     "Two meetings at 3pm",
		Resolution:   "Move the review to 4pm",
		Intent:       model.ConflictIntentReschedule,
		ConflictType: model.ConflictTypeTimeOverlap,
	}
	gt.NoError(t, r.Validate())

	r.Intent = "shout"
	gt.True(t, errors.Is(r.Validate(), model.ErrValidation))
}
