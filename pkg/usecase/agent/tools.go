package agent

import (
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/model"
	"google.golang.org/genai"
)

// toolSpec declares the meeting operations. The minimal variant hides the
// organizer, attendees and location parameters.
func toolSpec(variant model.SchemaVariant) *genai.Tool {
	full := variant != model.SchemaMinimal

	meetingFields := func(required ...string) *genai.Schema {
		props := map[string]*genai.Schema{
			"title": {
				Type:        genai.TypeString,
				Description: "Meeting title",
			},
			"description": {
				Type:        genai.TypeString,
				Description: "Optional free text description",
			},
			"startTime": {
				Type:        genai.TypeString,
				Description: "Start time in RFC3339 format, e.g. 2025-03-10T09:00:00Z",
			},
			"endTime": {
				Type:        genai.TypeString,
				Description: "End time in RFC3339 format. Must be after startTime",
			},
		}
		if full {
			props["organizer"] = &genai.Schema{
				Type:        genai.TypeString,
				Description: "Organizer name or email",
			}
			props["attendees"] = &genai.Schema{
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "Attendee names or emails",
			}
			props["location"] = &genai.Schema{
				Type:        genai.TypeString,
				Description: "Room or meeting link",
			}
		}
		return &genai.Schema{
			Type:       genai.TypeObject,
			Properties: props,
			Required:   required,
		}
	}

	create := meetingFields("title", "startTime", "endTime")
	create.Properties["force"] = &genai.Schema{
		Type:        genai.TypeBoolean,
		Description: "Create even if the meeting overlaps existing ones. Set only after the user confirmed",
	}

	update := meetingFields("id")
	update.Properties["id"] = &genai.Schema{
		Type:        genai.TypeString,
		Description: "ID of the meeting to update",
	}
	update.Properties["status"] = &genai.Schema{
		Type:        genai.TypeString,
		Enum:        []string{string(model.MeetingStatusScheduled), string(model.MeetingStatusCancelled), string(model.MeetingStatusCompleted)},
		Description: "New meeting status",
	}

	get := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"status": {
				Type:        genai.TypeString,
				Enum:        []string{string(model.MeetingStatusScheduled), string(model.MeetingStatusCancelled), string(model.MeetingStatusCompleted)},
				Description: "Only meetings with this status",
			},
			"from": {
				Type:        genai.TypeString,
				Description: "Only meetings starting at or after this RFC3339 time",
			},
			"to": {
				Type:        genai.TypeString,
				Description: "Only meetings starting at or before this RFC3339 time",
			},
			"limit": {
				Type:        genai.TypeInteger,
				Description: "Maximum number of meetings (default 50)",
			},
		},
	}
	if full {
		get.Properties["organizer"] = &genai.Schema{
			Type:        genai.TypeString,
			Description: "Only meetings with this organizer",
		}
	}

	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        OpCreateMeeting,
				Description: "Schedule a new meeting. Overlapping meetings are reported back for confirmation",
				Parameters:  create,
			},
			{
				Name:        OpGetMeetings,
				Description: "List meetings sorted by start time",
				Parameters:  get,
			},
			{
				Name:        OpUpdateMeeting,
				Description: "Change fields of an existing meeting. Only given fields are changed",
				Parameters:  update,
			},
			{
				Name:        OpDeleteMeeting,
				Description: "Delete a meeting permanently",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"id": {
							Type:        genai.TypeString,
							Description: "ID of the meeting to delete",
						},
					},
					Required: []string{"id"},
				},
			},
		},
	}
}
