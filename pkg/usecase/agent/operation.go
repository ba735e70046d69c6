package agent

import (
	"encoding/json"
	"time"

	"github.com/MuneebDevss/conflict-resolver-agent/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// Operation is one meeting action chosen by the intent service. The set of
// implementations is closed.
type Operation interface {
	Name() string
	operation()
}

const (
	OpCreateMeeting = "create_meeting"
	OpGetMeetings   = "get_meetings"
	OpUpdateMeeting = "update_meeting"
	OpDeleteMeeting = "delete_meeting"
	OpNone          = "none"
)

type CreateMeeting struct {
	Meeting *model.Meeting
	// Force creates the meeting even when it overlaps others
	Force bool
}

type GetMeetings struct {
	Filter model.MeetingFilter
}

type UpdateMeeting struct {
	ID    model.MeetingID
	Patch *model.MeetingPatch
}

type DeleteMeeting struct {
	ID model.MeetingID
}

// NoOperation means the model answered in plain text
type NoOperation struct{}

func (CreateMeeting) Name() string { return OpCreateMeeting }
func (GetMeetings) Name() string   { return OpGetMeetings }
func (UpdateMeeting) Name() string { return OpUpdateMeeting }
func (DeleteMeeting) Name() string { return OpDeleteMeeting }
func (NoOperation) Name() string   { return OpNone }

func (CreateMeeting) operation() {}
func (GetMeetings) operation()   {}
func (UpdateMeeting) operation() {}
func (DeleteMeeting) operation() {}
func (NoOperation) operation()   {}

type createArgs struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	StartTime   string   `json:"startTime"`
	EndTime     string   `json:"endTime"`
	Organizer   string   `json:"organizer"`
	Attendees   []string `json:"attendees"`
	Location    string   `json:"location"`
	Force       bool     `json:"force"`
}

type getArgs struct {
	Organizer string `json:"organizer"`
	Status    string `json:"status"`
	From      string `json:"from"`
	To        string `json:"to"`
	Limit     int    `json:"limit"`
}

type updateArgs struct {
	ID          string   `json:"id"`
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	StartTime   *string  `json:"startTime"`
	EndTime     *string  `json:"endTime"`
	Organizer   *string  `json:"organizer"`
	Attendees   []string `json:"attendees"`
	Location    *string  `json:"location"`
	Status      *string  `json:"status"`
}

type deleteArgs struct {
	ID string `json:"id"`
}

// ParseOperation converts a function call into an Operation. A nil call yields
// NoOperation and an unrecognized name yields model.ErrUnknownOperation.
func ParseOperation(call *genai.FunctionCall) (Operation, error) {
	if call == nil {
		return NoOperation{}, nil
	}

	switch call.Name {
	case OpCreateMeeting:
		var args createArgs
		if err := decodeArgs(call, &args); err != nil {
			return nil, err
		}
		start, err := parseTime("startTime", args.StartTime)
		if err != nil {
			return nil, err
		}
		end, err := parseTime("endTime", args.EndTime)
		if err != nil {
			return nil, err
		}
		return CreateMeeting{
			Meeting: &model.Meeting{
				Title:       args.Title,
				Description: args.Description,
				StartTime:   start,
				EndTime:     end,
				Organizer:   args.Organizer,
				Attendees:   args.Attendees,
				Location:    args.Location,
			},
			Force: args.Force,
		}, nil

	case OpGetMeetings:
		var args getArgs
		if err := decodeArgs(call, &args); err != nil {
			return nil, err
		}
		filter := model.MeetingFilter{
			Organizer: args.Organizer,
			Status:    model.MeetingStatus(args.Status),
			Limit:     args.Limit,
		}
		if args.From != "" {
			t, err := parseTime("from", args.From)
			if err != nil {
				return nil, err
			}
			filter.StartFrom = t
		}
		if args.To != "" {
			t, err := parseTime("to", args.To)
			if err != nil {
				return nil, err
			}
			filter.StartTo = t
		}
		return GetMeetings{Filter: filter}, nil

	case OpUpdateMeeting:
		var args updateArgs
		if err := decodeArgs(call, &args); err != nil {
			return nil, err
		}
		if args.ID == "" {
			return nil, goerr.Wrap(model.ErrValidation, "id is required", goerr.V("operation", call.Name))
		}
		patch := &model.MeetingPatch{
			Title:       args.Title,
			Description: args.Description,
			Organizer:   args.Organizer,
			Attendees:   args.Attendees,
			Location:    args.Location,
		}
		if args.StartTime != nil {
			t, err := parseTime("startTime", *args.StartTime)
			if err != nil {
				return nil, err
			}
			patch.StartTime = &t
		}
		if args.EndTime != nil {
			t, err := parseTime("endTime", *args.EndTime)
			if err != nil {
				return nil, err
			}
			patch.EndTime = &t
		}
		if args.Status != nil {
			status := model.MeetingStatus(*args.Status)
			patch.Status = &status
		}
		return UpdateMeeting{ID: model.MeetingID(args.ID), Patch: patch}, nil

	case OpDeleteMeeting:
		var args deleteArgs
		if err := decodeArgs(call, &args); err != nil {
			return nil, err
		}
		if args.ID == "" {
			return nil, goerr.Wrap(model.ErrValidation, "id is required", goerr.V("operation", call.Name))
		}
		return DeleteMeeting{ID: model.MeetingID(args.ID)}, nil

	default:
		return nil, goerr.Wrap(model.ErrUnknownOperation, "unknown operation", goerr.V("name", call.Name))
	}
}

func decodeArgs(call *genai.FunctionCall, v any) error {
	raw, err := json.Marshal(call.Args)
	if err != nil {
		return goerr.Wrap(model.ErrValidation, "failed to marshal arguments", goerr.V("operation", call.Name))
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return goerr.Wrap(model.ErrValidation, "invalid arguments",
			goerr.V("operation", call.Name),
			goerr.V("cause", err.Error()))
	}
	return nil
}

func parseTime(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, goerr.Wrap(model.ErrValidation, field+" is required")
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, goerr.Wrap(model.ErrValidation, field+" must be RFC3339",
			goerr.V("value", value))
	}
	return t.UTC(), nil
}
