package mcp

import (
	"context"

	"github.com/MuneebDevss/conflict-resolver-agent/pkg/model"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/usecase/meeting"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type createParams struct {
	Title       string   `json:"title" jsonschema:"Meeting title"`
	Description string   `json:"description,omitempty" jsonschema:"Optional description"`
	StartTime   string   `json:"startTime" jsonschema:"Start time in RFC3339"`
	EndTime     string   `json:"endTime" jsonschema:"End time in RFC3339, after startTime"`
	Organizer   string   `json:"organizer,omitempty" jsonschema:"Organizer name or email"`
	Attendees   []string `json:"attendees,omitempty" jsonschema:"Attendee names or emails"`
	Location    string   `json:"location,omitempty" jsonschema:"Room or meeting link"`
}

type listParams struct {
	Organizer string `json:"organizer,omitempty" jsonschema:"Only meetings with this organizer"`
	Status    string `json:"status,omitempty" jsonschema:"Only meetings with this status: scheduled, cancelled or completed"`
	From      string `json:"from,omitempty" jsonschema:"Only meetings starting at or after this RFC3339 time"`
	To        string `json:"to,omitempty" jsonschema:"Only meetings starting at or before this RFC3339 time"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum number of meetings"`
}

type idParams struct {
	ID string `json:"id" jsonschema:"Meeting ID"`
}

type updateParams struct {
	ID          string   `json:"id" jsonschema:"Meeting ID"`
	Title       *string  `json:"title,omitempty" jsonschema:"New title"`
	Description *string  `json:"description,omitempty" jsonschema:"New description"`
	StartTime   *string  `json:"startTime,omitempty" jsonschema:"New start time in RFC3339"`
	EndTime     *string  `json:"endTime,omitempty" jsonschema:"New end time in RFC3339"`
	Organizer   *string  `json:"organizer,omitempty" jsonschema:"New organizer"`
	Attendees   []string `json:"attendees,omitempty" jsonschema:"Replacement attendee list"`
	Location    *string  `json:"location,omitempty" jsonschema:"New location"`
	Status      *string  `json:"status,omitempty" jsonschema:"New status: scheduled, cancelled or completed"`
}

type availabilityParams struct {
	Start     string `json:"start" jsonschema:"Range start in RFC3339"`
	End       string `json:"end" jsonschema:"Range end in RFC3339"`
	ExcludeID string `json:"excludeId,omitempty" jsonschema:"Meeting ID to ignore, e.g. the one being moved"`
}

type resolveParams struct {
	Scenario string `json:"scenario" jsonschema:"Free text description of the conflict"`
}

func (s *Server) createMeeting(ctx context.Context, _ *mcp.CallToolRequest, p *createParams) (*mcp.CallToolResult, any, error) {
	ctx = meeting.WithSource(ctx, "mcp")

	start, err := parseTime("startTime", p.StartTime)
	if err != nil {
		return errorResult(ctx, err)
	}
	end, err := parseTime("endTime", p.EndTime)
	if err != nil {
		return errorResult(ctx, err)
	}

	result, err := s.meetings.Create(ctx, &model.Meeting{
		Title:       p.Title,
		Description: p.Description,
		StartTime:   start,
		EndTime:     end,
		Organizer:   p.Organizer,
		Attendees:   p.Attendees,
		Location:    p.Location,
	}, meeting.CreateOptions{})
	if err != nil {
		return errorResult(ctx, err)
	}

	res, err := jsonResult(result.Meeting)
	return res, nil, err
}

func (s *Server) listMeetings(ctx context.Context, _ *mcp.CallToolRequest, p *listParams) (*mcp.CallToolResult, any, error) {
	filter := model.MeetingFilter{
		Organizer: p.Organizer,
		Status:    model.MeetingStatus(p.Status),
		Limit:     p.Limit,
	}
	if p.From != "" {
		t, err := parseTime("from", p.From)
		if err != nil {
			return errorResult(ctx, err)
		}
		filter.StartFrom = t
	}
	if p.To != "" {
		t, err := parseTime("to", p.To)
		if err != nil {
			return errorResult(ctx, err)
		}
		filter.StartTo = t
	}

	meetings, err := s.meetings.List(ctx, filter)
	if err != nil {
		return errorResult(ctx, err)
	}
	res, err := jsonResult(meetings)
	return res, nil, err
}

func (s *Server) getMeeting(ctx context.Context, _ *mcp.CallToolRequest, p *idParams) (*mcp.CallToolResult, any, error) {
	m, err := s.meetings.Get(ctx, model.MeetingID(p.ID))
	if err != nil {
		return errorResult(ctx, err)
	}
	res, err := jsonResult(m)
	return res, nil, err
}

func (s *Server) updateMeeting(ctx context.Context, _ *mcp.CallToolRequest, p *updateParams) (*mcp.CallToolResult, any, error) {
	ctx = meeting.WithSource(ctx, "mcp")

	patch := &model.MeetingPatch{
		Title:       p.Title,
		Description: p.Description,
		Organizer:   p.Organizer,
		Attendees:   p.Attendees,
		Location:    p.Location,
	}
	if p.StartTime != nil {
		t, err := parseTime("startTime", *p.StartTime)
		if err != nil {
			return errorResult(ctx, err)
		}
		patch.StartTime = &t
	}
	if p.EndTime != nil {
		t, err := parseTime("endTime", *p.EndTime)
		if err != nil {
			return errorResult(ctx, err)
		}
		patch.EndTime = &t
	}
	if p.Status != nil {
		status := model.MeetingStatus(*p.Status)
		patch.Status = &status
	}

	updated, err := s.meetings.Update(ctx, model.MeetingID(p.ID), patch)
	if err != nil {
		return errorResult(ctx, err)
	}
	res, err := jsonResult(updated)
	return res, nil, err
}

func (s *Server) deleteMeeting(ctx context.Context, _ *mcp.CallToolRequest, p *idParams) (*mcp.CallToolResult, any, error) {
	ctx = meeting.WithSource(ctx, "mcp")

	deleted, err := s.meetings.Delete(ctx, model.MeetingID(p.ID))
	if err != nil {
		return errorResult(ctx, err)
	}
	res, err := jsonResult(deleted)
	return res, nil, err
}

func (s *Server) checkAvailability(ctx context.Context, _ *mcp.CallToolRequest, p *availabilityParams) (*mcp.CallToolResult, any, error) {
	start, err := parseTime("start", p.Start)
	if err != nil {
		return errorResult(ctx, err)
	}
	end, err := parseTime("end", p.End)
	if err != nil {
		return errorResult(ctx, err)
	}

	availability, err := s.meetings.CheckAvailability(ctx, start, end, model.MeetingID(p.ExcludeID))
	if err != nil {
		return errorResult(ctx, err)
	}
	res, err := jsonResult(availability)
	return res, nil, err
}

func (s *Server) resolveConflict(ctx context.Context, _ *mcp.CallToolRequest, p *resolveParams) (*mcp.CallToolResult, any, error) {
	record, err := s.resolver.Resolve(ctx, p.Scenario)
	if err != nil {
		return errorResult(ctx, err)
	}
	res, err := jsonResult(record)
	return res, nil, err
}
