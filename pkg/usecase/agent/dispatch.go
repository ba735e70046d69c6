package agent

import (
	"context"
	"time"

	"github.com/MuneebDevss/conflict-resolver-agent/pkg/model"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/usecase/meeting"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// ConflictSummary is the part of a conflicting meeting shown to the user
type ConflictSummary struct {
	ID        model.MeetingID `json:"id"`
	Title     string          `json:"title"`
	StartTime time.Time       `json:"startTime"`
	EndTime   time.Time       `json:"endTime"`
}

type createResult struct {
	Success              bool              `json:"success"`
	RequiresConfirmation bool              `json:"requiresConfirmation"`
	Meeting              *model.Meeting    `json:"meeting,omitempty"`
	Conflicts            []ConflictSummary `json:"conflicts,omitempty"`
	Proposed             *model.Meeting    `json:"proposed,omitempty"`
	Message              string            `json:"message"`
}

type getResult struct {
	Success  bool             `json:"success"`
	Count    int              `json:"count"`
	Meetings []*model.Meeting `json:"meetings"`
}

type updateResult struct {
	Success bool           `json:"success"`
	Meeting *model.Meeting `json:"meeting"`
}

type deleteResult struct {
	Success bool           `json:"success"`
	Deleted *model.Meeting `json:"deleted"`
	Message string         `json:"message"`
}

func (a *Agent) dispatch(ctx context.Context, call *genai.FunctionCall) (map[string]any, error) {
	op, err := ParseOperation(call)
	if err != nil {
		return nil, err
	}
	result, err := a.execute(ctx, op)
	if err != nil {
		return nil, err
	}
	return toMap(result)
}

func (a *Agent) execute(ctx context.Context, op Operation) (any, error) {
	switch op := op.(type) {
	case CreateMeeting:
		created, err := a.meetings.Create(ctx, op.Meeting, meeting.CreateOptions{
			RequireConfirmation: true,
			Force:               op.Force,
		})
		if err != nil {
			return nil, err
		}
		if created.RequiresConfirmation {
			return &createResult{
				Success:              true,
				RequiresConfirmation: true,
				Conflicts:            summarizeConflicts(created.Conflicts),
				Proposed:             created.Proposed,
				Message:              model.ConflictDetails(created.Conflicts),
			}, nil
		}
		return &createResult{
			Success:   true,
			Meeting:   created.Meeting,
			Conflicts: summarizeConflicts(created.Conflicts),
			Message:   "meeting created",
		}, nil

	case GetMeetings:
		meetings, err := a.meetings.List(ctx, op.Filter)
		if err != nil {
			return nil, err
		}
		return &getResult{Success: true, Count: len(meetings), Meetings: meetings}, nil

	case UpdateMeeting:
		updated, err := a.meetings.Update(ctx, op.ID, op.Patch)
		if err != nil {
			return nil, err
		}
		return &updateResult{Success: true, Meeting: updated}, nil

	case DeleteMeeting:
		deleted, err := a.meetings.Delete(ctx, op.ID)
		if err != nil {
			return nil, err
		}
		return &deleteResult{Success: true, Deleted: deleted, Message: "meeting deleted"}, nil

	case NoOperation:
		return map[string]any{}, nil

	default:
		return nil, goerr.Wrap(model.ErrUnknownOperation, "unhandled operation", goerr.V("name", op.Name()))
	}
}

func summarizeConflicts(conflicts []*model.Meeting) []ConflictSummary {
	if len(conflicts) == 0 {
		return nil
	}
	sorted := append([]*model.Meeting{}, conflicts...)
	model.SortByStart(sorted)

	summaries := make([]ConflictSummary, 0, len(sorted))
	for _, c := range sorted {
		summaries = append(summaries, ConflictSummary{
			ID:        c.ID,
			Title:     c.Title,
			StartTime: c.StartTime,
			EndTime:   c.EndTime,
		})
	}
	return summaries
}
