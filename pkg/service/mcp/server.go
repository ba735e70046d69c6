// Package mcp exposes meeting operations as Model Context Protocol tools over
// stdio or streamable HTTP.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/MuneebDevss/conflict-resolver-agent/pkg/model"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/usecase/meeting"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/usecase/resolver"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/utils/logging"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverName = "conflict-resolver-agent"

// Server builds the MCP server from the meeting and resolver use cases
type Server struct {
	meetings *meeting.UseCase
	resolver *resolver.UseCase
	version  string
}

type Option func(*Server)

// WithResolver adds the resolve_conflict tool
func WithResolver(r *resolver.UseCase) Option {
	return func(s *Server) {
		s.resolver = r
	}
}

func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

func New(meetings *meeting.UseCase, opts ...Option) *Server {
	s := &Server{
		meetings: meetings,
		version:  "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build creates an MCP server with all tools registered
func (s *Server) Build() (*mcp.Server, error) {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: s.version,
	}, nil)

	createSchema, err := inputSchema[createParams](s.meetings.Variant())
	if err != nil {
		return nil, err
	}
	updateSchema, err := inputSchema[updateParams](s.meetings.Variant())
	if err != nil {
		return nil, err
	}
	listSchema, err := inputSchema[listParams](s.meetings.Variant())
	if err != nil {
		return nil, err
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_meeting",
		Description: "Schedule a meeting. The result reports meetings it overlaps with",
		InputSchema: createSchema,
	}, s.createMeeting)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_meetings",
		Description: "List meetings sorted by start time",
		InputSchema: listSchema,
	}, s.listMeetings)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_meeting",
		Description: "Get a meeting by ID",
	}, s.getMeeting)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_meeting",
		Description: "Change fields of a meeting. Conflicts are recomputed when the time changes",
		InputSchema: updateSchema,
	}, s.updateMeeting)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_meeting",
		Description: "Delete a meeting permanently",
	}, s.deleteMeeting)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "check_availability",
		Description: "Check whether a time range is free of scheduled meetings",
	}, s.checkAvailability)

	if s.resolver != nil {
		mcp.AddTool(server, &mcp.Tool{
			Name:        "resolve_conflict",
			Description: "Suggest a resolution for a scheduling conflict described in free text",
		}, s.resolveConflict)
	}

	return server, nil
}

// RunStdio serves the tools on stdin/stdout until ctx is done or the client disconnects
func (s *Server) RunStdio(ctx context.Context) error {
	server, err := s.Build()
	if err != nil {
		return err
	}
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return goerr.Wrap(err, "MCP stdio server failed")
	}
	return nil
}

// Handler serves the tools over streamable HTTP
func (s *Server) Handler() (http.Handler, error) {
	server, err := s.Build()
	if err != nil {
		return nil, err
	}
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil), nil
}

// optionalFields are dropped from tool schemas in the minimal variant
var optionalFields = []string{"organizer", "attendees", "location"}

func inputSchema[T any](variant model.SchemaVariant) (*jsonschema.Schema, error) {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to infer tool input schema")
	}
	if variant == model.SchemaMinimal {
		for _, name := range optionalFields {
			delete(schema.Properties, name)
		}
	}
	return schema, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal tool result")
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(raw)},
		},
	}, nil
}

// errorResult turns domain errors into tool errors the client can read. Internal
// failures are logged and reported with a generic message.
func errorResult(ctx context.Context, err error) (*mcp.CallToolResult, any, error) {
	var msg string
	switch {
	case errors.Is(err, model.ErrValidation):
		msg = "validation error: " + err.Error()
	case errors.Is(err, model.ErrNotFound):
		msg = "not found: " + err.Error()
	default:
		logging.From(ctx).Error("MCP tool failed", "error", err)
		msg = "internal error"
	}
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}, nil, nil
}

func parseTime(field, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, goerr.Wrap(model.ErrValidation, field+" must be RFC3339", goerr.V("value", value))
	}
	return t.UTC(), nil
}
