// Package agent maps free text requests to meeting operations through Gemini
// function calling and enforces the conflict confirmation protocol for creates.
package agent

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"strings"
	"text/template"
	"time"

	"github.com/MuneebDevss/conflict-resolver-agent/pkg/adapter"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/model"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/session"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/usecase/meeting"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

//go:embed prompt/system.md
var systemPromptRaw string

var systemPromptTmpl = template.Must(template.New("system").Parse(systemPromptRaw))

// Agent is the conversational entry point
type Agent struct {
	gemini   adapter.Gemini
	meetings *meeting.UseCase
	sessions session.Store

	defaultSession model.SessionID
	now            func() time.Time
}

type Option func(*Agent)

// WithDefaultSession sets the session id used when a request has none
func WithDefaultSession(id model.SessionID) Option {
	return func(a *Agent) {
		a.defaultSession = id
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Agent) {
		a.now = now
	}
}

func New(gemini adapter.Gemini, meetings *meeting.UseCase, sessions session.Store, opts ...Option) *Agent {
	a := &Agent{
		gemini:         gemini,
		meetings:       meetings,
		sessions:       sessions,
		defaultSession: model.DefaultSessionID,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type Request struct {
	Query     string          `json:"query"`
	SessionID model.SessionID `json:"sessionId"`
}

type Response struct {
	Success   bool            `json:"success"`
	Response  string          `json:"response"`
	Action    string          `json:"action"`
	Result    map[string]any  `json:"result,omitempty"`
	SessionID model.SessionID `json:"sessionId"`
}

// SessionID returns the session a request belongs to
func (a *Agent) SessionID(id model.SessionID) model.SessionID {
	if strings.TrimSpace(string(id)) == "" {
		return a.defaultSession
	}
	return id
}

// Handle runs one conversational turn: interpret, execute or hold for
// confirmation, record the exchange and phrase the reply.
func (a *Agent) Handle(ctx context.Context, req *Request) (*Response, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, goerr.Wrap(model.ErrValidation, "query is required")
	}
	sessionID := a.SessionID(req.SessionID)
	ctx = meeting.WithSource(ctx, "agent")
	logger := logging.From(ctx).With("session_id", sessionID)

	history, err := a.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	config, err := a.config()
	if err != nil {
		return nil, err
	}

	contents := append(promptHistory(history.Contents), genai.NewContentFromText(query, genai.RoleUser))
	resp, err := a.gemini.GenerateContent(ctx, contents, config)
	if err != nil {
		return nil, externalError(err, "failed to interpret query")
	}
	call, text, err := parseCandidate(resp)
	if err != nil {
		return nil, err
	}

	if call == nil {
		if _, err := a.sessions.Append(ctx, sessionID, &model.Turn{User: query, Assistant: text}); err != nil {
			return nil, err
		}
		logger.Info("agent replied without operation")
		return &Response{
			Success:   true,
			Response:  text,
			Action:    OpNone,
			SessionID: sessionID,
		}, nil
	}

	logger.Info("agent selected operation", "operation", call.Name, "args", call.Args)

	success := true
	result, err := a.dispatch(ctx, call)
	if errors.Is(err, model.ErrUnknownOperation) {
		logger.Warn("unknown operation requested", "operation", call.Name)
		success = false
		result = map[string]any{
			"error":   "unknown_operation",
			"message": "operation " + call.Name + " is not supported",
		}
	} else if err != nil {
		return nil, err
	}

	toolResult := &genai.FunctionResponse{
		ID:       call.ID,
		Name:     call.Name,
		Response: result,
	}
	// The operation is already committed, so a lost history entry must not fail the turn
	if _, err := a.sessions.Append(ctx, sessionID, &model.Turn{
		User:       query,
		ToolCall:   call,
		ToolResult: toolResult,
	}); err != nil {
		logger.Error("failed to record turn", "operation", call.Name, logging.ErrAttr("error", err))
	}

	reply := a.summarize(ctx, contents, call, toolResult)

	return &Response{
		Success:   success,
		Response:  reply,
		Action:    call.Name,
		Result:    result,
		SessionID: sessionID,
	}, nil
}

// ClearHistory drops the history of one session
func (a *Agent) ClearHistory(ctx context.Context, id model.SessionID) (model.SessionID, error) {
	sessionID := a.SessionID(id)
	if err := a.sessions.Clear(ctx, sessionID); err != nil {
		return "", err
	}
	logging.From(ctx).Info("session history cleared", "session_id", sessionID)
	return sessionID, nil
}

func (a *Agent) config() (*genai.GenerateContentConfig, error) {
	var buf bytes.Buffer
	if err := systemPromptTmpl.Execute(&buf, struct {
		Now     string
		Minimal bool
	}{
		Now:     a.now().UTC().Format(time.RFC3339),
		Minimal: a.meetings.Variant() == model.SchemaMinimal,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to render system prompt")
	}

	return &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(buf.String(), ""),
		Tools:             []*genai.Tool{toolSpec(a.meetings.Variant())},
	}, nil
}

// summarize asks the model to phrase the operation result. The operation is
// already committed, so failures fall back to a fixed message.
func (a *Agent) summarize(ctx context.Context, contents []*genai.Content, call *genai.FunctionCall, result *genai.FunctionResponse) string {
	followUp := append(append([]*genai.Content{}, contents...),
		&genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{FunctionCall: call}}},
		&genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{FunctionResponse: result}}},
	)

	config, err := a.config()
	if err == nil {
		// reply in text only
		config.Tools = nil
		var resp *genai.GenerateContentResponse
		if resp, err = a.gemini.GenerateContent(ctx, followUp, config); err == nil {
			var text string
			if _, text, err = parseCandidate(resp); err == nil && text != "" {
				return text
			}
		}
	}

	logging.From(ctx).Warn("failed to generate confirmation message", "error", err, "operation", call.Name)
	return fallbackReply(call.Name, result.Response)
}

func fallbackReply(op string, result map[string]any) string {
	if pending, _ := result["requiresConfirmation"].(bool); pending {
		return "The requested time overlaps existing meetings. Confirm to schedule it anyway, or pick another time."
	}
	switch op {
	case OpCreateMeeting:
		return "The meeting has been scheduled."
	case OpGetMeetings:
		return "Here are the matching meetings."
	case OpUpdateMeeting:
		return "The meeting has been updated."
	case OpDeleteMeeting:
		return "The meeting has been deleted."
	default:
		return "That request could not be carried out."
	}
}

// promptHistory drops leading entries that cannot start a conversation, such as a
// tool result whose call was truncated away.
func promptHistory(history []*genai.Content) []*genai.Content {
	for i, c := range history {
		if c.Role == genai.RoleUser && len(c.Parts) > 0 && c.Parts[0].FunctionResponse == nil {
			return append([]*genai.Content{}, history[i:]...)
		}
	}
	return []*genai.Content{}
}

func parseCandidate(resp *genai.GenerateContentResponse) (*genai.FunctionCall, string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, "", goerr.Wrap(model.ErrExternalService, "empty response from Gemini")
	}

	var (
		call  *genai.FunctionCall
		texts []string
	)
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.FunctionCall != nil && call == nil {
			call = part.FunctionCall
		}
		if part.Text != "" {
			texts = append(texts, part.Text)
		}
	}
	return call, strings.Join(texts, "\n"), nil
}

func externalError(err error, msg string) error {
	if errors.Is(err, model.ErrExternalService) {
		return goerr.Wrap(err, msg)
	}
	return goerr.Wrap(model.ErrExternalService, msg, goerr.V("cause", err.Error()))
}

// toMap converts a result value to the generic map carried by function responses
func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal operation result")
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal operation result")
	}
	return m, nil
}
