package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MuneebDevss/conflict-resolver-agent/pkg/model"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/repository"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/server"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/session"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/usecase/agent"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/usecase/meeting"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/usecase/resolver"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"google.golang.org/genai"
)

type mockGemini struct {
	text string
	err  error
}

func (m *mockGemini) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Role:  genai.RoleModel,
					Parts: []*genai.Part{{Text: m.text}},
				},
			},
		},
	}, nil
}

// brokenRepo fails every call as if the backend were down
type brokenRepo struct {
	repository.Repository
}

func (r *brokenRepo) unavailable() error {
	return goerr.Wrap(model.ErrStoreUnavailable, "connection refused", goerr.V("dsn", "secret-host"))
}

func (r *brokenRepo) FindMeetings(ctx context.Context, filter model.MeetingFilter) ([]*model.Meeting, error) {
	return nil, r.unavailable()
}

func (r *brokenRepo) Ping(ctx context.Context) error {
	return r.unavailable()
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func do(t *testing.T, h http.Handler, method, path string, body any) (int, apiResponse) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		gt.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp apiResponse
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func meetingBody(title, start, end string) map[string]any {
	return map[string]any{
		"title":     title,
		"startTime": start,
		"endTime":   end,
	}
}

func TestMeetingsAPI(t *testing.T) {
	srv := server.New(meeting.New(repository.NewMemory()))

	var first model.Meeting
	t.Run("create", func(t *testing.T) {
		code, resp := do(t, srv, http.MethodPost, "/api/meetings",
			meetingBody("Standup", "2025-03-10T09:00:00Z", "2025-03-10T09:30:00Z"))
		gt.Equal(t, code, http.StatusCreated)
		gt.True(t, resp.Success)
		gt.NoError(t, json.Unmarshal(resp.Data, &first))
		gt.False(t, first.HasConflict)
		gt.Equal(t, first.Status, model.MeetingStatusScheduled)
	})

	t.Run("overlapping create is stored and flagged", func(t *testing.T) {
		code, resp := do(t, srv, http.MethodPost, "/api/meetings",
			meetingBody("Review", "2025-03-10T09:15:00Z", "2025-03-10T10:00:00Z"))
		gt.Equal(t, code, http.StatusCreated)

		var m model.Meeting
		gt.NoError(t, json.Unmarshal(resp.Data, &m))
		gt.True(t, m.HasConflict)
		gt.S(t, m.ConflictDetails).Contains("Standup")
	})

	t.Run("invalid interval", func(t *testing.T) {
		code, resp := do(t, srv, http.MethodPost, "/api/meetings",
			meetingBody("Backwards", "2025-03-10T11:00:00Z", "2025-03-10T10:00:00Z"))
		gt.Equal(t, code, http.StatusBadRequest)
		gt.False(t, resp.Success)
		gt.Equal(t, resp.Error, "validation_error")
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/meetings", bytes.NewReader([]byte("{")))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		gt.Equal(t, rec.Code, http.StatusBadRequest)
	})

	t.Run("get", func(t *testing.T) {
		code, resp := do(t, srv, http.MethodGet, "/api/meetings/"+string(first.ID), nil)
		gt.Equal(t, code, http.StatusOK)

		var m model.Meeting
		gt.NoError(t, json.Unmarshal(resp.Data, &m))
		gt.Equal(t, m.Title, "Standup")
	})

	t.Run("get unknown", func(t *testing.T) {
		code, resp := do(t, srv, http.MethodGet, "/api/meetings/nope", nil)
		gt.Equal(t, code, http.StatusNotFound)
		gt.Equal(t, resp.Error, "not_found")
	})

	t.Run("conflicts", func(t *testing.T) {
		code, resp := do(t, srv, http.MethodGet,
			"/api/meetings/conflicts?start=2025-03-10T09:20:00Z&end=2025-03-10T09:25:00Z", nil)
		gt.Equal(t, code, http.StatusOK)

		var a meeting.Availability
		gt.NoError(t, json.Unmarshal(resp.Data, &a))
		gt.False(t, a.Available)
		gt.A(t, a.Conflicts).Length(2)
	})

	t.Run("conflicts without range", func(t *testing.T) {
		code, _ := do(t, srv, http.MethodGet, "/api/meetings/conflicts", nil)
		gt.Equal(t, code, http.StatusBadRequest)
	})

	t.Run("update moves out of overlap", func(t *testing.T) {
		code, resp := do(t, srv, http.MethodPut, "/api/meetings/"+string(first.ID), map[string]any{
			"startTime": "2025-03-10T14:00:00Z",
			"endTime":   "2025-03-10T14:30:00Z",
		})
		gt.Equal(t, code, http.StatusOK)

		var m model.Meeting
		gt.NoError(t, json.Unmarshal(resp.Data, &m))
		gt.False(t, m.HasConflict)
		gt.Equal(t, m.ConflictDetails, "")
	})

	t.Run("list", func(t *testing.T) {
		code, resp := do(t, srv, http.MethodGet, "/api/meetings?from=2025-03-10T00:00:00Z&limit=10", nil)
		gt.Equal(t, code, http.StatusOK)

		var meetings []*model.Meeting
		gt.NoError(t, json.Unmarshal(resp.Data, &meetings))
		gt.A(t, meetings).Length(2)
		gt.Equal(t, meetings[0].Title, "Review")
	})

	t.Run("list with bad limit", func(t *testing.T) {
		code, resp := do(t, srv, http.MethodGet, "/api/meetings?limit=many", nil)
		gt.Equal(t, code, http.StatusBadRequest)
		gt.Equal(t, resp.Error, "validation_error")
	})

	t.Run("delete", func(t *testing.T) {
		code, _ := do(t, srv, http.MethodDelete, "/api/meetings/"+string(first.ID), nil)
		gt.Equal(t, code, http.StatusOK)

		code, _ = do(t, srv, http.MethodDelete, "/api/meetings/"+string(first.ID), nil)
		gt.Equal(t, code, http.StatusNotFound)
	})
}

func TestStoreUnavailable(t *testing.T) {
	srv := server.New(meeting.New(&brokenRepo{Repository: repository.NewMemory()}))

	code, resp := do(t, srv, http.MethodGet, "/api/meetings", nil)
	gt.Equal(t, code, http.StatusInternalServerError)
	gt.Equal(t, resp.Error, "store_unavailable")
	gt.S(t, resp.Message).NotContains("secret-host")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	gt.Equal(t, rec.Code, http.StatusServiceUnavailable)

	var health server.HealthResponse
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	gt.Equal(t, health.Store, "unavailable")
}

func TestHealth(t *testing.T) {
	uc := meeting.New(repository.NewMemory())
	srv := server.New(uc, server.WithVersion("v1.2.3"))

	do(t, srv, http.MethodPost, "/api/meetings",
		meetingBody("Standup", "2025-03-10T09:00:00Z", "2025-03-10T09:30:00Z"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	gt.Equal(t, rec.Code, http.StatusOK)
	gt.NotEqual(t, rec.Header().Get("X-Request-ID"), "")

	var health server.HealthResponse
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	gt.Equal(t, health.Status, "ok")
	gt.Equal(t, health.Version, "v1.2.3")
	gt.Equal(t, health.Meetings, 1)
	gt.False(t, health.Agent)
}

func TestAgentAPI(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		srv := server.New(meeting.New(repository.NewMemory()))

		code, resp := do(t, srv, http.MethodPost, "/api/agent", map[string]any{"query": "hello"})
		gt.Equal(t, code, http.StatusServiceUnavailable)
		gt.Equal(t, resp.Error, "service_unavailable")

		code, _ = do(t, srv, http.MethodPost, "/api/agent/clear-history", map[string]any{})
		gt.Equal(t, code, http.StatusServiceUnavailable)
	})

	uc := meeting.New(repository.NewMemory())
	a := agent.New(&mockGemini{text: "Hello! How can I help with your calendar?"}, uc, session.NewMemory())
	srv := server.New(uc, server.WithAgent(a))

	t.Run("plain reply", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/agent",
			bytes.NewReader([]byte(`{"query":"hello","sessionId":"s1"}`)))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		gt.Equal(t, rec.Code, http.StatusOK)

		var resp agent.Response
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		gt.True(t, resp.Success)
		gt.Equal(t, resp.Action, "none")
		gt.Equal(t, resp.SessionID, model.SessionID("s1"))
		gt.S(t, resp.Response).Contains("calendar")
	})

	t.Run("empty query", func(t *testing.T) {
		code, resp := do(t, srv, http.MethodPost, "/api/agent", map[string]any{"query": "  "})
		gt.Equal(t, code, http.StatusBadRequest)
		gt.Equal(t, resp.Error, "validation_error")
	})

	t.Run("clear history", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/agent/clear-history",
			bytes.NewReader([]byte(`{"sessionId":"s1"}`)))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		gt.Equal(t, rec.Code, http.StatusOK)
		gt.S(t, rec.Body.String()).Contains(`"sessionId":"s1"`)
	})

	t.Run("clear default history without body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/agent/clear-history", nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		gt.Equal(t, rec.Code, http.StatusOK)
		gt.S(t, rec.Body.String()).Contains(`"sessionId":"default"`)
	})
}

func TestAgentExternalFailure(t *testing.T) {
	uc := meeting.New(repository.NewMemory())
	gemini := &mockGemini{err: goerr.New("quota exceeded", goerr.V("project", "internal-project"))}
	srv := server.New(uc, server.WithAgent(agent.New(gemini, uc, session.NewMemory())))

	code, resp := do(t, srv, http.MethodPost, "/api/agent", map[string]any{"query": "book a room"})
	gt.Equal(t, code, http.StatusInternalServerError)
	gt.Equal(t, resp.Error, "external_service_error")
	gt.S(t, resp.Message).NotContains("internal-project")
}

func TestConflictsAPI(t *testing.T) {
	repo := repository.NewMemory()
	gemini := &mockGemini{text: `{"intent":"reschedule","conflictType":"time_overlap","resolution":"Move the review to 11:00."}`}
	srv := server.New(meeting.New(repo), server.WithResolver(resolver.New(gemini, repo)))

	code, resp := do(t, srv, http.MethodPost, "/api/conflicts/resolve", map[string]any{
		"scenario": "Standup and review both at 9am",
	})
	gt.Equal(t, code, http.StatusCreated)

	var record model.ConflictRecord
	gt.NoError(t, json.Unmarshal(resp.Data, &record))
	gt.Equal(t, record.Intent, model.ConflictIntentReschedule)

	code, resp = do(t, srv, http.MethodGet, "/api/conflicts?limit=5", nil)
	gt.Equal(t, code, http.StatusOK)

	var records []*model.ConflictRecord
	gt.NoError(t, json.Unmarshal(resp.Data, &records))
	gt.A(t, records).Length(1)

	code, _ = do(t, srv, http.MethodPost, "/api/conflicts/resolve", map[string]any{"scenario": ""})
	gt.Equal(t, code, http.StatusBadRequest)
}

func TestMetrics(t *testing.T) {
	metrics := server.NewMetrics()
	uc := meeting.New(repository.NewMemory(), meeting.WithMetrics(metrics))
	srv := server.New(uc, server.WithMetrics(metrics))

	do(t, srv, http.MethodPost, "/api/meetings",
		meetingBody("Standup", "2025-03-10T09:00:00Z", "2025-03-10T09:30:00Z"))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	gt.Equal(t, rec.Code, http.StatusOK)

	body := rec.Body.String()
	gt.S(t, body).Contains(`conflict_agent_meeting_mutations_total{action="create",conflicted="false"} 1`)
	gt.S(t, body).Contains(`route="POST /api/meetings"`)
}
