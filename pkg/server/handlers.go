package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/MuneebDevss/conflict-resolver-agent/pkg/model"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/usecase/agent"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/usecase/meeting"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// HealthResponse is the body of /health
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Store    string `json:"store"`
	Meetings int    `json:"meetings"`
	Agent    bool   `json:"agent"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := HealthResponse{
		Status:  "ok",
		Version: s.version,
		Store:   "ok",
		Agent:   s.agent != nil,
	}

	status := http.StatusOK
	if err := s.meetings.Ping(ctx); err != nil {
		logging.From(ctx).Error("health check failed", logging.ErrAttr("error", err))
		resp.Status = "degraded"
		resp.Store = "unavailable"
		status = http.StatusServiceUnavailable
	} else if count, err := s.meetings.Count(ctx); err != nil {
		logging.From(ctx).Error("failed to count meetings", logging.ErrAttr("error", err))
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	} else {
		resp.Meetings = count
	}

	writeJSON(ctx, w, status, resp)
}

func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.agent == nil {
		writeUnavailable(ctx, w, "agent")
		return
	}

	var req agent.Request
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	resp, err := s.agent.Handle(ctx, &req)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

type clearHistoryRequest struct {
	SessionID model.SessionID `json:"sessionId"`
}

type clearHistoryResponse struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	SessionID model.SessionID `json:"sessionId"`
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.agent == nil {
		writeUnavailable(ctx, w, "agent")
		return
	}

	var req clearHistoryRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(ctx, w, err)
			return
		}
	}

	sessionID, err := s.agent.ClearHistory(ctx, req.SessionID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, clearHistoryResponse{
		Success:   true,
		Message:   "conversation history cleared",
		SessionID: sessionID,
	})
}

func (s *Server) handleListMeetings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	filter := model.MeetingFilter{
		Organizer: q.Get("organizer"),
		Status:    model.MeetingStatus(q.Get("status")),
	}
	var err error
	if filter.StartFrom, err = queryTime(q.Get("from"), "from"); err != nil {
		writeError(ctx, w, err)
		return
	}
	if filter.StartTo, err = queryTime(q.Get("to"), "to"); err != nil {
		writeError(ctx, w, err)
		return
	}
	if filter.Limit, err = queryInt(q.Get("limit"), "limit"); err != nil {
		writeError(ctx, w, err)
		return
	}

	meetings, err := s.meetings.List(ctx, filter)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeData(ctx, w, http.StatusOK, meetings)
}

func (s *Server) handleCreateMeeting(w http.ResponseWriter, r *http.Request) {
	ctx := meeting.WithSource(r.Context(), "api")

	var input model.Meeting
	if err := decodeBody(r, &input); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := s.meetings.Create(ctx, &input, meeting.CreateOptions{})
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeData(ctx, w, http.StatusCreated, result.Meeting)
}

func (s *Server) handleGetMeeting(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	m, err := s.meetings.Get(ctx, model.MeetingID(r.PathValue("id")))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeData(ctx, w, http.StatusOK, m)
}

func (s *Server) handleUpdateMeeting(w http.ResponseWriter, r *http.Request) {
	ctx := meeting.WithSource(r.Context(), "api")

	var patch model.MeetingPatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(ctx, w, err)
		return
	}

	updated, err := s.meetings.Update(ctx, model.MeetingID(r.PathValue("id")), &patch)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeData(ctx, w, http.StatusOK, updated)
}

func (s *Server) handleDeleteMeeting(w http.ResponseWriter, r *http.Request) {
	ctx := meeting.WithSource(r.Context(), "api")

	deleted, err := s.meetings.Delete(ctx, model.MeetingID(r.PathValue("id")))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeData(ctx, w, http.StatusOK, deleted)
}

// handleFindConflicts answers whether [start, end) collides with scheduled meetings
func (s *Server) handleFindConflicts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	start, err := queryTime(q.Get("start"), "start")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	end, err := queryTime(q.Get("end"), "end")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if start.IsZero() || end.IsZero() {
		writeError(ctx, w, goerr.Wrap(model.ErrValidation, "start and end are required"))
		return
	}

	availability, err := s.meetings.CheckAvailability(ctx, start, end, model.MeetingID(q.Get("excludeId")))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeData(ctx, w, http.StatusOK, availability)
}

type resolveRequest struct {
	Scenario string `json:"scenario"`
}

func (s *Server) handleResolveConflict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.resolver == nil {
		writeUnavailable(ctx, w, "conflict resolver")
		return
	}

	var req resolveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	record, err := s.resolver.Resolve(ctx, req.Scenario)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeData(ctx, w, http.StatusCreated, record)
}

func (s *Server) handleListConflicts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.resolver == nil {
		writeUnavailable(ctx, w, "conflict resolver")
		return
	}

	limit, err := queryInt(r.URL.Query().Get("limit"), "limit")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	records, err := s.resolver.List(ctx, limit)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeData(ctx, w, http.StatusOK, records)
}

func queryTime(value, name string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, goerr.Wrap(model.ErrValidation, name+" must be RFC3339", goerr.V("value", value))
	}
	return t.UTC(), nil
}

func queryInt(value, name string) (int, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, goerr.Wrap(model.ErrValidation, name+" must be an integer", goerr.V("value", value))
	}
	return n, nil
}
