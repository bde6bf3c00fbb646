package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hray3182/remindcall/internal/models"
	"github.com/hray3182/remindcall/internal/recurrence"
	"github.com/hray3182/remindcall/internal/reminders"
	"github.com/hray3182/remindcall/internal/rrule"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const maxBodyBytes = 64 << 10

type errorResponse struct {
	Error string `json:"error"`
}

const (
	defaultPreview = 3
	maxPreview     = 50
)

// reminderView adds the exported schedule and the next fire times to a
// stored reminder.
type reminderView struct {
	*models.Reminder
	RRule     string      `json:"rrule,omitempty"`
	Schedule  string      `json:"schedule"`
	NextFires []time.Time `json:"next_fires,omitempty"`
}

func viewOf(r *models.Reminder, preview int) reminderView {
	v := reminderView{
		Reminder: r,
		RRule:    rrule.String(r.Recurrence, r.NextFireAt),
		Schedule: rrule.HumanReadable(r.Recurrence),
	}
	if r.Active {
		v.NextFires = recurrence.Preview(r.NextFireAt, r.Recurrence, preview)
	}
	return v
}

func viewsOf(rs []*models.Reminder) []reminderView {
	out := make([]reminderView, 0, len(rs))
	for _, r := range rs {
		out = append(out, viewOf(r, defaultPreview))
	}
	return out
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	h := s.svc.Health(r.Context())
	status := http.StatusOK
	if !h.OK() {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, h)
}

func (s *Server) createReminder(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "could not read request body")
		return
	}

	var in reminders.CreateInput
	if err := json.Unmarshal(body, &in); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	reminder, err := s.svc.Create(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, viewOf(reminder, defaultPreview))
}

func (s *Server) listReminders(w http.ResponseWriter, r *http.Request) {
	recipient := strings.TrimSpace(r.URL.Query().Get("recipient"))
	if recipient == "" {
		s.writeError(w, http.StatusBadRequest, "recipient query parameter is required")
		return
	}

	rs, err := s.svc.ListActive(r.Context(), recipient)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, viewsOf(rs))
}

func (s *Server) upcomingReminders(w http.ResponseWriter, r *http.Request) {
	horizon := s.defaultHorizon
	if raw := r.URL.Query().Get("horizon"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			s.writeError(w, http.StatusBadRequest, "horizon must be a positive duration such as 1h or 30m")
			return
		}
		horizon = d
	}

	rs, err := s.svc.Upcoming(r.Context(), horizon)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, viewsOf(rs))
}

func (s *Server) getReminder(w http.ResponseWriter, r *http.Request) {
	preview := defaultPreview
	if raw := r.URL.Query().Get("preview"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > maxPreview {
			s.writeError(w, http.StatusBadRequest, "preview must be a number between 0 and 50")
			return
		}
		preview = n
	}

	reminder, err := s.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, viewOf(reminder, preview))
}

func (s *Server) dispatchNow(w http.ResponseWriter, r *http.Request) {
	if !s.svc.DispatchNow() {
		s.writeError(w, http.StatusConflict, "scheduler is not running")
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"scheduler": "running"})
}

func (s *Server) cancelReminder(w http.ResponseWriter, r *http.Request) {
	ok, err := s.svc.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if !ok {
		s.writeError(w, http.StatusNotFound, "no active reminder with that id")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reminders.ErrInvalidInput), errors.Is(err, models.ErrInvalidRecurrence):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "reminder not found")
	case errors.Is(err, models.ErrDuplicateID):
		s.writeError(w, http.StatusConflict, "reminder already exists")
	case errors.Is(err, models.ErrUnavailable):
		s.logger.Errorw("Reminder store unavailable", "error", err)
		s.writeError(w, http.StatusServiceUnavailable, "reminder store temporarily unavailable")
	default:
		s.logger.Errorw("Unhandled service error", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	bytes, err := json.Marshal(v)
	if err != nil {
		s.logger.Errorw("Failed to encode response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(bytes)
}
