package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/vita-ai/vita/internal/assistant"
	"github.com/vita-ai/vita/internal/calendar"
)

const (
	defaultMaxResults  = 10
	defaultLimitPast   = 50
	defaultLimitFuture = 50
	defaultLimitNext   = 10

	// contextFetchLimit is how many upcoming events feed the schedule
	// digest before the 7-day window filtering.
	contextFetchLimit = 400
	contextDays       = 7
	contextMaxPerDay  = 8
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func intParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

type statusResponse struct {
	Status          string    `json:"status"`
	Uptime          string    `json:"uptime"`
	StartedAt       time.Time `json:"started_at"`
	CalendarPresent bool      `json:"calendar_present"`
	AgentsPresent   bool      `json:"agents_present"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status:          "ok",
		Uptime:          time.Since(s.startedAt).Truncate(time.Second).String(),
		StartedAt:       s.startedAt,
		CalendarPresent: s.calendar != nil && s.calendar.Available(),
		AgentsPresent:   s.coordinator != nil,
	})
}

type eventsResponse struct {
	Events         []calendar.SimplifiedEvent `json:"events"`
	AdapterPresent bool                       `json:"adapter_present"`
	AdapterError   *string                    `json:"adapter_error"`
}

// handleEvents lists upcoming events. A missing provider is not an
// error here: the UI polls this endpoint and renders an empty list.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.calendar == nil || !s.calendar.Available() {
		msg := "calendar provider not available"
		writeJSON(w, http.StatusOK, eventsResponse{
			Events:         []calendar.SimplifiedEvent{},
			AdapterPresent: false,
			AdapterError:   &msg,
		})
		return
	}

	maxResults := intParam(r, "max_results", defaultMaxResults)
	events, err := s.calendar.UpcomingEvents(r.Context(), maxResults)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if events == nil {
		events = []calendar.SimplifiedEvent{}
	}
	writeJSON(w, http.StatusOK, eventsResponse{
		Events:         events,
		AdapterPresent: true,
		AdapterError:   nil,
	})
}

func (s *Server) handleMonthSplit(w http.ResponseWriter, r *http.Request) {
	if s.calendar == nil || !s.calendar.Available() {
		writeError(w, http.StatusBadRequest, "calendar provider not available")
		return
	}

	limitPast := intParam(r, "limit_past", defaultLimitPast)
	limitFuture := intParam(r, "limit_future", defaultLimitFuture)

	split, err := s.calendar.MonthSplit(r.Context(), limitPast, limitFuture)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, split)
}

func (s *Server) handleNowAndNext(w http.ResponseWriter, r *http.Request) {
	if s.calendar == nil || !s.calendar.Available() {
		writeError(w, http.StatusBadRequest, "calendar provider not available")
		return
	}

	limit := intParam(r, "limit", defaultLimitNext)

	source := s.upcoming
	if source == nil {
		source = s.calendar
	}
	data, err := source.NowAndUpcoming(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, data)
}

type planRequest struct {
	Goal     string `json:"goal"`
	DietPref string `json:"diet_pref"`
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	if s.coordinator == nil {
		writeError(w, http.StatusInternalServerError, "planning agents not available")
		return
	}

	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Expected JSON body")
		return
	}
	if req.Goal == "" {
		writeError(w, http.StatusBadRequest, "Missing field: goal")
		return
	}
	if req.DietPref == "" {
		writeError(w, http.StatusBadRequest, "Missing field: diet_pref")
		return
	}

	plan, err := s.coordinator.PlanDay(r.Context(), req.Goal, req.DietPref)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.publishEvent("assistant", "plan.created", req)
	writeJSON(w, http.StatusCreated, plan)
}

type foodGenerateResponse struct {
	DietPref     *string `json:"diet_pref"`
	UsedCalendar bool    `json:"used_calendar"`
	Content      string  `json:"content"`
}

func (s *Server) handleFoodGenerate(w http.ResponseWriter, r *http.Request) {
	if s.coordinator == nil {
		writeError(w, http.StatusInternalServerError, "food agent not available")
		return
	}

	var req assistant.GenerateFoodRequest
	json.NewDecoder(r.Body).Decode(&req) // empty body is fine, all fields optional

	calendarCtx := s.buildCalendarContext(r)
	content, err := s.coordinator.Food().Generate(r.Context(), req, calendarCtx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.publishEvent("assistant", "meal.generated", req)
	writeJSON(w, http.StatusOK, foodGenerateResponse{
		DietPref:     optional(req.DietPref),
		UsedCalendar: calendarCtx != "",
		Content:      content,
	})
}

type fitnessGenerateResponse struct {
	Goal         *string `json:"goal"`
	Experience   *string `json:"experience"`
	Equipment    *string `json:"equipment"`
	Injuries     *string `json:"injuries"`
	UsedCalendar bool    `json:"used_calendar"`
	Content      string  `json:"content"`
}

func (s *Server) handleFitnessGenerate(w http.ResponseWriter, r *http.Request) {
	if s.coordinator == nil {
		writeError(w, http.StatusInternalServerError, "fitness agent not available")
		return
	}

	var req assistant.GenerateFitnessRequest
	json.NewDecoder(r.Body).Decode(&req)

	calendarCtx := s.buildCalendarContext(r)
	content, err := s.coordinator.Fitness().Generate(r.Context(), req, calendarCtx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.publishEvent("assistant", "workout.generated", req)
	writeJSON(w, http.StatusOK, fitnessGenerateResponse{
		Goal:         optional(req.Goal),
		Experience:   optional(req.Experience),
		Equipment:    optional(req.Equipment),
		Injuries:     optional(req.Injuries),
		UsedCalendar: calendarCtx != "",
		Content:      content,
	})
}

// buildCalendarContext renders the 7-day schedule digest for prompt
// context. Any calendar failure degrades to an empty context.
func (s *Server) buildCalendarContext(r *http.Request) string {
	if s.upcoming == nil {
		return ""
	}
	data, err := s.upcoming.NowAndUpcoming(r.Context(), contextFetchLimit)
	if err != nil {
		s.logger.Warn().Err(err).Msg("calendar context unavailable")
		return ""
	}
	events := calendar.ComposeUpcoming(data, 0)
	return calendar.ScheduleDigest(events, s.now(), contextDays, contextMaxPerDay)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
