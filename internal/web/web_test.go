package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vita-ai/vita/internal/ai"
	"github.com/vita-ai/vita/internal/assistant"
	"github.com/vita-ai/vita/internal/calendar"
)

// scriptedLLM replies to every completion with a fixed string.
type scriptedLLM struct {
	reply    string
	requests []ai.CompleteRequest
}

func (f *scriptedLLM) Complete(_ context.Context, req ai.CompleteRequest) (string, error) {
	f.requests = append(f.requests, req)
	return f.reply, nil
}

type serverOptions struct {
	withCalendar bool
	withAgents   bool
	username     string
	password     string
}

func newTestServer(t *testing.T, opts serverOptions) (*Server, *scriptedLLM) {
	t.Helper()

	var cal *calendar.Service
	var upcoming calendar.UpcomingSource
	if opts.withCalendar {
		provider := calendar.NewDemoProvider(time.Now())
		cal = calendar.NewService(provider, zerolog.Nop())
		upcoming = cal
	} else {
		cal = calendar.NewService(nil, zerolog.Nop())
	}

	llm := &scriptedLLM{reply: "generated content"}
	var coordinator *assistant.Coordinator
	if opts.withAgents {
		coordinator = assistant.NewCoordinator(llm, upcoming, zerolog.Nop())
	}

	s := New(Config{
		Listen:   "127.0.0.1:0",
		Username: opts.username,
		Password: opts.password,
	}, cal, upcoming, coordinator, nil, time.Now(), zerolog.Nop())
	return s, llm
}

func doRequest(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func TestStatus(t *testing.T) {
	s, _ := newTestServer(t, serverOptions{withCalendar: true, withAgents: true})

	rec := doRequest(s, "GET", "/api/v1/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.CalendarPresent)
	assert.True(t, resp.AgentsPresent)
}

func TestEventsWithoutProvider(t *testing.T) {
	s, _ := newTestServer(t, serverOptions{})

	rec := doRequest(s, "GET", "/api/calendar/events", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp eventsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.AdapterPresent)
	assert.Empty(t, resp.Events)
	require.NotNil(t, resp.AdapterError)
	assert.Equal(t, "calendar provider not available", *resp.AdapterError)
}

func TestEventsWithProvider(t *testing.T) {
	s, _ := newTestServer(t, serverOptions{withCalendar: true})

	rec := doRequest(s, "GET", "/api/calendar/events?max_results=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp eventsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.AdapterPresent)
	assert.Nil(t, resp.AdapterError)
	assert.NotEmpty(t, resp.Events)
	assert.LessOrEqual(t, len(resp.Events), 2)
}

func TestMonthSplitWithoutProvider(t *testing.T) {
	s, _ := newTestServer(t, serverOptions{})

	rec := doRequest(s, "GET", "/api/calendar/month-split", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"calendar provider not available"}`, rec.Body.String())
}

func TestMonthSplitWithProvider(t *testing.T) {
	s, _ := newTestServer(t, serverOptions{withCalendar: true})

	rec := doRequest(s, "GET", "/api/calendar/month-split?limit_past=5&limit_future=5", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp, "past_current_month")
	assert.Contains(t, resp, "future_next_month")
}

func TestNowAndNextWithoutProvider(t *testing.T) {
	s, _ := newTestServer(t, serverOptions{})

	rec := doRequest(s, "GET", "/api/calendar/now-and-next", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"calendar provider not available"}`, rec.Body.String())
}

func TestNowAndNextWithProvider(t *testing.T) {
	s, _ := newTestServer(t, serverOptions{withCalendar: true})

	rec := doRequest(s, "GET", "/api/calendar/now-and-next?limit=3", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp, "current")
	assert.Contains(t, resp, "upcoming")
}

func TestPlanValidation(t *testing.T) {
	s, _ := newTestServer(t, serverOptions{withAgents: true})

	rec := doRequest(s, "POST", "/api/plan", "not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(s, "POST", "/api/plan", `{"diet_pref":"vegan"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Missing field: goal"}`, rec.Body.String())

	rec = doRequest(s, "POST", "/api/plan", `{"goal":"muscle gain"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Missing field: diet_pref"}`, rec.Body.String())
}

func TestPlanSuccess(t *testing.T) {
	s, llm := newTestServer(t, serverOptions{withCalendar: true, withAgents: true})

	rec := doRequest(s, "POST", "/api/plan", `{"goal":"muscle gain","diet_pref":"vegan"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var plan assistant.DayPlan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	assert.Equal(t, "generated content", plan.Workout)
	assert.Equal(t, "generated content", plan.Meal)
	assert.Equal(t, "generated content", plan.Schedule)
	assert.Len(t, llm.requests, 3)
}

func TestPlanWithoutAgents(t *testing.T) {
	s, _ := newTestServer(t, serverOptions{})

	rec := doRequest(s, "POST", "/api/plan", `{"goal":"g","diet_pref":"d"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestFoodGenerateUsesCalendar(t *testing.T) {
	s, llm := newTestServer(t, serverOptions{withCalendar: true, withAgents: true})

	rec := doRequest(s, "POST", "/api/food/generate", `{"diet_pref":"vegan"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp foodGenerateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.UsedCalendar)
	assert.Equal(t, "generated content", resp.Content)
	require.NotNil(t, resp.DietPref)
	assert.Equal(t, "vegan", *resp.DietPref)

	require.Len(t, llm.requests, 1)
	assert.Contains(t, llm.requests[0].Prompt, "User schedule for the next 7 days")
}

func TestFoodGenerateWithoutCalendar(t *testing.T) {
	s, _ := newTestServer(t, serverOptions{withAgents: true})

	rec := doRequest(s, "POST", "/api/food/generate", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp foodGenerateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.UsedCalendar)
	assert.Nil(t, resp.DietPref)
}

func TestFitnessGenerateEchoesFields(t *testing.T) {
	s, _ := newTestServer(t, serverOptions{withCalendar: true, withAgents: true})

	rec := doRequest(s, "POST", "/api/fitness/generate",
		`{"goal":"fat loss","equipment":"dumbbells"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp fitnessGenerateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Goal)
	assert.Equal(t, "fat loss", *resp.Goal)
	require.NotNil(t, resp.Equipment)
	assert.Equal(t, "dumbbells", *resp.Equipment)
	assert.Nil(t, resp.Experience)
	assert.Nil(t, resp.Injuries)
	assert.True(t, resp.UsedCalendar)
}

func TestBasicAuth(t *testing.T) {
	s, _ := newTestServer(t, serverOptions{username: "admin", password: "secret"})

	rec := doRequest(s, "GET", "/api/v1/status", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest("GET", "/api/v1/status", nil)
	req.SetBasicAuth("admin", "wrong")
	rec = httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest("GET", "/api/v1/status", nil)
	req.SetBasicAuth("admin", "secret")
	rec = httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSecurityHeaders(t *testing.T) {
	s, _ := newTestServer(t, serverOptions{})

	rec := doRequest(s, "GET", "/api/v1/status", "")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, serverOptions{})

	rec := doRequest(s, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
