package server_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vita-ai/vita/internal/server"
	"github.com/vita-ai/vita/internal/web"
)

func TestEndToEnd(t *testing.T) {
	cfg := server.Config{
		Web: web.Config{
			Listen: "127.0.0.1:0",
		},
		Calendar: server.CalendarConfig{
			Provider: "demo",
		},
	}

	logger := zerolog.Nop()
	d := server.NewDaemon(cfg, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- d.Run() }()

	select {
	case <-d.Ready():
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not become ready in time")
	}

	// The listener binds asynchronously after Ready.
	var addr string
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if addr = d.WebAddr(); addr != "" {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	require.NotEmpty(t, addr, "web server did not bind in time")

	base := "http://" + addr

	// Status: calendar present (demo provider), no agents (no API key).
	resp, err := http.Get(base + "/api/v1/status")
	require.NoError(t, err)
	var status struct {
		Status          string `json:"status"`
		CalendarPresent bool   `json:"calendar_present"`
		AgentsPresent   bool   `json:"agents_present"`
	}
	json.NewDecoder(resp.Body).Decode(&status)
	resp.Body.Close()
	assert.Equal(t, "ok", status.Status)
	assert.True(t, status.CalendarPresent)
	assert.False(t, status.AgentsPresent)

	// The demo provider serves upcoming events.
	resp, err = http.Get(base + "/api/calendar/events")
	require.NoError(t, err)
	var events struct {
		Events         []json.RawMessage `json:"events"`
		AdapterPresent bool              `json:"adapter_present"`
	}
	json.NewDecoder(resp.Body).Decode(&events)
	resp.Body.Close()
	assert.True(t, events.AdapterPresent)
	assert.NotEmpty(t, events.Events)

	// Planning is disabled without an API key.
	resp, err = http.Post(base+"/api/plan", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	d.Stop()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not shut down in time")
	}
}

func TestDaemonWithoutCalendar(t *testing.T) {
	cfg := server.Config{
		Web:      web.Config{Listen: "127.0.0.1:0"},
		Calendar: server.CalendarConfig{Provider: "none"},
	}

	d := server.NewDaemon(cfg, zerolog.Nop())
	errCh := make(chan error, 1)
	go func() { errCh <- d.Run() }()

	select {
	case <-d.Ready():
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not become ready in time")
	}

	var addr string
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if addr = d.WebAddr(); addr != "" {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	require.NotEmpty(t, addr)

	resp, err := http.Get("http://" + addr + "/api/calendar/month-split")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	d.Stop()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not shut down in time")
	}
}
