// Package server wires the daemon together: config, the embedded bus,
// the calendar provider, the planning agents, and the HTTP server.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/vita-ai/vita/internal/ai"
	"github.com/vita-ai/vita/internal/assistant"
	"github.com/vita-ai/vita/internal/bus"
	"github.com/vita-ai/vita/internal/calendar"
	"github.com/vita-ai/vita/internal/google"
	"github.com/vita-ai/vita/internal/web"
)

// Daemon is the vitad process.
type Daemon struct {
	cfg       Config
	logger    zerolog.Logger
	bus       *bus.Bus
	webServer *web.Server
	startedAt time.Time
	ready     chan struct{}
	stopCh    chan struct{}
}

// NewDaemon creates a Daemon from config.
func NewDaemon(cfg Config, logger zerolog.Logger) *Daemon {
	return &Daemon{
		cfg:    cfg,
		logger: logger,
		ready:  make(chan struct{}),
		stopCh: make(chan struct{}),
	}
}

// Ready is closed once all subsystems have been started.
func (d *Daemon) Ready() <-chan struct{} { return d.ready }

// Run starts all subsystems and blocks until a signal is received or
// Stop is called.
func (d *Daemon) Run() error {
	d.startedAt = time.Now()

	// 1. Start the embedded bus.
	b, err := bus.New(d.cfg.Bus, d.logger)
	if err != nil {
		return fmt.Errorf("start bus: %w", err)
	}
	d.bus = b

	// 2. Build the calendar service. A missing or broken provider
	// degrades to nil; the HTTP layer reports absence per endpoint.
	provider := d.buildProvider()
	calSvc := calendar.NewService(provider, d.logger)

	var upcoming calendar.UpcomingSource
	if provider != nil {
		upcoming = calendar.NewCachedUpcoming(calSvc, d.cfg.Calendar.CacheTTL)
	}

	// 3. Build the planning agents when an API key is configured.
	var coordinator *assistant.Coordinator
	if d.cfg.AI.APIKey != "" {
		llm := ai.NewAnthropicClient(d.cfg.AI, d.logger)
		coordinator = assistant.NewCoordinator(llm, upcoming, d.logger)
	} else {
		d.logger.Warn().Msg("no LLM API key configured, planning endpoints disabled")
	}

	// 4. Start the HTTP server.
	d.webServer = web.New(d.cfg.Web, calSvc, upcoming, coordinator, b, d.startedAt, d.logger)
	webErrCh := make(chan error, 1)
	go func() {
		webErrCh <- d.webServer.Start()
	}()

	b.Publish("daemon", "started", map[string]any{
		"calendar_present": provider != nil,
		"agents_present":   coordinator != nil,
	})

	d.logger.Info().
		Str("listen", d.cfg.Web.Listen).
		Bool("calendar", provider != nil).
		Bool("agents", coordinator != nil).
		Msg("vitad started")

	close(d.ready)

	// 5. Wait for signal, stop call, or server error.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		d.logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case <-d.stopCh:
		d.logger.Info().Msg("stop requested, shutting down")
	case err := <-webErrCh:
		if err != nil {
			d.logger.Error().Err(err).Msg("web server error")
		}
	}

	return d.shutdown()
}

// Stop signals the daemon to shut down. Safe to call from another goroutine.
func (d *Daemon) Stop() {
	close(d.stopCh)
}

// WebAddr returns the HTTP server's bound address, or "" before it has
// started listening.
func (d *Daemon) WebAddr() string {
	if d.webServer == nil {
		return ""
	}
	return d.webServer.Addr()
}

// buildProvider resolves the configured calendar provider. Credential
// problems are logged and degrade to no provider rather than failing
// the daemon.
func (d *Daemon) buildProvider() calendar.Provider {
	switch d.cfg.Calendar.Provider {
	case "none":
		return nil
	case "demo":
		return calendar.NewDemoProvider(time.Now())
	case "google", "":
		g := d.cfg.Google
		if g.ClientID == "" || g.ClientSecret == "" {
			d.logger.Warn().Msg("google client credentials not configured, calendar disabled")
			return nil
		}
		oauthCfg := google.OAuthConfig(g.ClientID, g.ClientSecret)
		ts, err := google.NewPersistentTokenSource(oauthCfg, g.TokenPath)
		if err != nil {
			d.logger.Warn().Err(err).Msg("no usable Google token, run 'vitad auth' first")
			return nil
		}
		provider, err := google.NewProvider(oauth2.NewClient(context.Background(), ts), g.CalendarID)
		if err != nil {
			d.logger.Warn().Err(err).Msg("google calendar client failed, calendar disabled")
			return nil
		}
		return provider
	default:
		d.logger.Warn().Str("provider", d.cfg.Calendar.Provider).Msg("unknown calendar provider, calendar disabled")
		return nil
	}
}

func (d *Daemon) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if d.webServer != nil {
		d.webServer.Shutdown(ctx)
	}
	if d.bus != nil {
		d.bus.Shutdown()
	}
	return nil
}
