// Package bus runs an embedded NATS server and gives the rest of the
// daemon a typed publish/subscribe surface for domain events. With an
// empty Host the server never binds a socket and all traffic stays
// in-process.
package bus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// EventSubjectPrefix is the subject space for daemon events. Subscribe
// to EventSubjectPrefix + ".>" for everything.
const EventSubjectPrefix = "vita.events"

// Config holds settings for the embedded NATS server.
type Config struct {
	Host  string `mapstructure:"host"` // empty means in-process only
	Port  int    `mapstructure:"port"`
	Token string `mapstructure:"token"` // if non-empty, requires token auth
}

// Event is the envelope published on the bus.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Bus wraps the embedded NATS server and its in-process connection.
type Bus struct {
	ns     *server.Server
	nc     *nats.Conn
	logger zerolog.Logger
}

// New creates and starts the embedded NATS server.
func New(cfg Config, logger zerolog.Logger) (*Bus, error) {
	opts := &server.Options{
		DontListen: cfg.Host == "",
		Host:       cfg.Host,
		Port:       cfg.Port,
		NoLog:      true,
		NoSigs:     true,
	}
	if cfg.Token != "" {
		opts.Authorization = cfg.Token
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("nats server create: %w", err)
	}

	ns.SetLoggerV2(newZerologAdapter(logger), false, false, false)

	go ns.Start()

	if !ns.ReadyForConnections(10 * time.Second) {
		return nil, fmt.Errorf("nats server failed to become ready")
	}

	var connectOpts []nats.Option
	if opts.DontListen {
		connectOpts = append(connectOpts, nats.InProcessServer(ns))
	}
	if cfg.Token != "" {
		connectOpts = append(connectOpts, nats.Token(cfg.Token))
	}
	nc, err := nats.Connect(ns.ClientURL(), connectOpts...)
	if err != nil {
		ns.Shutdown()
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	logger.Info().Str("client_url", ns.ClientURL()).Msg("embedded NATS started")

	return &Bus{ns: ns, nc: nc, logger: logger.With().Str("component", "bus").Logger()}, nil
}

// Subject returns the subject events from the given source are
// published on.
func Subject(source string) string {
	return EventSubjectPrefix + "." + source
}

// Publish emits a typed event from source. payload must be
// JSON-marshalable; nil is fine.
func (b *Bus) Publish(source, eventType string, payload any) error {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		raw = data
	}

	ev := Event{
		ID:        "evt_" + uuid.NewString(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Payload:   raw,
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return b.nc.Publish(Subject(source), data)
}

// Subscribe delivers decoded events on the given subject pattern.
// Undecodable messages are logged and dropped.
func (b *Bus) Subscribe(subject string, handler func(Event)) (*nats.Subscription, error) {
	return b.nc.Subscribe(subject, func(msg *nats.Msg) {
		var ev Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			b.logger.Warn().Err(err).Str("subject", msg.Subject).Msg("dropping undecodable event")
			return
		}
		handler(ev)
	})
}

// Conn returns the internal NATS client connection.
func (b *Bus) Conn() *nats.Conn { return b.nc }

// ClientURL returns the NATS client connection URL.
func (b *Bus) ClientURL() string { return b.ns.ClientURL() }

// Shutdown gracefully drains and shuts down.
func (b *Bus) Shutdown() {
	b.logger.Info().Msg("shutting down embedded NATS")
	b.nc.Drain()
	b.ns.Shutdown()
	b.ns.WaitForShutdown()
}
