package pipeline

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/pressline/internal/config"
	"git.home.luguber.info/inful/pressline/internal/logfields"
)

const defaultSubjectPrefix = "pressline.runs"

// NATSPublisher forwards run lifecycle events from the Bus to a NATS subject
// per event type. Publishing is fire-and-forget; a broker outage degrades to
// warnings and never touches a run.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
	logger *slog.Logger
}

// NewNATSPublisher connects to the broker named in cfg.
func NewNATSPublisher(cfg config.EventsConfig, logger *slog.Logger) (*NATSPublisher, error) {
	if cfg.NATSURL == "" {
		return nil, fmt.Errorf("events: nats_url is required")
	}
	conn, err := nats.Connect(cfg.NATSURL, nats.Name("pressline"))
	if err != nil {
		return nil, fmt.Errorf("events: connect to NATS: %w", err)
	}
	prefix := cfg.SubjectPrefix
	if prefix == "" {
		prefix = defaultSubjectPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("event publisher connected",
		logfields.URL(cfg.NATSURL), slog.String("subject_prefix", prefix))
	return &NATSPublisher{conn: conn, prefix: prefix, logger: logger}, nil
}

// Register subscribes the publisher to every lifecycle event on the bus.
func (p *NATSPublisher) Register(bus *Bus) {
	bus.SubscribeAll(func(e Event) error {
		p.forward(e)
		return nil
	})
}

func (p *NATSPublisher) forward(e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		p.logger.Warn("event marshal failed",
			slog.String("event", e.Name()), logfields.Error(err))
		return
	}
	subject := p.subjectFor(e)
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Warn("event publish to NATS failed",
			slog.String("event", e.Name()),
			slog.String("subject", subject), logfields.Error(err))
	}
}

// subjectFor maps an event to <prefix>.<snake_case_name>.
func (p *NATSPublisher) subjectFor(e Event) string {
	return p.prefix + "." + snakeCase(e.Name())
}

func snakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Close flushes pending publishes and drops the connection.
func (p *NATSPublisher) Close() {
	if p.conn == nil {
		return
	}
	_ = p.conn.Flush()
	p.conn.Close()
}
