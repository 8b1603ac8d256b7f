package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Event is the message published after a successful alias repoint.
type Event struct {
	Release string    `json:"release"`
	Commit  string    `json:"commit,omitempty"`
	Branch  string    `json:"branch,omitempty"`
	Host    string    `json:"host"`
	At      time.Time `json:"at"`
}

// Announcer distributes publish events. Failures never fail a committed
// publish.
type Announcer interface {
	Announce(ctx context.Context, ev Event) error
}

// NATSAnnouncer publishes events to a NATS subject, connecting per
// announcement: publishes are rare enough that holding a connection open
// buys nothing.
type NATSAnnouncer struct {
	url     string
	subject string
}

// NewNATSAnnouncer creates an announcer for the given server URL and subject.
func NewNATSAnnouncer(url, subject string) *NATSAnnouncer {
	return &NATSAnnouncer{url: url, subject: subject}
}

func (a *NATSAnnouncer) Announce(_ context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode publish event: %w", err)
	}
	nc, err := nats.Connect(a.url, nats.Name("docship"), nats.Timeout(5*time.Second))
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer nc.Close()
	if err := nc.Publish(a.subject, data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nc.Flush()
}
