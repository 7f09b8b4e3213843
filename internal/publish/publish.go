// Package publish streams readiness transitions to a Socket.IO server so a
// dashboard can follow a bring-up live.
package publish

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/specialistvlad/devinit/internal/ctxlog"
	"github.com/specialistvlad/devinit/internal/devtable"
	"github.com/specialistvlad/devinit/internal/readiness"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// EventName is the Socket.IO event every transition is emitted as.
const EventName = "component_status"

// connectTimeout bounds the initial handshake.
const connectTimeout = 15 * time.Second

// Event is the payload of one emitted transition.
type Event struct {
	RunID     string    `json:"run_id"`
	ID        int16     `json:"id"`
	Component string    `json:"component"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Time      time.Time `json:"time"`
}

// Sink delivers events to a remote peer.
type Sink interface {
	Send(event string, payload any)
	Close()
}

// Publisher converts tracker transitions into events.
type Publisher struct {
	sink  Sink
	table *devtable.Table
	runID string
	now   func() time.Time
}

// New creates a publisher that emits to sink.
func New(sink Sink, table *devtable.Table, runID string) *Publisher {
	return &Publisher{sink: sink, table: table, runID: runID, now: time.Now}
}

// Attach subscribes the publisher to tracker.
func (p *Publisher) Attach(tracker *readiness.Tracker) {
	tracker.Subscribe(p.Observe)
}

// Observe emits one transition.
func (p *Publisher) Observe(tr readiness.Transition) {
	name, err := p.table.NameOf(tr.ID)
	if err != nil {
		name = fmt.Sprintf("<%d>", tr.ID)
	}
	p.sink.Send(EventName, Event{
		RunID:     p.runID,
		ID:        int16(tr.ID),
		Component: name,
		From:      tr.From.String(),
		To:        tr.To.String(),
		Time:      p.now().UTC(),
	})
}

// Close releases the sink.
func (p *Publisher) Close() {
	p.sink.Close()
}

type socketSink struct {
	io *socket.Socket
}

func (s *socketSink) Send(event string, payload any) {
	s.io.Emit(event, payload)
}

func (s *socketSink) Close() {
	s.io.Disconnect()
}

// Dial connects to a Socket.IO server over WebSocket and returns a Sink for
// it. The URL path selects the server's Socket.IO path; namespace may be
// empty for the default namespace.
func Dial(ctx context.Context, rawURL, namespace string) (Sink, error) {
	logger := ctxlog.FromContext(ctx).With("url", rawURL)
	logger.Info("Connecting event publisher...")

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("events URL %q must be absolute", rawURL)
	}

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		opts.SetPath(parsedURL.Path)
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Event publisher connected", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err, _ := errs[0].(error)
		if err == nil {
			err = fmt.Errorf("%v", errs[0])
		}
		connectChan <- err
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return &socketSink{io: io}, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(connectTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", connectTimeout)
	}
}
