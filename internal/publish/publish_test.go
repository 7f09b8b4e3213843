package publish

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/specialistvlad/devinit/internal/devtable"
	"github.com/specialistvlad/devinit/internal/readiness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

func (f *fakeSink) Send(event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if event == EventName {
		f.events = append(f.events, payload.(Event))
	}
}

func (f *fakeSink) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func TestPublisher_EmitsTransitions(t *testing.T) {
	table := devtable.New()
	_, err := table.Register("/soc/uart@8000")
	require.NoError(t, err)
	tracker := readiness.New(table)

	sink := &fakeSink{}
	p := New(sink, table, "run-1")
	p.now = func() time.Time { return time.Unix(100, 0) }
	p.Attach(tracker)

	require.NoError(t, tracker.MarkInitializing(1))
	require.NoError(t, tracker.MarkReady(1))
	p.Close()

	require.Len(t, sink.events, 2)
	assert.Equal(t, Event{
		RunID:     "run-1",
		ID:        1,
		Component: "/soc/uart@8000",
		From:      "uninitialized",
		To:        "initializing",
		Time:      time.Unix(100, 0).UTC(),
	}, sink.events[0])
	assert.Equal(t, "ready", sink.events[1].To)
	assert.True(t, sink.closed)
}

func TestDial_RejectsBadURL(t *testing.T) {
	testCases := []struct {
		name string
		url  string
	}{
		{name: "relative", url: "localhost:3000"},
		{name: "unparsable", url: "http://[::1"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Dial(context.Background(), tc.url, "")
			assert.Error(t, err)
		})
	}
}
