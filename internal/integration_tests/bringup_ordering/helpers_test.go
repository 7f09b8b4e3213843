package integration_tests

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/specialistvlad/devinit/internal/app"
	"github.com/specialistvlad/devinit/internal/bringup"
	"github.com/specialistvlad/devinit/internal/testutil"
	"github.com/stretchr/testify/require"
)

// executionRecord holds the start and end times of one driver call.
type executionRecord struct {
	Start time.Time
	End   time.Time
}

// sleeperDriver records when each component was initialized.
type sleeperDriver struct {
	sleep time.Duration

	mu      sync.Mutex
	records map[string]*executionRecord
	order   []string
}

func newSleeperDriver(sleep time.Duration) *sleeperDriver {
	return &sleeperDriver{sleep: sleep, records: make(map[string]*executionRecord)}
}

func (d *sleeperDriver) Init(ctx context.Context, c bringup.Component) error {
	start := time.Now()
	select {
	case <-time.After(d.sleep):
	case <-ctx.Done():
		return ctx.Err()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.records[c.Name] = &executionRecord{Start: start, End: time.Now()}
	d.order = append(d.order, c.Name)
	return nil
}

// setupRun creates a run-mode app for the given description files with
// every compatible string served by driver.
func setupRun(t *testing.T, files map[string]string, workers int, driver bringup.Driver, compatibles ...string) (*app.App, *testutil.SafeBuffer) {
	t.Helper()

	dir := testutil.WriteFiles(t, files)
	cfg, err := app.NewConfig(app.Config{
		Mode:     app.ModeRun,
		Paths:    []string{dir},
		LogLevel: "debug",
		Workers:  workers,
	})
	require.NoError(t, err)

	out := &testutil.SafeBuffer{}
	a := app.New(out, &testutil.SafeBuffer{}, cfg, nil)
	for _, compatible := range compatibles {
		require.NoError(t, a.RegisterDriver(compatible, driver))
	}
	return a, out
}
