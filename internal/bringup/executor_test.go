package bringup

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/specialistvlad/devinit/internal/devgraph"
	"github.com/specialistvlad/devinit/internal/devtable"
	"github.com/specialistvlad/devinit/internal/hwdesc"
	"github.com/specialistvlad/devinit/internal/readiness"
	"github.com/specialistvlad/devinit/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildBoard(t *testing.T) (context.Context, *devgraph.Graph) {
	t.Helper()
	ctx, _ := testutil.NewContext(t)
	var devices []hwdesc.Device
	for _, d := range testutil.DisplayBoard() {
		devices = append(devices, hwdesc.Device{Name: d.Name, Requires: d.Requires})
	}
	g, err := devgraph.Build(ctx, devices)
	require.NoError(t, err)
	return ctx, g
}

// recorder is a driver that checks every requirement is Ready when it runs
// and records the order of calls.
type recorder struct {
	t     *testing.T
	graph *devgraph.Graph

	mu    sync.Mutex
	calls []devtable.ID
	fail  map[string]int // name -> remaining failures, -1 forever
}

func (r *recorder) Init(ctx context.Context, c Component) error {
	ok, err := r.graph.DependenciesSatisfied(c.ID)
	if err != nil || !ok {
		r.t.Errorf("%s initialized before its requirements", c.Name)
	}
	status, _ := r.graph.Tracker().StatusOf(c.ID)
	if status != readiness.Initializing {
		r.t.Errorf("%s initialized while %s", c.Name, status)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c.ID)
	if remaining, ok := r.fail[c.Name]; ok && remaining != 0 {
		r.fail[c.Name] = remaining - 1
		return errors.New("probe failed")
	}
	return nil
}

func TestExecutor_InitializesEverything(t *testing.T) {
	for _, workers := range []int{1, 4} {
		ctx, g := buildBoard(t)
		rec := &recorder{t: t, graph: g}

		results, err := NewExecutor(g, NewRegistry(rec), Options{Workers: workers}).Run(ctx)
		require.NoError(t, err)

		assert.True(t, g.AllReady())
		assert.Len(t, rec.calls, 9)
		require.Len(t, results, 9)
		for i, r := range results {
			assert.Equal(t, devtable.ID(i+1), r.ID)
			assert.Equal(t, Succeeded, r.Outcome, r.Name)
			assert.Equal(t, 1, r.Attempts)
		}
	}
}

func TestExecutor_SingleWorkerFollowsCanonicalOrderForRoots(t *testing.T) {
	ctx, g := buildBoard(t)
	rec := &recorder{t: t, graph: g}

	_, err := NewExecutor(g, NewRegistry(rec), Options{Workers: 1}).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, []devtable.ID{1, 2, 3, 4, 5}, rec.calls[:5])
}

func TestExecutor_RetriesThenSucceeds(t *testing.T) {
	ctx, g := buildBoard(t)
	rec := &recorder{t: t, graph: g, fail: map[string]int{testutil.SPI4: 2}}

	results, err := NewExecutor(g, NewRegistry(rec), Options{Workers: 2, Retries: 2}).Run(ctx)
	require.NoError(t, err)

	assert.True(t, g.AllReady())
	assert.Equal(t, 3, results[5].Attempts)
	assert.Equal(t, Succeeded, results[5].Outcome)
}

func TestExecutor_FailureSkipsDependents(t *testing.T) {
	ctx, g := buildBoard(t)
	rec := &recorder{t: t, graph: g, fail: map[string]int{testutil.GPIO1: -1}}

	results, err := NewExecutor(g, NewRegistry(rec), Options{Workers: 3, Retries: 1}).Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), testutil.GPIO1)
	assert.Contains(t, err.Error(), "probe failed")

	assert.Equal(t, Failed, results[1].Outcome)
	assert.Equal(t, 2, results[1].Attempts)
	assert.Equal(t, Skipped, results[5].Outcome)
	assert.Equal(t, Skipped, results[7].Outcome)
	assert.ErrorIs(t, results[7].Err, ErrSkipped)

	for _, id := range []devtable.ID{1, 3, 4, 5, 7, 9} {
		assert.Equal(t, Succeeded, results[id-1].Outcome, results[id-1].Name)
	}

	status, err := g.Tracker().StatusOf(2)
	require.NoError(t, err)
	assert.Equal(t, readiness.Uninitialized, status)
	assert.False(t, g.AllReady())
}

func TestExecutor_TimeoutPerComponent(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	g, err := devgraph.Build(ctx, []hwdesc.Device{
		{Name: "/soc/clock@5000", Compatible: "slow", InitTimeout: 20 * time.Millisecond},
		{Name: "/soc/uart@8000", Compatible: "fast"},
	})
	require.NoError(t, err)

	drivers := NewRegistry(nil)
	require.NoError(t, drivers.Register("slow", SimulatedDriver{Delay: time.Second}))
	require.NoError(t, drivers.Register("fast", SimulatedDriver{}))

	results, err := NewExecutor(g, drivers, Options{Workers: 2}).Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, Failed, results[0].Outcome)
	assert.Equal(t, Succeeded, results[1].Outcome)
}

func TestExecutor_MissingDriver(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	g, err := devgraph.Build(ctx, []hwdesc.Device{
		{Name: "/soc/uart@8000", Compatible: "nordic,nrf-uarte"},
	})
	require.NoError(t, err)

	results, err := NewExecutor(g, NewRegistry(nil), Options{}).Run(ctx)
	assert.ErrorIs(t, err, ErrNoDriver)
	assert.Equal(t, Failed, results[0].Outcome)
	assert.Zero(t, results[0].Attempts)
}

func TestExecutor_CanceledContext(t *testing.T) {
	ctx, g := buildBoard(t)
	ctx, cancel := context.WithCancel(ctx)
	cancel()

	var calls atomic.Int32
	driver := DriverFunc(func(ctx context.Context, c Component) error {
		calls.Add(1)
		return nil
	})

	results, err := NewExecutor(g, NewRegistry(driver), Options{Workers: 2}).Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls.Load())
	for _, r := range results {
		assert.NotEqual(t, Succeeded, r.Outcome, r.Name)
	}
}

func TestRegistry(t *testing.T) {
	spim := DriverFunc(func(context.Context, Component) error { return nil })

	r := NewRegistry(nil)
	require.NoError(t, r.Register("nordic,nrf-spim", spim))
	assert.ErrorIs(t, r.Register("nordic,nrf-spim", spim), ErrDuplicateDriver)

	d, err := r.Lookup("nordic,nrf-spim")
	require.NoError(t, err)
	assert.NotNil(t, d)

	_, err = r.Lookup("bosch,bmi270")
	assert.ErrorIs(t, err, ErrNoDriver)

	fallback := NewRegistry(SimulatedDriver{})
	d, err = fallback.Lookup("bosch,bmi270")
	require.NoError(t, err)
	assert.Equal(t, SimulatedDriver{}, d)
}

func TestSimulatedDriver_HonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := SimulatedDriver{Delay: time.Minute}.Init(ctx, Component{Name: "/soc/uart@8000"})
	assert.ErrorIs(t, err, context.Canceled)
}
