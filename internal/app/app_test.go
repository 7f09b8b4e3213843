package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/specialistvlad/devinit/internal/bringup"
	"github.com/specialistvlad/devinit/internal/devgraph"
	"github.com/specialistvlad/devinit/internal/handles"
	"github.com/specialistvlad/devinit/internal/metrics"
	"github.com/specialistvlad/devinit/internal/order"
	"github.com/specialistvlad/devinit/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// setupAppTest creates an app reading the display board description.
func setupAppTest(t *testing.T, mode Mode, mutate func(*Config)) (*App, *testutil.SafeBuffer, *testutil.SafeBuffer) {
	t.Helper()

	dir := testutil.WriteFiles(t, map[string]string{"board.hcl": testutil.DisplayBoardHCL})
	cfg, err := NewConfig(Config{
		Mode:     mode,
		Paths:    []string{dir},
		LogLevel: "debug",
		Workers:  2,
	})
	require.NoError(t, err)
	if mutate != nil {
		mutate(cfg)
	}

	out, logs := &testutil.SafeBuffer{}, &testutil.SafeBuffer{}
	t.Cleanup(func() {
		if os.Getenv("DEVINIT_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})
	return New(out, logs, cfg, nil), out, logs
}

func TestNewConfig(t *testing.T) {
	valid := func() Config {
		return Config{Mode: ModeRun, Paths: []string{"board.hcl"}, Workers: 1}
	}

	cfg, err := NewConfig(valid())
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.Output)

	testCases := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{name: "no paths", mutate: func(c *Config) { c.Paths = nil }, errMsg: "path is required"},
		{name: "unknown mode", mutate: func(c *Config) { c.Mode = "flash" }, errMsg: "unknown mode"},
		{name: "bad output", mutate: func(c *Config) { c.Output = "xml" }, errMsg: "invalid output"},
		{name: "no workers", mutate: func(c *Config) { c.Workers = 0 }, errMsg: "workers"},
		{name: "negative retries", mutate: func(c *Config) { c.Retries = -1 }, errMsg: "retries"},
		{name: "bad port", mutate: func(c *Config) { c.HealthcheckPort = 70000 }, errMsg: "out of range"},
		{name: "negative delay", mutate: func(c *Config) { c.InitDelay = -time.Second }, errMsg: "negative"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(&c)
			_, err := NewConfig(c)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestRun_OrderText(t *testing.T) {
	a, out, _ := setupAppTest(t, ModeOrder, nil)

	require.NoError(t, a.Run(context.Background()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 9)
	assert.Equal(t, "  1  [1] "+testutil.Clock, lines[0])
	assert.Equal(t, "  8  [8] "+testutil.Display, lines[7])
}

func TestRun_OrderJSON(t *testing.T) {
	a, out, _ := setupAppTest(t, ModeOrder, func(c *Config) { c.Output = "json" })

	require.NoError(t, a.Run(context.Background()))

	var entries []orderEntry
	require.NoError(t, json.Unmarshal([]byte(out.String()), &entries))
	require.Len(t, entries, 9)
	assert.Equal(t, []string{testutil.GPIO1, testutil.SPI4}, entries[7].Requires)
	assert.Empty(t, entries[3].Requires)
}

func TestRun_OrderYAML(t *testing.T) {
	a, out, _ := setupAppTest(t, ModeOrder, func(c *Config) { c.Output = "yaml" })

	require.NoError(t, a.Run(context.Background()))

	var entries []orderEntry
	require.NoError(t, yaml.Unmarshal([]byte(out.String()), &entries))
	require.Len(t, entries, 9)
	assert.Equal(t, testutil.IMU, entries[8].Name)
	assert.Equal(t, int16(9), entries[8].ID)
}

func TestRun_Table(t *testing.T) {
	a, out, _ := setupAppTest(t, ModeTable, func(c *Config) { c.Layout = handles.LayoutZephyr })

	require.NoError(t, a.Run(context.Background()))

	assert.Contains(t, out.String(),
		"const device_handle_t devicehdl_6[] = { 2, DEVICE_HANDLE_SEP, DEVICE_HANDLE_SEP, 8, DEVICE_HANDLE_ENDS };")
}

func TestRun_BringUp(t *testing.T) {
	a, out, logs := setupAppTest(t, ModeRun, nil)

	require.NoError(t, a.Run(context.Background()))

	assert.Equal(t, 9, strings.Count(out.String(), "succeeded"))
	assert.Contains(t, logs.String(), "run_id="+a.RunID())
}

func TestRun_BringUpFailure(t *testing.T) {
	a, out, _ := setupAppTest(t, ModeRun, nil)
	require.NoError(t, a.RegisterDriver("bosch,bmi270", bringup.DriverFunc(func(context.Context, bringup.Component) error {
		return errors.New("chip id mismatch")
	})))

	err := a.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chip id mismatch")
	assert.Equal(t, 8, strings.Count(out.String(), "succeeded"))
	assert.Contains(t, out.String(), "failed    [9] "+testutil.IMU)
}

func TestRun_InvalidDescription(t *testing.T) {
	cyclic := strings.Replace(testutil.DisplayBoardHCL,
		`compatible = "nordic,nrf-gpio"
}`,
		`compatible = "nordic,nrf-gpio"
  requires   = ["/soc/peripheral@50000000/spi@a000/gc9a01@0"]
}`, 1)
	dir := testutil.WriteFiles(t, map[string]string{"board.hcl": cyclic})

	cfg, err := NewConfig(Config{Mode: ModeOrder, Paths: []string{dir}, Workers: 1})
	require.NoError(t, err)
	a := New(&testutil.SafeBuffer{}, &testutil.SafeBuffer{}, cfg, nil)

	err = a.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, order.ErrGraphNotAcyclic)
	assert.Contains(t, err.Error(), testutil.GPIO1+" -> "+testutil.Display)
}

func TestHealthRoutes(t *testing.T) {
	a, _, _ := setupAppTest(t, ModeRun, nil)
	a.ctx = context.Background()

	graph, err := devgraph.Build(context.Background(), nil)
	require.NoError(t, err)
	collector := metrics.New(graph.Table())
	collector.Attach(graph.Tracker())
	routes := a.healthRoutes(graph, collector)

	get := func(path string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		routes.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		return rr
	}

	assert.Equal(t, http.StatusOK, get("/health").Code)
	assert.Equal(t, http.StatusOK, get("/ready").Code)
	assert.Equal(t, http.StatusOK, get("/metrics").Code)
}

func TestReadyHandler_NotReady(t *testing.T) {
	a, _, _ := setupAppTest(t, ModeRun, nil)
	graph, err := a.load(context.Background())
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	readyHandler(graph).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "NOT READY")
}

func TestRun_Watch(t *testing.T) {
	a, out, _ := setupAppTest(t, ModeWatch, nil)
	boardFile := filepath.Join(a.config.Paths[0], "board.hcl")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), testutil.IMU)
	}, 5*time.Second, 20*time.Millisecond)

	extra := testutil.DisplayBoardHCL + `
device "/soc/peripheral@50000000/i2c@b000" {
  compatible = "nordic,nrf-twim"
}
`
	require.NoError(t, os.WriteFile(boardFile, []byte(extra), 0644))

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), " 10  [10] /soc/peripheral@50000000/i2c@b000")
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancellation")
	}
}

func TestNewLogger(t *testing.T) {
	buf := &testutil.SafeBuffer{}
	logger := newLogger("WARN", "json", buf)
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
