package integration_tests

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/specialistvlad/devinit/internal/app"
	"github.com/specialistvlad/devinit/internal/bringup"
	"github.com/specialistvlad/devinit/internal/order"
	"github.com/specialistvlad/devinit/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T, mode app.Mode, hcl string) (*app.App, *testutil.SafeBuffer) {
	t.Helper()

	dir := testutil.WriteFiles(t, map[string]string{"board.hcl": hcl})
	cfg, err := app.NewConfig(app.Config{Mode: mode, Paths: []string{dir}, Workers: 2})
	require.NoError(t, err)

	out := &testutil.SafeBuffer{}
	return app.New(out, &testutil.SafeBuffer{}, cfg, nil), out
}

// Test for: A cyclic description is refused before anything is initialized.
func TestErrorHandling_CycleIsRejected(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	hcl := `
device "/soc/gpio@842800" {
  requires = ["/soc/spi@a000"]
}

device "/soc/spi@a000" {
  requires = ["/soc/gpio@842800"]
}
`
	testApp, out := newApp(t, app.ModeRun, hcl)
	called := false
	require.NoError(t, testApp.RegisterDriver("", bringup.DriverFunc(func(context.Context, bringup.Component) error {
		called = true
		return nil
	})))

	// --- Act ---
	err := testApp.Run(context.Background())

	// --- Assert ---
	require.Error(t, err)
	assert.ErrorIs(t, err, order.ErrGraphNotAcyclic)
	assert.Contains(t, err.Error(), "/soc/gpio@842800 -> /soc/spi@a000 -> /soc/gpio@842800")
	assert.False(t, called, "no driver may run for a cyclic graph")
	assert.Empty(t, out.String())
}

// Test for: A failing driver skips its dependents and leaves unrelated devices alone.
func TestErrorHandling_FailureSkipsDependents(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	testApp, out := newApp(t, app.ModeRun, testutil.DisplayBoardHCL)
	require.NoError(t, testApp.RegisterDriver("nordic,nrf-spim", bringup.DriverFunc(func(_ context.Context, c bringup.Component) error {
		if c.Name == testutil.SPI4 {
			return errors.New("bus stuck")
		}
		return nil
	})))

	// --- Act ---
	err := testApp.Run(context.Background())

	// --- Assert ---
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bus stuck")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 9)
	assert.True(t, strings.HasPrefix(lines[5], "failed"), lines[5])
	assert.True(t, strings.HasPrefix(lines[7], "skipped"), lines[7])
	assert.True(t, strings.HasPrefix(lines[8], "succeeded"), lines[8])
}

// Test for: A driver exceeding its init_timeout fails the run.
func TestErrorHandling_InitTimeoutFailsRun(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	hcl := `
device "/soc/i2c@3000/bmi270@68" {
  compatible   = "bosch,bmi270"
  init_timeout = "50ms"
}
`
	testApp, _ := newApp(t, app.ModeRun, hcl)
	require.NoError(t, testApp.RegisterDriver("bosch,bmi270", bringup.SimulatedDriver{Delay: 5 * time.Second}))

	// --- Act ---
	start := time.Now()
	err := testApp.Run(context.Background())

	// --- Assert ---
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

// Test for: An invalid description is rejected with the file name.
func TestErrorHandling_InvalidHCLIsRejected(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	testApp, _ := newApp(t, app.ModeOrder, `device "/soc/uart@8000" { requires = [`)

	// --- Act ---
	err := testApp.Run(context.Background())

	// --- Assert ---
	require.Error(t, err)
	assert.Contains(t, err.Error(), "board.hcl")
}
