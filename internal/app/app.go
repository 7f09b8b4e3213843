package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/specialistvlad/devinit/internal/bringup"
	"github.com/specialistvlad/devinit/internal/ctxlog"
	"github.com/specialistvlad/devinit/internal/devgraph"
	"github.com/specialistvlad/devinit/internal/hwdesc"
)

// Loader turns description paths into devices.
type Loader interface {
	Load(ctx context.Context, paths ...string) ([]hwdesc.Device, error)
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	config  *Config
	loader  Loader
	drivers *bringup.Registry
	runID   string

	ctx        context.Context
	httpServer *http.Server
}

// New is the constructor for the main application. Results are written to
// outW and logs to logW. When loader is nil the HCL loader is used.
func New(outW, logW io.Writer, cfg *Config, loader Loader) *App {
	runID := uuid.NewString()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW).With("run_id", runID)
	logger.Debug("Logger configured successfully.")

	if loader == nil {
		loader = hwdesc.NewLoader(hwdesc.Options{ImplicitParent: cfg.ImplicitParent})
	}

	return &App{
		outW:    outW,
		logger:  logger,
		config:  cfg,
		loader:  loader,
		drivers: bringup.NewRegistry(bringup.SimulatedDriver{Delay: cfg.InitDelay}),
		runID:   runID,
	}
}

// RunID returns the identifier attached to this run's logs and events.
func (a *App) RunID() string {
	return a.runID
}

// RegisterDriver binds a driver to a compatible string for ModeRun.
// Components without a registered driver use the simulated driver.
func (a *App) RegisterDriver(compatible string, d bringup.Driver) error {
	return a.drivers.Register(compatible, d)
}

// load reads the description and builds the graph.
func (a *App) load(ctx context.Context) (*devgraph.Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading description...", "paths", a.config.Paths)

	devices, err := a.loader.Load(ctx, a.config.Paths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load description: %w", err)
	}
	logger.Info("Description loaded.", "devices", len(devices))

	graph, err := devgraph.Build(ctx, devices)
	if err != nil {
		return nil, fmt.Errorf("failed to build dependency graph: %w", err)
	}
	return graph, nil
}
