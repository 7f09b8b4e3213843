package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/devinit/internal/bringup"
	"github.com/specialistvlad/devinit/internal/ctxlog"
	"github.com/specialistvlad/devinit/internal/devgraph"
	"github.com/specialistvlad/devinit/internal/handles"
	"github.com/specialistvlad/devinit/internal/metrics"
	"github.com/specialistvlad/devinit/internal/publish"
)

// Run executes the configured mode.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.ctx = ctx
	a.logger.Debug("App.Run method started.", "mode", a.config.Mode)

	if a.config.Mode == ModeWatch {
		return a.watch(ctx)
	}

	graph, err := a.load(ctx)
	if err != nil {
		return err
	}

	switch a.config.Mode {
	case ModeOrder:
		return a.writeOrder(graph)
	case ModeTable:
		return handles.WriteTable(a.outW, graph.Table(), graph.Records(), a.config.Layout)
	case ModeRun:
		return a.bringUp(ctx, graph)
	default:
		return fmt.Errorf("unknown mode %q", a.config.Mode)
	}
}

// bringUp initializes every component with the registered drivers while
// exposing progress through metrics, the health check server and events.
func (a *App) bringUp(ctx context.Context, graph *devgraph.Graph) error {
	collector := metrics.New(graph.Table())
	collector.Attach(graph.Tracker())

	if a.config.EventsURL != "" {
		sink, err := publish.Dial(ctx, a.config.EventsURL, a.config.EventsNamespace)
		if err != nil {
			return fmt.Errorf("failed to connect event publisher: %w", err)
		}
		publisher := publish.New(sink, graph.Table(), a.runID)
		publisher.Attach(graph.Tracker())
		defer publisher.Close()
	}

	a.startHealthCheckServer(graph, collector)
	defer a.closeHealthCheckServer()

	a.logger.Info("🚀 Starting bring-up...", "components", graph.Len(), "workers", a.config.Workers)
	exec := bringup.NewExecutor(graph, a.drivers, bringup.Options{
		Workers:        a.config.Workers,
		Retries:        a.config.Retries,
		RetryDelay:     a.config.RetryDelay,
		DefaultTimeout: a.config.DefaultTimeout,
	})
	results, runErr := exec.Run(ctx)
	if err := a.writeResults(results); err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("bring-up failed: %w", runErr)
	}

	a.logger.Info("🏁 Bring-up finished.", "ready", graph.AllReady())
	return nil
}
