package bringup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/devinit/internal/ctxlog"
	"github.com/specialistvlad/devinit/internal/devgraph"
	"github.com/specialistvlad/devinit/internal/devtable"
)

// ErrSkipped marks a component that was never attempted because something
// it requires did not come up.
var ErrSkipped = errors.New("skipped due to upstream failure")

// Outcome is the final state of one component after a run.
type Outcome int

const (
	// Pending means the run ended before the component was attempted.
	Pending Outcome = iota
	// Succeeded means the component is Ready.
	Succeeded
	// Failed means every attempt of the driver failed.
	Failed
	// Skipped means a requirement of the component failed.
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	default:
		return "pending"
	}
}

// Result describes what happened to one component.
type Result struct {
	ID       devtable.ID
	Name     string
	Outcome  Outcome
	Attempts int
	Duration time.Duration
	Err      error
}

// Options configure an Executor.
type Options struct {
	// Workers is the number of concurrent driver initializations. Values
	// below one mean one.
	Workers int
	// Retries is how many more times a failed driver is attempted.
	Retries int
	// RetryDelay is the wait between attempts.
	RetryDelay time.Duration
	// DefaultTimeout bounds an attempt when the component sets no timeout.
	// Zero means no bound.
	DefaultTimeout time.Duration
}

// Executor brings every component of a graph up in dependency order.
type Executor struct {
	graph   *devgraph.Graph
	drivers *Registry
	opts    Options

	wg       sync.WaitGroup
	depCount []atomic.Int32
	once     []sync.Once
	results  []Result
}

// NewExecutor creates an executor for g. An executor runs once.
func NewExecutor(g *devgraph.Graph, drivers *Registry, opts Options) *Executor {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	n := g.Len()
	e := &Executor{
		graph:    g,
		drivers:  drivers,
		opts:     opts,
		depCount: make([]atomic.Int32, n),
		once:     make([]sync.Once, n),
		results:  make([]Result, n),
	}
	for _, id := range g.InitializationOrder() {
		rec, _ := g.Record(id)
		e.depCount[id-1].Store(int32(len(rec.Requires)))
		name, _ := g.ComponentName(id)
		e.results[id-1] = Result{ID: id, Name: name}
	}
	return e
}

// Run initializes every component and returns one result per component in
// handle order. The error joins the root-cause failures; skipped
// components are reported in the results only.
func (e *Executor) Run(ctx context.Context) ([]Result, error) {
	logger := ctxlog.FromContext(ctx)

	n := e.graph.Len()
	readyChan := make(chan devtable.ID, n)

	logger.Debug("Initializing executor, finding root components...")
	rootCount := 0
	for _, id := range e.graph.InitializationOrder() {
		if e.depCount[id-1].Load() == 0 {
			logger.Debug("Found root component.", "id", id)
			readyChan <- id
			rootCount++
		}
	}
	logger.Debug("Found all root components.", "count", rootCount)

	e.wg.Add(n)

	logger.Debug("Starting worker pool.", "workers", e.opts.Workers)
	for i := 0; i < e.opts.Workers; i++ {
		go e.worker(ctx, readyChan, i)
	}

	logger.Info("Waiting for all components to complete...")
	e.wg.Wait()
	close(readyChan)
	logger.Info("All components completed.")

	results := make([]Result, n)
	copy(results, e.results)

	var failed []string
	var errs []error
	for _, r := range results {
		if r.Outcome == Failed {
			failed = append(failed, r.Name)
			errs = append(errs, fmt.Errorf("%s: %w", r.Name, r.Err))
		}
	}
	if len(errs) > 0 {
		return results, fmt.Errorf("initialization failed for %s: %w", strings.Join(failed, ", "), errors.Join(errs...))
	}
	return results, nil
}

// worker is the processing loop of one concurrent worker.
func (e *Executor) worker(ctx context.Context, readyChan chan devtable.ID, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for id := range readyChan {
		workerLogger := logger.With("workerID", workerID, "component", e.results[id-1].Name)
		wctx := ctxlog.WithLogger(ctx, workerLogger)

		if ctx.Err() != nil {
			e.once[id-1].Do(func() {
				workerLogger.Warn("Context canceled, skipping component.")
				e.results[id-1].Outcome = Failed
				e.results[id-1].Err = ctx.Err()
				e.wg.Done()
			})
			e.skipDependents(wctx, id)
			continue
		}

		if err := e.initialize(wctx, id); err != nil {
			e.once[id-1].Do(func() {
				workerLogger.Error("Component initialization failed.", "error", err)
				e.results[id-1].Outcome = Failed
				e.results[id-1].Err = err
				e.wg.Done()
			})
			e.skipDependents(wctx, id)
			continue
		}

		e.once[id-1].Do(func() {
			e.results[id-1].Outcome = Succeeded
			rec, _ := e.graph.Record(id)
			for _, dependent := range rec.Supports {
				if e.depCount[dependent-1].Add(-1) == 0 {
					workerLogger.Debug("Unlocking dependent component.", "dependent", dependent)
					readyChan <- dependent
				}
			}
			e.wg.Done()
		})
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}

// initialize runs the driver of id until it succeeds or the retries are
// exhausted. On failure the component is left Uninitialized.
func (e *Executor) initialize(ctx context.Context, id devtable.ID) error {
	logger := ctxlog.FromContext(ctx)

	ok, err := e.graph.DependenciesSatisfied(id)
	if err != nil {
		return err
	}
	if !ok {
		pending, _ := e.graph.PendingDependencies(id)
		return fmt.Errorf("dependencies not ready: %v", pending)
	}

	device, _ := e.graph.Device(id)
	c := Component{
		ID:         id,
		Name:       device.Name,
		Compatible: device.Compatible,
		Timeout:    device.InitTimeout,
	}
	if c.Timeout == 0 {
		c.Timeout = e.opts.DefaultTimeout
	}

	driver, err := e.drivers.Lookup(c.Compatible)
	if err != nil {
		return err
	}

	start := time.Now()
	defer func() { e.results[id-1].Duration = time.Since(start) }()

	for attempt := 0; attempt <= e.opts.Retries; attempt++ {
		if attempt > 0 {
			logger.Warn("Retrying component initialization.", "attempt", attempt+1, "error", err)
			if waitErr := wait(ctx, e.opts.RetryDelay); waitErr != nil {
				return waitErr
			}
		}
		e.results[id-1].Attempts = attempt + 1

		if beginErr := e.graph.BeginInitializing(id); beginErr != nil {
			return beginErr
		}
		logger.Info("▶️ Initializing component", "compatible", c.Compatible, "attempt", attempt+1)

		err = runDriver(ctx, driver, c)
		if err == nil {
			if completeErr := e.graph.CompleteInitializing(id); completeErr != nil {
				return completeErr
			}
			logger.Info("✅ Component ready", "duration", time.Since(start))
			return nil
		}

		if resetErr := e.graph.AbandonInitializing(id); resetErr != nil {
			return errors.Join(err, resetErr)
		}
	}
	return err
}

func runDriver(ctx context.Context, driver Driver, c Component) error {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	if err := driver.Init(ctx, c); err != nil {
		return err
	}
	return nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// skipDependents recursively marks every transitive dependent of id as
// skipped.
func (e *Executor) skipDependents(ctx context.Context, id devtable.ID) {
	logger := ctxlog.FromContext(ctx)
	rec, _ := e.graph.Record(id)
	for _, dependent := range rec.Supports {
		e.once[dependent-1].Do(func() {
			logger.Warn("Skipping dependent component due to upstream failure.", "dependent", e.results[dependent-1].Name)
			e.results[dependent-1].Outcome = Skipped
			e.results[dependent-1].Err = fmt.Errorf("%w of %q", ErrSkipped, e.results[id-1].Name)
			e.wg.Done()
			e.skipDependents(ctx, dependent)
		})
	}
}
