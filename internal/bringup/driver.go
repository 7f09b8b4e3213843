package bringup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/specialistvlad/devinit/internal/ctxlog"
	"github.com/specialistvlad/devinit/internal/devtable"
)

var (
	// ErrNoDriver is returned when no driver matches a component.
	ErrNoDriver = errors.New("no driver for component")
	// ErrDuplicateDriver is returned when a compatible string is registered twice.
	ErrDuplicateDriver = errors.New("driver already registered")
)

// Component is what a driver receives when asked to bring a device up.
type Component struct {
	ID         devtable.ID
	Name       string
	Compatible string
	Timeout    time.Duration
}

// Driver brings one component up. Init must honour ctx cancellation.
type Driver interface {
	Init(ctx context.Context, c Component) error
}

// DriverFunc adapts a function to the Driver interface.
type DriverFunc func(ctx context.Context, c Component) error

// Init calls f.
func (f DriverFunc) Init(ctx context.Context, c Component) error {
	return f(ctx, c)
}

// Registry maps compatible strings to drivers.
type Registry struct {
	mu       sync.RWMutex
	drivers  map[string]Driver
	fallback Driver
}

// NewRegistry creates a registry. fallback, when non-nil, serves every
// component whose compatible string has no registered driver.
func NewRegistry(fallback Driver) *Registry {
	return &Registry{
		drivers:  make(map[string]Driver),
		fallback: fallback,
	}
}

// Register binds a driver to a compatible string.
func (r *Registry) Register(compatible string, d Driver) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.drivers[compatible]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateDriver, compatible)
	}
	r.drivers[compatible] = d
	return nil
}

// Lookup returns the driver for a compatible string.
func (r *Registry) Lookup(compatible string) (Driver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if d, ok := r.drivers[compatible]; ok {
		return d, nil
	}
	if r.fallback != nil {
		return r.fallback, nil
	}
	return nil, fmt.Errorf("%w: compatible %q", ErrNoDriver, compatible)
}

// SimulatedDriver pretends to initialize hardware by waiting Delay.
type SimulatedDriver struct {
	Delay time.Duration
}

// Init implements Driver.
func (s SimulatedDriver) Init(ctx context.Context, c Component) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Simulating driver initialization.", "component", c.Name, "compatible", c.Compatible, "delay", s.Delay)
	if s.Delay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.Delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
