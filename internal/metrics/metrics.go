// Package metrics exposes readiness state as Prometheus metrics.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/specialistvlad/devinit/internal/devtable"
	"github.com/specialistvlad/devinit/internal/readiness"
)

const namespace = "devinit"

// Collector turns tracker transitions into metrics on a private registry.
type Collector struct {
	registry *prometheus.Registry
	table    *devtable.Table

	componentStatus *prometheus.GaugeVec
	components      *prometheus.GaugeVec
	transitions     *prometheus.CounterVec
	initDuration    prometheus.Histogram

	mu      sync.Mutex
	started map[devtable.ID]time.Time
	now     func() time.Time
}

// New creates a collector that labels components with their names in table.
func New(table *devtable.Table) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		table:    table,
		componentStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "component_status",
			Help:      "Readiness of each component: 0 uninitialized, 1 initializing, 2 ready",
		}, []string{"component"}),
		components: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "components",
			Help:      "Number of components in each readiness status",
		}, []string{"status"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Total number of readiness transitions by target status",
		}, []string{"to"}),
		initDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "init_duration_seconds",
			Help:      "Time from a component entering initializing to becoming ready",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~262s
		}),
		started: make(map[devtable.ID]time.Time),
		now:     time.Now,
	}
	c.registry.MustRegister(c.componentStatus, c.components, c.transitions, c.initDuration)
	return c
}

// Attach seeds the gauges from the tracker's current state and subscribes
// to its transitions.
func (c *Collector) Attach(tracker *readiness.Tracker) {
	snap := tracker.Snapshot()
	for status, n := range snap.Counts() {
		c.components.WithLabelValues(status.String()).Set(float64(n))
	}
	for _, id := range c.table.IDs() {
		status, err := snap.StatusOf(id)
		if err != nil {
			continue
		}
		c.componentStatus.WithLabelValues(c.name(id)).Set(float64(status))
	}
	tracker.Subscribe(c.Observe)
}

// Observe records one transition.
func (c *Collector) Observe(tr readiness.Transition) {
	c.componentStatus.WithLabelValues(c.name(tr.ID)).Set(float64(tr.To))
	c.components.WithLabelValues(tr.From.String()).Dec()
	c.components.WithLabelValues(tr.To.String()).Inc()
	c.transitions.WithLabelValues(tr.To.String()).Inc()

	c.mu.Lock()
	defer c.mu.Unlock()
	switch tr.To {
	case readiness.Initializing:
		c.started[tr.ID] = c.now()
	case readiness.Ready:
		if start, ok := c.started[tr.ID]; ok {
			c.initDuration.Observe(c.now().Sub(start).Seconds())
			delete(c.started, tr.ID)
		}
	default:
		delete(c.started, tr.ID)
	}
}

func (c *Collector) name(id devtable.ID) string {
	name, err := c.table.NameOf(id)
	if err != nil {
		return "unknown"
	}
	return name
}

// Registry returns the private registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
