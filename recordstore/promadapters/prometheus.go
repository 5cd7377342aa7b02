// Package promadapters implements the recordstore metrics port on top of
// Prometheus. Metric vectors are created lazily on first use, keyed by metric
// name, with the label key set fixed at creation time.
package promadapters

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector implements recordstore.MetricsCollector backed by a Prometheus
// registerer. It is safe for concurrent use.
type Collector struct {
	registerer prometheus.Registerer

	mu         sync.Mutex
	histograms map[string]*prometheus.HistogramVec
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
}

// NewCollector creates a Collector registering its metrics with the given
// registerer. Passing nil falls back to the default registerer.
func NewCollector(registerer prometheus.Registerer) *Collector {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &Collector{
		registerer: registerer,
		histograms: make(map[string]*prometheus.HistogramVec),
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
	}
}

// RecordDuration observes a duration in seconds on a histogram named metric.
func (c *Collector) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	c.mu.Lock()
	histogram, ok := c.histograms[metric]
	if !ok {
		histogram = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: metric, Buckets: prometheus.DefBuckets},
			labelKeys(labels),
		)
		c.registerer.MustRegister(histogram)
		c.histograms[metric] = histogram
	}
	c.mu.Unlock()

	observer, err := histogram.GetMetricWith(prometheus.Labels(labels))
	if err != nil {
		return
	}

	observer.Observe(duration.Seconds())
}

// IncrementCounter increments a counter named metric by one.
func (c *Collector) IncrementCounter(metric string, labels map[string]string) {
	c.mu.Lock()
	counter, ok := c.counters[metric]
	if !ok {
		counter = prometheus.NewCounterVec(prometheus.CounterOpts{Name: metric}, labelKeys(labels))
		c.registerer.MustRegister(counter)
		c.counters[metric] = counter
	}
	c.mu.Unlock()

	child, err := counter.GetMetricWith(prometheus.Labels(labels))
	if err != nil {
		return
	}

	child.Inc()
}

// RecordValue sets a gauge named metric to the given value.
func (c *Collector) RecordValue(metric string, value float64, labels map[string]string) {
	c.mu.Lock()
	gauge, ok := c.gauges[metric]
	if !ok {
		gauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: metric}, labelKeys(labels))
		c.registerer.MustRegister(gauge)
		c.gauges[metric] = gauge
	}
	c.mu.Unlock()

	child, err := gauge.GetMetricWith(prometheus.Labels(labels))
	if err != nil {
		return
	}

	child.Set(value)
}

func labelKeys(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for key := range labels {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
