// Package metrics exposes voxel store statistics to prometheus.
package metrics

import (
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	errTypeLabel = "error_type"
	sourceLabel  = "source"
)

// Source is the store being observed. Collect reads it on every scrape, so
// it must not be mutated concurrently with a scrape. Scrapes themselves are
// serialised, since Volume may refresh cached bounds.
type Source interface {
	Size() int
	MemoryUsage() int
	Volume() float64
	Resolution() float64
}

// Collector reports gauges for one Source and counts ray queries.
type Collector struct {
	mu     sync.Mutex
	source Source
	labels prometheus.Labels

	voxels     *prometheus.Desc
	memory     *prometheus.Desc
	volume     *prometheus.Desc
	resolution *prometheus.Desc

	rays        *prometheus.CounterVec
	rayErrors   *prometheus.CounterVec
	rayDuration *prometheus.HistogramVec
}

// NewCollector returns a collector for source. name is reported as the
// source label, so one registry can hold several stores.
func NewCollector(namespace, name string, source Source) *Collector {
	labels := prometheus.Labels{sourceLabel: name}
	desc := func(metric, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", metric), help, nil, labels)
	}

	return &Collector{
		source:     source,
		labels:     labels,
		voxels:     desc("voxels", "The number of stored voxels."),
		memory:     desc("memory_bytes", "The estimated memory held by the store."),
		volume:     desc("volume_cubic_meters", "The volume of the bounding box of all voxels."),
		resolution: desc("resolution_meters", "The voxel edge length."),

		rays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rays_total",
			Help:      "The number of traversed rays.",
		}, []string{sourceLabel}),

		rayErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ray_errors_total",
			Help:      "The errors that occured while traversing a ray.",
		}, []string{sourceLabel, errTypeLabel}),

		rayDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ray_duration_seconds",
			Help:      "The time to traverse a ray.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{sourceLabel}),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.voxels
	ch <- c.memory
	ch <- c.volume
	ch <- c.resolution
	c.rays.Describe(ch)
	c.rayErrors.Describe(ch)
	c.rayDuration.Describe(ch)
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	size := c.source.Size()
	memory := c.source.MemoryUsage()
	volume := c.source.Volume()
	resolution := c.source.Resolution()
	c.mu.Unlock()

	ch <- prometheus.MustNewConstMetric(c.voxels, prometheus.GaugeValue, float64(size))
	ch <- prometheus.MustNewConstMetric(c.memory, prometheus.GaugeValue, float64(memory))
	ch <- prometheus.MustNewConstMetric(c.volume, prometheus.GaugeValue, volume)
	ch <- prometheus.MustNewConstMetric(c.resolution, prometheus.GaugeValue, resolution)
	c.rays.Collect(ch)
	c.rayErrors.Collect(ch)
	c.rayDuration.Collect(ch)
}

// ObserveRay records one ray traversal that started at start and ended with
// err.
func (c *Collector) ObserveRay(start time.Time, err error) {
	c.rays.With(c.labels).Inc()
	c.rayDuration.With(c.labels).Observe(time.Since(start).Seconds())
	if err != nil {
		c.rayErrors.
			With(prometheus.Labels{
				sourceLabel:  c.labels[sourceLabel],
				errTypeLabel: errors.Type(err),
			}).
			Inc()
	}
}
