package status

import (
	"strings"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "spotglobe"

// Collector exposes a Registry to Prometheus
// Ints and Floats map to gauges, Bools to 0/1 gauges, Strings to an info gauge with a value label
type Collector struct {
	reg  *Registry
	info *prometheus.Desc
}

// NewCollector wraps reg for prometheus.Register
func NewCollector(reg *Registry) *Collector {
	return &Collector{
		reg: reg,
		info: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "label_info"),
			"String status values",
			[]string{"key", "value"}, nil,
		),
	}
}

// Describe sends no fixed descriptors, the metric set grows at runtime
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {}

// Collect snapshots every registered metric
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.reg.Ints.Range(func(key string, v *atomic.Int64) {
		ch <- prometheus.MustNewConstMetric(c.desc(key), prometheus.GaugeValue, float64(v.Load()))
	})
	c.reg.Floats.Range(func(key string, v *AtomicFloat) {
		ch <- prometheus.MustNewConstMetric(c.desc(key), prometheus.GaugeValue, v.Get())
	})
	c.reg.Bools.Range(func(key string, v *atomic.Bool) {
		val := 0.0
		if v.Load() {
			val = 1
		}
		ch <- prometheus.MustNewConstMetric(c.desc(key), prometheus.GaugeValue, val)
	})
	c.reg.Strings.Range(func(key string, v *AtomicString) {
		ch <- prometheus.MustNewConstMetric(c.info, prometheus.GaugeValue, 1, key, v.Load())
	})
}

func (c *Collector) desc(key string) *prometheus.Desc {
	return prometheus.NewDesc(MetricName(key), "spotglobe status "+key, nil, nil)
}

// MetricName converts a dotted registry key to a Prometheus name
func MetricName(key string) string {
	return prometheus.BuildFQName(namespace, "", strings.NewReplacer(".", "_", "-", "_").Replace(key))
}
