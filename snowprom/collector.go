// Package snowprom exports the counters embedded in a snowflake.Generator
// as Prometheus metrics.
//
// The generator itself never logs or pushes anything; this package pulls a
// Metrics snapshot on every scrape, so registering a Collector adds no cost
// to the generation hot path.
//
//	gen, _ := snowflake.New(workerID)
//	prometheus.MustRegister(snowprom.NewCollector(gen))
package snowprom

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/alasdairpan/snowflake"
)

// Collector implements prometheus.Collector over one generator. All metrics
// carry a "worker" label so several generators can share a registry.
type Collector struct {
	gen *snowflake.Generator

	generated        *prometheus.Desc
	backwardsDrift   *prometheus.Desc
	epochExhausted   *prometheus.Desc
	sequenceOverflow *prometheus.Desc
	waitTime         *prometheus.Desc
}

// NewCollector builds a Collector for gen.
func NewCollector(gen *snowflake.Generator) *Collector {
	labels := prometheus.Labels{"worker": strconv.FormatInt(gen.WorkerID(), 10)}
	return &Collector{
		gen: gen,
		generated: prometheus.NewDesc(
			"snowflake_ids_generated_total",
			"IDs successfully generated.",
			nil, labels),
		backwardsDrift: prometheus.NewDesc(
			"snowflake_clock_backwards_errors_total",
			"Generate calls failed because the clock moved backwards.",
			nil, labels),
		epochExhausted: prometheus.NewDesc(
			"snowflake_epoch_exhausted_errors_total",
			"Generate calls failed because the timestamp field overflowed.",
			nil, labels),
		sequenceOverflow: prometheus.NewDesc(
			"snowflake_sequence_overflow_total",
			"Waits for the next millisecond after exhausting the sequence.",
			nil, labels),
		waitTime: prometheus.NewDesc(
			"snowflake_wait_time_microseconds_total",
			"Total time spent waiting for the clock to advance.",
			nil, labels),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.generated
	ch <- c.backwardsDrift
	ch <- c.epochExhausted
	ch <- c.sequenceOverflow
	ch <- c.waitTime
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	m := c.gen.Metrics()
	ch <- prometheus.MustNewConstMetric(c.generated, prometheus.CounterValue, float64(m.Generated))
	ch <- prometheus.MustNewConstMetric(c.backwardsDrift, prometheus.CounterValue, float64(m.BackwardsDrift))
	ch <- prometheus.MustNewConstMetric(c.epochExhausted, prometheus.CounterValue, float64(m.EpochExhausted))
	ch <- prometheus.MustNewConstMetric(c.sequenceOverflow, prometheus.CounterValue, float64(m.SequenceOverflow))
	ch <- prometheus.MustNewConstMetric(c.waitTime, prometheus.CounterValue, float64(m.WaitTimeUs))
}
