// Package metrics 汇总哈希和校验的 Prometheus 指标
// 使用独立的 Registry，不污染全局默认注册表；CLI 可以把它写成 textfile 给 node_exporter 采集。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "verity"

// 校验运行的结果标签
const (
	ResultVerified = "verified"
	ResultMismatch = "mismatch"
	ResultError    = "error"
)

type Metrics struct {
	BlocksHashed    prometheus.Counter
	BlocksVerified  prometheus.Counter
	BlockMismatches prometheus.Counter
	Runs            *prometheus.CounterVec
	HashDuration    prometheus.Histogram

	registry *prometheus.Registry
}

func New() *Metrics {
	m := &Metrics{
		BlocksHashed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_hashed_total",
			Help:      "Number of data blocks hashed while generating manifests.",
		}),
		BlocksVerified: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_verified_total",
			Help:      "Number of blocks compared against their manifest digest.",
		}),
		BlockMismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "block_mismatches_total",
			Help:      "Number of blocks whose digest did not match the manifest.",
		}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verification_runs_total",
			Help:      "Whole-file verification runs by result.",
		}, []string{"result"}),
		HashDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "hash_duration_seconds",
			Help:      "Time spent computing block digests for a whole file.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(m.BlocksHashed, m.BlocksVerified, m.BlockMismatches, m.Runs, m.HashDuration)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// 下面的方法都允许 nil 接收者，调用方不需要判断是否启用了指标

func (m *Metrics) ObserveHashed(blocks int, d time.Duration) {
	if m == nil {
		return
	}
	m.BlocksHashed.Add(float64(blocks))
	m.HashDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveBlock(ok bool) {
	if m == nil {
		return
	}
	m.BlocksVerified.Inc()
	if !ok {
		m.BlockMismatches.Inc()
	}
}

func (m *Metrics) ObserveRun(result string) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(result).Inc()
}

// WriteTextfile 以 Prometheus 文本格式原子写出当前指标
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
