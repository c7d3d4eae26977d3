package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveHashed(256, 10*time.Millisecond)
	m.ObserveBlock(true)
	m.ObserveBlock(false)
	m.ObserveRun(ResultMismatch)

	assert.Equal(t, float64(256), testutil.ToFloat64(m.BlocksHashed))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.BlocksVerified))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.BlockMismatches))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Runs.WithLabelValues(ResultMismatch)))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.Runs.WithLabelValues(ResultVerified)))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveHashed(1, time.Second)
		m.ObserveBlock(false)
		m.ObserveRun(ResultError)
		require.NoError(t, m.WriteTextfile("/nonexistent/should-not-be-written.prom"))
	})
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := New()
	m.ObserveBlock(true)

	path := filepath.Join(t.TempDir(), "verity.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "verity_blocks_verified_total 1")
}
