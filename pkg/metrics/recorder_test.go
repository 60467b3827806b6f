package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewPrometheusRecorder(reg)

	rec.IncTruncated()
	rec.IncTruncated()
	rec.IncResult("success")
	rec.IncResult("generation_error")
	rec.IncResult("success")
	rec.ObserveGeneration(250*time.Millisecond, NewTokenUsage(512, 64))

	require.Equal(t, 2.0, testutil.ToFloat64(rec.truncated))
	require.Equal(t, 2.0, testutil.ToFloat64(rec.results.WithLabelValues("success")))
	require.Equal(t, 1.0, testutil.ToFloat64(rec.results.WithLabelValues("generation_error")))
	require.Equal(t, 1, testutil.CollectAndCount(rec.outputTokens))
}

func TestNewTokenUsage(t *testing.T) {
	usage := NewTokenUsage(10, 5)
	require.Equal(t, 15, usage.TotalTokens)
	require.False(t, usage.IsZero())
	require.True(t, TokenUsage{}.IsZero())
}
