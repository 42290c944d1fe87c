package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/ride-height-service/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in       string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.in))
		})
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn", "json")

	logger.Info("dropped")
	logger.Warn("kept", "attraction", "Python")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, "Python", line["attraction"])
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "info", "text").Info("hello", "cycle", "scrape")

	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "cycle=scrape")
}

func TestNewCLILogger_AlwaysText(t *testing.T) {
	var buf bytes.Buffer
	NewCLILogger(&buf, &config.Config{LogLevel: "debug", LogFormat: "json"}).Debug("fetched", "url", "https://park.test")

	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "msg=fetched")
}

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.Cycles.WithLabelValues("scrape", "success").Inc()

	assert.InDelta(t, 1, counterValue(t, a.Cycles.WithLabelValues("scrape", "success")), 0)
	assert.InDelta(t, 0, counterValue(t, b.Cycles.WithLabelValues("scrape", "success")), 0)

	reg := prometheus.NewRegistry()
	assert.NotPanics(t, func() {
		reg.MustRegister(a.Cycles, a.HeightCache, a.PipelineRunning)
	})
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}
