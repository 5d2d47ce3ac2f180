package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.LinesScanned.Add(3)
	m.Attempts.WithLabelValues("invalid_user").Inc()
	m.LinesSkipped.WithLabelValues(ReasonDate).Inc()
	m.LinesSkipped.WithLabelValues(ReasonUnrecognized).Add(2)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.LinesScanned))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Attempts.WithLabelValues("invalid_user")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LinesSkipped.WithLabelValues(ReasonUnrecognized)))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := New()
	m.LinesScanned.Add(10)
	m.GeoLookups.WithLabelValues(ResultResolved).Add(4)

	path := filepath.Join(t.TempDir(), "authviz.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "authviz_lines_scanned_total 10")
	assert.Contains(t, string(data), `authviz_geo_lookups_total{result="resolved"} 4`)
}

func TestMetrics_WriteTextfile_BadDir(t *testing.T) {
	m := New()
	err := m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "authviz.prom"))
	assert.Error(t, err)
}
