package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func TestObserveBuild(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveBuild(20*time.Millisecond, 85, 3)

	fams := gather(t, reg)
	assert.Equal(t, 85.0, fams["terrain_nodes"].GetMetric()[0].GetGauge().GetValue())
	assert.Equal(t, 3.0, fams["terrain_depth"].GetMetric()[0].GetGauge().GetValue())
	h := fams["terrain_build_seconds"].GetMetric()[0].GetHistogram()
	assert.Equal(t, uint64(1), h.GetSampleCount())
	assert.InDelta(t, 0.02, h.GetSampleSum(), 1e-9)
}

func TestObserveFrame(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveFrame(Frame{Mode: "instanced", Visited: 10, Culled: 4, Patches: 6, DrawCalls: 3})
	m.ObserveFrame(Frame{Mode: "instanced", Visited: 8, Culled: 1, Patches: 5, DrawCalls: 2})

	fams := gather(t, reg)
	assert.Equal(t, 5.0, fams["terrain_patches"].GetMetric()[0].GetGauge().GetValue())
	assert.Equal(t, 5.0, fams["terrain_nodes_culled_total"].GetMetric()[0].GetCounter().GetValue())
	assert.Equal(t, 18.0, fams["terrain_nodes_visited_total"].GetMetric()[0].GetCounter().GetValue())
	assert.Equal(t, 2.0, fams["terrain_frames_total"].GetMetric()[0].GetCounter().GetValue())

	calls := fams["terrain_draw_calls"].GetMetric()
	require.Len(t, calls, 1)
	assert.Equal(t, "instanced", calls[0].GetLabel()[0].GetValue())
	assert.Equal(t, 2.0, calls[0].GetGauge().GetValue())
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg).ObserveBuild(time.Millisecond, 5, 1)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	res, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "terrain_nodes 5"), string(body))

	health, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}
