package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDisabledIsNoop(t *testing.T) {
	m := New(false)
	_, ok := m.(*noopMetrics)
	require.True(t, ok)

	m.IncCaptures("ok")
	m.TrackSnapshots(func() int { return 1 })

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProviderCounts(t *testing.T) {
	p := New(true).(*Provider)

	p.IncCaptures("ok")
	p.IncCaptures("ok")
	p.IncCaptures("error")
	p.IncRestores("ok")
	p.IncDeletes()
	p.IncElementFailures("text")
	p.ObserveCaptureDuration(20 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(p.captures.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.captures.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.restores.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.deletes))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.elementFailures.WithLabelValues("text")))
}

func TestProvidersDoNotShareRegistry(t *testing.T) {
	a := New(true)
	b := New(true)
	a.TrackSnapshots(func() int { return 3 })
	b.TrackSnapshots(func() int { return 5 })

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "canvas_snap_snapshots 3")
}
