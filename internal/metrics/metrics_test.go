package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Recording(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.FetchSettled(nil)
	m.FetchSettled(errors.New("boom"))
	m.FetchSettled(nil)
	m.FetchDiscarded()
	m.ExportDone(-1, nil)
	m.ExportDone(2048, nil)
	m.ExportDone(0, errors.New("disk full"))
	m.ClearPhase("requested")
	m.ClearPhase("confirmed")
	m.PaletteOpened()
	m.ProjectCreated(nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DirectoryFetches.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DirectoryFetches.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StaleDiscards))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Exports.WithLabelValues("empty")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Exports.WithLabelValues("saved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Exports.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Clears.WithLabelValues("confirmed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PaletteOpens))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProjectsNew.WithLabelValues("ok")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.FetchSettled(nil)
		m.FetchDiscarded()
		m.ExportDone(10, nil)
		m.ClearPhase("requested")
		m.PaletteOpened()
		m.ProjectCreated(errors.New("x"))
	})
}

func TestDefault_IsSingleton(t *testing.T) {
	assert.Same(t, Default(), Default())
}
