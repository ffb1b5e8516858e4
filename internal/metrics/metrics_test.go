package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewProm(reg)
	require.NoError(t, err)

	p.Dispatch(1)
	p.Dispatch(0)
	p.Dispatch(1)
	p.Transition("CLAIMED")
	p.Posting("commission", -30000)
	p.Posting("royalty", 15000)

	assert.Equal(t, 2.0, testutil.ToFloat64(p.dispatch.WithLabelValues("1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.dispatch.WithLabelValues("0")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.transitions.WithLabelValues("CLAIMED")))
	assert.Equal(t, 30000.0, testutil.ToFloat64(p.amounts.WithLabelValues("commission")))
	assert.Equal(t, 15000.0, testutil.ToFloat64(p.amounts.WithLabelValues("royalty")))
}

func TestNewPromReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewProm(reg)
	require.NoError(t, err)
	second, err := NewProm(reg)
	require.NoError(t, err)

	first.Transition("COMPLETED")
	assert.Equal(t, 1.0, testutil.ToFloat64(second.transitions.WithLabelValues("COMPLETED")))
}
