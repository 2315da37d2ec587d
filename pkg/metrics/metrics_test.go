package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_RegistersOnRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, "trials")

	m.RequestTotal.WithLabelValues("GET", "/api/v1/patients", "200").Inc()
	m.ObserveTransaction("commit", 0.01)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["trials_http_requests_total"])
	assert.True(t, names["trials_database_transactions_total"])
	assert.True(t, names["trials_database_transaction_duration_seconds"])
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DatabaseTransactions.WithLabelValues("commit")))
}

func TestObserveTransaction_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.ObserveTransaction("rollback", 1) })
}
