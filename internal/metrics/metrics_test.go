package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { RegisterCollectors(reg) })

	Reconciliations.WithLabelValues("consecutive").Inc()
	NewsCache.WithLabelValues("hit").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["editorialchain_reconciliations_total"])
	assert.True(t, names["editorialchain_news_cache_total"])
}

func TestRegisterCollectors_Twice(t *testing.T) {
	reg := prometheus.NewRegistry()
	RegisterCollectors(reg)
	assert.Panics(t, func() { RegisterCollectors(reg) }, "MustRegister rejects duplicates")
}
