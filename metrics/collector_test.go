package metrics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mirzoyan-dev/pdptw-alns/metrics"
)

func TestNilCollectorMethodsAreNoOps(t *testing.T) {
	var c *metrics.Collector
	assert.NotPanics(t, func() {
		c.IncIteration()
		c.ObserveAccept(metrics.OutcomeNewBest)
		c.SetObjective(1.0)
		c.SetFleetSize(3)
	})
	assert.Nil(t, c.Registry())
}

func TestNewCollectorRegistersMetrics(t *testing.T) {
	c := metrics.New()
	c.IncIteration()
	c.ObserveAccept(metrics.OutcomeImproving)
	c.SetObjective(42.0)
	c.SetFleetSize(5)

	families, err := c.Registry().Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, families)
}
