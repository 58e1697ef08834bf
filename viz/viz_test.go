package viz_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirzoyan-dev/pdptw-alns/instance"
	"github.com/mirzoyan-dev/pdptw-alns/params"
	"github.com/mirzoyan-dev/pdptw-alns/solution"
	"github.com/mirzoyan-dev/pdptw-alns/viz"
)

func buildPlottableInstance(t *testing.T) (*instance.Meta, *solution.Solution) {
	t.Helper()
	p := params.Default()
	m := instance.NewMeta(p)
	require.NoError(t, m.AddNode(instance.Node{ID: 0, LatestService: 10000}))
	require.NoError(t, m.AddNode(instance.Node{ID: 1, LatestService: 10000}))
	require.NoError(t, m.AddVehicle(instance.Vehicle{ID: 0, Capacity: 100, Velocity: 1, StartDepotID: 0, EndDepotID: 1}))
	require.NoError(t, m.AddNode(instance.Node{ID: 2, X: 3, LatestService: 10000, Load: 5}))
	require.NoError(t, m.AddNode(instance.Node{ID: 3, X: 6, LatestService: 10000, Load: -5}))
	require.NoError(t, m.AddRequest(instance.Request{ID: 0, PickNodeID: 2, DeliveryNodeID: 3, RequiredCapacity: 5}))

	s := solution.New(m)
	out, err := s.InsertOptimalIntoVehicle(0, 0)
	require.NoError(t, err)
	require.True(t, out.Feasible)
	return m, s
}

func TestRenderRoutesProducesHTML(t *testing.T) {
	m, s := buildPlottableInstance(t)
	var buf bytes.Buffer
	require.NoError(t, viz.RenderRoutes(&buf, m, s))
	assert.True(t, strings.Contains(buf.String(), "<html>") || strings.Contains(buf.String(), "<!DOCTYPE html>"))
}

func TestRenderRoutesRejectsEmptySolution(t *testing.T) {
	m := instance.NewMeta(params.Default())
	s := solution.New(m)
	var buf bytes.Buffer
	err := viz.RenderRoutes(&buf, m, s)
	require.Error(t, err)
}

func TestRenderConvergenceProducesHTML(t *testing.T) {
	trace := []viz.ConvergencePoint{{Iteration: 0, Objective: 100}, {Iteration: 1, Objective: 90}}
	var buf bytes.Buffer
	require.NoError(t, viz.RenderConvergence(&buf, trace))
	assert.True(t, strings.Contains(buf.String(), "<html>") || strings.Contains(buf.String(), "<!DOCTYPE html>"))
}

func TestRenderConvergenceRejectsEmptyTrace(t *testing.T) {
	var buf bytes.Buffer
	err := viz.RenderConvergence(&buf, nil)
	require.Error(t, err)
}
