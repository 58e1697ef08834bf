package alns_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/klog/v2"

	"github.com/mirzoyan-dev/pdptw-alns/alns"
	"github.com/mirzoyan-dev/pdptw-alns/instance"
	"github.com/mirzoyan-dev/pdptw-alns/params"
	"github.com/mirzoyan-dev/pdptw-alns/solution"
)

func buildRunnableInstance(t *testing.T) *instance.Meta {
	t.Helper()
	p, err := params.New(params.Default(), params.WithSegmentNum(5), params.WithRemoveBounds(4, 1))
	require.NoError(t, err)
	m := instance.NewMeta(p)

	require.NoError(t, m.AddNode(instance.Node{ID: 0, LatestService: 100000}))
	require.NoError(t, m.AddNode(instance.Node{ID: 1, LatestService: 100000}))
	require.NoError(t, m.AddVehicle(instance.Vehicle{ID: 0, Capacity: 100, Velocity: 1, StartDepotID: 0, EndDepotID: 1}))

	require.NoError(t, m.AddNode(instance.Node{ID: 2, LatestService: 100000}))
	require.NoError(t, m.AddNode(instance.Node{ID: 3, LatestService: 100000}))
	require.NoError(t, m.AddVehicle(instance.Vehicle{ID: 1, Capacity: 100, Velocity: 1, StartDepotID: 2, EndDepotID: 3}))

	nodeID := 4
	for r := 0; r < 6; r++ {
		pick, deliv := nodeID, nodeID+1
		nodeID += 2
		require.NoError(t, m.AddNode(instance.Node{ID: pick, X: float64(pick), LatestService: 100000, Load: 5}))
		require.NoError(t, m.AddNode(instance.Node{ID: deliv, X: float64(deliv), LatestService: 100000, Load: -5}))
		require.NoError(t, m.AddRequest(instance.Request{ID: r, PickNodeID: pick, DeliveryNodeID: deliv, RequiredCapacity: 5}))
	}
	return m
}

func seededSolution(t *testing.T, m *instance.Meta) *solution.Solution {
	t.Helper()
	s := solution.New(m)
	for _, id := range m.RequestIDs() {
		ok, _, err := s.InsertOptimalIntoAny(id)
		require.NoError(t, err)
		require.True(t, ok)
	}
	return s
}

func TestSeedRejectsNonPositiveObjective(t *testing.T) {
	m := buildRunnableInstance(t)
	s := solution.New(m)
	e := alns.New(m, 1, klog.Background(), nil)
	err := e.Seed(s)
	require.Error(t, err)
}

func TestRunBudgetRunsExactlyRequestedIterations(t *testing.T) {
	m := buildRunnableInstance(t)
	s := seededSolution(t, m)

	e := alns.New(m, 42, klog.Background(), nil)
	require.NoError(t, e.Seed(s))

	ran, err := e.RunBudget(20, false)
	require.NoError(t, err)
	assert.Equal(t, 20, ran)
	assert.NotNil(t, e.Best())
	assert.GreaterOrEqual(t, e.Current().Objective(), 0.0)
}

func TestRunBudgetStopsEarlyWhenAllAssigned(t *testing.T) {
	m := buildRunnableInstance(t)
	s := seededSolution(t, m)

	e := alns.New(m, 7, klog.Background(), nil)
	require.NoError(t, e.Seed(s))

	ran, err := e.RunBudget(20, true)
	require.NoError(t, err)
	assert.Empty(t, e.Best().RequestBankIDs())
	assert.LessOrEqual(t, ran, 20)
}

func TestRunBudgetIsDeterministicForFixedSeed(t *testing.T) {
	m1 := buildRunnableInstance(t)
	s1 := seededSolution(t, m1)
	e1 := alns.New(m1, 99, klog.Background(), nil)
	require.NoError(t, e1.Seed(s1))
	_, err := e1.RunBudget(30, false)
	require.NoError(t, err)

	m2 := buildRunnableInstance(t)
	s2 := seededSolution(t, m2)
	e2 := alns.New(m2, 99, klog.Background(), nil)
	require.NoError(t, e2.Seed(s2))
	_, err = e2.RunBudget(30, false)
	require.NoError(t, err)

	assert.Equal(t, e1.Best().Fingerprint(), e2.Best().Fingerprint())
	assert.Equal(t, e1.Best().Objective(), e2.Best().Objective())
}
