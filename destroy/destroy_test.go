package destroy_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirzoyan-dev/pdptw-alns/destroy"
	"github.com/mirzoyan-dev/pdptw-alns/instance"
	"github.com/mirzoyan-dev/pdptw-alns/params"
	"github.com/mirzoyan-dev/pdptw-alns/solution"
)

// buildRoutedInstance wires one vehicle carrying three already-inserted
// requests, so destroy operators have something to remove.
func buildRoutedInstance(t *testing.T) (*instance.Meta, *solution.Solution) {
	t.Helper()
	p := params.Default()
	m := instance.NewMeta(p)

	require.NoError(t, m.AddNode(instance.Node{ID: 0, LatestService: 10000}))
	require.NoError(t, m.AddNode(instance.Node{ID: 1, LatestService: 10000}))
	require.NoError(t, m.AddVehicle(instance.Vehicle{ID: 0, Capacity: 100, Velocity: 1, StartDepotID: 0, EndDepotID: 1}))

	nodeID := 2
	for r := 0; r < 3; r++ {
		pick := nodeID
		deliv := nodeID + 1
		nodeID += 2
		require.NoError(t, m.AddNode(instance.Node{ID: pick, X: float64(pick), LatestService: 10000, Load: 5}))
		require.NoError(t, m.AddNode(instance.Node{ID: deliv, X: float64(deliv), LatestService: 10000, Load: -5}))
		require.NoError(t, m.AddRequest(instance.Request{ID: r, PickNodeID: pick, DeliveryNodeID: deliv, RequiredCapacity: 5}))
	}

	s := solution.New(m)
	for r := 0; r < 3; r++ {
		out, err := s.InsertOptimalIntoVehicle(r, 0)
		require.NoError(t, err)
		require.True(t, out.Feasible)
	}
	return m, s
}

func TestRandomRemovesExactlyQ(t *testing.T) {
	m, s := buildRoutedInstance(t)
	rng := rand.New(rand.NewSource(1))
	require.NoError(t, destroy.Random(rng, m, s, 2))
	assert.Len(t, s.RequestBankIDs(), 2)
	assert.Len(t, s.AssignedRequestIDs(), 1)
}

func TestRandomClampsToAvailable(t *testing.T) {
	m, s := buildRoutedInstance(t)
	rng := rand.New(rand.NewSource(1))
	require.NoError(t, destroy.Random(rng, m, s, 100))
	assert.Len(t, s.RequestBankIDs(), 3)
}

func TestWorstRemovesExactlyQ(t *testing.T) {
	m, s := buildRoutedInstance(t)
	rng := rand.New(rand.NewSource(7))
	require.NoError(t, destroy.Worst(rng, m, s, 2))
	assert.Len(t, s.RequestBankIDs(), 2)
}

func TestShawRemovesExactlyQ(t *testing.T) {
	m, s := buildRoutedInstance(t)
	rng := rand.New(rand.NewSource(42))
	require.NoError(t, destroy.Shaw(rng, m, s, 2))
	assert.Len(t, s.RequestBankIDs(), 2)
}

func TestShawIsDeterministicForFixedSeed(t *testing.T) {
	m1, s1 := buildRoutedInstance(t)
	m2, s2 := buildRoutedInstance(t)

	rng1 := rand.New(rand.NewSource(123))
	rng2 := rand.New(rand.NewSource(123))

	require.NoError(t, destroy.Shaw(rng1, m1, s1, 2))
	require.NoError(t, destroy.Shaw(rng2, m2, s2, 2))

	assert.Equal(t, s1.RequestBankIDs(), s2.RequestBankIDs())
}
