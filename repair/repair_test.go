package repair_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirzoyan-dev/pdptw-alns/instance"
	"github.com/mirzoyan-dev/pdptw-alns/params"
	"github.com/mirzoyan-dev/pdptw-alns/repair"
	"github.com/mirzoyan-dev/pdptw-alns/solution"
)

func buildBankedInstance(t *testing.T) (*instance.Meta, *solution.Solution) {
	t.Helper()
	p := params.Default()
	m := instance.NewMeta(p)

	require.NoError(t, m.AddNode(instance.Node{ID: 0, LatestService: 10000}))
	require.NoError(t, m.AddNode(instance.Node{ID: 1, LatestService: 10000}))
	require.NoError(t, m.AddVehicle(instance.Vehicle{ID: 0, Capacity: 100, Velocity: 1, StartDepotID: 0, EndDepotID: 1}))

	nodeID := 2
	for r := 0; r < 3; r++ {
		pick, deliv := nodeID, nodeID+1
		nodeID += 2
		require.NoError(t, m.AddNode(instance.Node{ID: pick, X: float64(pick), LatestService: 10000, Load: 5}))
		require.NoError(t, m.AddNode(instance.Node{ID: deliv, X: float64(deliv), LatestService: 10000, Load: -5}))
		require.NoError(t, m.AddRequest(instance.Request{ID: r, PickNodeID: pick, DeliveryNodeID: deliv, RequiredCapacity: 5}))
	}

	return m, solution.New(m)
}

func TestBuildCostTableCoversEveryBankedRequest(t *testing.T) {
	m, s := buildBankedInstance(t)
	table, err := repair.Build(m, s)
	require.NoError(t, err)
	assert.Len(t, table, 3)
	for _, row := range table {
		assert.Contains(t, row, 0)
		assert.Less(t, row[0], repair.Unlimited)
	}
}

func TestGreedyDrainsBank(t *testing.T) {
	m, s := buildBankedInstance(t)
	table, err := repair.Build(m, s)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	n, err := repair.Greedy(m, s, table, 3, repair.NoNoise, rng)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Empty(t, s.RequestBankIDs())
}

func TestRegretKDrainsBank(t *testing.T) {
	m, s := buildBankedInstance(t)
	table, err := repair.Build(m, s)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	n, err := repair.RegretK(m, s, table, 1, 3, repair.NoNoise, rng)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Empty(t, s.RequestBankIDs())
}

func TestRegretKSkipsRequestsBelowFeasibleThreshold(t *testing.T) {
	m, s := buildBankedInstance(t)
	table, err := repair.Build(m, s)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	// Only one vehicle exists, so k=2 has no request with >=2 feasible
	// vehicle costs: every row is skipped and nothing is inserted.
	n, err := repair.RegretK(m, s, table, 2, 3, repair.NoNoise, rng)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Len(t, s.RequestBankIDs(), 3)
}

func TestNoisyKeepsUnlimitedUnchanged(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	noise := repair.Noisy(0.1, 100)
	assert.Equal(t, repair.Unlimited, noise(rng, repair.Unlimited))
}

func TestNoisyPerturbsFeasibleCostWithinBound(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	noise := repair.Noisy(0.1, 100)
	for i := 0; i < 20; i++ {
		c := noise(rng, 50)
		assert.GreaterOrEqual(t, c, 0.0)
		assert.LessOrEqual(t, c, 50.0+0.1*100)
	}
}
