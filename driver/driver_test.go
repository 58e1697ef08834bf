package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/klog/v2"

	"github.com/mirzoyan-dev/pdptw-alns/instance"
	"github.com/mirzoyan-dev/pdptw-alns/params"
	"github.com/mirzoyan-dev/pdptw-alns/pdperr"
	"github.com/mirzoyan-dev/pdptw-alns/solution"
)

// buildGrowthInstance wires one vehicle and three requests whose pickup
// windows are each exactly one hop from the depot: combining any two on a
// single vehicle always blows the second pickup's deadline, so Phase A must
// clone the reference vehicle twice before every request can be placed
// (spec.md §4.6 scenario S4), even though every request stays compatible
// with every vehicle throughout.
func buildGrowthInstance(t *testing.T) *instance.Meta {
	t.Helper()
	p := params.Default()
	m := instance.NewMeta(p)

	require.NoError(t, m.AddNode(instance.Node{ID: 0, LatestService: 100000}))
	require.NoError(t, m.AddNode(instance.Node{ID: 1, LatestService: 100000}))
	require.NoError(t, m.AddVehicle(instance.Vehicle{ID: 0, Capacity: 100, Velocity: 1, StartDepotID: 0, EndDepotID: 1}))

	require.NoError(t, m.SetDepotTemplate(instance.Node{LatestService: 100000}))
	require.NoError(t, m.SetReferenceVehicleKind(100, 1))

	coords := [][2]float64{{1, 0}, {0, 1}, {0, -1}}
	delivCoords := [][2]float64{{5, 0}, {0, 5}, {0, -5}}
	nodeID := 2
	for r := 0; r < 3; r++ {
		pick, deliv := nodeID, nodeID+1
		nodeID += 2
		require.NoError(t, m.AddNode(instance.Node{ID: pick, X: coords[r][0], Y: coords[r][1], LatestService: 1, Load: 5}))
		require.NoError(t, m.AddNode(instance.Node{ID: deliv, X: delivCoords[r][0], Y: delivCoords[r][1], LatestService: 100000, Load: -5}))
		require.NoError(t, m.AddRequest(instance.Request{ID: r, PickNodeID: pick, DeliveryNodeID: deliv, RequiredCapacity: 5}))
	}
	return m
}

func TestPhaseAGrowsFleetForMutuallyIncompatibleRequests(t *testing.T) {
	m := buildGrowthInstance(t)
	d := New(m, 1, klog.Background(), nil)

	s, err := d.phaseA()
	require.NoError(t, err)
	assert.Empty(t, s.RequestBankIDs())
	assert.Len(t, m.VehicleIDs(), 3)
}

func TestPhaseAFailsWhenRequestIsNeverReachable(t *testing.T) {
	p := params.Default()
	m := instance.NewMeta(p)
	require.NoError(t, m.AddNode(instance.Node{ID: 0, LatestService: 100000}))
	require.NoError(t, m.AddNode(instance.Node{ID: 1, LatestService: 100000}))
	require.NoError(t, m.AddVehicle(instance.Vehicle{ID: 0, Capacity: 100, Velocity: 1, StartDepotID: 0, EndDepotID: 1}))
	// pick is 100 units away but its window closes at t=1: no vehicle,
	// however many are cloned from the depot-at-origin template, can ever
	// reach it in time.
	require.NoError(t, m.AddNode(instance.Node{ID: 2, X: 100, LatestService: 1, Load: 5}))
	require.NoError(t, m.AddNode(instance.Node{ID: 3, X: 101, LatestService: 100000, Load: -5}))
	require.NoError(t, m.AddRequest(instance.Request{ID: 0, PickNodeID: 2, DeliveryNodeID: 3, RequiredCapacity: 5}))
	require.NoError(t, m.SetDepotTemplate(instance.Node{LatestService: 100000}))
	require.NoError(t, m.SetReferenceVehicleKind(100, 1))

	d := New(m, 1, klog.Background(), nil)
	_, err := d.phaseA()
	require.Error(t, err)
}

// buildShrinkScenario wires two vehicles and two requests: request 0 is
// forced onto the higher-id vehicle (the one Phase B's shrink loop deletes
// first) while the lower-id vehicle sits idle; request 1 is permanently
// unreachable (its pickup window closes long before any vehicle, however
// many hops away, could ever arrive). This reproduces the exact shape the
// max-id-deletion loop must survive: deleting the vehicle that holds the
// only active route while a lower-id vehicle is idle, and a bank that can
// never be fully emptied no matter how much ALNS budget remains.
func buildShrinkScenario(t *testing.T) (*instance.Meta, *solution.Solution) {
	t.Helper()
	p, err := params.New(params.Default(),
		params.WithTwoStageBudgets(50, 10),
		params.WithRemoveBounds(2, 1),
		params.WithEpsilon(1.0),
		params.WithSegmentNum(5),
	)
	require.NoError(t, err)
	m := instance.NewMeta(p)

	require.NoError(t, m.AddNode(instance.Node{ID: 0, LatestService: 100000}))
	require.NoError(t, m.AddNode(instance.Node{ID: 1, LatestService: 100000}))
	require.NoError(t, m.AddVehicle(instance.Vehicle{ID: 0, Capacity: 100, Velocity: 1, StartDepotID: 0, EndDepotID: 1}))

	require.NoError(t, m.AddNode(instance.Node{ID: 2, LatestService: 100000}))
	require.NoError(t, m.AddNode(instance.Node{ID: 3, LatestService: 100000}))
	require.NoError(t, m.AddVehicle(instance.Vehicle{ID: 1, Capacity: 100, Velocity: 1, StartDepotID: 2, EndDepotID: 3}))

	require.NoError(t, m.AddNode(instance.Node{ID: 4, X: 1, LatestService: 100000, Load: 5}))
	require.NoError(t, m.AddNode(instance.Node{ID: 5, X: 2, LatestService: 100000, Load: -5}))
	require.NoError(t, m.AddRequest(instance.Request{ID: 0, PickNodeID: 4, DeliveryNodeID: 5, RequiredCapacity: 5}))

	require.NoError(t, m.AddNode(instance.Node{ID: 6, X: 1000, LatestService: 1, Load: 5}))
	require.NoError(t, m.AddNode(instance.Node{ID: 7, X: 1001, LatestService: 100000, Load: -5}))
	require.NoError(t, m.AddRequest(instance.Request{ID: 1, PickNodeID: 6, DeliveryNodeID: 7, RequiredCapacity: 5}))

	s := solution.New(m)
	out, err := s.InsertOptimalIntoVehicle(0, 1)
	require.NoError(t, err)
	require.True(t, out.Feasible)

	return m, s
}

func TestPhaseBSurvivesDeletingTheOnlyActivelyRoutedVehicle(t *testing.T) {
	m, s := buildShrinkScenario(t)
	d := New(m, 1, klog.Background(), nil)

	best, err := d.phaseB(s)
	require.NoError(t, err)
	require.NotNil(t, best)

	assert.Error(t, d.Warning())
	assert.True(t, pdperr.IsAlgorithmWarning(d.Warning()))
	assert.NotEmpty(t, d.ConvergenceTrace())
}
