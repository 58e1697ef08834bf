package litformat_test

import (
	"bytes"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirzoyan-dev/pdptw-alns/litformat"
	"github.com/mirzoyan-dev/pdptw-alns/solution"
)

const sample = `2	100	1
0	0	0	0	0	100000	0	0	0
1	10	0	5	0	100000	0	0	2
2	20	0	-5	0	100000	0	1	0
3	0	10	8	0	100000	0	0	4
4	0	20	-8	0	100000	0	3	0
`

func TestReadLiLimParsesVehiclesAndRequests(t *testing.T) {
	m, err := litformat.ReadLiLim(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Len(t, m.VehicleIDs(), 2)
	assert.Len(t, m.RequestIDs(), 2)

	for _, rid := range m.RequestIDs() {
		req, ok := m.Request(rid)
		require.True(t, ok)
		pick, ok := m.Node(req.PickNodeID)
		require.True(t, ok)
		deliv, ok := m.Node(req.DeliveryNodeID)
		require.True(t, ok)
		assert.Greater(t, pick.Load, 0.0)
		assert.Less(t, deliv.Load, 0.0)
	}
}

func TestReadLiLimRejectsNonZeroDepotID(t *testing.T) {
	bad := strings.Replace(sample, "\n0\t0\t0\t0\t0\t100000\t0\t0\t0\n", "\n5\t0\t0\t0\t0\t100000\t0\t0\t0\n", 1)
	_, err := litformat.ReadLiLim(strings.NewReader(bad))
	require.Error(t, err)
}

func TestReadLiLimRejectsMismatchedDemandMagnitudes(t *testing.T) {
	bad := strings.Replace(sample, "2\t20\t0\t-5\t0\t100000\t0\t1\t0", "2\t20\t0\t-9\t0\t100000\t0\t1\t0", 1)
	_, err := litformat.ReadLiLim(strings.NewReader(bad))
	require.Error(t, err)
}

func TestWriteLiLimRoundTripsVehicleAndRequestCounts(t *testing.T) {
	m, err := litformat.ReadLiLim(strings.NewReader(sample))
	require.NoError(t, err)

	vehIDs := m.VehicleIDs()
	sort.Ints(vehIDs)
	reqIDs := m.RequestIDs()
	sort.Ints(reqIDs)

	// Route both requests onto distinct vehicles so the solved fleet size
	// written to the header matches the instance's full declared fleet.
	s := solution.New(m)
	out, err := s.InsertOptimalIntoVehicle(reqIDs[0], vehIDs[0])
	require.NoError(t, err)
	require.True(t, out.Feasible)
	out, err = s.InsertOptimalIntoVehicle(reqIDs[1], vehIDs[1])
	require.NoError(t, err)
	require.True(t, out.Feasible)

	var buf bytes.Buffer
	require.NoError(t, litformat.WriteLiLim(&buf, m, s))

	m2, err := litformat.ReadLiLim(&buf)
	require.NoError(t, err)

	assert.Equal(t, len(vehIDs), len(m2.VehicleIDs()))
	assert.Equal(t, len(m.RequestIDs()), len(m2.RequestIDs()))
}

func TestWriteLiLimRejectsSolutionWithNoRoutedVehicles(t *testing.T) {
	m, err := litformat.ReadLiLim(strings.NewReader(sample))
	require.NoError(t, err)

	s := solution.New(m)
	var buf bytes.Buffer
	require.Error(t, litformat.WriteLiLim(&buf, m, s))
}
