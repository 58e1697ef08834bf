// Package route implements spec.md §4.1: one vehicle's ordered visit
// sequence plus the three parallel prefix arrays (earliest-start times,
// cumulative load, cumulative distance). Every candidate insertion or
// removal is checked by recomputing the three arrays over the whole
// candidate sequence, O(|route|) per candidate; the current route's stored
// arrays are not reused to shortcut that check.
//
// Grounded on the teacher's tsp/two_opt.go (explicit prefix recomputation
// after an accepted move, var-block hot-loop locals, stated complexity per
// function) and tsp/tour.go (ValidateTour-style invariant checking,
// CopyTour-style independent copies).
package route

import (
	"math"

	"github.com/mirzoyan-dev/pdptw-alns/instance"
	"github.com/mirzoyan-dev/pdptw-alns/pdperr"
)

// Delta is the (distance, time) change reported by a successful insertion
// or removal.
type Delta struct {
	Distance float64
	Time     float64
}

// Outcome wraps a trial result with an explicit feasibility flag, so the
// hot path never allocates or inspects an error value for the expected
// "infeasible" case (spec.md §7's Infeasibility-is-not-an-error rule).
type Outcome[T any] struct {
	Value    T
	Feasible bool
}

func infeasible[T any]() Outcome[T] {
	var zero T
	return Outcome[T]{Value: zero, Feasible: false}
}

func feasible[T any](v T) Outcome[T] {
	return Outcome[T]{Value: v, Feasible: true}
}

// Route is one vehicle's visit sequence, bracketed by that vehicle's own
// depot pair: Nodes[0] is the start depot, Nodes[len-1] is the end depot.
type Route struct {
	VehicleID int
	Nodes     []int

	StartService []float64 // startService[k]: service start time at Nodes[k]
	Load         []float64 // load[k]: cumulative load after visiting Nodes[k]
	Dist         []float64 // dist[k]: cumulative distance to reach Nodes[k] (dist[0]==0)
}

// New builds the baseline empty route [startDepot, endDepot] for vehicle v.
func New(meta *instance.Meta, vehicleID int) (*Route, error) {
	v, ok := meta.Vehicle(vehicleID)
	if !ok {
		return nil, pdperr.NewStateViolation("route.New", "unknown vehicle id")
	}
	nodes := []int{v.StartDepotID, v.EndDepotID}
	ss, ld, ds, ok2, err := computePrefixArrays(meta, v, nodes)
	if err != nil {
		return nil, err
	}
	if !ok2 {
		return nil, pdperr.NewStateViolation("route.New", "baseline depot pair is infeasible")
	}
	return &Route{VehicleID: vehicleID, Nodes: nodes, StartService: ss, Load: ld, Dist: ds}, nil
}

// IsEmpty reports whether the route holds only its two depots.
func (r *Route) IsEmpty() bool { return len(r.Nodes) == 2 }

// Clone returns an independent deep copy, the trial-copy boundary used by
// solution.CostIfInsert/CostIfRemove and every ALNS iteration's s -> s'
// duplication.
func (r *Route) Clone() *Route {
	cp := &Route{
		VehicleID:    r.VehicleID,
		Nodes:        append([]int(nil), r.Nodes...),
		StartService: append([]float64(nil), r.StartService...),
		Load:         append([]float64(nil), r.Load...),
		Dist:         append([]float64(nil), r.Dist...),
	}
	return cp
}

// StartServiceOf returns the service start time at the first occurrence of
// nodeID in the route, by O(|route|) linear scan.
func (r *Route) StartServiceOf(nodeID int) (float64, bool) {
	for k, id := range r.Nodes {
		if id == nodeID {
			return r.StartService[k], true
		}
	}
	return 0, false
}

// computePrefixArrays recomputes StartService/Load/Dist from scratch for a
// candidate node sequence, returning feasible=false at the first time
// window or capacity violation (spec.md §4.1's feasibility semantics).
func computePrefixArrays(meta *instance.Meta, v *instance.Vehicle, nodes []int) (startService, load, dist []float64, ok bool, err error) {
	n := len(nodes)
	startService = make([]float64, n)
	load = make([]float64, n)
	dist = make([]float64, n)

	first, found := meta.Node(nodes[0])
	if !found {
		return nil, nil, nil, false, pdperr.NewStateViolation("computePrefixArrays", "unknown node id")
	}
	startService[0] = first.EarliestService
	if startService[0] > first.LatestService {
		return startService, load, dist, false, nil
	}
	load[0] = first.Load
	if load[0] < 0 || load[0] > v.Capacity {
		return startService, load, dist, false, nil
	}
	dist[0] = 0

	for k := 1; k < n; k++ {
		prevNode, ok1 := meta.Node(nodes[k-1])
		curNode, ok2 := meta.Node(nodes[k])
		if !ok1 || !ok2 {
			return nil, nil, nil, false, pdperr.NewStateViolation("computePrefixArrays", "unknown node id")
		}
		tt, terr := meta.TravelTime(v.ID, nodes[k-1], nodes[k])
		if terr != nil {
			return nil, nil, nil, false, terr
		}
		arrival := startService[k-1] + prevNode.ServiceDuration + tt
		startService[k] = arrival
		if curNode.EarliestService > startService[k] {
			startService[k] = curNode.EarliestService
		}
		if startService[k] > curNode.LatestService {
			return startService, load, dist, false, nil // tardiness forbidden
		}

		load[k] = load[k-1] + curNode.Load
		if load[k] < 0 || load[k] > v.Capacity {
			return startService, load, dist, false, nil
		}

		d, derr := meta.Distance(nodes[k-1], nodes[k])
		if derr != nil {
			return nil, nil, nil, false, derr
		}
		dist[k] = dist[k-1] + d
	}

	return startService, load, dist, true, nil
}

// withInserted builds the candidate node sequence from inserting a request's
// pickup at index i and delivery at index j (0-based, into the CURRENT
// route, before any shift): 1 <= i <= j <= len(Nodes)-1, so the start depot
// (index 0) and end depot (the last index) never move. i==j places the
// delivery immediately after the pickup, in the same gap.
func withInserted(nodes []int, i, j, pick, deliv int) []int {
	out := make([]int, 0, len(nodes)+2)
	out = append(out, nodes[:i]...)
	out = append(out, pick)
	out = append(out, nodes[i:j]...)
	out = append(out, deliv)
	out = append(out, nodes[j:]...)
	return out
}

// TryInsertAt inserts requestID's pickup at index i and delivery at index j
// (1 <= i <= j <= len(Nodes)-1; see withInserted for the exact indexing
// convention) and, on success, mutates r in place to the new route,
// returning the (distance, time) delta. On infeasibility r is left
// untouched and Outcome.Feasible is false.
func (r *Route) TryInsertAt(meta *instance.Meta, requestID, i, j int) (Outcome[Delta], error) {
	v, ok := meta.Vehicle(r.VehicleID)
	if !ok {
		return Outcome[Delta]{}, pdperr.NewStateViolation("TryInsertAt", "unknown vehicle id")
	}
	req, ok := meta.Request(requestID)
	if !ok {
		return Outcome[Delta]{}, pdperr.NewStateViolation("TryInsertAt", "unknown request id")
	}
	n := len(r.Nodes)
	if i < 1 || j < i || j > n-1 {
		return Outcome[Delta]{}, pdperr.NewStateViolation("TryInsertAt", "index out of range")
	}

	candidate := withInserted(r.Nodes, i, j, req.PickNodeID, req.DeliveryNodeID)
	ss, ld, ds, ok2, err := computePrefixArrays(meta, v, candidate)
	if err != nil {
		return Outcome[Delta]{}, err
	}
	if !ok2 {
		return infeasible[Delta](), nil
	}

	delta := Delta{
		Distance: ds[len(ds)-1] - r.Dist[len(r.Dist)-1],
		Time:     ss[len(ss)-1] - r.StartService[len(r.StartService)-1],
	}
	r.Nodes = candidate
	r.StartService = ss
	r.Load = ld
	r.Dist = ds
	return feasible(delta), nil
}

// InsertResult is the payload of TryInsertOptimal's Outcome: the would-be
// new route plus the deltas of applying it.
type InsertResult struct {
	Route *Route
	Delta Delta
}

// TryInsertOptimal scans every feasible (i,j) pair and returns a NEW Route
// (by value via pointer; r itself is never mutated) at the position
// minimizing alpha*distanceDelta + beta*timeDelta, ties broken by the first
// (i,j) found in lexicographic order.
func (r *Route) TryInsertOptimal(meta *instance.Meta, requestID int) (Outcome[InsertResult], error) {
	v, ok := meta.Vehicle(r.VehicleID)
	if !ok {
		return Outcome[InsertResult]{}, pdperr.NewStateViolation("TryInsertOptimal", "unknown vehicle id")
	}
	req, ok := meta.Request(requestID)
	if !ok {
		return Outcome[InsertResult]{}, pdperr.NewStateViolation("TryInsertOptimal", "unknown request id")
	}

	n := len(r.Nodes)
	var (
		bestCost  = math.Inf(1)
		bestRoute *Route
		bestDelta Delta
		found     bool
	)

	for i := 1; i <= n-1; i++ {
		for j := i; j <= n-1; j++ {
			candidate := withInserted(r.Nodes, i, j, req.PickNodeID, req.DeliveryNodeID)
			ss, ld, ds, ok2, err := computePrefixArrays(meta, v, candidate)
			if err != nil {
				return Outcome[InsertResult]{}, err
			}
			if !ok2 {
				continue
			}
			delta := Delta{
				Distance: ds[len(ds)-1] - r.Dist[len(r.Dist)-1],
				Time:     ss[len(ss)-1] - r.StartService[len(r.StartService)-1],
			}
			cost := meta.Params.Alpha*delta.Distance + meta.Params.Beta*delta.Time
			if cost < bestCost {
				bestCost = cost
				bestDelta = delta
				bestRoute = &Route{VehicleID: r.VehicleID, Nodes: candidate, StartService: ss, Load: ld, Dist: ds}
				found = true
			}
		}
	}

	if !found {
		return infeasible[InsertResult](), nil
	}
	return feasible(InsertResult{Route: bestRoute, Delta: bestDelta}), nil
}

// RemovePair deletes requestID's pickup and delivery from the route and
// recomputes the prefix arrays. It fails loudly (returns an error, not an
// Outcome) if the request is not present in this route or the vehicle is
// not in the request's compatible set, per spec.md §4.1 -- this is an
// engine invariant violation, not an expected feasibility outcome.
func (r *Route) RemovePair(meta *instance.Meta, requestID int) (Delta, error) {
	v, ok := meta.Vehicle(r.VehicleID)
	if !ok {
		return Delta{}, pdperr.NewStateViolation("RemovePair", "unknown vehicle id")
	}
	req, ok := meta.Request(requestID)
	if !ok {
		return Delta{}, pdperr.NewStateViolation("RemovePair", "unknown request id")
	}
	if !req.CompatibleWith(r.VehicleID) {
		return Delta{}, pdperr.NewStateViolation("RemovePair", "vehicle not compatible with request")
	}

	pickIdx, delivIdx := -1, -1
	for k, id := range r.Nodes {
		if id == req.PickNodeID {
			pickIdx = k
		}
		if id == req.DeliveryNodeID {
			delivIdx = k
		}
	}
	if pickIdx == -1 || delivIdx == -1 {
		return Delta{}, pdperr.NewStateViolation("RemovePair", "request not present in route")
	}

	candidate := make([]int, 0, len(r.Nodes)-2)
	for k, id := range r.Nodes {
		if k == pickIdx || k == delivIdx {
			continue
		}
		candidate = append(candidate, id)
	}

	ss, ld, ds, ok2, err := computePrefixArrays(meta, v, candidate)
	if err != nil {
		return Delta{}, err
	}
	if !ok2 {
		// Removing load can only relax capacity/time constraints; this
		// indicates a prior invariant was already broken.
		return Delta{}, pdperr.NewStateViolation("RemovePair", "route infeasible after removal")
	}

	delta := Delta{
		Distance: ds[len(ds)-1] - r.Dist[len(r.Dist)-1],
		Time:     ss[len(ss)-1] - r.StartService[len(r.StartService)-1],
	}
	r.Nodes = candidate
	r.StartService = ss
	r.Load = ld
	r.Dist = ds
	return delta, nil
}

// TotalDistance returns the whole-route cumulative distance.
func (r *Route) TotalDistance() float64 {
	if len(r.Dist) == 0 {
		return 0
	}
	return r.Dist[len(r.Dist)-1]
}

// TotalDuration returns the whole-route cumulative duration (service start
// at the end depot minus service start at the start depot).
func (r *Route) TotalDuration() float64 {
	if len(r.StartService) == 0 {
		return 0
	}
	return r.StartService[len(r.StartService)-1] - r.StartService[0]
}
