// Package solution implements spec.md §4.2: the Solution aggregate over a
// Problem Instance -- the route assignment, the request/vehicle banks, the
// consistency indices, and the cached objective terms.
//
// Grounded on the teacher's core.Graph map-of-maps index discipline,
// generalized from its sync.RWMutex-guarded concurrent-access contract to a
// single-threaded "trial copies never alias" contract (§5): Clone is the
// one place state is duplicated, exactly where the teacher would normally
// take a lock.
package solution

import (
	"hash/fnv"
	"sort"

	"github.com/google/uuid"

	"github.com/mirzoyan-dev/pdptw-alns/instance"
	"github.com/mirzoyan-dev/pdptw-alns/pdperr"
	"github.com/mirzoyan-dev/pdptw-alns/route"
)

// Solution is one candidate assignment of requests to vehicle routes over a
// shared Problem Instance. Solutions are cheap to Clone (the ALNS trial
// boundary) and never share route pointers with their source after cloning.
type Solution struct {
	RunID uuid.UUID

	meta *instance.Meta

	routes map[int]*route.Route // vehicleId -> Route; present only while non-empty

	requestBank map[int]struct{}
	vehicleBank map[int]struct{}

	requestToVehicle map[int]int // requestId -> vehicleId, for assigned requests only
	nodeToVehicle    map[int]int // nodeId -> vehicleId, for nodes on an active route

	distanceCost float64
	timeCost     float64

	fpValid bool
	fpValue uint64
}

// New returns a Solution over meta with every request unassigned and every
// vehicle idle: the starting point for Phase A's greedy fleet growth.
func New(meta *instance.Meta) *Solution {
	s := &Solution{
		RunID:            uuid.Must(uuid.NewV7()),
		meta:             meta,
		routes:           make(map[int]*route.Route),
		requestBank:      make(map[int]struct{}),
		vehicleBank:      make(map[int]struct{}),
		requestToVehicle: make(map[int]int),
		nodeToVehicle:    make(map[int]int),
	}
	for _, id := range meta.RequestIDs() {
		s.requestBank[id] = struct{}{}
	}
	for _, id := range meta.VehicleIDs() {
		s.vehicleBank[id] = struct{}{}
	}
	return s
}

// Meta returns the Problem Instance this solution is assigned over.
func (s *Solution) Meta() *instance.Meta { return s.meta }

// RequestBankIDs returns every currently-unassigned request id, sorted.
func (s *Solution) RequestBankIDs() []int { return sortedKeys(s.requestBank) }

// VehicleBankIDs returns every currently-idle vehicle id, sorted.
func (s *Solution) VehicleBankIDs() []int { return sortedKeys(s.vehicleBank) }

// RoutedVehicleIDs returns every vehicle id currently carrying a non-empty
// route, sorted.
func (s *Solution) RoutedVehicleIDs() []int { return sortedKeys(s.routes) }

// RouteFor returns the route assigned to vehicleID, if any.
func (s *Solution) RouteFor(vehicleID int) (*route.Route, bool) {
	r, ok := s.routes[vehicleID]
	return r, ok
}

// VehicleOfRequest returns the vehicle currently serving requestID.
func (s *Solution) VehicleOfRequest(requestID int) (int, bool) {
	v, ok := s.requestToVehicle[requestID]
	return v, ok
}

// AssignedRequestIDs returns every currently-assigned request id, sorted.
func (s *Solution) AssignedRequestIDs() []int { return sortedKeys(s.requestToVehicle) }

// VehicleOfNode returns the vehicle whose active route currently visits nodeID.
func (s *Solution) VehicleOfNode(nodeID int) (int, bool) {
	v, ok := s.nodeToVehicle[nodeID]
	return v, ok
}

func sortedKeys[V any](m map[int]V) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// routeOrEmpty returns the existing route for vehicleID, or a fresh empty
// one if vehicleID is currently idle in the bank. created reports whether a
// new route was minted (and so must be discarded on infeasibility rather
// than left dangling in s.routes).
func (s *Solution) routeOrEmpty(vehicleID int) (r *route.Route, created bool, err error) {
	if r, ok := s.routes[vehicleID]; ok {
		return r, false, nil
	}
	if _, ok := s.vehicleBank[vehicleID]; !ok {
		return nil, false, pdperr.NewStateViolation("routeOrEmpty", "vehicle neither routed nor banked")
	}
	r, err = route.New(s.meta, vehicleID)
	if err != nil {
		return nil, false, err
	}
	return r, true, nil
}

// InsertOptimalIntoVehicle requires requestID in the request bank and
// vehicleID in its compatible set; delegates to Route.TryInsertOptimal and,
// on success, updates banks, indices, and cached costs.
func (s *Solution) InsertOptimalIntoVehicle(requestID, vehicleID int) (route.Outcome[route.Delta], error) {
	if _, ok := s.requestBank[requestID]; !ok {
		return route.Outcome[route.Delta]{}, pdperr.NewStateViolation("InsertOptimalIntoVehicle", "request not in bank")
	}
	req, ok := s.meta.Request(requestID)
	if !ok {
		return route.Outcome[route.Delta]{}, pdperr.NewStateViolation("InsertOptimalIntoVehicle", "unknown request id")
	}
	if !req.CompatibleWith(vehicleID) {
		return route.Outcome[route.Delta]{}, pdperr.NewStateViolation("InsertOptimalIntoVehicle", "vehicle not compatible with request")
	}

	r, created, err := s.routeOrEmpty(vehicleID)
	if err != nil {
		return route.Outcome[route.Delta]{}, err
	}

	out, err := r.TryInsertOptimal(s.meta, requestID)
	if err != nil {
		return route.Outcome[route.Delta]{}, err
	}
	if !out.Feasible {
		return route.Outcome[route.Delta]{Feasible: false}, nil
	}

	newRoute := out.Value.Route
	s.routes[vehicleID] = newRoute
	if created {
		delete(s.vehicleBank, vehicleID)
	}
	delete(s.requestBank, requestID)
	s.requestToVehicle[requestID] = vehicleID
	s.nodeToVehicle[req.PickNodeID] = vehicleID
	s.nodeToVehicle[req.DeliveryNodeID] = vehicleID
	s.distanceCost += out.Value.Delta.Distance
	s.timeCost += out.Value.Delta.Time
	s.fpValid = false

	return route.Outcome[route.Delta]{Value: out.Value.Delta, Feasible: true}, nil
}

// InsertOptimalIntoAny tries InsertOptimalIntoVehicle on every vehicle of
// compatibleVehicles(r) that is routed or banked, in ascending id order
// (routed and banked vehicles interleaved by id); the first success wins.
func (s *Solution) InsertOptimalIntoAny(requestID int) (bool, int, error) {
	req, ok := s.meta.Request(requestID)
	if !ok {
		return false, 0, pdperr.NewStateViolation("InsertOptimalIntoAny", "unknown request id")
	}

	candidates := make([]int, 0, len(req.CompatibleVehicles))
	for vid := range req.CompatibleVehicles {
		if _, routed := s.routes[vid]; routed {
			candidates = append(candidates, vid)
		} else if _, banked := s.vehicleBank[vid]; banked {
			candidates = append(candidates, vid)
		}
	}
	sort.Ints(candidates)

	for _, vid := range candidates {
		out, err := s.InsertOptimalIntoVehicle(requestID, vid)
		if err != nil {
			return false, 0, err
		}
		if out.Feasible {
			return true, vid, nil
		}
	}
	return false, 0, nil
}

// CostIfInsert trial-inserts requestID into vehicleID's route via a cloned
// route copy; it never mutates s.
func (s *Solution) CostIfInsert(requestID, vehicleID int) (feasibleResult bool, cost float64, err error) {
	req, ok := s.meta.Request(requestID)
	if !ok {
		return false, 0, pdperr.NewStateViolation("CostIfInsert", "unknown request id")
	}
	if !req.CompatibleWith(vehicleID) {
		return false, 0, nil
	}

	base, created, err := s.routeOrEmpty(vehicleID)
	if err != nil {
		return false, 0, err
	}
	trial := base
	if !created {
		trial = base.Clone()
	}

	out, err := trial.TryInsertOptimal(s.meta, requestID)
	if err != nil {
		return false, 0, err
	}
	if !out.Feasible {
		return false, 0, nil
	}
	p := s.meta.Params
	cost = p.Alpha*out.Value.Delta.Distance + p.Beta*out.Value.Delta.Time
	return true, cost, nil
}

// CostIfRemove returns the savings magnitude from removing requestID,
// computed against a cloned copy of the route holding it; requestID must
// currently be assigned.
func (s *Solution) CostIfRemove(requestID int) (float64, error) {
	vid, ok := s.requestToVehicle[requestID]
	if !ok {
		return 0, pdperr.NewStateViolation("CostIfRemove", "request is not assigned")
	}
	r, ok := s.routes[vid]
	if !ok {
		return 0, pdperr.NewStateViolation("CostIfRemove", "assigned vehicle has no route")
	}
	trial := r.Clone()
	delta, err := trial.RemovePair(s.meta, requestID)
	if err != nil {
		return 0, err
	}
	p := s.meta.Params
	cost := p.Alpha*absF(delta.Distance) + p.Beta*absF(delta.Time)
	return cost, nil
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// RemoveRequests bulk-removes every request in ids: each returns to the
// request bank, and any route left empty returns its vehicle to the
// vehicle bank.
func (s *Solution) RemoveRequests(ids []int) error {
	touched := make(map[int]struct{}, len(ids))
	for _, requestID := range ids {
		vid, ok := s.requestToVehicle[requestID]
		if !ok {
			return pdperr.NewStateViolation("RemoveRequests", "request is not assigned")
		}
		r, ok := s.routes[vid]
		if !ok {
			return pdperr.NewStateViolation("RemoveRequests", "assigned vehicle has no route")
		}
		req, _ := s.meta.Request(requestID)
		delta, err := r.RemovePair(s.meta, requestID)
		if err != nil {
			return err
		}
		s.distanceCost += delta.Distance
		s.timeCost += delta.Time
		delete(s.requestToVehicle, requestID)
		s.requestBank[requestID] = struct{}{}
		if req != nil {
			delete(s.nodeToVehicle, req.PickNodeID)
			delete(s.nodeToVehicle, req.DeliveryNodeID)
		}
		touched[vid] = struct{}{}
	}
	for vid := range touched {
		if r, ok := s.routes[vid]; ok && r.IsEmpty() {
			delete(s.routes, vid)
			s.vehicleBank[vid] = struct{}{}
		}
	}
	s.fpValid = false
	return nil
}

// AddCloneVehicle mints a fresh vehicle via the Problem Instance and places
// it, idle, into the vehicle bank.
func (s *Solution) AddCloneVehicle() (int, error) {
	vid, err := s.meta.CloneVehicle()
	if err != nil {
		return 0, err
	}
	s.vehicleBank[vid] = struct{}{}
	return vid, nil
}

// DeleteVehicleAndRoute unassigns every request on vehicleID's route (if
// any), removes vehicleID from both banks, and deletes it from the Problem
// Instance.
func (s *Solution) DeleteVehicleAndRoute(vehicleID int) error {
	var toRemove []int
	for requestID, vid := range s.requestToVehicle {
		if vid == vehicleID {
			toRemove = append(toRemove, requestID)
		}
	}
	if len(toRemove) > 0 {
		if err := s.RemoveRequests(toRemove); err != nil {
			return err
		}
	}
	delete(s.vehicleBank, vehicleID)
	delete(s.routes, vehicleID)
	if err := s.meta.DeleteVehicle(vehicleID); err != nil {
		return err
	}
	s.fpValid = false
	return nil
}

// Fingerprint returns a stable 64-bit hash over (vehicleId, route.Nodes)
// sorted by vehicleId, cached until the next mutation.
func (s *Solution) Fingerprint() uint64 {
	if s.fpValid {
		return s.fpValue
	}
	h := fnv.New64a()
	var buf [8]byte
	writeInt := func(v int) {
		u := uint64(v)
		for i := 0; i < 8; i++ {
			buf[i] = byte(u >> (8 * i))
		}
		_, _ = h.Write(buf[:])
	}
	for _, vid := range s.RoutedVehicleIDs() {
		writeInt(vid)
		for _, nodeID := range s.routes[vid].Nodes {
			writeInt(nodeID)
		}
	}
	s.fpValue = h.Sum64()
	s.fpValid = true
	return s.fpValue
}

// Objective is alpha*totalDistance + beta*totalDuration + gama*|requestBank|.
func (s *Solution) Objective() float64 {
	p := s.meta.Params
	return p.Alpha*s.distanceCost + p.Beta*s.timeCost + p.Gama*float64(len(s.requestBank))
}

// ObjectiveSansBank is alpha*totalDistance + beta*totalDuration, excluding
// the unassigned-request penalty; used for the initial SA temperature.
func (s *Solution) ObjectiveSansBank() float64 {
	p := s.meta.Params
	return p.Alpha*s.distanceCost + p.Beta*s.timeCost
}

// Clone returns an independent deep copy: every route is cloned, every
// index and bank is copied, and the fingerprint cache carries over
// unchanged (cloning duplicates state, it does not invalidate it).
func (s *Solution) Clone() *Solution {
	cp := &Solution{
		RunID:            s.RunID,
		meta:             s.meta,
		routes:           make(map[int]*route.Route, len(s.routes)),
		requestBank:      make(map[int]struct{}, len(s.requestBank)),
		vehicleBank:      make(map[int]struct{}, len(s.vehicleBank)),
		requestToVehicle: make(map[int]int, len(s.requestToVehicle)),
		nodeToVehicle:    make(map[int]int, len(s.nodeToVehicle)),
		distanceCost:     s.distanceCost,
		timeCost:         s.timeCost,
		fpValid:          s.fpValid,
		fpValue:          s.fpValue,
	}
	for vid, r := range s.routes {
		cp.routes[vid] = r.Clone()
	}
	for id := range s.requestBank {
		cp.requestBank[id] = struct{}{}
	}
	for id := range s.vehicleBank {
		cp.vehicleBank[id] = struct{}{}
	}
	for r, v := range s.requestToVehicle {
		cp.requestToVehicle[r] = v
	}
	for n, v := range s.nodeToVehicle {
		cp.nodeToVehicle[n] = v
	}
	return cp
}
