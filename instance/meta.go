package instance

import (
	"math"

	"github.com/mirzoyan-dev/pdptw-alns/params"
	"github.com/mirzoyan-dev/pdptw-alns/pdperr"
)

// Meta is the Problem Instance: the node/vehicle/request universe, the
// symmetric distance matrix, and the immutable Parameters for this run. It
// is mutable only via CloneVehicle/DeleteVehicle (the two-stage driver's
// fleet-size knob); everything else is append-only during ingest.
//
// Meta carries no internal lock: per spec.md §5 the core is single-threaded
// and CPU-bound, and the one mutation boundary (CloneVehicle/DeleteVehicle,
// invoked between driver phases) is never interleaved with concurrent
// reads. See DESIGN.md's instance entry for the explicit decision to drop
// the teacher's sync.RWMutex discipline here.
type Meta struct {
	Params params.Parameters

	nodes    map[int]*Node
	vehicles map[int]*Vehicle
	requests map[int]*Request

	dist [][]float64 // dist[i][j], indexed directly by node id; holes left by deletion are never read

	nextNodeID    int
	nextVehicleID int
	nextRequestID int

	depotTemplate  *Node   // coordinates/time-window/service profile used to mint new depot pairs
	refCapacity    float64 // reference vehicle capacity for CloneVehicle
	refVelocity    float64 // reference vehicle velocity for CloneVehicle
	haveRefVehicle bool
}

// NewMeta returns an empty Problem Instance ready for ingest.
func NewMeta(p params.Parameters) *Meta {
	return &Meta{
		Params:   p,
		nodes:    make(map[int]*Node),
		vehicles: make(map[int]*Vehicle),
		requests: make(map[int]*Request),
	}
}

// SetDepotTemplate records the coordinates/time-window/service profile that
// every future CloneVehicle call uses to mint a fresh (startDepot,
// endDepot) pair. It must be called before the first CloneVehicle.
func (m *Meta) SetDepotTemplate(n Node) error {
	if err := n.validate(); err != nil {
		return err
	}
	cp := n
	m.depotTemplate = &cp
	return nil
}

// SetReferenceVehicleKind records the capacity/velocity every CloneVehicle
// call uses for the new vehicle. It must be called before the first
// CloneVehicle.
func (m *Meta) SetReferenceVehicleKind(capacity, velocity float64) error {
	if capacity <= 0 {
		return pdperr.NewDataError("SetReferenceVehicleKind", "capacity must be > 0", nil)
	}
	if velocity <= 0 {
		return pdperr.NewDataError("SetReferenceVehicleKind", "velocity must be > 0", nil)
	}
	m.refCapacity = capacity
	m.refVelocity = velocity
	m.haveRefVehicle = true
	return nil
}

// AddNode inserts a customer/depot node at its explicit id, growing the
// distance matrix and back-filling distances to every node already present.
func (m *Meta) AddNode(n Node) error {
	if err := n.validate(); err != nil {
		return err
	}
	if _, exists := m.nodes[n.ID]; exists {
		return pdperr.NewDataError("AddNode", "duplicate node id", nil)
	}
	m.growDistTo(n.ID)
	cp := n
	m.nodes[n.ID] = &cp
	m.fillDistanceRow(n.ID)
	if n.ID+1 > m.nextNodeID {
		m.nextNodeID = n.ID + 1
	}
	return nil
}

// growDistTo ensures dist has at least id+1 rows/cols, each new cell
// initialized to 0 (overwritten by fillDistanceRow for real entries).
func (m *Meta) growDistTo(id int) {
	need := id + 1
	if len(m.dist) >= need {
		return
	}
	for i := range m.dist {
		for len(m.dist[i]) < need {
			m.dist[i] = append(m.dist[i], 0)
		}
	}
	for len(m.dist) < need {
		m.dist = append(m.dist, make([]float64, need))
	}
}

// fillDistanceRow computes Euclidean distances between node id and every
// other currently-registered node, writing both dist[id][j] and dist[j][id]
// to preserve symmetry.
func (m *Meta) fillDistanceRow(id int) {
	a := m.nodes[id]
	for j, b := range m.nodes {
		d := euclid(a.X, a.Y, b.X, b.Y)
		m.dist[id][j] = d
		m.dist[j][id] = d
	}
	m.dist[id][id] = 0
}

func euclid(ax, ay, bx, by float64) float64 {
	dx := ax - bx
	dy := ay - by
	return math.Sqrt(dx*dx + dy*dy)
}

// AddVehicle registers an explicitly-built vehicle (its depot pair must
// already exist as nodes). Used by programmatic construction and tests;
// ingest normally uses CloneVehicle instead.
func (m *Meta) AddVehicle(v Vehicle) error {
	if err := v.validate(); err != nil {
		return err
	}
	if _, ok := m.nodes[v.StartDepotID]; !ok {
		return pdperr.NewDataError("AddVehicle", "start depot node does not exist", nil)
	}
	if _, ok := m.nodes[v.EndDepotID]; !ok {
		return pdperr.NewDataError("AddVehicle", "end depot node does not exist", nil)
	}
	if _, exists := m.vehicles[v.ID]; exists {
		return pdperr.NewDataError("AddVehicle", "duplicate vehicle id", nil)
	}
	cp := v
	m.vehicles[v.ID] = &cp
	if v.ID+1 > m.nextVehicleID {
		m.nextVehicleID = v.ID + 1
	}
	return nil
}

// AddRequest registers a pickup/delivery pair. compatibleVehicles, when nil,
// defaults to every vehicle currently registered (homogeneous-fleet mode,
// spec.md §6.1); CloneVehicle additionally back-fills new vehicle ids onto
// every already-registered request.
func (m *Meta) AddRequest(r Request) error {
	if err := r.validate(); err != nil {
		return err
	}
	pick, ok := m.nodes[r.PickNodeID]
	if !ok {
		return pdperr.NewDataError("AddRequest", "pickup node does not exist", nil)
	}
	deliv, ok := m.nodes[r.DeliveryNodeID]
	if !ok {
		return pdperr.NewDataError("AddRequest", "delivery node does not exist", nil)
	}
	if pick.Load != r.RequiredCapacity {
		return pdperr.NewDataError("AddRequest", "pickup node load must equal +requiredCapacity", nil)
	}
	if deliv.Load != -r.RequiredCapacity {
		return pdperr.NewDataError("AddRequest", "delivery node load must equal -requiredCapacity", nil)
	}
	if _, exists := m.requests[r.ID]; exists {
		return pdperr.NewDataError("AddRequest", "duplicate request id", nil)
	}
	cp := r
	if cp.CompatibleVehicles == nil {
		cp.CompatibleVehicles = make(map[int]struct{}, len(m.vehicles))
		for vid := range m.vehicles {
			cp.CompatibleVehicles[vid] = struct{}{}
		}
	}
	m.requests[r.ID] = &cp
	if r.ID+1 > m.nextRequestID {
		m.nextRequestID = r.ID + 1
	}
	return nil
}

// CloneVehicle mints a fresh (startDepot, endDepot) pair from the depot
// template, registers a new vehicle of the reference kind, and adds the new
// vehicle id to every currently-registered request's compatible set
// (homogeneous-fleet growth, spec.md §4.6 Phase A / §6.1 ingest).
func (m *Meta) CloneVehicle() (int, error) {
	if m.depotTemplate == nil {
		return 0, pdperr.NewStateViolation("CloneVehicle", "depot template not set")
	}
	if !m.haveRefVehicle {
		return 0, pdperr.NewStateViolation("CloneVehicle", "reference vehicle kind not set")
	}

	startID := m.nextNodeID
	start := *m.depotTemplate
	start.ID = startID
	if err := m.AddNode(start); err != nil {
		return 0, err
	}

	endID := m.nextNodeID
	end := *m.depotTemplate
	end.ID = endID
	if err := m.AddNode(end); err != nil {
		return 0, err
	}

	vehicleID := m.nextVehicleID
	v := Vehicle{
		ID:           vehicleID,
		Capacity:     m.refCapacity,
		Velocity:     m.refVelocity,
		StartDepotID: startID,
		EndDepotID:   endID,
	}
	if err := m.AddVehicle(v); err != nil {
		return 0, err
	}

	for _, r := range m.requests {
		r.CompatibleVehicles[vehicleID] = struct{}{}
	}

	return vehicleID, nil
}

// DeleteVehicle removes a vehicle and its depot pair from the instance and
// drops its id from every request's compatible set. Callers must first have
// unassigned every request on this vehicle's route at the Solution level
// (see solution.DeleteVehicleAndRoute); Meta itself does not track routes.
func (m *Meta) DeleteVehicle(id int) error {
	v, ok := m.vehicles[id]
	if !ok {
		return pdperr.NewStateViolation("DeleteVehicle", "unknown vehicle id")
	}
	delete(m.nodes, v.StartDepotID)
	delete(m.nodes, v.EndDepotID)
	delete(m.vehicles, id)
	for _, r := range m.requests {
		delete(r.CompatibleVehicles, id)
	}
	return nil
}

// Node returns the node with the given id.
func (m *Meta) Node(id int) (*Node, bool) {
	n, ok := m.nodes[id]
	return n, ok
}

// Vehicle returns the vehicle with the given id.
func (m *Meta) Vehicle(id int) (*Vehicle, bool) {
	v, ok := m.vehicles[id]
	return v, ok
}

// Request returns the request with the given id.
func (m *Meta) Request(id int) (*Request, bool) {
	r, ok := m.requests[id]
	return r, ok
}

// DepotTemplate returns the coordinates/time-window/service profile used to
// mint new depot pairs, and whether one has been set.
func (m *Meta) DepotTemplate() (Node, bool) {
	if m.depotTemplate == nil {
		return Node{}, false
	}
	return *m.depotTemplate, true
}

// ReferenceVehicleKind returns the capacity/velocity used for every
// CloneVehicle call, and whether one has been set.
func (m *Meta) ReferenceVehicleKind() (capacity, velocity float64, ok bool) {
	return m.refCapacity, m.refVelocity, m.haveRefVehicle
}

// NodeIDs returns every currently-registered node id in unspecified order.
func (m *Meta) NodeIDs() []int { return keysOf(m.nodes) }

// VehicleIDs returns every currently-registered vehicle id in unspecified order.
func (m *Meta) VehicleIDs() []int { return keysOf(m.vehicles) }

// RequestIDs returns every currently-registered request id in unspecified order.
func (m *Meta) RequestIDs() []int { return keysOf(m.requests) }

func keysOf[V any](m map[int]*V) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// Distance returns the symmetric Euclidean distance between nodes i and j.
func (m *Meta) Distance(i, j int) (float64, error) {
	if i < 0 || i >= len(m.dist) || j < 0 || j >= len(m.dist) {
		return 0, pdperr.NewStateViolation("Distance", "node id out of range")
	}
	return m.dist[i][j], nil
}

// MaxDistance returns the maximum pairwise distance among currently
// registered nodes (Dmax), used by repair's noise wrapper to scale its
// perturbation amplitude.
func (m *Meta) MaxDistance() float64 {
	ids := m.NodeIDs()
	max := 0.0
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			d := m.dist[ids[i]][ids[j]]
			if d > max {
				max = d
			}
		}
	}
	return max
}

// TravelTime returns t[v][i][j] = Distance(i,j) / Velocity(v), matching
// spec.md §3's travel-time tensor without materializing a third dimension:
// velocity is a per-vehicle scalar divisor, so the tensor is derived on
// demand from the shared distance matrix rather than duplicated per
// vehicle.
func (m *Meta) TravelTime(vehicleID, i, j int) (float64, error) {
	v, ok := m.vehicles[vehicleID]
	if !ok {
		return 0, pdperr.NewStateViolation("TravelTime", "unknown vehicle id")
	}
	d, err := m.Distance(i, j)
	if err != nil {
		return 0, err
	}
	return d / v.Velocity, nil
}
