// Package instance models the immutable-except-for-fleet-size Problem
// Instance of spec.md §3: Node, Vehicle, Request, and the owning Meta.
//
// Node ids are compact non-negative ints assigned at ingest (spec.md §9
// re-architecture guidance); the symmetric distance matrix is a dense
// [][]float64 indexed directly by node id (never remapped on delete, so
// CloneVehicle/DeleteVehicle never need to touch unrelated rows — deleted
// ids simply become holes, matching the teacher's tsp package preference
// for flat/dense numeric storage over nested maps in the hot path).
package instance

import "github.com/mirzoyan-dev/pdptw-alns/pdperr"

// Node is one location: a depot, a pickup, or a delivery. Load is signed:
// positive at a pickup, negative at its paired delivery, zero at a depot.
type Node struct {
	ID              int
	X, Y            float64
	EarliestService float64
	LatestService   float64
	ServiceDuration float64
	Load            float64
}

func (n Node) validate() error {
	if n.EarliestService > n.LatestService {
		return pdperr.NewDataError("Node", "earliestService must be <= latestService", nil)
	}
	if n.ServiceDuration < 0 {
		return pdperr.NewDataError("Node", "serviceDuration must be >= 0", nil)
	}
	return nil
}

// Vehicle owns a unique pair of depot nodes (StartDepotID, EndDepotID),
// cloned from the instance's depot template; no depot node is ever shared
// between two vehicles.
type Vehicle struct {
	ID           int
	Capacity     float64
	Velocity     float64
	StartDepotID int
	EndDepotID   int
}

func (v Vehicle) validate() error {
	if v.Capacity <= 0 {
		return pdperr.NewDataError("Vehicle", "capacity must be > 0", nil)
	}
	if v.Velocity <= 0 {
		return pdperr.NewDataError("Vehicle", "velocity must be > 0", nil)
	}
	return nil
}

// Request is a paired pickup/delivery with a required capacity and the set
// of vehicles allowed to serve it.
type Request struct {
	ID                 int
	PickNodeID         int
	DeliveryNodeID     int
	RequiredCapacity   float64
	CompatibleVehicles map[int]struct{}
}

func (r Request) validate() error {
	if r.RequiredCapacity <= 0 {
		return pdperr.NewDataError("Request", "requiredCapacity must be > 0", nil)
	}
	return nil
}

// CompatibleWith reports whether vehicle v may serve this request.
func (r Request) CompatibleWith(vehicleID int) bool {
	_, ok := r.CompatibleVehicles[vehicleID]
	return ok
}
