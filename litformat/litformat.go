// Package litformat reads and writes the Li & Lim PDPTW text format of
// spec.md §6.1: a whitespace/tab-separated benchmark file with a header
// line, a depot record, and one record per customer node.
//
// Grounded on the andy-trimble-vrp VRP reader's manual-tokenize-then-
// strconv style (space-delimited records, per-field numeric conversion
// wrapped in an explicit parse error) — adapted from its fixed-width
// encoding/csv reader to a bufio.Scanner/strings.Fields tokenizer because
// Li & Lim's header line (3 fields) and node lines (9 fields) don't share
// one column count, which csv.Reader requires.
package litformat

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/mirzoyan-dev/pdptw-alns/instance"
	"github.com/mirzoyan-dev/pdptw-alns/params"
	"github.com/mirzoyan-dev/pdptw-alns/pdperr"
	"github.com/mirzoyan-dev/pdptw-alns/solution"
)

type record struct {
	id                     int
	x, y                   float64
	demand                 float64
	earliest, latest       float64
	service                float64
	pickupIdx, deliveryIdx int
}

// ReadLiLim parses a Li & Lim text instance into a Problem Instance. The
// depot (line 2, id must be 0) becomes the depot template; a fresh
// (startDepot, endDepot) pair is cloned once per declared vehicle, and
// every vehicle starts compatible with every request (homogeneous-fleet
// mode).
func ReadLiLim(r io.Reader) (*instance.Meta, error) {
	scanner := bufio.NewScanner(r)
	lines := make([][]string, 0, 64)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		lines = append(lines, fields)
	}
	if err := scanner.Err(); err != nil {
		return nil, pdperr.NewDataError("litformat.ReadLiLim", "failed reading input", err)
	}
	if len(lines) < 2 {
		return nil, pdperr.NewDataError("litformat.ReadLiLim", "expected a header line and a depot line", nil)
	}

	if len(lines[0]) != 3 {
		return nil, pdperr.NewDataError("litformat.ReadLiLim", "header line must have 3 fields: vehicleCount, capacity, speed", nil)
	}
	vehicleCount, err := strconv.Atoi(lines[0][0])
	if err != nil {
		return nil, pdperr.NewDataError("litformat.ReadLiLim", "malformed vehicleCount", err)
	}
	capacity, err := strconv.ParseFloat(lines[0][1], 64)
	if err != nil {
		return nil, pdperr.NewDataError("litformat.ReadLiLim", "malformed capacity", err)
	}
	speed, err := strconv.ParseFloat(lines[0][2], 64)
	if err != nil {
		return nil, pdperr.NewDataError("litformat.ReadLiLim", "malformed speed", err)
	}

	depotRec, err := parseRecord(lines[1])
	if err != nil {
		return nil, err
	}
	if depotRec.id != 0 {
		return nil, pdperr.NewDataError("litformat.ReadLiLim", "depot id must be 0", nil)
	}

	customers := make([]record, 0, len(lines)-2)
	for _, fields := range lines[2:] {
		rec, err := parseRecord(fields)
		if err != nil {
			return nil, err
		}
		if rec.id == 0 {
			return nil, pdperr.NewDataError("litformat.ReadLiLim", "customer node id must not be 0", nil)
		}
		customers = append(customers, rec)
	}

	m := instance.NewMeta(params.Default())

	byID := make(map[int]record, len(customers))
	for _, rec := range customers {
		byID[rec.id] = rec
		if err := m.AddNode(instance.Node{
			ID:              rec.id,
			X:               rec.x,
			Y:               rec.y,
			EarliestService: rec.earliest,
			LatestService:   rec.latest,
			ServiceDuration: rec.service,
			Load:            rec.demand,
		}); err != nil {
			return nil, err
		}
	}

	requestID := 0
	for _, rec := range customers {
		if rec.demand <= 0 || rec.deliveryIdx == 0 {
			continue
		}
		deliv, ok := byID[rec.deliveryIdx]
		if !ok {
			return nil, pdperr.NewDataError("litformat.ReadLiLim", fmt.Sprintf("pickup %d references a delivery node that does not exist", rec.id), nil)
		}
		if absF(rec.demand) != absF(deliv.demand) {
			return nil, pdperr.NewDataError("litformat.ReadLiLim", fmt.Sprintf("pickup %d and delivery %d demand magnitudes differ", rec.id, deliv.id), nil)
		}
		if err := m.AddRequest(instance.Request{
			ID:               requestID,
			PickNodeID:       rec.id,
			DeliveryNodeID:   deliv.id,
			RequiredCapacity: absF(rec.demand),
		}); err != nil {
			return nil, err
		}
		requestID++
	}

	if err := m.SetDepotTemplate(instance.Node{
		X:               depotRec.x,
		Y:               depotRec.y,
		EarliestService: depotRec.earliest,
		LatestService:   depotRec.latest,
		ServiceDuration: depotRec.service,
	}); err != nil {
		return nil, err
	}
	if err := m.SetReferenceVehicleKind(capacity, speed); err != nil {
		return nil, err
	}
	for i := 0; i < vehicleCount; i++ {
		if _, err := m.CloneVehicle(); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func parseRecord(fields []string) (record, error) {
	if len(fields) != 9 {
		return record{}, pdperr.NewDataError("litformat.ReadLiLim", "node line must have 9 fields", nil)
	}
	ints := func(i int) (int, error) { return strconv.Atoi(fields[i]) }
	floats := func(i int) (float64, error) { return strconv.ParseFloat(fields[i], 64) }

	id, err := ints(0)
	if err != nil {
		return record{}, pdperr.NewDataError("litformat.ReadLiLim", "malformed node id", err)
	}
	x, err := floats(1)
	if err != nil {
		return record{}, pdperr.NewDataError("litformat.ReadLiLim", "malformed x", err)
	}
	y, err := floats(2)
	if err != nil {
		return record{}, pdperr.NewDataError("litformat.ReadLiLim", "malformed y", err)
	}
	demand, err := floats(3)
	if err != nil {
		return record{}, pdperr.NewDataError("litformat.ReadLiLim", "malformed demand", err)
	}
	early, err := floats(4)
	if err != nil {
		return record{}, pdperr.NewDataError("litformat.ReadLiLim", "malformed tw_early", err)
	}
	late, err := floats(5)
	if err != nil {
		return record{}, pdperr.NewDataError("litformat.ReadLiLim", "malformed tw_late", err)
	}
	service, err := floats(6)
	if err != nil {
		return record{}, pdperr.NewDataError("litformat.ReadLiLim", "malformed service", err)
	}
	pickupIdx, err := ints(7)
	if err != nil {
		return record{}, pdperr.NewDataError("litformat.ReadLiLim", "malformed pickupIdx", err)
	}
	deliveryIdx, err := ints(8)
	if err != nil {
		return record{}, pdperr.NewDataError("litformat.ReadLiLim", "malformed deliveryIdx", err)
	}

	return record{
		id: id, x: x, y: y, demand: demand,
		earliest: early, latest: late, service: service,
		pickupIdx: pickupIdx, deliveryIdx: deliveryIdx,
	}, nil
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// WriteLiLim writes m and s back out in Li & Lim format (a supplemented
// round-trip writer; spec.md §6.1 defines only the reader). Depot-clone
// node ids (those owned by a Vehicle as its StartDepotID/EndDepotID) are
// excluded from the customer record list, matching the reader's split
// between the single depot template and the customer set. The header's
// vehicle count reflects s.RoutedVehicleIDs(), the fleet the solution
// actually uses, rather than m's full declared fleet: after Phase B's
// shrink, those two counts commonly differ, and a Li & Lim consumer
// re-reading this file should see the solved fleet size.
func WriteLiLim(w io.Writer, m *instance.Meta, s *solution.Solution) error {
	depot, ok := m.DepotTemplate()
	if !ok {
		return pdperr.NewStateViolation("litformat.WriteLiLim", "instance has no depot template")
	}
	capacity, speed, ok := m.ReferenceVehicleKind()
	if !ok {
		return pdperr.NewStateViolation("litformat.WriteLiLim", "instance has no reference vehicle kind")
	}
	routedCount := len(s.RoutedVehicleIDs())
	if routedCount == 0 {
		return pdperr.NewStateViolation("litformat.WriteLiLim", "solution routes no vehicles")
	}

	depotNodeIDs := make(map[int]struct{})
	for _, vid := range m.VehicleIDs() {
		v, _ := m.Vehicle(vid)
		depotNodeIDs[v.StartDepotID] = struct{}{}
		depotNodeIDs[v.EndDepotID] = struct{}{}
	}

	deliveryOfPickup := make(map[int]int)
	pickupOfDelivery := make(map[int]int)
	for _, rid := range m.RequestIDs() {
		req, _ := m.Request(rid)
		deliveryOfPickup[req.PickNodeID] = req.DeliveryNodeID
		pickupOfDelivery[req.DeliveryNodeID] = req.PickNodeID
	}

	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%d\t%g\t%g\n", routedCount, capacity, speed); err != nil {
		return pdperr.NewDataError("litformat.WriteLiLim", "failed writing header", err)
	}
	if _, err := fmt.Fprintf(bw, "%d\t%g\t%g\t%g\t%g\t%g\t%g\t%d\t%d\n",
		0, depot.X, depot.Y, 0.0, depot.EarliestService, depot.LatestService, depot.ServiceDuration, 0, 0); err != nil {
		return pdperr.NewDataError("litformat.WriteLiLim", "failed writing depot line", err)
	}

	ids := m.NodeIDs()
	sort.Ints(ids)
	for _, id := range ids {
		if _, isDepot := depotNodeIDs[id]; isDepot {
			continue
		}
		n, _ := m.Node(id)
		pickupIdx := pickupOfDelivery[id]
		deliveryIdx := deliveryOfPickup[id]
		if _, err := fmt.Fprintf(bw, "%d\t%g\t%g\t%g\t%g\t%g\t%g\t%d\t%d\n",
			n.ID, n.X, n.Y, n.Load, n.EarliestService, n.LatestService, n.ServiceDuration, pickupIdx, deliveryIdx); err != nil {
			return pdperr.NewDataError("litformat.WriteLiLim", "failed writing node line", err)
		}
	}
	return bw.Flush()
}

