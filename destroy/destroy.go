// Package destroy implements spec.md §4.3's three removal operators:
// Random, Worst, and Shaw. Each takes an explicit *rand.Rand rather than
// touching a package-level or global source, following the teacher's
// tsp/rng.go discipline of never hiding randomness behind an implicit
// stream -- determinism for a fixed seed is a hard requirement (spec.md
// §4.5).
package destroy

import (
	"math"
	"math/rand"
	"sort"

	"github.com/mirzoyan-dev/pdptw-alns/instance"
	"github.com/mirzoyan-dev/pdptw-alns/solution"
)

// Operator removes up to q currently-assigned requests from sol.
type Operator func(rng *rand.Rand, meta *instance.Meta, sol *solution.Solution, q int) error

// clampQ bounds q to the number of currently assigned requests: every
// operator is specified to remove q "or as many as possible."
func clampQ(q, available int) int {
	if q > available {
		return available
	}
	return q
}

// Random uniformly samples q distinct assigned requests without
// replacement and removes them in one batch.
func Random(rng *rand.Rand, meta *instance.Meta, sol *solution.Solution, q int) error {
	assigned := sol.AssignedRequestIDs()
	q = clampQ(q, len(assigned))
	if q == 0 {
		return nil
	}
	rng.Shuffle(len(assigned), func(i, j int) { assigned[i], assigned[j] = assigned[j], assigned[i] })
	return sol.RemoveRequests(assigned[:q])
}

// Worst repeatedly removes the request with a biased-toward-expensive draw
// from the currently-assigned costIfRemove ranking, removing each pick
// immediately so the next draw's costs reflect the updated solution.
func Worst(rng *rand.Rand, meta *instance.Meta, sol *solution.Solution, q int) error {
	assigned := sol.AssignedRequestIDs()
	q = clampQ(q, len(assigned))

	for i := 0; i < q; i++ {
		remaining := sol.AssignedRequestIDs()
		if len(remaining) == 0 {
			break
		}
		type scored struct {
			id   int
			cost float64
		}
		ranked := make([]scored, len(remaining))
		for k, id := range remaining {
			cost, err := sol.CostIfRemove(id)
			if err != nil {
				return err
			}
			ranked[k] = scored{id: id, cost: cost}
		}
		sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].cost > ranked[b].cost })

		y := rng.Float64()
		idx := int(math.Pow(y, float64(meta.Params.PWorst)) * float64(len(ranked)))
		if idx >= len(ranked) {
			idx = len(ranked) - 1
		}
		if err := sol.RemoveRequests([]int{ranked[idx].id}); err != nil {
			return err
		}
	}
	return nil
}

// relatedness computes R(a,b) per spec.md §4.3's weighted sum of
// normalized distance/time/load components plus the unnormalized
// compatible-vehicle-set overlap term.
type relatedness struct {
	meta *instance.Meta
	sol  *solution.Solution

	dNorm map[[2]int]float64
	tNorm map[[2]int]float64
	qNorm map[[2]int]float64
}

func pairKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// buildRelatedness precomputes and min-max normalizes the distance, time,
// and load dictionaries over every pair of the currently assigned
// requests, per spec.md §4.3 ("degenerate range -> 0").
func buildRelatedness(meta *instance.Meta, sol *solution.Solution, ids []int) *relatedness {
	rel := &relatedness{
		meta:  meta,
		sol:   sol,
		dNorm: make(map[[2]int]float64),
		tNorm: make(map[[2]int]float64),
		qNorm: make(map[[2]int]float64),
	}

	type raw struct {
		key [2]int
		d   float64
		tm  float64
		q   float64
	}
	raws := make([]raw, 0, len(ids)*(len(ids)-1)/2)

	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a, b := ids[i], ids[j]
			d, tm, q := rawComponents(meta, sol, a, b)
			raws = append(raws, raw{key: pairKey(a, b), d: d, tm: tm, q: q})
		}
	}

	normalize := func(get func(raw) float64, out map[[2]int]float64) {
		if len(raws) == 0 {
			return
		}
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, r := range raws {
			v := get(r)
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		span := hi - lo
		for _, r := range raws {
			if span <= 0 {
				out[r.key] = 0
				continue
			}
			out[r.key] = (get(r) - lo) / span
		}
	}
	normalize(func(r raw) float64 { return r.d }, rel.dNorm)
	normalize(func(r raw) float64 { return r.tm }, rel.tNorm)
	normalize(func(r raw) float64 { return r.q }, rel.qNorm)

	return rel
}

// rawComponents computes the un-normalized distance, time, and load
// components of R(a,b): d(pa,pb)+d(da,db), |ta^p-tb^p|+|ta^d-tb^d|, and
// |qa-qb|.
func rawComponents(meta *instance.Meta, sol *solution.Solution, a, b int) (d, tm, q float64) {
	reqA, _ := meta.Request(a)
	reqB, _ := meta.Request(b)

	dPick, _ := meta.Distance(reqA.PickNodeID, reqB.PickNodeID)
	dDeliv, _ := meta.Distance(reqA.DeliveryNodeID, reqB.DeliveryNodeID)
	d = dPick + dDeliv

	tm = absF(serviceStart(sol, reqA.PickNodeID)-serviceStart(sol, reqB.PickNodeID)) +
		absF(serviceStart(sol, reqA.DeliveryNodeID)-serviceStart(sol, reqB.DeliveryNodeID))

	q = absF(reqA.RequiredCapacity - reqB.RequiredCapacity)
	return d, tm, q
}

// serviceStart returns nodeID's current service start time on whichever
// route it is presently visited by, or 0 if it is not on any active route
// (should not occur for a pick/delivery pair of a currently-assigned
// request).
func serviceStart(sol *solution.Solution, nodeID int) float64 {
	vid, ok := sol.VehicleOfNode(nodeID)
	if !ok {
		return 0
	}
	r, ok := sol.RouteFor(vid)
	if !ok {
		return 0
	}
	t, _ := r.StartServiceOf(nodeID)
	return t
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// R returns the full weighted relatedness between requests a and b.
func (rel *relatedness) R(a, b int) float64 {
	p := rel.meta.Params
	key := pairKey(a, b)

	reqA, _ := rel.meta.Request(a)
	reqB, _ := rel.meta.Request(b)

	vehicleOverlap := vehicleSetOverlap(reqA.CompatibleVehicles, reqB.CompatibleVehicles)

	return p.ShawW1*rel.dNorm[key] +
		p.ShawW2*rel.tNorm[key] +
		p.ShawW3*rel.qNorm[key] +
		p.ShawW4*(1-vehicleOverlap)
}

func vehicleSetOverlap(a, b map[int]struct{}) float64 {
	minSize := len(a)
	if len(b) < minSize {
		minSize = len(b)
	}
	if minSize == 0 {
		return 0
	}
	inter := 0
	for v := range a {
		if _, ok := b[v]; ok {
			inter++
		}
	}
	return float64(inter) / float64(minSize)
}

// Shaw seeds D with one uniformly-random assigned request, then grows D by
// repeatedly picking a random member r of D and drawing a related request
// via the biased y^p selection over R(r,*) ascending.
func Shaw(rng *rand.Rand, meta *instance.Meta, sol *solution.Solution, q int) error {
	assigned := sol.AssignedRequestIDs()
	q = clampQ(q, len(assigned))
	if q == 0 {
		return nil
	}

	rel := buildRelatedness(meta, sol, assigned)

	inD := make(map[int]struct{}, q)
	d := make([]int, 0, q)
	seed := assigned[rng.Intn(len(assigned))]
	d = append(d, seed)
	inD[seed] = struct{}{}

	for len(d) < q {
		r := d[rng.Intn(len(d))]

		remaining := make([]int, 0, len(assigned))
		for _, id := range assigned {
			if _, taken := inD[id]; !taken {
				remaining = append(remaining, id)
			}
		}
		if len(remaining) == 0 {
			break
		}
		sort.SliceStable(remaining, func(i, j int) bool {
			return rel.R(r, remaining[i]) < rel.R(r, remaining[j])
		})

		y := rng.Float64()
		idx := int(math.Pow(y, float64(meta.Params.P)) * float64(len(remaining)))
		if idx >= len(remaining) {
			idx = len(remaining) - 1
		}
		pick := remaining[idx]
		d = append(d, pick)
		inD[pick] = struct{}{}
	}

	return sol.RemoveRequests(d)
}
