// Package repair implements spec.md §4.4's Greedy and Regret-k insertion
// operators over a shared cost table, plus the optional noise wrapper.
//
// Grounded on the teacher's tsp/solve.go tagged-dispatch style (a small set
// of named algorithms behind a uniform signature) generalized from a
// switch-on-enum dispatcher to independent exported functions sharing a
// CostTable value, and tsp/rng.go's explicit-RNG-never-global discipline
// for the noise draw.
package repair

import (
	"math"
	"math/rand"
	"sort"

	"github.com/mirzoyan-dev/pdptw-alns/instance"
	"github.com/mirzoyan-dev/pdptw-alns/pdperr"
	"github.com/mirzoyan-dev/pdptw-alns/solution"
)

// Unlimited is the sentinel cost for an infeasible or incompatible
// (request, vehicle) cell, per spec.md §4.4.
const Unlimited = 1e14

// CostTable is requestId -> vehicleId -> alpha*distanceDelta + beta*timeDelta,
// or Unlimited when infeasible/incompatible.
type CostTable map[int]map[int]float64

// Build computes the full cost table for every request currently in the
// bank against every vehicle in its compatible set.
func Build(meta *instance.Meta, sol *solution.Solution) (CostTable, error) {
	table := make(CostTable)
	for _, r := range sol.RequestBankIDs() {
		req, ok := meta.Request(r)
		if !ok {
			return nil, pdperr.NewStateViolation("repair.Build", "unknown request id")
		}
		row := make(map[int]float64, len(req.CompatibleVehicles))
		for v := range req.CompatibleVehicles {
			feasibleResult, cost, err := sol.CostIfInsert(r, v)
			if err != nil {
				return nil, err
			}
			if feasibleResult {
				row[v] = cost
			} else {
				row[v] = Unlimited
			}
		}
		table[r] = row
	}
	return table, nil
}

// RecomputeColumn recomputes C[r][vehicleID] for every r still in the
// table, after an insertion into vehicleID changes that route.
func (t CostTable) RecomputeColumn(meta *instance.Meta, sol *solution.Solution, vehicleID int) error {
	for r, row := range t {
		req, ok := meta.Request(r)
		if !ok {
			continue
		}
		if !req.CompatibleWith(vehicleID) {
			continue
		}
		feasibleResult, cost, err := sol.CostIfInsert(r, vehicleID)
		if err != nil {
			return err
		}
		if feasibleResult {
			row[vehicleID] = cost
		} else {
			row[vehicleID] = Unlimited
		}
	}
	return nil
}

// NoiseFunc perturbs a cost-table cell for selection purposes only; it
// never changes the actual committed insertion cost, which is always
// recomputed from the true route delta.
type NoiseFunc func(rng *rand.Rand, cost float64) float64

// NoNoise is the identity wrapper: the ALNS engine's "no noise" choice.
func NoNoise(rng *rand.Rand, cost float64) float64 { return cost }

// Noisy builds a wrapper perturbing feasible costs to
// max(0, c + U(-eta*dmax, +eta*dmax)), per spec.md §4.4.
func Noisy(eta, dmax float64) NoiseFunc {
	span := eta * dmax
	return func(rng *rand.Rand, cost float64) float64 {
		if cost >= Unlimited {
			return cost
		}
		delta := (rng.Float64()*2 - 1) * span
		c := cost + delta
		if c < 0 {
			c = 0
		}
		return c
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func sortedRequestIDs(t CostTable) []int {
	ids := make([]int, 0, len(t))
	for r := range t {
		ids = append(ids, r)
	}
	sort.Ints(ids)
	return ids
}

func sortedVehicleIDs(row map[int]float64) []int {
	ids := make([]int, 0, len(row))
	for v := range row {
		ids = append(ids, v)
	}
	sort.Ints(ids)
	return ids
}

// Greedy repeatedly commits the globally cheapest (noise-perturbed)
// feasible (request, vehicle) pair, recomputing only the committed
// vehicle's column after each commit, per spec.md §4.4's shared stop
// conditions. Returns the number of requests successfully inserted.
func Greedy(meta *instance.Meta, sol *solution.Solution, table CostTable, q int, noise NoiseFunc, rng *rand.Rand) (int, error) {
	budget := 2 * minInt(q, len(table))
	count := 0
	for count < budget {
		if len(table) == 0 {
			break
		}
		bestR, bestV, bestCost := -1, -1, math.Inf(1)
		for _, r := range sortedRequestIDs(table) {
			row := table[r]
			for _, v := range sortedVehicleIDs(row) {
				nc := noise(rng, row[v])
				if nc < bestCost {
					bestCost, bestR, bestV = nc, r, v
				}
			}
		}
		if bestR == -1 || bestCost >= Unlimited {
			break
		}

		out, err := sol.InsertOptimalIntoVehicle(bestR, bestV)
		if err != nil {
			return count, err
		}
		if !out.Feasible {
			return count, pdperr.NewStateViolation("Greedy", "cost table entry was feasible but commit failed")
		}
		delete(table, bestR)
		if err := table.RecomputeColumn(meta, sol, bestV); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// RegretK implements spec.md §4.4's regret-k insertion: for each remaining
// request with at least k feasible vehicle costs, commits the request
// whose regret (sum of the gaps between its k cheapest costs and its
// cheapest cost) is largest, tie-broken by ascending request id. k is
// typically one of {2,3,4,len(vehicles)}; the caller is responsible for
// ensuring k does not exceed the total vehicle count.
func RegretK(meta *instance.Meta, sol *solution.Solution, table CostTable, k, q int, noise NoiseFunc, rng *rand.Rand) (int, error) {
	budget := 2 * minInt(q, len(table))
	count := 0

	type candidate struct {
		vehicle int
		cost    float64
	}

	for count < budget {
		if len(table) == 0 {
			break
		}
		bestR, bestVehicle := -1, -1
		bestRegret := -1.0

		for _, r := range sortedRequestIDs(table) {
			row := table[r]
			cands := make([]candidate, 0, len(row))
			for _, v := range sortedVehicleIDs(row) {
				cands = append(cands, candidate{vehicle: v, cost: noise(rng, row[v])})
			}
			sort.SliceStable(cands, func(i, j int) bool { return cands[i].cost < cands[j].cost })

			feasibleCount := 0
			for _, c := range cands {
				if c.cost < Unlimited {
					feasibleCount++
				}
			}
			if feasibleCount < k || len(cands) == 0 || cands[0].cost >= Unlimited {
				continue
			}

			regret := 0.0
			for i := 0; i < k; i++ {
				regret += cands[i].cost - cands[0].cost
			}
			if regret > bestRegret {
				bestRegret = regret
				bestR = r
				bestVehicle = cands[0].vehicle
			}
		}

		if bestR == -1 {
			break
		}

		out, err := sol.InsertOptimalIntoVehicle(bestR, bestVehicle)
		if err != nil {
			return count, err
		}
		if !out.Feasible {
			return count, pdperr.NewStateViolation("RegretK", "cost table entry was feasible but commit failed")
		}
		delete(table, bestR)
		if err := table.RecomputeColumn(meta, sol, bestVehicle); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
