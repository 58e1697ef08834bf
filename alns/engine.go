// Package alns implements the Adaptive Large Neighborhood Search engine of
// spec.md §4.5: weighted roulette-wheel operator selection, simulated-
// annealing acceptance, segment-based weight updates, and fingerprint-based
// duplicate suppression.
//
// Grounded on the teacher's tsp/two_opt.go soft-budget idiom
// (checkDeadline/maxIters generalized to an explicit iteration-budget
// argument, per spec.md §9's fix for the "mutate shared Parameters"
// smell: RunBudget takes n as a call argument, never writing back into
// params.Parameters) and tsp/rng.go's seeded-RNG-never-global discipline.
package alns

import (
	"math"
	"math/rand"

	"k8s.io/klog/v2"

	"github.com/mirzoyan-dev/pdptw-alns/destroy"
	"github.com/mirzoyan-dev/pdptw-alns/instance"
	"github.com/mirzoyan-dev/pdptw-alns/internal/lru"
	"github.com/mirzoyan-dev/pdptw-alns/metrics"
	"github.com/mirzoyan-dev/pdptw-alns/params"
	"github.com/mirzoyan-dev/pdptw-alns/pdperr"
	"github.com/mirzoyan-dev/pdptw-alns/repair"
	"github.com/mirzoyan-dev/pdptw-alns/solution"
)

// acceptedSetCapacity is the 25,000-entry bound from spec.md §4.5/§5.
const acceptedSetCapacity = 25000

// repairFunc unifies Greedy and every Regret-k instantiation behind one
// call shape for the weighted operator table.
type repairFunc func(meta *instance.Meta, sol *solution.Solution, table repair.CostTable, q int, noise repair.NoiseFunc, rng *rand.Rand) (int, error)

// Engine holds all state carried across ALNS iterations: the current and
// best-known solutions, the SA temperature, the three operator-class
// weight vectors, and the accepted-fingerprint LRU. Never call RunBudget
// concurrently on the same Engine (§5).
type Engine struct {
	Logger  klog.Logger
	Metrics *metrics.Collector

	meta   *instance.Meta
	params params.Parameters
	rng    *rand.Rand

	destroyNames []string
	destroyOps   []destroy.Operator
	repairNames  []string
	repairOps    []repairFunc
	noiseNames   []string
	noiseFns     []repair.NoiseFunc

	destroyW *weightVector
	repairW  *weightVector
	noiseW   *weightVector

	accepted *lru.Set

	s               *solution.Solution
	sBest           *solution.Solution
	temperature     float64
	iterationsTotal int
	qLo, qHi        int
	history         []IterationSample
}

// IterationSample is one (iteration, best-known objective) sample recorded
// by RunBudget, consumed by driver.Driver to build a convergence trace for
// viz.RenderConvergence.
type IterationSample struct {
	Iteration     int
	BestObjective float64
}

// New builds an Engine over meta with a deterministic RNG seed. logger and
// mcol may be zero-value/nil: a zero klog.Logger defaults to
// klog.Background(), and a nil *metrics.Collector is the documented
// zero-cost default.
func New(meta *instance.Meta, seed int64, logger klog.Logger, mcol *metrics.Collector) *Engine {
	if logger.GetSink() == nil {
		logger = klog.Background()
	}
	p := meta.Params
	m := len(meta.VehicleIDs())

	e := &Engine{
		Logger:  logger,
		Metrics: mcol,
		meta:    meta,
		params:  p,
		rng:     rand.New(rand.NewSource(seed)),

		destroyNames: []string{"random", "worst", "shaw"},
		destroyOps:   []destroy.Operator{destroy.Random, destroy.Worst, destroy.Shaw},

		repairNames: []string{"greedy", "regret2", "regret3", "regret4", "regretM"},
		repairOps: []repairFunc{
			repair.Greedy,
			regretK(2),
			regretK(3),
			regretK(4),
			regretK(m),
		},

		noiseNames: []string{"none", "noisy"},
		noiseFns:   []repair.NoiseFunc{repair.NoNoise, repair.Noisy(p.Eta, meta.MaxDistance())},

		accepted: lru.New(acceptedSetCapacity),
	}
	e.destroyW = newWeightVector(len(e.destroyNames), p.InitialWeight)
	e.repairW = newWeightVector(len(e.repairNames), p.InitialWeight)
	e.noiseW = newWeightVector(len(e.noiseNames), p.InitialWeight)
	return e
}

func regretK(k int) repairFunc {
	return func(meta *instance.Meta, sol *solution.Solution, table repair.CostTable, q int, noise repair.NoiseFunc, rng *rand.Rand) (int, error) {
		return repair.RegretK(meta, sol, table, k, q, noise, rng)
	}
}

// Seed installs s0 as both the current and best-known solution, computes
// the initial SA temperature T0 = -w*objectiveSansBank(s0)/ln(p), and fixes
// the per-iteration removal bounds qLo/qHi for this instance's total
// request count. qHi < qLo is a ConfigError, not a per-iteration failure
// (spec.md §7): the instance's request count never changes once Seed-ed,
// so this only needs checking once.
func (e *Engine) Seed(s0 *solution.Solution) error {
	obj := s0.ObjectiveSansBank()
	if obj <= 0 {
		return pdperr.NewStateViolation("alns.Seed", "objectiveSansBank(s0) must be > 0")
	}

	numReq := len(e.meta.RequestIDs())
	e.qHi = minInt(e.params.RemoveUpperBound, int(e.params.Epsilon*float64(numReq)))
	e.qLo = e.params.RemoveLowerBound
	if e.qHi < e.qLo {
		return pdperr.NewConfigError("remove_bounds", "qHi < qLo for this instance's request count")
	}

	e.s = s0
	e.sBest = s0.Clone()
	e.temperature = -e.params.W * obj / math.Log(e.params.AnnealingP)
	return nil
}

// Current returns the engine's current working solution.
func (e *Engine) Current() *solution.Solution { return e.s }

// Best returns the engine's best-known solution.
func (e *Engine) Best() *solution.Solution { return e.sBest }

// History returns every (iteration, best-known objective) sample recorded
// across every RunBudget call made on this Engine so far, in order.
func (e *Engine) History() []IterationSample { return e.history }

// RunBudget executes up to n iterations (fewer if stopWhenAllAssigned
// fires once Best's request bank empties), returning the number of
// iterations actually run. Engine must have been Seed-ed first.
func (e *Engine) RunBudget(n int, stopWhenAllAssigned bool) (int, error) {
	if e.s == nil {
		return 0, pdperr.NewStateViolation("RunBudget", "engine not seeded")
	}

	ran := 0
	for ran < n {
		if err := e.iterate(); err != nil {
			return ran, err
		}
		ran++
		e.iterationsTotal++
		e.Metrics.IncIteration()
		e.history = append(e.history, IterationSample{Iteration: e.iterationsTotal, BestObjective: e.sBest.Objective()})

		if e.iterationsTotal%e.params.SegmentNum == 0 {
			e.destroyW.UpdateSegment(e.params.R)
			e.repairW.UpdateSegment(e.params.R)
			e.noiseW.UpdateSegment(e.params.R)
		}
		e.temperature = math.Max(1e-10, e.temperature*e.params.CCool)

		if stopWhenAllAssigned && len(e.sBest.RequestBankIDs()) == 0 {
			return ran, nil
		}
	}
	return ran, nil
}

// iterate runs one ALNS step (spec.md §4.5 steps 1-6).
func (e *Engine) iterate() error {
	p := e.params
	q := e.qLo + e.rng.Intn(e.qHi-e.qLo+1)

	di := e.destroyW.Select(e.rng)
	ri := e.repairW.Select(e.rng)
	ni := e.noiseW.Select(e.rng)
	e.destroyW.Use(di)
	e.repairW.Use(ri)
	e.noiseW.Use(ni)

	sPrime := e.s.Clone()
	if err := e.destroyOps[di](e.rng, e.meta, sPrime, q); err != nil {
		return err
	}
	table, err := repair.Build(e.meta, sPrime)
	if err != nil {
		return err
	}
	if _, err := e.repairOps[ri](e.meta, sPrime, table, q, e.noiseFns[ni], e.rng); err != nil {
		return err
	}

	fp := sPrime.Fingerprint()
	if e.accepted.Contains(fp) {
		return nil
	}

	cPrime := sPrime.Objective()
	c := e.s.Objective()
	cBest := e.sBest.Objective()

	var accept bool
	var outcome metrics.AcceptOutcome
	switch {
	case cPrime < cBest:
		e.credit(di, ri, ni, p.RewardAdds[0])
		accept = true
		outcome = metrics.OutcomeNewBest
	case cPrime <= c:
		e.credit(di, ri, ni, p.RewardAdds[1])
		accept = true
		outcome = metrics.OutcomeImproving
	default:
		prob := math.Exp(-(cPrime - c) / e.temperature)
		if e.rng.Float64() < prob {
			e.credit(di, ri, ni, p.RewardAdds[2])
			accept = true
			outcome = metrics.OutcomeDiversifying
		} else {
			outcome = metrics.OutcomeRejected
		}
	}

	if cPrime < cBest {
		e.sBest = sPrime.Clone()
	}
	if accept {
		e.s = sPrime
		e.accepted.Insert(fp)
	}

	e.Metrics.ObserveAccept(outcome)
	e.Metrics.SetObjective(e.sBest.Objective())
	e.Logger.V(2).Info("alns iteration",
		"outcome", outcome,
		"objective", cPrime,
		"bestObjective", e.sBest.Objective(),
		"runId", e.s.RunID,
		"destroy", e.destroyNames[di],
		"repair", e.repairNames[ri],
		"noise", e.noiseNames[ni],
	)

	return nil
}

func (e *Engine) credit(di, ri, ni, amount int) {
	e.destroyW.Credit(di, amount)
	e.repairW.Credit(ri, amount)
	e.noiseW.Credit(ni, amount)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
