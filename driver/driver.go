// Package driver implements the Two-Stage Driver of spec.md §4.6: Phase A
// grows the homogeneous fleet until every request is feasibly assigned,
// Phase B shrinks it back down by repeatedly deleting the max-id vehicle
// and re-solving with a short ALNS budget, and a final refinement pass
// polishes the best snapshot with the full iteration budget.
//
// Grounded on the teacher's tsp/solve.go multi-stage dispatch, where
// Christofides runs TSPApprox then TwoOpt then optionally ThreeOpt, each
// stage feeding the next stage's input: Phase A's output solution seeds
// Phase B, and Phase B's best snapshot seeds the final refinement.
package driver

import (
	"k8s.io/klog/v2"

	"github.com/mirzoyan-dev/pdptw-alns/alns"
	"github.com/mirzoyan-dev/pdptw-alns/instance"
	"github.com/mirzoyan-dev/pdptw-alns/metrics"
	"github.com/mirzoyan-dev/pdptw-alns/pdperr"
	"github.com/mirzoyan-dev/pdptw-alns/solution"
)

// phaseAAttemptCap is spec.md §4.6's hard cap of 1000 outer attempts.
const phaseAAttemptCap = 1000

// Driver runs the two-stage search over a Problem Instance.
type Driver struct {
	Logger  klog.Logger
	Metrics *metrics.Collector

	meta *instance.Meta
	seed int64

	trace       []alns.IterationSample
	traceOffset int
	warning     error
}

// New builds a Driver over meta with a deterministic RNG seed. A zero-value
// logger defaults to klog.Background(); a nil metrics collector is the
// documented zero-cost default.
func New(meta *instance.Meta, seed int64, logger klog.Logger, mcol *metrics.Collector) *Driver {
	if logger.GetSink() == nil {
		logger = klog.Background()
	}
	return &Driver{Logger: logger, Metrics: mcol, meta: meta, seed: seed}
}

// ConvergenceTrace returns every (iteration, best-known objective) sample
// recorded across Phase B's shrink attempts and the final refinement pass,
// with iteration numbers offset to form one continuous series — the
// feed for viz.RenderConvergence.
func (d *Driver) ConvergenceTrace() []alns.IterationSample { return d.trace }

// Warning returns the AlgorithmWarning recorded if Phase B stopped shrinking
// early (budget exhausted without emptying the bank, or a shrink left no
// active route to seed further ALNS from), or nil if Phase B ran to
// completion. Swallowed by Run per spec.md §7/§9's resolution of this Open
// Question: the run still succeeds, but the warning remains inspectable via
// pdperr.IsAlgorithmWarning.
func (d *Driver) Warning() error { return d.warning }

// recordTrace appends e's history to the driver-wide convergence trace,
// offsetting iteration numbers so repeated alns.New/Seed calls across
// Phase B's shrink loop and the final refinement pass read as one
// continuous series rather than restarting at 1 each time.
func (d *Driver) recordTrace(e *alns.Engine) {
	for _, s := range e.History() {
		d.trace = append(d.trace, alns.IterationSample{
			Iteration:     d.traceOffset + s.Iteration,
			BestObjective: s.BestObjective,
		})
	}
	d.traceOffset += len(e.History())
}

// Run executes Phase A, Phase B, and the final refinement pass in
// sequence, returning the finished solution.
func (d *Driver) Run() (*solution.Solution, error) {
	s, err := d.phaseA()
	if err != nil {
		return nil, err
	}
	d.Logger.Info("phase A complete", "vehicles", len(d.meta.VehicleIDs()))

	best, err := d.phaseB(s)
	if err != nil {
		return nil, err
	}
	d.Logger.Info("phase B complete", "vehicles", len(d.meta.VehicleIDs()))

	final, err := d.refine(best)
	if err != nil {
		return nil, err
	}
	d.Logger.Info("refinement complete", "objective", final.Objective())
	return final, nil
}

// phaseA drains the request bank by insertOptimalIntoAny, cloning the
// reference vehicle and requeuing on failure. It aborts with a
// ConvergenceError if the same request fails twice in a row even after a
// vehicle was added, or after phaseAAttemptCap outer attempts.
func (d *Driver) phaseA() (*solution.Solution, error) {
	s := solution.New(d.meta)

	lastFailed := -1
	failedTwice := false

	for attempt := 0; attempt < phaseAAttemptCap; attempt++ {
		pending := s.RequestBankIDs()
		if len(pending) == 0 {
			return s, nil
		}
		requestID := pending[0]

		ok, _, err := s.InsertOptimalIntoAny(requestID)
		if err != nil {
			return nil, err
		}
		if ok {
			lastFailed = -1
			continue
		}

		if requestID == lastFailed {
			failedTwice = true
		}
		lastFailed = requestID

		if _, err := s.AddCloneVehicle(); err != nil {
			return nil, err
		}
		d.Metrics.SetFleetSize(len(d.meta.VehicleIDs()))

		ok, _, err = s.InsertOptimalIntoAny(requestID)
		if err != nil {
			return nil, err
		}
		if ok {
			lastFailed = -1
			continue
		}
		if failedTwice {
			return nil, pdperr.NewConvergenceError("phase A: request remains infeasible after adding a vehicle")
		}
	}

	if len(s.RequestBankIDs()) > 0 {
		return nil, pdperr.NewConvergenceError("phase A: exceeded outer attempt cap with requests still banked")
	}
	return s, nil
}

// phaseB repeatedly deletes the max-id vehicle and re-solves with a short
// ALNS budget, snapshotting the best solution after every successful
// shrink. It stops — recording a swallowed pdperr.AlgorithmWarning,
// inspectable afterward via Driver.Warning — the first time a shrink
// attempt fails to empty the bank or leaves no active route to seed
// further ALNS from. It also stops, without recording a warning, once the
// cumulative ALNS iteration budget theta is exhausted or only one vehicle
// remains.
func (d *Driver) phaseB(s *solution.Solution) (*solution.Solution, error) {
	p := d.meta.Params
	best := s.Clone()
	budgetLeft := p.Theta

	for budgetLeft > 0 {
		candidateIDs := append(append([]int{}, s.RoutedVehicleIDs()...), s.VehicleBankIDs()...)
		if len(candidateIDs) <= 1 {
			// Never delete the last vehicle: a zero-vehicle fleet cannot
			// seed ALNS (objectiveSansBank would be 0) and cannot ever
			// hold any request, so this is the shrink floor.
			break
		}
		maxID := candidateIDs[0]
		for _, id := range candidateIDs {
			if id > maxID {
				maxID = id
			}
		}

		if err := s.DeleteVehicleAndRoute(maxID); err != nil {
			return nil, err
		}
		d.Metrics.SetFleetSize(len(d.meta.VehicleIDs()))

		// Deleting the max-id vehicle frees its requests back into the
		// bank; greedily offer them to the remaining fleet before seeding
		// ALNS, the same way Phase A fills idle vehicles. Without this, a
		// shrink that happens to delete the one vehicle actually carrying
		// a route (while a lower-id vehicle sits idle) leaves every
		// remaining route empty, and Seed's objectiveSansBank > 0
		// precondition would otherwise fail on a perfectly recoverable
		// state rather than on a real engine bug.
		for _, rid := range s.RequestBankIDs() {
			if _, _, err := s.InsertOptimalIntoAny(rid); err != nil {
				return nil, err
			}
		}

		if s.ObjectiveSansBank() <= 0 {
			d.warning = pdperr.NewAlgorithmWarning("phase B: shrink left no active route to continue from, stopping")
			d.Logger.Info("phase B: stopping early", "reason", d.warning, "vehicles", len(d.meta.VehicleIDs()))
			return best, nil
		}

		tau := p.Tau
		if tau > budgetLeft {
			tau = budgetLeft
		}

		e := alns.New(d.meta, d.seed, d.Logger, d.Metrics)
		if err := e.Seed(s); err != nil {
			return nil, err
		}
		ran, err := e.RunBudget(tau, true)
		budgetLeft -= ran
		d.recordTrace(e)
		if err != nil {
			// Per spec.md §9's fix to "swallow any error": only the
			// expected non-empty-bank-after-budget outcome below is
			// treated as AlgorithmWarning territory; a genuine error
			// here is always an engine bug and propagates fatally.
			return nil, err
		}

		if len(e.Best().RequestBankIDs()) > 0 {
			d.warning = pdperr.NewAlgorithmWarning("phase B: shrink to vehicle count did not empty bank, stopping")
			d.Logger.Info("phase B: stopping early", "reason", d.warning, "vehicles", len(d.meta.VehicleIDs()))
			return best, nil
		}

		s = e.Best()
		best = s.Clone()
	}

	return best, nil
}

// refine runs ALNS once more on the best snapshot with the full
// iteration_num budget and no early stop.
func (d *Driver) refine(s *solution.Solution) (*solution.Solution, error) {
	e := alns.New(d.meta, d.seed, d.Logger, d.Metrics)
	if err := e.Seed(s); err != nil {
		return nil, err
	}
	_, err := e.RunBudget(d.meta.Params.IterationNum, false)
	d.recordTrace(e)
	if err != nil {
		return nil, err
	}
	return e.Best(), nil
}
