// Package params defines the complete, immutable configuration surface for
// the PDPTW solver (spec.md §6.2): objective weights, destroy/repair
// selection knobs, SA schedule, ALNS budget controls, and two-stage driver
// budgets.
//
// Every field is validated eagerly in New, following the teacher's
// dijkstra.Option idiom (functional options layered onto a defaulted
// struct) with one deliberate departure: dijkstra's option constructors
// panic on an invalid argument, but spec.md §6.2 demands a fail-fast
// *error*, not a panic, so validation here happens once, centrally, in New.
package params

import (
	"encoding/json"
	"io"

	"github.com/mirzoyan-dev/pdptw-alns/pdperr"
)

// Parameters is the complete, range-validated configuration for a solver
// run. Zero value is not meaningful; build one with New(Default(), ...opts).
type Parameters struct {
	Alpha float64 // distance weight in objective
	Beta  float64 // duration weight in objective
	Gama  float64 // penalty per unassigned request

	ShawW1 float64 // Shaw relatedness: distance weight
	ShawW2 float64 // Shaw relatedness: time weight
	ShawW3 float64 // Shaw relatedness: load weight
	ShawW4 float64 // Shaw relatedness: vehicle-set weight
	P      int     // Shaw selection exponent
	PWorst int     // worst-removal selection exponent

	W          float64 // SA warm-start fraction
	AnnealingP float64 // SA warm-start acceptance probability
	CCool      float64 // SA cooling rate

	R          float64  // weight mixing rate
	RewardAdds [3]int   // sigma1, sigma2, sigma3
	Eta        float64  // noise amplitude fraction of Dmax

	InitialWeight float64 // starting weight for every operator

	IterationNum int     // ALNS iteration cap
	Epsilon      float64 // max fraction of requests removed per iteration
	SegmentNum   int     // iterations between weight updates

	Theta int // two-stage total ALNS budget
	Tau   int // per-shrink ALNS budget

	RemoveUpperBound int // qHi cap
	RemoveLowerBound int // qLo floor
}

// Option mutates a Parameters value under construction.
type Option func(*Parameters)

// Default returns spec.md §6.2's documented default values.
func Default() Parameters {
	return Parameters{
		Alpha:            1.0,
		Beta:             1e-6,
		Gama:             1e9,
		ShawW1:           9,
		ShawW2:           3,
		ShawW3:           3,
		ShawW4:           5,
		P:                6,
		PWorst:           3,
		W:                0.05,
		AnnealingP:       0.5,
		CCool:            0.99975,
		R:                0.1,
		RewardAdds:       [3]int{10, 6, 3},
		Eta:              0.025,
		InitialWeight:    1,
		IterationNum:     25000,
		Epsilon:          0.4,
		SegmentNum:       50,
		Theta:            25000,
		Tau:              2000,
		RemoveUpperBound: 100,
		RemoveLowerBound: 4,
	}
}

// WithAlpha overrides the distance weight.
func WithAlpha(v float64) Option { return func(p *Parameters) { p.Alpha = v } }

// WithBeta overrides the duration weight.
func WithBeta(v float64) Option { return func(p *Parameters) { p.Beta = v } }

// WithGama overrides the per-unassigned-request penalty.
func WithGama(v float64) Option { return func(p *Parameters) { p.Gama = v } }

// WithShawWeights overrides the four Shaw relatedness weights.
func WithShawWeights(w1, w2, w3, w4 float64) Option {
	return func(p *Parameters) { p.ShawW1, p.ShawW2, p.ShawW3, p.ShawW4 = w1, w2, w3, w4 }
}

// WithShawExponent overrides the Shaw selection exponent p.
func WithShawExponent(v int) Option { return func(p *Parameters) { p.P = v } }

// WithWorstExponent overrides the worst-removal selection exponent p_worst.
func WithWorstExponent(v int) Option { return func(p *Parameters) { p.PWorst = v } }

// WithAnnealing overrides the SA warm-start fraction, acceptance probability,
// and cooling rate.
func WithAnnealing(warmFraction, acceptProb, cool float64) Option {
	return func(p *Parameters) { p.W, p.AnnealingP, p.CCool = warmFraction, acceptProb, cool }
}

// WithWeightMixing overrides the operator-weight mixing rate r.
func WithWeightMixing(v float64) Option { return func(p *Parameters) { p.R = v } }

// WithRewards overrides the (sigma1, sigma2, sigma3) reward tuple.
func WithRewards(sigma1, sigma2, sigma3 int) Option {
	return func(p *Parameters) { p.RewardAdds = [3]int{sigma1, sigma2, sigma3} }
}

// WithNoise overrides the noise amplitude fraction eta.
func WithNoise(v float64) Option { return func(p *Parameters) { p.Eta = v } }

// WithInitialWeight overrides every operator's starting weight.
func WithInitialWeight(v float64) Option { return func(p *Parameters) { p.InitialWeight = v } }

// WithIterationNum overrides the ALNS iteration cap.
func WithIterationNum(v int) Option { return func(p *Parameters) { p.IterationNum = v } }

// WithEpsilon overrides the max removal fraction epsilon.
func WithEpsilon(v float64) Option { return func(p *Parameters) { p.Epsilon = v } }

// WithSegmentNum overrides the weight-update segment length.
func WithSegmentNum(v int) Option { return func(p *Parameters) { p.SegmentNum = v } }

// WithTwoStageBudgets overrides theta (total shrink budget) and tau
// (per-shrink budget).
func WithTwoStageBudgets(theta, tau int) Option {
	return func(p *Parameters) { p.Theta, p.Tau = theta, tau }
}

// WithRemoveBounds overrides qHi/qLo caps.
func WithRemoveBounds(upper, lower int) Option {
	return func(p *Parameters) { p.RemoveUpperBound, p.RemoveLowerBound = upper, lower }
}

// New builds Parameters from a base value (typically Default()) with opts
// applied in order, then range-validates every field per spec.md §6.2,
// returning a pdperr ConfigError on the first violation found.
func New(base Parameters, opts ...Option) (Parameters, error) {
	p := base
	for _, opt := range opts {
		opt(&p)
	}
	if err := validate(p); err != nil {
		return Parameters{}, err
	}
	return p, nil
}

func validate(p Parameters) error {
	switch {
	case p.Alpha <= 0:
		return pdperr.NewConfigError("alpha", "must be > 0")
	case p.Beta <= 0:
		return pdperr.NewConfigError("beta", "must be > 0")
	case p.Gama <= 0:
		return pdperr.NewConfigError("gama", "must be > 0")
	case p.P < 1:
		return pdperr.NewConfigError("p", "must be >= 1")
	case p.PWorst < 1:
		return pdperr.NewConfigError("p_worst", "must be >= 1")
	case p.W <= 0 || p.W >= 1:
		return pdperr.NewConfigError("w", "must be in (0,1)")
	case p.AnnealingP <= 0 || p.AnnealingP >= 1:
		return pdperr.NewConfigError("annealing_p", "must be in (0,1)")
	case p.CCool <= 0 || p.CCool >= 1:
		return pdperr.NewConfigError("c_cool", "must be in (0,1)")
	case p.R <= 0 || p.R >= 1:
		return pdperr.NewConfigError("r", "must be in (0,1)")
	case p.Eta <= 0 || p.Eta >= 1:
		return pdperr.NewConfigError("eta", "must be in (0,1)")
	case p.InitialWeight <= 0:
		return pdperr.NewConfigError("initial_weight", "must be > 0")
	case p.IterationNum < 1:
		return pdperr.NewConfigError("iteration_num", "must be >= 1")
	case p.Epsilon <= 0 || p.Epsilon > 1:
		return pdperr.NewConfigError("epsilon", "must be in (0,1]")
	case p.SegmentNum < 1:
		return pdperr.NewConfigError("segment_num", "must be >= 1")
	case p.Theta < 1:
		return pdperr.NewConfigError("theta", "must be >= 1")
	case p.Tau < 1:
		return pdperr.NewConfigError("tau", "must be >= 1")
	case p.RemoveUpperBound < 1:
		return pdperr.NewConfigError("remove_upper_bound", "must be >= 1")
	case p.RemoveLowerBound < 1:
		return pdperr.NewConfigError("remove_lower_bound", "must be >= 1")
	case p.RemoveLowerBound > p.RemoveUpperBound:
		return pdperr.NewConfigError("remove_lower_bound", "must be <= remove_upper_bound")
	}
	return nil
}

// Load decodes Parameters from JSON, starting from Default() so an input
// document may specify only the fields it wants to override, then
// range-validates the result.
func Load(r io.Reader) (Parameters, error) {
	p := Default()
	dec := json.NewDecoder(r)
	if err := dec.Decode(&p); err != nil {
		return Parameters{}, pdperr.NewDataError("params.Load", "malformed JSON", err)
	}
	if err := validate(p); err != nil {
		return Parameters{}, err
	}
	return p, nil
}

// Save encodes p as indented JSON, the inverse of Load.
func Save(w io.Writer, p Parameters) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}
