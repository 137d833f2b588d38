package calculation

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/egmsolve/retirement-model/internal/domain"
	"github.com/egmsolve/retirement-model/pkg/interp"
)

// simWorkers caps the household-level parallelism of a simulation run.
const simWorkers = 8

// Simulator propagates a panel of households forward on a solved policy.
// All randomness is drawn up front from Params.Seed in a fixed channel
// order, so equal seeds produce bit-identical panels.
type Simulator struct {
	Par          *domain.Params
	Logger       Logger
	ComputeEuler bool
}

// NewSimulator returns a Simulator with a no-op logger.
func NewSimulator(par *domain.Params) *Simulator {
	return &Simulator{Par: par, Logger: NopLogger{}}
}

// singleDraws holds the pre-drawn randomness of a single-household run:
// choice uniforms, mortality uniforms, then one lifetime of log-normal
// income shocks per household.
type singleDraws struct {
	choice []float64
	mort   []float64
	inc    []float64
}

func drawSingle(par *domain.Params, states []domain.SimState) *singleDraws {
	rng := rand.New(rand.NewSource(par.Seed))
	t, n := par.T, len(states)
	d := &singleDraws{
		choice: make([]float64, t*n),
		mort:   make([]float64, t*n),
		inc:    make([]float64, t*n),
	}
	u := distuv.Uniform{Min: 0, Max: 1, Src: rng}
	for i := range d.choice {
		d.choice[i] = u.Rand()
	}
	for i := range d.mort {
		d.mort[i] = u.Rand()
	}
	for i := 0; i < n; i++ {
		v := par.VarWomen
		if states[i].Gender == domain.Male {
			v = par.VarMen
		}
		ln := distuv.LogNormal{Mu: -0.5 * v, Sigma: math.Sqrt(v), Src: rng}
		for k := 0; k < t; k++ {
			d.inc[k*n+i] = ln.Rand()
		}
	}
	return d
}

// Simulate runs the single-household panel forward on sol.
func (s *Simulator) Simulate(sol *domain.SingleSolution) (*domain.SimulationPanel, error) {
	par := s.Par
	if par.Couple {
		return nil, fmt.Errorf("single simulation called with couple parameters")
	}
	if par.Tables == nil {
		return nil, fmt.Errorf("lookup tables not built, call Prepare first")
	}
	if sol == nil {
		return nil, fmt.Errorf("simulation requires a solved policy")
	}
	if len(par.SimStates) == 0 {
		return nil, fmt.Errorf("no initial household states configured")
	}

	t, n := par.T, par.SimN
	p := domain.NewSimulationPanel(t, n)
	for i := 0; i < n; i++ {
		p.States[i] = par.SimStates[i%len(par.SimStates)]
	}
	dr := drawSingle(par, p.States)
	s.Logger.Infof("simulating %d single households over %d periods (seed %d)", n, t, par.Seed)

	var eg errgroup.Group
	eg.SetLimit(simWorkers)
	for i := 0; i < n; i++ {
		i := i
		eg.Go(func() error {
			s.runSingle(p, sol, dr, i)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return p, nil
}

// runSingle walks one household from the first period until death or the
// horizon. Households start working when feasible, with no early-retirement
// entitlement banked.
func (s *Simulator) runSingle(p *domain.SimulationPanel, sol *domain.SingleSolution, dr *singleDraws, i int) {
	par := s.Par
	g, st := p.States[i].Gender, p.States[i].State

	m := par.MInit
	ra := domain.StatusNone
	fc := FeasibleChoices(0, par)
	d := fc[len(fc)-1]

	for t := 0; t < par.T; t++ {
		idx := p.Idx(t, i)
		if t > 0 {
			pi := par.Tables.Survival(extIndex(t, 0, par), g)
			if dr.mort[idx] > pi {
				return
			}

			aPrev := p.A[p.Idx(t-1, i)]
			var y float64
			if d == domain.ChoiceWorking {
				y = PosttaxLaborAt(t, 0, g, st, 0, dr.inc[idx], par)
			} else {
				y = interp.At(par.GridA, par.Tables.Pension(extIndex(t, 0, par), g, st, ra), aPrev)
			}
			m = par.R*aPrev + y

			raNow := LookupStatus(t, st, ra, d, par)
			dSet := NextChoices(t-1, d, par)
			dNow := domain.ChoiceRetired
			if len(dSet) == 2 {
				vals := [2]float64{
					interpValue(sol.At(t, g, st, raNow, domain.ChoiceRetired), m),
					interpValue(sol.At(t, g, st, raNow, domain.ChoiceWorking), m),
				}
				var probs [2]float64
				LogSum(vals[:], probs[:], par.SigmaEta)
				p.Prob[idx] = probs[domain.ChoiceRetired]
				if dr.choice[idx] > probs[domain.ChoiceRetired] {
					dNow = domain.ChoiceWorking
				}
			}
			if dNow == domain.ChoiceRetired && d == domain.ChoiceWorking {
				p.RetAge[i] = float64(Age(t, par))
			}
			ra, d = raNow, dNow
		}

		p.Alive[idx] = true
		p.Choice[idx] = int8(d)
		p.RA[idx] = int8(ra)
		ps := sol.At(t, g, st, ra, d)
		c := interp.At(ps.M, ps.C, m)
		if c > m {
			c = m
		}
		a := m - c
		p.M[idx], p.C[idx], p.A[idx] = m, c, a

		if s.ComputeEuler && t < par.T-1 && a > par.GridA[0]+par.Tol {
			p.Euler[idx] = s.eulerSingle(t, g, st, ra, d, a, c, sol)
		}
	}
}

// eulerSingle returns the relative Euler residual at an interior simulated
// point: consumption today against the inverted expected discounted marginal
// value of the savings actually chosen.
func (s *Simulator) eulerSingle(t int, g domain.Gender, st, ra, d int, a, c float64, sol *domain.SingleSolution) float64 {
	par := s.Par
	k1 := extIndex(t+1, 0, par)
	pi := par.Tables.Survival(k1, g)
	dPlus := NextChoices(t, d, par)
	raPlus := LookupStatus(t+1, st, ra, d, par)

	base := par.R * a
	incNodes, w := noShockNodes, noShockWeights
	if d == domain.ChoiceRetired {
		base += interp.At(par.GridA, par.Tables.Pension(k1, g, st, ra), a)
	} else {
		incNodes = par.Tables.Labor(k1, g, st)
		if g == domain.Male {
			w = par.XiMenW
		} else {
			w = par.XiWomenW
		}
	}

	var acc float64
	vals := make([]float64, len(dPlus))
	probs := make([]float64, len(dPlus))
	cons := make([]float64, len(dPlus))
	for n := range w {
		mPlus := base + incNodes[n]
		for k, dp := range dPlus {
			ps := sol.At(t+1, g, st, raPlus, dp)
			cons[k] = interp.At(ps.M, ps.C, mPlus)
			vals[k] = interpValue(ps, mPlus)
		}
		if len(dPlus) == 1 {
			acc += w[n] * MargUtility(cons[0], par)
			continue
		}
		LogSum(vals, probs, par.SigmaEta)
		var mu float64
		for k := range dPlus {
			mu += probs[k] * MargUtility(cons[k], par)
		}
		acc += w[n] * mu
	}
	q := par.Beta * (par.R*pi*acc + (1-pi)*par.Gamma)
	return (c - InvMargUtility(q, par)) / c
}

func interpValue(ps domain.PolicySlice, m float64) float64 {
	return interp.At(ps.M, ps.V, m)
}

// coupleDraws holds the pre-drawn randomness of a couple run: one joint
// choice uniform, per-spouse mortality uniforms and per-spouse standard
// normals (correlated into income shocks on use).
type coupleDraws struct {
	choice []float64
	mortH  []float64
	mortW  []float64
	zH     []float64
	zW     []float64
}

func drawCouple(par *domain.Params, n int) *coupleDraws {
	rng := rand.New(rand.NewSource(par.Seed))
	t := par.T
	d := &coupleDraws{
		choice: make([]float64, t*n),
		mortH:  make([]float64, t*n),
		mortW:  make([]float64, t*n),
		zH:     make([]float64, t*n),
		zW:     make([]float64, t*n),
	}
	u := distuv.Uniform{Min: 0, Max: 1, Src: rng}
	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}
	for i := range d.choice {
		d.choice[i] = u.Rand()
	}
	for i := range d.mortH {
		d.mortH[i] = u.Rand()
	}
	for i := range d.mortW {
		d.mortW[i] = u.Rand()
	}
	for i := range d.zH {
		d.zH[i] = norm.Rand()
	}
	for i := range d.zW {
		d.zW[i] = norm.Rand()
	}
	return d
}

// SimulateCouple runs the couple panel forward on csol. A lone surviving
// spouse continues on the single-household policy, so the completed single
// solution and its parameter set are required.
func (s *Simulator) SimulateCouple(csol *domain.CoupleSolution, single *domain.SingleSolution, singlePar *domain.Params) (*domain.CoupleSimulationPanel, error) {
	par := s.Par
	if !par.Couple {
		return nil, fmt.Errorf("couple simulation called with single parameters")
	}
	if par.Tables == nil || singlePar == nil || singlePar.Tables == nil {
		return nil, fmt.Errorf("lookup tables not built, call Prepare first")
	}
	if csol == nil || single == nil {
		return nil, fmt.Errorf("couple simulation requires both solved policies")
	}
	if len(par.SimStates) == 0 {
		return nil, fmt.Errorf("no initial household states configured")
	}

	sym := mat.NewSymDense(2, []float64{par.VarWomen, par.Cov, par.Cov, par.VarMen})
	var chol mat.Cholesky
	if !chol.Factorize(sym) {
		return nil, fmt.Errorf("income shock covariance matrix is not positive definite (varWomen=%g varMen=%g cov=%g)", par.VarWomen, par.VarMen, par.Cov)
	}
	var l mat.TriDense
	chol.LTo(&l)

	t, n := par.T, par.SimN
	p := domain.NewCoupleSimulationPanel(t, n)
	for i := 0; i < n; i++ {
		p.States[i] = par.SimStates[i%len(par.SimStates)]
	}
	dr := drawCouple(par, n)
	s.Logger.Infof("simulating %d couples over %d periods (seed %d)", n, t, par.Seed)

	var eg errgroup.Group
	eg.SetLimit(simWorkers)
	for i := 0; i < n; i++ {
		i := i
		eg.Go(func() error {
			s.runCouple(p, csol, single, singlePar, dr, l.At(0, 0), l.At(1, 0), l.At(1, 1), i)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Simulator) runCouple(p *domain.CoupleSimulationPanel, csol *domain.CoupleSolution, single *domain.SingleSolution, singlePar *domain.Params, dr *coupleDraws, l00, l10, l11 float64, i int) {
	par := s.Par
	stH, stW, ad := p.States[i].State, p.States[i].SpouseState, p.States[i].AgeDiff

	m := par.MInit
	raH, raW := domain.StatusNone, domain.StatusNone
	fc := FeasibleJointChoices(0, ad, par)
	dJoint := fc[len(fc)-1]
	aliveH, aliveW := true, true
	// survivor state once one spouse has died
	var dOwn int

	for t := 0; t < par.T; t++ {
		idx := p.Idx(t, i)

		if t > 0 {
			if aliveH && dr.mortH[idx] > par.Tables.Survival(extIndex(t, 0, par), domain.Male) {
				aliveH = false
				if aliveW {
					dOwn = wifeChoice(dJoint)
				}
			}
			if aliveW && dr.mortW[idx] > par.Tables.Survival(extIndex(t, ad, par), domain.Female) {
				aliveW = false
				if aliveH {
					dOwn = husbandChoice(dJoint)
				}
			}
		}
		if !aliveH && !aliveW {
			return
		}

		if aliveH && aliveW {
			m, dJoint = s.coupleStep(p, csol, dr, t, i, m, &raH, &raW, dJoint, stH, stW, ad, l00, l10, l11)
			continue
		}

		// lone survivor on the single-household policy
		g, st, tShift, ra := domain.Male, stH, par.AdMin, &raH
		zOwn, varOwn := dr.zH[idx], par.VarMen
		if aliveW {
			g, st, tShift, ra = domain.Female, stW, ad+par.AdMin, &raW
			zOwn, varOwn = dr.zW[idx], par.VarWomen
		}
		ts := t + tShift
		m, dOwn = s.survivorStep(p, single, singlePar, dr, t, ts, i, m, g, st, ra, dOwn, zOwn, varOwn)
	}
}

// coupleStep advances one both-alive household by one period and returns the
// new cash-on-hand and joint choice.
func (s *Simulator) coupleStep(p *domain.CoupleSimulationPanel, csol *domain.CoupleSolution, dr *coupleDraws, t, i int, m float64, raH, raW *int, dJoint, stH, stW, ad int, l00, l10, l11 float64) (float64, int) {
	par := s.Par
	idx := p.Idx(t, i)
	adIdx := par.AdIndex(ad)
	kH := extIndex(t, 0, par)
	kW := extIndex(t, ad, par)

	if t > 0 {
		aPrev := p.A[p.Idx(t-1, i)]
		var y float64
		switch {
		case dJoint == domain.JointBothWorking:
			shW := math.Exp(l00*dr.zW[idx] - 0.5*par.VarWomen)
			shH := math.Exp(l10*dr.zW[idx] + l11*dr.zH[idx] - 0.5*par.VarMen)
			preH := LaborPretaxAt(t, 0, domain.Male, stH, par)
			preW := LaborPretaxAt(t, ad, domain.Female, stW, par)
			y = posttaxLabor(kH, preH, preW, shH, par) + posttaxLabor(kH, preW, preH, shW, par)
		case domain.HusbandWorking(dJoint):
			shH := math.Exp(math.Sqrt(par.VarMen)*dr.zH[idx] - 0.5*par.VarMen)
			y = PosttaxLaborAt(t, 0, domain.Male, stH, 0, shH, par)
		case domain.WifeWorking(dJoint):
			shW := math.Exp(math.Sqrt(par.VarWomen)*dr.zW[idx] - 0.5*par.VarWomen)
			y = PosttaxLaborAt(t, ad, domain.Female, stW, 0, shW, par)
		}
		if !domain.HusbandWorking(dJoint) {
			y += interp.At(par.GridA, par.Tables.Pension(kH, domain.Male, stH, *raH), aPrev)
		}
		if !domain.WifeWorking(dJoint) {
			y += interp.At(par.GridA, par.Tables.Pension(kW, domain.Female, stW, *raW), aPrev)
		}
		m = par.R*aPrev + y

		*raH = LookupStatus(t, stH, *raH, husbandChoice(dJoint), par)
		*raW = LookupStatus(t+ad, stW, *raW, wifeChoice(dJoint), par)

		dSet := NextJointChoices(t-1, ad, dJoint, par)
		if len(dSet) == 1 {
			dJoint = dSet[0]
		} else {
			vals := make([]float64, len(dSet))
			probs := make([]float64, len(dSet))
			for k, d := range dSet {
				vals[k] = interpValue(csol.At(t, adIdx, stH, stW, *raH, *raW, d), m)
			}
			LogSum(vals, probs, par.SigmaEta)
			var pH, pW, cum float64
			chosen := dSet[len(dSet)-1]
			picked := false
			for k, d := range dSet {
				if !domain.HusbandWorking(d) {
					pH += probs[k]
				}
				if !domain.WifeWorking(d) {
					pW += probs[k]
				}
				cum += probs[k]
				if !picked && dr.choice[idx] <= cum {
					chosen = d
					picked = true
				}
			}
			p.ProbH[idx], p.ProbW[idx] = pH, pW
			dJoint = chosen
		}
	}

	p.AliveH[idx], p.AliveW[idx] = true, true
	p.ChoiceH[idx] = int8(husbandChoice(dJoint))
	p.ChoiceW[idx] = int8(wifeChoice(dJoint))
	p.RAH[idx] = int8(*raH)
	p.RAW[idx] = int8(*raW)

	ps := csol.At(t, adIdx, stH, stW, *raH, *raW, dJoint)
	c := interp.At(ps.M, ps.C, m)
	if c > m {
		c = m
	}
	p.M[idx], p.C[idx], p.A[idx] = m, c, m-c
	return m, dJoint
}

// survivorStep advances a widowed spouse by one period on the single policy.
// ts is the spouse's time index in the single model.
func (s *Simulator) survivorStep(p *domain.CoupleSimulationPanel, single *domain.SingleSolution, singlePar *domain.Params, dr *coupleDraws, t, ts, i int, m float64, g domain.Gender, st int, ra *int, dOwn int, zOwn, varOwn float64) (float64, int) {
	idx := p.Idx(t, i)

	if t > 0 {
		aPrev := p.A[p.Idx(t-1, i)]
		var y float64
		if dOwn == domain.ChoiceWorking {
			shock := math.Exp(math.Sqrt(varOwn)*zOwn - 0.5*varOwn)
			y = PosttaxLaborAt(ts, 0, g, st, 0, shock, singlePar)
		} else {
			y = interp.At(singlePar.GridA, singlePar.Tables.Pension(ts, g, st, *ra), aPrev)
		}
		m = singlePar.R*aPrev + y

		raNow := LookupStatus(ts, st, *ra, dOwn, singlePar)
		dSet := NextChoices(ts-1, dOwn, singlePar)
		dNow := domain.ChoiceRetired
		if len(dSet) == 2 {
			vals := [2]float64{
				interpValue(single.At(ts, g, st, raNow, domain.ChoiceRetired), m),
				interpValue(single.At(ts, g, st, raNow, domain.ChoiceWorking), m),
			}
			var probs [2]float64
			LogSum(vals[:], probs[:], singlePar.SigmaEta)
			if g == domain.Male {
				p.ProbH[idx] = probs[domain.ChoiceRetired]
			} else {
				p.ProbW[idx] = probs[domain.ChoiceRetired]
			}
			if dr.choice[idx] > probs[domain.ChoiceRetired] {
				dNow = domain.ChoiceWorking
			}
		}
		*ra, dOwn = raNow, dNow
	}

	if g == domain.Male {
		p.AliveH[idx] = true
		p.ChoiceH[idx] = int8(dOwn)
		p.RAH[idx] = int8(*ra)
	} else {
		p.AliveW[idx] = true
		p.ChoiceW[idx] = int8(dOwn)
		p.RAW[idx] = int8(*ra)
	}

	ps := single.At(ts, g, st, *ra, dOwn)
	c := interp.At(ps.M, ps.C, m)
	if c > m {
		c = m
	}
	p.M[idx], p.C[idx], p.A[idx] = m, c, m-c
	return m, dOwn
}

func husbandChoice(d int) int {
	if domain.HusbandWorking(d) {
		return domain.ChoiceWorking
	}
	return domain.ChoiceRetired
}

func wifeChoice(d int) int {
	if domain.WifeWorking(d) {
		return domain.ChoiceWorking
	}
	return domain.ChoiceRetired
}
