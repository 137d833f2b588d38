package calculation

import (
	"github.com/egmsolve/retirement-model/internal/domain"
	"github.com/egmsolve/retirement-model/pkg/interp"
)

// degenerate one-node rule used when next-period income is deterministic
var (
	noShockNodes   = []float64{0}
	noShockWeights = []float64{1}
)

// solveBuffers owns the scratch arrays of one solver worker, covering both
// the post-decision integration and the EGM inversion. Workers never share
// buffers, so both steps run without locking.
type solveBuffers struct {
	mPlus    []float64
	base     []float64
	cPlus    [domain.NumJointChoices][]float64
	vPlus    [domain.NumJointChoices][]float64
	q        [domain.NumJointChoices][]float64
	vPlusRaw [domain.NumJointChoices][]float64

	vals  []float64
	probs []float64

	cRaw []float64
	mRaw []float64
	wRaw []float64
}

func newSolveBuffers(na int) *solveBuffers {
	b := &solveBuffers{
		mPlus: make([]float64, na),
		base:  make([]float64, na),
		vals:  make([]float64, domain.NumJointChoices),
		probs: make([]float64, domain.NumJointChoices),
		cRaw:  make([]float64, na),
		mRaw:  make([]float64, na),
		wRaw:  make([]float64, na),
	}
	for d := 0; d < domain.NumJointChoices; d++ {
		b.cPlus[d] = make([]float64, na)
		b.vPlus[d] = make([]float64, na)
		b.q[d] = make([]float64, na)
		b.vPlusRaw[d] = make([]float64, na)
	}
	return b
}

// postDecisionSingle fills b.q[d] and b.vPlusRaw[d] with the expected
// marginal value of saving and the expected continuation value for a single
// household in cell (t, g, st, ra) holding choice d.
func postDecisionSingle(t int, g domain.Gender, st, ra, d int, sol *domain.SingleSolution, par *domain.Params, b *solveBuffers) {
	a := par.GridA
	k1 := extIndex(t+1, 0, par)
	pi := par.Tables.Survival(k1, g)

	dPlus := NextChoices(t, d, par)
	raPlus := LookupStatus(t+1, st, ra, d, par)
	var next [domain.NumJointChoices]domain.PolicySlice
	for _, dp := range dPlus {
		next[dp] = sol.At(t+1, g, st, raPlus, dp)
	}

	// deterministic resources next period
	incNodes, w := noShockNodes, noShockWeights
	if d == domain.ChoiceRetired {
		pens := par.Tables.Pension(k1, g, st, ra)
		for j := range a {
			b.base[j] = par.R*a[j] + pens[j]
		}
	} else {
		for j := range a {
			b.base[j] = par.R * a[j]
		}
		incNodes = par.Tables.Labor(k1, g, st)
		if g == domain.Male {
			w = par.XiMenW
		} else {
			w = par.XiWomenW
		}
	}

	b.integrate(incNodes, w, dPlus, &next, par, b.vPlusRaw[d], b.q[d])

	q := b.q[d]
	for j := range q {
		q[j] = par.Beta * (par.R*pi*q[j] + (1-pi)*par.Gamma)
	}
}

// postDecisionCouple is the couple counterpart over joint choice d. The
// continuation blends only joint survival against joint death; one-survivor
// states are absorbed into the simulator's switch to the single policy.
func postDecisionCouple(t, ad, stH, stW, raH, raW, d int, sol *domain.CoupleSolution, par *domain.Params, b *solveBuffers) {
	a := par.GridA
	kH := extIndex(t+1, 0, par)
	kW := extIndex(t+1, ad, par)
	piH := par.Tables.Survival(kH, domain.Male)
	piW := par.Tables.Survival(kW, domain.Female)

	dPlus := NextJointChoices(t, ad, d, par)
	raPH := LookupStatus(t+1, stH, raH, husbandChoice(d), par)
	raPW := LookupStatus(t+1+ad, stW, raW, wifeChoice(d), par)
	var next [domain.NumJointChoices]domain.PolicySlice
	for _, dp := range dPlus {
		next[dp] = sol.At(t+1, par.AdIndex(ad), stH, stW, raPH, raPW, dp)
	}

	for j := range a {
		b.base[j] = par.R * a[j]
	}
	incNodes, w := noShockNodes, noShockWeights
	if !domain.HusbandWorking(d) {
		pens := par.Tables.Pension(kH, domain.Male, stH, raH)
		for j := range a {
			b.base[j] += pens[j]
		}
	}
	if !domain.WifeWorking(d) {
		pens := par.Tables.Pension(kW, domain.Female, stW, raW)
		for j := range a {
			b.base[j] += pens[j]
		}
	}
	switch d {
	case domain.JointWifeWorking:
		incNodes = par.Tables.Labor(kW, domain.Female, stW)
		w = par.XiWomenW
	case domain.JointHusbandWorking:
		incNodes = par.Tables.Labor(kH, domain.Male, stH)
		w = par.XiMenW
	case domain.JointBothWorking:
		incNodes = par.Tables.LaborCouple(kH, par.AdIndex(ad), stH, stW)
		w = par.WCorr
	}

	b.integrate(incNodes, w, dPlus, &next, par, b.vPlusRaw[d], b.q[d])

	dead := (1 - piH) * (1 - piW)
	q := b.q[d]
	for j := range q {
		q[j] = par.Beta * (par.R*(1-dead)*q[j] + dead*par.Gamma)
	}
}

// integrate accumulates, over the quadrature nodes, the expected logsum of
// next-period values into vpRaw and the choice-probability-weighted expected
// marginal utility into muAvg. Both outputs are overwritten.
func (b *solveBuffers) integrate(incNodes, w []float64, dPlus []int, next *[domain.NumJointChoices]domain.PolicySlice, par *domain.Params, vpRaw, muAvg []float64) {
	na := len(b.base)
	for j := 0; j < na; j++ {
		vpRaw[j] = 0
		muAvg[j] = 0
	}

	for i := range w {
		wi := w[i]
		for j := 0; j < na; j++ {
			b.mPlus[j] = b.base[j] + incNodes[i]
		}

		// b.mPlus ascends with the asset grid, so one monotone sweep per
		// next-period choice brackets every query
		for _, dp := range dPlus {
			ps := next[dp]
			var prep interp.Prep
			for j := 0; j < na; j++ {
				br := prep.Bracket(ps.M, b.mPlus[j])
				b.cPlus[dp][j] = interp.Lerp(ps.M, ps.C, br, b.mPlus[j])
				b.vPlus[dp][j] = interp.Lerp(ps.M, ps.V, br, b.mPlus[j])
			}
		}

		if len(dPlus) == 1 {
			dp := dPlus[0]
			for j := 0; j < na; j++ {
				vpRaw[j] += wi * b.vPlus[dp][j]
				muAvg[j] += wi * MargUtility(b.cPlus[dp][j], par)
			}
			continue
		}

		vals := b.vals[:len(dPlus)]
		probs := b.probs[:len(dPlus)]
		for j := 0; j < na; j++ {
			for k, dp := range dPlus {
				vals[k] = b.vPlus[dp][j]
			}
			ls := LogSum(vals, probs, par.SigmaEta)
			vpRaw[j] += wi * ls
			var mu float64
			for k, dp := range dPlus {
				mu += probs[k] * MargUtility(b.cPlus[dp][j], par)
			}
			muAvg[j] += wi * mu
		}
	}
}
