package calculation

import (
	"fmt"
	"math"

	"github.com/egmsolve/retirement-model/internal/domain"
)

// solveTerminal fills a terminal-period cell with the closed-form policy:
// consume cash-on-hand up to the unconstrained bequest optimum on an equally
// spaced cash-on-hand grid.
func solveTerminal(ps domain.PolicySlice, uflow func(c float64) float64, par *domain.Params) {
	na := len(ps.M)
	step := (par.AMax - par.Tol) / float64(na-1)
	unconstrained := math.Pow(par.Beta*par.Gamma, -1/par.Rho)
	for j := 0; j < na; j++ {
		m := par.Tol + float64(j)*step
		c := m
		if c > unconstrained {
			c = unconstrained
		}
		ps.M[j] = m
		ps.C[j] = c
		ps.V[j] = uflow(c) + par.Beta*par.Gamma*(m-c)
	}
}

// solveEGMSingle inverts the Euler equation on the post-decision grid for a
// single household and applies the upper envelope onto the common
// cash-on-hand grid. b.q[d] and b.vPlusRaw[d] must hold the post-decision
// results for the same cell.
func solveEGMSingle(t int, g domain.Gender, st, ra, d int, sol *domain.SingleSolution, par *domain.Params, b *solveBuffers) error {
	a := par.GridA
	pi := par.Tables.Survival(extIndex(t+1, 0, par), g)

	q := b.q[d]
	vpRaw := b.vPlusRaw[d]
	for j := range a {
		if math.IsNaN(q[j]) || q[j] <= 0 {
			return fmt.Errorf("marginal value of saving not invertible at t=%d %s st=%d ra=%d d=%d grid=%d: q=%g", t, g, st, ra, d, j, q[j])
		}
		b.cRaw[j] = InvMargUtility(q[j], par)
		b.mRaw[j] = a[j] + b.cRaw[j]
		b.wRaw[j] = par.Beta * (pi*vpRaw[j] + (1-pi)*par.Gamma*a[j])
	}

	ps := sol.At(t, g, st, ra, d)
	copy(ps.M, a)
	upperEnvelope(a, b.mRaw, b.cRaw, b.wRaw, ps, func(c float64) float64 {
		return Utility(c, d, g, st, par)
	})
	return nil
}

// solveEGMCouple is the couple counterpart over joint choice d, blending the
// continuation value by joint survival.
func solveEGMCouple(t, ad, stH, stW, raH, raW, d int, sol *domain.CoupleSolution, par *domain.Params, b *solveBuffers) error {
	a := par.GridA
	piH := par.Tables.Survival(extIndex(t+1, 0, par), domain.Male)
	piW := par.Tables.Survival(extIndex(t+1, ad, par), domain.Female)
	joint := piH * piW

	q := b.q[d]
	vpRaw := b.vPlusRaw[d]
	for j := range a {
		if math.IsNaN(q[j]) || q[j] <= 0 {
			return fmt.Errorf("marginal value of saving not invertible at t=%d ad=%d stH=%d stW=%d raH=%d raW=%d d=%d grid=%d: q=%g", t, ad, stH, stW, raH, raW, d, j, q[j])
		}
		b.cRaw[j] = InvMargUtility(q[j], par)
		b.mRaw[j] = a[j] + b.cRaw[j]
		b.wRaw[j] = par.Beta * (joint*vpRaw[j] + (1-joint)*par.Gamma*a[j])
	}

	ps := sol.At(t, par.AdIndex(ad), stH, stW, raH, raW, d)
	copy(ps.M, a)
	upperEnvelope(a, b.mRaw, b.cRaw, b.wRaw, ps, func(c float64) float64 {
		return CoupleUtility(c, d, stH, stW, par)
	})
	return nil
}

// upperEnvelope maps the raw EGM candidate (mRaw, cRaw) with continuation
// values wRaw onto the common grid held in ps.M, keeping the
// value-maximizing branch wherever the candidate folds back on itself.
// Points below the first raw cash-on-hand are liquidity constrained and
// consume everything.
func upperEnvelope(a, mRaw, cRaw, wRaw []float64, ps domain.PolicySlice, uflow func(float64) float64) {
	na := len(ps.M)
	nRaw := len(mRaw)
	negInf := math.Inf(-1)
	for j := 0; j < na; j++ {
		ps.C[j] = 0
		ps.V[j] = negInf
	}

	for i := 0; i < nRaw-1; i++ {
		mLow, mHigh := mRaw[i], mRaw[i+1]
		if mLow == mHigh {
			continue
		}
		cSlope := (cRaw[i+1] - cRaw[i]) / (mHigh - mLow)
		wSlope := (wRaw[i+1] - wRaw[i]) / (a[i+1] - a[i])

		segLo, segHi := mLow, mHigh
		if segLo > segHi {
			segLo, segHi = segHi, segLo
		}
		for j := 0; j < na; j++ {
			m := ps.M[j]
			inSegment := m >= segLo && m <= segHi
			extrapAbove := i == nRaw-2 && m > mRaw[nRaw-1]
			if !inSegment && !extrapAbove {
				continue
			}
			cGuess := cRaw[i] + cSlope*(m-mLow)
			aGuess := m - cGuess
			w := wRaw[i] + wSlope*(aGuess-a[i])
			v := uflow(cGuess) + w
			if v > ps.V[j] {
				ps.V[j] = v
				ps.C[j] = cGuess
			}
		}
	}

	for j := 0; j < na; j++ {
		if ps.M[j] <= mRaw[0] {
			ps.C[j] = ps.M[j]
			ps.V[j] = uflow(ps.M[j]) + wRaw[0]
		}
	}
}
