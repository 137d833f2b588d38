package calculation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egmsolve/retirement-model/internal/domain"
)

func TestSolve_Validation(t *testing.T) {
	s := New(domain.DefaultParams(true))
	_, err := s.Solve()
	assert.Error(t, err)

	s = New(domain.DefaultParams(false))
	_, err = s.Solve()
	assert.ErrorContains(t, err, "call Prepare first")

	par := domain.DefaultParams(true)
	par.Na = 20
	require.NoError(t, Prepare(par))
	_, err = New(par).SolveCouple(nil)
	assert.ErrorContains(t, err, "single-household solution")
}

func TestSolveSingle_PolicyBounds(t *testing.T) {
	par := preparedParams(t, false)
	sol, err := New(par).Solve()
	require.NoError(t, err)

	for tt := 0; tt < par.T; tt++ {
		for g := domain.Gender(0); g < domain.NumGenders; g++ {
			for st := 0; st < domain.NumStates; st++ {
				for _, ra := range statusSet(st) {
					for _, d := range FeasibleChoices(tt, par) {
						ps := sol.At(tt, g, st, ra, d)
						for j := 0; j < par.Na; j++ {
							assert.False(t, math.IsNaN(ps.C[j]), "t=%d g=%s st=%d ra=%d d=%d j=%d", tt, g, st, ra, d, j)
							assert.Greater(t, ps.C[j], 0.0, "t=%d g=%s st=%d ra=%d d=%d j=%d", tt, g, st, ra, d, j)
							assert.LessOrEqual(t, ps.C[j], ps.M[j]+1e-9, "t=%d g=%s st=%d ra=%d d=%d j=%d", tt, g, st, ra, d, j)
							if j > 0 {
								assert.Greater(t, ps.M[j], ps.M[j-1], "t=%d g=%s st=%d ra=%d d=%d j=%d", tt, g, st, ra, d, j)
							}
							assert.False(t, math.IsNaN(ps.V[j]))
							assert.False(t, math.IsInf(ps.V[j], -1))
						}
					}
				}
			}
		}
	}
}

// certaintyParams builds a three-period retirement-only model with no income,
// no mortality, no bequest motive and no discounting, where optimal
// consumption splits cash-on-hand evenly over the remaining periods.
func certaintyParams(t *testing.T) *domain.Params {
	t.Helper()
	par := domain.DefaultParams(false)
	par.StartAge = 100
	par.EndAge = 102
	par.ForcedAge = 100
	par.R = 1
	par.Beta = 1
	par.Gamma = 0
	par.SigmaEta = 0
	par.OAPBase = 0
	par.OAPSupplement = 0
	par.Na = 100
	par.Derive()
	require.NoError(t, Prepare(par))
	for k := 0; k < par.Tables.TExt; k++ {
		par.Tables.SetSurvival(k, domain.Male, 1)
		par.Tables.SetSurvival(k, domain.Female, 1)
	}
	return par
}

func TestSolveSingle_CertaintyEquivalence(t *testing.T) {
	par := certaintyParams(t)
	sol, err := New(par).Solve()
	require.NoError(t, err)

	const st, ra = 0, domain.StatusNone
	for _, tc := range []struct {
		t     int
		share float64
	}{
		{0, 1.0 / 3.0},
		{1, 1.0 / 2.0},
		{2, 1.0},
	} {
		ps := sol.At(tc.t, domain.Male, st, ra, domain.ChoiceRetired)
		for j := 2; j < par.Na; j++ {
			m := ps.M[j]
			if m <= 3*par.Tol {
				continue
			}
			assert.InEpsilon(t, tc.share*m, ps.C[j], 1e-9, "t=%d j=%d m=%g", tc.t, j, m)
		}
	}
}

func coupleTestParams(t *testing.T) *domain.Params {
	t.Helper()
	par := domain.DefaultParams(true)
	par.EndAge = 70
	par.ForcedAge = 60
	par.Na = 25
	par.AgeDiffs = []int{-1, 0, 1}
	par.Derive()
	require.NoError(t, Prepare(par))
	return par
}

func solveCoupleModel(t *testing.T) (*domain.Params, *domain.Params, *domain.SingleSolution, *domain.CoupleSolution) {
	t.Helper()
	par := coupleTestParams(t)

	singlePar := par.SingleForCouple()
	require.NoError(t, Prepare(singlePar))
	single, err := New(singlePar).Solve()
	require.NoError(t, err)

	couple, err := New(par).SolveCouple(single)
	require.NoError(t, err)
	return par, singlePar, single, couple
}

func TestSolveCouple_PolicyBounds(t *testing.T) {
	par, _, _, sol := solveCoupleModel(t)

	for tt := 0; tt < par.T; tt++ {
		for _, ad := range par.AgeDiffs {
			for stH := 0; stH < domain.NumStates; stH++ {
				for stW := 0; stW < domain.NumStates; stW++ {
					for _, raH := range statusSet(stH) {
						for _, raW := range statusSet(stW) {
							for _, d := range FeasibleJointChoices(tt, ad, par) {
								ps := sol.At(tt, par.AdIndex(ad), stH, stW, raH, raW, d)
								for j := 0; j < par.Na; j++ {
									assert.False(t, math.IsNaN(ps.C[j]), "t=%d ad=%d stH=%d stW=%d raH=%d raW=%d d=%d j=%d", tt, ad, stH, stW, raH, raW, d, j)
									assert.Greater(t, ps.C[j], 0.0)
									assert.LessOrEqual(t, ps.C[j], ps.M[j]+1e-9)
									if j > 0 {
										assert.Greater(t, ps.M[j], ps.M[j-1])
									}
								}
							}
						}
					}
				}
			}
		}
	}
}

func TestSolveCouple_ContinuationPinnedToJointSurvival(t *testing.T) {
	par := coupleTestParams(t)

	singlePar := par.SingleForCouple()
	require.NoError(t, Prepare(singlePar))
	single, err := New(singlePar).Solve()
	require.NoError(t, err)

	// only joint survival carries the couple continuation: with both spouses
	// certainly dead the marginal value of saving collapses to the bequest
	// term, with no single-survivor value leaking in
	for k := 0; k < par.Tables.TExt; k++ {
		par.Tables.SetSurvival(k, domain.Male, 0)
		par.Tables.SetSurvival(k, domain.Female, 0)
	}
	sol, err := New(par).SolveCouple(single)
	require.NoError(t, err)

	tt := par.T - 2
	b := newSolveBuffers(par.Na)
	postDecisionCouple(tt, 0, 0, 0, domain.StatusNone, domain.StatusNone, domain.JointBothRetired, sol, par, b)
	for j, a := range par.GridA {
		want := par.Beta * par.Gamma
		assert.InDelta(t, want, b.q[domain.JointBothRetired][j], 1e-12, "grid=%d a=%g", j, a)
	}
}
