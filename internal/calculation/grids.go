package calculation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/mat"

	"github.com/egmsolve/retirement-model/internal/domain"
)

// quadTol is the tolerance for the quadrature normalization invariant: the
// weighted sum of log-normal nodes must integrate to 1.
const quadTol = 1e-6

// NonLinSpace returns n points from lo to hi with curvature phi; phi > 1
// concentrates points near lo.
func NonLinSpace(lo, hi float64, n int, phi float64) []float64 {
	g := make([]float64, n)
	g[0] = lo
	for i := 1; i < n; i++ {
		g[i] = g[i-1] + (hi-g[i-1])/math.Pow(float64(n-i), phi)
	}
	return g
}

// gaussHermite returns the raw Gauss-Hermite nodes and weights for
// integration against exp(-x^2) on the real line.
func gaussHermite(n int) (x, w []float64) {
	x = make([]float64, n)
	w = make([]float64, n)
	quad.Hermite{}.FixedLocations(x, w, math.Inf(-1), math.Inf(1))
	return x, w
}

// GaussHermiteLogNormal returns quadrature nodes and weights for a mean-one
// log-normal shock with the given log variance. The weighted node sum must
// equal 1 within quadTol or the rule is rejected.
func GaussHermiteLogNormal(variance float64, n int) (nodes, weights []float64, err error) {
	if n < 1 {
		return nil, nil, fmt.Errorf("quadrature needs at least one node, got %d", n)
	}
	if variance < 0 {
		return nil, nil, fmt.Errorf("shock variance must be non-negative, got %g", variance)
	}
	x, w := gaussHermite(n)
	sigma := math.Sqrt(variance)
	nodes = make([]float64, n)
	weights = make([]float64, n)
	for i := range x {
		nodes[i] = math.Exp(x[i]*math.Sqrt2*sigma - 0.5*variance)
		weights[i] = w[i] / math.Sqrt(math.Pi)
	}
	if err := checkNormalized(nodes, weights); err != nil {
		return nil, nil, err
	}
	return nodes, weights, nil
}

// CorrelatedLogNormal builds a joint quadrature rule over correlated
// bivariate mean-one log-normal shocks via a Cholesky factorization of the
// covariance matrix. Node vectors are returned women first, flattened over
// the nWomen x nMen product grid. A zero covariance degenerates to the outer
// product of the two independent rules.
func CorrelatedLogNormal(varWomen, varMen, cov float64, nWomen, nMen int) (women, men, weights []float64, err error) {
	if nWomen < 1 || nMen < 1 {
		return nil, nil, nil, fmt.Errorf("quadrature needs at least one node per spouse, got %d x %d", nWomen, nMen)
	}
	sym := mat.NewSymDense(2, []float64{varWomen, cov, cov, varMen})
	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return nil, nil, nil, fmt.Errorf("income shock covariance matrix is not positive definite (varWomen=%g varMen=%g cov=%g)", varWomen, varMen, cov)
	}
	var l mat.TriDense
	chol.LTo(&l)

	xw, ww := gaussHermite(nWomen)
	xm, wm := gaussHermite(nMen)
	meanW := -0.5 * varWomen
	meanM := -0.5 * varMen

	n := nWomen * nMen
	women = make([]float64, n)
	men = make([]float64, n)
	weights = make([]float64, n)
	k := 0
	for i := 0; i < nWomen; i++ {
		zw := math.Sqrt2 * xw[i]
		for j := 0; j < nMen; j++ {
			zm := math.Sqrt2 * xm[j]
			women[k] = math.Exp(l.At(0, 0)*zw + meanW)
			men[k] = math.Exp(l.At(1, 0)*zw + l.At(1, 1)*zm + meanM)
			weights[k] = ww[i] * wm[j] / math.Pi
			k++
		}
	}
	if err := checkNormalized(women, weights); err != nil {
		return nil, nil, nil, fmt.Errorf("wife marginal: %w", err)
	}
	if err := checkNormalized(men, weights); err != nil {
		return nil, nil, nil, fmt.Errorf("husband marginal: %w", err)
	}
	return women, men, weights, nil
}

func checkNormalized(nodes, weights []float64) error {
	var sum float64
	for i := range nodes {
		sum += nodes[i] * weights[i]
	}
	if math.Abs(1-sum) > quadTol {
		return fmt.Errorf("quadrature normalization failed: weighted node sum %.10f deviates from 1 by more than %g", sum, quadTol)
	}
	return nil
}

// BuildGrids constructs the post-decision asset grid and the income-shock
// quadrature rules and stores them on par. Any failed check is a fatal
// configuration error; solving must not proceed.
func BuildGrids(par *domain.Params) error {
	if par.Na < 2 {
		return fmt.Errorf("asset grid needs at least 2 points, got %d", par.Na)
	}
	par.GridA = NonLinSpace(par.Tol, par.AMax, par.Na, par.APhi)

	var err error
	par.XiMen, par.XiMenW, err = GaussHermiteLogNormal(par.VarMen, par.NXi)
	if err != nil {
		return fmt.Errorf("men income shock: %w", err)
	}
	par.XiWomen, par.XiWomenW, err = GaussHermiteLogNormal(par.VarWomen, par.NXi)
	if err != nil {
		return fmt.Errorf("women income shock: %w", err)
	}

	if par.Couple {
		par.XiCorrWomen, par.XiCorrMen, par.WCorr, err = CorrelatedLogNormal(par.VarWomen, par.VarMen, par.Cov, par.NXiWomen, par.NXiMen)
		if err != nil {
			return fmt.Errorf("joint income shock: %w", err)
		}
	}
	return nil
}
