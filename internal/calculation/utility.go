package calculation

import (
	"math"

	"github.com/egmsolve/retirement-model/internal/domain"
)

// Utility is the flow utility of a single household: CRRA consumption
// utility plus the leisure value of being retired.
func Utility(c float64, d int, g domain.Gender, st int, par *domain.Params) float64 {
	u := crra(c, par.Rho)
	if d == domain.ChoiceRetired {
		u += ownLeisure(g, st, par)
	}
	return u
}

// CoupleUtility is the Pareto-weighted flow utility of a couple over pooled
// consumption. Consumption is scaled by the equivalence scale; a retired
// spouse enjoys own leisure and both spouses enjoy joint leisure when both
// are retired.
func CoupleUtility(c float64, d, stH, stW int, par *domain.Params) float64 {
	u := crra(c/(1+par.EquivScale), par.Rho)
	bothRetired := !domain.HusbandWorking(d) && !domain.WifeWorking(d)

	var uh, uw float64
	if !domain.HusbandWorking(d) {
		uh = ownLeisure(domain.Male, stH, par)
		if bothRetired {
			uh += jointLeisure(domain.Male, stH, par)
		}
	}
	if !domain.WifeWorking(d) {
		uw = ownLeisure(domain.Female, stW, par)
		if bothRetired {
			uw += jointLeisure(domain.Female, stW, par)
		}
	}
	return u + par.ParetoWeight*uh + (1-par.ParetoWeight)*uw
}

// MargUtility is marginal utility of consumption, c^(-rho).
func MargUtility(c float64, par *domain.Params) float64 {
	return math.Pow(c, -par.Rho)
}

// InvMargUtility inverts MargUtility, q^(-1/rho).
func InvMargUtility(q float64, par *domain.Params) float64 {
	return math.Pow(q, -1/par.Rho)
}

func crra(c, rho float64) float64 {
	return math.Pow(c, 1-rho) / (1 - rho)
}

func ownLeisure(g domain.Gender, st int, par *domain.Params) float64 {
	a := par.Alpha0Female
	if g == domain.Male {
		a = par.Alpha0Male
	}
	if domain.StateHighSkilled(st) {
		a += par.Alpha1
	}
	return a
}

func jointLeisure(g domain.Gender, st int, par *domain.Params) float64 {
	p := par.Phi0Female
	if g == domain.Male {
		p = par.Phi0Male
	}
	if domain.StateHighSkilled(st) {
		p += par.Phi1
	}
	return p
}
