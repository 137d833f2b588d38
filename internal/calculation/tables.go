package calculation

import (
	"fmt"
	"math"

	"github.com/egmsolve/retirement-model/internal/domain"
)

// ERP means test against private pension wealth: the base award is reduced
// at offsetRate for private pension above the deduction floor. Amounts in
// DKK, as the statutory rules state them.
const (
	erpMeansTestBase  = 166400.0
	erpDeductionFloor = 12600.0
	erpOffsetRate     = 0.6 * 0.05
)

// ageOfExt converts an extended table index to calendar age. The extended
// axis starts AdMin periods before the model start age so that wife lookups
// shifted by the age difference stay in range.
func ageOfExt(k int, par *domain.Params) int { return par.StartAge + k - par.AdMin }

// BuildTables precomputes the labor-income, pension and survival lookups
// from the regression coefficients and stores them on par. BuildGrids must
// have run first.
func BuildTables(par *domain.Params) error {
	if len(par.GridA) == 0 || len(par.XiMen) == 0 {
		return fmt.Errorf("grids must be built before tables")
	}
	tExt := par.T + par.AdMin + par.AdMax
	trExt := par.TR + par.AdMin + par.AdMax
	nXiCorr := 0
	if par.Couple {
		nXiCorr = len(par.WCorr)
	}
	tb := domain.NewTables(tExt, trExt, par.Na, par.NXi, nXiCorr, par.NAD())

	for k := 0; k < trExt; k++ {
		for st := 0; st < domain.NumStates; st++ {
			preM := laborPretax(k, domain.Male, st, par)
			preW := laborPretax(k, domain.Female, st, par)
			fillPosttax(tb.Labor(k, domain.Male, st), k, preM, 0, par.XiMen, par)
			fillPosttax(tb.Labor(k, domain.Female, st), k, preW, 0, par.XiWomen, par)
		}
	}

	if par.Couple {
		for k := 0; k < trExt; k++ {
			for _, ad := range par.AgeDiffs {
				kw := k + ad
				if kw < 0 || kw >= trExt {
					continue
				}
				for stH := 0; stH < domain.NumStates; stH++ {
					preH := laborPretax(k, domain.Male, stH, par)
					for stW := 0; stW < domain.NumStates; stW++ {
						preW := laborPretax(kw, domain.Female, stW, par)
						row := tb.LaborCouple(k, par.AdIndex(ad), stH, stW)
						for i := range row {
							row[i] = posttaxLabor(k, preH, preW, par.XiCorrMen[i], par) +
								posttaxLabor(k, preW, preH, par.XiCorrWomen[i], par)
						}
					}
				}
			}
		}
	}

	for k := 0; k < tExt; k++ {
		for g := domain.Gender(0); g < domain.NumGenders; g++ {
			tb.SetSurvival(k, g, survivalProb(k, g, par))
			for st := 0; st < domain.NumStates; st++ {
				for ra := 0; ra < domain.NumStatuses; ra++ {
					row := tb.Pension(k, g, st, ra)
					for i, a := range par.GridA {
						row[i] = pensionPayment(k, g, st, ra, a, par)
					}
				}
			}
		}
	}

	par.Tables = tb
	return nil
}

// laborPretax computes pretax labor income at extended index k from the
// log-linear regression in skill and age, denominated in 100.000 kr.
func laborPretax(k int, g domain.Gender, st int, par *domain.Params) float64 {
	ag := float64(ageOfExt(k, par))
	hs := 0.0
	if domain.StateHighSkilled(st) {
		hs = 1.0
	}
	reg := par.RegLaborFemale
	if g == domain.Male {
		reg = par.RegLaborMale
	}
	logInc := reg[0] + reg[1]*hs + reg[2]*ag + reg[3]*ag*ag/100
	return math.Exp(logInc) / 100000
}

func fillPosttax(dst []float64, k int, pre, spousePre float64, shocks []float64, par *domain.Params) {
	for i, xi := range shocks {
		dst[i] = posttaxLabor(k, pre, spousePre, xi, par)
	}
}

// posttaxLabor applies the labor income tax schedule to pretax income scaled
// by a shock realization. spousePre raises the unused low-bracket allowance
// transferred between spouses.
func posttaxLabor(k int, pre, spousePre, shock float64, par *domain.Params) float64 {
	tax := &par.Tax
	inc := pre * shock
	personal := (1 - tax.TauLMC) * inc
	taxable := personal - math.Min(tax.WD*inc, tax.WDUpper)
	if ageOfExt(k, par) >= par.OAPAge {
		taxable -= tax.Deduction
	}
	yLowL := tax.YLow + math.Max(0, tax.YLow-spousePre)

	tc := math.Max(0, tax.TauC*(taxable-yLowL))
	th := math.Max(0, tax.TauH*(taxable-yLowL))
	tl := math.Max(0, tax.TauM*(personal-yLowL))
	tm := math.Max(0, tax.TauM*(personal-tax.YLowM))
	tu := math.Max(0, math.Min(tax.TauU, tax.TauMax)*(personal-tax.YLowU))

	return personal - tc - th - tl - tm - tu
}

// PosttaxLaborAt exposes the posttax computation at a single drawn shock for
// the forward simulator. t is model time; ad shifts the table axis for
// wives.
func PosttaxLaborAt(t, ad int, g domain.Gender, st int, spousePre, shock float64, par *domain.Params) float64 {
	k := extIndex(t, ad, par)
	return posttaxLabor(k, laborPretax(k, g, st, par), spousePre, shock, par)
}

// LaborPretaxAt exposes pretax labor income at model time t for the
// simulator's spouse-allowance computation.
func LaborPretaxAt(t, ad int, g domain.Gender, st int, par *domain.Params) float64 {
	return laborPretax(extIndex(t, ad, par), g, st, par)
}

// privatePensionShare is the calibrated fraction of liquid wealth held as
// private pension wealth for the ERP means test.
const privatePensionShare = 0.5

// privatePension is private pension wealth at asset level a. Assets at or
// below the numerical tolerance predict zero.
func privatePension(a float64, par *domain.Params) float64 {
	if a <= par.Tol {
		return 0
	}
	return privatePensionShare * a
}

// pensionPayment computes the total pension payment at extended index k for
// retirement-status bucket ra and asset level a, in 100.000 kr.
func pensionPayment(k int, g domain.Gender, st, ra int, a float64, par *domain.Params) float64 {
	ag := ageOfExt(k, par)
	var pens float64

	switch {
	case ag >= par.OAPAge && ag <= par.EndAge:
		pens = par.OAPBase + par.OAPSupplement

	case ag >= par.TwoYearAge:
		switch ra {
		case domain.StatusTwoYear:
			pens = par.ERPHigh
		case domain.StatusERP:
			pens = erpMeansTested(a, par)
		}

	case ag >= par.ERPAge:
		if ra == domain.StatusERP {
			pens = erpMeansTested(a, par)
		}
	}

	return pens / 100000
}

func erpMeansTested(a float64, par *domain.Params) float64 {
	priv := privatePension(a, par) * 100000
	return math.Max(0, erpMeansTestBase-erpOffsetRate*math.Max(0, priv-erpDeductionFloor))
}

// survivalProb computes the one-period survival probability at extended
// index k from the Gompertz mortality regression; zero at the terminal age.
func survivalProb(k int, g domain.Gender, par *domain.Params) float64 {
	ag := ageOfExt(k, par)
	if ag >= par.EndAge {
		return 0
	}
	reg := par.RegSurvivalFemale
	if g == domain.Male {
		reg = par.RegSurvivalMale
	}
	deathP := math.Min(1, math.Exp(reg[0]+reg[1]*float64(ag)))
	return math.Min(1, 1-deathP)
}
