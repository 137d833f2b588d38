package domain

// Tables holds the precomputed income, pension and survival lookups the
// solver consults by index. The time axis is extended by AdMin+AdMax so that
// couple lookups shifted by the age difference stay in range: extended index
// k corresponds to age StartAge + k - AdMin.
type Tables struct {
	TExt    int // extended time axis length
	TRExt   int // extended working-life length (labor tables stop here)
	Na      int
	NXi     int
	NXiCorr int
	NAD     int

	labor       []float64 // [TRExt][NumGenders][NumStates][NXi]
	laborCouple []float64 // [TRExt][NAD][NumStates][NumStates][NXiCorr]
	pension     []float64 // [TExt][NumGenders][NumStates][NumStatuses][Na]
	survival    []float64 // [TExt][NumGenders]
}

// NewTables allocates the table storage. laborCouple is only allocated when
// nad quadrature sizes are positive (couple models).
func NewTables(tExt, trExt, na, nXi, nXiCorr, nad int) *Tables {
	tb := &Tables{
		TExt:     tExt,
		TRExt:    trExt,
		Na:       na,
		NXi:      nXi,
		NXiCorr:  nXiCorr,
		NAD:      nad,
		labor:    make([]float64, trExt*NumGenders*NumStates*nXi),
		pension:  make([]float64, tExt*NumGenders*NumStates*NumStatuses*na),
		survival: make([]float64, tExt*NumGenders),
	}
	if nXiCorr > 0 {
		tb.laborCouple = make([]float64, trExt*nad*NumStates*NumStates*nXiCorr)
	}
	return tb
}

// Labor returns the posttax labor income at each quadrature node for the
// extended time index k.
func (tb *Tables) Labor(k int, g Gender, st int) []float64 {
	off := ((k*NumGenders+int(g))*NumStates + st) * tb.NXi
	return tb.labor[off : off+tb.NXi]
}

// LaborCouple returns the joint posttax labor income at each correlated
// quadrature node when both spouses work.
func (tb *Tables) LaborCouple(k, adIdx, stH, stW int) []float64 {
	off := (((k*tb.NAD+adIdx)*NumStates+stH)*NumStates + stW) * tb.NXiCorr
	return tb.laborCouple[off : off+tb.NXiCorr]
}

// Pension returns the pension payment over the asset grid for the extended
// time index k and retirement-status bucket ra.
func (tb *Tables) Pension(k int, g Gender, st, ra int) []float64 {
	off := (((k*NumGenders+int(g))*NumStates+st)*NumStatuses + ra) * tb.Na
	return tb.pension[off : off+tb.Na]
}

// Survival returns the one-period survival probability at extended index k.
func (tb *Tables) Survival(k int, g Gender) float64 {
	return tb.survival[k*NumGenders+int(g)]
}

// SetSurvival overwrites a survival entry. Exposed for table construction
// and for tests that pin survival to one.
func (tb *Tables) SetSurvival(k int, g Gender, v float64) {
	tb.survival[k*NumGenders+int(g)] = v
}
