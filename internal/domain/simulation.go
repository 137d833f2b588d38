package domain

import "math"

// SimulationPanel holds the simulated trajectories of a panel of single
// households. All per-period arrays are laid out [T][N] and flattened; dead
// households carry NaN from the period after death on.
type SimulationPanel struct {
	T int
	N int

	M      []float64 // cash-on-hand
	C      []float64 // consumption
	A      []float64 // end-of-period assets
	Choice []int8    // labor-market status, -1 once dead
	RA     []int8    // retirement-status bucket in effect, -1 once dead
	Alive  []bool
	Prob   []float64 // probability of being retired this period, NaN when no decision was made
	Euler  []float64 // Euler residuals, NaN where not computed

	RetAge []float64 // age at retirement, NaN if never retired
	States []SimState
}

// NewSimulationPanel allocates a panel with NaN-masked trajectories.
func NewSimulationPanel(t, n int) *SimulationPanel {
	p := &SimulationPanel{
		T:      t,
		N:      n,
		M:      nanSlice(t * n),
		C:      nanSlice(t * n),
		A:      nanSlice(t * n),
		Choice: make([]int8, t*n),
		RA:     make([]int8, t*n),
		Alive:  make([]bool, t*n),
		Prob:   nanSlice(t * n),
		Euler:  nanSlice(t * n),
		RetAge: nanSlice(n),
		States: make([]SimState, n),
	}
	for i := range p.Choice {
		p.Choice[i] = -1
		p.RA[i] = -1
	}
	return p
}

// Idx flattens a (period, household) pair.
func (p *SimulationPanel) Idx(t, i int) int { return t*p.N + i }

// CoupleSimulationPanel holds simulated couple trajectories. Choice and
// survival are tracked per spouse; the joint retirement-timing state is
// shared. Once both spouses are dead the household's outputs are NaN.
type CoupleSimulationPanel struct {
	T int
	N int

	M []float64
	C []float64
	A []float64

	ChoiceH []int8
	ChoiceW []int8
	RAH     []int8
	RAW     []int8
	AliveH  []bool
	AliveW  []bool
	ProbH   []float64 // probability the husband is retired this period
	ProbW   []float64

	States []SimState
}

// NewCoupleSimulationPanel allocates a couple panel.
func NewCoupleSimulationPanel(t, n int) *CoupleSimulationPanel {
	p := &CoupleSimulationPanel{
		T:       t,
		N:       n,
		M:       nanSlice(t * n),
		C:       nanSlice(t * n),
		A:       nanSlice(t * n),
		ChoiceH: make([]int8, t*n),
		ChoiceW: make([]int8, t*n),
		RAH:     make([]int8, t*n),
		RAW:     make([]int8, t*n),
		AliveH:  make([]bool, t*n),
		AliveW:  make([]bool, t*n),
		ProbH:   nanSlice(t * n),
		ProbW:   nanSlice(t * n),
		States:  make([]SimState, n),
	}
	for i := range p.ChoiceH {
		p.ChoiceH[i] = -1
		p.ChoiceW[i] = -1
		p.RAH[i] = -1
		p.RAW[i] = -1
	}
	return p
}

// Idx flattens a (period, household) pair.
func (p *CoupleSimulationPanel) Idx(t, i int) int { return t*p.N + i }

func nanSlice(n int) []float64 {
	s := make([]float64, n)
	nan := math.NaN()
	for i := range s {
		s[i] = nan
	}
	return s
}
