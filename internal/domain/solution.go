package domain

import "math"

// PolicySlice is one (time, state, choice) cell of a solution: consumption,
// endogenous cash-on-hand and value, aligned over the grid index.
type PolicySlice struct {
	C []float64
	M []float64
	V []float64
}

// SingleSolution is the arena-allocated policy of a single household, indexed
// by (time, gender, state, retirement status, choice). Every cell maps to a
// disjoint slice of the backing arrays and is written by exactly one
// backward-induction step.
type SingleSolution struct {
	T  int
	Na int

	c, m, v []float64
}

// NewSingleSolution allocates a solution arena initialised to NaN.
func NewSingleSolution(t, na int) *SingleSolution {
	n := t * NumGenders * NumStates * NumStatuses * NumChoices * na
	s := &SingleSolution{
		T:  t,
		Na: na,
		c:  make([]float64, n),
		m:  make([]float64, n),
		v:  make([]float64, n),
	}
	nan := math.NaN()
	for i := range s.c {
		s.c[i] = nan
		s.m[i] = nan
		s.v[i] = nan
	}
	return s
}

// At returns the policy cell for (t, g, st, ra, d).
func (s *SingleSolution) At(t int, g Gender, st, ra, d int) PolicySlice {
	off := (((((t*NumGenders+int(g))*NumStates+st)*NumStatuses + ra) * NumChoices) + d) * s.Na
	return PolicySlice{
		C: s.c[off : off+s.Na],
		M: s.m[off : off+s.Na],
		V: s.v[off : off+s.Na],
	}
}

// CoupleSolution is the arena-allocated policy of a couple household, indexed
// by (time, age-difference bucket, husband state, wife state, husband status,
// wife status, joint choice).
type CoupleSolution struct {
	T   int
	NAD int
	Na  int

	c, m, v []float64
}

// NewCoupleSolution allocates a couple solution arena initialised to NaN.
func NewCoupleSolution(t, nad, na int) *CoupleSolution {
	n := t * nad * NumStates * NumStates * NumStatuses * NumStatuses * NumJointChoices * na
	s := &CoupleSolution{
		T:   t,
		NAD: nad,
		Na:  na,
		c:   make([]float64, n),
		m:   make([]float64, n),
		v:   make([]float64, n),
	}
	nan := math.NaN()
	for i := range s.c {
		s.c[i] = nan
		s.m[i] = nan
		s.v[i] = nan
	}
	return s
}

// At returns the policy cell for (t, adIdx, stH, stW, raH, raW, d).
func (s *CoupleSolution) At(t, adIdx, stH, stW, raH, raW, d int) PolicySlice {
	off := ((((((t*s.NAD+adIdx)*NumStates+stH)*NumStates+stW)*NumStatuses+raH)*NumStatuses+raW)*NumJointChoices + d) * s.Na
	return PolicySlice{
		C: s.c[off : off+s.Na],
		M: s.m[off : off+s.Na],
		V: s.v[off : off+s.Na],
	}
}
