package calculation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/egmsolve/retirement-model/internal/domain"
)

func TestMargUtilityInversion(t *testing.T) {
	par := domain.DefaultParams(false)
	for _, c := range []float64{0.01, 0.5, 1, 3, 50} {
		q := MargUtility(c, par)
		assert.InDelta(t, c, InvMargUtility(q, par), 1e-12)
	}
}

func TestUtility_RetirementLeisure(t *testing.T) {
	par := domain.DefaultParams(false)
	c := 2.5

	work := Utility(c, domain.ChoiceWorking, domain.Male, 3, par)
	ret := Utility(c, domain.ChoiceRetired, domain.Male, 3, par)
	assert.InDelta(t, par.Alpha0Male+par.Alpha1, ret-work, 1e-12)

	// low skilled women get the base leisure value only
	work = Utility(c, domain.ChoiceWorking, domain.Female, 2, par)
	ret = Utility(c, domain.ChoiceRetired, domain.Female, 2, par)
	assert.InDelta(t, par.Alpha0Female, ret-work, 1e-12)
}

func TestUtility_MonotoneInConsumption(t *testing.T) {
	par := domain.DefaultParams(false)
	prev := Utility(0.1, domain.ChoiceWorking, domain.Male, 0, par)
	for _, c := range []float64{0.5, 1, 2, 10} {
		u := Utility(c, domain.ChoiceWorking, domain.Male, 0, par)
		assert.Greater(t, u, prev)
		prev = u
	}
}

func TestCoupleUtility(t *testing.T) {
	par := domain.DefaultParams(true)
	c := 3.0

	both := CoupleUtility(c, domain.JointBothWorking, 3, 3, par)
	wifeOnly := CoupleUtility(c, domain.JointWifeWorking, 3, 3, par)

	// the retired husband's own leisure enters with the Pareto weight
	assert.InDelta(t, par.ParetoWeight*(par.Alpha0Male+par.Alpha1), wifeOnly-both, 1e-12)

	// joint retirement adds the complementarity terms on top of own leisure
	bothRetired := CoupleUtility(c, domain.JointBothRetired, 3, 3, par)
	ownOnly := both +
		par.ParetoWeight*(par.Alpha0Male+par.Alpha1) +
		(1-par.ParetoWeight)*(par.Alpha0Female+par.Alpha1)
	joint := par.ParetoWeight*(par.Phi0Male+par.Phi1) +
		(1-par.ParetoWeight)*(par.Phi0Female+par.Phi1)
	assert.InDelta(t, ownOnly+joint, bothRetired, 1e-12)
}
