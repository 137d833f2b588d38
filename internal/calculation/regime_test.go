package calculation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/egmsolve/retirement-model/internal/domain"
)

func TestNextChoices(t *testing.T) {
	par := domain.DefaultParams(false) // TR = 21

	// retirement is absorbing
	assert.Equal(t, []int{domain.ChoiceRetired}, NextChoices(5, domain.ChoiceRetired, par))

	// a worker keeps the option while next period is before the forced boundary
	assert.Equal(t, []int{domain.ChoiceRetired, domain.ChoiceWorking}, NextChoices(5, domain.ChoiceWorking, par))
	assert.Equal(t, []int{domain.ChoiceRetired, domain.ChoiceWorking}, NextChoices(par.TR-3, domain.ChoiceWorking, par))

	// and loses it when t+1 reaches TR-1
	assert.Equal(t, []int{domain.ChoiceRetired}, NextChoices(par.TR-2, domain.ChoiceWorking, par))
}

func TestFeasibleChoices(t *testing.T) {
	par := domain.DefaultParams(false)
	assert.Equal(t, []int{domain.ChoiceRetired, domain.ChoiceWorking}, FeasibleChoices(0, par))
	assert.Equal(t, []int{domain.ChoiceRetired, domain.ChoiceWorking}, FeasibleChoices(par.TR-2, par))
	assert.Equal(t, []int{domain.ChoiceRetired}, FeasibleChoices(par.TR-1, par))
	assert.Equal(t, []int{domain.ChoiceRetired}, FeasibleChoices(par.T-1, par))
}

func TestLookupStatus(t *testing.T) {
	par := domain.DefaultParams(false) // ERP 60, two-year 62, OAP 65, start 57

	const eligible, ineligible = 3, 1

	// ineligible states collapse regardless of age or choice
	assert.Equal(t, domain.StatusNone, LookupStatus(20, ineligible, domain.StatusTwoYear, domain.ChoiceRetired, par))

	// working: bucket follows the age reached next period
	assert.Equal(t, domain.StatusNone, LookupStatus(TimeOfAge(58, par), eligible, domain.StatusNone, domain.ChoiceWorking, par))
	assert.Equal(t, domain.StatusERP, LookupStatus(TimeOfAge(59, par), eligible, domain.StatusNone, domain.ChoiceWorking, par))
	assert.Equal(t, domain.StatusERP, LookupStatus(TimeOfAge(60, par), eligible, domain.StatusNone, domain.ChoiceWorking, par))
	assert.Equal(t, domain.StatusTwoYear, LookupStatus(TimeOfAge(61, par), eligible, domain.StatusNone, domain.ChoiceWorking, par))

	// retired: the bucket is frozen until the old-age-pension boundary
	assert.Equal(t, domain.StatusERP, LookupStatus(TimeOfAge(63, par), eligible, domain.StatusERP, domain.ChoiceRetired, par))
	assert.Equal(t, domain.StatusTwoYear, LookupStatus(TimeOfAge(64, par), eligible, domain.StatusERP, domain.ChoiceRetired, par))
}

func TestNextJointChoices(t *testing.T) {
	par := domain.DefaultParams(true)

	full := []int{domain.JointBothRetired, domain.JointWifeWorking, domain.JointHusbandWorking, domain.JointBothWorking}
	assert.Equal(t, full, NextJointChoices(0, 0, domain.JointBothWorking, par))

	// joint retirement is absorbing
	assert.Equal(t, []int{domain.JointBothRetired}, NextJointChoices(0, 0, domain.JointBothRetired, par))

	// a retired spouse stays retired
	assert.Equal(t, []int{domain.JointBothRetired, domain.JointWifeWorking},
		NextJointChoices(0, 0, domain.JointWifeWorking, par))
	assert.Equal(t, []int{domain.JointBothRetired, domain.JointHusbandWorking},
		NextJointChoices(0, 0, domain.JointHusbandWorking, par))

	// the husband hits the forced boundary next period, the wife keeps going
	assert.Equal(t, []int{domain.JointBothRetired, domain.JointWifeWorking},
		NextJointChoices(par.TR-2, -2, domain.JointBothWorking, par))

	// an older wife hits her boundary first
	assert.Equal(t, []int{domain.JointBothRetired, domain.JointHusbandWorking},
		NextJointChoices(par.TR-4, 2, domain.JointBothWorking, par))

	// both forced
	assert.Equal(t, []int{domain.JointBothRetired},
		NextJointChoices(par.TR-2, 0, domain.JointBothWorking, par))
}

func TestFeasibleJointChoices(t *testing.T) {
	par := domain.DefaultParams(true)

	assert.Len(t, FeasibleJointChoices(0, 0, par), 4)
	assert.Equal(t, []int{domain.JointBothRetired, domain.JointHusbandWorking}, FeasibleJointChoices(par.TR-2, 2, par))
	assert.Equal(t, []int{domain.JointBothRetired, domain.JointWifeWorking}, FeasibleJointChoices(par.TR-1, -2, par))
	assert.Equal(t, []int{domain.JointBothRetired}, FeasibleJointChoices(par.TR-1, 0, par))
}

func TestCoupleSingleSlices(t *testing.T) {
	par := domain.DefaultParams(true)

	h, w := CoupleSingleSlices(domain.JointBothWorking, 0, 0, par)
	assert.Equal(t, domain.ChoiceWorking, h)
	assert.Equal(t, domain.ChoiceWorking, w)

	h, w = CoupleSingleSlices(domain.JointWifeWorking, 0, 0, par)
	assert.Equal(t, domain.ChoiceRetired, h)
	assert.Equal(t, domain.ChoiceWorking, w)

	// forced boundary overrides the working indicator
	h, w = CoupleSingleSlices(domain.JointBothWorking, par.TR-2, 0, par)
	assert.Equal(t, domain.ChoiceRetired, h)
	assert.Equal(t, domain.ChoiceRetired, w)
}

func TestStatusSet(t *testing.T) {
	assert.Equal(t, []int{domain.StatusTwoYear, domain.StatusERP, domain.StatusNone}, statusSet(3))
	assert.Equal(t, []int{domain.StatusTwoYear, domain.StatusERP, domain.StatusNone}, statusSet(2))
	assert.Equal(t, []int{domain.StatusNone}, statusSet(1))
	assert.Equal(t, []int{domain.StatusNone}, statusSet(0))
}
