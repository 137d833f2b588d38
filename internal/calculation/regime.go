package calculation

import (
	"github.com/egmsolve/retirement-model/internal/domain"
)

// The regime resolver: pure functions of model time and discrete state that
// determine feasible choice sets and which retirement-status bucket governs
// the pension lookup. No iteration, no mutation.

// Age converts model time to calendar age.
func Age(t int, par *domain.Params) int { return t + par.StartAge }

// TimeOfAge converts calendar age to model time; inverse of Age.
func TimeOfAge(age int, par *domain.Params) int { return age - par.StartAge }

// extIndex maps model time t (shifted by an age difference for wives) to the
// extended lookup-table axis.
func extIndex(t, ad int, par *domain.Params) int { return t + ad + par.AdMin }

var (
	setRetired = []int{domain.ChoiceRetired}
	setBoth    = []int{domain.ChoiceRetired, domain.ChoiceWorking}

	jointSets = [domain.NumJointChoices][]int{
		{domain.JointBothRetired},
		{domain.JointBothRetired, domain.JointWifeWorking},
		{domain.JointBothRetired, domain.JointHusbandWorking},
		{domain.JointBothRetired, domain.JointWifeWorking, domain.JointHusbandWorking, domain.JointBothWorking},
	}
)

// NextChoices returns the feasible choice set at t+1 given the choice d at t.
// Retirement is absorbing; workers lose the working option when the forced
// retirement age is reached next period. The returned slice is shared and
// must not be mutated.
func NextChoices(t, d int, par *domain.Params) []int {
	if d == domain.ChoiceRetired || t+1 >= par.TR-1 {
		return setRetired
	}
	return setBoth
}

// LookupStatus returns the retirement-status bucket that applies at lookup
// time t, given the bucket ra and the choice d carried into it. Ineligible
// states collapse to StatusNone regardless of age.
func LookupStatus(t, st, ra, d int, par *domain.Params) int {
	if !domain.StateEligible(st) {
		return domain.StatusNone
	}
	if d == domain.ChoiceRetired {
		if t >= TimeOfAge(par.OAPAge, par)-1 {
			return domain.StatusTwoYear
		}
		return ra
	}
	if t+1 >= TimeOfAge(par.TwoYearAge, par) {
		return domain.StatusTwoYear
	}
	if t+1 >= TimeOfAge(par.ERPAge, par) {
		return domain.StatusERP
	}
	return domain.StatusNone
}

// NextJointChoices returns the feasible joint choice set at t+1 for a couple
// with age difference ad and joint choice d at t. The set has 1, 2 or 4
// elements depending on which spouses hit the forced retirement boundary
// next period. The returned slice is shared and must not be mutated.
func NextJointChoices(t, ad, d int, par *domain.Params) []int {
	husbandForced := t+1 >= par.TR-1
	wifeForced := t+1+ad >= par.TR-1

	switch d {
	case domain.JointBothRetired:
		return jointSets[domain.JointBothRetired]
	case domain.JointWifeWorking:
		if wifeForced {
			return jointSets[domain.JointBothRetired]
		}
		return jointSets[domain.JointWifeWorking]
	case domain.JointHusbandWorking:
		if husbandForced {
			return jointSets[domain.JointBothRetired]
		}
		return jointSets[domain.JointHusbandWorking]
	default: // both working
		switch {
		case husbandForced && wifeForced:
			return jointSets[domain.JointBothRetired]
		case husbandForced:
			return jointSets[domain.JointWifeWorking]
		case wifeForced:
			return jointSets[domain.JointHusbandWorking]
		default:
			return jointSets[domain.JointBothWorking]
		}
	}
}

// CoupleSingleSlices maps a joint choice to the per-spouse choice indices of
// the single-household solution used for one-survivor continuation lookups,
// accounting for forced retirement next period.
func CoupleSingleSlices(d, t, ad int, par *domain.Params) (husband, wife int) {
	husbandForced := t+1 >= par.TR-1
	wifeForced := t+1+ad >= par.TR-1

	husband = domain.ChoiceRetired
	wife = domain.ChoiceRetired
	if domain.HusbandWorking(d) && !husbandForced {
		husband = domain.ChoiceWorking
	}
	if domain.WifeWorking(d) && !wifeForced {
		wife = domain.ChoiceWorking
	}
	return husband, wife
}

// FeasibleChoices returns the choice set a single household can hold at t.
func FeasibleChoices(t int, par *domain.Params) []int {
	if t >= par.TR-1 {
		return setRetired
	}
	return setBoth
}

// FeasibleJointChoices returns the joint choices a couple can hold at t.
func FeasibleJointChoices(t, ad int, par *domain.Params) []int {
	husbandCan := t <= par.TR-2
	wifeCan := t+ad <= par.TR-2
	switch {
	case husbandCan && wifeCan:
		return jointSets[domain.JointBothWorking]
	case husbandCan:
		return jointSets[domain.JointHusbandWorking]
	case wifeCan:
		return jointSets[domain.JointWifeWorking]
	default:
		return jointSets[domain.JointBothRetired]
	}
}

// statusSet returns the retirement-status buckets that need solving for a
// state: all three for eligible states, only the ineligible bucket
// otherwise.
func statusSet(st int) []int {
	if domain.StateEligible(st) {
		return allStatuses
	}
	return noneStatus
}

var (
	allStatuses = []int{domain.StatusTwoYear, domain.StatusERP, domain.StatusNone}
	noneStatus  = []int{domain.StatusNone}
)
