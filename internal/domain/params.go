package domain

// Gender indexes the gender axis of lookup tables and solution arrays.
type Gender int

const (
	Female Gender = 0
	Male   Gender = 1

	NumGenders = 2
)

func (g Gender) String() string {
	if g == Male {
		return "male"
	}
	return "female"
}

// The composite household-attribute state packs ERP eligibility and skill
// into a single index: bit 1 is eligibility, bit 0 is high skilled.
const NumStates = 4

// StateEligible reports whether state st carries ERP eligibility.
func StateEligible(st int) bool { return st&2 != 0 }

// StateHighSkilled reports whether state st is high skilled.
func StateHighSkilled(st int) bool { return st&1 != 0 }

// Retirement-status buckets governing which pension slice applies.
const (
	StatusTwoYear = 0 // two-year rule satisfied, high ERP rate
	StatusERP     = 1 // ERP eligible without the two-year rule, means tested
	StatusNone    = 2 // no ERP entitlement

	NumStatuses = 3
)

// Labor-market choices for singles.
const (
	ChoiceRetired = 0
	ChoiceWorking = 1

	NumChoices = 2
)

// Joint labor-market choices for couples. The encoding is
// 2*husbandWorking + wifeWorking, matching the transition tables.
const (
	JointBothRetired    = 0
	JointWifeWorking    = 1
	JointHusbandWorking = 2
	JointBothWorking    = 3

	NumJointChoices = 4
)

// JointChoice packs per-spouse working indicators into a joint choice.
func JointChoice(husbandWorking, wifeWorking int) int {
	return 2*husbandWorking + wifeWorking
}

// HusbandWorking reports whether the husband works under joint choice d.
func HusbandWorking(d int) bool { return d == JointHusbandWorking || d == JointBothWorking }

// WifeWorking reports whether the wife works under joint choice d.
func WifeWorking(d int) bool { return d == JointWifeWorking || d == JointBothWorking }

// TaxSystem holds the parameters of the labor income tax schedule.
type TaxSystem struct {
	TauUpper  float64 `yaml:"tau_upper"`
	TauLMC    float64 `yaml:"tau_lmc"`
	WD        float64 `yaml:"wd"`
	WDUpper   float64 `yaml:"wd_upper"`
	TauC      float64 `yaml:"tau_c"`
	YLow      float64 `yaml:"y_low"`
	YLowM     float64 `yaml:"y_low_m"`
	YLowU     float64 `yaml:"y_low_u"`
	TauH      float64 `yaml:"tau_h"`
	TauL      float64 `yaml:"tau_l"`
	TauM      float64 `yaml:"tau_m"`
	TauU      float64 `yaml:"tau_u"`
	TauMax    float64 `yaml:"-"`
	Deduction float64 `yaml:"deduction"` // extra deduction from the old-age-pension age on
}

// SimState describes the fixed discrete attributes of a simulated household.
// For couples State is the husband's state, SpouseState the wife's and
// AgeDiff the wife's age minus the husband's.
type SimState struct {
	Gender      Gender
	State       int
	SpouseState int
	AgeDiff     int
}

// Params collects every input to a solve: preferences, risk, the grid shape,
// institutional ages and the precomputed lookup tables. A Params value is
// treated as immutable once the grids and tables have been built.
type Params struct {
	Couple bool

	// time
	StartAge  int
	EndAge    int
	ForcedAge int
	T         int // derived: EndAge - StartAge + 1
	TR        int // derived: ForcedAge - StartAge + 1

	// preferences
	Rho          float64
	Beta         float64
	Alpha0Male   float64
	Alpha0Female float64
	Alpha1       float64
	Gamma        float64

	// couple preferences
	ParetoWeight float64
	EquivScale   float64
	Phi0Male     float64
	Phi0Female   float64
	Phi1         float64

	// uncertainty
	SigmaEta float64
	VarMen   float64
	VarWomen float64
	Cov      float64

	// savings
	R float64

	// grid
	AMax     float64
	APhi     float64
	Na       int
	NXi      int
	NXiMen   int
	NXiWomen int

	// retirement system (ages in years, amounts in DKK)
	ERPAge        int
	TwoYearAge    int
	OAPAge        int
	OAPBase       float64
	OAPSupplement float64
	ERPHigh       float64

	// tax system
	Tax TaxSystem

	// regression coefficients behind the lookup tables
	RegLaborMale      [4]float64 // constant, high skilled, age, age^2/100
	RegLaborFemale    [4]float64
	RegSurvivalMale   [2]float64 // constant, age
	RegSurvivalFemale [2]float64
	RegPensionMale    [7]float64 // constant, age, age^2/100, high skilled, log w, log w^2, log w^3
	RegPensionFemale  [7]float64

	// couple age differences (wife's age minus husband's)
	AgeDiffs []int
	AdMin    int // derived: -min(AgeDiffs)
	AdMax    int // derived: max(AgeDiffs)

	// numerics
	Tol float64

	// simulation
	SimN      int
	Seed      uint64
	MInit     float64
	SimStates []SimState

	// built by the grid & shock builder
	GridA       []float64
	XiMen       []float64
	XiMenW      []float64
	XiWomen     []float64
	XiWomenW    []float64
	XiCorrMen   []float64
	XiCorrWomen []float64
	WCorr       []float64

	// built by the table builder
	Tables *Tables
}

// NAD returns the number of age-difference buckets.
func (p *Params) NAD() int {
	if len(p.AgeDiffs) == 0 {
		return 1
	}
	return len(p.AgeDiffs)
}

// AdIndex maps an age difference to its bucket index.
func (p *Params) AdIndex(ad int) int { return ad + p.AdMin }

// Derive fills the fields computed from other parameters.
func (p *Params) Derive() {
	p.T = p.EndAge - p.StartAge + 1
	p.TR = p.ForcedAge - p.StartAge + 1
	p.Tax.TauMax = p.Tax.TauL + p.Tax.TauM + p.Tax.TauU + p.Tax.TauC + p.Tax.TauH - p.Tax.TauUpper
	if len(p.AgeDiffs) == 0 {
		p.AgeDiffs = []int{0}
	}
	mn, mx := p.AgeDiffs[0], p.AgeDiffs[0]
	for _, ad := range p.AgeDiffs {
		if ad < mn {
			mn = ad
		}
		if ad > mx {
			mx = ad
		}
	}
	p.AdMin = -mn
	if p.AdMin < 0 {
		p.AdMin = 0
	}
	p.AdMax = mx
	if p.AdMax < 0 {
		p.AdMax = 0
	}
}

// SingleForCouple returns the parameter set for the nested single-household
// model a couple solve depends on. The start age is shifted down by AdMin so
// that every wife time index a couple period can reach exists in the single
// solution.
func (p *Params) SingleForCouple() *Params {
	s := *p
	s.Couple = false
	s.StartAge = p.StartAge - p.AdMin
	s.AgeDiffs = []int{0}
	s.GridA = nil
	s.XiMen, s.XiMenW, s.XiWomen, s.XiWomenW = nil, nil, nil, nil
	s.XiCorrMen, s.XiCorrWomen, s.WCorr = nil, nil, nil
	s.Tables = nil
	s.Derive()
	return &s
}

// DefaultParams returns the baseline parameterisation.
func DefaultParams(couple bool) *Params {
	p := &Params{
		Couple:    couple,
		StartAge:  57,
		EndAge:    110,
		ForcedAge: 77,

		Rho:          0.96,
		Beta:         0.98,
		Alpha0Male:   0.160,
		Alpha0Female: 0.119,
		Alpha1:       0.053,
		Gamma:        0.08,

		ParetoWeight: 0.5,
		EquivScale:   0.048,
		Phi0Male:     1.187,
		Phi0Female:   1.671,
		Phi1:         -0.621,

		SigmaEta: 0.435,
		VarMen:   0.544,
		VarWomen: 0.399,

		R: 1.03,

		AMax:     100, // 10 mio. kr. denominated in 100.000 kr.
		APhi:     1.1,
		Na:       150,
		NXi:      8,
		NXiMen:   8,
		NXiWomen: 8,

		ERPAge:        60,
		TwoYearAge:    62,
		OAPAge:        65,
		OAPBase:       61152,
		OAPSupplement: 61560,
		ERPHigh:       182780,

		Tax: TaxSystem{
			TauUpper: 0.59,
			TauLMC:   0.08,
			WD:       0.4,
			WDUpper:  12300.0 / 100000,
			TauC:     0.2554,
			YLow:     41000.0 / 100000,
			YLowM:    279800.0 / 100000,
			YLowU:    335800.0 / 100000,
			TauH:     0.08,
			TauL:     0.0548,
			TauM:     0.06,
			TauU:     0.15,
		},

		RegLaborMale:      [4]float64{-15.956, 0.230, 0.934, -0.770},
		RegLaborFemale:    [4]float64{-18.937, 0.248, 1.036, -0.856},
		RegSurvivalMale:   [2]float64{-10.338, 0.097},
		RegSurvivalFemale: [2]float64{-11.142, 0.103},
		RegPensionMale:    [7]float64{-57.670, 0.216, -0.187, 0.142, 12.057, -0.920, 0.023},
		RegPensionFemale:  [7]float64{-47.565, 0.098, -0.091, 0.185, 10.062, -0.732, 0.018},

		AgeDiffs: []int{0},

		Tol: 1e-6,

		SimN:  1000,
		Seed:  1998,
		MInit: 5,
	}
	if couple {
		p.VarMen = 0.288
		p.VarWomen = 0.347
		p.Cov = 0.011
		p.RegLaborMale = [4]float64{-5.999, 0.262, 0.629, -0.532}
		p.RegLaborFemale = [4]float64{-4.002, 0.318, 0.544, -0.453}
		p.RegPensionMale = [7]float64{-41.161, 0.072, -0.068, 0.069, 8.864, -0.655, 0.016}
		p.RegPensionFemale = [7]float64{-19.000, 0.039, -0.037, 0.131, 4.290, -0.327, 0.008}
	}
	p.Derive()
	return p
}
