package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/egmsolve/retirement-model/internal/domain"
)

// Input is the YAML schema of a model configuration file.
type Input struct {
	Household   HouseholdInput   `yaml:"household"`
	Ages        AgesInput        `yaml:"ages"`
	Preferences PreferencesInput `yaml:"preferences"`
	Shocks      ShocksInput      `yaml:"shocks"`
	Savings     SavingsInput     `yaml:"savings"`
	Grid        GridInput        `yaml:"grid"`
	Pension     PensionInput     `yaml:"pension"`
	Tax         domain.TaxSystem `yaml:"tax"`
	Regressions RegressionsInput `yaml:"regressions"`
	AgeDiffs    []int            `yaml:"age_differences"`
	Simulation  SimulationInput  `yaml:"simulation"`
}

type HouseholdInput struct {
	Couple bool `yaml:"couple"`
}

type AgesInput struct {
	Start            int `yaml:"start"`
	End              int `yaml:"end"`
	ForcedRetirement int `yaml:"forced_retirement"`
}

type PreferencesInput struct {
	Rho          float64 `yaml:"rho"`
	Beta         float64 `yaml:"beta"`
	Alpha0Male   float64 `yaml:"alpha_0_male"`
	Alpha0Female float64 `yaml:"alpha_0_female"`
	Alpha1       float64 `yaml:"alpha_1"`
	Gamma        float64 `yaml:"gamma"`
	ParetoWeight float64 `yaml:"pareto_weight"`
	EquivScale   float64 `yaml:"equiv_scale"`
	Phi0Male     float64 `yaml:"phi_0_male"`
	Phi0Female   float64 `yaml:"phi_0_female"`
	Phi1         float64 `yaml:"phi_1"`
}

type ShocksInput struct {
	SigmaEta float64 `yaml:"sigma_eta"`
	VarMen   float64 `yaml:"var_men"`
	VarWomen float64 `yaml:"var_women"`
	Cov      float64 `yaml:"cov"`
}

type SavingsInput struct {
	Return float64 `yaml:"return"`
	MInit  float64 `yaml:"m_init"`
}

type GridInput struct {
	AMax     float64 `yaml:"a_max"`
	APhi     float64 `yaml:"a_phi"`
	Na       int     `yaml:"na"`
	NXi      int     `yaml:"n_xi"`
	NXiMen   int     `yaml:"n_xi_men"`
	NXiWomen int     `yaml:"n_xi_women"`
	Tol      float64 `yaml:"tol"`
}

type PensionInput struct {
	ERPAge        int     `yaml:"erp_age"`
	TwoYearAge    int     `yaml:"two_year_age"`
	OAPAge        int     `yaml:"oap_age"`
	OAPBase       float64 `yaml:"oap_base"`
	OAPSupplement float64 `yaml:"oap_supplement"`
	ERPHigh       float64 `yaml:"erp_high"`
}

type RegressionsInput struct {
	LaborMale      []float64 `yaml:"labor_male"`
	LaborFemale    []float64 `yaml:"labor_female"`
	SurvivalMale   []float64 `yaml:"survival_male"`
	SurvivalFemale []float64 `yaml:"survival_female"`
	PensionMale    []float64 `yaml:"pension_male"`
	PensionFemale  []float64 `yaml:"pension_female"`
}

type SimulationInput struct {
	Households int          `yaml:"households"`
	Seed       uint64       `yaml:"seed"`
	States     []StateShare `yaml:"states"`
}

// StateShare assigns a share of the simulated panel to one discrete
// household type. Shares must sum to one.
type StateShare struct {
	Gender      string  `yaml:"gender"`
	State       int     `yaml:"state"`
	SpouseState int     `yaml:"spouse_state"`
	AgeDiff     int     `yaml:"age_diff"`
	Share       float64 `yaml:"share"`
}

// InputParser handles parsing and validation of model configuration files.
type InputParser struct{}

// NewInputParser creates a new input parser.
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile loads a model configuration from a YAML file and converts it
// into a validated parameter set.
func (ip *InputParser) LoadFromFile(filename string) (*domain.Params, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	var input Input
	if err := yaml.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := ip.ValidateInput(&input); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return ip.ToParams(&input)
}

// ValidateInput validates the loaded configuration.
func (ip *InputParser) ValidateInput(input *Input) error {
	if err := ip.validateAges(input); err != nil {
		return fmt.Errorf("ages validation failed: %w", err)
	}
	if err := ip.validatePreferences(input); err != nil {
		return fmt.Errorf("preferences validation failed: %w", err)
	}
	if err := ip.validateShocks(input); err != nil {
		return fmt.Errorf("shocks validation failed: %w", err)
	}
	if err := ip.validateGrid(&input.Grid); err != nil {
		return fmt.Errorf("grid validation failed: %w", err)
	}
	if err := ip.validateRegressions(&input.Regressions); err != nil {
		return fmt.Errorf("regressions validation failed: %w", err)
	}
	if err := ip.validateSimulation(input); err != nil {
		return fmt.Errorf("simulation validation failed: %w", err)
	}
	return nil
}

func (ip *InputParser) validateAges(input *Input) error {
	a := input.Ages
	p := input.Pension
	if a.Start <= 0 || a.End <= 0 || a.ForcedRetirement <= 0 {
		return fmt.Errorf("start, end and forced retirement ages are required")
	}
	if a.Start+2 > a.ForcedRetirement {
		return fmt.Errorf("forced retirement age %d must be at least two years after start age %d", a.ForcedRetirement, a.Start)
	}
	if a.ForcedRetirement >= a.End {
		return fmt.Errorf("forced retirement age %d must be before end age %d", a.ForcedRetirement, a.End)
	}
	if !(p.ERPAge < p.TwoYearAge && p.TwoYearAge < p.OAPAge) {
		return fmt.Errorf("pension ages must be ordered: erp %d < two year %d < oap %d", p.ERPAge, p.TwoYearAge, p.OAPAge)
	}
	if p.OAPAge > a.ForcedRetirement {
		return fmt.Errorf("old age pension age %d cannot be after forced retirement age %d", p.OAPAge, a.ForcedRetirement)
	}
	return nil
}

func (ip *InputParser) validatePreferences(input *Input) error {
	pr := input.Preferences
	if pr.Rho <= 0 {
		return fmt.Errorf("rho must be positive")
	}
	if math.Abs(pr.Rho-1) < 1e-9 {
		return fmt.Errorf("rho of exactly 1 is not supported by the isoelastic utility")
	}
	if pr.Beta <= 0 {
		return fmt.Errorf("beta must be positive")
	}
	if pr.Gamma <= 0 {
		return fmt.Errorf("gamma must be positive")
	}
	if input.Household.Couple {
		if pr.ParetoWeight < 0 || pr.ParetoWeight > 1 {
			return fmt.Errorf("pareto weight must be between 0 and 1")
		}
		if pr.EquivScale < 0 {
			return fmt.Errorf("equivalence scale cannot be negative")
		}
	}
	return nil
}

func (ip *InputParser) validateShocks(input *Input) error {
	sh := input.Shocks
	if sh.SigmaEta < 0 {
		return fmt.Errorf("taste shock scale cannot be negative")
	}
	if sh.VarMen < 0 || sh.VarWomen < 0 {
		return fmt.Errorf("income shock variances cannot be negative")
	}
	if input.Household.Couple && sh.Cov*sh.Cov >= sh.VarMen*sh.VarWomen {
		return fmt.Errorf("income shock covariance %g is inconsistent with variances %g and %g", sh.Cov, sh.VarWomen, sh.VarMen)
	}
	if input.Savings.Return <= 0 {
		return fmt.Errorf("gross return must be positive")
	}
	return nil
}

func (ip *InputParser) validateGrid(g *GridInput) error {
	if g.Na < 2 {
		return fmt.Errorf("asset grid needs at least 2 points")
	}
	if g.AMax <= 0 {
		return fmt.Errorf("asset grid maximum must be positive")
	}
	if g.APhi < 1 {
		return fmt.Errorf("asset grid curvature must be at least 1")
	}
	if g.NXi < 1 || g.NXiMen < 1 || g.NXiWomen < 1 {
		return fmt.Errorf("quadrature needs at least one node")
	}
	return nil
}

func (ip *InputParser) validateRegressions(r *RegressionsInput) error {
	checks := []struct {
		name string
		got  int
		want int
	}{
		{"labor_male", len(r.LaborMale), 4},
		{"labor_female", len(r.LaborFemale), 4},
		{"survival_male", len(r.SurvivalMale), 2},
		{"survival_female", len(r.SurvivalFemale), 2},
		{"pension_male", len(r.PensionMale), 7},
		{"pension_female", len(r.PensionFemale), 7},
	}
	for _, c := range checks {
		if c.got != c.want {
			return fmt.Errorf("%s needs %d coefficients, got %d", c.name, c.want, c.got)
		}
	}
	return nil
}

func (ip *InputParser) validateSimulation(input *Input) error {
	sim := input.Simulation
	if sim.Households <= 0 {
		return fmt.Errorf("number of simulated households must be positive")
	}
	if len(sim.States) == 0 {
		return fmt.Errorf("at least one household state share is required")
	}
	var total float64
	for i, st := range sim.States {
		if _, err := parseGender(st.Gender); err != nil && !input.Household.Couple {
			return fmt.Errorf("state %d: %w", i, err)
		}
		if st.State < 0 || st.State >= domain.NumStates {
			return fmt.Errorf("state %d: state index %d out of range", i, st.State)
		}
		if input.Household.Couple {
			if st.SpouseState < 0 || st.SpouseState >= domain.NumStates {
				return fmt.Errorf("state %d: spouse state index %d out of range", i, st.SpouseState)
			}
			if !containsInt(input.AgeDiffs, st.AgeDiff) {
				return fmt.Errorf("state %d: age difference %d not in configured age differences", i, st.AgeDiff)
			}
		}
		if st.Share <= 0 {
			return fmt.Errorf("state %d: share must be positive", i)
		}
		total += st.Share
	}
	if math.Abs(total-1) > 1e-9 {
		return fmt.Errorf("state shares must sum to 1, got %g", total)
	}
	return nil
}

// ToParams converts a validated Input into the solver parameter set.
func (ip *InputParser) ToParams(input *Input) (*domain.Params, error) {
	p := &domain.Params{
		Couple:    input.Household.Couple,
		StartAge:  input.Ages.Start,
		EndAge:    input.Ages.End,
		ForcedAge: input.Ages.ForcedRetirement,

		Rho:          input.Preferences.Rho,
		Beta:         input.Preferences.Beta,
		Alpha0Male:   input.Preferences.Alpha0Male,
		Alpha0Female: input.Preferences.Alpha0Female,
		Alpha1:       input.Preferences.Alpha1,
		Gamma:        input.Preferences.Gamma,
		ParetoWeight: input.Preferences.ParetoWeight,
		EquivScale:   input.Preferences.EquivScale,
		Phi0Male:     input.Preferences.Phi0Male,
		Phi0Female:   input.Preferences.Phi0Female,
		Phi1:         input.Preferences.Phi1,

		SigmaEta: input.Shocks.SigmaEta,
		VarMen:   input.Shocks.VarMen,
		VarWomen: input.Shocks.VarWomen,
		Cov:      input.Shocks.Cov,

		R: input.Savings.Return,

		AMax:     input.Grid.AMax,
		APhi:     input.Grid.APhi,
		Na:       input.Grid.Na,
		NXi:      input.Grid.NXi,
		NXiMen:   input.Grid.NXiMen,
		NXiWomen: input.Grid.NXiWomen,

		ERPAge:        input.Pension.ERPAge,
		TwoYearAge:    input.Pension.TwoYearAge,
		OAPAge:        input.Pension.OAPAge,
		OAPBase:       input.Pension.OAPBase,
		OAPSupplement: input.Pension.OAPSupplement,
		ERPHigh:       input.Pension.ERPHigh,

		Tax: input.Tax,

		AgeDiffs: input.AgeDiffs,
		Tol:      input.Grid.Tol,

		SimN:  input.Simulation.Households,
		Seed:  input.Simulation.Seed,
		MInit: input.Savings.MInit,
	}
	if p.Tol <= 0 {
		p.Tol = 1e-6
	}
	copy(p.RegLaborMale[:], input.Regressions.LaborMale)
	copy(p.RegLaborFemale[:], input.Regressions.LaborFemale)
	copy(p.RegSurvivalMale[:], input.Regressions.SurvivalMale)
	copy(p.RegSurvivalFemale[:], input.Regressions.SurvivalFemale)
	copy(p.RegPensionMale[:], input.Regressions.PensionMale)
	copy(p.RegPensionFemale[:], input.Regressions.PensionFemale)
	p.Derive()

	states, err := expandStates(input, p.SimN)
	if err != nil {
		return nil, err
	}
	p.SimStates = states
	return p, nil
}

// expandStates turns the state shares into a per-household assignment of
// length n, rounding each share and handing any remainder to the largest
// share.
func expandStates(input *Input, n int) ([]domain.SimState, error) {
	shares := input.Simulation.States
	counts := make([]int, len(shares))
	assigned, largest := 0, 0
	for i, st := range shares {
		counts[i] = int(math.Round(st.Share * float64(n)))
		assigned += counts[i]
		if st.Share > shares[largest].Share {
			largest = i
		}
	}
	counts[largest] += n - assigned
	if counts[largest] < 0 {
		return nil, fmt.Errorf("state shares round to more households than simulated")
	}

	states := make([]domain.SimState, 0, n)
	for i, st := range shares {
		g := domain.Male
		if !input.Household.Couple {
			parsed, err := parseGender(st.Gender)
			if err != nil {
				return nil, err
			}
			g = parsed
		}
		for k := 0; k < counts[i]; k++ {
			states = append(states, domain.SimState{
				Gender:      g,
				State:       st.State,
				SpouseState: st.SpouseState,
				AgeDiff:     st.AgeDiff,
			})
		}
	}
	return states, nil
}

func parseGender(s string) (domain.Gender, error) {
	switch s {
	case "male":
		return domain.Male, nil
	case "female":
		return domain.Female, nil
	default:
		return 0, fmt.Errorf("gender must be 'male' or 'female', got %q", s)
	}
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// CreateExampleInput returns a complete configuration mirroring the baseline
// parameterisation, suitable for writing out as a starter file.
func (ip *InputParser) CreateExampleInput(couple bool) *Input {
	p := domain.DefaultParams(couple)
	states := []StateShare{
		{Gender: "male", State: 3, SpouseState: 3, AgeDiff: 0, Share: 0.25},
		{Gender: "male", State: 2, SpouseState: 2, AgeDiff: 0, Share: 0.25},
		{Gender: "female", State: 3, SpouseState: 3, AgeDiff: 0, Share: 0.25},
		{Gender: "female", State: 1, SpouseState: 1, AgeDiff: 0, Share: 0.25},
	}
	return &Input{
		Household: HouseholdInput{Couple: couple},
		Ages: AgesInput{
			Start:            p.StartAge,
			End:              p.EndAge,
			ForcedRetirement: p.ForcedAge,
		},
		Preferences: PreferencesInput{
			Rho:          p.Rho,
			Beta:         p.Beta,
			Alpha0Male:   p.Alpha0Male,
			Alpha0Female: p.Alpha0Female,
			Alpha1:       p.Alpha1,
			Gamma:        p.Gamma,
			ParetoWeight: p.ParetoWeight,
			EquivScale:   p.EquivScale,
			Phi0Male:     p.Phi0Male,
			Phi0Female:   p.Phi0Female,
			Phi1:         p.Phi1,
		},
		Shocks: ShocksInput{
			SigmaEta: p.SigmaEta,
			VarMen:   p.VarMen,
			VarWomen: p.VarWomen,
			Cov:      p.Cov,
		},
		Savings: SavingsInput{Return: p.R, MInit: p.MInit},
		Grid: GridInput{
			AMax:     p.AMax,
			APhi:     p.APhi,
			Na:       p.Na,
			NXi:      p.NXi,
			NXiMen:   p.NXiMen,
			NXiWomen: p.NXiWomen,
			Tol:      p.Tol,
		},
		Pension: PensionInput{
			ERPAge:        p.ERPAge,
			TwoYearAge:    p.TwoYearAge,
			OAPAge:        p.OAPAge,
			OAPBase:       p.OAPBase,
			OAPSupplement: p.OAPSupplement,
			ERPHigh:       p.ERPHigh,
		},
		Tax: p.Tax,
		Regressions: RegressionsInput{
			LaborMale:      p.RegLaborMale[:],
			LaborFemale:    p.RegLaborFemale[:],
			SurvivalMale:   p.RegSurvivalMale[:],
			SurvivalFemale: p.RegSurvivalFemale[:],
			PensionMale:    p.RegPensionMale[:],
			PensionFemale:  p.RegPensionFemale[:],
		},
		AgeDiffs: p.AgeDiffs,
		Simulation: SimulationInput{
			Households: p.SimN,
			Seed:       p.Seed,
			States:     states,
		},
	}
}
