package calculation

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/egmsolve/retirement-model/internal/domain"
)

// Solver drives backward induction from the terminal period to the first.
// Periods are strictly sequential; the discrete states within a period are
// solved in parallel, each worker writing a disjoint arena slice.
type Solver struct {
	Par    *domain.Params
	Logger Logger
}

// New returns a Solver with a no-op logger.
func New(par *domain.Params) *Solver {
	return &Solver{Par: par, Logger: NopLogger{}}
}

// Prepare builds the asset grid, the quadrature rules and the lookup tables
// on par. It must run before Solve or SolveCouple.
func Prepare(par *domain.Params) error {
	if err := BuildGrids(par); err != nil {
		return fmt.Errorf("building grids: %w", err)
	}
	if err := BuildTables(par); err != nil {
		return fmt.Errorf("building tables: %w", err)
	}
	return nil
}

// Solve computes the single-household policy.
func (s *Solver) Solve() (*domain.SingleSolution, error) {
	par := s.Par
	if par.Couple {
		return nil, fmt.Errorf("single solve called with couple parameters")
	}
	if par.Tables == nil {
		return nil, fmt.Errorf("lookup tables not built, call Prepare first")
	}

	sol := domain.NewSingleSolution(par.T, par.Na)
	s.Logger.Infof("solving single model: T=%d Na=%d ages %d-%d", par.T, par.Na, par.StartAge, par.EndAge)

	for t := par.T - 1; t >= 0; t-- {
		var eg errgroup.Group
		for g := 0; g < domain.NumGenders; g++ {
			for st := 0; st < domain.NumStates; st++ {
				g, st := domain.Gender(g), st
				eg.Go(func() error {
					return s.solveSingleState(t, g, st, sol)
				})
			}
		}
		if err := eg.Wait(); err != nil {
			return nil, fmt.Errorf("solving period %d (age %d): %w", t, Age(t, par), err)
		}
		s.Logger.Debugf("solved period %d (age %d)", t, Age(t, par))
	}
	return sol, nil
}

func (s *Solver) solveSingleState(t int, g domain.Gender, st int, sol *domain.SingleSolution) error {
	par := s.Par

	if t == par.T-1 {
		for _, ra := range statusSet(st) {
			solveTerminal(sol.At(t, g, st, ra, domain.ChoiceRetired), func(c float64) float64 {
				return Utility(c, domain.ChoiceRetired, g, st, par)
			}, par)
		}
		return nil
	}

	b := newSolveBuffers(par.Na)
	for _, ra := range statusSet(st) {
		for _, d := range FeasibleChoices(t, par) {
			postDecisionSingle(t, g, st, ra, d, sol, par, b)
			if err := solveEGMSingle(t, g, st, ra, d, sol, par, b); err != nil {
				return err
			}
		}
	}
	return nil
}

// SolveCouple computes the couple policy. The completed single-household
// solution (solved on the parameter set from Params.SingleForCouple) must be
// passed in first: the simulator routes surviving spouses onto it, and the
// ordering barrier keeps the two solves from interleaving.
func (s *Solver) SolveCouple(single *domain.SingleSolution) (*domain.CoupleSolution, error) {
	par := s.Par
	if !par.Couple {
		return nil, fmt.Errorf("couple solve called with single parameters")
	}
	if par.Tables == nil {
		return nil, fmt.Errorf("lookup tables not built, call Prepare first")
	}
	if single == nil {
		return nil, fmt.Errorf("couple solve requires the completed single-household solution")
	}

	sol := domain.NewCoupleSolution(par.T, par.NAD(), par.Na)
	s.Logger.Infof("solving couple model: T=%d Na=%d age differences=%v", par.T, par.Na, par.AgeDiffs)

	for t := par.T - 1; t >= 0; t-- {
		var eg errgroup.Group
		for _, ad := range par.AgeDiffs {
			for stH := 0; stH < domain.NumStates; stH++ {
				for stW := 0; stW < domain.NumStates; stW++ {
					ad, stH, stW := ad, stH, stW
					eg.Go(func() error {
						return s.solveCoupleState(t, ad, stH, stW, sol)
					})
				}
			}
		}
		if err := eg.Wait(); err != nil {
			return nil, fmt.Errorf("solving couple period %d (age %d): %w", t, Age(t, par), err)
		}
		s.Logger.Debugf("solved couple period %d (age %d)", t, Age(t, par))
	}
	return sol, nil
}

func (s *Solver) solveCoupleState(t, ad, stH, stW int, sol *domain.CoupleSolution) error {
	par := s.Par

	if t == par.T-1 {
		for _, raH := range statusSet(stH) {
			for _, raW := range statusSet(stW) {
				solveTerminal(sol.At(t, par.AdIndex(ad), stH, stW, raH, raW, domain.JointBothRetired), func(c float64) float64 {
					return CoupleUtility(c, domain.JointBothRetired, stH, stW, par)
				}, par)
			}
		}
		return nil
	}

	b := newSolveBuffers(par.Na)
	for _, raH := range statusSet(stH) {
		for _, raW := range statusSet(stW) {
			for _, d := range FeasibleJointChoices(t, ad, par) {
				postDecisionCouple(t, ad, stH, stW, raH, raW, d, sol, par, b)
				if err := solveEGMCouple(t, ad, stH, stW, raH, raW, d, sol, par, b); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
