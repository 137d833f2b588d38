package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/egmsolve/retirement-model/internal/calculation"
	"github.com/egmsolve/retirement-model/internal/config"
	"github.com/egmsolve/retirement-model/internal/domain"
)

var (
	configFile string
	couple     bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "lcm",
	Short: "Life-cycle consumption and retirement model",
	Long: `lcm solves a finite-horizon life-cycle model of consumption and
retirement under the Danish pension system and simulates household panels
on the resulting policies.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML configuration file (default: built-in baseline)")
	rootCmd.PersistentFlags().BoolVar(&couple, "couple", false, "use the couple model (ignored when --config is set)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(solveCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(exampleConfigCmd)
}

func newLogger() (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	return logger.Sugar(), nil
}

func loadParams() (*domain.Params, error) {
	if configFile != "" {
		return config.NewInputParser().LoadFromFile(configFile)
	}
	return domain.DefaultParams(couple), nil
}

// solveAll runs the full backward induction. For couples the nested
// single-household model is solved first; the simulator needs it to route
// surviving spouses.
func solveAll(par *domain.Params, log calculation.Logger) (single *domain.SingleSolution, coupleSol *domain.CoupleSolution, singlePar *domain.Params, err error) {
	singlePar = par
	if par.Couple {
		singlePar = par.SingleForCouple()
	}
	if err = calculation.Prepare(singlePar); err != nil {
		return nil, nil, nil, fmt.Errorf("preparing single model: %w", err)
	}
	solver := calculation.New(singlePar)
	solver.Logger = log
	if single, err = solver.Solve(); err != nil {
		return nil, nil, nil, err
	}

	if par.Couple {
		if err = calculation.Prepare(par); err != nil {
			return nil, nil, nil, fmt.Errorf("preparing couple model: %w", err)
		}
		coupleSolver := calculation.New(par)
		coupleSolver.Logger = log
		if coupleSol, err = coupleSolver.SolveCouple(single); err != nil {
			return nil, nil, nil, err
		}
	}
	return single, coupleSol, singlePar, nil
}
