package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/egmsolve/retirement-model/internal/calculation"
	"github.com/egmsolve/retirement-model/internal/output"
)

var (
	panelFile    string
	momentsFile  string
	computeEuler bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Solve the model and simulate a household panel",
	Long: `Simulate solves the model and propagates a panel of households
forward on the solved policies, writing the panel and its per-age moments
as CSV.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		par, err := loadParams()
		if err != nil {
			return err
		}

		start := time.Now()
		single, coupleSol, singlePar, err := solveAll(par, log)
		if err != nil {
			return err
		}

		sim := calculation.NewSimulator(par)
		sim.Logger = log
		sim.ComputeEuler = computeEuler

		var panelCSV, momentsCSV []byte
		if par.Couple {
			panel, err := sim.SimulateCouple(coupleSol, single, singlePar)
			if err != nil {
				return err
			}
			if panelCSV, err = (output.CouplePanelCSV{}).Format(panel, par.StartAge); err != nil {
				return err
			}
			moments := output.ComputeCoupleMoments(panel, par.StartAge)
			if momentsCSV, err = (output.CoupleMomentsCSV{}).Format(moments); err != nil {
				return err
			}
		} else {
			panel, err := sim.Simulate(single)
			if err != nil {
				return err
			}
			if panelCSV, err = (output.PanelCSV{}).Format(panel, par.StartAge); err != nil {
				return err
			}
			moments := output.ComputeMoments(panel, par.StartAge)
			if momentsCSV, err = (output.MomentsCSV{}).Format(moments); err != nil {
				return err
			}
		}

		if err := os.WriteFile(panelFile, panelCSV, 0o644); err != nil {
			return fmt.Errorf("writing panel: %w", err)
		}
		if err := os.WriteFile(momentsFile, momentsCSV, 0o644); err != nil {
			return fmt.Errorf("writing moments: %w", err)
		}
		log.Infof("simulated %d households in %s, wrote %s and %s",
			par.SimN, time.Since(start).Round(time.Millisecond), panelFile, momentsFile)
		return nil
	},
}

func init() {
	simulateCmd.Flags().StringVar(&panelFile, "out", "panel.csv", "panel CSV output file")
	simulateCmd.Flags().StringVar(&momentsFile, "moments", "moments.csv", "moments CSV output file")
	simulateCmd.Flags().BoolVar(&computeEuler, "euler", false, "compute Euler equation residuals (singles only)")
}
