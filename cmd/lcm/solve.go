package main

import (
	"time"

	"github.com/spf13/cobra"
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve the model by backward induction",
	Long: `Solve computes the consumption and retirement policies for every
period and discrete state. For couples the nested single-household model is
solved first.`,
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
		if _, _, _, err := solveAll(par, log); err != nil {
			return err
		}
		log.Infof("solved in %s", time.Since(start).Round(time.Millisecond))
		return nil
	},
}
