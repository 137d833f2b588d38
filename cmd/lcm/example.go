package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/egmsolve/retirement-model/internal/config"
)

var exampleFile string

var exampleConfigCmd = &cobra.Command{
	Use:   "example-config",
	Short: "Write an example configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		input := config.NewInputParser().CreateExampleInput(couple)
		data, err := yaml.Marshal(input)
		if err != nil {
			return fmt.Errorf("encoding configuration: %w", err)
		}
		if err := os.WriteFile(exampleFile, data, 0o644); err != nil {
			return fmt.Errorf("writing configuration: %w", err)
		}
		fmt.Printf("wrote %s\n", exampleFile)
		return nil
	},
}

func init() {
	exampleConfigCmd.Flags().StringVar(&exampleFile, "out", "lcm.yaml", "output file")
}
