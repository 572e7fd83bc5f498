// SPDX-License-Identifier: GPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/rbmk-project/ooniqa/measurement"
	"github.com/rbmk-project/ooniqa/qa"
	"github.com/rbmk-project/ooniqa/scenario"
	"github.com/spf13/cobra"
)

// errExperimentMismatch indicates that --scenario names a scenario
// for another experiment.
var errExperimentMismatch = errors.New("experiment mismatch")

// ValidateOptions holds the flags of the validate command.
type ValidateOptions struct {
	Catalog    string
	Experiment string `validate:"required"`
	File       string `validate:"required"`
	Scenario   string
	Variant    string
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{}
	cmd := &cobra.Command{
		Use:   "validate <experiment> <measurement-file>",
		Short: "Validate an existing measurement",
		Long: `Check that a measurement written by a probe has the shape that the
given experiment requires and, when --scenario is set, that its
test keys match the expectations of that scenario.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Experiment, opts.File = args[0], args[1]
			return runValidate(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "YAML catalog to use instead of the built-in scenarios")
	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "also check the expectations of this scenario")
	cmd.Flags().StringVar(&opts.Variant, "variant", "", "probe variant selecting the expectations")
	return cmd
}

func runValidate(cmd *cobra.Command, opts *ValidateOptions) error {
	if err := validate.Struct(opts); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	var sx *scenario.Scenario
	if opts.Scenario != "" {
		scenarios, err := loadScenarios(opts.Catalog, []string{opts.Scenario})
		if err != nil {
			return err
		}
		sx = scenarios[0]
		if sx.Experiment.Name != opts.Experiment {
			return fmt.Errorf("%w: scenario %s measures %s, not %s",
				errExperimentMismatch, sx.Name, sx.Experiment.Name, opts.Experiment)
		}
	}
	data, err := os.ReadFile(opts.File)
	if err != nil {
		return err
	}
	validator, err := measurement.NewValidator()
	if err != nil {
		return err
	}
	m, err := validator.Validate(opts.Experiment, data)
	if err != nil {
		return err
	}
	if sx != nil {
		if mismatches := sx.Check(m, opts.Variant); len(mismatches) > 0 {
			return &qa.MismatchError{Scenario: sx.Name, Mismatches: mismatches}
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "ok\n")
	return nil
}
