// SPDX-License-Identifier: GPL-3.0-or-later

package cli

import (
	"fmt"
	"time"

	"github.com/rbmk-project/ooniqa/jafar"
	"github.com/rbmk-project/ooniqa/measurement"
	"github.com/rbmk-project/ooniqa/preflight"
	"github.com/rbmk-project/ooniqa/qa"
	"github.com/rbmk-project/ooniqa/scenario"
	"github.com/spf13/cobra"
)

// RunOptions holds the flags of the run command.
type RunOptions struct {
	Catalog         string
	CheckPrivileges bool
	Home            string
	Jafar           string        `validate:"required"`
	KeepGoing       bool
	MainUser        string        `validate:"required"`
	Pause           time.Duration `validate:"gte=0"`
	Preflight       bool
	Probe           string        `validate:"required"`
	Resolver        string        `validate:"hostname_port"`
	TempDir         string
	Variant         string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{}
	cmd := &cobra.Command{
		Use:   "run <probe> [scenario...]",
		Short: "Run scenarios using the given probe executable",
		Long: `Run the selected scenarios, or all of them, using the given probe
executable under jafar-emulated censorship. Jafar manipulates the
system firewall, so this command usually requires root privileges.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Probe = args[0]
			return runRun(cmd, rootOpts, opts, args[1:])
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.Catalog, "catalog", "", "YAML catalog to use instead of the built-in scenarios")
	flags.BoolVar(&opts.CheckPrivileges, "check-privileges", true, "fail early unless running as root")
	flags.StringVar(&opts.Home, "home", "", "optional probe home directory")
	flags.StringVar(&opts.Jafar, "jafar", jafar.DefaultExecutable, "path to the jafar executable")
	flags.BoolVarP(&opts.KeepGoing, "keep-going", "k", false, "keep going after a failing scenario")
	flags.StringVar(&opts.MainUser, "main-user", jafar.DefaultMainUser, "user running the probe")
	flags.DurationVar(&opts.Pause, "pause", qa.DefaultPause, "pause after each scenario (0 disables it)")
	flags.BoolVar(&opts.Preflight, "preflight", false, "check the scenario endpoints before each scenario")
	flags.StringVar(&opts.Resolver, "resolver", preflight.DefaultResolver, "DNS-over-UDP resolver for the preflight checks")
	flags.StringVar(&opts.TempDir, "temp-dir", "", "directory for the measurement files")
	flags.StringVar(&opts.Variant, "variant", "", "probe variant (default: the probe executable name)")
	return cmd
}

func runRun(cmd *cobra.Command, rootOpts *RootOptions, opts *RunOptions, names []string) error {
	if err := validate.Struct(opts); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	if opts.CheckPrivileges {
		if err := jafar.CheckPrivileges(); err != nil {
			return err
		}
	}
	scenarios, err := loadScenarios(opts.Catalog, names)
	if err != nil {
		return err
	}
	validator, err := measurement.NewValidator()
	if err != nil {
		return err
	}

	logger := rootOpts.NewLogger(cmd.ErrOrStderr())
	suite := &qa.Suite{
		Orchestrator: &jafar.Runner{
			Executable: opts.Jafar,
			Home:       opts.Home,
			Logger:     logger,
			MainUser:   opts.MainUser,
			Probe:      opts.Probe,
			Stdout:     cmd.ErrOrStderr(),
			Stderr:     cmd.ErrOrStderr(),
			TempDir:    opts.TempDir,
		},
		Validator: validator,
		Variant:   opts.Variant,
		Pause:     opts.Pause,
		KeepGoing: opts.KeepGoing,
		Logger:    logger,
	}
	if suite.Variant == "" {
		suite.Variant = scenario.Variant(opts.Probe)
	}
	if suite.Pause == 0 {
		suite.Pause = -1
	}
	if opts.Preflight {
		suite.Preflight = &preflight.Network{Logger: logger, Resolver: opts.Resolver}
	}

	results, err := suite.Run(cmd.Context(), scenarios...)
	w := cmd.OutOrStdout()
	var passed int
	for _, result := range results {
		elapsed := result.T.Sub(result.T0).Round(time.Millisecond)
		if result.Passed() {
			passed++
			fmt.Fprintf(w, "PASS %s (%s)\n", result.Scenario.Name, elapsed)
			continue
		}
		fmt.Fprintf(w, "FAIL %s (%s)\n", result.Scenario.Name, elapsed)
		for _, m := range result.Mismatches {
			fmt.Fprintf(w, "\t%s\n", m.String())
		}
	}
	fmt.Fprintf(w, "%d/%d scenarios passed\n", passed, len(scenarios))
	return err
}
