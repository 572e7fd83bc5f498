// SPDX-License-Identifier: GPL-3.0-or-later

// Package cli implements the ooniqa command line interface.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	// LogFormat is the structured logs format. When empty, we
	// use "text" if stderr is a terminal and "json" otherwise.
	LogFormat string `validate:"omitempty,oneof=text json"`

	// Verbose enables the structured logs.
	Verbose bool
}

// validate is the shared options validator.
var validate = validator.New(validator.WithRequiredStructEnabled())

// NewRootCommand creates the root command for the ooniqa CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ooniqa",
		Short: "Censorship QA for OONI probes",
		Long: `Run OONI probes under jafar-emulated censorship and check that
the resulting measurements are well formed and classify the
interference as expected.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := validate.Struct(opts); err != nil {
				return fmt.Errorf("invalid global flags: %w", err)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "", "structured logs format (text|json)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "emit structured logs")

	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewPreflightCommand(opts))
	cmd.AddCommand(NewFFICommand(opts))

	return cmd
}

// NewLogger returns the logger to use given the global flags, or nil
// when structured logs are disabled.
func (opts *RootOptions) NewLogger(w io.Writer) *slog.Logger {
	if !opts.Verbose {
		return nil
	}
	format := opts.LogFormat
	if format == "" {
		format = "json"
		if isTerminal(w) {
			format = "text"
		}
	}
	if format == "text" {
		return slog.New(slog.NewTextHandler(w, nil))
	}
	return slog.New(slog.NewJSONHandler(w, nil))
}

// isTerminal returns whether w is a terminal.
func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
