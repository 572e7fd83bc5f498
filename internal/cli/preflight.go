// SPDX-License-Identifier: GPL-3.0-or-later

package cli

import (
	"fmt"
	"time"

	"github.com/rbmk-project/ooniqa/preflight"
	"github.com/spf13/cobra"
)

// PreflightOptions holds the flags of the preflight command.
type PreflightOptions struct {
	Endpoints []string      `validate:"min=1,dive,hostname_port"`
	Resolver  string        `validate:"hostname_port"`
	Timeout   time.Duration `validate:"gt=0"`
}

// NewPreflightCommand creates the preflight command.
func NewPreflightCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PreflightOptions{}
	cmd := &cobra.Command{
		Use:   "preflight <endpoint>...",
		Short: "Check that TCP endpoints are reachable",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Endpoints = args
			if err := validate.Struct(opts); err != nil {
				return fmt.Errorf("invalid flags: %w", err)
			}
			nx := &preflight.Network{
				Logger:   rootOpts.NewLogger(cmd.ErrOrStderr()),
				Resolver: opts.Resolver,
				Timeout:  opts.Timeout,
			}
			if err := nx.Check(cmd.Context(), opts.Endpoints); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok\n")
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Resolver, "resolver", preflight.DefaultResolver, "DNS-over-UDP resolver")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", preflight.DefaultTimeout, "timeout for each endpoint")
	return cmd
}
