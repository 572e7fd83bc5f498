// SPDX-License-Identifier: GPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	"github.com/rbmk-project/ooniqa/closepool"
	"github.com/rbmk-project/ooniqa/ffi"
	"github.com/spf13/cobra"
)

// NewFFICommand creates the ffi command.
func NewFFICommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ffi <library> <settings-file>",
		Short: "Run a task through the shared library API",
		Long: `Load the given shared library, start a task using the JSON settings
in the given file, and print each event serialization on its own
line until the task is done. The task state lives in a temporary
directory that is removed when the task is destroyed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			settings, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}

			// the task must be destroyed before unloading the library
			pool := &closepool.Pool{}
			defer func() {
				if cerr := pool.Close(); err == nil {
					err = cerr
				}
			}()

			lib, err := ffi.Open(args[0])
			if err != nil {
				return err
			}
			pool.Add(lib)
			task, err := ffi.StartWithTempDir(lib, settings)
			if err != nil {
				return err
			}
			pool.Add(task)

			w := cmd.OutOrStdout()
			return ffi.Drain(cmd.Context(), task, func(serialization string) error {
				_, err := fmt.Fprintln(w, serialization)
				return err
			})
		},
	}
	return cmd
}
