// SPDX-License-Identifier: GPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/rbmk-project/ooniqa/directive"
	"github.com/rbmk-project/ooniqa/scenario"
	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		catalog string
		long    bool
		asYAML  bool
	)
	cmd := &cobra.Command{
		Use:   "list [scenario...]",
		Short: "List the available scenarios",
		Long: `List the built-in scenarios, or those of a YAML catalog. With --yaml,
print the selected scenarios as a catalog usable with --catalog.

Directive kinds usable in a catalog:
  ` + strings.Join(kindNames(), "\n  "),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenarios, err := loadScenarios(catalog, args)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if asYAML {
				data, err := scenario.Marshal(scenarios)
				if err != nil {
					return err
				}
				_, err = w.Write(data)
				return err
			}
			for _, s := range scenarios {
				fmt.Fprintf(w, "%s\t%s\t%s\n", s.Name, s.Experiment.Name, s.Description)
				if long {
					printDetails(w, s)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&catalog, "catalog", "", "YAML catalog to use instead of the built-in scenarios")
	cmd.Flags().BoolVarP(&long, "long", "l", false, "also print inputs, directives, and expectations")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print the scenarios as a YAML catalog")
	cmd.MarkFlagsMutuallyExclusive("long", "yaml")
	return cmd
}

// kindNames returns the names of the known directive kinds.
func kindNames() []string {
	var out []string
	for _, kind := range directive.Kinds() {
		out = append(out, string(kind))
	}
	return out
}

// printDetails prints the inputs, directives, and expectations of a scenario.
func printDetails(w io.Writer, s *scenario.Scenario) {
	for _, input := range s.Experiment.Inputs {
		fmt.Fprintf(w, "\tinput %s\n", input)
	}
	for _, d := range s.Directives {
		fmt.Fprintf(w, "\t%s\n", d.String())
	}
	for _, field := range slices.Sorted(maps.Keys(s.Expect)) {
		value, _ := json.Marshal(s.Expect[field])
		fmt.Fprintf(w, "\texpect %s = %s\n", field, value)
	}
	for _, variant := range slices.Sorted(maps.Keys(s.Variants)) {
		overrides := s.Variants[variant]
		for _, field := range slices.Sorted(maps.Keys(overrides)) {
			value, _ := json.Marshal(overrides[field])
			fmt.Fprintf(w, "\texpect[%s] %s = %s\n", variant, field, value)
		}
	}
}
