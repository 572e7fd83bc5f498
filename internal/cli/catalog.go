// SPDX-License-Identifier: GPL-3.0-or-later

package cli

import "github.com/rbmk-project/ooniqa/scenario"

// loadScenarios returns the catalog scenarios, when a catalog is
// given, or the built-in scenarios, filtered by name.
func loadScenarios(catalog string, names []string) ([]*scenario.Scenario, error) {
	all := scenario.Builtin()
	if catalog != "" {
		var err error
		if all, err = scenario.Load(catalog); err != nil {
			return nil, err
		}
	}
	return scenario.Select(names, all)
}
