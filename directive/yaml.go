// SPDX-License-Identifier: GPL-3.0-or-later

package directive

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML implements [yaml.Unmarshaler].
//
// The YAML form is a single-key mapping, e.g. `iptables-reset-ip: 1.1.1.1`.
func (d *Directive) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return fmt.Errorf("%w: line %d: expected a single-key mapping", ErrInvalid, node.Line)
	}
	var kind, value string
	if err := node.Content[0].Decode(&kind); err != nil {
		return err
	}
	if err := node.Content[1].Decode(&value); err != nil {
		return err
	}
	parsed, err := New(Kind(kind), value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = parsed
	return nil
}

// MarshalYAML implements [yaml.Marshaler].
func (d Directive) MarshalYAML() (any, error) {
	return map[string]string{string(d.Kind): d.Value}, nil
}
