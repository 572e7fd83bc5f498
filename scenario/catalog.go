// SPDX-License-Identifier: GPL-3.0-or-later

package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// catalog is the YAML representation of a list of scenarios.
type catalog struct {
	Scenarios []*Scenario `yaml:"scenarios" validate:"required,min=1,dive,required"`
}

// Load reads a YAML scenario catalog from the given file.
func Load(path string) ([]*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	scenarios, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return scenarios, nil
}

// Parse parses a YAML scenario catalog such as:
//
//	scenarios:
//	  - name: telegram_web_failure_http
//	    experiment:
//	      name: telegram
//	    directives:
//	      - iptables-reset-keyword: "Host: web.telegram.org"
//	    expect:
//	      telegram_web_status: blocked
//	    variants:
//	      miniooni:
//	        telegram_web_failure: connection_reset
//
// Unknown fields, duplicate names, and invalid directives are errors.
func Parse(data []byte) ([]*Scenario, error) {
	var cat catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cat); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(&cat); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	seen := make(map[string]struct{}, len(cat.Scenarios))
	for _, s := range cat.Scenarios {
		if _, found := seen[s.Name]; found {
			return nil, fmt.Errorf("%w: duplicate scenario name: %s", ErrInvalid, s.Name)
		}
		seen[s.Name] = struct{}{}
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	return cat.Scenarios, nil
}

// Marshal returns the YAML catalog containing the given scenarios, in
// the format that [Parse] accepts.
func Marshal(scenarios []*Scenario) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&catalog{Scenarios: scenarios}); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ErrNotFound indicates that a selected scenario does not exist.
var ErrNotFound = errors.New("scenario: not found")

// Select returns the scenarios with the given names, in the order in
// which they appear in names. With no names, it returns all of them.
func Select(names []string, scenarios []*Scenario) ([]*Scenario, error) {
	if len(names) <= 0 {
		return scenarios, nil
	}
	index := make(map[string]*Scenario, len(scenarios))
	for _, s := range scenarios {
		index[s.Name] = s
	}
	out := make([]*Scenario, 0, len(names))
	for _, name := range names {
		s, found := index[name]
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		out = append(out, s)
	}
	return out, nil
}
