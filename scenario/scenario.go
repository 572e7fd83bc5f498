// SPDX-License-Identifier: GPL-3.0-or-later

package scenario

import (
	"errors"
	"fmt"
	"maps"
	"net"
	"net/url"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rbmk-project/ooniqa/directive"
	"github.com/rbmk-project/ooniqa/jafar"
)

// Experiment describes the experiment run by a [*Scenario].
type Experiment struct {
	// Name is the experiment name (e.g., "web_connectivity").
	Name string `yaml:"name" validate:"required"`

	// Inputs contains the optional experiment inputs.
	Inputs []string `yaml:"inputs,omitempty" validate:"dive,required"`

	// Endpoints contains the optional TCP endpoints that must be
	// reachable for the scenario to be meaningful. When empty, we
	// derive them from URL inputs.
	Endpoints []string `yaml:"endpoints,omitempty" validate:"dive,hostname_port"`
}

// PreflightEndpoints returns the endpoints to check before running.
func (e Experiment) PreflightEndpoints() []string {
	if len(e.Endpoints) > 0 {
		return slices.Clone(e.Endpoints)
	}
	var out []string
	for _, input := range e.Inputs {
		parsed, err := url.Parse(input)
		if err != nil || parsed.Hostname() == "" {
			continue
		}
		port := parsed.Port()
		switch {
		case port != "":
		case parsed.Scheme == "https":
			port = "443"
		case parsed.Scheme == "http":
			port = "80"
		default:
			continue
		}
		out = append(out, net.JoinHostPort(parsed.Hostname(), port))
	}
	return out
}

// Scenario is a censorship QA scenario.
//
// A scenario is immutable once constructed.
type Scenario struct {
	// Name uniquely identifies the scenario and is used as jafar tag.
	Name string `yaml:"name" validate:"required"`

	// Description optionally explains the scenario.
	Description string `yaml:"description,omitempty"`

	// Experiment is the experiment to run.
	Experiment Experiment `yaml:"experiment"`

	// Directives contains the ordered interference directives.
	Directives []directive.Directive `yaml:"directives,omitempty"`

	// Expect maps test keys to their expected values.
	Expect Expectations `yaml:"expect" validate:"required"`

	// Variants contains per-probe-variant overrides of Expect.
	Variants map[string]Expectations `yaml:"variants,omitempty"`
}

// ErrInvalid indicates an invalid [*Scenario].
var ErrInvalid = errors.New("scenario: invalid")

// Validate checks the directives and the expectations.
func (s *Scenario) Validate() error {
	if err := directive.Validate(s.Directives...); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalid, s.Name, err)
	}
	for field, value := range s.Expect {
		if !isLiteral(value) {
			return fmt.Errorf("%w: %s: %s: unsupported value %v", ErrInvalid, s.Name, field, value)
		}
	}
	for variant, overrides := range s.Variants {
		for field, value := range overrides {
			if !isLiteral(value) {
				return fmt.Errorf("%w: %s: %s: %s: unsupported value %v", ErrInvalid, s.Name, variant, field, value)
			}
		}
	}
	return nil
}

// ExpectFor returns the expectations for the given probe variant.
func (s *Scenario) ExpectFor(variant string) Expectations {
	out := maps.Clone(s.Expect)
	if out == nil {
		out = Expectations{}
	}
	maps.Copy(out, s.Variants[variant])
	return out
}

// Invocation returns the [*jafar.Invocation] running the scenario.
func (s *Scenario) Invocation() *jafar.Invocation {
	return &jafar.Invocation{
		Experiment: s.Experiment.Name,
		Inputs:     slices.Clone(s.Experiment.Inputs),
		Tag:        s.Name,
		Directives: slices.Clone(s.Directives),
	}
}

// Variant returns the probe variant given the probe executable
// path, i.e., its base name without any extension.
func Variant(probe string) string {
	base := filepath.Base(probe)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
