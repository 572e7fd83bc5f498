// SPDX-License-Identifier: GPL-3.0-or-later

package measurement

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema/*.json
var schemaFS embed.FS

// schemaBaseURL is the base URL under which we register the schemas.
const schemaBaseURL = "https://rbmk-project.github.io/ooniqa/schema/"

var (
	// ErrMalformed indicates that the measurement is not well-formed JSON.
	ErrMalformed = errors.New("measurement: malformed JSON")

	// ErrExperimentMismatch indicates that the measurement was produced
	// by an experiment different from the expected one.
	ErrExperimentMismatch = errors.New("measurement: unexpected experiment")
)

// ShapeError indicates that a measurement does not have the shape
// required by the schema registered for its experiment.
type ShapeError struct {
	// Experiment is the experiment whose schema was used.
	Experiment string

	// Err is the underlying validation error.
	Err error
}

// Error implements error.
func (e *ShapeError) Error() string {
	return fmt.Sprintf("measurement: invalid %s shape: %s", e.Experiment, e.Err.Error())
}

// Unwrap allows using [errors.As] on the underlying error.
func (e *ShapeError) Unwrap() error {
	return e.Err
}

// Validator validates measurements.
//
// Construct using [NewValidator]. A [*Validator] is safe for concurrent
// use by multiple goroutines since it is immutable after construction.
type Validator struct {
	// connectivity is the schema for connectivity experiments.
	connectivity *jsonschema.Schema

	// generic is the schema for all the other experiments.
	generic *jsonschema.Schema
}

// NewValidator compiles the embedded schemas and returns a [*Validator].
func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	for _, name := range []string{"measurement.json", "connectivity.json"} {
		data, err := schemaFS.ReadFile("schema/" + name)
		if err != nil {
			return nil, err
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("unmarshal schema %s: %w", name, err)
		}
		if err := compiler.AddResource(schemaBaseURL+name, doc); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", name, err)
		}
	}
	generic, err := compiler.Compile(schemaBaseURL + "measurement.json")
	if err != nil {
		return nil, fmt.Errorf("compile measurement schema: %w", err)
	}
	connectivity, err := compiler.Compile(schemaBaseURL + "connectivity.json")
	if err != nil {
		return nil, fmt.Errorf("compile connectivity schema: %w", err)
	}
	return &Validator{connectivity: connectivity, generic: generic}, nil
}

// schemaFor returns the schema to use for the given experiment.
func (v *Validator) schemaFor(experiment string) *jsonschema.Schema {
	switch experiment {
	case WebConnectivity, Telegram:
		return v.connectivity
	default:
		return v.generic
	}
}

// Validate checks that data is a well-formed measurement produced by the
// given experiment and returns the decoded [*Measurement]. The returned
// error wraps [ErrMalformed] or [ErrExperimentMismatch], or is a
// [*ShapeError] when either the schema or the typed decoding fails.
func (v *Validator) Validate(experiment string, data []byte) (*Measurement, error) {
	// 1. make sure we are dealing with well-formed JSON
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformed, err.Error())
	}

	// 2. make sure the measurement was produced by the right experiment
	if root, ok := doc.(map[string]any); ok {
		if name, ok := root["test_name"].(string); ok && name != experiment {
			return nil, fmt.Errorf("%w: expected %q, got %q", ErrExperimentMismatch, experiment, name)
		}
	}

	// 3. run the schema-based shape gate
	if err := v.schemaFor(experiment).Validate(doc); err != nil {
		return nil, &ShapeError{Experiment: experiment, Err: err}
	}

	// 4. decode into the typed records
	return decode(experiment, doc, data)
}

// envelope is the wire representation of a measurement.
type envelope struct {
	Measurement
	TestKeys json.RawMessage `json:"test_keys"`
}

// decode performs the typed decoding of an already schema-validated doc.
func decode(experiment string, doc any, data []byte) (*Measurement, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &ShapeError{Experiment: experiment, Err: err}
	}
	m := &env.Measurement
	m.Keys = doc.(map[string]any)["test_keys"].(map[string]any)

	switch experiment {
	case WebConnectivity:
		m.WebConnectivity = &WebConnectivityTestKeys{}
		if err := json.Unmarshal(env.TestKeys, m.WebConnectivity); err != nil {
			return nil, &ShapeError{Experiment: experiment, Err: err}
		}

	case Telegram:
		m.Telegram = &TelegramTestKeys{}
		if err := json.Unmarshal(env.TestKeys, m.Telegram); err != nil {
			return nil, &ShapeError{Experiment: experiment, Err: err}
		}
	}

	return m, nil
}
