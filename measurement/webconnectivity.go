// SPDX-License-Identifier: GPL-3.0-or-later

package measurement

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// WebConnectivityTestKeys contains the web_connectivity test keys.
//
// Pointer fields are nil when the probe emitted JSON null, which
// web_connectivity uses to mean "could not determine".
type WebConnectivityTestKeys struct {
	ConnectivityTestKeys

	Accessible            *bool     `json:"accessible"`
	Blocking              *Blocking `json:"blocking"`
	BodyLengthMatch       *bool     `json:"body_length_match"`
	BodyProportion        float64   `json:"body_proportion"`
	ControlFailure        *string   `json:"control_failure"`
	DNSConsistency        *string   `json:"dns_consistency"`
	DNSExperimentFailure  *string   `json:"dns_experiment_failure"`
	HeadersMatch          *bool     `json:"headers_match"`
	HTTPExperimentFailure *string   `json:"http_experiment_failure"`
	StatusCodeMatch       *bool     `json:"status_code_match"`
	TitleMatch            *bool     `json:"title_match"`
}

// Blocking is the web_connectivity blocking classification, which
// is either `false` or a string naming the blocking method.
type Blocking struct {
	// Reason is empty when there is no blocking, otherwise it
	// contains the method (e.g., "dns", "tcp_ip", "http-diff").
	Reason string
}

// Blocked returns whether the classification indicates blocking.
func (b Blocking) Blocked() bool {
	return b.Reason != ""
}

// errInvalidBlocking indicates a blocking value of the wrong shape.
var errInvalidBlocking = errors.New("blocking must be false or a string")

// UnmarshalJSON implements [json.Unmarshaler].
func (b *Blocking) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("false")) {
		b.Reason = ""
		return nil
	}
	if len(data) <= 0 || data[0] != '"' {
		return fmt.Errorf("%w: got %s", errInvalidBlocking, data)
	}
	var reason string
	if err := json.Unmarshal(data, &reason); err != nil {
		return err
	}
	if reason == "" {
		return fmt.Errorf("%w: got empty string", errInvalidBlocking)
	}
	b.Reason = reason
	return nil
}

// MarshalJSON implements [json.Marshaler].
func (b Blocking) MarshalJSON() ([]byte, error) {
	if !b.Blocked() {
		return []byte("false"), nil
	}
	return json.Marshal(b.Reason)
}
