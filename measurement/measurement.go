// SPDX-License-Identifier: GPL-3.0-or-later

package measurement

import (
	"github.com/rbmk-project/ooniqa/maybebinary"
)

// Experiment names with a dedicated schema and typed test keys.
const (
	// WebConnectivity is the web_connectivity experiment.
	WebConnectivity = "web_connectivity"

	// Telegram is the telegram experiment.
	Telegram = "telegram"
)

// Measurement is a validated OONI measurement.
type Measurement struct {
	// Input is the measured input, if any.
	Input *string `json:"input"`

	// MeasurementStartTime is the time when the measurement started.
	MeasurementStartTime string `json:"measurement_start_time"`

	// ProbeASN is the probe's autonomous system number.
	ProbeASN string `json:"probe_asn"`

	// ProbeCC is the probe's country code.
	ProbeCC string `json:"probe_cc"`

	// SoftwareName is the name of the probe.
	SoftwareName string `json:"software_name"`

	// SoftwareVersion is the version of the probe.
	SoftwareVersion string `json:"software_version"`

	// TestName is the experiment name.
	TestName string `json:"test_name"`

	// TestRuntime is the experiment runtime in seconds.
	TestRuntime float64 `json:"test_runtime"`

	// Keys contains the raw test keys as decoded by the shape
	// gate. JSON numbers are represented as [json.Number].
	Keys map[string]any `json:"-"`

	// WebConnectivity contains the typed test keys when the
	// experiment is [WebConnectivity].
	WebConnectivity *WebConnectivityTestKeys `json:"-"`

	// Telegram contains the typed test keys when the
	// experiment is [Telegram].
	Telegram *TelegramTestKeys `json:"-"`
}

// Lookup returns the raw value of the given test keys field
// and whether the field exists. A field that exists and is
// JSON null yields (nil, true).
func (m *Measurement) Lookup(field string) (any, bool) {
	value, found := m.Keys[field]
	return value, found
}

// RequestEntry is an entry of the `requests` list.
type RequestEntry struct {
	// Failure is the failure string or nil.
	Failure *string `json:"failure"`

	// Request is the HTTP request.
	Request HTTPRequest `json:"request"`

	// Response is the HTTP response.
	Response HTTPResponse `json:"response"`
}

// HTTPRequest is an HTTP request.
type HTTPRequest struct {
	Body    maybebinary.Value            `json:"body"`
	Headers map[string]maybebinary.Value `json:"headers"`
	Method  string                       `json:"method"`
	URL     string                       `json:"url"`
}

// HTTPResponse is an HTTP response.
//
// Headers is nil when the response headers are JSON null.
type HTTPResponse struct {
	Body    maybebinary.Value            `json:"body"`
	Code    int64                        `json:"code"`
	Headers map[string]maybebinary.Value `json:"headers"`
}

// TCPConnectEntry is an entry of the `tcp_connect` list.
type TCPConnectEntry struct {
	IP     string           `json:"ip"`
	Port   int              `json:"port"`
	Status TCPConnectStatus `json:"status"`
}

// TCPConnectStatus is the status of a TCP connect attempt.
type TCPConnectStatus struct {
	Failure *string `json:"failure"`
	Success bool    `json:"success"`
}

// ConnectivityTestKeys contains the test keys shared by
// experiments validated using the connectivity schema.
type ConnectivityTestKeys struct {
	// Requests contains the HTTP requests, most recent first.
	Requests []RequestEntry `json:"requests"`

	// TCPConnect contains the TCP connect results.
	TCPConnect []TCPConnectEntry `json:"tcp_connect"`
}
