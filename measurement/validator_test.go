// SPDX-License-Identifier: GPL-3.0-or-later

package measurement_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rbmk-project/ooniqa/maybebinary"
	"github.com/rbmk-project/ooniqa/measurement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mustReadTestdata reads a file from the testdata directory.
func mustReadTestdata(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

// mutate decodes data, applies fx to the decoded test keys, and
// returns the re-encoded measurement.
func mutate(t *testing.T, data []byte, fx func(root, tk map[string]any)) []byte {
	t.Helper()
	var root map[string]any
	require.NoError(t, json.Unmarshal(data, &root))
	fx(root, root["test_keys"].(map[string]any))
	out, err := json.Marshal(root)
	require.NoError(t, err)
	return out
}

func TestValidator_WebConnectivity(t *testing.T) {
	v, err := measurement.NewValidator()
	require.NoError(t, err)

	m, err := v.Validate(measurement.WebConnectivity, mustReadTestdata(t, "web_connectivity.json"))
	require.NoError(t, err)

	assert.Equal(t, "web_connectivity", m.TestName)
	assert.Equal(t, "AS30722", m.ProbeASN)
	require.NotNil(t, m.Input)
	assert.Equal(t, "https://example.org", *m.Input)
	assert.Nil(t, m.Telegram)

	tk := m.WebConnectivity
	require.NotNil(t, tk)
	require.NotNil(t, tk.Blocking)
	assert.False(t, tk.Blocking.Blocked())
	require.NotNil(t, tk.Accessible)
	assert.True(t, *tk.Accessible)
	assert.Equal(t, 1.0, tk.BodyProportion)
	assert.Nil(t, tk.ControlFailure)
	require.NotNil(t, tk.DNSConsistency)
	assert.Equal(t, "consistent", *tk.DNSConsistency)

	require.Len(t, tk.Requests, 1)
	req := tk.Requests[0]
	assert.Nil(t, req.Failure)
	assert.Equal(t, "GET", req.Request.Method)
	assert.Equal(t, maybebinary.KindText, req.Request.Headers["Accept"].Kind())
	assert.Equal(t, maybebinary.KindBinary, req.Response.Body.Kind())
	assert.Equal(t, "<html>\xff", req.Response.Body.String())
	assert.Equal(t, int64(200), req.Response.Code)

	require.Len(t, tk.TCPConnect, 1)
	assert.Equal(t, 443, tk.TCPConnect[0].Port)
	assert.True(t, tk.TCPConnect[0].Status.Success)

	value, found := m.Lookup("body_proportion")
	assert.True(t, found)
	assert.Equal(t, json.Number("1"), value)

	value, found = m.Lookup("control_failure")
	assert.True(t, found)
	assert.Nil(t, value)

	_, found = m.Lookup("nonexistent")
	assert.False(t, found)
}

func TestValidator_Telegram(t *testing.T) {
	v, err := measurement.NewValidator()
	require.NoError(t, err)

	m, err := v.Validate(measurement.Telegram, mustReadTestdata(t, "telegram.json"))
	require.NoError(t, err)

	assert.Nil(t, m.Input)
	tk := m.Telegram
	require.NotNil(t, tk)
	assert.True(t, tk.TelegramTCPBlocking)
	assert.True(t, tk.TelegramHTTPBlocking)
	require.NotNil(t, tk.TelegramWebFailure)
	assert.Equal(t, "connection_reset", *tk.TelegramWebFailure)
	assert.Equal(t, "blocked", tk.TelegramWebStatus)
	require.Len(t, tk.Requests, 1)
	assert.Nil(t, tk.Requests[0].Response.Headers)
	assert.False(t, tk.TCPConnect[0].Status.Success)
}

func TestValidator_Failures(t *testing.T) {
	v, err := measurement.NewValidator()
	require.NoError(t, err)
	webc := mustReadTestdata(t, "web_connectivity.json")

	t.Run("malformed JSON", func(t *testing.T) {
		_, err := v.Validate(measurement.WebConnectivity, []byte(`{"test_keys":`))
		assert.ErrorIs(t, err, measurement.ErrMalformed)
	})

	t.Run("experiment mismatch", func(t *testing.T) {
		_, err := v.Validate(measurement.Telegram, webc)
		assert.ErrorIs(t, err, measurement.ErrExperimentMismatch)
	})

	shapeFailures := []struct {
		name string
		data []byte
	}{
		{
			name: "not an object",
			data: []byte(`[]`),
		},

		{
			name: "missing test keys",
			data: []byte(`{"test_name":"web_connectivity"}`),
		},

		{
			name: "test keys not an object",
			data: []byte(`{"test_keys":[]}`),
		},

		{
			name: "empty requests",
			data: mutate(t, webc, func(root, tk map[string]any) {
				tk["requests"] = []any{}
			}),
		},

		{
			name: "missing tcp_connect",
			data: mutate(t, webc, func(root, tk map[string]any) {
				delete(tk, "tcp_connect")
			}),
		},

		{
			name: "integer request body",
			data: mutate(t, webc, func(root, tk map[string]any) {
				entry := tk["requests"].([]any)[0].(map[string]any)
				entry["request"].(map[string]any)["body"] = 17
			}),
		},

		{
			name: "tagged body missing data",
			data: mutate(t, webc, func(root, tk map[string]any) {
				entry := tk["requests"].([]any)[0].(map[string]any)
				entry["response"].(map[string]any)["body"] = map[string]any{"format": "base64"}
			}),
		},

		{
			name: "non-integer response code",
			data: mutate(t, webc, func(root, tk map[string]any) {
				entry := tk["requests"].([]any)[0].(map[string]any)
				entry["response"].(map[string]any)["code"] = "200"
			}),
		},

		{
			name: "numeric failure",
			data: mutate(t, webc, func(root, tk map[string]any) {
				entry := tk["requests"].([]any)[0].(map[string]any)
				entry["failure"] = 1
			}),
		},

		{
			name: "non-boolean success",
			data: mutate(t, webc, func(root, tk map[string]any) {
				entry := tk["tcp_connect"].([]any)[0].(map[string]any)
				entry["status"].(map[string]any)["success"] = "yes"
			}),
		},

		{
			name: "non-string header value",
			data: mutate(t, webc, func(root, tk map[string]any) {
				entry := tk["requests"].([]any)[0].(map[string]any)
				entry["request"].(map[string]any)["headers"] = map[string]any{"X": 1}
			}),
		},

		{
			name: "blocking set to true",
			data: mutate(t, webc, func(root, tk map[string]any) {
				tk["blocking"] = true
			}),
		},
	}

	for _, tt := range shapeFailures {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(measurement.WebConnectivity, tt.data)
			var shapeErr *measurement.ShapeError
			require.ErrorAs(t, err, &shapeErr)
			assert.Equal(t, measurement.WebConnectivity, shapeErr.Experiment)
		})
	}
}

func TestValidator_GenericExperiment(t *testing.T) {
	v, err := measurement.NewValidator()
	require.NoError(t, err)

	m, err := v.Validate("dnscheck", []byte(`{"test_name":"dnscheck","test_keys":{"lookups":{}}}`))
	require.NoError(t, err)
	assert.Nil(t, m.WebConnectivity)
	assert.Nil(t, m.Telegram)
	_, found := m.Lookup("lookups")
	assert.True(t, found)
}

func TestBlocking(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		for _, input := range []string{`false`, `"dns"`} {
			var b measurement.Blocking
			require.NoError(t, json.Unmarshal([]byte(input), &b))
			out, err := json.Marshal(b)
			require.NoError(t, err)
			assert.Equal(t, input, string(out))
		}
	})

	t.Run("invalid", func(t *testing.T) {
		for _, input := range []string{`true`, `""`, `17`} {
			var b measurement.Blocking
			assert.Error(t, json.Unmarshal([]byte(input), &b), input)
		}
	})
}
