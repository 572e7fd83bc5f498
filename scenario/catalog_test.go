// SPDX-License-Identifier: GPL-3.0-or-later

package scenario_test

import (
	"testing"

	"github.com/rbmk-project/ooniqa/directive"
	"github.com/rbmk-project/ooniqa/scenario"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	scenarios, err := scenario.Load("testdata/catalog.yaml")
	require.NoError(t, err)
	require.Len(t, scenarios, 2)

	sni := scenarios[0]
	assert.Equal(t, "custom_sni_reset", sni.Name)
	assert.Equal(t, "web_connectivity", sni.Experiment.Name)
	assert.Equal(t, []string{"https://example.com"}, sni.Experiment.Inputs)
	assert.Equal(t, []directive.Directive{directive.ResetSNI("example.com")}, sni.Directives)
	assert.Equal(t, "tcp_ip", sni.ExpectFor("ooniprobe-legacy")["blocking"])
	assert.Equal(t, "http-failure", sni.ExpectFor("miniooni")["blocking"])
	assert.Equal(t, false, sni.Expect["accessible"])

	quiet := scenarios[1]
	assert.Empty(t, quiet.Directives)
	value, found := quiet.Expect["telegram_web_failure"]
	assert.True(t, found)
	assert.Nil(t, value)
}

func TestLoad_missingFile(t *testing.T) {
	_, err := scenario.Load("testdata/nonexistent.yaml")
	assert.Error(t, err)
}

func TestParse_errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{{
		name: "no scenarios",
		data: "scenarios: []\n",
	}, {
		name: "missing name",
		data: "scenarios:\n  - experiment: {name: telegram}\n    expect: {a: 1}\n",
	}, {
		name: "missing experiment name",
		data: "scenarios:\n  - name: x\n    experiment: {}\n    expect: {a: 1}\n",
	}, {
		name: "missing expect",
		data: "scenarios:\n  - name: x\n    experiment: {name: telegram}\n",
	}, {
		name: "unknown field",
		data: "scenarios:\n  - name: x\n    experiment: {name: telegram}\n    expect: {a: 1}\n    extra: 1\n",
	}, {
		name: "unknown directive",
		data: "scenarios:\n  - name: x\n    experiment: {name: telegram}\n    directives:\n      - iptables-explode: now\n    expect: {a: 1}\n",
	}, {
		name: "invalid directive value",
		data: "scenarios:\n  - name: x\n    experiment: {name: telegram}\n    directives:\n      - iptables-reset-ip: nope\n    expect: {a: 1}\n",
	}, {
		name: "bad endpoint",
		data: "scenarios:\n  - name: x\n    experiment: {name: telegram, endpoints: [nope]}\n    expect: {a: 1}\n",
	}, {
		name: "non-literal expectation",
		data: "scenarios:\n  - name: x\n    experiment: {name: telegram}\n    expect: {a: [1, 2]}\n",
	}, {
		name: "duplicate names",
		data: "scenarios:\n  - name: x\n    experiment: {name: telegram}\n    expect: {a: 1}\n  - name: x\n    experiment: {name: telegram}\n    expect: {a: 1}\n",
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scenario.Parse([]byte(tt.data))
			assert.ErrorIs(t, err, scenario.ErrInvalid)
		})
	}
}

func TestMarshal(t *testing.T) {
	t.Run("builtin scenarios", func(t *testing.T) {
		data, err := scenario.Marshal(scenario.Builtin())
		require.NoError(t, err)
		assert.Contains(t, string(data), "- name: webconnectivity_no_interference\n")
		assert.Contains(t, string(data), "- iptables-reset-ip: 149.154.175.50\n")

		parsed, err := scenario.Parse(data)
		require.NoError(t, err)
		assert.Equal(t, scenario.Builtin(), parsed)
	})

	t.Run("loaded catalog", func(t *testing.T) {
		scenarios, err := scenario.Load("testdata/catalog.yaml")
		require.NoError(t, err)
		data, err := scenario.Marshal(scenarios)
		require.NoError(t, err)
		parsed, err := scenario.Parse(data)
		require.NoError(t, err)
		assert.Equal(t, scenarios, parsed)
	})
}

func TestSelect(t *testing.T) {
	all := scenario.Builtin()

	selected, err := scenario.Select(nil, all)
	require.NoError(t, err)
	assert.Len(t, selected, len(all))

	selected, err = scenario.Select([]string{"telegram_no_interference", "webconnectivity_dns_hijacking"}, all)
	require.NoError(t, err)
	require.Len(t, selected, 2)
	assert.Equal(t, "telegram_no_interference", selected[0].Name)
	assert.Equal(t, "webconnectivity_dns_hijacking", selected[1].Name)

	_, err = scenario.Select([]string{"nonexistent"}, all)
	assert.ErrorIs(t, err, scenario.ErrNotFound)
}
