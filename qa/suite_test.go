// SPDX-License-Identifier: GPL-3.0-or-later

package qa_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rbmk-project/ooniqa/jafar"
	"github.com/rbmk-project/ooniqa/measurement"
	"github.com/rbmk-project/ooniqa/qa"
	"github.com/rbmk-project/ooniqa/scenario"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOrchestrator returns canned measurements by tag.
type fakeOrchestrator struct {
	outputs map[string][]byte
	errs    map[string]error
	tags    []string
}

func (o *fakeOrchestrator) Run(ctx context.Context, inv *jafar.Invocation) ([]byte, error) {
	o.tags = append(o.tags, inv.Tag)
	if err := o.errs[inv.Tag]; err != nil {
		return nil, err
	}
	data, found := o.outputs[inv.Tag]
	if !found {
		return nil, jafar.ErrNoOutput
	}
	return data, nil
}

// fakeChecker records the checked endpoints.
type fakeChecker struct {
	endpoints [][]string
	err       error
}

func (c *fakeChecker) Check(ctx context.Context, endpoints []string) error {
	c.endpoints = append(c.endpoints, endpoints)
	return c.err
}

func readTestdata(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("../measurement/testdata/" + name)
	require.NoError(t, err)
	return data
}

// withTestKeys returns a copy of the measurement with some test keys replaced.
func withTestKeys(t *testing.T, data []byte, keys map[string]any) []byte {
	t.Helper()
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	tk := doc["test_keys"].(map[string]any)
	for key, value := range keys {
		tk[key] = value
	}
	out, err := json.Marshal(doc)
	require.NoError(t, err)
	return out
}

func selectBuiltin(t *testing.T, names ...string) []*scenario.Scenario {
	t.Helper()
	out, err := scenario.Select(names, scenario.Builtin())
	require.NoError(t, err)
	return out
}

func newSuite(t *testing.T, orch qa.Orchestrator) *qa.Suite {
	t.Helper()
	v, err := measurement.NewValidator()
	require.NoError(t, err)
	return &qa.Suite{
		Orchestrator: orch,
		Validator:    v,
		Variant:      "miniooni",
		Pause:        time.Millisecond,
	}
}

func TestSuite_Run(t *testing.T) {
	telegram := readTestdata(t, "telegram.json")
	webConnectivity := readTestdata(t, "web_connectivity.json")

	t.Run("everything blocked", func(t *testing.T) {
		orch := &fakeOrchestrator{outputs: map[string][]byte{
			"telegram_block_everything": telegram,
		}}
		results, err := newSuite(t, orch).Run(context.Background(), selectBuiltin(t, "telegram_block_everything")...)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.True(t, results[0].Passed())
		assert.Empty(t, results[0].Mismatches)
		require.NotNil(t, results[0].Measurement)
		require.NotNil(t, results[0].Measurement.Telegram)
	})

	t.Run("stops at the first failure", func(t *testing.T) {
		orch := &fakeOrchestrator{outputs: map[string][]byte{
			"webconnectivity_transparent_http_proxy": webConnectivity,
			"webconnectivity_dns_hijacking":          webConnectivity,
			"webconnectivity_no_interference":        webConnectivity,
		}}
		scenarios := selectBuiltin(t,
			"webconnectivity_transparent_http_proxy",
			"webconnectivity_dns_hijacking",
			"webconnectivity_no_interference",
		)
		results, err := newSuite(t, orch).Run(context.Background(), scenarios...)
		require.ErrorIs(t, err, qa.ErrScenarioFailed)
		require.Len(t, results, 2)
		assert.True(t, results[0].Passed())
		assert.False(t, results[1].Passed())
		var mismatch *qa.MismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, "webconnectivity_dns_hijacking", mismatch.Scenario)
		assert.Contains(t, err.Error(), `dns_consistency: got "consistent", want "inconsistent"`)
		assert.Equal(t, []string{
			"webconnectivity_transparent_http_proxy",
			"webconnectivity_dns_hijacking",
		}, orch.tags)
	})

	t.Run("keep going", func(t *testing.T) {
		orch := &fakeOrchestrator{
			outputs: map[string][]byte{
				"telegram_tcp_blocking_all": withTestKeys(t, telegram, map[string]any{
					"telegram_web_failure": nil,
					"telegram_web_status":  "ok",
				}),
			},
			errs: map[string]error{
				"telegram_block_everything": errors.New("exit status 1"),
			},
		}
		suite := newSuite(t, orch)
		suite.KeepGoing = true
		results, err := suite.Run(context.Background(), selectBuiltin(t,
			"telegram_block_everything",
			"telegram_tcp_blocking_all",
			"telegram_web_failure_http",
		)...)
		require.ErrorIs(t, err, qa.ErrScenarioFailed)
		require.Len(t, results, 3)
		assert.False(t, results[0].Passed())
		assert.Contains(t, results[0].Err.Error(), "exit status 1")
		assert.True(t, results[1].Passed())
		assert.ErrorIs(t, results[2].Err, jafar.ErrNoOutput)
	})

	t.Run("shape violation", func(t *testing.T) {
		broken := withTestKeys(t, telegram, map[string]any{"tcp_connect": []any{}})
		orch := &fakeOrchestrator{outputs: map[string][]byte{"telegram_block_everything": broken}}
		results, err := newSuite(t, orch).Run(context.Background(), selectBuiltin(t, "telegram_block_everything")...)
		require.ErrorIs(t, err, qa.ErrScenarioFailed)
		var shapeErr *measurement.ShapeError
		assert.ErrorAs(t, err, &shapeErr)
		assert.Nil(t, results[0].Measurement)
	})

	t.Run("variant overrides", func(t *testing.T) {
		sc := &scenario.Scenario{
			Name:       "custom",
			Experiment: scenario.Experiment{Name: measurement.Telegram},
			Expect:     scenario.Expectations{"telegram_web_status": "ok"},
			Variants: map[string]scenario.Expectations{
				"ooniprobe-legacy": {"telegram_web_status": "blocked"},
			},
		}
		orch := &fakeOrchestrator{outputs: map[string][]byte{"custom": telegram}}
		suite := newSuite(t, orch)
		_, err := suite.Run(context.Background(), sc)
		assert.ErrorIs(t, err, qa.ErrScenarioFailed)

		suite.Variant = "ooniprobe-legacy"
		_, err = suite.Run(context.Background(), sc)
		assert.NoError(t, err)
	})
}

func TestSuite_RunPreflight(t *testing.T) {
	telegram := readTestdata(t, "telegram.json")
	orch := &fakeOrchestrator{outputs: map[string][]byte{
		"webconnectivity_control_unreachable_http": telegram,
	}}
	checker := &fakeChecker{err: errors.New("connection refused")}
	suite := newSuite(t, orch)
	suite.Preflight = checker
	results, err := suite.Run(context.Background(), selectBuiltin(t, "webconnectivity_control_unreachable_http")...)
	require.ErrorIs(t, err, qa.ErrScenarioFailed)
	assert.Contains(t, results[0].Err.Error(), "preflight: connection refused")
	assert.Equal(t, [][]string{{"example.org:80"}}, checker.endpoints)
	assert.Empty(t, orch.tags)
}

func TestSuite_RunCanceledDuringPause(t *testing.T) {
	telegram := readTestdata(t, "telegram.json")
	orch := &fakeOrchestrator{outputs: map[string][]byte{
		"telegram_block_everything": telegram,
	}}
	ctx, cancel := context.WithCancel(context.Background())
	suite := newSuite(t, orch)
	suite.Pause = time.Hour
	time.AfterFunc(10*time.Millisecond, cancel)
	results, err := suite.Run(ctx, selectBuiltin(t, "telegram_block_everything", "telegram_tcp_blocking_all")...)
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, qa.ErrScenarioFailed)
	require.Len(t, results, 1)
	assert.True(t, results[0].Passed())
}

func TestSuite_RunLogs(t *testing.T) {
	telegram := readTestdata(t, "telegram.json")
	orch := &fakeOrchestrator{outputs: map[string][]byte{
		"telegram_block_everything": telegram,
	}}
	var buf bytes.Buffer
	suite := newSuite(t, orch)
	suite.Pause = -1
	suite.Logger = slog.New(slog.NewJSONHandler(&buf, nil))
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	suite.TimeNow = func() time.Time { return t0 }
	_, err := suite.Run(context.Background(), selectBuiltin(t, "telegram_block_everything")...)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	var start, done map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &start))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &done))
	assert.Equal(t, "scenarioStart", start["msg"])
	assert.Equal(t, "telegram_block_everything", start["scenario"])
	assert.Equal(t, "miniooni", start["variant"])
	assert.Equal(t, "scenarioDone", done["msg"])
	assert.Equal(t, true, done["passed"])
	assert.Equal(t, "", done["errClass"])
	assert.Equal(t, float64(0), done["mismatches"])
}
