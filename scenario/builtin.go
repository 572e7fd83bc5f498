// SPDX-License-Identifier: GPL-3.0-or-later

package scenario

import (
	"github.com/rbmk-project/common/runtimex"
	"github.com/rbmk-project/ooniqa/directive"
	"github.com/rbmk-project/ooniqa/measurement"
)

// TelegramPOPs contains the addresses of the telegram access points
// that the telegram experiment measures.
var TelegramPOPs = []string{
	"149.154.175.50",
	"149.154.167.51",
	"149.154.175.100",
	"149.154.167.91",
	"149.154.171.5",
}

// telegramWeb is the domain of the telegram web interface.
const telegramWeb = "web.telegram.org"

// controlHost is the web connectivity test helper domain.
const controlHost = "wcth.ooni.io"

// Builtin returns the built-in scenarios, web_connectivity first and
// then telegram, in the order in which they should run.
//
// Each call returns fresh values, so callers may modify them.
func Builtin() []*Scenario {
	out := append(webConnectivityScenarios(), telegramScenarios()...)
	for _, s := range out {
		runtimex.Try0(s.Validate())
	}
	return out
}

// webConnectivityAccessible is the outcome of an accessible website.
func webConnectivityAccessible(dnsConsistency string) Expectations {
	return Expectations{
		"dns_experiment_failure":  nil,
		"dns_consistency":         dnsConsistency,
		"control_failure":         nil,
		"http_experiment_failure": nil,
		"body_length_match":       true,
		"body_proportion":         1,
		"status_code_match":       true,
		"headers_match":           true,
		"title_match":             true,
		"blocking":                false,
		"accessible":              true,
	}
}

func webConnectivityScenarios() []*Scenario {
	https := Experiment{
		Name:   measurement.WebConnectivity,
		Inputs: []string{"https://example.org"},
	}
	http := Experiment{
		Name:   measurement.WebConnectivity,
		Inputs: []string{"http://example.org"},
	}
	return []*Scenario{{
		Name:        "webconnectivity_transparent_http_proxy",
		Description: "HTTPS traffic passes through a transparent proxy",
		Experiment:  https,
		Directives: []directive.Directive{
			directive.HijackHTTPSTo("127.0.0.1:443"),
		},
		Expect: webConnectivityAccessible("consistent"),
	}, {
		Name:        "webconnectivity_dns_hijacking",
		Description: "DNS is hijacked towards a transparent proxy",
		Experiment:  https,
		Directives: []directive.Directive{
			directive.HijackDNSTo("127.0.0.1:53"),
			directive.DNSHijack("example.org"),
		},
		Expect: webConnectivityAccessible("inconsistent"),
	}, {
		Name:        "webconnectivity_control_unreachable_http",
		Description: "the test helper is unreachable and the input uses HTTP",
		Experiment:  http,
		Directives:  directive.ResetKeywords(controlHost),
		Expect: Expectations{
			"dns_experiment_failure":  nil,
			"dns_consistency":         nil,
			"control_failure":         "connection_reset",
			"http_experiment_failure": nil,
			"body_length_match":       nil,
			"body_proportion":         0,
			"status_code_match":       nil,
			"headers_match":           nil,
			"title_match":             nil,
			"blocking":                nil,
			"accessible":              nil,
		},
	}, {
		Name:        "webconnectivity_no_interference",
		Description: "nothing is blocked",
		Experiment:  https,
		Expect:      webConnectivityAccessible("consistent"),
	}}
}

// telegramOutcome returns the telegram expectations.
func telegramOutcome(tcpBlocking, httpBlocking bool, webFailure any) Expectations {
	status := "ok"
	if webFailure != nil {
		status = "blocked"
	}
	return Expectations{
		"telegram_tcp_blocking":  tcpBlocking,
		"telegram_http_blocking": httpBlocking,
		"telegram_web_failure":   webFailure,
		"telegram_web_status":    status,
	}
}

func telegramScenarios() []*Scenario {
	experiment := Experiment{Name: measurement.Telegram}
	resetWebHTTP := directive.ResetHTTPHost(telegramWeb)
	resetWebHTTPS := directive.ResetSNI(telegramWeb)

	var blockEverything []directive.Directive
	blockEverything = append(blockEverything, directive.ResetIPs(TelegramPOPs...)...)
	blockEverything = append(blockEverything, resetWebHTTPS, resetWebHTTP)

	return []*Scenario{{
		Name:        "telegram_block_everything",
		Description: "all the access points and the web interface are blocked",
		Experiment:  experiment,
		Directives:  blockEverything,
		Expect:      telegramOutcome(true, true, "connection_reset"),
	}, {
		Name:        "telegram_tcp_blocking_all",
		Description: "all the access points are blocked at TCP/IP level",
		Experiment:  experiment,
		Directives:  directive.ResetIPs(TelegramPOPs...),
		Expect:      telegramOutcome(true, true, nil),
	}, {
		Name:        "telegram_tcp_blocking_some",
		Description: "one access point is blocked at TCP/IP level",
		Experiment:  experiment,
		Directives:  directive.ResetIPs(TelegramPOPs[0]),
		Expect:      telegramOutcome(false, false, nil),
	}, {
		Name:        "telegram_http_blocking_all",
		Description: "HTTP requests to all the access points are blocked",
		Experiment:  experiment,
		Directives:  directive.ResetKeywords(TelegramPOPs...),
		Expect:      telegramOutcome(false, true, nil),
	}, {
		Name:        "telegram_http_blocking_some",
		Description: "HTTP requests to one access point are blocked",
		Experiment:  experiment,
		Directives:  directive.ResetKeywords(TelegramPOPs[0]),
		Expect:      telegramOutcome(false, false, nil),
	}, {
		Name:        "telegram_web_failure_http",
		Description: "the web interface is blocked over HTTP",
		Experiment:  experiment,
		Directives:  []directive.Directive{resetWebHTTP},
		Expect:      telegramOutcome(false, false, "connection_reset"),
	}, {
		Name:        "telegram_web_failure_https",
		Description: "the web interface is blocked over HTTPS",
		Experiment:  experiment,
		Directives:  []directive.Directive{resetWebHTTPS},
		Expect:      telegramOutcome(false, false, "connection_reset"),
	}, {
		Name:        "telegram_no_interference",
		Description: "nothing is blocked",
		Experiment:  experiment,
		Directives:  nil,
		Expect:      telegramOutcome(false, false, nil),
	}}
}
