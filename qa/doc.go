// SPDX-License-Identifier: GPL-3.0-or-later

/*
Package qa runs censorship QA scenarios against a probe.

For each scenario, a [*Suite] asks its [Orchestrator] to run the probe
under interference, validates the shape of the resulting measurement,
and compares the test keys with the scenario expectations. Scenarios
run strictly one after the other, with a pause after each of them so
that the orchestrator can release its interference rules.
*/
package qa
