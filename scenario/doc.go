// SPDX-License-Identifier: GPL-3.0-or-later

/*
Package scenario describes censorship QA scenarios.

A [*Scenario] names an experiment to run, the ordered interference
directives to apply while it runs, and the values that some test keys
must have afterwards. [Builtin] returns the scenarios that exercise the
web_connectivity and telegram experiments, while [Load] reads additional
scenarios from a YAML catalog.

# Compatibility Matrix

Different probe implementations do not always classify the same network
conditions identically. Rather than branching on the probe name inside
each check, a scenario lists per-variant expectation overrides, and
[*Scenario.ExpectFor] merges them on top of the common expectations.
The variant is derived from the probe executable name by [Variant].
*/
package scenario
