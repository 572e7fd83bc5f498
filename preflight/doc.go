// SPDX-License-Identifier: GPL-3.0-or-later

/*
Package preflight checks that the network is usable before running a
censorship QA scenario.

A scenario result is only meaningful when the failures it observes are
caused by the interference rules rather than by a flaky uplink. Hence,
[*Network] resolves and connects to the endpoints a scenario depends on
before the scenario runs.

Lookups use an explicit DNS-over-UDP resolver rather than the system
resolver, which the interference rules of a previous scenario may have
hijacked.

We emit structured logs using [log/slog] with the following events:

- lookupHostStart, lookupHostDone

- connectStart, connectDone
*/
package preflight
