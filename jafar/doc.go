// SPDX-License-Identifier: GPL-3.0-or-later

/*
Package jafar runs a probe under simulated censorship using jafar.

Jafar is an external orchestrator that installs interference rules
(iptables drops and resets, DNS and HTTP hijacking, censoring proxies),
runs a command as an unprivileged user, and removes the rules when the
command terminates. The [*Runner] composes the jafar command line for an
[*Invocation], runs it synchronously, and returns the measurement that
the probe wrote.

# Output Files

Each run uses a fresh, uniquely named output file that is removed once
the measurement has been read, on every exit path. Consecutive runs
therefore never observe each other's results.

# Structured Logs

When the Logger field is set, [*Runner.Run] emits the `jafarStart`
and `jafarDone` events. The latter includes the `err` and `errClass`
fields, following the conventions of the errclass package.

# Privileges

Jafar needs root privileges to modify the firewall. Use
[CheckPrivileges] to fail early when this requirement is not met.
*/
package jafar
