// SPDX-License-Identifier: GPL-3.0-or-later

/*
Package measurement validates and decodes OONI measurements.

A probe writes one JSON measurement to disk. Before any scenario
expectation is evaluated, the measurement must pass a hard shape gate:

1. the bytes must be well-formed JSON;

2. the document must satisfy the JSON Schema registered for the
experiment (see the schema directory);

3. the document must decode into the typed records defined here.

The [*Validator] runs these steps in order and returns a [*Measurement]
only when all of them succeed. Shape checking is therefore entirely
separate from checking the values that a scenario expects.

# Schemas

The connectivity schema covers experiments emitting `requests` and
`tcp_connect` (web_connectivity and telegram). Any other experiment is
only required to contain a `test_keys` object.
*/
package measurement
