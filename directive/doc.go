// SPDX-License-Identifier: GPL-3.0-or-later

/*
Package directive models jafar interference directives.

A [Directive] is a single instruction telling the orchestrator how to
interfere with the probe's traffic. Each directive renders to one jafar
command line flag followed by its value. The supported techniques are:

# Packet Filtering

The iptables directives drop or reset TCP connections towards an IP
address, or connections whose payload contains a keyword. Keywords may
be given as text or in hex pattern notation (see [ParseHexPattern]),
which is how we match on binary content such as the TLS SNI extension
built by [SNIPattern].

# Hijacking

The iptables hijack directives redirect DNS, HTTP, or HTTPS traffic to
an alternative endpoint, typically one of the jafar proxies.

# Proxies

The dns-proxy, http-proxy, and tls-proxy directives configure how the
jafar proxies treat specific domain names or hosts.
*/
package directive
