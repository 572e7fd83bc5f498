// SPDX-License-Identifier: GPL-3.0-or-later

package preflight

import (
	"context"
	"log/slog"
	"net"
	"time"
)

// DefaultResolver is the default DNS-over-UDP resolver endpoint.
const DefaultResolver = "8.8.8.8:53"

// DefaultTimeout is the default timeout for checking an endpoint.
const DefaultTimeout = 10 * time.Second

// Network checks the reachability of TCP endpoints.
//
// The zero value is ready to use.
type Network struct {
	// DialContextFunc is the optional dialer for creating new
	// TCP and UDP connections. If this field is nil, the default
	// dialer from the [net] package will be used.
	DialContextFunc func(ctx context.Context, network, address string) (net.Conn, error)

	// Logger is the optional structured logger for emitting
	// structured diagnostic events. If this field is nil, we
	// will not be emitting structured logs.
	Logger *slog.Logger

	// LookupHostFunc is the optional function to resolve a domain
	// name to IP addresses. If this field is nil, we send DNS queries
	// over UDP to the Resolver endpoint.
	LookupHostFunc func(ctx context.Context, domain string) ([]string, error)

	// Resolver is the optional DNS-over-UDP resolver endpoint. If
	// this field is empty, we use [DefaultResolver].
	Resolver string

	// TimeNow is an optional function that returns the current time.
	// If this field is nil, the [time.Now] function will be used.
	TimeNow func() time.Time

	// Timeout is the optional timeout for checking each endpoint. If
	// this field is zero, we use [DefaultTimeout].
	Timeout time.Duration
}

// timeNow is a function that returns the current time.
func (nx *Network) timeNow() time.Time {
	if nx.TimeNow != nil {
		return nx.TimeNow()
	}
	return time.Now()
}

// resolver returns the DNS-over-UDP resolver endpoint.
func (nx *Network) resolver() string {
	if nx.Resolver != "" {
		return nx.Resolver
	}
	return DefaultResolver
}

// timeout returns the timeout for checking each endpoint.
func (nx *Network) timeout() time.Duration {
	if nx.Timeout > 0 {
		return nx.Timeout
	}
	return DefaultTimeout
}
