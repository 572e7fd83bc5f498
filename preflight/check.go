// SPDX-License-Identifier: GPL-3.0-or-later

package preflight

import (
	"context"
	"errors"
	"fmt"
)

// Check resolves and connects to each TCP endpoint in sequence and
// returns the join of the errors of the unreachable ones. Each
// endpoint is subject to its own timeout (see [Network.Timeout]).
func (nx *Network) Check(ctx context.Context, endpoints []string) error {
	var errv []error
	for _, endpoint := range endpoints {
		if err := nx.checkEndpoint(ctx, endpoint); err != nil {
			errv = append(errv, fmt.Errorf("%s: %w", endpoint, err))
		}
	}
	return errors.Join(errv...)
}

// checkEndpoint checks a single endpoint.
func (nx *Network) checkEndpoint(ctx context.Context, endpoint string) error {
	ctx, cancel := context.WithTimeout(ctx, nx.timeout())
	defer cancel()
	conn, err := nx.DialContext(ctx, "tcp", endpoint)
	if err != nil {
		return err
	}
	return conn.Close()
}
