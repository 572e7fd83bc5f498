// SPDX-License-Identifier: GPL-3.0-or-later

package preflight

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/rbmk-project/common/errclass"
)

// DialContext establishes a new TCP/UDP connection trying each
// resolved address of the given endpoint in sequence.
func (nx *Network) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	endpoints, err := nx.maybeLookupEndpoint(ctx, address)
	if err != nil {
		return nil, err
	}
	return nx.sequentialDial(ctx, network, nx.dialLog, endpoints...)
}

// dialContextFunc is a function used to dial a connection.
type dialContextFunc func(ctx context.Context, network, address string) (net.Conn, error)

// sequentialDial attempts to dial the endpoints in sequence until one
// of them succeeds. It returns the first successfully established network
// connection, on success, and the union of all errors, otherwise.
func (nx *Network) sequentialDial(
	ctx context.Context,
	network string,
	fx dialContextFunc,
	endpoints ...string,
) (net.Conn, error) {
	if len(endpoints) <= 0 {
		return nil, ErrNoAddresses
	}
	var errv []error
	for _, endpoint := range endpoints {
		conn, err := fx(ctx, network, endpoint)
		if conn != nil && err == nil {
			return conn, nil
		}
		errv = append(errv, err)
	}
	return nil, errors.Join(errv...)
}

// dialLog dials and emits structured logs.
func (nx *Network) dialLog(ctx context.Context, network, address string) (net.Conn, error) {
	t0 := nx.emitConnectStart(ctx, network, address)
	conn, err := nx.dialNet(ctx, network, address)
	nx.emitConnectDone(ctx, network, address, t0, conn, err)
	return conn, err
}

// dialNet dials without emitting structured logs.
func (nx *Network) dialNet(ctx context.Context, network, address string) (net.Conn, error) {
	if nx.DialContextFunc != nil {
		return nx.DialContextFunc(ctx, network, address)
	}
	child := &net.Dialer{}
	child.SetMultipathTCP(false)
	return child.DialContext(ctx, network, address)
}

// emitConnectStart emits a structured event before dialing.
func (nx *Network) emitConnectStart(ctx context.Context, network, address string) time.Time {
	t0 := nx.timeNow()
	if nx.Logger != nil {
		nx.Logger.InfoContext(
			ctx,
			"connectStart",
			slog.String("protocol", network),
			slog.String("remoteAddr", address),
			slog.Time("t", t0),
		)
	}
	return t0
}

// emitConnectDone emits a structured event after dialing.
func (nx *Network) emitConnectDone(ctx context.Context,
	network, address string, t0 time.Time, conn net.Conn, err error) {
	if nx.Logger != nil {
		nx.Logger.InfoContext(
			ctx,
			"connectDone",
			slog.Any("err", err),
			slog.String("errClass", errclass.New(err)),
			slog.String("localAddr", connLocalAddr(conn).String()),
			slog.String("protocol", network),
			slog.String("remoteAddr", address),
			slog.Time("t0", t0),
			slog.Time("t", nx.timeNow()),
		)
	}
}

// connLocalAddr is a safe way to get the local address of a connection.
func connLocalAddr(conn net.Conn) net.Addr {
	if conn != nil && conn.LocalAddr() != nil {
		return conn.LocalAddr()
	}
	return emptyAddr{}
}

// emptyAddr is an empty [net.Addr].
type emptyAddr struct{}

// Network implements [net.Addr].
func (emptyAddr) Network() string { return "" }

// String implements [net.Addr].
func (emptyAddr) String() string { return "" }
