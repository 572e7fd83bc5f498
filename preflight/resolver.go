// SPDX-License-Identifier: GPL-3.0-or-later

package preflight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/miekg/dns"
	"github.com/rbmk-project/common/errclass"
	"github.com/rbmk-project/dnscore"
)

// ErrNoAddresses indicates that a lookup returned no addresses.
var ErrNoAddresses = errors.New("preflight: no answer")

// maybeLookupEndpoint resolves the domain name inside an endpoint into
// a list of TCP/UDP endpoints. If the domain name is already an IP
// address, we short circuit the lookup.
func (nx *Network) maybeLookupEndpoint(ctx context.Context, endpoint string) ([]string, error) {
	domain, port, err := net.SplitHostPort(endpoint)
	if err != nil {
		return nil, err
	}

	addrs, err := nx.maybeLookupHost(ctx, domain)
	if err != nil {
		return nil, err
	}

	var endpoints []string
	for _, addr := range addrs {
		endpoints = append(endpoints, net.JoinHostPort(addr, port))
	}
	return endpoints, nil
}

// maybeLookupHost resolves a domain name to IP addresses unless the domain
// is already an IP address, in which case we short circuit the lookup.
func (nx *Network) maybeLookupHost(ctx context.Context, domain string) ([]string, error) {
	if net.ParseIP(domain) != nil {
		return []string{domain}, nil
	}
	t0 := nx.emitLookupHostStart(ctx, domain)
	addrs, err := nx.doLookupHost(ctx, domain)
	nx.emitLookupHostDone(ctx, domain, t0, addrs, err)
	return addrs, err
}

// doLookupHost performs the DNS lookup.
func (nx *Network) doLookupHost(ctx context.Context, domain string) ([]string, error) {
	if nx.LookupHostFunc != nil {
		return nx.LookupHostFunc(ctx, domain)
	}

	txp := &dnscore.Transport{DialContext: nx.dialNet}
	serverAddr := dnscore.NewServerAddr(dnscore.ProtocolUDP, nx.resolver())

	var (
		addrs []string
		errv  []error
	)
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		query, err := dnscore.NewQuery(domain, qtype)
		if err != nil {
			return nil, err
		}
		resp, err := txp.Query(ctx, serverAddr, query)
		if err != nil {
			errv = append(errv, err)
			continue
		}
		if resp.Rcode != dns.RcodeSuccess {
			errv = append(errv, fmt.Errorf("preflight: %s: %s", domain, dns.RcodeToString[resp.Rcode]))
			continue
		}
		addrs = append(addrs, answerAddrs(resp)...)
	}
	if len(addrs) <= 0 {
		if len(errv) <= 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoAddresses, domain)
		}
		return nil, errors.Join(errv...)
	}
	return addrs, nil
}

// answerAddrs returns the addresses inside the A and AAAA answers.
func answerAddrs(resp *dns.Msg) []string {
	var addrs []string
	for _, ans := range resp.Answer {
		switch rr := ans.(type) {
		case *dns.A:
			addrs = append(addrs, rr.A.String())
		case *dns.AAAA:
			addrs = append(addrs, rr.AAAA.String())
		}
	}
	return addrs
}

// emitLookupHostStart emits a structured event before the lookup.
func (nx *Network) emitLookupHostStart(ctx context.Context, domain string) time.Time {
	t0 := nx.timeNow()
	if nx.Logger != nil {
		nx.Logger.InfoContext(
			ctx,
			"lookupHostStart",
			slog.String("domain", domain),
			slog.String("resolver", nx.resolver()),
			slog.Time("t", t0),
		)
	}
	return t0
}

// emitLookupHostDone emits a structured event after the lookup.
func (nx *Network) emitLookupHostDone(ctx context.Context,
	domain string, t0 time.Time, addrs []string, err error) {
	if nx.Logger != nil {
		nx.Logger.InfoContext(
			ctx,
			"lookupHostDone",
			slog.String("domain", domain),
			slog.Any("addrs", addrs),
			slog.Any("err", err),
			slog.String("errClass", errclass.New(err)),
			slog.String("resolver", nx.resolver()),
			slog.Time("t0", t0),
			slog.Time("t", nx.timeNow()),
		)
	}
}
