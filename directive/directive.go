// SPDX-License-Identifier: GPL-3.0-or-later

package directive

import (
	"errors"
	"fmt"
	"net/netip"
	"slices"

	"github.com/miekg/dns"
)

// Kind is the kind of a [Directive], which is also the name
// of the corresponding jafar flag without the leading dash.
type Kind string

const (
	// DNSProxyBlock makes the DNS proxy return NXDOMAIN for a domain.
	DNSProxyBlock = Kind("dns-proxy-block")

	// DNSProxyHijack makes the DNS proxy resolve a domain to localhost.
	DNSProxyHijack = Kind("dns-proxy-hijack")

	// DNSProxyIgnore makes the DNS proxy ignore queries for a domain.
	DNSProxyIgnore = Kind("dns-proxy-ignore")

	// HTTPProxyBlock makes the HTTP proxy return 451 for a host.
	HTTPProxyBlock = Kind("http-proxy-block")

	// TLSProxyBlock makes the TLS proxy reset handshakes for an SNI.
	TLSProxyBlock = Kind("tls-proxy-block")

	// IPTablesDropIP drops traffic towards an IP address.
	IPTablesDropIP = Kind("iptables-drop-ip")

	// IPTablesDropKeyword drops packets containing a keyword.
	IPTablesDropKeyword = Kind("iptables-drop-keyword")

	// IPTablesDropKeywordHex drops packets containing a hex pattern.
	IPTablesDropKeywordHex = Kind("iptables-drop-keyword-hex")

	// IPTablesHijackDNSTo redirects DNS traffic to an endpoint.
	IPTablesHijackDNSTo = Kind("iptables-hijack-dns-to")

	// IPTablesHijackHTTPTo redirects HTTP traffic to an endpoint.
	IPTablesHijackHTTPTo = Kind("iptables-hijack-http-to")

	// IPTablesHijackHTTPSTo redirects HTTPS traffic to an endpoint.
	IPTablesHijackHTTPSTo = Kind("iptables-hijack-https-to")

	// IPTablesResetIP resets TCP connections towards an IP address.
	IPTablesResetIP = Kind("iptables-reset-ip")

	// IPTablesResetKeyword resets TCP connections containing a keyword.
	IPTablesResetKeyword = Kind("iptables-reset-keyword")

	// IPTablesResetKeywordHex resets TCP connections containing a hex pattern.
	IPTablesResetKeywordHex = Kind("iptables-reset-keyword-hex")
)

// valueType is the type of value a [Kind] expects.
type valueType int

const (
	valueKeyword valueType = iota
	valueDomain
	valueIP
	valueEndpoint
	valueHexPattern
)

// kinds maps each known [Kind] to the type of its value.
var kinds = map[Kind]valueType{
	DNSProxyBlock:           valueDomain,
	DNSProxyHijack:          valueDomain,
	DNSProxyIgnore:          valueDomain,
	HTTPProxyBlock:          valueKeyword,
	TLSProxyBlock:           valueKeyword,
	IPTablesDropIP:          valueIP,
	IPTablesDropKeyword:     valueKeyword,
	IPTablesDropKeywordHex:  valueHexPattern,
	IPTablesHijackDNSTo:     valueEndpoint,
	IPTablesHijackHTTPTo:    valueEndpoint,
	IPTablesHijackHTTPSTo:   valueEndpoint,
	IPTablesResetIP:         valueIP,
	IPTablesResetKeyword:    valueKeyword,
	IPTablesResetKeywordHex: valueHexPattern,
}

// Kinds returns all the known kinds in lexicographic order.
func Kinds() []Kind {
	var out []Kind
	for kind := range kinds {
		out = append(out, kind)
	}
	slices.Sort(out)
	return out
}

// ErrInvalid indicates an invalid [Directive].
var ErrInvalid = errors.New("directive: invalid")

// Directive is a single interference directive.
type Directive struct {
	// Kind is the directive kind.
	Kind Kind

	// Value is the directive argument.
	Value string
}

// New creates a [Directive] and returns it once validated.
func New(kind Kind, value string) (Directive, error) {
	d := Directive{Kind: kind, Value: value}
	if err := d.Validate(); err != nil {
		return Directive{}, err
	}
	return d, nil
}

// String implements [fmt.Stringer].
func (d Directive) String() string {
	return fmt.Sprintf("-%s %s", d.Kind, d.Value)
}

// Args returns the jafar command line arguments for the directive.
func (d Directive) Args() []string {
	return []string{"-" + string(d.Kind), d.Value}
}

// Validate returns an error wrapping [ErrInvalid] if the directive
// has an unknown kind or a value unsuitable for its kind.
func (d Directive) Validate() error {
	vtype, found := kinds[d.Kind]
	if !found {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalid, d.Kind)
	}
	if d.Value == "" {
		return fmt.Errorf("%w: %s: empty value", ErrInvalid, d.Kind)
	}
	var err error
	switch vtype {
	case valueDomain:
		if _, ok := dns.IsDomainName(d.Value); !ok {
			err = errors.New("not a domain name")
		}
	case valueIP:
		_, err = netip.ParseAddr(d.Value)
	case valueEndpoint:
		_, err = netip.ParseAddrPort(d.Value)
	case valueHexPattern:
		_, err = ParseHexPattern(d.Value)
	}
	if err != nil {
		return fmt.Errorf("%w: %s %q: %s", ErrInvalid, d.Kind, d.Value, err.Error())
	}
	return nil
}

// Args flattens the arguments of the given directives, preserving order.
func Args(directives ...Directive) []string {
	var out []string
	for _, d := range directives {
		out = append(out, d.Args()...)
	}
	return out
}

// Validate returns the join of the validation errors of the given directives.
func Validate(directives ...Directive) error {
	var errv []error
	for _, d := range directives {
		if err := d.Validate(); err != nil {
			errv = append(errv, err)
		}
	}
	return errors.Join(errv...)
}
