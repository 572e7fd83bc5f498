// SPDX-License-Identifier: GPL-3.0-or-later

package directive

// ResetIPs returns an [IPTablesResetIP] directive for each address.
func ResetIPs(addrs ...string) []Directive {
	return each(IPTablesResetIP, addrs)
}

// ResetKeywords returns an [IPTablesResetKeyword] directive for each keyword.
func ResetKeywords(keywords ...string) []Directive {
	return each(IPTablesResetKeyword, keywords)
}

// ResetSNI returns an [IPTablesResetKeywordHex] directive resetting
// TLS connections whose ClientHello carries the given SNI.
func ResetSNI(domain string) Directive {
	return Directive{Kind: IPTablesResetKeywordHex, Value: FormatHexPattern(SNIPattern(domain))}
}

// ResetHTTPHost returns an [IPTablesResetKeyword] directive resetting
// cleartext HTTP connections carrying the given Host header.
func ResetHTTPHost(host string) Directive {
	return Directive{Kind: IPTablesResetKeyword, Value: "Host: " + host}
}

// HijackDNSTo returns an [IPTablesHijackDNSTo] directive.
func HijackDNSTo(endpoint string) Directive {
	return Directive{Kind: IPTablesHijackDNSTo, Value: endpoint}
}

// HijackHTTPSTo returns an [IPTablesHijackHTTPSTo] directive.
func HijackHTTPSTo(endpoint string) Directive {
	return Directive{Kind: IPTablesHijackHTTPSTo, Value: endpoint}
}

// DNSHijack returns a [DNSProxyHijack] directive.
func DNSHijack(domain string) Directive {
	return Directive{Kind: DNSProxyHijack, Value: domain}
}

func each(kind Kind, values []string) []Directive {
	out := make([]Directive, 0, len(values))
	for _, value := range values {
		out = append(out, Directive{Kind: kind, Value: value})
	}
	return out
}
