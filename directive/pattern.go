// SPDX-License-Identifier: GPL-3.0-or-later

package directive

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"strings"
)

// errHexPattern indicates a malformed hex pattern.
var errHexPattern = errors.New("hex pattern must look like |00 0a ff|")

// ParseHexPattern parses a pattern written as space separated hex
// bytes enclosed within pipes (e.g., `|00 00 00 15|`).
func ParseHexPattern(pattern string) ([]byte, error) {
	if len(pattern) < 2 || !strings.HasPrefix(pattern, "|") || !strings.HasSuffix(pattern, "|") {
		return nil, errHexPattern
	}
	fields := strings.Fields(pattern[1 : len(pattern)-1])
	if len(fields) <= 0 {
		return nil, errHexPattern
	}
	out := make([]byte, 0, len(fields))
	for _, field := range fields {
		if len(field) != 2 {
			return nil, errHexPattern
		}
		decoded, err := hex.DecodeString(field)
		if err != nil {
			return nil, errHexPattern
		}
		out = append(out, decoded...)
	}
	return out, nil
}

// FormatHexPattern is the inverse of [ParseHexPattern].
func FormatHexPattern(data []byte) string {
	var builder strings.Builder
	builder.WriteString("|")
	for idx, b := range data {
		if idx > 0 {
			builder.WriteString(" ")
		}
		builder.WriteString(hex.EncodeToString([]byte{b}))
	}
	builder.WriteString("|")
	return builder.String()
}

// SNIPattern returns the bytes of the TLS server_name extension
// carrying the given domain, which censors commonly match on:
//
//	00 00          <SNI extension ID>
//	LL LL          <full extension length>
//	NN NN          <server name list length>
//	00             <DNS hostname type>
//	SS SS          <hostname length>
//	...            <hostname>
func SNIPattern(domain string) []byte {
	out := make([]byte, 0, 9+len(domain))
	out = binary.BigEndian.AppendUint16(out, 0)
	out = binary.BigEndian.AppendUint16(out, uint16(len(domain)+5))
	out = binary.BigEndian.AppendUint16(out, uint16(len(domain)+3))
	out = append(out, 0)
	out = binary.BigEndian.AppendUint16(out, uint16(len(domain)))
	return append(out, domain...)
}
