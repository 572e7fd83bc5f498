//go:build !cgo || !unix

// SPDX-License-Identifier: GPL-3.0-or-later

package ffi

// Open returns [ErrUnsupported] because this build cannot load
// shared libraries.
func Open(path string) (Library, error) {
	return nil, ErrUnsupported
}
