//go:build !unix

// SPDX-License-Identifier: GPL-3.0-or-later

package jafar

import "fmt"

// CheckPrivileges returns an error wrapping [ErrPrivileges] since
// jafar relies on iptables, which is not available on this system.
func CheckPrivileges() error {
	return fmt.Errorf("%w: unsupported operating system", ErrPrivileges)
}
