//go:build unix

// SPDX-License-Identifier: GPL-3.0-or-later

package jafar

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// CheckPrivileges returns an error wrapping [ErrPrivileges] when the
// current process could not run jafar because it is not root.
func CheckPrivileges() error {
	if euid := unix.Geteuid(); euid != 0 {
		return fmt.Errorf("%w: running with euid %d", ErrPrivileges, euid)
	}
	return nil
}
