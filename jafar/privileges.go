// SPDX-License-Identifier: GPL-3.0-or-later

package jafar

import "errors"

// ErrPrivileges indicates we lack the privileges to run jafar.
var ErrPrivileges = errors.New("jafar: root privileges required")
