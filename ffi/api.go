// SPDX-License-Identifier: GPL-3.0-or-later

package ffi

import (
	"errors"
	"fmt"
)

// Handle is an opaque reference to a task or an event owned by
// the library. The zero value is the null handle.
type Handle uintptr

// API is the task/event API exposed by the library.
//
// Implementations must tolerate concurrent TaskInterrupt calls
// while another goroutine is blocked in TaskWaitForNextEvent.
type API interface {
	// TaskStart starts a task given its JSON settings and returns
	// the task handle, or the null handle on failure.
	TaskStart(settings string) Handle

	// TaskIsDone returns whether the task has finished.
	TaskIsDone(task Handle) bool

	// TaskWaitForNextEvent blocks until the next event and returns
	// the event handle, or the null handle on failure.
	TaskWaitForNextEvent(task Handle) Handle

	// TaskInterrupt asks the task to stop as soon as possible.
	TaskInterrupt(task Handle)

	// TaskDestroy destroys the task.
	TaskDestroy(task Handle)

	// EventSerialization returns the JSON serialization of the event.
	EventSerialization(event Handle) string

	// EventDestroy destroys the event.
	EventDestroy(event Handle)
}

// Library is an [API] loaded from a shared library.
type Library interface {
	API

	// Close unloads the shared library.
	Close() error
}

// ErrUnsupported indicates that this build cannot load shared libraries.
var ErrUnsupported = fmt.Errorf("ffi: %w", errors.ErrUnsupported)

// ErrOpen indicates that we could not load the shared library.
var ErrOpen = errors.New("ffi: cannot load library")
