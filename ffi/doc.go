// SPDX-License-Identifier: GPL-3.0-or-later

/*
Package ffi drives measurement tasks exposed by a shared library
through the ooniffi C API.

The library API consists of these functions:

	ooniffi_task_t *ooniffi_task_start(const char *settings);
	ooniffi_event_t *ooniffi_task_wait_for_next_event(ooniffi_task_t *task);
	int ooniffi_task_is_done(ooniffi_task_t *task);
	void ooniffi_task_interrupt(ooniffi_task_t *task);
	const char *ooniffi_event_serialization(ooniffi_event_t *event);
	void ooniffi_event_destroy(ooniffi_event_t *event);
	void ooniffi_task_destroy(ooniffi_task_t *task);

The [API] interface mirrors these functions and [Open] implements it by
loading the library at runtime. A [*Task] owns the events it returns:
closing an [*Event] destroys it exactly once and closing the [*Task]
destroys all the outstanding events before destroying the task itself.
The [Drain] function implements the canonical poll loop.
*/
package ffi
