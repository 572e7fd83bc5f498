// SPDX-License-Identifier: GPL-3.0-or-later

package ffi

import "context"

// Drain polls the task until it is done, passing the serialization of
// each event to fn and destroying each event before waiting for the next
// one. When the context is done, Drain interrupts the task, keeps
// draining until the task is done, and returns the context error. When
// fn fails, Drain interrupts the task and returns the error immediately.
func Drain(ctx context.Context, task *Task, fn func(serialization string) error) error {
	stop := context.AfterFunc(ctx, task.Interrupt)
	defer stop()
	for !task.IsDone() {
		ev, err := task.WaitForNextEvent()
		if err != nil {
			return err
		}
		serialization := ev.Serialization()
		ev.Close()
		if err := fn(serialization); err != nil {
			task.Interrupt()
			return err
		}
	}
	return ctx.Err()
}
