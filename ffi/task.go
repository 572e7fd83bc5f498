// SPDX-License-Identifier: GPL-3.0-or-later

package ffi

import (
	"errors"
	"os"
	"sync"

	"github.com/rbmk-project/ooniqa/closepool"
)

// ErrNullTask indicates that the library failed to start a task.
var ErrNullTask = errors.New("ffi: the library returned a null task")

// ErrNullEvent indicates that the library failed to return an event.
var ErrNullEvent = errors.New("ffi: the library returned a null event")

// ErrClosed indicates that the task has already been closed.
var ErrClosed = errors.New("ffi: task already closed")

// Task is a running task.
//
// Construct using [Start] or [StartWithTempDir].
//
// A [*Task] is safe for concurrent use, but only one goroutine at
// a time should call WaitForNextEvent.
type Task struct {
	api    API
	closed bool
	events map[*Event]struct{}
	handle Handle
	mu     sync.Mutex
	pool   *closepool.Pool
}

// Start starts a task with the given JSON settings.
func Start(api API, settings []byte) (*Task, error) {
	return start(api, settings, &closepool.Pool{})
}

// StartWithTempDir is like [Start] but first uses [PrepareSettings] to
// point the task directories below a fresh temporary directory, which
// is removed after the task has been destroyed.
func StartWithTempDir(api API, settings []byte) (*Task, error) {
	dir, err := os.MkdirTemp("", "ooniqa-ffi-")
	if err != nil {
		return nil, err
	}
	pool := &closepool.Pool{}
	pool.AddFunc(func() error {
		return os.RemoveAll(dir)
	})
	prepared, err := PrepareSettings(settings, dir)
	if err != nil {
		pool.Close()
		return nil, err
	}
	task, err := start(api, prepared, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return task, nil
}

// start starts a task whose destruction precedes closing the
// resources already registered in the given pool.
func start(api API, settings []byte, pool *closepool.Pool) (*Task, error) {
	handle := api.TaskStart(string(settings))
	if handle == 0 {
		return nil, ErrNullTask
	}
	task := &Task{
		api:    api,
		events: make(map[*Event]struct{}),
		handle: handle,
		pool:   pool,
	}
	pool.AddFunc(task.destroy)
	return task, nil
}

// IsDone returns whether the task has finished. A closed
// task is always done.
func (t *Task) IsDone() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed || t.api.TaskIsDone(t.handle)
}

// WaitForNextEvent blocks until the next event. The caller owns the
// returned [*Event] and should close it once done with it.
func (t *Task) WaitForNextEvent() (*Event, error) {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	// we must not hold the lock while blocked, to allow Interrupt
	handle := t.api.TaskWaitForNextEvent(t.handle)
	if handle == 0 {
		return nil, ErrNullEvent
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	ev := &Event{handle: handle, task: t}
	if t.closed {
		// the task has been closed while we were blocked
		t.api.EventDestroy(handle)
		return nil, ErrClosed
	}
	t.events[ev] = struct{}{}
	return ev, nil
}

// Interrupt asks the task to stop as soon as possible.
func (t *Task) Interrupt() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.api.TaskInterrupt(t.handle)
	}
}

// Close destroys the outstanding events, then the task itself, and
// finally removes the task temporary directory, if any. Calling
// Close more than once is safe.
func (t *Task) Close() error {
	return t.pool.Close()
}

// destroy destroys the outstanding events and the task.
func (t *Task) destroy() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	for ev := range t.events {
		ev.destroyLocked()
	}
	t.api.TaskDestroy(t.handle)
	return nil
}

// Event is an event emitted by a [*Task].
type Event struct {
	destroyed bool
	handle    Handle
	task      *Task
}

// Serialization returns the JSON serialization of the event, or
// an empty string if the event has already been closed.
func (e *Event) Serialization() string {
	e.task.mu.Lock()
	defer e.task.mu.Unlock()
	if e.destroyed {
		return ""
	}
	return e.task.api.EventSerialization(e.handle)
}

// Close destroys the event. Calling Close more than once is safe.
func (e *Event) Close() error {
	e.task.mu.Lock()
	defer e.task.mu.Unlock()
	e.destroyLocked()
	return nil
}

// destroyLocked destroys the event while holding the task mutex.
func (e *Event) destroyLocked() {
	if e.destroyed {
		return
	}
	e.destroyed = true
	delete(e.task.events, e)
	e.task.api.EventDestroy(e.handle)
}
