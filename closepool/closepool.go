// SPDX-License-Identifier: GPL-3.0-or-later

// Package closepool allows pooling resources that must be released
// together and releasing them in a single operation.
//
// We use it for scoped ownership: whoever acquires a resource (a
// temporary file, a library handle, a task) registers its release in
// the pool, and a single deferred Close releases everything on every
// exit path, in reverse acquisition order.
package closepool

import (
	"errors"
	"io"
	"slices"
	"sync"
)

// Func adapts a function to the [io.Closer] interface.
type Func func() error

// Close implements [io.Closer].
func (fx Func) Close() error {
	return fx()
}

// Pool allows pooling a set of [io.Closer].
//
// The zero value is ready to use.
type Pool struct {
	// handles contains the [io.Closer] to close.
	handles []io.Closer

	// mu provides mutual exclusion.
	mu sync.Mutex
}

// Add adds a given [io.Closer] to the pool.
func (p *Pool) Add(closer io.Closer) {
	p.mu.Lock()
	p.handles = append(p.handles, closer)
	p.mu.Unlock()
}

// AddFunc adds a given release function to the pool.
func (p *Pool) AddFunc(fx func() error) {
	p.Add(Func(fx))
}

// Close closes all the [io.Closer] inside the pool iterating
// in backward order. Therefore, if one registers a library and then
// a task created using that library, the task is released first. The
// returned error is the join of all the errors that occurred. Calling
// Close again only releases resources added after the previous call.
func (p *Pool) Close() error {
	// Lock and copy the [io.Closer] to close.
	p.mu.Lock()
	handles := p.handles
	p.handles = nil
	p.mu.Unlock()

	// Close all the [io.Closer].
	var errv []error
	for _, handle := range slices.Backward(handles) {
		if err := handle.Close(); err != nil {
			errv = append(errv, err)
		}
	}
	return errors.Join(errv...)
}
