//go:build cgo && unix

// SPDX-License-Identifier: GPL-3.0-or-later

package ffi

/*
#cgo linux LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdlib.h>

typedef void *(*ooniqa_task_start_fn)(const char *);
typedef void *(*ooniqa_ptr_fn)(void *);
typedef int (*ooniqa_int_fn)(void *);
typedef void (*ooniqa_void_fn)(void *);
typedef const char *(*ooniqa_str_fn)(void *);

static void *ooniqa_call_task_start(void *fn, const char *settings) {
	return ((ooniqa_task_start_fn)fn)(settings);
}

static void *ooniqa_call_ptr(void *fn, void *arg) {
	return ((ooniqa_ptr_fn)fn)(arg);
}

static int ooniqa_call_int(void *fn, void *arg) {
	return ((ooniqa_int_fn)fn)(arg);
}

static void ooniqa_call_void(void *fn, void *arg) {
	((ooniqa_void_fn)fn)(arg);
}

static const char *ooniqa_call_str(void *fn, void *arg) {
	return ((ooniqa_str_fn)fn)(arg);
}
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"
)

// dlLibrary is a [Library] loaded using dlopen.
type dlLibrary struct {
	dl unsafe.Pointer

	taskStart            unsafe.Pointer
	taskWaitForNextEvent unsafe.Pointer
	taskIsDone           unsafe.Pointer
	taskInterrupt        unsafe.Pointer
	eventSerialization   unsafe.Pointer
	eventDestroy         unsafe.Pointer
	taskDestroy          unsafe.Pointer

	// handles maps the handles we return to C pointers.
	handles map[Handle]unsafe.Pointer
	mu      sync.Mutex
	next    Handle
}

// Open loads the shared library at the given path and resolves
// the ooniffi_* symbols. Call Close to unload the library.
func Open(path string) (Library, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))
	dl := C.dlopen(cpath, C.RTLD_NOW|C.RTLD_LOCAL)
	if dl == nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrOpen, path, dlerror())
	}
	lib := &dlLibrary{dl: dl, handles: make(map[Handle]unsafe.Pointer), next: 1}
	symbols := []struct {
		name string
		addr *unsafe.Pointer
	}{
		{"ooniffi_task_start", &lib.taskStart},
		{"ooniffi_task_wait_for_next_event", &lib.taskWaitForNextEvent},
		{"ooniffi_task_is_done", &lib.taskIsDone},
		{"ooniffi_task_interrupt", &lib.taskInterrupt},
		{"ooniffi_event_serialization", &lib.eventSerialization},
		{"ooniffi_event_destroy", &lib.eventDestroy},
		{"ooniffi_task_destroy", &lib.taskDestroy},
	}
	for _, sym := range symbols {
		cname := C.CString(sym.name)
		*sym.addr = C.dlsym(dl, cname)
		C.free(unsafe.Pointer(cname))
		if *sym.addr == nil {
			C.dlclose(dl)
			return nil, fmt.Errorf("%w: %s: missing symbol %s", ErrOpen, path, sym.name)
		}
	}
	return lib, nil
}

// dlerror returns the last dlopen error.
func dlerror() string {
	if msg := C.dlerror(); msg != nil {
		return C.GoString(msg)
	}
	return "unknown error"
}

// Close implements [Library].
func (lib *dlLibrary) Close() error {
	if C.dlclose(lib.dl) != 0 {
		return fmt.Errorf("ffi: dlclose: %s", dlerror())
	}
	return nil
}

// register maps a non-null C pointer to a new handle.
func (lib *dlLibrary) register(ptr unsafe.Pointer) Handle {
	if ptr == nil {
		return 0
	}
	lib.mu.Lock()
	defer lib.mu.Unlock()
	handle := lib.next
	lib.next++
	lib.handles[handle] = ptr
	return handle
}

// lookup returns the C pointer of a handle or nil.
func (lib *dlLibrary) lookup(handle Handle) unsafe.Pointer {
	lib.mu.Lock()
	defer lib.mu.Unlock()
	return lib.handles[handle]
}

// unregister removes a handle and returns its C pointer or nil.
func (lib *dlLibrary) unregister(handle Handle) unsafe.Pointer {
	lib.mu.Lock()
	defer lib.mu.Unlock()
	ptr := lib.handles[handle]
	delete(lib.handles, handle)
	return ptr
}

// TaskStart implements [API].
func (lib *dlLibrary) TaskStart(settings string) Handle {
	csettings := C.CString(settings)
	defer C.free(unsafe.Pointer(csettings))
	return lib.register(C.ooniqa_call_task_start(lib.taskStart, csettings))
}

// TaskIsDone implements [API].
func (lib *dlLibrary) TaskIsDone(task Handle) bool {
	ptr := lib.lookup(task)
	if ptr == nil {
		return true
	}
	return C.ooniqa_call_int(lib.taskIsDone, ptr) != 0
}

// TaskWaitForNextEvent implements [API].
func (lib *dlLibrary) TaskWaitForNextEvent(task Handle) Handle {
	ptr := lib.lookup(task)
	if ptr == nil {
		return 0
	}
	return lib.register(C.ooniqa_call_ptr(lib.taskWaitForNextEvent, ptr))
}

// TaskInterrupt implements [API].
func (lib *dlLibrary) TaskInterrupt(task Handle) {
	if ptr := lib.lookup(task); ptr != nil {
		C.ooniqa_call_void(lib.taskInterrupt, ptr)
	}
}

// TaskDestroy implements [API].
func (lib *dlLibrary) TaskDestroy(task Handle) {
	if ptr := lib.unregister(task); ptr != nil {
		C.ooniqa_call_void(lib.taskDestroy, ptr)
	}
}

// EventSerialization implements [API].
func (lib *dlLibrary) EventSerialization(event Handle) string {
	ptr := lib.lookup(event)
	if ptr == nil {
		return ""
	}
	return C.GoString(C.ooniqa_call_str(lib.eventSerialization, ptr))
}

// EventDestroy implements [API].
func (lib *dlLibrary) EventDestroy(event Handle) {
	if ptr := lib.unregister(event); ptr != nil {
		C.ooniqa_call_void(lib.eventDestroy, ptr)
	}
}
