package values

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// ClassID identifies an object's class/vtable for the runtime's purposes;
// the core treats the layout beyond the header as opaque.
type ClassID uint32

// Finalizer runs exactly once when an Object's refcount reaches zero.
type Finalizer func(*Object)

// Object is a heap allocation's header: class id, reference count, and
// an optional finalizer slot, plus an opaque payload the class defines.
// Sixteen bytes minimum is achieved structurally by ClassID+refcount+a
// pointer-sized Finalizer/Payload; the core never interprets Payload.
type Object struct {
	Class     ClassID
	refcount  int32
	finalizer Finalizer
	Payload   []byte
}

// NewObject returns a zero-initialized object of the given class and
// payload size with refcount 1, per rt_obj_new_i64.
func NewObject(class ClassID, payloadSize int) *Object {
	return &Object{Class: class, refcount: 1, Payload: make([]byte, payloadSize)}
}

// SetFinalizer installs fn, per rt_obj_set_finalizer. Only one finalizer
// is retained; a later call replaces the earlier one.
func (o *Object) SetFinalizer(fn Finalizer) {
	o.finalizer = fn
}

// Ref increments the refcount.
func (o *Object) Ref() {
	atomic.AddInt32(&o.refcount, 1)
}

// Release decrements the refcount, invoking the finalizer exactly once
// when it reaches zero.
func (o *Object) Release() {
	if atomic.AddInt32(&o.refcount, -1) == 0 && o.finalizer != nil {
		fn := o.finalizer
		o.finalizer = nil
		fn(o)
	}
}

// RefCount returns the current reference count.
func (o *Object) RefCount() int32 {
	return atomic.LoadInt32(&o.refcount)
}

// ReleaseCheck0 asserts the caller holds the last reference before
// releasing, per rt_obj_release_check0. It returns an error instead of
// corrupting state if another reference is still outstanding.
func (o *Object) ReleaseCheck0() error {
	if o.RefCount() != 1 {
		return fmt.Errorf("rt_obj_release_check0: refcount is %d, want 1", o.RefCount())
	}
	o.Release()
	return nil
}

// HeapRegistry is a bounded, mutex-serialized table mapping live objects
// to registry-local metadata, used by memory watches and a cycle-aware
// reclamation pass. Growth past Capacity fails the registration instead
// of corrupting state, per the support layer's no-silent-truncation rule.
type HeapRegistry struct {
	mu       sync.Mutex
	capacity int
	entries  map[*Object]struct{}
}

// NewHeapRegistry returns an empty registry bounded to capacity live
// objects.
func NewHeapRegistry(capacity int) *HeapRegistry {
	return &HeapRegistry{capacity: capacity, entries: make(map[*Object]struct{})}
}

// Register records obj as live. It returns an error if the registry is
// at capacity.
func (r *HeapRegistry) Register(obj *Object) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) >= r.capacity {
		return fmt.Errorf("heap registry: capacity %d exhausted", r.capacity)
	}
	r.entries[obj] = struct{}{}
	return nil
}

// Unregister removes obj, e.g. once its finalizer has run.
func (r *HeapRegistry) Unregister(obj *Object) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, obj)
}

// Len reports the number of live registered objects.
func (r *HeapRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Live returns a snapshot of every currently registered object, used by
// the cycle collector and by memory-watch enumeration.
func (r *HeapRegistry) Live() []*Object {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Object, 0, len(r.entries))
	for o := range r.entries {
		out = append(out, o)
	}
	return out
}
