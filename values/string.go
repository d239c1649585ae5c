// Package values implements the runtime's reference-counted heap model:
// immutable strings with literal/small/heap storage disciplines, a
// string builder, object headers with finalizers, and a bounded heap
// registry. It mirrors the teacher's values.Value tagged-union shape
// (Kind + payload) but layers an explicit refcount/finalizer contract
// on top, since that lifecycle is the runtime helpers' observable
// contract rather than an implementation detail the Go GC can hide.
package values

import "sync/atomic"

// StringDiscipline tags how a String's bytes are owned.
type StringDiscipline byte

const (
	// Literal strings are borrowed from a static blob; ref/release are
	// no-ops and the bytes are never freed.
	Literal StringDiscipline = iota
	// Small strings are stored inline in the handle, up to smallCap bytes.
	Small
	// Heap strings own a heap allocation with a refcount.
	Heap
)

const smallCap = 23 // keeps String at a modest fixed size alongside its tag/len fields

// String is a pointer-width-ish immutable string handle. Mutators never
// modify bytes in place; they return a new handle. Equality compares
// bytes, not handles.
type String struct {
	discipline StringDiscipline
	length     int
	inline     [smallCap]byte
	heap       *heapString
}

type heapString struct {
	bytes    []byte
	refcount int32
}

// NewStringFromBytes chooses Small when b fits inline, else Heap, per
// rt_string_from_bytes.
func NewStringFromBytes(b []byte) String {
	if len(b) <= smallCap {
		var s String
		s.discipline = Small
		s.length = len(b)
		copy(s.inline[:], b)
		return s
	}
	buf := make([]byte, len(b))
	copy(buf, b)
	return String{
		discipline: Heap,
		length:     len(b),
		heap:       &heapString{bytes: buf, refcount: 1},
	}
}

// LiteralString wraps a statically-owned byte slice without copying.
// Callers must guarantee b outlives every handle derived from it.
func LiteralString(b []byte) String {
	return String{discipline: Literal, length: len(b), heap: &heapString{bytes: b}}
}

// Len returns the string's byte length.
func (s String) Len() int { return s.length }

// Bytes returns a read-only view of the string's bytes.
func (s String) Bytes() []byte {
	switch s.discipline {
	case Small:
		return s.inline[:s.length]
	default:
		if s.heap == nil {
			return nil
		}
		return s.heap.bytes
	}
}

// Ref increments the refcount. Literal and Small strings ignore it.
func (s String) Ref() String {
	if s.discipline == Heap && s.heap != nil {
		atomic.AddInt32(&s.heap.refcount, 1)
	}
	return s
}

// Release decrements the refcount, invoking fn (if non-nil) exactly once
// when it reaches zero. Literal and Small strings ignore it.
func (s String) Release(fn func()) {
	if s.discipline != Heap || s.heap == nil {
		return
	}
	if atomic.AddInt32(&s.heap.refcount, -1) == 0 && fn != nil {
		fn()
	}
}

// Equal compares bytes, not storage discipline or handle identity.
func (s String) Equal(other String) bool {
	a, b := s.Bytes(), other.Bytes()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (s String) String() string { return string(s.Bytes()) }
