// Package vm implements the bytecode interpreter: per-call Frames, the
// structured-EH stack, trap diagnostics, three interchangeable dispatch
// backends, and the Machine driver that ties them together. Grounded on
// the teacher's vm.CallStackManager/CallFrame (vm/call_stack.go) for the
// explicit, non-Go-native call stack shape, and vm.VirtualMachine
// (vm/vm.go, vm/instructions.go) for the decode/dispatch split.
package vm

import (
	"unsafe"

	"github.com/splanck/viper-sub028/il"
)

// MemRef is a VM-internal pointer: a byte-slice handle plus an offset.
// IL's Ptr type never exposes Go's unsafe.Pointer; gep/load/store operate
// on MemRef so alloca storage stays memory-safe and GC-visible.
type MemRef struct {
	Data   []byte
	Offset int
}

// Slot is a tagged union wide enough to hold any scalar IL value living
// in a Frame's temp array.
type Slot struct {
	Kind il.Type
	I64  int64
	F64  float64
	Ptr  *MemRef
	Str  string
	Err  ErrorValue
	Tok  ResumeToken
}

func i64Slot(v int64) Slot { return Slot{Kind: il.I64, I64: v} }

func i1Slot(v bool) Slot {
	b := int64(0)
	if v {
		b = 1
	}
	return Slot{Kind: il.I1, I64: b}
}

func f64Slot(v float64) Slot { return Slot{Kind: il.F64, F64: v} }
func strSlot(v string) Slot  { return Slot{Kind: il.Str, Str: v} }
func ptrSlot(p *MemRef) Slot { return Slot{Kind: il.Ptr, Ptr: p} }

// I64Slot, F64Slot, and StrSlot build Slots for callers outside this
// package (drivers, the test harness) that need to pass arguments into
// Machine.Run without reaching into Slot's fields by hand.
func I64Slot(v int64) Slot    { return i64Slot(v) }
func F64Slot(v float64) Slot  { return f64Slot(v) }
func StrSlot(v string) Slot   { return strSlot(v) }
func I1Slot(v bool) Slot      { return i1Slot(v) }

// Frame is one active call: the function, current block/instruction
// pointer, a dense temp-slot array, and a byte buffer backing `alloca`
// with a monotonic cursor reset when the frame is destroyed.
type Frame struct {
	Fn    *il.Function
	Block *il.BasicBlock
	IP    int

	Slots []Slot

	allocaBuf []byte
	allocaSP  int
}

const defaultAllocaSize = 4096

// NewFrame allocates a frame for fn with its temp slots sized to fit
// every temp the function (including its blocks) defines.
func NewFrame(fn *il.Function) *Frame {
	return &Frame{
		Fn:        fn,
		Slots:     make([]Slot, countTemps(fn)),
		allocaBuf: make([]byte, defaultAllocaSize),
	}
}

func countTemps(fn *il.Function) int {
	max := -1
	grow := func(id il.TempID) {
		if int(id) > max {
			max = int(id)
		}
	}
	for _, p := range fn.Params {
		grow(p.Temp)
	}
	for _, b := range fn.Blocks {
		for _, p := range b.Params {
			grow(p.Temp)
		}
		for _, in := range b.Instrs {
			if in.HasResult {
				grow(in.Result)
			}
		}
	}
	return max + 1
}

// Alloca carves out n zeroed bytes from the frame's backing buffer,
// advancing the monotonic cursor. Returns nil if the buffer is exhausted.
func (f *Frame) Alloca(n int64) *MemRef {
	if n < 0 {
		return nil
	}
	end := f.allocaSP + int(n)
	if end > len(f.allocaBuf) {
		return nil
	}
	ref := &MemRef{Data: f.allocaBuf[f.allocaSP:end], Offset: 0}
	f.allocaSP = end
	return ref
}

// Addr returns a stand-in for ref's native address: the underlying
// backing array's address plus its offset. It exists only so memory
// watches can compare byte ranges; the VM never dereferences it.
func Addr(ref *MemRef) uintptr {
	if ref == nil || len(ref.Data) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&ref.Data[0])) + uintptr(ref.Offset)
}
