package il

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueKind tags the payload carried by a Value operand.
type ValueKind byte

const (
	ValTemp ValueKind = iota
	ValConstInt
	ValConstFloat
	ValConstStr
	ValGlobalAddr
	ValNullPtr
)

// TempID names an SSA temp, dense within its owning function.
type TempID uint32

// Value is an IL operand: a reference to a previously defined temp, an
// immediate constant, a global's address, or a typed null pointer. It
// mirrors the teacher's tagged-union Value{Type, Data} pattern but carries
// the handful of payload shapes an IL operand actually needs instead of a
// general dynamic value.
type Value struct {
	Kind Type
	kind ValueKind

	Temp       TempID
	IntConst   int64
	FloatConst float64
	StrConst   string
	Global     string
}

// TempValue constructs an operand referencing a previously defined SSA temp.
func TempValue(id TempID, t Type) Value {
	return Value{Kind: t, kind: ValTemp, Temp: id}
}

// ConstInt constructs an integer immediate of the given width.
func ConstInt(v int64, t Type) Value {
	return Value{Kind: t, kind: ValConstInt, IntConst: v}
}

// ConstFloat constructs an f64 immediate.
func ConstFloat(v float64) Value {
	return Value{Kind: F64, kind: ValConstFloat, FloatConst: v}
}

// ConstStr constructs a Str operand naming a string global by symbol.
func ConstStr(global string) Value {
	return Value{Kind: Str, kind: ValConstStr, Global: global}
}

// GlobalAddr constructs a Ptr operand naming a global's address.
func GlobalAddr(global string) Value {
	return Value{Kind: Ptr, kind: ValGlobalAddr, Global: global}
}

// NullPtr constructs a typed null pointer constant.
func NullPtr(t Type) Value {
	return Value{Kind: t, kind: ValNullPtr}
}

func (v Value) IsTemp() bool   { return v.kind == ValTemp }
func (v Value) IsConst() bool  { return v.kind == ValConstInt || v.kind == ValConstFloat || v.kind == ValConstStr }
func (v Value) IsGlobal() bool { return v.kind == ValGlobalAddr }
func (v Value) IsNull() bool   { return v.kind == ValNullPtr }

func (v Value) String() string {
	switch v.kind {
	case ValTemp:
		return fmt.Sprintf("%%t%d", v.Temp)
	case ValConstInt:
		return fmt.Sprintf("%d", v.IntConst)
	case ValConstFloat:
		s := strconv.FormatFloat(v.FloatConst, 'f', -1, 64)
		if !strings.ContainsAny(s, ".NI") {
			s += ".0"
		}
		return s
	case ValConstStr:
		return fmt.Sprintf("@%s", v.Global)
	case ValGlobalAddr:
		return fmt.Sprintf("@%s", v.Global)
	case ValNullPtr:
		return "null"
	default:
		return "UNKNOWN"
	}
}
