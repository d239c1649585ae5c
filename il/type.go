// Package il defines the typed, in-memory intermediate representation
// that every Viper frontend lowers into and the verifier and VM consume:
// types, SSA values, instructions, basic blocks, functions, and modules.
package il

// Type is one of the IL's scalar type-lattice members.
type Type byte

const (
	Void Type = iota
	I1
	I16
	I32
	I64
	F64
	Ptr
	Str
	Error
	ResumeTok
)

var typeNames = map[Type]string{
	Void:      "void",
	I1:        "i1",
	I16:       "i16",
	I32:       "i32",
	I64:       "i64",
	F64:       "f64",
	Ptr:       "ptr",
	Str:       "str",
	Error:     "error",
	ResumeTok: "resume_tok",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsInteger reports whether t is one of the fixed-width integer types.
func (t Type) IsInteger() bool {
	switch t {
	case I1, I16, I32, I64:
		return true
	default:
		return false
	}
}

// ParseType maps an IL keyword spelling to its Type, per the textual
// grammar's `void|i1|i16|i32|i64|f64|ptr|str|error|resume_tok`.
func ParseType(s string) (Type, bool) {
	for t, name := range typeNames {
		if name == s {
			return t, true
		}
	}
	return Void, false
}
