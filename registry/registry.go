// Package registry holds the static extern-registration table the VM
// consults to resolve call targets by symbol name. It mirrors the
// teacher's registry.Registry (GetXFunctions()-populated, name-keyed map
// guarded for concurrent registration at process start) narrowed to the
// shape the IL's call convention actually needs.
package registry

import (
	"fmt"
	"sync"

	"github.com/splanck/viper-sub028/il"
)

// HelperFunc is a registered extern's native implementation. Operands
// and the return value are marshaled per the VM's C-ABI convention;
// args[i] corresponds to ParamTypes[i] in the owning Extern record.
type HelperFunc func(args []Value) (Value, error)

// Value is the marshaled form of an IL scalar crossing the VM/runtime
// boundary: at most one of the fields is meaningful, selected by Type.
type Value struct {
	Type Type
	I64  int64
	F64  float64
	Str  string // Str values cross as their decoded bytes at this boundary
	Ptr  uintptr
}

// Type re-exports il.Type so callers outside il need not import it just
// to build a Value.
type Type = il.Type

// Extern is the static record the VM's call opcode resolves by symbol
// name: { symbol_name, function_pointer, parameter_types[], return_type }.
type Extern struct {
	Name       string
	Fn         HelperFunc
	ParamTypes []Type
	ReturnType Type
}

// Table is the process-wide symbol->Extern map externs are looked up in.
// Mutations are expected only at process start (registration time); the
// mutex exists for the same reason the teacher's registry.go guards its
// builtin map, not because the VM mutates it mid-run.
type Table struct {
	mu      sync.RWMutex
	externs map[string]Extern
}

// NewTable returns an empty registration table.
func NewTable() *Table {
	return &Table{externs: make(map[string]Extern)}
}

// Register adds ext, rejecting a duplicate symbol name.
func (t *Table) Register(ext Extern) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, dup := t.externs[ext.Name]; dup {
		return fmt.Errorf("registry: symbol %q already registered", ext.Name)
	}
	t.externs[ext.Name] = ext
	return nil
}

// Lookup resolves a symbol name to its Extern record.
func (t *Table) Lookup(name string) (Extern, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ext, ok := t.externs[name]
	return ext, ok
}

// Len reports how many externs are registered.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.externs)
}
