package testharness

import (
	"bytes"
	"fmt"

	"github.com/splanck/viper-sub028/il"
	"github.com/splanck/viper-sub028/registry"
	"github.com/splanck/viper-sub028/runtime"
	"github.com/splanck/viper-sub028/vm"
)

// Harness wires a module, a core-function registry, and a captured
// stdout buffer together for a test, grounded on the teacher's
// in-process output-capture tests (compiler/compiler_test.go) rather
// than spawning a real child process: traps here are ordinary Go return
// values, not OS-level crashes, so capturing the io.Writer the core
// externs already take is sufficient isolation.
type Harness struct {
	Module  *il.Module
	Externs *registry.Table
	Out     *bytes.Buffer
}

// New builds a Harness around mod, registering the runtime's core
// functions (rt_print_str, rt_str_concat, ...) against a captured
// buffer so tests can assert on emitted output.
func New(mod *il.Module) *Harness {
	var buf bytes.Buffer
	tbl := registry.NewTable()
	for _, ext := range runtime.GetCoreFunctions(&buf) {
		if err := tbl.Register(ext); err != nil {
			panic(err)
		}
	}
	return &Harness{Module: mod, Externs: tbl, Out: &buf}
}

// Run executes fn with the given dispatch strategy and no step cap.
func (h *Harness) Run(fn *il.Function, strategy vm.Strategy, args ...vm.Slot) (vm.RunResult, error) {
	m := vm.NewMachine(h.Module, h.Externs)
	m.Strategy = strategy
	return m.Run(fn, args)
}

// RunFunc resolves fn by name before running it.
func (h *Harness) RunFunc(name string, strategy vm.Strategy, args ...vm.Slot) (vm.RunResult, error) {
	fn, ok := h.Module.FindFunction(name)
	if !ok {
		return vm.RunResult{}, fmt.Errorf("testharness: no function %q in module", name)
	}
	return h.Run(fn, strategy, args...)
}

// RunAllStrategies runs fn once under each of the three dispatch
// backends and returns the per-strategy results in Strategy's
// declaration order (switch, table, threaded), so a test can assert
// the strategies agree without repeating itself three times.
func (h *Harness) RunAllStrategies(name string, args ...vm.Slot) ([]vm.RunResult, error) {
	strategies := []vm.Strategy{vm.StrategySwitch, vm.StrategyTable, vm.StrategyThreaded}
	results := make([]vm.RunResult, len(strategies))
	for i, s := range strategies {
		r, err := h.RunFunc(name, s, args...)
		if err != nil {
			return nil, err
		}
		results[i] = r
	}
	return results, nil
}
