package debug

import (
	"fmt"
	"io"

	"github.com/splanck/viper-sub028/il"
	"github.com/splanck/viper-sub028/support"
	"github.com/splanck/viper-sub028/vm"
)

// Controller is the VM's full debugger: trace sink, label and
// source-line breakpoints, variable and memory watches, and a scripted
// step/continue automation, implementing vm.Hooks. Per §9's Open
// Question, this is the one DebugCtrl the core ships — no degenerate
// label-only variant.
type Controller struct {
	Trace *TraceSink

	Labels  *LabelBreakpoints
	Sources *SourceBreakpoints
	Vars    *VarWatchSet
	Mem     *MemWatchSet

	script *ScriptQueue
	// Interact, when set, is consulted for the next action once the
	// script is exhausted (e.g. an interactive readline prompt). Absent
	// a script and an Interact hook, a hit just continues.
	Interact func(reason string) ScriptAction

	stepping  bool
	remaining int
}

// NewController builds a Controller with every sub-facility wired to sm
// and writing watch/trace output to out.
func NewController(sm *support.SourceManager, trace *TraceSink, out io.Writer) *Controller {
	return &Controller{
		Trace:   trace,
		Labels:  NewLabelBreakpoints(),
		Sources: NewSourceBreakpoints(sm),
		Vars:    NewVarWatchSet(out),
		Mem:     NewMemWatchSet(),
	}
}

// SetScript installs a scripted action queue (from --debug-cmds).
func (c *Controller) SetScript(actions []ScriptAction) {
	c.script = NewScriptQueue(actions)
}

var _ vm.Hooks = (*Controller)(nil)

// OnBlockEnter resets per-line breakpoint coalescing and the trace
// sink's line cache, then checks the block's label against the
// registered label breakpoints.
func (c *Controller) OnBlockEnter(fn *il.Function, block *il.BasicBlock) bool {
	c.Sources.ResetLastHit()
	c.Trace.ResetLine()
	if c.Labels.Hit(block.Label) {
		c.onHit(fmt.Sprintf("label %s", block.Label))
		return true
	}
	return false
}

// OnBeforeInstr traces the instruction, drives the stepping countdown,
// and checks source-line breakpoints.
func (c *Controller) OnBeforeInstr(fn *il.Function, block *il.BasicBlock, ip int, in *il.Instr) {
	c.Trace.EmitInstr(fn, block, ip, in)

	if c.stepping {
		c.remaining--
		if c.remaining <= 0 {
			c.stepping = false
		}
		c.onHit(fmt.Sprintf("step %s:%s#%d", fn.Name, block.Label, ip))
		return
	}

	if in.Line > 0 && c.Sources.Hit(c.sourceFile(fn), in.Line) {
		c.onHit(fmt.Sprintf("line %d", in.Line))
	}
}

// OnStore reports a value-changed watch, translating the VM's Slot into
// the package-local WatchValue so this package need not re-export vm's
// internal tag.
func (c *Controller) OnStore(fn *il.Function, block *il.BasicBlock, ip int, ptrTemp il.TempID, hasPtrTemp bool, value vm.Slot) {
	c.Vars.OnStore(fn.Name, block.Label, ip, ptrTemp, hasPtrTemp, slotToWatchValue(value))
}

// OnMemWrite tests the written range against every registered memory
// watch, enqueuing hits for later draining.
func (c *Controller) OnMemWrite(fn *il.Function, block *il.BasicBlock, ip int, addr uintptr, size int) {
	c.Mem.OnMemWrite(addr, size)
}

// onHit pops the next script action (or consults Interact) and updates
// the stepping countdown accordingly.
func (c *Controller) onHit(reason string) {
	var action ScriptAction
	if a, ok := c.script.Next(); ok {
		action = a
	} else if c.Interact != nil {
		action = c.Interact(reason)
	} else {
		return
	}
	switch action.Kind {
	case ActionStep:
		c.stepping = true
		c.remaining = action.N
		if c.remaining <= 0 {
			c.remaining = 1
		}
	case ActionContinue:
		c.stepping = false
	}
}

func (c *Controller) sourceFile(fn *il.Function) string {
	if c.Trace != nil {
		return c.Trace.Source
	}
	return ""
}

func slotToWatchValue(s vm.Slot) WatchValue {
	return WatchValue{Kind: s.Kind, I64: s.I64, F64: s.F64, Str: s.Str}
}
