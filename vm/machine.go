package vm

import (
	"fmt"

	"github.com/splanck/viper-sub028/il"
	"github.com/splanck/viper-sub028/registry"
	"github.com/splanck/viper-sub028/runtime"
)

// Hooks lets a debugger observe and steer execution without the VM
// importing the debug package (avoiding an import cycle: debug.Controller
// implements Hooks and is wired in by the driver).
type Hooks interface {
	// OnBlockEnter is called just before the first instruction of block
	// executes. Machine.Run does not act on the returned bool; any pause
	// happens inside the implementation.
	OnBlockEnter(fn *il.Function, block *il.BasicBlock) bool
	// OnBeforeInstr is called before every instruction.
	OnBeforeInstr(fn *il.Function, block *il.BasicBlock, ip int, in *il.Instr)
	// OnStore is called after a store instruction has written its value,
	// naming the temp holding the destination pointer (when the operand
	// is a temp rather than a global/null) so variable watches can key
	// off it without per-store string comparisons.
	OnStore(fn *il.Function, block *il.BasicBlock, ip int, ptrTemp il.TempID, hasPtrTemp bool, value Slot)
	// OnMemWrite is called after every store with the written byte range,
	// letting memory watches test intersection.
	OnMemWrite(fn *il.Function, block *il.BasicBlock, ip int, addr uintptr, size int)
}

// Machine is one run's execution context: the explicit call-stack,
// EH stack, and dispatch/trace state. One Machine exists per `run`/
// `bench` invocation, not process-global, per the teacher's
// ExecutionContext being narrowed to a per-call scope here.
type Machine struct {
	Module   *il.Module
	Externs  *registry.Table
	Strategy Strategy
	MaxSteps int64
	Hooks    Hooks

	frames          []*Frame
	ehStack         []ehFrame
	threadedCache   map[*il.BasicBlock][]handlerThunk
	stepCount       int64
	currentTrapKind runtime.TrapKind

	globalCache map[string]Slot
}

// NewMachine constructs a Machine ready to run functions in m against
// externs.
func NewMachine(m *il.Module, externs *registry.Table) *Machine {
	return &Machine{Module: m, Externs: externs, globalCache: make(map[string]Slot)}
}

// StepCount returns the number of instructions executed so far.
func (m *Machine) StepCount() int64 { return m.stepCount }

func (m *Machine) resolveGlobalOperand(v il.Value) Slot {
	if s, ok := m.globalCache[v.Global]; ok {
		return s
	}
	g, ok := m.Module.FindGlobal(v.Global)
	if !ok {
		return Slot{}
	}
	var s Slot
	if g.Type == il.Str {
		s = strSlot(g.Init)
	} else {
		buf := []byte(g.Init)
		s = ptrSlot(&MemRef{Data: buf, Offset: 0})
	}
	m.globalCache[v.Global] = s
	return s
}

// RunResult is the outcome of a completed top-level Run call.
type RunResult struct {
	Value Slot
	Trap  *Trap
}

// Run executes fn to completion (or to an unhandled trap, or to the step
// cap) with args bound to its parameters.
func (m *Machine) Run(fn *il.Function, args []Slot) (RunResult, error) {
	frame := NewFrame(fn)
	for i, p := range fn.Params {
		if i < len(args) {
			frame.Slots[p.Temp] = args[i]
		}
	}
	frame.Block = fn.Entry()
	m.frames = []*Frame{frame}
	m.ehStack = nil

	for {
		if len(m.frames) == 0 {
			return RunResult{}, fmt.Errorf("vm: ran out of frames without a return")
		}
		cur := m.frames[len(m.frames)-1]

		if cur.IP == 0 && m.Hooks != nil {
			m.Hooks.OnBlockEnter(cur.Fn, cur.Block)
		}
		if cur.IP >= len(cur.Block.Instrs) {
			trap := m.raiseTrap(cur, runtime.TrapRuntimeError, 0, "")
			if trap != nil {
				return RunResult{Trap: trap}, nil
			}
			continue
		}

		m.stepCount++
		if m.MaxSteps > 0 && m.stepCount > m.MaxSteps {
			trap := &Trap{FuncName: cur.Fn.Name, InstrIndex: cur.IP, Line: cur.Block.Instrs[cur.IP].Line, Kind: runtime.TrapRuntimeError, Code: 0, BlockLabel: cur.Block.Label}
			return RunResult{Trap: trap}, nil
		}

		in := &cur.Block.Instrs[cur.IP]
		if m.Hooks != nil {
			m.Hooks.OnBeforeInstr(cur.Fn, cur.Block, cur.IP, in)
		}

		res := m.dispatchOne(cur)
		switch res.out {
		case outNormal:
			if res.hasResultVal && in.HasResult {
				cur.Slots[in.Result] = res.resultVal
			}
			cur.IP++

		case outBranch:
			target, ok := cur.Fn.Block(res.branchLabel)
			if !ok {
				return RunResult{}, fmt.Errorf("vm: branch to undefined block %q", res.branchLabel)
			}
			for i, p := range target.Params {
				if i < len(res.branchArgs) {
					cur.Slots[p.Temp] = res.branchArgs[i]
				}
			}
			cur.Block = target
			cur.IP = 0

		case outCall:
			if rr, handled, err := m.performCall(cur, in, res.call); err != nil {
				return RunResult{}, err
			} else if handled {
				if trapDone, isTrap := rr.(*Trap); isTrap {
					return RunResult{Trap: trapDone}, nil
				}
			}

		case outReturn:
			m.frames = m.frames[:len(m.frames)-1]
			if len(m.frames) == 0 {
				return RunResult{Value: res.retVal}, nil
			}
			caller := m.frames[len(m.frames)-1]
			if callIn := &caller.Block.Instrs[caller.IP]; callIn.HasResult {
				caller.Slots[callIn.Result] = res.retVal
			}
			caller.IP++

		case outTrap:
			trap := m.raiseTrap(cur, res.trapKind, res.trapCode, res.trapMsg)
			if trap != nil {
				return RunResult{Trap: trap}, nil
			}

		case outEhPush:
			target, ok := cur.Fn.Block(res.handlerLabel)
			if !ok {
				return RunResult{}, fmt.Errorf("vm: eh.push targets undefined block %q", res.handlerLabel)
			}
			_ = target
			m.ehStack = append(m.ehStack, ehFrame{
				HandlerLabel: res.handlerLabel,
				CallDepth:    len(m.frames),
				IP:           cur.IP,
				FrameIndex:   len(m.frames) - 1,
			})
			cur.IP++

		case outEhPop:
			if len(m.ehStack) > 0 {
				m.ehStack = m.ehStack[:len(m.ehStack)-1]
			}
			cur.IP++

		case outResume:
			m.applyResume(cur, res.resume)
		}
	}
}

// performCall resolves and invokes a call instruction's target (intra-
// module or extern), pushing a new frame for intra-module calls.
func (m *Machine) performCall(cur *Frame, in *il.Instr, plan callPlan) (any, bool, error) {
	if callee, ok := m.Module.FindFunction(plan.extern); ok {
		frame := NewFrame(callee)
		for i, p := range callee.Params {
			if i < len(plan.args) {
				frame.Slots[p.Temp] = plan.args[i]
			}
		}
		frame.Block = callee.Entry()
		m.frames = append(m.frames, frame)
		return nil, false, nil
	}

	if m.Externs == nil {
		trap := m.raiseTrap(cur, runtime.TrapInvalidOperation, 0, "")
		return trap, trap != nil, nil
	}
	ext, ok := m.Externs.Lookup(plan.extern)
	if !ok {
		trap := m.raiseTrap(cur, runtime.TrapInvalidOperation, 0, "")
		return trap, trap != nil, nil
	}

	args := make([]registry.Value, len(plan.args))
	for i, s := range plan.args {
		args[i] = slotToRegistryValue(s)
	}
	out, err := ext.Fn(args)
	if err != nil {
		trap := m.raiseTrap(cur, runtime.TrapInvalidOperation, 0, err.Error())
		return trap, trap != nil, nil
	}
	if in.HasResult {
		cur.Slots[in.Result] = registryValueToSlot(out)
	}
	cur.IP++
	return nil, false, nil
}

func slotToRegistryValue(s Slot) registry.Value {
	switch s.Kind {
	case il.F64:
		return registry.Value{Type: il.F64, F64: s.F64}
	case il.Str:
		return registry.Value{Type: il.Str, Str: s.Str}
	case il.Ptr:
		return registry.Value{Type: il.Ptr}
	default:
		return registry.Value{Type: s.Kind, I64: s.I64}
	}
}

func registryValueToSlot(v registry.Value) Slot {
	switch v.Type {
	case il.F64:
		return f64Slot(v.F64)
	case il.Str:
		return strSlot(v.Str)
	case il.Ptr:
		return ptrSlot(nil)
	default:
		return Slot{Kind: v.Type, I64: v.I64}
	}
}

// raiseTrap searches the EH stack top-down for a handler whose call
// depth is <= the current depth. On a match it unwinds call frames,
// builds the (error, resume_tok) pair, and jumps to the handler block,
// returning nil. On no match it returns the unhandled Trap.
func (m *Machine) raiseTrap(cur *Frame, kind runtime.TrapKind, code int64, msg string) *Trap {
	m.currentTrapKind = kind
	depth := len(m.frames)
	for i := len(m.ehStack) - 1; i >= 0; i-- {
		eh := m.ehStack[i]
		if eh.CallDepth > depth {
			continue
		}
		m.frames = m.frames[:eh.FrameIndex+1]
		handlerFrame := m.frames[len(m.frames)-1]
		handler, ok := handlerFrame.Fn.Block(eh.HandlerLabel)
		if !ok {
			continue
		}
		m.ehStack = m.ehStack[:i]

		errVal := ErrorValue{Kind: kind, Code: code, IP: cur.IP, Line: cur.Block.Instrs[minInt(cur.IP, len(cur.Block.Instrs)-1)].Line, Message: msg}
		tok := ResumeToken{TrapFrameIndex: len(m.frames) - 1, TrapBlock: cur.Block.Label, TrapIP: cur.IP, EHDepthAtPush: i}

		if len(handler.Params) >= 1 {
			handlerFrame.Slots[handler.Params[0].Temp] = Slot{Kind: il.Error, Err: errVal}
		}
		if len(handler.Params) >= 2 {
			handlerFrame.Slots[handler.Params[1].Temp] = Slot{Kind: il.ResumeTok, Tok: tok}
		}
		handlerFrame.Block = handler
		handlerFrame.IP = 0
		return nil
	}

	instrIdx := cur.IP
	line := 0
	if instrIdx >= 0 && instrIdx < len(cur.Block.Instrs) {
		line = cur.Block.Instrs[instrIdx].Line
	}
	return &Trap{FuncName: cur.Fn.Name, InstrIndex: instrIdx, Line: line, Kind: kind, Code: code, BlockLabel: cur.Block.Label, Message: msg}
}

func (m *Machine) applyResume(cur *Frame, r resumePlan) {
	switch r.kind {
	case resumeSame:
		if r.tok.TrapFrameIndex == len(m.frames)-1 {
			if blk, ok := cur.Fn.Block(r.tok.TrapBlock); ok {
				cur.Block = blk
			}
			cur.IP = r.tok.TrapIP
			return
		}
		cur.IP++
	case resumeNext:
		if r.tok.TrapFrameIndex == len(m.frames)-1 {
			if blk, ok := cur.Fn.Block(r.tok.TrapBlock); ok {
				cur.Block = blk
			}
			cur.IP = r.tok.TrapIP + 1
			return
		}
		cur.IP++
	case resumeLabel:
		target, ok := cur.Fn.Block(r.label)
		if !ok {
			cur.IP++
			return
		}
		for i, p := range target.Params {
			if i < len(r.args) {
				cur.Slots[p.Temp] = r.args[i]
			}
		}
		cur.Block = target
		cur.IP = 0
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
