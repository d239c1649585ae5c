// Package testharness gives package tests a deterministic way to
// synthesize tiny IL modules in Go (rather than round-tripping through
// ilio's text parser) and to run them through the VM with captured
// output, grounded on the teacher's fluent test-suite builders
// (parser/testutils/builders.go) and its os.Pipe-based stdout capture
// (compiler/compiler_test.go).
package testharness

import "github.com/splanck/viper-sub028/il"

// ModuleBuilder incrementally assembles an il.Module.
type ModuleBuilder struct {
	mod *il.Module
}

// NewModule starts an empty module.
func NewModule() *ModuleBuilder {
	return &ModuleBuilder{mod: il.NewModule()}
}

// Extern declares a native helper the module's functions may call.
func (mb *ModuleBuilder) Extern(name string, params []il.Type, ret il.Type) *ModuleBuilder {
	mb.mod.Externs = append(mb.mod.Externs, il.Extern{Name: name, ParamTypes: params, ReturnType: ret})
	return mb
}

// Global declares a module-level value, with init as the byte
// initializer for Str-typed globals.
func (mb *ModuleBuilder) Global(name string, typ il.Type, init string, isConst bool) *ModuleBuilder {
	mb.mod.Globals = append(mb.mod.Globals, il.Global{Name: name, Type: typ, Const: isConst, Init: init})
	return mb
}

// Func starts a new function builder. Call Done on the returned
// FuncBuilder to append the finished function and resume chaining.
func (mb *ModuleBuilder) Func(name string, ret il.Type) *FuncBuilder {
	return &FuncBuilder{mb: mb, fn: &il.Function{Name: name, ReturnType: ret}}
}

// Build finalizes the module.
func (mb *ModuleBuilder) Build() *il.Module {
	return mb.mod
}

// FuncBuilder assembles one il.Function, allocating dense temp ids
// across the whole function body (params, block params, and
// instruction results share one counter), matching the parser's
// per-function temp-id scope.
type FuncBuilder struct {
	mb       *ModuleBuilder
	fn       *il.Function
	nextTemp il.TempID
}

func (fb *FuncBuilder) alloc() il.TempID {
	id := fb.nextTemp
	fb.nextTemp++
	return id
}

// Param adds a function parameter, returning a Value referencing it.
func (fb *FuncBuilder) Param(t il.Type) il.Value {
	id := fb.alloc()
	fb.fn.Params = append(fb.fn.Params, il.Param{Temp: id, Type: t})
	return il.TempValue(id, t)
}

// Block starts a new basic block; the first Block call becomes the
// function's entry per il.Function.Entry.
func (fb *FuncBuilder) Block(label string) *BlockBuilder {
	b := &il.BasicBlock{Label: label}
	fb.fn.Blocks = append(fb.fn.Blocks, b)
	return &BlockBuilder{fb: fb, blk: b}
}

// Done appends the function to the owning module and resumes chaining.
func (fb *FuncBuilder) Done() *ModuleBuilder {
	fb.mb.mod.Functions = append(fb.mb.mod.Functions, fb.fn)
	return fb.mb
}

// BlockBuilder assembles one il.BasicBlock's parameters and instructions.
type BlockBuilder struct {
	fb  *FuncBuilder
	blk *il.BasicBlock
}

// Param adds a typed block parameter (for handler blocks' (error,
// resume_tok) pair, or ordinary loop-carried values), returning a Value
// referencing it.
func (bb *BlockBuilder) Param(t il.Type) il.Value {
	id := bb.fb.alloc()
	bb.blk.Params = append(bb.blk.Params, il.Param{Temp: id, Type: t})
	return il.TempValue(id, t)
}

// emit appends an instruction, allocating a result temp of type
// resultTy when hasResult is true, and returns the Value referencing it (the zero Value
// when the instruction has no result).
func (bb *BlockBuilder) emit(op il.Opcode, resultTy il.Type, hasResult bool, operands ...il.Value) il.Value {
	in := il.Instr{Op: op, Operands: operands}
	var result il.Value
	if hasResult {
		id := bb.fb.alloc()
		in.HasResult = true
		in.Result = id
		in.ResultTy = resultTy
		result = il.TempValue(id, resultTy)
	}
	bb.blk.Instrs = append(bb.blk.Instrs, in)
	return result
}

func (bb *BlockBuilder) IAdd(a, b il.Value) il.Value    { return bb.emit(il.OpIAdd, il.I64, true, a, b) }
func (bb *BlockBuilder) ISub(a, b il.Value) il.Value    { return bb.emit(il.OpISub, il.I64, true, a, b) }
func (bb *BlockBuilder) IMul(a, b il.Value) il.Value    { return bb.emit(il.OpIMul, il.I64, true, a, b) }
func (bb *BlockBuilder) SDiv(a, b il.Value) il.Value    { return bb.emit(il.OpSDiv, il.I64, true, a, b) }
func (bb *BlockBuilder) SDivChk0(a, b il.Value) il.Value {
	return bb.emit(il.OpSDivChk0, il.I64, true, a, b)
}
func (bb *BlockBuilder) SDivChkOvf(a, b il.Value) il.Value {
	return bb.emit(il.OpSDivChkOvf, il.I64, true, a, b)
}
func (bb *BlockBuilder) IMulChkOvf(a, b il.Value) il.Value {
	return bb.emit(il.OpIMulChkOvf, il.I64, true, a, b)
}
func (bb *BlockBuilder) ICmpSlt(a, b il.Value) il.Value {
	return bb.emit(il.OpICmpSlt, il.I1, true, a, b)
}
func (bb *BlockBuilder) ICmpEq(a, b il.Value) il.Value {
	return bb.emit(il.OpICmpEq, il.I1, true, a, b)
}

// Call emits a direct call by symbol. resultTy/hasResult describe the
// callee's return; pass il.Void/false for a void callee.
func (bb *BlockBuilder) Call(callee string, resultTy il.Type, hasResult bool, args ...il.Value) il.Value {
	in := il.Instr{Op: il.OpCall, Callee: callee, Operands: args}
	var result il.Value
	if hasResult {
		id := bb.fb.alloc()
		in.HasResult = true
		in.Result = id
		in.ResultTy = resultTy
		result = il.TempValue(id, resultTy)
	}
	bb.blk.Instrs = append(bb.blk.Instrs, in)
	return result
}

// Ret emits a return; pass no value for a void function.
func (bb *BlockBuilder) Ret(v ...il.Value) {
	in := il.Instr{Op: il.OpRet}
	if len(v) > 0 {
		in.Operands = []il.Value{v[0]}
	}
	bb.blk.Instrs = append(bb.blk.Instrs, in)
}

// Trap emits an unconditional trap terminator.
func (bb *BlockBuilder) Trap() {
	bb.blk.Instrs = append(bb.blk.Instrs, il.Instr{Op: il.OpTrap})
}

// Br emits an unconditional branch with block arguments.
func (bb *BlockBuilder) Br(label string, args ...il.Value) {
	bb.blk.Instrs = append(bb.blk.Instrs, il.Instr{
		Op:            il.OpBr,
		Successors:    []string{label},
		SuccessorArgs: [][]il.Value{args},
	})
}

// CondBr emits a conditional branch to trueLabel/falseLabel.
func (bb *BlockBuilder) CondBr(cond il.Value, trueLabel string, trueArgs []il.Value, falseLabel string, falseArgs []il.Value) {
	bb.blk.Instrs = append(bb.blk.Instrs, il.Instr{
		Op:            il.OpCondBr,
		Operands:      []il.Value{cond},
		Successors:    []string{trueLabel, falseLabel},
		SuccessorArgs: [][]il.Value{trueArgs, falseArgs},
	})
}

// EhPush registers handlerLabel as the active EH handler for the
// remainder of this dynamic scope.
func (bb *BlockBuilder) EhPush(handlerLabel string) {
	bb.blk.Instrs = append(bb.blk.Instrs, il.Instr{Op: il.OpEhPush, HandlerLabel: handlerLabel})
}

// EhPop removes the innermost active EH handler.
func (bb *BlockBuilder) EhPop() {
	bb.blk.Instrs = append(bb.blk.Instrs, il.Instr{Op: il.OpEhPop})
}

// EhEntry emits the informational marker legal only as a handler
// block's first instruction.
func (bb *BlockBuilder) EhEntry() {
	bb.blk.Instrs = append(bb.blk.Instrs, il.Instr{Op: il.OpEhEntry})
}

func (bb *BlockBuilder) ErrGetKind(e il.Value) il.Value {
	return bb.emit(il.OpErrGetKind, il.I64, true, e)
}
func (bb *BlockBuilder) ErrGetCode(e il.Value) il.Value {
	return bb.emit(il.OpErrGetCode, il.I64, true, e)
}
func (bb *BlockBuilder) ErrGetLine(e il.Value) il.Value {
	return bb.emit(il.OpErrGetLine, il.I64, true, e)
}

// ResumeSame re-executes the trapping instruction.
func (bb *BlockBuilder) ResumeSame(tok il.Value) {
	bb.blk.Instrs = append(bb.blk.Instrs, il.Instr{Op: il.OpResumeSame, Operands: []il.Value{tok}})
}

// ResumeNext continues just after the trapping instruction.
func (bb *BlockBuilder) ResumeNext(tok il.Value) {
	bb.blk.Instrs = append(bb.blk.Instrs, il.Instr{Op: il.OpResumeNext, Operands: []il.Value{tok}})
}

// ResumeLabel continues at label with the given block arguments.
func (bb *BlockBuilder) ResumeLabel(tok il.Value, label string, args ...il.Value) {
	bb.blk.Instrs = append(bb.blk.Instrs, il.Instr{
		Op:            il.OpResumeLabel,
		Operands:      []il.Value{tok},
		Successors:    []string{label},
		SuccessorArgs: [][]il.Value{args},
	})
}

// ConstNull materializes a typed null pointer, in the rare case a
// caller needs a named temp rather than embedding the literal directly.
func (bb *BlockBuilder) ConstNull(t il.Type) il.Value {
	return bb.emit(il.OpConstNull, t, true)
}
