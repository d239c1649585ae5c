// Package verify implements the IL verifier: a three-sweep pass over each
// function that rejects modules violating the IL's structural and typing
// invariants before the VM ever sees them.
package verify

import (
	"github.com/splanck/viper-sub028/il"
	"github.com/splanck/viper-sub028/support"
)

// Module verifies every function in m and returns the accumulated
// diagnostics. It never mutates m.
func Module(m *il.Module) support.Expected[struct{}] {
	var diags []support.Diag
	for _, fn := range m.Functions {
		diags = append(diags, verifyFunction(m, fn)...)
	}
	if len(diags) > 0 {
		return support.Err[struct{}](diags...)
	}
	return support.Ok(struct{}{})
}

type blockInfo struct {
	block      *il.BasicBlock
	paramTypes []il.Type
}

func verifyFunction(m *il.Module, fn *il.Function) []support.Diag {
	var diags []support.Diag
	loc := func(line int) support.Location { return support.Location{Path: fn.Name, Line: line} }

	// --- Catalog sweep ---
	blocks := make(map[string]blockInfo, len(fn.Blocks))
	tempTypes := make(map[il.TempID]il.Type)
	for _, p := range fn.Params {
		tempTypes[p.Temp] = p.Type
	}
	for _, b := range fn.Blocks {
		if _, dup := blocks[b.Label]; dup {
			diags = append(diags, support.Errorf(loc(0), "duplicate block label %q in function %s", b.Label, fn.Name))
			continue
		}
		blocks[b.Label] = blockInfo{block: b, paramTypes: b.ParamTypes()}
		for _, p := range b.Params {
			tempTypes[p.Temp] = p.Type
		}
	}

	// --- Instruction sweep ---
	definedTemps := make(map[il.TempID]bool)
	for _, b := range fn.Blocks {
		if len(b.Instrs) == 0 {
			diags = append(diags, support.Errorf(loc(0), "block %q in function %s is empty", b.Label, fn.Name))
			continue
		}
		for i, in := range b.Instrs {
			isLast := i == len(b.Instrs)-1
			if in.Op.IsTerminator() && !isLast {
				diags = append(diags, support.Errorf(loc(in.Line), "instruction after terminator in block %q", b.Label))
			}
			if !in.Op.IsTerminator() && isLast {
				diags = append(diags, support.Errorf(loc(in.Line), "block %q does not end in a terminator", b.Label))
			}

			diags = append(diags, verifyInstrShape(m, fn, loc, in, blocks, tempTypes)...)

			if in.HasResult {
				if definedTemps[in.Result] {
					diags = append(diags, support.Errorf(loc(in.Line), "temp %%t%d defined more than once in function %s", in.Result, fn.Name))
				}
				definedTemps[in.Result] = true
				tempTypes[in.Result] = in.ResultTy
			}
		}
	}

	// --- EH sweep ---
	diags = append(diags, verifyEHBalance(fn, loc)...)

	return diags
}

func verifyInstrShape(m *il.Module, fn *il.Function, loc func(int) support.Location, in il.Instr, blocks map[string]blockInfo, tempTypes map[il.TempID]il.Type) []support.Diag {
	var diags []support.Diag

	switch in.Op {
	case il.OpCall:
		ext, isExtern := m.FindExtern(in.Callee)
		callee, isIntra := m.FindFunction(in.Callee)
		if !isExtern && !isIntra {
			diags = append(diags, support.Errorf(loc(in.Line), "call to undeclared symbol @%s", in.Callee))
			break
		}
		var params []il.Type
		if isExtern {
			params = ext.ParamTypes
		} else {
			params = make([]il.Type, len(callee.Params))
			for i, p := range callee.Params {
				params[i] = p.Type
			}
		}
		if len(params) != len(in.Operands) {
			diags = append(diags, support.Errorf(loc(in.Line), "call @%s expects %d argument(s), got %d", in.Callee, len(params), len(in.Operands)))
		}

	case il.OpBr:
		diags = append(diags, verifySuccessor(loc, in, blocks, 0)...)

	case il.OpCondBr:
		if len(in.Operands) != 1 || in.Operands[0].Kind != il.I1 {
			diags = append(diags, support.Errorf(loc(in.Line), "cond_br condition must be a single i1 operand"))
		}
		diags = append(diags, verifySuccessor(loc, in, blocks, 0)...)
		diags = append(diags, verifySuccessor(loc, in, blocks, 1)...)

	case il.OpRet:
		if fn.ReturnType == il.Void && len(in.Operands) != 0 {
			diags = append(diags, support.Errorf(loc(in.Line), "ret in void function %s must not carry a value", fn.Name))
		}
		if fn.ReturnType != il.Void && len(in.Operands) != 1 {
			diags = append(diags, support.Errorf(loc(in.Line), "ret in function %s must carry exactly one %s value", fn.Name, fn.ReturnType))
		}

	default:
		sig, ok := in.Op.Signature()
		if !ok {
			return diags
		}
		if len(sig.Operands) != len(in.Operands) {
			diags = append(diags, support.Errorf(loc(in.Line), "%s expects %d operand(s), got %d", in.Op, len(sig.Operands), len(in.Operands)))
		} else {
			for i, a := range in.Operands {
				got := operandType(a, tempTypes)
				if got != sig.Operands[i] {
					diags = append(diags, support.Errorf(loc(in.Line), "%s operand %d has type %s, expected %s", in.Op, i, got, sig.Operands[i]))
				}
			}
		}
		// load's element type and const_null's pointee type are resolved
		// per-instruction rather than fixed by the signature table (the
		// table's I64/Ptr entries are placeholders), so neither opcode's
		// result is checked against sig.Result here.
		if in.HasResult && in.Op != il.OpLoad && in.Op != il.OpConstNull {
			if in.ResultTy != sig.Result {
				diags = append(diags, support.Errorf(loc(in.Line), "%s result has type %s, expected %s", in.Op, in.ResultTy, sig.Result))
			}
		}
	}
	return diags
}

// operandType resolves a's authoritative type. A temp operand's type
// comes from its definition site (tempTypes), not the Kind tag carried
// on the operand itself, so a mistagged Value still gets caught against
// the real type the temp was defined with.
func operandType(a il.Value, tempTypes map[il.TempID]il.Type) il.Type {
	if a.IsTemp() {
		if ty, ok := tempTypes[a.Temp]; ok {
			return ty
		}
	}
	return a.Kind
}

func verifySuccessor(loc func(int) support.Location, in il.Instr, blocks map[string]blockInfo, idx int) []support.Diag {
	var diags []support.Diag
	if idx >= len(in.Successors) {
		return diags
	}
	label := in.Successors[idx]
	target, ok := blocks[label]
	if !ok {
		diags = append(diags, support.Errorf(loc(in.Line), "branch to undefined block %q", label))
		return diags
	}
	args := in.SuccessorArgs[idx]
	if len(args) != len(target.paramTypes) {
		diags = append(diags, support.Errorf(loc(in.Line), "branch to %q passes %d argument(s), block expects %d", label, len(args), len(target.paramTypes)))
		return diags
	}
	for i, a := range args {
		if a.Kind != target.paramTypes[i] {
			diags = append(diags, support.Errorf(loc(in.Line), "branch to %q argument %d has type %s, block parameter is %s", label, i, a.Kind, target.paramTypes[i]))
		}
	}
	return diags
}

// verifyEHBalance symbolically walks eh.push/eh.pop nesting along every
// block, asserting the EH stack is balanced by the time control reaches a
// return, that every handler label names a block whose parameter list is
// exactly (error, resume_tok), and that trap.kind only appears inside a
// block some eh.push names as its handler.
func verifyEHBalance(fn *il.Function, loc func(int) support.Location) []support.Diag {
	var diags []support.Diag
	blocksByLabel := make(map[string]*il.BasicBlock, len(fn.Blocks))
	for _, b := range fn.Blocks {
		blocksByLabel[b.Label] = b
	}

	handlerBlocks := make(map[string]bool)
	for _, b := range fn.Blocks {
		for _, in := range b.Instrs {
			if in.Op == il.OpEhPush {
				handlerBlocks[in.HandlerLabel] = true
			}
		}
	}

	for _, b := range fn.Blocks {
		depth := 0
		for _, in := range b.Instrs {
			switch in.Op {
			case il.OpEhPush:
				handler, ok := blocksByLabel[in.HandlerLabel]
				if !ok {
					diags = append(diags, support.Errorf(loc(in.Line), "eh.push targets undefined block %q", in.HandlerLabel))
					break
				}
				if len(handler.Params) != 2 || handler.Params[0].Type != il.Error || handler.Params[1].Type != il.ResumeTok {
					diags = append(diags, support.Errorf(loc(in.Line), "handler block %q must declare parameters (error, resume_tok)", in.HandlerLabel))
				}
				depth++
			case il.OpEhPop:
				if depth == 0 {
					diags = append(diags, support.Errorf(loc(in.Line), "eh.pop with no matching eh.push in block %q", b.Label))
					break
				}
				depth--
			case il.OpRet:
				if depth != 0 {
					diags = append(diags, support.Errorf(loc(in.Line), "function %s returns with %d unbalanced eh.push frame(s)", fn.Name, depth))
				}
			case il.OpTrapKind:
				if !handlerBlocks[b.Label] {
					diags = append(diags, support.Errorf(loc(in.Line), "trap.kind is only legal inside a handler block, found in %q", b.Label))
				}
			}
		}
	}
	return diags
}
