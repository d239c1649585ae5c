package vm

import (
	"math"

	"github.com/splanck/viper-sub028/il"
	"github.com/splanck/viper-sub028/runtime"
)

type outcome int

const (
	outNormal outcome = iota
	outBranch
	outCall
	outReturn
	outTrap
	outEhPush
	outEhPop
	outResume
)

type callPlan struct {
	intra   *il.Function
	extern  string
	args    []Slot
	resultT il.Type
}

type resumePlan struct {
	kind resumeKind
	tok  ResumeToken
	// for resume.label
	label string
	args  []Slot
}

type resumeKind int

const (
	resumeSame resumeKind = iota
	resumeNext
	resumeLabel
)

type stepResult struct {
	out outcome

	// resultVal is the instruction's own result (outNormal, HasResult true).
	resultVal    Slot
	hasResultVal bool

	branchLabel string
	branchArgs  []Slot

	call callPlan

	// retVal/retHasVal describe a function-level return (outReturn).
	retVal    Slot
	retHasVal bool

	trapKind runtime.TrapKind
	trapCode int64
	trapMsg  string

	handlerLabel string // eh.push target

	resume resumePlan
}

func evalOperand(f *Frame, v il.Value) Slot {
	if v.IsTemp() {
		return f.Slots[v.Temp]
	}
	switch {
	case v.IsConst() && v.Kind == il.F64:
		return f64Slot(v.FloatConst)
	case v.IsConst() && v.Kind == il.Str:
		return strSlot("") // resolved by caller with access to the module's globals
	case v.IsConst():
		return i64Slot(v.IntConst)
	case v.IsNull():
		if v.Kind == il.Error {
			// A null error projects get_line as -1 rather than 0, so a
			// handler can tell "no error" apart from a real trap at line 0.
			return Slot{Kind: il.Error, Err: ErrorValue{Line: -1}}
		}
		return ptrSlot(nil)
	default:
		return Slot{}
	}
}

// executeInstr performs the semantics of one instruction given its
// already-resolved operand slots (globals are resolved by the caller,
// which has module access; plain constants and temps are resolved here).
func executeInstr(m *Machine, f *Frame, in *il.Instr) stepResult {
	ops := make([]Slot, len(in.Operands))
	for i, v := range in.Operands {
		if v.IsGlobal() || (v.IsConst() && v.Kind == il.Str) {
			ops[i] = m.resolveGlobalOperand(v)
		} else {
			ops[i] = evalOperand(f, v)
		}
	}

	switch in.Op {
	case il.OpIAdd:
		return normalResult(i64Slot(ops[0].I64 + ops[1].I64))
	case il.OpISub:
		return normalResult(i64Slot(ops[0].I64 - ops[1].I64))
	case il.OpIMul:
		return normalResult(i64Slot(ops[0].I64 * ops[1].I64))
	case il.OpSDiv:
		// Unchecked: the opcode itself performs no IL-visible check, but
		// the VM stays defensive against a host panic on malformed input.
		if ops[1].I64 == 0 {
			return trapResult(runtime.TrapDivideByZero, 0)
		}
		return normalResult(i64Slot(ops[0].I64 / ops[1].I64))
	case il.OpUDiv:
		if ops[1].I64 == 0 {
			return trapResult(runtime.TrapDivideByZero, 0)
		}
		return normalResult(i64Slot(int64(uint64(ops[0].I64) / uint64(ops[1].I64))))
	case il.OpSRem:
		if ops[1].I64 == 0 {
			return trapResult(runtime.TrapDivideByZero, 0)
		}
		return normalResult(i64Slot(ops[0].I64 % ops[1].I64))
	case il.OpURem:
		if ops[1].I64 == 0 {
			return trapResult(runtime.TrapDivideByZero, 0)
		}
		return normalResult(i64Slot(int64(uint64(ops[0].I64) % uint64(ops[1].I64))))
	case il.OpSDivChk0:
		if ops[1].I64 == 0 {
			return trapResult(runtime.TrapDivideByZero, 0)
		}
		return normalResult(i64Slot(ops[0].I64 / ops[1].I64))
	case il.OpSDivChkOvf:
		if ops[1].I64 == 0 {
			return trapResult(runtime.TrapDivideByZero, 0)
		}
		if ops[0].I64 == math.MinInt64 && ops[1].I64 == -1 {
			return trapResult(runtime.TrapOverflow, 0)
		}
		return normalResult(i64Slot(ops[0].I64 / ops[1].I64))
	case il.OpIMulChkOvf:
		a, b := ops[0].I64, ops[1].I64
		res := a * b
		if (a != 0 && res/a != b) || (a == -1 && b == math.MinInt64) {
			return trapResult(runtime.TrapOverflow, 0)
		}
		return normalResult(i64Slot(res))
	case il.OpAnd:
		return normalResult(i64Slot(ops[0].I64 & ops[1].I64))
	case il.OpOr:
		return normalResult(i64Slot(ops[0].I64 | ops[1].I64))
	case il.OpXor:
		return normalResult(i64Slot(ops[0].I64 ^ ops[1].I64))
	case il.OpShl:
		return normalResult(i64Slot(ops[0].I64 << uint64(ops[1].I64)))
	case il.OpLShr:
		return normalResult(i64Slot(int64(uint64(ops[0].I64) >> uint64(ops[1].I64))))
	case il.OpAShr:
		return normalResult(i64Slot(ops[0].I64 >> uint64(ops[1].I64)))

	case il.OpFAdd:
		return normalResult(f64Slot(ops[0].F64 + ops[1].F64))
	case il.OpFSub:
		return normalResult(f64Slot(ops[0].F64 - ops[1].F64))
	case il.OpFMul:
		return normalResult(f64Slot(ops[0].F64 * ops[1].F64))
	case il.OpFDiv:
		return normalResult(f64Slot(ops[0].F64 / ops[1].F64))

	case il.OpICmpEq:
		return normalResult(i1Slot(ops[0].I64 == ops[1].I64))
	case il.OpICmpNe:
		return normalResult(i1Slot(ops[0].I64 != ops[1].I64))
	case il.OpICmpSlt:
		return normalResult(i1Slot(ops[0].I64 < ops[1].I64))
	case il.OpICmpSle:
		return normalResult(i1Slot(ops[0].I64 <= ops[1].I64))
	case il.OpICmpSgt:
		return normalResult(i1Slot(ops[0].I64 > ops[1].I64))
	case il.OpICmpSge:
		return normalResult(i1Slot(ops[0].I64 >= ops[1].I64))
	case il.OpICmpUlt:
		return normalResult(i1Slot(uint64(ops[0].I64) < uint64(ops[1].I64)))
	case il.OpICmpUle:
		return normalResult(i1Slot(uint64(ops[0].I64) <= uint64(ops[1].I64)))
	case il.OpICmpUgt:
		return normalResult(i1Slot(uint64(ops[0].I64) > uint64(ops[1].I64)))
	case il.OpICmpUge:
		return normalResult(i1Slot(uint64(ops[0].I64) >= uint64(ops[1].I64)))
	case il.OpFCmpEq:
		return normalResult(i1Slot(ops[0].F64 == ops[1].F64))
	case il.OpFCmpNe:
		return normalResult(i1Slot(ops[0].F64 != ops[1].F64))
	case il.OpFCmpLt:
		return normalResult(i1Slot(ops[0].F64 < ops[1].F64))
	case il.OpFCmpLe:
		return normalResult(i1Slot(ops[0].F64 <= ops[1].F64))
	case il.OpFCmpGt:
		return normalResult(i1Slot(ops[0].F64 > ops[1].F64))
	case il.OpFCmpGe:
		return normalResult(i1Slot(ops[0].F64 >= ops[1].F64))

	case il.OpSitofp:
		return normalResult(f64Slot(float64(ops[0].I64)))
	case il.OpFptosi:
		v := ops[0].F64
		if math.IsNaN(v) || math.IsInf(v, 0) || v < math.MinInt64 || v >= math.MaxInt64 {
			return trapResult(runtime.TrapInvalidCast, 0)
		}
		return normalResult(i64Slot(int64(v)))
	case il.OpZextI1:
		return normalResult(i64Slot(ops[0].I64))
	case il.OpTruncToI1:
		return normalResult(i1Slot(ops[0].I64 != 0))

	case il.OpAlloca:
		ref := f.Alloca(ops[0].I64)
		if ref == nil {
			return trapResult(runtime.TrapRuntimeError, 0)
		}
		return normalResult(ptrSlot(ref))
	case il.OpLoad:
		ref := ops[0].Ptr
		if ref == nil || ref.Offset+8 > len(ref.Data) {
			return trapResult(runtime.TrapBounds, 0)
		}
		return normalResult(i64Slot(int64(leUint64(ref.Data[ref.Offset : ref.Offset+8]))))
	case il.OpStore:
		ref := ops[0].Ptr
		if ref == nil || ref.Offset+8 > len(ref.Data) {
			return trapResult(runtime.TrapBounds, 0)
		}
		putLeUint64(ref.Data[ref.Offset:ref.Offset+8], uint64(ops[1].I64))
		if m.Hooks != nil {
			ptrTemp, hasPtrTemp := il.TempID(0), false
			if in.Operands[0].IsTemp() {
				ptrTemp, hasPtrTemp = in.Operands[0].Temp, true
			}
			m.Hooks.OnStore(f.Fn, f.Block, f.IP, ptrTemp, hasPtrTemp, ops[1])
			m.Hooks.OnMemWrite(f.Fn, f.Block, f.IP, Addr(ref), 8)
		}
		return stepResult{out: outNormal}
	case il.OpGep:
		ref := ops[0].Ptr
		if ref == nil {
			return trapResult(runtime.TrapBounds, 0)
		}
		return normalResult(ptrSlot(&MemRef{Data: ref.Data, Offset: ref.Offset + int(ops[1].I64)*8}))
	case il.OpAddrOf, il.OpConstStr:
		return normalResult(ops[0])
	case il.OpConstNull:
		if in.ResultTy == il.Error {
			// Mirrors evalOperand's literal-null handling: get_line on a
			// null error reads -1 instead of 0, so a handler can tell "no
			// error" apart from a real trap recorded at line 0.
			return normalResult(Slot{Kind: il.Error, Err: ErrorValue{Line: -1}})
		}
		return normalResult(ptrSlot(nil))

	case il.OpCall:
		return stepResult{out: outCall, call: callPlan{extern: in.Callee, args: ops}}

	case il.OpBr:
		return stepResult{out: outBranch, branchLabel: in.Successors[0], branchArgs: evalArgs(m, f, in.SuccessorArgs[0])}
	case il.OpCondBr:
		cond := ops[0].I64 != 0
		if cond {
			return stepResult{out: outBranch, branchLabel: in.Successors[0], branchArgs: evalArgs(m, f, in.SuccessorArgs[0])}
		}
		return stepResult{out: outBranch, branchLabel: in.Successors[1], branchArgs: evalArgs(m, f, in.SuccessorArgs[1])}
	case il.OpRet:
		if len(ops) == 0 {
			return stepResult{out: outReturn}
		}
		return stepResult{out: outReturn, retVal: ops[0], retHasVal: true}
	case il.OpTrap:
		return trapResult(runtime.TrapRuntimeError, 0)

	case il.OpEhPush:
		return stepResult{out: outEhPush, handlerLabel: in.HandlerLabel}
	case il.OpEhPop:
		return stepResult{out: outEhPop}
	case il.OpEhEntry:
		return stepResult{out: outNormal}
	case il.OpTrapFromErr:
		return trapResult(runtime.MapErrCodeToTrap(int(ops[0].I64)), ops[0].I64)
	case il.OpTrapErr:
		return trapResultMsg(runtime.MapErrCodeToTrap(int(ops[0].I64)), ops[0].I64, ops[1].Str)
	case il.OpTrapKind:
		return normalResult(i64Slot(int64(m.currentTrapKind)))
	case il.OpErrGetKind:
		return normalResult(i64Slot(int64(ops[0].Err.Kind)))
	case il.OpErrGetCode:
		return normalResult(i64Slot(ops[0].Err.Code))
	case il.OpErrGetIp:
		return normalResult(i64Slot(int64(ops[0].Err.IP)))
	case il.OpErrGetLine:
		return normalResult(i64Slot(int64(ops[0].Err.Line)))

	case il.OpResumeSame:
		return stepResult{out: outResume, resume: resumePlan{kind: resumeSame, tok: ops[0].Tok}}
	case il.OpResumeNext:
		return stepResult{out: outResume, resume: resumePlan{kind: resumeNext, tok: ops[0].Tok}}
	case il.OpResumeLabel:
		return stepResult{out: outResume, resume: resumePlan{kind: resumeLabel, tok: ops[0].Tok, label: in.Successors[0], args: evalArgs(m, f, in.SuccessorArgs[0])}}
	}

	return trapResult(runtime.TrapInvalidOperation, 0)
}

func normalResult(s Slot) stepResult {
	return stepResult{out: outNormal, resultVal: s, hasResultVal: true}
}

func trapResult(k runtime.TrapKind, code int64) stepResult {
	return stepResult{out: outTrap, trapKind: k, trapCode: code}
}

func trapResultMsg(k runtime.TrapKind, code int64, msg string) stepResult {
	return stepResult{out: outTrap, trapKind: k, trapCode: code, trapMsg: msg}
}

func evalArgs(m *Machine, f *Frame, vals []il.Value) []Slot {
	out := make([]Slot, len(vals))
	for i, v := range vals {
		if v.IsGlobal() || (v.IsConst() && v.Kind == il.Str) {
			out[i] = m.resolveGlobalOperand(v)
		} else {
			out[i] = evalOperand(f, v)
		}
	}
	return out
}

func leUint64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

func putLeUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}
