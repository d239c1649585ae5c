package il

// Opcode identifies an IL instruction's operation. Values are grouped into
// numeric ranges by semantic category, mirroring how the teacher codebase
// groups its bytecode opcodes.
type Opcode byte

// Integer arithmetic (0-19).
const (
	OpIAdd Opcode = iota
	OpISub
	OpIMul
	OpSDiv       // signed divide, unchecked (wraps, no UB)
	OpUDiv       // unsigned divide
	OpSRem       // signed remainder, unchecked
	OpURem       // unsigned remainder
	OpSDivChk0   // signed divide, traps DivideByZero
	OpSDivChkOvf // signed divide, traps Overflow on INT64_MIN/-1
	OpIMulChkOvf // signed multiply, traps Overflow
	OpAnd
	OpOr
	OpXor
	OpShl
	OpLShr // logical shift right
	OpAShr // arithmetic shift right
)

// Floating arithmetic (20-29).
const (
	OpFAdd Opcode = iota + 20
	OpFSub
	OpFMul
	OpFDiv
)

// Comparisons (30-49).
const (
	OpICmpEq Opcode = iota + 30
	OpICmpNe
	OpICmpSlt
	OpICmpSle
	OpICmpSgt
	OpICmpSge
	OpICmpUlt
	OpICmpUle
	OpICmpUgt
	OpICmpUge
	OpFCmpEq
	OpFCmpNe
	OpFCmpLt
	OpFCmpLe
	OpFCmpGt
	OpFCmpGe
)

// Conversions (50-59).
const (
	OpSitofp Opcode = iota + 50
	OpFptosi // traps InvalidCast on NaN/Inf/out-of-range
	OpZextI1
	OpTruncToI1
)

// Memory (60-79).
const (
	OpAlloca Opcode = iota + 60 // alloca N: returns a frame-local Ptr to N zeroed bytes
	OpLoad
	OpStore
	OpGep
	OpAddrOf
	OpConstStr
	OpConstNull
)

// Calls (80-89).
const (
	OpCall Opcode = iota + 80
)

// Control flow (90-99).
const (
	OpBr Opcode = iota + 90
	OpCondBr
	OpRet
	OpTrap
)

// Exception handling (100-129).
const (
	OpEhPush Opcode = iota + 100 // eh.push handler_label
	OpEhPop
	OpEhEntry     // informational marker, legal only as a handler's first instruction
	OpTrapFromErr // trap.from_err code
	OpTrapErr     // trap.err code, message
	OpTrapKind    // read current trap kind inside a handler
	OpErrGetKind
	OpErrGetCode
	OpErrGetIp
	OpErrGetLine
	OpResumeSame
	OpResumeNext
	OpResumeLabel
)

var opcodeNames = map[Opcode]string{
	OpIAdd:       "iadd",
	OpISub:       "isub",
	OpIMul:       "imul",
	OpSDiv:       "sdiv",
	OpUDiv:       "udiv",
	OpSRem:       "srem",
	OpURem:       "urem",
	OpSDivChk0:   "sdiv.chk0",
	OpSDivChkOvf: "sdiv.chk_ovf",
	OpIMulChkOvf: "imul.chk_ovf",
	OpAnd:        "and",
	OpOr:         "or",
	OpXor:        "xor",
	OpShl:        "shl",
	OpLShr:       "lshr",
	OpAShr:       "ashr",

	OpFAdd: "fadd",
	OpFSub: "fsub",
	OpFMul: "fmul",
	OpFDiv: "fdiv",

	OpICmpEq:  "icmp.eq",
	OpICmpNe:  "icmp.ne",
	OpICmpSlt: "icmp.slt",
	OpICmpSle: "icmp.sle",
	OpICmpSgt: "icmp.sgt",
	OpICmpSge: "icmp.sge",
	OpICmpUlt: "icmp.ult",
	OpICmpUle: "icmp.ule",
	OpICmpUgt: "icmp.ugt",
	OpICmpUge: "icmp.uge",
	OpFCmpEq:  "fcmp.eq",
	OpFCmpNe:  "fcmp.ne",
	OpFCmpLt:  "fcmp.lt",
	OpFCmpLe:  "fcmp.le",
	OpFCmpGt:  "fcmp.gt",
	OpFCmpGe:  "fcmp.ge",

	OpSitofp:    "sitofp",
	OpFptosi:    "fptosi",
	OpZextI1:    "zext.i1",
	OpTruncToI1: "trunc.i1",

	OpAlloca:    "alloca",
	OpLoad:      "load",
	OpStore:     "store",
	OpGep:       "gep",
	OpAddrOf:    "addr_of",
	OpConstStr:  "const_str",
	OpConstNull: "const_null",

	OpCall: "call",

	OpBr:     "br",
	OpCondBr: "cond_br",
	OpRet:    "ret",
	OpTrap:   "trap",

	OpEhPush:      "eh.push",
	OpEhPop:       "eh.pop",
	OpEhEntry:     "eh.entry",
	OpTrapFromErr: "trap.from_err",
	OpTrapErr:     "trap.err",
	OpTrapKind:    "trap.kind",
	OpErrGetKind:  "err.get_kind",
	OpErrGetCode:  "err.get_code",
	OpErrGetIp:    "err.get_ip",
	OpErrGetLine:  "err.get_line",
	OpResumeSame:  "resume.same",
	OpResumeNext:  "resume.next",
	OpResumeLabel: "resume.label",
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsTerminator reports whether op ends a basic block.
func (op Opcode) IsTerminator() bool {
	switch op {
	case OpBr, OpCondBr, OpRet, OpTrap, OpResumeSame, OpResumeNext, OpResumeLabel:
		return true
	default:
		return false
	}
}

// Signature describes an opcode's fixed operand arity/types and result
// type, used by the verifier's instruction sweep and the VM's dispatch core.
type Signature struct {
	Operands  []Type
	Result    Type // meaningless unless HasResult
	HasResult bool
}
