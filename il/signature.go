package il

// signatures maps each opcode to its fixed operand/result shape. Opcodes
// whose arity or type varies per call site (call, branches, resume.label)
// are validated structurally by the verifier instead of through this table.
var signatures = map[Opcode]Signature{
	OpIAdd: {Operands: []Type{I64, I64}, Result: I64, HasResult: true},
	OpISub: {Operands: []Type{I64, I64}, Result: I64, HasResult: true},
	OpIMul: {Operands: []Type{I64, I64}, Result: I64, HasResult: true},
	OpSDiv: {Operands: []Type{I64, I64}, Result: I64, HasResult: true},
	OpUDiv: {Operands: []Type{I64, I64}, Result: I64, HasResult: true},
	OpSRem: {Operands: []Type{I64, I64}, Result: I64, HasResult: true},
	OpURem: {Operands: []Type{I64, I64}, Result: I64, HasResult: true},
	OpSDivChk0:   {Operands: []Type{I64, I64}, Result: I64, HasResult: true},
	OpSDivChkOvf: {Operands: []Type{I64, I64}, Result: I64, HasResult: true},
	OpIMulChkOvf: {Operands: []Type{I64, I64}, Result: I64, HasResult: true},
	OpAnd:  {Operands: []Type{I64, I64}, Result: I64, HasResult: true},
	OpOr:   {Operands: []Type{I64, I64}, Result: I64, HasResult: true},
	OpXor:  {Operands: []Type{I64, I64}, Result: I64, HasResult: true},
	OpShl:  {Operands: []Type{I64, I64}, Result: I64, HasResult: true},
	OpLShr: {Operands: []Type{I64, I64}, Result: I64, HasResult: true},
	OpAShr: {Operands: []Type{I64, I64}, Result: I64, HasResult: true},

	OpFAdd: {Operands: []Type{F64, F64}, Result: F64, HasResult: true},
	OpFSub: {Operands: []Type{F64, F64}, Result: F64, HasResult: true},
	OpFMul: {Operands: []Type{F64, F64}, Result: F64, HasResult: true},
	OpFDiv: {Operands: []Type{F64, F64}, Result: F64, HasResult: true},

	OpICmpEq:  {Operands: []Type{I64, I64}, Result: I1, HasResult: true},
	OpICmpNe:  {Operands: []Type{I64, I64}, Result: I1, HasResult: true},
	OpICmpSlt: {Operands: []Type{I64, I64}, Result: I1, HasResult: true},
	OpICmpSle: {Operands: []Type{I64, I64}, Result: I1, HasResult: true},
	OpICmpSgt: {Operands: []Type{I64, I64}, Result: I1, HasResult: true},
	OpICmpSge: {Operands: []Type{I64, I64}, Result: I1, HasResult: true},
	OpICmpUlt: {Operands: []Type{I64, I64}, Result: I1, HasResult: true},
	OpICmpUle: {Operands: []Type{I64, I64}, Result: I1, HasResult: true},
	OpICmpUgt: {Operands: []Type{I64, I64}, Result: I1, HasResult: true},
	OpICmpUge: {Operands: []Type{I64, I64}, Result: I1, HasResult: true},
	OpFCmpEq:  {Operands: []Type{F64, F64}, Result: I1, HasResult: true},
	OpFCmpNe:  {Operands: []Type{F64, F64}, Result: I1, HasResult: true},
	OpFCmpLt:  {Operands: []Type{F64, F64}, Result: I1, HasResult: true},
	OpFCmpLe:  {Operands: []Type{F64, F64}, Result: I1, HasResult: true},
	OpFCmpGt:  {Operands: []Type{F64, F64}, Result: I1, HasResult: true},
	OpFCmpGe:  {Operands: []Type{F64, F64}, Result: I1, HasResult: true},

	OpSitofp:    {Operands: []Type{I64}, Result: F64, HasResult: true},
	OpFptosi:    {Operands: []Type{F64}, Result: I64, HasResult: true},
	OpZextI1:    {Operands: []Type{I1}, Result: I64, HasResult: true},
	OpTruncToI1: {Operands: []Type{I64}, Result: I1, HasResult: true},

	OpAlloca:    {Operands: []Type{I64}, Result: Ptr, HasResult: true},
	OpLoad:      {Operands: []Type{Ptr}, Result: I64, HasResult: true}, // element type resolved per-instruction
	OpStore:     {Operands: []Type{Ptr, I64}, HasResult: false},
	OpGep:       {Operands: []Type{Ptr, I64}, Result: Ptr, HasResult: true},
	OpAddrOf:    {Result: Ptr, HasResult: true},
	OpConstStr:  {Result: Str, HasResult: true},
	OpConstNull: {Result: Ptr, HasResult: true},

	OpBr:   {HasResult: false},
	OpRet:  {HasResult: false},
	OpTrap: {HasResult: false},

	OpEhPush:      {HasResult: false},
	OpEhPop:       {HasResult: false},
	OpEhEntry:     {HasResult: false},
	OpTrapFromErr: {Operands: []Type{I64}, HasResult: false},
	OpTrapErr:     {Operands: []Type{I64, Str}, HasResult: false},
	OpTrapKind:    {Result: I64, HasResult: true},
	OpErrGetKind:  {Operands: []Type{Error}, Result: I64, HasResult: true},
	OpErrGetCode:  {Operands: []Type{Error}, Result: I64, HasResult: true},
	OpErrGetIp:    {Operands: []Type{Error}, Result: I64, HasResult: true},
	OpErrGetLine:  {Operands: []Type{Error}, Result: I64, HasResult: true},
	OpResumeSame:  {Operands: []Type{ResumeTok}, HasResult: false},
	OpResumeNext:  {Operands: []Type{ResumeTok}, HasResult: false},
}

// Signature returns op's fixed shape and whether it has one (call,
// cond_br, and resume.label vary per call site and are not listed here).
func (op Opcode) Signature() (Signature, bool) {
	sig, ok := signatures[op]
	return sig, ok
}
