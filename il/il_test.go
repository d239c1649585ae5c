package il

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeStringRoundTrips(t *testing.T) {
	for _, tc := range []struct {
		ty   Type
		name string
	}{
		{Void, "void"},
		{I1, "i1"},
		{I64, "i64"},
		{F64, "f64"},
		{Ptr, "ptr"},
		{Str, "str"},
		{Error, "error"},
		{ResumeTok, "resume_tok"},
	} {
		assert.Equal(t, tc.name, tc.ty.String())
		parsed, ok := ParseType(tc.name)
		require.True(t, ok)
		assert.Equal(t, tc.ty, parsed)
	}
}

func TestTypeIsInteger(t *testing.T) {
	assert.True(t, I32.IsInteger())
	assert.True(t, I1.IsInteger())
	assert.False(t, F64.IsInteger())
	assert.False(t, Ptr.IsInteger())
}

func TestUnknownTypeStringIsUNKNOWN(t *testing.T) {
	var bogus Type = 255
	assert.Equal(t, "UNKNOWN", bogus.String())
}

func TestOpcodeStringAndUnknown(t *testing.T) {
	assert.Equal(t, "iadd", OpIAdd.String())
	assert.Equal(t, "resume.label", OpResumeLabel.String())

	var bogus Opcode = 253
	assert.Equal(t, "UNKNOWN", bogus.String())
}

func TestOpcodeIsTerminator(t *testing.T) {
	assert.True(t, OpBr.IsTerminator())
	assert.True(t, OpRet.IsTerminator())
	assert.True(t, OpTrap.IsTerminator())
	assert.False(t, OpIAdd.IsTerminator())
}

func TestSignatureLookup(t *testing.T) {
	sig, ok := OpIAdd.Signature()
	require.True(t, ok)
	assert.Equal(t, []Type{I64, I64}, sig.Operands)
	assert.Equal(t, I64, sig.Result)
	assert.True(t, sig.HasResult)

	_, ok = OpCall.Signature()
	assert.False(t, ok, "call arity varies per call site and is not in the static table")
}

func TestValueConstructorsAndPredicates(t *testing.T) {
	tmp := TempValue(3, I64)
	assert.True(t, tmp.IsTemp())
	assert.Equal(t, "%t3", tmp.String())

	ci := ConstInt(42, I32)
	assert.True(t, ci.IsConst())
	assert.Equal(t, "42", ci.String())

	cf := ConstFloat(1.5)
	assert.True(t, cf.IsConst())

	cs := ConstStr("msg")
	assert.True(t, cs.IsConst())
	assert.Equal(t, "@msg", cs.String())

	ga := GlobalAddr("buf")
	assert.True(t, ga.IsGlobal())

	np := NullPtr(Ptr)
	assert.True(t, np.IsNull())
	assert.Equal(t, "null", np.String())
}

func TestBasicBlockTerminatedAndParamTypes(t *testing.T) {
	b := &BasicBlock{
		Label:  "entry",
		Params: []Param{{Temp: 0, Type: I64}, {Temp: 1, Type: Str}},
	}
	assert.False(t, b.Terminated(), "empty block is never terminated")
	assert.Equal(t, []Type{I64, Str}, b.ParamTypes())

	b.Instrs = append(b.Instrs, Instr{Op: OpIAdd, Result: 2, ResultTy: I64, HasResult: true})
	assert.False(t, b.Terminated())

	b.Instrs = append(b.Instrs, Instr{Op: OpRet})
	assert.True(t, b.Terminated())
}

func TestFunctionBlockLookupAndEntry(t *testing.T) {
	entry := &BasicBlock{Label: "entry"}
	loop := &BasicBlock{Label: "loop"}
	f := &Function{Name: "main", Blocks: []*BasicBlock{entry, loop}}

	assert.Same(t, entry, f.Entry())

	found, ok := f.Block("loop")
	require.True(t, ok)
	assert.Same(t, loop, found)

	_, ok = f.Block("missing")
	assert.False(t, ok)
}

func TestModuleLookups(t *testing.T) {
	m := NewModule()
	m.Externs = append(m.Externs, Extern{Name: "rt_print_i64", ParamTypes: []Type{I64}, ReturnType: Void})
	m.Globals = append(m.Globals, Global{Name: "greeting", Type: Str, Const: true, Init: "hi"})
	fn := &Function{Name: "main", ReturnType: I64}
	m.Functions = append(m.Functions, fn)

	ext, ok := m.FindExtern("rt_print_i64")
	require.True(t, ok)
	assert.Equal(t, Void, ext.ReturnType)

	g, ok := m.FindGlobal("greeting")
	require.True(t, ok)
	assert.Equal(t, "hi", g.Init)

	got, ok := m.FindFunction("main")
	require.True(t, ok)
	assert.Same(t, fn, got)

	_, ok = m.FindFunction("nope")
	assert.False(t, ok)
}
