package ilio

import (
	"testing"

	"github.com/splanck/viper-sub028/il"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSampleModule() *il.Module {
	m := il.NewModule()
	m.Externs = append(m.Externs, il.Extern{
		Name:       "rt_print_i64",
		ParamTypes: []il.Type{il.I64},
		ReturnType: il.Void,
	})
	m.Globals = append(m.Globals, il.Global{Name: "greeting", Type: il.Str, Const: true, Init: "hi there"})

	entry := &il.BasicBlock{Label: "entry"}
	entry.Instrs = append(entry.Instrs,
		il.Instr{HasResult: true, Result: 0, ResultTy: il.I64, Op: il.OpIAdd,
			Operands: []il.Value{il.ConstInt(1, il.I64), il.ConstInt(2, il.I64)}},
		il.Instr{HasResult: true, Result: 1, ResultTy: il.I1, Op: il.OpICmpSgt,
			Operands: []il.Value{il.TempValue(0, il.I64), il.ConstInt(0, il.I64)}},
		il.Instr{Op: il.OpCondBr,
			Operands:      []il.Value{il.TempValue(1, il.I1)},
			Successors:    []string{"pos", "neg"},
			SuccessorArgs: [][]il.Value{{il.TempValue(0, il.I64)}, {il.TempValue(0, il.I64)}}},
	)

	pos := &il.BasicBlock{Label: "pos", Params: []il.Param{{Temp: 2, Type: il.I64}}}
	pos.Instrs = append(pos.Instrs,
		il.Instr{Op: il.OpCall, Callee: "rt_print_i64", Operands: []il.Value{il.TempValue(2, il.I64)}},
		il.Instr{Op: il.OpRet, Operands: []il.Value{il.TempValue(2, il.I64)}},
	)

	neg := &il.BasicBlock{Label: "neg", Params: []il.Param{{Temp: 3, Type: il.I64}}}
	neg.Instrs = append(neg.Instrs,
		il.Instr{Op: il.OpRet, Operands: []il.Value{il.TempValue(3, il.I64)}},
	)

	fn := &il.Function{Name: "main", ReturnType: il.I64, Blocks: []*il.BasicBlock{entry, pos, neg}}
	m.Functions = append(m.Functions, fn)
	return m
}

func TestSerializeProducesExpectedShape(t *testing.T) {
	text := Serialize(buildSampleModule())
	assert.Contains(t, text, "il 0.1")
	assert.Contains(t, text, `extern @rt_print_i64(i64) -> void`)
	assert.Contains(t, text, `global const str @greeting = "hi there"`)
	assert.Contains(t, text, "func @main() -> i64 {")
	assert.Contains(t, text, "entry:")
	assert.Contains(t, text, "pos:(i64 %t2)")
	assert.Contains(t, text, "%t0 = iadd 1, 2")
	assert.Contains(t, text, "cond_br %t1, pos(%t0), neg(%t0)")
}

func TestParseSerializeRoundTrip(t *testing.T) {
	want := buildSampleModule()
	text := Serialize(want)

	result := Parse("sample.il", text)
	require.True(t, result.IsOk(), "parse diagnostics: %v", result.Diags)
	got := result.Value

	require.Len(t, got.Externs, 1)
	assert.Equal(t, want.Externs[0], got.Externs[0])

	require.Len(t, got.Globals, 1)
	assert.Equal(t, want.Globals[0], got.Globals[0])

	require.Len(t, got.Functions, 1)
	assert.Equal(t, want.Functions[0].Name, got.Functions[0].Name)
	assert.Equal(t, want.Functions[0].ReturnType, got.Functions[0].ReturnType)
	require.Len(t, got.Functions[0].Blocks, 3)

	// Round-tripping again must reproduce identical text (canonical form).
	text2 := Serialize(got)
	assert.Equal(t, text, text2)
}

func TestParseReportsLocatedDiagnosticOnUnknownOpcode(t *testing.T) {
	src := "func @f() -> void {\nentry:\n  bogus.op 1\n}\n"
	result := Parse("bad.il", src)
	require.False(t, result.IsOk())
	require.Len(t, result.Diags, 1)
	assert.Equal(t, "bad.il", result.Diags[0].Loc.Path)
	assert.Contains(t, result.Diags[0].Message, "bogus.op")
}

func TestParseExternAndGlobalDeclarations(t *testing.T) {
	src := `il 0.1

extern @rt_str_len(str) -> i64

global const str @empty = ""

func @f() -> void {
entry:
  ret
}
`
	result := Parse("decl.il", src)
	require.True(t, result.IsOk(), "diags: %v", result.Diags)
	m := result.Value
	require.Len(t, m.Externs, 1)
	assert.Equal(t, "rt_str_len", m.Externs[0].Name)
	assert.Equal(t, []il.Type{il.Str}, m.Externs[0].ParamTypes)
	assert.Equal(t, il.I64, m.Externs[0].ReturnType)

	require.Len(t, m.Globals, 1)
	assert.Equal(t, "empty", m.Globals[0].Name)
	assert.True(t, m.Globals[0].Const)
}
