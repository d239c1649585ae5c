package vm_test

import (
	"testing"

	"github.com/splanck/viper-sub028/il"
	"github.com/splanck/viper-sub028/runtime"
	"github.com/splanck/viper-sub028/testharness"
	"github.com/splanck/viper-sub028/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCheckedDivideNoHandler covers an unhandled checked divide: with no
// eh.push in scope, the trap propagates straight to the driver.
func TestCheckedDivideNoHandler(t *testing.T) {
	mb := testharness.NewModule()
	fb := mb.Func("main", il.I64)
	entry := fb.Block("entry")
	r := entry.SDivChk0(il.ConstInt(10, il.I64), il.ConstInt(0, il.I64))
	entry.Ret(r)
	mod := fb.Done().Build()

	h := testharness.New(mod)
	res, err := h.RunFunc("main", vm.StrategySwitch)
	require.NoError(t, err)
	require.NotNil(t, res.Trap)
	assert.Equal(t, runtime.TrapDivideByZero, res.Trap.Kind)
}

// TestCatchAndResumeNext covers a handler that swallows the trap and
// resumes just past the trapping instruction, letting body's own `ret
// 42` run to completion.
func TestCatchAndResumeNext(t *testing.T) {
	mb := testharness.NewModule()
	fb := mb.Func("main", il.I64)

	entry := fb.Block("entry")
	entry.EhPush("handler")
	entry.Br("body")

	body := fb.Block("body")
	body.SDivChk0(il.ConstInt(10, il.I64), il.ConstInt(0, il.I64))
	body.EhPop()
	body.Ret(il.ConstInt(42, il.I64))

	handler := fb.Block("handler")
	handler.EhEntry()
	handler.Param(il.Error)
	tok := handler.Param(il.ResumeTok)
	handler.ResumeNext(tok)

	mod := fb.Done().Build()

	h := testharness.New(mod)
	res, err := h.RunFunc("main", vm.StrategySwitch)
	require.NoError(t, err)
	require.Nil(t, res.Trap)
	assert.Equal(t, int64(42), res.Value.I64)
}

// TestCatchAndResumeLabel is the same shape as TestCatchAndResumeNext,
// but the handler jumps to a separate recover block via resume.label
// instead of falling back into the trapping block.
func TestCatchAndResumeLabel(t *testing.T) {
	mb := testharness.NewModule()
	fb := mb.Func("main", il.I64)

	entry := fb.Block("entry")
	entry.EhPush("handler")
	entry.Br("body")

	body := fb.Block("body")
	body.SDivChk0(il.ConstInt(10, il.I64), il.ConstInt(0, il.I64))
	body.EhPop()
	body.Ret(il.ConstInt(42, il.I64))

	handler := fb.Block("handler")
	handler.EhEntry()
	handler.Param(il.Error)
	tok := handler.Param(il.ResumeTok)
	handler.ResumeLabel(tok, "recover")

	recover_ := fb.Block("recover")
	recover_.EhPop()
	recover_.Ret(il.ConstInt(99, il.I64))

	mod := fb.Done().Build()

	h := testharness.New(mod)
	res, err := h.RunFunc("main", vm.StrategySwitch)
	require.NoError(t, err)
	require.Nil(t, res.Trap)
	assert.Equal(t, int64(99), res.Value.I64)
}

// TestResumeSameEscalation nests two handlers around one checked divide.
// raiseTrap already removes a matched handler's own EH-stack entry
// before dispatching to it, so the inner handler need not pop itself; it
// just resume.same's, re-trapping at the same instruction, which now
// escalates straight to the still-registered outer handler.
func TestResumeSameEscalation(t *testing.T) {
	mb := testharness.NewModule()
	fb := mb.Func("main", il.I64)

	entry := fb.Block("entry")
	entry.EhPush("outer")
	entry.Br("mid")

	mid := fb.Block("mid")
	mid.EhPush("inner")
	mid.Br("body")

	body := fb.Block("body")
	body.SDivChk0(il.ConstInt(10, il.I64), il.ConstInt(0, il.I64))
	body.EhPop()
	body.EhPop()
	body.Ret(il.ConstInt(0, il.I64))

	inner := fb.Block("inner")
	inner.EhEntry()
	inner.Param(il.Error)
	innerTok := inner.Param(il.ResumeTok)
	inner.ResumeSame(innerTok)

	outer := fb.Block("outer")
	outer.EhEntry()
	outer.Param(il.Error)
	outer.Param(il.ResumeTok)
	outer.Ret(il.ConstInt(77, il.I64))

	mod := fb.Done().Build()

	h := testharness.New(mod)
	res, err := h.RunFunc("main", vm.StrategySwitch)
	require.NoError(t, err)
	require.Nil(t, res.Trap)
	assert.Equal(t, int64(77), res.Value.I64)
}

// TestErrorProjectionsOnNull checks err.get_code/err.get_line against a
// const_null error value: get_code reads the zero value (0), while
// get_line reads the -1 sentinel so a handler can distinguish "no error"
// from a real trap recorded at line 0.
func TestErrorProjectionsOnNull(t *testing.T) {
	mb := testharness.NewModule()

	codeFn := mb.Func("get_code_null", il.I64)
	codeEntry := codeFn.Block("entry")
	e := codeEntry.ConstNull(il.Error)
	k := codeEntry.ErrGetCode(e)
	codeEntry.Ret(k)
	mb = codeFn.Done()

	lineFn := mb.Func("get_line_null", il.I64)
	lineEntry := lineFn.Block("entry")
	e2 := lineEntry.ConstNull(il.Error)
	l := lineEntry.ErrGetLine(e2)
	lineEntry.Ret(l)
	mb = lineFn.Done()

	mod := mb.Build()
	h := testharness.New(mod)

	res, err := h.RunFunc("get_code_null", vm.StrategySwitch)
	require.NoError(t, err)
	require.Nil(t, res.Trap)
	assert.Equal(t, int64(0), res.Value.I64)

	res, err = h.RunFunc("get_line_null", vm.StrategySwitch)
	require.NoError(t, err)
	require.Nil(t, res.Trap)
	assert.Equal(t, int64(-1), res.Value.I64)
}

// TestDispatchEquivalence runs an iterative fibonacci (loop state
// carried through block parameters, per the IL's phi-free design) under
// all three dispatch strategies and asserts they return identical
// values — a small stand-in for
// the full-scale bench comparison, exercising the same dispatch seam.
func TestDispatchEquivalence(t *testing.T) {
	mb := testharness.NewModule()
	fb := mb.Func("fib", il.I64)

	entry := fb.Block("entry")
	entry.Br("loop", il.ConstInt(0, il.I64), il.ConstInt(0, il.I64), il.ConstInt(1, il.I64))

	loop := fb.Block("loop")
	i := loop.Param(il.I64)
	a := loop.Param(il.I64)
	b := loop.Param(il.I64)
	cont := loop.ICmpSlt(i, il.ConstInt(20, il.I64))
	loop.CondBr(cont, "body", []il.Value{i, a, b}, "exit", []il.Value{a})

	body := fb.Block("body")
	iB := body.Param(il.I64)
	aB := body.Param(il.I64)
	bB := body.Param(il.I64)
	newB := body.IAdd(aB, bB)
	newI := body.IAdd(iB, il.ConstInt(1, il.I64))
	body.Br("loop", newI, bB, newB)

	exit := fb.Block("exit")
	bExit := exit.Param(il.I64)
	exit.Ret(bExit)

	mod := fb.Done().Build()

	h := testharness.New(mod)
	results, err := h.RunAllStrategies("fib")
	require.NoError(t, err)
	require.Len(t, results, 3)

	for _, r := range results {
		require.Nil(t, r.Trap)
		assert.Equal(t, results[0].Value.I64, r.Value.I64)
	}
	assert.Equal(t, int64(6765), results[0].Value.I64) // fib(20)
}
