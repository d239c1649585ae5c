package debug

import (
	"bytes"
	"testing"

	"github.com/splanck/viper-sub028/il"
	"github.com/splanck/viper-sub028/support"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelBreakpointsHit(t *testing.T) {
	lb := NewLabelBreakpoints()
	lb.Add("handler")
	assert.True(t, lb.Hit("handler"))
	assert.False(t, lb.Hit("entry"))
}

func TestSourceBreakpointCoalescing(t *testing.T) {
	sm := support.NewSourceManager()
	sbs := NewSourceBreakpoints(sm)
	sbs.Add(SourceBreakpoint{Line: 10})

	assert.True(t, sbs.Hit("main.il", 10), "first hit on the line should fire")
	assert.False(t, sbs.Hit("main.il", 10), "second hit on the same line is coalesced")

	sbs.ResetLastHit()
	assert.True(t, sbs.Hit("main.il", 10), "hit fires again after reset")
}

func TestSourceBreakpointBasenameFallback(t *testing.T) {
	sm := support.NewSourceManager()
	sbs := NewSourceBreakpoints(sm)
	bp, ok := ParseSourceBreakpoint("foo.il:5")
	require.True(t, ok)
	sbs.Add(bp)

	assert.True(t, sbs.Hit("/some/dir/foo.il", 5))
}

func TestParseSourceBreakpointBareLine(t *testing.T) {
	bp, ok := ParseSourceBreakpoint("42")
	require.True(t, ok)
	assert.Equal(t, 42, bp.Line)
	assert.Empty(t, bp.File)
}

func TestVarWatchReportsOnChange(t *testing.T) {
	var buf bytes.Buffer
	vw := NewVarWatchSet(&buf)
	id := vw.Register("x", il.TempID(3))
	assert.Equal(t, uint32(0), id)

	vw.OnStore("main", "entry", 0, il.TempID(3), true, WatchValue{Kind: il.I64, I64: 1})
	vw.OnStore("main", "entry", 1, il.TempID(3), true, WatchValue{Kind: il.I64, I64: 1})
	vw.OnStore("main", "entry", 2, il.TempID(3), true, WatchValue{Kind: il.I64, I64: 2})

	out := buf.String()
	// Only the first store and the value-change at ip=2 should be reported.
	assert.Equal(t, 2, countOccurrences(out, "x(#0)"))
}

func countOccurrences(s, sub string) int {
	n := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			n++
			i += len(sub) - 1
		}
	}
	return n
}

func TestMemWatchIntersection(t *testing.T) {
	mw := NewMemWatchSet()
	mw.Add(100, 8, "counter")
	mw.Add(200, 8, "other")

	mw.OnMemWrite(104, 4) // overlaps [100,108)
	mw.OnMemWrite(300, 4) // no overlap

	hits := mw.Drain()
	require.Len(t, hits, 1)
	assert.Equal(t, "counter", hits[0].Tag)

	assert.Empty(t, mw.Drain(), "drain empties the queue")
}

func TestScriptParsingAndQueue(t *testing.T) {
	actions := []ScriptAction{
		{Kind: ActionStep, N: 2},
		{Kind: ActionContinue},
	}
	q := NewScriptQueue(actions)

	a, ok := q.Next()
	require.True(t, ok)
	assert.Equal(t, ActionStep, a.Kind)
	assert.Equal(t, 2, a.N)

	a, ok = q.Next()
	require.True(t, ok)
	assert.Equal(t, ActionContinue, a.Kind)

	_, ok = q.Next()
	assert.False(t, ok)
}

func TestParseScriptLine(t *testing.T) {
	a, err := parseScriptLine("step 3")
	require.NoError(t, err)
	assert.Equal(t, ScriptAction{Kind: ActionStep, N: 3}, a)

	a, err = parseScriptLine("continue")
	require.NoError(t, err)
	assert.Equal(t, ScriptAction{Kind: ActionContinue}, a)

	_, err = parseScriptLine("bogus")
	assert.Error(t, err)
}

func TestTraceSinkILMode(t *testing.T) {
	var buf bytes.Buffer
	sink := NewTraceSink(TraceIL, &buf)
	fn := &il.Function{Name: "main"}
	block := &il.BasicBlock{Label: "entry"}
	in := &il.Instr{Op: il.OpIAdd, Operands: []il.Value{il.ConstInt(1, il.I64), il.ConstInt(2, il.I64)}}

	sink.EmitInstr(fn, block, 0, in)
	assert.Contains(t, buf.String(), "main:entry#0 iadd")
}

func TestTraceSinkSrcModeCoalesces(t *testing.T) {
	var buf bytes.Buffer
	sink := NewTraceSink(TraceSrc, &buf)
	fn := &il.Function{Name: "main"}
	block := &il.BasicBlock{Label: "entry"}

	sink.EmitInstr(fn, block, 0, &il.Instr{Line: 5})
	sink.EmitInstr(fn, block, 1, &il.Instr{Line: 5})
	sink.EmitInstr(fn, block, 2, &il.Instr{Line: 6})

	lines := countOccurrences(buf.String(), "\n")
	assert.Equal(t, 2, lines, "consecutive instructions sharing a line emit once")
}
