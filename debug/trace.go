// Package debug implements the VM's debugger-facing surface: the trace
// sink, label and source-line breakpoints, variable and memory watches,
// and a scripted step/continue controller. It implements vm.Hooks so a
// driver wires a *Controller into vm.Machine.Hooks without the vm
// package importing this one back.
package debug

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/splanck/viper-sub028/il"
)

// TraceMode selects what the trace sink emits, per §4.7.
type TraceMode int

const (
	TraceOff TraceMode = iota
	TraceIL
	TraceSrc
)

// ParseTraceMode maps the --trace flag's spelling to a TraceMode.
func ParseTraceMode(s string) (TraceMode, bool) {
	switch s {
	case "", "off":
		return TraceOff, true
	case "il":
		return TraceIL, true
	case "src":
		return TraceSrc, true
	default:
		return TraceOff, false
	}
}

// TraceSink emits one line per instruction (IL mode) or one line per
// source-coordinate transition (SRC mode, coalescing consecutive
// instructions that share a line). A single source path stands in for
// "the" source file backing the running module, since the in-core IL
// model tracks only a line number per instruction, not a file id.
type TraceSink struct {
	Mode   TraceMode
	Out    io.Writer
	Source string // path used to resolve lines in TraceSrc mode; "" means unknown

	lines    []string // lazily loaded, cached
	loaded   bool
	lastLine int
}

// NewTraceSink constructs a sink writing to out in the given mode.
func NewTraceSink(mode TraceMode, out io.Writer) *TraceSink {
	return &TraceSink{Mode: mode, Out: out, lastLine: -1}
}

// EmitInstr records one executed instruction per the sink's mode.
func (t *TraceSink) EmitInstr(fn *il.Function, block *il.BasicBlock, ip int, in *il.Instr) {
	if t == nil || t.Mode == TraceOff || t.Out == nil {
		return
	}
	switch t.Mode {
	case TraceIL:
		fmt.Fprintf(t.Out, "%s:%s#%d %s %s\n", fn.Name, block.Label, ip, in.Op, operandsString(in))
	case TraceSrc:
		if in.Line == t.lastLine {
			return
		}
		t.lastLine = in.Line
		fmt.Fprintf(t.Out, "%s:%d\n", t.sourceName(), in.Line)
	}
}

// ResetLine clears the SRC-mode coalescing state; called on block entry
// so a line repeated after a branch legitimately emits again.
func (t *TraceSink) ResetLine() {
	if t != nil {
		t.lastLine = -1
	}
}

func (t *TraceSink) sourceName() string {
	if t.Source == "" {
		return "??"
	}
	return t.Source
}

func operandsString(in *il.Instr) string {
	s := ""
	for i, op := range in.Operands {
		if i > 0 {
			s += ", "
		}
		s += op.String()
	}
	for i, lbl := range in.Successors {
		if s != "" || i > 0 {
			s += ", "
		}
		s += lbl
	}
	return s
}

// loadLines reads t.Source once and caches its lines for SRC-mode
// follow-on printing (the line itself, not just the coordinate).
func (t *TraceSink) loadLines() {
	if t.loaded {
		return
	}
	t.loaded = true
	if t.Source == "" {
		return
	}
	f, err := os.Open(t.Source)
	if err != nil {
		return
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		t.lines = append(t.lines, sc.Text())
	}
}

// SourceLine returns the cached text of line n (1-based), or "" if the
// source is unavailable or the line is out of range.
func (t *TraceSink) SourceLine(n int) string {
	t.loadLines()
	if n < 1 || n > len(t.lines) {
		return ""
	}
	return t.lines[n-1]
}
