package vm

import (
	"fmt"

	"github.com/splanck/viper-sub028/runtime"
)

// ErrorValue is the payload a trap hands to its handler block's first
// parameter.
type ErrorValue struct {
	Kind    runtime.TrapKind
	Code    int64
	IP      int
	Line    int
	Message string
}

// ResumeToken is the opaque capability a handler's second parameter
// carries, recording the trapping instruction's address and the EH-stack
// depth the handler was dispatched at, so resume.same can escalate to
// the next outer handler rather than looping forever.
type ResumeToken struct {
	TrapFrameIndex int // index into Machine.frames at trap time
	TrapBlock      string
	TrapIP         int
	EHDepthAtPush  int // len(Machine.ehStack) right after the handling frame was popped
}

// ehFrame is one active handler registration: the handler block, the
// call-stack depth at push time, and the instruction pointer in the
// pushing frame, per the EH-push record shape.
type ehFrame struct {
	HandlerLabel string
	CallDepth    int
	IP           int
	FrameIndex   int
}

// Trap carries everything needed to format the stable wire diagnostic
// (func, instr index, line, kind, legacy code, optional block) when no
// handler catches it.
type Trap struct {
	FuncName   string
	InstrIndex int
	Line       int
	Kind       runtime.TrapKind
	Code       int64
	BlockLabel string
	Message    string
}

// String renders the stable wire format:
// "Trap @<function>#<instr_index> line <N>: <KindName> (code=<C>) (block <label>)"
func (t Trap) String() string {
	s := fmt.Sprintf("Trap @%s#%d line %d: %s (code=%d)", t.FuncName, t.InstrIndex, t.Line, t.Kind, t.Code)
	if t.BlockLabel != "" {
		s += fmt.Sprintf(" (block %s)", t.BlockLabel)
	}
	return s
}

func (t Trap) Error() string { return t.String() }
