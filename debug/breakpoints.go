package debug

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/splanck/viper-sub028/support"
)

// LabelBreakpoints is a set of interned handler-block-like label symbols.
// Symbols (not raw strings) keep the per-instruction membership check a
// dense integer lookup.
type LabelBreakpoints struct {
	interner *support.Interner
	set      map[support.Symbol]struct{}
}

// NewLabelBreakpoints returns an empty label breakpoint set.
func NewLabelBreakpoints() *LabelBreakpoints {
	return &LabelBreakpoints{interner: support.NewInterner(0), set: make(map[support.Symbol]struct{})}
}

// Add registers label as a breakpoint.
func (lb *LabelBreakpoints) Add(label string) {
	lb.set[lb.interner.Intern(label)] = struct{}{}
}

// Hit reports whether label is a registered breakpoint.
func (lb *LabelBreakpoints) Hit(label string) bool {
	sym, ok := lb.interner.LookupSymbol(label)
	if !ok {
		return false
	}
	_, hit := lb.set[sym]
	return hit
}

// SourceBreakpoint is one FILE:LINE breakpoint record. RequireFullPath
// false allows a basename-only match (--break-src foo.il:10 hitting any
// file named foo.il).
type SourceBreakpoint struct {
	File            string // normalized full path, or "" if only basename given
	Basename        string
	Line            int
	RequireFullPath bool
}

// ParseSourceBreakpoint parses a "FILE:LINE" or "LINE"-only spelling. A
// bare line number leaves File/Basename empty and matches any file. A FILE
// with no directory part sets only Basename and matches any file of that
// name; a FILE with a directory part requires the full path to match.
func ParseSourceBreakpoint(spec string) (SourceBreakpoint, bool) {
	idx := strings.LastIndex(spec, ":")
	if idx < 0 {
		n, err := strconv.Atoi(spec)
		if err != nil {
			return SourceBreakpoint{}, false
		}
		return SourceBreakpoint{Line: n}, true
	}
	file, lineStr := spec[:idx], spec[idx+1:]
	n, err := strconv.Atoi(lineStr)
	if err != nil {
		return SourceBreakpoint{}, false
	}
	if filepath.Base(file) == file {
		return SourceBreakpoint{Basename: file, Line: n}, true
	}
	return SourceBreakpoint{File: file, Basename: filepath.Base(file), Line: n, RequireFullPath: true}, true
}

// fileLineKey coalesces hits so a multi-instruction source line breaks
// exactly once per entry into it.
type fileLineKey struct {
	file string
	line int
}

// SourceBreakpoints holds every registered source-line breakpoint plus
// the coalescing state the controller consults on each instruction.
type SourceBreakpoints struct {
	sm      *support.SourceManager
	bps     []SourceBreakpoint
	lastHit map[fileLineKey]bool
}

// NewSourceBreakpoints returns an empty set, normalizing full paths
// through sm when one is provided.
func NewSourceBreakpoints(sm *support.SourceManager) *SourceBreakpoints {
	return &SourceBreakpoints{sm: sm, lastHit: make(map[fileLineKey]bool)}
}

// Add registers bp, normalizing its File through the source manager.
func (s *SourceBreakpoints) Add(bp SourceBreakpoint) {
	if bp.File != "" && s.sm != nil {
		bp.File = s.sm.NormalizePath(bp.File)
	}
	s.bps = append(s.bps, bp)
}

// Hit reports whether (file, line) matches a registered breakpoint not
// already coalesced for this entry, and marks it coalesced if so.
func (s *SourceBreakpoints) Hit(file string, line int) bool {
	norm := file
	if s.sm != nil {
		norm = s.sm.NormalizePath(file)
	}
	base := filepath.Base(file)

	matched := false
	for _, bp := range s.bps {
		if bp.Line != line {
			continue
		}
		switch {
		case bp.File == "" && bp.Basename == "":
			matched = true
		case bp.RequireFullPath && bp.File == norm:
			matched = true
		case !bp.RequireFullPath && bp.Basename == base:
			matched = true
		}
		if matched {
			break
		}
	}
	if !matched {
		return false
	}
	key := fileLineKey{file: norm, line: line}
	if s.lastHit[key] {
		return false
	}
	s.lastHit[key] = true
	return true
}

// ResetLastHit clears the coalescing state, called at block entry so the
// next occurrence of a line (e.g. a loop back-edge) legitimately hits
// again.
func (s *SourceBreakpoints) ResetLastHit() {
	for k := range s.lastHit {
		delete(s.lastHit, k)
	}
}
