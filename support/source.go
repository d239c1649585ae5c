package support

import (
	"fmt"
	"math"
	"os"
	"path"
	"runtime"
	"strings"
	"sync"
)

// FileID is a dense handle for a registered source path. 0 is invalid.
type FileID uint32

// InvalidFileID never names a registered file.
const InvalidFileID FileID = 0

// SourceManager registers file paths and hands out dense FileIDs,
// normalizing paths so the same logical file is never registered twice.
type SourceManager struct {
	mu       sync.RWMutex
	paths    []string // index 0 unused, reserved for InvalidFileID
	byPath   map[string]FileID
	foldCase bool
}

// NewSourceManager constructs an empty source manager. Path case folding is
// enabled automatically on traditionally case-insensitive platforms.
func NewSourceManager() *SourceManager {
	return &SourceManager{
		paths:    []string{""},
		byPath:   make(map[string]FileID),
		foldCase: runtime.GOOS == "windows" || runtime.GOOS == "darwin",
	}
}

// normalize collapses "." and ".." segments, unifies separators to "/", and
// folds ASCII case on case-insensitive hosts.
func (sm *SourceManager) normalize(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean(p)
	if sm.foldCase {
		p = strings.ToLower(p)
	}
	return p
}

// Register returns the FileID for path, registering it if this is the first
// time this logical file has been seen. Overflowing the 32-bit id space is
// a fatal error reported to stderr; InvalidFileID is returned in that case.
func (sm *SourceManager) Register(p string) FileID {
	norm := sm.normalize(p)

	sm.mu.RLock()
	if id, ok := sm.byPath[norm]; ok {
		sm.mu.RUnlock()
		return id
	}
	sm.mu.RUnlock()

	sm.mu.Lock()
	defer sm.mu.Unlock()
	if id, ok := sm.byPath[norm]; ok {
		return id
	}
	if len(sm.paths) >= math.MaxUint32 {
		fmt.Fprintf(os.Stderr, "source manager: file-id space exhausted registering %q\n", p)
		return InvalidFileID
	}
	id := FileID(len(sm.paths))
	sm.paths = append(sm.paths, p)
	sm.byPath[norm] = id
	return id
}

// Path returns the original (non-normalized) path registered under id.
func (sm *SourceManager) Path(id FileID) (string, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	if id == InvalidFileID || int(id) >= len(sm.paths) {
		return "", false
	}
	return sm.paths[id], true
}

// NormalizePath exposes the normalization rule for callers that need to
// compare paths (e.g. source-line breakpoints) without registering them.
func (sm *SourceManager) NormalizePath(p string) string {
	return sm.normalize(p)
}
