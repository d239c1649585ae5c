// Package support holds the leaf-level utilities shared by every other
// Viper package: the string interner, the source manager, diagnostics,
// and the bump arena.
package support

import "sync"

// Symbol is a dense handle returned by the Interner. The zero value,
// InvalidSymbol, never names a real string.
type Symbol uint32

// InvalidSymbol is returned whenever interning fails (capacity exhausted)
// or a lookup misses.
const InvalidSymbol Symbol = 0

// Interner maps byte sequences to dense Symbol handles. Interning the same
// bytes twice always returns the same Symbol; interning different bytes
// never returns the same Symbol. The interner is safe for concurrent use.
type Interner struct {
	mu       sync.RWMutex
	strings  []string          // index 0 is the unused slot for InvalidSymbol
	byString map[string]Symbol
	maxCap   int
}

// NewInterner constructs an empty interner. maxCap bounds the number of
// slots, including the reserved slot 0, so at most maxCap-1 distinct
// strings are held; a non-positive value means unbounded.
func NewInterner(maxCap int) *Interner {
	return &Interner{
		strings:  []string{""}, // slot 0 reserved for InvalidSymbol
		byString: make(map[string]Symbol),
		maxCap:   maxCap,
	}
}

// Intern returns the dense Symbol for s, allocating one if s has not been
// seen before. Once the interner is at capacity, further unseen strings
// return InvalidSymbol instead of growing past the cap.
func (in *Interner) Intern(s string) Symbol {
	in.mu.RLock()
	if sym, ok := in.byString[s]; ok {
		in.mu.RUnlock()
		return sym
	}
	in.mu.RUnlock()

	in.mu.Lock()
	defer in.mu.Unlock()
	// Re-check under the write lock in case another goroutine interned
	// the same string first.
	if sym, ok := in.byString[s]; ok {
		return sym
	}
	if in.maxCap > 0 && len(in.strings) >= in.maxCap {
		return InvalidSymbol
	}
	sym := Symbol(len(in.strings))
	in.strings = append(in.strings, s)
	in.byString[s] = sym
	return sym
}

// LookupSymbol returns the Symbol already assigned to s, without
// interning s if it is unseen. Useful for membership checks (e.g. label
// breakpoint sets) that must not grow the interner just by querying it.
func (in *Interner) LookupSymbol(s string) (Symbol, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	sym, ok := in.byString[s]
	return sym, ok
}

// Lookup returns the string for sym and whether sym names a real string.
func (in *Interner) Lookup(sym Symbol) (string, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if sym == InvalidSymbol || int(sym) >= len(in.strings) {
		return "", false
	}
	return in.strings[sym], true
}

// Len reports how many distinct strings have been interned.
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.strings) - 1
}

// Clone deep-copies the interner's owned storage so that the returned
// interner can be mutated independently of the receiver.
func (in *Interner) Clone() *Interner {
	in.mu.RLock()
	defer in.mu.RUnlock()
	out := &Interner{
		strings:  make([]string, len(in.strings)),
		byString: make(map[string]Symbol, len(in.byString)),
		maxCap:   in.maxCap,
	}
	copy(out.strings, in.strings)
	for k, v := range in.byString {
		out.byString[k] = v
	}
	return out
}
