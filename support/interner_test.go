package support

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternerIdempotentAndInjective(t *testing.T) {
	in := NewInterner(0)

	a1 := in.Intern("alpha")
	a2 := in.Intern("alpha")
	b := in.Intern("beta")

	assert.Equal(t, a1, a2, "interning the same bytes twice must return the same symbol")
	assert.NotEqual(t, a1, b, "interning different bytes must never collide")
	assert.NotEqual(t, InvalidSymbol, a1)
}

func TestInternerLookupRoundTrip(t *testing.T) {
	in := NewInterner(0)
	sym := in.Intern("gamma")

	s, ok := in.Lookup(sym)
	require.True(t, ok)
	assert.Equal(t, "gamma", s)

	_, ok = in.Lookup(InvalidSymbol)
	assert.False(t, ok)

	_, ok = in.Lookup(Symbol(9999))
	assert.False(t, ok)
}

func TestInternerCapacityOverflowReturnsInvalid(t *testing.T) {
	in := NewInterner(2) // room for exactly one real string beyond slot 0
	first := in.Intern("one")
	assert.NotEqual(t, InvalidSymbol, first)

	// Interning the same string again must still succeed (idempotent).
	again := in.Intern("one")
	assert.Equal(t, first, again)

	// A second distinct string overflows the cap.
	overflow := in.Intern("two")
	assert.Equal(t, InvalidSymbol, overflow)
}

func TestInternerCloneIsIndependent(t *testing.T) {
	in := NewInterner(0)
	sym := in.Intern("delta")

	clone := in.Clone()
	s, ok := clone.Lookup(sym)
	require.True(t, ok)
	assert.Equal(t, "delta", s)

	// Mutating the clone must not affect the original.
	clone.Intern("epsilon")
	assert.Equal(t, 1, in.Len())
	assert.Equal(t, 2, clone.Len())
}
