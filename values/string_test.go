package values

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStringFromBytesChoosesDiscipline(t *testing.T) {
	small := NewStringFromBytes([]byte("hi"))
	assert.Equal(t, Small, small.discipline)

	big := NewStringFromBytes([]byte(strings.Repeat("x", smallCap+1)))
	assert.Equal(t, Heap, big.discipline)
	assert.Equal(t, smallCap+1, big.Len())
}

func TestStringEqualityComparesBytesNotDiscipline(t *testing.T) {
	a := NewStringFromBytes([]byte("match"))
	b := LiteralString([]byte("match"))
	assert.True(t, a.Equal(b))

	c := NewStringFromBytes([]byte("nomatch"))
	assert.False(t, a.Equal(c))
}

func TestHeapStringRefcountInvokesFinalizerAtZero(t *testing.T) {
	s := NewStringFromBytes([]byte(strings.Repeat("y", smallCap+5)))
	s = s.Ref()

	finalized := 0
	s.Release(func() { finalized++ })
	assert.Equal(t, 0, finalized, "one outstanding ref remains")

	s.Release(func() { finalized++ })
	assert.Equal(t, 1, finalized)
}

func TestLiteralAndSmallReleaseAreNoops(t *testing.T) {
	lit := LiteralString([]byte("const"))
	called := false
	lit.Release(func() { called = true })
	assert.False(t, called)

	small := NewStringFromBytes([]byte("ok"))
	small.Release(func() { called = true })
	assert.False(t, called)
}

func TestStringBuilderInlineThenHeapGrowth(t *testing.T) {
	b := NewStringBuilder()
	require.Equal(t, BuilderOK, b.AppendString("hello "))
	require.Equal(t, BuilderOK, b.AppendString(strings.Repeat("z", 200)))

	assert.Equal(t, 206, b.Len())
	built := b.Build()
	assert.Equal(t, 206, built.Len())
	assert.Equal(t, Heap, built.discipline)
}

func TestStringBuilderResetReleasesGrowth(t *testing.T) {
	b := NewStringBuilder()
	b.AppendString(strings.Repeat("a", 500))
	b.Reset()
	assert.Equal(t, 0, b.Len())
	require.Equal(t, BuilderOK, b.AppendString("fresh"))
	assert.Equal(t, "fresh", b.Build().String())
}

func TestStringBuilderSizeOverflow(t *testing.T) {
	b := &StringBuilder{length: maxBuilderSize}
	assert.Equal(t, BuilderSizeOverflow, b.AppendBytes([]byte("x")))
}
