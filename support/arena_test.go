package support

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaAllocateHonorsAlignment(t *testing.T) {
	a := NewArena(64)

	b1 := a.Allocate(3, 1)
	require.NotNil(t, b1)
	assert.Equal(t, 3, a.Used())

	b2 := a.Allocate(8, 8)
	require.NotNil(t, b2)
	assert.Equal(t, 0, a.Used()%8)
}

func TestArenaRejectsBadAlignment(t *testing.T) {
	a := NewArena(64)

	assert.Nil(t, a.Allocate(4, 0))
	assert.Nil(t, a.Allocate(4, 3))
	assert.Equal(t, 0, a.Used())
}

func TestArenaExhaustionReturnsNil(t *testing.T) {
	a := NewArena(8)

	require.NotNil(t, a.Allocate(8, 1))
	assert.Nil(t, a.Allocate(1, 1))
}

func TestArenaResetInvalidatesCursor(t *testing.T) {
	a := NewArena(16)

	a.Allocate(10, 1)
	assert.Equal(t, 10, a.Used())

	a.Reset()
	assert.Equal(t, 0, a.Used())

	b := a.Allocate(16, 1)
	require.NotNil(t, b)
	assert.Len(t, b, 16)
}

func TestArenaCapReportsBufferSize(t *testing.T) {
	a := NewArena(32)
	assert.Equal(t, 32, a.Cap())
}
