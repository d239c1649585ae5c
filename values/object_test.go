package values

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectFinalizerRunsExactlyOnceAtZero(t *testing.T) {
	calls := 0
	obj := NewObject(42, 16)
	obj.SetFinalizer(func(o *Object) { calls++ })

	obj.Ref()
	assert.Equal(t, int32(2), obj.RefCount())

	obj.Release()
	assert.Equal(t, 0, calls)

	obj.Release()
	assert.Equal(t, 1, calls)
}

func TestObjectReleaseCheck0RejectsSharedReference(t *testing.T) {
	obj := NewObject(1, 0)
	obj.Ref()

	err := obj.ReleaseCheck0()
	assert.Error(t, err)

	obj.Release()
	require.NoError(t, obj.ReleaseCheck0())
}

func TestHeapRegistryCapacityBound(t *testing.T) {
	reg := NewHeapRegistry(2)
	a, b, c := NewObject(1, 0), NewObject(1, 0), NewObject(1, 0)

	require.NoError(t, reg.Register(a))
	require.NoError(t, reg.Register(b))
	assert.Error(t, reg.Register(c))
	assert.Equal(t, 2, reg.Len())
}

func TestHeapRegistryUnregisterAndLive(t *testing.T) {
	reg := NewHeapRegistry(4)
	obj := NewObject(7, 8)
	require.NoError(t, reg.Register(obj))

	live := reg.Live()
	require.Len(t, live, 1)
	assert.Same(t, obj, live[0])

	reg.Unregister(obj)
	assert.Equal(t, 0, reg.Len())
}
