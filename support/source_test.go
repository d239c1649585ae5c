package support

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceManagerDeduplicatesLogicalFiles(t *testing.T) {
	sm := NewSourceManager()

	a := sm.Register("./foo/../foo/bar.il")
	b := sm.Register("foo/bar.il")

	assert.Equal(t, a, b, "equivalent paths must normalize to the same FileID")
	assert.NotEqual(t, InvalidFileID, a)
}

func TestSourceManagerPathRoundTrip(t *testing.T) {
	sm := NewSourceManager()
	id := sm.Register("main.il")

	p, ok := sm.Path(id)
	require.True(t, ok)
	assert.Equal(t, "main.il", p)

	_, ok = sm.Path(InvalidFileID)
	assert.False(t, ok)
}

func TestNormalizePathIsIdempotent(t *testing.T) {
	sm := NewSourceManager()
	once := sm.NormalizePath("a/./b/../c.il")
	twice := sm.NormalizePath(once)
	assert.Equal(t, once, twice)
}
