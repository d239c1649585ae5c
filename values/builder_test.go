package values

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderAppendFormatOK(t *testing.T) {
	b := NewStringBuilder()
	require.Equal(t, BuilderOK, b.AppendFormat("n=%d str=%s", 7, "ok"))
	assert.Equal(t, "n=7 str=ok", b.Build().String())
}

func TestBuilderAppendFormatInvalidArg(t *testing.T) {
	b := NewStringBuilder()
	status := b.AppendFormat("n=%d", "not a number")
	assert.Equal(t, BuilderInvalidArg, status)
}

func TestBuilderStatusString(t *testing.T) {
	assert.Equal(t, "ok", BuilderOK.String())
	assert.Equal(t, "size_overflow", BuilderSizeOverflow.String())
	assert.Equal(t, "alloc_failed", BuilderAllocFailed.String())
	assert.Equal(t, "invalid_arg", BuilderInvalidArg.String())
}
