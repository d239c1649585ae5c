package support

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiagStringElidesMissingCoordinates(t *testing.T) {
	d := Diag{Severity: SeverityError, Message: "boom", Loc: Location{Path: "main.il", Line: 3, Column: 5}}
	assert.Equal(t, "main.il:3:5: error: boom", d.String())

	d2 := Diag{Severity: SeverityWarning, Message: "careful"}
	assert.Equal(t, "warning: careful", d2.String())

	d3 := Diag{Severity: SeverityNote, Message: "fyi", Loc: Location{Line: 7}}
	assert.Equal(t, "7: note: fyi", d3.String())
}

func TestExpectedOkAndErr(t *testing.T) {
	ok := Ok(42)
	assert.True(t, ok.IsOk())
	assert.Equal(t, 42, ok.Value)

	bad := Err[int](Errorf(Location{Line: 1}, "bad thing: %d", 7))
	assert.False(t, bad.IsOk())
	assert.Len(t, bad.Diags, 1)
	assert.Contains(t, bad.Diags[0].Message, "bad thing: 7")
}
