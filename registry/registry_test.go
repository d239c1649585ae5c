package registry

import (
	"testing"

	"github.com/splanck/viper-sub028/il"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLookup(t *testing.T) {
	tbl := NewTable()
	err := tbl.Register(Extern{
		Name:       "rt_abs_i64",
		ParamTypes: []il.Type{il.I64},
		ReturnType: il.I64,
		Fn: func(args []Value) (Value, error) {
			n := args[0].I64
			if n < 0 {
				n = -n
			}
			return Value{Type: il.I64, I64: n}, nil
		},
	})
	require.NoError(t, err)

	ext, ok := tbl.Lookup("rt_abs_i64")
	require.True(t, ok)
	out, err := ext.Fn([]Value{{Type: il.I64, I64: -7}})
	require.NoError(t, err)
	assert.Equal(t, int64(7), out.I64)
}

func TestRegisterRejectsDuplicateSymbol(t *testing.T) {
	tbl := NewTable()
	ext := Extern{Name: "rt_str_len", ParamTypes: []il.Type{il.Str}, ReturnType: il.I64}
	require.NoError(t, tbl.Register(ext))
	assert.Error(t, tbl.Register(ext))
	assert.Equal(t, 1, tbl.Len())
}

func TestLookupMissingSymbol(t *testing.T) {
	tbl := NewTable()
	_, ok := tbl.Lookup("nope")
	assert.False(t, ok)
}
