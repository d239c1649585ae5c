package runtime

import (
	"fmt"
	"io"

	"github.com/splanck/viper-sub028/il"
	"github.com/splanck/viper-sub028/registry"
)

// GetCoreFunctions returns the externs the core ships concretely: enough
// to write and run non-trivial .il programs while the rest of the
// PHP-style I/O/array/regex/datetime surface in the teacher codebase is
// left out of scope. Output goes to out (os.Stdout in cmd/ilc).
func GetCoreFunctions(out io.Writer) []registry.Extern {
	return []registry.Extern{
		{
			Name:       "rt_print_str",
			ParamTypes: []il.Type{il.Str},
			ReturnType: il.Void,
			Fn: func(args []registry.Value) (registry.Value, error) {
				if _, err := fmt.Fprint(out, args[0].Str); err != nil {
					return registry.Value{}, err
				}
				return registry.Value{}, nil
			},
		},
		{
			Name:       "rt_print_i64",
			ParamTypes: []il.Type{il.I64},
			ReturnType: il.Void,
			Fn: func(args []registry.Value) (registry.Value, error) {
				if _, err := fmt.Fprintf(out, "%d", args[0].I64); err != nil {
					return registry.Value{}, err
				}
				return registry.Value{}, nil
			},
		},
		{
			Name:       "rt_str_concat",
			ParamTypes: []il.Type{il.Str, il.Str},
			ReturnType: il.Str,
			Fn: func(args []registry.Value) (registry.Value, error) {
				return registry.Value{Type: il.Str, Str: args[0].Str + args[1].Str}, nil
			},
		},
		{
			Name:       "rt_str_len",
			ParamTypes: []il.Type{il.Str},
			ReturnType: il.I64,
			Fn: func(args []registry.Value) (registry.Value, error) {
				return registry.Value{Type: il.I64, I64: int64(len(args[0].Str))}, nil
			},
		},
		{
			Name:       "rt_str_eq",
			ParamTypes: []il.Type{il.Str, il.Str},
			ReturnType: il.I1,
			Fn: func(args []registry.Value) (registry.Value, error) {
				eq := int64(0)
				if args[0].Str == args[1].Str {
					eq = 1
				}
				return registry.Value{Type: il.I1, I64: eq}, nil
			},
		},
		{
			Name:       "rt_abs_i64",
			ParamTypes: []il.Type{il.I64},
			ReturnType: il.I64,
			Fn: func(args []registry.Value) (registry.Value, error) {
				n := args[0].I64
				if n < 0 {
					n = -n
				}
				return registry.Value{Type: il.I64, I64: n}, nil
			},
		},
	}
}

// RegisterCoreFunctions populates tbl with every core helper, writing
// print output to out.
func RegisterCoreFunctions(tbl *registry.Table, out io.Writer) error {
	for _, fn := range GetCoreFunctions(out) {
		if err := tbl.Register(fn); err != nil {
			return err
		}
	}
	return nil
}
