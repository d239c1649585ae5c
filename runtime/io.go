package runtime

import (
	"bufio"
	"io"
	"strings"

	"github.com/splanck/viper-sub028/il"
	"github.com/splanck/viper-sub028/registry"
)

// GetIOFunctions returns the externs backing `--stdin`: a single
// rt_read_line helper that reads one newline-delimited line from in per
// call. It is kept separate from GetCoreFunctions since it is the one
// helper that needs an input source rather than an output sink, and
// most callers (tests, `bench`) never wire stdin at all.
func GetIOFunctions(in io.Reader) []registry.Extern {
	reader := bufio.NewReader(in)
	return []registry.Extern{
		{
			Name:       "rt_read_line",
			ParamTypes: nil,
			ReturnType: il.Str,
			Fn: func(args []registry.Value) (registry.Value, error) {
				line, err := reader.ReadString('\n')
				if err != nil && line == "" {
					return registry.Value{}, err
				}
				line = strings.TrimRight(line, "\r\n")
				return registry.Value{Type: il.Str, Str: line}, nil
			},
		},
	}
}
