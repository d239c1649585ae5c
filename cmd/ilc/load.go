package main

import (
	"fmt"
	"os"

	"github.com/splanck/viper-sub028/il"
	"github.com/splanck/viper-sub028/ilio"
	"github.com/splanck/viper-sub028/support"
	"github.com/splanck/viper-sub028/verify"
	"github.com/splanck/viper-sub028/vm"
)

// loadModule reads path, parses it, and verifies the result, returning
// the module plus a SourceManager the caller's debug facilities can
// reuse for path normalization. Diagnostics from either stage are
// printed to stderr before the zero-value error return.
func loadModule(path string) (*il.Module, *support.SourceManager, error) {
	sm := support.NewSourceManager()
	sm.Register(path)

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}

	parsed := ilio.Parse(path, string(src))
	if !parsed.IsOk() {
		for _, d := range parsed.Diags {
			fmt.Fprintln(os.Stderr, d.String())
		}
		return nil, nil, fmt.Errorf("%s: %d parse error(s)", path, len(parsed.Diags))
	}

	mod := parsed.Value
	verified := verify.Module(mod)
	if !verified.IsOk() {
		for _, d := range verified.Diags {
			fmt.Fprintln(os.Stderr, d.String())
		}
		return nil, nil, fmt.Errorf("%s: %d verification error(s)", path, len(verified.Diags))
	}

	return mod, sm, nil
}

// defaultStrategy reads VIPER_DISPATCH (table, switch, or threaded) for
// the dispatch backend a bare `run` should use absent an explicit flag;
// an unset or unrecognized value falls back to the Machine zero value,
// StrategySwitch.
func defaultStrategy() vm.Strategy {
	switch os.Getenv("VIPER_DISPATCH") {
	case "table":
		return vm.StrategyTable
	case "threaded":
		return vm.StrategyThreaded
	default:
		return vm.StrategySwitch
	}
}
