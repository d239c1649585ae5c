package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/splanck/viper-sub028/registry"
	"github.com/splanck/viper-sub028/runtime"
	"github.com/splanck/viper-sub028/vm"
	"github.com/urfave/cli/v3"
)

var benchCommand = &cli.Command{
	Name:      "bench",
	Usage:     "run an IL module's main function under each dispatch strategy and report throughput",
	ArgsUsage: "<file.il>",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "n", Aliases: []string{"count"}, Usage: "iterations per strategy", Value: 1},
		&cli.IntFlag{Name: "max-steps", Usage: "abort after N executed instructions (0 = unbounded)"},
		&cli.BoolFlag{Name: "table", Usage: "only run the table-dispatch strategy"},
		&cli.BoolFlag{Name: "switch", Usage: "only run the switch-dispatch strategy"},
		&cli.BoolFlag{Name: "threaded", Usage: "only run the threaded-dispatch strategy"},
		&cli.BoolFlag{Name: "json", Usage: "emit one JSON object per line instead of plain text"},
		&cli.BoolFlag{Name: "v", Usage: "print the run id and per-iteration timings"},
	},
	Action: benchAction,
}

func benchAction(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("bench: missing <file.il>")
	}

	mod, _, err := loadModule(path)
	if err != nil {
		return err
	}
	fn, ok := mod.FindFunction("main")
	if !ok {
		return fmt.Errorf("bench: %s defines no @main function", path)
	}

	tbl := registry.NewTable()
	if err := runtime.RegisterCoreFunctions(tbl, io.Discard); err != nil {
		return err
	}

	strategies := selectedStrategies(cmd)
	n := cmd.Int("n")
	if n <= 0 {
		n = 1
	}

	runID := uuid.New()
	if cmd.Bool("v") {
		fmt.Printf("run_id: %s\n", runID)
	}

	for _, strat := range strategies {
		var totalInstr int64
		var totalElapsed time.Duration
		for i := 0; i < n; i++ {
			m := vm.NewMachine(mod, tbl)
			m.Strategy = strat
			if maxSteps := cmd.Int("max-steps"); maxSteps > 0 {
				m.MaxSteps = int64(maxSteps)
			}
			start := time.Now()
			res, err := m.Run(fn, nil)
			elapsed := time.Since(start)
			if err != nil {
				return err
			}
			if res.Trap != nil {
				return fmt.Errorf("bench: %s", res.Trap.String())
			}
			totalInstr += m.StepCount()
			totalElapsed += elapsed
		}

		instrPerRun := totalInstr / int64(n)
		timeMs := float64(totalElapsed.Milliseconds()) / float64(n)
		insnsPerSec := 0.0
		if totalElapsed > 0 {
			insnsPerSec = float64(totalInstr) / totalElapsed.Seconds()
		}

		if cmd.Bool("json") {
			fmt.Printf(`{"file":%q,"strategy":%q,"instr":%d,"time_ms":%.3f,"insns_per_sec":%.1f,"run_id":%q}`+"\n",
				path, strat.String(), instrPerRun, timeMs, insnsPerSec, runID)
		} else {
			fmt.Printf("BENCH %s %s instr=%d time_ms=%.3f insns_per_sec=%.1f\n",
				path, strat.String(), instrPerRun, timeMs, insnsPerSec)
		}
	}
	return nil
}

func selectedStrategies(cmd *cli.Command) []vm.Strategy {
	var out []vm.Strategy
	if cmd.Bool("table") {
		out = append(out, vm.StrategyTable)
	}
	if cmd.Bool("switch") {
		out = append(out, vm.StrategySwitch)
	}
	if cmd.Bool("threaded") {
		out = append(out, vm.StrategyThreaded)
	}
	if len(out) == 0 {
		out = []vm.Strategy{vm.StrategySwitch, vm.StrategyTable, vm.StrategyThreaded}
	}
	return out
}
