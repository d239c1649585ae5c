package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/splanck/viper-sub028/debug"
	"github.com/splanck/viper-sub028/il"
	"github.com/splanck/viper-sub028/registry"
	"github.com/splanck/viper-sub028/runtime"
	"github.com/splanck/viper-sub028/vm"
	"github.com/urfave/cli/v3"
)

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "execute an IL module's main function",
	ArgsUsage: "<file.il>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "trace", Usage: "emit an execution trace: il or src"},
		&cli.IntFlag{Name: "max-steps", Usage: "abort after N executed instructions (0 = unbounded)"},
		&cli.StringSliceFlag{Name: "break", Usage: "pause at LABEL or FILE:LINE (repeatable)"},
		&cli.StringSliceFlag{Name: "break-src", Usage: "pause at FILE:LINE (repeatable)"},
		&cli.StringSliceFlag{Name: "watch", Usage: "report writes through temp tN (repeatable)"},
		&cli.StringFlag{Name: "debug-cmds", Usage: "scripted step/continue commands, one per line"},
		&cli.BoolFlag{Name: "step", Usage: "single-step at every breakpoint hit, no prompt"},
		&cli.BoolFlag{Name: "continue", Usage: "never pause interactively at a hit"},
		&cli.BoolFlag{Name: "count", Usage: "print the executed instruction count"},
		&cli.BoolFlag{Name: "time", Usage: "print wall-clock run time"},
		&cli.StringFlag{Name: "stdin", Usage: "file whose lines back rt_read_line"},
		&cli.BoolFlag{Name: "dump-trap", Usage: "also echo an unhandled trap to stderr"},
	},
	Action: runAction,
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("run: missing <file.il>")
	}

	mod, sm, err := loadModule(path)
	if err != nil {
		return err
	}
	fn, ok := mod.FindFunction("main")
	if !ok {
		return fmt.Errorf("run: %s defines no @main function", path)
	}

	tbl := registry.NewTable()
	if err := runtime.RegisterCoreFunctions(tbl, os.Stdout); err != nil {
		return err
	}
	if stdinPath := cmd.String("stdin"); stdinPath != "" {
		f, err := os.Open(stdinPath)
		if err != nil {
			return fmt.Errorf("run: open --stdin file: %w", err)
		}
		defer f.Close()
		for _, ext := range runtime.GetIOFunctions(f) {
			if err := tbl.Register(ext); err != nil {
				return err
			}
		}
	}

	traceMode, ok := debug.ParseTraceMode(cmd.String("trace"))
	if !ok {
		traceMode = debug.TraceOff
	}
	sink := debug.NewTraceSink(traceMode, os.Stdout)
	sink.Source = path

	ctrl := debug.NewController(sm, sink, os.Stdout)
	for _, spec := range cmd.StringSlice("break") {
		if bp, ok := debug.ParseSourceBreakpoint(spec); ok && looksLikeSourceBreak(spec) {
			ctrl.Sources.Add(bp)
		} else {
			ctrl.Labels.Add(spec)
		}
	}
	for _, spec := range cmd.StringSlice("break-src") {
		if bp, ok := debug.ParseSourceBreakpoint(spec); ok {
			ctrl.Sources.Add(bp)
		}
	}
	for _, spec := range cmd.StringSlice("watch") {
		if id, ok := parseTempRef(spec); ok {
			ctrl.Vars.Register(spec, id)
		}
	}

	switch {
	case cmd.String("debug-cmds") != "":
		actions, err := debug.ParseScript(cmd.String("debug-cmds"))
		if err != nil {
			return err
		}
		ctrl.SetScript(actions)
	case cmd.Bool("step"):
		ctrl.Interact = func(reason string) debug.ScriptAction {
			return debug.ScriptAction{Kind: debug.ActionStep, N: 1}
		}
	case cmd.Bool("continue"):
		ctrl.Interact = func(reason string) debug.ScriptAction {
			return debug.ScriptAction{Kind: debug.ActionContinue}
		}
	default:
		ctrl.Interact = interactivePrompt()
	}

	m := vm.NewMachine(mod, tbl)
	m.Strategy = defaultStrategy()
	if n := cmd.Int("max-steps"); n > 0 {
		m.MaxSteps = int64(n)
	}
	m.Hooks = ctrl

	start := time.Now()
	res, err := m.Run(fn, nil)
	elapsed := time.Since(start)
	if err != nil {
		return err
	}

	if cmd.Bool("count") {
		fmt.Printf("instructions: %d\n", m.StepCount())
	}
	if cmd.Bool("time") {
		fmt.Printf("time_ms: %d\n", elapsed.Milliseconds())
	}

	if res.Trap != nil {
		if cmd.Bool("dump-trap") {
			fmt.Fprintln(os.Stderr, res.Trap.String())
		}
		fmt.Println(res.Trap.String())
		os.Exit(1)
	}
	fmt.Printf("exit: %d\n", res.Value.I64)
	return nil
}

// looksLikeSourceBreak reports whether spec parses as FILE:LINE (rather
// than a bare label), by requiring at least one ':' before the trailing
// digits — a bare label like "handler" never matches.
func looksLikeSourceBreak(spec string) bool {
	idx := strings.LastIndex(spec, ":")
	if idx < 0 {
		return false
	}
	_, err := strconv.Atoi(spec[idx+1:])
	return err == nil
}

// parseTempRef accepts the IL's own temp spelling, "t<N>" or "%t<N>".
func parseTempRef(s string) (il.TempID, bool) {
	s = strings.TrimPrefix(s, "%")
	s = strings.TrimPrefix(s, "t")
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return il.TempID(n), true
}

// interactivePrompt builds a debug.Controller.Interact hook backed by a
// readline REPL, used when the user gave no --debug-cmds script and no
// blanket --step/--continue.
func interactivePrompt() func(reason string) debug.ScriptAction {
	rl, err := readline.New("(ilc) ")
	if err != nil {
		return func(reason string) debug.ScriptAction {
			return debug.ScriptAction{Kind: debug.ActionContinue}
		}
	}
	return func(reason string) debug.ScriptAction {
		fmt.Printf("stopped: %s\n", reason)
		for {
			line, err := rl.Readline()
			if err != nil {
				return debug.ScriptAction{Kind: debug.ActionContinue}
			}
			action, err := debug.ParseInteractiveLine(line)
			if err != nil {
				fmt.Println(err)
				continue
			}
			return action
		}
	}
}
