// Command ilc is the driver for the core: it parses and verifies .il
// text modules and runs or benchmarks them, per the teacher's cmd/hey
// entry point built on github.com/urfave/cli/v3.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/splanck/viper-sub028/version"
	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:    "ilc",
		Usage:   "load, verify, run, and benchmark IL modules",
		Version: version.Version(),
		Commands: []*cli.Command{
			runCommand,
			benchCommand,
			verifyCommand,
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "ilc: %v\n", err)
		os.Exit(1)
	}
}
