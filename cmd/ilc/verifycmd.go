package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

var verifyCommand = &cli.Command{
	Name:      "il-verify",
	Usage:     "parse and verify an IL module without running it",
	ArgsUsage: "<file.il>",
	Action:    verifyAction,
}

func verifyAction(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("il-verify: missing <file.il>")
	}
	if _, _, err := loadModule(path); err != nil {
		os.Exit(1)
	}
	fmt.Printf("%s: ok\n", path)
	return nil
}
