package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nyxlang/nyxc/internal/diagnostics"
	"github.com/nyxlang/nyxc/internal/driver"
)

// runPipeline builds a driver.Context from persistent flags and runs
// the standard build pipeline (resolve → load → check → codegen),
// registering a terminal diagnostics printer and, when --trace is set,
// writing a YAML trace file on the way out. forTest selects the test
// build variant (synthesised driver, no missing-entry-point check).
func runPipeline(cmd *cobra.Command, forTest bool) (*driver.Context, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}

	ctx := driver.NewContext(dir, home)
	ctx.ForTest = forTest
	ctx.DumpTokens, _ = cmd.Flags().GetBool("tokens")
	ctx.DumpAST, _ = cmd.Flags().GetBool("ast")
	if trace, _ := cmd.Flags().GetBool("trace"); trace {
		ctx.Trace = &driver.Trace{}
	}
	ctx.Compilation.Bus.Subscribe(driver.NewTerminalPrinter(os.Stderr))

	pipeline := driver.BuildPipeline()
	runErr := pipeline.Run(ctx)

	if ctx.Trace != nil {
		if data, err := yaml.Marshal(ctx.Trace); err == nil {
			_ = os.WriteFile("nyxc-trace.yaml", data, 0o644)
		}
	}

	if runErr != nil {
		return ctx, runErr
	}
	if ctx.Compilation.Bus.HasErrors() {
		return ctx, fmt.Errorf("compilation failed with %d error(s)", ctx.Compilation.Bus.Count(diagnostics.Error))
	}
	return ctx, nil
}
