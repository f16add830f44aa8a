package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/nyxlang/nyxc/internal/driver"
)

func init() {
	cmd := &cobra.Command{
		Use:                "run [args...]",
		Short:              "build the workspace and run its entry point",
		DisableFlagParsing: false,
		RunE:               runRun,
	}
	rootCmd.AddCommand(cmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, err := runPipeline(cmd, false)
	if err != nil {
		return err
	}
	written, err := driver.WriteArtifacts(ctx.Dir, ctx.Emitted)
	if err != nil {
		return err
	}
	binPath, err := compileEmitted(ctx.Dir, written, ctx.Manifest.Name)
	if err != nil {
		return err
	}
	os.Exit(runBinary(binPath, args))
	return nil
}
