package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/nyxlang/nyxc/internal/driver"
)

func init() {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "build the workspace's test driver and run every test",
		RunE:  runTest,
	}
	rootCmd.AddCommand(cmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	ctx, err := runPipeline(cmd, true)
	if err != nil {
		return err
	}
	written, err := driver.WriteArtifacts(ctx.Dir, ctx.Emitted)
	if err != nil {
		return err
	}
	binPath, err := compileEmitted(ctx.Dir, written, ctx.Manifest.Name+"_test")
	if err != nil {
		return err
	}
	os.Exit(runBinary(binPath, nil))
	return nil
}
