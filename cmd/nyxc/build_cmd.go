package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nyxlang/nyxc/internal/driver"
)

func init() {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "check the workspace and emit target-language source",
		RunE:  runBuild,
	}
	rootCmd.AddCommand(cmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx, err := runPipeline(cmd, false)
	if err != nil {
		return err
	}
	written, err := driver.WriteArtifacts(ctx.Dir, ctx.Emitted)
	if err != nil {
		return err
	}
	for _, path := range written {
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	return nil
}
