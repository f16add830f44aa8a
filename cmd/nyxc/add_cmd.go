package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nyxlang/nyxc/internal/driver"
)

func init() {
	cmd := &cobra.Command{
		Use:   "add <name> [version]",
		Short: "add a dependency to the workspace manifest",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runAdd,
	}
	rootCmd.AddCommand(cmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	dir, err := os.Getwd()
	if err != nil {
		return err
	}
	version := ""
	if len(args) == 2 {
		version = args[1]
	}
	if err := driver.AddDependency(dir, args[0], version); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "added dependency %s\n", args[0])
	return nil
}
