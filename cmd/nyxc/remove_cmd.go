package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nyxlang/nyxc/internal/driver"
)

func init() {
	cmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "remove a dependency from the workspace manifest",
		Args:  cobra.ExactArgs(1),
		RunE:  runRemove,
	}
	rootCmd.AddCommand(cmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	dir, err := os.Getwd()
	if err != nil {
		return err
	}
	if err := driver.RemoveDependency(dir, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed dependency %s\n", args[0])
	return nil
}
