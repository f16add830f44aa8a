package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nyxlang/nyxc/internal/driver"
)

func init() {
	cmd := &cobra.Command{
		Use:   "init [name]",
		Short: "scaffold a new application workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runInit,
	}
	rootCmd.AddCommand(cmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	dir, err := os.Getwd()
	if err != nil {
		return err
	}
	name := ""
	if len(args) > 0 {
		name = args[0]
	}
	if err := driver.InitWorkspace(dir, name); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "initialised workspace %s in %s\n", name, dir)
	return nil
}
