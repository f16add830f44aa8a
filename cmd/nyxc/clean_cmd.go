package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nyxlang/nyxc/internal/driver"
)

func init() {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "remove build artifacts and the resolved dependency cache",
		RunE:  runClean,
	}
	rootCmd.AddCommand(cmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	dir, err := os.Getwd()
	if err != nil {
		return err
	}
	for _, rel := range []string{"build", ".nyxc-deps", driver.LockFile, "nyxc-trace.yaml"} {
		if err := os.RemoveAll(filepath.Join(dir, rel)); err != nil {
			return err
		}
	}
	return nil
}
