// Package main implements nyxc, the command-line driver of spec §4.11:
// the thin external-collaborator boundary wrapping internal/driver's
// lex → parse → check → emit pipeline behind init/add/remove/build/
// clean/run/test subcommands. Its one-file-per-subcommand layout and
// persistent-flag pattern are grounded on the pack's cobra-based CLIs.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "nyxc",
	Short: "nyxc compiles nyx workspaces to target-language source",
	Long: `nyxc is the compilation driver for the nyx language: it resolves a
workspace's dependencies, checks its sources, and emits target-language
translation units for a downstream compiler.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("tokens", false, "print the token stream of every source file")
	rootCmd.PersistentFlags().Bool("ast", false, "print a summary of every parsed declaration")
	rootCmd.PersistentFlags().Bool("trace", false, "write a YAML trace of dependency resolution and pass timings")
}
