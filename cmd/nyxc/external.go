package main

import (
	"os"
	"os/exec"
	"path/filepath"
)

// compilerFor picks the downstream compiler invoked over the emitted
// target text, honouring $CC the way the reference toolchain does.
func compilerFor() string {
	if cc := os.Getenv("CC"); cc != "" {
		return cc
	}
	return "cc"
}

// compileEmitted shells out to the downstream compiler over the
// workspace's written .c sources, producing a single binary. Per spec
// §6, any non-zero exit from this stage is propagated verbatim as
// nyxc's own exit code.
func compileEmitted(dir string, written []string, binName string) (string, error) {
	var sources []string
	for _, p := range written {
		if filepath.Ext(p) == ".c" {
			sources = append(sources, p)
		}
	}
	binPath := filepath.Join(dir, "build", binName)
	args := append([]string{}, sources...)
	args = append(args, "-I", filepath.Join(dir, "build"), "-o", binPath)
	cmd := exec.Command(compilerFor(), args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Dir = dir
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return binPath, nil
}

// runBinary execs binPath with args, inheriting std streams, and
// returns its exit code (0 when it exits cleanly).
func runBinary(binPath string, args []string) int {
	cmd := exec.Command(binPath, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode()
		}
		return 1
	}
	return 0
}
