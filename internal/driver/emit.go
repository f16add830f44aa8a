package driver

import (
	"os"
	"path/filepath"

	"github.com/nyxlang/nyxc/internal/codegen"
)

// WriteArtifacts persists every emitted codegen.Unit under dir/build,
// per spec §6 "Emitted artifacts": a header and a source file per
// workspace.
func WriteArtifacts(dir string, units []codegen.Unit) ([]string, error) {
	outDir := filepath.Join(dir, "build")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}
	var written []string
	for _, u := range units {
		base := codegen.Mangle(u.Workspace)
		headerPath := filepath.Join(outDir, base+".h")
		sourcePath := filepath.Join(outDir, base+".c")
		if err := os.WriteFile(headerPath, []byte(u.Header), 0o644); err != nil {
			return nil, err
		}
		if err := os.WriteFile(sourcePath, []byte(u.Source), 0o644); err != nil {
			return nil, err
		}
		written = append(written, headerPath, sourcePath)
	}
	return written, nil
}
