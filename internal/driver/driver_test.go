package driver_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyxlang/nyxc/internal/driver"
)

func writeWorkspace(t *testing.T, manifestBody, srcBody string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, driver.ManifestFile), []byte(manifestBody), 0o644))
	srcDir := filepath.Join(dir, "src")
	require.NoError(t, os.MkdirAll(srcDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "main.nyx"), []byte(srcBody), 0o644))
	return dir
}

func TestBuildPipelineCompilesNoDependencyApplication(t *testing.T) {
	dir := writeWorkspace(t, "@application\nname app\nversion 1.0.0\n", `
function main(): unit {
	val x: i32 = 2 + 3 * 4
}
`)

	ctx := driver.NewContext(dir, t.TempDir())
	require.NoError(t, driver.BuildPipeline().Run(ctx))

	assert.False(t, ctx.Compilation.Bus.HasErrors())
	require.Len(t, ctx.Emitted, 1)
	assert.Contains(t, ctx.Emitted[0].Source, "app_main")
}

func TestBuildPipelineReportsMissingEntryPointForApplication(t *testing.T) {
	dir := writeWorkspace(t, "@application\nname app\nversion 1.0.0\n", `
function helper(): i32 { return 1 }
`)

	ctx := driver.NewContext(dir, t.TempDir())
	err := driver.BuildPipeline().Run(ctx)
	require.Error(t, err, "an application workspace with no main function must abort the build")
}

func TestBuildPipelineReportsCheckErrorsForUndefinedName(t *testing.T) {
	dir := writeWorkspace(t, "@application\nname app\nversion 1.0.0\n", `
function main(): unit {
	val x: i32 = y
}
`)

	ctx := driver.NewContext(dir, t.TempDir())
	err := driver.BuildPipeline().Run(ctx)
	require.Error(t, err)
	assert.True(t, ctx.Compilation.Bus.HasErrors())
}

func TestBuildPipelineRejectsCorruptManifest(t *testing.T) {
	dir := writeWorkspace(t, "@application\nname 1bad\nversion 1.0.0\n", `function main(): unit {}`)

	ctx := driver.NewContext(dir, t.TempDir())
	err := driver.BuildPipeline().Run(ctx)
	require.Error(t, err)
}
