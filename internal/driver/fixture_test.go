package driver_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"

	"github.com/nyxlang/nyxc/internal/driver"
)

// writeTxtarWorkspace materializes a txtar archive's files under a fresh
// temp directory and returns the directory. Each archive entry's name is
// a path relative to the workspace root (e.g. "nemesis.manifest",
// "src/main.nyx", "src/ops.nyx"), letting a fixture bundle a whole
// multi-file workspace as one readable block in the test source.
func writeTxtarWorkspace(t *testing.T, archive string) string {
	t.Helper()
	dir := t.TempDir()
	ar := txtar.Parse([]byte(archive))
	for _, f := range ar.Files {
		full := filepath.Join(dir, f.Name)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, f.Data, 0o644))
	}
	return dir
}

func TestBuildPipelineCompilesMultiFileWorkspaceFixture(t *testing.T) {
	dir := writeTxtarWorkspace(t, `
-- nemesis.manifest --
@application
name shapes_app
version 1.0.0

-- src/ops.nyx --
function area(w: i32, h: i32): i32 = w * h

-- src/main.nyx --
function main(): unit {
	val total: i32 = area(3, 4)
	val t = (1, 2, 3)
	when t {
		(a, _, c) => a + c,
	}
}
`)

	ctx := driver.NewContext(dir, t.TempDir())
	require.NoError(t, driver.BuildPipeline().Run(ctx))

	assert.False(t, ctx.Compilation.Bus.HasErrors())
	require.Len(t, ctx.Emitted, 1)
	assert.Contains(t, ctx.Emitted[0].Source, "shapes_app_main")
}

func TestBuildPipelineFixtureReportsArityMismatch(t *testing.T) {
	dir := writeTxtarWorkspace(t, `
-- nemesis.manifest --
@application
name bad_app
version 1.0.0

-- src/ops.nyx --
function add(a: i32, b: i32): i32 = a + b

-- src/main.nyx --
function main(): unit {
	val x: i32 = add(1)
}
`)

	ctx := driver.NewContext(dir, t.TempDir())
	err := driver.BuildPipeline().Run(ctx)
	require.Error(t, err)
	assert.True(t, ctx.Compilation.Bus.HasErrors())
}
