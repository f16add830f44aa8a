package pm_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyxlang/nyxc/internal/manifest"
	"github.com/nyxlang/nyxc/internal/pm"
)

type fakeSource struct {
	manifests map[string]*manifest.Manifest
}

func (f *fakeSource) Manifest(name string, version manifest.Version, hasVersion bool) (*manifest.Manifest, error) {
	m, ok := f.manifests[name]
	if !ok {
		return nil, fmt.Errorf("no such package %q", name)
	}
	return m, nil
}

func dep(name string, major, minor, patch int) manifest.Dependency {
	return manifest.Dependency{Name: name, Version: manifest.Version{Major: major, Minor: minor, Patch: patch}, HasVer: true}
}

func mf(name string, version manifest.Version, deps ...manifest.Dependency) *manifest.Manifest {
	return &manifest.Manifest{Kind: manifest.Library, Name: name, Version: version, Dependencies: deps}
}

func TestResolverTopologicalOrder(t *testing.T) {
	src := &fakeSource{manifests: map[string]*manifest.Manifest{
		"core": mf("core", manifest.Version{Major: 1}),
		"io":   mf("io", manifest.Version{Major: 1}, dep("core", 1, 0, 0)),
	}}
	root := mf("app", manifest.Version{}, dep("io", 1, 0, 0))
	r := &pm.Resolver{Source: src}

	deps, err := r.Resolve(root)
	require.NoError(t, err)
	require.Len(t, deps, 2)
	assert.Equal(t, "core", deps[0].Name, "a dependency must precede its dependent")
	assert.Equal(t, "io", deps[1].Name)
}

func TestResolverDetectsCycle(t *testing.T) {
	src := &fakeSource{manifests: map[string]*manifest.Manifest{
		"a": mf("a", manifest.Version{Major: 1}, dep("b", 1, 0, 0)),
		"b": mf("b", manifest.Version{Major: 1}, dep("a", 1, 0, 0)),
	}}
	root := mf("app", manifest.Version{}, dep("a", 1, 0, 0))
	r := &pm.Resolver{Source: src}

	_, err := r.Resolve(root)
	require.Error(t, err)
}

func TestResolverWarnsOnSameMajorDowngrade(t *testing.T) {
	src := &fakeSource{manifests: map[string]*manifest.Manifest{
		"core": mf("core", manifest.Version{Major: 1, Minor: 5}),
		"a":    mf("a", manifest.Version{Major: 1}, dep("core", 1, 5, 0)),
		"b":    mf("b", manifest.Version{Major: 1}, dep("core", 1, 2, 0)),
	}}
	root := mf("app", manifest.Version{}, dep("a", 1, 0, 0), dep("b", 1, 0, 0))

	var warnings []string
	r := &pm.Resolver{Source: src, Warn: func(msg string) { warnings = append(warnings, msg) }}

	deps, err := r.Resolve(root)
	require.NoError(t, err)
	assert.Len(t, deps, 3)
	assert.NotEmpty(t, warnings)
}

func TestResolverFailsOnMajorVersionConflict(t *testing.T) {
	src := &fakeSource{manifests: map[string]*manifest.Manifest{
		"core": mf("core", manifest.Version{Major: 1}),
		"a":    mf("a", manifest.Version{Major: 1}, dep("core", 1, 0, 0)),
		"b":    mf("b", manifest.Version{Major: 1}, dep("core", 2, 0, 0)),
	}}
	root := mf("app", manifest.Version{}, dep("a", 1, 0, 0), dep("b", 1, 0, 0))
	r := &pm.Resolver{Source: src}

	_, err := r.Resolve(root)
	require.Error(t, err)
}
