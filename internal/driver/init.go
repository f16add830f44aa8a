package driver

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nyxlang/nyxc/internal/manifest"
)

// InitWorkspace scaffolds a new application workspace at dir: a
// nemesis.manifest naming it and an empty src/ directory, per spec §6.
func InitWorkspace(dir, name string) error {
	if name == "" {
		name = filepath.Base(dir)
	}
	manifestPath := filepath.Join(dir, ManifestFile)
	if _, err := os.Stat(manifestPath); err == nil {
		return fmt.Errorf("%s already exists", manifestPath)
	}
	if err := os.MkdirAll(filepath.Join(dir, "src"), 0o755); err != nil {
		return err
	}
	m := &manifest.Manifest{Kind: manifest.Application, Name: name, Version: manifest.Version{Major: 0, Minor: 1, Patch: 0}}
	f, err := os.Create(manifestPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return m.Render(f)
}

// AddDependency appends a dependency line to the workspace manifest at
// dir, creating a version-less entry when version is empty.
func AddDependency(dir, name, version string) error {
	path := filepath.Join(dir, ManifestFile)
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	m, err := manifest.Parse(f)
	f.Close()
	if err != nil {
		return err
	}
	dep := manifest.Dependency{Name: name}
	if version != "" {
		v, err := manifest.ParseVersion(version)
		if err != nil {
			return err
		}
		dep.Version, dep.HasVer = v, true
	}
	for i, d := range m.Dependencies {
		if d.Name == name {
			m.Dependencies[i] = dep
			return rewriteManifest(path, m)
		}
	}
	m.Dependencies = append(m.Dependencies, dep)
	return rewriteManifest(path, m)
}

// RemoveDependency deletes a named dependency from the workspace
// manifest at dir.
func RemoveDependency(dir, name string) error {
	path := filepath.Join(dir, ManifestFile)
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	m, err := manifest.Parse(f)
	f.Close()
	if err != nil {
		return err
	}
	out := m.Dependencies[:0:0]
	for _, d := range m.Dependencies {
		if d.Name != name {
			out = append(out, d)
		}
	}
	m.Dependencies = out
	return rewriteManifest(path, m)
}

func rewriteManifest(path string, m *manifest.Manifest) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return m.Render(f)
}
