// Package pm implements package resolution, archive fetching, and the
// on-disk archive cache described at spec §6's external-interface
// boundary. The dependency-graph and topological-order logic is new
// (the teacher has no package manager of its own); the resolver's
// shape follows the same depth-first, visited-set pattern the teacher
// uses in internal/modules/loader.go for resolving import graphs.
package pm

import (
	"fmt"

	"github.com/nyxlang/nyxc/internal/manifest"
)

// Source resolves a dependency's manifest; Resolver is parameterised
// over it so tests can substitute an in-memory fake for the HTTP Client.
type Source interface {
	Manifest(name string, version manifest.Version, hasVersion bool) (*manifest.Manifest, error)
}

// node is one package during resolution: its chosen version and its own
// manifest, before topological ordering.
type node struct {
	name    string
	version manifest.Version
	m       *manifest.Manifest
}

// Resolver walks a workspace's dependency manifest to a fully resolved,
// cycle-checked graph (spec §7 "Package": "version conflict resolution
// (warning for same-major downgrade, fatal for cyclic dependencies)").
type Resolver struct {
	Source Source
	// Warn receives a warning message for every resolved same-major
	// downgrade; nil is permitted when the caller does not care.
	Warn func(msg string)
}

// Resolve returns the dependency closure of root in reverse topological
// order (a dependency always precedes its dependents), per spec §5
// "Ordering guarantees". The owner itself is not in the output; the
// driver records it separately as the lock's Owner entry, which
// Lock.Render writes before the dependencies.
func (r *Resolver) Resolve(root *manifest.Manifest) ([]*manifest.Manifest, error) {
	chosen := map[string]*node{}
	visiting := map[string]bool{}
	order := []*node{}

	var visit func(name string, version manifest.Version, hasVersion bool) error
	visit = func(name string, version manifest.Version, hasVersion bool) error {
		if visiting[name] {
			return fmt.Errorf("pm: cyclic dependency detected at %q", name)
		}
		if existing, ok := chosen[name]; ok {
			if hasVersion && existing.version.Major != version.Major {
				return fmt.Errorf("pm: major version conflict for %q: %s vs %s", name, existing.version, version)
			}
			if hasVersion && version.Less(existing.version) && r.Warn != nil {
				r.Warn(fmt.Sprintf("package %q resolved to %s, a same-major downgrade from the already-chosen %s", name, version, existing.version))
			}
			return nil
		}
		visiting[name] = true
		m, err := r.Source.Manifest(name, version, hasVersion)
		if err != nil {
			return fmt.Errorf("pm: resolving %q: %w", name, err)
		}
		n := &node{name: name, version: m.Version, m: m}
		for _, dep := range m.Dependencies {
			if err := visit(dep.Name, dep.Version, dep.HasVer); err != nil {
				return err
			}
		}
		chosen[name] = n
		order = append(order, n)
		delete(visiting, name)
		return nil
	}

	for _, dep := range root.Dependencies {
		if err := visit(dep.Name, dep.Version, dep.HasVer); err != nil {
			return nil, err
		}
	}

	out := make([]*manifest.Manifest, len(order))
	for i, n := range order {
		out[i] = n.m
	}
	return out, nil
}
