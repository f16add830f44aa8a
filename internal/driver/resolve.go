package driver

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nyxlang/nyxc/internal/diagnostics"
	"github.com/nyxlang/nyxc/internal/manifest"
	"github.com/nyxlang/nyxc/internal/pm"
)

// cachingSource implements pm.Source against the dependency-server
// client, consulting the on-disk archive cache before any network
// fetch and remembering each fetched archive's bytes so the caller can
// extract sources without a second round trip.
type cachingSource struct {
	client   *pm.Client
	cache    *pm.Cache
	fromCache map[string]bool
	archives map[string][]byte
}

func newCachingSource(client *pm.Client, cache *pm.Cache) *cachingSource {
	return &cachingSource{
		client:    client,
		cache:     cache,
		fromCache: make(map[string]bool),
		archives:  make(map[string][]byte),
	}
}

func (s *cachingSource) Manifest(name string, version manifest.Version, hasVersion bool) (*manifest.Manifest, error) {
	if hasVersion {
		if hash, err := s.client.Checksum(name, version); err == nil {
			if data, ok, err := s.cache.Get(name, version.String(), hash); err == nil && ok {
				s.archives[name] = data
				s.fromCache[name] = true
				return pm.ManifestFromArchive(name, data)
			}
		}
	}
	data, err := s.client.Download(name, version, hasVersion)
	if err != nil {
		return nil, err
	}
	m, err := pm.ManifestFromArchive(name, data)
	if err != nil {
		return nil, err
	}
	if hash, err := manifest.HashArchive(bytes.NewReader(data)); err == nil {
		_ = s.cache.Put(name, m.Version.String(), hash, data)
	}
	s.archives[name] = data
	s.fromCache[name] = false
	return m, nil
}

// resolveStage loads the workspace manifest and, when it declares
// dependencies, resolves and extracts them via internal/pm. A workspace
// with no @dependencies section never touches the network.
type resolveStage struct{}

func (resolveStage) Name() string { return "resolve" }

func (resolveStage) Run(ctx *Context) error {
	mf, err := os.Open(filepath.Join(ctx.Dir, ManifestFile))
	if err != nil {
		return fmt.Errorf("opening %s: %w", ManifestFile, err)
	}
	defer mf.Close()
	m, err := manifest.Parse(mf)
	if err != nil {
		ctx.Compilation.Bus.Publish(&diagnostics.Diagnostic{
			Severity: diagnostics.Fatal,
			Code:     diagnostics.CodeManifestCorrupt,
			Message:  err.Error(),
		})
		return nil
	}
	ctx.Manifest = m
	if ctx.Trace != nil {
		ctx.Trace.RunID = ctx.Compilation.RunID.String()
	}
	if len(m.Dependencies) == 0 {
		return nil
	}

	depServer := os.Getenv("NYXC_DEP_SERVER")
	if depServer == "" {
		ctx.Compilation.Bus.Publish(&diagnostics.Diagnostic{
			Severity: diagnostics.Fatal,
			Code:     diagnostics.CodeManifestCorrupt,
			Message:  "workspace declares dependencies but NYXC_DEP_SERVER is not set",
		})
		return nil
	}

	cachePath := filepath.Join(ctx.Home, ".nyxc", "cache.db")
	if err := os.MkdirAll(filepath.Dir(cachePath), 0o755); err != nil {
		return fmt.Errorf("preparing cache directory: %w", err)
	}
	cache, err := pm.OpenCache(cachePath)
	if err != nil {
		return err
	}
	defer cache.Close()

	client := pm.NewClient(depServer)
	src := newCachingSource(client, cache)
	resolver := &pm.Resolver{
		Source: src,
		Warn: func(msg string) {
			ctx.Compilation.Bus.Publish(&diagnostics.Diagnostic{
				Severity: diagnostics.Warning,
				Code:     diagnostics.CodeVersionDowngrade,
				Message:  msg,
			})
		},
	}
	deps, err := resolver.Resolve(m)
	if err != nil {
		ctx.Compilation.Bus.Publish(&diagnostics.Diagnostic{
			Severity: diagnostics.Fatal,
			Code:     diagnostics.CodeCyclicDependency,
			Message:  err.Error(),
		})
		return nil
	}
	ctx.Deps = deps

	depsRoot := filepath.Join(ctx.Dir, ".nyxc-deps")
	lock := &manifest.Lock{Kind: m.Kind}
	for _, dep := range deps {
		archive := src.archives[dep.Name]
		destDir := filepath.Join(depsRoot, dep.Name)
		if err := pm.ExtractSources(dep.Name, archive, destDir, func(rel string, content []byte) error {
			full := filepath.Join(destDir, "src", rel)
			if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
				return err
			}
			return os.WriteFile(full, content, 0o644)
		}); err != nil {
			return fmt.Errorf("extracting %s: %w", dep.Name, err)
		}
		hash, err := manifest.HashArchive(bytes.NewReader(archive))
		if err != nil {
			return err
		}
		lock.Dependencies = append(lock.Dependencies, manifest.LockEntry{
			Name: dep.Name, Version: dep.Version, Builtin: dep.Builtin,
			Hash: hash, Path: filepath.Join(".nyxc-deps", dep.Name),
		})
		if ctx.Trace != nil {
			ctx.Trace.Dependencies = append(ctx.Trace.Dependencies, DepTrace{
				Name: dep.Name, Version: dep.Version.String(), FromCache: src.fromCache[dep.Name],
			})
		}
	}
	// TODO: hash the owner's own src/ tree instead of a placeholder once
	// the lock format needs to detect local source drift, not just
	// dependency drift.
	ownerHash, _ := manifest.HashArchive(bytes.NewReader(nil))
	lock.Owner = manifest.LockEntry{Name: m.Name, Version: m.Version, Builtin: m.Builtin, Hash: ownerHash, Path: "."}
	ctx.Lock = lock

	lf, err := os.Create(filepath.Join(ctx.Dir, LockFile))
	if err != nil {
		return err
	}
	defer lf.Close()
	return lock.Render(lf)
}
