package pm

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"

	"github.com/nyxlang/nyxc/internal/manifest"
)

// ManifestFromArchive reads the nemesis.manifest at the top of a
// package archive per spec §6's "Package archive layout".
func ManifestFromArchive(name string, data []byte) (*manifest.Manifest, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("pm: archive for %q is not a valid zip: %w", name, err)
	}
	want := path.Join(name, "nemesis.manifest")
	for _, f := range zr.File {
		if f.Name != want {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return manifest.Parse(rc)
	}
	return nil, fmt.Errorf("pm: archive for %q has no %s", name, want)
}

// ExtractSources passes every file under a package archive's src/ and
// cpp/ directories to write, with its path relative to that directory.
// destDir is not used here; write decides where each file goes.
func ExtractSources(name string, data []byte, destDir string, write func(relPath string, content []byte) error) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("pm: archive for %q is not a valid zip: %w", name, err)
	}
	srcPrefix := path.Join(name, "src") + "/"
	cppPrefix := path.Join(name, "cpp") + "/"
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rel := ""
		switch {
		case len(f.Name) > len(srcPrefix) && f.Name[:len(srcPrefix)] == srcPrefix:
			rel = f.Name[len(srcPrefix):]
		case len(f.Name) > len(cppPrefix) && f.Name[:len(cppPrefix)] == cppPrefix:
			rel = f.Name[len(cppPrefix):]
		default:
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return err
		}
		if err := write(rel, content); err != nil {
			return err
		}
	}
	return nil
}
