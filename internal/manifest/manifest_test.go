package manifest_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyxlang/nyxc/internal/manifest"
)

func TestParseVersion(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    manifest.Version
		wantErr bool
	}{
		{"simple", "1.2.3", manifest.Version{Major: 1, Minor: 2, Patch: 3}, false},
		{"zero", "0.1.0", manifest.Version{Major: 0, Minor: 1, Patch: 0}, false},
		{"leading_zero", "01.2.3", manifest.Version{}, true},
		{"too_few_parts", "1.2", manifest.Version{}, true},
		{"non_numeric", "a.b.c", manifest.Version{}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := manifest.ParseVersion(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestVersionLess(t *testing.T) {
	assert.True(t, manifest.Version{Major: 1}.Less(manifest.Version{Major: 2}))
	assert.True(t, manifest.Version{Major: 1, Minor: 2}.Less(manifest.Version{Major: 1, Minor: 3}))
	assert.True(t, manifest.Version{Major: 1, Minor: 2, Patch: 3}.Less(manifest.Version{Major: 1, Minor: 2, Patch: 4}))
	assert.False(t, manifest.Version{Major: 1, Minor: 2, Patch: 3}.Less(manifest.Version{Major: 1, Minor: 2, Patch: 3}))
}

func TestParseApplicationManifest(t *testing.T) {
	src := `@application
    name "hello"
    version "0.1.0"
    builtin false

@dependencies
    json "1.2.0"
    term
`
	m, err := manifest.Parse(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, manifest.Application, m.Kind)
	assert.Equal(t, "hello", m.Name)
	assert.Equal(t, manifest.Version{Major: 0, Minor: 1, Patch: 0}, m.Version)
	require.Len(t, m.Dependencies, 2)
	assert.Equal(t, "json", m.Dependencies[0].Name)
	assert.True(t, m.Dependencies[0].HasVer)
	assert.Equal(t, manifest.Version{Major: 1, Minor: 2, Patch: 0}, m.Dependencies[0].Version)
	assert.Equal(t, "term", m.Dependencies[1].Name)
	assert.False(t, m.Dependencies[1].HasVer)
}

func TestParseRejectsUnknownSection(t *testing.T) {
	_, err := manifest.Parse(strings.NewReader("@bogus\n    name \"x\"\n"))
	require.Error(t, err)
}

func TestParseRejectsBadName(t *testing.T) {
	_, err := manifest.Parse(strings.NewReader("@library\n    name \"9bad\"\n    version \"1.0.0\"\n"))
	require.Error(t, err)
}

func TestManifestRenderRoundTrip(t *testing.T) {
	m := &manifest.Manifest{
		Kind:    manifest.Library,
		Name:    "collections",
		Version: manifest.Version{Major: 2, Minor: 0, Patch: 1},
		Dependencies: []manifest.Dependency{
			{Name: "core", Version: manifest.Version{Major: 1}, HasVer: true},
			{Name: "io"},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, m.Render(&buf))

	reparsed, err := manifest.Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, m.Kind, reparsed.Kind)
	assert.Equal(t, m.Name, reparsed.Name)
	assert.Equal(t, m.Version, reparsed.Version)
	require.Len(t, reparsed.Dependencies, 2)
	assert.Equal(t, m.Dependencies[0].Name, reparsed.Dependencies[0].Name)
	assert.True(t, reparsed.Dependencies[0].HasVer)
	assert.False(t, reparsed.Dependencies[1].HasVer)
}

func TestStripCommentIgnoresHashInsideQuotes(t *testing.T) {
	src := "@application\n    name \"has#hash\"\n    version \"1.0.0\"\n"
	m, err := manifest.Parse(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, "has#hash", m.Name)
}
