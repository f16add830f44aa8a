package manifest_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyxlang/nyxc/internal/manifest"
)

func TestHashArchiveIsStableSHA256(t *testing.T) {
	h1, err := manifest.HashArchive(strings.NewReader("abc"))
	require.NoError(t, err)
	h2, err := manifest.HashArchive(strings.NewReader("abc"))
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)

	h3, err := manifest.HashArchive(strings.NewReader("abcd"))
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

func TestParseLockRequiresOwner(t *testing.T) {
	_, err := manifest.ParseLock(strings.NewReader("@dependencies\njson:1.0.0:false:abc:dep/json\n"))
	require.Error(t, err)
}

func TestParseLockRejectsMalformedEntry(t *testing.T) {
	_, err := manifest.ParseLock(strings.NewReader("@application\nhello:0.1.0:false:abc\n"))
	require.Error(t, err)
}

func TestLockRenderRoundTrip(t *testing.T) {
	l := &manifest.Lock{
		Kind: manifest.Application,
		Owner: manifest.LockEntry{
			Name: "hello", Version: manifest.Version{Minor: 1}, Hash: "deadbeef", Path: ".",
		},
		Dependencies: []manifest.LockEntry{
			{Name: "json", Version: manifest.Version{Major: 1, Minor: 2}, Hash: "feedface", Path: ".nyxc-deps/json"},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, l.Render(&buf))

	reparsed, err := manifest.ParseLock(&buf)
	require.NoError(t, err)
	assert.Equal(t, l.Kind, reparsed.Kind)
	assert.Equal(t, l.Owner, reparsed.Owner)
	require.Len(t, reparsed.Dependencies, 1)
	assert.Equal(t, l.Dependencies[0], reparsed.Dependencies[0])
}
