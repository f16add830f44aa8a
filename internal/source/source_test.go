package source_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyxlang/nyxc/internal/source"
)

func TestHandlerLoadTextRegistersAndCaches(t *testing.T) {
	h := source.New()
	f1 := h.LoadText("a.nyx", "val x = 1\nval y = 2\n")
	f2 := h.LoadText("a.nyx", "ignored second load")
	assert.Same(t, f1, f2, "re-loading an already-registered path returns the cached File")

	got, ok := h.File("a.nyx")
	require.True(t, ok)
	assert.Same(t, f1, got)
}

func TestFilePositionConvertsOffsetToLineColumn(t *testing.T) {
	h := source.New()
	f := h.LoadText("a.nyx", "val x = 1\nval y = 2\n")

	pos := f.Position(0)
	assert.Equal(t, 1, pos.Line)
	assert.Equal(t, 1, pos.Column)

	secondLineStart := len("val x = 1\n")
	pos = f.Position(secondLineStart)
	assert.Equal(t, 2, pos.Line)
	assert.Equal(t, 1, pos.Column)
}

func TestFileLineReturnsTrimmedLineText(t *testing.T) {
	h := source.New()
	f := h.LoadText("a.nyx", "first\r\nsecond\n")
	assert.Equal(t, "first", f.Line(1))
	assert.Equal(t, "second", f.Line(2))
	assert.Equal(t, "", f.Line(99))
}

func TestHandlerFilesReturnsLoadOrder(t *testing.T) {
	h := source.New()
	h.LoadText("a.nyx", "a")
	h.LoadText("b.nyx", "b")
	files := h.Files()
	require.Len(t, files, 2)
	assert.Equal(t, "a.nyx", files[0].Path)
	assert.Equal(t, "b.nyx", files[1].Path)
}
