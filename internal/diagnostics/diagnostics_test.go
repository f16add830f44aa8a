package diagnostics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyxlang/nyxc/internal/diagnostics"
	"github.com/nyxlang/nyxc/internal/token"
)

func tok() token.Token {
	pos := token.Position{File: "t.nyx", Line: 1, Column: 1}
	return token.New(token.IDENT, "x", pos, pos)
}

func TestNewErrorFormatsMessageArgs(t *testing.T) {
	d := diagnostics.NewError(diagnostics.CodeUnresolvedName, tok(), "undefined name %q", "y")
	assert.Equal(t, diagnostics.Error, d.Severity)
	assert.Equal(t, diagnostics.CodeUnresolvedName, d.Code)
	assert.Equal(t, `undefined name "y"`, d.Message)
}

func TestBusPublishNotifiesSubscribersInOrder(t *testing.T) {
	bus := diagnostics.NewBus()
	var order []string
	bus.Subscribe(diagnostics.PrinterFunc(func(d *diagnostics.Diagnostic) { order = append(order, "first") }))
	bus.Subscribe(diagnostics.PrinterFunc(func(d *diagnostics.Diagnostic) { order = append(order, "second") }))

	bus.Publish(diagnostics.NewWarning(diagnostics.CodeVersionDowngrade, tok(), "downgrade"))

	require.Equal(t, []string{"first", "second"}, order)
}

func TestBusHasErrorsTracksErrorAndFatalOnly(t *testing.T) {
	bus := diagnostics.NewBus()
	bus.Publish(diagnostics.NewWarning(diagnostics.CodeVersionDowngrade, tok(), "warn"))
	assert.False(t, bus.HasErrors())
	assert.Equal(t, 1, bus.Count(diagnostics.Warning))

	bus.Publish(diagnostics.NewError(diagnostics.CodeTypeMismatch, tok(), "bad type"))
	assert.True(t, bus.HasErrors())
	assert.Equal(t, 1, bus.Count(diagnostics.Error))

	bus.Publish(diagnostics.NewFatal(diagnostics.CodeMissingEntryPoint, tok(), "no entry point"))
	assert.True(t, bus.HasErrors())
	assert.Equal(t, 1, bus.Count(diagnostics.Fatal))
}

func TestDiagnosticWithNoteAndFixItChain(t *testing.T) {
	d := diagnostics.NewError(diagnostics.CodeDuplicateDef, tok(), "duplicate definition of %s", "Point")
	d.WithNote("first defined here", tok().Pos).
		WithFixIt(diagnostics.FixIt{Kind: diagnostics.FixRemove, Range: tok().Pos, End: tok().EndPos})

	require.Len(t, d.Notes, 1)
	assert.Equal(t, "first defined here", d.Notes[0].Message)
	require.Len(t, d.FixIts, 1)
	assert.Equal(t, diagnostics.FixRemove, d.FixIts[0].Kind)
}

func TestDiagnosticErrorImplementsError(t *testing.T) {
	d := diagnostics.NewError(diagnostics.CodeOverflow, tok(), "overflow")
	abort := &diagnostics.Abort{Diagnostic: d}
	assert.Contains(t, abort.Error(), "overflow")
	assert.Contains(t, abort.Error(), string(diagnostics.CodeOverflow))
}
