package driver

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/nyxlang/nyxc/internal/diagnostics"
)

// TerminalPrinter renders diagnostics to an output stream, tagging
// severities with ANSI colour only when the stream is a real terminal
// (checked via github.com/mattn/go-isatty, as the teacher's own
// terminal-capability probe does for its REPL output). Full caret
// placement and snippet rendering stay an external collaborator per
// spec §1; this printer emits one plain line per diagnostic plus its
// notes.
type TerminalPrinter struct {
	Out   io.Writer
	Color bool
}

// NewTerminalPrinter builds a printer writing to out, deciding color
// from isatty when out is an *os.File.
func NewTerminalPrinter(out io.Writer) *TerminalPrinter {
	color := false
	if f, ok := out.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &TerminalPrinter{Out: out, Color: color}
}

var severityColor = map[diagnostics.Severity]string{
	diagnostics.Warning: "\x1b[33m",
	diagnostics.Error:   "\x1b[31m",
	diagnostics.Fatal:   "\x1b[1;31m",
}

const resetColor = "\x1b[0m"

func (p *TerminalPrinter) Print(d *diagnostics.Diagnostic) {
	tag := d.Severity.String()
	if p.Color {
		tag = severityColor[d.Severity] + tag + resetColor
	}
	if d.Primary.Range.File != "" {
		fmt.Fprintf(p.Out, "%s: %s: %s [%s]\n", d.Primary.Range, tag, d.Message, d.Code)
	} else {
		fmt.Fprintf(p.Out, "%s: %s [%s]\n", tag, d.Message, d.Code)
	}
	for _, n := range d.Notes {
		fmt.Fprintf(p.Out, "    note: %s (%s)\n", n.Message, n.At)
	}
}
