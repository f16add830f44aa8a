// Package driver wires the external-collaborator boundary of spec §6
// into one compilation: manifest/lock loading, dependency resolution,
// lex → parse → check → emit over a workspace's source units. Its
// staged, context-threading shape is grounded on the teacher's
// internal/pipeline Processor/Pipeline abstraction and internal/backend's
// ExecutionProcessor, retargeted from executing a parsed program onto
// compiling one: Stage replaces Processor, Context replaces
// PipelineContext, and the pipeline runs lex/parse/check/codegen stages
// instead of evaluation.
package driver

import (
	"fmt"
	"time"

	"github.com/nyxlang/nyxc/internal/codegen"
	"github.com/nyxlang/nyxc/internal/compilation"
	"github.com/nyxlang/nyxc/internal/diagnostics"
	"github.com/nyxlang/nyxc/internal/manifest"
	"github.com/nyxlang/nyxc/internal/source"
)

// SourceExtension is the file suffix the driver globs for under a
// workspace's src/ directory.
const SourceExtension = ".nyx"

// ManifestFile is the fixed manifest filename read from a workspace
// root, per spec §6's package archive layout.
const ManifestFile = "nemesis.manifest"

// LockFile is the fixed lock filename written alongside ManifestFile.
const LockFile = "nemesis.lock"

// Context is the single value threaded through every driver stage: the
// workspace location, its manifest/lock, the loaded source text, the
// compilation context proper (bus, interner, impls, graph), and the
// emitted artifacts. It is constructed once per CLI invocation and
// discarded at its end, per spec §9's "construct once per build
// command, release at end".
type Context struct {
	Dir  string // workspace root containing nemesis.manifest
	Home string // $HOME, where the shipped core library sources live

	Manifest *manifest.Manifest
	Lock     *manifest.Lock
	Deps     []*manifest.Manifest // resolved closure, dependency order, owner excluded

	Source      *source.Handler
	Compilation *compilation.Context

	ForTest    bool
	DumpTokens bool
	DumpAST    bool

	Trace *Trace

	Emitted []codegen.Unit
}

// NewContext constructs a fresh driver context rooted at dir.
func NewContext(dir, home string) *Context {
	return &Context{
		Dir:         dir,
		Home:        home,
		Source:      source.New(),
		Compilation: compilation.New(),
	}
}

// Stage is one step of the compilation pipeline.
type Stage interface {
	Name() string
	Run(ctx *Context) error
}

// StageFunc adapts a function to Stage.
type StageFunc struct {
	StageName string
	Fn        func(ctx *Context) error
}

func (s StageFunc) Name() string            { return s.StageName }
func (s StageFunc) Run(ctx *Context) error { return s.Fn(ctx) }

// Pipeline runs a fixed sequence of stages over one Context, recording
// each stage's wall-clock duration into ctx.Trace when tracing is
// enabled, and stopping at the first stage that returns an error.
type Pipeline struct {
	Stages []Stage
}

// Run executes every stage in order. A *diagnostics.Abort returned by a
// stage is the one documented panic/recover replacement of spec §9: the
// driver translates it into the CLI's non-zero exit code rather than
// continuing to the next stage.
func (p *Pipeline) Run(ctx *Context) error {
	for _, s := range p.Stages {
		start := time.Now()
		err := s.Run(ctx)
		if ctx.Trace != nil {
			ctx.Trace.Passes = append(ctx.Trace.Passes, PassTiming{
				Name:     s.Name(),
				Duration: time.Since(start).String(),
			})
		}
		if err != nil {
			return fmt.Errorf("stage %s: %w", s.Name(), err)
		}
		if ctx.Compilation.Bus.HasErrors() {
			return &diagnostics.Abort{Diagnostic: &diagnostics.Diagnostic{
				Severity: diagnostics.Fatal,
				Message:  fmt.Sprintf("compilation failed during stage %s", s.Name()),
			}}
		}
	}
	return nil
}

// BuildPipeline returns the stage sequence for `build`/`run` (and, with
// ctx.ForTest set, `test`): resolve dependencies, load and parse every
// workspace source unit, check the whole closure, then emit.
func BuildPipeline() *Pipeline {
	return &Pipeline{Stages: []Stage{
		resolveStage{},
		loadStage{},
		checkStage{},
		codegenStage{},
	}}
}
