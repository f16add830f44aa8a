package driver

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nyxlang/nyxc/internal/ast"
	"github.com/nyxlang/nyxc/internal/checker"
	"github.com/nyxlang/nyxc/internal/codegen"
	"github.com/nyxlang/nyxc/internal/compilation"
	"github.com/nyxlang/nyxc/internal/diagnostics"
	"github.com/nyxlang/nyxc/internal/lexer"
	"github.com/nyxlang/nyxc/internal/manifest"
	"github.com/nyxlang/nyxc/internal/parser"
	"github.com/nyxlang/nyxc/internal/token"
	"github.com/nyxlang/nyxc/internal/types"
)

// loadStage lexes and parses every workspace's source units, appending
// one *compilation.Package per workspace to ctx.Compilation.Packages in
// dependency order with the owning workspace last, per spec §5
// "Ordering guarantees" and §8 property 7.
type loadStage struct{}

func (loadStage) Name() string { return "load" }

func (loadStage) Run(ctx *Context) error {
	for _, dep := range ctx.Deps {
		dir := filepath.Join(ctx.Dir, ".nyxc-deps", dep.Name, "src")
		pkg, err := loadPackage(ctx, dep.Name, dep, dir)
		if err != nil {
			return err
		}
		ctx.Compilation.Packages = append(ctx.Compilation.Packages, pkg)
	}
	owner, err := loadPackage(ctx, ctx.Manifest.Name, ctx.Manifest, filepath.Join(ctx.Dir, "src"))
	if err != nil {
		return err
	}
	ctx.Compilation.Packages = append(ctx.Compilation.Packages, owner)
	return nil
}

func loadPackage(ctx *Context, name string, m *manifest.Manifest, srcDir string) (*compilation.Package, error) {
	paths, err := collectSourceFiles(srcDir)
	if err != nil {
		return nil, err
	}
	pkg := &compilation.Package{Name: name, Manifest: m}
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		text := string(raw)
		ctx.Source.LoadText(path, text)
		toks := parser.Tokenize(lexer.New(path, text))
		if ctx.DumpTokens {
			dumpTokens(path, toks)
		}
		p := parser.New(path, toks)
		prog := p.ParseProgram()
		for _, perr := range p.Errors {
			ctx.Compilation.Bus.Publish(diagnostics.NewError(diagnostics.CodeUnexpectedToken,
				token.Artificial(token.ILLEGAL, "", perr.Pos), "%s", perr.Msg))
		}
		pkg.Units = append(pkg.Units, &compilation.Unit{Path: path, Text: text, AST: prog})
	}
	return pkg, nil
}

func collectSourceFiles(dir string) ([]string, error) {
	var out []string
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return out, nil
	}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, SourceExtension) {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func dumpTokens(path string, toks []token.Token) {
	fmt.Printf("-- tokens: %s --\n", path)
	for _, t := range toks {
		fmt.Printf("  %-12s %q %s\n", t.Kind, t.Lexeme, t.Pos)
	}
}

// checkStage runs internal/checker over the full dependency closure's
// parsed units, owner last, so a dependency's declarations are visible
// to the owner per spec §5.
type checkStage struct{}

func (checkStage) Name() string { return "check" }

func (checkStage) Run(ctx *Context) error {
	var files []*ast.Program
	for _, pkg := range ctx.Compilation.Packages {
		for _, u := range pkg.Units {
			files = append(files, u.AST)
		}
	}
	if len(files) == 0 {
		ctx.Compilation.Bus.Publish(&diagnostics.Diagnostic{
			Severity: diagnostics.Fatal,
			Code:     diagnostics.CodeMissingEntryPoint,
			Message:  fmt.Sprintf("no %s source files found under %s", SourceExtension, ctx.Dir),
		})
		return nil
	}
	c := checker.New(ctx.Compilation.Bus, ctx.Compilation.Interner, ctx.Compilation.Impls, files[0])
	c.Check(files)
	ctx.Compilation.Graph = c.Graph
	ctx.Compilation.Instances = c.Instances()
	if ctx.DumpAST {
		for _, f := range files {
			dumpAST(f)
		}
	}
	return nil
}

func dumpAST(p *ast.Program) {
	fmt.Printf("-- ast: %s --\n", p.File)
	for _, stmt := range p.Statements {
		var n ast.Node = stmt
		if decl, ok := ast.UnwrapDeclaration(stmt); ok {
			n = decl
		}
		fmt.Printf("  %T @ %s\n", n, stmt.GetToken().Pos)
	}
}

// codegenStage lowers every checked workspace into its emitted Unit via
// internal/codegen, per spec §4.6/§6.
type codegenStage struct{}

func (codegenStage) Name() string { return "codegen" }

func (codegenStage) Run(ctx *Context) error {
	owner := ctx.Compilation.Owner()
	for _, pkg := range ctx.Compilation.Packages {
		gen := &codegen.Generator{Workspace: pkg.Name, Impls: ctx.Compilation.Impls}
		for _, u := range pkg.Units {
			for _, stmt := range u.AST.Statements {
				collectDecl(gen, pkg, stmt, ctx.ForTest)
			}
		}
		if pkg == owner && pkg.Manifest.Kind == manifest.Application && !ctx.ForTest && gen.EntryPoint == nil {
			ctx.Compilation.Bus.Publish(&diagnostics.Diagnostic{
				Severity: diagnostics.Fatal,
				Code:     diagnostics.CodeMissingEntryPoint,
				Message:  fmt.Sprintf("workspace %q is an application but declares no main function", pkg.Name),
			})
			continue
		}
		if pkg == owner {
			addGenericInstances(gen, pkg, ctx.Compilation.Instances)
		}
		ctx.Emitted = append(ctx.Emitted, gen.Define())
	}
	return nil
}

// addGenericInstances lowers every generic instantiation the checker
// cached into one concrete FuncEntry (spec §4.4 rule 3, scenario S5:
// "instance ... cached, emitted only once across multiple call sites").
// The generic declaration itself is never emitted directly (see
// addFunc); only its concrete instantiations are.
func addGenericInstances(gen *codegen.Generator, pkg *compilation.Package, insts []*checker.GenericInstance) {
	for _, inst := range insts {
		// inst.MangledName is already a flat, workspace-independent
		// symbol (spec §4.4 rule 3 caches by declaration + binding map,
		// not by call site's package), matching the name a call site's
		// CallExpression.Instance resolves to in codegen's exprRef.
		gen.Funcs = append(gen.Funcs, codegen.FuncEntry{Path: inst.MangledName, Sig: inst.Sig, Decl: inst.Decl})
	}
}

func collectDecl(gen *codegen.Generator, pkg *compilation.Package, stmt ast.Statement, forTest bool) {
	var target ast.Node = stmt
	if decl, ok := ast.UnwrapDeclaration(stmt); ok {
		target = decl
	}
	switch d := target.(type) {
	case *ast.TypeDeclaration:
		path := codegen.Join(pkg.Name, d.Name.Value)
		gen.Types = append(gen.Types, codegen.TypeEntry{Path: path, Type: d.Type})
	case *ast.BehaviourDeclaration:
		path := codegen.Join(pkg.Name, d.Name.Value)
		gen.Types = append(gen.Types, codegen.TypeEntry{Path: path, Type: d.Type})
	case *ast.FunctionDeclaration:
		addFunc(gen, pkg, d)
	case *ast.ConstDeclaration:
		gen.Globals = append(gen.Globals, d)
	case *ast.VarDeclaration:
		gen.Globals = append(gen.Globals, d)
	case *ast.ExtendDeclaration:
		for _, m := range d.Methods {
			addFunc(gen, pkg, m)
		}
	case *ast.TestDeclaration:
		if forTest {
			gen.Tests = append(gen.Tests, d)
		}
	}
}

// addFunc registers one function declaration's signature for codegen. A
// generic declaration (len(d.Generics) > 0) is never emitted under its
// own name: it has no concrete target-language type for its formal
// parameters, only its call-site instantiations do (spec §4.4 rule 3),
// which addGenericInstances adds separately once checking has populated
// the instance cache.
func addFunc(gen *codegen.Generator, pkg *compilation.Package, d *ast.FunctionDeclaration) {
	if len(d.Generics) > 0 {
		return
	}
	path := codegen.Join(pkg.Name, d.Name.Value)
	sig, _ := d.Type.(types.Function)
	entry := codegen.FuncEntry{Path: path, Sig: sig, Decl: d}
	gen.Funcs = append(gen.Funcs, entry)
	if d.Name.Value == "main" {
		last := gen.Funcs[len(gen.Funcs)-1]
		gen.EntryPoint = &last
	}
}
