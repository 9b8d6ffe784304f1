package arch_test

import (
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

// allowedGlobals lists package-level vars that the heuristics below cannot
// classify but that never change after init.
var allowedGlobals = map[string][]string{
	// Alias of the dive package sentinel so callers can match planner errors only.
	"planner": {"ErrTooManyCylinders"},
}

// allowedGlobalPrefixes lists name prefixes treated as constant-like in a
// package. The TUI keeps its lipgloss palette and styles at package level.
var allowedGlobalPrefixes = map[string][]string{
	"tui": {"color", "style"},
}

// TestNoMutableGlobalState flags package-level vars other than error
// sentinels, interface assertions, sync primitives, literals and the
// allowlisted names above.
func TestNoMutableGlobalState(t *testing.T) {
	t.Parallel()

	dir := internalDirPath(t)
	for _, pkg := range internalPackages(t) {
		t.Run(pkg, func(t *testing.T) {
			t.Parallel()

			fset := token.NewFileSet()
			for _, path := range goFilesIn(t, filepath.Join(dir, pkg)) {
				node, err := parser.ParseFile(fset, path, nil, 0)
				if err != nil {
					t.Fatalf("parsing %s: %v", path, err)
				}
				for _, name := range mutableGlobals(pkg, node) {
					t.Errorf("mutable global state in %s: var %s; use dependency injection or move it into a function",
						filepath.Base(path), name)
				}
			}
		})
	}
}

// mutableGlobals returns the names of the package-level vars of f that do
// not fit any allowed pattern.
func mutableGlobals(pkg string, f *ast.File) []string {
	var bad []string
	for _, decl := range f.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.VAR {
			continue
		}
		for _, spec := range gd.Specs {
			vs := spec.(*ast.ValueSpec)
			for i, name := range vs.Names {
				var val ast.Expr
				if i < len(vs.Values) {
					val = vs.Values[i]
				}
				if !allowedGlobal(pkg, name.Name, vs.Type, val) {
					bad = append(bad, name.Name)
				}
			}
		}
	}
	return bad
}

func allowedGlobal(pkg, name string, typ, val ast.Expr) bool {
	if name == "_" || slices.Contains(allowedGlobals[pkg], name) {
		return true
	}
	for _, p := range allowedGlobalPrefixes[pkg] {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	if id, ok := typ.(*ast.Ident); ok && id.Name == "error" {
		return true
	}
	if pkgName, _ := selector(typ); pkgName == "sync" || pkgName == "atomic" {
		return true
	}

	switch v := val.(type) {
	case *ast.BasicLit, *ast.CompositeLit:
		return true
	case *ast.CallExpr:
		switch pkgName, fn := selector(v.Fun); {
		case pkgName == "errors" && fn == "New",
			pkgName == "fmt" && fn == "Errorf",
			pkgName == "regexp" && fn == "MustCompile":
			return true
		}
	}
	return false
}

// selector splits a pkg.Name expression; it returns empty strings for any
// other expression.
func selector(e ast.Expr) (pkg, name string) {
	sel, ok := e.(*ast.SelectorExpr)
	if !ok {
		return "", ""
	}
	id, ok := sel.X.(*ast.Ident)
	if !ok {
		return "", ""
	}
	return id.Name, sel.Sel.Name
}

// TestAllowedGlobalsAreUsed catches allowlist entries whose var is gone.
func TestAllowedGlobalsAreUsed(t *testing.T) {
	t.Parallel()

	dir := internalDirPath(t)
	for pkg, names := range allowedGlobals {
		declared := map[string]bool{}
		fset := token.NewFileSet()
		for _, path := range goFilesIn(t, filepath.Join(dir, pkg)) {
			node, err := parser.ParseFile(fset, path, nil, 0)
			if err != nil {
				t.Fatalf("parsing %s: %v", path, err)
			}
			for _, obj := range node.Scope.Objects {
				if obj.Kind == ast.Var {
					declared[obj.Name] = true
				}
			}
		}
		for _, name := range names {
			if !declared[name] {
				t.Errorf("allowedGlobals[%q] lists %s, which is not declared", pkg, name)
			}
		}
	}
}

func TestMutableGlobalsDetection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		pkg  string
		src  string
		want []string
	}{
		{name: "make map", pkg: "dive", src: `var cache = make(map[string]int)`, want: []string{"cache"}},
		{name: "pointer", pkg: "dive", src: `var current *int`, want: []string{"current"}},
		{name: "constructor call", pkg: "render", src: `var face = newFace()`, want: []string{"face"}},
		{name: "sentinel", pkg: "dive", src: `var ErrX = errors.New("x")`},
		{name: "wrapped sentinel", pkg: "dive", src: `var ErrY = fmt.Errorf("y: %w", ErrX)`},
		{name: "typed error", pkg: "dive", src: `var ErrZ error`},
		{name: "interface check", pkg: "dive", src: `var _ io.Reader = (*T)(nil)`},
		{name: "lookup table", pkg: "deco", src: `var halfTimes = [2]float64{5, 8}`},
		{name: "literal", pkg: "dive", src: `var name = "air"`},
		{name: "mutex", pkg: "dive", src: `var mu sync.Mutex`},
		{name: "regexp", pkg: "dive", src: `var re = regexp.MustCompile("x")`},
		{name: "style prefix", pkg: "tui", src: `var styleX = lipgloss.NewStyle()`},
		{name: "prefix in other package", pkg: "ui", src: `var styleX = lipgloss.NewStyle()`, want: []string{"styleX"}},
		{name: "allowlisted alias", pkg: "planner", src: `var ErrTooManyCylinders = dive.ErrTooManyCylinders`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f, err := parser.ParseFile(token.NewFileSet(), "x.go", "package x\n"+tt.src+"\n", 0)
			if err != nil {
				t.Fatalf("ParseFile(%q): %v", tt.src, err)
			}
			if got := mutableGlobals(tt.pkg, f); !slices.Equal(got, tt.want) {
				t.Errorf("mutableGlobals(%q) = %v, want %v", tt.src, got, tt.want)
			}
		})
	}
}
