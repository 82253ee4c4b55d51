// Package loader discovers, reads, lexes, and parses the transitive set of
// modules reachable from an entry file (spec.md §4.3).
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nimlang/nimc/internal/ast"
	"github.com/nimlang/nimc/internal/diagnostic"
	"github.com/nimlang/nimc/internal/parser"
)

// sourceExtension is the only extension searched on import; `.n` files may
// exist on disk but are never resolved as an import target (spec.md §6).
const sourceExtension = ".nim"

// Registry holds every module discovered from an entry file, memoized by
// canonical (absolute) path, plus the dependency edges needed to order and
// cycle-check them.
type Registry struct {
	modules      map[string]*ast.Program
	dependencies map[string][]string
	entryPath    string
	includePaths []string

	// useResolutions[modulePath][use.Path] is the canonical path that
	// `use` target resolved to, so the checker can look up each already-
	// checked dependency by the same raw path string the `use` decl named
	// (spec.md §4.4 Pass A import resolution).
	useResolutions map[string]map[string]string
}

// New creates a Registry rooted at entryPath, searching includePaths in
// declared order to resolve `use` targets.
func New(entryPath string, includePaths []string) (*Registry, error) {
	abs, err := filepath.Abs(entryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve entry path: %w", err)
	}
	paths := includePaths
	if len(paths) == 0 {
		paths = []string{filepath.Dir(abs)}
	}
	return &Registry{
		modules:        make(map[string]*ast.Program),
		dependencies:   make(map[string][]string),
		entryPath:      abs,
		includePaths:   paths,
		useResolutions: make(map[string]map[string]string),
	}, nil
}

// Discover performs BFS from the entry file, parsing every reachable module
// at most once (spec.md §4.3: "Memoize by canonical path so the same module
// is parsed at most once within a compilation").
func (r *Registry) Discover() (*diagnostic.Diagnostics, error) {
	diag := diagnostic.New()
	queue := []string{r.entryPath}
	visited := make(map[string]bool)

	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]

		if visited[path] {
			continue
		}
		visited[path] = true

		source, err := os.ReadFile(path)
		if err != nil {
			return diag, fmt.Errorf("module not found: %s", path)
		}

		p := parser.New(string(source))
		prog := p.Parse()
		if p.Diagnostics().HasErrors() {
			for _, d := range p.Diagnostics().Errors() {
				diag.ErrorfInFile(path, d.Line, "%s", d.Message)
			}
		}
		r.modules[path] = prog

		var deps []string
		resolutions := make(map[string]string)
		for _, use := range prog.Uses {
			resolved, err := r.resolve(use.Path)
			if err != nil {
				diag.ErrorfInFile(path, use.Pos(), "%s", err.Error())
				continue
			}
			deps = append(deps, resolved)
			resolutions[use.Path] = resolved
			if !visited[resolved] {
				queue = append(queue, resolved)
			}
		}
		r.dependencies[path] = deps
		r.useResolutions[path] = resolutions
	}

	return diag, nil
}

// resolve searches each include path in declared order for
// <includePath>/<modulePath>.nim, returning the first match.
func (r *Registry) resolve(modulePath string) (string, error) {
	rel := filepath.FromSlash(modulePath) + sourceExtension
	for _, inc := range r.includePaths {
		candidate := filepath.Join(inc, rel)
		if _, err := os.Stat(candidate); err == nil {
			return filepath.Abs(candidate)
		}
	}
	return "", fmt.Errorf("module %q not found in any include path (tried %s)",
		modulePath, strings.Join(r.includePaths, ", "))
}

// cycleError reports a true import cycle with the offending path spelled
// out, resolving the "module cycles" REDESIGN FLAG (spec.md §9): a bare
// memoized-visited set would silently treat the second encounter of a
// cyclic import as a no-op instead of surfacing the cycle.
type cycleError struct {
	path []string
}

func (e *cycleError) Error() string {
	names := make([]string, len(e.path))
	for i, p := range e.path {
		names[i] = filepath.Base(p)
	}
	return fmt.Sprintf("import cycle detected: %s", strings.Join(names, " -> "))
}

// Sort returns modules in dependency order (dependencies before dependents,
// entry file last), or a cycleError if the dependency graph is not a DAG.
func (r *Registry) Sort() ([]string, error) {
	var sorted []string
	onStack := make(map[string]bool)
	done := make(map[string]bool)

	var visit func(path string, stack []string) error
	visit = func(path string, stack []string) error {
		if onStack[path] {
			start := 0
			for i, p := range stack {
				if p == path {
					start = i
					break
				}
			}
			return &cycleError{path: append(append([]string{}, stack[start:]...), path)}
		}
		if done[path] {
			return nil
		}
		onStack[path] = true
		stack = append(stack, path)
		for _, dep := range r.dependencies[path] {
			if err := visit(dep, stack); err != nil {
				return err
			}
		}
		onStack[path] = false
		done[path] = true
		sorted = append(sorted, path)
		return nil
	}

	if err := visit(r.entryPath, nil); err != nil {
		return nil, err
	}
	for path := range r.modules {
		if !done[path] {
			if err := visit(path, nil); err != nil {
				return nil, err
			}
		}
	}
	return sorted, nil
}

// Module returns the parsed program for an already-resolved canonical path.
func (r *Registry) Module(path string) *ast.Program {
	return r.modules[path]
}

// EntryPath returns the canonical path of the entry file.
func (r *Registry) EntryPath() string {
	return r.entryPath
}

// AllModules returns every discovered module keyed by canonical path.
func (r *Registry) AllModules() map[string]*ast.Program {
	return r.modules
}

// ResolvedUse returns the canonical path that modulePath's `use usePath`
// declaration resolved to during Discover, or "" if there is no such use
// (or modulePath was never discovered).
func (r *Registry) ResolvedUse(modulePath, usePath string) string {
	return r.useResolutions[modulePath][usePath]
}
