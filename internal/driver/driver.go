// Package driver orchestrates the whole-program pipeline — load, check,
// emit, assemble, link — and owns the build/ output layout (spec.md §6).
package driver

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/hashicorp/logutils"

	"github.com/nimlang/nimc/internal/checker"
	"github.com/nimlang/nimc/internal/diagnostic"
	"github.com/nimlang/nimc/internal/emitter"
	"github.com/nimlang/nimc/internal/loader"
)

// Mode selects the build/ subdirectory and optimization-adjacent gcc flags.
type Mode int

const (
	Debug Mode = iota
	Release
)

func (m Mode) String() string {
	if m == Release {
		return "release"
	}
	return "debug"
}

// OutputType selects the link step's artifact kind.
type OutputType int

const (
	Executable OutputType = iota
	SharedLibrary
)

// Options configures one Build invocation, populated by cmd/nimc from
// parsed flags plus config.Config's resolved include paths.
type Options struct {
	EntryPath    string
	Target       emitter.Target
	Mode         Mode
	OutputType   OutputType
	IncludePaths []string
	Verbose      bool
}

// Result reports where Build's artifacts landed.
type Result struct {
	AssemblyPath string
	ObjectPath   string
	BinaryPath   string
}

// SetupLogging installs a level-filtered logger on the standard log package,
// following the teacher pack's logutils usage: DEBUG is only shown when
// verbose is requested, INFO/WARN/ERROR always are.
func SetupLogging(verbose bool) {
	filter := &logutils.LevelFilter{
		Levels:   []logutils.LogLevel{"DEBUG", "INFO", "WARN", "ERROR"},
		MinLevel: logutils.LogLevel("INFO"),
		Writer:   os.Stderr,
	}
	if verbose {
		filter.MinLevel = logutils.LogLevel("DEBUG")
	}
	log.SetOutput(filter)
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func binaryExtension(target emitter.Target, outputType OutputType) string {
	switch {
	case outputType == SharedLibrary && target == emitter.Windows:
		return ".dll"
	case outputType == SharedLibrary && target == emitter.MacOS:
		return ".dylib"
	case outputType == SharedLibrary:
		return ".so"
	case target == emitter.Windows:
		return ".exe"
	default:
		return ""
	}
}

// checkAll runs the checker over every discovered module in dependency order
// (dependencies before dependents), wiring each module's already-computed
// CheckResult into its dependents' `use` resolution (spec.md §4.4 Pass A),
// and merges diagnostics from all of them. Only the entry module's
// CheckResult is returned for emission — spec.md's emitter still lowers one
// module's function bodies per build (cross-module inlining/codegen is not
// named anywhere in spec.md), but its registries now include everything it
// imported via `use`/`export use`.
func checkAll(reg *loader.Registry, sorted []string) (*checker.CheckResult, error) {
	diag := diagnostic.New()
	results := make(map[string]*checker.CheckResult, len(sorted))
	var entryResult *checker.CheckResult
	for _, path := range sorted {
		prog := reg.Module(path)
		imports := make(map[string]*checker.CheckResult)
		for _, use := range prog.Uses {
			resolved := reg.ResolvedUse(path, use.Path)
			if dep, ok := results[resolved]; ok {
				imports[use.Path] = dep
			}
		}
		result := checker.CheckWithImports(prog, imports)
		diag.Merge(result.Diagnostics)
		results[path] = result
		if path == reg.EntryPath() {
			entryResult = result
		}
	}
	if diag.HasErrors() {
		return nil, fmt.Errorf("%s", diag.Format(reg.EntryPath()))
	}
	if entryResult == nil {
		return nil, fmt.Errorf("entry module %s missing from discovered set", reg.EntryPath())
	}
	return entryResult, nil
}

// Build runs load -> check -> emit -> gcc(assemble) -> gcc(link), producing
// build/obj/<stem>.s, build/obj/<stem>.o, and build/{debug|release}/<stem>
// (spec.md §6).
func Build(opts Options) (*Result, error) {
	log.Printf("[DEBUG] loading %s (include paths: %v)", opts.EntryPath, opts.IncludePaths)
	reg, err := loader.New(opts.EntryPath, opts.IncludePaths)
	if err != nil {
		return nil, fmt.Errorf("driver: %w", err)
	}

	diag, err := reg.Discover()
	if err != nil {
		return nil, fmt.Errorf("driver: discovering modules: %w", err)
	}
	if diag.HasErrors() {
		return nil, fmt.Errorf("driver: parse errors:\n%s", diag.Format(opts.EntryPath))
	}

	sorted, err := reg.Sort()
	if err != nil {
		return nil, fmt.Errorf("driver: %w", err)
	}
	log.Printf("[DEBUG] %d module(s) in dependency order", len(sorted))

	result, err := checkAll(reg, sorted)
	if err != nil {
		return nil, fmt.Errorf("driver: %w", err)
	}

	log.Printf("[INFO] emitting assembly for %s", opts.EntryPath)
	asm := emitter.Emit(reg.Module(reg.EntryPath()), result, opts.Target)

	name := stem(opts.EntryPath)
	objDir := filepath.Join("build", "obj")
	if err := os.MkdirAll(objDir, 0o755); err != nil {
		return nil, fmt.Errorf("driver: creating %s: %w", objDir, err)
	}

	asmPath := filepath.Join(objDir, name+".s")
	if err := os.WriteFile(asmPath, []byte(asm), 0o644); err != nil {
		return nil, fmt.Errorf("driver: writing %s: %w", asmPath, err)
	}

	objPath := filepath.Join(objDir, name+".o")
	if err := assemble(asmPath, objPath); err != nil {
		return nil, fmt.Errorf("driver: %w", err)
	}

	outDir := filepath.Join("build", opts.Mode.String())
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("driver: creating %s: %w", outDir, err)
	}
	binPath := filepath.Join(outDir, name+binaryExtension(opts.Target, opts.OutputType))
	if err := link(objPath, binPath, opts); err != nil {
		return nil, fmt.Errorf("driver: %w", err)
	}

	return &Result{AssemblyPath: asmPath, ObjectPath: objPath, BinaryPath: binPath}, nil
}

// assemble shells out to gcc as a pure assembler, matching the teacher's
// temp-workspace-and-shell-out pattern (compiler.Build), generalized from
// `cargo build` to two `gcc` invocations (spec.md §6).
func assemble(asmPath, objPath string) error {
	log.Printf("[DEBUG] gcc -c %s -o %s", asmPath, objPath)
	cmd := exec.Command("gcc", "-c", asmPath, "-o", objPath)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("assembling %s: %w", asmPath, err)
	}
	return nil
}

func link(objPath, binPath string, opts Options) error {
	args := []string{objPath, "-o", binPath, "-nostartfiles"}
	if opts.OutputType == SharedLibrary {
		args = append(args, "-shared")
	}
	log.Printf("[DEBUG] gcc %s", strings.Join(args, " "))
	cmd := exec.Command("gcc", args...)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("linking %s: %w", binPath, err)
	}
	return nil
}
