// Command nimc is the nim language compiler's command-line entry point: a
// thin flag layer over internal/driver (spec.md §6).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/nimlang/nimc/internal/config"
	"github.com/nimlang/nimc/internal/driver"
	"github.com/nimlang/nimc/internal/emitter"
)

const usage = `nimc - the nim compiler

Usage:
  nimc [options] <file.nim>

Options:
  --target <target>        Target platform: linux (default), windows, macos
  --mode <mode>             Build mode: debug (default), release
  --output-type <type>      Output artifact: exe (default), shared
  -I, --include <path>      Add an include path (repeatable)
  -h, --help                Show this help text
`

func parseTarget(s string) (emitter.Target, error) {
	switch s {
	case "", "linux":
		return emitter.Linux, nil
	case "windows":
		return emitter.Windows, nil
	case "macos":
		return emitter.MacOS, nil
	default:
		return 0, fmt.Errorf("unknown target %q", s)
	}
}

func parseMode(s string) (driver.Mode, error) {
	switch s {
	case "", "debug":
		return driver.Debug, nil
	case "release":
		return driver.Release, nil
	default:
		return 0, fmt.Errorf("unknown mode %q", s)
	}
}

func parseOutputType(s string) (driver.OutputType, error) {
	switch s {
	case "", "exe":
		return driver.Executable, nil
	case "shared":
		return driver.SharedLibrary, nil
	default:
		return 0, fmt.Errorf("unknown output type %q", s)
	}
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("nimc", pflag.ContinueOnError)
	flags.Usage = func() { fmt.Fprint(os.Stderr, usage) }

	targetFlag := flags.String("target", "linux", "target platform")
	modeFlag := flags.String("mode", "debug", "build mode")
	outputTypeFlag := flags.String("output-type", "exe", "output artifact type")
	includeFlag := flags.StringArrayP("include", "I", nil, "add an include path (repeatable)")
	verboseFlag := flags.BoolP("verbose", "v", false, "enable debug-level logging")
	help := flags.BoolP("help", "h", false, "show this help text")

	// pflag reads the single-dash `-help` as the shorthand cluster -h -e -l -p,
	// so it is recognized here before parsing.
	for _, a := range args {
		if a == "-help" {
			fmt.Print(usage)
			return 0
		}
	}

	if err := flags.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "nimc: %s\n", err)
		return 1
	}
	if *help {
		fmt.Print(usage)
		return 0
	}

	if flags.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "nimc: expected exactly one input file")
		fmt.Fprint(os.Stderr, usage)
		return 1
	}
	entryPath := flags.Arg(0)

	target, err := parseTarget(*targetFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nimc: %s\n", err)
		return 1
	}
	mode, err := parseMode(*modeFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nimc: %s\n", err)
		return 1
	}
	outputType, err := parseOutputType(*outputTypeFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nimc: %s\n", err)
		return 1
	}

	driver.SetupLogging(*verboseFlag)

	cfg, err := config.Load(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "nimc: %s\n", err)
		return 1
	}

	opts := driver.Options{
		EntryPath:    entryPath,
		Target:       target,
		Mode:         mode,
		OutputType:   outputType,
		IncludePaths: cfg.ResolveIncludePaths(*includeFlag),
		Verbose:      *verboseFlag,
	}

	result, err := driver.Build(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nimc: %s\n", err)
		return 1
	}

	fmt.Printf("wrote %s\n", result.BinaryPath)
	return 0
}
