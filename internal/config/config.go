// Package config loads the optional nim.conf file that supplements the
// CLI's -I include paths (spec.md §6).
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"
)

// DefaultIncludePaths are prepended to every include-path list before
// nim.conf or CLI -I entries are appended (spec.md §6).
var DefaultIncludePaths = []string{".", "./libs"}

// Config is the parsed form of a nim.conf file.
type Config struct {
	// IncludePaths starts with DefaultIncludePaths, then one entry per
	// `include=` line encountered, in file order.
	IncludePaths []string
	// Version is the optional `version=` value, empty if absent.
	Version string
}

// Load reads nim.conf from dir (the working directory), returning a Config
// seeded with DefaultIncludePaths even when no file is present — a missing
// nim.conf is not an error (spec.md §6 calls it optional).
func Load(dir string) (*Config, error) {
	cfg := &Config{IncludePaths: append([]string(nil), DefaultIncludePaths...)}

	path := filepath.Join(dir, "nim.conf")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: opening %s: %w", path, err)
	}
	defer f.Close()

	if err := cfg.parse(f, path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) parse(f *os.File, path string) error {
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := stripComment(scanner.Text())
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, value, ok := splitKeyValue(line)
		if !ok {
			return fmt.Errorf("config: %s:%d: expected key=value, got %q", path, lineNo, line)
		}

		switch key {
		case "include":
			c.IncludePaths = append(c.IncludePaths, value)
		case "version":
			if !semver.IsValid(normalizeSemver(value)) {
				return fmt.Errorf("config: %s:%d: version %q is not a valid semantic version", path, lineNo, value)
			}
			c.Version = value
		default:
			// spec.md §6 only recognizes `include`; other keys are
			// silently ignored rather than rejected, for forward
			// compatibility with nim.conf files written for later tools.
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	return nil
}

func splitKeyValue(line string) (key, value string, ok bool) {
	idx := strings.IndexByte(line, '=')
	if idx < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:idx])
	value = strings.TrimSpace(line[idx+1:])
	if key == "" {
		return "", "", false
	}
	return key, value, true
}

func stripComment(line string) string {
	if idx := strings.IndexByte(line, '#'); idx >= 0 {
		return line[:idx]
	}
	return line
}

// normalizeSemver prefixes a bare "1.2.3" with "v" since golang.org/x/mod/semver
// requires the leading v that nim.conf authors are not expected to type.
func normalizeSemver(v string) string {
	if v == "" || strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

// ResolveIncludePaths appends cliPaths (the CLI's -I flags, in the order
// given) after the config's own paths, per spec.md §6's ordering: defaults,
// then nim.conf includes, then CLI-supplied paths.
func (c *Config) ResolveIncludePaths(cliPaths []string) []string {
	return append(append([]string(nil), c.IncludePaths...), cliPaths...)
}
