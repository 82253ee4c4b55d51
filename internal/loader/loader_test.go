package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"
)

// writeArchive materializes a txtar fixture under dir and returns dir,
// following the teacher repo pack's convention of keeping multi-file test
// inputs as a single readable block instead of several .nim files.
func writeArchive(t *testing.T, data string) string {
	t.Helper()
	dir := t.TempDir()
	ar := txtar.Parse([]byte(data))
	for _, f := range ar.Files {
		full := filepath.Join(dir, f.Name)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, f.Data, 0o644))
	}
	return dir
}

func TestDiscover_LinearDependency(t *testing.T) {
	dir := writeArchive(t, `
-- main.nim --
use math;
fn main(): i32 { return 0; }
-- math.nim --
fn add(a: i32, b: i32): i32 { return a + b; }
`)
	reg, err := New(filepath.Join(dir, "main.nim"), []string{dir})
	require.NoError(t, err)
	diags, err := reg.Discover()
	require.NoError(t, err)
	require.False(t, diags.HasErrors())
	require.Len(t, reg.AllModules(), 2)

	order, err := reg.Sort()
	require.NoError(t, err)
	require.Len(t, order, 2)
	require.Equal(t, filepath.Join(dir, "math.nim"), order[0])
	require.Equal(t, reg.EntryPath(), order[1])
}

func TestDiscover_DiamondDependencyMemoizedOnce(t *testing.T) {
	dir := writeArchive(t, `
-- main.nim --
use left;
use right;
fn main(): i32 { return 0; }
-- left.nim --
use shared;
fn l(): i32 { return 0; }
-- right.nim --
use shared;
fn r(): i32 { return 0; }
-- shared.nim --
fn s(): i32 { return 0; }
`)
	reg, err := New(filepath.Join(dir, "main.nim"), []string{dir})
	require.NoError(t, err)
	_, err = reg.Discover()
	require.NoError(t, err)
	require.Len(t, reg.AllModules(), 4)

	order, err := reg.Sort()
	require.NoError(t, err)
	require.Len(t, order, 4)

	pos := map[string]int{}
	for i, p := range order {
		pos[filepath.Base(p)] = i
	}
	require.Less(t, pos["shared.nim"], pos["left.nim"])
	require.Less(t, pos["shared.nim"], pos["right.nim"])
	require.Less(t, pos["left.nim"], pos["main.nim"])
	require.Less(t, pos["right.nim"], pos["main.nim"])
}

func TestSort_DetectsTrueCycle(t *testing.T) {
	dir := writeArchive(t, `
-- a.nim --
use b;
fn fa(): i32 { return 0; }
-- b.nim --
use a;
fn fb(): i32 { return 0; }
`)
	reg, err := New(filepath.Join(dir, "a.nim"), []string{dir})
	require.NoError(t, err)
	_, err = reg.Discover()
	require.NoError(t, err)

	_, err = reg.Sort()
	require.Error(t, err)
	require.Contains(t, err.Error(), "import cycle detected")
}

func TestDiscover_MissingModuleReportsDiagnostic(t *testing.T) {
	dir := writeArchive(t, `
-- main.nim --
use nonexistent;
fn main(): i32 { return 0; }
`)
	reg, err := New(filepath.Join(dir, "main.nim"), []string{dir})
	require.NoError(t, err)
	diags, err := reg.Discover()
	require.NoError(t, err)
	require.True(t, diags.HasErrors())
}

func TestResolve_SearchesIncludePathsInOrder(t *testing.T) {
	firstDir := t.TempDir()
	secondDir := writeArchive(t, `
-- shared.nim --
fn s(): i32 { return 1; }
`)
	entry := writeArchive(t, `
-- main.nim --
use shared;
fn main(): i32 { return 0; }
`)
	reg, err := New(filepath.Join(entry, "main.nim"), []string{firstDir, secondDir})
	require.NoError(t, err)
	_, err = reg.Discover()
	require.NoError(t, err)
	require.Len(t, reg.AllModules(), 2)
}
