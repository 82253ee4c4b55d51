package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConf(t *testing.T, dir, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nim.conf"), []byte(contents), 0o644))
}

func TestLoad_MissingFileReturnsDefaultsOnly(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, []string{".", "./libs"}, cfg.IncludePaths)
	require.Empty(t, cfg.Version)
}

func TestLoad_IncludeLinesAppendInFileOrder(t *testing.T) {
	dir := t.TempDir()
	writeConf(t, dir, "include=./vendor\ninclude=../shared\n")
	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, []string{".", "./libs", "./vendor", "../shared"}, cfg.IncludePaths)
}

func TestLoad_CommentsAndBlankLinesIgnored(t *testing.T) {
	dir := t.TempDir()
	writeConf(t, dir, "# a comment\n\ninclude=./vendor # trailing comment\n")
	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, []string{".", "./libs", "./vendor"}, cfg.IncludePaths)
}

func TestLoad_UnrecognizedKeyIsIgnored(t *testing.T) {
	dir := t.TempDir()
	writeConf(t, dir, "optimize=true\ninclude=./vendor\n")
	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, []string{".", "./libs", "./vendor"}, cfg.IncludePaths)
}

func TestLoad_ValidVersionIsAccepted(t *testing.T) {
	dir := t.TempDir()
	writeConf(t, dir, "version=1.4.0\n")
	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, "1.4.0", cfg.Version)
}

func TestLoad_InvalidVersionIsRejected(t *testing.T) {
	dir := t.TempDir()
	writeConf(t, dir, "version=not-a-version\n")
	_, err := Load(dir)
	require.Error(t, err)
}

func TestLoad_MalformedLineIsRejected(t *testing.T) {
	dir := t.TempDir()
	writeConf(t, dir, "this is not key value\n")
	_, err := Load(dir)
	require.Error(t, err)
}

func TestResolveIncludePaths_AppendsCLIPathsLast(t *testing.T) {
	dir := t.TempDir()
	writeConf(t, dir, "include=./vendor\n")
	cfg, err := Load(dir)
	require.NoError(t, err)
	resolved := cfg.ResolveIncludePaths([]string{"/opt/nim/libs"})
	require.Equal(t, []string{".", "./libs", "./vendor", "/opt/nim/libs"}, resolved)
}
