package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nimlang/nimc/internal/driver"
	"github.com/nimlang/nimc/internal/emitter"
)

func TestParseTarget(t *testing.T) {
	target, err := parseTarget("")
	require.NoError(t, err)
	require.Equal(t, emitter.Linux, target)

	target, err = parseTarget("windows")
	require.NoError(t, err)
	require.Equal(t, emitter.Windows, target)

	_, err = parseTarget("amiga")
	require.Error(t, err)
}

func TestParseMode(t *testing.T) {
	mode, err := parseMode("release")
	require.NoError(t, err)
	require.Equal(t, driver.Release, mode)

	_, err = parseMode("turbo")
	require.Error(t, err)
}

func TestParseOutputType(t *testing.T) {
	ot, err := parseOutputType("shared")
	require.NoError(t, err)
	require.Equal(t, driver.SharedLibrary, ot)

	_, err = parseOutputType("")
	require.NoError(t, err)

	_, err = parseOutputType("bogus")
	require.Error(t, err)
}

func TestRun_HelpFlagPrintsUsageAndExitsZero(t *testing.T) {
	require.Equal(t, 0, run([]string{"--help"}))
}

func TestRun_NoArgsFails(t *testing.T) {
	require.Equal(t, 1, run([]string{}))
}
