package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestScenarioCommand(t *testing.T) {
	out, err := execute(t, "scenario", filepath.Join("..", "qa", "scenarios", "testdata", "nearest_first.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "PASS nearest-first")
}

func TestScenarioCommandFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wrong.yaml")
	doc := "name: wrong\ntrain:\n  stations: [A, B]\nsteps:\n  - cycles: 1\nexpected:\n  station: B\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	out, err := execute(t, "scenario", path)
	require.Error(t, err)
	assert.Contains(t, out, "FAIL wrong")
}

func TestSimulateCommand(t *testing.T) {
	t.Setenv("K_JOURNAL__BACKEND", "none")
	out, err := execute(t, "simulate", "--cycles", "5", "--seed", "7", "--env-file", "")
	require.NoError(t, err)
	var sum Summary
	require.NoError(t, json.Unmarshal([]byte(out[bytes.IndexByte([]byte(out), '{'):]), &sum))
	assert.Equal(t, 5, sum.Cycles)
}

func TestLoadEnv(t *testing.T) {
	require.NoError(t, loadEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("RAILDISPATCH_TEST_VAR=yes\n"), 0o644))
	t.Setenv("RAILDISPATCH_TEST_VAR", "")
	require.NoError(t, os.Unsetenv("RAILDISPATCH_TEST_VAR"))
	require.NoError(t, loadEnv(path))
	assert.Equal(t, "yes", os.Getenv("RAILDISPATCH_TEST_VAR"))
}
