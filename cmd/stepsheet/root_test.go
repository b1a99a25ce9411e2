package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestVersionCommand(t *testing.T) {
	assert.Regexp(t, `^stepsheet version \d+\.\d+\.\d+\n$`, run(t, "version"))
}

func TestKindsCommand(t *testing.T) {
	assert.Contains(t, run(t, "kinds"), `"set_column_formula"`)
}

func TestReplayCommand(t *testing.T) {
	t.Setenv("STEPSHEET_KEY", "")
	dir := t.TempDir()
	data := filepath.Join(dir, "df.csv")
	require.NoError(t, os.WriteFile(data, []byte("A\n1\n2\n"), 0o644))
	analysis := filepath.Join(dir, "double.json")
	require.NoError(t, os.WriteFile(analysis, []byte(`{"name":"double","steps":[{"kind":"set_column_formula","version":1,"params":{"datasetIndex":0,"columnHeader":"B","formula":"=A * 2"}}]}`), 0o644))

	out := run(t, "replay", analysis, "--dir", dir, "--data", data)
	assert.Contains(t, out, "import pandas as pd\n")
	assert.Contains(t, out, "df.insert(1, 'B', 0)\n")
}
