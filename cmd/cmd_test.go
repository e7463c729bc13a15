package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	data := fmt.Sprintf(`strategy:
  type: expert
journal:
  backend: jsonl
  path: %s
  text_path: %s
logging:
  level: error
  file: %s
`, filepath.Join(dir, "journal.jsonl"), filepath.Join(dir, "yard.log"), filepath.Join(dir, "app.log"))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func TestCLI_GenerateRunVerify(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	input := filepath.Join(dir, "containers.yaml")

	_, err := execute(t, "generate", "-c", cfg, "--out", input, "--count", "25", "--seed", "7")
	require.NoError(t, err)
	require.FileExists(t, input)

	out, err := execute(t, "run", "-c", cfg, "-i", input, "-o", filepath.Join(dir, "outcomes.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "run_id,strategy,cash"), out)
	assert.FileExists(t, filepath.Join(dir, "outcomes.csv"))

	out, err = execute(t, "verify", "-c", cfg, "-i", input, "--log", filepath.Join(dir, "journal.jsonl"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "(expert): ok")

	out, err = execute(t, "verify", "-c", cfg, "-i", input, "--log", filepath.Join(dir, "yard.log"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "yard.log (expert): ok")

	out, err = execute(t, "verify", "-c", cfg, "-i", input, "--log", "")
	require.NoError(t, err, out)
	assert.Contains(t, out, "(expert): ok")
}

func TestCLI_Compare(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	input := filepath.Join(dir, "containers.txt")
	require.NoError(t, os.WriteFile(input, []byte("1 1 10 0 2 5 6\n2 1 1 2 2 50 60\n"), 0o600))

	out, err := execute(t, "compare", "-c", cfg, "-i", input, "-s", "simple,expert", "-o", filepath.Join(dir, "outcomes.json"),
		"--chart", filepath.Join(dir, "cash.html"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], ",simple,1,")
	assert.Contains(t, lines[2], ",expert,11,")
	assert.FileExists(t, filepath.Join(dir, "yard-simple.log"))
	assert.FileExists(t, filepath.Join(dir, "outcomes.json"))
	assert.FileExists(t, filepath.Join(dir, "cash.html"))

	out, err = execute(t, "verify", "-c", cfg, "-i", input, "--log", filepath.Join(dir, "yard-simple.log"))
	require.NoError(t, err, out)
}

func TestCLI_VerifyDetectsTampering(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	input := filepath.Join(dir, "containers.txt")
	require.NoError(t, os.WriteFile(input, []byte("1 1 10 0 0 5 6\n"), 0o600))
	log := filepath.Join(dir, "forged.log")
	require.NoError(t, os.WriteFile(log, []byte("0 START simple 2\n0 ADD 1 0\n1 REMOVE 1\n1 CASH 10\n"), 0o600))

	out, err := execute(t, "verify", "-c", cfg, "-i", input, "--log", log)
	assert.Error(t, err)
	assert.Contains(t, out, "journal violation")
}

func TestCLI_Strategies(t *testing.T) {
	out, err := execute(t, "strategies")
	require.NoError(t, err)
	assert.Equal(t, "expert\nsimple\n", out)
}
