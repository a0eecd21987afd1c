package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.Execute()
	return out.String(), errOut.String(), err
}

func TestRoot_Subcommands(t *testing.T) {
	out, _, err := execute(t, "resolve", "${a:fallback}")
	require.NoError(t, err)
	assert.Equal(t, "fallback\n", out)

	out, _, err = execute(t, "value", "[a,b]", "--format", "compact")
	require.NoError(t, err)
	assert.Equal(t, "kind:list\nvalue:[a,b]\n", out)
}

func TestRoot_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
parse:
  prefix: /subsystem=logging
resolve:
  values: true
  variables:
    level: TRACE
`), 0o644))

	out, _, err := execute(t, "--config", path, "parse", "logger=app:write-attribute(value=${level})", "--format", "compact")
	require.NoError(t, err)
	assert.Contains(t, out, "address:/subsystem=logging/logger=app\n")
	assert.Contains(t, out, "property.value:TRACE\n")
}

func TestRoot_LogFlags(t *testing.T) {
	_, stderr, err := execute(t, "--log-level", "debug", "--log-format", "json", "split", "a;b", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, stderr, `"msg":"line split"`)

	_, _, err = execute(t, "--log-level", "loud", "split", "a", "--format", "json")
	assert.Error(t, err)
}

func TestRoot_MissingConfig(t *testing.T) {
	_, _, err := execute(t, "--config", filepath.Join(t.TempDir(), "nope.toml"), "resolve", "x")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
