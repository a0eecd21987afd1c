package cobraext

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relux-works/opline/config"
)

// run executes cmd with args and returns its standard output.
func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseCommand_JSON(t *testing.T) {
	out, err := run(t, ParseCommand(nil), ":read-resource(recursive=true)", "--format", "json")
	require.NoError(t, err)

	var reports []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &reports), out)
	require.Len(t, reports, 1)
	assert.Equal(t, "read-resource", reports[0]["operation"])
	assert.Equal(t, map[string]any{"recursive": "true"}, reports[0]["properties"])
	assert.Equal(t, true, reports[0]["complete"])
}

func TestParseCommand_Compact(t *testing.T) {
	out, err := run(t, ParseCommand(nil), "/subsystem=logging:read-resource", "--format", "compact")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "command:/subsystem=logging:read-resource\n"+
		"address:/subsystem=logging\n"+
		"operation:read-resource\n"), out)
}

func TestParseCommand_MissingFormatFlag(t *testing.T) {
	_, err := run(t, ParseCommand(nil), ":read-resource")
	assert.Error(t, err)
}

func TestParseCommand_UnsupportedFormat(t *testing.T) {
	_, err := run(t, ParseCommand(nil), ":read-resource", "--format", "cty")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported here")
}

func TestParseCommand_BatchFailure(t *testing.T) {
	out, err := run(t, ParseCommand(nil), "a=b; -x", "--format", "compact")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 commands failed")
	assert.Contains(t, out, "address:/a=b\n")
	assert.Contains(t, out, "error:TOKEN_VALIDATION_ERROR at 5:")
}

func TestParseCommand_Flags(t *testing.T) {
	out, err := run(t, ParseCommand(nil),
		"logger=${name}:read-resource",
		"--prefix", "/subsystem=logging",
		"--resolve",
		"-D", "name=app",
		"--format", "compact",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "address:/subsystem=logging/logger=app\n")

	out, err = run(t, ParseCommand(nil), "/subsystem=", "--lenient", "--format", "compact")
	require.NoError(t, err)
	assert.Contains(t, out, "ends-on:node-type-name-separator\n")
}

func TestParseCommand_UsesSettings(t *testing.T) {
	cfg := config.Default()
	cfg.Parse.Prefix = "/subsystem=logging"
	cfg.Resolve.Values = true
	cfg.Resolve.Variables = map[string]string{"level": "DEBUG"}
	s := &Settings{Config: cfg}

	out, err := run(t, ParseCommand(s), "logger=app:write-attribute(value=${level})", "--format", "compact")
	require.NoError(t, err)
	assert.Contains(t, out, "address:/subsystem=logging/logger=app\n")
	assert.Contains(t, out, "property.value:DEBUG\n")

	_, err = run(t, ParseCommand(s), ":op", "-D", "level=INFO", "--format", "compact")
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", cfg.Resolve.Variables["level"], "-D must not leak into the shared settings")
}

func TestValueCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "compact list",
			args: []string{"[a,b]", "--format", "compact"},
			want: "kind:list\nvalue:[a,b]\n",
		},
		{
			name: "compact object",
			args: []string{"a=b,c=[d,e]", "--format", "llm"},
			want: "kind:object\nvalue:{a=>b,c=>[d,e]}\n",
		},
		{
			name: "cty bytes",
			args: []string{"bytes{1,-2}", "--format", "cty"},
			want: "[1,-2]\n",
		},
		{
			name: "resolved leaf",
			args: []string{"[${x},z]", "--resolve", "-D", "x=y", "--format", "compact"},
			want: "kind:list\nvalue:[y,z]\n",
		},
		{
			name: "unresolved without flag",
			args: []string{"${x}", "--format", "compact"},
			want: "kind:string\nvalue:${x}\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, ValueCommand(nil), tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestValueCommand_JSON(t *testing.T) {
	out, err := run(t, ValueCommand(nil), "a=b,c=[d,e]", "--format", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"object","value":{"a":"b","c":["d","e"]}}`, out)
}

func TestValueCommand_Errors(t *testing.T) {
	_, err := run(t, ValueCommand(nil), "bytes{300}", "--format", "json")
	assert.Error(t, err)

	_, err = run(t, ValueCommand(nil), "x", "--stage", "later", "--format", "json")
	assert.Error(t, err)
}

func TestResolveCommand(t *testing.T) {
	out, err := run(t, ResolveCommand(nil), "${unknown:${test.op-name}}", "-D", "test.op-name=test-op")
	require.NoError(t, err)
	assert.Equal(t, "test-op\n", out)

	_, err = run(t, ResolveCommand(nil), "${nope}")
	assert.Error(t, err)

	out, err = run(t, ResolveCommand(nil), "${nope} x", "--lax")
	require.NoError(t, err)
	assert.Equal(t, "${nope} x\n", out)

	out, err = run(t, ResolveCommand(nil), "${nope", "--or-original")
	require.NoError(t, err)
	assert.Equal(t, "${nope\n", out)
}

func TestResolveCommand_BadDefine(t *testing.T) {
	_, err := run(t, ResolveCommand(nil), "x", "-D", "novalue")
	assert.Error(t, err)
}

func TestSplitCommand(t *testing.T) {
	out, err := run(t, SplitCommand(nil), "a=b:op(x=1,y=2); c=d", "--format", "compact")
	require.NoError(t, err)
	assert.Equal(t, "offset,text\n0,\"a=b:op(x=1,y=2)\"\n17,c=d\n", out)

	out, err = run(t, SplitCommand(nil), "a=b:op(x=1,y=2); c=d", "--format", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"text":"a=b:op(x=1,y=2)","offset":0},{"text":"c=d","offset":17}]`, out)

	out, err = run(t, SplitCommand(nil), "a,b", "--separators", ";", "--format", "compact")
	require.NoError(t, err)
	assert.Equal(t, "offset,text\n0,\"a,b\"\n", out)
}

func TestSplitCommand_UnterminatedQuote(t *testing.T) {
	_, err := run(t, SplitCommand(nil), `a; b="c`, "--format", "json")
	assert.Error(t, err)

	out, err := run(t, SplitCommand(nil), `a; b="c`, "--lenient", "--format", "compact")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, "\n"))
}

func TestAddCommands(t *testing.T) {
	root := &cobra.Command{Use: "opline"}
	AddCommands(root, nil)

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"parse", "value", "resolve", "split"}, names)
}

func TestParseOutputMode(t *testing.T) {
	tests := []struct {
		input   string
		want    OutputMode
		wantErr bool
	}{
		{"compact", ModeCompact, false},
		{"COMPACT", ModeCompact, false},
		{"llm", ModeCompact, false},
		{"json", ModeJSON, false},
		{"JSON", ModeJSON, false},
		{"cty", ModeCty, false},
		{"", ModeJSON, true},
		{"anything", ModeJSON, true},
	}

	for _, tt := range tests {
		got, err := parseOutputMode(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseOutputMode(%q): expected error, got nil", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseOutputMode(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseOutputMode(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
