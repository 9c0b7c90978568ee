package dialect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadFile_YAMLAppliesDefaults(t *testing.T) {
	p := writeFile(t, t.TempDir(), "qwen.yaml", `
name: my-qwen
tool_calls: tag
`)
	cfg, err := LoadFile(p)
	require.NoError(t, err)
	require.Equal(t, "my-qwen", cfg.Name)
	require.Equal(t, []string{"<tool_call>"}, cfg.ToolMarkers)
	require.Equal(t, "</tool_call>", cfg.ToolCloseTag)
	require.Equal(t, AnchorAnywhere, cfg.MarkerAnchor)
	require.Equal(t, ReasoningNone, cfg.Reasoning)
	require.Equal(t, MalformedDrop, cfg.OnMalformed)
}

func TestLoadFile_JSON(t *testing.T) {
	p := writeFile(t, t.TempDir(), "r1.json", `{"name":"r1","tool_calls":"native","reasoning":"channel","append_tool_call_turns":true}`)
	cfg, err := LoadFile(p)
	require.NoError(t, err)
	require.Equal(t, ToolCallsNative, cfg.ToolCalls)
	require.Equal(t, ReasoningChannel, cfg.Reasoning)
	require.True(t, cfg.AppendToolCallTurns)
}

func TestLoadFile_TOML(t *testing.T) {
	p := writeFile(t, t.TempDir(), "think.toml", `
name = "think"
tool_calls = "prefix"
tool_markers = ["Action:", "`+"```"+`\nAction:"]
marker_anchor = "line"
reasoning = "inline"
on_malformed = "content"
`)
	cfg, err := LoadFile(p)
	require.NoError(t, err)
	require.Equal(t, ToolCallsPrefix, cfg.ToolCalls)
	require.Equal(t, []string{"Action:", "```\nAction:"}, cfg.ToolMarkers)
	require.Equal(t, AnchorLine, cfg.MarkerAnchor)
	require.Equal(t, "</think>", cfg.ReasoningDelimiter)
	require.Equal(t, MalformedContent, cfg.OnMalformed)
}

func TestValidate_Rejects(t *testing.T) {
	cases := map[string]Config{
		"missing name":       {ToolCalls: ToolCallsNone},
		"bad tool mode":      {Name: "x", ToolCalls: "smoke-signals"},
		"prefix no markers":  {Name: "x", ToolCalls: ToolCallsPrefix},
		"empty marker":       {Name: "x", ToolCalls: ToolCallsPrefix, ToolMarkers: []string{""}},
		"bad anchor":         {Name: "x", MarkerAnchor: "middle"},
		"bad reasoning mode": {Name: "x", Reasoning: "telepathy"},
		"bad malformed":      {Name: "x", OnMalformed: "explode"},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			cfg.ApplyDefaults()
			require.Error(t, cfg.Validate())
		})
	}
}

func TestBuiltinsAreValid(t *testing.T) {
	for _, n := range BuiltinNames() {
		c, ok := Builtin(n)
		require.True(t, ok, n)
		require.NoError(t, c.Validate(), n)
		require.Equal(t, n, c.Name)
	}
}

func TestBuiltinReturnsCopy(t *testing.T) {
	a := MustBuiltin("llama")
	a.ToolMarkers[0] = "mutated"
	b := MustBuiltin("llama")
	require.Equal(t, "Action:", b.ToolMarkers[0])
}
