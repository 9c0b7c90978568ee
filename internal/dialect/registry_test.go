package dialect

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_LoadDirDiscoversNestedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "name: alpha\ntool_calls: native\n")
	writeFile(t, dir, "nested/deeper/b.json", `{"name":"beta","reasoning":"channel"}`)
	writeFile(t, dir, "nested/c.toml", "name = \"openai\"\ntool_calls = \"none\"\n")
	writeFile(t, dir, "notes.txt", "ignored")

	r := NewRegistry()
	loaded, err := r.LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, loaded, 3)

	beta, err := r.Lookup("beta")
	require.NoError(t, err)
	require.Equal(t, ReasoningChannel, beta.Reasoning)
	require.Equal(t, filepath.Join(dir, "nested", "deeper", "b.json"), r.Source("beta"))

	// File definitions override built-ins of the same name.
	oa, err := r.Lookup("openai")
	require.NoError(t, err)
	require.Equal(t, ToolCallsNone, oa.ToolCalls)
}

func TestRegistry_LoadDirMissingIsNoop(t *testing.T) {
	r := NewRegistry()
	loaded, err := r.LoadDir(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	require.Empty(t, loaded)
	require.Contains(t, r.Names(), "qwq")
}

func TestRegistry_LoadDirReportsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.yaml", "name: bad\ntool_calls: tag\ntool_markers: []\ntool_close_tag: \"\"\nmarker_anchor: sideways\n")
	_, err := NewRegistry().LoadDir(dir)
	require.Error(t, err)
}

func TestRegistry_LookupUnknown(t *testing.T) {
	_, err := NewRegistry().Lookup("nope")
	require.Error(t, err)
}
