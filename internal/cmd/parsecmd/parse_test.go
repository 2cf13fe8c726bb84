package parsecmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openwikitools/wtx/pkg/wikitext"
)

func newTestProcessor() *wikitext.Processor {
	p := wikitext.NewProcessor(wikitext.Options{})
	p.StartPage("Testpage")
	return p
}

func TestNodeJSON_PlainText(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("just some text")

	out, ok := nodeJSON(root).(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ROOT", out["kind"])

	children, ok := out["children"].([]any)
	require.True(t, ok)
	assert.Contains(t, children, "just some text")
}

func TestNodeJSON_Template(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("{{infobox|name=Go}}")

	out := nodeJSON(root).(map[string]any)
	children := out["children"].([]any)

	var tmpl map[string]any
	for _, ch := range children {
		if m, ok := ch.(map[string]any); ok && m["kind"] == "TEMPLATE" {
			tmpl = m
		}
	}
	require.NotNil(t, tmpl, "expected a TEMPLATE child")

	largs, ok := tmpl["largs"].([][]any)
	require.True(t, ok)
	require.Len(t, largs, 2)
	assert.Equal(t, "infobox", largs[0][0])
}

func TestNodeJSON_Heading(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("== Section ==\nbody\n")

	out := nodeJSON(root).(map[string]any)
	children := out["children"].([]any)

	found := false
	for _, ch := range children {
		if m, ok := ch.(map[string]any); ok && m["kind"] == "LEVEL2" {
			found = true
		}
	}
	assert.True(t, found, "expected a LEVEL2 child")
}

func TestRunParse_File(t *testing.T) {
	p := newTestProcessor()
	path := filepath.Join(t.TempDir(), "input.wiki")
	require.NoError(t, os.WriteFile(path, []byte("''italic'' text"), 0o644))

	require.NoError(t, runParse(path, &parseOptions{}, p))
}

func TestRunParse_FileMissing(t *testing.T) {
	p := newTestProcessor()
	err := runParse(filepath.Join(t.TempDir(), "nope.wiki"), &parseOptions{}, p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read input file")
}

func TestRunParse_InvalidOutputFormat(t *testing.T) {
	p := newTestProcessor()
	err := runParse("ignored", &parseOptions{output: "yaml"}, p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
}

func TestNewCmdParse_Flags(t *testing.T) {
	cmd := NewCmdParse()

	for _, name := range []string{"pages", "title", "expand", "pre-expand"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "flag %s should exist", name)
	}
}
