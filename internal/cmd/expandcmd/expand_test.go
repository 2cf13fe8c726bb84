package expandcmd

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
	p.AddTemplate("greet", "Hello, {{{1}}}!")
	return p
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.wiki")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadInput_File(t *testing.T) {
	p := newTestProcessor()
	path := writeTempFile(t, "{{greet|world}}")

	title, text, err := readInput(p, path, "", "")
	require.NoError(t, err)
	assert.Equal(t, path, title)
	assert.Equal(t, "{{greet|world}}", text)
}

func TestReadInput_TitleOverride(t *testing.T) {
	p := newTestProcessor()
	path := writeTempFile(t, "body")

	title, _, err := readInput(p, path, "", "My Article")
	require.NoError(t, err)
	assert.Equal(t, "My Article", title)
}

func TestReadInput_FileMissing(t *testing.T) {
	p := newTestProcessor()
	_, _, err := readInput(p, filepath.Join(t.TempDir(), "nope.wiki"), "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read input file")
}

func TestReadInput_StoredPage(t *testing.T) {
	p := newTestProcessor()
	p.AddPage("Main Page", "welcome")

	title, text, err := readInput(p, "", "Main Page", "")
	require.NoError(t, err)
	assert.Equal(t, "Main Page", title)
	assert.Equal(t, "welcome", text)
}

func TestReadInput_StoredPageMissing(t *testing.T) {
	p := newTestProcessor()
	_, _, err := readInput(p, "", "No Such Page", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRunExpand_File(t *testing.T) {
	p := newTestProcessor()
	path := writeTempFile(t, "{{greet|world}}")

	opts := &expandOptions{quiet: true}
	require.NoError(t, runExpand(path, opts, p))
}

func TestRunExpand_JSONOutput(t *testing.T) {
	p := newTestProcessor()
	path := writeTempFile(t, "{{#expr: 2 + 2}}")

	opts := &expandOptions{output: "json", quiet: true}
	require.NoError(t, runExpand(path, opts, p))
}

func TestRunExpand_InvalidOutputFormat(t *testing.T) {
	p := newTestProcessor()
	opts := &expandOptions{output: "xml"}
	err := runExpand("ignored", opts, p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
}

func TestNewCmdExpand_Flags(t *testing.T) {
	cmd := NewCmdExpand()

	for _, name := range []string{"pages", "title", "page", "pre-expand-only", "quiet"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "flag %s should exist", name)
	}
}
