package rendercmd

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

func TestRenderNode_Wikitext(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("''italic'' and '''bold'''")

	out, err := renderNode(p, root, "wikitext")
	require.NoError(t, err)
	assert.Equal(t, "''italic'' and '''bold'''", out)
}

func TestRenderNode_Text(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("plain <b>bold</b> words")

	out, err := renderNode(p, root, "text")
	require.NoError(t, err)
	assert.Equal(t, "plain bold words", out)
}

func TestRenderNode_HTML(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("a <b>bold</b> word")

	out, err := renderNode(p, root, "html")
	require.NoError(t, err)
	assert.Contains(t, out, "<b>bold</b>")
}

func TestRenderNode_Markdown(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("a <b>bold</b> word")

	out, err := renderNode(p, root, "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "**bold**")
}

func TestRenderNode_InvalidFormat(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("text")

	_, err := renderNode(p, root, "pdf")
	require.Error(t, err)
}

func TestRunRender_File(t *testing.T) {
	p := newTestProcessor()
	path := filepath.Join(t.TempDir(), "input.wiki")
	require.NoError(t, os.WriteFile(path, []byte("some ''wiki'' text"), 0o644))

	opts := &renderOptions{format: "text"}
	require.NoError(t, runRender(path, opts, p))
}

func TestRunRender_InvalidFormat(t *testing.T) {
	p := newTestProcessor()
	err := runRender("ignored", &renderOptions{format: "pdf"}, p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRunRender_InvalidOutputFormat(t *testing.T) {
	p := newTestProcessor()
	err := runRender("ignored", &renderOptions{format: "text", output: "xml"}, p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
}

func TestNewCmdRender_Flags(t *testing.T) {
	cmd := NewCmdRender()

	format := cmd.Flags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)
}
