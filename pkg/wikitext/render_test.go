package wikitext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToWikitext_RoundTrips(t *testing.T) {
	cases := []string{
		"plain text",
		"''italic'' and '''bold'''",
		"[[Main Page|the main page]]",
		"{{infobox|type=person|Alice}}",
		"{{{1|default}}}",
		"[https://example.com Example site]",
	}
	for _, c := range cases {
		p := newTestProcessor()
		root := p.Parse(c)
		assert.Equal(t, c, ToWikitext(root, nil), "input %q", c)
	}
}

func TestToWikitext_Heading(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("== Section ==\ntext\n")
	out := ToWikitext(root, nil)
	assert.Contains(t, out, "== Section ==")
	assert.Contains(t, out, "text")
}

func TestToWikitext_ParserFn(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("{{#if:a|b|c}}")
	assert.Equal(t, "{{#if:a|b|c}}", ToWikitext(root, nil))
}

func TestToWikitext_TextBracketProtection(t *testing.T) {
	out := ToWikitext(Text("a [[ b ]] c"), nil)
	assert.Equal(t, "a [<noinclude/>[ b ]<noinclude/>] c", out)
}

func TestToWikitext_NodeHandler(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("before {{gone}} after")
	out := ToWikitext(root, func(node *WikiNode) ([]Child, bool) {
		if node.Kind == Template {
			return []Child{Text("X")}, true
		}
		return nil, false
	})
	assert.Equal(t, "before X after", out)
}

func TestToWikitext_List(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("* one\n* two\n")
	out := ToWikitext(root, nil)
	assert.Contains(t, out, "* one")
	assert.Contains(t, out, "* two")
}

func TestToWikitext_VoidHTMLTag(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("a<br>b")
	out := ToWikitext(root, nil)
	assert.Contains(t, out, "<br>")
}

func TestNodeToHTML_ExpandsTemplates(t *testing.T) {
	p := newTestProcessor()
	p.AddTemplate("greet", "Hello {{{1}}}")
	root := p.Parse("{{greet|World}}")
	assert.Equal(t, "Hello World", p.NodeToHTML(root, nil))
}

func TestNodeToText_StripsMarkup(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("Hello [[x|there]] friend")
	assert.Equal(t, "Hello there friend", p.NodeToText(root, nil))
}

func TestNodeToText_StripsRefs(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("fact<ref>citation</ref> end")
	out := p.NodeToText(root, nil)
	assert.NotContains(t, out, "citation")
	assert.Contains(t, out, "fact")
	assert.Contains(t, out, "end")
}

func TestNodeToText_ExternalLinkText(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("see [https://example.com the site] here")
	out := p.NodeToText(root, nil)
	assert.Contains(t, out, "the site")
	assert.NotContains(t, out, "https://example.com")
}

func TestNodeToText_RemovesCategoryLinks(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("text [[Category:Things]]")
	assert.Equal(t, "text", p.NodeToText(root, nil))
}

func TestRenderAttrs_Table(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("{| class=\"wikitable\"\n|-\n| cell\n|}\n")
	out := ToWikitext(root, nil)
	require.Contains(t, out, `{| class="wikitable"`)
	assert.Contains(t, out, "| cell")
	assert.Contains(t, out, "\n|}\n")
}
