package wikitext

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// childText joins the direct text children of a node.
func childText(children []Child) string {
	var sb strings.Builder
	for _, ch := range children {
		if s, ok := ch.(Text); ok {
			sb.WriteString(string(s))
		}
	}
	return sb.String()
}

func TestParse_PlainText(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("just some text")
	require.Equal(t, Root, root.Kind)
	assert.Equal(t, "just some text", childText(root.Children))
}

func TestParse_RootTitle(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("x")
	require.Len(t, root.Largs, 1)
	assert.Equal(t, Text("Testpage"), root.Largs[0][0])
}

func TestParse_Heading(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("intro\n== Section ==\nbody text\n")
	sections := root.FindChild(Level2)
	require.Len(t, sections, 1)
	assert.Equal(t, "Section", sections[0].FindContent())
	assert.Contains(t, childText(sections[0].Children), "body text")
	assert.Equal(t, "Section", p.CurrentSection())
}

func TestParse_NestedHeadings(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("== Top ==\n=== Sub ===\ntext\n")
	top := root.FindChild(Level2)
	require.Len(t, top, 1)
	sub := top[0].FindChild(Level3)
	require.Len(t, sub, 1)
	assert.Equal(t, "Sub", sub[0].FindContent())
}

func TestParse_BoldItalic(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("''it'' and '''bo'''")
	italics := root.FindChild(Italic)
	require.Len(t, italics, 1)
	assert.Equal(t, "it", childText(italics[0].Children))
	bolds := root.FindChild(Bold)
	require.Len(t, bolds, 1)
	assert.Equal(t, "bo", childText(bolds[0].Children))
}

func TestParse_BoldItalicNested(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("'''''both'''''")
	assert.True(t, root.ContainNode(Bold))
	assert.True(t, root.ContainNode(Italic))
}

func TestParse_Link(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("a [[Main Page|the main page]] b")
	links := root.FindChild(Link)
	require.Len(t, links, 1)
	require.Len(t, links[0].Largs, 2)
	assert.Equal(t, "Main Page", childText(links[0].Largs[0]))
	assert.Equal(t, "the main page", childText(links[0].Largs[1]))
}

func TestParse_LinkTrail(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("[[page]]s and more")
	links := root.FindChild(Link)
	require.Len(t, links, 1)
	assert.Equal(t, "s", childText(links[0].Children))
}

func TestParse_Template(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("{{infobox|type=person|Alice}}")
	tmpls := root.FindChild(Template)
	require.Len(t, tmpls, 1)
	node := tmpls[0]
	assert.Equal(t, "infobox", node.TemplateName())
	params := node.TemplateParameters()
	assert.Equal(t, "person", childText(params["type"]))
	assert.Equal(t, "Alice", childText(params["1"]))
}

func TestParse_TemplateArg(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("{{{1|default}}}")
	args := root.FindChild(TemplateArg)
	require.Len(t, args, 1)
	require.Len(t, args[0].Largs, 2)
	assert.Equal(t, "1", childText(args[0].Largs[0]))
	assert.Equal(t, "default", childText(args[0].Largs[1]))
}

func TestParse_ParserFnNode(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("{{#if:a|b|c}}")
	fns := root.FindChild(ParserFn)
	require.Len(t, fns, 1)
	assert.Equal(t, "#if", fns[0].TemplateName())
	assert.Len(t, fns[0].Largs, 4)
}

func TestParse_List(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("* one\n* two\n")
	lists := root.FindChild(List)
	require.Len(t, lists, 1)
	items := lists[0].FindChild(ListItem)
	require.Len(t, items, 2)
	assert.Equal(t, "*", items[0].Sarg)
	assert.Equal(t, "one", strings.TrimSpace(childText(items[0].Children)))
	assert.Equal(t, "two", strings.TrimSpace(childText(items[1].Children)))
}

func TestParse_NestedList(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("* top\n** sub\n")
	lists := root.FindChild(List)
	require.Len(t, lists, 1)
	items := lists[0].FindChild(ListItem)
	require.Len(t, items, 1)
	sublists := items[0].FindChild(List)
	require.Len(t, sublists, 1)
	subitems := sublists[0].FindChild(ListItem)
	require.Len(t, subitems, 1)
	assert.Equal(t, "**", subitems[0].Sarg)
}

func TestParse_NumberedList(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("# first\n# second\n")
	lists := root.FindChild(List)
	require.Len(t, lists, 1)
	assert.Equal(t, "#", lists[0].Sarg)
	assert.Len(t, lists[0].FindChild(ListItem), 2)
}

func TestParse_DefinitionList(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("; term : definition\n")
	items := root.FindChildRecursively(ListItem)
	require.Len(t, items, 1)
	item := items[0]
	assert.Equal(t, ";", item.Sarg)
	assert.Equal(t, "term", strings.TrimSpace(childText(item.Children)))
	assert.Equal(t, "definition", strings.TrimSpace(childText(item.Definition)))
}

func TestParse_HLine(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("above\n----\nbelow\n")
	assert.True(t, root.ContainNode(HLine))
}

func TestParse_MagicWord(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("__NOTOC__\ntext")
	words := root.FindChildRecursively(MagicWord)
	require.Len(t, words, 1)
	assert.Equal(t, "__NOTOC__", words[0].Sarg)
}

func TestParse_HTMLElement(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse(`a <span class="x">b</span> c`)
	spans := root.FindHTML("span")
	require.Len(t, spans, 1)
	assert.Equal(t, "x", spans[0].GetAttr("class"))
	assert.Equal(t, "b", childText(spans[0].Children))
}

func TestParse_PreTag(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("<pre>no ''markup''</pre>")
	pres := root.FindChild(Pre)
	require.Len(t, pres, 1)
	assert.Equal(t, "no ''markup''", childText(pres[0].Children))
	assert.False(t, pres[0].ContainNode(Italic))
}

func TestParse_Preformatted(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("normal\n code line\n")
	assert.True(t, root.ContainNode(Preformatted))
}

func TestParse_BareURL(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("see https://example.com now")
	urls := root.FindChild(URL)
	require.Len(t, urls, 1)
	assert.Equal(t, "https://example.com", childText(urls[0].Largs[0]))
}

func TestParse_BracketedURL(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("[https://example.com Example site]")
	urls := root.FindChildRecursively(URL)
	require.Len(t, urls, 1)
	require.Len(t, urls[0].Largs, 2)
	assert.Equal(t, "https://example.com", childText(urls[0].Largs[0]))
	assert.Equal(t, "Example site", childText(urls[0].Largs[1]))
}

func TestParse_BracketsWithoutURL(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("[not a link]")
	assert.False(t, root.ContainNode(URL))
	assert.Contains(t, childText(root.Children), "[not a link]")
}

func TestParse_Table(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("{| class=\"wikitable\"\n|+ Caption\n|-\n! H1 !! H2\n|-\n| a || b\n|}\n")
	tables := root.FindChildRecursively(Table)
	require.Len(t, tables, 1)
	table := tables[0]
	assert.Equal(t, "wikitable", table.GetAttr("class"))

	captions := table.FindChild(TableCaption)
	require.Len(t, captions, 1)
	assert.Equal(t, "Caption", strings.TrimSpace(childText(captions[0].Children)))

	rows := table.FindChild(TableRow)
	require.Len(t, rows, 2)
	hdr := rows[0].FindChild(TableHeaderCell)
	require.Len(t, hdr, 2)
	assert.Equal(t, "H1", strings.TrimSpace(childText(hdr[0].Children)))
	cells := rows[1].FindChild(TableCell)
	require.Len(t, cells, 2)
	assert.Equal(t, "b", strings.TrimSpace(childText(cells[1].Children)))
}

func TestParse_TableCellAttributes(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("{|\n|-\n| colspan=\"2\" | wide cell\n|}\n")
	cells := root.FindChildRecursively(TableCell)
	require.Len(t, cells, 1)
	assert.Equal(t, "2", cells[0].GetAttr("colspan"))
	assert.Equal(t, "wide cell", strings.TrimSpace(childText(cells[0].Children)))
}

func TestParseWith_ExpandAll(t *testing.T) {
	p := newTestProcessor()
	p.AddTemplate("strong", "'''{{{1}}}'''")
	root := p.ParseWith("{{strong|word}}", ParseOptions{ExpandAll: true})
	bolds := root.FindChildRecursively(Bold)
	require.Len(t, bolds, 1)
	assert.Equal(t, "word", childText(bolds[0].Children))
	assert.False(t, root.ContainNode(Template))
}

func TestParseWith_TemplateFn(t *testing.T) {
	p := newTestProcessor()
	root := p.ParseWith("{{anything}}", ParseOptions{
		ExpandAll: true,
		TemplateFn: func(name string, args map[string]string) (string, bool) {
			return "replaced", true
		},
	})
	assert.Equal(t, "replaced", childText(root.Children))
}

func TestParse_UnclosedBoldReported(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("'''unclosed\nnext line")
	// the bold closes at the end of the line and parsing continues
	assert.True(t, root.ContainNode(Bold))
	assert.Contains(t, childText(root.Children), "next line")
}

func TestParse_NowikiContent(t *testing.T) {
	p := newTestProcessor()
	root := p.Parse("<nowiki>''not italic''</nowiki>")
	assert.False(t, root.ContainNode(Italic))
}
