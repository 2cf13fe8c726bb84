package wikitext

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ExpandOptions controls template expansion.
type ExpandOptions struct {
	// Parent is the frame the text is expanded in, for #invoke calls.
	Parent *Frame
	// PreExpand restricts expansion to templates that produce page
	// structure (as decided by AnalyzeTemplates) plus those listed in
	// TemplatesToExpand.
	PreExpand bool
	// TemplatesToExpand lists template titles to expand even when
	// PreExpand would skip them.
	TemplatesToExpand map[string]bool
	// TemplatesToNotExpand lists template titles to leave unexpanded.
	TemplatesToNotExpand map[string]bool
	// NoParserFns leaves parser function calls unexpanded.
	NoParserFns bool
	// NoInvoke leaves #invoke calls unexpanded.
	NoInvoke bool
	// Timeout bounds each sandbox invocation; zero means no limit.
	Timeout time.Duration
	// TemplateFn and PostTemplateFn override the processor-level hooks
	// for this call.
	TemplateFn     TemplateFn
	PostTemplateFn PostTemplateFn
}

// Expand fully expands templates and parser functions in text.
// StartPage must have been called.
func (p *Processor) Expand(text string) string {
	return p.ExpandWith(text, ExpandOptions{})
}

// ExpandWith expands templates and parser functions in text according
// to opts.
func (p *Processor) ExpandWith(text string, opts ExpandOptions) string {
	if opts.TemplateFn == nil {
		opts.TemplateFn = p.templateFn
	}
	if opts.PostTemplateFn == nil {
		opts.PostTemplateFn = p.postTemplateFn
	}
	text = p.preprocessText(text)
	encoded := p.encode(text)
	e := &expansion{p: p, opts: opts}
	expanded := e.expandRecurse(encoded, opts.Parent, !opts.PreExpand)
	return p.finalizeExpand(expanded)
}

// expansion carries the options of one ExpandWith call through the
// recursive expansion.
type expansion struct {
	p    *Processor
	opts ExpandOptions
}

var (
	noincludeSelfRe = regexp.MustCompile(`<noinclude\s*/>`)
	namedArgRe      = regexp.MustCompile(`(?s)^\s*([^][&<>="]+?)\s*=\s*(.*?)\s*$`)
	whitespaceRunRe = regexp.MustCompile(`\s+`)
)

// expandRecurse expands the cookies in coded outside in. When
// expandAll is false only templates selected for pre-expansion are
// expanded; their arguments are still expanded so parser functions in
// them run in the right frame.
func (e *expansion) expandRecurse(coded string, parent *Frame, expandAll bool) string {
	p := e.p
	var sb strings.Builder
	for _, r := range coded {
		if !isCookie(r) {
			sb.WriteRune(r)
			continue
		}
		v, ok := p.cookieAt(r)
		if !ok {
			sb.WriteRune(r)
			continue
		}
		switch v.kind {
		case kindTemplate:
			sb.WriteString(e.expandTemplate(v, parent, expandAll))
		case kindArgument:
			if v.nowiki {
				sb.WriteString(unexpandedArg(v.args, true))
				continue
			}
			// an argument reference outside any template binds nothing
			p.pushFrame("ARGVAL-NO-TEMPLATE")
			sb.WriteString(e.expandArgs(string(r), map[string]string{}, parent, expandAll))
			p.popFrame()
		case kindLink:
			if v.nowiki {
				sb.WriteString(unexpandedLink(v.args, true))
				continue
			}
			p.pushFrame("[[link]]")
			sb.WriteString(unexpandedLink(e.expandEach(v.args, parent, expandAll), false))
			p.popFrame()
		case kindExtLink:
			if v.nowiki {
				sb.WriteString(unexpandedExtLink(v.args, true))
				continue
			}
			p.pushFrame("[extlink]")
			sb.WriteString(unexpandedExtLink(e.expandEach(v.args, parent, expandAll), false))
			p.popFrame()
		case kindNowiki:
			sb.WriteRune(r)
		default:
			p.Error(fmt.Sprintf("expand: unsupported cookie kind %q", v.kind), "expand/kind")
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func (e *expansion) expandEach(args []string, parent *Frame, expandAll bool) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = e.expandRecurse(a, parent, expandAll)
	}
	return out
}

func (e *expansion) expandTemplate(v cookieValue, parent *Frame, expandAll bool) string {
	p := e.p
	if v.nowiki {
		return unexpandedTemplate(v.args, true)
	}
	if len(p.expandStack) >= maxExpandDepth {
		p.Error("too deep recursion during template expansion", "expand/depth")
		return fmt.Sprintf(
			`<strong class="error">too deep recursion while expanding template %s</strong>`,
			unexpandedTemplate(v.args, true))
	}

	p.pushFrame("TEMPLATE_NAME")
	tname := e.expandRecurse(v.args[0], parent, expandAll)
	p.popFrame()

	tname = noincludeSelfRe.ReplaceAllString(tname, "")
	tname = strings.TrimSpace(tname)
	for _, pfx := range []string{"subst:", "SUBST:", "safesubst:", "SAFESUBST:"} {
		tname = strings.TrimPrefix(tname, pfx)
	}

	// parser function call {{name:arg|...}}
	if ofs := strings.Index(tname, ":"); ofs > 0 {
		fnName := canonicalizeParserFnName(tname[:ofs])
		if isParserFnName(fnName) {
			args := append([]string{strings.TrimLeft(tname[ofs+1:], " \t\r\n")}, v.args[1:]...)
			p.pushFrame(fnName)
			ret := e.expandParserFn(fnName, args, parent)
			p.popFrame()
			return ret
		}
	}
	// parser functions are also recognized as a bare template name,
	// for magic words and compatibility templates
	if fnName := canonicalizeParserFnName(tname); isParserFnName(fnName) {
		return e.expandParserFn(fnName, v.args[1:], parent)
	}

	name := tname
	if fn, ok := p.templateOverrides[name]; ok {
		return fn(e.expandEach(v.args, parent, expandAll))
	}

	if !expandAll && !p.checkTemplateNeedExpand(name, e.opts.TemplatesToExpand, e.opts.TemplatesToNotExpand) {
		// keep the call but still expand its arguments
		return unexpandedTemplate(e.expandEach(v.args, parent, expandAll), v.nowiki)
	}

	p.pushFrame(name)
	defer p.popFrame()
	if hasRepeatingSuffix(p.expandStack) {
		p.Error(fmt.Sprintf("template expansion loop detected at %q", name), "expand/loop")
		return fmt.Sprintf(
			`<strong class="error">template loop detected while expanding template %s</strong>`,
			unexpandedTemplate(v.args, true))
	}

	// bind arguments; named parameter names and values are trimmed,
	// positional ones are not
	ht := map[string]string{}
	num := 1
	for _, arg := range v.args[1:] {
		var k string
		if m := namedArgRe.FindStringSubmatch(arg); m != nil {
			k, arg = m[1], m[2]
			if !isAllDigits(k) {
				p.pushFrame("ARGNAME")
				k = e.expandRecurse(k, parent, true)
				k = strings.TrimSpace(whitespaceRunRe.ReplaceAllString(k, " "))
				p.popFrame()
			}
		} else {
			k = strconv.Itoa(num)
			num++
		}
		// expand the value in the frame where it is written, so parser
		// functions in it see the right parent
		p.pushFrame("ARGVAL-" + k)
		ht[k] = e.expandRecurse(arg, parent, true)
		p.popFrame()
	}

	if e.opts.TemplateFn != nil {
		if t, ok := e.opts.TemplateFn(unquoteName(name), ht); ok {
			return e.finishTemplate(name, ht, t)
		}
	}

	nsID := 10
	if strings.Contains(name, ":") {
		// {{:title}} transcludes from the main namespace and
		// {{:ns:title}} from the named one
		name = strings.TrimPrefix(name, ":")
		if i := strings.Index(name, ":"); i >= 0 {
			if ns, ok := NamespaceByName(name[:i]); ok {
				nsID = ns.ID
			}
		} else {
			nsID = 0
		}
	}

	page, _ := p.getPage(name, nsID, false)
	if page == nil {
		return e.finishTemplate(name, ht, "[[:"+namespaceName(10)+":"+name+"]]")
	}
	body := templateVisibleBody(page.Body)
	if strings.HasPrefix(body, "#") || strings.HasPrefix(body, "*") ||
		strings.HasPrefix(body, ";") || strings.HasPrefix(body, ":") {
		body = "\n" + body
	}
	encoded := p.encode(p.preprocessText(body))
	encoded = e.expandArgs(encoded, ht, parent, expandAll)
	newParent := &Frame{Title: page.Title, Args: ht, Parent: parent}
	return e.finishTemplate(name, ht, e.expandRecurse(encoded, newParent, expandAll))
}

func (e *expansion) finishTemplate(name string, ht map[string]string, t string) string {
	t = addNewlineToExpansion(t)
	if e.opts.PostTemplateFn != nil && t != "" {
		if t2, ok := e.opts.PostTemplateFn(unquoteName(name), ht, t); ok {
			t = t2
		}
	}
	return t
}

// expandArgs substitutes bound template arguments into an encoded
// template body. Templates in the body are re-captured with their
// arguments substituted; links become literals again.
func (e *expansion) expandArgs(coded string, argmap map[string]string, parent *Frame, expandAll bool) string {
	p := e.p
	var sb strings.Builder
	for _, r := range coded {
		if !isCookie(r) {
			sb.WriteRune(r)
			continue
		}
		v, ok := p.cookieAt(r)
		if !ok {
			sb.WriteRune(r)
			continue
		}
		if v.nowiki {
			sb.WriteRune(r)
			continue
		}
		switch v.kind {
		case kindTemplate:
			newArgs := make([]string, len(v.args))
			for i, a := range v.args {
				newArgs[i] = strings.TrimSuffix(e.expandArgs(a, argmap, parent, expandAll), "\n")
			}
			sb.WriteString(p.saveValue(kindTemplate, newArgs, v.nowiki))
		case kindArgument:
			sb.WriteString(e.expandOneArg(v, argmap, parent, expandAll))
		case kindLink:
			newArgs := make([]string, len(v.args))
			for i, a := range v.args {
				newArgs[i] = e.expandArgs(a, argmap, parent, expandAll)
			}
			sb.WriteString(unexpandedLink(newArgs, v.nowiki))
		case kindExtLink:
			newArgs := make([]string, len(v.args))
			for i, a := range v.args {
				newArgs[i] = e.expandArgs(a, argmap, parent, expandAll)
			}
			sb.WriteString(unexpandedExtLink(newArgs, v.nowiki))
		case kindNowiki:
			sb.WriteRune(r)
		default:
			p.Error(fmt.Sprintf("expandArgs: unsupported cookie kind %q", v.kind), "expand/argkind")
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func (e *expansion) expandOneArg(v cookieValue, argmap map[string]string, parent *Frame, expandAll bool) string {
	p := e.p
	if len(v.args) > 2 {
		extra := false
		for _, a := range v.args[2:] {
			if strings.TrimSpace(a) != "" {
				extra = true
				break
			}
		}
		if extra {
			p.Debug(fmt.Sprintf("too many args (%d) in argument reference: %v", len(v.args), v.args), "expand/argcount")
		}
	}
	p.pushFrame("ARG-NAME")
	k := strings.TrimSpace(e.expandRecurse(e.expandArgs(v.args[0], argmap, parent, expandAll), parent, true))
	p.popFrame()
	if !isAllDigits(k) {
		k = strings.TrimSpace(whitespaceRunRe.ReplaceAllString(k, " "))
	} else {
		k = normalizeDigits(k)
	}
	if val, ok := argmap[k]; ok {
		return strings.TrimSuffix(val, "\n")
	}
	if len(v.args) >= 2 {
		p.pushFrame("ARG-DEFVAL")
		defer p.popFrame()
		return e.expandArgs(v.args[1], argmap, parent, expandAll)
	}
	return unexpandedArg([]string{k}, v.nowiki)
}

func (e *expansion) expandParserFn(fnName string, args []string, parent *Frame) string {
	p := e.p
	if e.opts.NoParserFns {
		if len(args) == 0 {
			return "{{" + fnName + "}}"
		}
		return "{{" + fnName + ":" + strings.Join(args, "|") + "}}"
	}
	p.pushFrame(fnName)
	defer p.popFrame()
	expander := func(arg string) string {
		return e.expandRecurse(arg, parent, true)
	}
	if fnName == "#invoke" {
		if e.opts.NoInvoke {
			return "{{#invoke:" + strings.Join(args, "|") + "}}"
		}
		if p.sandbox != nil {
			ret, err := p.sandbox.Invoke(p, args, e.invokeContext(parent))
			if err != nil {
				p.Error(fmt.Sprintf("#invoke error: %v", err), "expand/invoke")
				return fmt.Sprintf(`<strong class="error">%s</strong>`, err)
			}
			return ret
		}
	}
	return callParserFunction(p, fnName, args, expander)
}

// invokeContext builds the callback surface a sandbox uses to
// re-enter the expansion engine from a module invocation.
func (e *expansion) invokeContext(parent *Frame) *InvokeContext {
	p := e.p
	expander := func(arg string) string {
		return e.expandRecurse(arg, parent, true)
	}
	return &InvokeContext{
		Frame:   parent,
		Timeout: e.opts.Timeout,
		Preprocess: func(text string) string {
			return e.expandRecurse(p.encode(p.preprocessText(text)), parent, true)
		},
		ExpandTemplate: func(name string, args []string) string {
			cookie := p.saveValue(kindTemplate, append([]string{name}, args...), false)
			return e.expandRecurse(cookie, parent, true)
		},
		CallParserFunction: func(name string, args []string) string {
			return callParserFunction(p, canonicalizeParserFnName(name), args, expander)
		},
		ExtensionTag: func(tag, content string) string {
			return p.createStripMarker(tag, content)
		},
	}
}

// checkTemplateNeedExpand decides whether a template is expanded in
// pre-expand mode.
func (p *Processor) checkTemplateNeedExpand(name string, expandNames, notExpandNames map[string]bool) bool {
	page, _ := p.getPage(name, 10, false)
	if page == nil {
		return false
	}
	need := p.needPreExpand[page.Title]
	switch {
	case expandNames == nil && notExpandNames != nil:
		return !notExpandNames[name] && need
	case expandNames != nil && notExpandNames == nil:
		return expandNames[name] || need
	case expandNames != nil && notExpandNames != nil:
		return !notExpandNames[name] && (expandNames[name] || need)
	}
	return need
}

// finalizeExpand converts remaining cookies back to their literal
// wikitext forms and restores hidden characters.
func (p *Processor) finalizeExpand(text string) string {
	for {
		prev := text
		var sb strings.Builder
		for _, r := range text {
			v, ok := p.cookieAt(r)
			if !ok {
				sb.WriteRune(r)
				continue
			}
			switch v.kind {
			case kindTemplate:
				sb.WriteString(unexpandedTemplate(v.args, v.nowiki))
			case kindArgument:
				sb.WriteString(unexpandedArg(v.args, v.nowiki))
			case kindLink:
				sb.WriteString(unexpandedLink(v.args, v.nowiki))
			case kindExtLink:
				sb.WriteString(unexpandedExtLink(v.args, v.nowiki))
			case kindNowiki:
				if v.args[0] == "" {
					sb.WriteString("<nowiki/>")
				} else {
					sb.WriteString(nowikiQuote(v.args[0]))
				}
			}
		}
		text = sb.String()
		if text == prev {
			break
		}
	}
	text = strings.ReplaceAll(text, string(magicNowikiChar), "<nowiki />")
	text = strings.ReplaceAll(text, string(magicLBracketChar), "[")
	text = strings.ReplaceAll(text, string(magicRBracketChar), "]")
	return text
}

func unexpandedTemplate(args []string, nowiki bool) string {
	if nowiki {
		return "&lbrace;&lbrace;" + strings.Join(args, "&vert;") + "&rbrace;&rbrace;"
	}
	return "{{" + strings.Join(args, "|") + "}}"
}

func unexpandedArg(args []string, nowiki bool) string {
	if nowiki {
		return "&lbrace;&lbrace;&lbrace;" + strings.Join(args, "&vert;") + "&rbrace;&rbrace;&rbrace;"
	}
	return "{{{" + strings.Join(args, "|") + "}}}"
}

func unexpandedLink(args []string, nowiki bool) string {
	if nowiki {
		return "&lsqb;&lsqb;" + strings.Join(args, "&vert;") + "&rsqb;&rsqb;"
	}
	return "[[" + strings.Join(args, "|") + "]]"
}

func unexpandedExtLink(args []string, nowiki bool) string {
	if nowiki {
		return "&lsqb;" + strings.Join(args, "&vert;") + "&rsqb;"
	}
	return "[" + strings.Join(args, "|") + "]"
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// normalizeDigits removes leading zeros so numeric argument keys
// compare equal however they are written.
func normalizeDigits(s string) string {
	n, err := strconv.Atoi(s)
	if err != nil {
		return s
	}
	return strconv.Itoa(n)
}

func unquoteName(name string) string {
	if u, err := url.PathUnescape(name); err == nil {
		return u
	}
	return name
}
