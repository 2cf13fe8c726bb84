package wikitext

import (
	"fmt"
	"html"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Parser functions and the predefined variables that accept arguments
// with the same syntax. See
// https://www.mediawiki.org/wiki/Help:Extension:ParserFunctions and
// https://www.mediawiki.org/wiki/Help:Magic_words

type parserFn func(p *Processor, fnName string, args []string, expander func(string) string) string

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func capitalizeFirstOnly(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

func ifFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	if strings.TrimSpace(expander(arg(args, 0))) != "" {
		return strings.TrimSpace(expander(arg(args, 1)))
	}
	return strings.TrimSpace(expander(arg(args, 2)))
}

func ifeqFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	if strings.TrimSpace(expander(arg(args, 0))) == strings.TrimSpace(expander(arg(args, 1))) {
		return strings.TrimSpace(expander(arg(args, 2)))
	}
	return strings.TrimSpace(expander(arg(args, 3)))
}

var errorClassRe = regexp.MustCompile(`<[^>]*?\sclass="error"`)

func iferrorFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	value := ""
	if len(args) > 0 {
		value = expander(args[0])
	}
	if errorClassRe.MatchString(value) {
		if len(args) < 2 {
			return ""
		}
		return strings.TrimSpace(expander(args[1]))
	}
	if len(args) < 3 {
		return value
	}
	return strings.TrimSpace(expander(args[2]))
}

func ifexprFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	cond := "0"
	if len(args) > 0 {
		cond = args[0]
	}
	ret, err := strconv.Atoi(exprFn(p, fnName, []string{cond}, expander))
	if err != nil {
		ret = 0
	}
	if ret != 0 {
		return strings.TrimSpace(expander(arg(args, 1)))
	}
	return strings.TrimSpace(expander(arg(args, 2)))
}

func ifexistFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	if page, _ := p.getPage(strings.TrimSpace(expander(arg(args, 0))), 0, false); page != nil {
		return strings.TrimSpace(expander(arg(args, 1)))
	}
	return strings.TrimSpace(expander(arg(args, 2)))
}

var switchCaseRe = regexp.MustCompile(`(?s)^([^=]*)=(.*)$`)

func switchFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	val := ""
	if len(args) > 0 {
		val = strings.TrimSpace(expander(args[0]))
	}
	matchNext := false
	var defval *string
	var last *string
	for i := 1; i < len(args); i++ {
		m := switchCaseRe.FindStringSubmatch(args[i])
		if m == nil {
			expanded := strings.TrimSpace(expander(args[i]))
			last = &expanded
			if expanded == val {
				matchNext = true
			}
			continue
		}
		k := strings.TrimSpace(expander(m[1]))
		v := m[2]
		if k == val || matchNext {
			return strings.TrimSpace(expander(v))
		}
		if strings.ToLower(k) == "#default" {
			defval = &v
		}
		last = nil
	}
	if defval != nil {
		return strings.TrimSpace(expander(*defval))
	}
	if last != nil {
		return *last
	}
	return ""
}

func categorytreeFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	// recognized but not rendered
	return ""
}

func lstFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	pagetitle := strings.TrimSpace(expander(arg(args, 0)))
	chapter := strings.TrimSpace(expander(arg(args, 1)))
	page, _ := p.getPage(pagetitle, 0, false)
	if page == nil {
		p.Warning(fmt.Sprintf("%s trying to transclude chapter %q from non-existent page %q",
			fnName, chapter, pagetitle), "parserfns/lst")
		return ""
	}
	sectionRe := regexp.MustCompile(
		`(?si)<section\s+begin="?` + regexp.QuoteMeta(chapter) + `"?\s*/>(.*?)<section\s+end="?` +
			regexp.QuoteMeta(chapter) + `"?\s*/>`)
	var parts []string
	for _, m := range sectionRe.FindAllStringSubmatch(page.Body, -1) {
		parts = append(parts, m[1])
	}
	if len(parts) == 0 {
		p.Warning(fmt.Sprintf("%s could not find chapter %q on page %q",
			fnName, chapter, pagetitle), "parserfns/lst")
	}
	return strings.Join(parts, "")
}

var tagAttrRe = regexp.MustCompile(`(?s)^([^=<>'"]+)=(.*)$`)

func tagFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	tag := strings.ToLower(expander(arg(args, 0)))
	if _, ok := allowedHTMLTags[tag]; !ok && tag != "nowiki" {
		p.Warning(fmt.Sprintf("#tag creating non-allowed tag <%s> - omitted", tag), "parserfns/tag")
		return "{{" + fnName + ":" + strings.Join(args, "|") + "}}"
	}
	content := ""
	if len(args) >= 2 {
		content = expander(args[1])
	}
	var attrs []string
	for _, x := range args[2:] {
		x = expander(x)
		m := tagAttrRe.FindStringSubmatch(x)
		if m == nil {
			p.Warning(fmt.Sprintf("invalid attribute format %q missing name", x), "parserfns/tagattr")
			continue
		}
		name, value := m[1], m[2]
		if !strings.HasPrefix(value, `"`) && !strings.HasPrefix(value, "'") {
			value = `"` + html.EscapeString(value) + `"`
		}
		attrs = append(attrs, name+"="+value)
	}
	attrsStr := ""
	if len(attrs) > 0 {
		attrsStr = " " + strings.Join(attrs, " ")
	}
	if tag == "nowiki" {
		if len(args) == 0 {
			return string(magicNowikiChar)
		}
		return nowikiQuote(content)
	}
	if content == "" {
		return fmt.Sprintf("<%s%s />", tag, attrsStr)
	}
	return fmt.Sprintf("<%s%s>%s</%s>", tag, attrsStr, content, tag)
}

func pageTitleArg(p *Processor, args []string, expander func(string) string) string {
	t := p.Title
	if len(args) > 0 {
		t = expander(args[0])
	}
	if t == "" {
		t = "PAGENAME_ERROR"
	}
	return strings.TrimSpace(whitespaceRunRe.ReplaceAllString(t, " "))
}

func fullpagenameFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	t := pageTitleArg(p, args, expander)
	if ofs := strings.Index(t, ":"); ofs == 0 {
		t = t[1:]
	} else if ofs > 0 {
		t = capitalizeFirstOnly(t[:ofs]) + ":" + t[ofs+1:]
	}
	return t
}

func fullpagenameeFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return wikiURLEncode(fullpagenameFn(p, fnName, args, expander))
}

func pagenameFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	t := pageTitleArg(p, args, expander)
	if ofs := strings.Index(t, ":"); ofs >= 0 {
		t = t[ofs+1:]
	}
	return t
}

func pagenameeFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return wikiURLEncode(pagenameFn(p, fnName, args, expander))
}

func basepagenameFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	t := pageTitleArg(p, args, expander)
	if ofs := strings.LastIndex(t, "/"); ofs >= 0 {
		t = t[:ofs]
	}
	return pagenameFn(p, fnName, []string{t}, func(s string) string { return s })
}

func rootpagenameFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	t := pageTitleArg(p, args, expander)
	if ofs := strings.Index(t, "/"); ofs >= 0 {
		t = t[:ofs]
	}
	return pagenameFn(p, fnName, []string{t}, func(s string) string { return s })
}

func rootpagenameeFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return wikiURLEncode(rootpagenameFn(p, fnName, args, expander))
}

func subpagenameFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	t := pageTitleArg(p, args, expander)
	if ofs := strings.LastIndex(t, "/"); ofs >= 0 {
		return t[ofs+1:]
	}
	return pagenameFn(p, fnName, []string{t}, func(s string) string { return s })
}

func talkpagenameFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	if p.Title == "" {
		return "ERROR_PAGENAME"
	}
	ofs := strings.Index(p.Title, ":")
	if ofs < 0 {
		return namespaceName(1) + ":" + p.Title
	}
	prefix := p.Title[:ofs]
	ns, ok := NamespaceByName(prefix)
	if !ok || ns.IsTalk {
		return namespaceName(1) + ":" + p.Title
	}
	if talk, ok := NamespaceByID(ns.ID + 1); ok {
		return talk.Name + ":" + p.Title[ofs+1:]
	}
	return namespaceName(1) + ":" + p.Title
}

func namespacenumberFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	t := pageTitleArg(p, args, expander)
	if ns, _, ok := splitNamespace(t); ok {
		return strconv.Itoa(ns.ID)
	}
	return "0"
}

func namespaceFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	t := pageTitleArg(p, args, expander)
	if ofs := strings.Index(t, ":"); ofs >= 0 {
		ns := capitalizeFirstOnly(t[:ofs])
		if ns == "Project" {
			return namespaceName(4)
		}
		return ns
	}
	return ""
}

func subjectspaceFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	t := pageTitleArg(p, args, expander)
	if ns, _, ok := splitNamespace(t); ok && ns.IsSubject {
		return ns.Name
	}
	return ""
}

func talkspaceFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	t := pageTitleArg(p, args, expander)
	if ns, _, ok := splitNamespace(t); ok {
		if talk, ok := NamespaceByID(ns.ID + 1); ok && !ns.IsTalk {
			return talk.Name
		}
	}
	return namespaceName(1)
}

func servernameFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return fmt.Sprintf("%s.%s.org", p.langCode, p.project)
}

func serverFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return "//" + servernameFn(p, fnName, args, expander)
}

// now is replaced in tests to pin the clock.
var now = time.Now

func utcNow() time.Time { return now().UTC() }

func currentyearFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return strconv.Itoa(utcNow().Year())
}

func currentmonthFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return utcNow().Format("01")
}

func currentmonth1Fn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return strconv.Itoa(int(utcNow().Month()))
}

func currentmonthnameFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return utcNow().Format("January")
}

func currentmonthabbrevFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return utcNow().Format("Jan")
}

func currentdayFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return strconv.Itoa(utcNow().Day())
}

func currentday2Fn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return utcNow().Format("02")
}

func currentdowFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return strconv.Itoa(int(utcNow().Weekday()))
}

func currentdaynameFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return utcNow().Format("Monday")
}

func currenttimeFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return utcNow().Format("15:04")
}

func currenthourFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return utcNow().Format("15")
}

func currentweekFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	_, week := utcNow().ISOWeek()
	return strconv.Itoa(week)
}

func currenttimestampFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return utcNow().Format(mediawikiTimestampLayout)
}

func localyearFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return strconv.Itoa(now().Year())
}

func localmonthFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return now().Format("01")
}

func localmonthnameFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return now().Format("January")
}

func localmonthabbrevFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return now().Format("Jan")
}

func localdayFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return strconv.Itoa(now().Day())
}

func localday2Fn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return now().Format("02")
}

func localdowFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return strconv.Itoa(int(now().Weekday()))
}

func localdaynameFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return now().Format("Monday")
}

func localtimeFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return now().Format("15:04")
}

func localhourFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return now().Format("15")
}

func localweekFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	_, week := now().ISOWeek()
	return strconv.Itoa(week)
}

func localtimestampFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return now().Format(mediawikiTimestampLayout)
}

func revisionidFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	// a dash, like MediaWiki in miser mode
	return "-"
}

func revisionuserFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return "AnonymousUser"
}

func displaytitleFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	// only sets page metadata, renders as nothing
	return ""
}

func defaultsortFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return ""
}

func shortdescFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return ""
}

func lcFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return strings.ToLower(strings.TrimSpace(expander(arg(args, 0))))
}

func lcfirstFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	t := strings.TrimSpace(expander(arg(args, 0)))
	if t == "" {
		return t
	}
	r := []rune(t)
	return strings.ToLower(string(r[0])) + string(r[1:])
}

func ucFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return strings.ToUpper(strings.TrimSpace(expander(arg(args, 0))))
}

func ucfirstFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return capitalizeFirstOnly(strings.TrimSpace(expander(arg(args, 0))))
}

func formatnumFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	arg0 := strings.TrimSpace(expander(arg(args, 0)))
	arg1 := strings.TrimSpace(expander(arg(args, 1)))
	if arg1 == "R" {
		return strings.ReplaceAll(arg0, ",", "")
	}
	sep := ","
	if arg1 == "NOSEP" {
		sep = ""
	}
	parts := strings.SplitN(arg0, ".", 2)
	first := parts[0]
	var groups []string
	for len(first) > 3 {
		groups = append([]string{first[len(first)-3:]}, groups...)
		first = first[:len(first)-3]
	}
	groups = append([]string{first}, groups...)
	out := strings.Join(groups, sep)
	if len(parts) > 1 {
		out += "." + parts[1]
	}
	return out
}

func localurlFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	arg0 := p.Title
	if len(args) > 0 {
		arg0 = strings.TrimSpace(expander(args[0]))
	}
	if arg0 == "" {
		arg0 = "ERROR_URL"
	}
	arg1 := strings.TrimSpace(expander(arg(args, 1)))
	if arg1 != "" {
		return fmt.Sprintf("/w/index.php?title=%s&%s", url.QueryEscape(arg0), arg1)
	}
	return "/wiki/" + wikiURLEncode(arg0)
}

func fullurlFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	pageName := strings.TrimSpace(expander(arg(args, 0)))
	u := fmt.Sprintf("//%s.%s.org/wiki/", p.langCode, p.project)
	u += escapeExceptSlashColon(strings.ReplaceAll(pageName, " ", "_"))
	if len(args) > 1 {
		query := strings.TrimSpace(expander(args[1]))
		u += "?" + escapeExcept(query, "=")
	}
	return u
}

func urlencodeFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	arg0 := expander(arg(args, 0))
	format := "QUERY"
	if len(args) > 1 {
		format = expander(args[1])
	}
	u := strings.TrimSpace(arg0)
	switch format {
	case "PATH":
		return escapeExcept(u, "")
	case "QUERY":
		return url.QueryEscape(u)
	}
	return wikiURLEncode(u)
}

func urldecodeFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	arg0 := strings.TrimSpace(expander(arg(args, 0)))
	if ret, err := url.QueryUnescape(arg0); err == nil {
		return ret
	}
	return arg0
}

// wikiURLEncode percent-encodes a title the way wiki links do: spaces
// become underscores and "/" and ":" stay literal.
func wikiURLEncode(s string) string {
	s = whitespaceRunRe.ReplaceAllString(s, "_")
	return escapeExceptSlashColon(s)
}

func escapeExceptSlashColon(s string) string {
	return escapeExcept(s, "/:")
}

// escapeExcept percent-encodes every byte that is not unreserved and
// not in safe.
func escapeExcept(s, safe string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '-', c == '_', c == '.', c == '~':
			sb.WriteByte(c)
		case strings.IndexByte(safe, c) >= 0:
			sb.WriteByte(c)
		default:
			fmt.Fprintf(&sb, "%%%02X", c)
		}
	}
	return sb.String()
}

var anchorSpecialRe = regexp.MustCompile(`['"<>]`)

func anchorencodeFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	anchor := strings.TrimSpace(expander(arg(args, 0)))
	anchor = whitespaceRunRe.ReplaceAllString(anchor, "_")
	return anchorSpecialRe.ReplaceAllStringFunc(anchor, func(m string) string {
		return strings.ReplaceAll(escapeExcept(m, ""), "%", ".")
	})
}

func nsFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	a := strings.TrimSpace(expander(arg(args, 0)))
	if a == "" || a == "0" {
		return ""
	}
	if id, err := strconv.Atoi(a); err == nil {
		if ns, ok := NamespaceByID(id); ok {
			return ns.Name
		}
	} else if ns, ok := NamespaceByName(a); ok {
		return ns.Name
	}
	return fmt.Sprintf("[[:%s:ns:%s]]", namespaceName(10), a)
}

var titlepartsSplitRe = regexp.MustCompile(`([:/])`)

func titlepartsFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	t := strings.TrimSpace(expander(arg(args, 0)))
	numReturn, _ := strconv.Atoi(strings.TrimSpace(expander(arg(args, 1))))
	first, _ := strconv.Atoi(strings.TrimSpace(expander(arg(args, 2))))
	parts := splitWithSeparators(titlepartsSplitRe, t)
	numParts := (len(parts) + 1) / 2
	if first < 0 {
		first = max(0, numParts+first)
	} else if first > numParts {
		first = numParts
	}
	if numReturn == 0 {
		numReturn = numParts
	} else if numReturn < 0 {
		numReturn = max(0, numParts+numReturn)
	}
	lo := 2 * first
	hi := 2*(first+numReturn) - 1
	if lo > len(parts) {
		lo = len(parts)
	}
	if hi > len(parts) {
		hi = len(parts)
	}
	if hi < lo {
		hi = lo
	}
	return strings.Join(parts[lo:hi], "")
}

// splitWithSeparators splits s by re keeping the separators, like a
// capturing split.
func splitWithSeparators(re *regexp.Regexp, s string) []string {
	var parts []string
	last := 0
	for _, loc := range re.FindAllStringIndex(s, -1) {
		parts = append(parts, s[last:loc[0]], s[loc[0]:loc[1]])
		last = loc[1]
	}
	parts = append(parts, s[last:])
	return parts
}

func padleftFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return padCommon(p, fnName, args, expander, "left")
}

func padrightFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return padCommon(p, fnName, args, expander, "right")
}

func padFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	direction := expander(arg(args, 3))
	if direction != "right" && direction != "center" {
		direction = "left"
	}
	return padCommon(p, fnName, args[:min(len(args), 3)], expander, direction)
}

func padCommon(p *Processor, fnName string, args []string, expander func(string) string, direction string) string {
	v := expander(arg(args, 0))
	cntstr := strings.TrimSpace(expander(arg(args, 1)))
	if cntstr == "" {
		cntstr = "0"
	}
	pad := "0"
	if len(args) >= 3 && args[2] != "" {
		pad = expander(args[2])
	}
	cnt, err := strconv.Atoi(cntstr)
	if err != nil || cnt < 0 {
		if err != nil {
			p.Warning(fmt.Sprintf("pad length is not integer: %q", cntstr), "parserfns/pad")
		}
		cnt = 0
	}
	if pad == "" {
		return v
	}
	for cnt-len(v) > len(pad) {
		pad += pad
	}
	if len(v) >= cnt {
		return v
	}
	padlen := cnt - len(v)
	switch direction {
	case "right":
		return v + pad[:padlen]
	case "center":
		return pad[:padlen/2] + v + pad[:padlen-padlen/2]
	default:
		return pad[:padlen] + v
	}
}

func pluralFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	expr := strings.TrimSpace(expander(arg(args, 0)))
	if expr == "" {
		expr = "0"
	}
	v := exprFn(p, fnName, []string{expr}, func(s string) string { return s })
	if v == "1" {
		return strings.TrimSpace(expander(arg(args, 1)))
	}
	return strings.TrimSpace(expander(arg(args, 2)))
}

func lenFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return strconv.Itoa(len([]rune(strings.TrimSpace(expander(arg(args, 0))))))
}

func posFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	arg0 := strings.TrimSpace(expander(arg(args, 0)))
	arg1 := " "
	if len(args) >= 2 && expander(args[1]) != "" {
		arg1 = expander(args[1])
	}
	offset, _ := strconv.Atoi(strings.TrimSpace(expander(arg(args, 2))))
	if offset < 0 || offset > len(arg0) {
		offset = 0
	}
	if idx := strings.Index(arg0[offset:], arg1); idx >= 0 {
		return strconv.Itoa(offset + idx)
	}
	return ""
}

func rposFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	arg0 := strings.TrimSpace(expander(arg(args, 0)))
	arg1 := " "
	if len(args) >= 2 && expander(args[1]) != "" {
		arg1 = expander(args[1])
	}
	if idx := strings.LastIndex(arg0, arg1); idx >= 0 {
		return strconv.Itoa(idx)
	}
	return "-1"
}

func subFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	arg0 := []rune(strings.TrimSpace(expander(arg(args, 0))))
	start, _ := strconv.Atoi(strings.TrimSpace(expander(arg(args, 1))))
	length, _ := strconv.Atoi(strings.TrimSpace(expander(arg(args, 2))))
	if start < 0 {
		start = max(0, len(arg0)+start)
	}
	start = min(start, len(arg0))
	if length == 0 {
		length = max(0, len(arg0)-start)
	} else if length < 0 {
		length = max(0, len(arg0)-start+length)
	}
	end := min(start+length, len(arg0))
	return string(arg0[start:end])
}

func replaceFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	arg0 := strings.TrimSpace(expander(arg(args, 0)))
	from := " "
	if len(args) >= 2 && expander(args[1]) != "" {
		from = expander(args[1])
	}
	to := expander(arg(args, 2))
	return strings.ReplaceAll(arg0, from, to)
}

func explodeFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	arg0 := strings.TrimSpace(expander(arg(args, 0)))
	delim := " "
	if len(args) >= 2 && expander(args[1]) != "" {
		delim = expander(args[1])
	}
	position, _ := strconv.Atoi(strings.TrimSpace(expander(arg(args, 2))))
	limit, _ := strconv.Atoi(strings.TrimSpace(expander(arg(args, 3))))
	parts := strings.Split(arg0, delim)
	if limit > 0 && len(parts) > limit {
		parts = append(parts[:limit-1], strings.Join(parts[limit-1:], delim))
	}
	if position < 0 {
		position = len(parts) + position
	}
	if position < 0 || position >= len(parts) {
		return ""
	}
	return parts[position]
}

func pagelanguageFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return p.langCode
}

func languageFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	// language name lookup is not supported; echo the code
	return arg(args, 0)
}

func intFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	if p.project == "wiktionary" && len(args) > 0 && args[0] == "lang" {
		return p.langCode
	}
	if len(args) > 0 && args[0] != "" {
		return "⧼" + args[0] + "⧽"
	}
	return fmt.Sprintf("[[:%s:int:]]", namespaceName(10))
}

func coordinatesFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	// only returns an empty string or an error, like the GeoData
	// extension
	return ""
}

func pagesizeFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	if len(args) == 0 {
		return `<strong class="error">No arguments given to #pagesize</strong>`
	}
	page, _ := p.getPage(args[0], 0, false)
	if page == nil {
		return `<strong class="error">Page not found for PAGESIZE</strong>`
	}
	n := len(page.Body)
	if len(args) >= 2 && strings.TrimSpace(args[1]) == "R" {
		return formatnumFn(p, fnName, []string{strconv.Itoa(n)}, func(s string) string { return s })
	}
	return strconv.Itoa(n)
}

func filepathFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	if len(args) == 0 {
		return ""
	}
	return "//unimplemented/" + args[0]
}

func protectionlevelFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return ""
}

func numberofpagesFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return strconv.Itoa(p.PageCount())
}

func numberofarticlesFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	return strconv.Itoa(p.PageCount(0))
}

func rel2absFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	orig := strings.TrimSpace(arg(args, 0))
	base := "/" + p.Title
	if len(args) > 1 {
		base = "/" + strings.TrimSpace(args[1])
	}
	if !strings.HasPrefix(orig, "/") && !strings.HasPrefix(orig, "./") &&
		!strings.HasPrefix(orig, "../") && orig != ".." {
		base = "/"
	}
	joined := path.Join(base, strings.TrimPrefix(orig, "/"))
	return strings.TrimPrefix(joined, "/")
}

func propertyFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	// wikidata statement queries are not supported
	return ""
}

func unimplementedFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	p.Error(fmt.Sprintf("unimplemented parserfn %s", fnName), "parserfns/unimplemented")
	return "{{" + fnName + ":" + strings.Join(args, "|") + "}}"
}

// parserFunctions maps recognized parser function and variable names
// to their implementations.
var parserFunctions = map[string]parserFn{
	"FULLPAGENAME":        fullpagenameFn,
	"PAGENAME":            pagenameFn,
	"BASEPAGENAME":        basepagenameFn,
	"ROOTPAGENAME":        rootpagenameFn,
	"SUBPAGENAME":         subpagenameFn,
	"ARTICLEPAGENAME":     unimplementedFn,
	"SUBJECTPAGENAME":     unimplementedFn,
	"TALKPAGENAME":        talkpagenameFn,
	"NAMESPACENUMBER":     namespacenumberFn,
	"NAMESPACE":           namespaceFn,
	"ARTICLESPACE":        unimplementedFn,
	"SUBJECTSPACE":        subjectspaceFn,
	"TALKSPACE":           talkspaceFn,
	"FULLPAGENAMEE":       fullpagenameeFn,
	"PAGENAMEE":           pagenameeFn,
	"BASEPAGENAMEE":       unimplementedFn,
	"ROOTPAGENAMEE":       rootpagenameeFn,
	"SUBPAGENAMEE":        unimplementedFn,
	"ARTICLEPAGENAMEE":    unimplementedFn,
	"SUBJECTPAGENAMEE":    unimplementedFn,
	"TALKPAGENAMEE":       unimplementedFn,
	"NAMESPACENUMBERE":    unimplementedFn,
	"NAMESPACEE":          unimplementedFn,
	"ARTICLESPACEE":       unimplementedFn,
	"SUBJECTSPACEE":       unimplementedFn,
	"TALKSPACEE":          unimplementedFn,
	"SHORTDESC":           shortdescFn,
	"SITENAME":            unimplementedFn,
	"SERVER":              serverFn,
	"SERVERNAME":          servernameFn,
	"SCRIPTPATH":          unimplementedFn,
	"CURRENTVERSION":      unimplementedFn,
	"CURRENTYEAR":         currentyearFn,
	"CURRENTMONTH":        currentmonthFn,
	"CURRENTMONTH1":       currentmonth1Fn,
	"CURRENTMONTHNAME":    currentmonthnameFn,
	"CURRENTMONTHABBREV":  currentmonthabbrevFn,
	"CURRENTDAY":          currentdayFn,
	"CURRENTDAY2":         currentday2Fn,
	"CURRENTDOW":          currentdowFn,
	"CURRENTDAYNAME":      currentdaynameFn,
	"CURRENTTIME":         currenttimeFn,
	"CURRENTHOUR":         currenthourFn,
	"CURRENTWEEK":         currentweekFn,
	"CURRENTTIMESTAMP":    currenttimestampFn,
	"LOCALYEAR":           localyearFn,
	"LOCALMONTH":          localmonthFn,
	"LOCALMONTHNAME":      localmonthnameFn,
	"LOCALMONTHABBREV":    localmonthabbrevFn,
	"LOCALDAY":            localdayFn,
	"LOCALDAY2":           localday2Fn,
	"LOCALDOW":            localdowFn,
	"LOCALDAYNAME":        localdaynameFn,
	"LOCALTIME":           localtimeFn,
	"LOCALHOUR":           localhourFn,
	"LOCALWEEK":           localweekFn,
	"LOCALTIMESTAMP":      localtimestampFn,
	"REVISIONID":          revisionidFn,
	"REVISIONDAY":         unimplementedFn,
	"REVISIONDAY2":        unimplementedFn,
	"REVISIONMONTH":       unimplementedFn,
	"REVISIONYEAR":        unimplementedFn,
	"REVISIONTIMESTAMP":   unimplementedFn,
	"REVISIONUSER":        revisionuserFn,
	"NUMBEROFPAGES":       numberofpagesFn,
	"NUMBEROFARTICLES":    numberofarticlesFn,
	"NUMBEROFFILES":       unimplementedFn,
	"NUMBEROFEDITS":       unimplementedFn,
	"NUMBEROFUSERS":       unimplementedFn,
	"NUMBEROFADMINS":      unimplementedFn,
	"NUMBEROFACTIVEUSERS": unimplementedFn,
	"PAGEID":              unimplementedFn,
	"PAGESIZE":            pagesizeFn,
	"PROTECTIONLEVEL":     protectionlevelFn,
	"PROTECTIONEXPIRY":    unimplementedFn,
	"PENDINGCHANGELEVEL":  unimplementedFn,
	"PAGESINCATEGORY":     unimplementedFn,
	"NUMBERINGROUP":       unimplementedFn,
	"DISPLAYTITLE":        displaytitleFn,
	"displaytitle":        displaytitleFn,
	"DEFAULTSORT":         defaultsortFn,
	"PAGELANGUAGE":        pagelanguageFn,
	"lc":                  lcFn,
	"lcfirst":             lcfirstFn,
	"uc":                  ucFn,
	"ucfirst":             ucfirstFn,
	"formatnum":           formatnumFn,
	"#dateformat":         dateformatFn,
	"#formatdate":         dateformatFn,
	"padleft":             padleftFn,
	"padright":            padrightFn,
	"plural":              pluralFn,
	"#time":               timeFn,
	"#timel":              timelFn,
	"gender":              unimplementedFn,
	"#tag":                tagFn,
	"localurl":            localurlFn,
	"fullurl":             fullurlFn,
	"fullurle":            fullurlFn,
	"canonicalurl":        unimplementedFn,
	"filepath":            filepathFn,
	"urlencode":           urlencodeFn,
	"anchorencode":        anchorencodeFn,
	"ns":                  nsFn,
	"nse":                 nsFn,
	"#rel2abs":            rel2absFn,
	"#titleparts":         titlepartsFn,
	"#expr":               exprFn,
	"#if":                 ifFn,
	"#ifeq":               ifeqFn,
	"#iferror":            iferrorFn,
	"#ifexpr":             ifexprFn,
	"#ifexist":            ifexistFn,
	"#switch":             switchFn,
	"#babel":              unimplementedFn,
	"#categorytree":       categorytreeFn,
	"#coordinates":        coordinatesFn,
	"#invoke":             unimplementedFn,
	"#lst":                lstFn,
	"#lsth":               unimplementedFn,
	"#lstx":               unimplementedFn,
	"#property":           propertyFn,
	"#related":            unimplementedFn,
	"#statements":         propertyFn,
	"#target":             unimplementedFn,
	"#len":                lenFn,
	"#pos":                posFn,
	"#rpos":               rposFn,
	"#sub":                subFn,
	"#pad":                padFn,
	"#replace":            replaceFn,
	"#explode":            explodeFn,
	"#urldecode":          urldecodeFn,
	"#urlencode":          urlencodeFn,
	"#section":            lstFn,
	"#section-h":          unimplementedFn,
	"#section-x":          unimplementedFn,
	"#language":           languageFn,
	"int":                 intFn,
}

var fnNameSeparatorRe = regexp.MustCompile(`[\s_]+`)

// canonicalizeParserFnName collapses whitespace and underscores in a
// parser function name; unrecognized names are lowercased since the
// names are case-insensitive.
func canonicalizeParserFnName(name string) string {
	name = fnNameSeparatorRe.ReplaceAllString(name, " ")
	if _, ok := parserFunctions[name]; !ok {
		name = strings.ToLower(name)
	}
	return name
}

func isParserFnName(name string) bool {
	if _, ok := parserFunctions[name]; ok {
		return true
	}
	return strings.HasPrefix(name, "#")
}

// callParserFunction dispatches a parser function call, reporting
// unrecognized names.
func callParserFunction(p *Processor, fnName string, args []string, expander func(string) string) string {
	fn, ok := parserFunctions[fnName]
	if !ok {
		p.Error(fmt.Sprintf("unrecognized parser function %q", fnName), "parserfns/unknown")
		return ""
	}
	return addNewlineToExpansion(fn(p, fnName, args, expander))
}
