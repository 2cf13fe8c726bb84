package wikitext

// HTML tags allowed in wikitext, with the contexts they may occur in,
// whether they take an end tag, and which tags implicitly close them.
// The parent and content categories follow the HTML content models
// ("flow", "phrasing", "text"), with "flow" implying "phrasing" and
// "phrasing" implying "text". Non-HTML extension tags get categories
// chosen to match how they are used on wiki pages.

type htmlTagData struct {
	parents   []string
	content   []string
	closeNext []string
	noEndTag  bool
}

var allowedHTMLTags = map[string]htmlTagData{
	"a":          {parents: []string{"phrasing"}, content: []string{"flow"}},
	"abbr":       {parents: []string{"phrasing"}, content: []string{"flow"}},
	"b":          {parents: []string{"phrasing"}, content: []string{"flow"}},
	"big":        {parents: []string{"phrasing"}, content: []string{"phrasing"}},
	"bdi":        {parents: []string{"phrasing"}, content: []string{"flow"}},
	"bdo":        {parents: []string{"phrasing"}, content: []string{"flow"}},
	"blockquote": {parents: []string{"flow"}, content: []string{"flow"}},
	"br":         {parents: []string{"phrasing"}, noEndTag: true},
	"caption":    {parents: []string{"table"}, content: []string{"flow"}},
	"center":     {parents: []string{"flow"}, content: []string{"phrasing"}},
	"chem":       {parents: []string{"phrasing"}, content: []string{"phrasing"}},
	"cite":       {parents: []string{"phrasing"}, content: []string{"phrasing"}},
	"code":       {parents: []string{"phrasing"}, content: []string{"phrasing"}},
	"data":       {parents: []string{"phrasing"}, content: []string{"phrasing"}},
	"dd": {
		parents:   []string{"dl", "div"},
		closeNext: []string{"dd", "dt"},
		content:   []string{"flow"},
	},
	"del":             {parents: []string{"phrasing"}, content: []string{"phrasing"}},
	"dfn":             {parents: []string{"phrasing"}, content: []string{"phrasing"}},
	"div":             {parents: []string{"phrasing", "dl"}, content: []string{"flow"}},
	"dl":              {parents: []string{"flow"}, content: []string{"flow"}},
	"dt": {
		parents:   []string{"dl", "div"},
		closeNext: []string{"dd", "dt"},
		content:   []string{"flow"},
	},
	"dynamicpagelist": {parents: []string{"flow"}, content: []string{"phrasing"}},
	"em":              {parents: []string{"phrasing"}, content: []string{"phrasing"}},
	"font":            {parents: []string{"phrasing"}, content: []string{"phrasing"}},
	"gallery":         {parents: []string{"flow"}, content: []string{"phrasing"}},
	"h1":              {parents: []string{"flow"}, content: []string{"phrasing"}},
	"h2":              {parents: []string{"flow"}, content: []string{"phrasing"}},
	"h3":              {parents: []string{"flow"}, content: []string{"phrasing"}},
	"h4":              {parents: []string{"flow"}, content: []string{"phrasing"}},
	"h5":              {parents: []string{"flow"}, content: []string{"phrasing"}},
	"h6":              {parents: []string{"flow"}, content: []string{"phrasing"}},
	"hiero":           {parents: []string{"phrasing"}, content: []string{"phrasing"}},
	"hr":              {parents: []string{"flow"}, noEndTag: true},
	"i":               {parents: []string{"phrasing"}, content: []string{"phrasing"}},
	"imagemap":        {parents: []string{"phrasing"}, content: []string{"phrasing"}},
	"includeonly":     {parents: []string{"*"}, content: []string{"*"}},
	"indicator":       {parents: []string{"phrasing"}, content: []string{"phrasing"}},
	"inputbox":        {parents: []string{"phrasing"}, content: []string{"phrasing"}},
	"ins":             {parents: []string{"phrasing"}, content: []string{"phrasing"}},
	"kbd":             {parents: []string{"phrasing"}, content: []string{"phrasing"}},
	"langconvert":     {parents: []string{"phrasing"}, content: []string{"phrasing"}},
	"li": {
		parents:   []string{"ul", "ol", "menu"},
		closeNext: []string{"li"},
		content:   []string{"flow"},
	},
	"math":        {parents: []string{"phrasing"}, content: []string{"phrasing"}},
	"mark":        {parents: []string{"phrasing"}, content: []string{"phrasing"}},
	"noinclude":   {parents: []string{"*"}, content: []string{"*"}},
	"ol":          {parents: []string{"flow"}, content: []string{"flow"}},
	"onlyinclude": {parents: []string{"*"}, content: []string{"*"}},
	"p": {
		parents: []string{"flow"},
		closeNext: []string{
			"p", "address", "article", "aside", "blockquote", "div", "dl",
			"fieldset", "footer", "form", "h1", "h2", "h3", "h4", "h5", "h6",
			"header", "hr", "menu", "nav", "ol", "pre", "section", "table", "ul",
		},
		content: []string{"phrasing"},
	},
	"q": {parents: []string{"phrasing"}, content: []string{"phrasing"}},
	"rb": {
		parents:   []string{"ruby"},
		closeNext: []string{"rt", "rtc", "rp", "rb"},
		content:   []string{"phrasing"},
	},
	"ref": {parents: []string{"phrasing"}, content: []string{"phrasing"}},
	"references": {
		parents: []string{"flow"},
		content: []string{"flow", "phrasing"},
	},
	"rp": {
		parents:   []string{"ruby"},
		closeNext: []string{"rt", "rtc", "rp", "rb"},
		content:   []string{"text"},
	},
	"rt": {
		parents:   []string{"ruby", "rtc"},
		closeNext: []string{"rt", "rtc", "rp", "rb"},
		content:   []string{"phrasing"},
	},
	"rtc": {
		parents:   []string{"ruby"},
		closeNext: []string{"rt", "rtc", "rb"},
		content:   []string{"phrasing"},
	},
	"ruby":   {parents: []string{"phrasing"}, content: []string{"phrasing"}},
	"s":      {parents: []string{"phrasing"}, content: []string{"phrasing"}},
	"samp":   {parents: []string{"phrasing"}, content: []string{"phrasing"}},
	"small":  {parents: []string{"phrasing"}, content: []string{"phrasing"}},
	"span":   {parents: []string{"phrasing"}, content: []string{"phrasing"}},
	"strike": {parents: []string{"phrasing"}, content: []string{"phrasing"}},
	"strong": {parents: []string{"phrasing"}, content: []string{"phrasing"}},
	"sub":    {parents: []string{"phrasing"}, content: []string{"phrasing"}},
	"sup":    {parents: []string{"phrasing"}, content: []string{"phrasing"}},
	"table":  {parents: []string{"flow"}},
	"tbody": {
		parents:   []string{"table"},
		closeNext: []string{"thead", "tbody", "tfoot"},
	},
	"td": {
		parents:   []string{"tr"},
		closeNext: []string{"th", "td", "tr"},
		content:   []string{"flow"},
	},
	"templatestyles": {parents: []string{"phrasing"}, noEndTag: true},
	"tfoot": {
		parents:   []string{"table"},
		closeNext: []string{"thead", "tbody", "tfoot"},
	},
	"th": {
		parents:   []string{"tr"},
		closeNext: []string{"th", "td", "tr"},
		content:   []string{"flow"},
	},
	"thead": {
		parents:   []string{"table"},
		closeNext: []string{"thead", "tbody", "tfoot"},
	},
	"time": {parents: []string{"phrasing"}, content: []string{"phrasing"}},
	"tr": {
		parents:   []string{"table", "thead", "tfoot", "tbody"},
		closeNext: []string{"tr"},
	},
	"tt":  {parents: []string{"phrasing"}, content: []string{"phrasing"}},
	"u":   {parents: []string{"phrasing"}, content: []string{"phrasing"}},
	"ul":  {parents: []string{"flow"}, content: []string{"flow"}},
	"var": {parents: []string{"phrasing"}, content: []string{"phrasing"}},
	"wbr": {parents: []string{"phrasing"}, noEndTag: true},
}

// htmlFlowParents and htmlPhrasingParents are the tags whose content
// model permits flow or phrasing children, derived from the table.
var (
	htmlFlowParents     = map[string]bool{}
	htmlPhrasingParents = map[string]bool{}
	// htmlPermittedParents maps a tag to the set of tags it may appear
	// directly under.
	htmlPermittedParents = map[string]map[string]bool{}
)

func init() {
	for tag, data := range allowedHTMLTags {
		for _, c := range data.content {
			switch c {
			case "flow", "*":
				htmlFlowParents[tag] = true
			case "phrasing":
				htmlPhrasingParents[tag] = true
			}
		}
	}
	for tag, data := range allowedHTMLTags {
		permitted := map[string]bool{}
		for _, p := range data.parents {
			switch p {
			case "flow":
				for t := range htmlFlowParents {
					permitted[t] = true
				}
			case "phrasing":
				for t := range htmlFlowParents {
					permitted[t] = true
				}
				for t := range htmlPhrasingParents {
					permitted[t] = true
				}
			case "*":
				permitted["*"] = true
			default:
				permitted[p] = true
			}
		}
		htmlPermittedParents[tag] = permitted
	}
}
