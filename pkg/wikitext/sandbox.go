package wikitext

import "time"

// Frame is the expansion frame of a template body or module
// invocation: the title being expanded, the arguments bound in it, and
// the frame it was called from.
type Frame struct {
	Title string
	Args  map[string]string
	// Parent is the calling frame, nil at the top of the page.
	Parent *Frame
}

// InvokeContext carries the state a sandbox needs to execute one
// #invoke call: the calling frame and callbacks that re-enter the
// expansion engine. The callbacks expand in the calling frame, so
// argument references resolve the way they would in the template body.
type InvokeContext struct {
	// Frame is the frame the #invoke appears in. Its Parent chain
	// reaches back to the page.
	Frame *Frame
	// Timeout bounds the invocation; zero means no limit.
	Timeout time.Duration
	// Preprocess expands templates and parser functions in wikitext.
	Preprocess func(text string) string
	// ExpandTemplate expands a single template call with the given
	// arguments.
	ExpandTemplate func(name string, args []string) string
	// CallParserFunction dispatches a parser function by name.
	CallParserFunction func(name string, args []string) string
	// ExtensionTag renders tag content to a strip marker that survives
	// further parsing.
	ExtensionTag func(tag, content string) string
}

// Sandbox executes scripting-module invocations for the #invoke
// parser function.
type Sandbox interface {
	Invoke(p *Processor, args []string, ctx *InvokeContext) (string, error)
}
