package wikitext

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSandbox captures the invocation for assertions.
type recordingSandbox struct {
	args []string
	ctx  *InvokeContext
	ret  string
	err  error
}

func (s *recordingSandbox) Invoke(_ *Processor, args []string, ctx *InvokeContext) (string, error) {
	s.args = args
	s.ctx = ctx
	return s.ret, s.err
}

func newSandboxProcessor(sb Sandbox) *Processor {
	p := NewProcessor(Options{Sandbox: sb})
	p.StartPage("Testpage")
	return p
}

func TestInvoke_ArgsAndResult(t *testing.T) {
	sb := &recordingSandbox{ret: "module output"}
	p := newSandboxProcessor(sb)
	assert.Equal(t, "module output", p.Expand("{{#invoke:M|run}}"))
	assert.Equal(t, []string{"M", "run"}, sb.args)
}

func TestInvoke_FrameChain(t *testing.T) {
	sb := &recordingSandbox{ret: "ok"}
	p := newSandboxProcessor(sb)
	p.AddTemplate("outer", "{{inner|a}}")
	p.AddTemplate("inner", "{{#invoke:M|run}}")

	assert.Equal(t, "ok", p.Expand("{{outer}}"))

	require.NotNil(t, sb.ctx)
	frame := sb.ctx.Frame
	require.NotNil(t, frame)
	assert.Equal(t, "Template:inner", frame.Title)
	assert.Equal(t, "a", frame.Args["1"])
	require.NotNil(t, frame.Parent)
	assert.Equal(t, "Template:outer", frame.Parent.Title)
	assert.Nil(t, frame.Parent.Parent)
}

func TestInvoke_Callbacks(t *testing.T) {
	sb := &recordingSandbox{ret: "ok"}
	p := newSandboxProcessor(sb)
	p.AddTemplate("hello", "Hello, {{{1}}}!")
	p.Expand("{{#invoke:M|run}}")

	ctx := sb.ctx
	require.NotNil(t, ctx)
	assert.Equal(t, "4", ctx.CallParserFunction("#expr", []string{"2 + 2"}))
	assert.Equal(t, "Hello, world!", ctx.ExpandTemplate("hello", []string{"world"}))
	assert.Equal(t, "done", ctx.Preprocess("{{#if:x|done|no}}"))
	assert.Contains(t, ctx.ExtensionTag("ref", "content"), "UNIQ")
}

func TestInvoke_TimeoutPassthrough(t *testing.T) {
	sb := &recordingSandbox{ret: "ok"}
	p := newSandboxProcessor(sb)
	p.ExpandWith("{{#invoke:M|run}}", ExpandOptions{Timeout: 5 * time.Second})

	require.NotNil(t, sb.ctx)
	assert.Equal(t, 5*time.Second, sb.ctx.Timeout)
}

func TestInvoke_ErrorBecomesInlineMarker(t *testing.T) {
	sb := &recordingSandbox{err: errors.New("boom")}
	p := newSandboxProcessor(sb)
	ret := p.Expand("{{#invoke:M|run}}")
	assert.Contains(t, ret, `<strong class="error">boom</strong>`)
	assert.NotEmpty(t, p.Errors)
}

func TestInvoke_NoInvokeOptionKeepsCall(t *testing.T) {
	sb := &recordingSandbox{ret: "ok"}
	p := newSandboxProcessor(sb)
	ret := p.ExpandWith("{{#invoke:M|run}}", ExpandOptions{NoInvoke: true})
	assert.Equal(t, "{{#invoke:M|run}}", ret)
	assert.Nil(t, sb.ctx)
}
