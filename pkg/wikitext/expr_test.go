package wikitext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpr_Arithmetic(t *testing.T) {
	cases := []struct {
		expr string
		want string
	}{
		{"2 + 3 * 4", "14"},
		{"(2 + 3) * 4", "20"},
		{"2 - 3", "-1"},
		{"10 / 4", "2.5"},
		{"7 mod 3", "1"},
		{"7 div 2", "3.5"},
		{"2 ^ 10", "1024"},
		{"1e3", "1000"},
		{"2.5e2", "250"},
		{"-5", "-5"},
		{"+5", "5"},
		{"3.14159 round 2", "3.14"},
		{"2.7 round 0", "3"},
		{"trunc 1.9", "1"},
		{"floor -1.5", "-2"},
		{"ceil 1.1", "2"},
		{"abs -5", "5"},
		{"sqrt 16", "4"},
		{"1 = 1", "1"},
		{"1 != 2", "1"},
		{"1 <> 1", "0"},
		{"2 < 1", "0"},
		{"2 >= 2", "1"},
		{"not 0", "1"},
		{"1 and 0", "0"},
		{"1 or 0", "1"},
		{"pi > 3", "1"},
		{".", "0"},
	}
	p := newTestProcessor()
	ident := func(s string) string { return s }
	for _, c := range cases {
		assert.Equal(t, c.want, exprFn(p, "#expr", []string{c.expr}, ident), "expr %q", c.expr)
	}
}

func TestExpr_Errors(t *testing.T) {
	p := newTestProcessor()
	ident := func(s string) string { return s }

	assert.Equal(t, `<strong class="error">Divide by zero</strong>`,
		exprFn(p, "#expr", []string{"1/0"}, ident))
	assert.Equal(t, `<strong class="error">Divide by zero</strong>`,
		exprFn(p, "#expr", []string{"5 mod 0"}, ident))
	assert.Equal(t, `<strong class="error">sqrt of negative value</strong>`,
		exprFn(p, "#expr", []string{"sqrt -1"}, ident))
	assert.Equal(t, `<strong class="error">Expression error near &lt;end&gt;</strong>`,
		exprFn(p, "#expr", []string{""}, ident))
	assert.Equal(t, `<strong class="error">Expression error near &lt;end&gt;</strong>`,
		exprFn(p, "#expr", []string{"1 +"}, ident))
	assert.Equal(t, `<strong class="error">Expression error near )</strong>`,
		exprFn(p, "#expr", []string{"1 ) 2"}, ident))
}

func TestExpr_ViaExpansion(t *testing.T) {
	p := newTestProcessor()
	assert.Equal(t, "14", p.Expand("{{#expr: 2 + 3 * 4 }}"))
	assert.Equal(t, "1", p.Expand("{{#expr: 3 > 2 }}"))
}

func TestExpr_IntegerPreservation(t *testing.T) {
	p := newTestProcessor()
	ident := func(s string) string { return s }
	// large integers must not lose precision through float64
	assert.Equal(t, "123456789012345678",
		exprFn(p, "#expr", []string{"123456789012345678 + 0"}, ident))
}
