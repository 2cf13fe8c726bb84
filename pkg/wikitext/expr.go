package wikitext

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// #expr arithmetic, implemented as a recursive-descent evaluator over
// the same precedence levels the ParserFunctions extension uses:
// or < and < comparisons < round < add/sub < mul/div/mod < pow <
// named unary functions < e-notation < unary sign.

var exprTokenRe = regexp.MustCompile(`\d+(\.\d*)?|\.\d+|[a-z]+|!=|<>|>=|<=|[^\s]`)

type exprValue struct {
	f     float64
	i     int64
	isInt bool
}

func intVal(i int64) exprValue     { return exprValue{i: i, isInt: true} }
func floatVal(f float64) exprValue { return exprValue{f: f} }

func (v exprValue) float() float64 {
	if v.isInt {
		return float64(v.i)
	}
	return v.f
}

func (v exprValue) truth() bool { return v.float() != 0 }

func boolVal(b bool) exprValue {
	if b {
		return intVal(1)
	}
	return intVal(0)
}

// String renders a result the way MediaWiki prints it: floats whose
// value is integral print without a decimal point.
func (v exprValue) String() string {
	if v.isInt {
		return strconv.FormatInt(v.i, 10)
	}
	if !math.IsInf(v.f, 0) && !math.IsNaN(v.f) && math.Floor(v.f) == v.f &&
		math.Abs(v.f) < 1e15 {
		return strconv.FormatInt(int64(v.f), 10)
	}
	return strconv.FormatFloat(v.f, 'G', -1, 64)
}

type exprError struct{ msg string }

func (e *exprError) Error() string { return e.msg }

type exprParser struct {
	tokens []string
	pos    int
}

func (ep *exprParser) peek() string {
	if ep.pos < len(ep.tokens) {
		return ep.tokens[ep.pos]
	}
	return ""
}

func (ep *exprParser) next() string {
	tok := ep.peek()
	if tok != "" {
		ep.pos++
	}
	return tok
}

func (ep *exprParser) errNear() *exprError {
	tok := ep.peek()
	if tok == "" {
		tok = "&lt;end&gt;"
	}
	return &exprError{msg: fmt.Sprintf(`<strong class="error">Expression error near %s</strong>`, tok)}
}

func exprFn(p *Processor, fnName string, args []string, expander func(string) string) string {
	full := strings.ToLower(strings.TrimSpace(expander(arg(args, 0))))
	if full == "" {
		return `<strong class="error">Expression error near &lt;end&gt;</strong>`
	}
	ep := &exprParser{tokens: exprTokenRe.FindAllString(full, -1)}
	v, err := ep.parseOr()
	if err != nil {
		return err.msg
	}
	if ep.pos != len(ep.tokens) {
		return ep.errNear().msg
	}
	return v.String()
}

func (ep *exprParser) parseOr() (exprValue, *exprError) {
	left, err := ep.parseAnd()
	if err != nil {
		return left, err
	}
	for ep.peek() == "or" {
		ep.next()
		right, err := ep.parseAnd()
		if err != nil {
			return right, err
		}
		left = boolVal(left.truth() || right.truth())
	}
	return left, nil
}

func (ep *exprParser) parseAnd() (exprValue, *exprError) {
	left, err := ep.parseCmp()
	if err != nil {
		return left, err
	}
	for ep.peek() == "and" {
		ep.next()
		right, err := ep.parseCmp()
		if err != nil {
			return right, err
		}
		left = boolVal(left.truth() && right.truth())
	}
	return left, nil
}

func (ep *exprParser) parseCmp() (exprValue, *exprError) {
	left, err := ep.parseRound()
	if err != nil {
		return left, err
	}
	for {
		op := ep.peek()
		switch op {
		case "=", "!=", "<>", ">", "<", ">=", "<=":
		default:
			return left, nil
		}
		ep.next()
		right, err := ep.parseRound()
		if err != nil {
			return right, err
		}
		a, b := left.float(), right.float()
		switch op {
		case "=":
			left = boolVal(a == b)
		case "!=", "<>":
			left = boolVal(a != b)
		case ">":
			left = boolVal(a > b)
		case "<":
			left = boolVal(a < b)
		case ">=":
			left = boolVal(a >= b)
		case "<=":
			left = boolVal(a <= b)
		}
	}
}

func (ep *exprParser) parseRound() (exprValue, *exprError) {
	left, err := ep.parseAdd()
	if err != nil {
		return left, err
	}
	for ep.peek() == "round" {
		ep.next()
		right, err := ep.parseAdd()
		if err != nil {
			return right, err
		}
		digits := int(right.float())
		scale := math.Pow(10, float64(digits))
		rounded := math.Round(left.float()*scale) / scale
		if digits <= 0 {
			left = intVal(int64(rounded))
		} else {
			left = floatVal(rounded)
		}
	}
	return left, nil
}

func (ep *exprParser) parseAdd() (exprValue, *exprError) {
	left, err := ep.parseMul()
	if err != nil {
		return left, err
	}
	for {
		op := ep.peek()
		if op != "+" && op != "-" {
			return left, nil
		}
		ep.next()
		right, err := ep.parseMul()
		if err != nil {
			return right, err
		}
		if left.isInt && right.isInt {
			if op == "+" {
				left = intVal(left.i + right.i)
			} else {
				left = intVal(left.i - right.i)
			}
		} else if op == "+" {
			left = floatVal(left.float() + right.float())
		} else {
			left = floatVal(left.float() - right.float())
		}
	}
}

func (ep *exprParser) parseMul() (exprValue, *exprError) {
	left, err := ep.parsePow()
	if err != nil {
		return left, err
	}
	for {
		op := ep.peek()
		if op != "*" && op != "/" && op != "div" && op != "mod" {
			return left, nil
		}
		ep.next()
		right, err := ep.parsePow()
		if err != nil {
			return right, err
		}
		switch op {
		case "*":
			if left.isInt && right.isInt {
				left = intVal(left.i * right.i)
			} else {
				left = floatVal(left.float() * right.float())
			}
		case "/", "div":
			if right.float() == 0 {
				return left, &exprError{msg: `<strong class="error">Divide by zero</strong>`}
			}
			left = floatVal(left.float() / right.float())
		case "mod":
			ri := int64(right.float())
			if ri == 0 {
				return left, &exprError{msg: `<strong class="error">Divide by zero</strong>`}
			}
			left = intVal(int64(left.float()) % ri)
		}
	}
}

func (ep *exprParser) parsePow() (exprValue, *exprError) {
	left, err := ep.parseUnaryFn()
	if err != nil {
		return left, err
	}
	for ep.peek() == "^" {
		ep.next()
		right, err := ep.parseUnaryFn()
		if err != nil {
			return right, err
		}
		left = floatVal(math.Pow(left.float(), right.float()))
	}
	return left, nil
}

func (ep *exprParser) parseUnaryFn() (exprValue, *exprError) {
	tok := ep.peek()
	switch tok {
	case "not", "ceil", "trunc", "floor", "abs", "sqrt", "exp", "ln",
		"sin", "cos", "tan", "acos", "asin", "atan":
		ep.next()
		v, err := ep.parseUnaryFn()
		if err != nil {
			return v, err
		}
		x := v.float()
		switch tok {
		case "not":
			return boolVal(!v.truth()), nil
		case "ceil":
			return intVal(int64(math.Ceil(x))), nil
		case "trunc":
			return intVal(int64(math.Trunc(x))), nil
		case "floor":
			return intVal(int64(math.Floor(x))), nil
		case "abs":
			if v.isInt {
				if v.i < 0 {
					return intVal(-v.i), nil
				}
				return v, nil
			}
			return floatVal(math.Abs(x)), nil
		case "sqrt":
			if x < 0 {
				return v, &exprError{msg: `<strong class="error">sqrt of negative value</strong>`}
			}
			return floatVal(math.Sqrt(x)), nil
		case "exp":
			return floatVal(math.Exp(x)), nil
		case "ln":
			return floatVal(math.Log(x)), nil
		case "sin":
			return floatVal(math.Sin(x)), nil
		case "cos":
			return floatVal(math.Cos(x)), nil
		case "tan":
			return floatVal(math.Tan(x)), nil
		case "acos":
			return floatVal(math.Acos(x)), nil
		case "asin":
			return floatVal(math.Asin(x)), nil
		case "atan":
			return floatVal(math.Atan(x)), nil
		}
	}
	return ep.parseBinaryE()
}

func (ep *exprParser) parseBinaryE() (exprValue, *exprError) {
	left, err := ep.parseUnary()
	if err != nil {
		return left, err
	}
	for ep.peek() == "e" {
		ep.next()
		right, err := ep.parseUnary()
		if err != nil {
			return right, err
		}
		// integer mantissa with a non-negative integer exponent stays
		// an integer
		if left.isInt && right.isInt && right.i >= 0 && right.i < 18 {
			v := left.i
			for n := int64(0); n < right.i; n++ {
				v *= 10
			}
			left = intVal(v)
		} else {
			left = floatVal(left.float() * math.Pow(10, right.float()))
		}
	}
	return left, nil
}

func (ep *exprParser) parseUnary() (exprValue, *exprError) {
	switch ep.peek() {
	case "-":
		ep.next()
		v, err := ep.parseUnary()
		if err != nil {
			return v, err
		}
		if v.isInt {
			return intVal(-v.i), nil
		}
		return floatVal(-v.f), nil
	case "+":
		ep.next()
		return ep.parseUnary()
	}
	return ep.parseAtom()
}

func (ep *exprParser) parseAtom() (exprValue, *exprError) {
	tok := ep.peek()
	switch tok {
	case "":
		return exprValue{}, ep.errNear()
	case "(":
		ep.next()
		v, err := ep.parseOr()
		if err != nil {
			return v, err
		}
		if ep.peek() != ")" {
			return v, ep.errNear()
		}
		ep.next()
		return v, nil
	case "e":
		ep.next()
		return floatVal(math.E), nil
	case "pi":
		ep.next()
		return floatVal(math.Pi), nil
	case ".":
		ep.next()
		return intVal(0), nil
	}
	if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
		ep.next()
		return intVal(i), nil
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		ep.next()
		return floatVal(f), nil
	}
	return exprValue{}, ep.errNear()
}
