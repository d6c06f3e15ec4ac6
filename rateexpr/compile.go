package rateexpr

import "fmt"

// Compiled wraps a parsed AST together with its source text. Expressions
// are parsed once and cached per transition; Controller and Assigner keep
// a Compiled per transition/guard rather than re-parsing on every
// evaluation.
type Compiled struct {
	Source string
	Expr   Expr
}

// Compile parses src once. Callers cache the result (e.g. keyed by
// transition id) rather than calling Compile on every step.
func Compile(src string) (*Compiled, error) {
	e, err := Parse(src)
	if err != nil {
		return nil, fmt.Errorf("rateexpr: compile %q: %w", src, err)
	}
	return &Compiled{Source: src, Expr: e}, nil
}

// Eval evaluates the compiled expression against ctx.
func (c *Compiled) Eval(ctx *Context) (float64, error) {
	return c.Expr.eval(ctx)
}

// String re-serializes the compiled AST. It is not guaranteed to be
// byte-identical to Source (e.g. redundant parens are dropped) but is
// always semantically equivalent.
func (c *Compiled) String() string { return c.Expr.String() }

// Wrap builds the stochastic-noise form of a rate function: any rate
// function is composed with a multiplicative wiener term, purely as text,
// independent of the underlying rate law.
func Wrap(expr string, amplitude float64) string {
	return fmt.Sprintf("(%s) * (1 + %s * wiener(time))", expr, formatAmplitude(amplitude))
}

func formatAmplitude(a float64) string {
	c := &NumberLit{Value: a}
	return c.String()
}
