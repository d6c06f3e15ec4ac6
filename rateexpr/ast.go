package rateexpr

import (
	"fmt"
	"strconv"
	"strings"
)

// Expr is any node of the parsed rate-function AST. Every node implements
// String, which re-serializes to a semantically equivalent expression.
type Expr interface {
	String() string
	eval(ctx *Context) (float64, error)
}

// NumberLit is a numeric literal.
type NumberLit struct {
	Value float64
}

func (n *NumberLit) String() string { return strconv.FormatFloat(n.Value, 'g', -1, 64) }

// Ident is a reference to a place (by id or display name) or the reserved
// name "time".
type Ident struct {
	Name string
}

func (i *Ident) String() string { return i.Name }

// BinaryOp is a left/right arithmetic operation: + - * / **.
type BinaryOp struct {
	Op   byte // '+', '-', '*', '/', '^' (internal marker for **)
	L, R Expr
}

func (b *BinaryOp) String() string {
	op := string(b.Op)
	if b.Op == '^' {
		op = "**"
	}
	return fmt.Sprintf("(%s %s %s)", b.L.String(), op, b.R.String())
}

// UnaryOp is a unary +/- applied to its operand.
type UnaryOp struct {
	Op byte
	X  Expr
}

func (u *UnaryOp) String() string { return fmt.Sprintf("%c%s", u.Op, u.X.String()) }

// Arg is a call argument, optionally named (keyword arguments, e.g.
// vmax=10).
type Arg struct {
	Name  string // empty for positional args
	Value Expr
}

func (a *Arg) String() string {
	if a.Name == "" {
		return a.Value.String()
	}
	return a.Name + "=" + a.Value.String()
}

// Call is a recognized function invocation: michaelis_menten, mass_action,
// exponential, or wiener.
type Call struct {
	Func string
	Args []Arg
}

func (c *Call) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return c.Func + "(" + strings.Join(parts, ", ") + ")"
}
