package compiler

import (
	"math"

	"sona/internal/ast"
	"sona/internal/cell"
	"sona/internal/diag"
	"sona/internal/handle"
	"sona/internal/ir"
)

// realEqTolerance is the absolute tolerance real == and != compare
// within, rather than exact IEEE equality.
const realEqTolerance = 1e-6

// compileExpr lowers one ast.Expr, reporting a diagnostic and returning
// a Real zero-value placeholder (so later compilation can keep running
// and surface further errors in the same pass) on failure.
func (c *Compiler) compileExpr(e ast.Expr) typed {
	result := e.Accept(c)
	t, ok := result.(typed)
	if !ok {
		return typedReal(ir.RealLit{V: 0})
	}
	return t
}

func (c *Compiler) VisitLiteral(e *ast.Literal) interface{} {
	switch e.Kind {
	case ast.LitReal:
		return typedReal(ir.RealLit{V: e.Real})
	case ast.LitBool:
		return typedBool(ir.BoolLit{V: e.Bool})
	default:
		return typedString(ir.StringLit{V: e.Str})
	}
}

func (c *Compiler) VisitIdentifier(e *ast.Identifier) interface{} {
	h, ok := c.scope[e.Name]
	if !ok {
		c.errorf(e.Rng, diag.KindUndefined, "undefined variable %q", e.Name)
		return typedReal(ir.RealLit{V: 0})
	}
	return c.refFromHandle(h)
}

// refFromHandle builds the Ref IR node matching a resolved handle's
// concrete type; it is a small closed switch rather than a method on
// handle.Handle, keeping package handle free of any ir dependency.
func (c *Compiler) refFromHandle(h handle.Handle) typed {
	switch v := h.(type) {
	case handle.Real:
		return typedReal(ir.RealRef{Cell: v.Cell})
	case handle.Bool:
		return typedBool(ir.BoolRef{Cell: v.Cell})
	case handle.String:
		return typedString(ir.StringRef{Cell: v.Cell})
	case handle.Sound:
		return typedSound(ir.SoundRef{Cell: v.Cell})
	default:
		return typedReal(ir.RealLit{V: 0})
	}
}

func (c *Compiler) VisitUnary(e *ast.Unary) interface{} {
	x := c.compileExpr(e.Operand)
	if e.Postfix {
		return c.compilePrint(e, x)
	}
	switch e.Op {
	case "-":
		return c.compileNegate(e, x)
	case "!":
		b, ok := x.asBool()
		if !ok {
			c.errorf(e.Rng, diag.KindType, "'!' requires bool, got %s", x.kindName())
			return typedBool(ir.BoolLit{V: false})
		}
		return typedBool(ir.BoolNot{X: b})
	case "/":
		return c.compileReciprocal(e, x)
	default:
		c.errorf(e.Rng, diag.KindType, "unknown unary operator %q", e.Op)
		return x
	}
}

func (c *Compiler) compilePrint(e *ast.Unary, x typed) typed {
	switch x.Kind {
	case cell.Real:
		return typedReal(ir.RealPrint{X: x.Real, Printer: c.Printer})
	case cell.Bool:
		return typedBool(ir.BoolPrint{X: x.Bool, Printer: c.Printer})
	case cell.String:
		return typedString(ir.StringPrint{X: x.String, Printer: c.Printer})
	case cell.Sound:
		return typedSound(ir.SoundPrint{X: x.Sound, Printer: c.Printer})
	default:
		c.errorf(e.Rng, diag.KindType, "'?' has nothing to print: operand is void")
		return typedReal(ir.RealLit{V: 0})
	}
}

func (c *Compiler) compileNegate(e *ast.Unary, x typed) typed {
	switch x.Kind {
	case cell.Real:
		return typedReal(ir.RealUnary{Fn: negate, X: x.Real})
	case cell.Sound:
		return typedSound(ir.SoundUnary{Op: "neg", Fn: negate, X: x.Sound})
	default:
		c.errorf(e.Rng, diag.KindType, "'-' requires real or sound, got %s", x.kindName())
		return typedReal(ir.RealLit{V: 0})
	}
}

func (c *Compiler) compileReciprocal(e *ast.Unary, x typed) typed {
	switch x.Kind {
	case cell.Real:
		return typedReal(ir.RealUnary{Fn: reciprocal, X: x.Real})
	case cell.Sound:
		return typedSound(ir.SoundUnary{Op: "recip", Fn: reciprocal, X: x.Sound})
	default:
		c.errorf(e.Rng, diag.KindType, "'/' requires real or sound, got %s", x.kindName())
		return typedReal(ir.RealLit{V: 0})
	}
}

func negate(x float64) float64     { return -x }
func reciprocal(x float64) float64 { return 1 / x }

func (c *Compiler) VisitBinary(e *ast.Binary) interface{} {
	l := c.compileExpr(e.Left)
	r := c.compileExpr(e.Right)
	switch e.Op {
	case "+":
		return c.compileAdd(e, l, r)
	case "-":
		return c.compileArith(e, l, r, "-", sub)
	case "*":
		return c.compileArith(e, l, r, "*", mul)
	case "/":
		return c.compileArith(e, l, r, "/", div)
	case "%":
		return c.compileArith(e, l, r, "%", math.Mod)
	case "^":
		return c.compileArith(e, l, r, "^", math.Pow)
	case "<":
		return c.compileCompare(e, l, r, lt)
	case ">":
		return c.compileCompare(e, l, r, gt)
	case "==":
		return c.compileEquals(e, l, r, false)
	case "!=":
		return c.compileEquals(e, l, r, true)
	case "&&":
		return c.compileBoolBinary(e, l, r, true)
	case "||":
		return c.compileBoolBinary(e, l, r, false)
	case "<<":
		return c.compileShift(e, l, r, true)
	case ">>":
		return c.compileShift(e, l, r, false)
	default:
		c.errorf(e.Rng, diag.KindType, "unknown binary operator %q", e.Op)
		return typedReal(ir.RealLit{V: 0})
	}
}

func sub(a, b float64) float64 { return a - b }
func mul(a, b float64) float64 { return a * b }
func div(a, b float64) float64 { return a / b }
func lt(a, b float64) bool     { return a < b }
func gt(a, b float64) bool     { return a > b }

// compileAdd additionally allows String + String concatenation, which
// the other arithmetic operators do not.
func (c *Compiler) compileAdd(e *ast.Binary, l, r typed) typed {
	if l.Kind == cell.String && r.Kind == cell.String {
		ls, _ := l.asString()
		rs, _ := r.asString()
		return typedString(ir.StringConcat{L: ls, R: rs})
	}
	return c.compileArith(e, l, r, "+", add)
}

func add(a, b float64) float64 { return a + b }

// compileArith implements spec.md's real/sound overload table for a
// single numeric operator: Real op Real -> Real; anything involving a
// Sound (with the other side promoted from Real if needed) -> Sound.
func (c *Compiler) compileArith(e *ast.Binary, l, r typed, op string, fn func(a, b float64) float64) typed {
	if l.Kind == cell.Real && r.Kind == cell.Real {
		lr, _ := l.asReal()
		rr, _ := r.asReal()
		return typedReal(ir.RealBinary{Fn: fn, L: lr, R: rr})
	}
	ls, lok := l.asSound()
	rs, rok := r.asSound()
	if lok && rok {
		return typedSound(ir.SoundBinary{Op: op, Fn: fn, L: ls, R: rs})
	}
	c.errorf(e.Rng, diag.KindType, "'%s' requires real or sound operands, got %s and %s", op, l.kindName(), r.kindName())
	return typedReal(ir.RealLit{V: 0})
}

func (c *Compiler) compileCompare(e *ast.Binary, l, r typed, fn func(a, b float64) bool) typed {
	lr, lok := l.asReal()
	rr, rok := r.asReal()
	if !lok || !rok {
		c.errorf(e.Rng, diag.KindType, "comparison requires real operands, got %s and %s", l.kindName(), r.kindName())
		return typedBool(ir.BoolLit{V: false})
	}
	return typedBool(ir.RealCompare{Fn: fn, L: lr, R: rr})
}

func (c *Compiler) compileEquals(e *ast.Binary, l, r typed, negate bool) typed {
	if l.Kind != r.Kind {
		c.errorf(e.Rng, diag.KindType, "cannot compare %s to %s", l.kindName(), r.kindName())
		return typedBool(ir.BoolLit{V: false})
	}
	var eq ir.BoolExpr
	switch l.Kind {
	case cell.Real:
		lr, _ := l.asReal()
		rr, _ := r.asReal()
		fn := func(a, b float64) bool { return math.Abs(a-b) <= realEqTolerance }
		eq = ir.RealCompare{Fn: fn, L: lr, R: rr}
	case cell.Bool:
		lb, _ := l.asBool()
		rb, _ := r.asBool()
		eq = boolEquals{L: lb, R: rb}
	case cell.String:
		ls, _ := l.asString()
		rs, _ := r.asString()
		eq = stringEquals{L: ls, R: rs}
	default:
		c.errorf(e.Rng, diag.KindType, "sound has no equality")
		return typedBool(ir.BoolLit{V: false})
	}
	if negate {
		return typedBool(ir.BoolNot{X: eq})
	}
	return typedBool(eq)
}

func (c *Compiler) compileBoolBinary(e *ast.Binary, l, r typed, and bool) typed {
	lb, lok := l.asBool()
	rb, rok := r.asBool()
	if !lok || !rok {
		op := "&&"
		if !and {
			op = "||"
		}
		c.errorf(e.Rng, diag.KindType, "'%s' requires bool operands, got %s and %s", op, l.kindName(), r.kindName())
		return typedBool(ir.BoolLit{V: false})
	}
	if and {
		return typedBool(ir.BoolAnd{L: lb, R: rb})
	}
	return typedBool(ir.BoolOr{L: lb, R: rb})
}

func (c *Compiler) compileShift(e *ast.Binary, l, r typed, left bool) typed {
	ls, lok := l.asSound()
	rr, rok := r.asReal()
	if !lok || !rok {
		c.errorf(e.Rng, diag.KindType, "shift requires a sound on the left and a real delta, got %s and %s", l.kindName(), r.kindName())
		return typedSound(ir.SoundPromote{X: ir.RealLit{V: 0}})
	}
	if left {
		return typedSound(ir.SoundShiftLeft{X: ls, Delta: rr})
	}
	return typedSound(ir.SoundShiftRight{X: ls, Delta: rr})
}

// boolEquals and stringEquals are tiny helper nodes local to the
// compiler: they exist only to implement == and != for Bool and String,
// which spec.md's arithmetic overload table does not otherwise need.
type boolEquals struct{ L, R ir.BoolExpr }

func (n boolEquals) EvalBool() bool { return n.L.EvalBool() == n.R.EvalBool() }

type stringEquals struct{ L, R ir.StringExpr }

func (n stringEquals) EvalBool() bool { return n.L.EvalString() == n.R.EvalString() }
