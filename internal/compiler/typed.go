// Package compiler lowers the untyped ast into the typed ir (C5): every
// expression is resolved to exactly one of Real, Bool, String or Sound,
// overloaded operators and calls are picked per spec.md's table, and a
// Real argument flowing into a Sound slot (or vice versa, for lifting)
// is made explicit as a promotion or lift node rather than left
// implicit in the tree.
package compiler

import (
	"sona/internal/cell"
	"sona/internal/diag"
	"sona/internal/function"
	"sona/internal/handle"
	"sona/internal/ir"
)

// typed is the compiler's working representation of one compiled
// expression: exactly one of the five fields matching Kind is
// meaningful. It only ever lives on the Go call stack during
// compilation; nothing downstream of Compile ever sees it.
type typed struct {
	Kind   cell.Type
	Real   ir.RealExpr
	Bool   ir.BoolExpr
	String ir.StringExpr
	Sound  ir.SoundExpr
	Void   ir.VoidExpr
}

func typedReal(e ir.RealExpr) typed     { return typed{Kind: cell.Real, Real: e} }
func typedBool(e ir.BoolExpr) typed     { return typed{Kind: cell.Bool, Bool: e} }
func typedString(e ir.StringExpr) typed { return typed{Kind: cell.String, String: e} }
func typedSound(e ir.SoundExpr) typed   { return typed{Kind: cell.Sound, Sound: e} }
func typedVoid(e ir.VoidExpr) typed     { return typed{Kind: cell.Void, Void: e} }

func (t typed) kindName() string { return t.Kind.String() }

// asSound returns t widened to a Sound, promoting a bare Real through
// SoundPromote. Bool, String and Void never convert to Sound.
func (t typed) asSound() (ir.SoundExpr, bool) {
	switch t.Kind {
	case cell.Sound:
		return t.Sound, true
	case cell.Real:
		return ir.SoundPromote{X: t.Real}, true
	default:
		return nil, false
	}
}

func (t typed) asReal() (ir.RealExpr, bool) {
	if t.Kind == cell.Real {
		return t.Real, true
	}
	return nil, false
}

func (t typed) asBool() (ir.BoolExpr, bool) {
	if t.Kind == cell.Bool {
		return t.Bool, true
	}
	return nil, false
}

func (t typed) asString() (ir.StringExpr, bool) {
	if t.Kind == cell.String {
		return t.String, true
	}
	return nil, false
}

// scope is one lexical level of name -> cell-handle bindings. Entering
// a block clones the enclosing scope's map (rather than chaining to a
// parent), so a shadowing `let` inside the block is invisible once the
// block exits and lookup never walks more than one map.
type scope map[string]handle.Handle

func (s scope) clone() scope {
	c := make(scope, len(s))
	for k, v := range s {
		c[k] = v
	}
	return c
}

// Compiler lowers one parsed program against a fixed, flat function
// table and a growing, block-scoped variable scope. Functions are
// global and are not closures: a function body only ever sees its own
// parameter cells and the function table, never an enclosing block's
// locals.
type Compiler struct {
	Functions map[string]*function.Function
	scope     scope
	// inFunction is the declared return kind of the function body
	// currently being compiled, and inFunctionSet is false at top level;
	// together they let VisitReturn type-check a `return` statement
	// against its enclosing function, and reject one outside any function.
	inFunction    function.Kind
	inFunctionSet bool
	// Printer backs the "?" postfix operator; env.New passes in the
	// driver's printer (env.NewPrinter: stdout, plus History when open).
	Printer ir.Printer
	Errors  []*diag.Error
}

// New creates a Compiler sharing env's prelude function table; fns may
// be extended by FnDecl statements the program itself contains.
func New(fns map[string]*function.Function, printer ir.Printer) *Compiler {
	return &Compiler{Functions: fns, scope: scope{}, Printer: printer}
}

func (c *Compiler) errorf(rng diag.Range, kind diag.Kind, format string, args ...interface{}) {
	c.Errors = append(c.Errors, diag.New(kind, rng, format, args...))
}

// Declare binds name directly into the global scope without going
// through an ast.Decl — this is how the prelude seeds `true`, `PI`,
// `Rand` and the rest before any user source is compiled.
func (c *Compiler) Declare(name string, h handle.Handle) {
	c.scope[name] = h
}
