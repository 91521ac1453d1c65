// Package ir implements the typed intermediate representation the
// compiler lowers the AST into (C3): five disjoint expression families —
// Real, Bool, String, Sound, Void — each with its own evaluation method,
// and a family of statement nodes built on top of them. Keeping the
// families monomorphic (one concrete node type per primitive operation
// rather than a single generic "Expr" with a runtime type tag) means
// every Eval method is an exhaustive, non-failing Go switch-free
// function: a malformed tree simply cannot be built, because the
// compiler is the only thing that constructs these nodes and it only
// ever wires a family's operands to that family's own Eval method.
package ir

import (
	"sona/internal/cell"
	"sona/internal/sound"
)

// RealExpr, BoolExpr, StringExpr and SoundExpr are total: evaluating one
// always produces a value of its family, never an error. Only VoidExpr
// (calls to void-returning functions, namely write) can fail at runtime.
type RealExpr interface {
	EvalReal() float64
}

type BoolExpr interface {
	EvalBool() bool
}

type StringExpr interface {
	EvalString() string
}

type SoundExpr interface {
	EvalSound() sound.Value
}

type VoidExpr interface {
	EvalVoid() error
}

// --- Literals and cell references ---

type RealLit struct{ V float64 }

func (n RealLit) EvalReal() float64 { return n.V }

type BoolLit struct{ V bool }

func (n BoolLit) EvalBool() bool { return n.V }

type StringLit struct{ V string }

func (n StringLit) EvalString() string { return n.V }

// SoundLit wraps an already-built sound.Value as a constant SoundExpr;
// the compiler uses it for a named parameter's sound-typed default.
type SoundLit struct{ V sound.Value }

func (n SoundLit) EvalSound() sound.Value { return n.V }

// RealRef, BoolRef, StringRef and SoundRef read a variable's cell
// directly; the compiler resolves a name to its cell once, at compile
// time, so no name lookup ever happens at evaluation time.
type RealRef struct{ Cell *cell.Cell[float64] }

func (n RealRef) EvalReal() float64 { return n.Cell.Get() }

type BoolRef struct{ Cell *cell.Cell[bool] }

func (n BoolRef) EvalBool() bool { return n.Cell.Get() }

type StringRef struct{ Cell *cell.Cell[string] }

func (n StringRef) EvalString() string { return n.Cell.Get() }

type SoundRef struct{ Cell *cell.Cell[sound.Value] }

func (n SoundRef) EvalSound() sound.Value { return n.Cell.Get() }

// --- Real arithmetic ---

type RealUnary struct {
	Fn func(float64) float64
	X  RealExpr
}

func (n RealUnary) EvalReal() float64 { return n.Fn(n.X.EvalReal()) }

type RealBinary struct {
	Fn   func(a, b float64) float64
	L, R RealExpr
}

func (n RealBinary) EvalReal() float64 { return n.Fn(n.L.EvalReal(), n.R.EvalReal()) }

// --- Bool logic and comparison ---

type BoolNot struct{ X BoolExpr }

func (n BoolNot) EvalBool() bool { return !n.X.EvalBool() }

// BoolAnd and BoolOr rely on Go's && / || to short-circuit: R is never
// evaluated once L already decides the result.
type BoolAnd struct{ L, R BoolExpr }

func (n BoolAnd) EvalBool() bool { return n.L.EvalBool() && n.R.EvalBool() }

type BoolOr struct{ L, R BoolExpr }

func (n BoolOr) EvalBool() bool { return n.L.EvalBool() || n.R.EvalBool() }

// RealCompare produces a Bool from two Real operands (<, >, ==, !=).
type RealCompare struct {
	Fn   func(a, b float64) bool
	L, R RealExpr
}

func (n RealCompare) EvalBool() bool { return n.Fn(n.L.EvalReal(), n.R.EvalReal()) }

// --- String ---

type StringConcat struct{ L, R StringExpr }

func (n StringConcat) EvalString() string { return n.L.EvalString() + n.R.EvalString() }

// --- Sound ---

// SoundPromote lifts a Real expression into a Sound context as the
// constant-in-time signal it denotes; the compiler inserts this node
// wherever a Real-typed argument or operand flows into a Sound-typed
// slot.
type SoundPromote struct{ X RealExpr }

func (n SoundPromote) EvalSound() sound.Value { return sound.Const{V: n.X.EvalReal()} }

type SoundUnary struct {
	Op string
	Fn func(float64) float64
	X  SoundExpr
}

func (n SoundUnary) EvalSound() sound.Value {
	return sound.Unary{Op: n.Op, Fn: n.Fn, X: n.X.EvalSound()}
}

type SoundBinary struct {
	Op   string
	Fn   func(a, b float64) float64
	L, R SoundExpr
}

func (n SoundBinary) EvalSound() sound.Value {
	return sound.Binary{Op: n.Op, Fn: n.Fn, L: n.L.EvalSound(), R: n.R.EvalSound()}
}

// SoundShiftLeft and SoundShiftRight implement << and >>: shift earlier
// (left) or later (right) in time by Delta seconds, using each
// generator's own closed-form Shift rewrite rather than resampling.
type SoundShiftLeft struct {
	X     SoundExpr
	Delta RealExpr
}

func (n SoundShiftLeft) EvalSound() sound.Value { return n.X.EvalSound().Shift(n.Delta.EvalReal()) }

type SoundShiftRight struct {
	X     SoundExpr
	Delta RealExpr
}

func (n SoundShiftRight) EvalSound() sound.Value { return n.X.EvalSound().Shift(-n.Delta.EvalReal()) }
