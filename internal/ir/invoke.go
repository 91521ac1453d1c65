package ir

import (
	"sona/internal/cell"
	"sona/internal/diag"
	"sona/internal/function"
	"sona/internal/sound"
)

// Argument bindings rewrite a function's parameter cells just before its
// Body runs, once per invocation. Each binding pairs the callee's
// parameter cell with the caller-side expression supplying it; the
// compiler builds one of these per resolved argument, positional or
// named-with-default.
type RealArg struct {
	Cell *cell.Cell[float64]
	Expr RealExpr
}

type BoolArg struct {
	Cell *cell.Cell[bool]
	Expr BoolExpr
}

type StringArg struct {
	Cell *cell.Cell[string]
	Expr StringExpr
}

type SoundArg struct {
	Cell *cell.Cell[sound.Value]
	Expr SoundExpr
}

// Args is the full argument set of one call, split by family; any
// Function only ever has Real/Bool/String/Sound parameter cells to
// populate, never a mix of representations for one slot.
type Args struct {
	Real   []RealArg
	Bool   []BoolArg
	String []StringArg
	Sound  []SoundArg
}

func (a Args) bind() {
	for _, b := range a.Real {
		b.Cell.Set(b.Expr.EvalReal())
	}
	for _, b := range a.Bool {
		b.Cell.Set(b.Expr.EvalBool())
	}
	for _, b := range a.String {
		b.Cell.Set(b.Expr.EvalString())
	}
	for _, b := range a.Sound {
		b.Cell.Set(b.Expr.EvalSound())
	}
}

// RealInvoke, BoolInvoke, StringInvoke and SoundInvoke call a Function
// whose ReturnKind matches their own family directly: argument cells are
// rewritten once, the body runs once, and the result is returned. None
// of the native primitives behind these four ever report an error, so
// the error Body returns is discarded here rather than threaded through
// a total Eval method.
type RealInvoke struct {
	Fn   *function.Function
	Args Args
}

func (n RealInvoke) EvalReal() float64 {
	n.Args.bind()
	v, _, _ := n.Fn.Body.RunReal()
	return v
}

type BoolInvoke struct {
	Fn   *function.Function
	Args Args
}

func (n BoolInvoke) EvalBool() bool {
	n.Args.bind()
	v, _, _ := n.Fn.Body.RunBool()
	return v
}

type StringInvoke struct {
	Fn   *function.Function
	Args Args
}

func (n StringInvoke) EvalString() string {
	n.Args.bind()
	v, _, _ := n.Fn.Body.RunString()
	return v
}

type SoundInvoke struct {
	Fn   *function.Function
	Args Args
}

func (n SoundInvoke) EvalSound() sound.Value {
	n.Args.bind()
	v, _, _ := n.Fn.Body.RunSound()
	return v
}

// VoidInvoke calls a void-returning Function (write, in practice the
// only one). A runtime fault the primitive detects — a negative
// duration, a failed render — is wrapped at this node's own source
// range into a diag.Error rather than surfacing as a bare Go error.
type VoidInvoke struct {
	Fn    *function.Function
	Args  Args
	Range diag.Range
}

func (n VoidInvoke) EvalVoid() error {
	n.Args.bind()
	_, err := n.Fn.Body.RunVoid()
	if err != nil {
		return diag.New(diag.KindRuntime, n.Range, "%s", err).WithCause(err)
	}
	return nil
}

// SoundLift is the other way a Sound value can reach a Function: when a
// Sound-typed expression is passed where a Real parameter is declared,
// the whole call is lifted into a Sound by wrapping the Function's
// per-sample evaluation in sound.Apply, with the lifted arguments bound
// sample-by-sample through Apply's own Bindings rather than once up
// front. Only Real-returning functions admit this; a lifted argument
// occupies what would otherwise be a float64 parameter cell.
type SoundLift struct {
	Fn       *function.Function
	Args     Args // non-lifted arguments, bound once
	Bindings []sound.Binding
}

func (n SoundLift) EvalSound() sound.Value {
	n.Args.bind()
	return sound.Apply{
		Eval: func() float64 {
			v, _, _ := n.Fn.Body.RunReal()
			return v
		},
		Bindings: n.Bindings,
	}
}
