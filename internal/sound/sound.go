// Package sound implements the lazy sound-signal graph: a small closed
// algebra of generators and combinators, each a total function of time,
// together with a closed-form time-shift rewrite and a per-sample
// iterator used only at render time. No sound Value holds a
// back-reference (Apply's bindings hold only the real parameter cells it
// writes), so the graph is a DAG of operand-to-leaf edges and cannot
// contain a cycle by construction.
package sound

import (
	"math"
	"math/rand/v2"

	"sona/internal/cell"
)

// Value is any node in the sound graph. It is immutable once constructed;
// Shift and Iterator always return new objects.
type Value interface {
	// Shift returns a signal equal to t ↦ v(t+delta).
	Shift(delta float64) Value
	// Iterator returns a fresh, single-use, single-pass sample stream at
	// the given sample rate. Two iterators built from the same graph
	// produce the same sequence, except for Rand leaves.
	Iterator(sampleRate float64) Iterator
	// At evaluates the signal directly at time t, without sample-rate
	// knowledge. Used by the combinators' own At and by tests of the
	// shift law; for
	// Rand this returns a fresh independent sample rather than a pure
	// function of t (matching the leaf's definition).
	At(t float64) float64
}

func clampFinite(x float64) float64 {
	switch {
	case math.IsNaN(x):
		return 0
	case math.IsInf(x, 1):
		return math.MaxFloat64
	case math.IsInf(x, -1):
		return -math.MaxFloat64
	default:
		return x
	}
}

// --- Generators ---

type Const struct{ V float64 }

func (c Const) At(t float64) float64        { return clampFinite(c.V) }
func (c Const) Shift(delta float64) Value   { return c }
func (c Const) Iterator(r float64) Iterator { return &constIter{v: clampFinite(c.V)} }

// Silence is the zero-valued constant signal new cells and arguments start
// from.
var Silence Value = Const{V: 0}

type Linear struct{ A, B float64 }

func (l Linear) At(t float64) float64 { return clampFinite(l.A*t + l.B) }
func (l Linear) Shift(delta float64) Value {
	return Linear{A: l.A, B: l.A*delta + l.B}
}
func (l Linear) Iterator(r float64) Iterator {
	return &linearIter{cur: l.B, step: l.A / r}
}

type Sin struct{ F, Theta float64 }

func (s Sin) At(t float64) float64 { return clampFinite(math.Sin(2*math.Pi*s.F*t + s.Theta)) }
func (s Sin) Shift(delta float64) Value {
	return Sin{F: s.F, Theta: s.Theta + 2*math.Pi*s.F*delta}
}
func (s Sin) Iterator(r float64) Iterator {
	angle := 2 * math.Pi * s.F / r
	return &sinIter{
		pRe: math.Cos(s.Theta), pIm: math.Sin(s.Theta),
		ratioRe: math.Cos(angle), ratioIm: math.Sin(angle),
	}
}

type Exp struct{ A, B float64 }

func (e Exp) At(t float64) float64 { return clampFinite(math.Exp(e.A*t + e.B)) }
func (e Exp) Shift(delta float64) Value {
	return Exp{A: e.A, B: e.A*delta + e.B}
}
func (e Exp) Iterator(r float64) Iterator {
	return &expIter{cur: e.B, step: e.A / r}
}

// Begin is 0 before t0, 1 from t0 onward.
type Begin struct{ T0 float64 }

func (b Begin) At(t float64) float64 {
	if t < b.T0 {
		return 0
	}
	return 1
}
func (b Begin) Shift(delta float64) Value   { return Begin{T0: b.T0 - delta} }
func (b Begin) Iterator(r float64) Iterator { return &stepIter{countdown: thresholdSamples(b.T0, r), before: 0, after: 1} }

// End is 1 before t0, 0 from t0 onward.
type End struct{ T0 float64 }

func (e End) At(t float64) float64 {
	if t < e.T0 {
		return 1
	}
	return 0
}
func (e End) Shift(delta float64) Value   { return End{T0: e.T0 - delta} }
func (e End) Iterator(r float64) Iterator { return &stepIter{countdown: thresholdSamples(e.T0, r), before: 1, after: 0} }

func thresholdSamples(t0, r float64) int64 {
	n := int64(math.Floor(t0 * r))
	if n < 0 {
		n = 0
	}
	return n
}

// Rand yields a fresh uniform sample in [0,1) independent per sample; it
// is shift-invariant by definition since it has no notion of time.
type Rand struct{}

func (Rand) At(t float64) float64      { return rand.Float64() }
func (Rand) Shift(delta float64) Value { return Rand{} }
func (Rand) Iterator(r float64) Iterator {
	return &randIter{r: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// --- Combinators ---

type unaryOp func(x float64) float64

type Unary struct {
	Op   string
	Fn   unaryOp
	X    Value
}

func Negate(x Value) Value {
	return Unary{Op: "neg", Fn: func(a float64) float64 { return -a }, X: x}
}

func Reciprocal(x Value) Value {
	return Unary{Op: "recip", Fn: func(a float64) float64 { return 1 / a }, X: x}
}

func (u Unary) At(t float64) float64 { return clampFinite(u.Fn(u.X.At(t))) }
func (u Unary) Shift(delta float64) Value {
	return Unary{Op: u.Op, Fn: u.Fn, X: u.X.Shift(delta)}
}
func (u Unary) Iterator(r float64) Iterator {
	return &unaryIter{fn: u.Fn, x: u.X.Iterator(r)}
}

type binaryOp func(a, b float64) float64

type Binary struct {
	Op   string
	Fn   binaryOp
	L, R Value
}

func binOp(op string, fn binaryOp, l, r Value) Value {
	return Binary{Op: op, Fn: fn, L: l, R: r}
}

func Add(l, r Value) Value { return binOp("+", func(a, b float64) float64 { return a + b }, l, r) }
func Sub(l, r Value) Value { return binOp("-", func(a, b float64) float64 { return a - b }, l, r) }
func Mul(l, r Value) Value { return binOp("*", func(a, b float64) float64 { return a * b }, l, r) }
func Div(l, r Value) Value { return binOp("/", func(a, b float64) float64 { return a / b }, l, r) }
func Rem(l, r Value) Value { return binOp("%", math.Mod, l, r) }
func Pow(l, r Value) Value { return binOp("^", math.Pow, l, r) }

func (b Binary) At(t float64) float64 { return clampFinite(b.Fn(b.L.At(t), b.R.At(t))) }
func (b Binary) Shift(delta float64) Value {
	return Binary{Op: b.Op, Fn: b.Fn, L: b.L.Shift(delta), R: b.R.Shift(delta)}
}
func (b Binary) Iterator(r float64) Iterator {
	return &binaryIter{fn: b.Fn, l: b.L.Iterator(r), r: b.R.Iterator(r)}
}

// Binding pairs a sound with the real cell its current sample is written
// into before each evaluation of an Apply's body.
type Binding struct {
	Cell  *cell.Cell[float64]
	Sound Value
}

// Apply lifts a scalar function over one or more sound streams: at each
// sample it writes the current sample of every bound sound into its cell,
// then calls Eval to produce one output sample. Eval is supplied by the
// compiler/ir layer (a closure over the compiled real-valued body and its
// already-bound scalar argument cells); package sound never depends on
// package ir, which is what keeps this a leaf concern.
type Apply struct {
	Eval     func() float64
	Bindings []Binding
}

func (a Apply) At(t float64) float64 {
	for _, b := range a.Bindings {
		b.Cell.Set(b.Sound.At(t))
	}
	return clampFinite(a.Eval())
}

func (a Apply) Shift(delta float64) Value {
	shifted := make([]Binding, len(a.Bindings))
	for i, b := range a.Bindings {
		shifted[i] = Binding{Cell: b.Cell, Sound: b.Sound.Shift(delta)}
	}
	return Apply{Eval: a.Eval, Bindings: shifted}
}

func (a Apply) Iterator(r float64) Iterator {
	iters := make([]Iterator, len(a.Bindings))
	cells := make([]*cell.Cell[float64], len(a.Bindings))
	for i, b := range a.Bindings {
		iters[i] = b.Sound.Iterator(r)
		cells[i] = b.Cell
	}
	return &applyIter{eval: a.Eval, cells: cells, iters: iters}
}
