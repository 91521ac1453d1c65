// Package function implements the function table (C4): the fixed set of
// native primitives the prelude installs, plus the shape every
// user-defined function compiles down to. A Function never inspects its
// caller; it only ever sees the cells the compiler already bound its
// parameters to.
package function

import (
	"math"

	"sona/internal/cell"
	"sona/internal/ctrl"
	"sona/internal/handle"
	"sona/internal/sound"
)

// Kind is a function's declared return type, one more case than
// cell.Type to admit Void.
type Kind int

const (
	KReal Kind = iota
	KBool
	KString
	KSound
	KVoid
)

// Param is one positional parameter slot: its name (for diagnostics) and
// the handle the compiler must bind an argument cell into before Body
// runs.
type Param struct {
	Name   string
	Handle handle.Handle
}

// NamedParam is a named parameter slot with a default value supplied
// when the caller omits it. Default is only ever invoked for the
// primitive kind matching Handle's type.
type NamedParam struct {
	Name    string
	Handle  handle.Handle
	Default Default
}

// Default holds exactly one of the four primitive defaults, matching
// the NamedParam's Handle kind.
type Default struct {
	Real   float64
	Bool   bool
	String string
	Sound  sound.Value
}

// Body is the compiled or native implementation of a function. Exactly
// one Run* field is populated, matching ReturnKind. Each closure reads
// its already-bound parameter cells and returns the result together
// with the control signal produced by running the body (a native
// primitive always returns ctrl.Normally) and a non-nil error when the
// body faulted: a native primitive that detects a runtime fault (e.g.
// write() given a negative duration), or a compiled user body in which
// such a call failed.
type Body struct {
	RunReal   func() (float64, ctrl.Signal, error)
	RunBool   func() (bool, ctrl.Signal, error)
	RunString func() (string, ctrl.Signal, error)
	RunSound  func() (sound.Value, ctrl.Signal, error)
	RunVoid   func() (ctrl.Signal, error)
}

// Function is one callable entry in the environment's function table.
type Function struct {
	Name       string
	Positional []Param
	Named      []NamedParam
	ReturnKind Kind
	Body       Body
}

// Arity reports the minimum and maximum number of positional arguments
// a call may supply; named arguments are always optional.
func (f *Function) Arity() (min, max int) {
	return len(f.Positional), len(f.Positional)
}

// FindNamed reports the named parameter with the given name, if any.
func (f *Function) FindNamed(name string) (NamedParam, bool) {
	for _, p := range f.Named {
		if p.Name == name {
			return p, true
		}
	}
	return NamedParam{}, false
}

// unary builds a native real->real primitive bound to the single
// positional cell x.
func unary(name string, x *cell.Cell[float64], fn func(float64) float64) *Function {
	return &Function{
		Name:       name,
		Positional: []Param{{Name: "x", Handle: handle.Real{Cell: x}}},
		ReturnKind: KReal,
		Body: Body{RunReal: func() (float64, ctrl.Signal, error) {
			return fn(x.Get()), ctrl.Normally, nil
		}},
	}
}

func binary(name string, a, b *cell.Cell[float64], fn func(float64, float64) float64) *Function {
	return &Function{
		Name: name,
		Positional: []Param{
			{Name: "a", Handle: handle.Real{Cell: a}},
			{Name: "b", Handle: handle.Real{Cell: b}},
		},
		ReturnKind: KReal,
		Body: Body{RunReal: func() (float64, ctrl.Signal, error) {
			return fn(a.Get(), b.Get()), ctrl.Normally, nil
		}},
	}
}

// Sqrt builds the native sqrt(x) primitive using a freshly allocated
// argument cell; the caller (env's prelude setup) owns binding it.
func Sqrt() (*Function, *cell.Cell[float64]) {
	x := cell.New[float64]()
	return unary("sqrt", x, math.Sqrt), x
}

func Sin() (*Function, *cell.Cell[float64]) {
	x := cell.New[float64]()
	return unary("sin", x, math.Sin), x
}

func Cos() (*Function, *cell.Cell[float64]) {
	x := cell.New[float64]()
	return unary("cos", x, math.Cos), x
}

func Tan() (*Function, *cell.Cell[float64]) {
	x := cell.New[float64]()
	return unary("tan", x, math.Tan), x
}

func Exp() (*Function, *cell.Cell[float64]) {
	x := cell.New[float64]()
	return unary("exp", x, math.Exp), x
}

func Log() (*Function, *cell.Cell[float64]) {
	x := cell.New[float64]()
	return unary("log", x, math.Log), x
}

func Max() (*Function, *cell.Cell[float64], *cell.Cell[float64]) {
	a, b := cell.New[float64](), cell.New[float64]()
	return binary("max", a, b, math.Max), a, b
}

func Min() (*Function, *cell.Cell[float64], *cell.Cell[float64]) {
	a, b := cell.New[float64](), cell.New[float64]()
	return binary("min", a, b, math.Min), a, b
}

// LinearGen builds the native Linear(a, b) signal-generator primitive:
// two real arguments, one sound result.
func LinearGen() (*Function, *cell.Cell[float64], *cell.Cell[float64]) {
	a, b := cell.New[float64](), cell.New[float64]()
	return &Function{
		Name: "Linear",
		Positional: []Param{
			{Name: "a", Handle: handle.Real{Cell: a}},
			{Name: "b", Handle: handle.Real{Cell: b}},
		},
		ReturnKind: KSound,
		Body: Body{RunSound: func() (sound.Value, ctrl.Signal, error) {
			return sound.Linear{A: a.Get(), B: b.Get()}, ctrl.Normally, nil
		}},
	}, a, b
}

// SinGen builds the native Sin(f; theta: real = 0) generator: a required
// frequency cell and a named, defaulted phase cell, matching spec.md's
// worked scenarios that call Sin with frequency alone.
func SinGen() (*Function, *cell.Cell[float64], *cell.Cell[float64]) {
	f, theta := cell.New[float64](), cell.New[float64]()
	return &Function{
		Name:       "Sin",
		Positional: []Param{{Name: "f", Handle: handle.Real{Cell: f}}},
		Named: []NamedParam{
			{Name: "theta", Handle: handle.Real{Cell: theta}, Default: Default{Real: 0}},
		},
		ReturnKind: KSound,
		Body: Body{RunSound: func() (sound.Value, ctrl.Signal, error) {
			return sound.Sin{F: f.Get(), Theta: theta.Get()}, ctrl.Normally, nil
		}},
	}, f, theta
}

// ExpGen builds the native Exp(a; b: real = 0) generator: a required
// time-constant cell and a named, defaulted intercept cell.
func ExpGen() (*Function, *cell.Cell[float64], *cell.Cell[float64]) {
	a, b := cell.New[float64](), cell.New[float64]()
	return &Function{
		Name:       "Exp",
		Positional: []Param{{Name: "a", Handle: handle.Real{Cell: a}}},
		Named: []NamedParam{
			{Name: "b", Handle: handle.Real{Cell: b}, Default: Default{Real: 0}},
		},
		ReturnKind: KSound,
		Body: Body{RunSound: func() (sound.Value, ctrl.Signal, error) {
			return sound.Exp{A: a.Get(), B: b.Get()}, ctrl.Normally, nil
		}},
	}, a, b
}

// BeginGen and EndGen build the native Begin(t0)/End(t0) step generators.
func BeginGen() (*Function, *cell.Cell[float64]) {
	t0 := cell.New[float64]()
	return &Function{
		Name:       "Begin",
		Positional: []Param{{Name: "t0", Handle: handle.Real{Cell: t0}}},
		ReturnKind: KSound,
		Body: Body{RunSound: func() (sound.Value, ctrl.Signal, error) {
			return sound.Begin{T0: t0.Get()}, ctrl.Normally, nil
		}},
	}, t0
}

func EndGen() (*Function, *cell.Cell[float64]) {
	t0 := cell.New[float64]()
	return &Function{
		Name:       "End",
		Positional: []Param{{Name: "t0", Handle: handle.Real{Cell: t0}}},
		ReturnKind: KSound,
		Body: Body{RunSound: func() (sound.Value, ctrl.Signal, error) {
			return sound.End{T0: t0.Get()}, ctrl.Normally, nil
		}},
	}, t0
}

// RandGen builds the niladic native Rand() generator.
func RandGen() *Function {
	return &Function{
		Name:       "Rand",
		ReturnKind: KSound,
		Body: Body{RunSound: func() (sound.Value, ctrl.Signal, error) {
			return sound.Rand{}, ctrl.Normally, nil
		}},
	}
}

// WriteFunc renders a sound for the given duration in seconds to a
// named target. The compiler/env layer supplies the real implementation
// (package wav); function stays ignorant of WAV encoding or the
// filesystem.
type WriteFunc func(name string, duration float64, sig sound.Value) error

// Write builds the native write(signal, duration, name) primitive,
// matching the surface call write(Sound, real duration, string path). It
// is KVoid but reports a runtime diagnostic (via the returned error,
// which ir.VoidInvoke turns into a diag.Error) rather than
// panicking on a negative duration or I/O failure.
func Write(do WriteFunc) (*Function, *cell.Cell[string], *cell.Cell[float64], *cell.Cell[sound.Value]) {
	name := cell.New[string]()
	duration := cell.New[float64]()
	sig := cell.NewWith[sound.Value](sound.Silence)
	return &Function{
		Name: "write",
		Positional: []Param{
			{Name: "signal", Handle: handle.Sound{Cell: sig}},
			{Name: "duration", Handle: handle.Real{Cell: duration}},
			{Name: "name", Handle: handle.String{Cell: name}},
		},
		ReturnKind: KVoid,
		Body: Body{RunVoid: func() (ctrl.Signal, error) {
			return ctrl.Normally, do(name.Get(), duration.Get(), sig.Get())
		}},
	}, name, duration, sig
}
