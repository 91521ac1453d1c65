package env

import (
	"math"

	"sona/internal/cell"
	"sona/internal/function"
	"sona/internal/handle"
)

// installPrelude registers every built-in name spec.md's environment
// starts with: the boolean and real constants, the scalar math
// functions, the six signal generators, and write(). Each native
// Function is built by internal/function against a cell this method
// owns and, for the generators and write, binds into the Compiler's
// global scope only as a callee — constants are the only prelude names
// that are also plain variables.
func (e *Environment) installPrelude() {
	e.Compiler.Declare("true", handle.Bool{Cell: cell.NewWith(true)})
	e.Compiler.Declare("false", handle.Bool{Cell: cell.NewWith(false)})
	e.Compiler.Declare("PI", handle.Real{Cell: cell.NewWith(math.Pi)})
	e.Compiler.Declare("E", handle.Real{Cell: cell.NewWith(math.E)})
	e.Compiler.Declare("TAU", handle.Real{Cell: cell.NewWith(math.Pi * 2)})

	e.addUnary(function.Sqrt)
	e.addUnary(function.Sin)
	e.addUnary(function.Cos)
	e.addUnary(function.Tan)
	e.addUnary(function.Exp)
	e.addUnary(function.Log)
	e.addBinary(function.Max)
	e.addBinary(function.Min)

	e.addGen2(function.LinearGen)
	e.addGen2(function.SinGen)
	e.addGen2(function.ExpGen)
	e.addGen1(function.BeginGen)
	e.addGen1(function.EndGen)
	e.Functions["Rand"] = function.RandGen()

	wfn, _, _, _ := function.Write(e.writeFile)
	e.Functions["write"] = wfn
}

func (e *Environment) addUnary(build func() (*function.Function, *cell.Cell[float64])) {
	fn, _ := build()
	e.Functions[fn.Name] = fn
}

func (e *Environment) addBinary(build func() (*function.Function, *cell.Cell[float64], *cell.Cell[float64])) {
	fn, _, _ := build()
	e.Functions[fn.Name] = fn
}

func (e *Environment) addGen2(build func() (*function.Function, *cell.Cell[float64], *cell.Cell[float64])) {
	fn, _, _ := build()
	e.Functions[fn.Name] = fn
}

func (e *Environment) addGen1(build func() (*function.Function, *cell.Cell[float64])) {
	fn, _ := build()
	e.Functions[fn.Name] = fn
}
