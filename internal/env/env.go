// Package env implements the environment (C6): the root scope a driver
// hands a freshly parsed program to. It owns the function table (native
// prelude plus whatever fn declarations the program adds), the
// persistent variable scope a REPL session keeps across lines, and the
// render pipeline write() calls into.
package env

import (
	"fmt"

	"sona/internal/ast"
	"sona/internal/compiler"
	"sona/internal/diag"
	"sona/internal/function"
	"sona/internal/ir"
	"sona/internal/sound"
)

// DefaultSampleRate is used whenever SONA_SAMPLE_RATE is unset or
// unparsable; 44100 Hz is CD audio quality and what spec.md's own
// examples assume.
const DefaultSampleRate = 44100.0

// Renderer turns a rendered sound graph into bytes on disk; env.New
// wires internal/wav's encoder in here so package function never needs
// to import it.
type Renderer interface {
	Render(name string, duration float64, sampleRate float64, sig sound.Value) error
}

// Environment is the long-lived host of one interpreter session: one
// Environment per REPL run, or one per file executed in file mode.
type Environment struct {
	Functions  map[string]*function.Function
	Compiler   *compiler.Compiler
	SampleRate float64
	Printer    ir.Printer
	renderer   Renderer
}

// New builds an Environment with the full native prelude installed:
// constants, scalar math primitives, the six signal generators (Linear,
// Sin, Exp, Begin, End, Rand), and write(). printer backs "?"; renderer backs write().
func New(sampleRate float64, printer ir.Printer, renderer Renderer) *Environment {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	e := &Environment{
		Functions:  make(map[string]*function.Function),
		SampleRate: sampleRate,
		Printer:    printer,
		renderer:   renderer,
	}
	e.Compiler = compiler.New(e.Functions, printer)
	e.installPrelude()
	return e
}

// Run compiles and executes one batch of parsed statements against this
// Environment's persistent scope and function table, returning compile
// diagnostics (if any — execution never happens when compilation
// failed) or a single runtime diagnostic from the first statement whose
// VoidExpr faulted.
func (e *Environment) Run(stmts []ast.Stmt) []*diag.Error {
	compiled, errs := e.Compiler.Compile(stmts)
	if len(errs) > 0 {
		return errs
	}
	block := ir.Block{Stmts: compiled}
	_, err := block.Exec()
	if err != nil {
		if de, ok := err.(*diag.Error); ok {
			return []*diag.Error{de}
		}
		return []*diag.Error{diag.New(diag.KindRuntime, diag.Range{}, "%s", err)}
	}
	return nil
}

// writeFile is the concrete WriteFunc behind the write() primitive: it
// validates the duration (spec.md's one explicitly runtime-checked
// precondition) and otherwise hands off to the injected Renderer.
func (e *Environment) writeFile(name string, duration float64, sig sound.Value) error {
	if duration < 0 {
		return fmt.Errorf("write: duration must be non-negative, got %g", duration)
	}
	if e.renderer == nil {
		return fmt.Errorf("write: no renderer configured")
	}
	return e.renderer.Render(name, duration, e.SampleRate, sig)
}
