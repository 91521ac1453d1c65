package env

import (
	"fmt"
	"io"

	"sona/internal/sound"
)

// stdoutPrinter is the default ir.Printer: the three scalar families go
// to Out as a bare value plus newline, matching the teacher's REPL
// convention of echoing a result without extra labeling. A sound has no
// single-line textual form, so "?" on one reports its type and leaves
// rendering it to an explicit write() call. Every line is also recorded
// to History (if non-nil) as an "output" row, alongside the "input" rows
// the REPL records itself.
type stdoutPrinter struct {
	Out     io.Writer
	History *History
}

// NewPrinter builds the stdout-backed ir.Printer env.New wires into a
// driver's Environment. history may be nil, in which case output is not
// persisted.
func NewPrinter(out io.Writer, history *History) *stdoutPrinter {
	return &stdoutPrinter{Out: out, History: history}
}

func (p *stdoutPrinter) record(text string) {
	p.History.Record(KindOutput, text)
}

func (p *stdoutPrinter) PrintReal(v float64) {
	fmt.Fprintln(p.Out, v)
	p.record(fmt.Sprint(v))
}

func (p *stdoutPrinter) PrintBool(v bool) {
	fmt.Fprintln(p.Out, v)
	p.record(fmt.Sprint(v))
}

func (p *stdoutPrinter) PrintString(v string) {
	fmt.Fprintln(p.Out, v)
	p.record(v)
}

func (p *stdoutPrinter) PlaySound(v sound.Value) {
	text := fmt.Sprintf("<sound %s>", soundKind(v))
	fmt.Fprintln(p.Out, text)
	p.record(text)
}

// soundKind names a sound graph's root node for "?" diagnostics, without
// walking the whole tree.
func soundKind(v sound.Value) string {
	switch v.(type) {
	case sound.Const:
		return "const"
	case sound.Linear:
		return "linear"
	case sound.Sin:
		return "sin"
	case sound.Exp:
		return "exp"
	case sound.Begin:
		return "begin"
	case sound.End:
		return "end"
	case sound.Rand:
		return "rand"
	default:
		return "expr"
	}
}
