// Package repl implements the interactive driver (A5): a read-compile-run
// loop over one long-lived env.Environment, so declarations and variables
// from earlier lines stay visible to later ones.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"sona/internal/ast"
	"sona/internal/diag"
	"sona/internal/env"
	"sona/internal/lexer"
)

// Options configures a Start call; the zero value reads from os.Stdin
// and writes to os.Stdout with prompts enabled when stdin is a terminal.
type Options struct {
	In      io.Reader
	Out     io.Writer
	History *env.History
}

// Start runs the loop until the input is exhausted or the user types
// "exit". It prints a "> " prompt only when In is an interactive
// terminal, so piped input (scripts, tests) runs silently.
func Start(e *env.Environment, opts Options) {
	in := opts.In
	if in == nil {
		in = os.Stdin
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	interactive := false
	if f, ok := in.(*os.File); ok {
		interactive = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	if interactive {
		fmt.Fprintln(out, "Sona REPL | type 'exit' to quit")
	}
	scanner := bufio.NewScanner(in)
	for {
		if interactive {
			fmt.Fprint(out, "> ")
		}
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if line == "exit" {
			break
		}
		if line == "" {
			continue
		}
		opts.History.Record(env.KindInput, line)
		runLine(e, out, opts.History, line)
	}
}

func runLine(e *env.Environment, out io.Writer, h *env.History, line string) {
	lex := lexer.New(line)
	tokens := lex.ScanTokens()
	if len(lex.Errors) > 0 {
		reportAll(out, h, lex.Errors, line)
		return
	}

	p := ast.NewParser(tokens)
	stmts := p.Parse()
	if len(p.Errors) > 0 {
		reportAll(out, h, p.Errors, line)
		return
	}

	if errs := e.Run(stmts); len(errs) > 0 {
		reportAll(out, h, errs, line)
	}
}

func reportAll(out io.Writer, h *env.History, errs []*diag.Error, source string) {
	for _, err := range errs {
		err = err.WithSource(source)
		fmt.Fprint(out, err.Error())
		h.Record(env.KindError, err.Error())
	}
}
