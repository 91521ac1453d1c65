// Command sona is the driver (A4): given a source file argument it
// compiles and runs the file once, exiting non-zero on any diagnostic;
// given none it starts the interactive REPL.
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"sona/internal/ast"
	"sona/internal/diag"
	"sona/internal/env"
	"sona/internal/lexer"
	"sona/internal/repl"
	"sona/internal/wav"
)

const version = "0.1.0"

func main() {
	args := os.Args[1:]
	if len(args) > 0 && (args[0] == "--version" || args[0] == "-v") {
		fmt.Println("sona", version)
		return
	}
	if len(args) > 0 && (args[0] == "--help" || args[0] == "-h") {
		showUsage()
		return
	}

	sampleRate := sampleRateFromEnv()
	renderer := wav.New(".", log.New(os.Stderr, "", 0))
	history, err := env.OpenHistory()
	if err != nil {
		fmt.Fprintf(os.Stderr, "sona: history disabled: %v\n", err)
	}
	defer history.Close()

	if len(args) == 0 {
		e := env.New(sampleRate, env.NewPrinter(os.Stdout, history), renderer)
		repl.Start(e, repl.Options{In: os.Stdin, Out: os.Stdout, History: history})
		return
	}

	code := runFile(args[0], sampleRate, renderer)
	history.Close()
	os.Exit(code)
}

func sampleRateFromEnv() float64 {
	v := os.Getenv("SONA_SAMPLE_RATE")
	if v == "" {
		return env.DefaultSampleRate
	}
	r, err := strconv.ParseFloat(v, 64)
	if err != nil || r <= 0 {
		fmt.Fprintf(os.Stderr, "sona: ignoring invalid SONA_SAMPLE_RATE %q\n", v)
		return env.DefaultSampleRate
	}
	return r
}

// runFile compiles and runs one source file to completion, reporting
// every diagnostic encountered and returning the process exit code.
func runFile(path string, sampleRate float64, renderer env.Renderer) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sona: %v\n", err)
		return 1
	}

	lex := lexer.New(string(source))
	tokens := lex.ScanTokens()
	if len(lex.Errors) > 0 {
		report(lex.Errors, string(source))
		return 1
	}

	p := ast.NewParser(tokens)
	stmts := p.Parse()
	if len(p.Errors) > 0 {
		report(p.Errors, string(source))
		return 1
	}

	e := env.New(sampleRate, env.NewPrinter(os.Stdout, nil), renderer)
	if errs := e.Run(stmts); len(errs) > 0 {
		report(errs, string(source))
		return 1
	}
	return 0
}

func report(errs []*diag.Error, source string) {
	lines := strings.Split(source, "\n")
	for _, e := range errs {
		if n := e.Primary.Start.Line; n >= 1 && n <= len(lines) {
			e = e.WithSource(lines[n-1])
		}
		fmt.Fprint(os.Stderr, e.Error())
	}
}

func showUsage() {
	fmt.Println(`sona - an audio signal description language

Usage:
  sona <file.sona>   run a source file
  sona               start the interactive REPL

Environment:
  SONA_SAMPLE_RATE   sample rate used by write(), default 44100
  SONA_HISTORY_PATH  REPL history database path, default ~/.sona_history.db`)
}
