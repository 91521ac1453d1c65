package compiler

import (
	"testing"

	"sona/internal/ast"
	"sona/internal/diag"
	"sona/internal/function"
	"sona/internal/ir"
	"sona/internal/lexer"
	"sona/internal/sound"
)

// recordingPrinter satisfies ir.Printer without any terminal or file
// dependency, for tests that only care what was printed.
type recordingPrinter struct {
	reals   []float64
	bools   []bool
	strings []string
	sounds  []sound.Value
}

func (p *recordingPrinter) PrintReal(v float64)      { p.reals = append(p.reals, v) }
func (p *recordingPrinter) PrintBool(v bool)         { p.bools = append(p.bools, v) }
func (p *recordingPrinter) PrintString(v string)     { p.strings = append(p.strings, v) }
func (p *recordingPrinter) PlaySound(v sound.Value)  { p.sounds = append(p.sounds, v) }

func parse(t *testing.T, src string) []ast.Stmt {
	t.Helper()
	lex := lexer.New(src)
	tokens := lex.ScanTokens()
	if len(lex.Errors) > 0 {
		t.Fatalf("lex error compiling %q: %v", src, lex.Errors[0])
	}
	p := ast.NewParser(tokens)
	stmts := p.Parse()
	if len(p.Errors) > 0 {
		t.Fatalf("parse error compiling %q: %v", src, p.Errors[0])
	}
	return stmts
}

func compile(t *testing.T, src string) ([]ir.Stmt, []*diag.Error, *recordingPrinter) {
	t.Helper()
	stmts := parse(t, src)
	printer := &recordingPrinter{}
	c := New(map[string]*function.Function{}, printer)
	compiled, errs := c.Compile(stmts)
	return compiled, errs, printer
}

func TestCompileScalarArithmetic(t *testing.T) {
	compiled, errs, printer := compile(t, `let x = 2 + 3 * 4; x?;`)
	if len(errs) != 0 {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
	block := ir.Block{Stmts: compiled}
	if _, err := block.Exec(); err != nil {
		t.Fatalf("unexpected exec error: %v", err)
	}
	if len(printer.reals) != 1 || printer.reals[0] != 14 {
		t.Fatalf("printed reals = %v, want [14]", printer.reals)
	}
}

func TestCompileUndefinedVariable(t *testing.T) {
	_, errs, _ := compile(t, `x?;`)
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
	}
	if errs[0].Kind != diag.KindUndefined {
		t.Errorf("error kind = %v, want %v", errs[0].Kind, diag.KindUndefined)
	}
}

func TestCompileUndefinedFunction(t *testing.T) {
	_, errs, _ := compile(t, `let x = nope(1);`)
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
	}
	if errs[0].Kind != diag.KindUndefined {
		t.Errorf("error kind = %v, want %v", errs[0].Kind, diag.KindUndefined)
	}
}

func TestCompileConditionTypeMismatch(t *testing.T) {
	_, errs, _ := compile(t, `if (1) { let x = 1; }`)
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
	}
	if errs[0].Kind != diag.KindType {
		t.Errorf("error kind = %v, want %v", errs[0].Kind, diag.KindType)
	}
}

func TestCompileReturnOutsideFunction(t *testing.T) {
	_, errs, _ := compile(t, `return 1;`)
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
	}
	if errs[0].Kind != diag.KindControl {
		t.Errorf("error kind = %v, want %v", errs[0].Kind, diag.KindControl)
	}
}

// TestAssignmentToNonIdentifierIsRejectedAtParseTime documents that this
// grammar only ever builds an Assign node from an identifier token
// immediately followed by '=' (see ast.Parser.statement), so "1 = 2;"
// never reaches the compiler as an assignment at all — it is rejected
// earlier, at parse time, once the parser expects a ';' and finds '='.
func TestAssignmentToNonIdentifierIsRejectedAtParseTime(t *testing.T) {
	lex := lexer.New(`1 = 2;`)
	tokens := lex.ScanTokens()
	if len(lex.Errors) > 0 {
		t.Fatalf("unexpected lex errors: %v", lex.Errors)
	}
	p := ast.NewParser(tokens)
	p.Parse()
	if len(p.Errors) == 0 {
		t.Fatalf("expected a parse error for '1 = 2;', got none")
	}
}

func TestCompileFunctionArityMismatch(t *testing.T) {
	_, errs, _ := compile(t, `fn add(a: real, b: real) -> real { return a + b; } let x = add(1);`)
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
	}
	if errs[0].Kind != diag.KindArity {
		t.Errorf("error kind = %v, want %v", errs[0].Kind, diag.KindArity)
	}
}

func TestCompileUserFunctionRecursionSafeIdiom(t *testing.T) {
	compiled, errs, printer := compile(t, `
fn countdown(n: real) -> real {
    if (n < 1) {
        return 0;
    }
    return n + countdown(n - 1);
}
let x = countdown(3);
x?;
`)
	if len(errs) != 0 {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
	block := ir.Block{Stmts: compiled}
	if _, err := block.Exec(); err != nil {
		t.Fatalf("unexpected exec error: %v", err)
	}
	// 3 + (2 + (1 + 0)) = 6
	if len(printer.reals) != 1 || printer.reals[0] != 6 {
		t.Fatalf("printed reals = %v, want [6]", printer.reals)
	}
}

func TestCompileRealOperandPromotesToSound(t *testing.T) {
	linear, _, _ := function.LinearGen()
	c := New(map[string]*function.Function{"Linear": linear}, &recordingPrinter{})
	_, errs := c.Compile(parse(t, `let s = Linear(1, 2) + 3;`))
	if len(errs) != 0 {
		t.Fatalf("unexpected compile errors promoting real into sound binary: %v", errs)
	}
}

func TestCompileNamedArgumentDefaultsAndOverride(t *testing.T) {
	_, errs, _ := compile(t, `fn scaled(x: real; by: real = 2) -> real { return x * by; } let a = scaled(5); let b = scaled(5, by = 3);`)
	if len(errs) != 0 {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
}

func TestCompileUnusedNamedArgumentIsError(t *testing.T) {
	_, errs, _ := compile(t, `fn f(x: real) -> real { return x; } let a = f(1, bogus = 2);`)
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
	}
	if errs[0].Kind != diag.KindArity {
		t.Errorf("error kind = %v, want %v", errs[0].Kind, diag.KindArity)
	}
}
