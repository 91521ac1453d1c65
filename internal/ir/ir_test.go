package ir

import (
	"math"
	"testing"

	"sona/internal/cell"
	"sona/internal/ctrl"
	"sona/internal/sound"
)

func TestRealLitAndRef(t *testing.T) {
	if got := (RealLit{V: 4.5}).EvalReal(); got != 4.5 {
		t.Errorf("RealLit.EvalReal() = %v, want 4.5", got)
	}
	c := cell.NewWith(2.0)
	c.Set(9.0)
	if got := (RealRef{Cell: c}).EvalReal(); got != 9.0 {
		t.Errorf("RealRef.EvalReal() = %v, want 9", got)
	}
}

func TestRealArithmetic(t *testing.T) {
	add := RealBinary{Fn: func(a, b float64) float64 { return a + b }, L: RealLit{V: 2}, R: RealLit{V: 3}}
	if got := add.EvalReal(); got != 5 {
		t.Errorf("RealBinary add = %v, want 5", got)
	}
	neg := RealUnary{Fn: func(a float64) float64 { return -a }, X: RealLit{V: 7}}
	if got := neg.EvalReal(); got != -7 {
		t.Errorf("RealUnary negate = %v, want -7", got)
	}
}

func TestBoolLogic(t *testing.T) {
	truth := BoolLit{V: true}
	falsehood := BoolLit{V: false}

	if got := (BoolAnd{L: truth, R: falsehood}).EvalBool(); got != false {
		t.Errorf("true && false = %v, want false", got)
	}
	if got := (BoolOr{L: truth, R: falsehood}).EvalBool(); got != true {
		t.Errorf("true || false = %v, want true", got)
	}
	if got := (BoolNot{X: truth}).EvalBool(); got != false {
		t.Errorf("!true = %v, want false", got)
	}
}

// TestBoolAndShortCircuits verifies R is never evaluated once L already
// decides an And/Or result, matching Go's && / || semantics the nodes
// are built on.
func TestBoolAndShortCircuits(t *testing.T) {
	evaluated := false
	sideEffect := boolFn(func() bool { evaluated = true; return true })

	and := BoolAnd{L: BoolLit{V: false}, R: sideEffect}
	if and.EvalBool() {
		t.Fatalf("false && x = true, want false")
	}
	if evaluated {
		t.Errorf("BoolAnd evaluated R after L was false")
	}

	or := BoolOr{L: BoolLit{V: true}, R: sideEffect}
	if !or.EvalBool() {
		t.Fatalf("true || x = false, want true")
	}
	if evaluated {
		t.Errorf("BoolOr evaluated R after L was true")
	}
}

type boolFn func() bool

func (f boolFn) EvalBool() bool { return f() }

func TestRealCompare(t *testing.T) {
	lt := RealCompare{Fn: func(a, b float64) bool { return a < b }, L: RealLit{V: 1}, R: RealLit{V: 2}}
	if !lt.EvalBool() {
		t.Errorf("1 < 2 = false, want true")
	}
}

func TestStringConcat(t *testing.T) {
	v := StringConcat{L: StringLit{V: "foo"}, R: StringLit{V: "bar"}}
	if got := v.EvalString(); got != "foobar" {
		t.Errorf("StringConcat = %q, want %q", got, "foobar")
	}
}

func TestSoundPromoteLiftsConstant(t *testing.T) {
	promoted := SoundPromote{X: RealLit{V: 3}}
	v := promoted.EvalSound()
	c, ok := v.(sound.Const)
	if !ok {
		t.Fatalf("SoundPromote.EvalSound() returned %T, want sound.Const", v)
	}
	if c.V != 3 {
		t.Errorf("promoted constant = %v, want 3", c.V)
	}
}

func TestSoundShiftLeftAndRight(t *testing.T) {
	base := SoundLit{V: sound.Linear{A: 1, B: 0}}

	left := SoundShiftLeft{X: base, Delta: RealLit{V: 2}}
	leftVal := left.EvalSound()
	if got, want := leftVal.At(0), base.V.At(2); !approxEq(got, want) {
		t.Errorf("<< shift: At(0) = %v, want %v", got, want)
	}

	right := SoundShiftRight{X: base, Delta: RealLit{V: 2}}
	rightVal := right.EvalSound()
	if got, want := rightVal.At(0), base.V.At(-2); !approxEq(got, want) {
		t.Errorf(">> shift: At(0) = %v, want %v", got, want)
	}
}

func approxEq(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestBlockStopsOnError(t *testing.T) {
	ran := []int{}
	ok := stmtFn(func() (ctrl.Signal, error) { ran = append(ran, 1); return ctrl.Normally, nil })
	bad := stmtFn(func() (ctrl.Signal, error) { ran = append(ran, 2); return ctrl.Normally, errBoom })
	after := stmtFn(func() (ctrl.Signal, error) { ran = append(ran, 3); return ctrl.Normally, nil })

	block := Block{Stmts: []Stmt{ok, bad, after}}
	_, err := block.Exec()
	if err != errBoom {
		t.Fatalf("Block.Exec() error = %v, want errBoom", err)
	}
	if len(ran) != 2 {
		t.Fatalf("Block ran %d statements after error, want to stop at 2: %v", len(ran), ran)
	}
}

func TestBlockPropagatesReturnWithoutRunningRest(t *testing.T) {
	ran := []int{}
	first := stmtFn(func() (ctrl.Signal, error) { ran = append(ran, 1); return ctrl.ReturnReal(9), nil })
	second := stmtFn(func() (ctrl.Signal, error) { ran = append(ran, 2); return ctrl.Normally, nil })

	block := Block{Stmts: []Stmt{first, second}}
	sig, err := block.Exec()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig.Kind != ctrl.Return || sig.Value.Real != 9 {
		t.Fatalf("Block.Exec() signal = %+v, want Return(9)", sig)
	}
	if len(ran) != 1 {
		t.Fatalf("Block ran past a Return signal: %v", ran)
	}
}

type stmtFn func() (ctrl.Signal, error)

func (f stmtFn) Exec() (ctrl.Signal, error) { return f() }

var errBoom = boomError{}

type boomError struct{}

func (boomError) Error() string { return "boom" }

func TestWhileConsumesBreakAndContinue(t *testing.T) {
	i := cell.NewWith(0.0)
	cond := RealCompare{Fn: func(a, b float64) bool { return a < b }, L: RealRef{Cell: i}, R: RealLit{V: 5}}

	var iterations int
	body := stmtFn(func() (ctrl.Signal, error) {
		i.Set(i.Get() + 1)
		iterations++
		if i.Get() == 1 {
			return ctrl.ContinueSignal, nil
		}
		if i.Get() == 3 {
			return ctrl.BreakSignal, nil
		}
		return ctrl.Normally, nil
	})

	w := While{Cond: cond, Body: body}
	sig, err := w.Exec()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig.Kind != ctrl.Normal {
		t.Fatalf("While.Exec() after break signal = %+v, want Normal", sig)
	}
	if iterations != 3 {
		t.Fatalf("loop ran %d iterations, want to stop at break (3)", iterations)
	}
}

func TestWhilePropagatesReturn(t *testing.T) {
	body := stmtFn(func() (ctrl.Signal, error) { return ctrl.ReturnBool(true), nil })
	w := While{Cond: BoolLit{V: true}, Body: body}
	sig, err := w.Exec()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig.Kind != ctrl.Return {
		t.Fatalf("While.Exec() signal = %+v, want Return to propagate out", sig)
	}
}

func TestIfBranches(t *testing.T) {
	thenRan := false
	elseRan := false
	then := stmtFn(func() (ctrl.Signal, error) { thenRan = true; return ctrl.Normally, nil })
	els := stmtFn(func() (ctrl.Signal, error) { elseRan = true; return ctrl.Normally, nil })

	If{Cond: BoolLit{V: true}, Then: then, Else: els}.Exec()
	if !thenRan || elseRan {
		t.Errorf("If(true): thenRan=%v elseRan=%v, want true/false", thenRan, elseRan)
	}

	thenRan, elseRan = false, false
	If{Cond: BoolLit{V: false}, Then: then, Else: els}.Exec()
	if thenRan || !elseRan {
		t.Errorf("If(false): thenRan=%v elseRan=%v, want false/true", thenRan, elseRan)
	}
}

func TestAssignAndExprStmts(t *testing.T) {
	c := cell.NewWith(0.0)
	AssignReal{Cell: c, Expr: RealLit{V: 42}}.Exec()
	if c.Get() != 42 {
		t.Errorf("AssignReal: cell = %v, want 42", c.Get())
	}

	sc := cell.NewWith[sound.Value](sound.Silence)
	AssignSound{Cell: sc, Expr: SoundLit{V: sound.Const{V: 1}}}.Exec()
	if got := sc.Get().At(0); got != 1 {
		t.Errorf("AssignSound: At(0) = %v, want 1", got)
	}

	sig, err := (ExprStmtReal{Expr: RealLit{V: 1}}).Exec()
	if err != nil || sig.Kind != ctrl.Normal {
		t.Errorf("ExprStmtReal.Exec() = %+v, %v, want Normal, nil", sig, err)
	}
}

func TestExprStmtVoidPropagatesError(t *testing.T) {
	v := ExprStmtVoid{Expr: voidFn(func() error { return errBoom })}
	sig, err := v.Exec()
	if err != errBoom {
		t.Errorf("ExprStmtVoid.Exec() error = %v, want errBoom", err)
	}
	if sig.Kind != ctrl.Normal {
		t.Errorf("ExprStmtVoid.Exec() signal = %+v, want Normal even on error", sig)
	}
}

type voidFn func() error

func (f voidFn) EvalVoid() error { return f() }

func TestReturnStmts(t *testing.T) {
	sig, _ := (ReturnReal{Expr: RealLit{V: 1}}).Exec()
	if sig.Kind != ctrl.Return || sig.Value.Type != cell.Real || sig.Value.Real != 1 {
		t.Errorf("ReturnReal.Exec() = %+v, want Return(real,1)", sig)
	}

	sig, _ = (ReturnBool{Expr: BoolLit{V: true}}).Exec()
	if sig.Kind != ctrl.Return || !sig.Value.Bool {
		t.Errorf("ReturnBool.Exec() = %+v, want Return(bool,true)", sig)
	}

	sig, _ = (ReturnString{Expr: StringLit{V: "hi"}}).Exec()
	if sig.Kind != ctrl.Return || sig.Value.String != "hi" {
		t.Errorf("ReturnString.Exec() = %+v, want Return(string,hi)", sig)
	}

	sig, _ = ReturnVoidStmt{}.Exec()
	if sig.Kind != ctrl.Return || sig != ctrl.ReturnVoid {
		t.Errorf("ReturnVoidStmt.Exec() = %+v, want ctrl.ReturnVoid", sig)
	}
}

func TestBreakAndContinueSignals(t *testing.T) {
	sig, _ := BreakStmt{}.Exec()
	if sig.Kind != ctrl.Break {
		t.Errorf("BreakStmt.Exec() = %+v, want Break", sig)
	}
	sig, _ = ContinueStmt{}.Exec()
	if sig.Kind != ctrl.Continue {
		t.Errorf("ContinueStmt.Exec() = %+v, want Continue", sig)
	}
}
