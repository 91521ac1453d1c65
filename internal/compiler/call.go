package compiler

import (
	"sona/internal/ast"
	"sona/internal/cell"
	"sona/internal/diag"
	"sona/internal/function"
	"sona/internal/handle"
	"sona/internal/ir"
	"sona/internal/sound"
)

func (c *Compiler) VisitCall(e *ast.Call) interface{} {
	fn, ok := c.Functions[e.Callee]
	if !ok {
		c.errorf(e.Rng, diag.KindUndefined, "undefined function %q", e.Callee)
		return typedReal(ir.RealLit{V: 0})
	}
	if len(e.Args) != len(fn.Positional) {
		c.errorf(e.Rng, diag.KindArity, "%q expects %d positional argument(s), got %d", e.Callee, len(fn.Positional), len(e.Args))
		return c.zeroOf(fn.ReturnKind)
	}

	var args ir.Args
	var lifted []liftArg

	for i, argExpr := range e.Args {
		param := fn.Positional[i]
		t := c.compileExpr(argExpr)
		c.bindParam(e.Rng, fn, param.Name, param.Handle, t, &args, &lifted)
	}

	seen := make(map[string]bool, len(e.NamedArgs))
	for _, na := range e.NamedArgs {
		np, ok := fn.FindNamed(na.Name)
		if !ok {
			c.errorf(e.Rng, diag.KindArity, "%q has no named parameter %q", e.Callee, na.Name)
			continue
		}
		seen[na.Name] = true
		t := c.compileExpr(na.Value)
		c.bindParam(e.Rng, fn, np.Name, np.Handle, t, &args, &lifted)
	}
	for _, np := range fn.Named {
		if seen[np.Name] {
			continue
		}
		c.bindDefault(np, &args)
	}

	if len(lifted) > 0 {
		if fn.ReturnKind != function.KReal {
			c.errorf(e.Rng, diag.KindType, "%q cannot accept a sound argument: only a real-returning function can be lifted", e.Callee)
			return c.zeroOf(fn.ReturnKind)
		}
		return typedSound(liftCall{Fn: fn, Args: args, Lifted: lifted})
	}

	switch fn.ReturnKind {
	case function.KReal:
		return typedReal(ir.RealInvoke{Fn: fn, Args: args})
	case function.KBool:
		return typedBool(ir.BoolInvoke{Fn: fn, Args: args})
	case function.KString:
		return typedString(ir.StringInvoke{Fn: fn, Args: args})
	case function.KSound:
		return typedSound(ir.SoundInvoke{Fn: fn, Args: args})
	default:
		return typedVoid(ir.VoidInvoke{Fn: fn, Args: args, Range: e.Rng})
	}
}

// bindParam resolves one argument against one parameter slot, handling
// the three admissible shapes: an exact type match, a Real argument
// promoted into a Sound slot, or a Sound argument lifted into a Real
// slot (collected into lifted rather than args, since a lifted binding
// is resampled every sample instead of bound once).
func (c *Compiler) bindParam(rng diag.Range, fn *function.Function, name string, h handle.Handle, t typed, args *ir.Args, lifted *[]liftArg) {
	switch hv := h.(type) {
	case handle.Real:
		switch t.Kind {
		case cell.Real:
			r, _ := t.asReal()
			args.Real = append(args.Real, ir.RealArg{Cell: hv.Cell, Expr: r})
		case cell.Sound:
			s, _ := t.asSound()
			*lifted = append(*lifted, liftArg{Cell: hv.Cell, Expr: s})
		default:
			c.errorf(rng, diag.KindType, "%q: parameter %q expects real or sound, got %s", fn.Name, name, t.kindName())
		}
	case handle.Bool:
		b, ok := t.asBool()
		if !ok {
			c.errorf(rng, diag.KindType, "%q: parameter %q expects bool, got %s", fn.Name, name, t.kindName())
			return
		}
		args.Bool = append(args.Bool, ir.BoolArg{Cell: hv.Cell, Expr: b})
	case handle.String:
		s, ok := t.asString()
		if !ok {
			c.errorf(rng, diag.KindType, "%q: parameter %q expects string, got %s", fn.Name, name, t.kindName())
			return
		}
		args.String = append(args.String, ir.StringArg{Cell: hv.Cell, Expr: s})
	case handle.Sound:
		s, ok := t.asSound()
		if !ok {
			c.errorf(rng, diag.KindType, "%q: parameter %q expects real or sound, got %s", fn.Name, name, t.kindName())
			return
		}
		args.Sound = append(args.Sound, ir.SoundArg{Cell: hv.Cell, Expr: s})
	}
}

// liftArg pairs a Real parameter cell with the Sound argument lifted
// into it; liftCall builds each argument's graph when the call is
// evaluated and hands the bindings to ir.SoundLift.
type liftArg struct {
	Cell *cell.Cell[float64]
	Expr ir.SoundExpr
}

type liftCall struct {
	Fn     *function.Function
	Args   ir.Args
	Lifted []liftArg
}

func (n liftCall) EvalSound() sound.Value {
	b := make([]sound.Binding, len(n.Lifted))
	for i, l := range n.Lifted {
		b[i] = sound.Binding{Cell: l.Cell, Sound: l.Expr.EvalSound()}
	}
	return ir.SoundLift{Fn: n.Fn, Args: n.Args, Bindings: b}.EvalSound()
}

func (c *Compiler) bindDefault(np function.NamedParam, args *ir.Args) {
	switch hv := np.Handle.(type) {
	case handle.Real:
		args.Real = append(args.Real, ir.RealArg{Cell: hv.Cell, Expr: ir.RealLit{V: np.Default.Real}})
	case handle.Bool:
		args.Bool = append(args.Bool, ir.BoolArg{Cell: hv.Cell, Expr: ir.BoolLit{V: np.Default.Bool}})
	case handle.String:
		args.String = append(args.String, ir.StringArg{Cell: hv.Cell, Expr: ir.StringLit{V: np.Default.String}})
	case handle.Sound:
		def := np.Default.Sound
		if def == nil {
			def = sound.Silence
		}
		args.Sound = append(args.Sound, ir.SoundArg{Cell: hv.Cell, Expr: ir.SoundLit{V: def}})
	}
}

func (c *Compiler) zeroOf(k function.Kind) typed {
	switch k {
	case function.KReal:
		return typedReal(ir.RealLit{V: 0})
	case function.KBool:
		return typedBool(ir.BoolLit{V: false})
	case function.KString:
		return typedString(ir.StringLit{V: ""})
	case function.KSound:
		return typedSound(ir.SoundPromote{X: ir.RealLit{V: 0}})
	default:
		return typedVoid(ir.VoidInvoke{})
	}
}
