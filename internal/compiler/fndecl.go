package compiler

import (
	"sona/internal/ast"
	"sona/internal/ctrl"
	"sona/internal/diag"
	"sona/internal/function"
	"sona/internal/handle"
	"sona/internal/ir"
	"sona/internal/sound"
)

func returnKindOf(typeName string) function.Kind {
	switch typeName {
	case "real":
		return function.KReal
	case "bool":
		return function.KBool
	case "string":
		return function.KString
	case "sound":
		return function.KSound
	default:
		return function.KVoid
	}
}

func newHandleFor(typeName string) handle.Handle {
	switch typeName {
	case "real":
		return handle.NewReal()
	case "bool":
		return handle.NewBool()
	case "string":
		return handle.NewString()
	default:
		return handle.NewSound()
	}
}

// VisitFnDecl is reached only for a fn declaration nested inside a
// block: Compile handles top-level ones through declareFn/defineFn
// before ordinary statement compilation. A nested declaration compiles
// to an empty block and registers no function.
func (c *Compiler) VisitFnDecl(s *ast.FnDecl) interface{} { return ir.Block{} }

// declareFn registers name, parameter handles and return kind so calls
// appearing anywhere in the program — including inside this function's
// own body, for recursion — resolve against a fully-shaped signature
// before any body is compiled.
func (c *Compiler) declareFn(fd *ast.FnDecl) {
	if _, exists := c.Functions[fd.Name]; exists {
		c.errorf(fd.Rng, diag.KindAssign, "function %q already defined", fd.Name)
		return
	}
	fn := &function.Function{
		Name:       fd.Name,
		ReturnKind: returnKindOf(fd.ReturnType),
	}
	for _, p := range fd.Positional {
		fn.Positional = append(fn.Positional, function.Param{Name: p.Name, Handle: newHandleFor(p.Type)})
	}
	for _, np := range fd.Named {
		fn.Named = append(fn.Named, function.NamedParam{Name: np.Name, Handle: newHandleFor(np.Type)})
	}
	c.Functions[fd.Name] = fn
}

// defineFn compiles fd's body in a fresh scope containing only its own
// parameter cells, then fills in the Function's Body closures. Named
// parameter defaults are compiled in that same empty-of-locals scope,
// since a default expression cannot reference another parameter.
func (c *Compiler) defineFn(fd *ast.FnDecl) {
	fn, ok := c.Functions[fd.Name]
	if !ok {
		return // not declared
	}

	savedScope, savedIn, savedInSet := c.scope, c.inFunction, c.inFunctionSet
	c.scope = scope{}
	c.inFunction, c.inFunctionSet = fn.ReturnKind, true

	for i, p := range fd.Positional {
		c.scope[p.Name] = fn.Positional[i].Handle
	}
	for i, np := range fd.Named {
		c.scope[np.Name] = fn.Named[i].Handle
		if np.Default != nil {
			d := c.compileExpr(np.Default)
			fn.Named[i].Default = defaultFrom(fn.Named[i].Handle, d)
		}
	}

	body := c.compileBlock(fd.Body)
	fn.Body = bodyFromBlock(fn.ReturnKind, body)

	c.scope, c.inFunction, c.inFunctionSet = savedScope, savedIn, savedInSet
}

// defaultFrom evaluates a constant default expression once, at compile
// time, into the plain Go value function.Default holds — a named
// parameter's default never needs to be re-evaluated per call.
func defaultFrom(h handle.Handle, d typed) function.Default {
	switch h.(type) {
	case handle.Real:
		if r, ok := d.asReal(); ok {
			return function.Default{Real: r.EvalReal()}
		}
	case handle.Bool:
		if b, ok := d.asBool(); ok {
			return function.Default{Bool: b.EvalBool()}
		}
	case handle.String:
		if s, ok := d.asString(); ok {
			return function.Default{String: s.EvalString()}
		}
	case handle.Sound:
		if s, ok := d.asSound(); ok {
			return function.Default{Sound: s.EvalSound()}
		}
	}
	return function.Default{}
}

// bodyFromBlock adapts a compiled ir.Block into the typed Run* closure
// the function table expects: run the whole body, and if it completes
// without hitting Return, fall through to the family's zero value
// (0 / false / "" / Silence) rather than performing reachability
// analysis over the statement tree.
func bodyFromBlock(k function.Kind, body ir.Block) function.Body {
	switch k {
	case function.KReal:
		return function.Body{RunReal: func() (float64, ctrl.Signal, error) {
			sig, err := body.Exec()
			if err != nil {
				return 0, sig, err
			}
			if sig.Kind == ctrl.Return {
				return sig.Value.Real, sig, nil
			}
			return 0, sig, nil
		}}
	case function.KBool:
		return function.Body{RunBool: func() (bool, ctrl.Signal, error) {
			sig, err := body.Exec()
			if err != nil {
				return false, sig, err
			}
			if sig.Kind == ctrl.Return {
				return sig.Value.Bool, sig, nil
			}
			return false, sig, nil
		}}
	case function.KString:
		return function.Body{RunString: func() (string, ctrl.Signal, error) {
			sig, err := body.Exec()
			if err != nil {
				return "", sig, err
			}
			if sig.Kind == ctrl.Return {
				return sig.Value.String, sig, nil
			}
			return "", sig, nil
		}}
	case function.KSound:
		return function.Body{RunSound: func() (sound.Value, ctrl.Signal, error) {
			sig, err := body.Exec()
			if err != nil {
				return sound.Silence, sig, err
			}
			if sig.Kind == ctrl.Return {
				return sig.Value.Sound, sig, nil
			}
			return sound.Silence, sig, nil
		}}
	default:
		return function.Body{RunVoid: func() (ctrl.Signal, error) {
			return body.Exec()
		}}
	}
}
