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

// Compile lowers a whole program: a first pass registers every top-level
// fn declaration's signature (so mutual recursion and forward references
// both resolve), a second pass compiles each fn body and every non-fn
// top-level statement in source order.
func (c *Compiler) Compile(stmts []ast.Stmt) ([]ir.Stmt, []*diag.Error) {
	c.Errors = nil
	decls := make([]*ast.FnDecl, 0)
	for _, s := range stmts {
		if fd, ok := s.(*ast.FnDecl); ok {
			_, existed := c.Functions[fd.Name]
			c.declareFn(fd)
			if !existed {
				decls = append(decls, fd)
			}
		}
	}
	for _, fd := range decls {
		c.defineFn(fd)
	}

	out := make([]ir.Stmt, 0, len(stmts))
	for _, s := range stmts {
		if _, ok := s.(*ast.FnDecl); ok {
			continue
		}
		out = append(out, c.compileStmt(s))
	}
	return out, c.Errors
}

func (c *Compiler) compileStmt(s ast.Stmt) ir.Stmt {
	result := s.Accept(c)
	st, ok := result.(ir.Stmt)
	if !ok {
		return ir.Block{}
	}
	return st
}

func (c *Compiler) VisitExprStmt(s *ast.ExprStmt) interface{} {
	t := c.compileExpr(s.Expr)
	switch {
	case t.Kind == cell.Void:
		return ir.ExprStmtVoid{Expr: t.Void}
	case t.Kind == cell.Real:
		return ir.ExprStmtReal{Expr: t.Real}
	case t.Kind == cell.Bool:
		return ir.ExprStmtBool{Expr: t.Bool}
	case t.Kind == cell.String:
		return ir.ExprStmtString{Expr: t.String}
	default:
		return ir.ExprStmtSound{Expr: t.Sound}
	}
}

// VisitDecl allocates a fresh cell for `let name = expr;`, typed by
// expr's own compiled type, and binds it into the current scope —
// shadowing any outer binding of the same name for the rest of this
// block.
func (c *Compiler) VisitDecl(s *ast.Decl) interface{} {
	t := c.compileExpr(s.Expr)
	if t.Kind == cell.Void {
		c.errorf(s.Rng, diag.KindType, "cannot declare %q from a void expression", s.Name)
		return ir.Block{}
	}
	switch t.Kind {
	case cell.Real:
		cl := cell.New[float64]()
		c.scope[s.Name] = handle.Real{Cell: cl}
		return ir.AssignReal{Cell: cl, Expr: t.Real}
	case cell.Bool:
		cl := cell.New[bool]()
		c.scope[s.Name] = handle.Bool{Cell: cl}
		return ir.AssignBool{Cell: cl, Expr: t.Bool}
	case cell.String:
		cl := cell.New[string]()
		c.scope[s.Name] = handle.String{Cell: cl}
		return ir.AssignString{Cell: cl, Expr: t.String}
	default:
		cl := cell.NewWith[sound.Value](sound.Silence)
		c.scope[s.Name] = handle.Sound{Cell: cl}
		return ir.AssignSound{Cell: cl, Expr: t.Sound}
	}
}

// VisitAssign writes an existing cell; the right-hand side must match
// the variable's declared type exactly (no promotion on assignment,
// unlike call arguments and arithmetic operands).
func (c *Compiler) VisitAssign(s *ast.Assign) interface{} {
	h, ok := c.scope[s.Name]
	if !ok {
		c.errorf(s.Rng, diag.KindUndefined, "undefined variable %q", s.Name)
		return ir.Block{}
	}
	t := c.compileExpr(s.Expr)
	switch hv := h.(type) {
	case handle.Real:
		r, ok := t.asReal()
		if !ok {
			c.errorf(s.Rng, diag.KindAssign, "cannot assign %s to real variable %q", t.kindName(), s.Name)
			return ir.Block{}
		}
		return ir.AssignReal{Cell: hv.Cell, Expr: r}
	case handle.Bool:
		b, ok := t.asBool()
		if !ok {
			c.errorf(s.Rng, diag.KindAssign, "cannot assign %s to bool variable %q", t.kindName(), s.Name)
			return ir.Block{}
		}
		return ir.AssignBool{Cell: hv.Cell, Expr: b}
	case handle.String:
		str, ok := t.asString()
		if !ok {
			c.errorf(s.Rng, diag.KindAssign, "cannot assign %s to string variable %q", t.kindName(), s.Name)
			return ir.Block{}
		}
		return ir.AssignString{Cell: hv.Cell, Expr: str}
	case handle.Sound:
		if t.Kind != cell.Sound {
			c.errorf(s.Rng, diag.KindAssign, "cannot assign %s to sound variable %q", t.kindName(), s.Name)
			return ir.Block{}
		}
		return ir.AssignSound{Cell: hv.Cell, Expr: t.Sound}
	}
	return ir.Block{}
}

// VisitBlock clones the enclosing scope on entry and discards the clone
// on exit, so declarations made inside never leak out.
func (c *Compiler) VisitBlock(s *ast.Block) interface{} {
	return c.compileBlock(s)
}

func (c *Compiler) compileBlock(s *ast.Block) ir.Block {
	saved := c.scope
	c.scope = saved.clone()
	stmts := make([]ir.Stmt, 0, len(s.Stmts))
	for _, st := range s.Stmts {
		stmts = append(stmts, c.compileStmt(st))
	}
	c.scope = saved
	return ir.Block{Stmts: stmts}
}

func (c *Compiler) VisitIf(s *ast.If) interface{} {
	t := c.compileExpr(s.Cond)
	cond, ok := t.asBool()
	if !ok {
		c.errorf(s.Cond.Range(), diag.KindType, "if condition must be bool, got %s", t.kindName())
		cond = ir.BoolLit{V: false}
	}
	then := c.compileBlock(s.Then)
	var els ir.Stmt
	if s.Else != nil {
		b := c.compileBlock(s.Else)
		els = b
	}
	return ir.If{Cond: cond, Then: then, Else: els}
}

func (c *Compiler) VisitWhile(s *ast.While) interface{} {
	t := c.compileExpr(s.Cond)
	cond, ok := t.asBool()
	if !ok {
		c.errorf(s.Cond.Range(), diag.KindType, "while condition must be bool, got %s", t.kindName())
		cond = ir.BoolLit{V: false}
	}
	body := c.compileBlock(s.Body)
	return ir.While{Cond: cond, Body: body}
}

func (c *Compiler) VisitBreak(s *ast.Break) interface{}    { return ir.BreakStmt{} }
func (c *Compiler) VisitContinue(s *ast.Continue) interface{} { return ir.ContinueStmt{} }

func (c *Compiler) VisitReturn(s *ast.Return) interface{} {
	if !c.inFunctionSet {
		c.errorf(s.Rng, diag.KindControl, "'return' outside a function body")
		return ir.Block{}
	}
	if s.Value == nil {
		if c.inFunction != function.KVoid {
			c.errorf(s.Rng, diag.KindType, "function must return a value")
			return ir.Block{}
		}
		return ir.ReturnVoidStmt{}
	}
	t := c.compileExpr(s.Value)
	switch c.inFunction {
	case function.KReal:
		r, ok := t.asReal()
		if !ok {
			c.errorf(s.Rng, diag.KindType, "function returns real, got %s", t.kindName())
			return ir.Block{}
		}
		return ir.ReturnReal{Expr: r}
	case function.KBool:
		b, ok := t.asBool()
		if !ok {
			c.errorf(s.Rng, diag.KindType, "function returns bool, got %s", t.kindName())
			return ir.Block{}
		}
		return ir.ReturnBool{Expr: b}
	case function.KString:
		str, ok := t.asString()
		if !ok {
			c.errorf(s.Rng, diag.KindType, "function returns string, got %s", t.kindName())
			return ir.Block{}
		}
		return ir.ReturnString{Expr: str}
	case function.KSound:
		snd, ok := t.asSound()
		if !ok {
			c.errorf(s.Rng, diag.KindType, "function returns sound, got %s", t.kindName())
			return ir.Block{}
		}
		return ir.ReturnSound{Expr: snd}
	default:
		c.errorf(s.Rng, diag.KindType, "void function cannot return a value")
		return ir.Block{}
	}
}
