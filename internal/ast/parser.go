package ast

import (
	"strconv"
	"strings"

	"sona/internal/diag"
	"sona/internal/token"
)

// precedence gives the binding power of each left-associative binary
// operator; higher binds tighter. Operators absent from this table are
// not binary infix operators.
var precedence = map[token.Kind]int{
	token.KindOrOr:   1,
	token.KindAndAnd: 2,
	token.KindEqEq:   3,
	token.KindNe:     3,
	token.KindLt:     3,
	token.KindGt:     3,
	token.KindShl:    4,
	token.KindShr:    4,
	token.KindPlus:   5,
	token.KindMinus:  5,
	token.KindStar:   6,
	token.KindSlash:  6,
	token.KindPercent: 6,
	token.KindCaret:  7,
}

// Parser is a recursive-descent, precedence-climbing parser over the
// token stream produced by internal/lexer.
type Parser struct {
	tokens  []token.Token
	current int
	Errors  []*diag.Error
}

func NewParser(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse consumes the whole token stream and returns the top-level
// statement list. Parse errors are recorded in Errors and parsing goes
// on from the token where the error was found; there is no
// resynchronisation to a statement boundary, so one mistake can produce
// several follow-on errors.
func (p *Parser) Parse() []Stmt {
	var stmts []Stmt
	for !p.isAtEnd() {
		stmt := p.declaration()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

func (p *Parser) declaration() Stmt {
	if p.check(token.KindFn) {
		return p.fnDecl()
	}
	return p.statement()
}

func (p *Parser) fnDecl() Stmt {
	start := p.advance().Range // 'fn'
	name := p.consume(token.KindIdent, "expect function name after 'fn'").Lexeme
	p.consume(token.KindLParen, "expect '(' after function name")

	var positional []Param
	var named []NamedParam
	inNamed := false
	if !p.check(token.KindRParen) {
		for {
			if p.check(token.KindSemi) {
				p.advance()
				inNamed = true
				if p.check(token.KindRParen) {
					break
				}
				continue
			}
			pname := p.consume(token.KindIdent, "expect parameter name").Lexeme
			p.consume(token.KindColon, "expect ':' after parameter name")
			ptype := p.consumeTypeName()
			if inNamed {
				p.consume(token.KindEq, "expect '=' before named parameter default")
				def := p.expression()
				named = append(named, NamedParam{Name: pname, Type: ptype, Default: def})
			} else {
				positional = append(positional, Param{Name: pname, Type: ptype})
			}
			if !p.match(token.KindComma) && !p.check(token.KindSemi) {
				break
			}
		}
	}
	p.consume(token.KindRParen, "expect ')' after parameters")

	returnType := "void"
	if p.match(token.KindArrow) {
		returnType = p.consumeTypeName()
	}
	body := p.block()
	return &FnDecl{Name: name, Positional: positional, Named: named, ReturnType: returnType, Body: body,
		Rng: diag.Range{Start: start.Start, End: body.Rng.End}}
}

func (p *Parser) consumeTypeName() string {
	tok := p.consume(token.KindIdent, "expect a type name")
	return tok.Lexeme
}

func (p *Parser) statement() Stmt {
	switch {
	case p.check(token.KindLet):
		return p.letStmt()
	case p.check(token.KindIf):
		return p.ifStmt()
	case p.check(token.KindWhile):
		return p.whileStmt()
	case p.check(token.KindBreak):
		start := p.advance().Range
		end := p.consumeSemi()
		return &Break{Rng: diag.Range{Start: start.Start, End: end}}
	case p.check(token.KindContinue):
		start := p.advance().Range
		end := p.consumeSemi()
		return &Continue{Rng: diag.Range{Start: start.Start, End: end}}
	case p.check(token.KindReturn):
		return p.returnStmt()
	case p.check(token.KindLBrace):
		return p.block()
	}

	// Disambiguate `name = expr;` (Assign) from a bare expression
	// statement starting with an identifier, without backtracking cost:
	// assignment is the only statement form where an identifier is
	// immediately followed by a bare '='.
	if p.check(token.KindIdent) && p.checkNext(token.KindEq) {
		nameTok := p.advance()
		p.advance() // '='
		value := p.expression()
		end := p.consumeSemi()
		return &Assign{Name: nameTok.Lexeme, Expr: value, Rng: diag.Range{Start: nameTok.Range.Start, End: end}}
	}

	start := p.peek().Range
	expr := p.expression()
	end := p.consumeSemi()
	return &ExprStmt{Expr: expr, Rng: diag.Range{Start: start.Start, End: end}}
}

func (p *Parser) consumeSemi() diag.Pos {
	tok := p.consume(token.KindSemi, "expect ';' after statement")
	return tok.Range.End
}

func (p *Parser) letStmt() Stmt {
	start := p.advance().Range // 'let'
	name := p.consume(token.KindIdent, "expect variable name after 'let'").Lexeme
	p.consume(token.KindEq, "expect '=' after variable name")
	expr := p.expression()
	end := p.consumeSemi()
	return &Decl{Name: name, Expr: expr, Rng: diag.Range{Start: start.Start, End: end}}
}

func (p *Parser) ifStmt() Stmt {
	start := p.advance().Range // 'if'
	p.consume(token.KindLParen, "expect '(' after 'if'")
	cond := p.expression()
	p.consume(token.KindRParen, "expect ')' after condition")
	then := p.block()
	var elseBlk *Block
	endPos := then.Rng.End
	if p.match(token.KindElse) {
		if p.check(token.KindIf) {
			inner := p.ifStmt()
			elseBlk = &Block{Stmts: []Stmt{inner}, Rng: inner.Range()}
		} else {
			elseBlk = p.block()
		}
		endPos = elseBlk.Rng.End
	}
	return &If{Cond: cond, Then: then, Else: elseBlk, Rng: diag.Range{Start: start.Start, End: endPos}}
}

func (p *Parser) whileStmt() Stmt {
	start := p.advance().Range // 'while'
	p.consume(token.KindLParen, "expect '(' after 'while'")
	cond := p.expression()
	p.consume(token.KindRParen, "expect ')' after condition")
	body := p.block()
	return &While{Cond: cond, Body: body, Rng: diag.Range{Start: start.Start, End: body.Rng.End}}
}

func (p *Parser) returnStmt() Stmt {
	start := p.advance().Range // 'return'
	var value Expr
	if !p.check(token.KindSemi) {
		value = p.expression()
	}
	end := p.consumeSemi()
	return &Return{Value: value, Rng: diag.Range{Start: start.Start, End: end}}
}

func (p *Parser) block() *Block {
	start := p.consume(token.KindLBrace, "expect '{' to start a block").Range
	var stmts []Stmt
	for !p.check(token.KindRBrace) && !p.isAtEnd() {
		stmts = append(stmts, p.declaration())
	}
	end := p.consume(token.KindRBrace, "expect '}' to close a block").Range
	return &Block{Stmts: stmts, Rng: diag.Range{Start: start.Start, End: end.End}}
}

// --- Expressions ---

func (p *Parser) expression() Expr {
	return p.binary(1)
}

func (p *Parser) binary(minPrec int) Expr {
	left := p.postfixUnary()
	for {
		tok := p.peek()
		prec, ok := precedence[tok.Kind]
		if !ok || prec < minPrec {
			return left
		}
		p.advance()
		right := p.binary(prec + 1)
		left = &Binary{Op: string(tok.Kind), Left: left, Right: right,
			Rng: diag.Range{Start: left.Range().Start, End: right.Range().End}}
	}
}

func (p *Parser) postfixUnary() Expr {
	expr := p.unary()
	for p.check(token.KindQuestion) {
		tok := p.advance()
		expr = &Unary{Op: "?", Operand: expr, Postfix: true,
			Rng: diag.Range{Start: expr.Range().Start, End: tok.Range.End}}
	}
	return expr
}

func (p *Parser) unary() Expr {
	if p.check(token.KindMinus) || p.check(token.KindBang) || p.check(token.KindSlash) {
		tok := p.advance()
		operand := p.unary()
		return &Unary{Op: string(tok.Kind), Operand: operand,
			Rng: diag.Range{Start: tok.Range.Start, End: operand.Range().End}}
	}
	return p.call()
}

func (p *Parser) call() Expr {
	if p.check(token.KindIdent) && p.checkNext(token.KindLParen) {
		return p.finishCall()
	}
	return p.primary()
}

func (p *Parser) finishCall() Expr {
	nameTok := p.advance()
	p.advance() // '('
	var args []Expr
	var named []NamedArg
	seenNamed := false
	if !p.check(token.KindRParen) {
		for {
			if p.check(token.KindIdent) && p.checkNextNamedArg() {
				argName := p.advance().Lexeme
				p.advance() // '='
				val := p.expression()
				named = append(named, NamedArg{Name: argName, Value: val})
				seenNamed = true
			} else {
				val := p.expression()
				if seenNamed {
					p.errorAt(val.Range(), "positional argument cannot follow a named argument")
				} else {
					args = append(args, val)
				}
			}
			if !p.match(token.KindComma) {
				break
			}
		}
	}
	end := p.consume(token.KindRParen, "expect ')' after call arguments").Range
	return &Call{Callee: nameTok.Lexeme, Args: args, NamedArgs: named,
		Rng: diag.Range{Start: nameTok.Range.Start, End: end.End}}
}

// checkNextNamedArg reports whether the upcoming IDENT is immediately
// followed by '=', i.e. this call argument is `name = expr` rather than a
// bare expression that happens to start with an identifier.
func (p *Parser) checkNextNamedArg() bool {
	return p.checkNext(token.KindEq)
}

func (p *Parser) primary() Expr {
	tok := p.advance()
	switch tok.Kind {
	case token.KindNumber:
		val, err := parseNumber(tok.Lexeme)
		if err != nil {
			p.errorAt(tok.Range, "invalid numeric literal '%s'", tok.Lexeme)
		}
		return &Literal{Kind: LitReal, Real: val, Rng: tok.Range}
	case token.KindString:
		return &Literal{Kind: LitString, Str: tok.Lexeme, Rng: tok.Range}
	case token.KindIdent:
		switch tok.Lexeme {
		case "true":
			return &Literal{Kind: LitBool, Bool: true, Rng: tok.Range}
		case "false":
			return &Literal{Kind: LitBool, Bool: false, Rng: tok.Range}
		}
		return &Identifier{Name: tok.Lexeme, Rng: tok.Range}
	case token.KindLParen:
		inner := p.expression()
		end := p.consume(token.KindRParen, "expect ')' to close grouping").Range
		// Grouping is transparent: widen the inner node's apparent range
		// rather than wrapping it in a no-op node.
		return widenRange(inner, tok.Range.Start, end.End)
	default:
		p.errorAt(tok.Range, "unexpected token '%s' in expression", tok.Lexeme)
		return &Literal{Kind: LitReal, Real: 0, Rng: tok.Range}
	}
}

// widenRange returns expr with its reported Range replaced; used so a
// parenthesized expression reports the parens' full extent.
func widenRange(expr Expr, start, end diag.Pos) Expr {
	rng := diag.Range{Start: start, End: end}
	switch e := expr.(type) {
	case *Literal:
		e.Rng = rng
	case *Identifier:
		e.Rng = rng
	case *Unary:
		e.Rng = rng
	case *Binary:
		e.Rng = rng
	case *Call:
		e.Rng = rng
	}
	return expr
}

func parseNumber(lexeme string) (float64, error) {
	l := strings.ReplaceAll(lexeme, "_", "")
	switch {
	case strings.HasPrefix(l, "0b") || strings.HasPrefix(l, "0B"):
		n, err := strconv.ParseInt(l[2:], 2, 64)
		return float64(n), err
	case strings.HasPrefix(l, "0o") || strings.HasPrefix(l, "0O"):
		n, err := strconv.ParseInt(l[2:], 8, 64)
		return float64(n), err
	case strings.HasPrefix(l, "0x") || strings.HasPrefix(l, "0X"):
		n, err := strconv.ParseInt(l[2:], 16, 64)
		return float64(n), err
	default:
		return strconv.ParseFloat(l, 64)
	}
}

// --- token stream helpers ---

func (p *Parser) check(k token.Kind) bool {
	return !p.isAtEnd() && p.peek().Kind == k
}

func (p *Parser) checkNext(k token.Kind) bool {
	if p.current+1 >= len(p.tokens) {
		return false
	}
	return p.tokens[p.current+1].Kind == k
}

func (p *Parser) match(k token.Kind) bool {
	if p.check(k) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) consume(k token.Kind, msg string) token.Token {
	if p.check(k) {
		return p.advance()
	}
	tok := p.peek()
	p.errorAt(tok.Range, "%s (got '%s')", msg, tok.Lexeme)
	return tok
}

func (p *Parser) errorAt(rng diag.Range, format string, args ...interface{}) {
	p.Errors = append(p.Errors, diag.New(diag.KindSyntax, rng, format, args...))
}

func (p *Parser) advance() token.Token {
	tok := p.tokens[p.current]
	if !p.isAtEnd() {
		p.current++
	}
	return tok
}

func (p *Parser) peek() token.Token { return p.tokens[p.current] }

func (p *Parser) isAtEnd() bool { return p.tokens[p.current].Kind == token.KindEOF }
