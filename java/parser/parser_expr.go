package parser

// Expressions.

func (p *Parser) parseExpression() NodeID {
	if p.isLambda() {
		return p.parseLambdaExpr()
	}
	lhs := p.parseTernary()
	op, n := p.peekOp()
	if !isAssignOp(op) {
		return lhs
	}
	id := p.openAt(KindAssignExpr, p.start(lhs))
	p.nodes[id].Token = p.takeOp(n)
	p.add(id, lhs)
	p.add(id, p.parseExpression())
	return p.close(id)
}

func isAssignOp(k TokenKind) bool {
	switch k {
	case TokenAssign, TokenPlusAssign, TokenMinusAssign, TokenStarAssign, TokenSlashAssign,
		TokenPercentAssign, TokenAndAssign, TokenOrAssign, TokenXorAssign,
		TokenShlAssign, TokenShrAssign, TokenUShrAssign:
		return true
	}
	return false
}

// peekOp returns the operator at the current position and how many tokens it
// spans. Runs of adjacent '>' and a trailing adjacent '=' are recombined into
// >=, >>, >>>, >>= and >>>= here, since the lexer never merges them.
func (p *Parser) peekOp() (TokenKind, int) {
	kind := p.peek().Kind
	if kind != TokenGT {
		return kind, 1
	}
	n := 1
	for n < 3 && p.checkN(n, TokenGT) && p.adjacent(n) {
		n++
	}
	if p.checkN(n, TokenAssign) && p.adjacent(n) {
		switch n {
		case 1:
			return TokenGE, 2
		case 2:
			return TokenShrAssign, 3
		default:
			return TokenUShrAssign, 4
		}
	}
	switch n {
	case 2:
		return TokenShr, 2
	case 3:
		return TokenUShr, 3
	}
	return TokenGT, 1
}

// takeOp consumes an operator of n tokens and returns a token spanning it.
func (p *Parser) takeOp(n int) *Token {
	first := p.advance()
	if n == 1 {
		return first
	}
	last := first
	for i := 1; i < n; i++ {
		last = p.advance()
	}
	kind, _ := combinedOp(n, last.Kind == TokenAssign)
	return &Token{
		Kind:    kind,
		Span:    Span{Start: first.Span.Start, End: last.Span.End},
		Literal: string(p.src[first.Span.Start.Offset:last.Span.End.Offset]),
	}
}

func combinedOp(n int, assign bool) (TokenKind, bool) {
	switch {
	case assign && n == 2:
		return TokenGE, true
	case assign && n == 3:
		return TokenShrAssign, true
	case assign && n == 4:
		return TokenUShrAssign, true
	case n == 2:
		return TokenShr, true
	case n == 3:
		return TokenUShr, true
	}
	return TokenGT, false
}

func binaryPrecedence(k TokenKind) int {
	switch k {
	case TokenOr:
		return 1
	case TokenAnd:
		return 2
	case TokenBitOr:
		return 3
	case TokenBitXor:
		return 4
	case TokenBitAnd:
		return 5
	case TokenEQ, TokenNE:
		return 6
	case TokenLT, TokenGT, TokenLE, TokenGE, TokenInstanceof:
		return 7
	case TokenShl, TokenShr, TokenUShr:
		return 8
	case TokenPlus, TokenMinus:
		return 9
	case TokenStar, TokenSlash, TokenPercent:
		return 10
	}
	return 0
}

func (p *Parser) parseTernary() NodeID {
	cond := p.parseBinary(1)
	if !p.check(TokenQuestion) {
		return cond
	}
	id := p.openAt(KindTernaryExpr, p.start(cond))
	p.add(id, cond)
	p.advance()
	p.add(id, p.parseTernaryBranch())
	p.expect(TokenColon)
	p.add(id, p.parseTernaryBranch())
	return p.close(id)
}

func (p *Parser) parseTernaryBranch() NodeID {
	if p.isLambda() {
		return p.parseLambdaExpr()
	}
	return p.parseTernary()
}

// parseBinary is a precedence-climbing parser for all binary operators and
// instanceof.
func (p *Parser) parseBinary(minPrec int) NodeID {
	left := p.parseUnary()
	for {
		op, n := p.peekOp()
		prec := binaryPrecedence(op)
		if prec == 0 || prec < minPrec {
			return left
		}
		if op == TokenInstanceof {
			left = p.parseInstanceof(left)
			continue
		}
		id := p.openAt(KindBinaryExpr, p.start(left))
		p.nodes[id].Token = p.takeOp(n)
		p.add(id, left)
		p.add(id, p.parseBinary(prec+1))
		left = p.close(id)
	}
}

func (p *Parser) parseInstanceof(expr NodeID) NodeID {
	id := p.openAt(KindInstanceofExpr, p.start(expr))
	p.add(id, expr)
	p.advance()
	if p.isPattern() {
		p.add(id, p.parsePattern())
	} else if p.startsType() {
		p.add(id, p.parseType())
	} else {
		p.diag(p.peek().Span, "expected type, got %s", describe(p.peek()))
	}
	return p.close(id)
}

func (p *Parser) parseUnary() NodeID {
	switch p.peek().Kind {
	case TokenPlus, TokenMinus, TokenIncrement, TokenDecrement, TokenNot, TokenBitNot:
		id := p.open(KindUnaryExpr)
		p.nodes[id].Token = p.advance()
		p.add(id, p.parseUnary())
		return p.close(id)
	case TokenLParen:
		if p.isCast() {
			return p.parseCastExpr()
		}
	}
	return p.parsePostfixExpr()
}

// isCast decides whether "(" starts a cast: the parenthesized content must
// parse as a type and the token after ")" must be able to start the operand.
// For primitive types any unary operand may follow; for reference types a
// following '+' or '-' means a binary expression instead.
func (p *Parser) isCast() bool {
	m := p.mark()
	defer p.reset(m)
	p.advance()
	for p.check(TokenAt) {
		p.parseAnnotation()
	}
	if p.peek().Kind.IsPrimitive() {
		p.parseType()
		return !p.failedSince(m) && p.check(TokenRParen)
	}
	if !p.isIdentifierLike() {
		return false
	}
	p.parseType()
	for p.accept(TokenBitAnd) {
		if !p.startsType() {
			return false
		}
		p.parseType()
	}
	if p.failedSince(m) || !p.accept(TokenRParen) {
		return false
	}
	tok := p.peek()
	if tok.Kind.IsIdentifier() {
		return true
	}
	switch tok.Kind {
	case TokenLParen, TokenNot, TokenBitNot, TokenThis, TokenSuper, TokenNew, TokenSwitch:
		return true
	}
	return tok.Kind.IsLiteral() || tok.Kind.IsPrimitive()
}

func (p *Parser) parseCastExpr() NodeID {
	id := p.open(KindCastExpr)
	p.advance()
	for {
		p.add(id, p.parseType())
		if !p.accept(TokenBitAnd) {
			break
		}
	}
	p.expect(TokenRParen)
	if p.isLambda() {
		p.add(id, p.parseLambdaExpr())
	} else {
		p.add(id, p.parseUnary())
	}
	return p.close(id)
}

func (p *Parser) parsePostfixExpr() NodeID {
	return p.parsePostfixSuffix(p.parsePrimaryExpr())
}

// parsePostfixSuffix applies selectors, calls, array accesses, method
// references and postfix operators left to right. An incomplete member
// access ends the chain.
func (p *Parser) parsePostfixSuffix(expr NodeID) NodeID {
	for {
		switch p.peek().Kind {
		case TokenDot:
			expr = p.parseSelector(expr)
			if p.nodes[expr].Kind == KindIncompleteMemberAccess {
				return expr
			}
		case TokenLBracket:
			if p.checkN(1, TokenRBracket) {
				return p.parseArrayTypeSuffix(expr)
			}
			id := p.openAt(KindArrayAccess, p.start(expr))
			p.add(id, expr)
			p.advance()
			p.add(id, p.parseExpression())
			p.expect(TokenRBracket)
			expr = p.close(id)
		case TokenColonColon:
			expr = p.parseMethodRef(expr, NoNode)
		case TokenLT:
			if !p.isName(expr) {
				return expr
			}
			args := p.tryTypeArguments(TokenColonColon)
			if args == NoNode {
				return expr
			}
			expr = p.parseMethodRef(expr, args)
		case TokenIncrement, TokenDecrement:
			id := p.openAt(KindPostfixExpr, p.start(expr))
			p.add(id, expr)
			p.nodes[id].Token = p.advance()
			expr = p.close(id)
		default:
			return expr
		}
	}
}

// isName reports whether id is a plain (possibly qualified) name.
func (p *Parser) isName(id NodeID) bool {
	for {
		n := &p.nodes[id]
		switch n.Kind {
		case KindIdentifier:
			return true
		case KindFieldAccess:
			id = n.Children[0]
		default:
			return false
		}
	}
}

// parseArrayTypeSuffix handles "Name[].class" and "Name[]::new".
func (p *Parser) parseArrayTypeSuffix(expr NodeID) NodeID {
	dims := p.parseDims()
	switch {
	case p.check(TokenDot) && p.checkN(1, TokenClass):
		id := p.openAt(KindClassLiteral, p.start(expr))
		p.add(id, expr)
		p.nodes[id].Dims = dims
		p.advance()
		p.advance()
		return p.close(id)
	case p.check(TokenColonColon):
		id := p.parseMethodRef(expr, NoNode)
		p.nodes[id].Dims = dims
		return id
	}
	id := p.errorAt(p.start(expr), "expected .class or :: after array type", expr)
	return p.close(id)
}

// parseSelector parses what follows a '.' after expr. When no selector
// follows (end of statement, closing brace, a keyword, or the cursor sits
// right after the dot), the dot becomes an IncompleteMemberAccess node that
// wraps expr and nothing else is consumed.
func (p *Parser) parseSelector(expr NodeID) NodeID {
	dotIndex := p.pos
	p.advance()
	if p.cursorAfter(dotIndex) {
		return p.incomplete(expr)
	}

	switch p.peekKind() {
	case TokenIdent:
		name := p.leaf(KindIdentifier)
		if p.check(TokenLParen) {
			id := p.openAt(KindCallExpr, p.start(expr))
			p.add(id, expr)
			p.add(id, name)
			p.add(id, p.parseArguments())
			return p.close(id)
		}
		id := p.openAt(KindFieldAccess, p.start(expr))
		p.add(id, expr)
		p.add(id, name)
		return p.close(id)

	case TokenLT:
		args := p.parseTypeArguments()
		id := p.openAt(KindGenericCallExpr, p.start(expr))
		p.add(id, expr)
		p.add(id, args)
		switch {
		case p.isIdentifierLike():
			p.add(id, p.leaf(KindIdentifier))
			p.add(id, p.parseArguments())
		case p.match(TokenThis, TokenSuper) && p.checkN(1, TokenLParen):
			p.nodes[id].Kind = KindExplicitConstructorInvocation
			p.nodes[id].Token = p.advance()
			p.add(id, p.parseArguments())
		default:
			p.diag(p.peek().Span, "expected method name, got %s", describe(p.peek()))
		}
		return p.close(id)

	case TokenThis:
		id := p.openAt(KindQualifiedThis, p.start(expr))
		p.add(id, expr)
		p.advance()
		return p.close(id)

	case TokenSuper:
		if p.checkN(1, TokenLParen) {
			id := p.openAt(KindExplicitConstructorInvocation, p.start(expr))
			p.add(id, expr)
			p.nodes[id].Token = p.advance()
			p.add(id, p.parseArguments())
			return p.close(id)
		}
		id := p.openAt(KindQualifiedSuper, p.start(expr))
		p.add(id, expr)
		p.advance()
		return p.close(id)

	case TokenClass:
		id := p.openAt(KindClassLiteral, p.start(expr))
		p.add(id, expr)
		p.advance()
		return p.close(id)

	case TokenNew:
		return p.parseNewExpr(expr)
	}

	return p.incomplete(expr)
}

func (p *Parser) incomplete(expr NodeID) NodeID {
	id := p.openAt(KindIncompleteMemberAccess, p.start(expr))
	p.add(id, expr)
	dot := p.tokens[p.pos-1]
	p.nodes[id].Span.End = dot.Span.End
	p.diag(dot.Span, "expected member name after '.'")
	p.incompleteAt = p.pos
	return id
}

// incompleteBare makes an IncompleteMemberAccess without a qualifier for a
// '.' that starts an expression: an implicit this.
func (p *Parser) incompleteBare() NodeID {
	id := p.open(KindIncompleteMemberAccess)
	dot := p.advance()
	p.nodes[id].Span.End = dot.Span.End
	p.diag(dot.Span, "expected expression before '.'")
	p.incompleteAt = p.pos
	return id
}

func (p *Parser) parseArguments() NodeID {
	id := p.open(KindArguments)
	if !p.expect(TokenLParen) {
		return p.close(id)
	}
	for !p.check(TokenRParen) && !p.check(TokenEOF) {
		if p.match(TokenSemicolon, TokenRBrace) {
			break
		}
		before := p.pos
		p.add(id, p.parseExpression())
		if !p.accept(TokenComma) || p.pos == before {
			break
		}
	}
	p.expect(TokenRParen)
	return p.close(id)
}

// parseMethodRef parses "::name" or "::new" after target. typeArgs holds the
// type arguments of a generic target type such as List<String>::new.
func (p *Parser) parseMethodRef(target, typeArgs NodeID) NodeID {
	id := p.openAt(KindMethodRef, p.start(target))
	p.add(id, target)
	p.add(id, typeArgs)
	p.advance()
	if p.check(TokenLT) {
		p.add(id, p.parseTypeArguments())
	}
	switch {
	case p.isIdentifierLike():
		p.add(id, p.leaf(KindIdentifier))
	case p.check(TokenNew):
		p.nodes[id].Token = p.advance()
	default:
		p.diag(p.peek().Span, "expected method name after '::', got %s", describe(p.peek()))
	}
	return p.close(id)
}

func (p *Parser) parsePrimaryExpr() NodeID {
	tok := p.peek()
	switch p.peekKind() {
	case TokenIntLiteral, TokenFloatLiteral, TokenCharLiteral, TokenStringLiteral, TokenTextBlock,
		TokenTrue, TokenFalse, TokenNull:
		return p.leaf(KindLiteral)

	case TokenThis, TokenSuper:
		if p.checkN(1, TokenLParen) {
			id := p.open(KindExplicitConstructorInvocation)
			p.nodes[id].Token = p.advance()
			p.add(id, p.parseArguments())
			return p.close(id)
		}
		if tok.Kind == TokenThis {
			return p.leaf(KindThis)
		}
		return p.leaf(KindSuper)

	case TokenLParen:
		id := p.open(KindParenExpr)
		p.advance()
		p.add(id, p.parseExpression())
		p.expect(TokenRParen)
		return p.close(id)

	case TokenNew:
		return p.parseNewExpr(NoNode)

	case TokenSwitch:
		return p.parseSwitch(KindSwitchExpr)

	case TokenLT:
		// <T>this(...) or <T>super(...)
		id := p.open(KindExplicitConstructorInvocation)
		p.add(id, p.parseTypeArguments())
		if p.match(TokenThis, TokenSuper) {
			p.nodes[id].Token = p.advance()
			p.add(id, p.parseArguments())
		} else {
			p.diag(p.peek().Span, "expected this or super, got %s", describe(p.peek()))
		}
		return p.close(id)

	case TokenIdent:
		name := p.leaf(KindIdentifier)
		if p.check(TokenLParen) {
			id := p.openAt(KindCallExpr, p.start(name))
			p.add(id, name)
			p.add(id, p.parseArguments())
			return p.close(id)
		}
		return name

	case TokenDot:
		return p.incompleteBare()

	case TokenLBrace:
		return p.parseArrayInitializer()

	case TokenAt:
		// annotated types only appear in casts and declarations
		id := p.errorAt(tok.Span.Start, "unexpected annotation in expression")
		p.add(id, p.parseAnnotation())
		return p.close(id)
	}

	if tok.Kind.IsPrimitive() || tok.Kind == TokenVoid {
		typ := p.parseType()
		if p.check(TokenDot) && p.checkN(1, TokenClass) {
			id := p.openAt(KindClassLiteral, p.start(typ))
			p.add(id, typ)
			p.advance()
			p.advance()
			return p.close(id)
		}
		if p.check(TokenColonColon) {
			return p.parseMethodRef(typ, NoNode)
		}
		id := p.errorAt(p.start(typ), "expected .class after primitive type", typ)
		return p.close(id)
	}

	id := p.errorAt(tok.Span.Start, "expected expression")
	switch tok.Kind {
	case TokenSemicolon, TokenRBrace, TokenRParen, TokenRBracket, TokenComma, TokenEOF, TokenColon:
		// leave terminators for the enclosing production
	default:
		p.advance()
	}
	return p.close(id)
}

// parseNewExpr parses instance creation, anonymous classes and array
// creation. outer is the qualifier of an inner creation such as
// outer.new Inner(), or NoNode.
func (p *Parser) parseNewExpr(outer NodeID) NodeID {
	start := p.peek().Span.Start
	if outer != NoNode {
		start = p.start(outer)
	}
	id := p.openAt(KindNewExpr, start)
	p.add(id, outer)
	p.advance()

	if p.check(TokenLT) {
		p.add(id, p.parseTypeArguments())
	}
	if !p.startsType() {
		p.diag(p.peek().Span, "expected type after new, got %s", describe(p.peek()))
		return p.close(id)
	}
	typ := p.parseTypeDims(false)
	p.add(id, typ)

	if p.check(TokenLBracket) {
		p.nodes[id].Kind = KindNewArrayExpr
		dims := 0
		for p.check(TokenLBracket) {
			p.advance()
			if !p.check(TokenRBracket) {
				p.add(id, p.parseExpression())
			}
			p.expect(TokenRBracket)
			dims++
		}
		p.nodes[id].Dims = dims
		if p.check(TokenLBrace) {
			p.add(id, p.parseArrayInitializer())
		}
		return p.close(id)
	}

	p.add(id, p.parseArguments())
	if p.check(TokenLBrace) {
		p.nodes[id].Kind = KindAnonymousClassExpr
		p.add(id, p.parseClassBody(false))
	}
	return p.close(id)
}

// isLambda recognises "x ->", "() ->", "(a, b) ->" and "(Type a) ->" by
// finding the matching ')' and checking for an arrow.
func (p *Parser) isLambda() bool {
	if p.isIdentifierLike() && p.checkN(1, TokenArrow) {
		return true
	}
	if !p.check(TokenLParen) {
		return false
	}
	m := p.mark()
	defer p.reset(m)
	if !p.skipBalanced(TokenLParen, TokenRParen) {
		return false
	}
	return p.check(TokenArrow)
}

func (p *Parser) parseLambdaExpr() NodeID {
	id := p.open(KindLambdaExpr)
	params := p.open(KindParameters)
	if p.isIdentifierLike() {
		param := p.open(KindParameter)
		p.add(param, p.leaf(KindIdentifier))
		p.add(params, p.close(param))
	} else {
		p.advance()
		for !p.check(TokenRParen) && !p.check(TokenEOF) {
			before := p.pos
			if p.isIdentifierLike() && (p.checkN(1, TokenComma) || p.checkN(1, TokenRParen)) {
				param := p.open(KindParameter)
				p.add(param, p.leaf(KindIdentifier))
				p.add(params, p.close(param))
			} else {
				p.add(params, p.parseParameter())
			}
			if !p.accept(TokenComma) || p.pos == before {
				break
			}
		}
		p.expect(TokenRParen)
	}
	p.add(id, p.close(params))
	p.expect(TokenArrow)
	if p.check(TokenLBrace) {
		p.add(id, p.parseBlock())
	} else {
		p.add(id, p.parseExpression())
	}
	return p.close(id)
}
