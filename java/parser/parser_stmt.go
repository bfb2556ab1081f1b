package parser

// Statements.

func (p *Parser) parseBlock() NodeID {
	id := p.open(KindBlock)
	if !p.expect(TokenLBrace) {
		return p.close(id)
	}
	p.parseBlockStatements(id, TokenRBrace)
	p.expect(TokenRBrace)
	return p.close(id)
}

// parseBlockStatements parses statements into parent until one of the stop
// tokens (or EOF) is reached.
func (p *Parser) parseBlockStatements(parent NodeID, stop ...TokenKind) {
	for !p.check(TokenEOF) && !p.match(stop...) {
		before := p.pos
		p.add(parent, p.parseStatement())
		p.guard(parent, before)
	}
}

func (p *Parser) parseStatement() NodeID {
	switch p.peekKind() {
	case TokenLBrace:
		return p.parseBlock()
	case TokenSemicolon:
		return p.leaf(KindEmptyStmt)
	case TokenIf:
		return p.parseIfStmt()
	case TokenFor:
		return p.parseForStmt()
	case TokenWhile:
		return p.parseWhileStmt()
	case TokenDo:
		return p.parseDoStmt()
	case TokenSwitch:
		if p.isSwitchExpressionStatement() {
			return p.parseExprStmt()
		}
		return p.parseSwitch(KindSwitchStmt)
	case TokenReturn:
		return p.parseKeywordStmt(KindReturnStmt, true)
	case TokenThrow:
		return p.parseKeywordStmt(KindThrowStmt, true)
	case TokenBreak:
		return p.parseJumpStmt(KindBreakStmt)
	case TokenContinue:
		return p.parseJumpStmt(KindContinueStmt)
	case TokenTry:
		return p.parseTryStmt()
	case TokenSynchronized:
		if p.checkN(1, TokenLParen) {
			return p.parseSynchronizedStmt()
		}
	case TokenAssert:
		return p.parseAssertStmt()
	case TokenClass, TokenInterface, TokenEnum:
		return p.parseLocalTypeDecl()
	case TokenAbstract, TokenStatic, TokenFinal, TokenStrictfp, TokenAt:
		if p.isLocalTypeDecl() {
			return p.parseLocalTypeDecl()
		}
	case TokenIdent:
		switch {
		case p.checkN(1, TokenColon):
			return p.parseLabeledStmt()
		case p.isYieldStmt():
			return p.parseKeywordStmt(KindYieldStmt, true)
		case p.isRecordDecl():
			return p.parseLocalTypeDecl()
		}
	case TokenRParen, TokenRBracket:
		id := p.errorAt(p.peek().Span.Start, "unexpected token")
		p.advance()
		return p.close(id)
	}
	return p.parseLocalVarOrExprStmt()
}

func (p *Parser) isYieldStmt() bool {
	if !p.check(TokenYield) {
		return false
	}
	switch p.peekN(1).Kind {
	case TokenAssign, TokenDot, TokenLBracket, TokenSemicolon, TokenIncrement, TokenDecrement,
		TokenPlusAssign, TokenMinusAssign, TokenColonColon, TokenEOF:
		return false
	}
	return true
}

// isSwitchExpressionStatement tells "switch (x) { ... }.foo();" apart from a
// switch statement. Only the former continues after the closing brace.
func (p *Parser) isSwitchExpressionStatement() bool {
	m := p.mark()
	defer p.reset(m)
	p.advance()
	if !p.skipBalanced(TokenLParen, TokenRParen) || !p.skipBalanced(TokenLBrace, TokenRBrace) {
		return false
	}
	return p.check(TokenDot)
}

// skipBalanced skips a bracketed group starting at open.
func (p *Parser) skipBalanced(open, close TokenKind) bool {
	if !p.accept(open) {
		return false
	}
	depth := 1
	for depth > 0 && !p.check(TokenEOF) {
		switch p.advance().Kind {
		case open:
			depth++
		case close:
			depth--
		}
	}
	return depth == 0
}

func (p *Parser) isLocalTypeDecl() bool {
	m := p.mark()
	defer p.reset(m)
	p.parseModifiers()
	return p.isTypeDeclStart()
}

func (p *Parser) parseLocalTypeDecl() NodeID {
	start := p.peek().Span.Start
	mods := p.parseModifiers()
	if decl := p.parseTypeDeclRest(start, mods); decl != NoNode {
		return decl
	}
	id := p.errorAt(start, "expected class declaration", mods)
	p.recoverStatement()
	return p.close(id)
}

func (p *Parser) parseLocalVarOrExprStmt() NodeID {
	if p.isLocalVarDecl() {
		id := p.parseLocalVarDecl()
		p.expect(TokenSemicolon)
		return p.close(id)
	}
	return p.parseExprStmt()
}

// isLocalVarDecl looks ahead for "[modifiers] Type name". A '.' directly
// before the cursor ends the lookahead, so "f.<cursor>\n Foo x;" stays an
// incomplete member access followed by a declaration.
func (p *Parser) isLocalVarDecl() bool {
	m := p.mark()
	defer p.reset(m)
	p.parseModifiers()
	if !p.startsType() || p.check(TokenVoid) {
		return false
	}
	for i := p.pos; i < len(p.tokens) && p.tokens[i].Kind != TokenSemicolon; i++ {
		if p.tokens[i].Kind == TokenDot && p.cursorAfter(i) {
			return false
		}
		if p.tokens[i].Kind != TokenDot && !p.tokens[i].Kind.IsIdentifier() {
			break
		}
	}
	p.parseType()
	if p.failedSince(m) {
		return false
	}
	return p.isIdentifierLike()
}

// cursorAfter reports whether the cursor sits in the gap after token i.
func (p *Parser) cursorAfter(i int) bool {
	if p.cursor < 0 || i+1 >= len(p.tokens) {
		return false
	}
	return p.cursor >= p.tokens[i].Span.End.Offset && p.cursor < p.tokens[i+1].Span.Start.Offset
}

// parseLocalVarDecl parses a declaration without the trailing ';'. The caller
// closes the node after consuming the terminator.
func (p *Parser) parseLocalVarDecl() NodeID {
	id := p.open(KindLocalVarDecl)
	p.add(id, p.parseModifiers())
	p.add(id, p.parseType())
	p.parseDeclarators(id)
	return p.close(id)
}

func (p *Parser) parseExprStmt() NodeID {
	id := p.open(KindExprStmt)
	p.add(id, p.parseExpression())
	p.expect(TokenSemicolon)
	return p.close(id)
}

func (p *Parser) parseParenExpression(parent NodeID) {
	p.expect(TokenLParen)
	p.add(parent, p.parseExpression())
	p.expect(TokenRParen)
}

func (p *Parser) parseIfStmt() NodeID {
	id := p.open(KindIfStmt)
	p.advance()
	p.parseParenExpression(id)
	p.add(id, p.parseStatement())
	if p.accept(TokenElse) {
		p.add(id, p.parseStatement())
	}
	return p.close(id)
}

func (p *Parser) parseForStmt() NodeID {
	start := p.peek().Span.Start
	p.advance()
	if !p.expect(TokenLParen) {
		id := p.errorAt(start, "expected '(' after for")
		p.recoverStatement()
		return p.close(id)
	}

	if p.isEnhancedFor() {
		id := p.openAt(KindEnhancedForStmt, start)
		param := p.open(KindParameter)
		p.add(param, p.parseModifiers())
		p.add(param, p.parseType())
		p.parseName(param)
		p.add(id, p.close(param))
		p.expect(TokenColon)
		p.add(id, p.parseExpression())
		p.expect(TokenRParen)
		p.add(id, p.parseStatement())
		return p.close(id)
	}

	id := p.openAt(KindForStmt, start)
	init := p.open(KindForInit)
	if !p.check(TokenSemicolon) {
		if p.isLocalVarDecl() {
			p.add(init, p.parseLocalVarDecl())
		} else {
			p.parseExpressionList(init)
		}
	}
	p.add(id, p.close(init))
	p.expect(TokenSemicolon)
	if !p.check(TokenSemicolon) {
		p.add(id, p.parseExpression())
	}
	p.expect(TokenSemicolon)
	update := p.open(KindForUpdate)
	if !p.check(TokenRParen) {
		p.parseExpressionList(update)
	}
	p.add(id, p.close(update))
	p.expect(TokenRParen)
	p.add(id, p.parseStatement())
	return p.close(id)
}

func (p *Parser) parseExpressionList(parent NodeID) {
	for {
		p.add(parent, p.parseExpression())
		if !p.accept(TokenComma) {
			return
		}
	}
}

func (p *Parser) isEnhancedFor() bool {
	m := p.mark()
	defer p.reset(m)
	p.parseModifiers()
	if !p.startsType() {
		return false
	}
	p.parseType()
	if p.failedSince(m) || !p.isIdentifierLike() {
		return false
	}
	p.advance()
	return p.check(TokenColon)
}

func (p *Parser) parseWhileStmt() NodeID {
	id := p.open(KindWhileStmt)
	p.advance()
	p.parseParenExpression(id)
	p.add(id, p.parseStatement())
	return p.close(id)
}

func (p *Parser) parseDoStmt() NodeID {
	id := p.open(KindDoStmt)
	p.advance()
	p.add(id, p.parseStatement())
	p.expect(TokenWhile)
	p.parseParenExpression(id)
	p.expect(TokenSemicolon)
	return p.close(id)
}

// parseSwitch parses both switch statements and switch expressions; only the
// node kind differs.
func (p *Parser) parseSwitch(kind NodeKind) NodeID {
	id := p.open(kind)
	p.advance()
	p.parseParenExpression(id)
	if !p.expect(TokenLBrace) {
		return p.close(id)
	}
	for !p.check(TokenRBrace) && !p.check(TokenEOF) {
		before := p.pos
		if p.match(TokenCase, TokenDefault) {
			p.add(id, p.parseSwitchCase())
		} else {
			e := p.errorAt(p.peek().Span.Start, "expected case or default")
			p.recoverStatement()
			p.add(id, p.close(e))
		}
		p.guard(id, before)
	}
	p.expect(TokenRBrace)
	return p.close(id)
}

func (p *Parser) parseSwitchCase() NodeID {
	id := p.open(KindSwitchCase)
	p.add(id, p.parseSwitchLabel())
	if p.accept(TokenArrow) {
		p.nodes[id].Flags |= FlagArrow
		switch {
		case p.check(TokenLBrace):
			p.add(id, p.parseBlock())
		case p.check(TokenThrow):
			p.add(id, p.parseKeywordStmt(KindThrowStmt, true))
		default:
			p.add(id, p.parseExprStmt())
		}
		return p.close(id)
	}
	p.expect(TokenColon)
	p.parseBlockStatements(id, TokenCase, TokenDefault, TokenRBrace)
	return p.close(id)
}

func (p *Parser) parseSwitchLabel() NodeID {
	id := p.open(KindSwitchLabel)
	if p.accept(TokenDefault) {
		p.nodes[id].Flags |= FlagDefault
		return p.close(id)
	}
	p.advance()
	for {
		switch {
		case p.accept(TokenDefault):
			p.nodes[id].Flags |= FlagDefault
		case p.isPattern():
			p.add(id, p.parsePattern())
		default:
			p.add(id, p.parseTernary())
		}
		if !p.accept(TokenComma) {
			break
		}
	}
	if p.check(TokenWhen) {
		p.advance()
		p.add(id, p.parseTernary())
	}
	return p.close(id)
}

// isPattern reports whether a type pattern ("String s", "final Foo f") or a
// record pattern ("Point(int x, int y)") starts here.
func (p *Parser) isPattern() bool {
	m := p.mark()
	defer p.reset(m)
	p.parseModifiers()
	if !p.startsType() {
		return false
	}
	p.parseType()
	if p.failedSince(m) {
		return false
	}
	return p.isIdentifierLike() || p.check(TokenLParen)
}

// parsePattern parses a type pattern into a Parameter. Record patterns keep
// their nested component patterns as Parameter children.
func (p *Parser) parsePattern() NodeID {
	id := p.open(KindParameter)
	p.add(id, p.parseModifiers())
	p.add(id, p.parseType())
	if p.accept(TokenLParen) {
		for !p.check(TokenRParen) && !p.check(TokenEOF) {
			before := p.pos
			if !p.isPattern() {
				break
			}
			p.add(id, p.parsePattern())
			if !p.accept(TokenComma) || p.pos == before {
				break
			}
		}
		p.expect(TokenRParen)
	}
	if p.isIdentifierLike() && !p.check(TokenWhen) {
		p.add(id, p.leaf(KindIdentifier))
	}
	return p.close(id)
}

// parseKeywordStmt parses return, throw and yield.
func (p *Parser) parseKeywordStmt(kind NodeKind, optionalExpr bool) NodeID {
	id := p.open(kind)
	p.advance()
	if !p.check(TokenSemicolon) || !optionalExpr {
		p.add(id, p.parseExpression())
	}
	p.expect(TokenSemicolon)
	return p.close(id)
}

func (p *Parser) parseJumpStmt(kind NodeKind) NodeID {
	id := p.open(kind)
	p.advance()
	if p.isIdentifierLike() {
		p.add(id, p.leaf(KindIdentifier))
	}
	p.expect(TokenSemicolon)
	return p.close(id)
}

func (p *Parser) parseTryStmt() NodeID {
	id := p.open(KindTryStmt)
	p.advance()
	if p.check(TokenLParen) {
		p.add(id, p.parseResources())
	}
	p.add(id, p.parseBlock())
	for p.check(TokenCatch) {
		p.add(id, p.parseCatchClause())
	}
	if p.check(TokenFinally) {
		fin := p.open(KindFinallyClause)
		p.advance()
		p.add(fin, p.parseBlock())
		p.add(id, p.close(fin))
	}
	return p.close(id)
}

func (p *Parser) parseResources() NodeID {
	id := p.open(KindResources)
	p.advance()
	for !p.check(TokenRParen) && !p.check(TokenEOF) {
		before := p.pos
		res := p.open(KindResource)
		if p.isLocalVarDecl() {
			p.add(res, p.parseModifiers())
			p.add(res, p.parseType())
			if p.isIdentifierLike() {
				p.add(res, p.parseDeclarator())
			}
		} else {
			p.add(res, p.parseExpression())
		}
		p.add(id, p.close(res))
		if !p.accept(TokenSemicolon) || p.pos == before {
			break
		}
	}
	p.expect(TokenRParen)
	return p.close(id)
}

// parseCatchClause parses "catch (final A | B e) {...}". A multi-catch
// parameter carries one Type child per alternative.
func (p *Parser) parseCatchClause() NodeID {
	id := p.open(KindCatchClause)
	p.advance()
	p.expect(TokenLParen)
	param := p.open(KindParameter)
	p.add(param, p.parseModifiers())
	for p.startsType() {
		p.add(param, p.parseType())
		if !p.accept(TokenBitOr) {
			break
		}
	}
	p.parseName(param)
	p.add(id, p.close(param))
	p.expect(TokenRParen)
	p.add(id, p.parseBlock())
	return p.close(id)
}

func (p *Parser) parseSynchronizedStmt() NodeID {
	id := p.open(KindSynchronizedStmt)
	p.advance()
	p.parseParenExpression(id)
	p.add(id, p.parseBlock())
	return p.close(id)
}

func (p *Parser) parseAssertStmt() NodeID {
	id := p.open(KindAssertStmt)
	p.advance()
	p.add(id, p.parseExpression())
	if p.accept(TokenColon) {
		p.add(id, p.parseExpression())
	}
	p.expect(TokenSemicolon)
	return p.close(id)
}

func (p *Parser) parseLabeledStmt() NodeID {
	id := p.open(KindLabeledStmt)
	p.add(id, p.leaf(KindIdentifier))
	p.advance()
	p.add(id, p.parseStatement())
	return p.close(id)
}
