package parser

// Modifiers, annotations and types.

func (p *Parser) isModifier() bool {
	tok := p.peek()
	switch tok.Kind {
	case TokenPublic, TokenProtected, TokenPrivate, TokenStatic, TokenAbstract, TokenFinal,
		TokenNative, TokenSynchronized, TokenTransient, TokenVolatile, TokenStrictfp:
		// synchronized (...) is a statement, not a modifier
		return !(tok.Kind == TokenSynchronized && p.checkN(1, TokenLParen))
	case TokenDefault:
		return !p.checkN(1, TokenColon) && !p.checkN(1, TokenArrow)
	case TokenSealed, TokenNonSealed:
		next := p.peekN(1)
		return next.Kind == TokenClass || next.Kind == TokenInterface || next.Kind == TokenAt ||
			next.Kind.IsKeyword() && next.Kind != TokenInstanceof
	}
	return false
}

// parseModifiers returns NoNode when there are no modifiers or annotations.
func (p *Parser) parseModifiers() NodeID {
	if !p.isModifier() && !(p.check(TokenAt) && !p.checkN(1, TokenInterface)) {
		return NoNode
	}
	id := p.open(KindModifiers)
	for {
		switch {
		case p.check(TokenAt) && !p.checkN(1, TokenInterface):
			p.add(id, p.parseAnnotation())
		case p.isModifier():
			p.add(id, p.leaf(KindModifier))
		default:
			return p.close(id)
		}
	}
}

func (p *Parser) parseAnnotation() NodeID {
	id := p.open(KindAnnotation)
	p.advance()
	p.add(id, p.parseQualifiedName())
	if !p.accept(TokenLParen) {
		return p.close(id)
	}
	for !p.check(TokenRParen) && !p.check(TokenEOF) {
		before := p.pos
		if p.isIdentifierLike() && p.checkN(1, TokenAssign) {
			el := p.open(KindAnnotationElement)
			p.add(el, p.leaf(KindIdentifier))
			p.advance()
			p.add(el, p.parseElementValue())
			p.add(id, p.close(el))
		} else {
			p.add(id, p.parseElementValue())
		}
		if !p.accept(TokenComma) || p.pos == before {
			break
		}
	}
	p.expect(TokenRParen)
	return p.close(id)
}

func (p *Parser) parseElementValue() NodeID {
	switch {
	case p.check(TokenAt):
		return p.parseAnnotation()
	case p.check(TokenLBrace):
		id := p.open(KindArrayInit)
		p.advance()
		for !p.check(TokenRBrace) && !p.check(TokenEOF) {
			before := p.pos
			p.add(id, p.parseElementValue())
			if !p.accept(TokenComma) || p.pos == before {
				break
			}
		}
		p.expect(TokenRBrace)
		return p.close(id)
	}
	return p.parseTernary()
}

func (p *Parser) parseTypeParameters() NodeID {
	id := p.open(KindTypeParameters)
	p.advance()
	for !p.check(TokenGT) && !p.check(TokenEOF) {
		before := p.pos
		p.add(id, p.parseTypeParameter())
		if !p.accept(TokenComma) || p.pos == before {
			break
		}
	}
	p.expect(TokenGT)
	return p.close(id)
}

func (p *Parser) parseTypeParameter() NodeID {
	id := p.open(KindTypeParameter)
	p.add(id, p.parseModifiers())
	p.parseName(id)
	if p.check(TokenExtends) {
		bound := p.open(KindTypeBound)
		p.advance()
		for p.startsType() {
			p.add(bound, p.parseType())
			if !p.accept(TokenBitAnd) {
				break
			}
		}
		p.add(id, p.close(bound))
	}
	return p.close(id)
}

// startsType reports whether a type can start at the current token.
func (p *Parser) startsType() bool {
	tok := p.peek()
	return tok.Kind.IsIdentifier() || tok.Kind == TokenVoid || tok.Kind.IsPrimitive() ||
		(tok.Kind == TokenAt && !p.checkN(1, TokenInterface))
}

func (p *Parser) parseType() NodeID {
	return p.parseTypeDims(true)
}

// parseTypeDims parses a primitive, void or class type. Class types keep one
// Identifier child per name segment, each optionally followed by its
// TypeArguments. Array dimensions are counted in Dims when withDims is set.
func (p *Parser) parseTypeDims(withDims bool) NodeID {
	id := p.open(KindType)
	for p.check(TokenAt) && !p.checkN(1, TokenInterface) {
		p.add(id, p.parseAnnotation())
	}
	tok := p.peek()
	switch {
	case tok.Kind.IsPrimitive() || tok.Kind == TokenVoid:
		p.nodes[id].Token = p.advance()
	case tok.Kind.IsIdentifier():
		for {
			p.add(id, p.leaf(KindIdentifier))
			if p.check(TokenLT) {
				p.add(id, p.parseTypeArguments())
			}
			if !p.check(TokenDot) {
				break
			}
			if p.peekN(1).Kind.IsIdentifier() {
				p.advance()
				continue
			}
			if p.checkN(1, TokenAt) {
				p.advance()
				for p.check(TokenAt) {
					p.add(id, p.parseAnnotation())
				}
				if p.isIdentifierLike() {
					continue
				}
			}
			break
		}
	default:
		p.diag(tok.Span, "expected type, got %s", describe(tok))
	}
	if withDims {
		p.nodes[id].Dims = p.parseDims()
	}
	return p.close(id)
}

// parseTypeArguments parses "<...>" including the diamond "<>". A run of '>'
// is always lexed as separate tokens, so each level closes on its own.
func (p *Parser) parseTypeArguments() NodeID {
	id := p.open(KindTypeArguments)
	p.advance()
	for !p.check(TokenGT) && !p.check(TokenEOF) {
		before := p.pos
		if p.check(TokenQuestion) {
			p.add(id, p.parseWildcard())
		} else if p.startsType() {
			p.add(id, p.parseType())
		} else {
			p.diag(p.peek().Span, "expected type argument, got %s", describe(p.peek()))
			break
		}
		if !p.accept(TokenComma) || p.pos == before {
			break
		}
	}
	p.expect(TokenGT)
	return p.close(id)
}

func (p *Parser) parseWildcard() NodeID {
	id := p.open(KindWildcard)
	p.nodes[id].Token = p.advance()
	if p.match(TokenExtends, TokenSuper) {
		if p.advance().Kind == TokenSuper {
			p.nodes[id].Flags |= FlagSuperBound
		}
		p.add(id, p.parseType())
	}
	return p.close(id)
}

// tryTypeArguments speculatively parses type arguments at '<'. It keeps the
// result only when the arguments close cleanly and are followed by a token
// that continues a type use; otherwise the '<' is left for the expression
// parser to treat as an operator.
func (p *Parser) tryTypeArguments(follow ...TokenKind) NodeID {
	if !p.check(TokenLT) {
		return NoNode
	}
	m := p.mark()
	id := p.parseTypeArguments()
	if !p.failedSince(m) && p.match(follow...) {
		return id
	}
	p.reset(m)
	return NoNode
}
