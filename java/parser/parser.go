package parser

type Option func(*Parser)

// WithFile sets the file name recorded in positions and diagnostics.
func WithFile(path string) Option {
	return func(p *Parser) {
		p.file = path
	}
}

// WithCursor tells the parser where the editing cursor is. A '.' directly
// before the cursor is treated as having no selector even when an identifier
// follows on a later line, so half-typed member accesses are not glued to the
// next statement.
func WithCursor(offset int) Option {
	return func(p *Parser) {
		p.cursor = offset
	}
}

// Parser is a recursive-descent parser producing a Tree. It never fails: any
// construct it cannot make sense of becomes a KindError node and a SyntaxError
// diagnostic, and parsing resumes at the next statement or member boundary.
type Parser struct {
	file   string
	cursor int
	src    []byte
	tokens []Token
	pos    int
	nodes  []Node
	diags  []Diagnostic

	// position of the token following the most recent incomplete member
	// access; a missing ';' right there is expected and not reported.
	incompleteAt int
}

func newParser(opts []Option) *Parser {
	p := &Parser{cursor: -1, incompleteAt: -1}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse tokenizes and parses one compilation unit.
func Parse(src []byte, opts ...Option) *Tree {
	p := newParser(opts)
	tokens, diags := Tokenize(src, p.file)
	return p.run(src, tokens, diags)
}

// ParseTokens parses an already tokenized compilation unit. tokens must come
// from Tokenize on src.
func ParseTokens(src []byte, tokens []Token, opts ...Option) *Tree {
	p := newParser(opts)
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != TokenEOF {
		end := endPosition(src, p.file)
		tokens = append(tokens[:len(tokens):len(tokens)], Token{Kind: TokenEOF, Span: Span{Start: end, End: end}})
	}
	return p.run(src, tokens, nil)
}

func endPosition(src []byte, file string) Position {
	pos := Position{File: file, Offset: len(src), Line: 1, Column: 1}
	for _, ch := range src {
		if ch == '\n' {
			pos.Line++
			pos.Column = 1
		} else {
			pos.Column++
		}
	}
	return pos
}

func (p *Parser) run(src []byte, tokens []Token, diags []Diagnostic) *Tree {
	p.src = src
	p.tokens = tokens
	p.diags = append(p.diags, diags...)

	root := p.parseCompilationUnit()
	p.nodes[root].Span = Span{
		Start: Position{File: p.file, Offset: 0, Line: 1, Column: 1},
		End:   p.tokens[len(p.tokens)-1].Span.End,
	}

	for i := range p.nodes {
		for _, c := range p.nodes[i].Children {
			p.nodes[c].Parent = NodeID(i)
		}
	}

	return &Tree{
		File:        p.file,
		Source:      src,
		Tokens:      p.tokens,
		Root:        root,
		Diagnostics: p.diags,
		nodes:       p.nodes,
	}
}

// Token access

func (p *Parser) peek() *Token {
	if p.pos >= len(p.tokens) {
		return &p.tokens[len(p.tokens)-1]
	}
	return &p.tokens[p.pos]
}

func (p *Parser) peekN(n int) *Token {
	if p.pos+n >= len(p.tokens) {
		return &p.tokens[len(p.tokens)-1]
	}
	return &p.tokens[p.pos+n]
}

func (p *Parser) advance() *Token {
	tok := p.peek()
	if tok.Kind != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *Parser) check(kind TokenKind) bool {
	return p.peek().Kind == kind
}

func (p *Parser) checkN(n int, kind TokenKind) bool {
	return p.peekN(n).Kind == kind
}

func (p *Parser) match(kinds ...TokenKind) bool {
	for _, kind := range kinds {
		if p.check(kind) {
			return true
		}
	}
	return false
}

// accept consumes the current token if it has the given kind.
func (p *Parser) accept(kind TokenKind) bool {
	if p.check(kind) {
		p.advance()
		return true
	}
	return false
}

// expect consumes a token of the given kind or records a SyntaxError without
// consuming anything.
func (p *Parser) expect(kind TokenKind) bool {
	if p.accept(kind) {
		return true
	}
	if kind == TokenSemicolon && p.pos == p.incompleteAt {
		return false
	}
	tok := p.peek()
	p.diag(tok.Span, "expected %s, got %s", kind, describe(tok))
	return false
}

func describe(tok *Token) string {
	if tok.Kind == TokenEOF {
		return "end of file"
	}
	return "'" + tok.Literal + "'"
}

func (p *Parser) isIdentifierLike() bool {
	return p.peek().Kind.IsIdentifier()
}

// peekKind is the current token's kind with names folded to TokenIdent.
func (p *Parser) peekKind() TokenKind {
	if k := p.peek().Kind; !k.IsIdentifier() {
		return k
	}
	return TokenIdent
}

// adjacent reports whether the token at pos+n starts exactly where the
// previous token ends.
func (p *Parser) adjacent(n int) bool {
	i := p.pos + n
	if i <= 0 || i >= len(p.tokens) {
		return false
	}
	return p.tokens[i].Span.Start.Offset == p.tokens[i-1].Span.End.Offset
}

func (p *Parser) diag(span Span, format string, args ...any) {
	p.diags = append(p.diags, newDiagnostic(SyntaxError, span, format, args...))
}

// Speculation

type mark struct {
	pos, nodes, diags int
}

func (p *Parser) mark() mark {
	return mark{pos: p.pos, nodes: len(p.nodes), diags: len(p.diags)}
}

// reset rewinds to m, discarding every node and diagnostic created since.
func (p *Parser) reset(m mark) {
	p.pos = m.pos
	p.nodes = p.nodes[:m.nodes]
	p.diags = p.diags[:m.diags]
}

func (p *Parser) failedSince(m mark) bool {
	return len(p.diags) > m.diags
}

// Node construction

func (p *Parser) open(kind NodeKind) NodeID {
	return p.openAt(kind, p.peek().Span.Start)
}

func (p *Parser) openAt(kind NodeKind, start Position) NodeID {
	p.nodes = append(p.nodes, Node{
		Kind:   kind,
		Span:   Span{Start: start, End: start},
		Parent: NoNode,
	})
	return NodeID(len(p.nodes) - 1)
}

func (p *Parser) add(parent, child NodeID) {
	if child == NoNode {
		return
	}
	p.nodes[parent].Children = append(p.nodes[parent].Children, child)
}

// close ends the node at the last consumed token, or at its last child when
// that reaches further.
func (p *Parser) close(id NodeID) NodeID {
	n := &p.nodes[id]
	end := n.Span.Start
	if p.pos > 0 {
		if prev := p.tokens[p.pos-1].Span.End; prev.Offset > end.Offset {
			end = prev
		}
	}
	if k := len(n.Children); k > 0 {
		if last := p.nodes[n.Children[k-1]].Span.End; last.Offset > end.Offset {
			end = last
		}
	}
	n.Span.End = end
	return id
}

// leaf makes a single-token node from the current token.
func (p *Parser) leaf(kind NodeKind) NodeID {
	tok := p.advance()
	p.nodes = append(p.nodes, Node{
		Kind:   kind,
		Span:   tok.Span,
		Parent: NoNode,
		Token:  tok,
	})
	return NodeID(len(p.nodes) - 1)
}

func (p *Parser) start(id NodeID) Position {
	return p.nodes[id].Span.Start
}

// errorAt opens an error node covering children and records a diagnostic at
// the current token. The caller recovers and then closes the node.
func (p *Parser) errorAt(start Position, msg string, children ...NodeID) NodeID {
	tok := p.peek()
	id := p.openAt(KindError, start)
	p.nodes[id].Error = &Error{Message: msg, Got: tok}
	for _, c := range children {
		p.add(id, c)
	}
	p.diag(tok.Span, "%s, got %s", msg, describe(tok))
	return id
}

// guard makes sure a loop iteration consumed input. When nothing was consumed
// the offending token is wrapped in an error node under parent.
func (p *Parser) guard(parent NodeID, before int) {
	if p.pos != before || p.check(TokenEOF) {
		return
	}
	id := p.errorAt(p.peek().Span.Start, "unexpected token")
	p.advance()
	p.add(parent, p.close(id))
}

// recoverMember skips to the next class member boundary: past a ';' or up to
// a '}' that closes the body, skipping balanced blocks on the way.
func (p *Parser) recoverMember() {
	depth := 0
	startLine := p.peek().Span.Start.Line
	for !p.check(TokenEOF) {
		tok := p.peek()
		switch tok.Kind {
		case TokenLBrace:
			depth++
		case TokenRBrace:
			if depth == 0 {
				return
			}
			depth--
			if depth == 0 {
				p.advance()
				return
			}
		case TokenSemicolon:
			if depth == 0 {
				p.advance()
				return
			}
		case TokenPublic, TokenProtected, TokenPrivate, TokenStatic, TokenClass, TokenInterface, TokenEnum, TokenAt:
			if depth == 0 && tok.Span.Start.Line != startLine {
				return
			}
		}
		p.advance()
	}
}

// recoverStatement skips to the next statement boundary: past a ';' or up
// to a '}' closing the enclosing block.
func (p *Parser) recoverStatement() {
	depth := 0
	for !p.check(TokenEOF) {
		switch p.peek().Kind {
		case TokenLBrace, TokenLParen, TokenLBracket:
			depth++
		case TokenRParen, TokenRBracket:
			if depth > 0 {
				depth--
			}
		case TokenRBrace:
			if depth == 0 {
				return
			}
			depth--
		case TokenSemicolon:
			if depth == 0 {
				p.advance()
				return
			}
		}
		p.advance()
	}
}

// Compilation unit

func (p *Parser) parseCompilationUnit() NodeID {
	id := p.open(KindCompilationUnit)

	if p.check(TokenPackage) || p.isAnnotatedPackage() {
		p.add(id, p.parsePackageDecl())
	}

	for p.check(TokenImport) || p.check(TokenSemicolon) {
		if p.accept(TokenSemicolon) {
			continue
		}
		p.add(id, p.parseImportDecl())
	}

	for !p.check(TokenEOF) {
		if p.accept(TokenSemicolon) {
			continue
		}
		before := p.pos
		p.add(id, p.parseTypeDecl())
		p.guard(id, before)
	}

	return p.close(id)
}

func (p *Parser) isAnnotatedPackage() bool {
	if !p.check(TokenAt) {
		return false
	}
	m := p.mark()
	defer p.reset(m)
	for p.check(TokenAt) && !p.checkN(1, TokenInterface) {
		p.parseAnnotation()
	}
	return p.check(TokenPackage)
}

func (p *Parser) parsePackageDecl() NodeID {
	id := p.open(KindPackageDecl)
	for p.check(TokenAt) {
		p.add(id, p.parseAnnotation())
	}
	p.expect(TokenPackage)
	p.add(id, p.parseQualifiedName())
	p.expect(TokenSemicolon)
	return p.close(id)
}

func (p *Parser) parseImportDecl() NodeID {
	id := p.open(KindImportDecl)
	p.advance()
	if p.accept(TokenStatic) {
		p.nodes[id].Flags |= FlagStatic
	}
	p.add(id, p.parseQualifiedName())
	if p.check(TokenDot) && p.checkN(1, TokenStar) {
		p.advance()
		p.advance()
		p.nodes[id].Flags |= FlagWildcard
	}
	p.expect(TokenSemicolon)
	return p.close(id)
}

func (p *Parser) parseQualifiedName() NodeID {
	id := p.open(KindQualifiedName)
	if !p.isIdentifierLike() {
		p.diag(p.peek().Span, "expected identifier, got %s", describe(p.peek()))
		return p.close(id)
	}
	p.add(id, p.leaf(KindIdentifier))
	for p.check(TokenDot) && p.peekN(1).Kind.IsIdentifier() {
		p.advance()
		p.add(id, p.leaf(KindIdentifier))
	}
	return p.close(id)
}

// Type declarations

func (p *Parser) parseTypeDecl() NodeID {
	start := p.peek().Span.Start
	mods := p.parseModifiers()
	if decl := p.parseTypeDeclRest(start, mods); decl != NoNode {
		return decl
	}
	id := p.errorAt(start, "expected type declaration", mods)
	p.recoverMember()
	return p.close(id)
}

// parseTypeDeclRest parses a class, interface, enum, record or annotation
// declaration after its modifiers. It returns NoNode when none starts here.
func (p *Parser) parseTypeDeclRest(start Position, mods NodeID) NodeID {
	switch {
	case p.check(TokenClass):
		return p.parseClassDecl(start, mods)
	case p.check(TokenInterface):
		return p.parseInterfaceDecl(start, mods)
	case p.check(TokenEnum):
		return p.parseEnumDecl(start, mods)
	case p.check(TokenAt) && p.checkN(1, TokenInterface):
		return p.parseAnnotationDecl(start, mods)
	case p.isRecordDecl():
		return p.parseRecordDecl(start, mods)
	}
	return NoNode
}

func (p *Parser) isRecordDecl() bool {
	return p.check(TokenRecord) && p.peekN(1).Kind.IsIdentifier() &&
		(p.checkN(2, TokenLParen) || p.checkN(2, TokenLT))
}

func (p *Parser) isTypeDeclStart() bool {
	return p.match(TokenClass, TokenInterface, TokenEnum) ||
		(p.check(TokenAt) && p.checkN(1, TokenInterface)) ||
		p.isRecordDecl()
}

func (p *Parser) parseName(parent NodeID) {
	if p.isIdentifierLike() {
		p.add(parent, p.leaf(KindIdentifier))
		return
	}
	p.diag(p.peek().Span, "expected identifier, got %s", describe(p.peek()))
}

func (p *Parser) parseClassDecl(start Position, mods NodeID) NodeID {
	id := p.openAt(KindClassDecl, start)
	p.add(id, mods)
	p.advance()
	p.parseName(id)
	if p.check(TokenLT) {
		p.add(id, p.parseTypeParameters())
	}
	if p.check(TokenExtends) {
		p.add(id, p.parseTypeClause(KindExtendsClause))
	}
	if p.check(TokenImplements) {
		p.add(id, p.parseTypeClause(KindImplementsClause))
	}
	if p.check(TokenPermits) {
		p.add(id, p.parseTypeClause(KindPermitsClause))
	}
	p.add(id, p.parseClassBody(false))
	return p.close(id)
}

func (p *Parser) parseInterfaceDecl(start Position, mods NodeID) NodeID {
	id := p.openAt(KindInterfaceDecl, start)
	p.add(id, mods)
	p.advance()
	p.parseName(id)
	if p.check(TokenLT) {
		p.add(id, p.parseTypeParameters())
	}
	if p.check(TokenExtends) {
		p.add(id, p.parseTypeClause(KindExtendsClause))
	}
	if p.check(TokenPermits) {
		p.add(id, p.parseTypeClause(KindPermitsClause))
	}
	p.add(id, p.parseClassBody(false))
	return p.close(id)
}

func (p *Parser) parseEnumDecl(start Position, mods NodeID) NodeID {
	id := p.openAt(KindEnumDecl, start)
	p.add(id, mods)
	p.advance()
	p.parseName(id)
	if p.check(TokenImplements) {
		p.add(id, p.parseTypeClause(KindImplementsClause))
	}
	p.add(id, p.parseClassBody(true))
	return p.close(id)
}

func (p *Parser) parseRecordDecl(start Position, mods NodeID) NodeID {
	id := p.openAt(KindRecordDecl, start)
	p.add(id, mods)
	p.advance()
	p.parseName(id)
	if p.check(TokenLT) {
		p.add(id, p.parseTypeParameters())
	}
	p.add(id, p.parseParameters())
	if p.check(TokenImplements) {
		p.add(id, p.parseTypeClause(KindImplementsClause))
	}
	p.add(id, p.parseClassBody(false))
	return p.close(id)
}

func (p *Parser) parseAnnotationDecl(start Position, mods NodeID) NodeID {
	id := p.openAt(KindAnnotationDecl, start)
	p.add(id, mods)
	p.advance()
	p.advance()
	p.parseName(id)
	p.add(id, p.parseClassBody(false))
	return p.close(id)
}

// parseTypeClause parses "extends A, B", "implements A" or "permits A, B".
func (p *Parser) parseTypeClause(kind NodeKind) NodeID {
	id := p.open(kind)
	p.advance()
	for {
		if !p.startsType() {
			p.diag(p.peek().Span, "expected type, got %s", describe(p.peek()))
			break
		}
		p.add(id, p.parseType())
		if !p.accept(TokenComma) {
			break
		}
	}
	return p.close(id)
}

func (p *Parser) parseClassBody(isEnum bool) NodeID {
	id := p.open(KindClassBody)
	if !p.expect(TokenLBrace) {
		return p.close(id)
	}
	if isEnum {
		p.parseEnumConstants(id)
	}
	for !p.check(TokenRBrace) && !p.check(TokenEOF) {
		if p.accept(TokenSemicolon) {
			continue
		}
		before := p.pos
		p.add(id, p.parseClassMember())
		p.guard(id, before)
	}
	p.expect(TokenRBrace)
	return p.close(id)
}

func (p *Parser) parseEnumConstants(body NodeID) {
	for p.isIdentifierLike() || p.check(TokenAt) {
		before := p.pos
		p.add(body, p.parseEnumConstant())
		if !p.accept(TokenComma) || p.pos == before {
			break
		}
	}
	p.accept(TokenSemicolon)
}

func (p *Parser) parseEnumConstant() NodeID {
	id := p.open(KindEnumConstant)
	p.add(id, p.parseModifiers())
	p.parseName(id)
	if p.check(TokenLParen) {
		p.add(id, p.parseArguments())
	}
	if p.check(TokenLBrace) {
		p.add(id, p.parseClassBody(false))
	}
	return p.close(id)
}

func (p *Parser) parseClassMember() NodeID {
	start := p.peek().Span.Start
	mods := p.parseModifiers()

	if p.check(TokenLBrace) {
		id := p.openAt(KindInitializer, start)
		p.add(id, mods)
		p.add(id, p.parseBlock())
		return p.close(id)
	}

	if decl := p.parseTypeDeclRest(start, mods); decl != NoNode {
		return decl
	}

	typeParams := NoNode
	if p.check(TokenLT) {
		typeParams = p.parseTypeParameters()
	}

	if p.isIdentifierLike() && p.checkN(1, TokenLParen) {
		return p.parseConstructor(start, mods, typeParams)
	}
	if p.isIdentifierLike() && p.checkN(1, TokenLBrace) && typeParams == NoNode {
		return p.parseCompactConstructor(start, mods)
	}

	if !p.startsType() {
		id := p.errorAt(start, "expected member declaration", mods, typeParams)
		p.recoverMember()
		return p.close(id)
	}

	typ := p.parseType()
	if p.isIdentifierLike() && p.checkN(1, TokenLParen) {
		return p.parseMethod(start, mods, typeParams, typ)
	}
	if p.isIdentifierLike() && typeParams == NoNode {
		return p.parseField(start, mods, typ)
	}

	id := p.errorAt(start, "expected member name", mods, typeParams, typ)
	p.recoverMember()
	return p.close(id)
}

func (p *Parser) parseConstructor(start Position, mods, typeParams NodeID) NodeID {
	id := p.openAt(KindConstructorDecl, start)
	p.add(id, mods)
	p.add(id, typeParams)
	p.parseName(id)
	p.add(id, p.parseParameters())
	if p.check(TokenThrows) {
		p.add(id, p.parseThrowsList())
	}
	if p.check(TokenLBrace) {
		p.add(id, p.parseBlock())
	} else {
		p.expect(TokenSemicolon)
	}
	return p.close(id)
}

func (p *Parser) parseCompactConstructor(start Position, mods NodeID) NodeID {
	id := p.openAt(KindConstructorDecl, start)
	p.add(id, mods)
	p.parseName(id)
	p.add(id, p.parseBlock())
	return p.close(id)
}

func (p *Parser) parseMethod(start Position, mods, typeParams, returnType NodeID) NodeID {
	id := p.openAt(KindMethodDecl, start)
	p.add(id, mods)
	p.add(id, typeParams)
	p.add(id, returnType)
	p.parseName(id)
	p.add(id, p.parseParameters())
	p.nodes[id].Dims = p.parseDims()
	if p.check(TokenThrows) {
		p.add(id, p.parseThrowsList())
	}
	switch {
	case p.check(TokenLBrace):
		p.add(id, p.parseBlock())
	case p.check(TokenDefault):
		dv := p.open(KindDefaultValue)
		p.advance()
		p.add(dv, p.parseElementValue())
		p.add(id, p.close(dv))
		p.expect(TokenSemicolon)
	default:
		p.expect(TokenSemicolon)
	}
	return p.close(id)
}

func (p *Parser) parseField(start Position, mods, typ NodeID) NodeID {
	id := p.openAt(KindFieldDecl, start)
	p.add(id, mods)
	p.add(id, typ)
	p.parseDeclarators(id)
	p.expect(TokenSemicolon)
	return p.close(id)
}

// parseDeclarators parses "a = 1, b[], c" into VarDeclarator children.
func (p *Parser) parseDeclarators(parent NodeID) {
	for {
		if !p.isIdentifierLike() {
			p.diag(p.peek().Span, "expected variable name, got %s", describe(p.peek()))
			return
		}
		p.add(parent, p.parseDeclarator())
		if !p.accept(TokenComma) {
			return
		}
	}
}

func (p *Parser) parseDeclarator() NodeID {
	id := p.open(KindVarDeclarator)
	p.add(id, p.leaf(KindIdentifier))
	p.nodes[id].Dims = p.parseDims()
	if p.accept(TokenAssign) {
		p.add(id, p.parseVarInitializer())
	}
	return p.close(id)
}

func (p *Parser) parseVarInitializer() NodeID {
	if p.check(TokenLBrace) {
		return p.parseArrayInitializer()
	}
	return p.parseExpression()
}

func (p *Parser) parseArrayInitializer() NodeID {
	id := p.open(KindArrayInit)
	p.advance()
	for !p.check(TokenRBrace) && !p.check(TokenEOF) {
		before := p.pos
		p.add(id, p.parseVarInitializer())
		if !p.accept(TokenComma) {
			break
		}
		if p.pos == before {
			break
		}
	}
	p.expect(TokenRBrace)
	return p.close(id)
}

// parseDims consumes "[]" pairs and returns how many there were.
func (p *Parser) parseDims() int {
	dims := 0
	for {
		m := p.mark()
		for p.check(TokenAt) {
			p.parseAnnotation()
		}
		if p.check(TokenLBracket) && p.checkN(1, TokenRBracket) {
			p.advance()
			p.advance()
			dims++
			continue
		}
		p.reset(m)
		return dims
	}
}

func (p *Parser) parseParameters() NodeID {
	id := p.open(KindParameters)
	if !p.expect(TokenLParen) {
		return p.close(id)
	}
	for !p.check(TokenRParen) && !p.check(TokenEOF) {
		before := p.pos
		p.add(id, p.parseParameter())
		if !p.accept(TokenComma) || p.pos == before {
			break
		}
	}
	p.expect(TokenRParen)
	return p.close(id)
}

// parseParameter parses a formal parameter. Receiver parameters ("Foo this")
// produce a Parameter without a name.
func (p *Parser) parseParameter() NodeID {
	id := p.open(KindParameter)
	p.add(id, p.parseModifiers())
	if !p.startsType() {
		p.diag(p.peek().Span, "expected parameter type, got %s", describe(p.peek()))
		return p.close(id)
	}
	p.add(id, p.parseType())
	if p.accept(TokenEllipsis) {
		p.nodes[id].Flags |= FlagVarargs
	}
	switch {
	case p.check(TokenThis):
		p.advance()
	case p.isIdentifierLike() && p.checkN(1, TokenDot) && p.checkN(2, TokenThis):
		p.advance()
		p.advance()
		p.advance()
	default:
		p.parseName(id)
		p.nodes[id].Dims = p.parseDims()
	}
	return p.close(id)
}

func (p *Parser) parseThrowsList() NodeID {
	id := p.open(KindThrowsList)
	p.advance()
	for p.startsType() {
		p.add(id, p.parseType())
		if !p.accept(TokenComma) {
			break
		}
	}
	return p.close(id)
}
