// Package parser provides an error-tolerant parser for Java source code.
//
// # Overview
//
// The parser turns one compilation unit into a syntax tree suitable for
// editor tooling, where incomplete or malformed input is the normal case.
// It never fails: anything it cannot make sense of becomes a KindError node
// plus a Diagnostic, and parsing resumes at the next statement or member.
//
//	┌─────────────┐     ┌─────────────┐     ┌─────────────┐
//	│   Source    │────▶│   Lexer     │────▶│   Parser    │
//	│  (bytes)    │     │  (tokens)   │     │   (Tree)    │
//	└─────────────┘     └─────────────┘     └─────────────┘
//	                           │                   │
//	                           ▼                   ▼
//	                    ┌─────────────┐     ┌─────────────┐
//	                    │  Comments   │     │ Diagnostics │
//	                    │  (trivia)   │     │             │
//	                    └─────────────┘     └─────────────┘
//
// # Tokens
//
// Tokenize produces the token stream. Comments are not tokens of their own;
// they are attached to the following token as Leading trivia, which is how
// Javadoc is found for a declaration. Contextual keywords (var, record,
// yield, sealed, permits, when) are plain identifiers at this level, and
// '>' is never merged with a following '>' or '=': the parser decides
// whether a run of '>' closes type arguments or forms an operator.
//
// # Tree
//
// All nodes of a parse live in one arena owned by the Tree and refer to each
// other by NodeID. Every node carries its source Span; children are ordered
// and lie within their parent. Nodes standing for a single token keep it in
// Node.Token.
//
//	CompilationUnit
//	  ClassDecl
//	    Identifier Foo
//	    ClassBody
//	      MethodDecl
//	        Type Fancy
//	        Identifier baz
//	        Parameters
//	        Block
//	          ReturnStmt
//	            IncompleteMemberAccess
//	              Identifier field1
//
// # Incomplete member access
//
// A '.' with no member after it, as in "return field1." while the user is
// still typing, becomes a KindIncompleteMemberAccess node wrapping the
// qualifier. The missing ';' that usually follows is not reported. When the
// cursor offset is known (WithCursor), a '.' right before the cursor ends
// the expression even if an identifier follows on a later line.
//
// # Example Usage
//
//	tree := parser.Parse(src, parser.WithFile("Foo.java"), parser.WithCursor(offset))
//	for _, d := range tree.Diagnostics {
//	    fmt.Println(d)
//	}
//	node := tree.NodeAt(offset)
package parser
