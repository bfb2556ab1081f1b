package parser

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNodeKindString(t *testing.T) {
	tests := []struct {
		kind NodeKind
		want string
	}{
		{KindError, "Error"},
		{KindCompilationUnit, "CompilationUnit"},
		{KindRecordDecl, "RecordDecl"},
		{KindMethodDecl, "MethodDecl"},
		{KindEnhancedForStmt, "EnhancedForStmt"},
		{KindGenericCallExpr, "GenericCallExpr"},
		{KindIncompleteMemberAccess, "IncompleteMemberAccess"},
		{NodeKind(9999), "NodeKind(9999)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("NodeKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
			}
		})
	}
}

func TestTreeNavigation(t *testing.T) {
	tree := Parse([]byte("class A { int x; void m() {} void n() {} }"))

	class := tree.TypeDecls()[0]
	body := tree.Body(class)
	if tree.Kind(body) != KindClassBody {
		t.Fatalf("body kind = %v", tree.Kind(body))
	}

	t.Run("FirstChildOfKind", func(t *testing.T) {
		m := tree.FirstChildOfKind(body, KindMethodDecl)
		if tree.DeclName(m) != "m" {
			t.Errorf("first method = %q, want m", tree.DeclName(m))
		}
		if tree.FirstChildOfKind(body, KindIfStmt) != NoNode {
			t.Error("expected NoNode for a missing kind")
		}
	})

	t.Run("ChildrenOfKind", func(t *testing.T) {
		if n := len(tree.ChildrenOfKind(body, KindMethodDecl)); n != 2 {
			t.Errorf("methods = %d, want 2", n)
		}
		if n := len(tree.ChildrenOfKind(body, KindFieldDecl)); n != 1 {
			t.Errorf("fields = %d, want 1", n)
		}
	})

	t.Run("Parent and Ancestors", func(t *testing.T) {
		m := tree.FirstChildOfKind(body, KindMethodDecl)
		if tree.Parent(m) != body {
			t.Error("method parent should be the class body")
		}
		anc := tree.Ancestors(m)
		if len(anc) != 3 || anc[len(anc)-1] != tree.Root {
			t.Errorf("ancestors = %v, want body, class, root", anc)
		}
		if tree.Parent(tree.Root) != NoNode {
			t.Error("root has no parent")
		}
	})

	t.Run("out of range ids", func(t *testing.T) {
		if tree.Node(NoNode) != nil || tree.Node(NodeID(tree.Len())) != nil {
			t.Error("Node should return nil for invalid ids")
		}
		if tree.Kind(NoNode) != KindError || tree.Children(NoNode) != nil {
			t.Error("accessors should tolerate NoNode")
		}
	})
}

func TestTreeWalkSkipsChildren(t *testing.T) {
	tree := Parse([]byte("class A { void m() { int x = 1; } }"))

	var kinds []NodeKind
	tree.Walk(tree.Root, func(id NodeID) bool {
		kinds = append(kinds, tree.Kind(id))
		return tree.Kind(id) != KindMethodDecl
	})

	for _, k := range kinds {
		if k == KindLocalVarDecl {
			t.Fatal("walk descended into a skipped method")
		}
	}
	if kinds[0] != KindCompilationUnit {
		t.Errorf("walk should start at the root, got %v", kinds[0])
	}
}

func TestTreeNodeAt(t *testing.T) {
	src := "class A { void m() { foo.bar(); } }"
	tree := Parse([]byte(src))

	offset := strings.Index(src, "bar") + 1
	id := tree.NodeAt(offset)
	if tree.Kind(id) != KindIdentifier || tree.TokenLiteral(id) != "bar" {
		t.Errorf("NodeAt(%d) = %v %q, want Identifier bar", offset, tree.Kind(id), tree.TokenLiteral(id))
	}

	// a cursor right after the last character still hits the token
	end := strings.Index(src, "foo") + len("foo")
	if id := tree.NodeAt(end); tree.TokenLiteral(id) != "foo" {
		t.Errorf("NodeAt(%d) = %q, want foo", end, tree.TokenLiteral(id))
	}
}

func TestTreeDoc(t *testing.T) {
	src := "class A {\n  /** Says hi */\n  @Deprecated\n  void hi() {}\n  // not doc\n  void bye() {}\n}"
	tree := Parse([]byte(src))

	methods := tree.ChildrenOfKind(tree.Body(tree.TypeDecls()[0]), KindMethodDecl)
	if got := tree.Doc(methods[0]); got != "/** Says hi */" {
		t.Errorf("Doc(hi) = %q", got)
	}
	if got := tree.Doc(methods[1]); got != "" {
		t.Errorf("Doc(bye) = %q, want empty", got)
	}
}

func TestTreeString(t *testing.T) {
	tree := Parse([]byte("class A { int[] xs; }"))
	want := strings.Join([]string{
		"CompilationUnit",
		"  ClassDecl",
		"    Identifier A",
		"    ClassBody",
		"      FieldDecl",
		"        Type int []",
		"        VarDeclarator",
		"          Identifier xs",
		"",
	}, "\n")
	if got := tree.String(); got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}
	if !strings.Contains(tree.StringWithPositions(), "ClassDecl [1:1-1:22]") {
		t.Errorf("positions missing:\n%s", tree.StringWithPositions())
	}
}

func TestTreeMarshalJSON(t *testing.T) {
	tree := Parse([]byte("class A { void m() { x. } }"), WithFile("A.java"))

	data, err := json.Marshal(tree)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded struct {
		File string `json:"file"`
		Root struct {
			Kind string `json:"kind"`
		} `json:"root"`
		Diagnostics []struct {
			Kind string `json:"kind"`
		} `json:"diagnostics"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.File != "A.java" || decoded.Root.Kind != "CompilationUnit" {
		t.Errorf("decoded = %+v", decoded)
	}
	if len(decoded.Diagnostics) == 0 || decoded.Diagnostics[0].Kind != "SyntaxError" {
		t.Errorf("diagnostics = %+v, want a SyntaxError", decoded.Diagnostics)
	}
}
