package codebase

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/dhamidi/jsuggest/java"
	"github.com/dhamidi/jsuggest/java/javadoc"
)

const lsName = "jsuggest"

type LSPServer struct {
	fs      afero.Fs
	opts    []Option
	handler protocol.Handler
	server  *server.Server
	version string

	mu       sync.Mutex
	codebase *Codebase
	cancel   context.CancelFunc
}

// NewLSPServer serves the codebase rooted at the workspace the client opens.
// opts configure that codebase.
func NewLSPServer(version string, fs afero.Fs, opts ...Option) *LSPServer {
	ls := &LSPServer{
		fs:      fs,
		opts:    opts,
		version: version,
	}

	ls.handler = protocol.Handler{
		Initialize:             ls.initialize,
		Initialized:            ls.initialized,
		Shutdown:               ls.shutdown,
		SetTrace:               ls.setTrace,
		TextDocumentDidOpen:    ls.textDocumentDidOpen,
		TextDocumentDidChange:  ls.textDocumentDidChange,
		TextDocumentDidClose:   ls.textDocumentDidClose,
		TextDocumentDidSave:    ls.textDocumentDidSave,
		TextDocumentCompletion: ls.textDocumentCompletion,
		TextDocumentDefinition: ls.textDocumentDefinition,
		TextDocumentHover:      ls.textDocumentHover,
	}

	ls.server = server.NewServer(&ls.handler, lsName, false)

	return ls
}

func (ls *LSPServer) RunStdio() error {
	return ls.server.RunStdio()
}

func (ls *LSPServer) current() *Codebase {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.codebase
}

func (ls *LSPServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	rootDir := "."
	if params.RootURI != nil && *params.RootURI != "" {
		if path, err := pathFromURI(*params.RootURI); err == nil {
			rootDir = path
		}
	} else if params.RootPath != nil && *params.RootPath != "" {
		rootDir = *params.RootPath
	}

	ls.mu.Lock()
	if ls.codebase == nil {
		ls.codebase = New(ls.fs, rootDir, ls.opts...)
	}
	ls.mu.Unlock()
	log.Infof("workspace %s", rootDir)

	capabilities := ls.handler.CreateServerCapabilities()

	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    syncKindPtr(protocol.TextDocumentSyncKindFull),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{"."},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &ls.version,
		},
	}, nil
}

func (ls *LSPServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	c := ls.current()
	if c == nil {
		return nil
	}
	watchCtx, cancel := context.WithCancel(context.Background())
	ls.mu.Lock()
	ls.cancel = cancel
	ls.mu.Unlock()

	go func() {
		if err := c.ScanAll(watchCtx); err != nil {
			log.Warningf("scan: %s", err)
		}
		if err := NewWatcher(c, 0).Run(watchCtx); err != nil {
			log.Warningf("watch: %s", err)
		}
	}()
	return nil
}

func (ls *LSPServer) shutdown(ctx *glsp.Context) error {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.cancel != nil {
		ls.cancel()
		ls.cancel = nil
	}
	return nil
}

func (ls *LSPServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *LSPServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	c, path, ok := ls.document(params.TextDocument.URI)
	if !ok {
		return nil
	}
	c.UpdateFile(path, []byte(params.TextDocument.Text))
	return nil
}

func (ls *LSPServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	c, path, ok := ls.document(params.TextDocument.URI)
	if !ok || len(params.ContentChanges) == 0 {
		return nil
	}
	change := params.ContentChanges[len(params.ContentChanges)-1]
	if whole, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
		c.UpdateFile(path, []byte(whole.Text))
	}
	return nil
}

func (ls *LSPServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	return nil
}

func (ls *LSPServer) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	c, path, ok := ls.document(params.TextDocument.URI)
	if !ok {
		return nil
	}
	if params.Text != nil {
		c.UpdateFile(path, []byte(*params.Text))
		return nil
	}
	if err := c.ScanFile(path); err != nil {
		log.Warning(err.Error())
	}
	return nil
}

func (ls *LSPServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	c, a, offset, ok := ls.query(params.TextDocument.URI, params.Position)
	if !ok {
		return nil, nil
	}
	suggestions, err := a.Suggest(context.Background(), c.Index(), offset)
	if err != nil {
		log.Warningf("completion: %s", err)
		return nil, nil
	}
	if len(suggestions) == 0 {
		return nil, nil
	}

	items := make([]protocol.CompletionItem, 0, len(suggestions))
	for _, s := range suggestions {
		kind := completionKind(s.Kind)
		detail := s.Signature
		insertText := insertText(s)
		format := protocol.InsertTextFormatSnippet
		item := protocol.CompletionItem{
			Label:            s.Name,
			Kind:             &kind,
			Detail:           &detail,
			InsertText:       &insertText,
			InsertTextFormat: &format,
		}
		if s.Doc != "" {
			item.Documentation = protocol.MarkupContent{Kind: protocol.MarkupKindMarkdown, Value: javadoc.Parse(s.Doc).Markdown()}
		}
		items = append(items, item)
	}
	return items, nil
}

func (ls *LSPServer) textDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	c, a, offset, ok := ls.query(params.TextDocument.URI, params.Position)
	if !ok {
		return nil, nil
	}
	loc, err := a.Define(context.Background(), c.Index(), offset)
	if err != nil {
		log.Warningf("definition: %s", err)
		return nil, nil
	}
	if loc == nil || loc.File == "" {
		return nil, nil
	}
	var content []byte
	if f := c.GetFile(loc.File); f != nil {
		content = f.Content
	}
	pos := positionAt(content, loc.Line, loc.Column)
	return protocol.Location{
		URI:   fileURI(loc.File),
		Range: protocol.Range{Start: pos, End: pos},
	}, nil
}

func (ls *LSPServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	c, a, offset, ok := ls.query(params.TextDocument.URI, params.Position)
	if !ok {
		return nil, nil
	}
	doc, err := a.Document(context.Background(), c.Index(), offset)
	if err != nil {
		log.Warningf("hover: %s", err)
		return nil, nil
	}
	if doc == "" {
		return nil, nil
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.MarkupKindMarkdown, Value: javadoc.Parse(doc).Markdown()},
	}, nil
}

func (ls *LSPServer) document(uri protocol.DocumentUri) (*Codebase, string, bool) {
	c := ls.current()
	if c == nil {
		return nil, "", false
	}
	path, err := pathFromURI(uri)
	if err != nil {
		log.Warning(err.Error())
		return nil, "", false
	}
	return c, path, true
}

// query parses the document again for a request at pos.
func (ls *LSPServer) query(uri protocol.DocumentUri, pos protocol.Position) (*Codebase, *java.Analysis, int, bool) {
	c, path, ok := ls.document(uri)
	if !ok {
		return nil, nil, 0, false
	}
	f := c.GetFile(path)
	if f == nil {
		return nil, nil, 0, false
	}
	offset := offsetAt(f.Content, pos)
	a, err := c.Analyze(path, offset)
	if err != nil {
		return nil, nil, 0, false
	}
	return c, a, offset, true
}

func completionKind(kind java.SuggestionKind) protocol.CompletionItemKind {
	switch kind {
	case java.SuggestMethod:
		return protocol.CompletionItemKindMethod
	case java.SuggestField:
		return protocol.CompletionItemKindField
	case java.SuggestNestedType:
		return protocol.CompletionItemKindClass
	case java.SuggestLocal:
		return protocol.CompletionItemKindVariable
	default:
		return protocol.CompletionItemKindText
	}
}

// insertText is the name, with a snippet of parameter placeholders for
// methods.
func insertText(s java.Suggestion) string {
	if s.Kind != java.SuggestMethod {
		return s.Name
	}
	if len(s.Parameters) == 0 {
		return s.Name + "()"
	}
	placeholders := make([]string, 0, len(s.Parameters))
	for i, p := range s.Parameters {
		name := p.Name
		if name == "" {
			name = p.Type.SimpleString()
		}
		placeholders = append(placeholders, "${"+strconv.Itoa(i+1)+":"+name+"}")
	}
	return s.Name + "(" + strings.Join(placeholders, ", ") + ")"
}

func boolPtr(b bool) *bool {
	return &b
}

func syncKindPtr(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
