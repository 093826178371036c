// Package lsp implements a minimal Language Server Protocol front end for
// mkdlint: it reuses the same pkg/lint engine and pkg/parser/goldmark
// adapter the CLI's lint command drives, wiring them to an editor over
// JSON-RPC instead of the filesystem.
//
// Transport: stdio only. Protocol: a hand-written subset of LSP 3.17
// (see protocol.go) over golang.org/x/exp/jsonrpc2.
package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/exp/jsonrpc2"

	"github.com/mkdlint/mkdlint/internal/logging"
	"github.com/mkdlint/mkdlint/pkg/config"
	"github.com/mkdlint/mkdlint/pkg/lint"
	goldmarkparser "github.com/mkdlint/mkdlint/pkg/parser/goldmark"
)

const serverName = "mkdlint"

// Server is the mkdlint LSP server. One Server serves one client
// connection for the lifetime of the process.
type Server struct {
	engine *lint.Engine
	config *config.Config

	documents *documentStore
	conn      *jsonrpc2.Connection
	exitCh    chan struct{}
}

// New creates a Server using the given effective configuration. cfg is
// shared read-only across every document the client opens, matching
// pkg/runner's per-invocation config-cloning discipline.
func New(cfg *config.Config) *Server {
	parser := goldmarkparser.New(string(cfg.Flavor))
	return &Server{
		engine:    lint.NewEngine(parser, lint.DefaultRegistry),
		config:    cfg,
		documents: newDocumentStore(),
		exitCh:    make(chan struct{}),
	}
}

// RunStdio starts the server on stdin/stdout and blocks until the
// connection closes or ctx is cancelled.
func (s *Server) RunStdio(ctx context.Context) error {
	conn, err := jsonrpc2.Dial(ctx, stdioDialer{}, serverBinder{server: s})
	if err != nil {
		return fmt.Errorf("dial stdio transport: %w", err)
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-s.exitCh:
			_ = conn.Close()
		case <-done:
		}
	}()
	defer close(done)

	return conn.Wait()
}

// serverBinder binds a JSON-RPC connection to the server's handler,
// capturing the connection so the server can later push notifications.
type serverBinder struct {
	server *Server
}

func (b serverBinder) Bind(_ context.Context, conn *jsonrpc2.Connection) (jsonrpc2.ConnectionOptions, error) {
	b.server.conn = conn
	return jsonrpc2.ConnectionOptions{
		Framer:  jsonrpc2.HeaderFramer(),
		Handler: jsonrpc2.HandlerFunc(b.server.handle),
	}, nil
}

func (s *Server) handle(ctx context.Context, req *jsonrpc2.Request) (any, error) {
	logger := logging.FromContext(ctx)

	switch req.Method {
	case "initialize":
		return decodeAndCall(req, s.handleInitialize)
	case "initialized", "$/setTrace", "workspace/didChangeConfiguration":
		return nil, nil
	case "shutdown":
		return nil, nil
	case "exit":
		select {
		case <-s.exitCh:
		default:
			close(s.exitCh)
		}
		return nil, nil

	case "textDocument/didOpen":
		return nil, decodeAndNotify(req, func(p *DidOpenTextDocumentParams) {
			s.handleDidOpen(ctx, p)
		})
	case "textDocument/didChange":
		return nil, decodeAndNotify(req, func(p *DidChangeTextDocumentParams) {
			s.handleDidChange(ctx, p)
		})
	case "textDocument/didClose":
		return nil, decodeAndNotify(req, func(p *DidCloseTextDocumentParams) {
			s.handleDidClose(ctx, p)
		})

	case "textDocument/codeAction":
		return decodeAndCall(req, s.handleCodeAction)

	default:
		logger.Debug("lsp: unhandled method", "method", req.Method)
		return nil, jsonrpc2.NewError(errCodeMethodNotFound, "method not supported: "+req.Method)
	}
}

// JSON-RPC 2.0 reserved error codes (https://www.jsonrpc.org/specification#error_object).
const (
	errCodeInvalidParams  int64 = -32602
	errCodeMethodNotFound int64 = -32601
)

func decodeAndCall[T any](req *jsonrpc2.Request, fn func(*T) (any, error)) (any, error) {
	var params T
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, jsonrpc2.NewError(errCodeInvalidParams, err.Error())
		}
	}
	return fn(&params)
}

func decodeAndNotify[T any](req *jsonrpc2.Request, fn func(*T)) error {
	var params T
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return jsonrpc2.NewError(errCodeInvalidParams, err.Error())
		}
	}
	fn(&params)
	return nil
}

func (s *Server) handleInitialize(_ *InitializeParams) (any, error) {
	return &InitializeResult{
		Capabilities: ServerCapabilities{
			TextDocumentSync: TextDocumentSyncOptions{
				OpenClose: true,
				Change:    TextDocumentSyncKindFull,
			},
			CodeActionProvider: CodeActionOptions{
				CodeActionKinds: []string{CodeActionKindQuickFix},
			},
		},
		ServerInfo: ServerInfo{Name: serverName},
	}, nil
}

// handleDidOpen lints the opened document and publishes diagnostics.
func (s *Server) handleDidOpen(ctx context.Context, params *DidOpenTextDocumentParams) {
	uri := params.TextDocument.URI
	s.documents.open(uri, params.TextDocument.Text, params.TextDocument.Version)
	s.lintAndPublish(ctx, uri)
}

// handleDidChange re-lints on every full-document update.
func (s *Server) handleDidChange(ctx context.Context, params *DidChangeTextDocumentParams) {
	uri := params.TextDocument.URI
	if len(params.ContentChanges) == 0 {
		return
	}
	// Full sync: the last change in the slice is the complete new text.
	text := params.ContentChanges[len(params.ContentChanges)-1].Text
	s.documents.update(uri, text, params.TextDocument.Version)
	s.lintAndPublish(ctx, uri)
}

// handleDidClose clears diagnostics and drops the document.
func (s *Server) handleDidClose(ctx context.Context, params *DidCloseTextDocumentParams) {
	uri := params.TextDocument.URI
	s.documents.close(uri)
	s.publish(ctx, uri, 0, nil)
}

// handleCodeAction returns quick-fix actions for fixable diagnostics
// overlapping the requested range.
func (s *Server) handleCodeAction(params *CodeActionParams) (any, error) {
	doc, ok := s.documents.get(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	ctx := context.Background()
	path := uriToPath(doc.uri)
	result, err := s.engine.LintFile(ctx, path, []byte(doc.content), s.config)
	if err != nil {
		return nil, nil //nolint:nilerr // LSP: a parse failure yields no actions, not a transport error
	}

	actions := codeActionsFor(doc.uri, result.Diagnostics, *params)
	if len(actions) == 0 {
		return nil, nil
	}
	return actions, nil
}

// lintAndPublish runs the full lint engine over the document's current
// in-memory content and pushes the resulting diagnostics to the client.
func (s *Server) lintAndPublish(ctx context.Context, uri string) {
	doc, ok := s.documents.get(uri)
	if !ok {
		return
	}

	path := uriToPath(uri)
	result, err := s.engine.LintFile(ctx, path, []byte(doc.content), s.config)
	if err != nil {
		logging.FromContext(ctx).Error("lsp: lint failed", "uri", uri, "error", err)
		return
	}

	diags := toDiagnostics(result.UserDiagnostics())
	s.documents.setDiagnostics(uri, diags)
	s.publish(ctx, uri, doc.version, diags)
}

func (s *Server) publish(ctx context.Context, uri string, version int, diags []Diagnostic) {
	if s.conn == nil {
		return
	}
	if diags == nil {
		diags = []Diagnostic{}
	}
	params := PublishDiagnosticsParams{URI: uri, Version: version, Diagnostics: diags}
	raw, err := json.Marshal(params)
	if err != nil {
		return
	}
	_ = s.conn.Notify(ctx, "textDocument/publishDiagnostics", json.RawMessage(raw))
}

// stdioDialer implements jsonrpc2.Dialer for stdin/stdout communication.
type stdioDialer struct{}

func (stdioDialer) Dial(_ context.Context) (io.ReadWriteCloser, error) {
	return stdioRWC{}, nil
}

type stdioRWC struct{}

func (stdioRWC) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioRWC) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdioRWC) Close() error                { return nil }
