// Package lsp serves assay diagnostics to editors over the Language Server
// Protocol. Documents are analyzed after a quiet period following open,
// change or save, and results are published as diagnostics.
package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chris-regnier/assay/internal/config"
	"github.com/chris-regnier/assay/internal/sarif"
)

// AnalyzeFunc analyzes the content of the file at path.
type AnalyzeFunc func(ctx context.Context, path, content string) ([]sarif.Result, error)

// InvalidateFunc forgets any cached result for path with content.
type InvalidateFunc func(ctx context.Context, path, content string) error

// ServerConfig holds configuration for the LSP server
type ServerConfig struct {
	DebounceDuration time.Duration
	ParallelFiles    int
	WatchPatterns    []string
	IgnorePatterns   []string
	// HelpURIs links rule IDs to documentation in diagnostics.
	HelpURIs map[string]string
	Version  string
}

func DefaultServerConfig() ServerConfig {
	w := DefaultWatcherConfig()
	return ServerConfig{
		DebounceDuration: w.DebounceDuration,
		ParallelFiles:    w.ParallelFiles,
		WatchPatterns:    w.WatchPatterns,
		IgnorePatterns:   w.IgnorePatterns,
	}
}

// ServerConfigFromLSPConfig converts config.LSPConfig to ServerConfig.
// Invalid or empty values keep their defaults.
func ServerConfigFromLSPConfig(lspCfg config.LSPConfig) ServerConfig {
	cfg := DefaultServerConfig()

	if d, err := time.ParseDuration(lspCfg.Watcher.DebounceDuration); err == nil && d > 0 {
		cfg.DebounceDuration = d
	}
	if lspCfg.Analysis.ParallelFiles > 0 {
		cfg.ParallelFiles = lspCfg.Analysis.ParallelFiles
	}
	if len(lspCfg.Watcher.WatchPatterns) > 0 {
		cfg.WatchPatterns = lspCfg.Watcher.WatchPatterns
	}
	if len(lspCfg.Watcher.IgnorePatterns) > 0 {
		cfg.IgnorePatterns = lspCfg.Watcher.IgnorePatterns
	}
	return cfg
}

// Server implements an LSP server
type Server struct {
	reader  *bufio.Reader
	writer  *bufio.Writer
	writeMu sync.Mutex

	analyze    AnalyzeFunc
	invalidate InvalidateFunc

	documents map[string]string // URI -> content
	docMu     sync.RWMutex

	// last published diagnostics per URI
	published   map[string][]Diagnostic
	publishedMu sync.RWMutex

	watcher  *DebouncedWatcher
	progress *ProgressReporter
	commands *CommandHandler
	config   ServerConfig

	ctxMu   sync.Mutex
	baseCtx context.Context

	rootURI     string
	initialized bool
	shutdown    bool
}

func NewServer(reader *bufio.Reader, writer *bufio.Writer, analyze AnalyzeFunc) *Server {
	return NewServerWithConfig(reader, writer, analyze, DefaultServerConfig())
}

func NewServerWithConfig(reader *bufio.Reader, writer *bufio.Writer, analyze AnalyzeFunc, cfg ServerConfig) *Server {
	s := &Server{
		reader:    reader,
		writer:    writer,
		analyze:   analyze,
		documents: make(map[string]string),
		published: make(map[string][]Diagnostic),
		config:    cfg,
		baseCtx:   context.Background(),
	}
	s.progress = NewProgressReporter(s.sendMessage)
	s.commands = NewCommandHandler(s)
	s.watcher = NewDebouncedWatcher(WatcherConfig{
		DebounceDuration: cfg.DebounceDuration,
		ParallelFiles:    cfg.ParallelFiles,
		WatchPatterns:    cfg.WatchPatterns,
		IgnorePatterns:   cfg.IgnorePatterns,
	}, func(uris []string) {
		ctx := s.context()
		for _, uri := range uris {
			s.analyzeAndPublish(ctx, uri)
		}
	})
	return s
}

// SetInvalidator enables the clear cache command.
func (s *Server) SetInvalidator(fn InvalidateFunc) {
	s.invalidate = fn
}

// jsonRPCMessage represents a JSON-RPC 2.0 message
type jsonRPCMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *responseError  `json:"error,omitempty"`
}

// Run serves messages until the client sends exit, the input ends or ctx
// is cancelled. Handler errors are logged; framing errors end the loop.
func (s *Server) Run(ctx context.Context) error {
	s.ctxMu.Lock()
	s.baseCtx = ctx
	s.ctxMu.Unlock()
	defer s.watcher.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg, err := s.readMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := s.handleMessage(ctx, msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			slog.Error("error handling message", "method", msg.Method, "err", err)
		}
	}
}

func (s *Server) context() context.Context {
	s.ctxMu.Lock()
	defer s.ctxMu.Unlock()
	return s.baseCtx
}

// readMessage reads one Content-Length framed message. Headers other than
// Content-Length are ignored.
func (s *Server) readMessage() (*jsonRPCMessage, error) {
	length := -1
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) && line == "" {
				return nil, io.EOF
			}
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("invalid header: %s", line)
		}
		if strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil || n < 0 {
				return nil, fmt.Errorf("invalid content length: %s", value)
			}
			length = n
		}
	}
	if length < 0 {
		return nil, fmt.Errorf("missing Content-Length header")
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(s.reader, buf); err != nil {
		return nil, err
	}
	var msg jsonRPCMessage
	if err := json.Unmarshal(buf, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse JSON-RPC message: %w", err)
	}
	return &msg, nil
}

func (s *Server) handleMessage(ctx context.Context, msg *jsonRPCMessage) error {
	switch msg.Method {
	case "":
		// response to a server request such as progress creation
		return nil
	case MethodInitialize:
		return s.handleInitialize(msg.ID, msg.Params)
	case MethodInitialized:
		s.initialized = true
		return nil
	case MethodTextDocumentDidOpen:
		return s.handleDidOpen(msg.Params)
	case MethodTextDocumentDidChange:
		return s.handleDidChange(msg.Params)
	case MethodTextDocumentDidSave:
		return s.handleDidSave(msg.Params)
	case MethodTextDocumentDidClose:
		return s.handleDidClose(msg.Params)
	case MethodWorkspaceExecuteCommand:
		return s.handleExecuteCommand(ctx, msg.ID, msg.Params)
	case MethodWorkspaceDidChangeConfig:
		return s.handleDidChangeConfiguration(msg.Params)
	case MethodShutdown:
		return s.handleShutdown(msg.ID)
	case MethodExit:
		return io.EOF
	default:
		if msg.ID != nil {
			return s.sendError(msg.ID, codeMethodNotFound, "method not found: "+msg.Method)
		}
		slog.Debug("unhandled LSP notification", "method", msg.Method)
		return nil
	}
}

func (s *Server) handleInitialize(id interface{}, params json.RawMessage) error {
	var initParams InitializeParams
	if err := json.Unmarshal(params, &initParams); err != nil {
		return s.sendError(id, codeInvalidParams, fmt.Sprintf("invalid params: %v", err))
	}
	s.rootURI = initParams.RootURI

	version := s.config.Version
	if version == "" {
		version = "dev"
	}
	return s.sendResponse(id, InitializeResult{
		Capabilities: ServerCapabilities{
			TextDocumentSync: &TextDocumentSyncOptions{
				OpenClose: true,
				Change:    SyncFull,
				Save:      true,
			},
			ExecuteCommandProvider: &ExecuteCommandOptions{
				Commands: []string{CommandAnalyzeFile, CommandAnalyzeWorkspace, CommandClearCache},
			},
		},
		ServerInfo: &ServerInfo{Name: "assay-lsp", Version: version},
	})
}

func (s *Server) handleDidOpen(params json.RawMessage) error {
	var p DidOpenTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		return err
	}
	uri := p.TextDocument.URI
	if !s.watcher.ShouldWatch(uri) {
		return nil
	}
	s.setDocument(uri, p.TextDocument.Text)
	s.watcher.FileChanged(uri)
	return nil
}

func (s *Server) handleDidChange(params json.RawMessage) error {
	var p DidChangeTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		return err
	}
	uri := p.TextDocument.URI
	if _, ok := s.document(uri); !ok || len(p.ContentChanges) == 0 {
		return nil
	}
	s.setDocument(uri, p.ContentChanges[len(p.ContentChanges)-1].Text)
	s.watcher.FileChanged(uri)
	return nil
}

func (s *Server) handleDidSave(params json.RawMessage) error {
	var p DidSaveTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		return err
	}
	uri := p.TextDocument.URI
	if !s.watcher.ShouldWatch(uri) {
		return nil
	}
	if p.Text != nil {
		s.setDocument(uri, *p.Text)
	}
	s.watcher.FileChanged(uri)
	return nil
}

// handleDidClose forgets the document and clears its diagnostics.
func (s *Server) handleDidClose(params json.RawMessage) error {
	var p DidCloseTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		return err
	}
	uri := p.TextDocument.URI

	s.docMu.Lock()
	_, tracked := s.documents[uri]
	delete(s.documents, uri)
	s.docMu.Unlock()

	s.publishedMu.Lock()
	delete(s.published, uri)
	s.publishedMu.Unlock()

	if !tracked {
		return nil
	}
	return s.publishDiagnostics(uri, []Diagnostic{})
}

func (s *Server) handleShutdown(id interface{}) error {
	s.shutdown = true
	s.watcher.Stop()
	return s.sendResponse(id, nil)
}

func (s *Server) handleExecuteCommand(ctx context.Context, id interface{}, params json.RawMessage) error {
	var p ExecuteCommandParams
	if err := json.Unmarshal(params, &p); err != nil {
		return s.sendError(id, codeInvalidParams, fmt.Sprintf("invalid params: %v", err))
	}
	result, err := s.commands.Execute(ctx, p)
	if err != nil {
		return s.sendError(id, codeInternalError, err.Error())
	}
	return s.sendResponse(id, result)
}

// handleDidChangeConfiguration applies settings found under "assay", or at
// the top level when that key is absent. Unparseable settings are ignored.
func (s *Server) handleDidChangeConfiguration(params json.RawMessage) error {
	var p DidChangeConfigurationParams
	if err := json.Unmarshal(params, &p); err != nil {
		return err
	}
	raw, err := json.Marshal(p.Settings)
	if err != nil {
		return nil
	}
	var nested map[string]json.RawMessage
	if err := json.Unmarshal(raw, &nested); err == nil {
		if inner, ok := nested["assay"]; ok {
			raw = inner
		}
	}
	var settings Settings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return nil
	}

	update := WatcherConfig{
		ParallelFiles:  settings.ParallelFiles,
		WatchPatterns:  settings.WatchPatterns,
		IgnorePatterns: settings.IgnorePatterns,
	}
	if d, err := time.ParseDuration(settings.DebounceDuration); err == nil {
		update.DebounceDuration = d
	}
	s.watcher.UpdateConfig(update)
	return nil
}

// analyzeAndPublish analyzes the open document uri and publishes the
// results. Closed documents are skipped.
func (s *Server) analyzeAndPublish(ctx context.Context, uri string) {
	content, ok := s.document(uri)
	if !ok {
		return
	}
	results, err := s.analyze(ctx, uriToPath(uri), content)
	if err != nil {
		slog.Error("analysis failed", "uri", uri, "err", err)
		return
	}
	diagnostics := SarifResultsToDiagnostics(results, s.config.HelpURIs)

	s.publishedMu.Lock()
	s.published[uri] = diagnostics
	s.publishedMu.Unlock()

	if err := s.publishDiagnostics(uri, diagnostics); err != nil {
		slog.Error("failed to publish diagnostics", "uri", uri, "err", err)
	}
}

func (s *Server) document(uri string) (string, bool) {
	s.docMu.RLock()
	defer s.docMu.RUnlock()
	content, ok := s.documents[uri]
	return content, ok
}

func (s *Server) setDocument(uri, content string) {
	s.docMu.Lock()
	s.documents[uri] = content
	s.docMu.Unlock()
}

// openDocuments returns a sorted snapshot of the open document URIs.
func (s *Server) openDocuments() []string {
	s.docMu.RLock()
	uris := make([]string, 0, len(s.documents))
	for uri := range s.documents {
		uris = append(uris, uri)
	}
	s.docMu.RUnlock()
	sort.Strings(uris)
	return uris
}

// Diagnostics returns the last diagnostics published for uri.
func (s *Server) Diagnostics(uri string) []Diagnostic {
	s.publishedMu.RLock()
	defer s.publishedMu.RUnlock()
	return s.published[uri]
}

func (s *Server) publishDiagnostics(uri string, diagnostics []Diagnostic) error {
	return s.sendMessage(jsonRPCMessage{
		JSONRPC: "2.0",
		Method:  MethodTextDocumentPublishDiagnostics,
		Params:  mustMarshal(PublishDiagnosticsParams{URI: uri, Diagnostics: diagnostics}),
	})
}

func (s *Server) sendResponse(id interface{}, result interface{}) error {
	return s.sendMessage(jsonRPCMessage{JSONRPC: "2.0", ID: id, Result: result})
}

func (s *Server) sendError(id interface{}, code int, message string) error {
	return s.sendMessage(jsonRPCMessage{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &responseError{Code: code, Message: message},
	})
}

// sendMessage writes a Content-Length framed message. Writes from the
// watcher and the read loop are serialized.
func (s *Server) sendMessage(msg jsonRPCMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := fmt.Fprintf(s.writer, "Content-Length: %d\r\n\r\n", len(data)); err != nil {
		return err
	}
	if _, err := s.writer.Write(data); err != nil {
		return err
	}
	return s.writer.Flush()
}

// uriToPath converts a file URI to a filesystem path. Other strings are
// returned unchanged.
func uriToPath(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return uri
	}
	return filepath.FromSlash(u.Path)
}

// pathToURI is the inverse of uriToPath for absolute paths. Relative paths
// are made absolute first.
func pathToURI(path string) string {
	if strings.HasPrefix(path, "file://") {
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

func mustMarshal(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("failed to marshal: %v", err))
	}
	return data
}
