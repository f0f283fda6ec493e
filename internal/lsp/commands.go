package lsp

import (
	"context"
	"fmt"
)

// CommandResult is the result of workspace/executeCommand.
type CommandResult struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// CommandHandler handles workspace/executeCommand requests
type CommandHandler struct {
	server *Server
}

func NewCommandHandler(server *Server) *CommandHandler {
	return &CommandHandler{server: server}
}

func (h *CommandHandler) Execute(ctx context.Context, params ExecuteCommandParams) (*CommandResult, error) {
	switch params.Command {
	case CommandAnalyzeFile:
		return h.analyzeFile(ctx, params.Arguments)
	case CommandAnalyzeWorkspace:
		return h.analyzeWorkspace(ctx)
	case CommandClearCache:
		return h.clearCache(ctx)
	default:
		return nil, fmt.Errorf("unknown command: %s", params.Command)
	}
}

// analyzeFile analyzes one open document right away, skipping the debounce.
func (h *CommandHandler) analyzeFile(ctx context.Context, args []interface{}) (*CommandResult, error) {
	if len(args) < 1 {
		return &CommandResult{Success: false, Message: "file URI argument required"}, nil
	}
	uri, ok := args[0].(string)
	if !ok {
		return &CommandResult{Success: false, Message: "file URI must be a string"}, nil
	}
	if _, ok := h.server.document(uri); !ok {
		return &CommandResult{Success: false, Message: fmt.Sprintf("document not open: %s", uri)}, nil
	}

	h.server.analyzeAndPublish(ctx, uri)
	return &CommandResult{
		Success: true,
		Message: fmt.Sprintf("Analyzed %s", uri),
		Data:    map[string]int{"diagnostics": len(h.server.Diagnostics(uri))},
	}, nil
}

// analyzeWorkspace analyzes every open document, reporting progress.
func (h *CommandHandler) analyzeWorkspace(ctx context.Context) (*CommandResult, error) {
	uris := h.server.openDocuments()
	if len(uris) == 0 {
		return &CommandResult{Success: true, Message: "No documents open to analyze"}, nil
	}

	const token = "assay-workspace-analysis"
	p := h.server.progress
	if err := p.Begin(token, "Analyzing open documents"); err != nil {
		return nil, err
	}
	for i, uri := range uris {
		if err := ctx.Err(); err != nil {
			p.End(token, "Cancelled")
			return nil, err
		}
		h.server.analyzeAndPublish(ctx, uri)
		p.Report(token, fmt.Sprintf("Analyzed %d/%d files", i+1, len(uris)), i+1, len(uris))
	}
	p.End(token, fmt.Sprintf("Analyzed %d files", len(uris)))

	return &CommandResult{
		Success: true,
		Message: fmt.Sprintf("Analyzed %d files", len(uris)),
		Data:    map[string]int{"filesAnalyzed": len(uris)},
	}, nil
}

// clearCache drops cached analysis for the open documents, so the next
// analysis of each runs the rules again.
func (h *CommandHandler) clearCache(ctx context.Context) (*CommandResult, error) {
	if h.server.invalidate == nil {
		return &CommandResult{Success: false, Message: "Cache not configured"}, nil
	}

	cleared := 0
	for _, uri := range h.server.openDocuments() {
		content, ok := h.server.document(uri)
		if !ok {
			continue
		}
		if err := h.server.invalidate(ctx, uriToPath(uri), content); err != nil {
			return nil, fmt.Errorf("clearing cache for %s: %w", uri, err)
		}
		cleared++
	}
	return &CommandResult{
		Success: true,
		Message: "Cache cleared",
		Data:    map[string]int{"documents": cleared},
	}, nil
}
