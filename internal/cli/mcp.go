package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/temirov/codeweaver/internal/services/mcp"
	"github.com/temirov/codeweaver/internal/types"
)

const (
	defaultServeAddress       = "127.0.0.1:0"
	serverListeningFormat     = "MCP server listening on %s\n"
	packToolTitle             = "Pack codebase"
	packToolDescription       = "Pack a directory into one Markdown document: a directory tree followed by every included text file in a language-tagged fenced block. Returns the document, or a confirmation when output is set."
	packToolInputSchemaSource = `{
  "type": "object",
  "properties": {
    "path": {"type": "string", "description": "Directory to pack"},
    "output": {"type": "string", "description": "Write the document to this file instead of returning it"},
    "include_gitignored": {"type": "boolean", "default": false, "description": "Include files excluded by the root .gitignore"},
    "ignore_patterns": {"type": "array", "items": {"type": "string"}, "default": [], "description": "Additional ignore patterns in gitignore syntax"},
    "tokens": {"type": "boolean", "default": false, "description": "Estimate the token count of the document"},
    "model": {"type": "string", "description": "Tokenizer model used for the estimate"}
  },
  "required": ["path"],
  "additionalProperties": false
}`
)

// serverSettings configures the tool server started by serve.
type serverSettings struct {
	address         string
	concurrency     int
	shutdownTimeout time.Duration
}

// mcpTools lists the tools published on /capabilities.
func mcpTools() []mcp.ToolDescriptor {
	return []mcp.ToolDescriptor{
		{
			Name:        types.ToolPackCodebase,
			Title:       packToolTitle,
			Description: packToolDescription,
			InputSchema: json.RawMessage(packToolInputSchemaSource),
			Annotations: mcp.ToolAnnotations{
				ReadOnlyHint:    false,
				DestructiveHint: false,
				IdempotentHint:  true,
				OpenWorldHint:   false,
			},
		},
	}
}

// startMCPServer blocks serving the pack tool until ctx is cancelled.
func (instance *application) startMCPServer(ctx context.Context, writer io.Writer, settings serverSettings) error {
	runner := instance.packRunner(settings.concurrency)
	server := mcp.NewServer(mcp.Config{
		Address:         settings.address,
		Tools:           mcpTools(),
		Executors:       runner.toolExecutors(),
		ShutdownTimeout: settings.shutdownTimeout,
		Logger:          instance.logger,
	})
	return server.Run(ctx, func(address string) {
		fmt.Fprintf(writer, serverListeningFormat, address)
	})
}
