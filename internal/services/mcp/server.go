// Package mcp serves tool descriptors and executes tools over HTTP.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultListenAddress    = "127.0.0.1:0"
	defaultShutdownDuration = 5 * time.Second
	headerContentType       = "Content-Type"
	mimeTypeJSON            = "application/json"
	capabilitiesPath        = "/capabilities"
	rootPath                = "/"
	toolsPrefix             = "/tools/"
	errorFieldName          = "error"
	errorToolNotFound       = "tool not found"
	contentTypeText         = "text"
	toolFailedMessage       = "tool invocation failed"
	toolServedMessage       = "tool invocation served"
)

// ToolAnnotations are behavioural hints published with a tool.
type ToolAnnotations struct {
	ReadOnlyHint    bool `json:"readOnlyHint"`
	DestructiveHint bool `json:"destructiveHint"`
	IdempotentHint  bool `json:"idempotentHint"`
	OpenWorldHint   bool `json:"openWorldHint"`
}

// ToolDescriptor describes a tool exposed by the MCP server.
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Title       string          `json:"title,omitempty"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
	Annotations ToolAnnotations `json:"annotations"`
}

// ToolRequest holds the raw arguments supplied by clients.
type ToolRequest struct {
	Arguments json.RawMessage
}

// ContentBlock is one piece of tool output.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResponse contains the outcome of a tool invocation.
// Failures of the tool itself are reported as text with IsError set, not as transport errors.
type ToolResponse struct {
	Content  []ContentBlock `json:"content"`
	IsError  bool           `json:"isError,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
	Tokens   int            `json:"tokens,omitempty"`
	Model    string         `json:"model,omitempty"`
}

// TextResponse builds a ToolResponse holding a single text block.
func TextResponse(text string) ToolResponse {
	return ToolResponse{Content: []ContentBlock{{Type: contentTypeText, Text: text}}}
}

// ErrorResponse builds a ToolResponse reporting a tool failure as text.
func ErrorResponse(text string) ToolResponse {
	response := TextResponse(text)
	response.IsError = true
	return response
}

// Text joins the text blocks of the response.
func (response ToolResponse) Text() string {
	var builder strings.Builder
	for _, block := range response.Content {
		if block.Type == contentTypeText {
			builder.WriteString(block.Text)
		}
	}
	return builder.String()
}

// ToolExecutor executes a tool based on an incoming request.
type ToolExecutor interface {
	Execute(ctx context.Context, request ToolRequest) (ToolResponse, error)
}

// ToolExecutorFunc adapts a function into a ToolExecutor.
type ToolExecutorFunc func(context.Context, ToolRequest) (ToolResponse, error)

// Execute invokes the underlying function.
func (executor ToolExecutorFunc) Execute(ctx context.Context, request ToolRequest) (ToolResponse, error) {
	return executor(ctx, request)
}

// ToolExecutionError represents a failure accompanied by an HTTP status code.
type ToolExecutionError struct {
	statusCode int
	err        error
}

// Error returns the error string.
func (executionError ToolExecutionError) Error() string {
	return executionError.err.Error()
}

// Unwrap exposes the wrapped error.
func (executionError ToolExecutionError) Unwrap() error {
	return executionError.err
}

// StatusCode reports the associated HTTP status code.
func (executionError ToolExecutionError) StatusCode() int {
	return executionError.statusCode
}

// NewToolExecutionError creates a new ToolExecutionError.
func NewToolExecutionError(statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return ToolExecutionError{statusCode: statusCode, err: err}
}

// Config defines runtime options for the MCP server.
type Config struct {
	Address         string
	Tools           []ToolDescriptor
	Executors       map[string]ToolExecutor
	ShutdownTimeout time.Duration
	Logger          *zap.Logger
}

// Server serves tool descriptors and executes tools over HTTP.
type Server struct {
	config Config
}

// NewServer creates a new Server with defaults applied.
func NewServer(config Config) Server {
	normalized := config
	if normalized.Address == "" {
		normalized.Address = defaultListenAddress
	}
	if normalized.ShutdownTimeout <= 0 {
		normalized.ShutdownTimeout = defaultShutdownDuration
	}
	if normalized.Tools == nil {
		normalized.Tools = []ToolDescriptor{}
	}
	if normalized.Executors == nil {
		normalized.Executors = map[string]ToolExecutor{}
	}
	if normalized.Logger == nil {
		normalized.Logger = zap.NewNop()
	}
	return Server{config: normalized}
}

// Run starts the MCP server and blocks until the provided context is canceled.
// The notify callback receives the bound address once the listener is active.
func (server Server) Run(ctx context.Context, notify func(string)) error {
	listener, listenErr := net.Listen("tcp", server.config.Address)
	if listenErr != nil {
		return fmt.Errorf("listen on %s: %w", server.config.Address, listenErr)
	}
	actualAddress := listener.Addr().String()

	router := http.NewServeMux()
	router.HandleFunc(capabilitiesPath, server.handleCapabilities)
	router.HandleFunc(rootPath, server.handleRoot)
	router.HandleFunc(toolsPrefix, server.handleTool)

	httpServer := &http.Server{Handler: router}
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		serveErr := httpServer.Serve(listener)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("serve MCP: %w", serveErr)
		}
		return nil
	})

	if notify != nil {
		notify(actualAddress)
	}

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.config.ShutdownTimeout)
		defer cancel()
		shutdownErr := httpServer.Shutdown(shutdownCtx)
		if shutdownErr != nil && !errors.Is(shutdownErr, context.Canceled) && !errors.Is(shutdownErr, http.ErrServerClosed) {
			return fmt.Errorf("shutdown MCP: %w", shutdownErr)
		}
		return nil
	})

	return group.Wait()
}

func (server Server) handleCapabilities(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodGet {
		writer.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	payload := struct {
		Tools []ToolDescriptor `json:"tools"`
	}{Tools: server.config.Tools}
	server.writeJSON(writer, http.StatusOK, payload)
}

func (server Server) handleRoot(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodGet {
		writer.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writer.WriteHeader(http.StatusOK)
}

func (server Server) handleTool(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		writer.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	toolName := strings.TrimPrefix(request.URL.Path, toolsPrefix)
	if toolName == "" || strings.Contains(toolName, "/") {
		server.writeJSON(writer, http.StatusNotFound, map[string]string{errorFieldName: errorToolNotFound})
		return
	}
	executor, found := server.config.Executors[toolName]
	if !found {
		server.writeJSON(writer, http.StatusNotFound, map[string]string{errorFieldName: errorToolNotFound})
		return
	}
	body, readErr := io.ReadAll(request.Body)
	if readErr != nil {
		server.writeJSON(writer, http.StatusBadRequest, map[string]string{errorFieldName: fmt.Sprintf("read request body: %v", readErr)})
		return
	}
	toolRequest := ToolRequest{Arguments: json.RawMessage(body)}
	toolResponse, executeErr := executor.Execute(request.Context(), toolRequest)
	if executeErr != nil {
		statusCode := server.statusCodeFromError(executeErr)
		server.config.Logger.Warn(toolFailedMessage, zap.String("tool", toolName), zap.Int("status", statusCode), zap.Error(executeErr))
		server.writeJSON(writer, statusCode, map[string]string{errorFieldName: executeErr.Error()})
		return
	}
	server.config.Logger.Debug(toolServedMessage, zap.String("tool", toolName), zap.Bool("is_error", toolResponse.IsError))
	server.writeJSON(writer, http.StatusOK, toolResponse)
}

func (server Server) writeJSON(writer http.ResponseWriter, statusCode int, payload interface{}) {
	var buffer bytes.Buffer
	if encodeErr := json.NewEncoder(&buffer).Encode(payload); encodeErr != nil {
		fallback := map[string]string{errorFieldName: fmt.Sprintf("encode response: %v", encodeErr)}
		writer.Header().Set(headerContentType, mimeTypeJSON)
		writer.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(writer).Encode(fallback)
		return
	}
	writer.Header().Set(headerContentType, mimeTypeJSON)
	writer.WriteHeader(statusCode)
	_, _ = writer.Write(buffer.Bytes())
}

func (server Server) statusCodeFromError(err error) int {
	var executionError ToolExecutionError
	if errors.As(err, &executionError) {
		return executionError.StatusCode()
	}
	return http.StatusInternalServerError
}
