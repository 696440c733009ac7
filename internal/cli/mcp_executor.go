package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/natefinch/atomic"
	"go.uber.org/zap"

	"github.com/temirov/codeweaver/internal/commands"
	"github.com/temirov/codeweaver/internal/services/mcp"
	"github.com/temirov/codeweaver/internal/types"
)

const (
	pathNotExistFormat        = "Error: Path does not exist: %s"
	pathNotDirectoryFormat    = "Error: Path is not a directory: %s"
	packFailedFormat          = "Error packing codebase: %s"
	writeFailedFormat         = "Error writing output file %s: %s\n\n%s"
	packSucceededFormat       = "✅ Codebase packed successfully!\n\nOutput written to: %s\n\nFile size: %d bytes"
	unreadableWarningFormat   = "unable to read %s as text"
	tokenWarningFormat        = "token estimate unavailable: %s"
	errorDecodePackRequestFmt = "decode %s arguments: %w"
	errorPathRequired         = "path is required"
	errorIgnorePatternEmpty   = "ignore_patterns must not contain empty patterns"
)

// packToolArguments is the argument object of the pack tool.
type packToolArguments struct {
	Path              string   `json:"path"`
	Output            string   `json:"output"`
	IncludeGitignored bool     `json:"include_gitignored"`
	IgnorePatterns    []string `json:"ignore_patterns"`
	Tokens            bool     `json:"tokens"`
	Model             string   `json:"model"`
}

// decodePackToolArguments strictly decodes payload; unknown fields and a missing path are rejected.
func decodePackToolArguments(payload json.RawMessage) (packToolArguments, error) {
	var arguments packToolArguments
	trimmedPayload := bytes.TrimSpace(payload)
	if len(trimmedPayload) > 0 {
		decoder := json.NewDecoder(bytes.NewReader(trimmedPayload))
		decoder.DisallowUnknownFields()
		if decodeErr := decoder.Decode(&arguments); decodeErr != nil {
			return packToolArguments{}, decodeErr
		}
		if _, trailingErr := decoder.Token(); !errors.Is(trailingErr, io.EOF) {
			return packToolArguments{}, errors.New("unexpected data after arguments object")
		}
	}
	if strings.TrimSpace(arguments.Path) == "" {
		return packToolArguments{}, errors.New(errorPathRequired)
	}
	for _, pattern := range arguments.IgnorePatterns {
		if strings.TrimSpace(pattern) == "" {
			return packToolArguments{}, errors.New(errorIgnorePatternEmpty)
		}
	}
	return arguments, nil
}

// packInvocation is one pack call shared by the CLI and the tool transport.
type packInvocation struct {
	request types.PackRequest
	tokens  bool
	model   string
}

// packOutcome is the user-facing text of a pack call. isError marks failure texts.
type packOutcome struct {
	text     string
	isError  bool
	written  bool
	writeErr error
	result   types.PackResult
	warnings []string
}

type packRunner struct {
	logger         *zap.Logger
	counterFactory counterFactory
	concurrency    int
}

// run packs the request and renders every outcome, failures included, as text.
func (runner packRunner) run(ctx context.Context, invocation packInvocation) packOutcome {
	request := invocation.request
	if request.Concurrency <= 0 {
		request.Concurrency = runner.concurrency
	}
	dependencies := commands.PackDependencies{Logger: runner.logger}
	var warnings []string
	if invocation.tokens && runner.counterFactory != nil {
		counter, resolvedModel, counterErr := runner.counterFactory(invocation.model)
		if counterErr != nil {
			runner.logger.Warn(tokenizerFailedMessage, zap.Error(counterErr))
			warnings = append(warnings, fmt.Sprintf(tokenWarningFormat, counterErr))
		} else {
			dependencies.TokenCounter = counter
			dependencies.TokenModel = resolvedModel
		}
	}

	result, packErr := commands.Pack(ctx, request, dependencies)
	if packErr != nil {
		return packOutcome{text: describePackError(request.RootPath, packErr), isError: true, warnings: warnings}
	}
	for _, unreadablePath := range result.UnreadableFiles {
		warnings = append(warnings, fmt.Sprintf(unreadableWarningFormat, unreadablePath))
	}

	if request.OutputPath == "" {
		return packOutcome{text: result.Document, result: result, warnings: warnings}
	}
	if writeErr := atomic.WriteFile(request.OutputPath, strings.NewReader(result.Document)); writeErr != nil {
		return packOutcome{
			text:     fmt.Sprintf(writeFailedFormat, request.OutputPath, writeErr, result.Document),
			isError:  true,
			writeErr: writeErr,
			result:   result,
			warnings: warnings,
		}
	}
	return packOutcome{
		text:     fmt.Sprintf(packSucceededFormat, request.OutputPath, len(result.Document)),
		written:  true,
		result:   result,
		warnings: warnings,
	}
}

// describePackError maps a pack failure to the text reported to users.
func describePackError(rootPath string, packErr error) string {
	switch {
	case errors.Is(packErr, commands.ErrPathNotExist):
		return fmt.Sprintf(pathNotExistFormat, rootPath)
	case errors.Is(packErr, commands.ErrNotDirectory):
		return fmt.Sprintf(pathNotDirectoryFormat, rootPath)
	default:
		return fmt.Sprintf(packFailedFormat, packErr.Error())
	}
}

func (runner packRunner) toolExecutors() map[string]mcp.ToolExecutor {
	return map[string]mcp.ToolExecutor{
		types.ToolPackCodebase: mcp.ToolExecutorFunc(runner.executePackTool),
	}
}

// executePackTool only returns an error for invalid arguments; pack failures are text responses.
func (runner packRunner) executePackTool(toolContext context.Context, request mcp.ToolRequest) (mcp.ToolResponse, error) {
	arguments, decodeErr := decodePackToolArguments(request.Arguments)
	if decodeErr != nil {
		return mcp.ToolResponse{}, mcp.NewToolExecutionError(http.StatusBadRequest, fmt.Errorf(errorDecodePackRequestFmt, types.ToolPackCodebase, decodeErr))
	}
	outcome := runner.run(toolContext, packInvocation{
		request: types.PackRequest{
			RootPath:          arguments.Path,
			IncludeGitignored: arguments.IncludeGitignored,
			IgnorePatterns:    arguments.IgnorePatterns,
			OutputPath:        arguments.Output,
		},
		tokens: arguments.Tokens,
		model:  arguments.Model,
	})

	response := mcp.TextResponse(outcome.text)
	if outcome.isError {
		response = mcp.ErrorResponse(outcome.text)
	}
	response.Warnings = outcome.warnings
	response.Tokens = outcome.result.Tokens
	response.Model = outcome.result.TokenModel
	return response, nil
}
