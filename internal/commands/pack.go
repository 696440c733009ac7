package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/codeweaver/internal/config"
	"github.com/temirov/codeweaver/internal/matcher"
	"github.com/temirov/codeweaver/internal/output"
	"github.com/temirov/codeweaver/internal/tokenizer"
	"github.com/temirov/codeweaver/internal/types"
	"github.com/temirov/codeweaver/internal/utils"
)

var (
	// ErrPathNotExist reports a pack root that does not exist.
	ErrPathNotExist = errors.New("path does not exist")
	// ErrNotDirectory reports a pack root that is not a directory.
	ErrNotDirectory = errors.New("path is not a directory")
)

const (
	errorAbsolutePathFormat = "getting absolute path for %s: %w"
	errorInspectRootFormat  = "inspecting %s: %w"
	errorInvalidRootFormat  = "%w: %s"
	errorMatchPathsFormat   = "matching paths under %s: %w"
	tokenCountFailedMessage = "token estimate failed"
	packCompletedMessage    = "packed codebase"
)

// PackDependencies carries the collaborators of Pack. Zero values select the filesystem defaults.
type PackDependencies struct {
	Matcher      matcher.PathMatcher
	Reader       output.FileReader
	Probe        DirectoryProbe
	TokenCounter tokenizer.Counter
	TokenModel   string
	Logger       *zap.Logger
}

// Pack validates the root, then matches, builds, renders, flattens and assembles the document.
// An invalid root fails with ErrPathNotExist or ErrNotDirectory before any tree work.
func Pack(ctx context.Context, request types.PackRequest, dependencies PackDependencies) (types.PackResult, error) {
	logger := utils.LoggerOrNop(dependencies.Logger)

	absoluteRootPath, rootError := validateRoot(request.RootPath)
	if rootError != nil {
		return types.PackResult{}, rootError
	}

	pathMatcher := dependencies.Matcher
	if pathMatcher == nil {
		pathMatcher = matcher.NewWalker(logger)
	}
	probe := dependencies.Probe
	if probe == nil {
		probe = FilesystemProbe(absoluteRootPath)
	}

	rules := config.BuildIgnoreRules(absoluteRootPath, request.IncludeGitignored, request.IgnorePatterns, logger)
	if outputRelativePath, inside := relativeOutputPath(absoluteRootPath, request.OutputPath); inside {
		rules = append(rules, types.IgnoreRule{Pattern: outputRelativePath, Source: types.RuleSourceLiteral})
	}

	matches, matchError := pathMatcher.Match(ctx, absoluteRootPath, rules)
	if matchError != nil {
		return types.PackResult{}, fmt.Errorf(errorMatchPathsFormat, absoluteRootPath, matchError)
	}

	root := BuildTree(matches, probe)
	treeView := output.RenderTree(root)
	filePaths := Flatten(absoluteRootPath, root)

	document, assembleError := output.AssembleDocument(ctx, output.DocumentOptions{
		RootPath:    absoluteRootPath,
		TreeView:    treeView,
		Files:       filePaths,
		Reader:      dependencies.Reader,
		Concurrency: request.Concurrency,
		Logger:      logger,
	})
	if assembleError != nil {
		return types.PackResult{}, assembleError
	}

	result := types.PackResult{
		Document:        document.Text,
		RootName:        filepath.Base(absoluteRootPath),
		Files:           document.Files,
		UnreadableFiles: document.Unreadable,
	}
	if dependencies.TokenCounter != nil {
		countResult, countError := tokenizer.CountDocument(dependencies.TokenCounter, dependencies.TokenModel, document.Text)
		if countError != nil {
			logger.Warn(tokenCountFailedMessage, zap.Error(countError))
		} else {
			result.Tokens = countResult.Tokens
			result.TokenModel = countResult.Model
		}
	}

	logger.Debug(packCompletedMessage,
		zap.String("root", absoluteRootPath),
		zap.Int("files", result.Files),
		zap.Int("unreadable", len(result.UnreadableFiles)),
		zap.String("size", utils.FormatByteSize(int64(len(result.Document)))),
	)
	return result, nil
}

func validateRoot(rootPath string) (string, error) {
	absoluteRootPath, absoluteError := filepath.Abs(rootPath)
	if absoluteError != nil {
		return "", fmt.Errorf(errorAbsolutePathFormat, rootPath, absoluteError)
	}
	rootInformation, statError := os.Stat(absoluteRootPath)
	if statError != nil {
		if errors.Is(statError, fs.ErrNotExist) {
			return "", fmt.Errorf(errorInvalidRootFormat, ErrPathNotExist, rootPath)
		}
		return "", fmt.Errorf(errorInspectRootFormat, rootPath, statError)
	}
	if !rootInformation.IsDir() {
		return "", fmt.Errorf(errorInvalidRootFormat, ErrNotDirectory, rootPath)
	}
	return absoluteRootPath, nil
}

// relativeOutputPath reports where outputPath lies relative to the root, if inside it.
func relativeOutputPath(absoluteRootPath string, outputPath string) (string, bool) {
	if outputPath == "" {
		return "", false
	}
	absoluteOutputPath, absoluteError := filepath.Abs(outputPath)
	if absoluteError != nil {
		return "", false
	}
	relativePath, relativeError := filepath.Rel(absoluteRootPath, absoluteOutputPath)
	if relativeError != nil {
		return "", false
	}
	relativePath = filepath.ToSlash(relativePath)
	return relativePath, utils.IsWithinRoot(relativePath)
}
