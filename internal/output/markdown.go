package output

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/codeweaver/internal/utils"
)

const (
	// DefaultConcurrency bounds parallel file reads when no limit is configured.
	DefaultConcurrency = 8
	// UnreadablePlaceholder replaces the fenced block of a file that cannot be embedded as text.
	UnreadablePlaceholder = "*[Binary file or unable to read]*"

	documentTitleFormat       = "# %s\n\n"
	directoryStructureHeading = "## Directory Structure\n\n"
	filesHeading              = "## Files\n\n"
	fileHeadingFormat         = "### %s\n\n"
	minimumFenceLength        = 3
	fenceRune                 = '`'
	unreadableFileMessage     = "embedding placeholder for unreadable file"
	errorAssembleFormat       = "assembling document for %s: %w"
)

// FileReader loads file contents for the assembler.
type FileReader interface {
	ReadFile(filePath string) ([]byte, error)
}

// OSFileReader reads files from the local filesystem.
type OSFileReader struct{}

// ReadFile opens, reads and closes filePath.
//
// #nosec G304
func (OSFileReader) ReadFile(filePath string) ([]byte, error) {
	return os.ReadFile(filePath)
}

// DocumentOptions configures AssembleDocument.
type DocumentOptions struct {
	RootPath    string
	TreeView    string
	Files       []string
	Reader      FileReader
	Concurrency int
	Logger      *zap.Logger
}

// Document is an assembled Markdown document.
type Document struct {
	Text       string
	Files      int
	Unreadable []string
}

type fileSection struct {
	relativePath string
	language     string
	content      string
	readable     bool
}

// AssembleDocument reads every file concurrently and joins the sections in the order of
// options.Files. A file that cannot be read or is not text gets a placeholder body; only
// context cancellation aborts assembly.
func AssembleDocument(ctx context.Context, options DocumentOptions) (Document, error) {
	reader := options.Reader
	if reader == nil {
		reader = OSFileReader{}
	}
	logger := utils.LoggerOrNop(options.Logger)
	concurrency := options.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	sections := make([]fileSection, len(options.Files))
	group, groupContext := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)
	for fileIndex, filePath := range options.Files {
		fileIndex, filePath := fileIndex, filePath
		group.Go(func() error {
			if contextError := groupContext.Err(); contextError != nil {
				return contextError
			}
			sections[fileIndex] = readSection(reader, options.RootPath, filePath, logger)
			return nil
		})
	}
	if waitError := group.Wait(); waitError != nil {
		return Document{}, fmt.Errorf(errorAssembleFormat, options.RootPath, waitError)
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, documentTitleFormat, filepath.Base(options.RootPath))
	builder.WriteString(directoryStructureHeading)
	builder.WriteString("```\n")
	builder.WriteString(options.TreeView)
	builder.WriteString("```\n\n")
	builder.WriteString(filesHeading)

	document := Document{Files: len(sections)}
	for _, section := range sections {
		fmt.Fprintf(&builder, fileHeadingFormat, section.relativePath)
		if !section.readable {
			builder.WriteString(UnreadablePlaceholder + "\n\n")
			document.Unreadable = append(document.Unreadable, section.relativePath)
			continue
		}
		fence := FenceFor(section.content)
		builder.WriteString(fence + section.language + "\n")
		builder.WriteString(section.content)
		builder.WriteString("\n" + fence + "\n\n")
	}
	document.Text = builder.String()
	return document, nil
}

func readSection(reader FileReader, rootPath string, filePath string, logger *zap.Logger) fileSection {
	section := fileSection{
		relativePath: headingPath(rootPath, filePath),
		language:     utils.LanguageForPath(filePath),
	}
	data, readError := reader.ReadFile(filePath)
	if readError != nil {
		logger.Warn(unreadableFileMessage, zap.String("path", filePath), zap.Error(readError))
		return section
	}
	if utils.IsBinary(data) {
		logger.Debug(unreadableFileMessage, zap.String("path", filePath), zap.String("reason", "binary"))
		return section
	}
	section.content = string(data)
	section.readable = true
	return section
}

func headingPath(rootPath string, filePath string) string {
	relativePath, relativeError := filepath.Rel(rootPath, filePath)
	if relativeError != nil {
		return filepath.ToSlash(filePath)
	}
	return filepath.ToSlash(relativePath)
}

// FenceFor returns a backtick fence longer than any backtick run inside content,
// and never shorter than three.
func FenceFor(content string) string {
	longestRun := 0
	currentRun := 0
	for _, character := range content {
		if character == fenceRune {
			currentRun++
			if currentRun > longestRun {
				longestRun = currentRun
			}
			continue
		}
		currentRun = 0
	}
	fenceLength := minimumFenceLength
	if longestRun >= fenceLength {
		fenceLength = longestRun + 1
	}
	return strings.Repeat(string(fenceRune), fenceLength)
}
