// Package utils contains general helper functions used across codeweaver.
package utils

import (
	"path/filepath"
	"strings"
)

// File and directory names used across the project.
const (
	// GitIgnoreFileName is the name of the Git ignore file read at the pack root.
	GitIgnoreFileName = ".gitignore"
	// GitDirectoryName is the name of the Git repository directory.
	GitDirectoryName = ".git"
	// ConfigFileName is the name of the local and global configuration file.
	ConfigFileName = "config.yaml"
	// GlobalConfigDirectoryName is the directory under the user's home holding global configuration.
	GlobalConfigDirectoryName = ".codeweaver"
)

// Message formats shared by the entry point and the command layer.
const (
	// LoggerInitializationFailedMessageFormat reports a logger construction failure.
	LoggerInitializationFailedMessageFormat = "failed to initialize logger: %w"
	// ApplicationExecutionFailedMessage prefixes a fatal execution error.
	ApplicationExecutionFailedMessage = "application execution failed"
)

const pathSegmentSeparator = "/"

// RelativePathOrSelf calculates the relative path from root to fullPath.
// Returns the cleaned fullPath if relative calculation fails.
// Returns "." if fullPath and root resolve to the same directory.
// The result always uses forward slashes.
func RelativePathOrSelf(fullPath, root string) string {
	cleanPath := filepath.Clean(fullPath)
	absoluteRoot, err := filepath.Abs(root)
	if err != nil {
		return cleanPath
	}
	cleanAbsoluteRoot := filepath.Clean(absoluteRoot)

	if cleanPath == cleanAbsoluteRoot {
		return "."
	}

	relativePath, relErr := filepath.Rel(cleanAbsoluteRoot, cleanPath)
	if relErr != nil {
		return cleanPath
	}
	return filepath.ToSlash(relativePath)
}

// IsWithinRoot reports whether the slash-separated relative path stays inside its root.
func IsWithinRoot(relativePath string) bool {
	if relativePath == "" || relativePath == "." {
		return false
	}
	if filepath.IsAbs(relativePath) {
		return false
	}
	return relativePath != ".." && !strings.HasPrefix(relativePath, ".."+pathSegmentSeparator)
}

// SplitRelativePath splits a relative path into its non-empty segments.
// Only the OS separator and "/" split; a backslash is an ordinary file name byte on Unix.
func SplitRelativePath(relativePath string) []string {
	normalizedPath := filepath.ToSlash(relativePath)
	rawSegments := strings.Split(normalizedPath, pathSegmentSeparator)
	segments := make([]string, 0, len(rawSegments))
	for _, segment := range rawSegments {
		if segment == "" || segment == "." {
			continue
		}
		segments = append(segments, segment)
	}
	return segments
}
