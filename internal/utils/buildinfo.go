package utils

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime/debug"
	"strings"

	"golang.org/x/mod/semver"
)

const (
	unknownVersion     = "unknown"
	develBuildVersion  = "(devel)"
	semanticVersionTag = "v"
)

// GetApplicationVersion attempts to determine the application version using various methods.
// It checks Go build info first, then falls back to git describe commands if available.
func GetApplicationVersion() string {
	buildInfo, buildInfoAvailable := debug.ReadBuildInfo()
	if buildInfoAvailable {
		if moduleVersion, valid := NormalizeVersion(buildInfo.Main.Version); valid {
			return moduleVersion
		}
	}

	gitDirectoryPath, gitDirectoryError := findGitDirectory(".")
	if gitDirectoryError == nil && gitDirectoryPath != "" {
		// #nosec G204
		gitExactCommand := exec.Command("git", "describe", "--tags", "--exact-match")
		gitExactCommand.Dir = gitDirectoryPath
		gitExactOutput, errorGitExact := gitExactCommand.Output()
		if errorGitExact == nil {
			if taggedVersion, valid := NormalizeVersion(string(gitExactOutput)); valid {
				return taggedVersion
			}
		}

		// #nosec G204
		gitLongCommand := exec.Command("git", "describe", "--tags", "--long", "--dirty")
		gitLongCommand.Dir = gitDirectoryPath
		gitLongOutput, errorGitLong := gitLongCommand.Output()
		if errorGitLong == nil && len(gitLongOutput) > 0 {
			return strings.TrimSpace(string(gitLongOutput))
		}
	}

	return unknownVersion
}

// NormalizeVersion trims the candidate, adds a missing "v" prefix and reports whether
// the result is a valid semantic version.
func NormalizeVersion(candidate string) (string, bool) {
	trimmedCandidate := strings.TrimSpace(candidate)
	if trimmedCandidate == "" || trimmedCandidate == develBuildVersion {
		return "", false
	}
	if !strings.HasPrefix(trimmedCandidate, semanticVersionTag) {
		trimmedCandidate = semanticVersionTag + trimmedCandidate
	}
	if !semver.IsValid(trimmedCandidate) {
		return "", false
	}
	return semver.Canonical(trimmedCandidate) + buildSuffix(trimmedCandidate), true
}

// buildSuffix preserves the "+build" metadata that semver.Canonical strips.
func buildSuffix(version string) string {
	return semver.Build(version)
}

// findGitDirectory searches upward from the provided starting directory
// until it locates a directory containing the .git folder and returns
// the path to that directory.
func findGitDirectory(startDirectory string) (string, error) {
	absoluteStartDirectory, errorAbsolute := filepath.Abs(startDirectory)
	if errorAbsolute != nil {
		return "", fmt.Errorf("failed to get absolute path for %s: %w", startDirectory, errorAbsolute)
	}

	currentDirectory := absoluteStartDirectory
	for {
		gitPath := filepath.Join(currentDirectory, GitDirectoryName)
		fileInformation, errorStat := os.Stat(gitPath)
		if errorStat == nil && fileInformation.IsDir() {
			return currentDirectory, nil
		}

		parentDirectory := filepath.Dir(currentDirectory)
		if parentDirectory == currentDirectory {
			break
		}
		currentDirectory = parentDirectory
	}

	return "", fmt.Errorf(".git directory not found in or above %s", absoluteStartDirectory)
}
