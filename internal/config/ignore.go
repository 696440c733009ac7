// Package config builds ignore rule sets and loads application configuration.
package config

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/codeweaver/internal/types"
	"github.com/temirov/codeweaver/internal/utils"
)

const (
	commentPrefix        = "#"
	negationPrefix       = "!"
	anyDepthPrefix       = "**/"
	rootAnchorPrefix     = "/"
	gitignoreSkippedLog  = "skipping .gitignore"
	gitignoreCloseFailed = "failed to close .gitignore"
)

// DefaultIgnorePatterns are always excluded and cannot be re-included by caller or .gitignore rules.
var DefaultIgnorePatterns = []string{
	"**/node_modules/**",
	"**/.git/**",
	"**/dist/**",
	"**/build/**",
	"**/.next/**",
	"**/.nuxt/**",
	"**/vendor/**",
	"**/.venv/**",
	"**/venv/**",
	"**/__pycache__/**",
	"**/*.pyc",
	"**/.DS_Store",
	"**/Thumbs.db",
}

// BuildIgnoreRules assembles the ordered rule set for one pack invocation: the defaults,
// then extraPatterns verbatim, then the root .gitignore unless includeGitignored is set.
// Blank extra patterns are kept too; the matcher treats them as no-ops.
// A missing or unreadable .gitignore contributes nothing.
func BuildIgnoreRules(rootPath string, includeGitignored bool, extraPatterns []string, logger *zap.Logger) types.IgnoreRuleSet {
	logger = utils.LoggerOrNop(logger)

	ruleSet := make(types.IgnoreRuleSet, 0, len(DefaultIgnorePatterns)+len(extraPatterns))
	for _, pattern := range DefaultIgnorePatterns {
		ruleSet = append(ruleSet, types.IgnoreRule{Pattern: pattern, Source: types.RuleSourceDefault})
	}
	for _, pattern := range extraPatterns {
		ruleSet = append(ruleSet, types.IgnoreRule{Pattern: pattern, Source: types.RuleSourceUser})
	}

	if includeGitignored {
		return ruleSet
	}

	gitignorePath := filepath.Join(rootPath, utils.GitIgnoreFileName)
	gitignoreLines, loadError := LoadGitignoreLines(gitignorePath, logger)
	if loadError != nil {
		if !errors.Is(loadError, os.ErrNotExist) {
			logger.Debug(gitignoreSkippedLog, zap.String("path", gitignorePath), zap.Error(loadError))
		}
		return ruleSet
	}
	for _, line := range gitignoreLines {
		ruleSet = append(ruleSet, gitignoreRule(line))
	}
	return ruleSet
}

// LoadGitignoreLines reads a .gitignore file and returns its trimmed, non-comment lines.
//
// #nosec G304
func LoadGitignoreLines(gitignorePath string, logger *zap.Logger) ([]string, error) {
	fileHandle, openFileError := os.Open(gitignorePath)
	if openFileError != nil {
		return nil, openFileError
	}
	defer func() {
		if closeError := fileHandle.Close(); closeError != nil {
			utils.LoggerOrNop(logger).Warn(gitignoreCloseFailed, zap.String("path", gitignorePath), zap.Error(closeError))
		}
	}()

	var lines []string
	scanner := bufio.NewScanner(fileHandle)
	for scanner.Scan() {
		trimmedLine := strings.TrimSpace(scanner.Text())
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, commentPrefix) {
			continue
		}
		lines = append(lines, trimmedLine)
	}
	if scanError := scanner.Err(); scanError != nil {
		return nil, scanError
	}
	return lines, nil
}

// gitignoreRule converts one .gitignore line into a rule. Negations and lines anchored with a
// leading "/" are kept as-is, so anchored lines only match at the root; everything else is
// matched at any depth.
func gitignoreRule(line string) types.IgnoreRule {
	if strings.HasPrefix(line, negationPrefix) {
		return types.IgnoreRule{
			Pattern: strings.TrimPrefix(line, negationPrefix),
			Negated: true,
			Source:  types.RuleSourceGitignore,
		}
	}
	if strings.HasPrefix(line, rootAnchorPrefix) {
		return types.IgnoreRule{Pattern: line, Source: types.RuleSourceGitignore}
	}
	return types.IgnoreRule{Pattern: anyDepthPrefix + line, Source: types.RuleSourceGitignore}
}
