// Package matcher enumerates the paths under a root that survive an ignore rule set.
package matcher

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"

	ignore "github.com/sabhiram/go-gitignore"
	"go.uber.org/zap"

	"github.com/temirov/codeweaver/internal/types"
	"github.com/temirov/codeweaver/internal/utils"
)

const (
	directorySuffix         = "/"
	walkEntrySkippedMessage = "skipping unreadable path"
	errorWalkRootFormat     = "walking %s: %w"
)

// PathMatcher returns the slash-separated relative paths of every file and directory
// under rootPath that no rule excludes.
type PathMatcher interface {
	Match(ctx context.Context, rootPath string, rules types.IgnoreRuleSet) ([]string, error)
}

// Walker is the filesystem PathMatcher. Default rules form a tier that later rules cannot
// override; user and .gitignore rules are evaluated together where the last matching rule wins.
type Walker struct {
	logger *zap.Logger
}

// NewWalker constructs a Walker that logs skipped entries to logger.
func NewWalker(logger *zap.Logger) *Walker {
	return &Walker{logger: utils.LoggerOrNop(logger)}
}

// Match walks rootPath in lexical order. Dotfiles are included and excluded directories are
// not descended into. Unreadable entries are logged and skipped.
func (walker *Walker) Match(ctx context.Context, rootPath string, rules types.IgnoreRuleSet) ([]string, error) {
	logger := utils.LoggerOrNop(walker.logger)
	evaluator := newRuleEvaluator(rules)

	var matches []string
	walkError := filepath.WalkDir(rootPath, func(currentPath string, directoryEntry fs.DirEntry, entryError error) error {
		if contextError := ctx.Err(); contextError != nil {
			return contextError
		}
		if entryError != nil {
			if currentPath == rootPath {
				return entryError
			}
			logger.Warn(walkEntrySkippedMessage, zap.String("path", currentPath), zap.Error(entryError))
			return nil
		}
		if currentPath == rootPath {
			return nil
		}

		relativePath := utils.RelativePathOrSelf(currentPath, rootPath)
		if !utils.IsWithinRoot(relativePath) {
			logger.Warn(walkEntrySkippedMessage, zap.String("path", currentPath))
			return nil
		}

		isDirectory := directoryEntry.IsDir()
		if evaluator.excludes(relativePath, isDirectory) {
			if isDirectory {
				return filepath.SkipDir
			}
			return nil
		}
		matches = append(matches, relativePath)
		return nil
	})
	if walkError != nil {
		return nil, fmt.Errorf(errorWalkRootFormat, rootPath, walkError)
	}
	return matches, nil
}

type ruleEvaluator struct {
	fixed         *ignore.GitIgnore
	ordered       *ignore.GitIgnore
	literalPaths  map[string]struct{}
	hasOrdered    bool
	hasFixedRules bool
}

func newRuleEvaluator(rules types.IgnoreRuleSet) ruleEvaluator {
	fixedPatterns := rules.Patterns(types.RuleSourceDefault)
	orderedPatterns := rules.Patterns(types.RuleSourceUser, types.RuleSourceGitignore)
	literalPaths := make(map[string]struct{})
	for _, rule := range rules {
		if rule.Source == types.RuleSourceLiteral {
			literalPaths[rule.Pattern] = struct{}{}
		}
	}
	return ruleEvaluator{
		fixed:         ignore.CompileIgnoreLines(fixedPatterns...),
		ordered:       ignore.CompileIgnoreLines(orderedPatterns...),
		literalPaths:  literalPaths,
		hasOrdered:    len(orderedPatterns) > 0,
		hasFixedRules: len(fixedPatterns) > 0,
	}
}

// excludes tests a directory both bare and with a trailing slash so that
// directory-only patterns such as "tmp/" apply.
func (evaluator ruleEvaluator) excludes(relativePath string, isDirectory bool) bool {
	if _, literal := evaluator.literalPaths[relativePath]; literal {
		return true
	}
	candidates := []string{relativePath}
	if isDirectory {
		candidates = append(candidates, relativePath+directorySuffix)
	}
	for _, candidate := range candidates {
		if evaluator.hasFixedRules && evaluator.fixed.MatchesPath(candidate) {
			return true
		}
		if evaluator.hasOrdered && evaluator.ordered.MatchesPath(candidate) {
			return true
		}
	}
	return false
}
