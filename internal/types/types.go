// Package types defines every cross‑package data structure used by codeweaver.
package types

const (
	// PathSeparator is the canonical separator used in relative node paths.
	PathSeparator = "/"

	// ToolPackCodebase is the name under which the pack operation is exposed.
	ToolPackCodebase = "codeweaver_pack_codebase"

	// CommandPack is the CLI name of the pack operation.
	CommandPack = "pack"
)

// Node is one entry of the hierarchy reconstructed from matched paths.
// Children is nil for files and non-nil (possibly empty) for directories.
type Node struct {
	Name         string
	RelativePath string
	IsDirectory  bool
	Children     []*Node
}

// IsRoot reports whether the node is the sentinel root of a hierarchy.
func (node *Node) IsRoot() bool {
	return node.RelativePath == ""
}

// RuleSource identifies where an ignore rule came from.
type RuleSource string

const (
	RuleSourceDefault   RuleSource = "default"
	RuleSourceUser      RuleSource = "user"
	RuleSourceGitignore RuleSource = "gitignore"
	// RuleSourceLiteral rules hold exact relative paths rather than globs.
	RuleSourceLiteral RuleSource = "literal"
)

// IgnoreRule is one exclude pattern in gitignore glob syntax.
// A negated rule re-includes paths excluded by earlier rules of the same precedence tier.
type IgnoreRule struct {
	Pattern string
	Negated bool
	Source  RuleSource
}

// IgnoreRuleSet is the ordered rule list handed to a path matcher.
type IgnoreRuleSet []IgnoreRule

// Patterns returns the rules of the requested sources in gitignore line form.
func (ruleSet IgnoreRuleSet) Patterns(sources ...RuleSource) []string {
	var lines []string
	for _, rule := range ruleSet {
		if !rule.hasSource(sources) {
			continue
		}
		if rule.Negated {
			lines = append(lines, "!"+rule.Pattern)
			continue
		}
		lines = append(lines, rule.Pattern)
	}
	return lines
}

func (rule IgnoreRule) hasSource(sources []RuleSource) bool {
	if len(sources) == 0 {
		return true
	}
	for _, source := range sources {
		if rule.Source == source {
			return true
		}
	}
	return false
}

// PackRequest describes a single pack invocation.
type PackRequest struct {
	RootPath          string
	IncludeGitignored bool
	IgnorePatterns    []string
	// OutputPath is only used to keep a previously written document out of its own listing.
	OutputPath  string
	Concurrency int
}

// PackResult is the outcome of a successful pack invocation.
type PackResult struct {
	Document        string
	RootName        string
	Files           int
	UnreadableFiles []string
	Tokens          int
	TokenModel      string
}
