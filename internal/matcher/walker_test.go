package matcher_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/temirov/codeweaver/internal/config"
	"github.com/temirov/codeweaver/internal/matcher"
	"github.com/temirov/codeweaver/internal/testfs"
	"github.com/temirov/codeweaver/internal/types"
)

const projectArchive = `
-- .gitignore --
*.log
tmp/
!keep.log
-- .hidden --
h
-- a.log --
a
-- keep.log --
k
-- src/main.go --
package main
-- src/tmp/scratch.txt --
s
-- node_modules/pkg/index.js --
x
-- src/node_modules/deep.js --
x
-- empty/ --
`

func TestWalkerMatch(t *testing.T) {
	testCases := []struct {
		name              string
		includeGitignored bool
		extraPatterns     []string
		expected          []string
	}{
		{
			name:     "gitignore honoured with negation",
			expected: []string{".gitignore", ".hidden", "empty", "keep.log", "src", "src/main.go"},
		},
		{
			name:              "gitignore skipped",
			includeGitignored: true,
			expected:          []string{".gitignore", ".hidden", "a.log", "empty", "keep.log", "src", "src/main.go", "src/tmp", "src/tmp/scratch.txt"},
		},
		{
			name:              "caller negation cannot revive defaults",
			includeGitignored: true,
			extraPatterns:     []string{"!**/node_modules/**", ".hidden"},
			expected:          []string{".gitignore", "a.log", "empty", "keep.log", "src", "src/main.go", "src/tmp", "src/tmp/scratch.txt"},
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			rootDirectory := testfs.Seed(t, projectArchive)
			rules := config.BuildIgnoreRules(rootDirectory, testCase.includeGitignored, testCase.extraPatterns, nil)
			matches, err := matcher.NewWalker(nil).Match(context.Background(), rootDirectory, rules)
			if err != nil {
				t.Fatalf("Match error: %v", err)
			}
			if !reflect.DeepEqual(matches, testCase.expected) {
				t.Fatalf("expected %v, got %v", testCase.expected, matches)
			}
		})
	}
}

func TestWalkerExcludesLiteralPaths(t *testing.T) {
	rootDirectory := testfs.Seed(t, "-- out.md --\nold\n-- docs/out.md --\nkept\n")
	rules := types.IgnoreRuleSet{{Pattern: "out.md", Source: types.RuleSourceLiteral}}
	matches, err := matcher.NewWalker(nil).Match(context.Background(), rootDirectory, rules)
	if err != nil {
		t.Fatalf("Match error: %v", err)
	}
	expected := []string{"docs", "docs/out.md"}
	if !reflect.DeepEqual(matches, expected) {
		t.Fatalf("expected %v, got %v", expected, matches)
	}
}

func TestWalkerHonoursAnchoredGitignoreLines(t *testing.T) {
	rootDirectory := testfs.Seed(t, `
-- .gitignore --
/secret.txt
/out/
sub/gen.txt
-- keep.txt --
k
-- secret.txt --
s
-- out/x.txt --
x
-- sub/gen.txt --
g
-- sub/secret.txt --
s
-- sub/out/y.txt --
y
`)
	rules := config.BuildIgnoreRules(rootDirectory, false, []string{""}, nil)
	matches, err := matcher.NewWalker(nil).Match(context.Background(), rootDirectory, rules)
	if err != nil {
		t.Fatalf("Match error: %v", err)
	}
	expected := []string{".gitignore", "keep.txt", "sub", "sub/out", "sub/out/y.txt", "sub/secret.txt"}
	if !reflect.DeepEqual(matches, expected) {
		t.Fatalf("expected %v, got %v", expected, matches)
	}
}

func TestWalkerHonoursCancellation(t *testing.T) {
	rootDirectory := testfs.Seed(t, "-- a.txt --\na\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := matcher.NewWalker(nil).Match(ctx, rootDirectory, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
