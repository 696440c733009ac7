package output_test

import (
	"testing"

	"github.com/temirov/codeweaver/internal/output"
	"github.com/temirov/codeweaver/internal/types"
)

func directoryNode(name string, relativePath string, children ...*types.Node) *types.Node {
	if children == nil {
		children = []*types.Node{}
	}
	return &types.Node{Name: name, RelativePath: relativePath, IsDirectory: true, Children: children}
}

func fileNode(name string, relativePath string) *types.Node {
	return &types.Node{Name: name, RelativePath: relativePath}
}

func TestRenderTree(testingInstance *testing.T) {
	testCases := []struct {
		name     string
		root     *types.Node
		expected string
	}{
		{
			name:     "empty root",
			root:     directoryNode("", ""),
			expected: "",
		},
		{
			name: "directories before files",
			root: directoryNode("", "",
				fileNode("b.txt", "b.txt"),
				directoryNode("a", "a",
					fileNode("b.txt", "a/b.txt"),
					directoryNode("c", "a/c", fileNode("d.txt", "a/c/d.txt")),
				),
				fileNode("A.txt", "A.txt"),
			),
			expected: "├── a\n" +
				"│   ├── c\n" +
				"│   │   └── d.txt\n" +
				"│   └── b.txt\n" +
				"├── A.txt\n" +
				"└── b.txt\n",
		},
		{
			name: "branch padding below non-last sibling",
			root: directoryNode("", "",
				directoryNode("src", "src", fileNode("main.go", "src/main.go")),
				directoryNode("empty", "empty"),
				fileNode("go.mod", "go.mod"),
			),
			expected: "├── empty\n" +
				"├── src\n" +
				"│   └── main.go\n" +
				"└── go.mod\n",
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testingInstance.Run(testCase.name, func(subTest *testing.T) {
			subTest.Parallel()
			rendered := output.RenderTree(testCase.root)
			if rendered != testCase.expected {
				subTest.Fatalf("unexpected tree\nexpected:\n%s\ngot:\n%s", testCase.expected, rendered)
			}
		})
	}
}

func TestRenderTreeIgnoresInsertionOrder(testingInstance *testing.T) {
	first := directoryNode("", "",
		fileNode("z.go", "z.go"),
		directoryNode("lib", "lib", fileNode("b.go", "lib/b.go"), fileNode("a.go", "lib/a.go")),
		fileNode("a.go", "a.go"),
	)
	second := directoryNode("", "",
		fileNode("a.go", "a.go"),
		directoryNode("lib", "lib", fileNode("a.go", "lib/a.go"), fileNode("b.go", "lib/b.go")),
		fileNode("z.go", "z.go"),
	)
	if output.RenderTree(first) != output.RenderTree(second) {
		testingInstance.Fatalf("rendering depends on insertion order")
	}
	if first.Children[0].Name != "z.go" {
		testingInstance.Fatalf("rendering must not reorder the hierarchy")
	}
}

func TestSortSiblingsInvariant(testingInstance *testing.T) {
	nodes := []*types.Node{
		fileNode("b", "b"),
		directoryNode("z", "z"),
		fileNode("B", "B"),
		directoryNode("a", "a"),
		fileNode("a", "a-file"),
	}
	output.SortSiblings(nodes)
	expectedNames := []string{"a", "z", "B", "a", "b"}
	for index, node := range nodes {
		if node.Name != expectedNames[index] {
			testingInstance.Fatalf("position %d: expected %s, got %s", index, expectedNames[index], node.Name)
		}
	}
	seenFile := false
	for _, node := range nodes {
		if !node.IsDirectory {
			seenFile = true
			continue
		}
		if seenFile {
			testingInstance.Fatalf("directory %s sorted after a file", node.Name)
		}
	}
}
