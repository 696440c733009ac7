// Package output renders packed hierarchies and documents.
package output

import (
	"io"
	"sort"
	"strings"

	"github.com/temirov/codeweaver/internal/types"
)

const (
	treeBranchConnector = "├── "
	treeLastConnector   = "└── "
	treeBranchPadding   = "│   "
	treeLastPadding     = "    "
	lineTerminator      = "\n"
)

// SortSiblings orders nodes in place: directories before files, then by name in byte order.
// The sort is stable, so equal keys keep their insertion order.
func SortSiblings(nodes []*types.Node) {
	sort.SliceStable(nodes, func(leftIndex, rightIndex int) bool {
		leftNode := nodes[leftIndex]
		rightNode := nodes[rightIndex]
		if leftNode.IsDirectory != rightNode.IsDirectory {
			return leftNode.IsDirectory
		}
		return leftNode.Name < rightNode.Name
	})
}

// SortedChildren returns a sorted copy of the node's children, leaving the node untouched.
func SortedChildren(node *types.Node) []*types.Node {
	children := make([]*types.Node, len(node.Children))
	copy(children, node.Children)
	SortSiblings(children)
	return children
}

// RenderTree draws every node below root with ASCII connectors, one line per node.
// The root itself is not drawn. The result is independent of insertion order.
func RenderTree(root *types.Node) string {
	var builder strings.Builder
	WriteTree(&builder, root)
	return builder.String()
}

// WriteTree streams the rendering produced by RenderTree to writer.
func WriteTree(writer io.StringWriter, root *types.Node) {
	if root == nil {
		return
	}
	writeTreeNode(writer, root, "", true)
}

func treeNodeLinePrefix(prefix string, isLast bool) (string, string) {
	connector := treeBranchConnector
	childPrefix := prefix + treeBranchPadding
	if isLast {
		connector = treeLastConnector
		childPrefix = prefix + treeLastPadding
	}
	return prefix + connector, childPrefix
}

func writeTreeNode(writer io.StringWriter, node *types.Node, prefix string, isLast bool) {
	childPrefix := ""
	if !node.IsRoot() {
		var linePrefix string
		linePrefix, childPrefix = treeNodeLinePrefix(prefix, isLast)
		_, _ = writer.WriteString(linePrefix + node.Name + lineTerminator)
	}
	children := SortedChildren(node)
	for childIndex, child := range children {
		writeTreeNode(writer, child, childPrefix, childIndex == len(children)-1)
	}
}
