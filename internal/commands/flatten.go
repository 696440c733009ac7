package commands

import (
	"path/filepath"

	"github.com/temirov/codeweaver/internal/output"
	"github.com/temirov/codeweaver/internal/types"
)

// Flatten lists the absolute path of every file node in depth-first pre-order.
// Siblings are visited in rendering order so the document follows the visible tree.
func Flatten(rootPath string, root *types.Node) []string {
	var filePaths []string
	var visit func(node *types.Node)
	visit = func(node *types.Node) {
		if !node.IsDirectory {
			filePaths = append(filePaths, filepath.Join(rootPath, filepath.FromSlash(node.RelativePath)))
			return
		}
		for _, child := range output.SortedChildren(node) {
			visit(child)
		}
	}
	if root != nil {
		visit(root)
	}
	return filePaths
}
