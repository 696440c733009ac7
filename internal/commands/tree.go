// Package commands contains the core logic of the pack operation.
package commands

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/temirov/codeweaver/internal/types"
	"github.com/temirov/codeweaver/internal/utils"
)

// DirectoryProbe reports whether the slash-separated relative path is a directory.
// It must return false when the answer cannot be determined.
type DirectoryProbe func(relativePath string) bool

// FilesystemProbe stats paths under rootPath, following symbolic links.
func FilesystemProbe(rootPath string) DirectoryProbe {
	return func(relativePath string) bool {
		fileInformation, statError := os.Stat(filepath.Join(rootPath, filepath.FromSlash(relativePath)))
		if statError != nil {
			return false
		}
		return fileInformation.IsDir()
	}
}

// BuildTree reconstructs the hierarchy described by the matched relative paths.
// Shared prefixes are merged through a path index, intermediate segments are directories,
// and the probe is only asked about the last segment of each match.
func BuildTree(matches []string, probe DirectoryProbe) *types.Node {
	root := &types.Node{IsDirectory: true, Children: []*types.Node{}}
	nodeIndex := map[string]*types.Node{"": root}

	for _, match := range matches {
		segments := utils.SplitRelativePath(match)
		accumulatedPath := ""
		parent := root
		for segmentIndex, segment := range segments {
			if accumulatedPath == "" {
				accumulatedPath = segment
			} else {
				accumulatedPath = strings.Join([]string{accumulatedPath, segment}, types.PathSeparator)
			}
			isLastSegment := segmentIndex == len(segments)-1

			existing, found := nodeIndex[accumulatedPath]
			if found {
				if !isLastSegment && !existing.IsDirectory {
					promoteToDirectory(existing)
				}
				parent = existing
				continue
			}

			isDirectory := !isLastSegment
			if isLastSegment && probe != nil {
				isDirectory = probe(accumulatedPath)
			}
			node := &types.Node{Name: segment, RelativePath: accumulatedPath, IsDirectory: isDirectory}
			if isDirectory {
				node.Children = []*types.Node{}
			}
			nodeIndex[accumulatedPath] = node
			parent.Children = append(parent.Children, node)
			parent = node
		}
	}
	return root
}

func promoteToDirectory(node *types.Node) {
	node.IsDirectory = true
	if node.Children == nil {
		node.Children = []*types.Node{}
	}
}
