// Package testfs seeds temporary directories from txtar archives for tests.
package testfs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"
)

const directoryMarker = "/"

// Seed writes every file of the txtar archive under a fresh temporary directory and returns it.
// Archive entries whose name ends in "/" create empty directories.
func Seed(t testing.TB, archive string) string {
	t.Helper()
	rootDirectory := t.TempDir()
	SeedInto(t, rootDirectory, archive)
	return rootDirectory
}

// SeedInto writes the archive's files under rootDirectory.
func SeedInto(t testing.TB, rootDirectory string, archive string) {
	t.Helper()
	parsedArchive := txtar.Parse([]byte(archive))
	for _, archiveFile := range parsedArchive.Files {
		targetPath := filepath.Join(rootDirectory, filepath.FromSlash(strings.TrimSuffix(archiveFile.Name, directoryMarker)))
		if strings.HasSuffix(archiveFile.Name, directoryMarker) {
			if err := os.MkdirAll(targetPath, 0o755); err != nil {
				t.Fatalf("create directory %s: %v", targetPath, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
			t.Fatalf("create parent of %s: %v", targetPath, err)
		}
		if err := os.WriteFile(targetPath, archiveFile.Data, 0o644); err != nil {
			t.Fatalf("write %s: %v", targetPath, err)
		}
	}
}
