package utils

import (
	"path/filepath"
	"strings"
)

// languageByExtension maps lower-case file extensions to Markdown fence language tags.
var languageByExtension = map[string]string{
	".ts":    "typescript",
	".tsx":   "tsx",
	".js":    "javascript",
	".jsx":   "jsx",
	".mjs":   "javascript",
	".cjs":   "javascript",
	".py":    "python",
	".go":    "go",
	".rs":    "rust",
	".java":  "java",
	".c":     "c",
	".cpp":   "cpp",
	".cc":    "cpp",
	".h":     "c",
	".hpp":   "cpp",
	".cs":    "csharp",
	".rb":    "ruby",
	".php":   "php",
	".swift": "swift",
	".kt":    "kotlin",
	".scala": "scala",
	".sql":   "sql",
	".sh":    "bash",
	".bash":  "bash",
	".zsh":   "bash",
	".ps1":   "powershell",
	".yaml":  "yaml",
	".yml":   "yaml",
	".toml":  "toml",
	".json":  "json",
	".xml":   "xml",
	".html":  "html",
	".htm":   "html",
	".css":   "css",
	".scss":  "scss",
	".md":    "markdown",
	".proto": "protobuf",
	".lua":   "lua",
	".dart":  "dart",
	".vue":   "vue",
}

// LanguageForPath returns the fence language tag for a file path, or "" when the
// extension is unknown. Matching is case-insensitive on the final extension.
func LanguageForPath(filePath string) string {
	extension := strings.ToLower(filepath.Ext(filePath))
	if extension == "" {
		return ""
	}
	return languageByExtension[extension]
}
