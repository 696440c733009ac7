package utils_test

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/temirov/codeweaver/internal/utils"
)

func TestLanguageForPath(testingInstance *testing.T) {
	testCases := []struct {
		name     string
		filePath string
		expected string
	}{
		{name: "typescript", filePath: "src/index.ts", expected: "typescript"},
		{name: "go", filePath: "main.go", expected: "go"},
		{name: "upper case extension", filePath: "README.MD", expected: "markdown"},
		{name: "header maps to c", filePath: "lib/x.h", expected: "c"},
		{name: "yml alias", filePath: ".github/ci.yml", expected: "yaml"},
		{name: "shell", filePath: "run.sh", expected: "bash"},
		{name: "unknown extension", filePath: "notes.xyz", expected: ""},
		{name: "no extension", filePath: "Makefile", expected: ""},
		{name: "only last extension counts", filePath: "archive.tar.gz", expected: ""},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testingInstance.Run(testCase.name, func(subTest *testing.T) {
			subTest.Parallel()
			if actual := utils.LanguageForPath(testCase.filePath); actual != testCase.expected {
				subTest.Fatalf("LanguageForPath(%q) = %q, want %q", testCase.filePath, actual, testCase.expected)
			}
		})
	}
}

func TestIsBinary(testingInstance *testing.T) {
	testCases := []struct {
		name     string
		data     []byte
		expected bool
	}{
		{name: "empty", data: nil, expected: false},
		{name: "ascii text", data: []byte("hello\n"), expected: false},
		{name: "utf8 text", data: []byte("héllo ✅"), expected: false},
		{name: "nul byte", data: []byte{'a', 0, 'b'}, expected: true},
		{name: "invalid utf8", data: []byte{0xff, 0xfe, 0x01}, expected: true},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testingInstance.Run(testCase.name, func(subTest *testing.T) {
			subTest.Parallel()
			if actual := utils.IsBinary(testCase.data); actual != testCase.expected {
				subTest.Fatalf("IsBinary(%v) = %v, want %v", testCase.data, actual, testCase.expected)
			}
		})
	}
}

func TestRelativePathOrSelf(testingInstance *testing.T) {
	rootDirectory := testingInstance.TempDir()
	nestedPath := filepath.Join(rootDirectory, "a", "b.txt")

	if actual := utils.RelativePathOrSelf(nestedPath, rootDirectory); actual != "a/b.txt" {
		testingInstance.Fatalf("unexpected relative path %q", actual)
	}
	if actual := utils.RelativePathOrSelf(rootDirectory, rootDirectory); actual != "." {
		testingInstance.Fatalf("expected root to resolve to '.', got %q", actual)
	}
}

func TestIsWithinRoot(testingInstance *testing.T) {
	testCases := map[string]bool{
		"a/b.txt":  true,
		"a":        true,
		".":        false,
		"":         false,
		"..":       false,
		"../a.txt": false,
		"..a":      true,
	}
	for relativePath, expected := range testCases {
		if actual := utils.IsWithinRoot(relativePath); actual != expected {
			testingInstance.Errorf("IsWithinRoot(%q) = %v, want %v", relativePath, actual, expected)
		}
	}
}

func TestSplitRelativePath(testingInstance *testing.T) {
	testCases := []struct {
		input    string
		expected []string
	}{
		{input: "a/b/c.txt", expected: []string{"a", "b", "c.txt"}},
		{input: filepath.Join("a", "b", "c.txt"), expected: []string{"a", "b", "c.txt"}},
		{input: "./a//b/", expected: []string{"a", "b"}},
		{input: "", expected: []string{}},
	}
	for _, testCase := range testCases {
		if actual := utils.SplitRelativePath(testCase.input); !reflect.DeepEqual(actual, testCase.expected) {
			testingInstance.Errorf("SplitRelativePath(%q) = %#v, want %#v", testCase.input, actual, testCase.expected)
		}
	}
}

func TestFormatByteSize(testingInstance *testing.T) {
	testCases := []struct {
		input    int64
		expected string
	}{
		{input: -1, expected: "0b"},
		{input: 0, expected: "0b"},
		{input: 1023, expected: "1023b"},
		{input: 1024, expected: "1kb"},
		{input: 1536, expected: "1.5kb"},
		{input: 20 * 1024, expected: "20kb"},
		{input: 3 * 1024 * 1024 * 1024, expected: "3gb"},
	}
	for _, testCase := range testCases {
		if actual := utils.FormatByteSize(testCase.input); actual != testCase.expected {
			testingInstance.Errorf("FormatByteSize(%d) = %q, want %q", testCase.input, actual, testCase.expected)
		}
	}
}

func TestNormalizeVersion(testingInstance *testing.T) {
	testCases := []struct {
		input         string
		expected      string
		expectedValid bool
	}{
		{input: "v1.2.3", expected: "v1.2.3", expectedValid: true},
		{input: "1.2.3\n", expected: "v1.2.3", expectedValid: true},
		{input: "v1.2", expected: "v1.2.0", expectedValid: true},
		{input: "(devel)", expected: "", expectedValid: false},
		{input: "", expected: "", expectedValid: false},
		{input: "not-a-version", expected: "", expectedValid: false},
	}
	for _, testCase := range testCases {
		actual, valid := utils.NormalizeVersion(testCase.input)
		if actual != testCase.expected || valid != testCase.expectedValid {
			testingInstance.Errorf("NormalizeVersion(%q) = (%q, %v), want (%q, %v)", testCase.input, actual, valid, testCase.expected, testCase.expectedValid)
		}
	}
}
