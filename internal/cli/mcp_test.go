package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/temirov/codeweaver/internal/services/mcp"
	"github.com/temirov/codeweaver/internal/testfs"
	"github.com/temirov/codeweaver/internal/tokenizer"
	"github.com/temirov/codeweaver/internal/types"
)

type synchronizedBuffer struct {
	mutex  sync.Mutex
	buffer bytes.Buffer
}

func (buffer *synchronizedBuffer) Write(data []byte) (int, error) {
	buffer.mutex.Lock()
	defer buffer.mutex.Unlock()
	return buffer.buffer.Write(data)
}

func (buffer *synchronizedBuffer) String() string {
	buffer.mutex.Lock()
	defer buffer.mutex.Unlock()
	return buffer.buffer.String()
}

type wordCounter struct{}

func (wordCounter) Name() string { return "words" }

func (wordCounter) CountString(input string) (int, error) { return len(strings.Fields(input)), nil }

func stubCounterFactory(model string) (tokenizer.Counter, string, error) {
	return wordCounter{}, model, nil
}

func startTestServer(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	instance := newApplication(applicationOptions{CounterFactory: stubCounterFactory})
	var buffer synchronizedBuffer
	done := make(chan error, 1)
	go func() {
		done <- instance.startMCPServer(ctx, &buffer, serverSettings{address: defaultServeAddress, concurrency: 4})
	}()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("server shutdown error: %v", err)
		}
	})
	return waitForMCPAddress(t, &buffer)
}

func waitForMCPAddress(t *testing.T, buffer *synchronizedBuffer) string {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		for _, line := range strings.Split(buffer.String(), "\n") {
			if strings.HasPrefix(line, "MCP server listening on ") {
				return strings.TrimPrefix(line, "MCP server listening on ")
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("server address not reported: %s", buffer.String())
	return ""
}

func invokePackTool(t *testing.T, address string, body string) (int, mcp.ToolResponse) {
	t.Helper()
	client := http.Client{Timeout: 5 * time.Second}
	response, err := client.Post("http://"+address+"/tools/"+types.ToolPackCodebase, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("execute request: %v", err)
	}
	defer response.Body.Close()
	var toolResponse mcp.ToolResponse
	if response.StatusCode == http.StatusOK {
		if decodeErr := json.NewDecoder(response.Body).Decode(&toolResponse); decodeErr != nil {
			t.Fatalf("decode response: %v", decodeErr)
		}
	}
	return response.StatusCode, toolResponse
}

func jsonString(t *testing.T, value string) string {
	t.Helper()
	encoded, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("marshal %q: %v", value, err)
	}
	return string(encoded)
}

func TestStartMCPServerServesCapabilities(t *testing.T) {
	t.Parallel()
	address := startTestServer(t)

	client := http.Client{Timeout: 2 * time.Second}
	response, err := client.Get("http://" + address + "/capabilities")
	if err != nil {
		t.Fatalf("perform request: %v", err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", response.StatusCode)
	}

	var body struct {
		Tools []mcp.ToolDescriptor `json:"tools"`
	}
	if err := json.NewDecoder(response.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	expected := mcpTools()
	if len(body.Tools) != len(expected) {
		t.Fatalf("expected %d tools, got %d", len(expected), len(body.Tools))
	}
	if body.Tools[0].Name != types.ToolPackCodebase || body.Tools[0].Annotations != expected[0].Annotations {
		t.Fatalf("unexpected tool descriptor %+v", body.Tools[0])
	}
	var schema struct {
		Required []string `json:"required"`
	}
	if err := json.Unmarshal(body.Tools[0].InputSchema, &schema); err != nil {
		t.Fatalf("decode input schema: %v", err)
	}
	if len(schema.Required) != 1 || schema.Required[0] != "path" {
		t.Fatalf("unexpected required arguments %v", schema.Required)
	}
}

func TestStartMCPServerExecutesPackTool(t *testing.T) {
	t.Parallel()
	address := startTestServer(t)
	rootDirectory := testfs.Seed(t, "-- main.go --\npackage main\n-- app.log --\nnoise\n-- .gitignore --\n*.log\n")
	regularFile := filepath.Join(rootDirectory, "main.go")
	outputDirectory := t.TempDir()
	outputPath := filepath.Join(outputDirectory, "packed.md")

	testCases := []struct {
		name           string
		body           string
		expectedStatus int
		expectError    bool
		expectText     []string
		rejectText     []string
	}{
		{
			name:           "inline document",
			body:           fmt.Sprintf(`{"path":%s}`, jsonString(t, rootDirectory)),
			expectedStatus: http.StatusOK,
			expectText:     []string{"## Directory Structure", "### main.go\n\n```go\npackage main\n"},
			rejectText:     []string{"### app.log"},
		},
		{
			name:           "include gitignored",
			body:           fmt.Sprintf(`{"path":%s,"include_gitignored":true}`, jsonString(t, rootDirectory)),
			expectedStatus: http.StatusOK,
			expectText:     []string{"### app.log"},
		},
		{
			name:           "caller ignore patterns",
			body:           fmt.Sprintf(`{"path":%s,"ignore_patterns":["*.go"]}`, jsonString(t, rootDirectory)),
			expectedStatus: http.StatusOK,
			rejectText:     []string{"### main.go"},
		},
		{
			name:           "missing root",
			body:           fmt.Sprintf(`{"path":%s}`, jsonString(t, filepath.Join(rootDirectory, "missing"))),
			expectedStatus: http.StatusOK,
			expectError:    true,
			expectText:     []string{"Error: Path does not exist: " + filepath.Join(rootDirectory, "missing")},
		},
		{
			name:           "regular file root",
			body:           fmt.Sprintf(`{"path":%s}`, jsonString(t, regularFile)),
			expectedStatus: http.StatusOK,
			expectError:    true,
			expectText:     []string{"Error: Path is not a directory: " + regularFile},
		},
		{
			name:           "write failure keeps document",
			body:           fmt.Sprintf(`{"path":%s,"output":%s}`, jsonString(t, rootDirectory), jsonString(t, filepath.Join(outputDirectory, "missing", "out.md"))),
			expectedStatus: http.StatusOK,
			expectError:    true,
			expectText:     []string{"Error writing output file ", "### main.go"},
		},
		{name: "missing path", body: `{}`, expectedStatus: http.StatusBadRequest},
		{name: "unknown argument", body: fmt.Sprintf(`{"path":%s,"format":"xml"}`, jsonString(t, rootDirectory)), expectedStatus: http.StatusBadRequest},
		{name: "malformed json", body: `{"path":`, expectedStatus: http.StatusBadRequest},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			status, response := invokePackTool(t, address, testCase.body)
			if status != testCase.expectedStatus {
				t.Fatalf("expected status %d, got %d", testCase.expectedStatus, status)
			}
			if status != http.StatusOK {
				return
			}
			if response.IsError != testCase.expectError {
				t.Fatalf("expected isError %v, got %+v", testCase.expectError, response)
			}
			text := response.Text()
			for _, fragment := range testCase.expectText {
				if !strings.Contains(text, fragment) {
					t.Fatalf("expected %q in response:\n%s", fragment, text)
				}
			}
			for _, fragment := range testCase.rejectText {
				if strings.Contains(text, fragment) {
					t.Fatalf("unexpected %q in response:\n%s", fragment, text)
				}
			}
		})
	}

	t.Run("writes output file", func(t *testing.T) {
		t.Parallel()
		body := fmt.Sprintf(`{"path":%s,"output":%s,"tokens":true,"model":"gpt-4o"}`, jsonString(t, rootDirectory), jsonString(t, outputPath))
		status, response := invokePackTool(t, address, body)
		if status != http.StatusOK || response.IsError {
			t.Fatalf("unexpected response %d %+v", status, response)
		}
		written, err := os.ReadFile(outputPath)
		if err != nil {
			t.Fatalf("read output: %v", err)
		}
		expected := fmt.Sprintf("✅ Codebase packed successfully!\n\nOutput written to: %s\n\nFile size: %d bytes", outputPath, len(written))
		if response.Text() != expected {
			t.Fatalf("expected %q, got %q", expected, response.Text())
		}
		if response.Tokens != len(strings.Fields(string(written))) || response.Model != "gpt-4o" {
			t.Fatalf("unexpected token estimate %d (%s)", response.Tokens, response.Model)
		}
	})
}

func TestDecodePackToolArguments(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name        string
		payload     string
		expectError bool
		expected    packToolArguments
	}{
		{name: "defaults", payload: `{"path":"."}`, expected: packToolArguments{Path: "."}},
		{
			name:     "all fields",
			payload:  `{"path":"src","output":"out.md","include_gitignored":true,"ignore_patterns":["*.tmp","!keep.tmp"],"tokens":true,"model":"gpt-4"}`,
			expected: packToolArguments{Path: "src", Output: "out.md", IncludeGitignored: true, IgnorePatterns: []string{"*.tmp", "!keep.tmp"}, Tokens: true, Model: "gpt-4"},
		},
		{name: "empty payload", payload: ``, expectError: true},
		{name: "blank path", payload: `{"path":"  "}`, expectError: true},
		{name: "blank pattern", payload: `{"path":".","ignore_patterns":[""]}`, expectError: true},
		{name: "trailing data", payload: `{"path":"."} {}`, expectError: true},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			arguments, err := decodePackToolArguments(json.RawMessage(testCase.payload))
			if testCase.expectError {
				if err == nil {
					t.Fatalf("expected error for %s", testCase.payload)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if fmt.Sprintf("%+v", arguments) != fmt.Sprintf("%+v", testCase.expected) {
				t.Fatalf("expected %+v, got %+v", testCase.expected, arguments)
			}
		})
	}
}
