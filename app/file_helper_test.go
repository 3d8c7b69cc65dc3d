package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ludo-technologies/sdlcguard/domain"
)

func TestFileHelperWriteOutput(t *testing.T) {
	helper := NewFileHelper()
	path := filepath.Join(t.TempDir(), "reports", "nested", "report.json")

	if err := helper.WriteOutput(path, []byte("first")); err != nil {
		t.Fatalf("WriteOutput failed: %v", err)
	}
	if err := helper.WriteOutput(path, []byte("second")); err != nil {
		t.Fatalf("WriteOutput overwrite failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("Expected overwritten content, got %q", data)
	}

	// No temporary files may be left next to the export
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only the export in the directory, got %d entries", len(entries))
	}
}

func TestFileHelperWriteOutputRejectsDirectory(t *testing.T) {
	helper := NewFileHelper()
	dir := t.TempDir()

	err := helper.WriteOutput(dir, []byte("x"))
	if err == nil {
		t.Fatal("Expected error when writing over a directory")
	}
	if domain.ErrorCode(err) != domain.ErrCodeOutputError {
		t.Errorf("Expected OUTPUT_ERROR, got %q", domain.ErrorCode(err))
	}

	if err := helper.WriteOutput("", []byte("x")); domain.ErrorCode(err) != domain.ErrCodeInvalidInput {
		t.Errorf("Expected INVALID_INPUT for empty path, got %v", err)
	}
}

func TestFileHelperFileExists(t *testing.T) {
	helper := NewFileHelper()
	dir := t.TempDir()
	file := filepath.Join(dir, "report.md")
	if err := os.WriteFile(file, []byte("# report"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	tests := []struct {
		path     string
		expected bool
	}{
		{file, true},
		{dir, false},
		{filepath.Join(dir, "missing.md"), false},
	}

	for _, tt := range tests {
		exists, err := helper.FileExists(tt.path)
		if err != nil {
			t.Fatalf("FileExists(%s) failed: %v", tt.path, err)
		}
		if exists != tt.expected {
			t.Errorf("FileExists(%s) = %v, expected %v", tt.path, exists, tt.expected)
		}
	}
}

func TestDefaultExportPath(t *testing.T) {
	if got := DefaultExportPath("out", domain.OutputFormatJSON); got != filepath.Join("out", "sdlc-validation-report.json") {
		t.Errorf("Unexpected JSON path %s", got)
	}
	if got := DefaultExportPath("out", domain.OutputFormatMarkdown); got != filepath.Join("out", "sdlc-validation-report.md") {
		t.Errorf("Unexpected markdown path %s", got)
	}
}
