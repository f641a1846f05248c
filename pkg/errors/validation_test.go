package errors

import (
	"strings"
	"testing"
)

func TestValidateImportPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"drawio", "network-diagram.drawio", false},
		{"xml", "export.xml", false},
		{"json", "diagram.json", false},
		{"upper case extension", "DIAGRAM.DRAWIO", false},
		{"nested path", "some/dir/diagram.json", false},

		{"empty", "", true},
		{"no extension", "diagram", true},
		{"png", "diagram.png", true},
		{"double extension", "diagram.json.bak", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImportPath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateImportPath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateImportPathCode(t *testing.T) {
	err := ValidateImportPath("diagram.svg")
	if !Is(err, ErrCodeInvalidFormat) {
		t.Fatalf("code = %v, want %v", GetCode(err), ErrCodeInvalidFormat)
	}
	if !strings.Contains(err.Error(), ".drawio") {
		t.Errorf("error should list accepted extensions: %v", err)
	}
}

func TestValidateFilename(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"default export name", "network-diagram.drawio", false},
		{"dotfile", ".diagram.json", false},

		{"empty", "", true},
		{"slash", "dir/file.drawio", true},
		{"backslash", "dir\\file.drawio", true},
		{"dot dot", "..", true},
		{"control char", "foo\x01.json", true},
		{"too long", strings.Repeat("a", 300), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilename(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFilename(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateStoreID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "office", false},
		{"uuid", "3f1c2a3e-6a2b-4a4f-9d1f-1a2b3c4d5e6f", false},
		{"dots and underscores", "lab_v1.2", false},

		{"empty", "", true},
		{"leading dash", "-office", true},
		{"traversal", "a..b", true},
		{"slash", "a/b", true},
		{"space", "my office", true},
		{"too long", strings.Repeat("a", 200), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStoreID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStoreID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
