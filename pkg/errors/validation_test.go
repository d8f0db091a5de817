package errors

import (
	"strings"
	"testing"
)

func TestValidateAssetName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "intro", false},
		{"valid with dash", "chapter-1", false},
		{"valid with underscore", "tavern_keeper", false},
		{"valid with dot", "act1.v2", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 200), true},
		{"path traversal", "..", true},
		{"slash", "a/b", true},
		{"backslash", "a\\b", true},
		{"leading dot", ".hidden", true},
		{"space", "my graph", true},
		{"null byte", "foo\x00bar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAssetName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAssetName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidAssetName) {
				t.Errorf("ValidateAssetName(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidAssetName)
			}
		})
	}
}

func TestValidateNodeID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"start node", "startnode", false},
		{"uuid", "9b2f7c1e-3a4d-4f5e-8a9b-0c1d2e3f4a5b", false},
		{"empty sentinel", "", true},
		{"space", "a b", true},
		{"newline", "a\nb", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNodeID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNodeID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePortName(t *testing.T) {
	if err := ValidatePortName("Ask about the ring"); err != nil {
		t.Errorf("ValidatePortName() error = %v", err)
	}
	if err := ValidatePortName(""); err != nil {
		t.Errorf("ValidatePortName(\"\") error = %v", err)
	}
	if err := ValidatePortName("bad\x07name"); err == nil {
		t.Error("ValidatePortName() should reject control characters")
	}
}
