package cmd

import "testing"

func TestSavePath(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantPath string
		wantOK   bool
	}{
		{"empty cancels", "", "", false},
		{"whitespace cancels", "   ", "", false},
		{"dot takes suggested", ".", "gc_fw.bin", true},
		{"explicit path", "out/fw.bin", "out/fw.bin", true},
		{"path is trimmed", " fw.bin ", "fw.bin", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, ok := savePath(tt.in, "gc_fw.bin")
			if ok != tt.wantOK {
				t.Fatalf("savePath(%q) ok = %t, want %t", tt.in, ok, tt.wantOK)
			}
			if path != tt.wantPath {
				t.Errorf("savePath(%q) = %q, want %q", tt.in, path, tt.wantPath)
			}
		})
	}
}
