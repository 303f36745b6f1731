package cmd

import (
	"testing"
)

func TestFilesFromHandles(t *testing.T) {
	tests := []struct {
		name         string
		handle       string
		wantName     string
		wantMimeType string
	}{
		{
			name:         "plain text file",
			handle:       "staging/notes.txt",
			wantName:     "notes.txt",
			wantMimeType: "text/plain; charset=utf-8",
		},
		{
			name:         "pdf file",
			handle:       "staging/report.pdf",
			wantName:     "report.pdf",
			wantMimeType: "application/pdf",
		},
		{
			name:         "unknown extension falls back to octet-stream",
			handle:       "staging/archive.xyzdata",
			wantName:     "archive.xyzdata",
			wantMimeType: "application/octet-stream",
		},
		{
			name:         "no extension falls back to octet-stream",
			handle:       "staging/README",
			wantName:     "README",
			wantMimeType: "application/octet-stream",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := filesFromHandles([]string{tt.handle})
			if len(files) != 1 {
				t.Fatalf("expected 1 file, got %d", len(files))
			}
			if files[0].LocalHandle != tt.handle {
				t.Errorf("expected handle %q, got %q", tt.handle, files[0].LocalHandle)
			}
			if files[0].Name != tt.wantName {
				t.Errorf("expected name %q, got %q", tt.wantName, files[0].Name)
			}
			if files[0].MimeType != tt.wantMimeType {
				t.Errorf("expected mime type %q, got %q", tt.wantMimeType, files[0].MimeType)
			}
		})
	}
}

func TestFilesFromHandles_PreservesOrder(t *testing.T) {
	files := filesFromHandles([]string{"a.txt", "b.txt", "c.txt"})

	if len(files) != 3 {
		t.Fatalf("expected 3 files, got %d", len(files))
	}
	for i, want := range []string{"a.txt", "b.txt", "c.txt"} {
		if files[i].Name != want {
			t.Errorf("file %d: expected %q, got %q", i, want, files[i].Name)
		}
	}
}
