package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFilesystemSinkWrite(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "outputs")
	sink, err := NewFilesystemSink(root)
	if err != nil {
		t.Fatalf("NewFilesystemSink: %v", err)
	}

	if err := sink.Write("www_agency_example_sanitized.html", []byte("<html></html>")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "www_agency_example_sanitized.html"))
	if err != nil {
		t.Fatalf("read artifact back: %v", err)
	}
	if string(data) != "<html></html>" {
		t.Fatalf("unexpected artifact content: %s", data)
	}
}

func TestFilesystemSinkFlattensNames(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	sink, err := NewFilesystemSink(root)
	if err != nil {
		t.Fatalf("NewFilesystemSink: %v", err)
	}

	if err := sink.Write("../escape.txt", []byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, "escape.txt")); err != nil {
		t.Fatalf("artifact should land inside the root: %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(root), "escape.txt")); err == nil {
		t.Fatalf("artifact escaped the root")
	}
}

func TestFilesystemSinkEmptyRoot(t *testing.T) {
	t.Parallel()

	if _, err := NewFilesystemSink(""); err == nil {
		t.Fatalf("expected error for empty root")
	}
}
