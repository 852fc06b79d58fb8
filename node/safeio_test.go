package node

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadFileFromDirRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	if _, err := readFileFromDir(dir, "../x", 16); err == nil {
		t.Fatalf("expected error for traversal name")
	}
	if _, err := readFileFromDir(dir, "..", 16); err == nil {
		t.Fatalf("expected error for ..")
	}
	if _, err := readFileFromDir(dir, "", 16); err == nil {
		t.Fatalf("expected error for empty name")
	}
}

func TestReadFileByPathReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ok.bin")
	if err := os.WriteFile(path, []byte("hi"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := readFileByPath(path, 2)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "hi" {
		t.Fatalf("unexpected bytes: %q", string(b))
	}
	if _, err := readFileByPath(path, 1); err == nil {
		t.Fatalf("expected size limit error")
	}
}

func TestReadFileByPathRejectsDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, err := readFileByPath(filepath.Join(dir, "sub"), 16); err == nil {
		t.Fatalf("expected error for directory")
	}
}
