package fsutil

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
)

func writeAll(t *testing.T, fsys FileSystem, name, content string) {
	t.Helper()
	w, err := fsys.Create(name)
	if err != nil {
		t.Fatalf("Create(%s) failed: %v", name, err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestOSFileSystem_RoundTrip(t *testing.T) {
	fsys := OSFileSystem{}
	dir := filepath.Join(t.TempDir(), "a", "b")

	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	name := filepath.Join(dir, "out.txt")
	writeAll(t, fsys, name, "hello")

	data, err := fsys.ReadFile(name)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("expected %q, got %q", "hello", data)
	}
}

func TestMemoryFileSystem_CreateRequiresDir(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if _, err := mfs.Create("/out/result.csv"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected ErrNotExist before MkdirAll, got %v", err)
	}

	if err := mfs.MkdirAll("/out", 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	writeAll(t, mfs, "/out/result.csv", "id\n")
	writeAll(t, mfs, "/out/../out/b.json", "{}")

	data, err := mfs.ReadFile("/out/result.csv")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "id\n" {
		t.Errorf("expected %q, got %q", "id\n", data)
	}

	got := mfs.Files()
	if len(got) != 2 || got[0] != "/out/b.json" || got[1] != "/out/result.csv" {
		t.Errorf("Files() = %v", got)
	}
}

func TestMemoryFileSystem_ContentVisibleOnClose(t *testing.T) {
	mfs := NewMemoryFileSystem()
	if err := mfs.MkdirAll("/d", 0o755); err != nil {
		t.Fatal(err)
	}

	w, err := mfs.Create("/d/f")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = w.Write([]byte("partial"))
	if _, err := mfs.ReadFile("/d/f"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected file to be absent before Close, got %v", err)
	}
	_ = w.Close()
	if _, err := mfs.ReadFile("/d/f"); err != nil {
		t.Errorf("ReadFile after Close failed: %v", err)
	}
}
