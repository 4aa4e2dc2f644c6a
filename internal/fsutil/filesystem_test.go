package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestOSFileSystem_ReadWriteList(t *testing.T) {
	dir := t.TempDir()
	osfs := OSFileSystem{}

	if err := osfs.MkdirAll(filepath.Join(dir, "nested", "deeper"), 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := osfs.WriteFile(filepath.Join(dir, "b.txt"), []byte("b"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	w, err := osfs.Create(filepath.Join(dir, "a.txt"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := w.Write([]byte("a")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	names, err := osfs.ListFiles(dir)
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if len(names) != 2 || names[0] != "a.txt" || names[1] != "b.txt" {
		t.Errorf("expected [a.txt b.txt], got %v", names)
	}

	data, err := osfs.ReadFile(filepath.Join(dir, "a.txt"))
	if err != nil || string(data) != "a" {
		t.Errorf("ReadFile = %q, %v", data, err)
	}
	if !osfs.Exists(filepath.Join(dir, "nested")) {
		t.Error("expected nested dir to exist")
	}
	if osfs.Exists(filepath.Join(dir, "missing.txt")) {
		t.Error("expected missing file to not exist")
	}
}

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	mfs := NewMemoryFileSystem()

	src := []byte("0,0.9,1,0,50\n0,0.1\n")
	if err := mfs.WriteFile("/rec/000001.txt", src, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	src[0] = 'X' // caller mutation must not leak in

	data, err := mfs.ReadFile("/rec/000001.txt")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "0,0.9,1,0,50\n0,0.1\n" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestMemoryFileSystem_CreateVisibleOnClose(t *testing.T) {
	mfs := NewMemoryFileSystem()

	w, err := mfs.Create("/out/frame.png")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := w.Write([]byte("png bytes")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if data, _ := mfs.ReadFile("/out/frame.png"); len(data) != 0 {
		t.Errorf("expected empty file before Close, got %q", data)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if data, _ := mfs.ReadFile("/out/frame.png"); string(data) != "png bytes" {
		t.Errorf("expected written content after Close, got %q", data)
	}
}

func TestMemoryFileSystem_Open(t *testing.T) {
	mfs := NewMemoryFileSystem()
	_ = mfs.WriteFile("/img/1.png", []byte("hello"), 0644)

	f, err := mfs.Open("/img/1.png")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil || string(data) != "hello" {
		t.Errorf("ReadAll = %q, %v", data, err)
	}
	info, err := f.Stat()
	if err != nil || info.Name() != "1.png" || info.Size() != 5 {
		t.Errorf("Stat = %+v, %v", info, err)
	}

	_, err = mfs.Open("/img/2.png")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestMemoryFileSystem_ListFiles(t *testing.T) {
	mfs := NewMemoryFileSystem()
	_ = mfs.WriteFile("/scene/image/000002.png", nil, 0644)
	_ = mfs.WriteFile("/scene/image/000001.png", nil, 0644)
	_ = mfs.WriteFile("/scene/image/sub/000003.png", nil, 0644)
	_ = mfs.WriteFile("/scene/records/000001.txt", nil, 0644)

	names, err := mfs.ListFiles("/scene/image")
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if len(names) != 2 || names[0] != "000001.png" || names[1] != "000002.png" {
		t.Errorf("expected sorted direct children, got %v", names)
	}

	if _, err := mfs.ListFiles("/nowhere"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}

	_ = mfs.MkdirAll("/empty", os.ModePerm)
	names, err = mfs.ListFiles("/empty")
	if err != nil || len(names) != 0 {
		t.Errorf("expected empty listing, got %v, %v", names, err)
	}
}

func TestMemoryFileSystem_Exists(t *testing.T) {
	mfs := NewMemoryFileSystem()
	_ = mfs.MkdirAll("/a/b/c", 0755)
	_ = mfs.WriteFile("/a/file.txt", nil, 0644)

	for _, p := range []string{"/a", "/a/b", "/a/b/c", "/a/file.txt", "/a/b/../file.txt"} {
		if !mfs.Exists(p) {
			t.Errorf("expected %s to exist", p)
		}
	}
	if mfs.Exists("/a/missing") {
		t.Error("expected /a/missing to not exist")
	}
}
