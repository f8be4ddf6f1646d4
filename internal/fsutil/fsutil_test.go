package fsutil

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestIsImageFile(t *testing.T) {
	for path, want := range map[string]bool{
		"a.jpg": true, "b.JPEG": true, "c.png": true, "d.cr2": false, "e": false, "f.tiff": false,
	} {
		if got := IsImageFile(path); got != want {
			t.Fatalf("IsImageFile(%q) = %v", path, got)
		}
	}
}

func TestListImages(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "b.jpg"))
	touch(t, filepath.Join(root, "a.png"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, "sub", "c.jpeg"))
	touch(t, filepath.Join(root, ".cache", "d.jpg"))
	touch(t, filepath.Join(root, ".hidden.jpg"))

	got, err := ListImages(root)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{
		filepath.Join(root, "a.png"),
		filepath.Join(root, "b.jpg"),
		filepath.Join(root, "sub", "c.jpeg"),
	}
	if !slices.Equal(got, want) {
		t.Fatalf("ListImages = %v, want %v", got, want)
	}
}

func TestExpandInputs(t *testing.T) {
	root := t.TempDir()
	z := filepath.Join(root, "z.jpg")
	touch(t, z)
	touch(t, filepath.Join(root, "dir", "a.jpg"))
	touch(t, filepath.Join(root, "dir", "b.png"))

	got, err := ExpandInputs([]string{z, filepath.Join(root, "dir"), z})
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	want := []string{z, filepath.Join(root, "dir", "a.jpg"), filepath.Join(root, "dir", "b.png")}
	if !slices.Equal(got, want) {
		t.Fatalf("ExpandInputs = %v, want %v", got, want)
	}

	txt := filepath.Join(root, "x.txt")
	touch(t, txt)
	if _, err := ExpandInputs([]string{txt}); err == nil {
		t.Fatalf("expected error for a non-image file")
	}
	if _, err := ExpandInputs([]string{filepath.Join(root, "missing.jpg")}); err == nil {
		t.Fatalf("expected error for a missing file")
	}
}

func TestOutputPath(t *testing.T) {
	if got := OutputPath("/in/photos/IMG_1.jpg", "/out"); got != filepath.Join("/out", "IMG_1.jpg") {
		t.Fatalf("OutputPath = %q", got)
	}
}
