package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testFS(t *testing.T) (*FS, string) {
	t.Helper()
	dir := t.TempDir()
	f, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return f, dir
}

func TestIsNoteName(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"2602082037.typ", true},
		{"2602082037.md", false},
		{"260208203.typ", false},
		{"26020820370.typ", false},
		{"260208203x.typ", false},
		{"include.typ", false},
		{"2602082037", false},
	}
	for _, c := range cases {
		if got := IsNoteName(c.name); got != c.want {
			t.Errorf("IsNoteName(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestList_FiltersNonNotes(t *testing.T) {
	f, dir := testFS(t)
	_ = os.WriteFile(filepath.Join(dir, "2602082037.typ"), []byte("a"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("b"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "include.typ"), []byte("c"), 0o644)
	_ = os.Mkdir(filepath.Join(dir, "sub"), 0o755)

	metas, err := f.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(metas) != 1 {
		t.Fatalf("len(metas) = %d, want 1", len(metas))
	}
	if metas[0].Path != "2602082037.typ" {
		t.Errorf("path = %q", metas[0].Path)
	}
	if metas[0].Checksum == "" {
		t.Error("expected non-empty checksum")
	}
}

func TestWriteReadDelete(t *testing.T) {
	f, _ := testFS(t)
	path := "2602082037.typ"
	if err := f.Write(path, []byte("hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, err := f.Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("data = %q", data)
	}
	if err := f.Delete(path); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := f.Read(path); err == nil {
		t.Error("expected read error after delete")
	}
}

func TestSafePath_RejectsTraversal(t *testing.T) {
	f, _ := testFS(t)
	if _, err := f.Read("../escape.typ"); err == nil || !strings.Contains(err.Error(), "escapes") {
		t.Errorf("expected traversal rejection, got %v", err)
	}
	if _, err := f.Read("/etc/passwd"); err == nil {
		t.Error("expected absolute path rejection")
	}
}

func TestIDFromPath(t *testing.T) {
	if got := IDFromPath("2602082037.typ"); got != "2602082037" {
		t.Errorf("IDFromPath = %q", got)
	}
	if got := IDFromPath("/wiki/note/2602082037.typ"); got != "2602082037" {
		t.Errorf("IDFromPath abs = %q", got)
	}
}
