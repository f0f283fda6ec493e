package input

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func isJava(path string) bool { return strings.HasSuffix(path, ".java") }

func TestHandler_ReadFiles(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "pkg"), 0755)
	os.WriteFile(filepath.Join(dir, "Main.java"), []byte("class Main {}\n"), 0644)
	os.WriteFile(filepath.Join(dir, "pkg", "Foo.java"), []byte("class Foo {}\n"), 0644)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi\n"), 0644)

	h := NewHandler(isJava)
	artifacts, err := h.ReadFiles([]string{
		filepath.Join(dir, "Main.java"),
		filepath.Join(dir, "pkg", "Foo.java"),
		filepath.Join(dir, "notes.txt"),
		filepath.Join(dir, "pkg", "..", "Main.java"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(artifacts) != 2 {
		t.Fatalf("expected 2 artifacts, got %d", len(artifacts))
	}
	if artifacts[0].Path != filepath.Join(dir, "Main.java") {
		t.Errorf("unexpected path: %s", artifacts[0].Path)
	}
	if string(artifacts[0].Content) != "class Main {}\n" {
		t.Errorf("unexpected content: %q", artifacts[0].Content)
	}
}

func TestHandler_ReadFilesMissing(t *testing.T) {
	h := NewHandler(nil)
	if _, err := h.ReadFiles([]string{filepath.Join(t.TempDir(), "Nope.java")}); err == nil {
		t.Fatal("expected error for a missing file")
	}
}

func TestHandler_ReadFilesInvalidUTF8(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Bad.java")
	os.WriteFile(path, []byte{0xff, 0xfe, 0xfd}, 0644)

	artifacts, err := NewHandler(nil).ReadFiles([]string{path})
	if err != nil {
		t.Fatal(err)
	}
	if len(artifacts) != 0 {
		t.Errorf("expected invalid UTF-8 to be skipped, got %d artifacts", len(artifacts))
	}
}

func TestHandler_ReadDirectory(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "src", "main"), 0755)
	os.MkdirAll(filepath.Join(dir, ".git"), 0755)
	os.WriteFile(filepath.Join(dir, "src", "main", "B.java"), []byte("class B {}\n"), 0644)
	os.WriteFile(filepath.Join(dir, "A.java"), []byte("class A {}\n"), 0644)
	os.WriteFile(filepath.Join(dir, "readme.md"), []byte("# Hi\n"), 0644)
	os.WriteFile(filepath.Join(dir, ".git", "Hidden.java"), []byte("class Hidden {}\n"), 0644)

	h := NewHandler(isJava)
	artifacts, err := h.ReadDirectory(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(artifacts) != 2 {
		t.Fatalf("expected 2 artifacts, got %d", len(artifacts))
	}
	if filepath.Base(artifacts[0].Path) != "A.java" || filepath.Base(artifacts[1].Path) != "B.java" {
		t.Errorf("expected lexical order, got %s, %s", artifacts[0].Path, artifacts[1].Path)
	}
}

func TestIsTestPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"src/test/java/com/acme/Widget.java", true},
		{"src/main/java/com/acme/WidgetTest.java", true},
		{"WidgetTests.java", true},
		{"WidgetIT.java", true},
		{"TestWidget.java", true},
		{"Test.java", false},
		{"src/main/java/com/acme/Widget.java", false},
		{"Contest.java", false},
	}
	for _, tt := range tests {
		if got := IsTestPath(tt.path); got != tt.want {
			t.Errorf("IsTestPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
