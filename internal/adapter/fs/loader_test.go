package fs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ragagent/internal/domain"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestWalker_IncludesAndExcludes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.txt"), []byte("b"))
	writeFile(t, filepath.Join(root, "a.md"), []byte("a"))
	writeFile(t, filepath.Join(root, "image.png"), []byte{0x89})
	writeFile(t, filepath.Join(root, "nested", "c.txt"), []byte("c"))
	writeFile(t, filepath.Join(root, ".git", "HEAD.txt"), []byte("ref"))

	w := NewWalker([]string{"**/*.txt", "**/*.md"}, []string{"**/.git/**"})
	files, err := w.Walk(root)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	want := []string{"a.md", "b.txt", "nested/c.txt"}
	if len(files) != len(want) {
		t.Fatalf("expected %d files, got %d: %+v", len(want), len(files), files)
	}
	for i, w := range want {
		if files[i].RelPath != w {
			t.Errorf("file %d: expected %s, got %s", i, w, files[i].RelPath)
		}
	}
}

func TestLoader_LoadsDocumentsInOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "sky.txt"), []byte("The sky is blue."))
	writeFile(t, filepath.Join(root, "grass.txt"), []byte("Grass is green."))

	docs, errs := NewLoader(NewWalker([]string{"**/*.txt"}, nil)).Load(root)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].Text != "Grass is green." || docs[1].Text != "The sky is blue." {
		t.Errorf("documents not in path order: %q, %q", docs[0].Text, docs[1].Text)
	}
	if docs[0].ID == "" || docs[0].ID == docs[1].ID {
		t.Errorf("expected distinct document ids, got %q and %q", docs[0].ID, docs[1].ID)
	}
	if filepath.Base(docs[1].Path) != "sky.txt" {
		t.Errorf("unexpected path %s", docs[1].Path)
	}
}

func TestLoader_SkipsUnreadableFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "good.txt"), []byte("Paris is the capital of France."))
	writeFile(t, filepath.Join(root, "binary.txt"), []byte{0xff, 0xfe, 0x00, 0xc3})

	docs, errs := NewLoader(NewWalker([]string{"**/*.txt"}, nil)).Load(root)
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	if !errors.Is(errs[0], domain.ErrLoad) {
		t.Errorf("expected ErrLoad, got %v", errs[0])
	}
}

func TestLoader_MissingRoot(t *testing.T) {
	docs, errs := NewLoader(NewWalker(nil, nil)).Load(filepath.Join(t.TempDir(), "missing"))
	if len(docs) != 0 {
		t.Errorf("expected no documents, got %d", len(docs))
	}
	if len(errs) != 1 || !errors.Is(errs[0], domain.ErrLoad) {
		t.Errorf("expected a single ErrLoad, got %v", errs)
	}
}

func TestDocumentID_Stable(t *testing.T) {
	if DocumentID("data/sky.txt") != DocumentID("data/sky.txt") {
		t.Error("document id should be deterministic")
	}
	if DocumentID("data/sky.txt") == DocumentID("data/grass.txt") {
		t.Error("different paths should have different ids")
	}
}
