package documents

import (
	"io"
	"strings"
	"testing"

	"buchhaltung/internal/core"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), 1024)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestSaveAndOpen(t *testing.T) {
	store := testStore(t)

	name, err := store.Save("Rechnung März.pdf", strings.NewReader("pdf content"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasSuffix(name, ".pdf") {
		t.Errorf("stored name %q should keep the extension", name)
	}
	if strings.Contains(name, "Rechnung") {
		t.Errorf("stored name %q should not contain the original name", name)
	}

	f, err := store.Open(name)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(content) != "pdf content" {
		t.Errorf("content = %q", content)
	}
}

func TestSaveRejectsDisallowedTypes(t *testing.T) {
	store := testStore(t)

	for _, name := range []string{"evil.exe", "script.sh", "noextension"} {
		if _, err := store.Save(name, strings.NewReader("x")); !core.IsKind(err, core.KindValidation) {
			t.Errorf("Save(%q) error = %v, want validation error", name, err)
		}
	}
}

func TestSaveRejectsOversizedFiles(t *testing.T) {
	store := testStore(t)

	big := strings.Repeat("a", 2048)
	if _, err := store.Save("big.pdf", strings.NewReader(big)); !core.IsKind(err, core.KindValidation) {
		t.Errorf("Save oversized error = %v, want validation error", err)
	}
}

func TestRemoveMissingFileIsNoError(t *testing.T) {
	store := testStore(t)

	if err := store.Remove("does-not-exist.pdf"); err != nil {
		t.Errorf("Remove missing file: %v", err)
	}
}

func TestPathTraversalRejected(t *testing.T) {
	store := testStore(t)

	if _, err := store.Open("../secret.pdf"); !core.IsKind(err, core.KindValidation) {
		t.Errorf("Open traversal error = %v, want validation error", err)
	}
	if err := store.Remove("../../etc/passwd"); !core.IsKind(err, core.KindValidation) {
		t.Errorf("Remove traversal error = %v, want validation error", err)
	}
}
