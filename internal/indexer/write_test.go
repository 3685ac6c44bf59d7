package indexer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tbourn/go-portfolio-backend/internal/domain"
)

func TestWriteFile_CreatesDirsAndLeavesNoTemp(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "public")
	path := filepath.Join(dir, "search-index.json")

	n, err := WriteFile(path, validIndex())
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	fi, err := os.Stat(path)
	if err != nil || int(fi.Size()) != n {
		t.Fatalf("size mismatch: n=%d stat=%v err=%v", n, fi, err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestWriteFile_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search-index.json")
	idx := validIndex()
	idx.LabProjects = nil
	if _, err := WriteFile(path, idx); !errors.Is(err, ErrBuildIntegrity) {
		t.Fatalf("want ErrBuildIntegrity, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("invalid artifact must not be written")
	}
}

func TestMarshal_EmptyIndex(t *testing.T) {
	b, err := Marshal(domain.NewSearchIndex())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if err := ValidateJSON(b); err != nil {
		t.Fatalf("empty index should round-trip validation: %v", err)
	}
}
