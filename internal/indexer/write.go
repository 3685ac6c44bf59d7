package indexer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tbourn/go-portfolio-backend/internal/domain"
)

// Marshal validates idx and encodes it with two-space indentation.
func Marshal(idx domain.SearchIndex) ([]byte, error) {
	if err := Validate(idx); err != nil {
		return nil, err
	}
	b, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// WriteFile persists idx at path, creating parent directories as needed. The
// file is written to a temporary sibling and renamed into place so readers
// never observe a half-written artifact. It returns the number of bytes
// written.
func WriteFile(path string, idx domain.SearchIndex) (int, error) {
	b, err := Marshal(idx)
	if err != nil {
		return 0, err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return 0, err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return 0, err
	}
	return len(b), nil
}
