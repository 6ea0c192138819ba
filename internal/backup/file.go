package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nhle/quest-tracker/internal/model"
)

// ExportFile writes an export of src to path. An empty path or an
// existing directory gets the conventional file name appended. It
// returns the path written.
func ExportFile(src Source, path string, now time.Time) (string, error) {
	if path == "" {
		path = "."
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, FileName(now))
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("creating export directory %s: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Write(f, Export(src, now)); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", path, err)
	}
	return path, nil
}

// ReadFile reads and checks the backup at path without applying it.
func ReadFile(path string) (model.ExportDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.ExportDocument{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	doc, err := Read(f)
	if err != nil {
		return model.ExportDocument{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return doc, nil
}

// ImportFile reads the backup at path and applies it to target. Nothing
// changes when the file cannot be read or is malformed.
func ImportFile(ctx context.Context, target Target, path string) (model.ExportDocument, error) {
	doc, err := ReadFile(path)
	if err != nil {
		return model.ExportDocument{}, err
	}
	Apply(ctx, target, doc)
	return doc, nil
}
