package service

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"bpextract/internal/domain"
)

// resolveInputs expands input into the XML documents to process: the file
// itself, or every .xml file directly inside a directory in name order.
func resolveInputs(input string) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(input, filepath.Dir(filepath.Clean(input)))
		}
		return nil, fmt.Errorf("stat %s: %w", input, err)
	}
	if !info.IsDir() {
		return []string{input}, nil
	}

	files, err := xmlFiles(input)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no .xml files in %s", domain.ErrDocumentNotFound, input)
	}
	return files, nil
}

func xmlFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".xml") {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out, nil
}

// notFound names the missing input and lists the documents next to it, so
// a typo can be spotted from the error alone.
func notFound(input, dir string) error {
	files, err := xmlFiles(dir)
	if err != nil || len(files) == 0 {
		return fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, input)
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	return fmt.Errorf("%w: %s (available in %s: %s)",
		domain.ErrDocumentNotFound, input, dir, strings.Join(names, ", "))
}

func readDocument(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// baseName strips the directory and extension from path.
func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
