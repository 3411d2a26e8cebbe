package pprof

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Writer stores profile snapshots under outputDir/<type>/, keeping at
// most maxFiles per type.
type Writer struct {
	mu        sync.Mutex
	outputDir string
	maxFiles  int
}

// NewWriter creates a Writer.
func NewWriter(outputDir string, maxFiles int) *Writer {
	return &Writer{outputDir: outputDir, maxFiles: maxFiles}
}

// EnsureDirs creates the output directory and one subdirectory per
// profile type.
func (w *Writer) EnsureDirs(profiles []ProfileType) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, pt := range profiles {
		if err := os.MkdirAll(filepath.Join(w.outputDir, string(pt)), 0755); err != nil {
			return fmt.Errorf("failed to create profile directory %s: %w", pt, err)
		}
	}
	return nil
}

// Write stores a snapshot as a timestamped file and prunes old
// snapshots of the same type. Returns the file path.
func (w *Writer) Write(pt ProfileType, data []byte) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	dir := filepath.Join(w.outputDir, string(pt))
	name := fmt.Sprintf("%s_%s.pprof", pt, time.Now().Format("20060102_150405.000"))
	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write profile file: %w", err)
	}

	w.prune(dir)
	return path, nil
}

// prune removes the oldest snapshots in dir beyond maxFiles.
func (w *Writer) prune(dir string) {
	if w.maxFiles <= 0 {
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".pprof" {
			names = append(names, entry.Name())
		}
	}

	// Timestamped names sort oldest first.
	sort.Strings(names)
	for len(names) > w.maxFiles {
		_ = os.Remove(filepath.Join(dir, names[0]))
		names = names[1:]
	}
}

// ListFiles returns the snapshot files for a profile type.
func (w *Writer) ListFiles(pt ProfileType) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	dir := filepath.Join(w.outputDir, string(pt))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".pprof" {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

// GetOutputDir returns the output directory.
func (w *Writer) GetOutputDir() string {
	return w.outputDir
}
