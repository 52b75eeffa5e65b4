// Package cache lays downloaded artifacts out under a URL-keyed store.
//
// Every URL owns one directory, root/<key[:2]>/<key>, where key is the
// hex sha256 of the URL. Downloads land under a .incomplete name first
// and are renamed into place once finished, so a crash never leaves a
// partial file that a later Lookup would mistake for a complete one.
package cache

import (
	"cellar/internal/utils"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const incompleteSuffix = ".incomplete"

// Store is the on-disk artifact cache.
type Store struct {
	root string
}

// New returns a store rooted at the given directory. The directory is
// created lazily on first write.
func New(root string) *Store {
	return &Store{root: root}
}

func urlKey(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(sum[:])
}

func (s *Store) artifactDir(rawURL string) string {
	key := urlKey(rawURL)
	return filepath.Join(s.root, key[:2], key)
}

// Lookup returns the completed artifact for rawURL, if present.
func (s *Store) Lookup(rawURL string) (string, bool) {
	dir := s.artifactDir(rawURL)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), incompleteSuffix) {
			continue
		}
		return filepath.Join(dir, entry.Name()), true
	}
	return "", false
}

// WorkingPath creates the artifact directory for rawURL and returns the
// in-progress path a download should write to. Commit renames it into
// its final place.
func (s *Store) WorkingPath(rawURL, filename string) (string, error) {
	dir := s.artifactDir(rawURL)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}
	return filepath.Join(dir, filename+incompleteSuffix), nil
}

// Commit renames a finished working file to its final name and returns
// the final path.
func (s *Store) Commit(workingPath string) (string, error) {
	finalPath := strings.TrimSuffix(workingPath, incompleteSuffix)
	if finalPath == workingPath {
		return "", fmt.Errorf("not a working path: %s", workingPath)
	}
	if err := os.Rename(workingPath, finalPath); err != nil {
		return "", fmt.Errorf("failed to finalize cached artifact: %w", err)
	}
	return finalPath, nil
}

// Discard removes an abandoned working file. A missing file is fine.
func (s *Store) Discard(workingPath string) {
	if err := os.Remove(workingPath); err != nil && !os.IsNotExist(err) {
		utils.Debug("Failed to remove working file %s: %v", workingPath, err)
	}
}
