// Package fs provides a file-backed core.ArtifactStore. Each artifact is a
// regular file under root/<sessionID>/<artifactID>, so stored candidates and
// iteration snapshots survive process restarts and can be inspected with
// ordinary shell tools.
package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/metamesh-ai/metamesh/artifact"
)

// Store persists artifacts on the local filesystem. Writes go through a
// temp-file rename so concurrent readers never observe partial content.
type Store struct {
	root string
	mu   sync.Mutex
}

// NewStore creates the root directory if needed and returns a Store over it.
func NewStore(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("artifact root must not be empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact root: %w", err)
	}
	return &Store{root: root}, nil
}

// validID rejects identifiers that would escape the store's directory layout.
func validID(id string) error {
	if id == "" {
		return fmt.Errorf("identifier must not be empty")
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("identifier %q contains path separators", id)
	}
	return nil
}

func (s *Store) path(sessionID, artifactID string) (string, error) {
	if err := validID(sessionID); err != nil {
		return "", err
	}
	if err := validID(artifactID); err != nil {
		return "", err
	}
	return filepath.Join(s.root, sessionID, artifactID), nil
}

// Save writes the artifact atomically, creating the session directory on
// first use.
func (s *Store) Save(sessionID, artifactID string, data []byte) error {
	p, err := s.path(sessionID, artifactID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".artifact-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename artifact: %w", err)
	}
	return nil
}

// Get reads the artifact bytes or returns artifact.ErrNotFound.
func (s *Store) Get(sessionID, artifactID string) ([]byte, error) {
	p, err := s.path(sessionID, artifactID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, artifact.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return data, nil
}

// List returns the stored artifact ids for the session, sorted. A session
// with no artifacts yields an empty slice.
func (s *Store) List(sessionID string) ([]string, error) {
	if err := validID(sessionID); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(s.root, sessionID))
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		ids = append(ids, e.Name())
	}
	sort.Strings(ids)
	return ids, nil
}

// Delete removes the artifact file or returns artifact.ErrNotFound.
func (s *Store) Delete(sessionID, artifactID string) error {
	p, err := s.path(sessionID, artifactID)
	if err != nil {
		return err
	}
	err = os.Remove(p)
	if errors.Is(err, os.ErrNotExist) {
		return artifact.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete artifact: %w", err)
	}
	return nil
}
