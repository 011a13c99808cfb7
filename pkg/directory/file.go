package directory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"
)

// lockRetryDelay is how often a blocked lock attempt is retried.
const lockRetryDelay = 25 * time.Millisecond

// fileDocument is the on-disk YAML layout.
//
//	groups:
//	  downtown-cafes:
//	    - ChIJN1t_tDeuEmsRUsoyG83frY4
type fileDocument struct {
	Groups map[string][]string `yaml:"groups"`
}

// FileStore reads the allow-list from a YAML file on every call. Readers take
// a shared lock on a sidecar lock file and writers an exclusive one, so the
// directory CLI can edit the file while a server is running. Each call opens
// its own lock handle, so concurrent requests in one process never release
// each other's lock.
type FileStore struct {
	path     string
	lockPath string
}

// NewFileStore creates a store backed by the YAML file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path:     path,
		lockPath: path + ".lock",
	}
}

func (s *FileStore) newLock() *flock.Flock {
	return flock.New(s.lockPath)
}

// Path returns the backing file path
func (s *FileStore) Path() string {
	return s.path
}

// ListAllCuratedPlaceIDs implements Store. A missing file is an empty allow-list.
func (s *FileStore) ListAllCuratedPlaceIDs(ctx context.Context) ([]string, error) {
	refs, err := s.Refs(ctx)
	if err != nil {
		return nil, err
	}
	return uniqueIDs(refs), nil
}

// FilterToKnownIDs implements Store.
func (s *FileStore) FilterToKnownIDs(ctx context.Context, candidates []string) ([]string, error) {
	if len(candidates) == 0 {
		return []string{}, nil
	}
	known, err := s.ListAllCuratedPlaceIDs(ctx)
	if err != nil {
		return nil, err
	}
	return intersect(known, candidates), nil
}

// Refs returns every row in the file, ordered by group.
func (s *FileStore) Refs(ctx context.Context) ([]PlaceRef, error) {
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return []PlaceRef{}, nil
	}
	lock := s.newLock()
	if _, err := lock.TryRLockContext(ctx, lockRetryDelay); err != nil {
		return nil, fmt.Errorf("failed to lock directory file: %w", err)
	}
	defer lock.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	return groupRefs(doc.Groups), nil
}

// Add records placeID under group. Adding an existing pair is a no-op.
func (s *FileStore) Add(ctx context.Context, group, placeID string) error {
	if group == "" || placeID == "" {
		return errors.New("group and place id must not be empty")
	}
	return s.update(ctx, func(doc *fileDocument) bool {
		if slices.Contains(doc.Groups[group], placeID) {
			return false
		}
		doc.Groups[group] = append(doc.Groups[group], placeID)
		return true
	})
}

// Remove deletes placeID from group, or from every group when group is empty.
// It reports whether anything was removed.
func (s *FileStore) Remove(ctx context.Context, group, placeID string) (bool, error) {
	removed := false
	err := s.update(ctx, func(doc *fileDocument) bool {
		for name, ids := range doc.Groups {
			if group != "" && name != group {
				continue
			}
			kept := slices.DeleteFunc(slices.Clone(ids), func(id string) bool { return id == placeID })
			if len(kept) == len(ids) {
				continue
			}
			removed = true
			if len(kept) == 0 {
				delete(doc.Groups, name)
			} else {
				doc.Groups[name] = kept
			}
		}
		return removed
	})
	return removed, err
}

// update applies fn under the exclusive lock and writes the file when fn reports a change.
func (s *FileStore) update(ctx context.Context, fn func(doc *fileDocument) bool) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	lock := s.newLock()
	if _, err := lock.TryLockContext(ctx, lockRetryDelay); err != nil {
		return fmt.Errorf("failed to lock directory file: %w", err)
	}
	defer lock.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	if !fn(doc) {
		return nil
	}
	return s.write(doc)
}

func (s *FileStore) read() (*fileDocument, error) {
	doc := &fileDocument{Groups: map[string][]string{}}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read directory file: %w", err)
	}

	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to parse directory file %s: %w", s.path, err)
	}
	if doc.Groups == nil {
		doc.Groups = map[string][]string{}
	}
	return doc, nil
}

// write replaces the file atomically via a temp file in the same directory.
func (s *FileStore) write(doc *fileDocument) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode directory file: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace directory file: %w", err)
	}
	return nil
}
