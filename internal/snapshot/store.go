package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/efebarandurmaz/sikuliflow/internal/plugins"
)

const (
	snapshotsDir = "snapshots"
	objectsDir   = "objects"
	indexFile    = "index.json"
)

// Store provides content-addressable storage for project snapshots.
type Store struct {
	mu      sync.RWMutex
	rootDir string
	index   *SnapshotIndex
}

// NewStore creates or opens a snapshot store at the given directory.
func NewStore(rootDir string) (*Store, error) {
	s := &Store{rootDir: rootDir}
	for _, dir := range []string{
		filepath.Join(rootDir, snapshotsDir),
		filepath.Join(rootDir, objectsDir),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", dir, err)
		}
	}
	if err := s.loadIndex(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load index: %w", err)
		}
		s.index = &SnapshotIndex{Snapshots: []SnapshotSummary{}, UpdatedAt: time.Now()}
	}
	return s, nil
}

// Save persists a snapshot and the files its manifest describes.
func (s *Store) Save(snap *Snapshot, files []plugins.GeneratedFile) error {
	if err := validID(snap.ID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range files {
		if err := s.writeObject(ContentHash(f.Content), f.Content); err != nil {
			return fmt.Errorf("store object %s: %w", f.Path, err)
		}
	}
	if err := s.writeSnapshot(snap); err != nil {
		return err
	}

	filtered := s.index.Snapshots[:0]
	for _, summary := range s.index.Snapshots {
		if summary.ID != snap.ID {
			filtered = append(filtered, summary)
		}
	}
	s.index.Snapshots = append(filtered, snap.Summary())
	s.index.UpdatedAt = time.Now()
	return s.saveIndex()
}

// Load retrieves a snapshot by ID.
func (s *Store) Load(id string) (*Snapshot, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readSnapshot(id)
}

// LoadFiles retrieves the files of a snapshot from the object store.
func (s *Store) LoadFiles(snap *Snapshot) ([]plugins.GeneratedFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files := make([]plugins.GeneratedFile, 0, len(snap.FileManifest))
	for _, entry := range snap.FileManifest {
		content, err := s.readObject(entry.ContentHash)
		if err != nil {
			return nil, fmt.Errorf("read object for %s: %w", entry.Path, err)
		}
		files = append(files, plugins.GeneratedFile{Path: entry.Path, Content: content})
	}
	return files, nil
}

// ReadFile returns the content of one manifest entry.
func (s *Store) ReadFile(snap *Snapshot, path string) ([]byte, error) {
	for _, entry := range snap.FileManifest {
		if entry.Path == path {
			s.mu.RLock()
			defer s.mu.RUnlock()
			return s.readObject(entry.ContentHash)
		}
	}
	return nil, fmt.Errorf("snapshot %s has no file %s", snap.ID, path)
}

// List returns all snapshot summaries, newest first.
func (s *Store) List() []SnapshotSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]SnapshotSummary, len(s.index.Snapshots))
	copy(result, s.index.Snapshots)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

// Latest returns the newest snapshot summary.
func (s *Store) Latest() (SnapshotSummary, bool) {
	list := s.List()
	if len(list) == 0 {
		return SnapshotSummary{}, false
	}
	return list[0], true
}

// Resolve finds a snapshot by ID or tag.
func (s *Store) Resolve(ref string) (*Snapshot, error) {
	s.mu.RLock()
	id := ""
	for _, summary := range s.index.Snapshots {
		if summary.ID == ref || (summary.Tag != "" && summary.Tag == ref) {
			id = summary.ID
			break
		}
	}
	s.mu.RUnlock()
	if id == "" {
		return nil, fmt.Errorf("snapshot %q not found", ref)
	}
	return s.Load(id)
}

// Tag assigns a tag to a snapshot.
func (s *Store) Tag(id, tag string) error {
	if err := validID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.readSnapshot(id)
	if err != nil {
		return err
	}
	snap.Tag = tag
	if err := s.writeSnapshot(snap); err != nil {
		return err
	}
	for i, summary := range s.index.Snapshots {
		if summary.ID == id {
			s.index.Snapshots[i].Tag = tag
			break
		}
	}
	s.index.UpdatedAt = time.Now()
	return s.saveIndex()
}

// Delete removes a snapshot. Objects are shared between snapshots and are
// left in place.
func (s *Store) Delete(id string) error {
	if err := validID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.RemoveAll(filepath.Join(s.rootDir, snapshotsDir, id)); err != nil {
		return fmt.Errorf("remove snapshot dir: %w", err)
	}
	filtered := s.index.Snapshots[:0]
	for _, summary := range s.index.Snapshots {
		if summary.ID != id {
			filtered = append(filtered, summary)
		}
	}
	s.index.Snapshots = filtered
	s.index.UpdatedAt = time.Now()
	return s.saveIndex()
}

// Restore writes a snapshot's files back to the target directory.
func (s *Store) Restore(snap *Snapshot, targetDir string) error {
	files, err := s.LoadFiles(snap)
	if err != nil {
		return fmt.Errorf("load files: %w", err)
	}
	for _, f := range files {
		if !filepath.IsLocal(filepath.FromSlash(f.Path)) {
			return fmt.Errorf("restore %s: path escapes target directory", f.Path)
		}
		outPath := filepath.Join(targetDir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return fmt.Errorf("create dir for %s: %w", f.Path, err)
		}
		if err := os.WriteFile(outPath, f.Content, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", f.Path, err)
		}
	}
	return nil
}

func validID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\.`) {
		return fmt.Errorf("invalid snapshot id %q", id)
	}
	return nil
}

func (s *Store) snapshotPath(id string) string {
	return filepath.Join(s.rootDir, snapshotsDir, id, "snapshot.json")
}

func (s *Store) readSnapshot(id string) (*Snapshot, error) {
	data, err := os.ReadFile(s.snapshotPath(id))
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", id, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot %s: %w", id, err)
	}
	return &snap, nil
}

func (s *Store) writeSnapshot(snap *Snapshot) error {
	path := s.snapshotPath(snap.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// writeObject stores content by its hash. Existing objects are kept.
func (s *Store) writeObject(hash string, content []byte) error {
	dir := filepath.Join(s.rootDir, objectsDir, hash[:2])
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	objPath := filepath.Join(dir, hash[2:])
	if _, err := os.Stat(objPath); err == nil {
		return nil
	}
	return os.WriteFile(objPath, content, 0o644)
}

func (s *Store) readObject(hash string) ([]byte, error) {
	if len(hash) < 3 {
		return nil, fmt.Errorf("invalid object hash %q", hash)
	}
	return os.ReadFile(filepath.Join(s.rootDir, objectsDir, hash[:2], hash[2:]))
}

func (s *Store) loadIndex() error {
	data, err := os.ReadFile(filepath.Join(s.rootDir, indexFile))
	if err != nil {
		return err
	}
	s.index = &SnapshotIndex{}
	return json.Unmarshal(data, s.index)
}

func (s *Store) saveIndex() error {
	data, err := json.MarshalIndent(s.index, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.rootDir, indexFile), data, 0o644)
}
