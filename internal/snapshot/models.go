package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/efebarandurmaz/sikuliflow/internal/plugins"
)

// ProjectPath is the manifest path of the project file inside a snapshot.
const ProjectPath = "project.json"

// Snapshot is a point-in-time capture of a project and its generated scripts.
type Snapshot struct {
	ID           string            `json:"id"`
	ParentID     string            `json:"parent_id,omitempty"`
	Tag          string            `json:"tag,omitempty"`
	Description  string            `json:"description,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	Dialect      string            `json:"dialect"`
	ContentHash  string            `json:"content_hash"`
	Stats        Stats             `json:"stats"`
	FileManifest []FileEntry       `json:"file_manifest"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Stats sizes the captured project.
type Stats struct {
	Nodes     int `json:"nodes"`
	Edges     int `json:"edges"`
	Functions int `json:"functions"`
	Images    int `json:"images"`
}

// FileEntry records a stored file with its content hash.
type FileEntry struct {
	Path        string `json:"path"`
	ContentHash string `json:"content_hash"`
	Size        int    `json:"size"`
}

// SnapshotIndex is a lightweight listing of all snapshots for fast lookup.
type SnapshotIndex struct {
	Snapshots []SnapshotSummary `json:"snapshots"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// SnapshotSummary is the minimal info for listing snapshots.
type SnapshotSummary struct {
	ID          string    `json:"id"`
	ParentID    string    `json:"parent_id,omitempty"`
	Tag         string    `json:"tag,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Dialect     string    `json:"dialect"`
	Stats       Stats     `json:"stats"`
	FileCount   int       `json:"file_count"`
}

// New builds a snapshot of files taken at now. The id is derived from the
// content and the time, so two captures of the same content differ.
func New(dialect string, stats Stats, files []plugins.GeneratedFile, now time.Time) *Snapshot {
	snap := &Snapshot{
		CreatedAt:    now,
		Dialect:      dialect,
		Stats:        stats,
		FileManifest: make([]FileEntry, 0, len(files)),
		Metadata:     make(map[string]string),
	}
	for _, f := range files {
		snap.FileManifest = append(snap.FileManifest, FileEntry{
			Path:        f.Path,
			ContentHash: ContentHash(f.Content),
			Size:        len(f.Content),
		})
	}
	snap.ContentHash = manifestHash(snap.FileManifest)
	snap.ID = snapshotID(snap)
	return snap
}

// ContentHash computes SHA-256 of content.
func ContentHash(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}

func manifestHash(entries []FileEntry) string {
	h := sha256.New()
	for _, e := range entries {
		h.Write([]byte(e.Path))
		h.Write([]byte(e.ContentHash))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func snapshotID(snap *Snapshot) string {
	data, _ := json.Marshal(struct {
		Time    int64  `json:"t"`
		Content string `json:"c"`
	}{
		Time:    snap.CreatedAt.UnixNano(),
		Content: snap.ContentHash,
	})
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:8])
}

// Summary returns a lightweight summary of this snapshot.
func (s *Snapshot) Summary() SnapshotSummary {
	return SnapshotSummary{
		ID:          s.ID,
		ParentID:    s.ParentID,
		Tag:         s.Tag,
		Description: s.Description,
		CreatedAt:   s.CreatedAt,
		Dialect:     s.Dialect,
		Stats:       s.Stats,
		FileCount:   len(s.FileManifest),
	}
}
