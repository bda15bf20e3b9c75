package snapshot

import (
	"fmt"
	"sort"
	"strings"
)

// DiffType indicates the kind of change.
type DiffType string

const (
	DiffAdded    DiffType = "added"
	DiffRemoved  DiffType = "removed"
	DiffModified DiffType = "modified"
)

// SnapshotDiff compares two snapshots file by file.
type SnapshotDiff struct {
	OldID      string     `json:"old_id"`
	NewID      string     `json:"new_id"`
	StatsDelta Stats      `json:"stats_delta"`
	FileDiffs  []FileDiff `json:"file_diffs"`
}

// FileDiff is a change to a single stored file.
type FileDiff struct {
	Path      string   `json:"path"`
	Type      DiffType `json:"type"`
	OldHash   string   `json:"old_hash,omitempty"`
	NewHash   string   `json:"new_hash,omitempty"`
	SizeDelta int      `json:"size_delta"`
}

// Diff computes the file-level differences between two snapshots.
func Diff(old, new *Snapshot) *SnapshotDiff {
	d := &SnapshotDiff{
		OldID: old.ID,
		NewID: new.ID,
		StatsDelta: Stats{
			Nodes:     new.Stats.Nodes - old.Stats.Nodes,
			Edges:     new.Stats.Edges - old.Stats.Edges,
			Functions: new.Stats.Functions - old.Stats.Functions,
			Images:    new.Stats.Images - old.Stats.Images,
		},
	}

	oldMap := make(map[string]FileEntry, len(old.FileManifest))
	for _, f := range old.FileManifest {
		oldMap[f.Path] = f
	}
	newMap := make(map[string]FileEntry, len(new.FileManifest))
	for _, f := range new.FileManifest {
		newMap[f.Path] = f
	}

	for path, o := range oldMap {
		n, ok := newMap[path]
		switch {
		case !ok:
			d.FileDiffs = append(d.FileDiffs, FileDiff{Path: path, Type: DiffRemoved, OldHash: o.ContentHash, SizeDelta: -o.Size})
		case n.ContentHash != o.ContentHash:
			d.FileDiffs = append(d.FileDiffs, FileDiff{Path: path, Type: DiffModified, OldHash: o.ContentHash, NewHash: n.ContentHash, SizeDelta: n.Size - o.Size})
		}
	}
	for path, n := range newMap {
		if _, ok := oldMap[path]; !ok {
			d.FileDiffs = append(d.FileDiffs, FileDiff{Path: path, Type: DiffAdded, NewHash: n.ContentHash, SizeDelta: n.Size})
		}
	}
	sort.Slice(d.FileDiffs, func(i, j int) bool { return d.FileDiffs[i].Path < d.FileDiffs[j].Path })
	return d
}

// Empty reports whether the snapshots hold identical files.
func (d *SnapshotDiff) Empty() bool { return len(d.FileDiffs) == 0 }

// FormatDiff renders d for the terminal.
func FormatDiff(d *SnapshotDiff) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Diff: %s -> %s\n", d.OldID, d.NewID)
	fmt.Fprintf(&sb, "Graph: nodes %+d, edges %+d, functions %+d, images %+d\n",
		d.StatsDelta.Nodes, d.StatsDelta.Edges, d.StatsDelta.Functions, d.StatsDelta.Images)
	if d.Empty() {
		sb.WriteString("No file changes\n")
		return sb.String()
	}
	for _, fd := range d.FileDiffs {
		icon := "~"
		switch fd.Type {
		case DiffAdded:
			icon = "+"
		case DiffRemoved:
			icon = "-"
		}
		fmt.Fprintf(&sb, "  %s %s (%+d bytes)\n", icon, fd.Path, fd.SizeDelta)
	}
	return sb.String()
}
