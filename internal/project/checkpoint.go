package project

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/efebarandurmaz/sikuliflow/internal/observability"
	"github.com/efebarandurmaz/sikuliflow/internal/plugins"
	"github.com/efebarandurmaz/sikuliflow/internal/snapshot"
)

// ErrEditorsOpen is returned when a checkpoint is requested while function
// editors hold unsaved work.
var ErrEditorsOpen = errors.New("close or save open function editors first")

// Stats sizes f for snapshot listings.
func (f File) Stats() snapshot.Stats {
	return snapshot.Stats{
		Nodes:     len(f.Graph.Nodes),
		Edges:     len(f.Graph.Edges),
		Functions: len(f.Functions),
		Images:    len(f.Images),
	}
}

// Checkpoint stores the committed project together with the scripts it
// exports to dialect. The newest existing snapshot becomes the parent.
func (s *Session) Checkpoint(ctx context.Context, store *snapshot.Store, dialect, description string) (*snapshot.Snapshot, error) {
	ctx, span := observability.StartSnapshotSpan(ctx, "save")
	defer span.End()

	if len(s.editors) > 0 {
		return nil, ErrEditorsOpen
	}
	scripts, err := Compile(ctx, s.registry, dialect, s.Program())
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	snap, err := Capture(store, s.File(), dialect, description, scripts)
	if err != nil {
		s.audit.LogSnapshot(ctx, observability.AuditEventSnapshotSave, "", err)
		observability.RecordError(span, err)
		return nil, err
	}
	s.audit.LogSnapshot(ctx, observability.AuditEventSnapshotSave, snap.ID, nil)
	s.log.Info("snapshot saved", "id", snap.ID, "files", len(snap.FileManifest), "nodes", snap.Stats.Nodes)
	return snap, nil
}

// Capture stores f and the scripts compiled from it as a new snapshot
// whose parent is the newest snapshot already in store.
func Capture(store *snapshot.Store, f File, dialect, description string, scripts []plugins.GeneratedFile) (*snapshot.Snapshot, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, f); err != nil {
		return nil, err
	}
	files := append([]plugins.GeneratedFile{{Path: snapshot.ProjectPath, Content: buf.Bytes()}}, scripts...)

	snap := snapshot.New(dialect, f.Stats(), files, time.Now().UTC())
	snap.Description = description
	if parent, ok := store.Latest(); ok {
		snap.ParentID = parent.ID
	}
	if err := store.Save(snap, files); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	return snap, nil
}

// LoadSnapshot decodes the project stored in the snapshot named by ref, an
// id or a tag.
func LoadSnapshot(store *snapshot.Store, ref string) (File, *snapshot.Snapshot, error) {
	snap, err := store.Resolve(ref)
	if err != nil {
		return File{}, nil, err
	}
	data, err := store.ReadFile(snap, snapshot.ProjectPath)
	if err != nil {
		return File{}, nil, err
	}
	f, err := Decode(bytes.NewReader(data))
	if err != nil {
		return File{}, nil, fmt.Errorf("snapshot %s: %w", snap.ID, err)
	}
	return f, snap, nil
}

// Restore opens a new session on the project stored in the snapshot named
// by ref.
func Restore(ctx context.Context, store *snapshot.Store, ref string, opts ...Option) (*Session, error) {
	ctx, span := observability.StartSnapshotSpan(ctx, "restore")
	defer span.End()

	f, snap, err := LoadSnapshot(store, ref)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	s := New(f, opts...)
	s.audit.LogSnapshot(ctx, observability.AuditEventSnapshotRestore, snap.ID, nil)
	return s, nil
}
