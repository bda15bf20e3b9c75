// Package history implements snapshot undo/redo over graph values.
//
// The Manager keeps two channels: the committed graph, which is what the
// undo stacks record, and an optional live overlay that an open gesture
// writes into on every pointer move. Readers always see Current(), which is
// the overlay while a gesture is open and the committed graph otherwise.
package history

import "github.com/efebarandurmaz/sikuliflow/internal/ir"

// Manager is not safe for concurrent use; it lives on the event loop.
type Manager struct {
	committed ir.Graph
	live      *ir.Graph
	past      []ir.Graph
	future    []ir.Graph
	maxDepth  int
}

// New returns a Manager whose committed graph is g. maxDepth bounds the
// undo stack; zero means unbounded.
func New(g ir.Graph, maxDepth int) *Manager {
	return &Manager{committed: g, maxDepth: maxDepth}
}

// Current returns the graph readers should observe.
func (m *Manager) Current() ir.Graph {
	if m.live != nil {
		return *m.live
	}
	return m.committed
}

// Committed returns the history-tracked graph, ignoring any overlay.
func (m *Manager) Committed() ir.Graph { return m.committed }

// InGesture reports whether a live overlay is open.
func (m *Manager) InGesture() bool { return m.live != nil }

// Begin snapshots the committed graph onto the undo stack, clears redo and
// opens a live overlay seeded with the current graph.
func (m *Manager) Begin() {
	m.closeOverlay()
	m.push()
	g := m.committed
	m.live = &g
}

// BeginLive opens an overlay without recording a snapshot. Committing it
// replaces the committed graph without an undo step.
func (m *Manager) BeginLive() {
	m.closeOverlay()
	g := m.committed
	m.live = &g
}

// SetLive replaces the overlay. Without an open overlay it behaves like
// BeginLive followed by SetLive.
func (m *Manager) SetLive(g ir.Graph) {
	m.live = &g
}

// Commit merges the overlay into the committed graph.
func (m *Manager) Commit() {
	if m.live != nil {
		m.committed = *m.live
		m.live = nil
	}
}

// Cancel discards the overlay. A snapshot recorded by Begin stays on the
// stack; callers that want no undo step should use BeginLive.
func (m *Manager) Cancel() {
	m.live = nil
}

// Apply records a discrete edit: snapshot, then replace the committed graph.
func (m *Manager) Apply(g ir.Graph) {
	m.closeOverlay()
	m.push()
	m.committed = g
}

// Replace swaps the committed graph without touching the stacks.
func (m *Manager) Replace(g ir.Graph) {
	m.live = nil
	m.committed = g
}

// Undo restores the previous snapshot. It is a no-op on an empty stack.
func (m *Manager) Undo() bool {
	m.closeOverlay()
	if len(m.past) == 0 {
		return false
	}
	prev := m.past[len(m.past)-1]
	m.past = m.past[:len(m.past)-1]
	m.future = append(m.future, m.committed)
	m.committed = prev
	return true
}

// Redo re-applies the most recently undone state.
func (m *Manager) Redo() bool {
	m.closeOverlay()
	if len(m.future) == 0 {
		return false
	}
	next := m.future[len(m.future)-1]
	m.future = m.future[:len(m.future)-1]
	m.past = append(m.past, m.committed)
	m.committed = next
	return true
}

// CanUndo reports whether Undo would change state.
func (m *Manager) CanUndo() bool { return len(m.past) > 0 }

// CanRedo reports whether Redo would change state.
func (m *Manager) CanRedo() bool { return len(m.future) > 0 }

// Depth returns the sizes of the undo and redo stacks.
func (m *Manager) Depth() (past, future int) { return len(m.past), len(m.future) }

func (m *Manager) push() {
	m.past = append(m.past, m.committed.Clone())
	m.future = nil
	if m.maxDepth > 0 && len(m.past) > m.maxDepth {
		m.past = append([]ir.Graph(nil), m.past[len(m.past)-m.maxDepth:]...)
	}
}

func (m *Manager) closeOverlay() {
	if m.live != nil {
		m.Commit()
	}
}
