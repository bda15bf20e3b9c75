// Package library holds the FunctionDef library and the image asset
// registry shared by every editing surface of a project.
package library

import (
	"sort"
	"sync"

	"github.com/efebarandurmaz/sikuliflow/internal/ir"
)

// EventKind describes a library mutation.
type EventKind string

const (
	EventPut    EventKind = "put"
	EventRemove EventKind = "remove"
)

// Event is delivered to subscribers after a mutation.
type Event struct {
	Kind EventKind
	Def  ir.FunctionDef
}

// Library stores FunctionDefs in insertion order.
type Library struct {
	mu    sync.RWMutex
	defs  []ir.FunctionDef
	subs  map[int]func(Event)
	nextS int
}

// New returns a library seeded with defs. Later duplicates of an id win.
func New(defs ...ir.FunctionDef) *Library {
	l := &Library{subs: make(map[int]func(Event))}
	for _, d := range defs {
		l.put(d)
	}
	return l
}

// List returns copies of every definition in insertion order.
func (l *Library) List() []ir.FunctionDef {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]ir.FunctionDef, len(l.defs))
	for i, d := range l.defs {
		out[i] = d.Clone()
	}
	return out
}

// Len returns the number of definitions.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.defs)
}

// Get returns a copy of the definition with id.
func (l *Library) Get(id string) (ir.FunctionDef, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i := l.index(id); i >= 0 {
		return l.defs[i].Clone(), true
	}
	return ir.FunctionDef{}, false
}

// Put adds def or replaces the definition with the same id, then notifies
// subscribers.
func (l *Library) Put(def ir.FunctionDef) {
	l.mu.Lock()
	l.put(def)
	subs := l.subscribers()
	l.mu.Unlock()
	publish(subs, Event{Kind: EventPut, Def: def.Clone()})
}

// Update applies fn to the definition with id and stores the result. The
// id is preserved whatever fn returns.
func (l *Library) Update(id string, fn func(ir.FunctionDef) ir.FunctionDef) (ir.FunctionDef, bool) {
	l.mu.Lock()
	i := l.index(id)
	if i < 0 {
		l.mu.Unlock()
		return ir.FunctionDef{}, false
	}
	next := fn(l.defs[i].Clone())
	next.ID = id
	l.defs[i] = next.Clone()
	subs := l.subscribers()
	l.mu.Unlock()
	publish(subs, Event{Kind: EventPut, Def: next.Clone()})
	return next, true
}

// Remove deletes the definition with id.
func (l *Library) Remove(id string) bool {
	l.mu.Lock()
	i := l.index(id)
	if i < 0 {
		l.mu.Unlock()
		return false
	}
	removed := l.defs[i]
	l.defs = append(l.defs[:i:i], l.defs[i+1:]...)
	subs := l.subscribers()
	l.mu.Unlock()
	publish(subs, Event{Kind: EventRemove, Def: removed})
	return true
}

// Subscribe registers fn for every later mutation. Callbacks run on the
// mutating goroutine after the lock is released. The returned function
// cancels the subscription.
func (l *Library) Subscribe(fn func(Event)) (cancel func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextS
	l.nextS++
	l.subs[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subs, id)
	}
}

func (l *Library) put(def ir.FunctionDef) {
	if i := l.index(def.ID); i >= 0 {
		l.defs[i] = def.Clone()
		return
	}
	l.defs = append(l.defs, def.Clone())
}

func (l *Library) index(id string) int {
	for i, d := range l.defs {
		if d.ID == id {
			return i
		}
	}
	return -1
}

func (l *Library) subscribers() []func(Event) {
	ids := make([]int, 0, len(l.subs))
	for id := range l.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]func(Event), len(ids))
	for i, id := range ids {
		out[i] = l.subs[id]
	}
	return out
}

func publish(subs []func(Event), ev Event) {
	for _, fn := range subs {
		fn(ev)
	}
}
