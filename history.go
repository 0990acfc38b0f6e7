package main

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/chazu/facet/pkg/mesh"
)

// Snapshot is one undo step: the mesh and selection as they were before
// the labelled change.
type Snapshot struct {
	ID        uuid.UUID
	Label     string
	Taken     time.Time
	Mesh      *mesh.Mesh
	Selection mesh.Selection
}

// History is a bounded undo stack. It is not safe for concurrent use; App
// guards it with its own lock.
type History struct {
	limit   int
	entries []Snapshot
}

// NewHistory creates a History keeping at most limit snapshots.
// A non-positive limit means DefaultHistoryLimit.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

// Push records a copy of m and sel under label.
func (h *History) Push(label string, m *mesh.Mesh, sel mesh.Selection) Snapshot {
	return h.push(label, m.Clone(), sel)
}

// push records m without copying it; the caller gives up m.
func (h *History) push(label string, m *mesh.Mesh, sel mesh.Selection) Snapshot {
	s := Snapshot{
		ID:        uuid.New(),
		Label:     label,
		Taken:     time.Now(),
		Mesh:      m,
		Selection: cloneSelection(sel),
	}
	h.entries = append(h.entries, s)
	if over := len(h.entries) - h.limit; over > 0 {
		// Clear dropped entries so their meshes can be collected.
		for i := 0; i < over; i++ {
			h.entries[i] = Snapshot{}
		}
		h.entries = h.entries[over:]
	}
	return s
}

// Undo pops the most recent snapshot.
func (h *History) Undo() (Snapshot, bool) {
	if len(h.entries) == 0 {
		return Snapshot{}, false
	}
	last := len(h.entries) - 1
	s := h.entries[last]
	h.entries[last] = Snapshot{}
	h.entries = h.entries[:last]
	return s, true
}

// Len returns the number of snapshots held.
func (h *History) Len() int { return len(h.entries) }

// Labels lists snapshot labels, oldest first.
func (h *History) Labels() []string {
	return lo.Map(h.entries, func(s Snapshot, _ int) string { return s.Label })
}

func cloneSelection(s mesh.Selection) mesh.Selection {
	return mesh.Selection{
		Vertices: append([]int(nil), s.Vertices...),
		Edges:    append([]mesh.Edge(nil), s.Edges...),
		Faces:    append([]int(nil), s.Faces...),
	}
}
