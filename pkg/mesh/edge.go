package mesh

import (
	"fmt"

	"github.com/samber/lo"
)

// Edge is a pair of vertex indices. Its direction matters only where a
// caller says so; Key gives the undirected form.
type Edge struct {
	V0, V1 int
}

// Key returns the edge with the smaller index first.
func (e Edge) Key() Edge {
	if e.V1 < e.V0 {
		return Edge{e.V1, e.V0}
	}
	return e
}

// Reversed returns the edge with its endpoints swapped.
func (e Edge) Reversed() Edge { return Edge{e.V1, e.V0} }

// Degenerate reports whether both endpoints are the same vertex.
func (e Edge) Degenerate() bool { return e.V0 == e.V1 }

func (e Edge) String() string {
	return fmt.Sprintf("(%d,%d)", e.V0, e.V1)
}

// UniqueEdges drops undirected duplicates, keeping first occurrences.
func UniqueEdges(edges []Edge) []Edge {
	return lo.UniqBy(edges, Edge.Key)
}

// Selection is what the host keeps selected between operator calls.
type Selection struct {
	Vertices []int  `json:"vertices,omitempty"`
	Edges    []Edge `json:"edges,omitempty"`
	Faces    []int  `json:"faces,omitempty"`
}

// IsEmpty reports whether nothing is selected.
func (s Selection) IsEmpty() bool {
	return len(s.Vertices) == 0 && len(s.Edges) == 0 && len(s.Faces) == 0
}
