package ops

import (
	"fmt"

	"github.com/chazu/facet/pkg/mesh"
)

// Skip records a batch item an operator did not process.
type Skip struct {
	Item   int    // position in the request
	Reason string // human-readable cause
}

// Result describes what a bevel or extrude call changed. Vertex indices are
// valid for the mesh as it is after the call.
type Result struct {
	Requested       int   // items in the request
	Processed       int   // items actually applied
	NewVertices     []int // vertices created
	NewFaces        []int // faces appended
	ModifiedFaces   []int // existing faces rewritten in place
	RemovedVertices int   // orphans compacted away
	Skipped         []Skip

	// Selection is what the host should select next.
	Selection mesh.Selection
}

// Changed reports whether the mesh was modified.
func (r *Result) Changed() bool { return r.Processed > 0 }

// Partial reports whether some, but not all, requested items were applied.
func (r *Result) Partial() bool { return r.Processed > 0 && r.Processed < r.Requested }

func (r *Result) skip(item int, format string, args ...interface{}) string {
	reason := fmt.Sprintf(format, args...)
	r.Skipped = append(r.Skipped, Skip{Item: item, Reason: reason})
	return reason
}

func (r *Result) String() string {
	return fmt.Sprintf("%d/%d applied, +%d vertices, +%d faces, -%d vertices",
		r.Processed, r.Requested, len(r.NewVertices), len(r.NewFaces), r.RemovedVertices)
}

// MergeResult describes what a merge call changed.
type MergeResult struct {
	Success      bool          // false means nothing to merge; mesh unchanged
	Removed      int           // vertices removed
	Clusters     int           // clusters of two or more vertices collapsed
	FacesRemoved int           // faces dropped as degenerate
	Summary      string        // human-readable outcome
	Map          mesh.IndexMap // old→new vertex indices; nil when unchanged
}
