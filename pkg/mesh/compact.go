package mesh

import (
	"errors"
	"fmt"
	"sort"
)

// ErrIndexCorruption reports a face referencing a vertex that does not
// exist, or is about to stop existing. It is a programming fault.
var ErrIndexCorruption = errors.New("mesh: index corruption")

// Removed marks a vertex that an IndexMap drops.
const Removed = -1

// IndexMap maps old vertex indices to new ones after a compaction.
// Dropped vertices map to Removed.
type IndexMap []int

// Map returns the new index of old, or Removed. Indices outside the map
// (vertices appended after the compaction) are returned unchanged.
func (im IndexMap) Map(old int) int {
	if old < 0 || old >= len(im) {
		return old
	}
	return im[old]
}

// MapAll maps a slice of indices, dropping the ones that were removed.
func (im IndexMap) MapAll(olds []int) []int {
	out := make([]int, 0, len(olds))
	for _, o := range olds {
		if n := im.Map(o); n != Removed {
			out = append(out, n)
		}
	}
	return out
}

// Identity reports whether the map leaves every index where it was.
func (im IndexMap) Identity() bool {
	for i, n := range im {
		if i != n {
			return false
		}
	}
	return true
}

// Compact removes the vertices in remove and renumbers every face so it
// still points at the same vertices. The old→new map is built by counting
// survivors, so all faces are rewritten in a single pass no matter how many
// vertices go.
//
// Every vertex in remove must be unreferenced. If a face still uses one,
// or any face index is already out of range, Compact returns
// ErrIndexCorruption and leaves the mesh untouched.
func Compact(m *Mesh, remove map[int]bool) (IndexMap, error) {
	n := len(m.Vertices)
	for fi := range m.Faces {
		for _, v := range m.Faces[fi].Vertices {
			if v < 0 || v >= n {
				return nil, fmt.Errorf("%w: face %d references vertex %d of %d", ErrIndexCorruption, fi, v, n)
			}
			if remove[v] {
				return nil, fmt.Errorf("%w: face %d still references vertex %d scheduled for removal", ErrIndexCorruption, fi, v)
			}
		}
	}

	im := make(IndexMap, n)
	next := 0
	for i := 0; i < n; i++ {
		if remove[i] {
			im[i] = Removed
			continue
		}
		im[i] = next
		next++
	}
	if next == n {
		return im, nil
	}

	kept := m.Vertices[:0]
	for i, v := range m.Vertices {
		if im[i] != Removed {
			kept = append(kept, v)
		}
	}
	for i := len(kept); i < n; i++ {
		m.Vertices[i] = Vertex{}
	}
	m.Vertices = kept

	for fi := range m.Faces {
		vs := m.Faces[fi].Vertices
		for k, v := range vs {
			vs[k] = im[v]
		}
	}
	return im, nil
}

// Referenced returns the set of vertex indices used by at least one face.
func Referenced(m *Mesh) map[int]bool {
	used := make(map[int]bool, len(m.Vertices))
	for fi := range m.Faces {
		for _, v := range m.Faces[fi].Vertices {
			used[v] = true
		}
	}
	return used
}

// RemoveOrphans compacts away the candidates that no face references any
// more. Referenced candidates are kept. It returns the index map and the
// removed candidates in descending order.
func RemoveOrphans(m *Mesh, candidates []int) (IndexMap, []int, error) {
	used := Referenced(m)
	remove := make(map[int]bool)
	for _, c := range candidates {
		if m.ValidVertex(c) && !used[c] {
			remove[c] = true
		}
	}
	removed := make([]int, 0, len(remove))
	for v := range remove {
		removed = append(removed, v)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(removed)))

	im, err := Compact(m, remove)
	if err != nil {
		return nil, nil, err
	}
	return im, removed, nil
}
