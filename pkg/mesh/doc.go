// Package mesh defines the polygon mesh model edited by facet.
// A Mesh owns a vertex sequence and a face sequence; faces reference
// vertices by index and carry per-corner UV and normal indices into the
// referenced vertex's own attribute lists. Edges are not stored: an edge is
// any pair of vertex indices that appear consecutively in some face.
//
// The package also provides the adjacency queries (Index) the operators in
// package ops are written against, the vertex compactor that removes
// unreferenced vertices and renumbers faces, and a structural validator.
package mesh
