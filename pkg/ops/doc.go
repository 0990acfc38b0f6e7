// Package ops implements the mutating mesh operators: edge bevel (straight
// or filleted), edge extrude, face extrude/inset and vertex-cluster merge.
//
// Every operator is a function of (mesh, selection, parameters) that edits
// the mesh in place and returns a Result describing what changed, so the
// host can update its selection and undo history. Items of a batch are
// processed independently: a malformed item is skipped and counted, never
// repaired. An operator that processes nothing leaves the mesh exactly as
// it was.
package ops
