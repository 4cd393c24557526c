// Package depgraph resolves mod dependencies against a candidate pool.
//
// BuildTree produces a DependencyNode tree for one mod; InTree answers
// "is this GUID anywhere below here". DetectCycle looks for circular
// references across a whole pool, counting both hard and soft edges.
package depgraph
