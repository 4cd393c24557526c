package depgraph

import (
	"strings"

	"github.com/nirvanamm/nirvanamm/pkg/errors"
	"github.com/nirvanamm/nirvanamm/pkg/manifest"
)

// DependencyNode is one resolved mod in a dependency tree. Nil Children
// means the mod declares no dependencies at all.
type DependencyNode struct {
	GUID     string
	Version  string
	Children []*DependencyNode
}

// InTree reports whether guid is this node or any descendant.
func (n *DependencyNode) InTree(guid string) bool {
	if n == nil {
		return false
	}
	if n.GUID == guid {
		return true
	}
	for _, c := range n.Children {
		if c.InTree(guid) {
			return true
		}
	}
	return false
}

// IsLeaf reports whether the node's mod has no dependencies.
func (n *DependencyNode) IsLeaf() bool {
	return n.Children == nil
}

// Resolve returns the first pool member satisfying dep.
func Resolve(dep manifest.Dependency, pool []manifest.ModMetadata) (manifest.ModMetadata, bool) {
	for _, m := range pool {
		if m.MatchesDependency(dep) {
			return m, true
		}
	}
	return manifest.ModMetadata{}, false
}

// BuildTree resolves mod's dependencies recursively against pool. Absent
// soft dependencies are left out. An absent hard dependency fails the
// build with ErrDependency carrying the missing GUID; a dependency loop
// fails with ErrCyclicDependency.
func BuildTree(mod manifest.ModMetadata, pool []manifest.ModMetadata) (*DependencyNode, error) {
	return build(mod, pool, nil)
}

func build(mod manifest.ModMetadata, pool []manifest.ModMetadata, path []string) (*DependencyNode, error) {
	node := &DependencyNode{GUID: mod.GUID, Version: mod.Version}
	if !mod.HasDependencies() {
		return node, nil
	}

	path = append(path, mod.GUID)
	deps, err := mod.Dependencies()
	if err != nil {
		return nil, err
	}

	node.Children = make([]*DependencyNode, 0, len(deps))
	for _, dep := range deps {
		found, ok := Resolve(dep, pool)
		if !ok {
			if dep.Soft {
				continue
			}
			return nil, errors.Newf(errors.ErrDependency, "dependency %s of %s is not available", dep.GUID, mod.GUID).
				WithDetail("guid", dep.GUID)
		}
		if i := indexOf(path, found.GUID); i >= 0 {
			cycle := append(append([]string{}, path[i:]...), found.GUID)
			return nil, errors.Newf(errors.ErrCyclicDependency, "circular dependency: %s", strings.Join(cycle, " -> ")).
				WithDetail("cycle", cycle)
		}
		child, err := build(found, pool, path)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}

// ReachableTree is BuildTree without failure: dependencies that do not
// resolve in pool, hard or soft, are left out, and edges closing a loop
// are dropped. It answers ancestry questions for selections that are not
// yet complete.
func ReachableTree(mod manifest.ModMetadata, pool []manifest.ModMetadata) *DependencyNode {
	return reachable(mod, pool, nil)
}

func reachable(mod manifest.ModMetadata, pool []manifest.ModMetadata, path []string) *DependencyNode {
	node := &DependencyNode{GUID: mod.GUID, Version: mod.Version}
	deps, err := mod.Dependencies()
	if err != nil || len(deps) == 0 {
		return node
	}

	path = append(path, mod.GUID)
	node.Children = make([]*DependencyNode, 0, len(deps))
	for _, dep := range deps {
		found, ok := Resolve(dep, pool)
		if !ok || indexOf(path, found.GUID) >= 0 {
			continue
		}
		node.Children = append(node.Children, reachable(found, pool, path))
	}
	return node
}

// MissingGUID extracts the unresolved GUID from a BuildTree error.
func MissingGUID(err error) (string, bool) {
	if !errors.IsErrorCode(err, errors.ErrDependency) {
		return "", false
	}
	guid, ok := errors.GetErrorDetails(err)["guid"].(string)
	return guid, ok
}

// DetectCycle returns the GUIDs along the first dependency loop found in
// pool, or nil. Edges follow every dependency, hard or soft, that resolves
// inside the pool.
func DetectCycle(pool []manifest.ModMetadata) []string {
	const (
		unvisited = iota
		temporary
		permanent
	)

	marks := make(map[string]int, len(pool))
	var stack []string

	var visit func(m manifest.ModMetadata) []string
	visit = func(m manifest.ModMetadata) []string {
		switch marks[m.GUID] {
		case permanent:
			return nil
		case temporary:
			i := indexOf(stack, m.GUID)
			return append(append([]string{}, stack[i:]...), m.GUID)
		}

		marks[m.GUID] = temporary
		stack = append(stack, m.GUID)
		deps, _ := m.Dependencies()
		for _, dep := range deps {
			next, ok := Resolve(dep, pool)
			if !ok {
				continue
			}
			if cycle := visit(next); cycle != nil {
				return cycle
			}
		}
		stack = stack[:len(stack)-1]
		marks[m.GUID] = permanent
		return nil
	}

	for _, m := range pool {
		if marks[m.GUID] == unvisited {
			if cycle := visit(m); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
