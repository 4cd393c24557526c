// Package order arranges a validated mod selection into the chain in
// which mods are applied.
package order

import (
	"github.com/nirvanamm/nirvanamm/pkg/modfile"
)

// Chain orders mods so that every mod comes after the mods it depends on,
// hard or soft. Mods are taken in the given order and each is inserted:
//
//  1. at the end of an empty chain;
//  2. before the first chain member that depends on it;
//  3. at the front when it has no dependencies;
//  4. after the last chain member it depends on, or at the end when none
//     of its dependencies are in the chain yet.
//
// Insertion alone can leave a mod ahead of one of its dependencies when
// a later mod links two earlier ones, so the result is passed through a
// stable topological pass. That pass leaves an already valid chain as is.
//
// The input is not modified.
func Chain(mods []*modfile.ModFile) []*modfile.ModFile {
	chain := make([]*modfile.ModFile, 0, len(mods))

	for _, m := range mods {
		if len(chain) == 0 {
			chain = append(chain, m)
			continue
		}

		if i := firstDependent(chain, m); i >= 0 {
			chain = insert(chain, i, m)
			continue
		}

		if !m.Metadata.HasDependencies() {
			chain = insert(chain, 0, m)
			continue
		}

		if i := lastDependency(chain, m); i >= 0 {
			chain = insert(chain, i+1, m)
		} else {
			chain = append(chain, m)
		}
	}
	return settle(chain)
}

// settle repeatedly takes the earliest mod whose in-chain dependencies
// are all placed. Mods caught in a loop keep their relative order at the
// end.
func settle(chain []*modfile.ModFile) []*modfile.ModFile {
	out := make([]*modfile.ModFile, 0, len(chain))
	placed := make([]bool, len(chain))

	for len(out) < len(chain) {
		next := -1
		for i, m := range chain {
			if !placed[i] && ready(chain, placed, m) {
				next = i
				break
			}
		}
		if next < 0 {
			for i, m := range chain {
				if !placed[i] {
					out = append(out, m)
				}
			}
			break
		}
		placed[next] = true
		out = append(out, chain[next])
	}
	return out
}

func ready(chain []*modfile.ModFile, placed []bool, m *modfile.ModFile) bool {
	for j, c := range chain {
		if !placed[j] && c != m && m.Metadata.HasDependency(c.Metadata) {
			return false
		}
	}
	return true
}

func firstDependent(chain []*modfile.ModFile, m *modfile.ModFile) int {
	for i, c := range chain {
		if c.Metadata.HasDependency(m.Metadata) {
			return i
		}
	}
	return -1
}

func lastDependency(chain []*modfile.ModFile, m *modfile.ModFile) int {
	last := -1
	for i, c := range chain {
		if m.Metadata.HasDependency(c.Metadata) {
			last = i
		}
	}
	return last
}

func insert(chain []*modfile.ModFile, i int, m *modfile.ModFile) []*modfile.ModFile {
	chain = append(chain, nil)
	copy(chain[i+1:], chain[i:])
	chain[i] = m
	return chain
}

// GUIDs lists the chain's GUIDs in order.
func GUIDs(chain []*modfile.ModFile) []string {
	out := make([]string, len(chain))
	for i, m := range chain {
		out[i] = m.GUID()
	}
	return out
}
