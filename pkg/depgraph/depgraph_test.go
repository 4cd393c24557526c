package depgraph

import (
	"testing"

	"github.com/nirvanamm/nirvanamm/pkg/errors"
	"github.com/nirvanamm/nirvanamm/pkg/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mod(guid, version string, deps ...manifest.DependencyRef) manifest.ModMetadata {
	return manifest.ModMetadata{Name: guid, GUID: guid, Author: "t", Version: version, Depends: deps}
}

func hard(guid, rng string) manifest.DependencyRef {
	return manifest.CompactRef(guid + ":" + rng)
}

func soft(guid, rng string) manifest.DependencyRef {
	return manifest.TableRef(guid, rng, true)
}

func TestBuildTreeLeaf(t *testing.T) {
	a := mod("a", "1.0.0")
	node, err := BuildTree(a, []manifest.ModMetadata{a})
	require.NoError(t, err)

	assert.Equal(t, "a", node.GUID)
	assert.Equal(t, "1.0.0", node.Version)
	assert.True(t, node.IsLeaf())
	assert.Nil(t, node.Children)
}

func TestBuildTreeTransitive(t *testing.T) {
	a := mod("a", "1.0.0")
	b := mod("b", "2.3.0", hard("a", "1"))
	c := mod("c", "0.1.0", hard("b", ">=2.0.0"))
	pool := []manifest.ModMetadata{c, b, a}

	node, err := BuildTree(c, pool)
	require.NoError(t, err)

	require.Len(t, node.Children, 1)
	assert.Equal(t, "b", node.Children[0].GUID)
	require.Len(t, node.Children[0].Children, 1)
	assert.Equal(t, "a", node.Children[0].Children[0].GUID)
	assert.True(t, node.Children[0].Children[0].IsLeaf())

	assert.True(t, node.InTree("a"))
	assert.True(t, node.InTree("b"))
	assert.False(t, node.InTree("zzz"))
}

func TestBuildTreeSkipsAbsentSoft(t *testing.T) {
	a := mod("a", "1.0.0", soft("missing", "*"))
	node, err := BuildTree(a, []manifest.ModMetadata{a})
	require.NoError(t, err)

	assert.NotNil(t, node.Children)
	assert.Empty(t, node.Children)
	assert.False(t, node.IsLeaf())
}

func TestBuildTreeIncludesPresentSoft(t *testing.T) {
	lib := mod("lib", "1.0.0")
	a := mod("a", "1.0.0", soft("lib", "*"))
	node, err := BuildTree(a, []manifest.ModMetadata{a, lib})
	require.NoError(t, err)
	assert.True(t, node.InTree("lib"))
}

func TestBuildTreeMissingHard(t *testing.T) {
	tests := []struct {
		name string
		pool []manifest.ModMetadata
	}{
		{name: "absent", pool: nil},
		{name: "version mismatch", pool: []manifest.ModMetadata{mod("lib", "2.0.0")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mod("a", "1.0.0", hard("lib", "1.0"))
			_, err := BuildTree(a, append(tt.pool, a))
			require.Error(t, err)

			guid, ok := MissingGUID(err)
			require.True(t, ok)
			assert.Equal(t, "lib", guid)
		})
	}
}

func TestBuildTreeMissingDeep(t *testing.T) {
	b := mod("b", "1.0.0", hard("gone", "*"))
	a := mod("a", "1.0.0", hard("b", "*"))
	_, err := BuildTree(a, []manifest.ModMetadata{a, b})

	guid, ok := MissingGUID(err)
	require.True(t, ok)
	assert.Equal(t, "gone", guid)
}

func TestBuildTreeCycle(t *testing.T) {
	a := mod("a", "1.0.0", hard("b", "*"))
	b := mod("b", "1.0.0", soft("a", "*"))
	_, err := BuildTree(a, []manifest.ModMetadata{a, b})

	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrCyclicDependency))
	assert.Equal(t, []string{"a", "b", "a"}, errors.GetErrorDetails(err)["cycle"])

	_, ok := MissingGUID(err)
	assert.False(t, ok)
}

func TestReachableTree(t *testing.T) {
	a := mod("a", "1.0.0")
	b := mod("b", "1.0.0", hard("a", "*"), hard("x", "*"))
	c := mod("c", "1.0.0", hard("b", "*"), soft("c2", "*"))
	pool := []manifest.ModMetadata{a, b, c}

	_, err := BuildTree(c, pool)
	require.Error(t, err)

	node := ReachableTree(c, pool)
	assert.True(t, node.InTree("b"))
	assert.True(t, node.InTree("a"))
	assert.False(t, node.InTree("x"))
	assert.True(t, ReachableTree(a, pool).IsLeaf())
}

func TestReachableTreeDropsLoops(t *testing.T) {
	a := mod("a", "1.0.0", hard("b", "*"))
	b := mod("b", "1.0.0", hard("a", "*"))

	node := ReachableTree(a, []manifest.ModMetadata{a, b})
	require.Len(t, node.Children, 1)
	assert.Equal(t, "b", node.Children[0].GUID)
	assert.Empty(t, node.Children[0].Children)
}

func TestInTreeIsReflexive(t *testing.T) {
	pools := [][]manifest.ModMetadata{
		{mod("a", "1.0.0")},
		{mod("a", "1.0.0", hard("b", "*")), mod("b", "1.0.0")},
		{mod("a", "1.0.0", soft("x", "*"))},
	}
	for _, pool := range pools {
		node, err := BuildTree(pool[0], pool)
		require.NoError(t, err)
		assert.True(t, node.InTree(pool[0].GUID))
	}

	var nilNode *DependencyNode
	assert.False(t, nilNode.InTree("a"))
}

func TestDetectCycle(t *testing.T) {
	tests := []struct {
		name string
		pool []manifest.ModMetadata
		want []string
	}{
		{
			name: "acyclic",
			pool: []manifest.ModMetadata{
				mod("a", "1.0.0"),
				mod("b", "1.0.0", hard("a", "*")),
				mod("c", "1.0.0", hard("a", "*"), soft("b", "*")),
			},
			want: nil,
		},
		{
			name: "self reference",
			pool: []manifest.ModMetadata{mod("a", "1.0.0", hard("a", "*"))},
			want: []string{"a", "a"},
		},
		{
			name: "three way through soft edge",
			pool: []manifest.ModMetadata{
				mod("a", "1.0.0", hard("b", "*")),
				mod("b", "1.0.0", hard("c", "*")),
				mod("c", "1.0.0", soft("a", "*")),
			},
			want: []string{"a", "b", "c", "a"},
		},
		{
			name: "version mismatch breaks the loop",
			pool: []manifest.ModMetadata{
				mod("a", "1.0.0", hard("b", "*")),
				mod("b", "1.0.0", hard("a", "2")),
			},
			want: nil,
		},
		{
			name: "absent dependency ignored",
			pool: []manifest.ModMetadata{mod("a", "1.0.0", hard("zzz", "*"))},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectCycle(tt.pool))
		})
	}
}
