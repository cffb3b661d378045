package tileset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecopia-map/cdb2tiles/internal/cdbtile"
)

func TestInsertTileCreatesImplicitAncestors(t *testing.T) {
	ts := NewTileset()

	leaf := cdbtile.CDBTile{Level: 2, UREF: 1, RREF: 1}
	ts.InsertTile(leaf, "leaf.b3dm", 10, 0, 0)

	root := ts.GetRoot()
	require.NotNil(t, root)
	assert.Equal(t, 0, root.Tile.Level)
	assert.True(t, root.Implicit)
	assert.Equal(t, "", root.ContentURI)

	// Root -> level 1 (implicit) -> level 2 (leaf, real content).
	var level1 *Node
	for _, c := range root.Children {
		if c != nil {
			level1 = c
		}
	}
	require.NotNil(t, level1)
	assert.True(t, level1.Implicit)
}

func TestInsertTileReplacesImplicitPlaceholderWithRealContent(t *testing.T) {
	ts := NewTileset()

	child := cdbtile.CDBTile{Level: 1, UREF: 1, RREF: 1}
	ts.InsertTile(child, "child.b3dm", 5, 0, 0)

	root := cdbtile.CDBTile{Level: 0}
	n := ts.InsertTile(root, "root.b3dm", 20, 0, 0)
	assert.False(t, n.Implicit)
	assert.Equal(t, "root.b3dm", n.ContentURI)
	assert.Same(t, n, ts.GetRoot())
}

func TestMaxLevelIgnoresImplicitNodes(t *testing.T) {
	ts := NewTileset()
	ts.InsertTile(cdbtile.CDBTile{Level: 3, UREF: 1, RREF: 1}, "deep.b3dm", 1, 0, 0)
	assert.Equal(t, 3, ts.MaxLevel())
}

func TestGetFirstTileAtLevelSkipsImplicit(t *testing.T) {
	ts := NewTileset()
	ts.InsertTile(cdbtile.CDBTile{Level: 2, UREF: 1, RREF: 1}, "deep.b3dm", 1, 0, 0)

	assert.Nil(t, ts.GetFirstTileAtLevel(0)) // level 0 only exists as an implicit ancestor
	n := ts.GetFirstTileAtLevel(2)
	require.NotNil(t, n)
	assert.Equal(t, "deep.b3dm", n.ContentURI)
}

func TestInsertTileDoesNotSynthesizeNegativeAncestors(t *testing.T) {
	ts := NewTileset()
	ts.InsertTile(cdbtile.CDBTile{Level: 0}, "root.b3dm", 10, 0, 0)

	root := ts.GetRoot()
	require.NotNil(t, root)
	assert.False(t, root.Implicit)
	assert.Equal(t, 0, root.Tile.Level)
	assert.Equal(t, "root.b3dm", root.ContentURI)
}

func TestInsertTileBuildsNegativeLODChainWhenInsertedInAscendingOrder(t *testing.T) {
	ts := NewTileset()

	coarsest := cdbtile.CDBTile{Level: -2}
	ts.InsertTile(coarsest, "lod-2.b3dm", 40, 0, 0)

	mid := coarsest.ChildForNegativeLOD()
	ts.InsertTile(mid, "lod-1.b3dm", 20, 0, 0)

	finest := mid.ChildForNegativeLOD()
	ts.InsertTile(finest, "lod0.b3dm", 10, 0, 0)

	root := ts.GetRoot()
	require.NotNil(t, root)
	assert.False(t, root.Implicit)
	assert.Equal(t, -2, root.Tile.Level)
	assert.Equal(t, "lod-2.b3dm", root.ContentURI)

	require.NotNil(t, root.Children[0])
	assert.Equal(t, -1, root.Children[0].Tile.Level)
	assert.False(t, root.Children[0].Implicit)

	require.NotNil(t, root.Children[0].Children[0])
	assert.Equal(t, 0, root.Children[0].Children[0].Tile.Level)
	assert.False(t, root.Children[0].Children[0].Implicit)
}

func TestResolveImplicitGeometricErrorsPullsUpFromDescendants(t *testing.T) {
	root := &Node{Implicit: true}
	mid := &Node{Implicit: true}
	leaf := &Node{GeometricError: 42}
	root.Children[0] = mid
	mid.Children[0] = leaf

	got := resolveImplicitGeometricErrors(root)
	assert.Equal(t, float64(42), got)
	assert.Equal(t, float64(42), root.GeometricError)
	assert.Equal(t, float64(42), mid.GeometricError)
	assert.Equal(t, float64(42), leaf.GeometricError) // real content's own error is untouched, not overwritten
}

func TestResolveImplicitGeometricErrorsLeavesRealNodesAlone(t *testing.T) {
	n := &Node{GeometricError: 5}
	got := resolveImplicitGeometricErrors(n)
	assert.Equal(t, float64(5), got)
	assert.Equal(t, float64(5), n.GeometricError)
}

func TestNodeQuadrantAttachment(t *testing.T) {
	ts := NewTileset()
	parent := cdbtile.CDBTile{Level: 0}
	ts.InsertTile(parent, "root.b3dm", 10, 0, 0)

	for _, q := range []cdbtile.Quadrant{cdbtile.NW, cdbtile.NE, cdbtile.SW, cdbtile.SE} {
		ts.InsertTile(parent.Child(q), "c.b3dm", 1, 0, 0)
	}

	root := ts.GetRoot()
	for i, q := range []cdbtile.Quadrant{cdbtile.NW, cdbtile.NE, cdbtile.SW, cdbtile.SE} {
		require.NotNil(t, root.Children[i])
		assert.Equal(t, parent.Child(q), root.Children[i].Tile)
	}
}
