package cdbtile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChildAndParentRoundTrip(t *testing.T) {
	parent := CDBTile{GeoCell: GeoCell{LatitudeDeg: 32, LongitudeDeg: 130}, Dataset: Elevation, Level: 2, UREF: 1, RREF: 3}

	for _, q := range []Quadrant{NW, NE, SW, SE} {
		child := parent.Child(q)
		got, ok := child.Parent()
		require.True(t, ok)
		assert.Equal(t, parent.Level, got.Level)
		assert.Equal(t, parent.UREF, got.UREF)
		assert.Equal(t, parent.RREF, got.RREF)

		gotQ, ok := QuadrantOf(parent, child)
		require.True(t, ok)
		assert.Equal(t, q, gotQ)
	}
}

func TestChildrenOrderIsNWNESWSE(t *testing.T) {
	tile := CDBTile{Level: 0}
	children := tile.Children()
	assert.Equal(t, NW, mustQuadrant(t, tile, children[0]))
	assert.Equal(t, NE, mustQuadrant(t, tile, children[1]))
	assert.Equal(t, SW, mustQuadrant(t, tile, children[2]))
	assert.Equal(t, SE, mustQuadrant(t, tile, children[3]))
}

func mustQuadrant(t *testing.T, parent, child CDBTile) Quadrant {
	q, ok := QuadrantOf(parent, child)
	require.True(t, ok)
	return q
}

func TestNegativeLODChain(t *testing.T) {
	tile := CDBTile{Level: -3}
	child := tile.ChildForNegativeLOD()
	assert.Equal(t, -2, child.Level)
	assert.Equal(t, 0, child.UREF)
	assert.Equal(t, 0, child.RREF)

	parent, ok := child.Parent()
	require.True(t, ok)
	assert.Equal(t, tile.Level, parent.Level)
}

func TestParentFailsAtNegativeFloor(t *testing.T) {
	tile := CDBTile{Level: -MaxLevel}
	_, ok := tile.Parent()
	assert.False(t, ok)
}

func TestRelativePathAndFileNamePrefix(t *testing.T) {
	tile := CDBTile{
		GeoCell: GeoCell{LatitudeDeg: 32, LongitudeDeg: 130},
		Dataset: Elevation,
		CS1:     1, CS2: 1,
		Level: 5, UREF: 3, RREF: 7,
	}
	assert.Equal(t, "N32/E130/Elevation/LC05/U3R7", tile.RelativePath())
	assert.Equal(t, "D1_S1_T0_L5_U3_R7", tile.FileNamePrefix())

	negative := tile
	negative.Level = -2
	assert.Equal(t, "N32/E130/Elevation/LC-2/U3R7", negative.RelativePath())
}

func TestBoundingRegionSubdividesGeoCell(t *testing.T) {
	tile := CDBTile{GeoCell: GeoCell{LatitudeDeg: 0, LongitudeDeg: 0}, Level: 1, UREF: 1, RREF: 1}
	region := tile.BoundingRegion(10, 20)
	assert.InDelta(t, 0.5, region.WestDeg, 1e-9)
	assert.InDelta(t, 1.0, region.EastDeg, 1e-9)
	assert.InDelta(t, 0.5, region.SouthDeg, 1e-9)
	assert.InDelta(t, 1.0, region.NorthDeg, 1e-9)
	assert.Equal(t, 10.0, region.MinHeight)
	assert.Equal(t, 20.0, region.MaxHeight)
}
