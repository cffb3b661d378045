package lod

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecopia-map/cdb2tiles/internal/cdbtile"
	"github.com/ecopia-map/cdb2tiles/internal/content"
	"github.com/ecopia-map/cdb2tiles/internal/geom"
)

func TestGenerateNormalsFacesUpForFlatQuad(t *testing.T) {
	mesh := &content.Mesh{
		Vertices: []content.Vertex{
			{Position: geom.Vector3{X: 0, Y: 0, Z: 0}},
			{Position: geom.Vector3{X: 1, Y: 0, Z: 0}},
			{Position: geom.Vector3{X: 0, Y: 1, Z: 0}},
		},
		Indices: []uint32{0, 1, 2},
	}
	tile := cdbtile.CDBTile{GeoCell: cdbtile.GeoCell{LatitudeDeg: 0, LongitudeDeg: 0}, Level: 0}

	GenerateNormals(mesh, tile, 0, 0)

	for _, v := range mesh.Vertices {
		require.True(t, v.HasNormal)
		assert.InDelta(t, 0, v.Normal.X, 1e-9)
		assert.InDelta(t, 0, v.Normal.Y, 1e-9)
		assert.InDelta(t, 1, v.Normal.Z, 1e-9)
	}
}

func TestGenerateNormalsFallsBackToGeodeticForDegenerateVertex(t *testing.T) {
	// A vertex with no incident triangles gets an all-zero accumulated
	// normal, which is degenerate regardless of threshold.
	mesh := &content.Mesh{
		Vertices: []content.Vertex{
			{Position: geom.Vector3{X: 0.25, Y: 0.25, Z: 0}}, // isolated, not referenced by Indices
		},
		Indices: nil,
	}
	tile := cdbtile.CDBTile{GeoCell: cdbtile.GeoCell{LatitudeDeg: 10, LongitudeDeg: 20}, Level: 0}

	GenerateNormals(mesh, tile, 0, 0)

	require.True(t, mesh.Vertices[0].HasNormal)
	region := tile.BoundingRegion(0, 0)
	lon, lat := cartographicOf(mesh.Vertices[0].Position, region)
	want := geom.WGS84GeodeticNormal(lon, lat)
	assert.InDelta(t, want.X, mesh.Vertices[0].Normal.X, 1e-9)
	assert.InDelta(t, want.Y, mesh.Vertices[0].Normal.Y, 1e-9)
	assert.InDelta(t, want.Z, mesh.Vertices[0].Normal.Z, 1e-9)
	assert.InDelta(t, 1, math.Hypot(math.Hypot(want.X, want.Y), want.Z), 1e-9)
}

func TestGenerateNormalsNoopOnEmptyMesh(t *testing.T) {
	mesh := &content.Mesh{}
	GenerateNormals(mesh, cdbtile.CDBTile{}, 0, 0)
	assert.Empty(t, mesh.Vertices)
}

func TestCartographicOfRecoversCornersOfRegion(t *testing.T) {
	region := geom.Region{Rect: geom.Rect{WestDeg: 10, SouthDeg: 20, EastDeg: 12, NorthDeg: 22}}

	lon, lat := cartographicOf(geom.Vector3{X: 0, Y: 0}, region)
	assert.Equal(t, 10.0, lon)
	assert.Equal(t, 20.0, lat)

	lon, lat = cartographicOf(geom.Vector3{X: 1, Y: 1}, region)
	assert.Equal(t, 12.0, lon)
	assert.Equal(t, 22.0, lat)
}
