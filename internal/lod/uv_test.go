package lod

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ecopia-map/cdb2tiles/internal/content"
	"github.com/ecopia-map/cdb2tiles/internal/geom"
)

func TestReindexUVRemapsToNewRect(t *testing.T) {
	mesh := &content.Mesh{
		Vertices: []content.Vertex{
			{U: 0, V: 0},
			{U: 1, V: 1},
			{U: 0.5, V: 0.5},
		},
	}
	oldRect := geom.Rect{WestDeg: 0, SouthDeg: 0, EastDeg: 2, NorthDeg: 2}
	newRect := geom.Rect{WestDeg: 0, SouthDeg: 0, EastDeg: 1, NorthDeg: 1}

	reindexUV(mesh, oldRect, newRect)

	// (0,0) in oldRect -> lon/lat (0,0) -> (0,0) in newRect.
	assert.InDelta(t, 0, mesh.Vertices[0].U, 1e-9)
	assert.InDelta(t, 0, mesh.Vertices[0].V, 1e-9)
	// (1,1) in oldRect -> lon/lat (2,2) -> clamp-free affine gives (2,2), outside [0,1] since newRect is half the size.
	assert.InDelta(t, 2, mesh.Vertices[1].U, 1e-9)
	assert.InDelta(t, 2, mesh.Vertices[1].V, 1e-9)
	// (0.5,0.5) in oldRect -> lon/lat (1,1) -> (1,1) in newRect.
	assert.InDelta(t, 1, mesh.Vertices[2].U, 1e-9)
	assert.InDelta(t, 1, mesh.Vertices[2].V, 1e-9)
	assert.Equal(t, newRect, mesh.UVRect)
}

func TestReindexUVNoopOnDegenerateNewRect(t *testing.T) {
	mesh := &content.Mesh{Vertices: []content.Vertex{{U: 0.3, V: 0.7}}}
	oldRect := geom.Rect{WestDeg: 0, SouthDeg: 0, EastDeg: 1, NorthDeg: 1}
	degenerate := geom.Rect{WestDeg: 5, SouthDeg: 5, EastDeg: 5, NorthDeg: 9}

	reindexUV(mesh, oldRect, degenerate)

	assert.Equal(t, 0.3, mesh.Vertices[0].U)
	assert.Equal(t, 0.7, mesh.Vertices[0].V)
	assert.Equal(t, geom.Rect{}, mesh.UVRect) // left untouched, never assigned
}

func TestTrimToQuadrantKeepsOnlyTrianglesInChildRect(t *testing.T) {
	// A single quad (two triangles) covering the SW quarter of the parent
	// rect: trimming keeps both triangles for the SW child and none for NE.
	parentRect := geom.Rect{WestDeg: 0, SouthDeg: 0, EastDeg: 2, NorthDeg: 2}
	mesh := &content.Mesh{
		Vertices: []content.Vertex{
			{Position: geom.Vector3{X: 0, Y: 0}},       // SW corner, lon/lat (0,0)
			{Position: geom.Vector3{X: 0.5, Y: 0}},     // lon/lat (1,0)
			{Position: geom.Vector3{X: 0, Y: 0.5}},     // lon/lat (0,1)
			{Position: geom.Vector3{X: 0.5, Y: 0.5}},   // lon/lat (1,1)
		},
		Indices: []uint32{0, 1, 2, 1, 3, 2}, // two triangles both centered in the SW quarter (lon<1, lat<1)
	}
	swChildRect := geom.Rect{WestDeg: 0, SouthDeg: 0, EastDeg: 1, NorthDeg: 1}
	neChildRect := geom.Rect{WestDeg: 1, SouthDeg: 1, EastDeg: 2, NorthDeg: 2}

	sw := trimToQuadrant(mesh, parentRect, swChildRect)
	assert.Len(t, sw.Indices, 6)
	assert.Equal(t, swChildRect, sw.UVRect)

	ne := trimToQuadrant(mesh, parentRect, neChildRect)
	assert.Empty(t, ne.Indices)
}
