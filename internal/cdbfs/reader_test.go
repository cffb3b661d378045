package cdbfs

import (
	"os"
	"path/filepath"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecopia-map/cdb2tiles/internal/cdbsource"
	"github.com/ecopia-map/cdb2tiles/internal/cdbtile"
)

func writeJSONFixture(t *testing.T, path string, v interface{}) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	b, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(v, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o644))
}

func TestForEachGeoCellDiscoversSortedCells(t *testing.T) {
	root := t.TempDir()
	tile := cdbtile.CDBTile{GeoCell: cdbtile.GeoCell{LatitudeDeg: 32, LongitudeDeg: 130}, Dataset: cdbtile.Elevation, Level: 0}
	writeJSONFixture(t, filepath.Join(root, tile.RelativePath(), "0_0.json"), elevationTileDoc{})

	other := cdbtile.CDBTile{GeoCell: cdbtile.GeoCell{LatitudeDeg: -1, LongitudeDeg: -5}, Dataset: cdbtile.Elevation, Level: 0}
	writeJSONFixture(t, filepath.Join(root, other.RelativePath(), "0_0.json"), elevationTileDoc{})

	r := NewReader(root)
	var seen []cdbtile.GeoCell
	require.NoError(t, r.ForEachGeoCell(func(g cdbtile.GeoCell) error {
		seen = append(seen, g)
		return nil
	}))

	require.Len(t, seen, 2)
	assert.Equal(t, cdbtile.GeoCell{LatitudeDeg: 32, LongitudeDeg: 130}, seen[0]) // "N32" sorts before "S01"
	assert.Equal(t, cdbtile.GeoCell{LatitudeDeg: -1, LongitudeDeg: -5}, seen[1])
}

func TestForEachElevationTileBuildsGridMesh(t *testing.T) {
	root := t.TempDir()
	geocell := cdbtile.GeoCell{LatitudeDeg: 32, LongitudeDeg: 130}
	tile := cdbtile.CDBTile{GeoCell: geocell, Dataset: cdbtile.Elevation, Level: 1, UREF: 2, RREF: 3, CS1: 1, CS2: 1}
	doc := elevationTileDoc{
		Width: 2, Height: 2,
		MinElevation: 10, MaxElevation: 20,
		Heights: []float64{10, 15, 18, 20},
	}
	writeJSONFixture(t, filepath.Join(root, tile.RelativePath(), "1_1.json"), doc)

	r := NewReader(root)
	var got cdbtile.CDBTile
	var payload *cdbsource.ElevationPayload
	calls := 0
	err := r.ForEachElevationTile(geocell, func(tl cdbtile.CDBTile, p *cdbsource.ElevationPayload) error {
		got, payload = tl, p
		calls++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	assert.Equal(t, tile, got)
	assert.Equal(t, 10.0, payload.MinElevation)
	assert.Equal(t, 20.0, payload.MaxElevation)
	require.Len(t, payload.Mesh.Vertices, 4)
	assert.Equal(t, 6, payload.IndexCount) // one grid cell, two triangles
	assert.Equal(t, 20.0, payload.Mesh.Vertices[3].Position.Z)
}

func TestForEachElevationTileSkipsUndersizedGrid(t *testing.T) {
	root := t.TempDir()
	geocell := cdbtile.GeoCell{LatitudeDeg: 0, LongitudeDeg: 0}
	tile := cdbtile.CDBTile{GeoCell: geocell, Dataset: cdbtile.Elevation, Level: 0, CS1: 0, CS2: 0}
	doc := elevationTileDoc{Width: 1, Height: 1, Heights: []float64{5}}
	writeJSONFixture(t, filepath.Join(root, tile.RelativePath(), "0_0.json"), doc)

	r := NewReader(root)
	var payload *cdbsource.ElevationPayload
	require.NoError(t, r.ForEachElevationTile(geocell, func(_ cdbtile.CDBTile, p *cdbsource.ElevationPayload) error {
		payload = p
		return nil
	}))
	require.NotNil(t, payload)
	assert.Empty(t, payload.Mesh.Vertices)
}

func TestForEachRoadTileParsesVectorPayload(t *testing.T) {
	root := t.TempDir()
	geocell := cdbtile.GeoCell{LatitudeDeg: 32, LongitudeDeg: 130}
	tile := cdbtile.CDBTile{GeoCell: geocell, Dataset: cdbtile.RoadNetwork, Level: 0, CS1: 1, CS2: 2}
	doc := vectorTileDoc{
		Vertices:   [][3]float64{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}},
		Indices:    []int{0, 1, 2},
		Attributes: []map[string]interface{}{{"name": "Main St"}},
	}
	writeJSONFixture(t, filepath.Join(root, tile.RelativePath(), "1_2.json"), doc)

	r := NewReader(root)
	var payload *cdbsource.VectorPayload
	require.NoError(t, r.ForEachRoadTile(geocell, func(_ cdbtile.CDBTile, p *cdbsource.VectorPayload) error {
		payload = p
		return nil
	}))
	require.NotNil(t, payload)
	require.Len(t, payload.Mesh.Vertices, 3)
	assert.Equal(t, []uint32{0, 1, 2}, payload.Mesh.Indices)
	require.Len(t, payload.Attributes, 1)
	assert.Equal(t, "Main St", payload.Attributes[0]["name"])
}

func TestForEachGTModelTileBuildsInstance(t *testing.T) {
	root := t.TempDir()
	geocell := cdbtile.GeoCell{LatitudeDeg: 32, LongitudeDeg: 130}
	tile := cdbtile.CDBTile{GeoCell: geocell, Dataset: cdbtile.GTFeature, Level: 0, CS1: 0, CS2: 0}
	doc := modelTileDoc{Instances: []modelInstanceDoc{
		{ModelKey: "tree-01", X: 1.5, Y: 2.5, Z: 0, Attributes: map[string]interface{}{"height": 3.0}},
	}}
	writeJSONFixture(t, filepath.Join(root, tile.RelativePath(), "0_0.json"), doc)

	r := NewReader(root)
	var payload *cdbsource.ModelPayload
	require.NoError(t, r.ForEachGTModelTile(geocell, func(_ cdbtile.CDBTile, p *cdbsource.ModelPayload) error {
		payload = p
		return nil
	}))
	require.NotNil(t, payload)
	assert.Equal(t, "tree-01", payload.ModelKey)
	assert.Equal(t, 3.0, payload.Attributes["height"])
}

func TestIsElevationExistAndGetImagery(t *testing.T) {
	root := t.TempDir()
	geocell := cdbtile.GeoCell{LatitudeDeg: 32, LongitudeDeg: 130}
	tile := cdbtile.CDBTile{GeoCell: geocell, Dataset: cdbtile.Elevation, Level: 0, CS1: 0, CS2: 0}
	writeJSONFixture(t, filepath.Join(root, tile.RelativePath(), "0_0.json"), elevationTileDoc{})

	imgTile := cdbtile.CDBTile{GeoCell: geocell, Dataset: cdbtile.Imagery, Level: 0, CS1: 0, CS2: 0}
	imgPath := filepath.Join(root, imgTile.RelativePath(), "0_0.jpg")
	require.NoError(t, os.MkdirAll(filepath.Dir(imgPath), 0o755))
	require.NoError(t, os.WriteFile(imgPath, []byte{0xff, 0xd8}, 0o644))

	r := NewReader(root)
	assert.True(t, r.IsElevationExist(tile))
	assert.False(t, r.IsElevationExist(cdbtile.CDBTile{GeoCell: geocell, Dataset: cdbtile.Elevation, Level: 5}))

	assert.True(t, r.IsImageryExist(tile))
	tex, ok := r.GetImagery(tile)
	require.True(t, ok)
	assert.Equal(t, []byte{0xff, 0xd8}, tex.EncodedBytes)
}

func TestGetModelGeometryReadsSharedMesh(t *testing.T) {
	root := t.TempDir()
	doc := modelGeometryDoc{
		Vertices: [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Indices:  []int{0, 1, 2},
	}
	writeJSONFixture(t, filepath.Join(root, "ModelGeometry", "tree-01.json"), doc)

	r := NewReader(root)
	mesh, ok := r.GetModelGeometry("tree-01")
	require.True(t, ok)
	require.Len(t, mesh.Vertices, 3)
	assert.Equal(t, []uint32{0, 1, 2}, mesh.Indices)

	_, ok = r.GetModelGeometry("missing")
	assert.False(t, ok)
}
