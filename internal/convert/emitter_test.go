package convert

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecopia-map/cdb2tiles/internal/availability"
	"github.com/ecopia-map/cdb2tiles/internal/cdbtile"
	"github.com/ecopia-map/cdb2tiles/internal/content"
	"github.com/ecopia-map/cdb2tiles/internal/tileset"
)

type fixedEncoder struct {
	ext     string
	payload []byte
}

func (f fixedEncoder) Extension() string { return f.ext }
func (f fixedEncoder) Encode(mesh *content.Mesh, batchAttributes []map[string]interface{}) ([]byte, error) {
	return f.payload, nil
}

func TestDatasetEmitterWritesContentAndRegistersTile(t *testing.T) {
	root := t.TempDir()
	collection := tileset.NewCollection(root)
	index, err := availability.NewIndex(7)
	require.NoError(t, err)
	encoder := fixedEncoder{ext: "b3dm", payload: []byte("fake-b3dm-bytes")}

	e := newDatasetEmitter(collection, index, encoder, false)

	tile := cdbtile.CDBTile{Dataset: cdbtile.Elevation, CS1: 1, CS2: 0, Level: 0}
	require.NoError(t, e.Emit(tile, &content.Mesh{}, nil, 42.0, 0, 0))

	dir := collection.Dir(tile.CSKey())
	require.NotEmpty(t, dir)
	written, err := os.ReadFile(filepath.Join(dir, tile.FileNamePrefix()+".b3dm"))
	require.NoError(t, err)
	assert.Equal(t, "fake-b3dm-bytes", string(written))

	ts := collection.Tileset(tile.CSKey())
	require.NotNil(t, ts)
	root2 := ts.GetRoot()
	require.NotNil(t, root2)
	assert.Equal(t, 42.0, root2.GeometricError)
}

func TestDatasetEmitterMarksAvailabilityOnlyWhenUse3dTilesNext(t *testing.T) {
	encoder := fixedEncoder{ext: "glb", payload: []byte("glb")}
	tile := cdbtile.CDBTile{Dataset: cdbtile.Elevation, CS1: 1, CS2: 0, Level: 0}

	collectionLegacy := tileset.NewCollection(t.TempDir())
	indexLegacy, err := availability.NewIndex(7)
	require.NoError(t, err)
	e := newDatasetEmitter(collectionLegacy, indexLegacy, encoder, false)
	require.NoError(t, e.Emit(tile, &content.Mesh{}, nil, 1.0, 0, 0))
	assert.Empty(t, indexLegacy.Buckets())

	collectionNext := tileset.NewCollection(t.TempDir())
	indexNext, err := availability.NewIndex(7)
	require.NoError(t, err)
	eNext := newDatasetEmitter(collectionNext, indexNext, encoder, true)
	require.NoError(t, eNext.Emit(tile, &content.Mesh{}, nil, 1.0, 0, 0))
	assert.NotEmpty(t, indexNext.Buckets())
}
