// Package convert implements the Conversion Driver (CD, §4.5): the
// single entry point that iterates geocells and datasets, wiring the
// Tileset Collector, the availability index, the LOD Reconciler, and
// the content encoders together the way pkg/tiler.go's RunTiler wires
// the teacher's octree builder and std_consumer writer.
package convert

import (
	"os"
	"path/filepath"

	"github.com/ecopia-map/cdb2tiles/internal/availability"
	"github.com/ecopia-map/cdb2tiles/internal/cdberr"
	"github.com/ecopia-map/cdb2tiles/internal/cdbtile"
	"github.com/ecopia-map/cdb2tiles/internal/content"
	"github.com/ecopia-map/cdb2tiles/internal/tileset"
)

// datasetEmitter is the concrete lod.Emitter: it implements §4.4 steps
// 1-5 (resolve directory, write content, register in the tileset, mark
// availability) for one (geocell, dataset) collection. The LOD
// Reconciler calls it for elevation tiles; the driver also calls it
// directly for vector/model tiles, which skip LR entirely since §4.3
// only reconciles elevation.
type datasetEmitter struct {
	collection     *tileset.Collection
	index          *availability.Index
	encoder        content.Encoder
	use3dTilesNext bool
}

func newDatasetEmitter(collection *tileset.Collection, index *availability.Index, encoder content.Encoder, use3dTilesNext bool) *datasetEmitter {
	return &datasetEmitter{collection: collection, index: index, encoder: encoder, use3dTilesNext: use3dTilesNext}
}

func (e *datasetEmitter) Emit(tile cdbtile.CDBTile, mesh *content.Mesh, batchAttributes []map[string]interface{}, geometricError, minHeight, maxHeight float64) error {
	dir, err := e.collection.ResolveDir(tile)
	if err != nil {
		return err
	}

	encoded, err := e.encoder.Encode(mesh, batchAttributes)
	if err != nil {
		return cdberr.Wrap(cdberr.IOError, "encode tile content", err)
	}

	filename := tile.FileNamePrefix() + "." + e.encoder.Extension()
	if err := os.WriteFile(filepath.Join(dir, filename), encoded, 0o644); err != nil {
		return cdberr.Wrap(cdberr.IOError, "write tile content", err)
	}

	ts := e.collection.TilesetFor(tile)
	ts.InsertTile(tile, filename, geometricError, minHeight, maxHeight)

	if e.use3dTilesNext && tile.Level >= 0 {
		if err := e.index.AddAvailability(tile); err != nil {
			return err
		}
	}
	return nil
}
