package lod

import (
	"github.com/ecopia-map/cdb2tiles/internal/cdbtile"
	"github.com/ecopia-map/cdb2tiles/internal/content"
)

// Emitter is the seam the LOD Reconciler calls back into once a tile's
// mesh is finalized (§4.3 step 5, and again at step 6 for each
// hole-filled quadrant). It bundles exactly what the Tileset Collector
// and SBE need to do with a finished tile — encode it, place it in the
// output tree, register it in the tileset, mark it available — behind
// one call so the reconciler does not need to know about output
// directories, content encoders, or the availability index directly.
// internal/convert wires the concrete implementation (TC + SBE + a
// content.Encoder) before driving the reconciler.
type Emitter interface {
	Emit(tile cdbtile.CDBTile, mesh *content.Mesh, batchAttributes []map[string]interface{}, geometricError, minHeight, maxHeight float64) error
}
