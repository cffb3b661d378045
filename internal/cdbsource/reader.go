// Package cdbsource defines the CDB reader boundary consumed by the
// conversion driver (§6 "CDB reader interface (consumed)"). No
// implementation lives here — a real CDB archive reader is an external
// collaborator, produced the way the teacher's own LAS reader
// (third_party/lasread, aliased "lidario" in pkg/tiler_index.go) is
// consumed through a narrow interface rather than reimplemented in this
// module.
package cdbsource

import (
	"github.com/ecopia-map/cdb2tiles/internal/cdbtile"
	"github.com/ecopia-map/cdb2tiles/internal/content"
)

// ElevationPayload is a loaded elevation tile: its uniform-grid mesh and
// recorded min/max height, as handed to the LOD Reconciler.
type ElevationPayload struct {
	Mesh         *content.Mesh
	MinElevation float64
	MaxElevation float64
	// IndexCount is the triangle-index count of the loaded mesh, used to
	// derive targetIndexCount for decimation (§4.3 step 1).
	IndexCount int
}

// VectorPayload is a loaded vector-dataset tile (road/rail/powerline/
// hydrography): a mesh plus one attribute row per feature instance.
type VectorPayload struct {
	Mesh       *content.Mesh
	Attributes []map[string]interface{}
}

// ModelPayload is a loaded GT/GS model instance: a reference to the
// shared model key (for GT model dedup, §4.4) plus its placement and
// per-instance attributes. Geometry itself is fetched once per unique
// ModelKey via Reader.GetModelGeometry.
type ModelPayload struct {
	ModelKey   string
	Instance   content.Instance
	Attributes map[string]interface{}
}

// Reader is the CDB archive accessor the driver iterates. All iteration
// methods deliver one item at a time to fn and stop early if fn returns
// an error (mirroring Go's bufio.Scanner-style push iteration, the
// closest idiomatic analogue to the teacher's producer/consumer channel
// loop generalized to a synchronous, single-threaded pull here per §5).
type Reader interface {
	ForEachGeoCell(fn func(cdbtile.GeoCell) error) error

	ForEachElevationTile(geocell cdbtile.GeoCell, fn func(cdbtile.CDBTile, *ElevationPayload) error) error
	ForEachRoadTile(geocell cdbtile.GeoCell, fn func(cdbtile.CDBTile, *VectorPayload) error) error
	ForEachRailTile(geocell cdbtile.GeoCell, fn func(cdbtile.CDBTile, *VectorPayload) error) error
	ForEachPowerlineTile(geocell cdbtile.GeoCell, fn func(cdbtile.CDBTile, *VectorPayload) error) error
	ForEachHydrographyTile(geocell cdbtile.GeoCell, fn func(cdbtile.CDBTile, *VectorPayload) error) error
	ForEachGTModelTile(geocell cdbtile.GeoCell, fn func(cdbtile.CDBTile, *ModelPayload) error) error
	ForEachGSModelTile(geocell cdbtile.GeoCell, fn func(cdbtile.CDBTile, *ModelPayload) error) error

	GetImagery(tile cdbtile.CDBTile) (*content.Texture, bool)
	GetRMTexture(tile cdbtile.CDBTile) (*content.Texture, bool)
	GetRMDescriptor(tile cdbtile.CDBTile) (*RMDescriptor, bool)
	IsElevationExist(tile cdbtile.CDBTile) bool
	IsImageryExist(tile cdbtile.CDBTile) bool

	// GetModelGeometry fetches a GT/GS model's shared geometry once per
	// unique key, for the GTModelsToGltf emit-on-first-encounter pattern.
	GetModelGeometry(modelKey string) (*content.Mesh, bool)
}

// RMDescriptor describes a raster-material feature table; the LOD
// Reconciler (internal/lod) turns it into the content.FeatureTable §4.3
// step 4 attaches to a tile's glTF when both imagery and an RM texture
// exist.
type RMDescriptor struct {
	FeatureNames []string
	FeatureCodes map[string]int
}
