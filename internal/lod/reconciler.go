// Package lod implements the LOD Reconciler: the orchestration that
// turns one loaded elevation tile into a finished, textured,
// hole-filled tile tree (§4.3). It is the one component that reaches
// into both the content and cdbsource boundaries and drives them
// through the Emitter seam into the tileset/availability core.
package lod

import (
	"math"
	"sort"

	"github.com/golang/glog"

	"github.com/ecopia-map/cdb2tiles/internal/cdbsource"
	"github.com/ecopia-map/cdb2tiles/internal/cdbtile"
	"github.com/ecopia-map/cdb2tiles/internal/content"
	"github.com/ecopia-map/cdb2tiles/internal/geom"
	"github.com/ecopia-map/cdb2tiles/internal/materials"
)

// metersPerDegree approximates WGS-84 arc length for the geometric-error
// estimate below; adequate at the scale a CDB geocell spans.
const metersPerDegree = 111320.0

// imageryEntry is one memoized ancestor-imagery lookup (§9 "Memoization
// map for parent imagery").
type imageryEntry struct {
	texture *content.Texture
	found   bool
}

// Reconciler runs the LR algorithm of §4.3 end to end. One Reconciler is
// scoped to a single convert() run; processedParentImagery is a
// process-lifetime map per §9, cleared only when the driver builds a
// fresh Reconciler (the driver does this per geocell, matching the
// availability index's own per-geocell reset).
type Reconciler struct {
	Decimator Decimator
	Reader    cdbsource.Reader
	Emitter   Emitter

	ElevationLOD              bool
	ElevationNormal           bool
	ElevationThresholdIndices float64
	ElevationDecimateError    float64

	// DebugDumpDir, when non-empty, makes reconcileMesh write a PLY
	// snapshot of every mesh it emits (real and hole-filled) into this
	// directory after the Emitter has written it.
	DebugDumpDir string

	// Schema, when non-nil, is the transcoded Materials XML (§6's
	// materials boundary); the feature table selectImagery attaches to a
	// tile's mesh is named after the lexicographically first material in
	// it (see buildFeatureTable).
	Schema *materials.Schema

	processedParentImagery map[cdbtile.CDBTile]imageryEntry
}

// NewReconciler builds a Reconciler; see the field docs for what each
// dependency and flag controls.
func NewReconciler(decimator Decimator, reader cdbsource.Reader, emitter Emitter, elevationLOD, elevationNormal bool, thresholdIndices, decimateError float64) *Reconciler {
	return &Reconciler{
		Decimator:                 decimator,
		Reader:                    reader,
		Emitter:                   emitter,
		ElevationLOD:              elevationLOD,
		ElevationNormal:           elevationNormal,
		ElevationThresholdIndices: thresholdIndices,
		ElevationDecimateError:    decimateError,
		processedParentImagery:    make(map[cdbtile.CDBTile]imageryEntry),
	}
}

// Reconcile runs the full algorithm for one freshly loaded elevation
// tile: decimate (step 1), then hand off to the shared mesh pipeline
// that every hole-filled descendant also goes through.
func (r *Reconciler) Reconcile(tile cdbtile.CDBTile, payload *cdbsource.ElevationPayload) error {
	mesh := payload.Mesh
	targetIndexCount := int(math.Floor(float64(payload.IndexCount) * r.ElevationThresholdIndices))
	if simplified, ok := r.Decimator.Simplify(mesh, targetIndexCount, r.ElevationDecimateError); ok {
		mesh = simplified
	}
	return r.reconcileMesh(tile, mesh, payload.MinElevation, payload.MaxElevation)
}

// reconcileMesh runs steps 2 through 6 of §4.3: normals, bounding
// region, imagery selection, emission, and hole filling. It is the
// recursive entry point hole-filled quadrants and negative-LOD children
// re-enter through (step 6's "recursively submit it to the same
// emission pipeline") — they skip decimation: hole-filled quadrants have
// already been trimmed to size by trimToQuadrant, and negative-LOD
// children reuse their parent's mesh whole.
func (r *Reconciler) reconcileMesh(tile cdbtile.CDBTile, mesh *content.Mesh, minHeight, maxHeight float64) error {
	if r.ElevationNormal {
		GenerateNormals(mesh, tile, minHeight, maxHeight)
	}

	if mesh.UVRect == (geom.Rect{}) {
		mesh.UVRect = tile.BoundingRegion(minHeight, maxHeight).Rect
	}
	r.selectImagery(tile, mesh)

	ge := r.geometricError(tile, minHeight, maxHeight)
	if err := r.Emitter.Emit(tile, mesh, nil, ge, minHeight, maxHeight); err != nil {
		return err
	}

	if r.DebugDumpDir != "" {
		if err := DumpMesh(r.DebugDumpDir, tile, mesh); err != nil {
			glog.Warningf("debug mesh dump for %s failed: %v", tile, err)
		}
	}

	return r.fillHoles(tile, mesh, minHeight, maxHeight)
}

// selectImagery implements §4.3 step 4: the tile's own imagery wins
// outright; failing that, climb ancestors — memoized across sibling
// calls — until one has imagery or the chain is exhausted. Reindexing
// only matters once a genuine quadrant subdivision exists, i.e. at
// positive levels; negative-LOD tiles all cover the same geocell
// rectangle so adopting an ancestor's imagery needs no UV remap.
func (r *Reconciler) selectImagery(tile cdbtile.CDBTile, mesh *content.Mesh) {
	if r.Reader.IsImageryExist(tile) {
		tex, _ := r.Reader.GetImagery(tile)
		mesh.Texture = tex
		mesh.UVRect = tile.BoundingRegion(0, 0).Rect
		if rmTex, ok := r.Reader.GetRMTexture(tile); ok {
			mesh.FeatureIDTexture = rmTex
			if desc, ok := r.Reader.GetRMDescriptor(tile); ok {
				mesh.FeatureTable = r.buildFeatureTable(desc)
			}
		}
		return
	}

	cur := tile
	for {
		parent, ok := cur.Parent()
		if !ok {
			return
		}

		entry, seen := r.processedParentImagery[parent]
		if !seen {
			found := r.Reader.IsImageryExist(parent)
			var tex *content.Texture
			if found {
				tex, _ = r.Reader.GetImagery(parent)
			}
			entry = imageryEntry{texture: tex, found: found}
			r.processedParentImagery[parent] = entry
		}

		if entry.found {
			mesh.Texture = entry.texture
			if tile.Level > 0 {
				reindexUV(mesh, mesh.UVRect, parent.BoundingRegion(0, 0).Rect)
			} else {
				mesh.UVRect = parent.BoundingRegion(0, 0).Rect
			}
			return
		}

		cur = parent
	}
}

func (r *Reconciler) geometricError(tile cdbtile.CDBTile, minHeight, maxHeight float64) float64 {
	return GeometricError(tile, minHeight, maxHeight)
}

// GeometricError estimates a tile's screen-space error budget from its
// bounding box diagonal, the same shape as the teacher's
// ComputeGeometricError (cellSize * sqrt(3) * 2 for a cube), generalized
// from a cubic octree cell to a WGS-84 rectangle with a height range.
// Exported so the driver can apply the same estimate to vector and
// model tiles, which never pass through the reconciler.
func GeometricError(tile cdbtile.CDBTile, minHeight, maxHeight float64) float64 {
	region := tile.BoundingRegion(minHeight, maxHeight)
	w := (region.EastDeg - region.WestDeg) * metersPerDegree
	l := (region.NorthDeg - region.SouthDeg) * metersPerDegree
	h := maxHeight - minHeight
	return math.Sqrt(w*w+l*l+h*h) / 2
}

// fillHoles dispatches to the positive- or negative-LOD hole-filling
// rule of §4.3 step 6 depending on which side of the geocell boundary
// tile sits on.
func (r *Reconciler) fillHoles(tile cdbtile.CDBTile, mesh *content.Mesh, minHeight, maxHeight float64) error {
	if tile.Level >= 0 {
		return r.fillPositiveLOD(tile, mesh, minHeight, maxHeight)
	}
	return r.fillNegativeLOD(tile, mesh, minHeight, maxHeight)
}

func (r *Reconciler) fillPositiveLOD(tile cdbtile.CDBTile, mesh *content.Mesh, minHeight, maxHeight float64) error {
	if tile.Level+1 > cdbtile.MaxLevel {
		return nil
	}

	children := tile.Children()

	shouldFillHole := false
	for _, c := range children {
		if r.Reader.IsElevationExist(c) {
			shouldFillHole = true
			break
		}
	}

	hasMoreImagery := false
	if !r.ElevationLOD {
		for _, c := range children {
			if r.Reader.IsImageryExist(c) {
				hasMoreImagery = true
				break
			}
		}
	}

	if !shouldFillHole && !hasMoreImagery {
		return nil
	}

	tileRect := tile.BoundingRegion(minHeight, maxHeight).Rect
	for _, child := range children {
		if r.Reader.IsElevationExist(child) {
			continue
		}
		childRect := child.BoundingRegion(minHeight, maxHeight).Rect
		synth := trimToQuadrant(mesh, tileRect, childRect)
		if len(synth.Vertices) == 0 || len(synth.Indices) == 0 {
			continue
		}
		if err := r.reconcileMesh(child, synth, minHeight, maxHeight); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reconciler) fillNegativeLOD(tile cdbtile.CDBTile, mesh *content.Mesh, minHeight, maxHeight float64) error {
	if r.ElevationLOD {
		return nil
	}
	child := tile.ChildForNegativeLOD()
	if r.Reader.IsElevationExist(child) {
		return nil
	}
	if !r.Reader.IsImageryExist(child) {
		return nil
	}

	retitled := *mesh
	retitled.Texture = nil
	retitled.FeatureIDTexture = nil
	retitled.FeatureTable = nil
	return r.reconcileMesh(child, &retitled, minHeight, maxHeight)
}

// buildFeatureTable transcribes an RM descriptor into the content
// package's FeatureTable shape, naming it after the lexicographically
// first class in the transcoded Materials schema when one was loaded
// (§4.3 step 4's externalSchema argument) so the emitted
// EXT_structural_metadata class lines up with the sidecar materials.json
// a reader loads alongside it.
func (r *Reconciler) buildFeatureTable(desc *cdbsource.RMDescriptor) *content.FeatureTable {
	ft := &content.FeatureTable{
		FeatureNames: desc.FeatureNames,
		FeatureCodes: desc.FeatureCodes,
	}
	if r.Schema != nil && len(r.Schema.Materials) > 0 {
		names := make([]string, 0, len(r.Schema.Materials))
		for name := range r.Schema.Materials {
			names = append(names, name)
		}
		sort.Strings(names)
		ft.ClassName = names[0]
	}
	return ft
}
