package convert

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/glog"

	"github.com/ecopia-map/cdb2tiles/internal/availability"
	"github.com/ecopia-map/cdb2tiles/internal/cdberr"
	"github.com/ecopia-map/cdb2tiles/internal/cdbsource"
	"github.com/ecopia-map/cdb2tiles/internal/cdbtile"
	"github.com/ecopia-map/cdb2tiles/internal/content"
	"github.com/ecopia-map/cdb2tiles/internal/lod"
	"github.com/ecopia-map/cdb2tiles/internal/materials"
	"github.com/ecopia-map/cdb2tiles/internal/tiler"
	"github.com/ecopia-map/cdb2tiles/internal/tileset"
)

// Convert runs the single entry point of §4.5: initialize SBE, optionally
// transcode the Materials XML, iterate every geocell the reader yields
// dispatching each dataset stream to the right collector, then emit the
// global and user-requested combined tilesets and the materials sidecar.
func Convert(opts *tiler.ConversionOptions, reader cdbsource.Reader, transcoder materials.Transcoder) error {
	index, err := availability.NewIndex(opts.SubtreeLevels)
	if err != nil {
		return err
	}

	var schema *materials.Schema
	if opts.Use3dTilesNext && transcoder != nil {
		xmlPath := filepath.Join(opts.Input, "Metadata", "MaterialsXML", "Materials.xml")
		if _, statErr := os.Stat(xmlPath); statErr == nil {
			schema, err = transcoder.Transcode(xmlPath)
			if err != nil {
				return cdberr.Wrap(cdberr.IOError, "transcode materials XML", err)
			}
		}
	}

	combineRegistry := tileset.NewCombineRegistry()

	err = reader.ForEachGeoCell(func(gc cdbtile.GeoCell) error {
		return convertGeoCell(opts, reader, index, combineRegistry, gc, schema)
	})
	if err != nil {
		return err
	}

	if err := combineRegistry.WriteGlobalCombinations(opts.Output); err != nil {
		return err
	}

	if len(opts.CombineRequests) > 0 {
		groups := make([]string, 0, len(opts.CombineRequests))
		for _, token := range opts.CombineRequests {
			datasetCS, err := tileset.ParseCombineToken(token)
			if err != nil {
				return err
			}
			groups = append(groups, datasetCS)
		}
		if err := combineRegistry.WriteUserCombination(opts.Output, groups); err != nil {
			return err
		}
	}

	if opts.ExternalSchema && schema != nil {
		if err := materials.WriteSidecar(opts.Output, schema); err != nil {
			return err
		}
	}

	return nil
}

// geocellLabel is the flat "<hemi><lat><hemi><lon>" form used in flushed
// tileset filenames, e.g. "N32E130", distinct from GeoCell.RelativePath's
// slash-separated directory form.
func geocellLabel(gc cdbtile.GeoCell) string {
	latHemi, latMag := "N", gc.LatitudeDeg
	if gc.LatitudeDeg < 0 {
		latHemi, latMag = "S", -gc.LatitudeDeg
	}
	lonHemi, lonMag := "E", gc.LongitudeDeg
	if gc.LongitudeDeg < 0 {
		lonHemi, lonMag = "W", -gc.LongitudeDeg
	}
	return fmt.Sprintf("%s%02d%s%03d", latHemi, latMag, lonHemi, lonMag)
}

func convertGeoCell(opts *tiler.ConversionOptions, reader cdbsource.Reader, index *availability.Index, combineRegistry *tileset.CombineRegistry, gc cdbtile.GeoCell, schema *materials.Schema) error {
	geocellDir := filepath.Join(opts.Output, gc.RelativePath())
	if err := os.MkdirAll(geocellDir, 0o755); err != nil {
		return cdberr.Wrap(cdberr.IOError, "create geocell output dir", err)
	}

	var meshEncoder content.Encoder
	if opts.Use3dTilesNext {
		meshEncoder = content.NewGLTFEncoder()
	} else {
		meshEncoder = content.NewB3DMEncoder()
	}

	glog.Infof("converting geocell %s", gc)

	if err := convertElevation(opts, reader, index, combineRegistry, gc, geocellDir, meshEncoder, schema); err != nil {
		return err
	}

	for _, vd := range vectorDatasets(reader) {
		if err := convertVector(opts, index, combineRegistry, gc, geocellDir, meshEncoder, vd); err != nil {
			return err
		}
	}

	if err := convertGTModels(opts, reader, index, combineRegistry, gc, geocellDir); err != nil {
		return err
	}

	if err := convertGSModels(opts, reader, index, combineRegistry, gc, geocellDir, meshEncoder); err != nil {
		return err
	}

	if err := index.FlushSubtrees(geocellDir); err != nil {
		return err
	}
	return nil
}

func convertElevation(opts *tiler.ConversionOptions, reader cdbsource.Reader, index *availability.Index, combineRegistry *tileset.CombineRegistry, gc cdbtile.GeoCell, geocellDir string, encoder content.Encoder, schema *materials.Schema) error {
	collection := tileset.NewCollection(filepath.Join(geocellDir, cdbtile.Elevation.DirName()))
	emitter := newDatasetEmitter(collection, index, encoder, opts.Use3dTilesNext)
	reconciler := lod.NewReconciler(lod.NewPassthroughDecimator(), reader, emitter,
		opts.ElevationLOD, opts.ElevationNormal, opts.ElevationThresholdIndices, opts.ElevationDecimateError)
	reconciler.Schema = schema

	if opts.DebugDumpMeshes {
		dumpDir := filepath.Join(geocellDir, cdbtile.Elevation.DirName(), "debug-ply")
		if err := os.MkdirAll(dumpDir, 0o755); err != nil {
			return err
		}
		reconciler.DebugDumpDir = dumpDir
	}

	err := reader.ForEachElevationTile(gc, func(tile cdbtile.CDBTile, payload *cdbsource.ElevationPayload) error {
		return reconciler.Reconcile(tile, payload)
	})
	if err != nil {
		return err
	}
	return flushCollection(opts, combineRegistry, gc, geocellDir, cdbtile.Elevation.DirName(), collection)
}

// vectorDataset names one of the four vector streams and the iterator
// that drives it, so convertVector can be written once and reused four
// times rather than duplicated per dataset (§4.4 "Vector datasets...").
type vectorDataset struct {
	dataset  cdbtile.Dataset
	forEach  func(cdbtile.GeoCell, func(cdbtile.CDBTile, *cdbsource.VectorPayload) error) error
}

func vectorDatasets(reader cdbsource.Reader) []vectorDataset {
	return []vectorDataset{
		{cdbtile.RoadNetwork, reader.ForEachRoadTile},
		{cdbtile.RailRoadNetwork, reader.ForEachRailTile},
		{cdbtile.PowerlineNetwork, reader.ForEachPowerlineTile},
		{cdbtile.HydrographyNetwork, reader.ForEachHydrographyTile},
	}
}

func convertVector(opts *tiler.ConversionOptions, index *availability.Index, combineRegistry *tileset.CombineRegistry, gc cdbtile.GeoCell, geocellDir string, encoder content.Encoder, vd vectorDataset) error {
	collection := tileset.NewCollection(filepath.Join(geocellDir, vd.dataset.DirName()))
	emitter := newDatasetEmitter(collection, index, encoder, opts.Use3dTilesNext)

	err := vd.forEach(gc, func(tile cdbtile.CDBTile, payload *cdbsource.VectorPayload) error {
		ge := lod.GeometricError(tile, 0, 0)
		return emitter.Emit(tile, payload.Mesh, payload.Attributes, ge, 0, 0)
	})
	if err != nil {
		return err
	}
	return flushCollection(opts, combineRegistry, gc, geocellDir, vd.dataset.DirName(), collection)
}

// convertGSModels treats GS model instances as a vector-shaped stream
// (one mesh plus an attribute row per instance): the spec's tagged
// Content variant for GSModel carries the same mesh+attrs shape as
// Vector, just sourced from a different CDB stream, so it reuses the
// generic emitter rather than duplicating GT's shared-geometry dedup
// machinery (see DESIGN.md for why GT models, which dedup geometry
// across instances, could not share this same path).
func convertGSModels(opts *tiler.ConversionOptions, reader cdbsource.Reader, index *availability.Index, combineRegistry *tileset.CombineRegistry, gc cdbtile.GeoCell, geocellDir string, encoder content.Encoder) error {
	collection := tileset.NewCollection(filepath.Join(geocellDir, cdbtile.GSModelGeometry.DirName()))
	emitter := newDatasetEmitter(collection, index, encoder, opts.Use3dTilesNext)

	err := reader.ForEachGSModelTile(gc, func(tile cdbtile.CDBTile, payload *cdbsource.ModelPayload) error {
		mesh, ok := reader.GetModelGeometry(payload.ModelKey)
		if !ok {
			return nil
		}
		ge := lod.GeometricError(tile, 0, 0)
		return emitter.Emit(tile, mesh, []map[string]interface{}{payload.Attributes}, ge, 0, 0)
	})
	if err != nil {
		return err
	}
	return flushCollection(opts, combineRegistry, gc, geocellDir, cdbtile.GSModelGeometry.DirName(), collection)
}

func flushCollection(opts *tiler.ConversionOptions, combineRegistry *tileset.CombineRegistry, gc cdbtile.GeoCell, geocellDir, datasetDirName string, collection *tileset.Collection) error {
	for _, csKey := range collection.CSKeys() {
		ts := collection.Tileset(csKey)
		root := ts.GetRoot()
		if root == nil {
			continue
		}
		fileName := geocellLabel(gc) + "_" + datasetDirName + ".json"
		path := filepath.Join(collection.Dir(csKey), fileName)
		if err := ts.WriteJSON(path); err != nil {
			return err
		}

		relPath, err := filepath.Rel(opts.Output, path)
		if err != nil {
			relPath = path
		}
		region := root.Tile.BoundingRegion(root.MinHeight, root.MaxHeight)
		combineRegistry.Add(tileset.CombineEntry{
			DatasetCS:      datasetDirName + "_" + csKey,
			RelativePath:   relPath,
			Region:         region,
			GeometricError: root.GeometricError,
		})
	}
	return nil
}
