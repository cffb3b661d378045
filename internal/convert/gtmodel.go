package convert

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/ecopia-map/cdb2tiles/internal/availability"
	"github.com/ecopia-map/cdb2tiles/internal/cdberr"
	"github.com/ecopia-map/cdb2tiles/internal/cdbsource"
	"github.com/ecopia-map/cdb2tiles/internal/cdbtile"
	"github.com/ecopia-map/cdb2tiles/internal/content"
	"github.com/ecopia-map/cdb2tiles/internal/geom"
	"github.com/ecopia-map/cdb2tiles/internal/lod"
	"github.com/ecopia-map/cdb2tiles/internal/tiler"
	"github.com/ecopia-map/cdb2tiles/internal/tileset"
)

// convertGTModels implements §4.4's GT model handling: shared geometry is
// written once per unique model key (GTModelsToGltf, modeled here as
// GTModelGeometry500's directory), and every placed instance becomes one
// row referencing it. Classical output packs each tile's per-model
// placements into one I3DM per model key referencing the shared glb, and
// wraps the tile's I3DMs in a CMPT; 3D Tiles Next output has no
// instancing container available through the encoders this module
// carries, so each instance's geometry is duplicated and merged into one
// glTF mesh per tile instead of referenced (documented as a simplification
// in DESIGN.md — true EXT_mesh_gpu_instancing is out of scope).
func convertGTModels(opts *tiler.ConversionOptions, reader cdbsource.Reader, index *availability.Index, combineRegistry *tileset.CombineRegistry, gc cdbtile.GeoCell, geocellDir string) error {
	buckets := map[cdbtile.CDBTile]map[string][]content.Instance{}

	err := reader.ForEachGTModelTile(gc, func(tile cdbtile.CDBTile, payload *cdbsource.ModelPayload) error {
		byModel, ok := buckets[tile]
		if !ok {
			byModel = map[string][]content.Instance{}
			buckets[tile] = byModel
		}
		byModel[payload.ModelKey] = append(byModel[payload.ModelKey], payload.Instance)
		return nil
	})
	if err != nil {
		return err
	}
	if len(buckets) == 0 {
		return nil
	}

	sharedDir := filepath.Join(geocellDir, cdbtile.GTModelGeometry500.DirName())
	if err := os.MkdirAll(sharedDir, 0o755); err != nil {
		return cdberr.Wrap(cdberr.IOError, "create shared GT model geometry dir", err)
	}
	emitted := map[string]string{} // modelKey -> absolute path already written

	collection := tileset.NewCollection(filepath.Join(geocellDir, cdbtile.GTFeature.DirName()))

	for tile, byModel := range buckets {
		var encoded []byte
		var err error
		if opts.Use3dTilesNext {
			encoded, err = encodeGTTileNext(reader, byModel)
		} else {
			encoded, err = encodeGTTileClassical(reader, sharedDir, emitted, byModel)
		}
		if err != nil {
			return err
		}
		if encoded == nil {
			continue
		}

		dir, err := collection.ResolveDir(tile)
		if err != nil {
			return err
		}
		ext := "cmpt"
		if opts.Use3dTilesNext {
			ext = "glb"
		}
		filename := tile.FileNamePrefix() + "." + ext
		if err := os.WriteFile(filepath.Join(dir, filename), encoded, 0o644); err != nil {
			return cdberr.Wrap(cdberr.IOError, "write GT model tile content", err)
		}

		region := tile.BoundingRegion(0, 0)
		ge := lod.GeometricError(tile, region.MinHeight, region.MaxHeight)
		ts := collection.TilesetFor(tile)
		ts.InsertTile(tile, filename, ge, region.MinHeight, region.MaxHeight)

		if opts.Use3dTilesNext && tile.Level >= 0 {
			if err := index.AddAvailability(tile); err != nil {
				return err
			}
		}
	}

	return flushCollection(opts, combineRegistry, gc, geocellDir, cdbtile.GTFeature.DirName(), collection)
}

func encodeGTTileClassical(reader cdbsource.Reader, sharedDir string, emitted map[string]string, byModel map[string][]content.Instance) ([]byte, error) {
	keys := sortedKeys(byModel)
	var blobs [][]byte
	for _, modelKey := range keys {
		absPath, ok := emitted[modelKey]
		if !ok {
			mesh, found := reader.GetModelGeometry(modelKey)
			if !found {
				continue
			}
			glb, err := content.NewGLTFEncoder().Encode(mesh, nil)
			if err != nil {
				return nil, cdberr.Wrap(cdberr.IOError, "encode shared GT model geometry", err)
			}
			absPath = filepath.Join(sharedDir, modelKey+".glb")
			if err := os.WriteFile(absPath, glb, 0o644); err != nil {
				return nil, cdberr.Wrap(cdberr.IOError, "write shared GT model geometry", err)
			}
			emitted[modelKey] = absPath
		}
		relURI := filepath.ToSlash(filepath.Join("..", "..", cdbtile.GTModelGeometry500.DirName(), filepath.Base(absPath)))
		blob, err := content.EncodeInstancedReference(byModel[modelKey], relURI)
		if err != nil {
			return nil, cdberr.Wrap(cdberr.IOError, "encode GT model i3dm", err)
		}
		blobs = append(blobs, blob)
	}
	if len(blobs) == 0 {
		return nil, nil
	}
	return content.ComposeCMPT(blobs), nil
}

// encodeGTTileNext substitutes for true GPU instancing: since this
// module's glTF encoder has no EXT_mesh_gpu_instancing support, every
// instance's shared geometry is copied and translated to its placement,
// then appended into one merged mesh for the tile.
func encodeGTTileNext(reader cdbsource.Reader, byModel map[string][]content.Instance) ([]byte, error) {
	merged := &content.Mesh{}
	var attrRows []map[string]interface{}
	for _, modelKey := range sortedKeys(byModel) {
		base, found := reader.GetModelGeometry(modelKey)
		if !found {
			continue
		}
		for _, inst := range byModel[modelKey] {
			offset := geom.Vector3{X: inst.Position.X, Y: inst.Position.Y, Z: inst.Position.Z}
			appendTranslatedCopy(merged, base, offset)
			attrRows = append(attrRows, inst.Attributes)
		}
	}
	if len(merged.Vertices) == 0 {
		return nil, nil
	}
	return content.NewGLTFEncoder().Encode(merged, attrRows)
}

// appendTranslatedCopy appends a translated copy of src's vertices and
// indices onto dst, offsetting index values by dst's current vertex
// count so the merged triangle list stays valid.
func appendTranslatedCopy(dst, src *content.Mesh, offset geom.Vector3) {
	base := uint32(len(dst.Vertices))
	for _, v := range src.Vertices {
		v.Position = v.Position.Add(offset)
		dst.Vertices = append(dst.Vertices, v)
	}
	for _, idx := range src.Indices {
		dst.Indices = append(dst.Indices, idx+base)
	}
}

func sortedKeys(m map[string][]content.Instance) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
