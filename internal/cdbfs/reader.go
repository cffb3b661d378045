// Package cdbfs is a concrete cdbsource.Reader: a filesystem walker over a
// normalized on-disk layout that stands in for the real OGC CDB binary
// decoders (GeoTIFF elevation rasters, OpenFlight models, shapefile vector
// layers) a production build would plug in behind the same interface. No
// such decoder exists in the retrieved reference pack for this format, so
// this reader defines its own plain JSON/JPEG tile representation, rooted
// at the same GeoCell/CDBTile path conventions internal/cdbtile already
// derives, to exercise the conversion core end to end.
package cdbfs

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	jsoniter "github.com/json-iterator/go"

	"github.com/ecopia-map/cdb2tiles/internal/cdberr"
	"github.com/ecopia-map/cdb2tiles/internal/cdbsource"
	"github.com/ecopia-map/cdb2tiles/internal/cdbtile"
	"github.com/ecopia-map/cdb2tiles/internal/content"
	"github.com/ecopia-map/cdb2tiles/internal/geom"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Reader implements cdbsource.Reader over Root.
type Reader struct {
	Root string
}

// NewReader returns a Reader rooted at root.
func NewReader(root string) *Reader {
	return &Reader{Root: root}
}

var (
	geocellLatDirRe = regexp.MustCompile(`^([NS])(\d+)$`)
	geocellLonDirRe = regexp.MustCompile(`^([EW])(\d+)$`)
	levelDirRe      = regexp.MustCompile(`^LC(-?\d+)$`)
	urefRrefDirRe   = regexp.MustCompile(`^U(\d+)R(\d+)$`)
)

func (r *Reader) ForEachGeoCell(fn func(cdbtile.GeoCell) error) error {
	latEntries, err := os.ReadDir(r.Root)
	if err != nil {
		return cdberr.Wrap(cdberr.IOError, "read CDB root", err)
	}
	var latDirs []string
	for _, e := range latEntries {
		if e.IsDir() && geocellLatDirRe.MatchString(e.Name()) {
			latDirs = append(latDirs, e.Name())
		}
	}
	sort.Strings(latDirs)

	for _, latDir := range latDirs {
		m := geocellLatDirRe.FindStringSubmatch(latDir)
		latMag, _ := strconv.Atoi(m[2])
		lat := latMag
		if m[1] == "S" {
			lat = -latMag
		}

		lonEntries, err := os.ReadDir(filepath.Join(r.Root, latDir))
		if err != nil {
			return cdberr.Wrap(cdberr.IOError, "read geocell latitude dir", err)
		}
		var lonDirs []string
		for _, e := range lonEntries {
			if e.IsDir() && geocellLonDirRe.MatchString(e.Name()) {
				lonDirs = append(lonDirs, e.Name())
			}
		}
		sort.Strings(lonDirs)

		for _, lonDir := range lonDirs {
			lm := geocellLonDirRe.FindStringSubmatch(lonDir)
			lonMag, _ := strconv.Atoi(lm[2])
			lon := lonMag
			if lm[1] == "W" {
				lon = -lonMag
			}
			if err := fn(cdbtile.GeoCell{LatitudeDeg: lat, LongitudeDeg: lon}); err != nil {
				return err
			}
		}
	}
	return nil
}

// tileLeaf is one discovered "<cs1>_<cs2>.json" (or ".jpg") file under a
// dataset's LCxx/UyRz directory.
type tileLeaf struct {
	tile cdbtile.CDBTile
	path string
}

// walkDataset discovers every leaf file with the given extension under
// geocell's dataset directory, recovering level/uref/rref from the
// directory names and cs1/cs2 from the file name.
func walkDataset(root string, geocell cdbtile.GeoCell, dataset cdbtile.Dataset, ext string) ([]tileLeaf, error) {
	datasetDir := filepath.Join(root, geocell.RelativePath(), dataset.DirName())
	levelEntries, err := os.ReadDir(datasetDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, cdberr.Wrap(cdberr.IOError, "read dataset dir", err)
	}

	var leaves []tileLeaf
	for _, le := range levelEntries {
		lm := levelDirRe.FindStringSubmatch(le.Name())
		if !le.IsDir() || lm == nil {
			continue
		}
		level, _ := strconv.Atoi(lm[1])

		urDir := filepath.Join(datasetDir, le.Name())
		urEntries, err := os.ReadDir(urDir)
		if err != nil {
			return nil, cdberr.Wrap(cdberr.IOError, "read level dir", err)
		}
		for _, ue := range urEntries {
			um := urefRrefDirRe.FindStringSubmatch(ue.Name())
			if !ue.IsDir() || um == nil {
				continue
			}
			uref, _ := strconv.Atoi(um[1])
			rref, _ := strconv.Atoi(um[2])

			leafDir := filepath.Join(urDir, ue.Name())
			files, err := os.ReadDir(leafDir)
			if err != nil {
				return nil, cdberr.Wrap(cdberr.IOError, "read tile leaf dir", err)
			}
			for _, f := range files {
				if f.IsDir() || filepath.Ext(f.Name()) != ext {
					continue
				}
				cs1, cs2, ok := parseCSFileName(f.Name())
				if !ok {
					continue
				}
				leaves = append(leaves, tileLeaf{
					tile: cdbtile.CDBTile{GeoCell: geocell, Dataset: dataset, CS1: cs1, CS2: cs2, Level: level, UREF: uref, RREF: rref},
					path: filepath.Join(leafDir, f.Name()),
				})
			}
		}
	}
	return leaves, nil
}

func parseCSFileName(name string) (cs1, cs2 int, ok bool) {
	stem := name[:len(name)-len(filepath.Ext(name))]
	re := regexp.MustCompile(`^(\d+)_(\d+)$`)
	m := re.FindStringSubmatch(stem)
	if m == nil {
		return 0, 0, false
	}
	cs1, _ = strconv.Atoi(m[1])
	cs2, _ = strconv.Atoi(m[2])
	return cs1, cs2, true
}

type elevationTileDoc struct {
	Width         int       `json:"width"`
	Height        int       `json:"height"`
	MinElevation  float64   `json:"minElevation"`
	MaxElevation  float64   `json:"maxElevation"`
	Heights       []float64 `json:"heights"`
}

func (r *Reader) ForEachElevationTile(geocell cdbtile.GeoCell, fn func(cdbtile.CDBTile, *cdbsource.ElevationPayload) error) error {
	leaves, err := walkDataset(r.Root, geocell, cdbtile.Elevation, ".json")
	if err != nil {
		return err
	}
	for _, leaf := range leaves {
		b, err := os.ReadFile(leaf.path)
		if err != nil {
			return cdberr.Wrap(cdberr.IOError, "read elevation tile", err)
		}
		var doc elevationTileDoc
		if err := jsonAPI.Unmarshal(b, &doc); err != nil {
			return cdberr.Wrap(cdberr.IOError, "parse elevation tile", err)
		}
		mesh := buildGridMesh(doc)
		payload := &cdbsource.ElevationPayload{
			Mesh:         mesh,
			MinElevation: doc.MinElevation,
			MaxElevation: doc.MaxElevation,
			IndexCount:   len(mesh.Indices),
		}
		if err := fn(leaf.tile, payload); err != nil {
			return err
		}
	}
	return nil
}

// buildGridMesh triangulates a width x height row-major height sample
// grid into a uniform mesh, positions expressed as a 0..1 fraction of the
// tile's own footprint (x, y) and the raw sample as Z.
func buildGridMesh(doc elevationTileDoc) *content.Mesh {
	w, h := doc.Width, doc.Height
	mesh := &content.Mesh{}
	if w < 2 || h < 2 || len(doc.Heights) != w*h {
		return mesh
	}
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			mesh.Vertices = append(mesh.Vertices, content.Vertex{
				Position: geom.Vector3{
					X: float64(i) / float64(w-1),
					Y: float64(j) / float64(h-1),
					Z: doc.Heights[j*w+i],
				},
			})
		}
	}
	for j := 0; j < h-1; j++ {
		for i := 0; i < w-1; i++ {
			a := uint32(j*w + i)
			b := uint32(j*w + i + 1)
			c := uint32((j+1)*w + i)
			d := uint32((j+1)*w + i + 1)
			mesh.Indices = append(mesh.Indices, a, c, b, b, c, d)
		}
	}
	return mesh
}

type vectorTileDoc struct {
	Vertices   [][3]float64             `json:"vertices"`
	Indices    []int                    `json:"indices"`
	Attributes []map[string]interface{} `json:"attributes"`
}

func (r *Reader) forEachVectorTile(geocell cdbtile.GeoCell, dataset cdbtile.Dataset, fn func(cdbtile.CDBTile, *cdbsource.VectorPayload) error) error {
	leaves, err := walkDataset(r.Root, geocell, dataset, ".json")
	if err != nil {
		return err
	}
	for _, leaf := range leaves {
		b, err := os.ReadFile(leaf.path)
		if err != nil {
			return cdberr.Wrap(cdberr.IOError, "read vector tile", err)
		}
		var doc vectorTileDoc
		if err := jsonAPI.Unmarshal(b, &doc); err != nil {
			return cdberr.Wrap(cdberr.IOError, "parse vector tile", err)
		}
		mesh := &content.Mesh{}
		for _, v := range doc.Vertices {
			mesh.Vertices = append(mesh.Vertices, content.Vertex{Position: geom.Vector3{X: v[0], Y: v[1], Z: v[2]}})
		}
		for _, idx := range doc.Indices {
			mesh.Indices = append(mesh.Indices, uint32(idx))
		}
		payload := &cdbsource.VectorPayload{Mesh: mesh, Attributes: doc.Attributes}
		if err := fn(leaf.tile, payload); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reader) ForEachRoadTile(geocell cdbtile.GeoCell, fn func(cdbtile.CDBTile, *cdbsource.VectorPayload) error) error {
	return r.forEachVectorTile(geocell, cdbtile.RoadNetwork, fn)
}

func (r *Reader) ForEachRailTile(geocell cdbtile.GeoCell, fn func(cdbtile.CDBTile, *cdbsource.VectorPayload) error) error {
	return r.forEachVectorTile(geocell, cdbtile.RailRoadNetwork, fn)
}

func (r *Reader) ForEachPowerlineTile(geocell cdbtile.GeoCell, fn func(cdbtile.CDBTile, *cdbsource.VectorPayload) error) error {
	return r.forEachVectorTile(geocell, cdbtile.PowerlineNetwork, fn)
}

func (r *Reader) ForEachHydrographyTile(geocell cdbtile.GeoCell, fn func(cdbtile.CDBTile, *cdbsource.VectorPayload) error) error {
	return r.forEachVectorTile(geocell, cdbtile.HydrographyNetwork, fn)
}

type modelInstanceDoc struct {
	ModelKey   string                 `json:"modelKey"`
	X, Y, Z    float64
	Attributes map[string]interface{} `json:"attributes"`
}

type modelTileDoc struct {
	Instances []modelInstanceDoc `json:"instances"`
}

func (r *Reader) forEachModelTile(geocell cdbtile.GeoCell, dataset cdbtile.Dataset, fn func(cdbtile.CDBTile, *cdbsource.ModelPayload) error) error {
	leaves, err := walkDataset(r.Root, geocell, dataset, ".json")
	if err != nil {
		return err
	}
	for _, leaf := range leaves {
		b, err := os.ReadFile(leaf.path)
		if err != nil {
			return cdberr.Wrap(cdberr.IOError, "read model tile", err)
		}
		var doc modelTileDoc
		if err := jsonAPI.Unmarshal(b, &doc); err != nil {
			return cdberr.Wrap(cdberr.IOError, "parse model tile", err)
		}
		for _, inst := range doc.Instances {
			payload := &cdbsource.ModelPayload{
				ModelKey:   inst.ModelKey,
				Instance:   content.NewInstance(inst.X, inst.Y, inst.Z, inst.Attributes),
				Attributes: inst.Attributes,
			}
			if err := fn(leaf.tile, payload); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Reader) ForEachGTModelTile(geocell cdbtile.GeoCell, fn func(cdbtile.CDBTile, *cdbsource.ModelPayload) error) error {
	return r.forEachModelTile(geocell, cdbtile.GTFeature, fn)
}

func (r *Reader) ForEachGSModelTile(geocell cdbtile.GeoCell, fn func(cdbtile.CDBTile, *cdbsource.ModelPayload) error) error {
	return r.forEachModelTile(geocell, cdbtile.GSFeature, fn)
}

func (r *Reader) withDataset(tile cdbtile.CDBTile, dataset cdbtile.Dataset) cdbtile.CDBTile {
	t := tile
	t.Dataset = dataset
	return t
}

func (r *Reader) tilePath(tile cdbtile.CDBTile, ext string) string {
	return filepath.Join(r.Root, tile.RelativePath(), tile.CSKey()+ext)
}

func (r *Reader) IsElevationExist(tile cdbtile.CDBTile) bool {
	_, err := os.Stat(r.tilePath(r.withDataset(tile, cdbtile.Elevation), ".json"))
	return err == nil
}

func (r *Reader) IsImageryExist(tile cdbtile.CDBTile) bool {
	_, err := os.Stat(r.tilePath(r.withDataset(tile, cdbtile.Imagery), ".jpg"))
	return err == nil
}

func (r *Reader) GetImagery(tile cdbtile.CDBTile) (*content.Texture, bool) {
	path := r.tilePath(r.withDataset(tile, cdbtile.Imagery), ".jpg")
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return &content.Texture{EncodedBytes: b, RelativeURI: path}, true
}

func (r *Reader) GetRMTexture(tile cdbtile.CDBTile) (*content.Texture, bool) {
	path := r.tilePath(r.withDataset(tile, cdbtile.RMTexture), ".jpg")
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return &content.Texture{EncodedBytes: b, RelativeURI: path}, true
}

type rmDescriptorDoc struct {
	FeatureNames []string       `json:"featureNames"`
	FeatureCodes map[string]int `json:"featureCodes"`
}

func (r *Reader) GetRMDescriptor(tile cdbtile.CDBTile) (*cdbsource.RMDescriptor, bool) {
	path := r.tilePath(r.withDataset(tile, cdbtile.RMDescriptor), ".json")
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var doc rmDescriptorDoc
	if err := jsonAPI.Unmarshal(b, &doc); err != nil {
		return nil, false
	}
	return &cdbsource.RMDescriptor{FeatureNames: doc.FeatureNames, FeatureCodes: doc.FeatureCodes}, true
}

type modelGeometryDoc struct {
	Vertices [][3]float64 `json:"vertices"`
	Indices  []int        `json:"indices"`
}

// GetModelGeometry reads the shared geometry for a GT/GS model key from a
// flat "ModelGeometry" directory at the archive root, independent of any
// one geocell.
func (r *Reader) GetModelGeometry(modelKey string) (*content.Mesh, bool) {
	path := filepath.Join(r.Root, "ModelGeometry", modelKey+".json")
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var doc modelGeometryDoc
	if err := jsonAPI.Unmarshal(b, &doc); err != nil {
		return nil, false
	}
	mesh := &content.Mesh{}
	for _, v := range doc.Vertices {
		mesh.Vertices = append(mesh.Vertices, content.Vertex{Position: geom.Vector3{X: v[0], Y: v[1], Z: v[2]}})
	}
	for _, idx := range doc.Indices {
		mesh.Indices = append(mesh.Indices, uint32(idx))
	}
	return mesh, true
}
