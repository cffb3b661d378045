package tileset

import (
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"

	"github.com/ecopia-map/cdb2tiles/internal/cdberr"
)

type tilesetDoc struct {
	Asset struct {
		Version string `json:"version"`
	} `json:"asset"`
	GeometricError float64    `json:"geometricError"`
	Root           *tileDoc   `json:"root,omitempty"`
	Extras         extrasDoc  `json:"extras,omitempty"`
}

type extrasDoc struct {
	ExtraRoots []*tileDoc `json:"extraRoots,omitempty"`
}

type tileDoc struct {
	BoundingVolume boundingVolumeDoc `json:"boundingVolume"`
	GeometricError float64           `json:"geometricError"`
	Refine         string            `json:"refine,omitempty"`
	Content        *contentDoc       `json:"content,omitempty"`
	Children       []*tileDoc        `json:"children,omitempty"`
}

type boundingVolumeDoc struct {
	Region [6]float64 `json:"region"`
}

type contentDoc struct {
	URI string `json:"uri"`
}

// resolveImplicitGeometricErrors assigns every purely-implicit ancestor
// node the maximum GeometricError among its descendants. Implicit nodes
// are created with GeometricError 0 (§4.4 step 4); left unresolved, a
// tileset.json reader would see a coarse placeholder claim a smaller error
// than the real content refined beneath it and never load it.
func resolveImplicitGeometricErrors(n *Node) float64 {
	if n == nil {
		return 0
	}
	max := n.GeometricError
	for _, c := range n.Children {
		if ge := resolveImplicitGeometricErrors(c); ge > max {
			max = ge
		}
	}
	if n.Implicit {
		n.GeometricError = max
	}
	return max
}

func toTileDoc(n *Node) *tileDoc {
	if n == nil {
		return nil
	}
	region := n.Tile.BoundingRegion(n.MinHeight, n.MaxHeight)
	d := &tileDoc{
		BoundingVolume: boundingVolumeDoc{Region: [6]float64{
			degToRad(region.WestDeg), degToRad(region.SouthDeg),
			degToRad(region.EastDeg), degToRad(region.NorthDeg),
			region.MinHeight, region.MaxHeight,
		}},
		GeometricError: n.GeometricError,
		Refine:         "ADD",
	}
	if !n.Implicit && n.ContentURI != "" {
		d.Content = &contentDoc{URI: n.ContentURI}
	}
	for _, c := range n.Children {
		if c != nil {
			d.Children = append(d.Children, toTileDoc(c))
		}
	}
	return d
}

func degToRad(deg float64) float64 {
	const pi = 3.14159265358979323846
	return deg * pi / 180
}

// WriteJSON serializes ts to path as a tileset.json document (§4.4
// "Serialize the tileset tree to <directory>/<geoCellAndDataset>.json").
func (ts *Tileset) WriteJSON(path string) error {
	if ts.root == nil && len(ts.extraRoots) == 0 {
		return cdberr.New(cdberr.InvalidConfiguration, "cannot serialize an empty tileset")
	}
	resolveImplicitGeometricErrors(ts.root)
	for _, r := range ts.extraRoots {
		resolveImplicitGeometricErrors(r)
	}

	doc := tilesetDoc{GeometricError: rootGeometricError(ts)}
	doc.Asset.Version = "1.0"
	doc.Root = toTileDoc(ts.root)
	for _, r := range ts.extraRoots {
		doc.Extras.ExtraRoots = append(doc.Extras.ExtraRoots, toTileDoc(r))
	}
	b, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(doc, "", "  ")
	if err != nil {
		return cdberr.Wrap(cdberr.IOError, "marshal tileset json", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return cdberr.Wrap(cdberr.IOError, "create tileset output dir", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return cdberr.Wrap(cdberr.IOError, "write tileset json", err)
	}
	return nil
}

func rootGeometricError(ts *Tileset) float64 {
	if ts.root != nil {
		return ts.root.GeometricError
	}
	if len(ts.extraRoots) > 0 {
		return ts.extraRoots[0].GeometricError
	}
	return 0
}
