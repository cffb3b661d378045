package tileset

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/ecopia-map/cdb2tiles/internal/cdberr"
	"github.com/ecopia-map/cdb2tiles/internal/cdbtile"
	"github.com/ecopia-map/cdb2tiles/internal/geom"
)

// CombineEntry records one flushed per-geocell tileset.json for later
// global combination (§4.4 "Record the relative path in a process-level
// defaultDatasetToCombine list").
type CombineEntry struct {
	DatasetCS    string
	RelativePath string
	Region       geom.Region
	GeometricError float64
}

// CombineRegistry accumulates CombineEntry values across every geocell
// flush for the duration of convert() (§3 Lifecycle: process-level,
// cleared only by process exit, not by geocell flush).
type CombineRegistry struct {
	byGroup map[string][]CombineEntry
	order   []string
}

func NewCombineRegistry() *CombineRegistry {
	return &CombineRegistry{byGroup: make(map[string][]CombineEntry)}
}

func (r *CombineRegistry) Add(e CombineEntry) {
	if _, ok := r.byGroup[e.DatasetCS]; !ok {
		r.order = append(r.order, e.DatasetCS)
	}
	r.byGroup[e.DatasetCS] = append(r.byGroup[e.DatasetCS], e)
}

// WriteGlobalCombinations emits "<outputRoot>/<dataset_CS>.json" for every
// distinct group recorded, each referencing its contributing geocells as
// external tilesets (§4.4 "Global combination").
func (r *CombineRegistry) WriteGlobalCombinations(outputRoot string) error {
	for _, group := range r.order {
		if err := r.writeGroup(outputRoot, group, group+".json"); err != nil {
			return err
		}
	}
	return nil
}

// WriteUserCombination emits the sidecar tileset for a user-requested list
// of dataset_CS tokens: "tileset.json" for a single token, or the
// concatenation of the tokens for more than one (§4.4 step "user-requested
// combinations").
func (r *CombineRegistry) WriteUserCombination(outputRoot string, groups []string) error {
	fileName := "tileset.json"
	if len(groups) > 1 {
		fileName = strings.Join(groups, "_") + ".json"
	}
	var all []CombineEntry
	for _, g := range groups {
		all = append(all, r.byGroup[g]...)
	}
	return writeCombinedTileset(outputRoot, fileName, all)
}

func (r *CombineRegistry) writeGroup(outputRoot, group, fileName string) error {
	return writeCombinedTileset(outputRoot, fileName, r.byGroup[group])
}

func writeCombinedTileset(outputRoot, fileName string, entries []CombineEntry) error {
	if len(entries) == 0 {
		return nil
	}
	region := entries[0].Region
	var children []*tileDoc
	geErr := entries[0].GeometricError
	for _, e := range entries[1:] {
		region = region.Union(e.Region)
	}
	for _, e := range entries {
		children = append(children, &tileDoc{
			BoundingVolume: regionDoc(e.Region),
			GeometricError: e.GeometricError,
			Content:        &contentDoc{URI: e.RelativePath},
		})
		if e.GeometricError > geErr {
			geErr = e.GeometricError
		}
	}
	doc := tilesetDoc{GeometricError: geErr}
	doc.Asset.Version = "1.0"
	doc.Root = &tileDoc{
		BoundingVolume: regionDoc(region),
		GeometricError: geErr,
		Refine:         "ADD",
		Children:       children,
	}
	b, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(doc, "", "  ")
	if err != nil {
		return cdberr.Wrap(cdberr.IOError, "marshal combined tileset json", err)
	}
	if err := os.WriteFile(filepath.Join(outputRoot, fileName), b, 0o644); err != nil {
		return cdberr.Wrap(cdberr.IOError, "write combined tileset json", err)
	}
	return nil
}

func regionDoc(r geom.Region) boundingVolumeDoc {
	return boundingVolumeDoc{Region: [6]float64{
		degToRad(r.WestDeg), degToRad(r.SouthDeg),
		degToRad(r.EastDeg), degToRad(r.NorthDeg),
		r.MinHeight, r.MaxHeight,
	}}
}

// ParseCombineToken parses a combine request of the form
// "<DatasetName>_<CS1>_<CS2>" (§6, §8 scenario 6). DatasetName must be one
// of the accepted path tokens; CS1/CS2 must be non-empty digit strings.
func ParseCombineToken(token string) (datasetCS string, err error) {
	parts := strings.Split(token, "_")
	if len(parts) != 3 {
		return "", cdberr.Newf(cdberr.MalformedCombineToken, "%q does not have the Dataset_CS1_CS2 shape", token)
	}
	name, cs1, cs2 := parts[0], parts[1], parts[2]
	if !cdbtile.IsCombinableDatasetName(name) {
		return "", cdberr.Newf(cdberr.MalformedCombineToken,
			"%q: unknown dataset name %q (valid: Elevation, RoadNetwork, RailRoadNetwork, PowerlineNetwork, HydrographyNetwork, GTModels, GSModels)", token, name)
	}
	if !isAllDigits(cs1) || !isAllDigits(cs2) {
		return "", cdberr.Newf(cdberr.MalformedCombineToken, "%q: CS1/CS2 must be non-empty digit strings", token)
	}
	return name + "_" + cs1 + "_" + cs2, nil
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	_, err := strconv.Atoi(s)
	return err == nil
}
