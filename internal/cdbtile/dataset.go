package cdbtile

// Dataset is the closed enumeration of CDB content kinds. Each has a
// canonical directory name used both for the CDB's own on-disk layout and
// for the tileset output layout the collector writes to.
type Dataset int

const (
	Elevation Dataset = iota
	Imagery
	RMTexture
	RMDescriptor
	GSFeature
	GSModelGeometry
	GSModelTexture
	GTFeature
	GTModelGeometry500
	GTModelTexture
	RoadNetwork
	RailRoadNetwork
	PowerlineNetwork
	HydrographyNetwork
)

var datasetDirNames = map[Dataset]string{
	Elevation:           "Elevation",
	Imagery:             "Imagery",
	RMTexture:           "RMTexture",
	RMDescriptor:        "RMDescriptor",
	GSFeature:           "GSFeature",
	GSModelGeometry:     "GSModelGeometry",
	GSModelTexture:      "GSModelTexture",
	GTFeature:           "GTFeature",
	GTModelGeometry500:  "GTModelGeometry_500",
	GTModelTexture:      "GTModelTexture",
	RoadNetwork:         "RoadNetwork",
	RailRoadNetwork:     "RailRoadNetwork",
	PowerlineNetwork:    "PowerlineNetwork",
	HydrographyNetwork:  "HydrographyNetwork",
}

// DirName returns the canonical directory name for a dataset, or "" if the
// dataset value is not one of the closed enumeration members.
func (d Dataset) DirName() string {
	return datasetDirNames[d]
}

// combinableDatasetNames are the dataset path tokens accepted in a combine
// request (see internal/tileset.ParseCombineToken); GTModels/GSModels are
// group tokens spanning several concrete Dataset values, so they are kept
// separate from datasetDirNames rather than folded into it.
var combinableDatasetNames = map[string]bool{
	"Elevation":          true,
	"RoadNetwork":        true,
	"RailRoadNetwork":    true,
	"PowerlineNetwork":   true,
	"HydrographyNetwork": true,
	"GTModels":           true,
	"GSModels":           true,
}

// IsCombinableDatasetName reports whether name is one of the dataset path
// tokens accepted at the front of a combine request.
func IsCombinableDatasetName(name string) bool {
	return combinableDatasetNames[name]
}
