// Package materials holds the boundary interface for the CDB Materials
// XML transcoder (referenced only at its boundary, per scope) and the
// externalSchema sidecar writer that consumes it.
package materials

import (
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"

	"github.com/ecopia-map/cdb2tiles/internal/cdberr"
)

// Schema is the transcoded form of a CDB Materials XML document: a flat
// set of named materials, each carrying whatever properties the external
// transcoder extracted.
type Schema struct {
	Materials map[string]map[string]interface{} `json:"materials"`
}

// Transcoder converts a CDB Materials XML document into a Schema.
// NewXMLTranscoder (xmltranscoder.go) returns the implementation that
// reads and parses the archive's Materials.xml.
type Transcoder interface {
	Transcode(materialsXMLPath string) (*Schema, error)
}

// WriteSidecar writes schema as "materials.json" under outputRoot when
// externalSchema is enabled (§6 output layout).
func WriteSidecar(outputRoot string, schema *Schema) error {
	b, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(schema, "", "  ")
	if err != nil {
		return cdberr.Wrap(cdberr.IOError, "marshal materials schema", err)
	}
	path := filepath.Join(outputRoot, "materials.json")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return cdberr.Wrap(cdberr.IOError, "write materials sidecar", err)
	}
	return nil
}
