package materials

import (
	"encoding/xml"
	"os"

	"github.com/ecopia-map/cdb2tiles/internal/cdberr"
)

// xmlTranscoder is the concrete Transcoder: no XML library appears
// anywhere in the reference pack (grep across every example's go.mod
// turned up nothing), so this one boundary component falls back to
// encoding/xml rather than inventing a dependency that was never
// grounded in the corpus.
type xmlTranscoder struct{}

// NewXMLTranscoder returns the stdlib-backed Transcoder.
func NewXMLTranscoder() Transcoder {
	return xmlTranscoder{}
}

type materialsDoc struct {
	XMLName   xml.Name       `xml:"Materials"`
	Materials []materialNode `xml:"Material"`
}

type materialNode struct {
	Name       string         `xml:"name,attr"`
	Properties []propertyNode `xml:"Property"`
}

type propertyNode struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

func (xmlTranscoder) Transcode(materialsXMLPath string) (*Schema, error) {
	f, err := os.Open(materialsXMLPath)
	if err != nil {
		return nil, cdberr.Wrap(cdberr.IOError, "open materials XML", err)
	}
	defer f.Close()

	var doc materialsDoc
	if err := xml.NewDecoder(f).Decode(&doc); err != nil {
		return nil, cdberr.Wrap(cdberr.IOError, "parse materials XML", err)
	}

	schema := &Schema{Materials: map[string]map[string]interface{}{}}
	for _, m := range doc.Materials {
		props := map[string]interface{}{}
		for _, p := range m.Properties {
			props[p.Name] = p.Value
		}
		schema.Materials[m.Name] = props
	}
	return schema, nil
}
