package content

import (
	"bytes"
	"encoding/binary"

	jsoniter "github.com/json-iterator/go"
)

// b3dmEncoder wraps a GLB body in the legacy Batched 3D Model container.
// The header layout and the "pad the feature/batch table JSON to a 4/8
// byte boundary with spaces" trick are taken directly from the teacher's
// writeBinaryPntsFile/generatePntsByteArray (std_consumer.go), which does
// the same thing for a PNTS container; only the embedded binary body
// changes, from a raw point array to a glTF buffer.
type b3dmEncoder struct {
	gltf gltfEncoder
}

// NewB3DMEncoder returns the Encoder used when Use3dTilesNext is false.
func NewB3DMEncoder() Encoder { return b3dmEncoder{} }

func (b3dmEncoder) Extension() string { return "b3dm" }

func (e b3dmEncoder) Encode(mesh *Mesh, batchAttributes []map[string]interface{}) ([]byte, error) {
	glb, err := e.gltf.Encode(mesh, nil)
	if err != nil {
		return nil, err
	}

	batchLength := len(batchAttributes)
	if batchLength == 0 {
		batchLength = 1
	}
	featureTableJSON, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(map[string]interface{}{
		"BATCH_LENGTH": batchLength,
	})
	if err != nil {
		return nil, err
	}
	featureTableJSON = padWithSpacesTo(featureTableJSON, 8)

	batchTableJSON := []byte("{}")
	if len(batchAttributes) > 0 {
		batchTableJSON, err = jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(transpose(batchAttributes))
		if err != nil {
			return nil, err
		}
	}
	batchTableJSON = padWithSpacesTo(batchTableJSON, 8)

	var out bytes.Buffer
	total := uint32(28 + len(featureTableJSON) + len(batchTableJSON) + len(glb))
	_ = binary.Write(&out, binary.LittleEndian, uint32(0x6D643362)) // "b3dm"
	_ = binary.Write(&out, binary.LittleEndian, uint32(1))
	_ = binary.Write(&out, binary.LittleEndian, total)
	_ = binary.Write(&out, binary.LittleEndian, uint32(len(featureTableJSON)))
	_ = binary.Write(&out, binary.LittleEndian, uint32(0))
	_ = binary.Write(&out, binary.LittleEndian, uint32(len(batchTableJSON)))
	_ = binary.Write(&out, binary.LittleEndian, uint32(0))
	out.Write(featureTableJSON)
	out.Write(batchTableJSON)
	out.Write(glb)
	return out.Bytes(), nil
}

// padWithSpacesTo right-pads b with ASCII spaces to the next multiple of
// align, the same recursive-padding outcome the teacher's
// generateFeatureTableJsonContent/generateBatchTableJsonContent compute
// via an explicit spaceNo accumulator.
func padWithSpacesTo(b []byte, align int) []byte {
	rem := len(b) % align
	if rem == 0 {
		return b
	}
	return append(b, bytes.Repeat([]byte{' '}, align-rem)...)
}

// transpose turns a slice of per-row attribute maps into the 3D Tiles
// batch table's column-major {"attrName": [v0, v1, ...]} shape.
func transpose(rows []map[string]interface{}) map[string][]interface{} {
	cols := map[string][]interface{}{}
	for _, row := range rows {
		for k, v := range row {
			cols[k] = append(cols[k], v)
		}
	}
	return cols
}
