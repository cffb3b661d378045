package content

import (
	"bytes"
	"encoding/binary"

	jsoniter "github.com/json-iterator/go"
)

// Instance is one placement of a referenced GT model.
type Instance struct {
	Position   geomVec3
	Attributes map[string]interface{}
}

type geomVec3 struct{ X, Y, Z float64 }

// NewInstance builds an Instance at the given position. Position's backing
// type is unexported so callers outside this package (cdbfs's tile
// discovery, in particular) need this rather than a composite literal.
func NewInstance(x, y, z float64, attrs map[string]interface{}) Instance {
	return Instance{Position: geomVec3{X: x, Y: y, Z: z}, Attributes: attrs}
}

// i3dmEncoder wraps a reference to an external GLB model (GTModelsToGltf
// entry, §4.4) plus a position table into the legacy Instanced 3D Model
// container — header shape grounded the same way as b3dmEncoder.
type i3dmEncoder struct{}

func NewI3DMEncoder() Encoder { return i3dmEncoder{} }

func (i3dmEncoder) Extension() string { return "i3dm" }

// Encode ignores the Mesh (I3DM instances reference an external GLB by
// URI rather than embedding one) and instead expects batchAttributes rows
// to carry "x", "y", "z" position fields alongside any instance
// attributes; EncodeInstances, reached through EncodeInstancedReference,
// is the entry point the GT model path in internal/convert uses and is
// preferred when building I3DM content directly.
func (e i3dmEncoder) Encode(_ *Mesh, batchAttributes []map[string]interface{}) ([]byte, error) {
	instances := make([]Instance, 0, len(batchAttributes))
	for _, row := range batchAttributes {
		instances = append(instances, Instance{
			Position: geomVec3{toFloat(row["x"]), toFloat(row["y"]), toFloat(row["z"])},
			Attributes: row,
		})
	}
	return e.EncodeInstances(instances, "")
}

// EncodeInstances builds an I3DM referencing gltfURI (an already-emitted
// GTModelsToGltf entry) by relative URI rather than embedding a glb body.
func (e i3dmEncoder) EncodeInstances(instances []Instance, gltfURI string) ([]byte, error) {
	featureTable := map[string]interface{}{
		"INSTANCES_LENGTH": len(instances),
		"POSITION": map[string]interface{}{"byteOffset": 0},
		"RTC_CENTER": []float64{0, 0, 0},
	}
	featureTableJSON, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(featureTable)
	if err != nil {
		return nil, err
	}
	featureTableJSON = padWithSpacesTo(featureTableJSON, 8)

	var posBuf bytes.Buffer
	for _, inst := range instances {
		_ = binary.Write(&posBuf, binary.LittleEndian, float32(inst.Position.X))
		_ = binary.Write(&posBuf, binary.LittleEndian, float32(inst.Position.Y))
		_ = binary.Write(&posBuf, binary.LittleEndian, float32(inst.Position.Z))
	}
	featureTableBinary := padGLB(posBuf.Bytes(), 0)

	batchTableJSON := padWithSpacesTo([]byte("{}"), 8)
	gltfBytes := []byte(gltfURI)

	var out bytes.Buffer
	total := uint32(32 + len(featureTableJSON) + len(featureTableBinary) + len(batchTableJSON) + len(gltfBytes))
	_ = binary.Write(&out, binary.LittleEndian, uint32(0x6D643369)) // "i3dm"
	_ = binary.Write(&out, binary.LittleEndian, uint32(1))
	_ = binary.Write(&out, binary.LittleEndian, total)
	_ = binary.Write(&out, binary.LittleEndian, uint32(len(featureTableJSON)))
	_ = binary.Write(&out, binary.LittleEndian, uint32(len(featureTableBinary)))
	_ = binary.Write(&out, binary.LittleEndian, uint32(len(batchTableJSON)))
	_ = binary.Write(&out, binary.LittleEndian, uint32(0))
	_ = binary.Write(&out, binary.LittleEndian, uint32(1)) // gltfFormat: 1 = URI
	out.Write(featureTableJSON)
	out.Write(featureTableBinary)
	out.Write(batchTableJSON)
	out.Write(gltfBytes)
	return out.Bytes(), nil
}

func toFloat(v interface{}) float64 {
	f, _ := v.(float64)
	return f
}

// EncodeInstancedReference builds an I3DM that references an
// already-written external glTF by relative URI, the shape GT model dedup
// needs (one shared glb per model key, many I3DM placements pointing at
// it) and that the plain Encode entry point above cannot express.
func EncodeInstancedReference(instances []Instance, gltfURI string) ([]byte, error) {
	return i3dmEncoder{}.EncodeInstances(instances, gltfURI)
}
