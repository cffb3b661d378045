package content

import (
	"bytes"
	"encoding/binary"
	"math"
	"sort"

	jsoniter "github.com/json-iterator/go"
)

// gltfEncoder produces a minimal, structurally valid GLB 2.0 container: a
// 12-byte header, one JSON chunk (asset/mesh/accessor metadata), and one
// BIN chunk holding each vertex attribute in its own non-interleaved
// block, followed by the index buffer.
// Adapted from the teacher's generatePntsByteArray (std_consumer.go): same
// "magic + version + total length" header shape and the same habit of
// hand-assembling the binary body with encoding/binary rather than a
// struct, generalized here from a flat point array to indexed triangles.
type gltfEncoder struct{}

// NewGLTFEncoder returns the Encoder used for elevation/vector content
// when ConversionOptions.Use3dTilesNext is set.
func NewGLTFEncoder() Encoder { return gltfEncoder{} }

func (gltfEncoder) Extension() string { return "glb" }

// attrName enumerates the per-vertex attributes this encoder knows how
// to pack, in the fixed order they are laid out in the vertex buffer and
// in the accessors/bufferViews arrays.
type attrName string

const (
	attrPosition  attrName = "POSITION"
	attrNormal    attrName = "NORMAL"
	attrTexcoord0 attrName = "TEXCOORD_0"
	attrFeatureID attrName = "_FEATURE_ID_0"
)

// attributeLayout returns mesh's active vertex attributes in fixed
// encode order. Every accessor/bufferView/attribute-index table this
// encoder builds derives from this one list so they can never drift out
// of sync with each other.
func attributeLayout(mesh *Mesh) []attrName {
	layout := []attrName{attrPosition}
	if len(mesh.Vertices) > 0 && mesh.Vertices[0].HasNormal {
		layout = append(layout, attrNormal)
	}
	if hasUV(mesh) {
		layout = append(layout, attrTexcoord0)
	}
	if mesh.FeatureTable != nil {
		layout = append(layout, attrFeatureID)
	}
	return layout
}

func (e gltfEncoder) Encode(mesh *Mesh, _ []map[string]interface{}) ([]byte, error) {
	layout := attributeLayout(mesh)
	body, byteLen, posMin, posMax := e.packBuffer(mesh, layout)

	primitive := map[string]interface{}{
		"attributes": buildAttributes(layout),
		"indices":    len(layout), // index accessor follows every vertex attribute
		"mode":       4,
	}

	doc := map[string]interface{}{
		"asset": map[string]interface{}{"version": "2.0"},
		"scene": 0,
		"scenes": []interface{}{
			map[string]interface{}{"nodes": []int{0}},
		},
		"nodes": []interface{}{
			map[string]interface{}{"mesh": 0},
		},
		"accessors":   buildAccessors(mesh, layout, posMin, posMax),
		"bufferViews": buildBufferViews(mesh, layout),
		"buffers":     []interface{}{map[string]interface{}{"byteLength": byteLen}},
	}

	if mesh.FeatureTable != nil {
		featureIDAttr := indexOf(layout, attrFeatureID)
		primitive["extensions"] = map[string]interface{}{
			"EXT_mesh_features": map[string]interface{}{
				"featureIds": []interface{}{
					map[string]interface{}{
						"featureCount": len(mesh.FeatureTable.FeatureNames),
						"attribute":    featureIDAttr,
						"propertyTable": 0,
					},
				},
			},
		}
		doc["extensionsUsed"] = []string{"EXT_mesh_features", "EXT_structural_metadata"}
		doc["extensions"] = map[string]interface{}{
			"EXT_structural_metadata": buildStructuralMetadata(mesh.FeatureTable),
		}
	}

	doc["meshes"] = []interface{}{
		map[string]interface{}{
			"primitives": []interface{}{primitive},
		},
	}

	jsonBytes, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(doc)
	if err != nil {
		return nil, err
	}
	jsonBytes = padGLB(jsonBytes, ' ')
	binBytes := padGLB(body, 0)

	var out bytes.Buffer
	totalLen := uint32(12 + 8 + len(jsonBytes) + 8 + len(binBytes))
	_ = binary.Write(&out, binary.LittleEndian, uint32(0x46546C67)) // "glTF"
	_ = binary.Write(&out, binary.LittleEndian, uint32(2))
	_ = binary.Write(&out, binary.LittleEndian, totalLen)

	_ = binary.Write(&out, binary.LittleEndian, uint32(len(jsonBytes)))
	_ = binary.Write(&out, binary.LittleEndian, uint32(0x4E4F534A)) // "JSON"
	out.Write(jsonBytes)

	_ = binary.Write(&out, binary.LittleEndian, uint32(len(binBytes)))
	_ = binary.Write(&out, binary.LittleEndian, uint32(0x004E4942)) // "BIN\0"
	out.Write(binBytes)

	return out.Bytes(), nil
}

// buildStructuralMetadata assembles an EXT_structural_metadata document
// from an RM feature table: one class named ft.ClassName ("rmFeature"
// when empty) with a string property "name" and an INT32 property
// "code", and one property table row per feature, in name order — the
// tile's whole surface shares one RM
// texture, so every feature ID in the mesh indexes the same table.
func buildStructuralMetadata(ft *FeatureTable) map[string]interface{} {
	names := append([]string(nil), ft.FeatureNames...)
	sort.Strings(names)

	codes := make([]int, len(names))
	for i, name := range names {
		codes[i] = ft.FeatureCodes[name]
	}

	className := ft.ClassName
	if className == "" {
		className = "rmFeature"
	}

	return map[string]interface{}{
		"schema": map[string]interface{}{
			"id": "cdb2tilesRMSchema",
			"classes": map[string]interface{}{
				className: map[string]interface{}{
					"properties": map[string]interface{}{
						"name": map[string]interface{}{"type": "STRING"},
						"code": map[string]interface{}{"type": "SCALAR", "componentType": "INT32"},
					},
				},
			},
		},
		"propertyTables": []interface{}{
			map[string]interface{}{
				"class": className,
				"count": len(names),
				"properties": map[string]interface{}{
					"name": map[string]interface{}{"values": names},
					"code": map[string]interface{}{"values": codes},
				},
			},
		},
	}
}

func padGLB(b []byte, fill byte) []byte {
	rem := len(b) % 4
	if rem == 0 {
		return b
	}
	return append(b, bytes.Repeat([]byte{fill}, 4-rem)...)
}

func hasUV(mesh *Mesh) bool {
	return mesh.Texture != nil || mesh.FeatureIDTexture != nil
}

func indexOf(layout []attrName, name attrName) int {
	for i, a := range layout {
		if a == name {
			return i
		}
	}
	return len(layout) - 1
}

func buildAttributes(layout []attrName) map[string]interface{} {
	attrs := make(map[string]interface{}, len(layout))
	for i, a := range layout {
		attrs[string(a)] = i
	}
	return attrs
}

// componentType/count per attribute: positions and normals are vec3
// float32, texcoords are vec2 float32, and the feature ID is a single
// unsigned byte (ample for an RM descriptor's code range).
func accessorType(a attrName) (componentType int, glType string) {
	switch a {
	case attrPosition, attrNormal:
		return 5126, "VEC3"
	case attrTexcoord0:
		return 5126, "VEC2"
	case attrFeatureID:
		return 5121, "SCALAR"
	default:
		return 5126, "SCALAR"
	}
}

func componentSize(componentType int) int {
	switch componentType {
	case 5121: // UNSIGNED_BYTE
		return 1
	default: // 5126 FLOAT, 5125 UNSIGNED_INT
		return 4
	}
}

// packBuffer lays out every active vertex attribute in layout order
// (positions, then normals, then UVs, then feature IDs, each fully
// de-interleaved), followed by the uint32 index buffer.
func (gltfEncoder) packBuffer(mesh *Mesh, layout []attrName) (body []byte, byteLength int, min, max [3]float64) {
	var buf bytes.Buffer

	min = [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)}
	max = [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)}

	for _, a := range layout {
		switch a {
		case attrPosition:
			for _, v := range mesh.Vertices {
				_ = binary.Write(&buf, binary.LittleEndian, float32(v.Position.X))
				_ = binary.Write(&buf, binary.LittleEndian, float32(v.Position.Y))
				_ = binary.Write(&buf, binary.LittleEndian, float32(v.Position.Z))
				min[0], max[0] = math.Min(min[0], v.Position.X), math.Max(max[0], v.Position.X)
				min[1], max[1] = math.Min(min[1], v.Position.Y), math.Max(max[1], v.Position.Y)
				min[2], max[2] = math.Min(min[2], v.Position.Z), math.Max(max[2], v.Position.Z)
			}
		case attrNormal:
			for _, v := range mesh.Vertices {
				_ = binary.Write(&buf, binary.LittleEndian, float32(v.Normal.X))
				_ = binary.Write(&buf, binary.LittleEndian, float32(v.Normal.Y))
				_ = binary.Write(&buf, binary.LittleEndian, float32(v.Normal.Z))
			}
		case attrTexcoord0:
			for _, v := range mesh.Vertices {
				_ = binary.Write(&buf, binary.LittleEndian, float32(v.U))
				_ = binary.Write(&buf, binary.LittleEndian, float32(v.V))
			}
		case attrFeatureID:
			// One RM texture covers the tile's whole surface, so every
			// vertex shares feature ID 0 into the property table.
			for range mesh.Vertices {
				_ = buf.WriteByte(0)
			}
		}
	}

	for _, idx := range mesh.Indices {
		_ = binary.Write(&buf, binary.LittleEndian, idx)
	}
	return buf.Bytes(), buf.Len(), min, max
}

func buildAccessors(mesh *Mesh, layout []attrName, min, max [3]float64) []interface{} {
	n := len(mesh.Vertices)
	accessors := make([]interface{}, 0, len(layout)+1)
	for _, a := range layout {
		ct, glType := accessorType(a)
		acc := map[string]interface{}{"bufferView": len(accessors), "componentType": ct, "count": n, "type": glType}
		if a == attrPosition {
			acc["min"] = []float64{min[0], min[1], min[2]}
			acc["max"] = []float64{max[0], max[1], max[2]}
		}
		accessors = append(accessors, acc)
	}
	accessors = append(accessors, map[string]interface{}{
		"bufferView": len(accessors), "componentType": 5125, "count": len(mesh.Indices), "type": "SCALAR",
	})
	return accessors
}

func buildBufferViews(mesh *Mesh, layout []attrName) []interface{} {
	n := len(mesh.Vertices)
	offset := 0
	views := make([]interface{}, 0, len(layout)+1)
	for _, a := range layout {
		ct, glType := accessorType(a)
		comps := 1
		if glType == "VEC3" {
			comps = 3
		} else if glType == "VEC2" {
			comps = 2
		}
		l := n * comps * componentSize(ct)
		views = append(views, map[string]interface{}{"buffer": 0, "byteOffset": offset, "byteLength": l, "target": 34962})
		offset += l
	}
	idxLen := len(mesh.Indices) * 4
	views = append(views, map[string]interface{}{"buffer": 0, "byteOffset": offset, "byteLength": idxLen, "target": 34963})
	return views
}
