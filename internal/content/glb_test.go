package content

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecopia-map/cdb2tiles/internal/geom"
)

func triangleMesh() *Mesh {
	return &Mesh{
		Vertices: []Vertex{
			{Position: geom.Vector3{X: 0, Y: 0, Z: 0}},
			{Position: geom.Vector3{X: 1, Y: 0, Z: 0}},
			{Position: geom.Vector3{X: 0, Y: 1, Z: 0}},
		},
		Indices: []uint32{0, 1, 2},
	}
}

func TestGLTFEncoderProducesValidGLBHeader(t *testing.T) {
	e := NewGLTFEncoder()
	assert.Equal(t, "glb", e.Extension())

	b, err := e.Encode(triangleMesh(), nil)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(b), 28)

	magic := binary.LittleEndian.Uint32(b[0:4])
	assert.Equal(t, uint32(0x46546C67), magic)
	version := binary.LittleEndian.Uint32(b[4:8])
	assert.Equal(t, uint32(2), version)
	totalLen := binary.LittleEndian.Uint32(b[8:12])
	assert.Equal(t, uint32(len(b)), totalLen)

	jsonChunkLen := binary.LittleEndian.Uint32(b[12:16])
	jsonChunkType := binary.LittleEndian.Uint32(b[16:20])
	assert.Equal(t, uint32(0x4E4F534A), jsonChunkType)
	assert.Equal(t, 0, int(jsonChunkLen)%4)

	binChunkOffset := 20 + int(jsonChunkLen)
	binChunkLen := binary.LittleEndian.Uint32(b[binChunkOffset : binChunkOffset+4])
	binChunkType := binary.LittleEndian.Uint32(b[binChunkOffset+4 : binChunkOffset+8])
	assert.Equal(t, uint32(0x004E4942), binChunkType)
	assert.Equal(t, 0, int(binChunkLen)%4)

	wantTotal := 12 + 8 + int(jsonChunkLen) + 8 + int(binChunkLen)
	assert.Equal(t, wantTotal, len(b))
}

func TestGLTFEncoderOmitsUVAccessorWithoutTexture(t *testing.T) {
	mesh := triangleMesh()
	attrs := buildAttributes(attributeLayout(mesh))
	_, hasUVAttr := attrs["TEXCOORD_0"]
	assert.False(t, hasUVAttr)

	mesh.Texture = &Texture{}
	attrs = buildAttributes(attributeLayout(mesh))
	_, hasUVAttr = attrs["TEXCOORD_0"]
	assert.True(t, hasUVAttr)
}

func TestGLTFEncoderEmitsFeatureTableExtension(t *testing.T) {
	mesh := triangleMesh()
	mesh.Texture = &Texture{}
	mesh.FeatureIDTexture = &Texture{}
	mesh.FeatureTable = &FeatureTable{
		ClassName:    "rmMaterial",
		FeatureNames: []string{"grass", "water"},
		FeatureCodes: map[string]int{"grass": 1, "water": 2},
	}

	layout := attributeLayout(mesh)
	attrs := buildAttributes(layout)
	_, hasFeatureID := attrs["_FEATURE_ID_0"]
	assert.True(t, hasFeatureID)

	b, err := NewGLTFEncoder().Encode(mesh, nil)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(b), 28)

	meta := buildStructuralMetadata(mesh.FeatureTable)
	schema := meta["schema"].(map[string]interface{})
	classes := schema["classes"].(map[string]interface{})
	_, hasClass := classes["rmMaterial"]
	assert.True(t, hasClass)
}

func TestPadGLBPadsToFourByteBoundary(t *testing.T) {
	assert.Equal(t, 4, len(padGLB([]byte{1, 2, 3}, 0)))
	assert.Equal(t, 4, len(padGLB([]byte{1, 2, 3, 4}, 0)))
	assert.Equal(t, []byte{1, 2, 3, ' '}, padGLB([]byte{1, 2, 3}, ' '))
}
