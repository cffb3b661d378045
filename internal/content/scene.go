// Package content defines the boundary the conversion core crosses into
// the glTF/B3DM/I3DM/CMPT encoders. Per the scope notes, these encoders
// are external collaborators consumed only through an in-memory scene
// graph interface — Mesh here is that scene graph, and Encoder is the
// seam a real glTF toolchain would sit behind. The concrete encoders in
// this package are a minimal, self-contained implementation of that seam
// (so the pipeline is runnable end to end), built directly from the
// teacher's std_consumer.go pnts binary-writer shape: a fixed magic +
// version + length header, a JSON feature/batch table, and a binary body,
// generalized from the teacher's point-cloud payload to a triangle mesh.
package content

import "github.com/ecopia-map/cdb2tiles/internal/geom"

// Vertex is one mesh vertex: position (for elevation meshes, X and Y are
// 0..1 fractions of the tile's bounding rectangle and Z is the height
// sample), optional normal, and optional texture coordinate.
type Vertex struct {
	Position geom.Vector3
	Normal   geom.Vector3
	HasNormal bool
	U, V     float64
}

// Mesh is the minimal triangle-mesh scene graph the LR hands to a content
// Encoder: a vertex buffer, a triangle index buffer, and the texture (if
// any) in scope for this tile.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
	Texture  *Texture

	// FeatureIDTexture, when non-nil, carries the RM feature-ID texture
	// (§4.3 step 4) alongside the base color texture.
	FeatureIDTexture *Texture

	// FeatureTable, when non-nil, is the RM descriptor's feature
	// dictionary for this tile (§4.3 step 4): the Encoder writes it into
	// the glTF as an EXT_mesh_features feature ID plus an
	// EXT_structural_metadata property table rather than letting
	// FeatureIDTexture sit unused.
	FeatureTable *FeatureTable

	// UVRect records which WGS-84 rectangle the current Vertex.U/V values
	// are expressed as a 0..1 fraction of — i.e. the rectangle actually
	// covered by whatever texture is in scope. The LOD Reconciler reads
	// and updates this whenever it reindexes UVs after adopting an
	// ancestor's imagery or assigning a hole-filled quadrant its own
	// fresh imagery (§4.3 steps 4 and 6).
	UVRect geom.Rect
}

// Texture is an in-memory raster payload plus its encoded bytes, already
// produced by the (out of scope) raster I/O writer.
type Texture struct {
	Width, Height int
	// EncodedBytes holds the already-compressed image (e.g. JPEG/PNG)
	// the raster writer produced; the content encoders in this package
	// neither read nor embed it.
	EncodedBytes []byte
	RelativeURI  string
}

// FeatureTable is the transcoded form of a CDB RM descriptor (§4.3 step
// 4): the dictionary an RM texture's pixel codes index into. ClassName
// names the materials.Schema class the descriptor's codes belong to, so
// the Encoder can emit a matching EXT_structural_metadata schema/class
// pair; FeatureCodes maps each name in FeatureNames to its integer code.
type FeatureTable struct {
	ClassName    string
	FeatureNames []string
	FeatureCodes map[string]int
}

// Encoder turns a Mesh plus attribute rows into bytes ready to write to
// the tile's content file. BatchAttributes carries one row per logical
// feature/instance for vector and model datasets (§4.4); it is nil for
// plain elevation content.
type Encoder interface {
	// Extension returns the file extension this encoder produces, not
	// including the leading dot ("b3dm", "glb", "cmpt", "i3dm").
	Extension() string
	Encode(mesh *Mesh, batchAttributes []map[string]interface{}) ([]byte, error)
}
