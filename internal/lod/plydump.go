package lod

import (
	"fmt"
	"path/filepath"

	ply "github.com/cobaltgray/go-plyfile"

	"github.com/ecopia-map/cdb2tiles/internal/cdbtile"
	"github.com/ecopia-map/cdb2tiles/internal/content"
)

// debugMeshColor is the flat vertex color stamped on every dumped mesh;
// elevation meshes carry no per-vertex color of their own, so unlike the
// teacher's point-cloud dump (which has real RGB per point) there is
// nothing more meaningful to put here.
const debugMeshColor = 180

// DumpMesh writes mesh to <dir>/<tile>.ply for manual inspection, the
// same ply.Vertex/ply.WritePlyFile shape the teacher uses for its point
// tile debug dumps, adapted from points to the LR's triangle meshes.
func DumpMesh(dir string, tile cdbtile.CDBTile, mesh *content.Mesh) error {
	verts := make([]ply.Vertex, len(mesh.Vertices))
	for i, v := range mesh.Vertices {
		verts[i] = ply.Vertex{
			X: float32(v.Position.X),
			Y: float32(v.Position.Y),
			Z: float32(v.Position.Z),
			R: debugMeshColor,
			G: debugMeshColor,
			B: debugMeshColor,
		}
	}

	path := filepath.Join(dir, fmt.Sprintf("%s.ply", tile.FileNamePrefix()))
	return ply.WritePlyFile(path, verts)
}
