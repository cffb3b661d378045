package lod

import (
	"github.com/ecopia-map/cdb2tiles/internal/cdbtile"
	"github.com/ecopia-map/cdb2tiles/internal/content"
	"github.com/ecopia-map/cdb2tiles/internal/geom"
)

// degenerateThreshold is the squared-length cutoff below which an
// accumulated normal is treated as degenerate (§4.3 step 2).
const degenerateThreshold = 1e-10

// GenerateNormals computes per-vertex normals for mesh by accumulating
// unnormalized triangle cross products at each vertex and normalizing,
// substituting the WGS-84 geodetic surface normal at the vertex's own
// cartographic position for any vertex whose accumulated normal is
// degenerate. tile provides the cartographic frame (bounding region) used
// to recover a vertex's longitude/latitude from its local XYZ position.
func GenerateNormals(mesh *content.Mesh, tile cdbtile.CDBTile, minHeight, maxHeight float64) {
	if len(mesh.Vertices) == 0 {
		return
	}
	accum := make([]geom.Vector3, len(mesh.Vertices))

	for i := 0; i+2 < len(mesh.Indices); i += 3 {
		ia, ib, ic := mesh.Indices[i], mesh.Indices[i+1], mesh.Indices[i+2]
		a, b, c := mesh.Vertices[ia].Position, mesh.Vertices[ib].Position, mesh.Vertices[ic].Position
		n := b.Sub(a).Cross(c.Sub(a))
		accum[ia] = accum[ia].Add(n)
		accum[ib] = accum[ib].Add(n)
		accum[ic] = accum[ic].Add(n)
	}

	region := tile.BoundingRegion(minHeight, maxHeight)
	for i := range mesh.Vertices {
		n := accum[i]
		if n.LengthSquared() < degenerateThreshold {
			lon, lat := cartographicOf(mesh.Vertices[i].Position, region)
			n = geom.WGS84GeodeticNormal(lon, lat)
		} else {
			n = n.Normalized()
		}
		mesh.Vertices[i].Normal = n
		mesh.Vertices[i].HasNormal = true
	}
}

// cartographicOf recovers a vertex's longitude/latitude in degrees from
// its local XYZ position, assuming positions are stored relative to the
// tile's own bounding region (X,Y as a 0..1 fraction of the region's
// rectangle, matching the convention the mesh loader establishes for
// uniform-grid elevation tiles).
func cartographicOf(pos geom.Vector3, region geom.Region) (lonDeg, latDeg float64) {
	lonDeg = region.WestDeg + pos.X*(region.EastDeg-region.WestDeg)
	latDeg = region.SouthDeg + pos.Y*(region.NorthDeg-region.SouthDeg)
	return
}
