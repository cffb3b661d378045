package lod

import (
	"github.com/ecopia-map/cdb2tiles/internal/content"
	"github.com/ecopia-map/cdb2tiles/internal/geom"
)

// reindexUV remaps every vertex's UV from being a 0..1 fraction of oldRect
// to being a 0..1 fraction of newRect, and updates mesh.UVRect to match
// (§4.3 step 4: "reindex mesh UVs into the parent's UV space"; step 6:
// the mirror case when a hole-filled quadrant gets its own fresh
// imagery). UV values are assumed to already encode a linear fraction of
// whichever rectangle currently backs the mesh's texture, so the remap is
// a pure affine transform with no need to revisit vertex geometry.
func reindexUV(mesh *content.Mesh, oldRect, newRect geom.Rect) {
	oldW := oldRect.EastDeg - oldRect.WestDeg
	oldH := oldRect.NorthDeg - oldRect.SouthDeg
	newW := newRect.EastDeg - newRect.WestDeg
	newH := newRect.NorthDeg - newRect.SouthDeg
	if newW == 0 || newH == 0 {
		return
	}
	for i := range mesh.Vertices {
		v := &mesh.Vertices[i]
		lon := oldRect.WestDeg + v.U*oldW
		lat := oldRect.SouthDeg + v.V*oldH
		v.U = (lon - newRect.WestDeg) / newW
		v.V = (lat - newRect.SouthDeg) / newH
	}
	mesh.UVRect = newRect
}

// trimToQuadrant copies mesh, keeping only triangles whose centroid falls
// within childRect (the quadrant's own WGS-84 rectangle), used to
// synthesize the hole-filled sub-region elevation in §4.3 step 6. Vertex
// positions are assumed to be a 0..1 fraction of parentRect, matching the
// uniform-grid convention GenerateNormals/cartographicOf rely on; the
// copy's vertex positions are rescaled so they remain a 0..1 fraction of
// childRect, keeping the same local-frame convention for the synthesized
// tile.
func trimToQuadrant(mesh *content.Mesh, parentRect, childRect geom.Rect) *content.Mesh {
	// The synthesized mesh starts untextured with its UV identical to its
	// rescaled position (the same "own imagery" identity convention a
	// freshly loaded tile establishes); selectImagery overwrites it once
	// it resolves whichever imagery (own, ancestor, or none) applies.
	out := &content.Mesh{UVRect: childRect}
	remap := make(map[uint32]uint32)

	contains := func(pos geom.Vector3) bool {
		lon := parentRect.WestDeg + pos.X*(parentRect.EastDeg-parentRect.WestDeg)
		lat := parentRect.SouthDeg + pos.Y*(parentRect.NorthDeg-parentRect.SouthDeg)
		return lon >= childRect.WestDeg && lon <= childRect.EastDeg && lat >= childRect.SouthDeg && lat <= childRect.NorthDeg
	}

	addVertex := func(orig uint32) uint32 {
		if mapped, ok := remap[orig]; ok {
			return mapped
		}
		v := mesh.Vertices[orig]
		lon := parentRect.WestDeg + v.Position.X*(parentRect.EastDeg-parentRect.WestDeg)
		lat := parentRect.SouthDeg + v.Position.Y*(parentRect.NorthDeg-parentRect.SouthDeg)
		v.Position.X = (lon - childRect.WestDeg) / (childRect.EastDeg - childRect.WestDeg)
		v.Position.Y = (lat - childRect.SouthDeg) / (childRect.NorthDeg - childRect.SouthDeg)
		v.U, v.V = v.Position.X, v.Position.Y
		out.Vertices = append(out.Vertices, v)
		idx := uint32(len(out.Vertices) - 1)
		remap[orig] = idx
		return idx
	}

	for i := 0; i+2 < len(mesh.Indices); i += 3 {
		ia, ib, ic := mesh.Indices[i], mesh.Indices[i+1], mesh.Indices[i+2]
		centroid := geom.Vector3{
			X: (mesh.Vertices[ia].Position.X + mesh.Vertices[ib].Position.X + mesh.Vertices[ic].Position.X) / 3,
			Y: (mesh.Vertices[ia].Position.Y + mesh.Vertices[ib].Position.Y + mesh.Vertices[ic].Position.Y) / 3,
		}
		if !contains(centroid) {
			continue
		}
		out.Indices = append(out.Indices, addVertex(ia), addVertex(ib), addVertex(ic))
	}
	return out
}
