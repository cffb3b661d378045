// Package tileset implements the Tileset Collector (TC): the per-geocell
// tile tree, per-CS tileset collections, tileset.json serialization, and
// global/user-requested combination. Node's shape generalizes the
// teacher's octree node abstraction (internal/octree/tree_abstractions.go's
// ITree/INode, bounding-box-plus-children, now absent from this module
// since its point-cloud grid-splitting semantics have no CDB analogue) to
// a quadtree of CDBTiles.
package tileset

import "github.com/ecopia-map/cdb2tiles/internal/cdbtile"

// Node is one tile in a Tileset tree. Children are indexed by quadrant for
// positive-level tiles (NW, NE, SW, SE); negative-level tiles have at most
// one child, always stored at index 0.
type Node struct {
	Tile                 cdbtile.CDBTile
	Children             [4]*Node
	ContentURI           string
	GeometricError       float64
	MinHeight, MaxHeight float64
	// Implicit marks a node created only to bridge the gap between an
	// inserted tile and its nearest already-inserted ancestor (§4.4 step
	// 4): it carries no content and is not itself emitted as a tile, but
	// still appears in the serialized tree so children resolve correctly.
	Implicit bool
}

func (n *Node) attachChild(child *Node) {
	if n.Tile.Level < 0 {
		n.Children[0] = child
		return
	}
	q, ok := cdbtile.QuadrantOf(n.Tile, child.Tile)
	if !ok {
		// child is not a direct quadrant child of n (e.g. spans more than
		// one level because an intermediate ancestor was itself implicit
		// and skipped) -- fall back to the first open slot, preserving
		// NW,NE,SW,SE priority order for any further ties (§4.4 step 4).
		for i := range n.Children {
			if n.Children[i] == nil {
				n.Children[i] = child
				return
			}
		}
		return
	}
	n.Children[q] = child
}
