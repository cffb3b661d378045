package tileset

import "github.com/ecopia-map/cdb2tiles/internal/cdbtile"

type tileKey struct {
	lat, lon, dataset, cs1, cs2, level, uref, rref int
}

func keyOf(t cdbtile.CDBTile) tileKey {
	return tileKey{t.GeoCell.LatitudeDeg, t.GeoCell.LongitudeDeg, int(t.Dataset), t.CS1, t.CS2, t.Level, t.UREF, t.RREF}
}

// Tileset is an ordered tree of tiles (§3). InsertTile places a tile under
// its deepest already-inserted ancestor, creating implicit intermediate
// nodes as needed (§4.4 step 4).
type Tileset struct {
	root  *Node
	nodes map[tileKey]*Node
	// extraRoots holds subtrees discovered before any common ancestor had
	// been inserted (possible only if a caller violates the typical
	// ascending-level iteration order in §5); WriteJSON emits them under
	// the document's extras.extraRoots so no tile is silently dropped.
	extraRoots []*Node
}

// NewTileset returns an empty tileset.
func NewTileset() *Tileset {
	return &Tileset{nodes: make(map[tileKey]*Node)}
}

// GetRoot returns the tileset's root node, or nil if empty.
func (ts *Tileset) GetRoot() *Node { return ts.root }

// GetFirstTileAtLevel returns a non-implicit node at the given level, or
// nil if none has been inserted. Nodes are scanned in map order, so when
// several exist at that level, which one is returned is not defined.
func (ts *Tileset) GetFirstTileAtLevel(level int) *Node {
	for _, n := range ts.nodes {
		if n.Tile.Level == level && !n.Implicit {
			return n
		}
	}
	return nil
}

// InsertTile places tile into the tree with the given content URI and
// geometric error, creating implicit ancestors as needed, and returns the
// node that now represents it.
func (ts *Tileset) InsertTile(tile cdbtile.CDBTile, contentURI string, geometricError, minHeight, maxHeight float64) *Node {
	k := keyOf(tile)
	if n, ok := ts.nodes[k]; ok {
		n.ContentURI = contentURI
		n.GeometricError = geometricError
		n.MinHeight, n.MaxHeight = minHeight, maxHeight
		n.Implicit = false
		return n
	}

	n := &Node{Tile: tile, ContentURI: contentURI, GeometricError: geometricError, MinHeight: minHeight, MaxHeight: maxHeight}
	ts.nodes[k] = n

	var chain []cdbtile.CDBTile
	cur := tile
	var existingAncestor *Node
	for {
		p, ok := cur.Parent()
		if !ok {
			break
		}
		if existing, found := ts.nodes[keyOf(p)]; found {
			existingAncestor = existing
			break
		}
		if p.Level < 0 {
			// Nothing coarser than cur has actually been loaded for this
			// collection yet: treat cur as the tree's top rather than
			// synthesizing negative-LOD ancestors down to the
			// implementation floor purely because CDBTile.Parent can
			// always compute one. A genuine negative-LOD chain is built
			// incrementally as the reconciler inserts each coarser tile in
			// turn, at which point that tile is already an existingAncestor
			// here rather than something this branch needs to invent.
			break
		}
		chain = append(chain, p)
		cur = p
	}

	childBelow := n
	for _, anc := range chain {
		ancNode := &Node{Tile: anc, Implicit: true}
		ts.nodes[keyOf(anc)] = ancNode
		ancNode.attachChild(childBelow)
		childBelow = ancNode
	}

	switch {
	case existingAncestor != nil:
		existingAncestor.attachChild(childBelow)
	case ts.root == nil:
		ts.root = childBelow
	default:
		ts.extraRoots = append(ts.extraRoots, childBelow)
	}

	return n
}

// MaxLevel returns the highest Level among tiles actually inserted (not
// implicit placeholders), used by the per-geocell flush (§4.4 "Determine
// maxLevel").
func (ts *Tileset) MaxLevel() int {
	max := 0
	first := true
	for _, n := range ts.nodes {
		if n.Implicit {
			continue
		}
		if first || n.Tile.Level > max {
			max = n.Tile.Level
			first = false
		}
	}
	return max
}

// Roots returns the primary root plus any extra disjoint roots, in
// insertion order, for serialization.
func (ts *Tileset) Roots() []*Node {
	if ts.root == nil {
		return ts.extraRoots
	}
	return append([]*Node{ts.root}, ts.extraRoots...)
}
