package cdbtile

import (
	"fmt"

	"github.com/ecopia-map/cdb2tiles/internal/geom"
)

// MaxLevel bounds the positive-LOD descent (§8 I7, §4.3 termination).
const MaxLevel = 23

// CDBTile is the value type identifying a single CDB tile coordinate. All
// derivation operations on it (parent, quadrant children, bounding region,
// relative path) are pure — this type carries no I/O, matching the
// teacher's octree node/geometry usage pattern generalized to the CDB
// coordinate system instead of a LAS point-cloud octree.
type CDBTile struct {
	GeoCell GeoCell
	Dataset Dataset
	CS1     int
	CS2     int
	Level   int
	UREF    int
	RREF    int

	// CustomOutputURI overrides the derived content filename when set by
	// the collector after content has been emitted (§4.4 step 3).
	CustomOutputURI string
}

// CSKey returns the "CS1_CS2" string form used to key tileset collections
// and availability buckets.
func (t CDBTile) CSKey() string {
	return fmt.Sprintf("%d_%d", t.CS1, t.CS2)
}

// Parent returns the tile's parent, or (zero, false) if t has no parent
// representable within the model.
//
//   - level > 0:  halves UREF/RREF and decrements level.
//   - level <= 0: decrements level; returns false once decrementing would
//     fall outside the negative-LOD floor established by the implementation
//     limit (mirrored here as -MaxLevel, symmetric with the positive climb).
func (t CDBTile) Parent() (CDBTile, bool) {
	p := t
	if t.Level > 0 {
		p.Level = t.Level - 1
		p.UREF = t.UREF / 2
		p.RREF = t.RREF / 2
		return p, true
	}
	if t.Level-1 < -MaxLevel {
		return CDBTile{}, false
	}
	p.Level = t.Level - 1
	p.UREF = 0
	p.RREF = 0
	return p, true
}

// Quadrant identifies one of the four children produced at a positive LOD.
type Quadrant int

const (
	NW Quadrant = iota
	NE
	SW
	SE
)

// Child returns the requested quadrant child of t. t.Level must be >= 0.
func (t CDBTile) Child(q Quadrant) CDBTile {
	c := t
	c.Level = t.Level + 1
	switch q {
	case NW:
		c.RREF, c.UREF = 2*t.RREF, 2*t.UREF+1
	case NE:
		c.RREF, c.UREF = 2*t.RREF+1, 2*t.UREF+1
	case SW:
		c.RREF, c.UREF = 2*t.RREF, 2*t.UREF
	case SE:
		c.RREF, c.UREF = 2*t.RREF+1, 2*t.UREF
	}
	return c
}

// Children returns all four quadrant children in NW, NE, SW, SE order, the
// tie-break order §4.4 step 4 mandates for tileset insertion.
func (t CDBTile) Children() [4]CDBTile {
	return [4]CDBTile{t.Child(NW), t.Child(NE), t.Child(SW), t.Child(SE)}
}

// QuadrantOf reports which quadrant child of parent has the same
// Level/UREF/RREF as child, for callers (the tileset collector) that need
// to recover the quadrant relationship after having derived child via
// Parent() rather than Child().
func QuadrantOf(parent, child CDBTile) (Quadrant, bool) {
	for _, q := range [4]Quadrant{NW, NE, SW, SE} {
		c := parent.Child(q)
		if c.Level == child.Level && c.UREF == child.UREF && c.RREF == child.RREF {
			return q, true
		}
	}
	return 0, false
}

// ChildForNegativeLOD returns the single child of a negative-LOD tile.
// t.Level must be < 0.
func (t CDBTile) ChildForNegativeLOD() CDBTile {
	c := t
	c.Level = t.Level + 1
	c.UREF, c.RREF = 0, 0
	return c
}

// BoundingRegion computes the WGS-84 rectangle (and, when minH/maxH are
// supplied by the caller from loaded content, the height range) that this
// tile covers. For level < 0 the whole geocell rectangle is returned.
func (t CDBTile) BoundingRegion(minHeight, maxHeight float64) geom.Region {
	cell := t.GeoCell.Rect()
	if t.Level < 0 {
		return geom.Region{Rect: cell, MinHeight: minHeight, MaxHeight: maxHeight}
	}
	n := float64(int64(1) << uint(t.Level))
	dLon := (cell.EastDeg - cell.WestDeg) / n
	dLat := (cell.NorthDeg - cell.SouthDeg) / n
	west := cell.WestDeg + float64(t.RREF)*dLon
	south := cell.SouthDeg + float64(t.UREF)*dLat
	return geom.Region{
		Rect: geom.Rect{
			WestDeg:  west,
			EastDeg:  west + dLon,
			SouthDeg: south,
			NorthDeg: south + dLat,
		},
		MinHeight: minHeight,
		MaxHeight: maxHeight,
	}
}

// levelDirName formats a level the way CDB directory names require: zero
// padded to two digits with an explicit sign for negative levels, e.g.
// "LC00", "LC09", "LC-1".
func levelDirName(level int) string {
	if level < 0 {
		return fmt.Sprintf("LC%d", level)
	}
	return fmt.Sprintf("LC%02d", level)
}

// RelativePath builds the canonical CDB layout
// "<geocell>/<dataset-dir>/LCxx/UyyRxx" for the tile's directory.
func (t CDBTile) RelativePath() string {
	return fmt.Sprintf("%s/%s/%s/U%dR%d",
		t.GeoCell.RelativePath(), t.Dataset.DirName(), levelDirName(t.Level), t.UREF, t.RREF)
}

// FileNamePrefix builds the tile's content filename stem, using a
// non-zero-padded level as required for output file naming (distinct from
// RelativePath's zero-padded directory segment).
func (t CDBTile) FileNamePrefix() string {
	return fmt.Sprintf("D%d_S%d_T%d_L%d_U%d_R%d", t.CS1, t.CS2, int(t.Dataset), t.Level, t.UREF, t.RREF)
}

func (t CDBTile) String() string {
	return fmt.Sprintf("CDBTile{%s L%d U%d R%d CS%d_%d}", t.GeoCell, t.Level, t.UREF, t.RREF, t.CS1, t.CS2)
}
