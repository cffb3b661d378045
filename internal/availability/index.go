package availability

import (
	"fmt"

	"github.com/ecopia-map/cdb2tiles/internal/cdbtile"
	"github.com/ecopia-map/cdb2tiles/internal/cdberr"
)

// bucketKey identifies a (dataset, CS-key) availability bucket.
type bucketKey struct {
	dataset cdbtile.Dataset
	csKey   string
}

// Index is the process-level availability accumulator (§3
// "AvailabilityIndex"): a Dataset -> CS-key -> subtree-root-key mapping to
// SubtreeAvailability, kept in two parallel forms —
//
//   - tileOnly: the bit set by addAvailability for the tile's own position,
//     with no ancestor bubbling. Used to decide whether a subtree's
//     content-availability sidecar must be emitted, and then as that
//     sidecar's bits or its constant (§4.2 step 2, and the
//     first Open Question in §9: the gating decision is asymmetric with
//     what the bubbled form publishes).
//   - tileAndChild: the same bit, plus every ancestor bit set by
//     setParentBitsRecursively. This is what flushSubtrees serializes into
//     tileAvailability/childSubtreeAvailability.
//
// All state here is owned by a single convert() invocation and is cleared
// per geocell (§3 Lifecycle); Index carries no internal locking since the
// core is single-threaded end to end (§5).
type Index struct {
	constants Constants

	tileOnly     map[bucketKey]map[RootKey]*SubtreeAvailability
	tileAndChild map[bucketKey]map[RootKey]*SubtreeAvailability
}

// NewIndex builds an Index for the given subtree depth.
func NewIndex(subtreeLevels int) (*Index, error) {
	c, err := NewConstants(subtreeLevels)
	if err != nil {
		return nil, err
	}
	return &Index{
		constants:    c,
		tileOnly:     make(map[bucketKey]map[RootKey]*SubtreeAvailability),
		tileAndChild: make(map[bucketKey]map[RootKey]*SubtreeAvailability),
	}, nil
}

func (ix *Index) Constants() Constants { return ix.constants }

// Reset clears all accumulated state (§3 "the availability index is
// cleared per geocell").
func (ix *Index) Reset() {
	ix.tileOnly = make(map[bucketKey]map[RootKey]*SubtreeAvailability)
	ix.tileAndChild = make(map[bucketKey]map[RootKey]*SubtreeAvailability)
}

func (ix *Index) subtree(m map[bucketKey]map[RootKey]*SubtreeAvailability, bk bucketKey, rk RootKey) *SubtreeAvailability {
	byRoot, ok := m[bk]
	if !ok {
		byRoot = make(map[RootKey]*SubtreeAvailability)
		m[bk] = byRoot
	}
	s, ok := byRoot[rk]
	if !ok {
		s = newSubtreeAvailability(ix.constants)
		byRoot[rk] = s
	}
	return s
}

// AddAvailability marks tile as available (§4.2 addAvailability). tile
// must have Level >= 0; callers are expected to guard that, mirroring the
// §4.4/§4.3 call sites which only invoke this when level >= 0.
func (ix *Index) AddAvailability(tile cdbtile.CDBTile) error {
	if tile.Level < 0 {
		return cdberr.New(cdberr.InvalidConfiguration, "AddAvailability requires a non-negative level")
	}
	sl := ix.constants.SubtreeLevels
	subtreeRootLevel := (tile.Level / sl) * sl
	levelWithinSubtree := tile.Level - subtreeRootLevel
	subtreeRootX := tile.RREF >> uint(levelWithinSubtree)
	subtreeRootY := tile.UREF >> uint(levelWithinSubtree)
	localX := tile.RREF - subtreeRootX<<uint(levelWithinSubtree)
	localY := tile.UREF - subtreeRootY<<uint(levelWithinSubtree)

	bk := bucketKey{dataset: tile.Dataset, csKey: tile.CSKey()}
	rk := RootKey{Level: subtreeRootLevel, X: subtreeRootX, Y: subtreeRootY}

	tileOnly := ix.subtree(ix.tileOnly, bk, rk)
	already, err := setBitAtXYLevelMorton(tileOnly.nodeBuffer, localX, localY, levelWithinSubtree)
	if err != nil {
		return err
	}
	if !already {
		tileOnly.nodeCount++
	}

	bubbled := ix.subtree(ix.tileAndChild, bk, rk)
	already, err = setBitAtXYLevelMorton(bubbled.nodeBuffer, localX, localY, levelWithinSubtree)
	if err != nil {
		return err
	}
	if !already {
		bubbled.nodeCount++
	}

	return ix.setParentBitsRecursively(bk, tile.Level, tile.RREF, tile.UREF, subtreeRootLevel, subtreeRootX, subtreeRootY)
}

// setParentBitsRecursively climbs ancestors of the tile at (level, x, y),
// bubbling availability up the tile-and-child map until the root subtree
// is reached or an already-set bit short-circuits the climb (§4.2).
func (ix *Index) setParentBitsRecursively(bk bucketKey, level, x, y, rootLevel, rootX, rootY int) error {
	sl := ix.constants.SubtreeLevels
	for level > 0 {
		if level == rootLevel {
			rootLevel -= sl
			rootX >>= uint(sl)
			rootY >>= uint(sl)
			localX := x - rootX<<uint(sl)
			localY := y - rootY<<uint(sl)
			parent := ix.subtree(ix.tileAndChild, bk, RootKey{Level: rootLevel, X: rootX, Y: rootY})
			already, err := setBitAtXYLevelMorton(parent.childBuffer, localX, localY, 0)
			if err != nil {
				return err
			}
			if !already {
				parent.childCount++
			}
			continue
		}
		level--
		x >>= 1
		y >>= 1
		localLevel := level - rootLevel
		localX := x - rootX<<uint(localLevel)
		localY := y - rootY<<uint(localLevel)
		sub := ix.subtree(ix.tileAndChild, bk, RootKey{Level: rootLevel, X: rootX, Y: rootY})
		wasSet, err := setBitAtXYLevelMorton(sub.nodeBuffer, localX, localY, localLevel)
		if err != nil {
			return err
		}
		if !wasSet {
			sub.nodeCount++
		} else {
			// ancestors above are already marked; terminate the climb.
			return nil
		}
	}
	return nil
}

// Buckets reports the set of (dataset, CS-key) buckets with any recorded
// availability, for flushSubtrees to iterate deterministically.
func (ix *Index) Buckets() []DatasetCS {
	seen := make(map[bucketKey]bool)
	var out []DatasetCS
	for bk := range ix.tileAndChild {
		if !seen[bk] {
			seen[bk] = true
			out = append(out, DatasetCS{Dataset: bk.dataset, CSKey: bk.csKey})
		}
	}
	return out
}

// DatasetCS names a (dataset, CS-key) bucket.
type DatasetCS struct {
	Dataset cdbtile.Dataset
	CSKey   string
}

func (d DatasetCS) String() string { return fmt.Sprintf("%s/%s", d.Dataset.DirName(), d.CSKey) }

// RootsForBucket returns every subtree root key recorded in the bubbled
// map for the given bucket.
func (ix *Index) RootsForBucket(bucket DatasetCS) []RootKey {
	bk := bucketKey{dataset: bucket.Dataset, csKey: bucket.CSKey}
	byRoot := ix.tileAndChild[bk]
	var out []RootKey
	for rk := range byRoot {
		out = append(out, rk)
	}
	return out
}

// TileAndChild returns the bubbled subtree for (bucket, root), creating it
// lazily with zeroed buffers if it was never touched.
func (ix *Index) TileAndChild(bucket DatasetCS, root RootKey) *SubtreeAvailability {
	return ix.subtree(ix.tileAndChild, bucketKey{bucket.Dataset, bucket.CSKey}, root)
}

// TileOnlyCount returns (nodeCount, appears) from the per-tile-only map
// for (bucket, root), without creating an entry if one is absent.
func (ix *Index) TileOnlyCount(bucket DatasetCS, root RootKey) (count uint64, appears bool) {
	byRoot, ok := ix.tileOnly[bucketKey{bucket.Dataset, bucket.CSKey}]
	if !ok {
		return 0, false
	}
	s, ok := byRoot[root]
	if !ok {
		return 0, false
	}
	return s.nodeCount, true
}

// TileOnlyConstant reports whether the per-tile-only buffer for
// (bucket, root) is constant (all-zero or all-one), per §4.2 step 2's
// sidecar-emission gate. A root absent from the per-tile-only map counts
// as constant (all-zero).
func (ix *Index) TileOnlyConstant(bucket DatasetCS, root RootKey) bool {
	count, appears := ix.TileOnlyCount(bucket, root)
	if !appears {
		return true
	}
	return count == 0 || count == ix.constants.SubtreeNodeCount
}
