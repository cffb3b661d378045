package availability

import (
	"fmt"

	"github.com/ecopia-map/cdb2tiles/internal/cdberr"
)

// Constants holds the derived sizing for a given subtreeLevels depth,
// computed once and shared by every subtree at that depth (§4.2).
type Constants struct {
	SubtreeLevels int

	SubtreeNodeCount  uint64
	ChildSubtreeCount uint64

	AvailabilityByteLength       int
	NodeAvailByteLenPadded       int
	ChildSubtreeAvailByteLen     int
	ChildSubtreeAvailByteLenPadded int
}

// align8 rounds n up to the next multiple of 8.
func align8(n int) int {
	if n%8 == 0 {
		return n
	}
	return n + (8 - n%8)
}

func ceilDiv8(n uint64) int {
	return int((n + 7) / 8)
}

// NewConstants validates subtreeLevels (§7 InvalidConfiguration) and
// derives the byte lengths of every buffer a subtree at this depth needs.
func NewConstants(subtreeLevels int) (Constants, error) {
	if subtreeLevels < 1 {
		return Constants{}, cdberr.Newf(cdberr.InvalidConfiguration, "subtreeLevels must be >= 1, got %d", subtreeLevels)
	}
	c := Constants{SubtreeLevels: subtreeLevels}
	c.SubtreeNodeCount = levelNodeOffset(subtreeLevels)
	c.ChildSubtreeCount = pow4(subtreeLevels)
	c.AvailabilityByteLength = ceilDiv8(c.SubtreeNodeCount)
	c.NodeAvailByteLenPadded = align8(c.AvailabilityByteLength)
	c.ChildSubtreeAvailByteLen = ceilDiv8(c.ChildSubtreeCount)
	c.ChildSubtreeAvailByteLenPadded = align8(c.ChildSubtreeAvailByteLen)
	return c, nil
}

// RootKey identifies a subtree root within a (dataset, CS-key) bucket by
// its level and quadtree coordinate at that level.
type RootKey struct {
	Level int
	X, Y  int
}

// String returns the "L_X_Y" form §4.2 mandates for subtree key strings.
func (k RootKey) String() string {
	return fmt.Sprintf("%d_%d_%d", k.Level, k.X, k.Y)
}

// SubtreeAvailability is the mutable per-subtree accumulator: a node
// availability buffer, a child-subtree availability buffer, and their
// popcounts. Buffers are owned exclusively by the Index that created them
// (DESIGN NOTES §9 "shared vs. owned buffers") — callers must not retain
// slices returned by NodeBuffer/ChildBuffer past the next mutation.
type SubtreeAvailability struct {
	nodeBuffer  []byte
	childBuffer []byte
	nodeCount   uint64
	childCount  uint64
}

func newSubtreeAvailability(c Constants) *SubtreeAvailability {
	return &SubtreeAvailability{
		nodeBuffer:  make([]byte, c.NodeAvailByteLenPadded),
		childBuffer: make([]byte, c.ChildSubtreeAvailByteLenPadded),
	}
}

func (s *SubtreeAvailability) NodeCount() uint64  { return s.nodeCount }
func (s *SubtreeAvailability) ChildCount() uint64 { return s.childCount }

// NodeBuffer returns the padded node-availability buffer, read-only.
func (s *SubtreeAvailability) NodeBuffer() []byte { return s.nodeBuffer }

// ChildBuffer returns the padded child-subtree-availability buffer, read-only.
func (s *SubtreeAvailability) ChildBuffer() []byte { return s.childBuffer }

// setBitAtXYLevelMorton sets the bit identified by (localX, localY,
// localLevel) in buffer, per the index formula in §4.2/§6. Returns whether
// the bit was already set (I1 idempotence); does not touch any count.
func setBitAtXYLevelMorton(buffer []byte, localX, localY, localLevel int) (bool, error) {
	idx := mortonIndex(localLevel, uint32(localX), uint32(localY))
	byteIdx := int(idx / 8)
	bitIdx := uint(idx % 8)
	if byteIdx >= len(buffer) {
		return false, cdberr.Newf(cdberr.OutOfRange,
			"morton index %d (byte %d) exceeds buffer of length %d at level %d (%d,%d)",
			idx, byteIdx, len(buffer), localLevel, localX, localY)
	}
	mask := byte(1) << bitIdx
	already := buffer[byteIdx]&mask != 0
	buffer[byteIdx] |= mask
	return already, nil
}

// popcount counts the set bits across buf, used at flush time to check I4.
func popcount(buf []byte) uint64 {
	var n uint64
	for _, b := range buf {
		for b != 0 {
			n += uint64(b & 1)
			b >>= 1
		}
	}
	return n
}
