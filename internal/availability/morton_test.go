package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMorton2DRoundTrip(t *testing.T) {
	for x := uint32(0); x < 16; x++ {
		for y := uint32(0); y < 16; y++ {
			m := morton2D(x, y)
			gotX, gotY := morton2DDecode(m)
			assert.Equal(t, x, gotX)
			assert.Equal(t, y, gotY)
		}
	}
}

func TestMortonIndexLevelOffsets(t *testing.T) {
	// Level 0 has a single node, occupying index 0.
	assert.Equal(t, uint64(0), mortonIndex(0, 0, 0))
	// Level 1 starts right after level 0's single node.
	assert.Equal(t, uint64(1), mortonIndex(1, 0, 0))
	// Level 2 starts after level 0 (1) + level 1 (4) = 5 nodes.
	assert.Equal(t, uint64(5), mortonIndex(2, 0, 0))
}

func TestPow4(t *testing.T) {
	assert.Equal(t, uint64(1), pow4(0))
	assert.Equal(t, uint64(4), pow4(1))
	assert.Equal(t, uint64(16), pow4(2))
	assert.Equal(t, uint64(256), pow4(4))
}
