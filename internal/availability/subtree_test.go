package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConstantsDerivesByteLengths(t *testing.T) {
	c, err := NewConstants(2)
	require.NoError(t, err)
	// levels 0 and 1: 1 + 4 = 5 nodes.
	assert.Equal(t, uint64(5), c.SubtreeNodeCount)
	// 4^2 = 16 child subtrees.
	assert.Equal(t, uint64(16), c.ChildSubtreeCount)
	assert.Equal(t, 1, c.AvailabilityByteLength) // ceil(5/8)
	assert.Equal(t, 8, c.NodeAvailByteLenPadded)
	assert.Equal(t, 2, c.ChildSubtreeAvailByteLen) // ceil(16/8)
	assert.Equal(t, 8, c.ChildSubtreeAvailByteLenPadded)
}

func TestNewConstantsRejectsNonPositiveLevels(t *testing.T) {
	_, err := NewConstants(0)
	assert.Error(t, err)
	_, err = NewConstants(-1)
	assert.Error(t, err)
}

func TestSetBitAtXYLevelMortonIdempotent(t *testing.T) {
	c, err := NewConstants(3)
	require.NoError(t, err)
	s := newSubtreeAvailability(c)

	already, err := setBitAtXYLevelMorton(s.nodeBuffer, 1, 1, 1)
	require.NoError(t, err)
	assert.False(t, already)

	already, err = setBitAtXYLevelMorton(s.nodeBuffer, 1, 1, 1)
	require.NoError(t, err)
	assert.True(t, already)
}

func TestSetBitAtXYLevelMortonOutOfRange(t *testing.T) {
	c, err := NewConstants(1)
	require.NoError(t, err)
	s := newSubtreeAvailability(c)

	_, err = setBitAtXYLevelMorton(s.nodeBuffer, 100, 100, 5)
	assert.Error(t, err)
}

func TestPopcount(t *testing.T) {
	assert.Equal(t, uint64(0), popcount([]byte{0x00}))
	assert.Equal(t, uint64(8), popcount([]byte{0xff}))
	assert.Equal(t, uint64(4), popcount([]byte{0x0f, 0x00}))
}
