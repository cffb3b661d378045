package content

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComposeCMPTHeaderAndPayload(t *testing.T) {
	tileA := []byte{1, 2, 3, 4}
	tileB := []byte{5, 6, 7, 8, 9}

	out := ComposeCMPT([][]byte{tileA, tileB})

	magic := binary.LittleEndian.Uint32(out[0:4])
	assert.Equal(t, uint32(0x746D7063), magic)
	version := binary.LittleEndian.Uint32(out[4:8])
	assert.Equal(t, uint32(1), version)
	byteLength := binary.LittleEndian.Uint32(out[8:12])
	assert.Equal(t, uint32(len(out)), byteLength)
	tilesLength := binary.LittleEndian.Uint32(out[12:16])
	assert.Equal(t, uint32(2), tilesLength)

	assert.Equal(t, tileA, out[16:20])
	assert.Equal(t, tileB, out[20:25])
	assert.Len(t, out, 16+len(tileA)+len(tileB))
}

func TestComposeCMPTEmpty(t *testing.T) {
	out := ComposeCMPT(nil)
	assert.Len(t, out, 16)
	tilesLength := binary.LittleEndian.Uint32(out[12:16])
	assert.Equal(t, uint32(0), tilesLength)
}
